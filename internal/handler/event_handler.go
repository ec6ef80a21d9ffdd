package handler

import (
	"net/http"
	"time"

	"go-gin-event-booking/internal/model"
	"go-gin-event-booking/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type EventHandler struct {
	service service.EventService
}

func NewEventHandler(service service.EventService) *EventHandler {
	return &EventHandler{service: service}
}

// RegisterRoutes 查詢公開，建立與修改需要管理員
func (h *EventHandler) RegisterRoutes(public *gin.RouterGroup, admin *gin.RouterGroup) {
	public.GET("events", h.List)
	public.GET("events/:id", h.Get)
	public.GET("events/:id/availability", h.Availability)

	admin.POST("events", h.Create)
	admin.PUT("events/:id", h.Update)
	admin.PATCH("events/:id", h.Update)
}

// EventResponse 活動加上即時計算的售出座位與佔用率
type EventResponse struct {
	*model.Event
	SoldSeats        int     `json:"soldSeats"`
	OccupancyPercent float64 `json:"occupancyPercent"`
}

func toEventResponse(event *model.Event) EventResponse {
	return EventResponse{
		Event:            event,
		SoldSeats:        event.SoldSeats(),
		OccupancyPercent: event.OccupancyPercent(),
	}
}

type ListEventsQuery struct {
	From time.Time `form:"from"`
	To   time.Time `form:"to"`
}

func (h *EventHandler) List(c *gin.Context) {
	var query ListEventsQuery
	if err := BindQuery(c, &query); err != nil {
		return
	}

	filter := model.EventFilter{}
	if !query.From.IsZero() {
		filter.From = lo.ToPtr(query.From)
	}
	if !query.To.IsZero() {
		filter.To = lo.ToPtr(query.To)
	}

	events, err := h.service.List(c, filter)
	if err != nil {
		handleError(c, err, "ListEvents")
		return
	}

	handleSuccess(c, lo.Map(events, func(e *model.Event, _ int) EventResponse {
		return toEventResponse(e)
	}), http.StatusOK)
}

func (h *EventHandler) Get(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	event, err := h.service.Get(c, id)
	if err != nil {
		handleError(c, err, "GetEvent")
		return
	}

	handleSuccess(c, toEventResponse(event), http.StatusOK)
}

func (h *EventHandler) Availability(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	snapshot, err := h.service.Availability(c, id)
	if err != nil {
		handleError(c, err, "Availability")
		return
	}

	handleSuccess(c, snapshot, http.StatusOK)
}

func (h *EventHandler) Create(c *gin.Context) {
	var req model.CreateEventRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	created, err := h.service.Create(c, req.ToEvent())
	if err != nil {
		handleError(c, err, "CreateEvent")
		return
	}

	handleSuccess(c, toEventResponse(created), http.StatusCreated)
}

func (h *EventHandler) Update(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	var req model.UpdateEventRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	updated, err := h.service.Update(c, id, req.ToParams())
	if err != nil {
		handleError(c, err, "UpdateEvent")
		return
	}

	handleSuccess(c, toEventResponse(updated), http.StatusOK)
}
