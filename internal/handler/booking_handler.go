package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"go-gin-event-booking/internal/middleware"
	"go-gin-event-booking/internal/model"
	"go-gin-event-booking/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type BookingHandler struct {
	service service.BookingService
}

func NewBookingHandler(service service.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes authed 需已套用 JWTAuth
func (h *BookingHandler) RegisterRoutes(authed *gin.RouterGroup) {
	admin := middleware.RequireRole(model.RoleAdmin)

	authed.GET("bookings", h.ListBookings)
	authed.GET("bookings/:id", h.GetBooking)
	authed.POST("bookings", h.CreateBooking)
	authed.POST("bookings/:id/cancel", h.CancelBooking)
	authed.POST("bookings/:id/refund", admin, h.RefundBooking)
	authed.GET("events/:id/bookings", admin, h.ListEventBookings)
}

// ListBookingsQuery 查詢參數；時間使用 RFC3339
type ListBookingsQuery struct {
	Status string    `form:"status" binding:"omitempty,oneof=pending confirmed cancelled refunded"`
	From   time.Time `form:"from"`
	To     time.Time `form:"to"`
	SortBy string    `form:"sortBy" binding:"omitempty,oneof=booking_date total_amount number_of_tickets created_at"`
	Order  string    `form:"order" binding:"omitempty,oneof=asc desc"`
	Page   int       `form:"page" binding:"omitempty,min=1"`
	Limit  int       `form:"limit" binding:"omitempty,min=1,max=100"`
}

func (q ListBookingsQuery) toFilter() model.BookingFilter {
	filter := model.BookingFilter{
		SortBy: q.SortBy,
		Order:  q.Order,
		Page:   q.Page,
		Limit:  q.Limit,
	}
	if q.Status != "" {
		filter.Status = lo.ToPtr(model.BookingStatus(q.Status))
	}
	if !q.From.IsZero() {
		filter.From = lo.ToPtr(q.From)
	}
	if !q.To.IsZero() {
		filter.To = lo.ToPtr(q.To)
	}
	return filter
}

func (h *BookingHandler) CreateBooking(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req model.CreateBookingRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	booking, err := h.service.CreateBooking(c, model.CreateBookingParams{
		UserID:          actor.UserID,
		EventID:         req.EventID,
		NumberOfTickets: req.NumberOfTickets,
		AttendeeInfo:    req.AttendeeInfo,
		SpecialRequests: req.SpecialRequests,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		handleError(c, err, "CreateBooking")
		return
	}

	handleSuccess(c, booking, http.StatusCreated)
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := bindID(c)
	if !ok {
		return
	}

	booking, err := h.service.GetBooking(c, id, actor)
	if err != nil {
		handleError(c, err, "GetBooking")
		return
	}

	handleSuccess(c, booking, http.StatusOK)
}

func (h *BookingHandler) ListBookings(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var query ListBookingsQuery
	if err := BindQuery(c, &query); err != nil {
		return
	}

	page, err := h.service.ListBookings(c, actor, query.toFilter())
	if err != nil {
		handleError(c, err, "ListBookings")
		return
	}

	handleSuccess(c, page, http.StatusOK)
}

// ListEventBookings 管理員查看單一活動的所有訂位
func (h *BookingHandler) ListEventBookings(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	eventID, ok := bindID(c)
	if !ok {
		return
	}

	var query ListBookingsQuery
	if err := BindQuery(c, &query); err != nil {
		return
	}
	filter := query.toFilter()
	filter.EventID = &eventID

	page, err := h.service.ListBookings(c, actor, filter)
	if err != nil {
		handleError(c, err, "ListEventBookings")
		return
	}

	handleSuccess(c, page, http.StatusOK)
}

func (h *BookingHandler) CancelBooking(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := bindID(c)
	if !ok {
		return
	}

	// body 可省略；chunked 空 body 的 ContentLength 為 -1，只能靠 EOF 判斷
	var req model.CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		writeBindError(c, err)
		return
	}

	result, err := h.service.CancelBooking(c, model.CancelBookingParams{
		BookingID: id,
		Actor:     actor,
		Reason:    req.Reason,
	})
	if err != nil {
		handleError(c, err, "CancelBooking")
		return
	}

	handleSuccess(c, result, http.StatusOK)
}

func (h *BookingHandler) RefundBooking(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := bindID(c)
	if !ok {
		return
	}

	var req model.RefundBookingRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	booking, err := h.service.RefundBooking(c, model.RefundBookingParams{
		BookingID:    id,
		Actor:        actor,
		RefundAmount: *req.RefundAmount,
		Reason:       req.Reason,
	})
	if err != nil {
		handleError(c, err, "RefundBooking")
		return
	}

	handleSuccess(c, booking, http.StatusOK)
}
