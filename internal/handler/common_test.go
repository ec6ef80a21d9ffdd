package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"go-gin-event-booking/internal/handler"
	"go-gin-event-booking/internal/middleware"
	"go-gin-event-booking/internal/mocks/services"
	"go-gin-event-booking/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

var (
	InvalidJSON = `{"invalid": json}`

	user  = model.Actor{UserID: 42, Role: model.RoleUser}
	admin = model.Actor{UserID: 1, Role: model.RoleAdmin}
)

type testServer struct {
	router   *gin.Engine
	bookings *services.BookingServiceMock
	events   *services.EventServiceMock
}

func setupTestRouter(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	bookings := services.NewBookingServiceMock()
	events := services.NewEventServiceMock()
	health := handler.NewHealthHandler(map[string]handler.Check{
		"postgres": func(context.Context) error { return nil },
	})

	router := handler.NewRouter(
		handler.RouterConfig{JWTSecret: testSecret},
		handler.NewEventHandler(events),
		handler.NewBookingHandler(bookings),
		health,
	)
	return &testServer{router: router, bookings: bookings, events: events}
}

func tokenFor(t *testing.T, actor model.Actor) string {
	t.Helper()
	claims := middleware.Claims{
		Role: string(actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(actor.UserID),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return tok
}

// do 送出請求；actor 為 nil 時不帶 token，body 為 string 時原樣送出
func (s *testServer) do(t *testing.T, method, url string, actor *model.Actor, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf *bytes.Buffer
	switch b := body.(type) {
	case nil:
		buf = &bytes.Buffer{}
	case string:
		buf = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		buf = bytes.NewBuffer(data)
	}

	req := httptest.NewRequest(method, url, buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if actor != nil {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, *actor))
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}
