package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lectern/internal/core/services"
	"lectern/internal/infrastructure/repositories/memory"
	"lectern/pkg/logger"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	manager := services.NewMeetingManager(
		logger.Named(logger.NewNop(), "meetings"),
		memory.NewMemoryMeetingRepository(0),
		memory.NewMemoryAttendeeRepository(0),
		memory.NewMemoryConnectionRepository(),
		nil,
		services.MeetingManagerConfig{
			DefaultRegion: "us-east-1",
			MessagingURL:  "wss://hub.example.com/messaging",
			JWTSecret:     "test-secret",
			TokenTTL:      time.Hour,
		},
	)

	handler := NewMeetingHandler(manager, "us-east-1", logger.Named(logger.NewNop(), "http"), nil)

	router := gin.New()
	handler.RegisterRoutes(router.Group("/v1"))
	return router
}

func doRequest(t *testing.T, router *gin.Engine, method, target string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	router.ServeHTTP(w, req)

	body := make(map[string]json.RawMessage)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestHandler_JoinCreatesMeeting(t *testing.T) {
	router := newTestRouter(t)

	w, body := doRequest(t, router, http.MethodPost, "/v1/join?title=Math%20101&name=Alice&region=us-east-1&role=teacher")
	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, body, "JoinInfo")

	var info struct {
		Title    string `json:"Title"`
		Attendee struct {
			AttendeeID string `json:"AttendeeId"`
			JoinToken  string `json:"JoinToken"`
		} `json:"Attendee"`
	}
	require.NoError(t, json.Unmarshal(body["JoinInfo"], &info))
	assert.Equal(t, "math101", info.Title)
	assert.NotEmpty(t, info.Attendee.AttendeeID)
	assert.NotEmpty(t, info.Attendee.JoinToken)
}

func TestHandler_StudentJoinMissingMeeting(t *testing.T) {
	router := newTestRouter(t)

	w, body := doRequest(t, router, http.MethodPost, "/v1/join?title=math101&name=Bob&region=us-east-1&role=student")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, body, "error")
}

func TestHandler_JoinValidation(t *testing.T) {
	router := newTestRouter(t)

	w, body := doRequest(t, router, http.MethodPost, "/v1/join?title=math101&name=Alice&region=mars-1&role=teacher")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body, "error")
}

func TestHandler_AttendeeLookup(t *testing.T) {
	router := newTestRouter(t)

	_, body := doRequest(t, router, http.MethodPost, "/v1/join?title=math101&name=Alice&region=us-east-1&role=teacher")
	var info struct {
		Attendee struct {
			AttendeeID string `json:"AttendeeId"`
		} `json:"Attendee"`
	}
	require.NoError(t, json.Unmarshal(body["JoinInfo"], &info))

	w, body := doRequest(t, router, http.MethodGet, "/v1/attendee?title=math101&attendee="+info.Attendee.AttendeeID)
	require.Equal(t, http.StatusOK, w.Code)

	var attendee struct {
		AttendeeID string `json:"AttendeeId"`
		Name       string `json:"Name"`
	}
	require.NoError(t, json.Unmarshal(body["AttendeeInfo"], &attendee))
	assert.Equal(t, "Alice", attendee.Name)

	// Unknown attendees resolve to "Unknown", not an error.
	w, body = doRequest(t, router, http.MethodGet, "/v1/attendee?title=math101&attendee=nobody")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(body["AttendeeInfo"], &attendee))
	assert.Equal(t, "Unknown", attendee.Name)
}

func TestHandler_AttendeeRequiresParams(t *testing.T) {
	router := newTestRouter(t)

	w, _ := doRequest(t, router, http.MethodGet, "/v1/attendee?title=math101")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_EndMeeting(t *testing.T) {
	router := newTestRouter(t)

	doRequest(t, router, http.MethodPost, "/v1/join?title=math101&name=Alice&region=us-east-1&role=teacher")

	w, _ := doRequest(t, router, http.MethodPost, "/v1/end?title=math101")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = doRequest(t, router, http.MethodPost, "/v1/end?title=math101")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_CreateMeeting(t *testing.T) {
	router := newTestRouter(t)

	w, body := doRequest(t, router, http.MethodPost, "/v1/meeting?title=math101&region=us-east-1&role=teacher")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, body, "JoinInfo")

	w, _ = doRequest(t, router, http.MethodPost, "/v1/meeting?title=math101&region=us-east-1&role=student")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandler_Region(t *testing.T) {
	router := newTestRouter(t)

	w, body := doRequest(t, router, http.MethodGet, "/v1/region")
	require.Equal(t, http.StatusOK, w.Code)

	var region string
	require.NoError(t, json.Unmarshal(body["region"], &region))
	assert.Equal(t, "us-east-1", region)
}
