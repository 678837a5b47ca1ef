package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lectern/internal/core/domain"
	"lectern/internal/core/ports"
	apperrors "lectern/pkg/errors"
	"lectern/pkg/tracing"
)

// MeetingHandler serves the meeting provisioning API. Request parameters
// travel in the query string; responses carry either the payload or an
// "error" field.
type MeetingHandler struct {
	service       ports.MeetingService
	defaultRegion string
	logger        *zap.SugaredLogger

	joinObserver func(time.Duration)
}

// NewMeetingHandler creates the handler. joinObserver may be nil.
func NewMeetingHandler(service ports.MeetingService, defaultRegion string, logger *zap.SugaredLogger, joinObserver func(time.Duration)) *MeetingHandler {
	return &MeetingHandler{
		service:       service,
		defaultRegion: defaultRegion,
		logger:        logger,
		joinObserver:  joinObserver,
	}
}

// RegisterRoutes registers the API routes on the router group.
func (h *MeetingHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/join", h.Join)
	router.POST("/meeting", h.CreateMeeting)
	router.GET("/attendee", h.Attendee)
	router.POST("/end", h.End)
	router.GET("/region", h.Region)
}

// Join provisions a meeting and attendee for the caller.
func (h *MeetingHandler) Join(c *gin.Context) {
	ctx, span := tracing.TraceHTTPRequest(c.Request.Context(), c.Request.Method, c.FullPath())
	defer span.End()

	start := time.Now()
	req := ports.JoinRequest{
		Title:  c.Query("title"),
		Name:   c.Query("name"),
		Region: c.Query("region"),
		Role:   domain.Role(c.Query("role")),
	}
	span.SetAttributes(tracing.MeetingTitleKey.String(req.Title))

	info, err := h.service.Join(ctx, req)
	if err != nil {
		tracing.RecordError(ctx, err)
		h.respondError(c, err)
		return
	}

	if h.joinObserver != nil {
		h.joinObserver(time.Since(start))
	}
	c.JSON(http.StatusCreated, gin.H{"JoinInfo": info})
}

// CreateMeeting provisions a meeting without an attendee.
func (h *MeetingHandler) CreateMeeting(c *gin.Context) {
	ctx, span := tracing.TraceHTTPRequest(c.Request.Context(), c.Request.Method, c.FullPath())
	defer span.End()

	title := c.Query("title")
	span.SetAttributes(tracing.MeetingTitleKey.String(title))

	record, err := h.service.CreateMeeting(ctx, title, c.Query("region"), domain.Role(c.Query("role")))
	if err != nil {
		tracing.RecordError(ctx, err)
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"JoinInfo": gin.H{
			"Title":   record.Title,
			"Meeting": record.Meeting,
		},
	})
}

// Attendee resolves an attendee display name.
func (h *MeetingHandler) Attendee(c *gin.Context) {
	ctx, span := tracing.TraceHTTPRequest(c.Request.Context(), c.Request.Method, c.FullPath())
	defer span.End()

	title := c.Query("title")
	attendeeID := domain.AttendeeID(c.Query("attendee"))
	if title == "" || attendeeID == "" {
		h.respondError(c, apperrors.NewValidationError("title and attendee are required"))
		return
	}
	span.SetAttributes(tracing.AttendeeIDKey.String(string(attendeeID)))

	name, err := h.service.AttendeeName(ctx, title, attendeeID)
	if err != nil {
		tracing.RecordError(ctx, err)
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"AttendeeInfo": gin.H{
			"AttendeeId": string(attendeeID),
			"Name":       name,
		},
	})
}

// End ends a meeting for everyone.
func (h *MeetingHandler) End(c *gin.Context) {
	ctx, span := tracing.TraceHTTPRequest(c.Request.Context(), c.Request.Method, c.FullPath())
	defer span.End()

	title := c.Query("title")
	if title == "" {
		h.respondError(c, apperrors.NewValidationError("title is required"))
		return
	}
	span.SetAttributes(tracing.MeetingTitleKey.String(title))

	if err := h.service.End(ctx, title); err != nil {
		tracing.RecordError(ctx, err)
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": "ended"})
}

// Region reports the media region this deployment provisions by default.
func (h *MeetingHandler) Region(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"region": h.defaultRegion})
}

func (h *MeetingHandler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, domain.ErrMeetingNotFound), errors.Is(err, domain.ErrAttendeeNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrNotAuthorized):
		status = http.StatusForbidden
	default:
		if appErr := apperrors.GetAppError(err); appErr != nil {
			status = appErr.HTTPStatus
		}
	}

	if status >= http.StatusInternalServerError {
		h.logger.Errorw("request failed",
			"path", c.Request.URL.Path,
			"status", status,
			"error", err,
		)
	} else {
		h.logger.Infow("request rejected",
			"path", c.Request.URL.Path,
			"status", status,
			"error", err,
		)
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
