package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"lectern/internal/core/domain"
	"lectern/internal/core/ports"
	apperrors "lectern/pkg/errors"
	"lectern/pkg/utils"
	"lectern/pkg/validation"
)

// MeetingManagerConfig tunes the backend meeting lifecycle service.
type MeetingManagerConfig struct {
	// DefaultRegion is used when a join request names no media region.
	DefaultRegion string

	// MessagingURL is the public websocket endpoint handed to attendees.
	MessagingURL string

	// JWTSecret signs join tokens.
	JWTSecret string

	// TokenTTL bounds join token validity.
	TokenTTL time.Duration
}

// joinClaims is the join token payload.
type joinClaims struct {
	MeetingID  string `json:"mid"`
	AttendeeID string `json:"aid"`
	jwt.RegisteredClaims
}

// MeetingManager implements the backend meeting lifecycle: meetings keyed
// by simplified title, attendee name storage, join token minting, and
// meeting teardown. Students can join existing meetings but never create
// them.
type MeetingManager struct {
	log         *zap.SugaredLogger
	meetings    ports.MeetingRepository
	attendees   ports.AttendeeRepository
	connections ports.ConnectionRepository
	metrics     ports.MeetingMetrics
	cfg         MeetingManagerConfig

	onEnded func(meetingID string)
}

var _ ports.MeetingService = (*MeetingManager)(nil)

// NewMeetingManager creates the service over the given repositories.
// metrics may be nil.
func NewMeetingManager(log *zap.SugaredLogger, meetings ports.MeetingRepository, attendees ports.AttendeeRepository, connections ports.ConnectionRepository, metrics ports.MeetingMetrics, cfg MeetingManagerConfig) *MeetingManager {
	if cfg.DefaultRegion == "" {
		cfg.DefaultRegion = "us-east-1"
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	return &MeetingManager{
		log:         log,
		meetings:    meetings,
		attendees:   attendees,
		connections: connections,
		metrics:     metrics,
		cfg:         cfg,
	}
}

// CreateMeeting provisions the meeting for the simplified title without an
// attendee. An existing meeting is returned as is.
func (m *MeetingManager) CreateMeeting(ctx context.Context, title, region string, role domain.Role) (domain.MeetingRecord, error) {
	if err := validation.ValidateTitle(title); err != nil {
		return domain.MeetingRecord{}, apperrors.NewValidationError(err.Error())
	}
	if role != domain.RoleTeacher {
		return domain.MeetingRecord{}, fmt.Errorf("%w: only teachers create meetings", domain.ErrNotAuthorized)
	}

	simplified := utils.SimplifyTitle(title)
	if simplified == "" {
		return domain.MeetingRecord{}, apperrors.NewValidationError("title has no usable characters")
	}

	record, err := m.meetings.Get(ctx, simplified)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, domain.ErrMeetingNotFound) {
		return domain.MeetingRecord{}, fmt.Errorf("load meeting: %w", err)
	}
	return m.createMeeting(ctx, simplified, m.regionOrDefault(region))
}

// Join creates or reuses the meeting for the simplified title and
// provisions an attendee in it.
func (m *MeetingManager) Join(ctx context.Context, req ports.JoinRequest) (domain.JoinInfo, error) {
	if err := validation.ValidateJoinParams(req.Title, req.Name, m.regionOrDefault(req.Region), string(req.Role)); err != nil {
		return domain.JoinInfo{}, apperrors.NewValidationError(err.Error())
	}

	title := utils.SimplifyTitle(req.Title)
	if title == "" {
		return domain.JoinInfo{}, apperrors.NewValidationError("title has no usable characters")
	}

	record, err := m.meetings.Get(ctx, title)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrMeetingNotFound):
		if req.Role != domain.RoleTeacher {
			return domain.JoinInfo{}, fmt.Errorf("%w: only teachers create meetings", domain.ErrNotAuthorized)
		}
		record, err = m.createMeeting(ctx, title, m.regionOrDefault(req.Region))
		if err != nil {
			return domain.JoinInfo{}, err
		}
	default:
		return domain.JoinInfo{}, fmt.Errorf("load meeting: %w", err)
	}

	attendee, err := m.provisionAttendee(ctx, title, record.Meeting.MeetingID, req.Name)
	if err != nil {
		return domain.JoinInfo{}, err
	}

	m.log.Infow("attendee joined",
		"title", title,
		"meeting_id", record.Meeting.MeetingID,
		"attendee_id", attendee.AttendeeID,
		"role", req.Role,
	)

	return domain.JoinInfo{
		Title:    title,
		Meeting:  record.Meeting,
		Attendee: attendee,
	}, nil
}

// AttendeeName resolves a stored attendee name. Unknown attendees resolve
// to "Unknown" so late lookups against departed attendees stay harmless.
func (m *MeetingManager) AttendeeName(ctx context.Context, title string, attendeeID domain.AttendeeID) (string, error) {
	name, err := m.attendees.GetName(ctx, utils.SimplifyTitle(title), attendeeID.Base())
	if errors.Is(err, domain.ErrAttendeeNotFound) {
		return "Unknown", nil
	}
	if err != nil {
		return "", fmt.Errorf("load attendee name: %w", err)
	}
	return name, nil
}

// End deletes the meeting and evicts its hub connections.
func (m *MeetingManager) End(ctx context.Context, title string) error {
	title = utils.SimplifyTitle(title)

	record, err := m.meetings.Get(ctx, title)
	if errors.Is(err, domain.ErrMeetingNotFound) {
		return domain.ErrMeetingNotFound
	}
	if err != nil {
		return fmt.Errorf("load meeting: %w", err)
	}

	if err := m.connections.RemoveByMeeting(ctx, record.Meeting.MeetingID); err != nil {
		m.log.Warnw("connection eviction failed", "meeting_id", record.Meeting.MeetingID, "error", err)
	}
	if err := m.meetings.Delete(ctx, title); err != nil {
		return fmt.Errorf("delete meeting: %w", err)
	}
	if m.metrics != nil {
		m.metrics.RecordMeetingEnded(record.Meeting.MediaRegion)
	}
	if m.onEnded != nil {
		m.onEnded(record.Meeting.MeetingID)
	}

	m.log.Infow("meeting ended", "title", title, "meeting_id", record.Meeting.MeetingID)
	return nil
}

// OnMeetingEnded registers a hook invoked after a meeting is deleted, with
// the ended meeting's identifier. Used to evict live hub connections.
func (m *MeetingManager) OnMeetingEnded(fn func(meetingID string)) {
	m.onEnded = fn
}

// VerifyJoinToken checks a join token signature and expiry and returns its
// claims.
func (m *MeetingManager) VerifyJoinToken(token string) (ports.TokenClaims, error) {
	var claims joinClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return []byte(m.cfg.JWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		return ports.TokenClaims{}, domain.ErrNotAuthorized
	}
	if claims.MeetingID == "" || claims.AttendeeID == "" {
		return ports.TokenClaims{}, domain.ErrNotAuthorized
	}
	return ports.TokenClaims{
		MeetingID:  claims.MeetingID,
		AttendeeID: domain.AttendeeID(claims.AttendeeID),
	}, nil
}

func (m *MeetingManager) createMeeting(ctx context.Context, title, region string) (domain.MeetingRecord, error) {
	record := domain.MeetingRecord{
		Title: title,
		Meeting: domain.Meeting{
			MeetingID:   utils.NewMeetingID(),
			ExternalID:  title,
			MediaRegion: region,
			MediaPlacement: domain.MediaPlacement{
				MessagingURL: m.cfg.MessagingURL,
			},
		},
		CreatedAt: utils.Now(),
	}
	if err := m.meetings.Put(ctx, record); err != nil {
		return domain.MeetingRecord{}, fmt.Errorf("store meeting: %w", err)
	}
	if m.metrics != nil {
		m.metrics.RecordMeetingCreated(region)
	}
	return record, nil
}

func (m *MeetingManager) provisionAttendee(ctx context.Context, title, meetingID, name string) (domain.Attendee, error) {
	attendeeID := domain.AttendeeID(utils.NewAttendeeID())

	token, err := m.mintJoinToken(meetingID, attendeeID)
	if err != nil {
		return domain.Attendee{}, fmt.Errorf("mint join token: %w", err)
	}

	if err := m.attendees.PutName(ctx, title, attendeeID, name); err != nil {
		return domain.Attendee{}, fmt.Errorf("store attendee name: %w", err)
	}
	if m.metrics != nil {
		m.metrics.RecordAttendeeJoined()
	}

	return domain.Attendee{
		AttendeeID:     attendeeID,
		ExternalUserID: utils.NewExternalUserID(),
		JoinToken:      token,
	}, nil
}

func (m *MeetingManager) mintJoinToken(meetingID string, attendeeID domain.AttendeeID) (string, error) {
	now := utils.Now()
	claims := joinClaims{
		MeetingID:  meetingID,
		AttendeeID: string(attendeeID),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.TokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(m.cfg.JWTSecret))
}

func (m *MeetingManager) regionOrDefault(region string) string {
	if region == "" {
		return m.cfg.DefaultRegion
	}
	return region
}
