package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"lectern/internal/core/domain"
	"lectern/internal/core/ports"
	apperrors "lectern/pkg/errors"
	"lectern/pkg/validation"
)

// OrchestratorConfig tunes a session orchestrator. Role is fixed for the
// lifetime of the orchestrator; a user switching roles starts over with a
// new one.
type OrchestratorConfig struct {
	Role              domain.Role
	Roster            RosterConfig
	SocketOpenTimeout time.Duration
	HandRaiseTimeout  time.Duration

	// AudioOutputElementID, when set, is bound during JoinRoom. Callers
	// can rebind later with BindAudioOutput.
	AudioOutputElementID string
}

// SessionOrchestrator drives the classroom session lifecycle: provisioning
// through the meeting backend, media transport startup, roster and device
// tracking, and the messaging side-channel. Teardown is best effort: every
// step runs even when earlier ones fail.
type SessionOrchestrator struct {
	log       *zap.SugaredLogger
	api       ports.MeetingAPI
	transport ports.Transport
	socket    ports.MessagingSocket
	cfg       OrchestratorConfig

	mu       sync.Mutex
	state    domain.SessionState
	joinInfo domain.JoinInfo
	session  domain.SessionConfiguration

	roster  *RosterReconciler
	devices *DeviceCatalog
	channel *MessageChannel
	hands   *RaisedHands
	focus   *FocusTracker
}

// NewSessionOrchestrator creates an idle orchestrator.
func NewSessionOrchestrator(log *zap.SugaredLogger, api ports.MeetingAPI, transport ports.Transport, socket ports.MessagingSocket, cfg OrchestratorConfig) (*SessionOrchestrator, error) {
	if !cfg.Role.Valid() {
		return nil, apperrors.NewValidationError("unknown role")
	}
	if cfg.Roster.ThrottleWindow <= 0 {
		cfg.Roster = DefaultRosterConfig()
	}
	if cfg.SocketOpenTimeout <= 0 {
		cfg.SocketOpenTimeout = 10 * time.Second
	}

	return &SessionOrchestrator{
		log:       log,
		api:       api,
		transport: transport,
		socket:    socket,
		cfg:       cfg,
		state:     domain.SessionIdle,
		roster:    NewRosterReconciler(log, api, transport, cfg.Roster),
		devices:   NewDeviceCatalog(log, transport),
	}, nil
}

// State returns the current session state.
func (o *SessionOrchestrator) State() domain.SessionState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Role returns the classroom role this orchestrator was created with.
func (o *SessionOrchestrator) Role() domain.Role {
	return o.cfg.Role
}

// Configuration returns the session identity after a successful CreateRoom.
func (o *SessionOrchestrator) Configuration() domain.SessionConfiguration {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session
}

// Roster exposes the roster reconciler.
func (o *SessionOrchestrator) Roster() *RosterReconciler { return o.roster }

// Devices exposes the device catalog.
func (o *SessionOrchestrator) Devices() *DeviceCatalog { return o.devices }

// Channel exposes the messaging channel, nil before OpenMessaging.
func (o *SessionOrchestrator) Channel() *MessageChannel {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.channel
}

// Hands exposes the raised-hand tracker, nil before OpenMessaging.
func (o *SessionOrchestrator) Hands() *RaisedHands {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.hands
}

// Focus exposes the focus tracker, nil before OpenMessaging.
func (o *SessionOrchestrator) Focus() *FocusTracker {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.focus
}

// CreateRoom validates the join parameters and provisions the meeting and
// attendee through the backend. Validation failures are reported before any
// request is issued.
func (o *SessionOrchestrator) CreateRoom(ctx context.Context, title, name, region string) (domain.JoinInfo, error) {
	if err := validation.ValidateJoinParams(title, name, region, string(o.cfg.Role)); err != nil {
		return domain.JoinInfo{}, apperrors.NewValidationError(err.Error())
	}

	o.mu.Lock()
	if o.state != domain.SessionIdle && o.state != domain.SessionEnded {
		o.mu.Unlock()
		return domain.JoinInfo{}, domain.ErrSessionState
	}
	o.state = domain.SessionRequesting
	o.mu.Unlock()

	info, err := o.api.Join(ctx, title, name, region, o.cfg.Role)
	if err != nil {
		o.fail()
		return domain.JoinInfo{}, err
	}

	o.mu.Lock()
	o.joinInfo = info
	o.session = domain.ConfigurationFromJoinInfo(info)
	o.mu.Unlock()

	o.log.Infow("room provisioned",
		"title", info.Title,
		"meeting_id", info.Meeting.MeetingID,
		"attendee_id", info.Attendee.AttendeeID,
		"region", info.Meeting.MediaRegion,
	)
	return info, nil
}

// JoinRoom initializes the transport for the provisioned session, attaches
// roster and device tracking, and starts media.
func (o *SessionOrchestrator) JoinRoom(ctx context.Context) error {
	o.mu.Lock()
	if o.state != domain.SessionRequesting {
		o.mu.Unlock()
		return domain.ErrSessionState
	}
	session := o.session
	o.mu.Unlock()

	if err := o.transport.Initialize(ctx, session); err != nil {
		o.fail()
		return apperrors.NewTransportError(err)
	}

	o.roster.Attach(ctx, session.Title)
	if err := o.devices.Attach(ctx); err != nil {
		o.fail()
		return apperrors.NewTransportError(err)
	}

	if o.cfg.AudioOutputElementID != "" {
		if err := o.transport.BindAudioOutput(ctx, o.cfg.AudioOutputElementID); err != nil {
			o.fail()
			return apperrors.NewTransportError(err)
		}
	}

	if err := o.transport.Start(ctx); err != nil {
		o.fail()
		return apperrors.NewTransportError(err)
	}

	o.mu.Lock()
	o.state = domain.SessionActive
	o.mu.Unlock()

	o.log.Infow("session active", "title", session.Title)
	return nil
}

// OpenMessaging dials the messaging hub and wires the raised-hand and focus
// trackers over it.
func (o *SessionOrchestrator) OpenMessaging(ctx context.Context) error {
	o.mu.Lock()
	if o.state != domain.SessionActive {
		o.mu.Unlock()
		return domain.ErrSessionState
	}
	session := o.session
	o.mu.Unlock()

	channel := NewMessageChannel(o.log, o.socket, o.roster.Name, o.cfg.SocketOpenTimeout)
	if err := channel.Open(ctx, session); err != nil {
		return err
	}

	o.mu.Lock()
	o.channel = channel
	o.hands = NewRaisedHands(o.log, channel, session.AttendeeID, o.cfg.HandRaiseTimeout)
	o.focus = NewFocusTracker(channel)
	o.mu.Unlock()
	return nil
}

// BindAudioOutput directs remote audio to the given output element.
func (o *SessionOrchestrator) BindAudioOutput(ctx context.Context, elementID string) error {
	if err := o.transport.BindAudioOutput(ctx, elementID); err != nil {
		return apperrors.NewTransportError(err)
	}
	return nil
}

// ClosestRegion returns the nearest supported media region, falling back to
// the first supported region when detection fails.
func (o *SessionOrchestrator) ClosestRegion(ctx context.Context) string {
	region, err := o.api.ClosestRegion(ctx)
	if err == nil && domain.IsSupportedRegion(region) {
		return region
	}
	if err != nil {
		o.log.Debugw("nearest region detection failed", "error", err)
	}
	return domain.SupportedRegions[0].Value
}

// LeaveRoom tears the session down. Every teardown step runs regardless of
// earlier failures; failures are logged and swallowed. When end is true and
// the local role is teacher, the meeting is ended for everyone.
func (o *SessionOrchestrator) LeaveRoom(ctx context.Context, end bool) {
	o.mu.Lock()
	channel := o.channel
	hands := o.hands
	focus := o.focus
	title := o.session.Title
	o.channel = nil
	o.hands = nil
	o.focus = nil
	o.mu.Unlock()

	if hands != nil {
		hands.Close()
	}
	if focus != nil {
		focus.Close()
	}
	if channel != nil {
		if err := channel.Close(); err != nil {
			o.log.Warnw("messaging channel close failed", "error", err)
		}
	}

	o.devices.Close()
	o.roster.Close()

	if err := o.transport.Stop(ctx); err != nil {
		o.log.Warnw("transport stop failed", "error", err)
	}

	if end && o.cfg.Role == domain.RoleTeacher && title != "" {
		if err := o.api.End(ctx, title); err != nil {
			o.log.Warnw("meeting end failed", "title", title, "error", err)
		}
	}

	o.mu.Lock()
	o.state = domain.SessionEnded
	o.joinInfo = domain.JoinInfo{}
	o.session = domain.SessionConfiguration{}
	o.mu.Unlock()

	o.log.Infow("session left", "title", title, "ended", end)
}

func (o *SessionOrchestrator) fail() {
	o.mu.Lock()
	o.state = domain.SessionFailed
	o.mu.Unlock()
}
