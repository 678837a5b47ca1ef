package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"lectern/internal/core/domain"
	"lectern/internal/core/ports"
	"lectern/internal/infrastructure/monitoring"
	"lectern/pkg/tracing"
	"lectern/pkg/utils"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Should be configured properly for production
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Config tunes hub connection handling.
type Config struct {
	PingInterval time.Duration
	PongTimeout  time.Duration
	WriteTimeout time.Duration

	// MessagesPerSecond and Burst rate-limit each connection; zero
	// disables the limit. Frames over MaxMessageSize close the connection.
	MessagesPerSecond float64
	Burst             int
	MaxMessageSize    int64
}

// DefaultConfig returns the standard hub tuning.
func DefaultConfig() Config {
	return Config{
		PingInterval: 30 * time.Second,
		PongTimeout:  60 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// inboundEnvelope is the only frame shape the hub accepts.
type inboundEnvelope struct {
	Action string `json:"message"`
	Data   string `json:"data"`
}

// client is one authorized hub connection. Writes are serialized per
// connection because fan-out happens from many reader goroutines.
type client struct {
	id         string
	meetingID  string
	attendeeID domain.AttendeeID
	conn       *websocket.Conn

	writeMu sync.Mutex
}

func (c *client) write(messageType int, data []byte, deadline time.Duration) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(deadline))
	return c.conn.WriteMessage(messageType, data)
}

// Hub relays data messages between the attendees of a meeting. A connection
// authorizes with the meeting identifier, attendee identifier and join
// token from its query string; the relayed payload is forwarded verbatim to
// every connection of the meeting, the sender included.
type Hub struct {
	service     ports.MeetingService
	connections ports.ConnectionRepository
	collector   *monitoring.PrometheusCollector
	cfg         Config
	logger      *zap.SugaredLogger

	mu        sync.RWMutex
	byMeeting map[string]map[string]*client
}

// New creates a hub. collector may be nil.
func New(service ports.MeetingService, connections ports.ConnectionRepository, collector *monitoring.PrometheusCollector, cfg Config, logger *zap.SugaredLogger) *Hub {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = 60 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	return &Hub{
		service:     service,
		connections: connections,
		collector:   collector,
		cfg:         cfg,
		logger:      logger,
		byMeeting:   make(map[string]map[string]*client),
	}
}

// HandleWebSocket upgrades and serves one hub connection.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	meetingID := query.Get("MeetingId")
	attendeeID := domain.AttendeeID(query.Get("AttendeeId"))
	joinToken := query.Get("JoinToken")

	if meetingID == "" || attendeeID == "" || joinToken == "" {
		http.Error(w, "missing MeetingId, AttendeeId or JoinToken", http.StatusUnauthorized)
		return
	}

	claims, err := h.service.VerifyJoinToken(joinToken)
	if err != nil || claims.MeetingID != meetingID || claims.AttendeeID != attendeeID.Base() {
		h.logger.Warnw("rejected hub connection",
			"meeting_id", meetingID,
			"attendee_id", attendeeID,
			"error", err,
		)
		http.Error(w, "invalid join token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	cl := &client{
		id:         utils.NewConnectionID(),
		meetingID:  meetingID,
		attendeeID: attendeeID,
		conn:       conn,
	}
	h.register(cl)
	defer h.unregister(cl)

	h.logger.Infow("attendee connected to hub",
		"meeting_id", meetingID,
		"attendee_id", attendeeID,
		"connection_id", cl.id,
	)

	if h.cfg.MaxMessageSize > 0 {
		conn.SetReadLimit(h.cfg.MaxMessageSize)
	}
	conn.SetReadDeadline(time.Now().Add(h.cfg.PongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(h.cfg.PongTimeout))
		return nil
	})

	var limiter *rate.Limiter
	if h.cfg.MessagesPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(h.cfg.MessagesPerSecond), h.cfg.Burst)
	}

	pingTicker := time.NewTicker(h.cfg.PingInterval)
	defer pingTicker.Stop()

	frameChan := make(chan inboundEnvelope, 10)
	errorChan := make(chan error, 1)
	// Closed when the serve loop returns so a reader blocked on a full
	// frameChan does not outlive the connection.
	serveDone := make(chan struct{})
	defer close(serveDone)

	go func() {
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				select {
				case errorChan <- err:
				case <-serveDone:
				}
				return
			}
			conn.SetReadDeadline(time.Now().Add(h.cfg.PongTimeout))

			var envelope inboundEnvelope
			if err := json.Unmarshal(raw, &envelope); err != nil {
				h.collector.RecordDroppedFrame()
				h.logger.Debugw("dropping malformed hub frame", "connection_id", cl.id)
				continue
			}
			select {
			case frameChan <- envelope:
			case <-serveDone:
				return
			}
		}
	}()

	for {
		select {
		case envelope := <-frameChan:
			if limiter != nil && !limiter.Allow() {
				h.collector.RecordDroppedFrame()
				h.logger.Debugw("rate limited hub frame",
					"connection_id", cl.id,
					"attendee_id", attendeeID,
				)
				continue
			}
			h.handleEnvelope(cl, envelope)

		case <-pingTicker.C:
			if err := cl.write(websocket.PingMessage, nil, h.cfg.WriteTimeout); err != nil {
				h.logger.Infow("ping failed", "connection_id", cl.id, "error", err)
				return
			}

		case err := <-errorChan:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.logger.Infow("hub read failed", "connection_id", cl.id, "error", err)
			}
			return
		}
	}
}

func (h *Hub) handleEnvelope(sender *client, envelope inboundEnvelope) {
	if envelope.Action != domain.SendMessageAction {
		h.collector.RecordDroppedFrame()
		h.logger.Debugw("dropping unknown hub action",
			"action", envelope.Action,
			"connection_id", sender.id,
		)
		return
	}

	_, span := tracing.TraceHubMessage(context.Background(), sender.meetingID, string(sender.attendeeID))
	defer span.End()

	// The data payload is relayed verbatim; the hub never inspects it.
	data := []byte(envelope.Data)

	h.mu.RLock()
	meeting := h.byMeeting[sender.meetingID]
	targets := make([]*client, 0, len(meeting))
	for _, cl := range meeting {
		targets = append(targets, cl)
	}
	h.mu.RUnlock()

	relayed := 0
	for _, target := range targets {
		if err := target.write(websocket.TextMessage, data, h.cfg.WriteTimeout); err != nil {
			h.collector.RecordRelayError()
			h.logger.Infow("relay failed, skipping connection",
				"connection_id", target.id,
				"error", err,
			)
			continue
		}
		relayed++
	}
	h.collector.RecordMessagesRelayed(relayed)
}

func (h *Hub) register(cl *client) {
	h.mu.Lock()
	meeting, ok := h.byMeeting[cl.meetingID]
	if !ok {
		meeting = make(map[string]*client)
		h.byMeeting[cl.meetingID] = meeting
	}
	meeting[cl.id] = cl
	h.mu.Unlock()

	h.collector.RecordHubConnected()

	if err := h.connections.Add(context.Background(), domain.Connection{
		MeetingID:    cl.meetingID,
		AttendeeID:   cl.attendeeID,
		ConnectionID: cl.id,
	}); err != nil {
		h.logger.Warnw("connection registration failed",
			"connection_id", cl.id,
			"error", err,
		)
	}
}

func (h *Hub) unregister(cl *client) {
	h.mu.Lock()
	if meeting, ok := h.byMeeting[cl.meetingID]; ok {
		delete(meeting, cl.id)
		if len(meeting) == 0 {
			delete(h.byMeeting, cl.meetingID)
		}
	}
	h.mu.Unlock()

	h.collector.RecordHubDisconnected()

	if err := h.connections.Remove(context.Background(), cl.meetingID, cl.id); err != nil {
		h.logger.Warnw("connection removal failed",
			"connection_id", cl.id,
			"error", err,
		)
	}

	h.logger.Infow("attendee disconnected from hub",
		"meeting_id", cl.meetingID,
		"attendee_id", cl.attendeeID,
		"connection_id", cl.id,
	)
}

// ConnectionCount returns the number of open hub connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, meeting := range h.byMeeting {
		count += len(meeting)
	}
	return count
}

// DisconnectMeeting closes every connection of a meeting, used when the
// meeting is ended.
func (h *Hub) DisconnectMeeting(meetingID string) {
	h.mu.RLock()
	meeting := h.byMeeting[meetingID]
	targets := make([]*client, 0, len(meeting))
	for _, cl := range meeting {
		targets = append(targets, cl)
	}
	h.mu.RUnlock()

	for _, cl := range targets {
		cl.write(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "meeting ended"),
			h.cfg.WriteTimeout)
		cl.conn.Close()
	}
}
