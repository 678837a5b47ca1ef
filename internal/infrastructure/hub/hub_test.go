package hub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lectern/internal/core/domain"
	"lectern/internal/core/ports"
	"lectern/internal/infrastructure/repositories/memory"
	"lectern/pkg/logger"
)

// stubService verifies tokens of the form "<meetingID>:<attendeeID>".
type stubService struct{}

func (stubService) CreateMeeting(ctx context.Context, title, region string, role domain.Role) (domain.MeetingRecord, error) {
	return domain.MeetingRecord{}, nil
}

func (stubService) Join(ctx context.Context, req ports.JoinRequest) (domain.JoinInfo, error) {
	return domain.JoinInfo{}, nil
}

func (stubService) AttendeeName(ctx context.Context, title string, id domain.AttendeeID) (string, error) {
	return "Unknown", nil
}

func (stubService) End(ctx context.Context, title string) error { return nil }

func (stubService) VerifyJoinToken(token string) (ports.TokenClaims, error) {
	parts := strings.SplitN(token, ":", 2)
	if len(parts) != 2 {
		return ports.TokenClaims{}, domain.ErrNotAuthorized
	}
	return ports.TokenClaims{
		MeetingID:  parts[0],
		AttendeeID: domain.AttendeeID(parts[1]),
	}, nil
}

func newTestHub(t *testing.T) (*Hub, *httptest.Server, *memory.MemoryConnectionRepository) {
	t.Helper()
	connections := memory.NewMemoryConnectionRepository()
	h := New(stubService{}, connections, nil, Config{
		PingInterval: time.Second,
		PongTimeout:  5 * time.Second,
		WriteTimeout: time.Second,
	}, logger.Named(logger.NewNop(), "hub"))

	server := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	t.Cleanup(server.Close)
	return h, server, connections
}

func dialHub(t *testing.T, server *httptest.Server, meetingID, attendeeID, token string) *websocket.Conn {
	t.Helper()
	conn, err := tryDialHub(server, meetingID, attendeeID, token)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func tryDialHub(server *httptest.Server, meetingID, attendeeID, token string) (*websocket.Conn, error) {
	u := "ws" + strings.TrimPrefix(server.URL, "http")
	q := url.Values{}
	q.Set("MeetingId", meetingID)
	q.Set("AttendeeId", attendeeID)
	q.Set("JoinToken", token)

	conn, resp, err := websocket.DefaultDialer.Dial(u+"?"+q.Encode(), nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn, err
}

func TestHub_RejectsMissingParams(t *testing.T) {
	_, server, _ := newTestHub(t)

	_, err := tryDialHub(server, "m-1", "a-1", "")
	assert.Error(t, err)
}

func TestHub_RejectsMismatchedToken(t *testing.T) {
	_, server, _ := newTestHub(t)

	_, err := tryDialHub(server, "m-1", "a-1", "m-other:a-1")
	assert.Error(t, err)

	_, err = tryDialHub(server, "m-1", "a-1", "m-1:someone-else")
	assert.Error(t, err)
}

func TestHub_FanOutWithinMeeting(t *testing.T) {
	_, server, _ := newTestHub(t)

	alice := dialHub(t, server, "m-1", "a-alice", "m-1:a-alice")
	bob := dialHub(t, server, "m-1", "a-bob", "m-1:a-bob")
	eve := dialHub(t, server, "m-2", "a-eve", "m-2:a-eve")

	payload := `{"type":"chat-message","payload":{"attendeeId":"a-alice","message":"hi"}}`
	require.NoError(t, alice.WriteJSON(map[string]string{
		"message": "sendmessage",
		"data":    payload,
	}))

	for name, conn := range map[string]*websocket.Conn{"sender": alice, "peer": bob} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "%s should receive the relay", name)
		assert.Equal(t, payload, string(data), "payload is relayed verbatim to %s", name)
	}

	// The other meeting hears nothing.
	eve.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := eve.ReadMessage()
	assert.Error(t, err)
}

func TestHub_UnknownActionDropped(t *testing.T) {
	_, server, _ := newTestHub(t)

	alice := dialHub(t, server, "m-1", "a-alice", "m-1:a-alice")
	require.NoError(t, alice.WriteJSON(map[string]string{
		"message": "subscribe",
		"data":    "whatever",
	}))

	alice.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := alice.ReadMessage()
	assert.Error(t, err, "nothing is relayed for unknown actions")
}

func TestHub_TracksConnections(t *testing.T) {
	h, server, connections := newTestHub(t)

	alice := dialHub(t, server, "m-1", "a-alice", "m-1:a-alice")

	require.Eventually(t, func() bool {
		return h.ConnectionCount() == 1
	}, time.Second, 10*time.Millisecond)

	conns, err := connections.ListByMeeting(context.Background(), "m-1")
	require.NoError(t, err)
	require.Len(t, conns, 1)
	assert.Equal(t, domain.AttendeeID("a-alice"), conns[0].AttendeeID)

	alice.Close()

	require.Eventually(t, func() bool {
		return h.ConnectionCount() == 0
	}, time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		conns, _ := connections.ListByMeeting(context.Background(), "m-1")
		return len(conns) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestHub_DisconnectMeeting(t *testing.T) {
	h, server, _ := newTestHub(t)

	alice := dialHub(t, server, "m-1", "a-alice", "m-1:a-alice")

	require.Eventually(t, func() bool {
		return h.ConnectionCount() == 1
	}, time.Second, 10*time.Millisecond)

	h.DisconnectMeeting("m-1")

	alice.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err := alice.ReadMessage()
	assert.Error(t, err, "connection is closed when the meeting ends")

	require.Eventually(t, func() bool {
		return h.ConnectionCount() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestHub_NoReaderLeakAfterDisconnect(t *testing.T) {
	h, server, _ := newTestHub(t)

	before := runtime.NumGoroutine()

	for i := 0; i < 5; i++ {
		conn, err := tryDialHub(server, "m-1", "a-alice", "m-1:a-alice")
		require.NoError(t, err)
		// Queue more frames than the hub buffers before tearing down so a
		// reader mid-handoff has to notice the connection going away.
		for j := 0; j < 32; j++ {
			conn.WriteJSON(map[string]string{"message": "sendmessage", "data": "x"})
		}
		conn.Close()
	}

	require.Eventually(t, func() bool {
		return h.ConnectionCount() == 0
	}, time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before+2
	}, 3*time.Second, 50*time.Millisecond, "per-connection goroutines exit with the connection")
}

func TestHub_ContentModalityAuthorizes(t *testing.T) {
	_, server, _ := newTestHub(t)

	// A content share sub-channel authorizes with its base attendee token.
	conn, err := tryDialHub(server, "m-1", "a-alice#content", "m-1:a-alice")
	require.NoError(t, err)
	conn.Close()
}
