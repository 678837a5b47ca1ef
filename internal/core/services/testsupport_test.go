package services

import (
	"context"
	"sync"

	"lectern/internal/core/domain"
	"lectern/internal/core/ports"
)

// fakeTransport lets tests drive presence and indicator events directly.
type fakeTransport struct {
	mu          sync.Mutex
	devices     map[domain.DeviceKind][]domain.Device
	chosen      map[domain.DeviceKind]domain.Device
	presence    ports.PresenceHandler
	indicators  map[domain.AttendeeID]ports.IndicatorHandler
	listChanged func()
	started     bool
	stopped     bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		devices:    make(map[domain.DeviceKind][]domain.Device),
		chosen:     make(map[domain.DeviceKind]domain.Device),
		indicators: make(map[domain.AttendeeID]ports.IndicatorHandler),
	}
}

func (f *fakeTransport) Initialize(ctx context.Context, cfg domain.SessionConfiguration) error {
	return nil
}

func (f *fakeTransport) ListDevices(ctx context.Context, kind domain.DeviceKind) ([]domain.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Device(nil), f.devices[kind]...), nil
}

func (f *fakeTransport) ChooseDevice(ctx context.Context, kind domain.DeviceKind, device domain.Device) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chosen[kind] = device
	return nil
}

func (f *fakeTransport) OnDeviceListChanged(fn func()) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listChanged = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.listChanged = nil
	}
}

func (f *fakeTransport) OnPresence(fn ports.PresenceHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.presence = fn
}

func (f *fakeTransport) OnIndicator(id domain.AttendeeID, fn ports.IndicatorHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indicators[id] = fn
}

func (f *fakeTransport) BindAudioOutput(ctx context.Context, elementID string) error { return nil }

func (f *fakeTransport) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = true
	return nil
}

func (f *fakeTransport) Stop(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	return nil
}

func (f *fakeTransport) emitPresence(id domain.AttendeeID, present bool) {
	f.mu.Lock()
	fn := f.presence
	f.mu.Unlock()
	if fn != nil {
		fn(id, present)
	}
}

func (f *fakeTransport) emitIndicator(id domain.AttendeeID, volume *float64, muted *bool, signal *float64) {
	f.mu.Lock()
	fn := f.indicators[id]
	f.mu.Unlock()
	if fn != nil {
		fn(volume, muted, signal)
	}
}

func (f *fakeTransport) setDevices(kind domain.DeviceKind, devices ...domain.Device) {
	f.mu.Lock()
	f.devices[kind] = devices
	fn := f.listChanged
	f.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// fakeAPI is a scriptable meeting backend client.
type fakeAPI struct {
	mu        sync.Mutex
	names     map[domain.AttendeeID]string
	nameErrs  map[domain.AttendeeID]int // failures before success
	joinInfo  domain.JoinInfo
	joinErr   error
	endCalls  []string
	region    string
	regionErr error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		names:    make(map[domain.AttendeeID]string),
		nameErrs: make(map[domain.AttendeeID]int),
	}
}

func (f *fakeAPI) Join(ctx context.Context, title, name, region string, role domain.Role) (domain.JoinInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.joinErr != nil {
		return domain.JoinInfo{}, f.joinErr
	}
	return f.joinInfo, nil
}

func (f *fakeAPI) AttendeeName(ctx context.Context, title string, id domain.AttendeeID) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.nameErrs[id] > 0 {
		f.nameErrs[id]--
		return "", context.DeadlineExceeded
	}
	if name, ok := f.names[id]; ok {
		return name, nil
	}
	return "Unknown", nil
}

func (f *fakeAPI) End(ctx context.Context, title string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.endCalls = append(f.endCalls, title)
	return nil
}

func (f *fakeAPI) ClosestRegion(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.region, f.regionErr
}

// fakeSocket is an in-memory messaging socket.
type fakeSocket struct {
	mu      sync.Mutex
	openErr error
	sendErr error
	openURL string
	sent    [][]byte
	inbound chan []byte
	closed  bool
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{inbound: make(chan []byte, 16)}
}

func (f *fakeSocket) Open(ctx context.Context, rawURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return f.openErr
	}
	f.openURL = rawURL
	return nil
}

func (f *fakeSocket) Send(ctx context.Context, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, append([]byte(nil), data...))
	return nil
}

func (f *fakeSocket) setSendErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendErr = err
}

func (f *fakeSocket) Messages() <-chan []byte { return f.inbound }

func (f *fakeSocket) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.inbound)
	}
	return nil
}

func (f *fakeSocket) sentFrames() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.sent...)
}

// memory repositories for service tests.
type memMeetings struct {
	mu      sync.Mutex
	records map[string]domain.MeetingRecord
}

func newMemMeetings() *memMeetings {
	return &memMeetings{records: make(map[string]domain.MeetingRecord)}
}

func (m *memMeetings) Put(ctx context.Context, record domain.MeetingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.Title] = record
	return nil
}

func (m *memMeetings) Get(ctx context.Context, title string) (domain.MeetingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[title]
	if !ok {
		return domain.MeetingRecord{}, domain.ErrMeetingNotFound
	}
	return record, nil
}

func (m *memMeetings) Delete(ctx context.Context, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, title)
	return nil
}

type memAttendees struct {
	mu    sync.Mutex
	names map[string]string
}

func newMemAttendees() *memAttendees {
	return &memAttendees{names: make(map[string]string)}
}

func (m *memAttendees) PutName(ctx context.Context, title string, id domain.AttendeeID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names[title+"/"+string(id)] = name
	return nil
}

func (m *memAttendees) GetName(ctx context.Context, title string, id domain.AttendeeID) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name, ok := m.names[title+"/"+string(id)]
	if !ok {
		return "", domain.ErrAttendeeNotFound
	}
	return name, nil
}

type memConnections struct {
	mu    sync.Mutex
	conns []domain.Connection
}

func newMemConnections() *memConnections { return &memConnections{} }

func (m *memConnections) Add(ctx context.Context, conn domain.Connection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conns = append(m.conns, conn)
	return nil
}

func (m *memConnections) Remove(ctx context.Context, meetingID, connectionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.conns {
		if c.MeetingID == meetingID && c.ConnectionID == connectionID {
			m.conns = append(m.conns[:i], m.conns[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memConnections) ListByMeeting(ctx context.Context, meetingID string) ([]domain.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Connection
	for _, c := range m.conns {
		if c.MeetingID == meetingID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memConnections) RemoveByMeeting(ctx context.Context, meetingID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []domain.Connection
	for _, c := range m.conns {
		if c.MeetingID != meetingID {
			kept = append(kept, c)
		}
	}
	m.conns = kept
	return nil
}
