package ports

import (
	"context"

	"lectern/internal/core/domain"
)

// PresenceHandler receives attendee join/leave events from the transport.
// present is false when the attendee has left or been dropped.
type PresenceHandler func(attendeeID domain.AttendeeID, present bool)

// IndicatorHandler receives per-attendee indicator updates. Any of the
// pointers may be nil when the event does not carry that indicator. Volume
// and signal strength arrive normalized to [0, 1].
type IndicatorHandler func(volume *float64, muted *bool, signalStrength *float64)

// Transport abstracts the media session layer the orchestration sits on.
// Implementations wrap a real-time media SDK; tests use in-memory fakes.
type Transport interface {
	// Initialize prepares the transport for the given session. It must be
	// called before any other method.
	Initialize(ctx context.Context, cfg domain.SessionConfiguration) error

	// ListDevices enumerates the devices of one kind currently available.
	ListDevices(ctx context.Context, kind domain.DeviceKind) ([]domain.Device, error)

	// ChooseDevice activates the device for its kind.
	ChooseDevice(ctx context.Context, kind domain.DeviceKind, device domain.Device) error

	// OnDeviceListChanged registers a callback invoked when the set of
	// available devices changes. The returned function unsubscribes.
	OnDeviceListChanged(fn func()) (unsubscribe func())

	// OnPresence registers the presence event handler.
	OnPresence(fn PresenceHandler)

	// OnIndicator subscribes to indicator events for one attendee. The
	// transport keeps delivering events until the subscription is removed
	// or the session stops.
	OnIndicator(attendeeID domain.AttendeeID, fn IndicatorHandler)

	// BindAudioOutput directs remote audio to an output element identified
	// by the host application.
	BindAudioOutput(ctx context.Context, elementID string) error

	// Start begins the media session.
	Start(ctx context.Context) error

	// Stop tears the media session down. Safe to call more than once.
	Stop(ctx context.Context) error
}
