package services

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"lectern/internal/core/domain"
	"lectern/internal/core/ports"
	"lectern/pkg/observer"
)

// DeviceCatalog keeps the current device lists and selections in sync with
// the transport and publishes a fresh snapshot on every change. When a
// selected device disappears from its list, the selection falls back to the
// first remaining device of that kind, or to none.
type DeviceCatalog struct {
	log       *zap.SugaredLogger
	transport ports.Transport

	mu    sync.Mutex
	state domain.DeviceCatalogState

	subs        *observer.Registry[domain.DeviceCatalogState]
	unsubscribe func()
}

// NewDeviceCatalog creates an unattached catalog.
func NewDeviceCatalog(log *zap.SugaredLogger, transport ports.Transport) *DeviceCatalog {
	return &DeviceCatalog{
		log:       log,
		transport: transport,
		subs:      observer.NewRegistry[domain.DeviceCatalogState](),
	}
}

// Attach enumerates all device kinds, selects the first device of each kind
// that has any, and starts tracking device list changes.
func (c *DeviceCatalog) Attach(ctx context.Context) error {
	if err := c.refresh(ctx); err != nil {
		return err
	}

	c.unsubscribe = c.transport.OnDeviceListChanged(func() {
		if err := c.refresh(context.Background()); err != nil {
			c.log.Warnw("device list refresh failed", "error", err)
		}
	})
	return nil
}

// OnDevicesUpdated subscribes to catalog snapshots. The returned function
// removes the subscription.
func (c *DeviceCatalog) OnDevicesUpdated(fn func(domain.DeviceCatalogState)) (unsubscribe func()) {
	h := c.subs.Subscribe(fn)
	return func() { c.subs.Unsubscribe(h) }
}

// Snapshot returns a copy of the current catalog state.
func (c *DeviceCatalog) Snapshot() domain.DeviceCatalogState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// ChooseDevice activates the device on the transport and records the
// selection.
func (c *DeviceCatalog) ChooseDevice(ctx context.Context, kind domain.DeviceKind, device domain.Device) error {
	if err := c.transport.ChooseDevice(ctx, kind, device); err != nil {
		return err
	}

	c.mu.Lock()
	d := device
	switch kind {
	case domain.DeviceAudioInput:
		c.state.CurrentAudioInput = &d
	case domain.DeviceAudioOutput:
		c.state.CurrentAudioOutput = &d
	case domain.DeviceVideoInput:
		c.state.CurrentVideoInput = &d
	}
	snapshot := c.state.Clone()
	c.mu.Unlock()

	c.subs.Publish(snapshot)
	return nil
}

// Close stops tracking device list changes.
func (c *DeviceCatalog) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	c.subs.Clear()
}

func (c *DeviceCatalog) refresh(ctx context.Context) error {
	lists := make(map[domain.DeviceKind][]domain.Device, len(domain.DeviceKinds))
	for _, kind := range domain.DeviceKinds {
		devices, err := c.transport.ListDevices(ctx, kind)
		if err != nil {
			return err
		}
		lists[kind] = devices
	}

	c.mu.Lock()
	c.state.AudioInputs = lists[domain.DeviceAudioInput]
	c.state.AudioOutputs = lists[domain.DeviceAudioOutput]
	c.state.VideoInputs = lists[domain.DeviceVideoInput]

	type selection struct {
		kind    domain.DeviceKind
		current **domain.Device
		list    []domain.Device
	}
	selections := []selection{
		{domain.DeviceAudioInput, &c.state.CurrentAudioInput, c.state.AudioInputs},
		{domain.DeviceAudioOutput, &c.state.CurrentAudioOutput, c.state.AudioOutputs},
		{domain.DeviceVideoInput, &c.state.CurrentVideoInput, c.state.VideoInputs},
	}

	var activate []selection
	for i := range selections {
		s := selections[i]
		if *s.current != nil && containsDevice(s.list, (*s.current).ID) {
			continue
		}
		if len(s.list) == 0 {
			*s.current = nil
			continue
		}
		d := s.list[0]
		*s.current = &d
		activate = append(activate, s)
	}
	snapshot := c.state.Clone()
	c.mu.Unlock()

	for _, s := range activate {
		if err := c.transport.ChooseDevice(ctx, s.kind, *snapshotCurrent(snapshot, s.kind)); err != nil {
			c.log.Warnw("device activation failed", "kind", s.kind, "error", err)
		}
	}

	c.subs.Publish(snapshot)
	return nil
}

func containsDevice(list []domain.Device, id string) bool {
	for _, d := range list {
		if d.ID == id {
			return true
		}
	}
	return false
}

func snapshotCurrent(s domain.DeviceCatalogState, kind domain.DeviceKind) *domain.Device {
	switch kind {
	case domain.DeviceAudioInput:
		return s.CurrentAudioInput
	case domain.DeviceAudioOutput:
		return s.CurrentAudioOutput
	default:
		return s.CurrentVideoInput
	}
}
