package domain

// DeviceKind is a media device category.
type DeviceKind string

const (
	DeviceAudioInput  DeviceKind = "audio-input"
	DeviceAudioOutput DeviceKind = "audio-output"
	DeviceVideoInput  DeviceKind = "video-input"
)

// DeviceKinds lists the tracked categories in catalog order.
var DeviceKinds = []DeviceKind{DeviceAudioInput, DeviceAudioOutput, DeviceVideoInput}

// Device pairs a human-readable label with the transport's opaque device
// identifier.
type Device struct {
	Label string
	ID    string
}

// DeviceCatalogState is the full device picture published to subscribers.
// A current selection, when set, always references a device present in the
// matching list.
type DeviceCatalogState struct {
	AudioInputs  []Device
	AudioOutputs []Device
	VideoInputs  []Device

	CurrentAudioInput  *Device
	CurrentAudioOutput *Device
	CurrentVideoInput  *Device
}

// Clone returns a copy safe to hand to subscribers.
func (s DeviceCatalogState) Clone() DeviceCatalogState {
	c := DeviceCatalogState{
		AudioInputs:  append([]Device(nil), s.AudioInputs...),
		AudioOutputs: append([]Device(nil), s.AudioOutputs...),
		VideoInputs:  append([]Device(nil), s.VideoInputs...),
	}
	if s.CurrentAudioInput != nil {
		d := *s.CurrentAudioInput
		c.CurrentAudioInput = &d
	}
	if s.CurrentAudioOutput != nil {
		d := *s.CurrentAudioOutput
		c.CurrentAudioOutput = &d
	}
	if s.CurrentVideoInput != nil {
		d := *s.CurrentVideoInput
		c.CurrentVideoInput = &d
	}
	return c
}
