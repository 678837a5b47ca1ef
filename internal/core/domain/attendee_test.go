package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttendeeIDModality(t *testing.T) {
	base := AttendeeID("attendee-1")
	content := base.WithModality(ModalityContent)

	assert.Equal(t, AttendeeID("attendee-1#content"), content)
	assert.Equal(t, base, content.Base())
	assert.True(t, content.HasModality())
	assert.False(t, base.HasModality())
	assert.Equal(t, base, base.Base())
}

func TestRosterClone_DeepCopy(t *testing.T) {
	muted := true
	volume := 73
	r := Roster{
		"a": {Name: "Alice", Muted: &muted, Volume: &volume},
		"b": {Name: "Bob"},
	}

	snap := r.Clone()

	*r["a"].Muted = false
	*r["a"].Volume = 10
	r["a"].Name = "Mallory"
	delete(r, "b")

	assert.Equal(t, "Alice", snap["a"].Name)
	assert.True(t, *snap["a"].Muted)
	assert.Equal(t, 73, *snap["a"].Volume)
	assert.Nil(t, snap["a"].SignalStrength)
	assert.Contains(t, snap, AttendeeID("b"))
}

func TestDeviceCatalogStateClone(t *testing.T) {
	mic := Device{Label: "Mic", ID: "mic-1"}
	s := DeviceCatalogState{
		AudioInputs:       []Device{mic},
		CurrentAudioInput: &mic,
	}

	snap := s.Clone()
	s.AudioInputs[0].Label = "changed"
	s.CurrentAudioInput.ID = "changed"

	assert.Equal(t, "Mic", snap.AudioInputs[0].Label)
	assert.Equal(t, "mic-1", snap.CurrentAudioInput.ID)
	assert.Nil(t, snap.CurrentVideoInput)
}

func TestSupportedRegions(t *testing.T) {
	assert.True(t, IsSupportedRegion("us-east-1"))
	assert.True(t, IsSupportedRegion("ap-northeast-1"))
	assert.False(t, IsSupportedRegion("mars-1"))
	assert.Equal(t, "us-east-1", SupportedRegions[0].Value)
}

func TestConfigurationFromJoinInfo(t *testing.T) {
	info := JoinInfo{
		Title: "math101",
		Meeting: Meeting{
			MeetingID:   "m-1",
			MediaRegion: "eu-west-2",
			MediaPlacement: MediaPlacement{
				MessagingURL: "wss://example.com/messaging",
			},
		},
		Attendee: Attendee{
			AttendeeID: "a-1",
			JoinToken:  "tok",
		},
	}

	cfg := ConfigurationFromJoinInfo(info)
	assert.Equal(t, "math101", cfg.Title)
	assert.Equal(t, "m-1", cfg.MeetingID)
	assert.Equal(t, AttendeeID("a-1"), cfg.AttendeeID)
	assert.Equal(t, "tok", cfg.JoinToken)
	assert.Equal(t, "eu-west-2", cfg.MediaRegion)
	assert.Equal(t, "wss://example.com/messaging", cfg.MessagingURL)
}
