package domain

// Role is a classroom role. The role shapes client behavior only; every
// backend authorization decision re-checks it server-side.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Valid reports whether the role is one of the known classroom roles.
func (r Role) Valid() bool {
	return r == RoleTeacher || r == RoleStudent
}

// SessionState tracks the lifecycle of a room session.
type SessionState int

const (
	SessionIdle SessionState = iota
	SessionRequesting
	SessionActive
	SessionEnded
	SessionFailed
)

func (s SessionState) String() string {
	switch s {
	case SessionIdle:
		return "idle"
	case SessionRequesting:
		return "requesting"
	case SessionActive:
		return "active"
	case SessionEnded:
		return "ended"
	case SessionFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Region is a selectable media region.
type Region struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// SupportedRegions lists the media regions offered to clients, in menu
// order. The first entry is the fallback when nearest-region detection
// fails.
var SupportedRegions = []Region{
	{Label: "United States (N. Virginia)", Value: "us-east-1"},
	{Label: "Japan (Tokyo)", Value: "ap-northeast-1"},
	{Label: "Singapore", Value: "ap-southeast-1"},
	{Label: "Australia (Sydney)", Value: "ap-southeast-2"},
	{Label: "Canada", Value: "ca-central-1"},
	{Label: "Germany (Frankfurt)", Value: "eu-central-1"},
	{Label: "Ireland", Value: "eu-west-1"},
	{Label: "United Kingdom (London)", Value: "eu-west-2"},
	{Label: "Italy (Milan)", Value: "eu-south-1"},
	{Label: "Brazil (São Paulo)", Value: "sa-east-1"},
	{Label: "United States (Oregon)", Value: "us-west-2"},
}

// IsSupportedRegion reports whether the value names a supported media
// region.
func IsSupportedRegion(value string) bool {
	for _, r := range SupportedRegions {
		if r.Value == value {
			return true
		}
	}
	return false
}

// MediaPlacement carries the per-meeting endpoint set handed to the
// transport, plus the messaging endpoint the channel dials.
type MediaPlacement struct {
	AudioHostURL        string `json:"AudioHostUrl,omitempty"`
	AudioFallbackURL    string `json:"AudioFallbackUrl,omitempty"`
	SignalingURL        string `json:"SignalingUrl,omitempty"`
	TurnControlURL      string `json:"TurnControlUrl,omitempty"`
	ScreenDataURL       string `json:"ScreenDataUrl,omitempty"`
	ScreenSharingURL    string `json:"ScreenSharingUrl,omitempty"`
	ScreenViewingURL    string `json:"ScreenViewingUrl,omitempty"`
	EventIngestionURL   string `json:"EventIngestionUrl,omitempty"`
	MessagingURL        string `json:"MessagingUrl,omitempty"`
}

// Meeting is the provisioned meeting descriptor.
type Meeting struct {
	MeetingID      string         `json:"MeetingId"`
	ExternalID     string         `json:"ExternalMeetingId,omitempty"`
	MediaRegion    string         `json:"MediaRegion"`
	MediaPlacement MediaPlacement `json:"MediaPlacement"`
}

// Attendee is the provisioned attendee descriptor. JoinToken authorizes
// both the media session and the messaging channel.
type Attendee struct {
	AttendeeID     AttendeeID `json:"AttendeeId"`
	ExternalUserID string     `json:"ExternalUserId"`
	JoinToken      string     `json:"JoinToken"`
}

// JoinInfo is the join response body.
type JoinInfo struct {
	Title    string   `json:"Title"`
	Meeting  Meeting  `json:"Meeting"`
	Attendee Attendee `json:"Attendee"`
}

// SessionConfiguration is the distilled session identity the client
// components share after a successful join.
type SessionConfiguration struct {
	Title        string
	MeetingID    string
	AttendeeID   AttendeeID
	JoinToken    string
	MediaRegion  string
	MessagingURL string
}

// ConfigurationFromJoinInfo builds the shared session configuration from a
// join response.
func ConfigurationFromJoinInfo(info JoinInfo) SessionConfiguration {
	return SessionConfiguration{
		Title:        info.Title,
		MeetingID:    info.Meeting.MeetingID,
		AttendeeID:   info.Attendee.AttendeeID,
		JoinToken:    info.Attendee.JoinToken,
		MediaRegion:  info.Meeting.MediaRegion,
		MessagingURL: info.Meeting.MediaPlacement.MessagingURL,
	}
}
