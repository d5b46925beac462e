// Package playerv1 defines the messages of the tunedeck.v1 RPC services.
//
// Messages are plain structs encoded as JSON on the wire.
package playerv1

// Notification types.
const (
	NotificationTypeInitialState = "initial_state"
	NotificationTypeChanged      = "changed"
	NotificationTypeSinkError    = "sink_error"
)

// Track describes one playlist entry.
type Track struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	DurationMs int64  `json:"duration_ms"`
	Source     string `json:"source"`
	AddedAt    string `json:"added_at"`
}

// Snapshot is the full playback state at one version.
type Snapshot struct {
	Version         uint64   `json:"version"`
	Tracks          []*Track `json:"tracks"`
	CurrentIndex    int32    `json:"current_index"` // -1 when the playlist is empty
	Playing         bool     `json:"playing"`
	Repeat          string   `json:"repeat"`
	Shuffle         bool     `json:"shuffle"`
	Volume          int32    `json:"volume"`
	PositionMs      int64    `json:"position_ms"`
	DurationMs      int64    `json:"duration_ms"`
	TotalDurationMs int64    `json:"total_duration_ms"` // known durations only
}

// CurrentTrack returns the track at CurrentIndex, or nil.
func (s *Snapshot) CurrentTrack() *Track {
	if s == nil || s.CurrentIndex < 0 || int(s.CurrentIndex) >= len(s.Tracks) {
		return nil
	}
	return s.Tracks[s.CurrentIndex]
}

// Rejection tells why a file was not appended.
type Rejection struct {
	Path string `json:"path"`
	Code string `json:"code"`
}

// ControlResponse is returned by every PlayerService call except Append.
type ControlResponse struct {
	Snapshot *Snapshot `json:"snapshot"`
}

type AppendRequest struct {
	Paths []string `json:"paths"`
}

type AppendResponse struct {
	Accepted []*Track     `json:"accepted"`
	Rejected []*Rejection `json:"rejected"`
	Snapshot *Snapshot    `json:"snapshot"`
}

type RemoveRequest struct {
	Index int32 `json:"index"`
}

type SelectTrackRequest struct {
	Index int32 `json:"index"`
}

type TogglePlayPauseRequest struct{}

type AdvanceRequest struct {
	Direction string `json:"direction"` // "forward" or "backward"
}

type CycleRepeatModeRequest struct{}

type SetShuffleRequest struct {
	Enabled bool `json:"enabled"`
}

type SetVolumeRequest struct {
	Level int32 `json:"level"`
}

// SeekRequest sets exactly one of PositionMs and Percent.
type SeekRequest struct {
	PositionMs *int64   `json:"position_ms,omitempty"`
	Percent    *float64 `json:"percent,omitempty"`
}

type GetStatusRequest struct{}

type GetStatusResponse struct {
	SessionID     string    `json:"session_id"`
	Phase         string    `json:"phase"`
	StartedAt     string    `json:"started_at"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	Subscribers   int32     `json:"subscribers"`
	Snapshot      *Snapshot `json:"snapshot"`
}

type SubscribeRequest struct{}

// Notification is one message of the Subscribe stream.
type Notification struct {
	Type       string    `json:"type"`
	SequenceNo uint64    `json:"sequence_no"`
	Snapshot   *Snapshot `json:"snapshot"`
	Message    string    `json:"message,omitempty"`
}
