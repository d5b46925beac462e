package playback

import (
	"time"

	"github.com/osa030/tunedeck/internal/domain/track"
)

// IntentType represents a command for the audio sink.
type IntentType int

const (
	IntentLoad      IntentType = iota // Load Track; start it when Autoplay is set
	IntentPlay                        // Start or resume the loaded track
	IntentPause                       // Pause the loaded track
	IntentSeek                        // Move the loaded track to Position
	IntentSetVolume                   // Apply Volume (0-100) to the hardware
	IntentUnload                      // Stop and release the loaded track
)

// String returns the string representation of the intent type.
func (t IntentType) String() string {
	switch t {
	case IntentLoad:
		return "load"
	case IntentPlay:
		return "play"
	case IntentPause:
		return "pause"
	case IntentSeek:
		return "seek"
	case IntentSetVolume:
		return "set_volume"
	case IntentUnload:
		return "unload"
	default:
		return "unknown"
	}
}

// Intent is a sink command produced by a transition.
// Transitions never talk to the sink; the caller applies intents in order.
type Intent struct {
	Type     IntentType
	Track    *track.Track  // IntentLoad only
	Autoplay bool          // IntentLoad only
	Position time.Duration // IntentSeek only
	Volume   int           // IntentSetVolume only
}

func loadIntent(t track.Track, autoplay bool) Intent {
	return Intent{Type: IntentLoad, Track: &t, Autoplay: autoplay}
}

func seekIntent(pos time.Duration) Intent {
	return Intent{Type: IntentSeek, Position: pos}
}

func volumeIntent(level int) Intent {
	return Intent{Type: IntentSetVolume, Volume: level}
}

var (
	playIntent   = Intent{Type: IntentPlay}
	pauseIntent  = Intent{Type: IntentPause}
	unloadIntent = Intent{Type: IntentUnload}
)
