package playback

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/tunedeck/internal/domain/playlist"
	"github.com/osa030/tunedeck/internal/domain/track"
)

const (
	// NoTrack is the current index of a session whose playlist is empty.
	NoTrack = -1

	// DefaultVolume is the volume of a new session.
	DefaultVolume = 70

	MinVolume = 0
	MaxVolume = 100
)

// Session is the complete playback state. It is a value: controller operations take a
// Session and return an updated copy, bumping Version whenever anything changed.
type Session struct {
	Playlist playlist.Playlist
	Current  int           // NoTrack iff Playlist is empty
	Playing  bool          // Play intent, independent of what the hardware does
	Repeat   RepeatMode    // Behavior when a track ends
	Shuffle  bool          // Randomize forward advance
	Volume   int           // 0-100
	Position time.Duration // Last position reported by the sink (advisory)
	Duration time.Duration // Last duration reported by the sink (advisory)
	Version  uint64        // Incremented by every change
}

// NewSession returns an empty session at the default volume.
func NewSession() Session {
	return Session{
		Playlist: playlist.New(),
		Current:  NoTrack,
		Repeat:   RepeatNone,
		Volume:   DefaultVolume,
	}
}

// CurrentTrack returns the track the current index points at.
func (s Session) CurrentTrack() (track.Track, bool) {
	if s.Current == NoTrack {
		return track.Track{}, false
	}
	return s.Playlist.Track(s.Current)
}

// IsLast reports whether the current track is the last one in the playlist.
func (s Session) IsLast() bool {
	return s.Current != NoTrack && s.Current == s.Playlist.Len()-1
}

// Validate checks the session invariants.
func (s Session) Validate() error {
	if s.Playlist.IsEmpty() {
		if s.Current != NoTrack {
			return errors.Newf("empty playlist with current index %d", s.Current)
		}
		if s.Playing {
			return errors.New("empty playlist marked as playing")
		}
	} else if !s.Playlist.InRange(s.Current) {
		return errors.Newf("current index %d outside playlist of length %d", s.Current, s.Playlist.Len())
	}
	if s.Volume < MinVolume || s.Volume > MaxVolume {
		return errors.Newf("volume %d outside [%d, %d]", s.Volume, MinVolume, MaxVolume)
	}
	return nil
}

// changed returns a copy of s with the version bumped.
func (s Session) changed() Session {
	s.Version++
	return s
}

// clampVolume limits level to [MinVolume, MaxVolume].
func clampVolume(level int) int {
	return min(max(level, MinVolume), MaxVolume)
}
