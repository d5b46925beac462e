package playback

import (
	"math/rand/v2"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/tunedeck/internal/domain/track"
)

// Errors
var (
	ErrOutOfRange = errors.New("index out of range")
)

// Rand is the randomness source used by shuffle.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

// globalRand draws from the math/rand/v2 top-level source.
type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Transition is the result of applying one operation to a Session.
type Transition struct {
	Session Session
	Intents []Intent // Sink commands to apply, in order
}

// Changed reports whether the transition produced a new session version.
func (t Transition) Changed(from Session) bool {
	return t.Session.Version != from.Version
}

// unchanged is the transition of an operation that had nothing to do.
func unchanged(s Session) Transition {
	return Transition{Session: s}
}

// Controller applies playback operations to sessions.
// It holds no session state of its own, only the randomness source for shuffle.
type Controller struct {
	rand Rand
}

// NewController creates a controller drawing shuffle targets from r.
// A nil r uses the math/rand/v2 global source.
func NewController(r Rand) *Controller {
	if r == nil {
		r = globalRand{}
	}
	return &Controller{rand: r}
}

// Append adds tracks to the end of the playlist in input order.
// The current index and play intent are left alone, except that the first track
// appended to an empty playlist becomes current (and is loaded, paused).
func (c *Controller) Append(s Session, tracks []track.Track) Transition {
	if len(tracks) == 0 {
		return unchanged(s)
	}

	before := s.Playlist.Len()
	s.Playlist = s.Playlist.Append(tracks...)
	if s.Playlist.Len() == before {
		return unchanged(s)
	}
	s = s.changed()

	if s.Current != NoTrack {
		return Transition{Session: s}
	}

	s.Current = 0
	first, _ := s.Playlist.Track(0)
	s.Position = 0
	s.Duration = first.Duration
	return Transition{
		Session: s,
		Intents: []Intent{loadIntent(first, s.Playing)},
	}
}

// Remove deletes the track at index, keeping the current index on the same logical
// track when possible. Fails with ErrOutOfRange and leaves s untouched on a bad index.
func (c *Controller) Remove(s Session, index int) (Transition, error) {
	if !s.Playlist.InRange(index) {
		return unchanged(s), errors.Wrapf(ErrOutOfRange, "remove index %d (playlist length %d)", index, s.Playlist.Len())
	}

	next, _, _ := s.Playlist.RemoveAt(index)
	s.Playlist = next
	s = s.changed()

	switch {
	case index < s.Current:
		s.Current--
		return Transition{Session: s}, nil

	case index > s.Current:
		return Transition{Session: s}, nil
	}

	// The loaded track went away.
	intents := []Intent{unloadIntent}
	s.Position = 0

	if next.IsEmpty() {
		s.Current = NoTrack
		s.Playing = false
		s.Duration = 0
		return Transition{Session: s, Intents: intents}, nil
	}

	s.Current = min(s.Current, next.Len()-1)
	replacement, _ := next.Track(s.Current)
	s.Duration = replacement.Duration
	intents = append(intents, loadIntent(replacement, s.Playing))
	return Transition{Session: s, Intents: intents}, nil
}

// SelectTrack makes the track at index current. Playback follows the existing play
// intent: the track is loaded and, if the session is playing, started.
// Selecting the current track again changes nothing.
func (c *Controller) SelectTrack(s Session, index int) (Transition, error) {
	if !s.Playlist.InRange(index) {
		return unchanged(s), errors.Wrapf(ErrOutOfRange, "select index %d (playlist length %d)", index, s.Playlist.Len())
	}
	if index == s.Current {
		return unchanged(s), nil
	}
	return c.moveTo(s, index), nil
}

// TogglePlayPause flips the play intent. No-op on an empty playlist.
func (c *Controller) TogglePlayPause(s Session) Transition {
	if s.Playlist.IsEmpty() {
		return unchanged(s)
	}

	s.Playing = !s.Playing
	s = s.changed()
	if s.Playing {
		return Transition{Session: s, Intents: []Intent{playIntent}}
	}
	return Transition{Session: s, Intents: []Intent{pauseIntent}}
}

// Advance moves to the next or previous track. No-op on an empty playlist.
func (c *Controller) Advance(s Session, d Direction) Transition {
	if s.Playlist.IsEmpty() {
		return unchanged(s)
	}
	return c.moveTo(s, c.NextIndex(s, d))
}

// NextIndex computes the index Advance would move to, or NoTrack for an empty playlist.
//
// Forward without shuffle wraps around. Forward with shuffle draws uniformly from the
// whole playlist, current track included. Backward ignores shuffle and wraps to the end.
func (c *Controller) NextIndex(s Session, d Direction) int {
	n := s.Playlist.Len()
	if n == 0 {
		return NoTrack
	}

	if d == Backward {
		if s.Current <= 0 {
			return n - 1
		}
		return s.Current - 1
	}

	if s.Shuffle {
		return c.rand.IntN(n)
	}
	return (s.Current + 1) % n
}

// OnTrackEnded applies the repeat mode after the sink reports the end of a track.
func (c *Controller) OnTrackEnded(s Session) Transition {
	if s.Playlist.IsEmpty() {
		return unchanged(s)
	}

	switch s.Repeat {
	case RepeatOne:
		s.Position = 0
		s.Playing = true
		return Transition{
			Session: s.changed(),
			Intents: []Intent{seekIntent(0), playIntent},
		}

	case RepeatAll:
		return c.Advance(s, Forward)

	default:
		if !s.IsLast() {
			return c.Advance(s, Forward)
		}
		s.Playing = false
		return Transition{
			Session: s.changed(),
			Intents: []Intent{pauseIntent},
		}
	}
}

// CycleRepeatMode rotates none -> all -> one -> none.
func (c *Controller) CycleRepeatMode(s Session) Transition {
	s.Repeat = s.Repeat.Next()
	return Transition{Session: s.changed()}
}

// SetRepeatMode sets the repeat mode directly.
func (c *Controller) SetRepeatMode(s Session, m RepeatMode) Transition {
	if s.Repeat == m {
		return unchanged(s)
	}
	s.Repeat = m
	return Transition{Session: s.changed()}
}

// SetShuffle enables or disables shuffle.
func (c *Controller) SetShuffle(s Session, enabled bool) Transition {
	if s.Shuffle == enabled {
		return unchanged(s)
	}
	s.Shuffle = enabled
	return Transition{Session: s.changed()}
}

// SetVolume sets the volume, clamped to [0, 100], and forwards it to the sink.
func (c *Controller) SetVolume(s Session, level int) Transition {
	s.Volume = clampVolume(level)
	return Transition{
		Session: s.changed(),
		Intents: []Intent{volumeIntent(s.Volume)},
	}
}

// Seek moves the current track to pos, clamped to the known duration.
// No-op on an empty playlist.
func (c *Controller) Seek(s Session, pos time.Duration) Transition {
	if s.Playlist.IsEmpty() {
		return unchanged(s)
	}

	pos = max(pos, 0)
	if s.Duration > 0 {
		pos = min(pos, s.Duration)
	}
	s.Position = pos
	return Transition{
		Session: s.changed(),
		Intents: []Intent{seekIntent(pos)},
	}
}

// SeekFraction seeks to a fraction (0-1) of the known duration.
// No-op while the duration is unknown.
func (c *Controller) SeekFraction(s Session, fraction float64) Transition {
	if s.Duration <= 0 {
		return unchanged(s)
	}
	fraction = min(max(fraction, 0), 1)
	return c.Seek(s, time.Duration(fraction*float64(s.Duration)))
}

// OnTimeUpdate records the position reported by the sink.
func (c *Controller) OnTimeUpdate(s Session, pos time.Duration) Transition {
	if s.Playlist.IsEmpty() {
		return unchanged(s)
	}
	pos = max(pos, 0)
	if pos == s.Position {
		return unchanged(s)
	}
	s.Position = pos
	return Transition{Session: s.changed()}
}

// OnMetadataLoaded records the duration reported by the sink and stores it on the
// current track.
func (c *Controller) OnMetadataLoaded(s Session, d time.Duration) Transition {
	cur, ok := s.CurrentTrack()
	if !ok {
		return unchanged(s)
	}

	d = max(d, 0)
	s.Duration = d
	s.Playlist, _ = s.Playlist.ReplaceAt(s.Current, cur.WithDuration(d))
	return Transition{Session: s.changed()}
}

// moveTo makes index current and restarts playback position.
// Moving onto the already current track rewinds it instead of reloading.
func (c *Controller) moveTo(s Session, index int) Transition {
	s.Position = 0

	if index == s.Current {
		intents := []Intent{seekIntent(0)}
		if s.Playing {
			intents = append(intents, playIntent)
		}
		return Transition{Session: s.changed(), Intents: intents}
	}

	s.Current = index
	t, _ := s.Playlist.Track(index)
	s.Duration = t.Duration
	return Transition{
		Session: s.changed(),
		Intents: []Intent{loadIntent(t, s.Playing)},
	}
}
