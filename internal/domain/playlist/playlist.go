// Package playlist provides the Playlist domain entity.
package playlist

import (
	"time"

	"github.com/samber/lo"

	"github.com/osa030/tunedeck/internal/domain/track"
)

// Playlist is an ordered collection of tracks.
// It is a value: every mutation returns a new Playlist and leaves the receiver as is,
// so a session snapshot can be handed out without copying.
type Playlist struct {
	tracks []track.Track
}

// New creates a playlist holding the given tracks in order.
func New(tracks ...track.Track) Playlist {
	return Playlist{}.Append(tracks...)
}

// Len returns the number of tracks.
func (p Playlist) Len() int {
	return len(p.tracks)
}

// IsEmpty returns true if the playlist has no tracks.
func (p Playlist) IsEmpty() bool {
	return len(p.tracks) == 0
}

// InRange reports whether index addresses a track.
func (p Playlist) InRange(index int) bool {
	return index >= 0 && index < len(p.tracks)
}

// Track returns the track at index.
func (p Playlist) Track(index int) (track.Track, bool) {
	if !p.InRange(index) {
		return track.Track{}, false
	}
	return p.tracks[index], true
}

// Tracks returns a copy of all tracks.
func (p Playlist) Tracks() []track.Track {
	result := make([]track.Track, len(p.tracks))
	copy(result, p.tracks)
	return result
}

// Append returns a playlist with tracks added at the end in input order.
// Tracks whose ID is already present (in the playlist or earlier in the input) are skipped.
func (p Playlist) Append(tracks ...track.Track) Playlist {
	if len(tracks) == 0 {
		return p
	}

	seen := make(map[string]struct{}, len(p.tracks)+len(tracks))
	for _, t := range p.tracks {
		seen[t.ID] = struct{}{}
	}

	next := make([]track.Track, len(p.tracks), len(p.tracks)+len(tracks))
	copy(next, p.tracks)
	for _, t := range tracks {
		if _, dup := seen[t.ID]; dup {
			continue
		}
		seen[t.ID] = struct{}{}
		next = append(next, t)
	}
	return Playlist{tracks: next}
}

// RemoveAt returns a playlist without the track at index, and the removed track.
// Returns false if index is out of bounds.
func (p Playlist) RemoveAt(index int) (Playlist, track.Track, bool) {
	if !p.InRange(index) {
		return p, track.Track{}, false
	}
	removed := p.tracks[index]
	next := make([]track.Track, 0, len(p.tracks)-1)
	next = append(next, p.tracks[:index]...)
	next = append(next, p.tracks[index+1:]...)
	return Playlist{tracks: next}, removed, true
}

// ReplaceAt returns a playlist with the track at index swapped for t.
// Returns false if index is out of bounds.
func (p Playlist) ReplaceAt(index int, t track.Track) (Playlist, bool) {
	if !p.InRange(index) {
		return p, false
	}
	next := p.Tracks()
	next[index] = t
	return Playlist{tracks: next}, true
}

// ContainsSource reports whether any track is loaded from source.
func (p Playlist) ContainsSource(source string) bool {
	return lo.ContainsBy(p.tracks, func(t track.Track) bool {
		return t.Source == source
	})
}

// TrackIDs returns all track IDs in order.
func (p Playlist) TrackIDs() []string {
	return lo.Map(p.tracks, func(t track.Track, _ int) string {
		return t.ID
	})
}

// TotalDuration returns the sum of all known track durations.
func (p Playlist) TotalDuration() time.Duration {
	return lo.SumBy(p.tracks, func(t track.Track) time.Duration {
		return t.Duration
	})
}
