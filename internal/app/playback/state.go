// Package playback provides the playback-session controller: pure transitions over a
// Session value that return the audio sink commands they imply.
package playback

import "github.com/cockroachdb/errors"

// RepeatMode represents what happens when a track ends.
type RepeatMode int

const (
	RepeatNone RepeatMode = iota // Stop after the last track
	RepeatAll                    // Loop the whole playlist
	RepeatOne                    // Loop the current track
)

// String returns the string representation of the repeat mode.
func (m RepeatMode) String() string {
	switch m {
	case RepeatNone:
		return "none"
	case RepeatAll:
		return "all"
	case RepeatOne:
		return "one"
	default:
		return "unknown"
	}
}

// Next returns the mode that follows m in the none -> all -> one rotation.
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatNone:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatNone
	}
}

// ParseRepeatMode parses "none", "all" or "one".
func ParseRepeatMode(s string) (RepeatMode, error) {
	switch s {
	case "none", "":
		return RepeatNone, nil
	case "all":
		return RepeatAll, nil
	case "one":
		return RepeatOne, nil
	default:
		return RepeatNone, errors.Newf("unknown repeat mode: %q", s)
	}
}

// Direction selects which way Advance moves.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// String returns the string representation of the direction.
func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return "unknown"
	}
}

// ParseDirection parses "forward" or "backward".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "forward", "next", "":
		return Forward, nil
	case "backward", "previous", "prev":
		return Backward, nil
	default:
		return Forward, errors.Newf("unknown direction: %q", s)
	}
}
