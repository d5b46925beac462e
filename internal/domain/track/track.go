// Package track provides the Track domain entity.
package track

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Defaults applied to uploaded tracks until real metadata is known.
const (
	UnknownArtist = "Unknown Artist"
	UnknownAlbum  = "Unknown Album"
)

// Track represents one playable audio item.
// Tracks are values: a change produces a new Track, never an in-place edit.
type Track struct {
	ID       string        // Unique for the session lifetime
	Title    string        // Display title
	Artist   string        // Artist name
	Album    string        // Album name
	Duration time.Duration // 0 when unknown
	Source   string        // Opaque handle the audio sink loads (file path)
	AddedAt  time.Time     // Time when uploaded
}

// New creates a track for the given source with provisional metadata.
// The title is the base name of the source without its extension.
func New(source string) Track {
	return Track{
		ID:      uuid.New().String(),
		Title:   TitleFromName(filepath.Base(source)),
		Artist:  UnknownArtist,
		Album:   UnknownAlbum,
		Source:  source,
		AddedAt: time.Now(),
	}
}

// TitleFromName strips the last extension from a file name.
// Names without an extension (or dot files like ".flac") are returned unchanged.
func TitleFromName(name string) string {
	i := strings.LastIndex(name, ".")
	if i <= 0 || i == len(name)-1 {
		return name
	}
	return name[:i]
}

// WithDuration returns a copy of the track carrying the given duration.
// Negative durations are treated as unknown.
func (t Track) WithDuration(d time.Duration) Track {
	if d < 0 {
		d = 0
	}
	t.Duration = d
	return t
}

// HasKnownDuration reports whether the sink has reported a duration.
func (t Track) HasKnownDuration() bool {
	return t.Duration > 0
}

// FormatClock formats a duration as MM:SS. Negative values render as "00:00".
// Minutes are not capped, so a 75 minute position renders as "75:00".
func FormatClock(d time.Duration) string {
	if d < 0 {
		return "00:00"
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
