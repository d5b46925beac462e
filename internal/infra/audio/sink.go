// Package audio defines the audio output contract and its headless implementation.
package audio

import (
	"context"
	"math"
	"time"

	"github.com/osa030/tunedeck/internal/domain/track"
)

// Observer receives reports from a sink about the loaded track.
// Reports carry the track ID they refer to so late reports for an unloaded
// track can be told apart. Sinks call the observer from their own goroutines,
// never from inside a Sink method.
type Observer interface {
	TrackEnded(trackID string)
	TimeUpdated(trackID string, pos time.Duration)
	MetadataLoaded(trackID string, duration time.Duration)
}

// Sink plays audio for one loaded track at a time.
type Sink interface {
	// Load replaces the loaded track. Playback starts right away when autoplay is set.
	Load(ctx context.Context, t track.Track, autoplay bool) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Seek(ctx context.Context, pos time.Duration) error
	// SetVolume sets the output level in [0, 100].
	SetVolume(ctx context.Context, level int) error
	// Unload stops playback and releases the loaded track.
	Unload(ctx context.Context) error
	SetObserver(o Observer)
	Close() error
}

// LevelToGain converts a 0-100 volume level to a base-2 gain.
// 100 -> 0 (unchanged), 50 -> -1 (half), 25 -> -2, 0 -> -10 (essentially silent).
func LevelToGain(level int) float64 {
	if level <= 0 {
		return -10
	}
	if level >= 100 {
		return 0
	}
	return math.Log2(float64(level) / 100)
}

type nopObserver struct{}

func (nopObserver) TrackEnded(string)                    {}
func (nopObserver) TimeUpdated(string, time.Duration)    {}
func (nopObserver) MetadataLoaded(string, time.Duration) {}
