//go:build !((linux && cgo) || windows || darwin)

// Package speaker plays tracks on the local sound device.
package speaker

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/tunedeck/internal/domain/track"
	"github.com/osa030/tunedeck/internal/infra/audio"
	"github.com/osa030/tunedeck/internal/infra/config"
)

// Available indicates whether audio output is supported in this build.
// Audio requires cgo for the native sound libraries.
const Available = false

// ErrUnavailable is returned by New in builds without audio output.
var ErrUnavailable = errors.New("speaker output requires a cgo build")

// Sink is a placeholder so callers compile without cgo.
type Sink struct{}

// New always fails without cgo.
func New(config.SinkConfig, time.Duration) (*Sink, error) {
	return nil, ErrUnavailable
}

// SetObserver does nothing without cgo.
func (*Sink) SetObserver(audio.Observer) {}

// Load always fails without cgo.
func (*Sink) Load(context.Context, track.Track, bool) error {
	return ErrUnavailable
}

// Play always fails without cgo.
func (*Sink) Play(context.Context) error {
	return ErrUnavailable
}

// Pause always fails without cgo.
func (*Sink) Pause(context.Context) error {
	return ErrUnavailable
}

// Seek always fails without cgo.
func (*Sink) Seek(context.Context, time.Duration) error {
	return ErrUnavailable
}

// SetVolume always fails without cgo.
func (*Sink) SetVolume(context.Context, int) error {
	return ErrUnavailable
}

// Unload always fails without cgo.
func (*Sink) Unload(context.Context) error {
	return ErrUnavailable
}

// Close does nothing without cgo.
func (*Sink) Close() error {
	return nil
}
