//go:build (linux && cgo) || windows || darwin

// Package speaker plays tracks on the local sound device.
package speaker

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tunedeck/internal/domain/track"
	"github.com/osa030/tunedeck/internal/infra/audio"
	"github.com/osa030/tunedeck/internal/infra/config"
)

// Available indicates whether audio output is supported in this build.
const Available = true

// Sink plays tracks through beep's speaker.
type Sink struct {
	mu sync.Mutex

	observer    audio.Observer
	sampleRate  beep.SampleRate
	quality     int
	initialized bool

	trackID  string
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	level    int
	ended    bool
	// generation identifies the sequence currently queued on the speaker so
	// callbacks from replaced sequences are ignored.
	generation uint64

	interval time.Duration
	stop     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// New creates a speaker sink. The sound device is opened on the first Load.
func New(cfg config.SinkConfig, interval time.Duration) (*Sink, error) {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	s := &Sink{
		observer:   nopObserver{},
		sampleRate: beep.SampleRate(cfg.SampleRate),
		quality:    cfg.ResampleQuality,
		level:      100,
		interval:   interval,
		stop:       make(chan struct{}),
	}
	s.wg.Add(1)
	go s.reportLoop()
	return s, nil
}

// SetObserver sets the observer receiving reports.
func (s *Sink) SetObserver(o audio.Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o == nil {
		o = nopObserver{}
	}
	s.observer = o
}

// Load decodes t and queues it on the speaker.
func (s *Sink) Load(_ context.Context, t track.Track, autoplay bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.unloadLocked()

	streamer, format, err := audio.Decode(t.Source)
	if err != nil {
		return err
	}

	if !s.initialized {
		if err := speaker.Init(s.sampleRate, s.sampleRate.N(time.Second/10)); err != nil {
			streamer.Close()
			return errors.Wrap(err, "failed to initialize speaker")
		}
		s.initialized = true
	}

	s.trackID = t.ID
	s.streamer = streamer
	s.format = format
	resampled := beep.Resample(s.quality, format.SampleRate, s.sampleRate, streamer)
	s.ctrl = &beep.Ctrl{Streamer: resampled, Paused: !autoplay}
	s.volume = &effects.Volume{
		Streamer: s.ctrl,
		Base:     2,
		Volume:   audio.LevelToGain(s.level),
		Silent:   s.level <= 0,
	}
	s.queueLocked()

	duration := format.SampleRate.D(streamer.Len())
	zlog.Debug().Msgf("speaker: loaded: id=%s title=%s duration=%s rate=%d", t.ID, t.Title, duration, format.SampleRate)

	obs, id := s.observer, t.ID
	go obs.MetadataLoaded(id, duration)
	return nil
}

// Play resumes playback. A track that already ended restarts from the beginning.
func (s *Sink) Play(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctrl == nil {
		return nil
	}
	speaker.Lock()
	s.ctrl.Paused = false
	var err error
	if s.ended {
		err = s.streamer.Seek(0)
	}
	speaker.Unlock()
	if err != nil {
		return errors.Wrap(err, "failed to rewind")
	}

	if s.ended {
		s.queueLocked()
	}
	return nil
}

// Pause pauses playback.
func (s *Sink) Pause(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctrl == nil {
		return nil
	}
	speaker.Lock()
	s.ctrl.Paused = true
	speaker.Unlock()
	return nil
}

// Seek moves the playback position, clamped to the stream.
func (s *Sink) Seek(_ context.Context, pos time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streamer == nil {
		return nil
	}

	speaker.Lock()
	sample := min(max(s.format.SampleRate.N(pos), 0), max(s.streamer.Len()-1, 0))
	err := s.streamer.Seek(sample)
	speaker.Unlock()
	if err != nil {
		return errors.Wrap(err, "failed to seek")
	}

	if s.ended {
		s.queueLocked()
	}
	return nil
}

// SetVolume sets the output level in [0, 100].
func (s *Sink) SetVolume(_ context.Context, level int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.level = level
	if s.volume == nil {
		return nil
	}
	speaker.Lock()
	s.volume.Volume = audio.LevelToGain(level)
	s.volume.Silent = level <= 0
	speaker.Unlock()
	return nil
}

// Unload stops playback and closes the loaded stream.
func (s *Sink) Unload(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unloadLocked()
	return nil
}

// Close stops reporting and releases the sound device.
func (s *Sink) Close() error {
	s.once.Do(func() {
		close(s.stop)
		s.wg.Wait()

		s.mu.Lock()
		defer s.mu.Unlock()
		s.unloadLocked()
		if s.initialized {
			speaker.Close()
			s.initialized = false
		}
	})
	return nil
}

// queueLocked queues the loaded track on the speaker under a new generation.
func (s *Sink) queueLocked() {
	s.generation++
	s.ended = false
	gen, id := s.generation, s.trackID
	speaker.Play(beep.Seq(s.volume, beep.Callback(func() {
		// The callback runs on the speaker goroutine with the speaker locked.
		go s.finished(gen, id)
	})))
}

func (s *Sink) finished(gen uint64, id string) {
	s.mu.Lock()
	if gen != s.generation || s.streamer == nil {
		s.mu.Unlock()
		return
	}
	s.ended = true
	obs := s.observer
	s.mu.Unlock()

	zlog.Debug().Msgf("speaker: track ended: id=%s", id)
	obs.TrackEnded(id)
}

func (s *Sink) unloadLocked() {
	if s.initialized {
		speaker.Clear()
	}
	if s.streamer != nil {
		if err := s.streamer.Close(); err != nil {
			zlog.Debug().Msgf("speaker: close stream: %v", err)
		}
	}
	s.generation++
	s.trackID = ""
	s.streamer = nil
	s.ctrl = nil
	s.volume = nil
	s.ended = false
}

// reportLoop reports the playback position while a track is playing.
func (s *Sink) reportLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.reportPosition()
		}
	}
}

func (s *Sink) reportPosition() {
	s.mu.Lock()
	if s.streamer == nil || s.ctrl == nil || s.ended {
		s.mu.Unlock()
		return
	}
	speaker.Lock()
	paused := s.ctrl.Paused
	pos := s.format.SampleRate.D(s.streamer.Position())
	speaker.Unlock()
	obs, id := s.observer, s.trackID
	s.mu.Unlock()

	if !paused {
		obs.TimeUpdated(id, pos)
	}
}

type nopObserver struct{}

func (nopObserver) TrackEnded(string)                    {}
func (nopObserver) TimeUpdated(string, time.Duration)    {}
func (nopObserver) MetadataLoaded(string, time.Duration) {}
