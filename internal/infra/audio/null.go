package audio

import (
	"context"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tunedeck/internal/domain/track"
)

// NullSink is a silent sink for hosts without an audio device.
// It keeps a wall-clock position for the loaded track, reports it on every tick
// and reports the end of tracks whose duration is known.
type NullSink struct {
	mu       sync.Mutex
	observer Observer
	loaded   *track.Track
	playing  bool
	position time.Duration
	volume   int
	lastTick time.Time

	interval time.Duration
	stop     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// NewNullSink creates a null sink reporting positions every interval.
func NewNullSink(interval time.Duration) *NullSink {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	s := &NullSink{
		observer: nopObserver{},
		volume:   100,
		interval: interval,
		stop:     make(chan struct{}),
	}
	s.wg.Add(1)
	go s.clock()
	return s
}

// SetObserver sets the observer receiving reports.
func (s *NullSink) SetObserver(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o == nil {
		o = nopObserver{}
	}
	s.observer = o
}

// Load loads t.
func (s *NullSink) Load(_ context.Context, t track.Track, autoplay bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loaded = &t
	s.position = 0
	s.playing = autoplay
	s.lastTick = time.Now()
	zlog.Debug().Msgf("null sink: load: id=%s title=%s autoplay=%t", t.ID, t.Title, autoplay)

	if t.HasKnownDuration() {
		obs, id, d := s.observer, t.ID, t.Duration
		go obs.MetadataLoaded(id, d)
	}
	return nil
}

// Play resumes the loaded track. A track that already ended restarts from the beginning.
func (s *NullSink) Play(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded == nil {
		return nil
	}
	if s.loaded.HasKnownDuration() && s.position >= s.loaded.Duration {
		s.position = 0
	}
	s.playing = true
	s.lastTick = time.Now()
	return nil
}

// Pause pauses the loaded track.
func (s *NullSink) Pause(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceLocked(time.Now())
	s.playing = false
	return nil
}

// Seek moves the position of the loaded track.
func (s *NullSink) Seek(_ context.Context, pos time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded == nil {
		return nil
	}
	s.position = max(pos, 0)
	s.lastTick = time.Now()
	return nil
}

// SetVolume records the level.
func (s *NullSink) SetVolume(_ context.Context, level int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = level
	return nil
}

// Unload drops the loaded track.
func (s *NullSink) Unload(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = nil
	s.playing = false
	s.position = 0
	return nil
}

// Volume returns the last level set.
func (s *NullSink) Volume() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// Playing reports whether a track is loaded and playing.
func (s *NullSink) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Close stops the clock.
func (s *NullSink) Close() error {
	s.once.Do(func() {
		close(s.stop)
		s.wg.Wait()
	})
	return nil
}

func (s *NullSink) clock() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.tick(now)
		}
	}
}

func (s *NullSink) tick(now time.Time) {
	s.mu.Lock()
	if s.loaded == nil || !s.playing {
		s.mu.Unlock()
		return
	}

	s.advanceLocked(now)
	obs, id, pos := s.observer, s.loaded.ID, s.position
	ended := s.loaded.HasKnownDuration() && pos >= s.loaded.Duration
	if ended {
		s.playing = false
	}
	s.mu.Unlock()

	obs.TimeUpdated(id, pos)
	if ended {
		obs.TrackEnded(id)
	}
}

// advanceLocked moves the position by the wall-clock time since the last tick.
func (s *NullSink) advanceLocked(now time.Time) {
	if s.loaded == nil || !s.playing {
		return
	}
	s.position += now.Sub(s.lastTick)
	if s.loaded.HasKnownDuration() {
		s.position = min(s.position, s.loaded.Duration)
	}
	s.lastTick = now
}
