package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/tunedeck/internal/app/notification"
	"github.com/osa030/tunedeck/internal/app/playback"
	"github.com/osa030/tunedeck/internal/app/session/state"
	"github.com/osa030/tunedeck/internal/domain/track"
	"github.com/osa030/tunedeck/internal/infra/audio"
	"github.com/osa030/tunedeck/internal/infra/config"
)

// fakeSink records the calls it receives.
type fakeSink struct {
	mu       sync.Mutex
	calls    []string
	observer audio.Observer
	failLoad error
}

func (s *fakeSink) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *fakeSink) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *fakeSink) Load(_ context.Context, t track.Track, autoplay bool) error {
	s.record(fmt.Sprintf("load %s autoplay=%t", t.Title, autoplay))
	return s.failLoad
}

func (s *fakeSink) Play(context.Context) error {
	s.record("play")
	return nil
}

func (s *fakeSink) Pause(context.Context) error {
	s.record("pause")
	return nil
}

func (s *fakeSink) Seek(_ context.Context, pos time.Duration) error {
	s.record("seek " + pos.String())
	return nil
}

func (s *fakeSink) SetVolume(_ context.Context, level int) error {
	s.record(fmt.Sprintf("volume %d", level))
	return nil
}

func (s *fakeSink) Unload(context.Context) error {
	s.record("unload")
	return nil
}

func (s *fakeSink) SetObserver(o audio.Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = o
}

func (s *fakeSink) Close() error { return nil }

type collectingStream struct {
	mu   sync.Mutex
	seen []*notification.Notification
}

func (c *collectingStream) Send(n *notification.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = append(c.seen, n)
	return nil
}

func (c *collectingStream) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

func intPtr(v int) *int { return &v }

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Addr: ":0"},
		Playback: config.PlaybackConfig{
			InitialVolume: intPtr(40),
			Repeat:        "all",
			Shuffle:       false,
			TimeUpdateMs:  250,
		},
		Sink: config.SinkConfig{Type: "null", SampleRate: 44100, ResampleQuality: 4},
	}
}

func tracks(titles ...string) []track.Track {
	out := make([]track.Track, len(titles))
	for i, title := range titles {
		out[i] = track.New("/music/" + title + ".mp3")
	}
	return out
}

func startManager(t *testing.T, cfg *config.Config) (*Manager, *fakeSink) {
	t.Helper()
	sink := &fakeSink{}
	m, err := NewManager(cfg, sink, nil)
	require.NoError(t, err)
	require.NoError(t, m.Start(context.Background()))
	t.Cleanup(m.Close)
	return m, sink
}

func TestNewManager_AppliesConfig(t *testing.T) {
	m, sink := startManager(t, testConfig())

	s := m.Snapshot()
	assert.Equal(t, 40, s.Volume)
	assert.Equal(t, playback.RepeatAll, s.Repeat)
	assert.False(t, s.Shuffle)
	assert.Equal(t, playback.NoTrack, s.Current)
	assert.Equal(t, []string{"volume 40"}, sink.Calls())

	status := m.GetStatus()
	assert.Equal(t, state.PhaseRunning, status.Phase)
	assert.NotEmpty(t, status.SessionID)
	assert.False(t, status.StartedAt.IsZero())
}

func TestNewManager_InvalidRepeat(t *testing.T) {
	cfg := testConfig()
	cfg.Playback.Repeat = "sometimes"
	_, err := NewManager(cfg, &fakeSink{}, nil)
	assert.Error(t, err)
}

func TestManager_ControlFlow(t *testing.T) {
	m, sink := startManager(t, testConfig())
	ctx := context.Background()

	s, err := m.Append(ctx, tracks("A", "B", "C"))
	require.NoError(t, err)
	assert.Equal(t, 0, s.Current)
	assert.Equal(t, 3, s.Playlist.Len())

	s, err = m.TogglePlayPause(ctx)
	require.NoError(t, err)
	assert.True(t, s.Playing)

	s, err = m.SelectTrack(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Current)

	s, err = m.Remove(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Current)
	cur, ok := s.CurrentTrack()
	require.True(t, ok)
	assert.Equal(t, "C", cur.Title)

	s, err = m.Advance(ctx, playback.Forward)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Current, "forward wraps")

	assert.Equal(t, []string{
		"volume 40",
		"load A autoplay=false",
		"play",
		"load C autoplay=true",
		"load B autoplay=true",
	}, sink.Calls())
	assert.NoError(t, m.Snapshot().Validate())
}

func TestManager_OutOfRange(t *testing.T) {
	m, sink := startManager(t, testConfig())
	ctx := context.Background()

	_, err := m.Append(ctx, tracks("A"))
	require.NoError(t, err)
	before := m.Snapshot()

	_, err = m.SelectTrack(ctx, 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, playback.ErrOutOfRange))

	_, err = m.Remove(ctx, -1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, playback.ErrOutOfRange))

	assert.Equal(t, before, m.Snapshot())
	assert.Equal(t, []string{"volume 40", "load A autoplay=false"}, sink.Calls())
}

func TestManager_SinkReports(t *testing.T) {
	cfg := testConfig()
	cfg.Playback.Repeat = "none"
	m, sink := startManager(t, cfg)
	ctx := context.Background()

	s, err := m.Append(ctx, tracks("A", "B"))
	require.NoError(t, err)
	first, _ := s.CurrentTrack()
	_, err = m.TogglePlayPause(ctx)
	require.NoError(t, err)

	m.MetadataLoaded(first.ID, 3*time.Minute)
	require.Eventually(t, func() bool {
		return m.Snapshot().Duration == 3*time.Minute
	}, time.Second, 5*time.Millisecond)
	cur, _ := m.Snapshot().CurrentTrack()
	assert.Equal(t, 3*time.Minute, cur.Duration)

	m.TimeUpdated(first.ID, 42*time.Second)
	require.Eventually(t, func() bool {
		return m.Snapshot().Position == 42*time.Second
	}, time.Second, 5*time.Millisecond)

	// Reports about other tracks are ignored.
	m.TimeUpdated("stale-track", 5*time.Second)
	m.TrackEnded("stale-track")

	m.TrackEnded(first.ID)
	require.Eventually(t, func() bool {
		return m.Snapshot().Current == 1
	}, time.Second, 5*time.Millisecond)
	assert.True(t, m.Snapshot().Playing)

	second, _ := m.Snapshot().CurrentTrack()
	m.TrackEnded(second.ID)
	require.Eventually(t, func() bool {
		return !m.Snapshot().Playing
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, m.Snapshot().Current, "stops at the end of the list")

	calls := sink.Calls()
	assert.Equal(t, "pause", calls[len(calls)-1])
	assert.Contains(t, calls, "load B autoplay=true")
}

func TestManager_SeekAndVolume(t *testing.T) {
	m, sink := startManager(t, testConfig())
	ctx := context.Background()

	s, err := m.Append(ctx, tracks("A"))
	require.NoError(t, err)
	first, _ := s.CurrentTrack()
	m.MetadataLoaded(first.ID, 200*time.Second)
	require.Eventually(t, func() bool {
		return m.Snapshot().Duration == 200*time.Second
	}, time.Second, 5*time.Millisecond)

	s, err = m.SeekPercent(ctx, 25)
	require.NoError(t, err)
	assert.Equal(t, 50*time.Second, s.Position)

	s, err = m.Seek(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 200*time.Second, s.Position)

	s, err = m.SetVolume(ctx, 250)
	require.NoError(t, err)
	assert.Equal(t, 100, s.Volume)

	s, err = m.CycleRepeatMode(ctx)
	require.NoError(t, err)
	assert.Equal(t, playback.RepeatOne, s.Repeat)

	s, err = m.SetShuffle(ctx, true)
	require.NoError(t, err)
	assert.True(t, s.Shuffle)

	calls := sink.Calls()
	assert.Contains(t, calls, "seek 50s")
	assert.Contains(t, calls, "seek 3m20s")
	assert.Equal(t, "volume 100", calls[len(calls)-1])
}

func TestManager_BroadcastsChanges(t *testing.T) {
	m, _ := startManager(t, testConfig())
	ctx := context.Background()

	stream := &collectingStream{}
	m.GetNotificationManager().Subscribe(stream)

	_, err := m.Append(ctx, tracks("A"))
	require.NoError(t, err)
	_, err = m.SelectTrack(ctx, 0)
	require.NoError(t, err, "selecting the current track is a no-op")
	_, err = m.SetShuffle(ctx, true)
	require.NoError(t, err)

	assert.Equal(t, 2, stream.count())
	assert.Equal(t, 1, m.GetStatus().Subscribers)
}

func TestManager_SinkErrorIsBroadcast(t *testing.T) {
	cfg := testConfig()
	sink := &fakeSink{failLoad: errors.New("decoder exploded")}
	m, err := NewManager(cfg, sink, nil)
	require.NoError(t, err)
	require.NoError(t, m.Start(context.Background()))
	defer m.Close()

	stream := &collectingStream{}
	m.GetNotificationManager().Subscribe(stream)

	s, err := m.Append(context.Background(), tracks("A"))
	require.NoError(t, err, "sink failures do not fail the command")
	assert.Equal(t, 0, s.Current)

	stream.mu.Lock()
	defer stream.mu.Unlock()
	require.Len(t, stream.seen, 2)
	assert.Equal(t, notification.TypeSinkError, stream.seen[0].Type)
	assert.Contains(t, stream.seen[0].Message, "decoder exploded")
	assert.Equal(t, notification.TypeChanged, stream.seen[1].Type)
}

func TestManager_Closed(t *testing.T) {
	sink := &fakeSink{}
	m, err := NewManager(testConfig(), sink, nil)
	require.NoError(t, err)

	_, err = m.TogglePlayPause(context.Background())
	assert.ErrorIs(t, err, ErrSessionNotRunning, "not started yet")

	require.NoError(t, m.Start(context.Background()))
	m.Close()
	m.Close()

	select {
	case <-m.Done():
	default:
		t.Fatal("done channel should be closed")
	}

	_, err = m.Append(context.Background(), tracks("A"))
	assert.ErrorIs(t, err, ErrSessionNotRunning)
	assert.Equal(t, state.PhaseStopped, m.GetStatus().Phase)
	assert.Equal(t, "unload", sink.Calls()[len(sink.Calls())-1])
}

func TestManager_TogglePlayAfterLastTrackEnded(t *testing.T) {
	cfg := testConfig()
	cfg.Playback.Repeat = "none"
	sink := audio.NewNullSink(5 * time.Millisecond)
	t.Cleanup(func() { sink.Close() })

	m, err := NewManager(cfg, sink, nil)
	require.NoError(t, err)
	require.NoError(t, m.Start(context.Background()))
	t.Cleanup(m.Close)
	ctx := context.Background()

	only := track.New("/music/only.mp3").WithDuration(300 * time.Millisecond)
	_, err = m.Append(ctx, []track.Track{only})
	require.NoError(t, err)
	_, err = m.TogglePlayPause(ctx)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return !m.Snapshot().Playing
	}, 2*time.Second, 5*time.Millisecond, "repeat none stops after the last track")

	s, err := m.TogglePlayPause(ctx)
	require.NoError(t, err)
	assert.True(t, s.Playing)

	time.Sleep(100 * time.Millisecond)
	s = m.Snapshot()
	assert.True(t, s.Playing, "the track plays again from the start")
	assert.Less(t, s.Position, only.Duration)
}
