// Package session provides the session manager.
//
// The manager owns the single live playback session. One goroutine applies
// control commands and sink reports in arrival order, runs the resulting
// intents against the audio sink and broadcasts the new state.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tunedeck/internal/app/notification"
	"github.com/osa030/tunedeck/internal/app/playback"
	"github.com/osa030/tunedeck/internal/app/session/state"
	"github.com/osa030/tunedeck/internal/domain/track"
	"github.com/osa030/tunedeck/internal/infra/audio"
	"github.com/osa030/tunedeck/internal/infra/config"
)

var (
	ErrSessionNotRunning = errors.New("session is not running")
)

// operation computes a transition from the current session.
type operation func(s playback.Session) (playback.Transition, error)

// command is an operation waiting for the event loop.
type command struct {
	name   string
	op     operation
	result chan commandResult
}

type commandResult struct {
	session playback.Session
	err     error
}

// Manager manages the playback session.
type Manager struct {
	mu sync.RWMutex

	// Configuration
	config *config.Config

	// Components
	stateMgr     *state.Manager
	controller   *playback.Controller
	sink         audio.Sink
	notification *notification.Manager

	// Current state, written only by the event loop
	session playback.Session

	// Channels
	commands chan command
	reports  chan command
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewManager creates a new session manager playing through sink.
// A nil rand uses the math/rand/v2 global source for shuffle.
func NewManager(cfg *config.Config, sink audio.Sink, rand playback.Rand) (*Manager, error) {
	repeat, err := playback.ParseRepeatMode(cfg.Playback.Repeat)
	if err != nil {
		return nil, errors.Wrap(err, "invalid repeat mode")
	}

	ctx, cancel := context.WithCancel(context.Background())
	controller := playback.NewController(rand)

	s := playback.NewSession()
	s = controller.SetVolume(s, cfg.Playback.Volume()).Session
	s = controller.SetRepeatMode(s, repeat).Session
	s = controller.SetShuffle(s, cfg.Playback.Shuffle).Session

	m := &Manager{
		config:       cfg,
		stateMgr:     state.New(uuid.New().String()),
		controller:   controller,
		sink:         sink,
		notification: notification.NewManager(),
		session:      s,
		commands:     make(chan command),
		reports:      make(chan command, 64),
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}
	sink.SetObserver(m)
	return m, nil
}

// Start pushes the initial volume to the sink and starts the event loop.
func (m *Manager) Start(ctx context.Context) error {
	if !m.stateMgr.Start(time.Now()) {
		return ErrSessionNotRunning
	}
	s := m.Snapshot()

	if err := m.sink.SetVolume(ctx, s.Volume); err != nil {
		zlog.Warn().Msgf("failed to apply initial volume: volume=%d error=%v", s.Volume, err)
	}

	zlog.Info().Msgf("session started: session_id=%s volume=%d repeat=%s shuffle=%t", m.stateMgr.GetSessionID(), s.Volume, s.Repeat, s.Shuffle)
	go m.loop()
	return nil
}

// Done returns a channel that is closed when the session is stopped.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Close stops the event loop and unloads the sink.
func (m *Manager) Close() {
	prev := m.stateMgr.Stop(time.Now())
	if prev == state.PhaseStopped {
		return
	}

	m.cancel()
	if prev == state.PhaseRunning {
		<-m.done
	} else {
		close(m.done)
	}

	if err := m.sink.Unload(context.Background()); err != nil {
		zlog.Debug().Msgf("unload on close: %v", err)
	}
	m.notification.Close()
	zlog.Info().Msgf("session stopped: session_id=%s uptime=%s", m.stateMgr.GetSessionID(), m.stateMgr.Uptime(time.Now()).Round(time.Second))
}

// Snapshot returns the current session.
func (m *Manager) Snapshot() playback.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

// ContainsSource reports whether a track loaded from path is in the playlist.
func (m *Manager) ContainsSource(path string) bool {
	return m.Snapshot().Playlist.ContainsSource(path)
}

// Status represents the current session status.
type Status struct {
	SessionID   string
	Phase       state.Phase
	StartedAt   time.Time
	Uptime      time.Duration
	Session     playback.Session
	Subscribers int
}

// GetStatus returns the current session status.
func (m *Manager) GetStatus() *Status {
	now := time.Now()
	startedAt, _ := m.stateMgr.GetTimes()
	return &Status{
		SessionID:   m.stateMgr.GetSessionID(),
		Phase:       m.stateMgr.GetPhase(),
		StartedAt:   startedAt,
		Uptime:      m.stateMgr.Uptime(now),
		Session:     m.Snapshot(),
		Subscribers: m.notification.SubscriberCount(),
	}
}

// GetNotificationManager returns the notification manager.
func (m *Manager) GetNotificationManager() *notification.Manager {
	return m.notification
}

// Append adds tracks to the end of the playlist.
func (m *Manager) Append(ctx context.Context, tracks []track.Track) (playback.Session, error) {
	return m.submit(ctx, "append", func(s playback.Session) (playback.Transition, error) {
		return m.controller.Append(s, tracks), nil
	})
}

// Remove deletes the track at index.
func (m *Manager) Remove(ctx context.Context, index int) (playback.Session, error) {
	return m.submit(ctx, "remove", func(s playback.Session) (playback.Transition, error) {
		return m.controller.Remove(s, index)
	})
}

// SelectTrack makes the track at index current.
func (m *Manager) SelectTrack(ctx context.Context, index int) (playback.Session, error) {
	return m.submit(ctx, "select", func(s playback.Session) (playback.Transition, error) {
		return m.controller.SelectTrack(s, index)
	})
}

// TogglePlayPause flips the play intent.
func (m *Manager) TogglePlayPause(ctx context.Context) (playback.Session, error) {
	return m.submit(ctx, "toggle", func(s playback.Session) (playback.Transition, error) {
		return m.controller.TogglePlayPause(s), nil
	})
}

// Advance moves to the next or previous track.
func (m *Manager) Advance(ctx context.Context, d playback.Direction) (playback.Session, error) {
	return m.submit(ctx, "advance", func(s playback.Session) (playback.Transition, error) {
		return m.controller.Advance(s, d), nil
	})
}

// CycleRepeatMode rotates the repeat mode.
func (m *Manager) CycleRepeatMode(ctx context.Context) (playback.Session, error) {
	return m.submit(ctx, "cycle_repeat", func(s playback.Session) (playback.Transition, error) {
		return m.controller.CycleRepeatMode(s), nil
	})
}

// SetShuffle enables or disables shuffle.
func (m *Manager) SetShuffle(ctx context.Context, enabled bool) (playback.Session, error) {
	return m.submit(ctx, "shuffle", func(s playback.Session) (playback.Transition, error) {
		return m.controller.SetShuffle(s, enabled), nil
	})
}

// SetVolume sets the volume.
func (m *Manager) SetVolume(ctx context.Context, level int) (playback.Session, error) {
	return m.submit(ctx, "volume", func(s playback.Session) (playback.Transition, error) {
		return m.controller.SetVolume(s, level), nil
	})
}

// Seek moves the current track to pos.
func (m *Manager) Seek(ctx context.Context, pos time.Duration) (playback.Session, error) {
	return m.submit(ctx, "seek", func(s playback.Session) (playback.Transition, error) {
		return m.controller.Seek(s, pos), nil
	})
}

// SeekPercent moves the current track to a percentage (0-100) of its duration.
func (m *Manager) SeekPercent(ctx context.Context, percent float64) (playback.Session, error) {
	return m.submit(ctx, "seek", func(s playback.Session) (playback.Transition, error) {
		return m.controller.SeekFraction(s, percent/100), nil
	})
}

// TrackEnded implements audio.Observer.
func (m *Manager) TrackEnded(trackID string) {
	m.report("track_ended", trackID, func(s playback.Session) playback.Transition {
		return m.controller.OnTrackEnded(s)
	})
}

// TimeUpdated implements audio.Observer. Reports are dropped while the loop is behind.
func (m *Manager) TimeUpdated(trackID string, pos time.Duration) {
	cmd := m.reportCommand("time_update", trackID, func(s playback.Session) playback.Transition {
		return m.controller.OnTimeUpdate(s, pos)
	})
	select {
	case m.reports <- cmd:
	default:
	}
}

// MetadataLoaded implements audio.Observer.
func (m *Manager) MetadataLoaded(trackID string, d time.Duration) {
	m.report("metadata", trackID, func(s playback.Session) playback.Transition {
		return m.controller.OnMetadataLoaded(s, d)
	})
}

func (m *Manager) report(name, trackID string, apply func(playback.Session) playback.Transition) {
	select {
	case m.reports <- m.reportCommand(name, trackID, apply):
	case <-m.ctx.Done():
	}
}

// reportCommand wraps a sink report. Reports about a track that is no longer
// current are ignored.
func (m *Manager) reportCommand(name, trackID string, apply func(playback.Session) playback.Transition) command {
	return command{
		name: name,
		op: func(s playback.Session) (playback.Transition, error) {
			cur, ok := s.CurrentTrack()
			if !ok || cur.ID != trackID {
				return playback.Transition{Session: s}, nil
			}
			return apply(s), nil
		},
	}
}

// submit hands op to the event loop and waits for the resulting session.
func (m *Manager) submit(ctx context.Context, name string, op operation) (playback.Session, error) {
	if !m.stateMgr.IsRunning() {
		return playback.Session{}, ErrSessionNotRunning
	}
	cmd := command{name: name, op: op, result: make(chan commandResult, 1)}

	select {
	case m.commands <- cmd:
	case <-m.ctx.Done():
		return playback.Session{}, ErrSessionNotRunning
	case <-ctx.Done():
		return playback.Session{}, ctx.Err()
	}

	select {
	case res := <-cmd.result:
		return res.session, res.err
	case <-m.ctx.Done():
		return playback.Session{}, ErrSessionNotRunning
	case <-ctx.Done():
		return playback.Session{}, ctx.Err()
	}
}

// loop applies commands and sink reports one at a time.
func (m *Manager) loop() {
	defer close(m.done)

	for {
		select {
		case <-m.ctx.Done():
			return
		case cmd := <-m.commands:
			m.handle(cmd)
		case cmd := <-m.reports:
			m.handle(cmd)
		}
	}
}

func (m *Manager) handle(cmd command) {
	defer func() {
		if r := recover(); r != nil {
			zlog.Error().Msgf("session command panicked: command=%s panic=%v", cmd.name, r)
			if cmd.result != nil {
				cmd.result <- commandResult{session: m.Snapshot(), err: errors.Newf("command %s panicked", cmd.name)}
			}
		}
	}()

	before := m.Snapshot()
	t, err := cmd.op(before)
	if err != nil {
		zlog.Info().Msgf("session command rejected: command=%s error=%v", cmd.name, err)
		if cmd.result != nil {
			cmd.result <- commandResult{session: before, err: err}
		}
		return
	}

	changed := t.Changed(before)
	if changed {
		m.mu.Lock()
		m.session = t.Session
		m.mu.Unlock()
	}

	m.applyIntents(t.Session, t.Intents)

	if changed {
		m.logTransition(cmd.name, before, t.Session)
		m.notification.Broadcast(&notification.Notification{
			Type:    notification.TypeChanged,
			Session: t.Session,
		})
	}

	if cmd.result != nil {
		cmd.result <- commandResult{session: t.Session}
	}
}

// applyIntents runs intents against the sink in order. Sink failures are logged
// and broadcast but do not undo the transition.
func (m *Manager) applyIntents(s playback.Session, intents []playback.Intent) {
	for _, in := range intents {
		if err := m.applyIntent(in); err != nil {
			zlog.Error().Msgf("sink rejected intent: intent=%s error=%v", in.Type, err)
			m.notification.Broadcast(&notification.Notification{
				Type:    notification.TypeSinkError,
				Session: s,
				Message: err.Error(),
			})
		}
	}
}

func (m *Manager) applyIntent(in playback.Intent) error {
	ctx := m.ctx
	switch in.Type {
	case playback.IntentLoad:
		if in.Track == nil {
			return errors.New("load intent without track")
		}
		return m.sink.Load(ctx, *in.Track, in.Autoplay)
	case playback.IntentPlay:
		return m.sink.Play(ctx)
	case playback.IntentPause:
		return m.sink.Pause(ctx)
	case playback.IntentSeek:
		return m.sink.Seek(ctx, in.Position)
	case playback.IntentSetVolume:
		return m.sink.SetVolume(ctx, in.Volume)
	case playback.IntentUnload:
		return m.sink.Unload(ctx)
	default:
		return errors.Newf("unknown intent: %s", in.Type)
	}
}

func (m *Manager) logTransition(name string, before, after playback.Session) {
	// Position reports arrive several times a second.
	if name == "time_update" {
		zlog.Debug().Msgf("position: %s", track.FormatClock(after.Position))
		return
	}

	if before.Current != after.Current || before.Playlist.Len() != after.Playlist.Len() {
		title := ""
		if t, ok := after.CurrentTrack(); ok {
			title = t.Title
		}
		zlog.Info().Msgf("session changed: command=%s current=%d tracks=%d title=%s playing=%t",
			name, after.Current, after.Playlist.Len(), title, after.Playing)
		if before.Playlist.Len() != after.Playlist.Len() {
			zlog.Debug().Msgf("playlist: ids=%s", strings.Join(after.Playlist.TrackIDs(), ","))
		}
		return
	}
	zlog.Info().Msgf("session changed: command=%s playing=%t repeat=%s shuffle=%t volume=%d version=%d",
		name, after.Playing, after.Repeat, after.Shuffle, after.Volume, after.Version)
}
