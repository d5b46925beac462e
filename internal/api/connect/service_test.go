package connect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	playerv1 "github.com/osa030/tunedeck/internal/api/playerv1"
	"github.com/osa030/tunedeck/internal/api/playerv1/playerv1connect"
	"github.com/osa030/tunedeck/internal/app/filter"
	"github.com/osa030/tunedeck/internal/app/notification"
	"github.com/osa030/tunedeck/internal/app/playback"
	"github.com/osa030/tunedeck/internal/app/session"
	"github.com/osa030/tunedeck/internal/app/upload"
	"github.com/osa030/tunedeck/internal/domain/playlist"
	"github.com/osa030/tunedeck/internal/domain/track"
	"github.com/osa030/tunedeck/internal/infra/audio"
	"github.com/osa030/tunedeck/internal/infra/config"
)

var wavHeader = []byte("RIFF\x24\x00\x00\x00WAVEfmt \x10\x00\x00\x00\x01\x00\x02\x00\x44\xac\x00\x00\x10\xb1\x02\x00\x04\x00\x10\x00data\x00\x00\x00\x00")

type testServer struct {
	player   *playerv1connect.PlayerServiceClient
	listener *playerv1connect.ListenerServiceClient
	session  *session.Manager
	dir      string
}

func newTestServer(t *testing.T, token string) *testServer {
	t.Helper()

	volume := 50
	cfg := &config.Config{
		Server:   config.ServerConfig{Addr: ":0", ControlToken: token},
		Playback: config.PlaybackConfig{InitialVolume: &volume, Repeat: "none", TimeUpdateMs: 250},
		Sink:     config.SinkConfig{Type: "null"},
	}

	sink := audio.NewNullSink(time.Hour)
	t.Cleanup(func() { sink.Close() })

	mgr, err := session.NewManager(cfg, sink, nil)
	require.NoError(t, err)
	require.NoError(t, mgr.Start(context.Background()))
	t.Cleanup(mgr.Close)

	chain := filter.NewChain()
	chain.Add(filter.NewAudioTypeFilter())
	importer := upload.NewImporter(chain, mgr)

	mux := http.NewServeMux()
	mux.Handle(playerv1connect.NewPlayerServiceHandler(
		NewPlayerService(mgr, importer),
		connect.WithInterceptors(NewControlAuthInterceptor(cfg)),
	))
	mux.Handle(playerv1connect.NewListenerServiceHandler(NewListenerService(mgr)))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &testServer{
		player:   playerv1connect.NewPlayerServiceClient(srv.Client(), srv.URL),
		listener: playerv1connect.NewListenerServiceClient(srv.Client(), srv.URL),
		session:  mgr,
		dir:      t.TempDir(),
	}
}

func (ts *testServer) write(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(ts.dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func connectCode(t *testing.T, err error) connect.Code {
	t.Helper()
	require.Error(t, err)
	return connect.CodeOf(err)
}

func TestPlayerService_Append(t *testing.T) {
	ts := newTestServer(t, "")
	ctx := context.Background()

	song := ts.write(t, "Song.wav", wavHeader)
	notes := ts.write(t, "notes.txt", []byte("not audio"))

	resp, err := ts.player.Append(ctx, connect.NewRequest(&playerv1.AppendRequest{Paths: []string{song, notes}}))
	require.NoError(t, err)

	require.Len(t, resp.Msg.Accepted, 1)
	assert.Equal(t, "Song", resp.Msg.Accepted[0].Title)
	assert.Equal(t, []*playerv1.Rejection{{Path: notes, Code: "not_audio"}}, resp.Msg.Rejected)

	snap := resp.Msg.Snapshot
	require.Len(t, snap.Tracks, 1)
	assert.Equal(t, int32(0), snap.CurrentIndex)
	assert.Equal(t, "Song", snap.CurrentTrack().Title)
	assert.Equal(t, int32(50), snap.Volume)
	assert.Equal(t, "none", snap.Repeat)

	_, err = ts.player.Append(ctx, connect.NewRequest(&playerv1.AppendRequest{}))
	assert.Equal(t, connect.CodeInvalidArgument, connectCode(t, err))
}

func TestPlayerService_Controls(t *testing.T) {
	ts := newTestServer(t, "")
	ctx := context.Background()

	paths := []string{ts.write(t, "a.wav", wavHeader), ts.write(t, "b.wav", wavHeader)}
	_, err := ts.player.Append(ctx, connect.NewRequest(&playerv1.AppendRequest{Paths: paths}))
	require.NoError(t, err)

	resp, err := ts.player.TogglePlayPause(ctx, connect.NewRequest(&playerv1.TogglePlayPauseRequest{}))
	require.NoError(t, err)
	assert.True(t, resp.Msg.Snapshot.Playing)

	resp, err = ts.player.Advance(ctx, connect.NewRequest(&playerv1.AdvanceRequest{Direction: "forward"}))
	require.NoError(t, err)
	assert.Equal(t, int32(1), resp.Msg.Snapshot.CurrentIndex)

	resp, err = ts.player.SelectTrack(ctx, connect.NewRequest(&playerv1.SelectTrackRequest{Index: 0}))
	require.NoError(t, err)
	assert.Equal(t, "a", resp.Msg.Snapshot.CurrentTrack().Title)

	resp, err = ts.player.CycleRepeatMode(ctx, connect.NewRequest(&playerv1.CycleRepeatModeRequest{}))
	require.NoError(t, err)
	assert.Equal(t, "all", resp.Msg.Snapshot.Repeat)

	resp, err = ts.player.SetShuffle(ctx, connect.NewRequest(&playerv1.SetShuffleRequest{Enabled: true}))
	require.NoError(t, err)
	assert.True(t, resp.Msg.Snapshot.Shuffle)

	resp, err = ts.player.SetVolume(ctx, connect.NewRequest(&playerv1.SetVolumeRequest{Level: 150}))
	require.NoError(t, err)
	assert.Equal(t, int32(100), resp.Msg.Snapshot.Volume)

	pos := int64(1500)
	resp, err = ts.player.Seek(ctx, connect.NewRequest(&playerv1.SeekRequest{PositionMs: &pos}))
	require.NoError(t, err)
	assert.Equal(t, int64(1500), resp.Msg.Snapshot.PositionMs)

	resp, err = ts.player.Remove(ctx, connect.NewRequest(&playerv1.RemoveRequest{Index: 1}))
	require.NoError(t, err)
	assert.Len(t, resp.Msg.Snapshot.Tracks, 1)
}

func TestPlayerService_Errors(t *testing.T) {
	ts := newTestServer(t, "")
	ctx := context.Background()
	percent := 50.0
	pos := int64(10)

	tests := []struct {
		name string
		call func() error
		want connect.Code
	}{
		{
			name: "select out of range",
			call: func() error {
				_, err := ts.player.SelectTrack(ctx, connect.NewRequest(&playerv1.SelectTrackRequest{Index: 3}))
				return err
			},
			want: connect.CodeOutOfRange,
		},
		{
			name: "remove out of range",
			call: func() error {
				_, err := ts.player.Remove(ctx, connect.NewRequest(&playerv1.RemoveRequest{Index: -1}))
				return err
			},
			want: connect.CodeOutOfRange,
		},
		{
			name: "unknown direction",
			call: func() error {
				_, err := ts.player.Advance(ctx, connect.NewRequest(&playerv1.AdvanceRequest{Direction: "sideways"}))
				return err
			},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "seek without target",
			call: func() error {
				_, err := ts.player.Seek(ctx, connect.NewRequest(&playerv1.SeekRequest{}))
				return err
			},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "seek with both targets",
			call: func() error {
				_, err := ts.player.Seek(ctx, connect.NewRequest(&playerv1.SeekRequest{PositionMs: &pos, Percent: &percent}))
				return err
			},
			want: connect.CodeInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, connectCode(t, tt.call()))
		})
	}
}

func TestPlayerService_SessionStopped(t *testing.T) {
	ts := newTestServer(t, "")
	ts.session.Close()

	_, err := ts.player.TogglePlayPause(context.Background(), connect.NewRequest(&playerv1.TogglePlayPauseRequest{}))
	assert.Equal(t, connect.CodeUnavailable, connectCode(t, err))
}

func TestControlAuthInterceptor(t *testing.T) {
	ts := newTestServer(t, "secret")
	ctx := context.Background()

	tests := []struct {
		name  string
		token string
		want  connect.Code
	}{
		{name: "missing", token: "", want: connect.CodeUnauthenticated},
		{name: "wrong", token: "guess", want: connect.CodeUnauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := connect.NewRequest(&playerv1.CycleRepeatModeRequest{})
			if tt.token != "" {
				req.Header().Set(ControlTokenHeader, tt.token)
			}
			_, err := ts.player.CycleRepeatMode(ctx, req)
			assert.Equal(t, tt.want, connectCode(t, err))
		})
	}

	req := connect.NewRequest(&playerv1.CycleRepeatModeRequest{})
	req.Header().Set(ControlTokenHeader, "secret")
	resp, err := ts.player.CycleRepeatMode(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "all", resp.Msg.Snapshot.Repeat)

	// The listener service stays open.
	_, err = ts.listener.GetStatus(ctx, connect.NewRequest(&playerv1.GetStatusRequest{}))
	assert.NoError(t, err)
}

func TestListenerService_GetStatus(t *testing.T) {
	ts := newTestServer(t, "")

	resp, err := ts.listener.GetStatus(context.Background(), connect.NewRequest(&playerv1.GetStatusRequest{}))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Msg.SessionID)
	assert.Equal(t, "running", resp.Msg.Phase)
	assert.NotEmpty(t, resp.Msg.StartedAt)
	assert.Equal(t, int32(-1), resp.Msg.Snapshot.CurrentIndex)
	assert.Nil(t, resp.Msg.Snapshot.CurrentTrack())
}

func TestListenerService_Subscribe(t *testing.T) {
	ts := newTestServer(t, "")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := ts.listener.Subscribe(ctx, connect.NewRequest(&playerv1.SubscribeRequest{}))
	require.NoError(t, err)
	defer stream.Close()

	require.True(t, stream.Receive(), "initial state: %v", stream.Err())
	initial := stream.Msg()
	assert.Equal(t, playerv1.NotificationTypeInitialState, initial.Type)
	assert.Equal(t, int32(50), initial.Snapshot.Volume)

	require.Eventually(t, func() bool {
		return ts.session.GetNotificationManager().SubscriberCount() == 1
	}, time.Second, 10*time.Millisecond)

	_, err = ts.player.SetVolume(ctx, connect.NewRequest(&playerv1.SetVolumeRequest{Level: 20}))
	require.NoError(t, err)

	require.True(t, stream.Receive(), "change: %v", stream.Err())
	changed := stream.Msg()
	assert.Equal(t, playerv1.NotificationTypeChanged, changed.Type)
	assert.Equal(t, int32(20), changed.Snapshot.Volume)
	assert.Greater(t, changed.SequenceNo, initial.SequenceNo)
	assert.Greater(t, changed.Snapshot.Version, initial.Snapshot.Version)
}

func TestListenerService_SubscriberLeaves(t *testing.T) {
	ts := newTestServer(t, "")
	ctx, cancel := context.WithCancel(context.Background())

	stream, err := ts.listener.Subscribe(ctx, connect.NewRequest(&playerv1.SubscribeRequest{}))
	require.NoError(t, err)
	require.True(t, stream.Receive())

	notifications := ts.session.GetNotificationManager()
	require.Eventually(t, func() bool {
		return notifications.SubscriberCount() == 1
	}, time.Second, 10*time.Millisecond)

	// Keep changes flowing while the client goes away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for level := int32(0); level < 20; level++ {
			_, _ = ts.player.SetVolume(context.Background(), connect.NewRequest(&playerv1.SetVolumeRequest{Level: level}))
		}
	}()
	cancel()
	stream.Close()
	<-done

	require.Eventually(t, func() bool {
		return notifications.SubscriberCount() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestNotificationStreamAdapter_RejectsSendAfterClose(t *testing.T) {
	adapter := &notificationStreamAdapter{}
	adapter.close()

	err := adapter.Send(&notification.Notification{Type: notification.TypeChanged})
	assert.ErrorIs(t, err, errStreamClosed)
}

func TestToSnapshot_TotalDuration(t *testing.T) {
	s := playback.Session{
		Playlist: playlist.New(
			track.New("/music/a.mp3").WithDuration(90*time.Second),
			track.New("/music/b.mp3"),
			track.New("/music/c.mp3").WithDuration(150*time.Second),
		),
		Current: 0,
	}

	snap := toSnapshot(s)
	assert.Equal(t, int64(240000), snap.TotalDurationMs, "unknown durations count as zero")
	assert.Len(t, snap.Tracks, 3)
}
