package connect

import (
	"context"
	"time"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"

	playerv1 "github.com/osa030/tunedeck/internal/api/playerv1"
	"github.com/osa030/tunedeck/internal/app/notification"
	"github.com/osa030/tunedeck/internal/app/playback"
	"github.com/osa030/tunedeck/internal/app/session"
	"github.com/osa030/tunedeck/internal/app/upload"
	"github.com/osa030/tunedeck/internal/domain/track"
)

func toTrack(t track.Track) *playerv1.Track {
	return &playerv1.Track{
		ID:         t.ID,
		Title:      t.Title,
		Artist:     t.Artist,
		Album:      t.Album,
		DurationMs: t.Duration.Milliseconds(),
		Source:     t.Source,
		AddedAt:    t.AddedAt.Format(time.RFC3339),
	}
}

func toTracks(tracks []track.Track) []*playerv1.Track {
	return lo.Map(tracks, func(t track.Track, _ int) *playerv1.Track {
		return toTrack(t)
	})
}

func toSnapshot(s playback.Session) *playerv1.Snapshot {
	return &playerv1.Snapshot{
		Version:         s.Version,
		Tracks:          toTracks(s.Playlist.Tracks()),
		CurrentIndex:    int32(s.Current),
		Playing:         s.Playing,
		Repeat:          s.Repeat.String(),
		Shuffle:         s.Shuffle,
		Volume:          int32(s.Volume),
		PositionMs:      s.Position.Milliseconds(),
		DurationMs:      s.Duration.Milliseconds(),
		TotalDurationMs: s.Playlist.TotalDuration().Milliseconds(),
	}
}

func toRejections(rejected []upload.Rejection) []*playerv1.Rejection {
	return lo.Map(rejected, func(r upload.Rejection, _ int) *playerv1.Rejection {
		return &playerv1.Rejection{Path: r.Path, Code: r.Code}
	})
}

func toNotification(n *notification.Notification) *playerv1.Notification {
	return &playerv1.Notification{
		Type:       n.Type.String(),
		SequenceNo: n.SequenceNo,
		Snapshot:   toSnapshot(n.Session),
		Message:    n.Message,
	}
}

// toConnectError maps session errors to RPC codes.
func toConnectError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, playback.ErrOutOfRange):
		return connect.NewError(connect.CodeOutOfRange, err)
	case errors.Is(err, session.ErrSessionNotRunning):
		return connect.NewError(connect.CodeUnavailable, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

func invalidArgument(err error) error {
	return connect.NewError(connect.CodeInvalidArgument, err)
}
