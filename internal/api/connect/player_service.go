package connect

import (
	"context"
	"time"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	playerv1 "github.com/osa030/tunedeck/internal/api/playerv1"
	"github.com/osa030/tunedeck/internal/api/playerv1/playerv1connect"
	"github.com/osa030/tunedeck/internal/app/filter"
	"github.com/osa030/tunedeck/internal/app/playback"
	"github.com/osa030/tunedeck/internal/app/session"
	"github.com/osa030/tunedeck/internal/app/upload"
)

// PlayerService implements the PlayerService RPC.
type PlayerService struct {
	session  *session.Manager
	importer *upload.Importer
}

// NewPlayerService creates a new PlayerService.
func NewPlayerService(session *session.Manager, importer *upload.Importer) *PlayerService {
	return &PlayerService{
		session:  session,
		importer: importer,
	}
}

// Ensure PlayerService implements the interface.
var _ playerv1connect.PlayerServiceHandler = (*PlayerService)(nil)

// Append imports files and appends the accepted ones to the playlist.
func (s *PlayerService) Append(
	ctx context.Context,
	req *connect.Request[playerv1.AppendRequest],
) (*connect.Response[playerv1.AppendResponse], error) {
	if len(req.Msg.Paths) == 0 {
		return nil, invalidArgument(errors.New("no paths given"))
	}

	report, err := s.importer.Import(ctx, req.Msg.Paths, filter.OriginRequest)
	if err != nil {
		return nil, toConnectError(err)
	}
	zlog.Debug().Msgf("append request handled: paths=%d accepted=%d rejected=%d",
		len(req.Msg.Paths), len(report.Accepted), len(report.Rejected))

	return connect.NewResponse(&playerv1.AppendResponse{
		Accepted: toTracks(report.Accepted),
		Rejected: toRejections(report.Rejected),
		Snapshot: toSnapshot(s.session.Snapshot()),
	}), nil
}

// Remove deletes a track from the playlist.
func (s *PlayerService) Remove(
	ctx context.Context,
	req *connect.Request[playerv1.RemoveRequest],
) (*connect.Response[playerv1.ControlResponse], error) {
	return controlResponse(s.session.Remove(ctx, int(req.Msg.Index)))
}

// SelectTrack jumps to a track.
func (s *PlayerService) SelectTrack(
	ctx context.Context,
	req *connect.Request[playerv1.SelectTrackRequest],
) (*connect.Response[playerv1.ControlResponse], error) {
	return controlResponse(s.session.SelectTrack(ctx, int(req.Msg.Index)))
}

// TogglePlayPause flips between playing and paused.
func (s *PlayerService) TogglePlayPause(
	ctx context.Context,
	req *connect.Request[playerv1.TogglePlayPauseRequest],
) (*connect.Response[playerv1.ControlResponse], error) {
	return controlResponse(s.session.TogglePlayPause(ctx))
}

// Advance moves to the next or previous track.
func (s *PlayerService) Advance(
	ctx context.Context,
	req *connect.Request[playerv1.AdvanceRequest],
) (*connect.Response[playerv1.ControlResponse], error) {
	d, err := playback.ParseDirection(req.Msg.Direction)
	if err != nil {
		return nil, invalidArgument(err)
	}
	return controlResponse(s.session.Advance(ctx, d))
}

// CycleRepeatMode rotates none -> all -> one.
func (s *PlayerService) CycleRepeatMode(
	ctx context.Context,
	req *connect.Request[playerv1.CycleRepeatModeRequest],
) (*connect.Response[playerv1.ControlResponse], error) {
	return controlResponse(s.session.CycleRepeatMode(ctx))
}

// SetShuffle turns shuffle on or off.
func (s *PlayerService) SetShuffle(
	ctx context.Context,
	req *connect.Request[playerv1.SetShuffleRequest],
) (*connect.Response[playerv1.ControlResponse], error) {
	return controlResponse(s.session.SetShuffle(ctx, req.Msg.Enabled))
}

// SetVolume sets the volume. Out of range levels are clamped.
func (s *PlayerService) SetVolume(
	ctx context.Context,
	req *connect.Request[playerv1.SetVolumeRequest],
) (*connect.Response[playerv1.ControlResponse], error) {
	return controlResponse(s.session.SetVolume(ctx, int(req.Msg.Level)))
}

// Seek moves within the current track, by absolute position or by percentage.
func (s *PlayerService) Seek(
	ctx context.Context,
	req *connect.Request[playerv1.SeekRequest],
) (*connect.Response[playerv1.ControlResponse], error) {
	switch {
	case req.Msg.PositionMs != nil && req.Msg.Percent != nil:
		return nil, invalidArgument(errors.New("position_ms and percent are mutually exclusive"))
	case req.Msg.PositionMs != nil:
		return controlResponse(s.session.Seek(ctx, time.Duration(*req.Msg.PositionMs)*time.Millisecond))
	case req.Msg.Percent != nil:
		return controlResponse(s.session.SeekPercent(ctx, *req.Msg.Percent))
	default:
		return nil, invalidArgument(errors.New("one of position_ms or percent is required"))
	}
}

func controlResponse(sess playback.Session, err error) (*connect.Response[playerv1.ControlResponse], error) {
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&playerv1.ControlResponse{
		Snapshot: toSnapshot(sess),
	}), nil
}
