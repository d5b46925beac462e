// Package playerv1connect provides Connect handlers and clients for the tunedeck.v1 services.
package playerv1connect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	playerv1 "github.com/osa030/tunedeck/internal/api/playerv1"
)

const (
	// PlayerServiceName is the fully-qualified name of the PlayerService service.
	PlayerServiceName = "tunedeck.v1.PlayerService"
	// ListenerServiceName is the fully-qualified name of the ListenerService service.
	ListenerServiceName = "tunedeck.v1.ListenerService"
)

// Procedure paths.
const (
	PlayerServiceAppendProcedure          = "/tunedeck.v1.PlayerService/Append"
	PlayerServiceRemoveProcedure          = "/tunedeck.v1.PlayerService/Remove"
	PlayerServiceSelectTrackProcedure     = "/tunedeck.v1.PlayerService/SelectTrack"
	PlayerServiceTogglePlayPauseProcedure = "/tunedeck.v1.PlayerService/TogglePlayPause"
	PlayerServiceAdvanceProcedure         = "/tunedeck.v1.PlayerService/Advance"
	PlayerServiceCycleRepeatModeProcedure = "/tunedeck.v1.PlayerService/CycleRepeatMode"
	PlayerServiceSetShuffleProcedure      = "/tunedeck.v1.PlayerService/SetShuffle"
	PlayerServiceSetVolumeProcedure       = "/tunedeck.v1.PlayerService/SetVolume"
	PlayerServiceSeekProcedure            = "/tunedeck.v1.PlayerService/Seek"

	ListenerServiceGetStatusProcedure = "/tunedeck.v1.ListenerService/GetStatus"
	ListenerServiceSubscribeProcedure = "/tunedeck.v1.ListenerService/Subscribe"
)

// PlayerServiceHandler is implemented by the playback control service.
type PlayerServiceHandler interface {
	Append(context.Context, *connect.Request[playerv1.AppendRequest]) (*connect.Response[playerv1.AppendResponse], error)
	Remove(context.Context, *connect.Request[playerv1.RemoveRequest]) (*connect.Response[playerv1.ControlResponse], error)
	SelectTrack(context.Context, *connect.Request[playerv1.SelectTrackRequest]) (*connect.Response[playerv1.ControlResponse], error)
	TogglePlayPause(context.Context, *connect.Request[playerv1.TogglePlayPauseRequest]) (*connect.Response[playerv1.ControlResponse], error)
	Advance(context.Context, *connect.Request[playerv1.AdvanceRequest]) (*connect.Response[playerv1.ControlResponse], error)
	CycleRepeatMode(context.Context, *connect.Request[playerv1.CycleRepeatModeRequest]) (*connect.Response[playerv1.ControlResponse], error)
	SetShuffle(context.Context, *connect.Request[playerv1.SetShuffleRequest]) (*connect.Response[playerv1.ControlResponse], error)
	SetVolume(context.Context, *connect.Request[playerv1.SetVolumeRequest]) (*connect.Response[playerv1.ControlResponse], error)
	Seek(context.Context, *connect.Request[playerv1.SeekRequest]) (*connect.Response[playerv1.ControlResponse], error)
}

// NewPlayerServiceHandler builds an HTTP handler for svc. It returns the path to
// mount the handler on.
func NewPlayerServiceHandler(svc PlayerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(PlayerServiceAppendProcedure, connect.NewUnaryHandler(PlayerServiceAppendProcedure, svc.Append, opts...))
	mux.Handle(PlayerServiceRemoveProcedure, connect.NewUnaryHandler(PlayerServiceRemoveProcedure, svc.Remove, opts...))
	mux.Handle(PlayerServiceSelectTrackProcedure, connect.NewUnaryHandler(PlayerServiceSelectTrackProcedure, svc.SelectTrack, opts...))
	mux.Handle(PlayerServiceTogglePlayPauseProcedure, connect.NewUnaryHandler(PlayerServiceTogglePlayPauseProcedure, svc.TogglePlayPause, opts...))
	mux.Handle(PlayerServiceAdvanceProcedure, connect.NewUnaryHandler(PlayerServiceAdvanceProcedure, svc.Advance, opts...))
	mux.Handle(PlayerServiceCycleRepeatModeProcedure, connect.NewUnaryHandler(PlayerServiceCycleRepeatModeProcedure, svc.CycleRepeatMode, opts...))
	mux.Handle(PlayerServiceSetShuffleProcedure, connect.NewUnaryHandler(PlayerServiceSetShuffleProcedure, svc.SetShuffle, opts...))
	mux.Handle(PlayerServiceSetVolumeProcedure, connect.NewUnaryHandler(PlayerServiceSetVolumeProcedure, svc.SetVolume, opts...))
	mux.Handle(PlayerServiceSeekProcedure, connect.NewUnaryHandler(PlayerServiceSeekProcedure, svc.Seek, opts...))
	return "/" + PlayerServiceName + "/", mux
}

// PlayerServiceClient is a client for the playback control service.
type PlayerServiceClient struct {
	append          *connect.Client[playerv1.AppendRequest, playerv1.AppendResponse]
	remove          *connect.Client[playerv1.RemoveRequest, playerv1.ControlResponse]
	selectTrack     *connect.Client[playerv1.SelectTrackRequest, playerv1.ControlResponse]
	togglePlayPause *connect.Client[playerv1.TogglePlayPauseRequest, playerv1.ControlResponse]
	advance         *connect.Client[playerv1.AdvanceRequest, playerv1.ControlResponse]
	cycleRepeatMode *connect.Client[playerv1.CycleRepeatModeRequest, playerv1.ControlResponse]
	setShuffle      *connect.Client[playerv1.SetShuffleRequest, playerv1.ControlResponse]
	setVolume       *connect.Client[playerv1.SetVolumeRequest, playerv1.ControlResponse]
	seek            *connect.Client[playerv1.SeekRequest, playerv1.ControlResponse]
}

// NewPlayerServiceClient creates a client for the service at baseURL.
func NewPlayerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *PlayerServiceClient {
	opts = clientOptions(opts)
	return &PlayerServiceClient{
		append:          connect.NewClient[playerv1.AppendRequest, playerv1.AppendResponse](httpClient, baseURL+PlayerServiceAppendProcedure, opts...),
		remove:          connect.NewClient[playerv1.RemoveRequest, playerv1.ControlResponse](httpClient, baseURL+PlayerServiceRemoveProcedure, opts...),
		selectTrack:     connect.NewClient[playerv1.SelectTrackRequest, playerv1.ControlResponse](httpClient, baseURL+PlayerServiceSelectTrackProcedure, opts...),
		togglePlayPause: connect.NewClient[playerv1.TogglePlayPauseRequest, playerv1.ControlResponse](httpClient, baseURL+PlayerServiceTogglePlayPauseProcedure, opts...),
		advance:         connect.NewClient[playerv1.AdvanceRequest, playerv1.ControlResponse](httpClient, baseURL+PlayerServiceAdvanceProcedure, opts...),
		cycleRepeatMode: connect.NewClient[playerv1.CycleRepeatModeRequest, playerv1.ControlResponse](httpClient, baseURL+PlayerServiceCycleRepeatModeProcedure, opts...),
		setShuffle:      connect.NewClient[playerv1.SetShuffleRequest, playerv1.ControlResponse](httpClient, baseURL+PlayerServiceSetShuffleProcedure, opts...),
		setVolume:       connect.NewClient[playerv1.SetVolumeRequest, playerv1.ControlResponse](httpClient, baseURL+PlayerServiceSetVolumeProcedure, opts...),
		seek:            connect.NewClient[playerv1.SeekRequest, playerv1.ControlResponse](httpClient, baseURL+PlayerServiceSeekProcedure, opts...),
	}
}

func (c *PlayerServiceClient) Append(ctx context.Context, req *connect.Request[playerv1.AppendRequest]) (*connect.Response[playerv1.AppendResponse], error) {
	return c.append.CallUnary(ctx, req)
}

func (c *PlayerServiceClient) Remove(ctx context.Context, req *connect.Request[playerv1.RemoveRequest]) (*connect.Response[playerv1.ControlResponse], error) {
	return c.remove.CallUnary(ctx, req)
}

func (c *PlayerServiceClient) SelectTrack(ctx context.Context, req *connect.Request[playerv1.SelectTrackRequest]) (*connect.Response[playerv1.ControlResponse], error) {
	return c.selectTrack.CallUnary(ctx, req)
}

func (c *PlayerServiceClient) TogglePlayPause(ctx context.Context, req *connect.Request[playerv1.TogglePlayPauseRequest]) (*connect.Response[playerv1.ControlResponse], error) {
	return c.togglePlayPause.CallUnary(ctx, req)
}

func (c *PlayerServiceClient) Advance(ctx context.Context, req *connect.Request[playerv1.AdvanceRequest]) (*connect.Response[playerv1.ControlResponse], error) {
	return c.advance.CallUnary(ctx, req)
}

func (c *PlayerServiceClient) CycleRepeatMode(ctx context.Context, req *connect.Request[playerv1.CycleRepeatModeRequest]) (*connect.Response[playerv1.ControlResponse], error) {
	return c.cycleRepeatMode.CallUnary(ctx, req)
}

func (c *PlayerServiceClient) SetShuffle(ctx context.Context, req *connect.Request[playerv1.SetShuffleRequest]) (*connect.Response[playerv1.ControlResponse], error) {
	return c.setShuffle.CallUnary(ctx, req)
}

func (c *PlayerServiceClient) SetVolume(ctx context.Context, req *connect.Request[playerv1.SetVolumeRequest]) (*connect.Response[playerv1.ControlResponse], error) {
	return c.setVolume.CallUnary(ctx, req)
}

func (c *PlayerServiceClient) Seek(ctx context.Context, req *connect.Request[playerv1.SeekRequest]) (*connect.Response[playerv1.ControlResponse], error) {
	return c.seek.CallUnary(ctx, req)
}

// ListenerServiceHandler is implemented by the read-only status service.
type ListenerServiceHandler interface {
	GetStatus(context.Context, *connect.Request[playerv1.GetStatusRequest]) (*connect.Response[playerv1.GetStatusResponse], error)
	Subscribe(context.Context, *connect.Request[playerv1.SubscribeRequest], *connect.ServerStream[playerv1.Notification]) error
}

// NewListenerServiceHandler builds an HTTP handler for svc. It returns the path to
// mount the handler on.
func NewListenerServiceHandler(svc ListenerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(ListenerServiceGetStatusProcedure, connect.NewUnaryHandler(ListenerServiceGetStatusProcedure, svc.GetStatus, opts...))
	mux.Handle(ListenerServiceSubscribeProcedure, connect.NewServerStreamHandler(ListenerServiceSubscribeProcedure, svc.Subscribe, opts...))
	return "/" + ListenerServiceName + "/", mux
}

// ListenerServiceClient is a client for the status service.
type ListenerServiceClient struct {
	getStatus *connect.Client[playerv1.GetStatusRequest, playerv1.GetStatusResponse]
	subscribe *connect.Client[playerv1.SubscribeRequest, playerv1.Notification]
}

// NewListenerServiceClient creates a client for the service at baseURL.
func NewListenerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *ListenerServiceClient {
	opts = clientOptions(opts)
	return &ListenerServiceClient{
		getStatus: connect.NewClient[playerv1.GetStatusRequest, playerv1.GetStatusResponse](httpClient, baseURL+ListenerServiceGetStatusProcedure, opts...),
		subscribe: connect.NewClient[playerv1.SubscribeRequest, playerv1.Notification](httpClient, baseURL+ListenerServiceSubscribeProcedure, opts...),
	}
}

func (c *ListenerServiceClient) GetStatus(ctx context.Context, req *connect.Request[playerv1.GetStatusRequest]) (*connect.Response[playerv1.GetStatusResponse], error) {
	return c.getStatus.CallUnary(ctx, req)
}

func (c *ListenerServiceClient) Subscribe(ctx context.Context, req *connect.Request[playerv1.SubscribeRequest]) (*connect.ServerStreamForClient[playerv1.Notification], error) {
	return c.subscribe.CallServerStream(ctx, req)
}
