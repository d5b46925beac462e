package connect

import (
	"context"
	"sync"
	"time"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"

	playerv1 "github.com/osa030/tunedeck/internal/api/playerv1"
	"github.com/osa030/tunedeck/internal/api/playerv1/playerv1connect"
	"github.com/osa030/tunedeck/internal/app/notification"
	"github.com/osa030/tunedeck/internal/app/session"
)

// ListenerService implements the ListenerService RPC.
type ListenerService struct {
	session *session.Manager
}

// NewListenerService creates a new ListenerService.
func NewListenerService(session *session.Manager) *ListenerService {
	return &ListenerService{
		session: session,
	}
}

// Ensure ListenerService implements the interface.
var _ playerv1connect.ListenerServiceHandler = (*ListenerService)(nil)

// GetStatus returns the current session status.
func (s *ListenerService) GetStatus(
	ctx context.Context,
	req *connect.Request[playerv1.GetStatusRequest],
) (*connect.Response[playerv1.GetStatusResponse], error) {
	status := s.session.GetStatus()

	resp := &playerv1.GetStatusResponse{
		SessionID:     status.SessionID,
		Phase:         status.Phase.String(),
		UptimeSeconds: int64(status.Uptime / time.Second),
		Subscribers:   int32(status.Subscribers),
		Snapshot:      toSnapshot(status.Session),
	}
	if !status.StartedAt.IsZero() {
		resp.StartedAt = status.StartedAt.Format(time.RFC3339)
	}

	return connect.NewResponse(resp), nil
}

// Subscribe streams the current state followed by every change.
func (s *ListenerService) Subscribe(
	ctx context.Context,
	req *connect.Request[playerv1.SubscribeRequest],
	stream *connect.ServerStream[playerv1.Notification],
) error {
	notifManager := s.session.GetNotificationManager()

	// Subscribe before taking the snapshot so no change falls between them.
	// Changes at or below the initial version are dropped by the adapter.
	adapter := &notificationStreamAdapter{stream: stream}
	adapter.mu.Lock()
	subscriptionID := notifManager.Subscribe(adapter)
	// The stream must not be written once the handler returns.
	defer func() {
		notifManager.Unsubscribe(subscriptionID)
		adapter.close()
	}()

	initial := &notification.Notification{
		Type:       notification.TypeInitialState,
		SequenceNo: notifManager.NextSequenceNo(),
		Session:    s.session.Snapshot(),
	}
	adapter.minVersion = initial.Session.Version
	err := stream.Send(toNotification(initial))
	adapter.mu.Unlock()
	if err != nil {
		return err
	}

	// Wait for context cancellation or session end
	select {
	case <-ctx.Done():
	case <-s.session.Done():
	}

	return nil
}

var errStreamClosed = errors.New("subscription stream closed")

// notificationStreamAdapter adapts connect.ServerStream to notification.Stream.
// It serializes sends and skips changes the subscriber has already seen.
type notificationStreamAdapter struct {
	mu         sync.Mutex
	stream     *connect.ServerStream[playerv1.Notification]
	minVersion uint64
	closed     bool
}

func (a *notificationStreamAdapter) Send(n *notification.Notification) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return errStreamClosed
	}

	if n.Type == notification.TypeChanged {
		if n.Session.Version <= a.minVersion {
			return nil
		}
		a.minVersion = n.Session.Version
	}
	return a.stream.Send(toNotification(n))
}

// close waits for an in-flight send and rejects later ones.
func (a *notificationStreamAdapter) close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
}
