// Package main provides a CLI that follows the playback session.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	playerv1 "github.com/osa030/tunedeck/internal/api/playerv1"
	"github.com/osa030/tunedeck/internal/api/playerv1/playerv1connect"
	"github.com/osa030/tunedeck/internal/domain/track"
)

var (
	app     = kingpin.New("tunedeck-nowplaying", "tunedeck now-playing monitor")
	server  = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	verbose = app.Flag("verbose", "Print every notification, including position updates").Short('v').Bool()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	// Create client
	client := playerv1connect.NewListenerServiceClient(
		http.DefaultClient,
		*server,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := subscribe(ctx, client); err != nil {
		fmt.Printf("Stream error: %v\n", err)
		os.Exit(1)
	}
}

func subscribe(ctx context.Context, client *playerv1connect.ListenerServiceClient) error {
	stream, err := client.Subscribe(ctx, connect.NewRequest(&playerv1.SubscribeRequest{}))
	if err != nil {
		return err
	}
	defer stream.Close()

	fmt.Println("Subscribed to notifications. Press Ctrl+C to exit.")

	p := &printer{verbose: *verbose}
	for stream.Receive() {
		p.print(stream.Msg())
	}

	if err := stream.Err(); err != nil && ctx.Err() == nil {
		return err
	}
	fmt.Println("\nUnsubscribed")
	return nil
}

// printer prints notifications, collapsing position-only updates unless verbose.
type printer struct {
	verbose bool
	last    *playerv1.Snapshot
}

func (p *printer) print(n *playerv1.Notification) {
	defer func() { p.last = n.Snapshot }()

	switch n.Type {
	case playerv1.NotificationTypeInitialState:
		fmt.Printf("\n[Sequence: %d] === INITIAL STATE ===\n", n.SequenceNo)
	case playerv1.NotificationTypeSinkError:
		fmt.Printf("\n[Sequence: %d] === AUDIO ERROR ===\n  %s\n", n.SequenceNo, n.Message)
		return
	case playerv1.NotificationTypeChanged:
		if !p.verbose && onlyPositionChanged(p.last, n.Snapshot) {
			fmt.Printf("\r  %s / %s", clock(n.Snapshot.PositionMs), clock(n.Snapshot.DurationMs))
			return
		}
		fmt.Printf("\n[Sequence: %d] === STATE CHANGED ===\n", n.SequenceNo)
	default:
		fmt.Printf("\n[Sequence: %d] === UNKNOWN EVENT (%s) ===\n", n.SequenceNo, n.Type)
	}

	s := n.Snapshot
	if s == nil {
		return
	}
	if cur := s.CurrentTrack(); cur != nil {
		state := "Paused"
		if s.Playing {
			state = "Playing"
		}
		fmt.Printf("  %s: %s - %s (%d/%d)\n", state, cur.Artist, cur.Title, s.CurrentIndex+1, len(s.Tracks))
		fmt.Printf("  Album: %s\n", cur.Album)
	} else {
		fmt.Println("  No track loaded")
	}
	fmt.Printf("  Repeat: %s  Shuffle: %t  Volume: %d\n", s.Repeat, s.Shuffle, s.Volume)
	fmt.Printf("  %s / %s", clock(s.PositionMs), clock(s.DurationMs))
}

// onlyPositionChanged reports whether cur differs from prev in position or duration only.
func onlyPositionChanged(prev, cur *playerv1.Snapshot) bool {
	if prev == nil || cur == nil {
		return false
	}
	if prev.CurrentIndex != cur.CurrentIndex || prev.Playing != cur.Playing ||
		prev.Repeat != cur.Repeat || prev.Shuffle != cur.Shuffle ||
		prev.Volume != cur.Volume || len(prev.Tracks) != len(cur.Tracks) {
		return false
	}
	for i := range prev.Tracks {
		if prev.Tracks[i].ID != cur.Tracks[i].ID {
			return false
		}
	}
	return true
}

func clock(v int64) string {
	return track.FormatClock(time.Duration(v) * time.Millisecond)
}
