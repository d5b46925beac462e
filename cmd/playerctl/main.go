// Package main provides the playback control CLI entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	apiconnect "github.com/osa030/tunedeck/internal/api/connect"
	playerv1 "github.com/osa030/tunedeck/internal/api/playerv1"
	"github.com/osa030/tunedeck/internal/api/playerv1/playerv1connect"
)

var (
	app    = kingpin.New("tunedeck-playerctl", "tunedeck playback control client")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	token  = app.Flag("token", "Control token (or set TUNEDECK_CONTROL_TOKEN env)").Envar("TUNEDECK_CONTROL_TOKEN").String()

	// status command
	statusCmd = app.Command("status", "Show the playlist and playback state").Default()

	// add command
	addCmd   = app.Command("add", "Append audio files to the playlist")
	addPaths = addCmd.Arg("paths", "Files to append").Required().ExistingFiles()

	// remove command
	removeCmd   = app.Command("remove", "Remove a track").Alias("rm")
	removeIndex = removeCmd.Arg("position", "Playlist position (1-based)").Required().Int()

	// select command
	selectCmd   = app.Command("select", "Jump to a track")
	selectIndex = selectCmd.Arg("position", "Playlist position (1-based)").Required().Int()

	// toggle command
	toggleCmd = app.Command("toggle", "Toggle play/pause")

	// next / prev commands
	nextCmd = app.Command("next", "Skip to the next track")
	prevCmd = app.Command("prev", "Go back to the previous track")

	// repeat command
	repeatCmd = app.Command("repeat", "Cycle the repeat mode (none, all, one)")

	// shuffle command
	shuffleCmd   = app.Command("shuffle", "Turn shuffle on or off")
	shuffleState = shuffleCmd.Arg("state", "on or off").Required().Enum("on", "off")

	// volume command
	volumeCmd   = app.Command("volume", "Set the volume")
	volumeLevel = volumeCmd.Arg("level", "Volume 0-100").Required().Int()

	// seek command
	seekCmd    = app.Command("seek", "Seek within the current track")
	seekTarget = seekCmd.Arg("target", "Position as MM:SS, seconds, or a percentage like 50%").Required().String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	ctx := context.Background()

	if command == statusCmd.FullCommand() {
		client := playerv1connect.NewListenerServiceClient(http.DefaultClient, *server)
		status(ctx, client)
		return
	}

	// Create client
	client := playerv1connect.NewPlayerServiceClient(http.DefaultClient, *server)

	// Execute command
	switch command {
	case addCmd.FullCommand():
		add(ctx, client, *addPaths)
	case removeCmd.FullCommand():
		control(client.Remove(ctx, withToken(&playerv1.RemoveRequest{Index: toIndex(*removeIndex)})))
	case selectCmd.FullCommand():
		control(client.SelectTrack(ctx, withToken(&playerv1.SelectTrackRequest{Index: toIndex(*selectIndex)})))
	case toggleCmd.FullCommand():
		control(client.TogglePlayPause(ctx, withToken(&playerv1.TogglePlayPauseRequest{})))
	case nextCmd.FullCommand():
		control(client.Advance(ctx, withToken(&playerv1.AdvanceRequest{Direction: "forward"})))
	case prevCmd.FullCommand():
		control(client.Advance(ctx, withToken(&playerv1.AdvanceRequest{Direction: "backward"})))
	case repeatCmd.FullCommand():
		control(client.CycleRepeatMode(ctx, withToken(&playerv1.CycleRepeatModeRequest{})))
	case shuffleCmd.FullCommand():
		control(client.SetShuffle(ctx, withToken(&playerv1.SetShuffleRequest{Enabled: *shuffleState == "on"})))
	case volumeCmd.FullCommand():
		control(client.SetVolume(ctx, withToken(&playerv1.SetVolumeRequest{Level: int32(*volumeLevel)})))
	case seekCmd.FullCommand():
		req, err := parseSeek(*seekTarget)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		control(client.Seek(ctx, withToken(req)))
	}
}

// withToken wraps msg in a request carrying the control token.
func withToken[T any](msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	if *token != "" {
		req.Header().Set(apiconnect.ControlTokenHeader, *token)
	}
	return req
}

func toIndex(position int) int32 {
	return int32(position - 1)
}

func status(ctx context.Context, client *playerv1connect.ListenerServiceClient) {
	resp, err := client.GetStatus(ctx, connect.NewRequest(&playerv1.GetStatusRequest{}))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	s := resp.Msg
	fmt.Println("\n=== CURRENT SESSION STATUS ===")
	fmt.Printf("Session ID: %s\n", s.SessionID)
	fmt.Printf("Phase: %s\n", s.Phase)
	fmt.Printf("Uptime: %s\n", formatUptime(s.UptimeSeconds))
	fmt.Printf("Subscribers: %d\n\n", s.Subscribers)

	printSnapshot(s.Snapshot)
}

func add(ctx context.Context, client *playerv1connect.PlayerServiceClient, paths []string) {
	abs := make([]string, 0, len(paths))
	for _, p := range paths {
		a, err := filepath.Abs(p)
		if err != nil {
			a = p
		}
		abs = append(abs, a)
	}

	resp, err := client.Append(ctx, withToken(&playerv1.AppendRequest{Paths: abs}))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	for _, t := range resp.Msg.Accepted {
		fmt.Printf("Added: %s\n", t.Title)
	}
	for _, r := range resp.Msg.Rejected {
		fmt.Printf("Rejected [%s]: %s\n", r.Code, r.Path)
	}
	if len(resp.Msg.Rejected) > 0 && len(resp.Msg.Accepted) == 0 {
		os.Exit(1)
	}
}

// control prints the snapshot returned by a control call.
func control(resp *connect.Response[playerv1.ControlResponse], err error) {
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	printSnapshot(resp.Msg.Snapshot)
}
