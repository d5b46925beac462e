package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	playerv1 "github.com/osa030/tunedeck/internal/api/playerv1"
	"github.com/osa030/tunedeck/internal/domain/track"
)

// printSnapshot renders the playlist as a table followed by the transport state.
func printSnapshot(s *playerv1.Snapshot) {
	if s == nil {
		return
	}

	if len(s.Tracks) == 0 {
		fmt.Println("Playlist is empty")
	} else {
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"", "#", "Title", "Artist", "Album", "Length"})
		for i, tr := range s.Tracks {
			indicator := " "
			colorFunc := fmt.Sprint
			if int32(i) == s.CurrentIndex {
				indicator = "▶"
				if !s.Playing {
					indicator = "⏸"
				}
				colorFunc = text.FgGreen.Sprint
			}
			t.AppendRow(table.Row{
				colorFunc(indicator),
				colorFunc(i + 1),
				colorFunc(tr.Title),
				colorFunc(tr.Artist),
				colorFunc(tr.Album),
				colorFunc(formatLength(tr.DurationMs)),
			})
		}
		t.AppendFooter(table.Row{"", "", "", "", "Total", formatLength(s.TotalDurationMs)})
		t.Render()
	}

	state := "Paused"
	if s.Playing {
		state = "Playing"
	}
	fmt.Printf("%s  %s / %s  repeat=%s shuffle=%s volume=%d\n",
		state,
		track.FormatClock(ms(s.PositionMs)),
		track.FormatClock(ms(s.DurationMs)),
		s.Repeat,
		onOff(s.Shuffle),
		s.Volume,
	)
}

func formatLength(durationMs int64) string {
	if durationMs <= 0 {
		return "--:--"
	}
	return track.FormatClock(ms(durationMs))
}

func formatUptime(seconds int64) string {
	if seconds <= 0 {
		return "-"
	}
	return strings.TrimSuffix(humanize.RelTime(time.Now().Add(-time.Duration(seconds)*time.Second), time.Now(), "", ""), " ")
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func ms(v int64) time.Duration {
	return time.Duration(v) * time.Millisecond
}

// parseSeek parses "MM:SS", plain seconds or "N%".
func parseSeek(target string) (*playerv1.SeekRequest, error) {
	target = strings.TrimSpace(target)

	if p, ok := strings.CutSuffix(target, "%"); ok {
		percent, err := strconv.ParseFloat(p, 64)
		if err != nil || percent < 0 || percent > 100 {
			return nil, errors.Newf("invalid percentage: %q", target)
		}
		return &playerv1.SeekRequest{Percent: &percent}, nil
	}

	var seconds float64
	if m, s, ok := strings.Cut(target, ":"); ok {
		minutes, err := strconv.Atoi(m)
		if err != nil || minutes < 0 {
			return nil, errors.Newf("invalid position: %q", target)
		}
		secs, err := strconv.ParseFloat(s, 64)
		if err != nil || secs < 0 || secs >= 60 {
			return nil, errors.Newf("invalid position: %q", target)
		}
		seconds = float64(minutes*60) + secs
	} else {
		v, err := strconv.ParseFloat(target, 64)
		if err != nil || v < 0 {
			return nil, errors.Newf("invalid position: %q", target)
		}
		seconds = v
	}

	positionMs := int64(seconds * 1000)
	return &playerv1.SeekRequest{PositionMs: &positionMs}, nil
}
