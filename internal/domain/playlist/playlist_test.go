package playlist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/tunedeck/internal/domain/track"
)

func tracks(ids ...string) []track.Track {
	result := make([]track.Track, len(ids))
	for i, id := range ids {
		result[i] = track.Track{ID: id, Title: "Song " + id, Source: "/music/" + id + ".mp3"}
	}
	return result
}

func TestPlaylist_Append(t *testing.T) {
	tests := []struct {
		name     string
		initial  []string
		appended []string
		expected []string
	}{
		{
			name:     "append to empty",
			initial:  nil,
			appended: []string{"a", "b"},
			expected: []string{"a", "b"},
		},
		{
			name:     "preserves insertion order",
			initial:  []string{"a"},
			appended: []string{"c", "b"},
			expected: []string{"a", "c", "b"},
		},
		{
			name:     "empty input is a no-op",
			initial:  []string{"a"},
			appended: nil,
			expected: []string{"a"},
		},
		{
			name:     "duplicate ids are skipped",
			initial:  []string{"a"},
			appended: []string{"a", "b", "b"},
			expected: []string{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tracks(tt.initial...)...)
			next := p.Append(tracks(tt.appended...)...)

			assert.Equal(t, tt.expected, next.TrackIDs())
			assert.Len(t, p.TrackIDs(), len(tt.initial), "receiver must not change")
		})
	}
}

func TestPlaylist_RemoveAt(t *testing.T) {
	p := New(tracks("a", "b", "c")...)

	next, removed, ok := p.RemoveAt(1)
	require.True(t, ok)
	assert.Equal(t, "b", removed.ID)
	assert.Equal(t, []string{"a", "c"}, next.TrackIDs())
	assert.Equal(t, []string{"a", "b", "c"}, p.TrackIDs(), "receiver must not change")

	for _, index := range []int{-1, 3, 100} {
		same, _, ok := p.RemoveAt(index)
		assert.False(t, ok, "index %d", index)
		assert.Equal(t, p.TrackIDs(), same.TrackIDs())
	}
}

func TestPlaylist_ReplaceAt(t *testing.T) {
	p := New(tracks("a", "b")...)
	trk, ok := p.Track(1)
	require.True(t, ok)

	next, ok := p.ReplaceAt(1, trk.WithDuration(2*time.Minute))
	require.True(t, ok)

	updated, _ := next.Track(1)
	original, _ := p.Track(1)
	assert.Equal(t, 2*time.Minute, updated.Duration)
	assert.Equal(t, time.Duration(0), original.Duration)

	_, ok = p.ReplaceAt(2, trk)
	assert.False(t, ok)
}

func TestPlaylist_Lookup(t *testing.T) {
	p := New(tracks("a", "b", "c")...)

	assert.Equal(t, 3, p.Len())
	assert.False(t, p.IsEmpty())
	assert.True(t, New().IsEmpty())

	assert.True(t, p.ContainsSource("/music/b.mp3"))
	assert.False(t, p.ContainsSource("/music/z.mp3"))

	_, ok := p.Track(-1)
	assert.False(t, ok)
	assert.True(t, p.InRange(0))
	assert.False(t, p.InRange(3))

	copied := p.Tracks()
	copied[0].Title = "changed"
	first, _ := p.Track(0)
	assert.Equal(t, "Song a", first.Title)
}

func TestPlaylist_TotalDuration(t *testing.T) {
	tests := []struct {
		name      string
		durations []time.Duration
		expected  time.Duration
	}{
		{name: "empty playlist", durations: nil, expected: 0},
		{name: "unknown durations count as zero", durations: []time.Duration{0, 3 * time.Minute}, expected: 3 * time.Minute},
		{
			name:      "multiple tracks",
			durations: []time.Duration{2 * time.Minute, 3*time.Minute + 30*time.Second, 4 * time.Minute},
			expected:  9*time.Minute + 30*time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var list []track.Track
			for i, d := range tt.durations {
				list = append(list, track.Track{ID: string(rune('a' + i)), Duration: d})
			}
			assert.Equal(t, tt.expected, New(list...).TotalDuration())
		})
	}
}
