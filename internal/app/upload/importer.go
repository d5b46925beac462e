// Package upload turns files into playlist tracks.
//
// Files arrive from control requests, the preload list and the watch folder.
// Each one is checked by the filter chain and the accepted ones are appended
// to the session in a single batch.
package upload

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tunedeck/internal/app/filter"
	"github.com/osa030/tunedeck/internal/app/playback"
	"github.com/osa030/tunedeck/internal/domain/track"
)

// Appender appends tracks to the playlist.
type Appender interface {
	Append(ctx context.Context, tracks []track.Track) (playback.Session, error)
}

// Rejection records why a file was not accepted.
type Rejection struct {
	Path string
	Code string
}

// Report is the outcome of one import.
type Report struct {
	Accepted []track.Track
	Rejected []Rejection
	Bytes    int64 // Total size of accepted files
}

// Importer checks files against the filter chain and appends the accepted ones.
type Importer struct {
	chain    *filter.Chain
	appender Appender
}

// NewImporter creates a new importer.
func NewImporter(chain *filter.Chain, appender Appender) *Importer {
	return &Importer{
		chain:    chain,
		appender: appender,
	}
}

// Import checks paths in order and appends the accepted files as new tracks.
// Rejections are reported, not returned as errors; the error is set only when
// the append itself fails.
func (im *Importer) Import(ctx context.Context, paths []string, origin filter.Origin) (*Report, error) {
	report := &Report{}

	for _, p := range paths {
		cand, code := newCandidate(p, origin)
		if code == "" {
			result := im.chain.Execute(ctx, cand)
			if !result.Accepted {
				code = result.Code
			}
		}
		if code != "" {
			zlog.Info().Msgf("upload rejected: origin=%s path=%s code=%s", origin, p, code)
			report.Rejected = append(report.Rejected, Rejection{Path: p, Code: code})
			continue
		}

		t := track.New(cand.Path)
		report.Accepted = append(report.Accepted, t)
		report.Bytes += cand.Size
		zlog.Debug().Msgf("upload accepted: origin=%s title=%s size=%s", origin, t.Title, humanize.IBytes(uint64(cand.Size)))
	}

	if len(report.Accepted) == 0 {
		return report, nil
	}

	if _, err := im.appender.Append(ctx, report.Accepted); err != nil {
		return report, errors.Wrap(err, "failed to append tracks")
	}

	zlog.Info().Msgf("upload appended: origin=%s accepted=%d rejected=%d size=%s",
		origin, len(report.Accepted), len(report.Rejected), humanize.IBytes(uint64(report.Bytes)))
	return report, nil
}

// newCandidate stats path. A non-empty code means the file can't be a candidate.
func newCandidate(path string, origin filter.Origin) (filter.Candidate, string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filter.Candidate{}, "invalid_path"
	}

	info, err := os.Stat(abs)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return filter.Candidate{}, "not_found"
	case err != nil:
		return filter.Candidate{}, "unreadable"
	case !info.Mode().IsRegular():
		return filter.Candidate{}, "not_a_file"
	}

	return filter.Candidate{
		Path:   abs,
		Name:   info.Name(),
		Size:   info.Size(),
		Origin: origin,
	}, ""
}
