package upload

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tunedeck/internal/app/filter"
)

// Source lists files to preload.
type Source interface {
	// Files returns the file paths the source offers, in play order.
	Files(ctx context.Context) ([]string, error)

	// Name returns the source kind.
	Name() string
}

// FileSource offers a single file.
type FileSource struct {
	path string
}

// NewFileSource creates a source for one file.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Files returns the file.
func (s *FileSource) Files(ctx context.Context) ([]string, error) {
	return []string{s.path}, nil
}

// Name returns the source kind.
func (s *FileSource) Name() string {
	return "file"
}

// DirSource offers every non-hidden file below a directory, in lexical order.
type DirSource struct {
	dir string
}

// NewDirSource creates a source walking dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// Files walks the directory.
func (s *DirSource) Files(ctx context.Context) ([]string, error) {
	var files []string
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if isHidden(d.Name()) && path != s.dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to walk %s", s.dir)
	}
	return files, nil
}

// Name returns the source kind.
func (s *DirSource) Name() string {
	return "directory"
}

// SourceChain collects files from every source in order.
type SourceChain struct {
	sources []Source
}

// NewSourceChain creates a new source chain.
func NewSourceChain(sources ...Source) *SourceChain {
	return &SourceChain{
		sources: sources,
	}
}

// NewSourceChainFromPaths creates a chain with a directory source for every
// directory in paths and a file source for everything else.
func NewSourceChainFromPaths(paths []string) *SourceChain {
	sources := make([]Source, 0, len(paths))
	for i, p := range paths {
		var src Source
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			src = NewDirSource(p)
		} else {
			src = NewFileSource(p)
		}
		sources = append(sources, src)
		zlog.Debug().Msgf("registered preload source: index=%d type=%s path=%s", i+1, src.Name(), p)
	}
	return NewSourceChain(sources...)
}

// Collect gathers files from all sources. A failing source is logged and skipped;
// the error is set only when every source failed.
func (c *SourceChain) Collect(ctx context.Context) ([]string, error) {
	var all []string
	failed := 0

	for i, src := range c.sources {
		files, err := src.Files(ctx)
		if err != nil {
			zlog.Warn().Msgf("source failed, trying next: index=%d type=%s error=%v", i+1, src.Name(), err)
			failed++
			continue
		}
		all = append(all, files...)
		zlog.Debug().Msgf("source returned files: index=%d type=%s count=%d total_so_far=%d",
			i+1, src.Name(), len(files), len(all))
	}

	if failed > 0 && failed == len(c.sources) {
		return nil, errors.New("all sources failed to return files")
	}
	return all, nil
}

// Len returns the number of sources.
func (c *SourceChain) Len() int {
	return len(c.sources)
}

// Preload collects the chain's files and imports them.
func (im *Importer) Preload(ctx context.Context, chain *SourceChain) (*Report, error) {
	if chain.Len() == 0 {
		return &Report{}, nil
	}
	files, err := chain.Collect(ctx)
	if err != nil {
		return nil, err
	}
	return im.Import(ctx, files, filter.OriginPreload)
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
