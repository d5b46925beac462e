package filter

import (
	"context"
	"path/filepath"
)

// SourceLister reports whether a file is already in the playlist.
type SourceLister interface {
	ContainsSource(path string) bool
}

// DuplicateSourceFilter rejects files that are already in the playlist.
type DuplicateSourceFilter struct {
	sources SourceLister
}

// NewDuplicateSourceFilter creates a new duplicate source filter.
func NewDuplicateSourceFilter(sources SourceLister) *DuplicateSourceFilter {
	return &DuplicateSourceFilter{
		sources: sources,
	}
}

// Name returns the filter name.
func (f *DuplicateSourceFilter) Name() string {
	return "duplicate_source_filter"
}

// Description returns the filter description.
func (f *DuplicateSourceFilter) Description() string {
	return "Rejects files that are already in the playlist"
}

// ReturnCodes returns possible return codes.
func (f *DuplicateSourceFilter) ReturnCodes() []string {
	return []string{"duplicate_source"}
}

// AppliesTo returns which origins this filter applies to.
func (f *DuplicateSourceFilter) AppliesTo(origin Origin) bool {
	return true
}

// ValidateConfig validates the filter configuration.
func (f *DuplicateSourceFilter) ValidateConfig(config map[string]any) error {
	// No configuration needed
	return nil
}

// Check checks if the file is already in the playlist.
func (f *DuplicateSourceFilter) Check(ctx context.Context, c Candidate) Result {
	if f.sources == nil {
		return Accept()
	}
	if f.sources.ContainsSource(filepath.Clean(c.Path)) {
		return Reject("duplicate_source")
	}
	return Accept()
}

func init() {
	Register("duplicate_source_filter", func(deps Deps) Filter {
		return NewDuplicateSourceFilter(deps.Sources)
	})
}
