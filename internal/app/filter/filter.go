// Package filter provides the filter chain for upload acceptance.
package filter

import (
	"context"
	"sort"
)

// Origin represents where a candidate file came from.
type Origin string

const (
	OriginRequest Origin = "request" // Appended through the control API
	OriginPreload Origin = "preload" // Listed in the config at startup
	OriginWatch   Origin = "watch"   // Dropped into the watch folder
)

// Candidate represents a file offered for the playlist.
type Candidate struct {
	Path   string // Absolute path
	Name   string // Base name
	Size   int64  // Bytes
	MIME   string // Detected media type, empty until detected
	Origin Origin
}

// Result represents the result of a filter check.
type Result struct {
	Accepted bool
	Code     string // e.g., "not_audio", "size_limit_exceeded", "duplicate_source"
}

// Accept returns an accepted result.
func Accept() Result {
	return Result{Accepted: true}
}

// Reject returns a rejected result with the given code.
func Reject(code string) Result {
	return Result{Accepted: false, Code: code}
}

// Filter is the interface for upload filters.
type Filter interface {
	// Name returns the filter name (used in config).
	Name() string
	// Description returns a human-readable description.
	Description() string
	// ReturnCodes returns the codes this filter can return.
	ReturnCodes() []string
	// ValidateConfig validates and applies the filter configuration.
	ValidateConfig(settings map[string]any) error
	// AppliesTo returns true if this filter should be applied to candidates of the given origin.
	AppliesTo(origin Origin) bool
	// Check performs the filter check.
	Check(ctx context.Context, c Candidate) Result
}

// Deps carries what configurable filters may need from the running session.
type Deps struct {
	Sources SourceLister
}

// registry holds registered filter factories.
var registry = make(map[string]func(Deps) Filter)

// Register registers a filter factory.
func Register(name string, factory func(Deps) Filter) {
	registry[name] = factory
}

// GetRegistered returns all registered filter factories.
func GetRegistered() map[string]func(Deps) Filter {
	return registry
}

// RegisteredNames returns the registered filter names in sorted order.
func RegisteredNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
