package filter

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// Settings gives a chain builder access to per-filter configuration.
// *config.Config satisfies it.
type Settings interface {
	IsFilterEnabled(name string) bool
	FilterSettings(name string) map[string]any
}

// Chain executes filters in sequence.
type Chain struct {
	filters []Filter
}

// NewChain creates a new filter chain.
func NewChain() *Chain {
	return &Chain{
		filters: make([]Filter, 0),
	}
}

// NewChainFromConfig creates a chain starting with the audio type filter, followed by
// every registered filter the configuration enables, in name order.
func NewChainFromConfig(settings Settings, deps Deps) (*Chain, error) {
	c := NewChain()
	c.Add(NewAudioTypeFilter())

	for _, name := range RegisteredNames() {
		if !settings.IsFilterEnabled(name) {
			continue
		}
		f := registry[name](deps)
		if err := f.ValidateConfig(settings.FilterSettings(name)); err != nil {
			return nil, errors.Wrapf(err, "invalid settings for %s", name)
		}
		c.Add(f)
		zlog.Info().Msgf("registered upload filter: name=%s", name)
	}
	return c, nil
}

// Add adds a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Execute runs all filters in sequence.
// Returns immediately if any filter rejects the candidate.
// Filters are only applied if they declare they apply to the candidate's origin.
func (c *Chain) Execute(ctx context.Context, cand Candidate) Result {
	for _, f := range c.filters {
		// Skip filters that don't apply to this origin
		if !f.AppliesTo(cand.Origin) {
			continue
		}

		result := f.Check(ctx, cand)
		if !result.Accepted {
			return result
		}
	}
	return Accept()
}

// Filters returns all filters in the chain.
func (c *Chain) Filters() []Filter {
	return c.filters
}
