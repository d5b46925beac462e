package filter

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
)

// SizeLimitConfig represents the configuration for SizeLimitFilter.
type SizeLimitConfig struct {
	MinKB float64 `yaml:"min_kb" mapstructure:"min_kb" validate:"gte=0"`
	MaxMB float64 `yaml:"max_mb" mapstructure:"max_mb" default:"200" validate:"gt=0"`
}

// SizeLimitFilter checks if the file size is within allowed limits.
type SizeLimitFilter struct {
	config *SizeLimitConfig
}

// NewSizeLimitFilter creates a new size limit filter.
func NewSizeLimitFilter() *SizeLimitFilter {
	return &SizeLimitFilter{}
}

func (f *SizeLimitFilter) Name() string {
	return "size_limit_filter"
}

func (f *SizeLimitFilter) Description() string {
	return "Checks if the file size is within allowed limits"
}

func (f *SizeLimitFilter) ReturnCodes() []string {
	return []string{"size_limit_exceeded"}
}

func (f *SizeLimitFilter) ValidateConfig(settings map[string]any) error {
	var config SizeLimitConfig

	// Decode map[string]any to struct using mapstructure
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &config,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}

	if err := decoder.Decode(settings); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}

	// Set defaults
	if err := defaults.Set(&config); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}

	// Validate using validator
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return errors.Wrap(err, "validation failed")
	}

	if config.MinKB*1024 > config.MaxMB*1024*1024 {
		return errors.New("min_kb cannot be greater than max_mb")
	}
	f.config = &config
	zlog.Info().Msgf("size limit filter config: %+v", config)
	return nil
}

func (f *SizeLimitFilter) AppliesTo(origin Origin) bool {
	return true
}

func (f *SizeLimitFilter) Check(ctx context.Context, c Candidate) Result {
	// If config is not set, accept all files
	if f.config == nil {
		return Accept()
	}

	size := float64(c.Size)
	if size < f.config.MinKB*1024 {
		return Reject("size_limit_exceeded")
	}
	if size > f.config.MaxMB*1024*1024 {
		return Reject("size_limit_exceeded")
	}
	return Accept()
}

func init() {
	Register("size_limit_filter", func(Deps) Filter {
		return &SizeLimitFilter{}
	})
}
