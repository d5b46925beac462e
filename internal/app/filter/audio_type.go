package filter

import (
	"context"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	zlog "github.com/rs/zerolog/log"
)

// AudioTypeFilter accepts only files whose content is detected as audio/*.
type AudioTypeFilter struct {
	detect func(path string) (string, error)
}

// NewAudioTypeFilter creates an audio type filter sniffing file content.
func NewAudioTypeFilter() *AudioTypeFilter {
	return &AudioTypeFilter{detect: DetectMIME}
}

// DetectMIME sniffs the media type of the file at path.
func DetectMIME(path string) (string, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", err
	}
	return mt.String(), nil
}

func (f *AudioTypeFilter) Name() string {
	return "audio_type_filter"
}

func (f *AudioTypeFilter) Description() string {
	return "Accepts only files whose content is an audio media type"
}

func (f *AudioTypeFilter) ReturnCodes() []string {
	return []string{"not_audio", "unreadable"}
}

func (f *AudioTypeFilter) ValidateConfig(settings map[string]any) error {
	return nil
}

func (f *AudioTypeFilter) AppliesTo(origin Origin) bool {
	// Every candidate must be audio regardless of source
	return true
}

func (f *AudioTypeFilter) Check(ctx context.Context, c Candidate) Result {
	mime := c.MIME
	if mime == "" {
		detected, err := f.detect(c.Path)
		if err != nil {
			zlog.Debug().Msgf("mime detection failed: path=%s error=%v", c.Path, err)
			return Reject("unreadable")
		}
		mime = detected
	}

	if !strings.HasPrefix(mime, "audio/") {
		return Reject("not_audio")
	}
	return Accept()
}
