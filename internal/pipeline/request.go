package pipeline

import (
	"strings"

	"clipforge/internal/services"
)

// Request describes one video generation job.
type Request struct {
	Script             string `json:"script"`
	VoiceID            string `json:"voice_id"`
	Style              string `json:"style"`
	AspectRatio        string `json:"aspect_ratio"`
	BackgroundMusic    bool   `json:"background_music"`
	MusicVolumePercent int    `json:"music_volume_percent"`
	ImageCount         int    `json:"image_count"`
}

// DefaultRequest returns a request with every optional field at its default.
// Decode caller-supplied JSON over this value so absent fields keep defaults.
func DefaultRequest() Request {
	return Request{
		VoiceID:            "alloy",
		Style:              "realistic",
		AspectRatio:        "9:16",
		BackgroundMusic:    true,
		MusicVolumePercent: 30,
		ImageCount:         5,
	}
}

// Normalize trims fields and clamps numeric ranges.
func (r *Request) Normalize() {
	r.Script = strings.TrimSpace(r.Script)
	r.VoiceID = strings.TrimSpace(r.VoiceID)
	if r.VoiceID == "" {
		r.VoiceID = "alloy"
	}
	r.Style = strings.ToLower(strings.TrimSpace(r.Style))
	if r.Style == "" {
		r.Style = "realistic"
	}
	r.AspectRatio = strings.TrimSpace(r.AspectRatio)
	if r.AspectRatio == "" {
		r.AspectRatio = "9:16"
	}
	if r.MusicVolumePercent < 0 {
		r.MusicVolumePercent = 0
	}
	if r.MusicVolumePercent > 100 {
		r.MusicVolumePercent = 100
	}
	if r.ImageCount < 0 {
		r.ImageCount = 0
	}
}

// Validate rejects requests the pipeline cannot process.
func (r *Request) Validate() error {
	if r.Script == "" {
		return services.Wrap(services.ErrValidation, "pipeline", "validate", "script must not be empty", nil)
	}
	return nil
}
