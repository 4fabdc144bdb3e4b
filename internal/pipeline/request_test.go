package pipeline

import (
	"encoding/json"
	"errors"
	"testing"

	"clipforge/internal/services"
)

func TestDefaultRequest(t *testing.T) {
	req := DefaultRequest()
	if req.VoiceID != "alloy" || req.Style != "realistic" || req.AspectRatio != "9:16" {
		t.Fatalf("unexpected defaults: %#v", req)
	}
	if !req.BackgroundMusic || req.MusicVolumePercent != 30 || req.ImageCount != 5 {
		t.Fatalf("unexpected defaults: %#v", req)
	}
}

func TestDecodeOverDefaultsKeepsAbsentFields(t *testing.T) {
	req := DefaultRequest()
	payload := `{"script":"A story.","aspect_ratio":"16:9","image_count":3}`
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if req.Script != "A story." || req.AspectRatio != "16:9" || req.ImageCount != 3 {
		t.Fatalf("explicit fields not applied: %#v", req)
	}
	if req.VoiceID != "alloy" || !req.BackgroundMusic || req.MusicVolumePercent != 30 {
		t.Fatalf("absent fields should keep defaults: %#v", req)
	}
}

func TestNormalizeClampsRanges(t *testing.T) {
	req := Request{
		Script:             "  A story.  ",
		MusicVolumePercent: 180,
		ImageCount:         -2,
	}
	req.Normalize()
	if req.Script != "A story." {
		t.Fatalf("script not trimmed: %q", req.Script)
	}
	if req.MusicVolumePercent != 100 {
		t.Fatalf("volume not clamped: %d", req.MusicVolumePercent)
	}
	if req.ImageCount != 0 {
		t.Fatalf("image count not clamped: %d", req.ImageCount)
	}
	if req.VoiceID != "alloy" || req.Style != "realistic" || req.AspectRatio != "9:16" {
		t.Fatalf("empty fields should fall back to defaults: %#v", req)
	}

	req = Request{MusicVolumePercent: -5}
	req.Normalize()
	if req.MusicVolumePercent != 0 {
		t.Fatalf("negative volume not clamped: %d", req.MusicVolumePercent)
	}
}

func TestValidateRequiresScript(t *testing.T) {
	req := Request{}
	req.Normalize()
	if err := req.Validate(); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	req.Script = "A story."
	if err := req.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
