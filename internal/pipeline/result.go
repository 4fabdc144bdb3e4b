package pipeline

// Result is the closed outcome of one generation. The orchestrator never
// panics or returns an error across its public boundary; failures surface in
// ErrorMessage with the URLs left empty.
type Result struct {
	VideoURL        string  `json:"video_url"`
	ThumbnailURL    string  `json:"thumbnail_url"`
	DurationSeconds float64 `json:"duration_seconds"`
	ImagesUsed      int     `json:"images_used"`
	ErrorMessage    string  `json:"error,omitempty"`
}

// OK reports whether the generation produced a published video.
func (r Result) OK() bool {
	return r.ErrorMessage == "" && r.VideoURL != ""
}

func failure(err error) Result {
	return Result{ErrorMessage: err.Error()}
}
