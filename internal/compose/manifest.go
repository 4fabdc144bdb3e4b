package compose

import (
	"fmt"
	"strings"

	"clipforge/internal/fileutil"
)

// buildManifest renders the concat list for the given images. Each entry
// carries its display duration; the final image repeats once more without a
// duration so the last frame holds until the clip ends.
func buildManifest(images []string, perImage float64) string {
	var b strings.Builder
	for _, image := range images {
		fmt.Fprintf(&b, "file '%s'\n", image)
		fmt.Fprintf(&b, "duration %.3f\n", perImage)
	}
	if len(images) > 0 {
		fmt.Fprintf(&b, "file '%s'\n", images[len(images)-1])
	}
	return b.String()
}

func writeManifest(path string, images []string, perImage float64) error {
	return fileutil.WriteFileAtomic(path, []byte(buildManifest(images, perImage)), 0o644)
}
