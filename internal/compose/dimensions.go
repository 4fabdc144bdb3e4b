package compose

// Dimensions maps an aspect ratio to output pixel dimensions. Unrecognized
// ratios map to the vertical 9:16 default.
func Dimensions(aspectRatio string) (width, height int) {
	switch aspectRatio {
	case "16:9":
		return 1920, 1080
	case "1:1":
		return 1080, 1080
	case "9:16":
		return 1080, 1920
	default:
		return 1080, 1920
	}
}
