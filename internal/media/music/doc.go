// Package music selects background tracks from a local library directory.
// Library absence is never an error; compositions without music fall back to
// narration-only audio.
package music
