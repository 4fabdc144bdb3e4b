// Package pipeline orchestrates script-to-video generation: narration
// synthesis, per-scene image generation, composition, thumbnail extraction,
// and publication. One Generate call processes one video end-to-end and
// always returns a structured Result rather than an error.
package pipeline
