// Package compose renders a narration track, scene images, and optional
// background music into a finished video file by driving ffmpeg.
//
// Composition with images is deliberately split into two ffmpeg passes: a
// concat-manifest render producing a silent slideshow, then a second pass
// muxing the audio. Manifest-driven concatenation holds up across
// heterogeneous image counts and sizes, and a mixing failure never forces
// re-encoding of the visual track. If the slideshow path fails, composition
// degrades to a solid-color video with narration audio.
package compose
