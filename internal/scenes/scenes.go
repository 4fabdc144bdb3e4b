// Package scenes partitions narration scripts into contiguous scene texts.
// Splitting is purely structural so scene assignment stays stable across runs.
package scenes

import "strings"

// Scene is one contiguous slice of the script, destined for one image.
type Scene struct {
	Text  string
	Order int
}

// Split partitions script into exactly count scenes on sentence boundaries.
// Sentences are grouped contiguously into near-equal groups; when the script
// has fewer sentences than requested scenes, trailing scenes carry empty
// text rather than duplicated sentences. A non-positive count yields nil.
func Split(script string, count int) []Scene {
	if count <= 0 {
		return nil
	}
	sentences := tokenize(script)
	perScene := (len(sentences) + count - 1) / count

	result := make([]Scene, count)
	for i := 0; i < count; i++ {
		start := i * perScene
		end := start + perScene
		if start > len(sentences) {
			start = len(sentences)
		}
		if end > len(sentences) {
			end = len(sentences)
		}
		result[i] = Scene{
			Text:  strings.Join(sentences[start:end], " "),
			Order: i,
		}
	}
	return result
}

// tokenize breaks the script into sentences on terminal punctuation, keeping
// the punctuation attached. A script with no boundaries is one sentence.
func tokenize(script string) []string {
	script = strings.TrimSpace(script)
	if script == "" {
		return nil
	}

	var sentences []string
	var current strings.Builder
	for _, r := range script {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if text := strings.TrimSpace(current.String()); text != "" {
				sentences = append(sentences, text)
			}
			current.Reset()
		}
	}
	if text := strings.TrimSpace(current.String()); text != "" {
		sentences = append(sentences, text)
	}
	if len(sentences) == 0 {
		sentences = []string{script}
	}
	return sentences
}
