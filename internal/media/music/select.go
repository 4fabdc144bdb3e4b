package music

import (
	"hash/fnv"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Selection describes the background track chosen for a composition.
type Selection struct {
	Path      string
	Available bool
}

var trackExtensions = map[string]struct{}{
	".mp3":  {},
	".m4a":  {},
	".aac":  {},
	".wav":  {},
	".flac": {},
	".ogg":  {},
}

// Selector picks background music tracks from a local library directory.
type Selector struct {
	dir string
}

// NewSelector returns a selector over the given library directory. An empty
// or missing directory is valid; selections simply come back unavailable.
func NewSelector(dir string) *Selector {
	return &Selector{dir: strings.TrimSpace(dir)}
}

// Select returns a deterministic track choice for the given seed. The same
// seed always maps to the same track while the library is unchanged, so
// retried jobs produce identical output. A missing or empty library is not
// an error.
func (s *Selector) Select(seed string) Selection {
	tracks := s.Tracks()
	if len(tracks) == 0 {
		return Selection{}
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(seed))
	idx := int(h.Sum32() % uint32(len(tracks)))
	return Selection{Path: tracks[idx], Available: true}
}

// Tracks lists the playable files in the library in sorted order.
func (s *Selector) Tracks() []string {
	if s.dir == "" {
		return nil
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}
	tracks := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if _, ok := trackExtensions[ext]; !ok {
			continue
		}
		tracks = append(tracks, filepath.Join(s.dir, entry.Name()))
	}
	sort.Strings(tracks)
	return tracks
}
