package watch

import (
	"path/filepath"

	"github.com/aretw0/weft/pkg/ports"
)

// Stat detects changes by comparing existence, modification time and size on every poll.
type Stat struct {
	path string
	last fileState
}

// NewStat records the current state of path as the baseline.
func NewStat(path string) *Stat {
	path = filepath.Clean(path)
	return &Stat{path: path, last: stat(path)}
}

func (s *Stat) Poll() (ports.ChangeEvent, bool) {
	cur := stat(s.path)
	ev, changed := classify(s.path, s.last, cur)
	s.last = cur
	return ev, changed
}

func (s *Stat) Close() error {
	return nil
}
