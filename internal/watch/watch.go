// Package watch provides non-blocking change detection for single files.
package watch

import (
	"os"
	"time"

	"github.com/aretw0/weft/pkg/ports"
)

type fileState struct {
	exists  bool
	modTime time.Time
	size    int64
}

func stat(path string) fileState {
	info, err := os.Stat(path)
	if err != nil {
		return fileState{}
	}
	return fileState{exists: true, modTime: info.ModTime(), size: info.Size()}
}

// classify turns a state transition into an event. Equal states yield nothing.
func classify(path string, prev, cur fileState) (ports.ChangeEvent, bool) {
	switch {
	case prev == cur:
		return ports.ChangeEvent{}, false
	case !cur.exists:
		return ports.ChangeEvent{Path: path, Kind: ports.ChangeRemoved}, true
	default:
		return ports.ChangeEvent{Path: path, Kind: ports.ChangeModified}, true
	}
}

// New watches path with fsnotify and falls back to stat polling when
// a notifier cannot be created (missing parent directory, exhausted watches).
func New(path string) ports.ChangeWatch {
	if w, err := NewNotify(path); err == nil {
		return w
	}
	return NewStat(path)
}
