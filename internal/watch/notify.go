package watch

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/weft/pkg/ports"
)

// Notify watches the parent directory of a file so that editors which save
// through rename keep being tracked. Queued events are drained on Poll and the
// outcome is decided by the file's state at that moment.
type Notify struct {
	path    string
	base    string
	watcher *fsnotify.Watcher
	last    fileState
}

// NewNotify starts watching path. The parent directory must exist.
func NewNotify(path string) (*Notify, error) {
	path = filepath.Clean(path)
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create notifier: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}
	return &Notify{
		path:    path,
		base:    filepath.Base(path),
		watcher: w,
		last:    stat(path),
	}, nil
}

func (n *Notify) Poll() (ports.ChangeEvent, bool) {
	touched := false
	for {
		select {
		case ev, ok := <-n.watcher.Events:
			if !ok {
				return n.settle(touched)
			}
			if filepath.Base(ev.Name) == n.base {
				touched = true
			}
		case _, ok := <-n.watcher.Errors:
			if !ok {
				return n.settle(touched)
			}
			// Overflow drops events; fall back to comparing state.
			touched = true
		default:
			return n.settle(touched)
		}
	}
}

func (n *Notify) settle(touched bool) (ports.ChangeEvent, bool) {
	if !touched {
		return ports.ChangeEvent{}, false
	}
	cur := stat(n.path)
	ev, changed := classify(n.path, n.last, cur)
	n.last = cur
	return ev, changed
}

func (n *Notify) Close() error {
	return n.watcher.Close()
}
