// Package codeunit tracks one loadable code unit and keeps its last good version available.
package codeunit

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/weft/internal/logging"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/node"
	"github.com/aretw0/weft/pkg/ports"
)

// Change is the outcome of a poll.
type Change int

const (
	ChangeNone Change = iota
	ChangeReloaded
	ChangeFailed
	ChangeRemoved
)

func (c Change) String() string {
	switch c {
	case ChangeReloaded:
		return "reloaded"
	case ChangeFailed:
		return "failed"
	case ChangeRemoved:
		return "removed"
	}
	return "none"
}

// Watcher owns one loaded code unit. A failed reload never discards the
// unit that was working before it.
type Watcher struct {
	module string
	loader ports.UnitLoader
	logger *slog.Logger

	unit    node.Unit
	retired []node.Unit
	valid   bool
	gen     int
	err     error
	watch   ports.ChangeWatch
}

// New creates a watcher. Nothing is loaded until Load is called.
func New(module string, loader ports.UnitLoader, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Watcher{
		module: module,
		loader: loader,
		logger: logger.With("module", module),
	}
}

// Load imports the unit. On success the previous unit is retired and the
// generation advances; on failure the previous state is left untouched.
func (w *Watcher) Load() error {
	defer w.ensureWatch()

	unit, err := w.load()
	if err != nil {
		w.err = err
		w.logger.Error("code unit failed to load", "error", err)
		return err
	}
	if w.unit != nil {
		w.retired = append(w.retired, w.unit)
	}
	w.unit = unit
	w.valid = true
	w.err = nil
	w.gen++
	logging.Success(w.logger, "code unit loaded", "classes", unit.ClassNames(), "generation", w.gen)
	return nil
}

func (w *Watcher) load() (unit node.Unit, err error) {
	defer func() {
		if r := recover(); r != nil {
			unit, err = nil, fmt.Errorf("load %s: %w", w.module, &domain.PanicError{Value: r})
		}
	}()
	unit, err = w.loader.Load(w.module)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", w.module, err)
	}
	if unit == nil || len(unit.ClassNames()) == 0 {
		if unit != nil {
			_ = unit.Close()
		}
		return nil, fmt.Errorf("load %s: %w", w.module, domain.ErrNoClasses)
	}
	return unit, nil
}

func (w *Watcher) ensureWatch() {
	if w.watch != nil {
		return
	}
	cw, err := w.loader.Watch(w.module)
	if err != nil {
		w.logger.Debug("change watch unavailable", "error", err)
		return
	}
	w.watch = cw
}

// Poll checks the unit for changes without blocking and reloads it when it changed.
func (w *Watcher) Poll() Change {
	if w.watch == nil {
		w.ensureWatch()
		if w.watch == nil || w.valid {
			return ChangeNone
		}
		// The baseline of a fresh watch hides whatever appeared before it.
		if err := w.Load(); err != nil {
			return ChangeNone
		}
		return ChangeReloaded
	}
	ev, changed := w.watch.Poll()
	if !changed {
		return ChangeNone
	}
	if ev.Kind == ports.ChangeRemoved {
		if w.unit != nil {
			w.retired = append(w.retired, w.unit)
			w.unit = nil
		}
		w.valid = false
		w.err = fmt.Errorf("%s: %w", w.module, domain.ErrUnitNotFound)
		w.logger.Warn("code unit removed")
		return ChangeRemoved
	}
	if err := w.Load(); err != nil {
		return ChangeFailed
	}
	return ChangeReloaded
}

// Class looks up a class by exact name in the current unit.
func (w *Watcher) Class(name string) (node.Class, error) {
	if !w.valid || w.unit == nil {
		if w.err != nil {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrUnitInvalid, w.module, w.err)
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrUnitInvalid, w.module)
	}
	c, ok := w.unit.Class(name)
	if !ok || c == nil {
		return nil, fmt.Errorf("%w: %s in %s", domain.ErrClassNotFound, name, w.module)
	}
	return c, nil
}

// ClassNames lists the classes of the current unit.
func (w *Watcher) ClassNames() []string {
	if w.unit == nil {
		return nil
	}
	return w.unit.ClassNames()
}

func (w *Watcher) Module() string { return w.module }

func (w *Watcher) Valid() bool { return w.valid }

// Generation counts successful loads.
func (w *Watcher) Generation() int { return w.gen }

// Err returns the last load error, cleared by a successful load.
func (w *Watcher) Err() error { return w.err }

// Sweep closes units retired by reloads. Call it once dependents have migrated.
func (w *Watcher) Sweep() {
	for _, u := range w.retired {
		if err := u.Close(); err != nil {
			w.logger.Debug("closing retired unit", "error", err)
		}
	}
	w.retired = nil
}

// Close releases the change watch and every unit.
func (w *Watcher) Close() error {
	var errs []error
	w.Sweep()
	if w.unit != nil {
		errs = append(errs, w.unit.Close())
		w.unit = nil
	}
	if w.watch != nil {
		errs = append(errs, w.watch.Close())
		w.watch = nil
	}
	w.valid = false
	return errors.Join(errs...)
}
