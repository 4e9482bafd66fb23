package runtime

import (
	"fmt"

	"github.com/aretw0/weft/pkg/domain"
)

// MaxCascadeDepth bounds the nested node calls of one tick.
const MaxCascadeDepth = 1024

// cascade counts nested node calls so a signal cycle faults instead of
// exhausting the goroutine stack. A nil cascade is unbounded.
type cascade struct {
	depth int
}

func (c *cascade) enter(guid, port string) error {
	if c == nil {
		return nil
	}
	if c.depth >= MaxCascadeDepth {
		return &domain.NodeFault{
			GUID:  guid,
			Port:  port,
			Phase: domain.PhaseExec,
			Err:   fmt.Errorf("%w (%d nested calls)", domain.ErrCascadeDepth, MaxCascadeDepth),
		}
	}
	c.depth++
	return nil
}

func (c *cascade) leave() {
	if c != nil {
		c.depth--
	}
}

// guard runs fn on behalf of a node. Panics and errors become a *domain.NodeFault
// naming that node, unless the error already carries a fault raised deeper in
// the cascade, which is returned untouched so the innermost node is blamed.
func guard(guid string, phase domain.Phase, port string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &domain.NodeFault{GUID: guid, Port: port, Phase: phase, Err: &domain.PanicError{Value: r}}
		}
	}()
	if err = fn(); err == nil {
		return nil
	}
	if _, ok := domain.AsFault(err); ok {
		return err
	}
	return &domain.NodeFault{GUID: guid, Port: port, Phase: phase, Err: err}
}

// capture runs fn and turns a panic into an error. Used outside the exec cascade.
func capture(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &domain.PanicError{Value: r}
		}
	}()
	return fn()
}
