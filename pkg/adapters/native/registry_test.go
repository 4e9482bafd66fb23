package native_test

import (
	"errors"
	"testing"

	"github.com/aretw0/weft/pkg/adapters/native"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/node"
	"github.com/aretw0/weft/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(node.Env) (node.Instance, error) { return &node.Base{}, nil }

func TestRegistry_LoadAndWatch(t *testing.T) {
	reg := native.NewRegistry()

	_, err := reg.Load("m1")
	assert.ErrorIs(t, err, domain.ErrUnitNotFound)

	w, err := reg.Watch("m1")
	require.NoError(t, err)
	_, changed := w.Poll()
	assert.False(t, changed)

	reg.Register("m1", node.NewClass("Add", node.Spec{}, noop))
	ev, changed := w.Poll()
	require.True(t, changed)
	assert.Equal(t, ports.ChangeModified, ev.Kind)
	_, changed = w.Poll()
	assert.False(t, changed)

	unit, err := reg.Load("m1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Add"}, unit.ClassNames())
	assert.Equal(t, []string{"m1"}, reg.Modules())

	boom := errors.New("syntax error")
	reg.Fail("m1", boom)
	_, changed = w.Poll()
	assert.True(t, changed)
	_, err = reg.Load("m1")
	assert.ErrorIs(t, err, boom)

	reg.Remove("m1")
	ev, changed = w.Poll()
	require.True(t, changed)
	assert.Equal(t, ports.ChangeRemoved, ev.Kind)
	_, err = reg.Load("m1")
	assert.ErrorIs(t, err, domain.ErrUnitNotFound)
	assert.Empty(t, reg.Modules())
}
