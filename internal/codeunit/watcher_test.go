package codeunit_test

import (
	"errors"
	"testing"

	"github.com/aretw0/weft/internal/codeunit"
	"github.com/aretw0/weft/pkg/adapters/native"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func class(name string) node.Class {
	return node.NewClass(name, node.Spec{}, func(node.Env) (node.Instance, error) {
		return &node.Base{}, nil
	})
}

type closeCounter struct {
	node.ClassSet
	closed *int
}

func (c closeCounter) Close() error {
	*c.closed++
	return nil
}

type countingLoader struct {
	*native.Registry
	closed int
}

func (l *countingLoader) Load(module string) (node.Unit, error) {
	u, err := l.Registry.Load(module)
	if err != nil {
		return nil, err
	}
	return closeCounter{ClassSet: u.(node.ClassSet), closed: &l.closed}, nil
}

func TestWatcher_LoadAndLookup(t *testing.T) {
	reg := native.NewRegistry()
	reg.Register("m1", class("Add"))

	w := codeunit.New("m1", reg, nil)
	require.NoError(t, w.Load())
	assert.True(t, w.Valid())
	assert.Equal(t, 1, w.Generation())
	assert.Equal(t, []string{"Add"}, w.ClassNames())

	c, err := w.Class("Add")
	require.NoError(t, err)
	assert.Equal(t, "Add", c.Name())

	_, err = w.Class("Mul")
	assert.ErrorIs(t, err, domain.ErrClassNotFound)

	assert.Equal(t, codeunit.ChangeNone, w.Poll(), "poll is idempotent without changes")
}

func TestWatcher_MissingUnitStaysInvalidUntilItAppears(t *testing.T) {
	reg := native.NewRegistry()
	w := codeunit.New("m1", reg, nil)

	err := w.Load()
	assert.ErrorIs(t, err, domain.ErrUnitNotFound)
	assert.False(t, w.Valid())
	_, err = w.Class("Add")
	assert.ErrorIs(t, err, domain.ErrUnitInvalid)

	reg.Register("m1", class("Add"))
	assert.Equal(t, codeunit.ChangeReloaded, w.Poll())
	assert.True(t, w.Valid())
}

func TestWatcher_FailedReloadKeepsLastGoodUnit(t *testing.T) {
	reg := native.NewRegistry()
	reg.Register("m1", class("Add"))
	w := codeunit.New("m1", reg, nil)
	require.NoError(t, w.Load())

	reg.Fail("m1", errors.New("syntax error"))
	assert.Equal(t, codeunit.ChangeFailed, w.Poll())
	assert.True(t, w.Valid())
	assert.Error(t, w.Err())
	assert.Equal(t, 1, w.Generation())

	_, err := w.Class("Add")
	assert.NoError(t, err, "previous classes remain available")
}

func TestWatcher_EmptyUnitIsAFailure(t *testing.T) {
	reg := native.NewRegistry()
	reg.Register("m1")
	w := codeunit.New("m1", reg, nil)

	assert.ErrorIs(t, w.Load(), domain.ErrNoClasses)
	assert.False(t, w.Valid())
}

func TestWatcher_RemovalInvalidates(t *testing.T) {
	reg := native.NewRegistry()
	reg.Register("m1", class("Add"))
	w := codeunit.New("m1", reg, nil)
	require.NoError(t, w.Load())

	reg.Remove("m1")
	assert.Equal(t, codeunit.ChangeRemoved, w.Poll())
	assert.False(t, w.Valid())
	_, err := w.Class("Add")
	assert.ErrorIs(t, err, domain.ErrUnitInvalid)
}

func TestWatcher_SweepClosesRetiredUnits(t *testing.T) {
	loader := &countingLoader{Registry: native.NewRegistry()}
	loader.Register("m1", class("Add"))
	w := codeunit.New("m1", loader, nil)
	require.NoError(t, w.Load())

	loader.Register("m1", class("Add"), class("Mul"))
	require.Equal(t, codeunit.ChangeReloaded, w.Poll())
	assert.Equal(t, 2, w.Generation())
	assert.Equal(t, 0, loader.closed, "retired unit stays open until swept")

	w.Sweep()
	assert.Equal(t, 1, loader.closed)

	require.NoError(t, w.Close())
	assert.Equal(t, 2, loader.closed)
	assert.False(t, w.Valid())
}
