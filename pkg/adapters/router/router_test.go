package router_test

import (
	"testing"

	"github.com/aretw0/weft/pkg/adapters/native"
	"github.com/aretw0/weft/pkg/adapters/router"
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

func TestRouter_Load(t *testing.T) {
	std := native.NewRegistry()
	std.Register("clock", class("Clock"))
	local := native.NewRegistry()
	local.Register("fx.blur", class("Blur"))
	local.Register("odd:name", class("Odd"))

	r := router.New(local).Mount("std", std)
	assert.Equal(t, []string{"std"}, r.Schemes())

	tests := []struct {
		module string
		class  string
		err    error
	}{
		{module: "std:clock", class: "Clock"},
		{module: "fx.blur", class: "Blur"},
		{module: "odd:name", class: "Odd"},
		{module: "std:missing", err: domain.ErrUnitNotFound},
		{module: "clock", err: domain.ErrUnitNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			u, err := r.Load(tt.module)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			_, ok := u.Class(tt.class)
			assert.True(t, ok)
		})
	}
}

func TestRouter_NoFallback(t *testing.T) {
	r := router.New(nil).Mount("std", native.NewRegistry())

	_, err := r.Load("plain")
	assert.ErrorIs(t, err, domain.ErrUnitNotFound)
	_, err = r.Watch("plain")
	assert.ErrorIs(t, err, domain.ErrUnitNotFound)
}

func TestRouter_WatchRoutesToMountedLoader(t *testing.T) {
	std := native.NewRegistry()
	std.Register("clock", class("Clock"))
	r := router.New(nil).Mount("std", std)

	w, err := r.Watch("std:clock")
	require.NoError(t, err)
	defer w.Close()

	_, changed := w.Poll()
	assert.False(t, changed)

	std.Register("clock", class("Clock"))
	_, changed = w.Poll()
	assert.True(t, changed)
}
