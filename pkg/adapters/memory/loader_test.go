package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/weft/internal/compiler"
	"github.com/aretw0/weft/pkg/adapters/memory"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_PollAndLoad(t *testing.T) {
	ctx := context.Background()
	l := memory.NewLoader(&domain.Project{Name: "one"})

	assert.False(t, l.Poll())
	p, err := l.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "one", p.Name)

	l.Set(&domain.Project{Name: "two"})
	assert.True(t, l.Poll())
	assert.False(t, l.Poll(), "a change is reported once")

	l.Fail(errors.New("truncated"))
	assert.True(t, l.Poll())
	_, err = l.Load(ctx)
	assert.ErrorIs(t, err, domain.ErrProjectUnreadable)

	assert.Equal(t, "memory", l.Source())
}

func TestLoader_RejectsDuplicateGUIDs(t *testing.T) {
	ctx := context.Background()
	dup := &domain.Project{Nodes: []domain.NodeDefinition{
		{GUID: "1", Module: "m", Class: "A"},
		{GUID: "1", Module: "m", Class: "B"},
	}}

	l := memory.NewLoader(dup)
	_, err := l.Load(ctx)
	assert.ErrorIs(t, err, domain.ErrProjectUnreadable)
	assert.ErrorIs(t, err, domain.ErrDuplicateGUID)

	l.Set(&domain.Project{Name: "ok", Nodes: dup.Nodes[:1]})
	assert.True(t, l.Poll())
	p, err := l.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", p.Name)

	l.Set(dup)
	assert.True(t, l.Poll())
	_, err = l.Load(ctx)
	assert.ErrorIs(t, err, domain.ErrDuplicateGUID)
}

func TestNewFromDocument(t *testing.T) {
	l, err := memory.NewFromDocument([]byte(`
nodes:
  - {guid: "1", module: "std:clock", class: Clock}
`), compiler.FormatYAML)
	require.NoError(t, err)

	p, err := l.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, p.Nodes, 1)
	assert.Equal(t, "std:clock", p.Nodes[0].Module)

	_, err = memory.NewFromDocument([]byte(`{`), compiler.FormatJSON)
	assert.ErrorIs(t, err, domain.ErrProjectUnreadable)
}
