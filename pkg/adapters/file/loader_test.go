package file_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/weft/internal/testutils"
	"github.com/aretw0/weft/pkg/adapters/file"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const projectYAML = `
projectName: demo
author: someone
nodes:
  - guid: "1"
    name: clock
    module: "std:clock"
    class: Clock
  - guid: "2"
    name: out
    module: "std:print"
    class: Printer
signals:
  - source: "1"
    target: "2"
    sourceSigName: tick
    targetSigName: in
    signalKind: exec
entry:
  guid: "1"
  sigName: tick
`

func TestLoader_Load(t *testing.T) {
	path := testutils.WriteFile(t, t.TempDir(), "project.yaml", projectYAML)

	l := file.NewLoader(path)
	defer l.Close()
	assert.Equal(t, path, l.Source())

	p, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "demo", p.Name)
	require.Len(t, p.Nodes, 2)
	require.Len(t, p.Signals, 1)
	assert.Equal(t, domain.SignalExec, p.Signals[0].Kind)
	assert.Equal(t, domain.EntryRef{GUID: "1", SigName: "tick"}, p.Entry)
}

func TestLoader_Unreadable(t *testing.T) {
	l := file.NewLoader(filepath.Join(t.TempDir(), "missing.json"))
	defer l.Close()

	_, err := l.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrProjectUnreadable)
}

func TestLoader_PollReportsEdits(t *testing.T) {
	path := testutils.WriteFile(t, t.TempDir(), "project.yaml", projectYAML)

	l := file.NewLoader(path)
	defer l.Close()
	_, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, l.Poll())

	testutils.Rewrite(t, path, projectYAML+"\n")

	assert.Eventually(t, l.Poll, 5*time.Second, 20*time.Millisecond)
}
