package compiler_test

import (
	"testing"

	"github.com/aretw0/weft/internal/compiler"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestLint(t *testing.T) {
	nodes := []domain.NodeDefinition{
		{GUID: "1", Module: "m", Class: "A"},
		{GUID: "2", Module: "m", Class: "B"},
	}

	t.Run("clean", func(t *testing.T) {
		p := &domain.Project{
			Nodes:   nodes,
			Signals: []domain.SignalDefinition{{Source: "1", Target: "2", SourceSig: "out", TargetSig: "in", Kind: domain.SignalExec}},
			Entry:   domain.EntryRef{GUID: "1", SigName: "out"},
		}
		assert.Empty(t, compiler.Lint(p))
	})

	t.Run("problems", func(t *testing.T) {
		p := &domain.Project{
			Nodes: nodes,
			Signals: []domain.SignalDefinition{
				{Source: "1", Target: "9", SourceSig: "out", TargetSig: "in", Kind: domain.SignalExec},
				{Source: "2", Target: "2", SourceSig: "out", TargetSig: "in", Kind: domain.SignalExec},
				{Source: "1", Target: "2", SourceSig: "v", TargetSig: "x", Kind: domain.SignalData},
				{Source: "2", Target: "2", SourceSig: "v", TargetSig: "x", Kind: domain.SignalData},
			},
			Entry: domain.EntryRef{GUID: "7", SigName: "out"},
		}
		issues := compiler.Lint(p)
		assert.True(t, compiler.HasErrors(issues))

		var messages []string
		for _, i := range issues {
			messages = append(messages, i.String())
		}
		assert.Contains(t, messages, `error: 1.out->9.in: target "9" is not a node`)
		assert.Contains(t, messages, "warning: 2.out->2.in: signal loops back to its own node")
		assert.Contains(t, messages, "error: 2.v->2.x: data input already fed by 1.v->2.x")
		assert.Contains(t, messages, `error: entry: entry node "7" is not a node`)
	})

	t.Run("no entry", func(t *testing.T) {
		issues := compiler.Lint(&domain.Project{Nodes: nodes})
		assert.False(t, compiler.HasErrors(issues))
		assert.Len(t, issues, 1)
	})
}
