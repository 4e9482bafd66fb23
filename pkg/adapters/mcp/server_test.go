package mcp

import (
	"context"
	"testing"

	"github.com/aretw0/weft/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	st *domain.GraphStatus
}

func (s staticSource) Status() *domain.GraphStatus { return s.st }

func sample() *domain.GraphStatus {
	return &domain.GraphStatus{
		Project: "demo",
		Tick:    4,
		Nodes: []domain.NodeStatus{
			{Node: domain.NodeDefinition{GUID: "1", Name: "A", Class: "Add"}, Valid: true},
			{Node: domain.NodeDefinition{GUID: "2", Name: "B", Class: "Printer"}, Error: "boom"},
		},
		Signals: []domain.SignalStatus{
			{Signal: domain.SignalDefinition{Source: "1", Target: "2", SourceSig: "out", TargetSig: "in", Kind: domain.SignalExec}},
		},
	}
}

func TestTools(t *testing.T) {
	s := NewServer(staticSource{sample()}, "v0.0.0\n")
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	st, err := s.handleGetStatus(ctx, req, nil)
	require.NoError(t, err)
	assert.Equal(t, "demo", st.Project)
	assert.Equal(t, uint64(4), st.Tick)

	tests := []struct {
		name string
		args map[string]any
		want []string
	}{
		{"all", map[string]any{}, []string{"1", "2"}},
		{"invalid only", map[string]any{"invalid_only": true}, []string{"2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := s.handleListNodes(ctx, req, tt.args)
			require.NoError(t, err)
			var got []string
			for _, n := range list.Nodes {
				got = append(got, n.Node.GUID)
			}
			assert.Equal(t, tt.want, got)
		})
	}

	n, err := s.handleGetNode(ctx, req, map[string]any{"guid": "2"})
	require.NoError(t, err)
	assert.Equal(t, "boom", n.Error)

	_, err = s.handleGetNode(ctx, req, map[string]any{"guid": "9"})
	assert.ErrorContains(t, err, "not found")
	_, err = s.handleGetNode(ctx, req, map[string]any{})
	assert.ErrorContains(t, err, "guid is required")

	res, err := s.handleGetGraph(ctx, req)
	require.NoError(t, err)
	assert.False(t, res.IsError)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "graph LR")
}

func TestResources(t *testing.T) {
	s := NewServer(staticSource{sample()}, "dev")
	ctx := context.Background()

	contents, err := s.readGraph(ctx, mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)
	graphText := contents[0].(mcp.TextResourceContents)
	assert.Equal(t, graphURI, graphText.URI)
	assert.Contains(t, graphText.Text, `n_1["A <br/> Add"]`)

	contents, err = s.readStatus(ctx, mcp.ReadResourceRequest{})
	require.NoError(t, err)
	assert.Contains(t, contents[0].(mcp.TextResourceContents).Text, `"project":"demo"`)
}

func TestNotStarted(t *testing.T) {
	s := NewServer(staticSource{}, "dev")
	ctx := context.Background()

	_, err := s.handleGetStatus(ctx, mcp.CallToolRequest{}, nil)
	assert.Error(t, err)

	res, err := s.handleGetGraph(ctx, mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, res.IsError)

	_, err = s.readGraph(ctx, mcp.ReadResourceRequest{})
	assert.Error(t, err)
}
