package dsl

import (
	"github.com/aretw0/weft/internal/dto"
	"github.com/aretw0/weft/pkg/domain"
)

// NodeBuilder provides a fluent API for configuring a node and its outgoing bindings.
type NodeBuilder struct {
	node    dto.NodeDocument
	signals []dto.SignalDocument
	builder *Builder
}

// Name sets the display name.
func (n *NodeBuilder) Name(name string) *NodeBuilder {
	n.node.Name = name
	return n
}

// Class binds the node to a class inside a code unit.
func (n *NodeBuilder) Class(module, class string) *NodeBuilder {
	n.node.Module = module
	n.node.Class = class
	return n
}

// Exec wires this node's exec output to a target's exec input.
func (n *NodeBuilder) Exec(output, target, input string) *NodeBuilder {
	n.signals = append(n.signals, dto.SignalDocument{
		Source:        n.node.GUID,
		Target:        target,
		SourceSigName: output,
		TargetSigName: input,
		SignalKind:    string(domain.SignalExec),
	})
	return n
}

// Data wires this node's data input to a source's data output.
func (n *NodeBuilder) Data(input, source, output string) *NodeBuilder {
	n.signals = append(n.signals, dto.SignalDocument{
		Source:        source,
		Target:        n.node.GUID,
		SourceSigName: output,
		TargetSigName: input,
		SignalKind:    string(domain.SignalData),
	})
	return n
}

// Add returns to the project builder to start another node.
func (n *NodeBuilder) Add(guid string) *NodeBuilder {
	return n.builder.Add(guid)
}
