package dsl

import (
	"fmt"

	"github.com/aretw0/weft/internal/compiler"
	"github.com/aretw0/weft/internal/dto"
	"github.com/aretw0/weft/pkg/adapters/memory"
	"github.com/aretw0/weft/pkg/domain"
)

// Builder manages the project construction. Nodes keep the order they were added in.
type Builder struct {
	doc   dto.ProjectDocument
	nodes map[string]*NodeBuilder
	order []*NodeBuilder
}

// New creates a new project builder.
func New(name string) *Builder {
	return &Builder{
		doc:   dto.ProjectDocument{ProjectName: name},
		nodes: make(map[string]*NodeBuilder),
	}
}

// Author sets the project author.
func (b *Builder) Author(author string) *Builder {
	b.doc.Author = author
	return b
}

// Add creates a new node in the project.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(guid string) *NodeBuilder {
	if nb, ok := b.nodes[guid]; ok {
		return nb
	}
	nb := &NodeBuilder{node: dto.NodeDocument{GUID: guid}, builder: b}
	b.nodes[guid] = nb
	b.order = append(b.order, nb)
	return nb
}

// Entry names the exec port that starts every tick.
func (b *Builder) Entry(guid, sigName string) *Builder {
	b.doc.Entry = &dto.EntryDocument{GUID: guid, SigName: sigName}
	return b
}

// Project compiles the builder into a project, with the same checks as a parsed document.
func (b *Builder) Project() (*domain.Project, error) {
	doc := b.doc
	doc.Nodes = make([]dto.NodeDocument, 0, len(b.order))
	doc.Signals = nil
	for _, nb := range b.order {
		doc.Nodes = append(doc.Nodes, nb.node)
		doc.Signals = append(doc.Signals, nb.signals...)
	}
	project, err := compiler.Compile(&doc)
	if err != nil {
		return nil, fmt.Errorf("failed to build project: %w", err)
	}
	return project, nil
}

// Build compiles the project into a memory loader.
func (b *Builder) Build() (*memory.Loader, error) {
	project, err := b.Project()
	if err != nil {
		return nil, err
	}
	return memory.NewLoader(project), nil
}

// Encode renders the project as a JSON or YAML document.
func (b *Builder) Encode(format compiler.Format) ([]byte, error) {
	project, err := b.Project()
	if err != nil {
		return nil, err
	}
	return compiler.Encode(project, format)
}
