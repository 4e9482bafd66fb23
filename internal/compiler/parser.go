package compiler

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/weft/internal/dto"
	"github.com/aretw0/weft/pkg/domain"
)

// Format is the encoding of a project document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the format from a file extension. Anything but .yaml/.yml is JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Parser converts raw project documents into domain.Project values.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes and validates a document. Every error wraps domain.ErrProjectUnreadable.
func (p *Parser) Parse(data []byte, format Format) (*domain.Project, error) {
	raw, err := decodeRaw(data, format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProjectUnreadable, err)
	}

	var doc dto.ProjectDocument
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &doc,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProjectUnreadable, err)
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProjectUnreadable, err)
	}
	return Compile(&doc)
}

func decodeRaw(data []byte, format Format) (map[string]any, error) {
	raw := make(map[string]any)
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("json: %w", err)
		}
	}
	return raw, nil
}

// Compile validates a decoded document and builds the immutable project.
func Compile(doc *dto.ProjectDocument) (*domain.Project, error) {
	project := &domain.Project{
		Name:   doc.ProjectName,
		Author: doc.Author,
	}

	seen := make(map[string]bool, len(doc.Nodes))
	for i, n := range doc.Nodes {
		switch {
		case n.GUID == "":
			return nil, fmt.Errorf("%w: node %d missing guid", domain.ErrProjectUnreadable, i)
		case n.Module == "":
			return nil, fmt.Errorf("%w: node %s missing module", domain.ErrProjectUnreadable, n.GUID)
		case n.Class == "":
			return nil, fmt.Errorf("%w: node %s missing class", domain.ErrProjectUnreadable, n.GUID)
		case seen[n.GUID]:
			return nil, fmt.Errorf("%w: %w: %s", domain.ErrProjectUnreadable, domain.ErrDuplicateGUID, n.GUID)
		}
		seen[n.GUID] = true
		project.Nodes = append(project.Nodes, domain.NodeDefinition{
			GUID:   n.GUID,
			Name:   n.Name,
			Module: n.Module,
			Class:  n.Class,
		})
	}

	for i, s := range doc.Signals {
		if s.Source == "" || s.Target == "" || s.SourceSigName == "" || s.TargetSigName == "" {
			return nil, fmt.Errorf("%w: signal %d is incomplete", domain.ErrProjectUnreadable, i)
		}
		kind, err := domain.ParseSignalKind(s.SignalKind)
		if err != nil {
			return nil, fmt.Errorf("%w: signal %d: %v", domain.ErrProjectUnreadable, i, err)
		}
		project.Signals = append(project.Signals, domain.SignalDefinition{
			Source:    s.Source,
			Target:    s.Target,
			SourceSig: s.SourceSigName,
			TargetSig: s.TargetSigName,
			Kind:      kind,
		})
	}

	if doc.Entry != nil {
		project.Entry = domain.EntryRef{GUID: doc.Entry.GUID, SigName: doc.Entry.SigName}
	}
	return project, nil
}

// Document converts a project back into its wire shape.
func Document(p *domain.Project) *dto.ProjectDocument {
	doc := &dto.ProjectDocument{
		ProjectName: p.Name,
		Author:      p.Author,
		Nodes:       []dto.NodeDocument{},
		Signals:     []dto.SignalDocument{},
	}
	for _, n := range p.Nodes {
		doc.Nodes = append(doc.Nodes, dto.NodeDocument{Name: n.Name, GUID: n.GUID, Module: n.Module, Class: n.Class})
	}
	for _, s := range p.Signals {
		doc.Signals = append(doc.Signals, dto.SignalDocument{
			Source:        s.Source,
			Target:        s.Target,
			SourceSigName: s.SourceSig,
			TargetSigName: s.TargetSig,
			SignalKind:    string(s.Kind),
		})
	}
	if !p.Entry.IsZero() {
		doc.Entry = &dto.EntryDocument{GUID: p.Entry.GUID, SigName: p.Entry.SigName}
	}
	return doc
}

// Encode renders a project as a document in the given format.
func Encode(p *domain.Project, format Format) ([]byte, error) {
	doc := Document(p)
	if format == FormatYAML {
		return yaml.Marshal(doc)
	}
	return json.MarshalIndent(doc, "", "  ")
}
