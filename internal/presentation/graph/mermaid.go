package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/weft/pkg/domain"
)

// GenerateMermaid produces a Mermaid flowchart of the live graph.
// Shapes and arrows carry the runtime state:
// - Entry node: ((Circle))
// - Other nodes: [Rectangle], styled "invalid" when not valid
// - Exec signals: solid arrows; data signals: dotted arrows
// - Signals not patched end in a cross (--x / -.-x)
func GenerateMermaid(st *domain.GraphStatus) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")
	if st == nil {
		return sb.String()
	}

	var invalid []string
	for _, n := range st.Nodes {
		id := sanitizeMermaidID(n.Node.GUID)
		opener, closer := "[", "]"
		if n.Node.GUID == st.Entry.Ref.GUID {
			opener, closer = "((", "))"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", id, opener, label(n.Node), closer))
		if !n.Valid {
			invalid = append(invalid, id)
		}
	}

	for _, s := range st.Signals {
		sig := s.Signal
		from, to := sanitizeMermaidID(sig.Source), sanitizeMermaidID(sig.Target)
		text := strings.ReplaceAll(sig.SourceSig+" → "+sig.TargetSig, "\"", "'")

		var arrow string
		switch {
		case sig.Kind == domain.SignalData && s.Patched:
			arrow = fmt.Sprintf("-. \"%s\" .->", text)
		case sig.Kind == domain.SignalData:
			arrow = fmt.Sprintf("-. \"%s\" .-x", text)
		case s.Patched:
			arrow = fmt.Sprintf("-- \"%s\" -->", text)
		default:
			arrow = fmt.Sprintf("-- \"%s\" --x", text)
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", from, arrow, to))
	}

	if len(invalid) > 0 {
		sb.WriteString("\n    classDef invalid fill:#ffebee,stroke:#c62828,stroke-width:2px,color:#000;\n")
		for _, id := range invalid {
			sb.WriteString(fmt.Sprintf("    class %s invalid;\n", id))
		}
	}
	return sb.String()
}

func label(def domain.NodeDefinition) string {
	name := def.Name
	if name == "" {
		name = def.GUID
	}
	return strings.ReplaceAll(fmt.Sprintf("%s <br/> %s", name, def.Class), "\"", "'")
}

func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", ":", "_", " ", "_")
	return "n_" + r.Replace(id)
}
