package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/weft/pkg/domain"
)

// Report renders a graph status as a markdown document.
func Report(st *domain.GraphStatus) string {
	var sb strings.Builder
	if st == nil {
		sb.WriteString("# weft\n\nNo status published yet.\n")
		return sb.String()
	}

	title := st.Project
	if title == "" {
		title = "untitled project"
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)
	fmt.Fprintf(&sb, "Tick **%d**", st.Tick)
	if st.Entry.Ref.IsZero() {
		sb.WriteString(", no entry.\n\n")
	} else {
		state := "unbound"
		if st.Entry.Bound {
			state = "bound"
		}
		fmt.Fprintf(&sb, ", entry `%s.%s` (%s).\n\n", st.Entry.Ref.GUID, st.Entry.Ref.SigName, state)
	}
	if st.LastFault != "" {
		fmt.Fprintf(&sb, "> Last fault: %s\n\n", escape(st.LastFault))
	}

	sb.WriteString("## Nodes\n\n| GUID | Name | Class | Module | State |\n|---|---|---|---|---|\n")
	for _, n := range st.Nodes {
		fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s |\n",
			escape(n.Node.GUID), escape(n.Node.Name), escape(n.Node.Class), escape(n.Node.Module), nodeState(n))
	}

	sb.WriteString("\n## Signals\n\n| Signal | Kind | Patched |\n|---|---|---|\n")
	for _, s := range st.Signals {
		patched := "yes"
		if !s.Patched {
			patched = "no"
			if s.Error != "" {
				patched = "no: " + escape(s.Error)
			}
		}
		fmt.Fprintf(&sb, "| `%s` | %s | %s |\n", s.Signal.Key(), s.Signal.Kind, patched)
	}

	sb.WriteString("\n## Units\n\n| Module | Generation | Classes | Refs | State |\n|---|---|---|---|---|\n")
	for _, u := range st.Units {
		state := "ok"
		if !u.Valid {
			state = "invalid"
			if u.Error != "" {
				state += ": " + escape(u.Error)
			}
		}
		fmt.Fprintf(&sb, "| %s | %d | %s | %d | %s |\n",
			escape(u.Module), u.Generation, escape(strings.Join(u.Classes, ", ")), u.Refs, state)
	}
	return sb.String()
}

func nodeState(n domain.NodeStatus) string {
	switch {
	case n.Valid && n.Inited:
		return "running"
	case n.Valid:
		return "loaded"
	case n.Error != "":
		return "invalid: " + escape(n.Error)
	default:
		return "invalid"
	}
}

func escape(s string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ").Replace(s)
}
