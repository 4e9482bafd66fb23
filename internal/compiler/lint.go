package compiler

import (
	"fmt"

	"github.com/aretw0/weft/pkg/domain"
)

// Severity ranks lint findings.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Issue is a non-fatal finding about a project. The runtime tolerates all of
// them; they only explain why part of the graph will stay inert.
type Issue struct {
	Severity Severity
	Subject  string
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Subject, i.Message)
}

// Lint reports dangling endpoints, self loops, data inputs fed twice and entry problems.
func Lint(p *domain.Project) []Issue {
	var issues []Issue
	guids := make(map[string]bool, len(p.Nodes))
	for _, n := range p.Nodes {
		guids[n.GUID] = true
	}

	fed := make(map[string]domain.SignalKey)
	for _, s := range p.Signals {
		key := s.Key()
		subject := key.String()
		if !guids[s.Source] {
			issues = append(issues, Issue{SeverityError, subject, fmt.Sprintf("source %q is not a node", s.Source)})
		}
		if !guids[s.Target] {
			issues = append(issues, Issue{SeverityError, subject, fmt.Sprintf("target %q is not a node", s.Target)})
		}
		if s.Source == s.Target {
			issues = append(issues, Issue{SeverityWarning, subject, "signal loops back to its own node"})
		}
		if s.Kind == domain.SignalData {
			slot := s.Target + "." + s.TargetSig
			if prev, ok := fed[slot]; ok {
				issues = append(issues, Issue{SeverityError, subject, fmt.Sprintf("data input already fed by %s", prev)})
			} else {
				fed[slot] = key
			}
		}
	}

	switch {
	case p.Entry.IsZero():
		issues = append(issues, Issue{SeverityWarning, "entry", "no entry point declared, nothing will execute"})
	case !guids[p.Entry.GUID]:
		issues = append(issues, Issue{SeverityError, "entry", fmt.Sprintf("entry node %q is not a node", p.Entry.GUID)})
	case p.Entry.SigName == "":
		issues = append(issues, Issue{SeverityError, "entry", "entry has no signal name"})
	}
	return issues
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}
