package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// SignalKind distinguishes pull-style data edges from push-style exec edges.
type SignalKind string

const (
	// SignalData is pulled by the target: calling the target's input executes the source's output.
	SignalData SignalKind = "data"
	// SignalExec is pushed by the source: firing the source's output executes the target's input.
	SignalExec SignalKind = "exec"
)

// ParseSignalKind accepts the symbolic names and the numeric enumeration (0 = data, 1 = exec).
func ParseSignalKind(raw any) (SignalKind, error) {
	switch v := raw.(type) {
	case SignalKind:
		return ParseSignalKind(string(v))
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "data", "datasignal", "data_signal":
			return SignalData, nil
		case "exec", "execsignal", "exec_signal":
			return SignalExec, nil
		}
		if n, err := strconv.Atoi(v); err == nil {
			return ParseSignalKind(n)
		}
	case int:
		return kindFromOrdinal(int64(v))
	case int64:
		return kindFromOrdinal(v)
	case float64:
		if v == float64(int64(v)) {
			return kindFromOrdinal(int64(v))
		}
	}
	return "", fmt.Errorf("unknown signal kind %v", raw)
}

func kindFromOrdinal(n int64) (SignalKind, error) {
	switch n {
	case 0:
		return SignalData, nil
	case 1:
		return SignalExec, nil
	}
	return "", fmt.Errorf("unknown signal kind %d", n)
}

// NodeDefinition is the identity of a node: a stable guid bound to a class inside a code unit.
// It is a comparable value; two definitions are equal only when guid, name, module and class all match.
type NodeDefinition struct {
	GUID   string `json:"guid" yaml:"guid"`
	Name   string `json:"name" yaml:"name"`
	Module string `json:"module" yaml:"module"`
	Class  string `json:"class" yaml:"class"`
}

func (d NodeDefinition) String() string {
	if d.Name != "" {
		return fmt.Sprintf("%s(%s)", d.Name, d.GUID)
	}
	return d.GUID
}

// SignalKey is the identity of a signal. The kind is deliberately not part of it.
type SignalKey struct {
	Source    string
	Target    string
	SourceSig string
	TargetSig string
}

func (k SignalKey) String() string {
	return fmt.Sprintf("%s.%s->%s.%s", k.Source, k.SourceSig, k.Target, k.TargetSig)
}

// Less orders keys deterministically (used for fan-out order and reporting).
func (k SignalKey) Less(o SignalKey) bool {
	if k.Source != o.Source {
		return k.Source < o.Source
	}
	if k.SourceSig != o.SourceSig {
		return k.SourceSig < o.SourceSig
	}
	if k.Target != o.Target {
		return k.Target < o.Target
	}
	return k.TargetSig < o.TargetSig
}

// SignalDefinition is a directed edge between two node ports.
type SignalDefinition struct {
	Source    string     `json:"source" yaml:"source"`
	Target    string     `json:"target" yaml:"target"`
	SourceSig string     `json:"sourceSigName" yaml:"sourceSigName"`
	TargetSig string     `json:"targetSigName" yaml:"targetSigName"`
	Kind      SignalKind `json:"signalKind" yaml:"signalKind"`
}

// Key returns the equality identity of the signal.
func (s SignalDefinition) Key() SignalKey {
	return SignalKey{Source: s.Source, Target: s.Target, SourceSig: s.SourceSig, TargetSig: s.TargetSig}
}

func (s SignalDefinition) String() string {
	return fmt.Sprintf("%s[%s]", s.Key(), s.Kind)
}

// EntryRef names the node and exec port that start every tick's cascade.
type EntryRef struct {
	GUID    string `json:"guid" yaml:"guid"`
	SigName string `json:"sigName" yaml:"sigName"`
}

// IsZero reports whether no entry was declared.
func (e EntryRef) IsZero() bool {
	return e.GUID == "" && e.SigName == ""
}

// Project is an immutable snapshot of a parsed project description.
// The runtime replaces it wholesale when the description changes.
type Project struct {
	Name    string
	Author  string
	Nodes   []NodeDefinition
	Signals []SignalDefinition
	Entry   EntryRef
}

// Node finds the definition with the given guid.
func (p *Project) Node(guid string) (NodeDefinition, bool) {
	if p == nil {
		return NodeDefinition{}, false
	}
	for _, n := range p.Nodes {
		if n.GUID == guid {
			return n, true
		}
	}
	return NodeDefinition{}, false
}

// NodeSet returns the node definitions as a set.
func (p *Project) NodeSet() map[NodeDefinition]struct{} {
	set := make(map[NodeDefinition]struct{})
	if p == nil {
		return set
	}
	for _, n := range p.Nodes {
		set[n] = struct{}{}
	}
	return set
}

// SignalSet indexes the signal definitions by key. Later duplicates win.
func (p *Project) SignalSet() map[SignalKey]SignalDefinition {
	set := make(map[SignalKey]SignalDefinition)
	if p == nil {
		return set
	}
	for _, s := range p.Signals {
		set[s.Key()] = s
	}
	return set
}

// Modules lists the distinct code unit paths referenced by the project, sorted.
func (p *Project) Modules() []string {
	if p == nil {
		return nil
	}
	seen := make(map[string]bool)
	var mods []string
	for _, n := range p.Nodes {
		if !seen[n.Module] {
			seen[n.Module] = true
			mods = append(mods, n.Module)
		}
	}
	sort.Strings(mods)
	return mods
}
