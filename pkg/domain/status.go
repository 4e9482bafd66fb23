package domain

import "time"

// NodeStatus is the published view of one node handler.
type NodeStatus struct {
	Node   NodeDefinition `json:"node"`
	Valid  bool           `json:"valid"`
	Inited bool           `json:"inited"`
	Loaded bool           `json:"loaded"`
	Error  string         `json:"error,omitempty"`
}

// SignalStatus is the published view of one signal.
type SignalStatus struct {
	Signal  SignalDefinition `json:"signal"`
	Patched bool             `json:"patched"`
	Error   string           `json:"error,omitempty"`
}

// UnitStatus is the published view of one code unit watcher.
type UnitStatus struct {
	Module     string   `json:"module"`
	Valid      bool     `json:"valid"`
	Generation int      `json:"generation"`
	Classes    []string `json:"classes,omitempty"`
	Refs       int      `json:"refs"`
	Error      string   `json:"error,omitempty"`
}

// EntryStatus is the published view of the entry binding.
type EntryStatus struct {
	Ref   EntryRef `json:"ref"`
	Bound bool     `json:"bound"`
}

// GraphStatus is an immutable view of the live graph, rebuilt after every tick.
type GraphStatus struct {
	Project   string         `json:"project"`
	Tick      uint64         `json:"tick"`
	UpdatedAt time.Time      `json:"updated_at"`
	Nodes     []NodeStatus   `json:"nodes"`
	Signals   []SignalStatus `json:"signals"`
	Units     []UnitStatus   `json:"units"`
	Entry     EntryStatus    `json:"entry"`
	LastFault string         `json:"last_fault,omitempty"`
}

// NodeByGUID looks up a node's status.
func (s *GraphStatus) NodeByGUID(guid string) (NodeStatus, bool) {
	if s == nil {
		return NodeStatus{}, false
	}
	for _, n := range s.Nodes {
		if n.Node.GUID == guid {
			return n, true
		}
	}
	return NodeStatus{}, false
}
