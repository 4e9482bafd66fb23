package domain

// Snapshot is the state handed from an outgoing node instance to its replacement.
// Class tags the producer so a consumer can tell where the payload came from.
// A nil *Snapshot means "no state".
type Snapshot struct {
	Class string         `json:"class"`
	Data  map[string]any `json:"data"`
}

// NewSnapshot wraps data produced by an instance of class. Nil data yields nil.
func NewSnapshot(class string, data map[string]any) *Snapshot {
	if data == nil {
		return nil
	}
	return &Snapshot{Class: class, Data: data}
}

// Clone returns a shallow copy so stores and handlers never share the map.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	data := make(map[string]any, len(s.Data))
	for k, v := range s.Data {
		data[k] = v
	}
	return &Snapshot{Class: s.Class, Data: data}
}
