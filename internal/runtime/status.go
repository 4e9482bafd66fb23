package runtime

import (
	"sort"
	"time"

	"github.com/aretw0/weft/pkg/domain"
)

// Status returns the view published at the end of the last tick.
// It is safe to call from any goroutine.
func (m *Manager) Status() *domain.GraphStatus {
	return m.status.Load()
}

func (m *Manager) publish() {
	st := &domain.GraphStatus{
		Tick:      m.tick,
		UpdatedAt: time.Now(),
		LastFault: m.lastFault,
		Nodes:     []domain.NodeStatus{},
		Signals:   []domain.SignalStatus{},
		Units:     []domain.UnitStatus{},
	}
	if m.project != nil {
		st.Project = m.project.Name
		st.Entry.Ref = m.project.Entry
		for _, def := range m.project.Nodes {
			if h, ok := m.handlers[def]; ok {
				st.Nodes = append(st.Nodes, h.status())
				continue
			}
			ns := domain.NodeStatus{Node: def}
			if ref, ok := m.units[def.Module]; ok && ref.watcher.Err() != nil {
				ns.Error = ref.watcher.Err().Error()
			}
			st.Nodes = append(st.Nodes, ns)
		}
	}
	st.Entry.Bound = m.entry != nil

	for _, s := range m.sortedSignals() {
		ss := domain.SignalStatus{Signal: s.def, Patched: s.patched}
		if s.err != nil {
			ss.Error = s.err.Error()
		}
		st.Signals = append(st.Signals, ss)
	}

	for module, ref := range m.units {
		us := domain.UnitStatus{
			Module:     module,
			Valid:      ref.watcher.Valid(),
			Generation: ref.watcher.Generation(),
			Classes:    ref.watcher.ClassNames(),
			Refs:       ref.refs,
		}
		if err := ref.watcher.Err(); err != nil {
			us.Error = err.Error()
		}
		st.Units = append(st.Units, us)
	}
	sort.Slice(st.Units, func(i, j int) bool { return st.Units[i].Module < st.Units[j].Module })

	m.status.Store(st)
}
