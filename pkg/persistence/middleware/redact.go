package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/ports"
)

// Masked replaces redacted values.
const Masked = "***"

type redactMiddleware struct {
	next     ports.SnapshotStore
	patterns []*regexp.Regexp
}

// NewRedactMiddleware masks snapshot values whose keys match any pattern, at any depth.
// The live handler keeps its unmasked state; only the stored copy is altered.
func NewRedactMiddleware(patterns []string) (Middleware, error) {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		compiled[i] = re
	}
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &redactMiddleware{next: next, patterns: compiled}
	}, nil
}

func (m *redactMiddleware) Save(ctx context.Context, guid string, snap *domain.Snapshot) error {
	if snap == nil {
		return m.next.Save(ctx, guid, snap)
	}
	cloned := &domain.Snapshot{Class: snap.Class, Data: deepCopyMap(snap.Data)}
	maskMap(cloned.Data, m.patterns)
	return m.next.Save(ctx, guid, cloned)
}

func (m *redactMiddleware) Load(ctx context.Context, guid string) (*domain.Snapshot, error) {
	return m.next.Load(ctx, guid)
}

func (m *redactMiddleware) Delete(ctx context.Context, guid string) error {
	return m.next.Delete(ctx, guid)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if sub, ok := v.(map[string]any); ok {
			out[k] = deepCopyMap(sub)
		} else {
			out[k] = v
		}
	}
	return out
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		masked := false
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = Masked
				masked = true
				break
			}
		}
		if sub, ok := v.(map[string]any); ok && !masked {
			maskMap(sub, patterns)
		}
	}
}
