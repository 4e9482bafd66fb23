package domain_test

import (
	"context"
	"testing"

	"github.com/aretw0/weft/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestLifecycleHooks_Merge(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{
		OnTick: func(context.Context, *domain.TickEvent) { calls = append(calls, "a.tick") },
	}
	b := domain.LifecycleHooks{
		OnTick:      func(context.Context, *domain.TickEvent) { calls = append(calls, "b.tick") },
		OnNodeFault: func(context.Context, *domain.FaultEvent) { calls = append(calls, "b.fault") },
	}

	merged := a.Merge(b)
	merged.OnTick(context.Background(), &domain.TickEvent{})
	merged.OnNodeFault(context.Background(), &domain.FaultEvent{})

	assert.Equal(t, []string{"a.tick", "b.tick", "b.fault"}, calls)
	assert.Nil(t, merged.OnUnitLoad)
	assert.Nil(t, domain.LifecycleHooks{}.Merge(domain.LifecycleHooks{}).OnSignalPatch)
}
