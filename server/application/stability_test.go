package application

import (
	"math"
	"testing"

	"chronoshift/server/domain"

	"pgregory.net/rapid"
)

func newTestStability(role Role) (*StabilityResource, *Outbox) {
	outbox := NewOutbox()
	s := NewStabilityResource(EntityIDFromSession(domain.NewSessionID()), DefaultStabilityConfig(), role, outbox)
	return s, outbox
}

func TestStabilityResource_StartsAtMax(t *testing.T) {
	s, outbox := newTestStability(RoleAuthority)
	if s.Current() != s.Max() || s.Max() != DefaultMaxStability {
		t.Fatalf("Current = %v, Max = %v; want both %v", s.Current(), s.Max(), DefaultMaxStability)
	}
	if outbox.Len() != 0 {
		t.Fatalf("creation should not notify, got %d events", outbox.Len())
	}
	if s.IsCritical() || s.IsDepleted() {
		t.Fatal("fresh resource should be neither critical nor depleted")
	}
}

func TestStabilityResource_InvalidMaxFallsBackToDefault(t *testing.T) {
	s := NewStabilityResource(EntityID{}, StabilityConfig{Max: math.NaN()}, RoleAuthority, nil)
	if s.Max() != DefaultMaxStability {
		t.Fatalf("Max = %v, want %v", s.Max(), DefaultMaxStability)
	}
}

// どのような加算列でも 0 ≤ current ≤ max が保たれる
func TestStabilityResource_ClampInvariant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s, _ := newTestStability(RoleAuthority)
		deltas := rapid.SliceOf(rapid.Float64Range(-1e6, 1e6)).Draw(t, "deltas")
		for i, d := range deltas {
			s.ModifyStability(d)
			if s.Current() < 0 || s.Current() > s.Max() {
				t.Fatalf("step %d: current %v out of [0, %v]", i, s.Current(), s.Max())
			}
		}
	})
}

// クランプされない限り x と -x の加算で元の値に戻る
func TestStabilityResource_ModifyInverseRestores(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s, _ := newTestStability(RoleAuthority)
		quarters := rapid.IntRange(0, 400).Draw(t, "start")
		start := float64(quarters) / 4
		s.SetStability(start)

		// 4分の1刻みの値は float64 で誤差なく表現できる
		x := float64(rapid.IntRange(-quarters, 400-quarters).Draw(t, "x")) / 4
		s.ModifyStability(x)
		s.ModifyStability(-x)
		if s.Current() != start {
			t.Fatalf("Current = %v, want %v", s.Current(), start)
		}
	})
}

func TestStabilityResource_ClampedStepDoesNotRestore(t *testing.T) {
	s, outbox := newTestStability(RoleAuthority)

	s.ModifyStability(10)
	if s.Current() != s.Max() {
		t.Fatalf("Current = %v, want max", s.Current())
	}
	if outbox.Len() != 0 {
		t.Fatalf("clamped no-op should not notify, got %d events", outbox.Len())
	}

	s.ModifyStability(-10)
	if s.Current() != s.Max()-10 {
		t.Fatalf("Current = %v, want %v", s.Current(), s.Max()-10)
	}
}

func TestStabilityResource_NotifiesOnChange(t *testing.T) {
	s, outbox := newTestStability(RoleAuthority)

	s.SetStability(40)
	s.SetStability(40)
	s.SetStability(-5)

	events := outbox.Drain()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	first := events[0].(StabilityChanged)
	if first.Previous != 100 || first.Next != 40 || first.Max != 100 || first.Entity != s.Entity() {
		t.Errorf("first = %+v", first)
	}
	second := events[1].(StabilityChanged)
	if second.Previous != 40 || second.Next != 0 {
		t.Errorf("second = %+v", second)
	}
	if !s.IsDepleted() || !s.IsCritical() {
		t.Error("zero stability should be depleted and critical")
	}
}

func TestStabilityResource_ObserverIgnoresWrites(t *testing.T) {
	s, outbox := newTestStability(RoleObserver)

	s.ModifyStability(-30)
	s.SetStability(5)

	if s.Current() != s.Max() {
		t.Fatalf("Current = %v, want unchanged max", s.Current())
	}
	if outbox.Len() != 0 {
		t.Fatalf("observer writes should not notify")
	}
}

func TestStabilityResource_IgnoresNaN(t *testing.T) {
	s, outbox := newTestStability(RoleAuthority)
	s.ModifyStability(math.NaN())
	s.SetStability(math.NaN())
	if s.Current() != s.Max() || outbox.Len() != 0 {
		t.Fatalf("NaN should be ignored, current = %v", s.Current())
	}
}

func TestStabilityResource_ReplicatedEdges(t *testing.T) {
	s, _ := newTestStability(RoleObserver)

	steps := []struct {
		value    float64
		critical bool
		depleted bool
	}{
		{80, false, false},
		{20, true, false},  // 危険域に入った
		{10, false, false}, // 危険域のまま
		{50, false, false}, // 回復でラッチ解除
		{25, true, false},  // 再び危険域
		{0, false, true},   // 枯渇
		{0, false, false},  // 0 のまま
		{-3, false, false},
	}

	for i, step := range steps {
		edges := s.ApplyReplicated(step.value, 100, DefaultCriticalThreshold)
		if edges.EnteredCritical != step.critical || edges.Depleted != step.depleted {
			t.Errorf("step %d (%v): edges = %+v, want critical=%v depleted=%v",
				i, step.value, edges, step.critical, step.depleted)
		}
	}
}
