package application

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"chronoshift/server/domain"
)

func TestWorld_AddZoneRejectsInvalidSpecs(t *testing.T) {
	w := NewWorld(DefaultWorldConfig(), NewOutbox())

	if _, err := w.AddZone(ZoneSpec{Shape: ShapeSphere{Radius: 1}}); !errors.Is(err, ErrZoneWithoutID) {
		t.Errorf("missing id: got %v", err)
	}
	if _, err := w.AddZone(ZoneSpec{ID: 1}); !errors.Is(err, ErrZoneWithoutShape) {
		t.Errorf("missing shape: got %v", err)
	}
	if _, err := w.AddZone(drainZone(1, -1)); err != nil {
		t.Fatalf("valid zone: %v", err)
	}
	if _, err := w.AddZone(drainZone(1, -1)); !errors.Is(err, ErrDuplicateZone) {
		t.Errorf("duplicate: got %v", err)
	}
}

func TestWorld_SpawnDespawn(t *testing.T) {
	outbox := NewOutbox()
	w := NewWorld(DefaultWorldConfig(), outbox)
	sid := domain.NewSessionID()

	e, created := w.Spawn(sid)
	if !created || e.ID != EntityIDFromSession(sid) || e.Owner != sid {
		t.Fatalf("Spawn = %+v, created = %v", e, created)
	}
	again, created := w.Spawn(sid)
	if created || again != e {
		t.Fatal("second Spawn should return the existing entity")
	}

	if !w.Despawn(e.ID) {
		t.Fatal("Despawn should report removal")
	}
	if w.Despawn(e.ID) {
		t.Fatal("second Despawn should be a no-op")
	}
	if _, ok := w.Lookup(e.ID); ok {
		t.Fatal("despawned entity still found")
	}

	events := outbox.Drain()
	if len(events) != 2 {
		t.Fatalf("got %d events, want spawn and despawn", len(events))
	}
	if _, ok := events[0].(EntitySpawned); !ok {
		t.Errorf("events[0] = %T", events[0])
	}
	if _, ok := events[1].(EntityDespawned); !ok {
		t.Errorf("events[1] = %T", events[1])
	}
}

func TestWorld_ResetStabilityAndResizeZone(t *testing.T) {
	w := newZoneWorld(t, drainZone(1, -10))
	e, _ := w.Spawn(domain.NewSessionID())

	if err := w.ResetStability(e.ID, 12); err != nil {
		t.Fatalf("ResetStability: %v", err)
	}
	if e.Stability.Current() != 12 {
		t.Fatalf("Current = %v, want 12", e.Stability.Current())
	}
	if err := w.ResetStability(EntityID{9}, 12); !errors.Is(err, ErrUnknownEntity) {
		t.Errorf("unknown entity: got %v", err)
	}

	if err := w.ResizeZone(1, 7); err != nil {
		t.Fatalf("ResizeZone: %v", err)
	}
	if err := w.ResizeZone(99, 7); !errors.Is(err, ErrUnknownZone) {
		t.Errorf("unknown zone: got %v", err)
	}
}

func TestWorld_ContainsUsesLastPosition(t *testing.T) {
	w := newZoneWorld(t, drainZone(1, -10))
	e, _ := w.Spawn(domain.NewSessionID())

	w.UpdatePosition(e.ID, Vec3{1, 1, 1})
	if inside, err := w.Contains(1, e.ID); err != nil || !inside {
		t.Fatalf("Contains = %v, %v; want true", inside, err)
	}
	w.UpdatePosition(e.ID, Vec3{50, 0, 0})
	if inside, err := w.Contains(1, e.ID); err != nil || inside {
		t.Fatalf("Contains = %v, %v; want false", inside, err)
	}
	if _, err := w.Contains(2, e.ID); !errors.Is(err, ErrUnknownZone) {
		t.Errorf("unknown zone: got %v", err)
	}
}

func TestWorld_SweepRemovesMembersOutside(t *testing.T) {
	w := newZoneWorld(t, drainZone(1, -10))
	inside, _ := w.Spawn(domain.NewSessionID())
	outside, _ := w.Spawn(domain.NewSessionID())
	w.UpdatePosition(outside.ID, Vec3{0, 100, 0})

	zone, _ := w.Zone(1)
	zone.Membership().Enter(inside.ID)
	zone.Membership().Enter(outside.ID)

	if n := w.Sweep(context.Background()); n != 1 {
		t.Fatalf("Sweep removed %d, want 1", n)
	}
	if !zone.Membership().Has(inside.ID) || zone.Membership().Has(outside.ID) {
		t.Fatal("Sweep removed the wrong member")
	}
}

func TestWorld_TickAdvancesClockAndTimelines(t *testing.T) {
	cfg := DefaultWorldConfig()
	cfg.Timeline = stochasticConfig(1.0)
	w := NewWorld(cfg, NewOutbox())
	e, _ := w.Spawn(domain.NewSessionID())
	e.Stability.SetStability(30)

	tickSeconds(w, cfg.Timeline.MaxInterval+1)

	if w.Now() < cfg.Timeline.MaxInterval {
		t.Fatalf("Now = %v", w.Now())
	}
	if e.Timeline.State() == TimelinePresent && e.Timeline.NextCheckTime() == 0 {
		t.Fatal("world tick did not drive the stochastic timeline")
	}
}

// 閾値を下回ってから MaxInterval 秒ティックすれば、確率 1 では必ず Present を離れる
func TestWorld_StochasticShiftWithinMaxInterval(t *testing.T) {
	for seed := uint64(0); seed < 200; seed++ {
		cfg := DefaultWorldConfig()
		cfg.Timeline.Mode = TimelineStochastic
		cfg.Timeline.ShiftChance = 1.0
		cfg.Rand = rand.New(rand.NewPCG(seed, seed^0x9e3779b9))
		w := NewWorld(cfg, NewOutbox())
		e, _ := w.Spawn(domain.NewSessionID())
		if err := w.ResetStability(e.ID, 30); err != nil {
			t.Fatal(err)
		}

		tickSeconds(w, cfg.Timeline.MaxInterval)

		if e.Timeline.State() == TimelinePresent {
			t.Fatalf("seed %d: still present after %v seconds", seed, cfg.Timeline.MaxInterval)
		}
	}
}
