package client_test

import (
	"context"
	"errors"
	"testing"

	"chronoshift/server/application"
	"chronoshift/server/client"
	"chronoshift/server/client/mocks"
	"chronoshift/server/domain"

	"go.uber.org/mock/gomock"
)

func replicationMessage(st domain.ReplicationSubType, payload []byte) []byte {
	return domain.EncodeMessage(domain.SessionID{}, 0, domain.DataTypeReplication, uint8(st), payload)
}

func stabilityMessage(id application.EntityID, next, limit float64) []byte {
	return stabilityMessageWithCritical(id, next, limit, application.DefaultCriticalThreshold)
}

func stabilityMessageWithCritical(id application.EntityID, next, limit, critical float64) []byte {
	p := domain.StabilityPayload{EntityID: id.Bytes(), Next: next, Max: limit, Critical: critical}
	return replicationMessage(domain.ReplicationSubTypeStability, p.Encode())
}

func timelineMessage(id application.EntityID, state application.TimelineState) []byte {
	p := domain.TimelinePayload{EntityID: id.Bytes(), State: uint8(state)}
	return replicationMessage(domain.ReplicationSubTypeTimeline, p.Encode())
}

func sphereMessage(id uint16, radius float32) []byte {
	p := domain.ZoneShapePayload{
		ZoneID:   id,
		Kind:     uint8(application.ShapeKindSphere),
		Rotation: [4]float32{0, 0, 0, 1},
		Extents:  [3]float32{radius, 0, 0},
		Rate:     -5,
	}
	return replicationMessage(domain.ReplicationSubTypeZoneShape, p.Encode())
}

func newEntityID() application.EntityID {
	return application.EntityIDFromSession(domain.NewSessionID())
}

func mustApply(t *testing.T, r *client.Replica, msg []byte) {
	t.Helper()
	if err := r.Apply(msg); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
}

// 自分のエンティティについて、危険域と枯渇は入った瞬間に一度だけ通知されることを確認
func TestReplica_StabilityEdgesForSelf(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockPresenter(ctrl)

	self := newEntityID()
	r := client.NewReplica(p)
	r.SetSelf(self)

	gomock.InOrder(
		p.EXPECT().OnStabilityUpdated(80.0, 100.0),
		p.EXPECT().OnStabilityUpdated(20.0, 100.0),
		p.EXPECT().OnCriticalStability(),
		p.EXPECT().OnStabilityUpdated(10.0, 100.0),
		p.EXPECT().OnStabilityUpdated(0.0, 100.0),
		p.EXPECT().OnStabilityDepleted(),
	)

	for _, v := range []float64{80, 20, 10, 0} {
		mustApply(t, r, stabilityMessage(self, v, 100))
	}

	current, limit, ok := r.Stability(self)
	if !ok || current != 0 || limit != 100 {
		t.Errorf("Stability = (%v, %v, %v), want (0, 100, true)", current, limit, ok)
	}
}

// 他人のエンティティは複製されるが Presenter には通知されないことを確認
func TestReplica_OtherEntitiesAreSilent(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockPresenter(ctrl)

	r := client.NewReplica(p)
	r.SetSelf(newEntityID())

	other := newEntityID()
	mustApply(t, r, stabilityMessage(other, 5, 100))
	mustApply(t, r, timelineMessage(other, application.TimelinePast))

	if current, _, ok := r.Stability(other); !ok || current != 5 {
		t.Errorf("other stability = %v (ok=%v), want 5", current, ok)
	}
	if state, ok := r.Timeline(other); !ok || state != application.TimelinePast {
		t.Errorf("other timeline = %v (ok=%v), want past", state, ok)
	}
}

func TestReplica_TimelineTransitionOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockPresenter(ctrl)

	self := newEntityID()
	r := client.NewReplica(p)
	r.SetSelf(self)

	p.EXPECT().OnTimelineTransition(application.TimelineFuture).Times(1)

	mustApply(t, r, timelineMessage(self, application.TimelinePresent))
	mustApply(t, r, timelineMessage(self, application.TimelineFuture))
	mustApply(t, r, timelineMessage(self, application.TimelineFuture))
}

func TestReplica_ZoneShapeAndDespawn(t *testing.T) {
	r := client.NewReplica(nil)

	mustApply(t, r, sphereMessage(2, 3))
	mustApply(t, r, sphereMessage(1, 5))
	second := r.Zones()[1]
	mustApply(t, r, sphereMessage(2, 8))

	zones := r.Zones()
	if len(zones) != 2 {
		t.Fatalf("len(Zones) = %d, want 2", len(zones))
	}
	if zones[0].ID() != 1 || zones[1].ID() != 2 {
		t.Errorf("zones not sorted: %d, %d", zones[0].ID(), zones[1].ID())
	}
	if got := zones[1].Shape().Extent(); got != 8 {
		t.Errorf("zone 2 extent = %v, want 8", got)
	}
	if zones[1] != second {
		t.Error("resize of an existing zone should update it in place")
	}

	id := newEntityID()
	mustApply(t, r, stabilityMessage(id, 50, 100))
	despawn := domain.EntityPayload{EntityID: id.Bytes()}
	mustApply(t, r, replicationMessage(domain.ReplicationSubTypeDespawn, despawn.Encode()))
	if _, _, ok := r.Stability(id); ok {
		t.Error("despawned entity should be removed")
	}
}

func TestReplica_RejectsInvalidMessages(t *testing.T) {
	r := client.NewReplica(nil)

	ping := domain.EncodePingMessage(domain.NewSessionID())
	if err := r.Apply(ping); !errors.Is(err, client.ErrNotReplication) {
		t.Errorf("ping: got %v, want ErrNotReplication", err)
	}
	if err := r.Apply(replicationMessage(domain.ReplicationSubTypeStability, []byte{1, 2})); !errors.Is(err, domain.ErrInvalidStabilitySize) {
		t.Errorf("short stability: got %v", err)
	}
	bad := domain.ZoneShapePayload{ZoneID: 1, Kind: 9}
	if err := r.Apply(replicationMessage(domain.ReplicationSubTypeZoneShape, bad.Encode())); !errors.Is(err, application.ErrUnknownShapeKind) {
		t.Errorf("unknown shape: got %v", err)
	}
	if err := r.Apply(replicationMessage(99, nil)); err == nil {
		t.Error("unknown subtype should fail")
	}
}

// 参加時のスナップショットだけでクライアント側の状態が揃うことを確認
func TestReplica_ConvergesFromJoinSnapshot(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockPresenter(ctrl)

	app := application.NewTemporalApplication(context.Background(), application.Config{
		World: application.DefaultWorldConfig(),
		Zones: []application.ZoneSpec{
			{ID: 1, Shape: application.ShapeSphere{Radius: 5}, DrainRatePerSecond: -10},
			{ID: 2, Shape: application.ShapeBox{HalfExtents: application.Vec3{X: 1, Y: 2, Z: 3}}, DrainRatePerSecond: 5},
		},
	})

	sid := domain.NewSessionID()
	self := application.EntityIDFromSession(sid)
	r := client.NewReplica(p)
	r.SetSelf(self)

	p.EXPECT().OnStabilityUpdated(application.DefaultMaxStability, application.DefaultMaxStability)

	for _, msg := range app.Join(context.Background(), sid) {
		mustApply(t, r, msg)
	}

	if got := len(r.Zones()); got != 2 {
		t.Errorf("len(Zones) = %d, want 2", got)
	}
	if box, ok := r.Zones()[1].Shape().(application.ShapeBox); !ok || box.HalfExtents.Z != 3 {
		t.Errorf("zone 2 shape = %#v", r.Zones()[1].Shape())
	}
	if state, ok := r.Timeline(self); !ok || state != application.TimelinePresent {
		t.Errorf("timeline = %v (ok=%v), want present", state, ok)
	}
}

// 権威側で設定した危険域の閾値が複製され、クライアントのエッジ判定に使われることを確認
func TestReplica_CriticalThresholdFollowsAuthority(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockPresenter(ctrl)
	ctx := context.Background()

	world := application.DefaultWorldConfig()
	world.Stability.CriticalThreshold = 40
	app := application.NewTemporalApplication(ctx, application.Config{World: world})

	sid := domain.NewSessionID()
	self := application.EntityIDFromSession(sid)
	r := client.NewReplica(p)
	r.SetSelf(self)

	// 参加時のスナップショットと、次のティックで配信される生成通知の2回
	gomock.InOrder(
		p.EXPECT().OnStabilityUpdated(100.0, 100.0).Times(2),
		p.EXPECT().OnStabilityUpdated(35.0, 100.0),
		p.EXPECT().OnCriticalStability(),
	)
	p.EXPECT().OnTimelineTransition(gomock.Any()).AnyTimes()

	for _, msg := range app.Join(ctx, sid) {
		mustApply(t, r, msg)
	}
	if err := app.World().ResetStability(self, 35); err != nil {
		t.Fatal(err)
	}
	for _, msg := range app.Tick(ctx, 1.0/60) {
		mustApply(t, r, msg)
	}
}

func TestReplica_ReplicatedCriticalThreshold(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockPresenter(ctrl)

	self := newEntityID()
	r := client.NewReplica(p)
	r.SetSelf(self)

	gomock.InOrder(
		p.EXPECT().OnStabilityUpdated(35.0, 50.0),
		p.EXPECT().OnCriticalStability(),
	)
	mustApply(t, r, stabilityMessageWithCritical(self, 35, 50, 40))
}

// 形状の種類が変わった複製は既存の効果を置き換えることを確認
func TestReplica_ZoneKindChangeRebuilds(t *testing.T) {
	r := client.NewReplica(nil)
	mustApply(t, r, sphereMessage(1, 3))
	before := r.Zones()[0]

	box := domain.ZoneShapePayload{
		ZoneID:   1,
		Kind:     uint8(application.ShapeKindBox),
		Rotation: [4]float32{0, 0, 0, 1},
		Extents:  [3]float32{1, 2, 3},
		Rate:     -5,
	}
	mustApply(t, r, replicationMessage(domain.ReplicationSubTypeZoneShape, box.Encode()))

	after := r.Zones()[0]
	if after == before {
		t.Fatal("kind change should rebuild the zone")
	}
	if _, ok := after.Shape().(application.ShapeBox); !ok {
		t.Errorf("shape = %#v, want box", after.Shape())
	}
}
