package application_test

import (
	"context"
	"errors"
	"testing"

	"chronoshift/server/application"
	"chronoshift/server/application/mocks"
	"chronoshift/server/domain"

	"go.uber.org/mock/gomock"
)

type relayFixture struct {
	world  *application.World
	zone   *application.ZoneEffect
	owner  domain.SessionID
	entity application.EntityID
}

func newRelayFixture(t *testing.T) *relayFixture {
	t.Helper()
	w := application.NewWorld(application.DefaultWorldConfig(), application.NewOutbox())
	z, err := w.AddZone(application.ZoneSpec{
		ID:                 5,
		Shape:              application.ShapeSphere{Radius: 3},
		DrainRatePerSecond: -10,
	})
	if err != nil {
		t.Fatalf("AddZone failed: %v", err)
	}
	owner := domain.NewSessionID()
	e, _ := w.Spawn(owner)
	return &relayFixture{world: w, zone: z, owner: owner, entity: e.ID}
}

func (f *relayFixture) request(kind application.RelayKind) application.RelayRequest {
	return application.RelayRequest{Sender: f.owner, Zone: 5, Entity: f.entity, Kind: kind}
}

func TestMembershipRelay_TrustAcceptsClaim(t *testing.T) {
	f := newRelayFixture(t)
	// 位置はゾーン外だが trust ポリシーでは受け入れる
	f.world.UpdatePosition(f.entity, application.Vec3{X: 100})
	relay := application.NewMembershipRelay(f.world, application.RelayTrust, nil)
	ctx := context.Background()

	changed, err := relay.Apply(ctx, f.request(application.RelayEnter))
	if err != nil || !changed {
		t.Fatalf("Enter = %v, %v", changed, err)
	}
	changed, err = relay.Apply(ctx, f.request(application.RelayEnter))
	if err != nil || changed {
		t.Fatalf("duplicate Enter = %v, %v; want no change", changed, err)
	}
	if f.zone.Membership().Len() != 1 {
		t.Fatalf("Len = %d, want 1", f.zone.Membership().Len())
	}

	changed, err = relay.Apply(ctx, f.request(application.RelayExit))
	if err != nil || !changed || f.zone.Membership().Len() != 0 {
		t.Fatalf("Exit = %v, %v", changed, err)
	}
}

func TestMembershipRelay_DropsInvalidRequests(t *testing.T) {
	f := newRelayFixture(t)
	relay := application.NewMembershipRelay(f.world, application.RelayTrust, nil)
	ctx := context.Background()

	unknownZone := f.request(application.RelayEnter)
	unknownZone.Zone = 99

	unknownEntity := f.request(application.RelayEnter)
	unknownEntity.Entity = application.EntityIDFromSession(domain.NewSessionID())

	notOwner := f.request(application.RelayEnter)
	notOwner.Sender = domain.NewSessionID()

	tests := []struct {
		name string
		req  application.RelayRequest
		want error
	}{
		{"unknown zone", unknownZone, application.ErrUnknownZone},
		{"unknown entity", unknownEntity, application.ErrUnknownEntity},
		{"not owner", notOwner, application.ErrNotOwner},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changed, err := relay.Apply(ctx, tt.req)
			if !errors.Is(err, tt.want) || changed {
				t.Fatalf("Apply = %v, %v; want %v", changed, err, tt.want)
			}
		})
	}
	if f.zone.Membership().Len() != 0 {
		t.Fatal("invalid requests changed membership")
	}
}

func TestMembershipRelay_DespawnedEntityIsUnknown(t *testing.T) {
	f := newRelayFixture(t)
	relay := application.NewMembershipRelay(f.world, application.RelayTrust, nil)
	f.world.Despawn(f.entity)

	if _, err := relay.Apply(context.Background(), f.request(application.RelayEnter)); !errors.Is(err, application.ErrUnknownEntity) {
		t.Fatalf("got %v, want ErrUnknownEntity", err)
	}
}

func TestMembershipRelay_StrictChecksEnter(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newRelayFixture(t)
	checker := mocks.NewMockContainmentChecker(ctrl)
	relay := application.NewMembershipRelay(f.world, application.RelayStrict, checker)
	ctx := context.Background()

	gomock.InOrder(
		checker.EXPECT().Contains(application.ZoneID(5), f.entity).Return(false, nil),
		checker.EXPECT().Contains(application.ZoneID(5), f.entity).Return(true, nil),
	)

	if _, err := relay.Apply(ctx, f.request(application.RelayEnter)); !errors.Is(err, application.ErrRelayRejected) {
		t.Fatalf("outside Enter: got %v, want ErrRelayRejected", err)
	}
	if changed, err := relay.Apply(ctx, f.request(application.RelayEnter)); err != nil || !changed {
		t.Fatalf("inside Enter = %v, %v", changed, err)
	}
	// 退出は判定なしで受け入れる
	if changed, err := relay.Apply(ctx, f.request(application.RelayExit)); err != nil || !changed {
		t.Fatalf("Exit = %v, %v", changed, err)
	}
}

func TestMembershipRelay_StrictUsesWorldPositionByDefault(t *testing.T) {
	f := newRelayFixture(t)
	relay := application.NewMembershipRelay(f.world, application.RelayStrict, nil)
	ctx := context.Background()

	f.world.UpdatePosition(f.entity, application.Vec3{X: 10})
	if _, err := relay.Apply(ctx, f.request(application.RelayEnter)); !errors.Is(err, application.ErrRelayRejected) {
		t.Fatalf("got %v, want ErrRelayRejected", err)
	}
	f.world.UpdatePosition(f.entity, application.Vec3{X: 2})
	if changed, err := relay.Apply(ctx, f.request(application.RelayEnter)); err != nil || !changed {
		t.Fatalf("Enter = %v, %v", changed, err)
	}
}

func TestParseRelayPolicy(t *testing.T) {
	if p, err := application.ParseRelayPolicy("STRICT"); err != nil || p != application.RelayStrict {
		t.Errorf("got %v, %v", p, err)
	}
	if p, err := application.ParseRelayPolicy(""); err != nil || p != application.RelayTrust {
		t.Errorf("got %v, %v", p, err)
	}
	if _, err := application.ParseRelayPolicy("paranoid"); !errors.Is(err, application.ErrUnknownRelayPolicy) {
		t.Errorf("got %v", err)
	}
}
