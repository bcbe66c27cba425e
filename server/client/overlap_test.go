package client_test

import (
	"testing"

	"chronoshift/server/application"
	"chronoshift/server/client"
)

func sphereZone(id application.ZoneID, center application.Vec3, radius float64) *application.ZoneEffect {
	return application.NewZoneEffect(application.ZoneSpec{
		ID:        id,
		Transform: application.Transform{Position: center},
		Shape:     application.ShapeSphere{Radius: radius},
	}, application.RoleObserver, nil)
}

func TestOverlapDetector_Edges(t *testing.T) {
	zones := []*application.ZoneEffect{
		sphereZone(1, application.Vec3{}, 5),
		sphereZone(2, application.Vec3{X: 4}, 2),
	}
	d := client.NewOverlapDetector()

	tests := []struct {
		name string
		pos  application.Vec3
		want []client.OverlapEvent
	}{
		{"outside", application.Vec3{X: 20}, nil},
		{"enter both", application.Vec3{X: 4}, []client.OverlapEvent{
			{Zone: 1, Kind: application.RelayEnter},
			{Zone: 2, Kind: application.RelayEnter},
		}},
		{"stay", application.Vec3{X: 4.5}, nil},
		{"leave small", application.Vec3{X: 1}, []client.OverlapEvent{
			{Zone: 2, Kind: application.RelayExit},
		}},
		{"leave all", application.Vec3{X: -10}, []client.OverlapEvent{
			{Zone: 1, Kind: application.RelayExit},
		}},
	}
	for _, tt := range tests {
		got := d.Update(tt.pos, zones)
		if len(got) != len(tt.want) {
			t.Fatalf("%s: events = %v, want %v", tt.name, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%s: events[%d] = %v, want %v", tt.name, i, got[i], tt.want[i])
			}
		}
	}
	if d.Inside() != 0 {
		t.Errorf("Inside = %d, want 0", d.Inside())
	}
}

// 消えたゾーンの中にいた場合は退出が出ることを確認
func TestOverlapDetector_VanishedZoneExits(t *testing.T) {
	d := client.NewOverlapDetector()
	zone := sphereZone(7, application.Vec3{}, 3)

	if got := d.Update(application.Vec3{}, []*application.ZoneEffect{zone}); len(got) != 1 {
		t.Fatalf("expected enter, got %v", got)
	}
	got := d.Update(application.Vec3{}, nil)
	want := client.OverlapEvent{Zone: 7, Kind: application.RelayExit}
	if len(got) != 1 || got[0] != want {
		t.Errorf("events = %v, want [%v]", got, want)
	}
}
