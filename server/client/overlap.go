package client

import "chronoshift/server/application"

// OverlapEvent は自分のエンティティがゾーンに出入りした瞬間です。
type OverlapEvent struct {
	Zone application.ZoneID
	Kind application.RelayKind
}

// OverlapDetector はクライアント側で自分の位置とゾーンの重なりを追跡します。
// 検出結果は権威側へ中継されるだけで、ここでは何も書き込みません。
type OverlapDetector struct {
	inside map[application.ZoneID]bool
}

func NewOverlapDetector() *OverlapDetector {
	return &OverlapDetector{inside: make(map[application.ZoneID]bool)}
}

// Update は現在位置 pos で重なりを判定し、侵入/退出のエッジを ID 順に返します。
// 消えたゾーンに入っていた場合は退出として扱います。
func (d *OverlapDetector) Update(pos application.Vec3, zones []*application.ZoneEffect) []OverlapEvent {
	var events []OverlapEvent
	seen := make(map[application.ZoneID]bool, len(zones))
	for _, z := range zones {
		id := z.ID()
		seen[id] = true
		in := z.Contains(pos)
		if in == d.inside[id] {
			continue
		}
		if in {
			d.inside[id] = true
			events = append(events, OverlapEvent{Zone: id, Kind: application.RelayEnter})
		} else {
			delete(d.inside, id)
			events = append(events, OverlapEvent{Zone: id, Kind: application.RelayExit})
		}
	}
	for id := range d.inside {
		if !seen[id] {
			delete(d.inside, id)
			events = append(events, OverlapEvent{Zone: id, Kind: application.RelayExit})
		}
	}
	return events
}

// Inside は現在重なっているゾーンの数を返します。
func (d *OverlapDetector) Inside() int {
	return len(d.inside)
}
