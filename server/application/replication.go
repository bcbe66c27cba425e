package application

import (
	"errors"
	"fmt"

	"chronoshift/server/domain"
)

var ErrUnknownShapeKind = errors.New("unknown shape kind")

// replicator は Outbox の通知を複製メッセージに変換します。
// サーバー発のメッセージはセッション ID を空にして送ります。
type replicator struct {
	world *World
	seq   uint16
}

func (r *replicator) encode(dataType domain.DataType, subType uint8, payload []byte) []byte {
	r.seq++
	return domain.EncodeMessage(domain.SessionID{}, r.seq, dataType, subType, payload)
}

func (r *replicator) encodeEvents(events []Event) [][]byte {
	if len(events) == 0 {
		return nil
	}
	out := make([][]byte, 0, len(events))
	for _, ev := range events {
		out = append(out, r.encodeEvent(ev)...)
	}
	return out
}

func (r *replicator) encodeEvent(ev Event) [][]byte {
	switch e := ev.(type) {
	case StabilityChanged:
		return [][]byte{r.stability(e.Entity, e.Previous, e.Next, e.Max, e.Critical)}
	case TimelineChanged:
		return [][]byte{r.timeline(e.Entity, e.Next)}
	case ZoneResized:
		z, ok := r.world.Zone(e.Zone)
		if !ok {
			return nil
		}
		return [][]byte{r.zoneShape(z)}
	case EntitySpawned:
		return [][]byte{
			r.stability(e.Entity, e.Stability, e.Stability, e.Max, e.Critical),
			r.timeline(e.Entity, e.State),
		}
	case EntityDespawned:
		payload := domain.EntityPayload{EntityID: e.Entity.Bytes()}
		return [][]byte{r.encode(domain.DataTypeReplication, uint8(domain.ReplicationSubTypeDespawn), payload.Encode())}
	default:
		return nil
	}
}

// snapshot は途中参加したセッションに送る現在の全状態です。
func (r *replicator) snapshot() [][]byte {
	zones := r.world.Zones()
	entities := r.world.Entities()
	out := make([][]byte, 0, len(zones)+2*len(entities))
	for _, z := range zones {
		out = append(out, r.zoneShape(z))
	}
	for _, e := range entities {
		cur := e.Stability.Current()
		out = append(out, r.stability(e.ID, cur, cur, e.Stability.Max(), e.Stability.Critical()))
		out = append(out, r.timeline(e.ID, e.Timeline.State()))
	}
	return out
}

func (r *replicator) stability(id EntityID, prev, next, limit, critical float64) []byte {
	payload := domain.StabilityPayload{EntityID: id.Bytes(), Previous: prev, Next: next, Max: limit, Critical: critical}
	return r.encode(domain.DataTypeReplication, uint8(domain.ReplicationSubTypeStability), payload.Encode())
}

func (r *replicator) timeline(id EntityID, state TimelineState) []byte {
	payload := domain.TimelinePayload{EntityID: id.Bytes(), State: uint8(state)}
	return r.encode(domain.DataTypeReplication, uint8(domain.ReplicationSubTypeTimeline), payload.Encode())
}

func (r *replicator) zoneShape(z *ZoneEffect) []byte {
	payload := ZoneShapePayload(z)
	return r.encode(domain.DataTypeReplication, uint8(domain.ReplicationSubTypeZoneShape), payload.Encode())
}

// ZoneShapePayload はゾーンの形状と配置を複製用のペイロードにします。
func ZoneShapePayload(z *ZoneEffect) domain.ZoneShapePayload {
	t := z.Transform()
	p := domain.ZoneShapePayload{
		ZoneID:   uint16(z.ID()),
		Gradient: z.UseIntensityGradient(),
		Center:   [3]float32{float32(t.Position.X), float32(t.Position.Y), float32(t.Position.Z)},
		Rotation: [4]float32{float32(t.Rotation.X), float32(t.Rotation.Y), float32(t.Rotation.Z), float32(t.Rotation.W)},
		Rate:     float32(z.DrainRatePerSecond()),
	}
	switch s := z.Shape().(type) {
	case ShapeSphere:
		p.Kind = uint8(ShapeKindSphere)
		p.Extents = [3]float32{float32(s.Radius), 0, 0}
	case ShapeBox:
		p.Kind = uint8(ShapeKindBox)
		p.Extents = [3]float32{float32(s.HalfExtents.X), float32(s.HalfExtents.Y), float32(s.HalfExtents.Z)}
	case ShapeCapsule:
		p.Kind = uint8(ShapeKindCapsule)
		p.Extents = [3]float32{float32(s.Radius), float32(s.Height), 0}
	}
	return p
}

// ZoneSpecFromPayload は複製されたゾーンをクライアント側で組み立てるための設定に戻します。
// 強度カーブは複製されないため、距離減衰ありのゾーンには線形のカーブを当てます。
func ZoneSpecFromPayload(p *domain.ZoneShapePayload) (ZoneSpec, error) {
	spec := ZoneSpec{
		ID: ZoneID(p.ZoneID),
		Transform: Transform{
			Position: Vec3{float64(p.Center[0]), float64(p.Center[1]), float64(p.Center[2])},
			Rotation: Quat{float64(p.Rotation[0]), float64(p.Rotation[1]), float64(p.Rotation[2]), float64(p.Rotation[3])},
		},
		DrainRatePerSecond:   float64(p.Rate),
		UseIntensityGradient: p.Gradient,
	}
	if p.Gradient {
		spec.Curve = LinearFalloff()
	}
	switch ShapeKind(p.Kind) {
	case ShapeKindSphere:
		spec.Shape = ShapeSphere{Radius: float64(p.Extents[0])}
	case ShapeKindBox:
		spec.Shape = ShapeBox{HalfExtents: Vec3{float64(p.Extents[0]), float64(p.Extents[1]), float64(p.Extents[2])}}
	case ShapeKindCapsule:
		spec.Shape = ShapeCapsule{Radius: float64(p.Extents[0]), Height: float64(p.Extents[1])}
	default:
		return ZoneSpec{}, fmt.Errorf("%w: %d", ErrUnknownShapeKind, p.Kind)
	}
	return spec, nil
}

func positionToVec3(p *domain.Position) Vec3 {
	return Vec3{float64(p.X), float64(p.Y), float64(p.Z)}
}
