package application

import "math"

// ZoneSpec はレイアウトで配置されるゾーン1つ分の設定です。
type ZoneSpec struct {
	ID                   ZoneID
	Transform            Transform
	Shape                Shape
	DrainRatePerSecond   float64 // 負なら減少、正なら回復
	UseIntensityGradient bool
	Curve                IntensityCurve
}

// EntityLookup はゾーンが毎ティック参照するエンティティの引き当て口です。
type EntityLookup interface {
	Lookup(id EntityID) (*Entity, bool)
}

// ZoneEffect は範囲内のエンティティの安定度を毎秒変化させる空間です。
// 効果を受けるのは membership に登録されたエンティティだけです。
type ZoneEffect struct {
	id        ZoneID
	transform Transform
	shape     Shape
	rate      float64
	gradient  bool
	curve     IntensityCurve

	membership *Membership
	role       Role
	outbox     *Outbox
}

func NewZoneEffect(spec ZoneSpec, role Role, outbox *Outbox) *ZoneEffect {
	if spec.Transform.Rotation == (Quat{}) {
		spec.Transform.Rotation = IdentityQuat
	}
	return &ZoneEffect{
		id:         spec.ID,
		transform:  spec.Transform,
		shape:      spec.Shape,
		rate:       spec.DrainRatePerSecond,
		gradient:   spec.UseIntensityGradient,
		curve:      spec.Curve,
		membership: NewMembership(),
		role:       role,
		outbox:     outbox,
	}
}

func (z *ZoneEffect) ID() ZoneID                  { return z.id }
func (z *ZoneEffect) Shape() Shape                { return z.shape }
func (z *ZoneEffect) Transform() Transform        { return z.transform }
func (z *ZoneEffect) DrainRatePerSecond() float64 { return z.rate }
func (z *ZoneEffect) UseIntensityGradient() bool  { return z.gradient }
func (z *ZoneEffect) Membership() *Membership     { return z.membership }

func (z *ZoneEffect) NormalizedDistance(p Vec3) float64 {
	return NormalizedDistance(z.shape, z.transform, p)
}

func (z *ZoneEffect) Contains(p Vec3) bool {
	return Contains(z.shape, z.transform, p)
}

// Intensity は位置 p での効果の倍率です。距離減衰を使わないゾーンは常に 1 です。
func (z *ZoneEffect) Intensity(p Vec3) float64 {
	if !z.gradient {
		return 1
	}
	return z.curve.Evaluate(z.NormalizedDistance(p))
}

// Tick は dt 秒分の効果を適用し、取り除いた古いエンティティを返します。
// 削除済みのエンティティは効果を適用する前に必ず取り除かれます。
func (z *ZoneEffect) Tick(dt float64, entities EntityLookup) []EntityID {
	if z.role != RoleAuthority {
		return nil
	}
	pruned := z.membership.Prune(func(id EntityID) bool {
		e, ok := entities.Lookup(id)
		return ok && e.Alive()
	})
	if dt <= 0 || z.rate == 0 {
		return pruned
	}
	for _, id := range z.membership.Members() {
		e, _ := entities.Lookup(id)
		e.Stability.ModifyStability(z.rate * z.Intensity(e.Position) * dt)
	}
	return pruned
}

// SetRadius は代表寸法を extent に変更し、変更を複製します。権威側以外では何もしません。
func (z *ZoneEffect) SetRadius(extent float64) {
	if z.role != RoleAuthority || z.shape == nil {
		return
	}
	if !(extent > 0) || math.IsInf(extent, 0) || extent == z.shape.Extent() {
		return
	}
	z.shape = Resize(z.shape, extent)
	z.outbox.Push(ZoneResized{Zone: z.id, Extent: extent})
}

// ApplyResize は権威側から複製された寸法を反映します。
func (z *ZoneEffect) ApplyResize(extent float64) {
	if z.shape == nil || !(extent > 0) || math.IsInf(extent, 0) {
		return
	}
	z.shape = Resize(z.shape, extent)
}
