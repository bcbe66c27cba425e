package client

import (
	"math"
	"math/rand/v2"

	"chronoshift/server/application"
)

const (
	botNoiseAngle float64 = 0.52 // ±30度 (π/6 ≈ 0.52 rad)
	wanderChance  float64 = 0.02 // 毎tick 2% の確率で目標を無視して徘徊
)

// BotAction はボットの1tick分の行動です。MoveDirection は XZ 平面上の単位ベクトルです。
type BotAction struct {
	MoveDirection application.Vec3
}

// BotController はボットの意思決定インターフェースです。
type BotController interface {
	Decide(self application.Vec3, stabilityRatio float64, zones []*application.ZoneEffect) BotAction
}

// RuleBotController はルールベースのボットAIです。
// 安定度に余裕があるうちはゾーンへ近づき、危険域に入ると離れます。
type RuleBotController struct {
	RetreatRatio float64 // ゾーンから離れ始める安定度の割合
	OrbitRange   float64 // ゾーン外周を回り始める正規化距離
	StrafeSign   float64 // +1: 反時計回り, -1: 時計回り

	rng *rand.Rand
}

var _ BotController = (*RuleBotController)(nil)

// NewRuleBotController はランダムな個性を持つボットAIを生成します。
// rng が nil の場合はプロセス共有の乱数を使います。
func NewRuleBotController(rng *rand.Rand) *RuleBotController {
	r := &RuleBotController{rng: rng}
	strafeSign := 1.0
	if r.draw() < 0.5 {
		strafeSign = -1.0
	}
	r.RetreatRatio = 0.3 + r.draw()*0.3 // 0.3〜0.6
	r.OrbitRange = 0.4 + r.draw()*0.4   // 0.4〜0.8
	r.StrafeSign = strafeSign
	return r
}

func (r *RuleBotController) Decide(self application.Vec3, stabilityRatio float64, zones []*application.ZoneEffect) BotAction {
	nearest := nearestZone(self, zones)
	if nearest == nil || r.draw() < wanderChance {
		return BotAction{MoveDirection: r.wander()}
	}

	center := nearest.Transform().Position
	dx := center.X - self.X
	dz := center.Z - self.Z
	dist := math.Hypot(dx, dz)
	if dist < 0.001 {
		// 中心に重なっている場合は適当な方向へ抜ける
		return BotAction{MoveDirection: r.wander()}
	}
	nx := dx / dist
	nz := dz / dist

	var dir application.Vec3
	switch {
	case stabilityRatio < r.RetreatRatio:
		// 危険域: 離脱
		dir = application.Vec3{X: -nx, Z: -nz}
	case nearest.NormalizedDistance(self) < r.OrbitRange:
		// ゾーン内: 外周を回る
		dir = application.Vec3{X: -nz * r.StrafeSign, Z: nx * r.StrafeSign}
	default:
		// 接近
		dir = application.Vec3{X: nx, Z: nz}
	}
	return BotAction{MoveDirection: r.addNoise(dir)}
}

func nearestZone(self application.Vec3, zones []*application.ZoneEffect) *application.ZoneEffect {
	var nearest *application.ZoneEffect
	nearestDistSq := math.MaxFloat64
	for _, z := range zones {
		c := z.Transform().Position
		dx := c.X - self.X
		dz := c.Z - self.Z
		if d := dx*dx + dz*dz; d < nearestDistSq {
			nearestDistSq = d
			nearest = z
		}
	}
	return nearest
}

func (r *RuleBotController) wander() application.Vec3 {
	angle := r.draw() * 2 * math.Pi
	return application.Vec3{X: math.Cos(angle), Z: math.Sin(angle)}
}

// addNoise は移動方向に ±30度 のランダムノイズを加えます。
func (r *RuleBotController) addNoise(dir application.Vec3) application.Vec3 {
	noise := (r.draw()*2 - 1) * botNoiseAngle
	cos := math.Cos(noise)
	sin := math.Sin(noise)
	return application.Vec3{
		X: dir.X*cos - dir.Z*sin,
		Z: dir.X*sin + dir.Z*cos,
	}
}

func (r *RuleBotController) draw() float64 {
	if r.rng == nil {
		return rand.Float64()
	}
	return r.rng.Float64()
}
