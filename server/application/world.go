package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"

	"chronoshift/server/domain"
)

var (
	ErrUnknownZone      = errors.New("unknown zone")
	ErrUnknownEntity    = errors.New("unknown entity")
	ErrDuplicateZone    = errors.New("duplicate zone id")
	ErrZoneWithoutShape = errors.New("zone has no shape")
	ErrZoneWithoutID    = errors.New("zone has no id")
)

// Entity はワールド上のプレイヤー1人分のレコードです。
// 安定度と時間軸は生成時に組み立てられ、以後差し替えられません。
type Entity struct {
	ID        EntityID
	Owner     domain.SessionID
	Position  Vec3
	Stability *StabilityResource
	Timeline  *TimelineMachine

	destroyed bool
}

// Alive はエンティティが削除されていないかを返します。
func (e *Entity) Alive() bool {
	return e != nil && !e.destroyed
}

type WorldConfig struct {
	Role      Role
	Stability StabilityConfig
	Timeline  TimelineConfig
	// Rand は確率的モードの乱数源です。nil ならプロセス共有の乱数を使います。
	Rand *rand.Rand
}

func DefaultWorldConfig() WorldConfig {
	return WorldConfig{
		Role:      RoleAuthority,
		Stability: DefaultStabilityConfig(),
		Timeline:  DefaultTimelineConfig(),
	}
}

// World はエンティティとゾーンを保持するアリーナです。
// ルームのゴルーチンからのみ操作されるためロックを持ちません。
type World struct {
	cfg      WorldConfig
	outbox   *Outbox
	entities map[EntityID]*Entity
	zones    map[ZoneID]*ZoneEffect
	now      float64
}

var _ EntityLookup = (*World)(nil)
var _ ContainmentChecker = (*World)(nil)

func NewWorld(cfg WorldConfig, outbox *Outbox) *World {
	return &World{
		cfg:      cfg,
		outbox:   outbox,
		entities: make(map[EntityID]*Entity),
		zones:    make(map[ZoneID]*ZoneEffect),
	}
}

// Now はワールドのシミュレーション時刻（秒）です。
func (w *World) Now() float64 { return w.now }

func (w *World) Outbox() *Outbox { return w.outbox }

// AddZone はゾーンを配置します。
func (w *World) AddZone(spec ZoneSpec) (*ZoneEffect, error) {
	if spec.ID == 0 {
		return nil, ErrZoneWithoutID
	}
	if spec.Shape == nil {
		return nil, fmt.Errorf("%w: zone %d", ErrZoneWithoutShape, spec.ID)
	}
	if _, ok := w.zones[spec.ID]; ok {
		return nil, fmt.Errorf("%w: %d", ErrDuplicateZone, spec.ID)
	}
	z := NewZoneEffect(spec, w.cfg.Role, w.outbox)
	w.zones[spec.ID] = z
	return z, nil
}

func (w *World) Zone(id ZoneID) (*ZoneEffect, bool) {
	z, ok := w.zones[id]
	return z, ok
}

// Zones は ID 順に並べたゾーンを返します。
func (w *World) Zones() []*ZoneEffect {
	out := make([]*ZoneEffect, 0, len(w.zones))
	for _, z := range w.zones {
		out = append(out, z)
	}
	slices.SortFunc(out, func(a, b *ZoneEffect) int { return int(a.id) - int(b.id) })
	return out
}

// Spawn はセッションのプレイヤーエンティティを生成します。既に存在すればそれを返します。
func (w *World) Spawn(owner domain.SessionID) (*Entity, bool) {
	id := EntityIDFromSession(owner)
	if e, ok := w.entities[id]; ok {
		return e, false
	}
	stability := NewStabilityResource(id, w.cfg.Stability, w.cfg.Role, w.outbox)
	timeline := NewTimelineMachine(id, w.cfg.Timeline, w.cfg.Role, w.cfg.Rand, w.Now, w.outbox, stability.Current())
	stability.Observe(timeline)

	e := &Entity{
		ID:        id,
		Owner:     owner,
		Stability: stability,
		Timeline:  timeline,
	}
	w.entities[id] = e
	w.outbox.Push(EntitySpawned{
		Entity:    id,
		Stability: stability.Current(),
		Max:       stability.Max(),
		Critical:  stability.Critical(),
		State:     timeline.State(),
	})
	return e, true
}

// Despawn はエンティティを削除します。ゾーンの集合からは次のティックで取り除かれます。
func (w *World) Despawn(id EntityID) bool {
	e, ok := w.entities[id]
	if !ok {
		return false
	}
	e.destroyed = true
	delete(w.entities, id)
	w.outbox.Push(EntityDespawned{Entity: id})
	return true
}

func (w *World) Lookup(id EntityID) (*Entity, bool) {
	e, ok := w.entities[id]
	if !ok || !e.Alive() {
		return nil, false
	}
	return e, true
}

// Entities は ID 順に並べた生存中のエンティティを返します。
func (w *World) Entities() []*Entity {
	out := make([]*Entity, 0, len(w.entities))
	for _, e := range w.entities {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b *Entity) int {
		switch {
		case a.ID.less(b.ID):
			return -1
		case b.ID.less(a.ID):
			return 1
		default:
			return 0
		}
	})
	return out
}

// UpdatePosition はクライアントが報告したエンティティの位置を記録します。
func (w *World) UpdatePosition(id EntityID, p Vec3) bool {
	e, ok := w.Lookup(id)
	if !ok {
		return false
	}
	e.Position = p
	return true
}

// Tick はシミュレーションを dt 秒進めます。
// ゾーンの効果を ID 順に適用した後、確率的モードの時間軸判定を行います。
func (w *World) Tick(ctx context.Context, dt float64) {
	if dt < 0 {
		dt = 0
	}
	w.now += dt
	for _, z := range w.Zones() {
		if pruned := z.Tick(dt, w); len(pruned) > 0 {
			slog.DebugContext(ctx, "zone pruned stale members", "zoneID", z.ID(), "count", len(pruned))
		}
	}
	for _, e := range w.Entities() {
		e.Timeline.Tick(w.now)
	}
}

// ResetStability は管理操作として安定度を直接設定します。
func (w *World) ResetStability(id EntityID, value float64) error {
	e, ok := w.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, id)
	}
	e.Stability.SetStability(value)
	return nil
}

// ResizeZone は管理操作としてゾーンの代表寸法を変更します。
func (w *World) ResizeZone(id ZoneID, extent float64) error {
	z, ok := w.zones[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownZone, id)
	}
	z.SetRadius(extent)
	return nil
}

// Contains はエンティティの最後に報告された位置がゾーンの内側にあるかを返します。
func (w *World) Contains(zone ZoneID, entity EntityID) (bool, error) {
	z, ok := w.zones[zone]
	if !ok {
		return false, fmt.Errorf("%w: %d", ErrUnknownZone, zone)
	}
	e, ok := w.Lookup(entity)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}
	return z.Contains(e.Position), nil
}

// Sweep は位置がゾーンの外側にあるメンバーを取り除き、取り除いた数を返します。
// 退出の通知が届かなかった切断済みクライアントの取りこぼしを回収します。
func (w *World) Sweep(ctx context.Context) int {
	removed := 0
	for _, z := range w.Zones() {
		for _, id := range z.membership.Members() {
			e, ok := w.Lookup(id)
			if ok && z.Contains(e.Position) {
				continue
			}
			z.membership.Exit(id)
			removed++
			slog.DebugContext(ctx, "sweep removed member", "zoneID", z.ID(), "entityID", id)
		}
	}
	return removed
}
