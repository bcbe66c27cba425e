package client

import (
	"errors"
	"fmt"
	"slices"

	"chronoshift/server/application"
	"chronoshift/server/domain"
)

var ErrNotReplication = errors.New("not a replication message")

// Replica は権威側から複製された値の読み取り専用コピーです。
// 自分のエンティティの変化だけを Presenter に通知します。
type Replica struct {
	self      application.EntityID
	hasSelf   bool
	presenter Presenter

	zones     map[application.ZoneID]*application.ZoneEffect
	stability map[application.EntityID]*application.StabilityResource
	timelines map[application.EntityID]*application.TimelineMachine
}

func NewReplica(presenter Presenter) *Replica {
	return &Replica{
		presenter: presenter,
		zones:     make(map[application.ZoneID]*application.ZoneEffect),
		stability: make(map[application.EntityID]*application.StabilityResource),
		timelines: make(map[application.EntityID]*application.TimelineMachine),
	}
}

// SetSelf は assign で通知された自分のエンティティを設定します。
func (r *Replica) SetSelf(id application.EntityID) {
	r.self = id
	r.hasSelf = true
}

func (r *Replica) Self() (application.EntityID, bool) {
	return r.self, r.hasSelf
}

// Apply は複製メッセージを1つ反映します。
func (r *Replica) Apply(data []byte) error {
	frame, err := domain.ParseFrame(data)
	if err != nil {
		return err
	}
	if frame.PayloadHeader.DataType != domain.DataTypeReplication {
		return ErrNotReplication
	}

	switch domain.ReplicationSubType(frame.PayloadHeader.SubType) {
	case domain.ReplicationSubTypeStability:
		p, err := domain.ParseStabilityPayload(frame.Payload)
		if err != nil {
			return err
		}
		r.applyStability(application.EntityIDFromBytes(p.EntityID), p.Next, p.Max, p.Critical)
	case domain.ReplicationSubTypeTimeline:
		p, err := domain.ParseTimelinePayload(frame.Payload)
		if err != nil {
			return err
		}
		r.applyTimeline(application.EntityIDFromBytes(p.EntityID), application.TimelineState(p.State))
	case domain.ReplicationSubTypeZoneShape:
		p, err := domain.ParseZoneShapePayload(frame.Payload)
		if err != nil {
			return err
		}
		return r.applyZone(p)
	case domain.ReplicationSubTypeDespawn:
		p, err := domain.ParseEntityPayload(frame.Payload)
		if err != nil {
			return err
		}
		id := application.EntityIDFromBytes(p.EntityID)
		delete(r.stability, id)
		delete(r.timelines, id)
	default:
		return fmt.Errorf("unknown replication subtype %d", frame.PayloadHeader.SubType)
	}
	return nil
}

func (r *Replica) applyStability(id application.EntityID, next, limit, critical float64) {
	res, ok := r.stability[id]
	if !ok {
		res = application.NewStabilityResource(id, application.StabilityConfig{
			Max:               limit,
			CriticalThreshold: critical,
		}, application.RoleObserver, nil)
		r.stability[id] = res
	}
	edges := res.ApplyReplicated(next, limit, critical)
	if !r.isSelf(id) || r.presenter == nil {
		return
	}
	r.presenter.OnStabilityUpdated(res.Current(), res.Max())
	if edges.EnteredCritical {
		r.presenter.OnCriticalStability()
	}
	if edges.Depleted {
		r.presenter.OnStabilityDepleted()
	}
}

func (r *Replica) applyTimeline(id application.EntityID, state application.TimelineState) {
	tm, ok := r.timelines[id]
	if !ok {
		tm = application.NewTimelineMachine(id, application.DefaultTimelineConfig(), application.RoleObserver, nil, nil, nil, 0)
		r.timelines[id] = tm
	}
	if tm.ApplyReplicated(state) && r.isSelf(id) && r.presenter != nil {
		r.presenter.OnTimelineTransition(state)
	}
}

func (r *Replica) applyZone(p *domain.ZoneShapePayload) error {
	spec, err := application.ZoneSpecFromPayload(p)
	if err != nil {
		return err
	}
	// 同じゾーンの寸法変更だけなら既存の効果に反映し、それ以外は作り直す
	if z, ok := r.zones[spec.ID]; ok && sameZoneExceptExtent(z, spec) {
		z.ApplyResize(spec.Shape.Extent())
		return nil
	}
	r.zones[spec.ID] = application.NewZoneEffect(spec, application.RoleObserver, nil)
	return nil
}

func sameZoneExceptExtent(z *application.ZoneEffect, spec application.ZoneSpec) bool {
	t := spec.Transform
	if t.Rotation == (application.Quat{}) {
		t.Rotation = application.IdentityQuat
	}
	return z.Shape() != nil &&
		z.Shape().Kind() == spec.Shape.Kind() &&
		z.Transform() == t &&
		z.DrainRatePerSecond() == spec.DrainRatePerSecond &&
		z.UseIntensityGradient() == spec.UseIntensityGradient
}

func (r *Replica) isSelf(id application.EntityID) bool {
	return r.hasSelf && id == r.self
}

// Zones は ID 順に並べた複製済みのゾーンを返します。
func (r *Replica) Zones() []*application.ZoneEffect {
	out := make([]*application.ZoneEffect, 0, len(r.zones))
	for _, z := range r.zones {
		out = append(out, z)
	}
	slices.SortFunc(out, func(a, b *application.ZoneEffect) int { return int(a.ID()) - int(b.ID()) })
	return out
}

// Stability は複製された安定度を返します。
func (r *Replica) Stability(id application.EntityID) (current, max float64, ok bool) {
	res, ok := r.stability[id]
	if !ok {
		return 0, 0, false
	}
	return res.Current(), res.Max(), true
}

func (r *Replica) Timeline(id application.EntityID) (application.TimelineState, bool) {
	tm, ok := r.timelines[id]
	if !ok {
		return application.TimelinePresent, false
	}
	return tm.State(), true
}
