package application

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidStabilityConfig = errors.New("invalid stability config")

const (
	DefaultMaxStability      = 100.0
	DefaultCriticalThreshold = 25.0
)

type StabilityConfig struct {
	Max               float64
	CriticalThreshold float64
}

func DefaultStabilityConfig() StabilityConfig {
	return StabilityConfig{
		Max:               DefaultMaxStability,
		CriticalThreshold: DefaultCriticalThreshold,
	}
}

// Validate は max が正の有限値で、危険域の閾値が [0, max] にあることを確認します。
func (c StabilityConfig) Validate() error {
	if !(c.Max > 0) || math.IsInf(c.Max, 0) {
		return fmt.Errorf("%w: max %v", ErrInvalidStabilityConfig, c.Max)
	}
	if !(c.CriticalThreshold >= 0 && c.CriticalThreshold <= c.Max) {
		return fmt.Errorf("%w: critical threshold %v outside [0, %v]", ErrInvalidStabilityConfig, c.CriticalThreshold, c.Max)
	}
	return nil
}

// StabilityObserver は権威側で安定度が変化したときに同じティック内で呼ばれます。
type StabilityObserver interface {
	StabilityChanged(previous, next, limit float64)
}

// StabilityResource はプレイヤー1人分の時間安定度です。
// 値は常に [0, max] に収まり、書き込みは権威側でのみ有効です。
type StabilityResource struct {
	entity      EntityID
	current     float64
	max         float64
	critical    float64
	wasCritical bool
	role        Role

	outbox    *Outbox
	observers []StabilityObserver
}

// NewStabilityResource は current = max で安定度を生成します。
func NewStabilityResource(entity EntityID, cfg StabilityConfig, role Role, outbox *Outbox) *StabilityResource {
	limit := cfg.Max
	if !(limit > 0) || math.IsInf(limit, 0) {
		limit = DefaultMaxStability
	}
	return &StabilityResource{
		entity:   entity,
		current:  limit,
		max:      limit,
		critical: cfg.CriticalThreshold,
		role:     role,
		outbox:   outbox,
	}
}

// Observe は変化通知の受け取り手を登録します。エンティティの組み立て時にのみ呼びます。
func (s *StabilityResource) Observe(o StabilityObserver) {
	s.observers = append(s.observers, o)
}

func (s *StabilityResource) Entity() EntityID { return s.entity }
func (s *StabilityResource) Current() float64 { return s.current }
func (s *StabilityResource) Max() float64     { return s.max }
func (s *StabilityResource) Critical() float64 { return s.critical }
func (s *StabilityResource) Role() Role       { return s.role }

func (s *StabilityResource) IsCritical() bool {
	return s.current <= s.critical
}

func (s *StabilityResource) IsDepleted() bool {
	return s.current <= 0
}

// ModifyStability は delta を加算してクランプします。権威側以外では何もしません。
func (s *StabilityResource) ModifyStability(delta float64) {
	if s.role != RoleAuthority {
		return
	}
	s.set(s.current + delta)
}

// SetStability は値を直接設定してクランプします。権威側以外では何もしません。
func (s *StabilityResource) SetStability(value float64) {
	if s.role != RoleAuthority {
		return
	}
	s.set(value)
}

func (s *StabilityResource) set(value float64) {
	if math.IsNaN(value) {
		return
	}
	prev := s.current
	next := clamp(value, 0, s.max)
	if next == prev {
		return
	}
	s.current = next
	s.outbox.Push(StabilityChanged{Entity: s.entity, Previous: prev, Next: next, Max: s.max, Critical: s.critical})
	for _, o := range s.observers {
		o.StabilityChanged(prev, next, s.max)
	}
}

// StabilityEdges は複製値の適用で発生したエッジを表します。
type StabilityEdges struct {
	EnteredCritical bool
	Depleted        bool
}

// ApplyReplicated は権威側から届いた値と閾値を複製として反映します。
// 所有クライアントが UI イベントを出すためのエッジを返します。
func (s *StabilityResource) ApplyReplicated(next, limit, critical float64) StabilityEdges {
	if limit > 0 && !math.IsInf(limit, 0) {
		s.max = limit
	}
	if critical >= 0 && !math.IsInf(critical, 0) {
		s.critical = critical
	}
	if math.IsNaN(next) {
		return StabilityEdges{}
	}
	prev := s.current
	s.current = clamp(next, 0, s.max)

	var edges StabilityEdges
	isCritical := s.IsCritical()
	if isCritical && !s.wasCritical {
		edges.EnteredCritical = true
	}
	s.wasCritical = isCritical
	if prev > 0 && s.current <= 0 {
		edges.Depleted = true
	}
	return edges
}
