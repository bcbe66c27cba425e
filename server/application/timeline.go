package application

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
)

// TimelineState はプレイヤーが属する時間軸です。
type TimelineState uint8

const (
	TimelinePast    TimelineState = 0
	TimelinePresent TimelineState = 1
	TimelineFuture  TimelineState = 2
)

func (s TimelineState) String() string {
	switch s {
	case TimelinePast:
		return "past"
	case TimelinePresent:
		return "present"
	case TimelineFuture:
		return "future"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

func (s TimelineState) Valid() bool {
	return s <= TimelineFuture
}

type TimelineMode uint8

const (
	// TimelineDeterministic は安定度の帯域から状態を決めます。
	TimelineDeterministic TimelineMode = iota
	// TimelineStochastic は安定度が閾値を下回っている間、ランダムに時間軸を移動させます。
	TimelineStochastic
)

var (
	ErrUnknownTimelineMode   = errors.New("unknown timeline mode")
	ErrInvalidTimelineConfig = errors.New("invalid timeline config")
)

func ParseTimelineMode(s string) (TimelineMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "deterministic":
		return TimelineDeterministic, nil
	case "stochastic":
		return TimelineStochastic, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownTimelineMode, s)
	}
}

func (m TimelineMode) String() string {
	if m == TimelineStochastic {
		return "stochastic"
	}
	return "deterministic"
}

type TimelineConfig struct {
	Mode TimelineMode

	// 決定的モード: PresentThreshold 以上で Present、PastThreshold 未満で Past、その間は Future
	PresentThreshold float64
	PastThreshold    float64

	// 確率的モード: ShiftThreshold 未満の間だけ MinInterval〜MaxInterval 秒ごとに判定する
	ShiftThreshold float64
	ShiftChance    float64
	MinInterval    float64
	MaxInterval    float64
}

func DefaultTimelineConfig() TimelineConfig {
	return TimelineConfig{
		Mode:             TimelineDeterministic,
		PresentThreshold: 60,
		PastThreshold:    20,
		ShiftThreshold:   50,
		ShiftChance:      0.3,
		MinInterval:      5,
		MaxInterval:      15,
	}
}

// Validate は閾値と判定間隔の大小関係、確率の範囲を確認します。
func (c TimelineConfig) Validate() error {
	switch {
	case c.PastThreshold > c.PresentThreshold:
		return fmt.Errorf("%w: past threshold %v above present threshold %v", ErrInvalidTimelineConfig, c.PastThreshold, c.PresentThreshold)
	case !(c.ShiftChance >= 0 && c.ShiftChance <= 1):
		return fmt.Errorf("%w: shift chance %v outside [0, 1]", ErrInvalidTimelineConfig, c.ShiftChance)
	case !(c.MinInterval >= 0) || !(c.MaxInterval >= c.MinInterval):
		return fmt.Errorf("%w: interval [%v, %v]", ErrInvalidTimelineConfig, c.MinInterval, c.MaxInterval)
	}
	return nil
}

// TimelineMachine は安定度を観測してプレイヤーの時間軸を決める状態機械です。
// 状態の書き込みは権威側のみで、変化は Outbox を通して複製されます。
type TimelineMachine struct {
	entity EntityID
	cfg    TimelineConfig
	role   Role
	outbox *Outbox
	rng    *rand.Rand
	clock  func() float64

	state     TimelineState
	stability float64

	lastTick      float64
	scheduled     bool
	nextCheckTime float64
}

var _ StabilityObserver = (*TimelineMachine)(nil)

// NewTimelineMachine は Present 状態の状態機械を生成します。
// rng が nil の場合は確率的モードの判定にプロセス共有の乱数を使います。
// clock はワールドの現在時刻を返します。nil なら最後に Tick された時刻を使います。
func NewTimelineMachine(entity EntityID, cfg TimelineConfig, role Role, rng *rand.Rand, clock func() float64, outbox *Outbox, stability float64) *TimelineMachine {
	if cfg.MaxInterval < cfg.MinInterval {
		cfg.MinInterval, cfg.MaxInterval = cfg.MaxInterval, cfg.MinInterval
	}
	return &TimelineMachine{
		entity:    entity,
		cfg:       cfg,
		role:      role,
		outbox:    outbox,
		rng:       rng,
		clock:     clock,
		state:     TimelinePresent,
		stability: stability,
	}
}

func (m *TimelineMachine) State() TimelineState { return m.state }
func (m *TimelineMachine) Mode() TimelineMode   { return m.cfg.Mode }

// NextCheckTime は次の確率判定の時刻を返します。0 なら未スケジュールです。
func (m *TimelineMachine) NextCheckTime() float64 {
	if !m.scheduled {
		return 0
	}
	return m.nextCheckTime
}

// StabilityChanged は安定度の変化ごとに呼ばれます。
func (m *TimelineMachine) StabilityChanged(previous, next, limit float64) {
	m.stability = next
	if m.role != RoleAuthority {
		return
	}
	switch m.cfg.Mode {
	case TimelineDeterministic:
		m.transition(m.band(next))
	case TimelineStochastic:
		// 閾値を下回った時点から判定間隔を数える
		if !m.applyForced() && !m.scheduled {
			m.schedule(m.now())
		}
	}
}

// Tick は確率的モードの判定を進めます。now はワールドのシミュレーション時刻（秒）です。
func (m *TimelineMachine) Tick(now float64) {
	m.lastTick = now
	if m.role != RoleAuthority || m.cfg.Mode != TimelineStochastic {
		return
	}
	if m.applyForced() {
		return
	}
	if m.stability >= m.cfg.ShiftThreshold {
		return
	}
	if !m.scheduled {
		m.schedule(now)
		return
	}
	if now < m.nextCheckTime {
		return
	}

	if m.draw() < m.cfg.ShiftChance {
		target := TimelineFuture
		if m.draw() < 0.5 {
			target = TimelinePast
		}
		m.transition(target)
	} else if m.draw() < 0.5 {
		m.transition(TimelinePresent)
	}
	m.schedule(now)
}

// applyForced は安定度による強制遷移を行い、判定を打ち切るべきなら true を返します。
func (m *TimelineMachine) applyForced() bool {
	if m.stability <= 0 {
		m.transition(TimelinePast)
		return true
	}
	if m.stability >= m.cfg.ShiftThreshold {
		if m.state != TimelinePresent {
			m.transition(TimelinePresent)
		}
		m.scheduled = false
		return true
	}
	return false
}

func (m *TimelineMachine) band(stability float64) TimelineState {
	switch {
	case stability >= m.cfg.PresentThreshold:
		return TimelinePresent
	case stability >= m.cfg.PastThreshold:
		return TimelineFuture
	default:
		return TimelinePast
	}
}

func (m *TimelineMachine) schedule(now float64) {
	m.scheduled = true
	m.nextCheckTime = now + m.cfg.MinInterval + m.draw()*(m.cfg.MaxInterval-m.cfg.MinInterval)
}

func (m *TimelineMachine) now() float64 {
	if m.clock == nil {
		return m.lastTick
	}
	return m.clock()
}

func (m *TimelineMachine) transition(next TimelineState) bool {
	if next == m.state {
		return false
	}
	prev := m.state
	m.state = next
	m.outbox.Push(TimelineChanged{Entity: m.entity, Previous: prev, Next: next})
	return true
}

func (m *TimelineMachine) draw() float64 {
	if m.rng == nil {
		return rand.Float64()
	}
	return m.rng.Float64()
}

// ApplyReplicated は権威側から届いた状態を複製として反映し、変化したかを返します。
func (m *TimelineMachine) ApplyReplicated(next TimelineState) bool {
	if !next.Valid() || next == m.state {
		return false
	}
	m.state = next
	return true
}
