package application

// Event は権威側で発生し、クライアントへ複製される変更通知です。
type Event interface {
	isEvent()
}

// StabilityChanged は安定度の値がクランプ後に変化したことを表します。
// Critical はクライアントが危険域のエッジを判定するための閾値です。
type StabilityChanged struct {
	Entity   EntityID
	Previous float64
	Next     float64
	Max      float64
	Critical float64
}

type TimelineChanged struct {
	Entity   EntityID
	Previous TimelineState
	Next     TimelineState
}

// ZoneResized はゾーンの代表寸法が実行時に変更されたことを表します。
type ZoneResized struct {
	Zone   ZoneID
	Extent float64
}

// EntitySpawned は新しいエンティティの初期値を全員に知らせます。
type EntitySpawned struct {
	Entity    EntityID
	Stability float64
	Max       float64
	Critical  float64
	State     TimelineState
}

type EntityDespawned struct {
	Entity EntityID
}

func (StabilityChanged) isEvent() {}
func (TimelineChanged) isEvent()  {}
func (ZoneResized) isEvent()      {}
func (EntitySpawned) isEvent()    {}
func (EntityDespawned) isEvent()  {}

// Outbox は1ティック分の変更通知を発生順に溜めるキューです。
// ルームのゴルーチンが毎ティック Drain して複製メッセージに変換します。
type Outbox struct {
	events []Event
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

// Push は通知を追加します。nil の Outbox への Push は無視されます。
func (o *Outbox) Push(e Event) {
	if o == nil {
		return
	}
	o.events = append(o.events, e)
}

// Drain は溜まった通知を発生順に返し、キューを空にします。
func (o *Outbox) Drain() []Event {
	if o == nil || len(o.events) == 0 {
		return nil
	}
	out := o.events
	o.events = nil
	return out
}

func (o *Outbox) Len() int {
	if o == nil {
		return 0
	}
	return len(o.events)
}
