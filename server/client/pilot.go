package client

import (
	"sync"

	"chronoshift/server/application"
	"chronoshift/server/domain"
)

// Pilot は1接続分のクライアント側の状態です。
// 受信したメッセージを複製に反映し、毎ステップ移動と重なり検出の結果を送信メッセージにします。
type Pilot struct {
	mu sync.Mutex

	sessionID domain.SessionID
	assigned  bool
	seq       uint16

	replica    *Replica
	detector   *OverlapDetector
	controller BotController

	position application.Vec3
	speed    float64 // 毎秒の移動量
	arena    float64 // 各軸の可動範囲
}

// NewPilot は start から動き始めるクライアントを作ります。arena が 0 以下なら可動範囲を制限しません。
func NewPilot(controller BotController, presenter Presenter, start application.Vec3, speed, arena float64) *Pilot {
	return &Pilot{
		replica:    NewReplica(presenter),
		detector:   NewOverlapDetector(),
		controller: controller,
		position:   start,
		speed:      speed,
		arena:      arena,
	}
}

// HandleMessage はサーバーからの1メッセージを処理し、返信すべきメッセージを返します。
func (p *Pilot) HandleMessage(data []byte) ([][]byte, error) {
	frame, err := domain.ParseFrame(data)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch frame.PayloadHeader.DataType {
	case domain.DataTypeControl:
		switch domain.ControlSubType(frame.PayloadHeader.SubType) {
		case domain.ControlSubTypeAssign:
			p.sessionID = domain.SessionIDFromBytes(frame.Header.SessionID)
			p.assigned = true
			p.replica.SetSelf(application.EntityIDFromSession(p.sessionID))
			// RoomID はゼロ値 (デフォルトルーム)
			return [][]byte{domain.EncodeJoinMessage(p.sessionID, domain.RoomID{})}, nil
		case domain.ControlSubTypePing:
			return [][]byte{domain.EncodePongMessage(p.sessionID)}, nil
		}
	case domain.DataTypeReplication:
		return nil, p.replica.Apply(data)
	}
	return nil, nil
}

// Step は dt 秒分動かし、位置の報告とゾーンの出入りの中継を返します。
func (p *Pilot) Step(dt float64) [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.assigned {
		return nil
	}

	self := application.EntityIDFromSession(p.sessionID)
	ratio := 1.0
	if current, limit, ok := p.replica.Stability(self); ok && limit > 0 {
		ratio = current / limit
	}
	zones := p.replica.Zones()

	action := p.controller.Decide(p.position, ratio, zones)
	p.position = p.position.Add(action.MoveDirection.Scale(p.speed * dt))
	if p.arena > 0 {
		p.position.X = clampAxis(p.position.X, p.arena)
		p.position.Z = clampAxis(p.position.Z, p.arena)
	}

	pos := domain.Position{X: float32(p.position.X), Y: float32(p.position.Y), Z: float32(p.position.Z), QW: 1}
	out := [][]byte{p.encode(domain.DataTypeActor, uint8(domain.ActorSubTypeUpdate), pos.Encode())}

	for _, ev := range p.detector.Update(p.position, zones) {
		relay := domain.ZoneRelayPayload{ZoneID: uint16(ev.Zone), EntityID: self.Bytes()}
		subType := domain.ZoneSubTypeEnter
		if ev.Kind == application.RelayExit {
			subType = domain.ZoneSubTypeExit
		}
		out = append(out, p.encode(domain.DataTypeZone, uint8(subType), relay.Encode()))
	}
	return out
}

func (p *Pilot) encode(dataType domain.DataType, subType uint8, payload []byte) []byte {
	p.seq++
	return domain.EncodeMessage(p.sessionID, p.seq, dataType, subType, payload)
}

func (p *Pilot) Position() application.Vec3 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position
}

func (p *Pilot) SessionID() (domain.SessionID, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessionID, p.assigned
}

func clampAxis(v, limit float64) float64 {
	return min(max(v, -limit), limit)
}
