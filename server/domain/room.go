package domain

import (
	"context"
	"log/slog"
	"time"
)

const (
	DefaultTickHz = 60
	// maxCatchupTicks は1ティックで進める最大の経過時間（ティック数換算）です。
	maxCatchupTicks = 4
)

// Room は権威側のシミュレーションを1ゴルーチンで回すルームです。
// Application の状態はこのゴルーチンからのみ変更されます。
type Room struct {
	ID       RoomID
	sessions map[SessionID]struct{}

	pubsub      PubSub
	application Application // 外部からアプリケーションロジックを注入できる

	tickInterval time.Duration
	now          func() time.Time
}

func NewRoom(id RoomID, pubsub PubSub, application Application, tickHz int) *Room {
	if tickHz <= 0 {
		tickHz = DefaultTickHz
	}
	return &Room{
		ID:           id,
		sessions:     make(map[SessionID]struct{}),
		pubsub:       pubsub,
		application:  application,
		tickInterval: time.Second / time.Duration(tickHz),
		now:          time.Now,
	}
}

func (r *Room) Broadcast(ctx context.Context, data []byte) {
	for sessionID := range r.sessions {
		r.pubsub.Publish(ctx, SessionTopic(sessionID), Message{Data: data})
	}
}

func (r *Room) SendTo(ctx context.Context, sessionID SessionID, data []byte) {
	r.pubsub.Publish(ctx, SessionTopic(sessionID), Message{Data: data})
}

// NumSessions は参加中のセッション数を返します。ルームのゴルーチン以外から呼んではいけません。
func (r *Room) NumSessions() int {
	return len(r.sessions)
}

func (r *Room) Run(ctx context.Context) error {
	// room宛のメッセージを購読
	msgCh := r.pubsub.Subscribe(RoomTopic(r.ID))
	defer r.pubsub.Unsubscribe(RoomTopic(r.ID), msgCh)

	// room制御用トピックを購読（join/leave）
	ctrlCh := r.pubsub.Subscribe(RoomCtrlTopic(r.ID))
	defer r.pubsub.Unsubscribe(RoomCtrlTopic(r.ID), ctrlCh)

	ticker := time.NewTicker(r.tickInterval)
	defer ticker.Stop()

	budget := r.tickInterval.Seconds()
	maxDelta := budget * maxCatchupTicks
	last := r.now()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			now := r.now()
			delta := now.Sub(last).Seconds()
			last = now
			if delta <= 0 {
				delta = budget
			} else if delta > maxDelta {
				slog.DebugContext(ctx, "room tick delta clamped", "roomID", r.ID, "delta", delta, "max", maxDelta)
				delta = maxDelta
			}
			r.step(ctx, ctrlCh, msgCh, delta)
		}
	}
}

// step は1ティック分の処理を行います。
// 制御メッセージ -> 受信メッセージ -> Application.Tick -> ブロードキャストの順で処理します。
func (r *Room) step(ctx context.Context, ctrlCh, msgCh <-chan Message, delta float64) {
CTRL_LOOP:
	for {
		select {
		case ctrl, ok := <-ctrlCh:
			if !ok {
				break CTRL_LOOP
			}
			r.handleControlMessage(ctx, ctrl)
		default:
			break CTRL_LOOP
		}
	}
RECEIVE_LOOP:
	for {
		select {
		case msg, ok := <-msgCh:
			if !ok {
				break RECEIVE_LOOP
			}
			r.handleMessage(ctx, msg)
		default:
			break RECEIVE_LOOP
		}
	}
	for _, data := range r.application.Tick(ctx, delta) {
		r.Broadcast(ctx, data)
	}
}

func (r *Room) handleMessage(ctx context.Context, msg Message) {
	// SessionIDが空のメッセージはサーバー内部（管理API）から届いたもの
	if !msg.SessionID.IsEmpty() {
		if _, ok := r.sessions[msg.SessionID]; !ok {
			slog.WarnContext(ctx, "message from session not in room", "roomID", r.ID, "sessionID", msg.SessionID)
			return
		}
	}
	// アプリケーションロジックが担当する
	if err := r.application.HandleMessage(ctx, msg.SessionID, msg.Data); err != nil {
		slog.WarnContext(ctx, "room handle message failed", "roomID", r.ID, "sessionID", msg.SessionID, "err", err)
	}
}

// handleControlMessage はjoin/leave制御メッセージを処理します。
func (r *Room) handleControlMessage(ctx context.Context, msg Message) {
	frame, err := ParseFrame(msg.Data)
	if err != nil {
		slog.WarnContext(ctx, "room: invalid control message", "err", err)
		return
	}
	if frame.PayloadHeader.DataType != DataTypeControl {
		slog.WarnContext(ctx, "room: unexpected data type on control topic", "dataType", frame.PayloadHeader.DataType)
		return
	}
	switch ControlSubType(frame.PayloadHeader.SubType) {
	case ControlSubTypeJoin:
		if _, ok := r.sessions[msg.SessionID]; ok {
			return
		}
		r.sessions[msg.SessionID] = struct{}{}
		for _, data := range r.application.Join(ctx, msg.SessionID) {
			r.SendTo(ctx, msg.SessionID, data)
		}
		slog.InfoContext(ctx, "room: session joined", "roomID", r.ID, "sessionID", msg.SessionID, "sessions", len(r.sessions))
	case ControlSubTypeLeave:
		if _, ok := r.sessions[msg.SessionID]; !ok {
			return
		}
		delete(r.sessions, msg.SessionID)
		r.application.Leave(ctx, msg.SessionID)
		slog.InfoContext(ctx, "room: session left", "roomID", r.ID, "sessionID", msg.SessionID, "sessions", len(r.sessions))
	default:
		slog.WarnContext(ctx, "room: unknown control subtype", "subType", frame.PayloadHeader.SubType)
	}
}
