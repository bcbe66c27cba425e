package domain

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrSessionAlreadyAttached はセッションに既に接続が紐付けられている場合に返されるエラーです。
	ErrSessionAlreadyAttached = errors.New("session already has an attached connection")
	// ErrBackpressure は書き込みチャネルが満杯の場合に返されるエラーです。
	ErrBackpressure = errors.New("write channel is full, apply backpressure")
	// ErrInitializationFailed はセッションエンドポイントの初期化に失敗した場合に返されるエラーです。
	ErrInitializationFailed = errors.New("failed to initialize session endpoint")
)

// EndpointConfig はセッションエンドポイントの死活監視設定です。
type EndpointConfig struct {
	IdleTimeout  time.Duration // 0 以下ならアイドル切断しない
	PingInterval time.Duration // 0 以下なら ping を送らない
}

func DefaultEndpointConfig() EndpointConfig {
	return EndpointConfig{
		IdleTimeout:  30 * time.Second,
		PingInterval: 5 * time.Second,
	}
}

// SessionEndpoint は1接続分の読み書きと、ルームへの中継を担当します。
// クライアントの入力はここでは解釈せず、ルームのトピックへそのまま転送します。
type SessionEndpoint struct {
	ctx    context.Context
	cancel context.CancelFunc

	session     *Session
	connection  *Connection
	pubsub      PubSub
	roomManager RoomManager
	config      EndpointConfig

	roomMu sync.Mutex
	roomID RoomID // 実行時にRoomManagerから取得

	ctrlCh  chan endpointEvent // 制御用チャネル
	writeCh chan []byte        // 書き込み用チャネル

	// lifecycle
	closed atomic.Bool
}

var _ Sender = (*SessionEndpoint)(nil)

func NewSessionEndpoint(session *Session, connection *Connection, pubsub PubSub, roomManager RoomManager, config EndpointConfig) (*SessionEndpoint, error) {
	if session == nil {
		return nil, ErrInitializationFailed
	}
	if connection == nil {
		return nil, ErrInitializationFailed
	}
	if pubsub == nil {
		return nil, ErrInitializationFailed
	}
	if roomManager == nil {
		return nil, ErrInitializationFailed
	}
	ctx, cancel := context.WithCancel(context.Background())
	se := &SessionEndpoint{
		ctx:         ctx,
		cancel:      cancel,
		session:     session,
		connection:  connection,
		pubsub:      pubsub,
		roomManager: roomManager,
		config:      config,
		ctrlCh:      make(chan endpointEvent, 16),
		writeCh:     make(chan []byte, 1024),
	}
	return se, nil
}

func (se *SessionEndpoint) Run() error {
	// 自分宛のメッセージを購読
	sessionTopic := SessionTopic(se.session.ID())
	msgCh := se.pubsub.Subscribe(sessionTopic)
	defer se.pubsub.Unsubscribe(sessionTopic, msgCh)

	eg, ctx := errgroup.WithContext(se.ctx)
	eg.Go(func() error {
		se.ownerLoop(ctx)
		return nil
	})
	eg.Go(func() error {
		se.readLoop(ctx)
		return nil
	})
	eg.Go(func() error {
		se.writeLoop(ctx)
		return nil
	})
	eg.Go(func() error {
		se.subscribeLoop(ctx, msgCh)
		return nil
	})
	if se.config.PingInterval > 0 {
		hb := NewHeartbeatService(se.config.PingInterval, se.session, se)
		eg.Go(func() error {
			hb.Run(ctx)
			return nil
		})
	}

	// セッションID通知を送信
	if err := se.Send(ctx, EncodeAssignMessage(se.session.ID())); err != nil {
		se.close(CloseNormal, "")
		_ = eg.Wait()
		return err
	}

	return eg.Wait()
}

// Send は書き込みチャネルにデータを積みます。満杯なら ErrBackpressure を返します。
func (se *SessionEndpoint) Send(ctx context.Context, data []byte) error {
	select {
	case se.writeCh <- data:
		return nil
	default:
		return ErrBackpressure
	}
}

func (se *SessionEndpoint) Close(ctx context.Context) {
	se.sendCtrlEvent(ctx, endpointEvent{kind: evClose, err: nil})
}

func (se *SessionEndpoint) ForceClose() {
	se.close(ClosePolicyViolation, "forced")
}

// RoomID は参加中のルームIDを返します。未参加ならゼロ値です。
func (se *SessionEndpoint) RoomID() RoomID {
	se.roomMu.Lock()
	defer se.roomMu.Unlock()
	return se.roomID
}

func (se *SessionEndpoint) setRoomID(id RoomID) {
	se.roomMu.Lock()
	se.roomID = id
	se.roomMu.Unlock()
}

// ownerLoop は論理セッションの状態を監視し、必要に応じて接続の管理を行います。
func (se *SessionEndpoint) ownerLoop(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-se.ctrlCh:
			se.handleControlEvent(ctx, ev)
		case <-ticker.C:
			ok, reason := se.session.IsIdle(se.config.IdleTimeout)
			if ok {
				se.handleControlEvent(ctx, endpointEvent{
					kind: evIdle,
					err:  errors.New("idle: " + reason.String()),
				})
			}
		}
	}
}

func (se *SessionEndpoint) readLoop(ctx context.Context) {
	for {
		data, err := se.connection.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			se.sendCtrlEvent(ctx, endpointEvent{kind: evReadError, err: err})
			return
		}
		se.session.TouchRead()
		se.handleData(ctx, data)
	}
}

func (se *SessionEndpoint) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-se.writeCh:
			err := se.connection.Write(ctx, data)
			if err != nil {
				se.sendCtrlEvent(ctx, endpointEvent{kind: evWriteError, err: err})
				return
			}
			se.session.TouchWrite()
		}
	}
}

// subscribeLoop はpubsubからのメッセージをwriteChに転送します。
func (se *SessionEndpoint) subscribeLoop(ctx context.Context, msgCh <-chan Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgCh:
			if !ok {
				return
			}
			select {
			case se.writeCh <- msg.Data:
				// 送信成功
			default:
				slog.WarnContext(ctx, "subscribeLoop: writeCh full, message dropped", "sessionID", se.session.ID())
			}
		}
	}
}

// close は接続を閉じ、参加中のルームへ離脱を通知します。
// 正常な leave を送らずに切断したクライアントも、ここでルームから取り除かれます。
func (se *SessionEndpoint) close(code CloseCode, reason string) {
	if !se.closed.CompareAndSwap(false, true) {
		return
	}
	if roomID := se.RoomID(); !roomID.IsEmpty() {
		se.pubsub.Publish(context.Background(), RoomCtrlTopic(roomID), Message{
			SessionID: se.session.ID(),
			Data:      EncodeLeaveMessage(se.session.ID()),
		})
		se.setRoomID(RoomID{})
	}
	se.cancel()
	se.session.Close()
	se.connection.Close(code, reason)
}

func (se *SessionEndpoint) handleData(ctx context.Context, data []byte) {
	frame, err := ParseFrame(data)
	if err != nil {
		slog.WarnContext(ctx, "failed to parse frame", "sessionID", se.session.ID(), "err", err)
		return
	}
	if frame.Header.SessionID != se.session.ID().Bytes() {
		slog.WarnContext(ctx, "session ID mismatch", "expected", se.session.ID(), "got", SessionIDFromBytes(frame.Header.SessionID))
		return
	}

	switch frame.PayloadHeader.DataType {
	case DataTypeControl:
		se.handleControlMessage(ctx, ControlSubType(frame.PayloadHeader.SubType), frame, data)
	case DataTypeActor, DataTypeZone:
		// データメッセージをroom topicに転送
		roomID := se.RoomID()
		if roomID.IsEmpty() {
			slog.WarnContext(ctx, "received data message before joining a room", "sessionID", se.session.ID())
			return
		}
		se.pubsub.Publish(ctx, RoomTopic(roomID), Message{
			SessionID: se.session.ID(),
			Data:      data,
		})
	default:
		slog.WarnContext(ctx, "data type not accepted from clients", "sessionID", se.session.ID(), "dataType", frame.PayloadHeader.DataType)
	}
}

func (se *SessionEndpoint) handleControlMessage(ctx context.Context, subType ControlSubType, frame *Frame, data []byte) {
	switch subType {
	case ControlSubTypeJoin:
		if !se.RoomID().IsEmpty() {
			slog.WarnContext(ctx, "session already in a room", "sessionID", se.session.ID(), "roomID", se.RoomID())
			return
		}
		payload, err := ParseJoinPayload(frame.Payload)
		if err != nil {
			slog.WarnContext(ctx, "failed to parse join message", "err", err)
			return
		}
		roomID := payload.RoomID
		// RoomIDが空の場合、RoomManagerからデフォルトルームを取得
		if roomID.IsEmpty() {
			defaultRoomID, err := se.roomManager.GetRoom(ctx, se.session.ID())
			if err != nil {
				slog.ErrorContext(ctx, "failed to get default room", "err", err)
				return
			}
			roomID = defaultRoomID
			slog.DebugContext(ctx, "auto-assigned room", "sessionID", se.session.ID(), "roomID", roomID)
		}
		se.setRoomID(roomID)
		slog.InfoContext(ctx, "session joined room", "sessionID", se.session.ID(), "roomID", roomID)
		se.pubsub.Publish(ctx, RoomCtrlTopic(roomID), Message{SessionID: se.session.ID(), Data: EncodeJoinMessage(se.session.ID(), roomID)})
	case ControlSubTypeLeave:
		roomID := se.RoomID()
		if roomID.IsEmpty() {
			slog.WarnContext(ctx, "session not in any room, cannot leave", "sessionID", se.session.ID())
			return
		}
		se.pubsub.Publish(ctx, RoomCtrlTopic(roomID), Message{SessionID: se.session.ID(), Data: data})
		slog.InfoContext(ctx, "session left room", "sessionID", se.session.ID(), "roomID", roomID)
		se.setRoomID(RoomID{})
	case ControlSubTypePong:
		se.sendCtrlEvent(ctx, endpointEvent{kind: evPong})
	case ControlSubTypePing:
		if err := se.Send(ctx, EncodePongMessage(se.session.ID())); err != nil {
			slog.WarnContext(ctx, "failed to answer ping", "sessionID", se.session.ID(), "err", err)
		}
	default:
		slog.WarnContext(ctx, "unknown control subtype", "sessionID", se.session.ID(), "subType", subType)
	}
}

// handleControlEvent は制御チャネルからのイベントを処理し論理セッションの状態を更新する唯一の関数です。
func (se *SessionEndpoint) handleControlEvent(ctx context.Context, ev endpointEvent) {
	switch ev.kind {
	case evClose, evIdle:
		if ev.err != nil {
			slog.InfoContext(ctx, "closing session", "sessionID", se.session.ID(), "reason", ev.err)
		}
		se.close(ev.closeCode())
	case evPong:
		se.session.TouchPong()
	case evReadError, evWriteError:
		slog.InfoContext(ctx, "connection lost", "sessionID", se.session.ID(), "err", ev.err)
		se.close(ev.closeCode())
	default:
		slog.WarnContext(ctx, "unknown endpoint event kind", "kind", ev.kind)
	}
}

func (se *SessionEndpoint) sendCtrlEvent(ctx context.Context, ev endpointEvent) {
	select {
	case se.ctrlCh <- ev:
	case <-ctx.Done():
	}
}
