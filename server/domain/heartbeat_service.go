package domain

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Sender は1セッション宛の送信口です。
type Sender interface {
	Send(ctx context.Context, data []byte) error
}

// HeartbeatService は定期的にpingメッセージを送信する死活監視サービスです。
// pong の受信時刻は Session に記録され、SessionEndpoint のアイドル判定に使われます。
type HeartbeatService struct {
	pingInterval time.Duration
	session      *Session
	sender       Sender
}

// NewHeartbeatService は新しいHeartbeatServiceを生成します。
func NewHeartbeatService(pingInterval time.Duration, session *Session, sender Sender) *HeartbeatService {
	return &HeartbeatService{
		pingInterval: pingInterval,
		session:      session,
		sender:       sender,
	}
}

// Run はpingInterval間隔でpingメッセージを送信します。
// ctxがキャンセルされると終了します。送信口が満杯の場合は ping を捨てて次の周期を待ちます。
func (h *HeartbeatService) Run(ctx context.Context) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := h.sender.Send(ctx, EncodePingMessage(h.session.ID()))
			switch {
			case err == nil:
				slog.DebugContext(ctx, "heartbeat: ping sent", "sessionID", h.session.ID())
			case errors.Is(err, ErrBackpressure):
				slog.WarnContext(ctx, "heartbeat: send queue full, ping dropped", "sessionID", h.session.ID())
			default:
				slog.WarnContext(ctx, "heartbeat: ping failed", "sessionID", h.session.ID(), "err", err)
			}
		}
	}
}
