package handler

import (
	"errors"
	"log/slog"
	"net/http"

	adapterwebsocket "chronoshift/server/adapter/websocket"
	"chronoshift/server/auth"
	"chronoshift/server/domain"

	"github.com/coder/websocket"
)

// TokenVerifier はセッショントークンを検証します。
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, domain.SessionID, error)
}

type AcceptHandler struct {
	pubsub      domain.PubSub
	roomManager domain.RoomManager
	verifier    TokenVerifier
	sessions    *domain.SessionRegistry
	config      domain.EndpointConfig
}

// NewAcceptHandler は WebSocket の受け口を作ります。verifier が nil なら認証せず新しいセッションを払い出します。
// 同じセッションへの2本目の接続は、1本目が切断されるまで 409 で拒否します。
func NewAcceptHandler(pubsub domain.PubSub, roomManager domain.RoomManager, verifier TokenVerifier, config domain.EndpointConfig) *AcceptHandler {
	return &AcceptHandler{
		pubsub:      pubsub,
		roomManager: roomManager,
		verifier:    verifier,
		sessions:    domain.NewSessionRegistry(),
		config:      config,
	}
}

func (h *AcceptHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session := domain.NewSession()
	if h.verifier != nil {
		token, err := bearerToken(r)
		if err != nil {
			httpError(w, http.StatusUnauthorized, err)
			return
		}
		_, sessionID, err := h.verifier.Verify(token)
		if err != nil {
			slog.WarnContext(ctx, "rejected session token", "err", err)
			httpError(w, http.StatusUnauthorized, err)
			return
		}
		session = domain.NewSessionWithID(sessionID)
	}

	if err := h.sessions.Attach(session.ID()); err != nil {
		if errors.Is(err, domain.ErrSessionAlreadyAttached) {
			slog.WarnContext(ctx, "session already connected", "sessionID", session.ID())
			httpError(w, http.StatusConflict, err)
			return
		}
		httpError(w, http.StatusInternalServerError, err)
		return
	}
	// Run は離脱通知を発行してから戻るので、Detach 後の再接続は離脱より後に参加する
	defer h.sessions.Detach(session.ID())

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // 開発用: Origin チェックをスキップ
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to accept", "err", err)
		return
	}

	transport := adapterwebsocket.NewTransportFrom(conn)
	connection := domain.NewConnection(session.ID(), transport)
	endpoint, err := domain.NewSessionEndpoint(session, connection, h.pubsub, h.roomManager, h.config)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create session endpoint", "err", err)
		_ = conn.Close(websocket.StatusInternalError, "initialization failed")
		return
	}
	slog.DebugContext(ctx, "accepted new connection", "sessionID", session.ID())
	if err := endpoint.Run(); err != nil {
		slog.ErrorContext(ctx, "failed to run session endpoint", "err", err)
		return
	}
}
