package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"chronoshift/server/domain"
	"chronoshift/utils"
)

var ErrInvalidAdminRequest = errors.New("invalid admin request")

// AdminVerifier は管理者トークンを検証します。
type AdminVerifier interface {
	VerifyAdmin(token string) error
}

// AdminHandler は管理コマンドをルームへ中継します。
// 結果は待たず、受け付けた時点で 202 を返します。
type AdminHandler struct {
	verifier AdminVerifier
	pubsub   domain.PubSub
	roomID   domain.RoomID
}

func NewAdminHandler(verifier AdminVerifier, pubsub domain.PubSub, roomID domain.RoomID) *AdminHandler {
	return &AdminHandler{verifier: verifier, pubsub: pubsub, roomID: roomID}
}

// RequireAdmin は管理者トークンのないリクエストを弾きます。
func (h *AdminHandler) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err != nil {
			httpError(w, http.StatusUnauthorized, err)
			return
		}
		if err := h.verifier.VerifyAdmin(token); err != nil {
			slog.WarnContext(r.Context(), "admin request rejected", "err", err)
			httpError(w, http.StatusForbidden, err)
			return
		}
		next(w, r)
	}
}

func (h *AdminHandler) HandleResetStability(w http.ResponseWriter, r *http.Request) {
	var payload ResetStabilityPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httpError(w, http.StatusBadRequest, err)
		return
	}
	entity, err := domain.ParseSessionID(payload.Entity)
	if err != nil {
		httpError(w, http.StatusBadRequest, fmt.Errorf("%w: entity: %w", ErrInvalidAdminRequest, err))
		return
	}
	if !utils.IsFinite(payload.Value) {
		httpError(w, http.StatusBadRequest, fmt.Errorf("%w: value must be finite", ErrInvalidAdminRequest))
		return
	}
	req := domain.ResetStabilityRequest{EntityID: entity.Bytes(), Value: payload.Value}
	h.publish(r, domain.AdminSubTypeResetStability, req.Encode())
	w.WriteHeader(http.StatusAccepted)
}

func (h *AdminHandler) HandleResizeZone(w http.ResponseWriter, r *http.Request) {
	zoneID, err := strconv.ParseUint(r.PathValue("id"), 10, 16)
	if err != nil || zoneID == 0 {
		httpError(w, http.StatusBadRequest, fmt.Errorf("%w: zone id %q", ErrInvalidAdminRequest, r.PathValue("id")))
		return
	}
	var payload ResizeZonePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httpError(w, http.StatusBadRequest, err)
		return
	}
	if !utils.IsFinite(payload.Extent) || payload.Extent <= 0 {
		httpError(w, http.StatusBadRequest, fmt.Errorf("%w: extent must be positive", ErrInvalidAdminRequest))
		return
	}
	req := domain.ResizeZoneRequest{ZoneID: uint16(zoneID), Extent: payload.Extent}
	h.publish(r, domain.AdminSubTypeResizeZone, req.Encode())
	w.WriteHeader(http.StatusAccepted)
}

// publish は送信元セッションなしのメッセージとしてルームへ流します。
func (h *AdminHandler) publish(r *http.Request, subType domain.AdminSubType, payload []byte) {
	data := domain.EncodeMessage(domain.SessionID{}, 0, domain.DataTypeAdmin, uint8(subType), payload)
	h.pubsub.Publish(r.Context(), domain.RoomTopic(h.roomID), domain.Message{Data: data})
	slog.InfoContext(r.Context(), "admin command queued", "subType", subType, "roomID", h.roomID)
}
