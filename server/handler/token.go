package handler

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"chronoshift/server/domain"
)

var ErrAdminNotAllowed = errors.New("admin token not allowed")

// TokenIssuer はセッショントークンを発行します。
type TokenIssuer interface {
	Issue(sessionID domain.SessionID, admin bool) (string, error)
}

type TokenHandler struct {
	issuer   TokenIssuer
	adminKey string
}

// NewTokenHandler は /token のハンドラーを作ります。adminKey が空なら管理者トークンは発行しません。
func NewTokenHandler(issuer TokenIssuer, adminKey string) *TokenHandler {
	return &TokenHandler{issuer: issuer, adminKey: adminKey}
}

func (h *TokenHandler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	var payload TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		httpError(w, http.StatusBadRequest, err)
		return
	}
	if payload.Admin && !h.adminKeyMatches(payload.AdminKey) {
		slog.WarnContext(r.Context(), "admin token refused")
		httpError(w, http.StatusForbidden, ErrAdminNotAllowed)
		return
	}

	sessionID := domain.NewSessionID()
	token, err := h.issuer.Issue(sessionID, payload.Admin)
	if err != nil {
		httpError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{Token: token, SessionID: sessionID.String()})
}

func (h *TokenHandler) adminKeyMatches(key string) bool {
	if h.adminKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(h.adminKey), []byte(key)) == 1
}
