package server

import (
	"net/http"

	"chronoshift/server/handler"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Handlers はルーティング対象のハンドラーです。Token と Admin は nil なら登録しません。
type Handlers struct {
	Accept http.Handler
	Health http.HandlerFunc
	Token  *handler.TokenHandler
	Admin  *handler.AdminHandler
}

func Route(h Handlers) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", h.Accept)
	mux.HandleFunc("GET /healthz", h.Health)
	if h.Token != nil {
		mux.HandleFunc("POST /token", h.Token.HandleIssue)
	}
	if h.Admin != nil {
		mux.HandleFunc("POST /admin/stability", h.Admin.RequireAdmin(h.Admin.HandleResetStability))
		mux.HandleFunc("POST /admin/zones/{id}/resize", h.Admin.RequireAdmin(h.Admin.HandleResizeZone))
	}
	return otelhttp.NewHandler(mux, "chronoshift")
}
