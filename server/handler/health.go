package handler

import (
	"net/http"
	"time"
)

type healthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// NewHealthHandler は起動からの経過時間を返す死活監視用のハンドラーです。
func NewHealthHandler(started time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{
			Status: "ok",
			Uptime: time.Since(started).Truncate(time.Second).String(),
		})
	}
}
