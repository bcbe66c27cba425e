package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"chronoshift/server/application"
	"chronoshift/server/client"
	"chronoshift/server/handler"
	"chronoshift/utils"

	"github.com/coder/websocket"
)

const (
	stepHz         = 20
	reconnectDelay = 2 * time.Second
)

type botConfig struct {
	host   string
	auth   bool
	speed  float64
	arena  float64
	debug  client.DebugConfig
	logger *slog.Logger
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := utils.GetEnvDefault("ADDR", "localhost")
	port := utils.GetEnvDefault("PORT", "9090")
	botCount := utils.GetEnvInt("BOT_COUNT", 3)
	cfg := botConfig{
		host:  addr + ":" + port,
		auth:  utils.GetEnvDefault("BOT_AUTH", "false") == "true",
		speed: utils.GetEnvFloat("BOT_SPEED", 4),
		arena: utils.GetEnvFloat("BOT_ARENA", 40),
		debug: client.DebugConfig{
			ShowStability: utils.GetEnvDefault("DEBUG_STABILITY", "") != "",
			ShowZones:     utils.GetEnvDefault("DEBUG_ZONES", "") != "",
			ShowTimeline:  true,
		},
	}
	slog.Info("starting bots", "count", botCount, "server", cfg.host, "auth", cfg.auth)

	var wg sync.WaitGroup
	for i := range botCount {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			c := cfg
			c.logger = logger.With("botID", id)
			runBot(ctx, c)
		}(i)
	}

	wg.Wait()
	slog.Info("all bots stopped")
}

func runBot(ctx context.Context, cfg botConfig) {
	for {
		if ctx.Err() != nil {
			return
		}
		err := botSession(ctx, cfg)
		if err != nil && ctx.Err() == nil {
			cfg.logger.Warn("bot session ended, reconnecting", "err", err)
			time.Sleep(reconnectDelay)
		}
	}
}

func botSession(ctx context.Context, cfg botConfig) error {
	target := url.URL{Scheme: "ws", Host: cfg.host, Path: "/ws"}
	if cfg.auth {
		token, err := fetchToken(ctx, cfg.host)
		if err != nil {
			return err
		}
		target.RawQuery = url.Values{"token": {token}}.Encode()
	}

	conn, _, err := websocket.Dial(ctx, target.String(), nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.CloseNow()
	cfg.logger.Info("connected")

	presenter := client.NewLogPresenter(ctx, cfg.logger, cfg.debug)
	start := application.Vec3{X: (rand.Float64()*2 - 1) * cfg.arena, Z: (rand.Float64()*2 - 1) * cfg.arena}
	pilot := client.NewPilot(client.NewRuleBotController(nil), presenter, start, cfg.speed, cfg.arena)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// 受信ループ
	readErr := make(chan error, 1)
	go func() {
		defer cancel()
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				readErr <- err
				return
			}
			replies, err := pilot.HandleMessage(data)
			if err != nil {
				cfg.logger.Debug("ignored message", "err", err)
				continue
			}
			for _, msg := range replies {
				if err := conn.Write(ctx, websocket.MessageBinary, msg); err != nil {
					readErr <- err
					return
				}
			}
		}
	}()

	// 移動・送信ループ
	ticker := time.NewTicker(time.Second / stepHz)
	defer ticker.Stop()
	dt := 1.0 / stepHz

	for {
		select {
		case <-ctx.Done():
			select {
			case err := <-readErr:
				return fmt.Errorf("read: %w", err)
			default:
			}
			conn.Close(websocket.StatusNormalClosure, "shutdown")
			return nil
		case <-ticker.C:
			for _, msg := range pilot.Step(dt) {
				if err := conn.Write(ctx, websocket.MessageBinary, msg); err != nil {
					return fmt.Errorf("write: %w", err)
				}
			}
		}
	}
}

func fetchToken(ctx context.Context, host string) (string, error) {
	endpoint := url.URL{Scheme: "http", Host: host, Path: "/token"}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request token: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("request token: status %d", resp.StatusCode)
	}
	var body handler.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode token: %w", err)
	}
	if body.Token == "" {
		return "", errors.New("empty token")
	}
	return body.Token, nil
}
