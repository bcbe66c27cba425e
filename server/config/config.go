package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"time"

	"chronoshift/server/application"
	"chronoshift/server/domain"
	"chronoshift/utils"

	"github.com/joho/godotenv"
)

// Config はサーバープロセスの起動設定です。すべて環境変数から読みます。
type Config struct {
	Addr string
	Port string

	TickHz        int
	TimelineMode  application.TimelineMode
	Stability     application.StabilityConfig
	Timeline      application.TimelineConfig
	RelayPolicy   application.RelayPolicy
	SweepInterval time.Duration
	ZoneLayout    string // 空なら組み込みのレイアウト

	JWTSecret string // 空なら認証なしで誰でも接続できる
	TokenTTL  time.Duration
	AdminKey  string // 空なら管理者トークンを発行しない

	OTLPEndpoint string
	ServiceName  string
	LogLevel     slog.Level

	Endpoint domain.EndpointConfig
}

// ListenAddr は http.Server に渡すアドレスです。
func (c Config) ListenAddr() string {
	return net.JoinHostPort(c.Addr, c.Port)
}

// Load は .env があれば読み込んだうえで環境変数から設定を組み立てます。
// 列挙値と調整値の組み合わせが不正な場合はエラーを返し、パースできない数値は警告してデフォルト値を使います。
func Load(ctx context.Context) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.WarnContext(ctx, "failed to load .env", "err", err)
	}

	endpoint := domain.DefaultEndpointConfig()
	stability := application.DefaultStabilityConfig()
	timeline := application.DefaultTimelineConfig()
	cfg := Config{
		Addr:          utils.GetEnvDefault("ADDR", "localhost"),
		Port:          utils.GetEnvDefault("PORT", "9090"),
		TickHz:        utils.GetEnvInt("TICK_HZ", domain.DefaultTickHz),
		SweepInterval: utils.GetEnvDuration("SWEEP_INTERVAL", time.Second),
		ZoneLayout:    utils.GetEnvDefault("ZONE_LAYOUT", ""),
		Stability: application.StabilityConfig{
			Max:               utils.GetEnvFloat("STABILITY_MAX", stability.Max),
			CriticalThreshold: utils.GetEnvFloat("STABILITY_CRITICAL", stability.CriticalThreshold),
		},
		Timeline: application.TimelineConfig{
			PresentThreshold: utils.GetEnvFloat("TIMELINE_PRESENT_THRESHOLD", timeline.PresentThreshold),
			PastThreshold:    utils.GetEnvFloat("TIMELINE_PAST_THRESHOLD", timeline.PastThreshold),
			ShiftThreshold:   utils.GetEnvFloat("TIMELINE_SHIFT_THRESHOLD", timeline.ShiftThreshold),
			ShiftChance:      utils.GetEnvFloat("TIMELINE_SHIFT_CHANCE", timeline.ShiftChance),
			MinInterval:      utils.GetEnvFloat("TIMELINE_MIN_INTERVAL", timeline.MinInterval),
			MaxInterval:      utils.GetEnvFloat("TIMELINE_MAX_INTERVAL", timeline.MaxInterval),
		},
		JWTSecret:     utils.GetEnvDefault("JWT_SECRET", ""),
		TokenTTL:      utils.GetEnvDuration("TOKEN_TTL", 24*time.Hour),
		AdminKey:      utils.GetEnvDefault("ADMIN_KEY", ""),
		OTLPEndpoint:  utils.GetEnvDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:   utils.GetEnvDefault("OTEL_SERVICE_NAME", "chronoshift"),
		Endpoint: domain.EndpointConfig{
			IdleTimeout:  utils.GetEnvDuration("IDLE_TIMEOUT", endpoint.IdleTimeout),
			PingInterval: utils.GetEnvDuration("PING_INTERVAL", endpoint.PingInterval),
		},
	}

	var err error
	if cfg.TimelineMode, err = application.ParseTimelineMode(utils.GetEnvDefault("TIMELINE_MODE", "deterministic")); err != nil {
		return Config{}, err
	}
	cfg.Timeline.Mode = cfg.TimelineMode
	if err := cfg.Stability.Validate(); err != nil {
		return Config{}, err
	}
	if err := cfg.Timeline.Validate(); err != nil {
		return Config{}, err
	}
	if cfg.RelayPolicy, err = application.ParseRelayPolicy(utils.GetEnvDefault("RELAY_POLICY", "trust")); err != nil {
		return Config{}, err
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(utils.GetEnvDefault("LOG_LEVEL", "info"))); err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if cfg.TickHz <= 0 {
		slog.WarnContext(ctx, "non-positive tick rate, using default", "tickHz", cfg.TickHz)
		cfg.TickHz = domain.DefaultTickHz
	}
	return cfg, nil
}

// WorldConfig は権威側ワールドの設定を返します。
func (c Config) WorldConfig() application.WorldConfig {
	w := application.DefaultWorldConfig()
	w.Stability = c.Stability
	w.Timeline = c.Timeline
	w.Timeline.Mode = c.TimelineMode
	return w
}
