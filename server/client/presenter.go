package client

import (
	"context"
	"log/slog"

	"chronoshift/server/application"
)

//go:generate go tool mockgen -destination=./mocks/presenter_mock.go -package=mocks . Presenter

// Presenter は所有クライアントの UI 層が受け取るイベントです。
// どのメソッドも読み取り専用の通知で、コアへは呼び返しません。
type Presenter interface {
	OnStabilityUpdated(current, max float64)
	OnCriticalStability()
	OnStabilityDepleted()
	OnTimelineTransition(state application.TimelineState)
}

// DebugConfig はデバッグ表示の切り替えです。シミュレーションには影響しません。
type DebugConfig struct {
	ShowStability bool
	ShowZones     bool
	ShowTimeline  bool
}

// LogPresenter はイベントを構造化ログに出す Presenter です。ヘッドレスボットで使います。
type LogPresenter struct {
	ctx    context.Context
	logger *slog.Logger
	debug  DebugConfig
}

var _ Presenter = (*LogPresenter)(nil)

func NewLogPresenter(ctx context.Context, logger *slog.Logger, debug DebugConfig) *LogPresenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPresenter{ctx: ctx, logger: logger, debug: debug}
}

func (p *LogPresenter) OnStabilityUpdated(current, max float64) {
	if p.debug.ShowStability {
		p.logger.DebugContext(p.ctx, "stability updated", "current", current, "max", max)
	}
}

func (p *LogPresenter) OnCriticalStability() {
	p.logger.WarnContext(p.ctx, "stability critical")
}

func (p *LogPresenter) OnStabilityDepleted() {
	p.logger.WarnContext(p.ctx, "stability depleted")
}

func (p *LogPresenter) OnTimelineTransition(state application.TimelineState) {
	if p.debug.ShowTimeline {
		p.logger.InfoContext(p.ctx, "timeline transition", "state", state)
	}
}

// DescribeZones はデバッグ表示が有効な場合にゾーンの一覧をログに出します。
func (p *LogPresenter) DescribeZones(zones []*application.ZoneEffect) {
	if !p.debug.ShowZones {
		return
	}
	for _, z := range zones {
		p.logger.DebugContext(p.ctx, "zone",
			"zoneID", z.ID(),
			"shape", z.Shape().Kind(),
			"extent", z.Shape().Extent(),
			"rate", z.DrainRatePerSecond(),
		)
	}
}
