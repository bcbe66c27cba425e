package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"chronoshift/server/domain"
	"chronoshift/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var ErrAdminFromClient = errors.New("admin message from client session")

// Config は TemporalApplication の組み立て設定です。
type Config struct {
	World  WorldConfig
	Zones  []ZoneSpec
	Policy RelayPolicy
	// SweepInterval は strict ポリシーでの位置による再判定の周期です。0 以下なら行いません。
	SweepInterval time.Duration
}

// TemporalApplication は時間安定度のゲームロジックを Room に載せる Application です。
type TemporalApplication struct {
	world      *World
	outbox     *Outbox
	relay      *MembershipRelay
	replicator *replicator
	tracer     trace.Tracer

	policy        RelayPolicy
	sweepInterval float64
	sinceSweep    float64
}

var _ domain.Application = (*TemporalApplication)(nil)

// NewTemporalApplication はワールドを組み立てます。
// 形状や ID のないゾーンは警告を出して無効のまま読み飛ばします。
func NewTemporalApplication(ctx context.Context, cfg Config) *TemporalApplication {
	outbox := NewOutbox()
	world := NewWorld(cfg.World, outbox)
	for _, spec := range cfg.Zones {
		if _, err := world.AddZone(spec); err != nil {
			slog.WarnContext(ctx, "zone disabled", "zoneID", spec.ID, "err", err)
		}
	}
	return &TemporalApplication{
		world:         world,
		outbox:        outbox,
		relay:         NewMembershipRelay(world, cfg.Policy, nil),
		replicator:    &replicator{world: world},
		tracer:        otel.Tracer("chronoshift/server/application"),
		policy:        cfg.Policy,
		sweepInterval: cfg.SweepInterval.Seconds(),
	}
}

func (app *TemporalApplication) World() *World { return app.world }

// Join はセッションのエンティティを生成し、参加者に現在の全状態を返します。
func (app *TemporalApplication) Join(ctx context.Context, sessionID domain.SessionID) [][]byte {
	e, created := app.world.Spawn(sessionID)
	slog.InfoContext(ctx, "entity spawned", "entityID", e.ID, "created", created)
	return app.replicator.snapshot()
}

// Leave はセッションのエンティティを削除します。ゾーンからは次のティックで取り除かれます。
func (app *TemporalApplication) Leave(ctx context.Context, sessionID domain.SessionID) {
	id := EntityIDFromSession(sessionID)
	if app.world.Despawn(id) {
		slog.InfoContext(ctx, "entity despawned", "entityID", id)
	}
}

func (app *TemporalApplication) HandleMessage(ctx context.Context, sessionID domain.SessionID, data []byte) error {
	frame, err := domain.ParseFrame(data)
	if err != nil {
		return err
	}

	switch frame.PayloadHeader.DataType {
	case domain.DataTypeActor:
		return app.handleActor(ctx, sessionID, frame)
	case domain.DataTypeZone:
		return app.handleZone(ctx, sessionID, frame)
	case domain.DataTypeAdmin:
		if !sessionID.IsEmpty() {
			return ErrAdminFromClient
		}
		return app.handleAdmin(ctx, frame)
	default:
		slog.WarnContext(ctx, "unknown data type", "dataType", frame.PayloadHeader.DataType)
		return nil
	}
}

func (app *TemporalApplication) handleActor(ctx context.Context, sessionID domain.SessionID, frame *domain.Frame) error {
	switch domain.ActorSubType(frame.PayloadHeader.SubType) {
	case domain.ActorSubTypeUpdate:
		pos, err := domain.ParsePosition(frame.Payload)
		if err != nil {
			return err
		}
		p := positionToVec3(pos)
		if !utils.FiniteAll(p.X, p.Y, p.Z) {
			slog.WarnContext(ctx, "non-finite position dropped", "sessionID", sessionID)
			return nil
		}
		if !app.world.UpdatePosition(EntityIDFromSession(sessionID), p) {
			slog.DebugContext(ctx, "position for unknown entity", "sessionID", sessionID)
		}
	case domain.ActorSubTypeSpawn, domain.ActorSubTypeDespawn:
		// エンティティの生成と削除はルームへの参加/離脱に従う
		slog.DebugContext(ctx, "handleActor: ignored", "sessionID", sessionID, "subType", frame.PayloadHeader.SubType)
	default:
		slog.WarnContext(ctx, "unknown actor subtype", "subType", frame.PayloadHeader.SubType)
	}
	return nil
}

func (app *TemporalApplication) handleZone(ctx context.Context, sessionID domain.SessionID, frame *domain.Frame) error {
	payload, err := domain.ParseZoneRelayPayload(frame.Payload)
	if err != nil {
		return err
	}
	var kind RelayKind
	switch domain.ZoneSubType(frame.PayloadHeader.SubType) {
	case domain.ZoneSubTypeEnter:
		kind = RelayEnter
	case domain.ZoneSubTypeExit:
		kind = RelayExit
	default:
		slog.WarnContext(ctx, "unknown zone subtype", "subType", frame.PayloadHeader.SubType)
		return nil
	}
	// 検証に失敗した通知は relay 側で警告済み
	_, _ = app.relay.Apply(ctx, RelayRequest{
		Sender: sessionID,
		Zone:   ZoneID(payload.ZoneID),
		Entity: EntityIDFromBytes(payload.EntityID),
		Kind:   kind,
	})
	return nil
}

func (app *TemporalApplication) handleAdmin(ctx context.Context, frame *domain.Frame) error {
	switch domain.AdminSubType(frame.PayloadHeader.SubType) {
	case domain.AdminSubTypeResetStability:
		req, err := domain.ParseResetStabilityRequest(frame.Payload)
		if err != nil {
			return err
		}
		id := EntityIDFromBytes(req.EntityID)
		if err := app.world.ResetStability(id, req.Value); err != nil {
			return err
		}
		slog.InfoContext(ctx, "stability reset", "entityID", id, "value", req.Value)
	case domain.AdminSubTypeResizeZone:
		req, err := domain.ParseResizeZoneRequest(frame.Payload)
		if err != nil {
			return err
		}
		if err := app.world.ResizeZone(ZoneID(req.ZoneID), req.Extent); err != nil {
			return err
		}
		slog.InfoContext(ctx, "zone resized", "zoneID", req.ZoneID, "extent", req.Extent)
	default:
		slog.WarnContext(ctx, "unknown admin subtype", "subType", frame.PayloadHeader.SubType)
	}
	return nil
}

// Tick はワールドを delta 秒進め、このティックの変更通知を複製メッセージとして返します。
func (app *TemporalApplication) Tick(ctx context.Context, delta float64) [][]byte {
	ctx, span := app.tracer.Start(ctx, "world.tick")
	defer span.End()

	app.world.Tick(ctx, delta)

	if app.policy == RelayStrict && app.sweepInterval > 0 {
		app.sinceSweep += delta
		if app.sinceSweep >= app.sweepInterval {
			app.sinceSweep = 0
			if n := app.world.Sweep(ctx); n > 0 {
				slog.InfoContext(ctx, "sweep removed stale members", "count", n)
			}
		}
	}

	events := app.outbox.Drain()
	span.SetAttributes(attribute.Int("outbox.events", len(events)))
	return app.replicator.encodeEvents(events)
}
