package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"chronoshift/server/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

//go:generate go tool mockgen -destination=./mocks/containment_checker_mock.go -package=mocks . ContainmentChecker

// ContainmentChecker は権威側での独立した包含判定です。
type ContainmentChecker interface {
	Contains(zone ZoneID, entity EntityID) (bool, error)
}

// RelayPolicy はクライアントから届いた侵入通知をどこまで信用するかを決めます。
type RelayPolicy uint8

const (
	// RelayTrust はクライアントの検出をそのまま受け入れます。
	RelayTrust RelayPolicy = iota
	// RelayStrict は侵入通知を権威側の位置で再判定します。退出は常に受け入れます。
	RelayStrict
)

var (
	ErrUnknownRelayPolicy = errors.New("unknown relay policy")
	ErrNotOwner           = errors.New("sender does not own entity")
	ErrRelayRejected      = errors.New("relay rejected by containment check")
)

func ParseRelayPolicy(s string) (RelayPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "trust":
		return RelayTrust, nil
	case "strict":
		return RelayStrict, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownRelayPolicy, s)
	}
}

func (p RelayPolicy) String() string {
	if p == RelayStrict {
		return "strict"
	}
	return "trust"
}

type RelayKind uint8

const (
	RelayEnter RelayKind = iota + 1
	RelayExit
)

func (k RelayKind) String() string {
	switch k {
	case RelayEnter:
		return "enter"
	case RelayExit:
		return "exit"
	default:
		return "unknown"
	}
}

// RelayRequest はクライアントが検出したゾーンへの侵入/退出です。
type RelayRequest struct {
	Sender domain.SessionID
	Zone   ZoneID
	Entity EntityID
	Kind   RelayKind
}

// MembershipRelay はクライアントからの侵入/退出通知を検証してゾーンの集合に反映します。
// 不正な通知は警告を出して捨てます。送信元には何も返しません。
type MembershipRelay struct {
	world   *World
	policy  RelayPolicy
	checker ContainmentChecker
	tracer  trace.Tracer
}

// NewMembershipRelay は checker が nil の場合 world 自身で包含判定を行います。
func NewMembershipRelay(world *World, policy RelayPolicy, checker ContainmentChecker) *MembershipRelay {
	if checker == nil {
		checker = world
	}
	return &MembershipRelay{
		world:   world,
		policy:  policy,
		checker: checker,
		tracer:  otel.Tracer("chronoshift/server/application"),
	}
}

func (r *MembershipRelay) Policy() RelayPolicy { return r.policy }

// Apply は通知を検証して反映し、集合が変化したかを返します。
func (r *MembershipRelay) Apply(ctx context.Context, req RelayRequest) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "relay.apply", trace.WithAttributes(
		attribute.Int("zone.id", int(req.Zone)),
		attribute.String("relay.kind", req.Kind.String()),
		attribute.String("relay.policy", r.policy.String()),
	))
	defer span.End()

	changed, err := r.apply(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.WarnContext(ctx, "relay dropped",
			"sessionID", req.Sender,
			"zoneID", req.Zone,
			"entityID", req.Entity,
			"kind", req.Kind,
			"err", err,
		)
		return false, err
	}
	span.SetAttributes(attribute.Bool("relay.changed", changed))
	return changed, nil
}

func (r *MembershipRelay) apply(req RelayRequest) (bool, error) {
	zone, ok := r.world.Zone(req.Zone)
	if !ok {
		return false, fmt.Errorf("%w: %d", ErrUnknownZone, req.Zone)
	}
	entity, ok := r.world.Lookup(req.Entity)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownEntity, req.Entity)
	}
	if entity.Owner != req.Sender {
		return false, fmt.Errorf("%w: %s", ErrNotOwner, req.Entity)
	}

	switch req.Kind {
	case RelayEnter:
		if r.policy == RelayStrict {
			inside, err := r.checker.Contains(req.Zone, req.Entity)
			if err != nil {
				return false, err
			}
			if !inside {
				return false, fmt.Errorf("%w: zone %d", ErrRelayRejected, req.Zone)
			}
		}
		return zone.Membership().Enter(req.Entity), nil
	case RelayExit:
		return zone.Membership().Exit(req.Entity), nil
	default:
		return false, fmt.Errorf("unknown relay kind %d", req.Kind)
	}
}
