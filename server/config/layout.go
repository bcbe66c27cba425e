package config

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"chronoshift/server/application"
)

//go:embed default_layout.json
var defaultLayout []byte

var ErrInvalidLayout = errors.New("invalid zone layout")

// zoneLayout は JSON で書かれたゾーン配置です。
type zoneLayout struct {
	Zones []zoneEntry `json:"zones"`
}

type zoneEntry struct {
	ID       uint16       `json:"id"`
	Position [3]float64   `json:"position"`
	Rotation *[4]float64  `json:"rotation,omitempty"` // x, y, z, w
	Shape    *shapeEntry  `json:"shape,omitempty"`
	Rate     float64      `json:"rate"`
	Gradient bool         `json:"gradient"`
	Curve    [][2]float64 `json:"curve,omitempty"` // [t, v] の組
}

type shapeEntry struct {
	Kind        string     `json:"kind"`
	Radius      float64    `json:"radius"`
	Height      float64    `json:"height"`
	HalfExtents [3]float64 `json:"halfExtents"`
}

// LoadZoneLayout は path のレイアウトを読みます。path が空なら組み込みのレイアウトを使います。
func LoadZoneLayout(ctx context.Context, path string) ([]application.ZoneSpec, error) {
	if path == "" {
		return DecodeZoneLayout(ctx, bytes.NewReader(defaultLayout))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open zone layout: %w", err)
	}
	defer f.Close()
	return DecodeZoneLayout(ctx, f)
}

// DecodeZoneLayout はレイアウトをゾーン設定に変換します。
// 形状や ID が欠けたゾーンは警告を出したうえでそのまま返し、ワールド側で無効になります。
func DecodeZoneLayout(ctx context.Context, r io.Reader) ([]application.ZoneSpec, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var layout zoneLayout
	if err := dec.Decode(&layout); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLayout, err)
	}

	specs := make([]application.ZoneSpec, 0, len(layout.Zones))
	for i, z := range layout.Zones {
		spec := application.ZoneSpec{
			ID:                   application.ZoneID(z.ID),
			Transform:            application.Transform{Position: vec3(z.Position), Rotation: application.IdentityQuat},
			DrainRatePerSecond:   z.Rate,
			UseIntensityGradient: z.Gradient,
		}
		if z.Rotation != nil {
			spec.Transform.Rotation = application.Quat{X: z.Rotation[0], Y: z.Rotation[1], Z: z.Rotation[2], W: z.Rotation[3]}
		}
		if len(z.Curve) > 0 {
			keys := make([]application.CurveKey, 0, len(z.Curve))
			for _, k := range z.Curve {
				keys = append(keys, application.CurveKey{T: k[0], V: k[1]})
			}
			spec.Curve = application.NewIntensityCurve(keys...)
		} else if z.Gradient {
			spec.Curve = application.LinearFalloff()
		}

		if z.ID == 0 {
			slog.WarnContext(ctx, "zone has no id", "index", i)
		}
		if z.Shape == nil {
			slog.WarnContext(ctx, "zone has no shape", "index", i, "zoneID", z.ID)
		} else {
			shape, err := z.Shape.toShape()
			if err != nil {
				return nil, fmt.Errorf("%w: zone %d: %w", ErrInvalidLayout, z.ID, err)
			}
			spec.Shape = shape
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func (s *shapeEntry) toShape() (application.Shape, error) {
	switch s.Kind {
	case "sphere":
		return application.ShapeSphere{Radius: s.Radius}, nil
	case "box":
		return application.ShapeBox{HalfExtents: vec3(s.HalfExtents)}, nil
	case "capsule":
		return application.ShapeCapsule{Radius: s.Radius, Height: s.Height}, nil
	default:
		return nil, fmt.Errorf("%w: %q", application.ErrUnknownShapeKind, s.Kind)
	}
}

func vec3(v [3]float64) application.Vec3 {
	return application.Vec3{X: v[0], Y: v[1], Z: v[2]}
}
