package application

import "math"

type ShapeKind uint8

const (
	ShapeKindSphere  ShapeKind = 1
	ShapeKindBox     ShapeKind = 2
	ShapeKindCapsule ShapeKind = 3
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeKindSphere:
		return "sphere"
	case ShapeKindBox:
		return "box"
	case ShapeKindCapsule:
		return "capsule"
	default:
		return "unknown"
	}
}

// Shape はゾーンの形状です。ShapeSphere / ShapeBox / ShapeCapsule のいずれかを取ります。
type Shape interface {
	Kind() ShapeKind
	// Extent は形状の代表寸法です（球・カプセルは半径、箱は最大の半辺長）。
	Extent() float64
	isShape()
}

type ShapeSphere struct {
	Radius float64
}

type ShapeBox struct {
	HalfExtents Vec3
}

// ShapeCapsule の距離計算は半径 Radius の球として扱います。
type ShapeCapsule struct {
	Radius float64
	Height float64
}

func (ShapeSphere) Kind() ShapeKind  { return ShapeKindSphere }
func (ShapeBox) Kind() ShapeKind     { return ShapeKindBox }
func (ShapeCapsule) Kind() ShapeKind { return ShapeKindCapsule }

func (s ShapeSphere) Extent() float64  { return s.Radius }
func (s ShapeCapsule) Extent() float64 { return s.Radius }
func (s ShapeBox) Extent() float64 {
	return math.Max(s.HalfExtents.X, math.Max(s.HalfExtents.Y, s.HalfExtents.Z))
}

func (ShapeSphere) isShape()  {}
func (ShapeBox) isShape()     {}
func (ShapeCapsule) isShape() {}

// rawDistance は中心を 0、表面を 1 とする正規化距離をクランプせずに返します。
// 寸法が 0 以下の形状は常に外側（+Inf）になります。
func rawDistance(shape Shape, t Transform, p Vec3) float64 {
	local := t.ToLocal(p)
	switch s := shape.(type) {
	case ShapeSphere:
		return ratio(local.Length(), s.Radius)
	case ShapeCapsule:
		return ratio(local.Length(), s.Radius)
	case ShapeBox:
		h := s.HalfExtents
		if h.X <= 0 || h.Y <= 0 || h.Z <= 0 {
			return math.Inf(1)
		}
		return math.Max(math.Abs(local.X)/h.X, math.Max(math.Abs(local.Y)/h.Y, math.Abs(local.Z)/h.Z))
	default:
		return math.Inf(1)
	}
}

func ratio(d, r float64) float64 {
	if r <= 0 || math.IsNaN(r) {
		return math.Inf(1)
	}
	return d / r
}

// NormalizedDistance は p が形状の中心から表面までのどこにあるかを [0,1] で返します。
func NormalizedDistance(shape Shape, t Transform, p Vec3) float64 {
	d := rawDistance(shape, t, p)
	if math.IsNaN(d) {
		return 1
	}
	return clamp(d, 0, 1)
}

// Contains は p が形状の内側（表面を含む）にあるかを返します。
func Contains(shape Shape, t Transform, p Vec3) bool {
	return rawDistance(shape, t, p) <= 1
}

// Resize は代表寸法が extent になるように形状を変形した値を返します。
// 箱は縦横比を保ったまま拡大縮小します。
func Resize(shape Shape, extent float64) Shape {
	switch s := shape.(type) {
	case ShapeSphere:
		return ShapeSphere{Radius: extent}
	case ShapeCapsule:
		return ShapeCapsule{Radius: extent, Height: s.Height}
	case ShapeBox:
		current := s.Extent()
		if current <= 0 {
			return ShapeBox{HalfExtents: Vec3{extent, extent, extent}}
		}
		return ShapeBox{HalfExtents: s.HalfExtents.Scale(extent / current)}
	default:
		return shape
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
