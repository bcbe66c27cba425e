package application

import "math"

type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Quat は回転を表す quaternion です。ゼロ値は単位回転として扱います。
type Quat struct {
	X, Y, Z, W float64
}

var IdentityQuat = Quat{W: 1}

func (q Quat) normalize() Quat {
	n := math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if n == 0 || math.IsNaN(n) {
		return IdentityQuat
	}
	return Quat{q.X / n, q.Y / n, q.Z / n, q.W / n}
}

func (q Quat) conjugate() Quat {
	return Quat{-q.X, -q.Y, -q.Z, q.W}
}

// Rotate は v を q で回転させます。
func (q Quat) Rotate(v Vec3) Vec3 {
	q = q.normalize()
	u := Vec3{q.X, q.Y, q.Z}
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(u.Cross(t))
}

// InverseRotate は Rotate の逆変換です。
func (q Quat) InverseRotate(v Vec3) Vec3 {
	return q.normalize().conjugate().Rotate(v)
}

// Transform はゾーンの配置（中心と向き）です。
type Transform struct {
	Position Vec3
	Rotation Quat
}

// ToLocal はワールド座標 p をこの配置のローカル座標に変換します。
func (t Transform) ToLocal(p Vec3) Vec3 {
	return t.Rotation.InverseRotate(p.Sub(t.Position))
}
