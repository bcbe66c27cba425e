package application

import (
	"math"
	"slices"
	"sort"
)

// CurveKey は強度カーブの制御点です。T は正規化距離、V は倍率です。
type CurveKey struct {
	T float64
	V float64
}

// IntensityCurve は正規化距離から強度倍率への区分線形カーブです。
// 出力は常に [0,1] にクランプされ、制御点がなければ 1 を返します。
type IntensityCurve struct {
	keys []CurveKey
}

func NewIntensityCurve(keys ...CurveKey) IntensityCurve {
	sorted := slices.Clone(keys)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].T < sorted[j].T })
	return IntensityCurve{keys: sorted}
}

// LinearFalloff は中心で 1、表面で 0 になるカーブです。
func LinearFalloff() IntensityCurve {
	return NewIntensityCurve(CurveKey{T: 0, V: 1}, CurveKey{T: 1, V: 0})
}

func (c IntensityCurve) Keys() []CurveKey {
	return slices.Clone(c.keys)
}

func (c IntensityCurve) Evaluate(t float64) float64 {
	if len(c.keys) == 0 {
		return 1
	}
	if math.IsNaN(t) {
		t = 1
	}
	first, last := c.keys[0], c.keys[len(c.keys)-1]
	if t <= first.T {
		return clamp(first.V, 0, 1)
	}
	if t >= last.T {
		return clamp(last.V, 0, 1)
	}
	i := sort.Search(len(c.keys), func(i int) bool { return c.keys[i].T > t })
	a, b := c.keys[i-1], c.keys[i]
	if b.T == a.T {
		return clamp(b.V, 0, 1)
	}
	f := (t - a.T) / (b.T - a.T)
	return clamp(a.V+(b.V-a.V)*f, 0, 1)
}
