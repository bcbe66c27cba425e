package utils

import "math"

func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// FiniteAll は全ての値が有限の場合に true を返します。
func FiniteAll(fs ...float64) bool {
	for _, f := range fs {
		if !IsFinite(f) {
			return false
		}
	}
	return true
}
