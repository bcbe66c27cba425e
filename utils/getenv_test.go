package utils

import (
	"math"
	"testing"
	"time"
)

func TestGetEnvDefault(t *testing.T) {
	t.Setenv("CHRONO_TEST_STR", "")
	if got := GetEnvDefault("CHRONO_TEST_STR", "fallback"); got != "fallback" {
		t.Errorf("got %q, want fallback", got)
	}
	t.Setenv("CHRONO_TEST_STR", "value")
	if got := GetEnvDefault("CHRONO_TEST_STR", "fallback"); got != "value" {
		t.Errorf("got %q, want value", got)
	}
}

func TestGetEnvTyped(t *testing.T) {
	t.Setenv("CHRONO_TEST_INT", "42")
	t.Setenv("CHRONO_TEST_BAD_INT", "forty")
	t.Setenv("CHRONO_TEST_FLOAT", "0.25")
	t.Setenv("CHRONO_TEST_NAN", "NaN")
	t.Setenv("CHRONO_TEST_DUR", "1500ms")

	if got := GetEnvInt("CHRONO_TEST_INT", 1); got != 42 {
		t.Errorf("GetEnvInt = %d, want 42", got)
	}
	if got := GetEnvInt("CHRONO_TEST_BAD_INT", 7); got != 7 {
		t.Errorf("GetEnvInt(bad) = %d, want 7", got)
	}
	if got := GetEnvFloat("CHRONO_TEST_FLOAT", 1); got != 0.25 {
		t.Errorf("GetEnvFloat = %v, want 0.25", got)
	}
	if got := GetEnvFloat("CHRONO_TEST_NAN", 3); got != 3 {
		t.Errorf("GetEnvFloat(NaN) = %v, want 3", got)
	}
	if got := GetEnvDuration("CHRONO_TEST_DUR", time.Second); got != 1500*time.Millisecond {
		t.Errorf("GetEnvDuration = %v, want 1.5s", got)
	}
}

func TestFiniteAll(t *testing.T) {
	if !FiniteAll(1, 2, -3) {
		t.Error("finite values reported as non-finite")
	}
	if FiniteAll(1, math.Inf(1)) || FiniteAll(math.NaN()) {
		t.Error("non-finite values reported as finite")
	}
}
