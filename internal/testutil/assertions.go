package testutil

import (
	"math"
	"testing"

	"github.com/udisondev/navrunner/internal/model"
)

// AssertVec3InDelta fails the test if any component of actual differs from expected by more than delta.
func AssertVec3InDelta(t testing.TB, expected, actual model.Vec3, delta float64) {
	t.Helper()

	if math.Abs(float64(expected.X-actual.X)) > delta ||
		math.Abs(float64(expected.Y-actual.Y)) > delta ||
		math.Abs(float64(expected.Z-actual.Z)) > delta {
		t.Fatalf("position mismatch: expected %+v, got %+v (delta %v)", expected, actual, delta)
	}
}
