package geom

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

var cubic = [3]float64{10, 10, 10}

func TestDistance(t *testing.T) {
	assert.InDelta(t, 1., Distance([3]float64{0.5, 0, 0}, [3]float64{9.5, 0, 0}, cubic), 1e-12)
	assert.InDelta(t, 5., Distance([3]float64{0, 0, 0}, [3]float64{3, 4, 0}, cubic), 1e-12)
	assert.InDelta(t, math.Sqrt(3), Distance([3]float64{9.5, 9.5, 9.5}, [3]float64{0.5, 0.5, 0.5}, cubic), 1e-12)
}

func TestDistanceSymmetryAndBound(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	bound := 10 * math.Sqrt(3) / 2

	for i := 0; i < 1000; i++ {
		var a, b [3]float64
		for k := 0; k < 3; k++ {
			a[k] = rnd.Float64() * 10
			b[k] = rnd.Float64() * 10
		}

		d := Distance(a, b, cubic)
		assert.Equal(t, d, Distance(b, a, cubic))
		assert.LessOrEqual(t, d, bound+1e-12)
	}
}

func TestAngle(t *testing.T) {
	o := [3]float64{5, 5, 5}

	assert.InDelta(t, math.Pi/2, Angle([3]float64{6, 5, 5}, o, [3]float64{5, 6, 5}, cubic), 1e-12)
	assert.InDelta(t, math.Pi, Angle([3]float64{6, 5, 5}, o, [3]float64{3, 5, 5}, cubic), 1e-7)
	assert.Equal(t, 0., Angle([3]float64{6, 5, 5}, o, [3]float64{6, 5, 5}, cubic))

	// Across the boundary.
	assert.InDelta(t, math.Pi/2, Angle([3]float64{9.5, 0, 0}, [3]float64{0.5, 0, 0}, [3]float64{0.5, 9, 0}, cubic), 1e-12)

	assert.True(t, math.IsNaN(Angle(o, o, [3]float64{6, 5, 5}, cubic)))
}

func TestAngleDomain(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		var a, v, b [3]float64
		for k := 0; k < 3; k++ {
			a[k] = rnd.Float64() * 10
			v[k] = rnd.Float64() * 10
			b[k] = rnd.Float64() * 10
		}

		rad := Angle(a, v, b, cubic)
		assert.GreaterOrEqual(t, rad, 0.)
		assert.LessOrEqual(t, rad, math.Pi)
	}
}
