// Package geom contains the geometric primitives used by every calculation.
// The box is orthorhombic and periodic along the three axes. Only one image
// shift is considered: the distances of interest must be lower than half of
// the box.
package geom

import "math"

// Sub returns the minimum image of b-a.
func Sub(a, b, cell [3]float64) (d [3]float64) {
	for k := 0; k < 3; k++ {
		d[k] = b[k] - a[k]
		d[k] -= math.Round(d[k]/cell[k]) * cell[k]
	}
	return
}

// Distance returns the minimum image distance between a and b.
func Distance(a, b, cell [3]float64) float64 {
	d := Sub(a, b, cell)
	return math.Sqrt(d[0]*d[0] + d[1]*d[1] + d[2]*d[2])
}

// Angle returns the angle a-vertex-b in radians, between 0 and Pi. It is
// computed from the three minimum image distances with the law of cosines.
// It returns NaN if a or b coincides with the vertex.
func Angle(a, vertex, b, cell [3]float64) float64 {
	rva := Distance(vertex, a, cell)
	rvb := Distance(vertex, b, cell)
	rab := Distance(a, b, cell)

	if rva == 0 || rvb == 0 {
		return math.NaN()
	}

	cos := (rva*rva + rvb*rvb - rab*rab) / (2 * rva * rvb)
	if cos > 1 { // rounding
		cos = 1
	} else if cos < -1 {
		cos = -1
	}

	return math.Acos(cos)
}
