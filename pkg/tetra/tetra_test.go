package tetra

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpotier/wateranalysis/pkg/traj"
	"github.com/kpotier/wateranalysis/pkg/util"
)

var cell = [3]float64{20, 20, 20}

func oxygens(pos ...[3]float64) []*traj.Atom {
	res := make([]*traj.Atom, len(pos))
	for i, p := range pos {
		res[i] = &traj.Atom{Index: i + 1, Label: "O", Kind: traj.Oxygen, Pos: p}
	}
	return res
}

func tetrahedron(s float64) [][3]float64 {
	return [][3]float64{
		{1, 1, 1},
		{1 + s, 1 + s, 1 + s},
		{1 + s, 1 - s, 1 - s},
		{1 - s, 1 + s, 1 - s},
		{1 - s, 1 - s, 1 + s},
	}
}

func TestPerfectTetrahedron(t *testing.T) {
	o := oxygens(tetrahedron(1.6)...)

	q, err := OrderParameter(o[0], o, cell)
	require.NoError(t, err)
	assert.InDelta(t, 1., q, 1e-12)
}

func TestSquarePlanar(t *testing.T) {
	o := oxygens(
		[3]float64{5, 5, 5},
		[3]float64{7.5, 5, 5},
		[3]float64{5, 7.5, 5},
		[3]float64{2.5, 5, 5},
		[3]float64{5, 2.5, 5},
	)

	q, err := OrderParameter(o[0], o, cell)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, q, 1e-12)
}

func TestNeighbours(t *testing.T) {
	pos := append(tetrahedron(1.6), [3]float64{4.5, 1, 1}, [3]float64{1.05, 1, 1})
	o := oxygens(pos...)

	nb, err := Neighbours(o[0], o, cell)
	require.NoError(t, err)
	idx := make([]int, 0, 4)
	for _, v := range nb {
		idx = append(idx, v.Index)
	}
	assert.ElementsMatch(t, []int{2, 3, 4, 5}, idx)

	// A fifth oxygen farther than the others doesn't change q.
	q, err := OrderParameter(o[0], o, cell)
	require.NoError(t, err)
	assert.InDelta(t, 1., q, 1e-12)
}

func TestNeighboursAcrossBoundary(t *testing.T) {
	o := oxygens(tetrahedron(1.6)...)
	for _, v := range o {
		for k := range v.Pos {
			v.Pos[k] -= 1.5
			if v.Pos[k] < 0 {
				v.Pos[k] += cell[k]
			}
		}
	}

	q, err := OrderParameter(o[0], o, cell)
	require.NoError(t, err)
	assert.InDelta(t, 1., q, 1e-12)
}

func TestNotEnoughNeighbours(t *testing.T) {
	pos := tetrahedron(1.6)
	pos[4] = [3]float64{12, 12, 12}
	o := oxygens(pos...)

	_, err := Neighbours(o[0], o, cell)
	var geoErr *util.GeometryError
	require.True(t, errors.As(err, &geoErr))
	assert.Equal(t, 1, geoErr.Atom)
}

func TestOneFrame(t *testing.T) {
	at := make([]traj.Atom, 0, 5)
	for _, o := range oxygens(tetrahedron(2.2)...) {
		at = append(at, *o)
	}
	f := traj.NewFrame(4, cell, at)

	// Only the central oxygen has four neighbours.
	_, _, err := OneFrame(f)
	var geoErr *util.GeometryError
	require.True(t, errors.As(err, &geoErr))
	assert.Equal(t, 4, geoErr.Frame)
	assert.Equal(t, 2, geoErr.Atom)

	_, _, _, err = Compute(traj.Trajectory{f})
	require.Error(t, err)
}
