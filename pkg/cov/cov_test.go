package cov

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpotier/wateranalysis/pkg/traj"
	"github.com/kpotier/wateranalysis/pkg/util"
)

var cell = [3]float64{10, 10, 10}

func atoms(pos ...[3]float64) []*traj.Atom {
	res := make([]*traj.Atom, len(pos))
	for i, p := range pos {
		res[i] = &traj.Atom{Index: i + 2, Label: "H", Kind: traj.Hydrogen, Pos: p}
	}
	return res
}

func TestBondedHydrogens(t *testing.T) {
	o := &traj.Atom{Index: 1, Label: "O", Kind: traj.Oxygen}
	hs := atoms([3]float64{3, 3, 3}, [3]float64{0, 0.96, 0}, [3]float64{9.04, 0, 0})

	h, err := BondedHydrogens(o, hs, cell)
	require.NoError(t, err)
	assert.Same(t, hs[1], h[0])
	assert.Same(t, hs[2], h[1])
}

func TestBondedHydrogensFirstTwo(t *testing.T) {
	o := &traj.Atom{Index: 1, Label: "O", Kind: traj.Oxygen}
	hs := atoms([3]float64{1.4, 0, 0}, [3]float64{0, 1.2, 0}, [3]float64{0, 0, 0.9})

	h, err := BondedHydrogens(o, hs, cell)
	require.NoError(t, err)
	assert.Same(t, hs[0], h[0])
	assert.Same(t, hs[1], h[1])
}

func TestBondedHydrogensMissing(t *testing.T) {
	o := &traj.Atom{Index: 7, Label: "O", Kind: traj.Oxygen}
	hs := atoms([3]float64{1.4, 0, 0}, [3]float64{0, 1.6, 0})

	_, err := BondedHydrogens(o, hs, cell)
	var geoErr *util.GeometryError
	require.True(t, errors.As(err, &geoErr))
	assert.Equal(t, 7, geoErr.Atom)
}

func TestAngles(t *testing.T) {
	f := traj.NewFrame(4, cell, []traj.Atom{
		{Index: 1, Label: "O", Kind: traj.Oxygen, Pos: [3]float64{0, 0, 0}},
		{Index: 2, Label: "H", Kind: traj.Hydrogen, Pos: [3]float64{0.96, 0, 0}},
		{Index: 3, Label: "H", Kind: traj.Hydrogen, Pos: [3]float64{0, 0.96, 0}},
	})

	ang, err := Angles(f)
	require.NoError(t, err)
	require.Len(t, ang, 1)
	assert.InDelta(t, 90., ang[0], 1e-9)

	f.Atoms[2].Pos = [3]float64{5, 5, 5}
	_, err = Angles(f)
	var geoErr *util.GeometryError
	require.True(t, errors.As(err, &geoErr))
	assert.Equal(t, 4, geoErr.Frame)
}
