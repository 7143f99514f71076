package traj

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func water(index int) *Frame {
	return NewFrame(index, [3]float64{10, 10, 10}, []Atom{
		{Index: 1, Label: "O", Kind: Oxygen, Pos: [3]float64{0, 0, 0}},
		{Index: 2, Label: "H", Kind: Hydrogen, Pos: [3]float64{0.96, 0, 0}},
		{Index: 3, Label: "H", Kind: Hydrogen, Pos: [3]float64{0, 0.96, 0}},
	})
}

func TestParseKind(t *testing.T) {
	assert.Equal(t, Oxygen, ParseKind("O"))
	assert.Equal(t, Oxygen, ParseKind("1"))
	assert.Equal(t, Hydrogen, ParseKind("H"))
	assert.Equal(t, Hydrogen, ParseKind("2"))
	assert.Equal(t, Other, ParseKind("Na"))
}

func TestNewFrame(t *testing.T) {
	f := water(1)
	assert.Equal(t, []string{"O", "H"}, f.Species)
	assert.Equal(t, []int{1, 2}, f.Counts)
	assert.Equal(t, 2, f.Count("H"))
	assert.Equal(t, 0, f.Count("Na"))
	assert.Len(t, f.ByKind(Hydrogen), 2)
	assert.Len(t, f.ByLabel("O"), 1)
	assert.Equal(t, 1000., f.Volume())
	require.NoError(t, f.Validate())

	f.Counts[1] = 3
	assert.Error(t, f.Validate())
}

func TestTrajectory(t *testing.T) {
	tr := Trajectory{water(1), water(2)}
	require.NoError(t, tr.Validate())

	c := tr.Clone()
	c[1].Atoms[0].Pos[0] = 5
	assert.Equal(t, 0., tr[1].Atoms[0].Pos[0])

	tr[1].Atoms[0].Label = "H"
	assert.Error(t, tr.Validate())
	assert.Error(t, Trajectory{}.Validate())
}

func TestTrajectoryCell(t *testing.T) {
	tr := Trajectory{water(1), water(2)}
	tr[1].Cell[2] += 1e-9
	require.NoError(t, tr.Validate())

	tr[1].Cell = [3]float64{14, 14, 14}
	assert.Error(t, tr.Validate())
}
