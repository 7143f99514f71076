package gr

import (
	"errors"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/kpotier/wateranalysis/pkg/load"
	"github.com/kpotier/wateranalysis/pkg/traj"
	"github.com/kpotier/wateranalysis/pkg/util"
)

func gas(rnd *rand.Rand, n int, l float64) *traj.Frame {
	at := make([]traj.Atom, n)
	for i := range at {
		at[i] = traj.Atom{Index: i + 1, Label: "O", Kind: traj.Oxygen}
		for k := 0; k < 3; k++ {
			at[i].Pos[k] = rnd.Float64() * l
		}
	}
	return traj.NewFrame(1, [3]float64{l, l, l}, at)
}

func TestOneFrame(t *testing.T) {
	f := traj.NewFrame(1, [3]float64{10, 10, 10}, []traj.Atom{
		{Index: 1, Label: "O", Pos: [3]float64{0.5, 0, 0}},
		{Index: 2, Label: "O", Pos: [3]float64{9.45, 0, 0}},
	})

	g, err := OneFrame(f, "O", "O", 2, 4)
	require.NoError(t, err)
	require.Len(t, g, 4)

	assert.Equal(t, 0., g[0])
	assert.Equal(t, 0., g[1])
	assert.InDelta(t, 2/(2*4*math.Pi*0.5*(2./1000)), g[2], 1e-9)
	assert.Equal(t, 0., g[3])
}

func TestBinZero(t *testing.T) {
	f := gas(rand.New(rand.NewSource(1)), 50, 5)
	g, err := OneFrame(f, "O", "O", 2.4, 24)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(g[0]) || math.IsInf(g[0], 0))
}

func TestIdealGas(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	tr := traj.Trajectory{gas(rnd, 2000, 20), gas(rnd, 2000, 20)}

	r, g, err := Compute(tr, "O", "O", 8, 40)
	require.NoError(t, err)
	require.Len(t, r, 40)
	assert.Equal(t, 0.2, r[1])

	// Far from the origin, the left edge bias dr/r is small.
	assert.InDelta(t, 1., stat.Mean(g[25:], nil), 0.1)
}

func TestSpeciesNotFound(t *testing.T) {
	f := gas(rand.New(rand.NewSource(1)), 5, 5)
	_, err := OneFrame(f, "O", "Na", 2, 4)

	var cfgErr *util.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestNewOpts(t *testing.T) {
	g, err := NewOpts(load.Source{Path: "XDATCAR", Format: load.Xdatcar}, "rdf.dat", []string{"O", "H", "6", "300"})
	require.NoError(t, err)
	assert.Equal(t, []string{"O", "H"}, g.Atoms)
	assert.Equal(t, 6., g.RCut)
	assert.Equal(t, 300, g.Bins)

	for _, opts := range [][]string{{"O", "H", "6"}, {"O", "H", "x", "300"}, {"O", "H", "6", "0"}, {"O", "H", "-1", "3"}} {
		_, err := NewOpts(load.Source{}, "rdf.dat", opts)
		var cfgErr *util.ConfigError
		assert.True(t, errors.As(err, &cfgErr), opts)
	}
}

func TestStart(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "XDATCAR")
	require.NoError(t, os.WriteFile(in, []byte(`water
1.0
10 0 0
0 10 0
0 0 10
O
2
Direct configuration= 1
0.05 0 0
0.945 0 0
`), 0o644))

	cfg := filepath.Join(dir, "rdf.toml")
	require.NoError(t, os.WriteFile(cfg, []byte(`[rdf]
file_in = "`+in+`"
format = "vasp/xdatcar"
file_out = "`+filepath.Join(dir, "rdf.dat")+`"
atoms = ["O", "O"]
rcut = 2.0
bins = 4
`), 0o644))

	g, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, g.Start(zap.NewNop()))

	b, err := os.ReadFile(filepath.Join(dir, "rdf.dat"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "0.0000  0.00000000\n")
	assert.Contains(t, string(b), "1.0000  79.57747155\n")
}
