package convert

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kpotier/wateranalysis/pkg/load"
	"github.com/kpotier/wateranalysis/pkg/util"
)

const qeTraj = `water
1.0
10.0 0.0 0.0
0.0 10.0 0.0
0.0 0.0 10.0
O H
1 2
      10    0.0005
   1.0000000   2.0000000   3.0000000
   1.5000000   2.0000000   3.0000000
  -1.0000000  25.0000000   3.0000000
      20    0.0010
   2.0000000   2.0000000   3.0000000
   2.5000000   2.0000000   3.0000000
  -2.0000000  25.0000000   3.0000000
`

const header = `water
1.0
10.0 0.0 0.0
0.0 10.0 0.0
0.0 0.0 10.0
O H
1 2
`

func TestQEToXdatcar(t *testing.T) {
	var buf bytes.Buffer
	n, err := QEToXdatcar(strings.NewReader(qeTraj), &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	lines := strings.Split(buf.String(), "\n")
	assert.Equal(t, header, strings.Join(lines[:7], "\n")+"\n")
	assert.Equal(t, "Direct  configuration= 1", lines[7])
	assert.Equal(t, "  0.05290000  0.10580000  0.15870000", lines[8])
	assert.Equal(t, "Direct  configuration= 2", lines[11])
	// -1 Bohr and 25 Bohr are wrapped.
	assert.Equal(t, "  0.94710000  0.32250000  0.15870000", lines[10])
}

func TestQEToXdatcarRoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "water.pos")
	require.NoError(t, os.WriteFile(in, []byte(qeTraj), 0644))
	out := filepath.Join(dir, "XDATCAR")

	require.NoError(t, Run(QE2Xdatcar, in, nil, out, zap.NewNop()))

	want, err := load.Load(in, load.QE, load.Selection{})
	require.NoError(t, err)
	got, err := load.Load(out, load.Xdatcar, load.Selection{})
	require.NoError(t, err)

	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, i+1, got[i].Index)
		for j := range want[i].Atoms {
			assert.InDeltaSlice(t, want[i].Atoms[j].Pos[:], got[i].Atoms[j].Pos[:], 1e-6)
		}
	}
}

func TestJoinXdatcar(t *testing.T) {
	var x1, x2 bytes.Buffer
	_, err := QEToXdatcar(strings.NewReader(qeTraj), &x1)
	require.NoError(t, err)
	_, err = QEToXdatcar(strings.NewReader(qeTraj), &x2)
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := JoinXdatcar(&x1, &x2, &buf)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	s := buf.String()
	assert.Equal(t, 1, strings.Count(s, "water\n"))
	for _, c := range []string{"= 1\n", "= 2\n", "= 3\n", "= 4\n"} {
		assert.Contains(t, s, "Direct  configuration"+c)
	}
}

func TestJoinXdatcarFiles(t *testing.T) {
	dir := t.TempDir()
	var x bytes.Buffer
	_, err := QEToXdatcar(strings.NewReader(qeTraj), &x)
	require.NoError(t, err)

	in1 := filepath.Join(dir, "XDATCAR1")
	in2 := filepath.Join(dir, "XDATCAR2")
	require.NoError(t, os.WriteFile(in1, x.Bytes(), 0644))
	require.NoError(t, os.WriteFile(in2, x.Bytes(), 0644))

	out := filepath.Join(dir, "XDATCAR")
	require.NoError(t, Run(XdatcarJoint, in1, []string{in2}, out, zap.NewNop()))

	tr, err := load.Load(out, load.Xdatcar, load.Selection{})
	require.NoError(t, err)
	require.Len(t, tr, 4)
	assert.Equal(t, 4, tr[3].Index)
	assert.Equal(t, tr[0].Atoms[1].Pos, tr[2].Atoms[1].Pos)
}

func TestRunErrors(t *testing.T) {
	for _, c := range []struct {
		name string
		opts []string
	}{
		{"qe2vasp", nil},
		{QE2Xdatcar, []string{"XDATCAR"}},
		{XdatcarJoint, nil},
	} {
		err := Run(c.name, "in", c.opts, "out", zap.NewNop())
		var cfgErr *util.ConfigError
		assert.True(t, errors.As(err, &cfgErr), c.name)
	}

	err := Run(QE2Xdatcar, filepath.Join(t.TempDir(), "missing"), nil, "out", zap.NewNop())
	var ioErr *util.IOError
	assert.True(t, errors.As(err, &ioErr))
}
