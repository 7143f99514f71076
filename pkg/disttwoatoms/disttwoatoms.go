// Package disttwoatoms calculates the distance between two atoms over time.
package disttwoatoms

import (
	"fmt"
	"os"
	"strconv"

	"github.com/kpotier/wateranalysis/pkg/geom"
	"github.com/kpotier/wateranalysis/pkg/load"
	"github.com/kpotier/wateranalysis/pkg/traj"
	"github.com/kpotier/wateranalysis/pkg/util"

	"github.com/pelletier/go-toml"
	"go.uber.org/zap"
)

// Type is name of the calculation.
var Type = "dist"

// DistTwoAtoms is a structure containing the parameters that can be parsed
// from a TOML configuration file. This structure can be instanced through
// the New method or through the NewOpts method. Atom1 and Atom2 are the
// positions (starting at 1) of the atoms in a frame.
type DistTwoAtoms struct {
	FileIn   string `toml:"dist.file_in"`
	Format   string `toml:"dist.format"`
	Frames   []int  `toml:"dist.frames"`
	FileOut  string `toml:"dist.file_out"`
	FilePlot string `toml:"dist.file_plot"`

	Atom1 int `toml:"dist.atom_1"`
	Atom2 int `toml:"dist.atom_2"`

	sel  load.Selection
	echo bool
}

// New returns an instance of the DistTwoAtoms structure. It reads and parses
// the configuration file given in argument. The file must be a TOML file.
func New(path string) (*DistTwoAtoms, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &util.IOError{Path: path, Err: err}
	}
	defer f.Close()

	var distTwoAtoms DistTwoAtoms
	dec := toml.NewDecoder(f)
	err = dec.Decode(&distTwoAtoms)
	if err != nil {
		return nil, err
	}

	distTwoAtoms.sel, err = load.NewSelection(distTwoAtoms.Frames)
	if err != nil {
		return nil, err
	}
	distTwoAtoms.echo = true

	err = distTwoAtoms.check()
	if err != nil {
		return nil, err
	}

	return &distTwoAtoms, nil
}

// NewOpts returns an instance of the DistTwoAtoms structure from the options
// given on the command line: "atom1 atom2".
func NewOpts(src load.Source, out string, opts []string) (*DistTwoAtoms, error) {
	if len(opts) != 2 {
		return nil, &util.ConfigError{Option: "taskopt", Msg: fmt.Sprintf("2 options are needed (atom1 atom2), got %d", len(opts))}
	}

	d := DistTwoAtoms{FileIn: src.Path, Format: src.Format, FileOut: out, sel: src.Sel}

	var err error
	d.Atom1, err = strconv.Atoi(opts[0])
	if err != nil {
		return nil, &util.ConfigError{Option: "atom_1", Msg: err.Error()}
	}

	d.Atom2, err = strconv.Atoi(opts[1])
	if err != nil {
		return nil, &util.ConfigError{Option: "atom_2", Msg: err.Error()}
	}

	err = d.check()
	if err != nil {
		return nil, err
	}

	return &d, nil
}

func (d *DistTwoAtoms) check() error {
	if d.Atom1 < 1 {
		return &util.ConfigError{Option: "atom_1", Msg: "must be greater or equal to 1"}
	}
	if d.Atom2 < 1 {
		return &util.ConfigError{Option: "atom_2", Msg: "must be greater or equal to 1"}
	}
	return nil
}

// Start performs the calculation. It is a thread blocking method. It is a
// very fast calculation.
func (d *DistTwoAtoms) Start(log *zap.Logger) error {
	t, err := load.Load(d.FileIn, d.Format, d.sel)
	if err != nil {
		return fmt.Errorf("Load: %w", err)
	}
	log.Info("trajectory loaded", zap.String("file", d.FileIn), zap.Int("frames", len(t)))

	idx, dist, err := Compute(t, d.Atom1, d.Atom2)
	if err != nil {
		return fmt.Errorf("Compute: %w", err)
	}

	var echo interface{}
	if d.echo {
		echo = d
	}

	out, err := util.Write(d.FileOut, echo)
	if err != nil {
		return fmt.Errorf("Write: %w", err)
	}
	defer out.Close()

	err = util.WriteSeries(out, idx, dist)
	if err != nil {
		return &util.IOError{Path: d.FileOut, Err: err}
	}

	if d.FilePlot != "" {
		err = util.Plot(d.FilePlot, fmt.Sprintf("Distance %d-%d", d.Atom1, d.Atom2), "frame", "distance", idx, dist)
		if err != nil {
			return fmt.Errorf("Plot: %w", err)
		}
	}

	return nil
}

// Compute returns the index of each frame and the minimum image distance
// between the atoms at the positions atom1 and atom2 (starting at 1).
func Compute(t traj.Trajectory, atom1, atom2 int) (idx, dist []float64, err error) {
	idx = make([]float64, len(t))
	dist = make([]float64, len(t))
	for i, f := range t {
		if atom1 > f.Len() || atom2 > f.Len() {
			return nil, nil, &util.ConfigError{Option: "taskopt", Msg: fmt.Sprintf("atom out of range (frame %d has %d atoms)", f.Index, f.Len())}
		}

		idx[i] = float64(f.Index)
		dist[i] = geom.Distance(f.Atoms[atom1-1].Pos, f.Atoms[atom2-1].Pos, f.Cell)
	}
	return idx, dist, nil
}
