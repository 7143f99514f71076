// Package hb counts the hydrogen bonds per water molecule.
//
// Two oxygens closer than OODist are hydrogen bonded through one of the
// hydrogens of the donor if the angle acceptor-donor-hydrogen is lower than
// MaxAngle. Every ordered pair of oxygens is considered, so each bond
// contributes to both molecules.
package hb

import (
	"fmt"
	"math"
	"os"

	"github.com/kpotier/wateranalysis/pkg/cov"
	"github.com/kpotier/wateranalysis/pkg/geom"
	"github.com/kpotier/wateranalysis/pkg/load"
	"github.com/kpotier/wateranalysis/pkg/traj"
	"github.com/kpotier/wateranalysis/pkg/util"

	"github.com/pelletier/go-toml"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// Type is the type of calculation.
var Type = "hb"

// Geometric criteria of a hydrogen bond.
const (
	OODist   = 3.5
	MaxAngle = math.Pi / 6
)

// HB is a structure containing the parameters that can be parsed from
// a TOML configuration file. This structure can be instanced through the New
// method or through the NewOpts method.
type HB struct {
	FileIn   string `toml:"hb.file_in"`
	Format   string `toml:"hb.format"`
	Frames   []int  `toml:"hb.frames"`
	FileOut  string `toml:"hb.file_out"`
	FilePlot string `toml:"hb.file_plot"`

	sel  load.Selection
	echo bool
}

// New returns an instance of the HB structure. It reads and parses
// the configuration file given in argument. The file must be a TOML file.
func New(path string) (*HB, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &util.IOError{Path: path, Err: err}
	}
	defer f.Close()

	var h HB
	dec := toml.NewDecoder(f)
	err = dec.Decode(&h)
	if err != nil {
		return nil, err
	}

	h.sel, err = load.NewSelection(h.Frames)
	if err != nil {
		return nil, err
	}
	h.echo = true

	return &h, nil
}

// NewOpts returns an instance of the HB structure. This calculation has no
// option.
func NewOpts(src load.Source, out string, opts []string) (*HB, error) {
	if len(opts) != 0 {
		return nil, &util.ConfigError{Option: "taskopt", Msg: fmt.Sprintf("no option is needed, got %d", len(opts))}
	}
	return &HB{FileIn: src.Path, Format: src.Format, FileOut: out, sel: src.Sel}, nil
}

// Start performs the calculation. It is a thread blocking method. It writes
// the average number of hydrogen bonds per molecule for each frame and the
// average over the frames on the last line.
func (h *HB) Start(log *zap.Logger) error {
	t, err := load.Load(h.FileIn, h.Format, h.sel)
	if err != nil {
		return fmt.Errorf("Load: %w", err)
	}
	log.Info("trajectory loaded", zap.String("file", h.FileIn), zap.Int("frames", len(t)))

	idx, res, avg, err := Compute(t)
	if err != nil {
		return fmt.Errorf("Compute: %w", err)
	}
	log.Info("hydrogen bonds", zap.Float64("avg", avg))

	var echo interface{}
	if h.echo {
		echo = h
	}

	out, err := util.Write(h.FileOut, echo)
	if err != nil {
		return fmt.Errorf("Write: %w", err)
	}
	defer out.Close()

	err = util.WriteSeries(out, idx, res)
	if err != nil {
		return &util.IOError{Path: h.FileOut, Err: err}
	}

	_, err = fmt.Fprintf(out, "#avg %.8f\n", avg)
	if err != nil {
		return &util.IOError{Path: h.FileOut, Err: err}
	}

	if h.FilePlot != "" {
		err = util.Plot(h.FilePlot, "Hydrogen bonds", "frame", "HBs per molecule", idx, res)
		if err != nil {
			return fmt.Errorf("Plot: %w", err)
		}
	}

	return nil
}

// Compute returns the index of each frame, the average number of hydrogen
// bonds per molecule of each frame and the mean over the frames. The first
// error aborts the calculation.
func Compute(t traj.Trajectory) (idx, res []float64, avg float64, err error) {
	idx = make([]float64, len(t))
	res = make([]float64, len(t))
	for i, f := range t {
		idx[i] = float64(f.Index)
		res[i], err = OneFrame(f)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("OneFrame (frame %d): %w", f.Index, err)
		}
	}

	return idx, res, stat.Mean(res, nil), nil
}

// OneFrame returns the average number of hydrogen bonds per water molecule.
func OneFrame(f *traj.Frame) (float64, error) {
	oxy := f.ByKind(traj.Oxygen)
	hs := f.ByKind(traj.Hydrogen)
	if len(oxy) == 0 {
		return 0, &util.GeometryError{Frame: f.Index, Msg: "no oxygen"}
	}

	// The bonded hydrogens are only searched for the oxygens that have a
	// neighbour.
	bonded := make([]*[2]*traj.Atom, len(oxy))
	hydrogens := func(i int) ([2]*traj.Atom, error) {
		if bonded[i] != nil {
			return *bonded[i], nil
		}

		h, err := cov.BondedHydrogens(oxy[i], hs, f.Cell)
		if err != nil {
			return h, util.WithFrame(err, f.Index)
		}
		bonded[i] = &h
		return h, nil
	}

	var total int
	for i, o1 := range oxy {
		for j, o2 := range oxy {
			if i == j {
				continue
			}

			if geom.Distance(o1.Pos, o2.Pos, f.Cell) >= OODist {
				continue
			}

			// o2 donates to o1
			h2, err := hydrogens(j)
			if err != nil {
				return 0, err
			}
			for _, h := range h2 {
				if geom.Angle(o1.Pos, o2.Pos, h.Pos, f.Cell) < MaxAngle {
					total++
				}
			}

			// o1 donates to o2
			h1, err := hydrogens(i)
			if err != nil {
				return 0, err
			}
			for _, h := range h1 {
				if geom.Angle(o2.Pos, o1.Pos, h.Pos, f.Cell) < MaxAngle {
					total++
				}
			}
		}
	}

	return float64(total) / float64(len(oxy)), nil
}
