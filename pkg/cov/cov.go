// Package cov finds the covalent bonds of the water molecules and calculates
// the H-O-H angles.
package cov

import (
	"bufio"
	"fmt"
	"math"
	"os"

	"github.com/kpotier/wateranalysis/pkg/geom"
	"github.com/kpotier/wateranalysis/pkg/load"
	"github.com/kpotier/wateranalysis/pkg/traj"
	"github.com/kpotier/wateranalysis/pkg/util"

	"github.com/pelletier/go-toml"
	"go.uber.org/zap"
)

// Type is the type of calculation.
var Type = "cov"

// BondLength is the largest O-H distance of a covalent bond.
const BondLength = 1.5

// BondedHydrogens returns the two hydrogens bonded to the oxygen o. The
// hydrogens are scanned in the order of hs and the first two closer than
// BondLength are returned, even if there are others.
func BondedHydrogens(o *traj.Atom, hs []*traj.Atom, cell [3]float64) ([2]*traj.Atom, error) {
	var (
		res   [2]*traj.Atom
		found int
	)

	for _, h := range hs {
		if geom.Distance(o.Pos, h.Pos, cell) <= BondLength {
			res[found] = h
			found++
			if found == 2 {
				return res, nil
			}
		}
	}

	return res, &util.GeometryError{Atom: o.Index, Msg: fmt.Sprintf("%d bonded hydrogen(s) instead of 2", found)}
}

// Cov is a structure containing the parameters that can be parsed from
// a TOML configuration file. This structure can be instanced through the New
// method or through the NewOpts method.
type Cov struct {
	FileIn  string `toml:"cov.file_in"`
	Format  string `toml:"cov.format"`
	Frames  []int  `toml:"cov.frames"`
	FileOut string `toml:"cov.file_out"`

	sel  load.Selection
	echo bool
}

// New returns an instance of the Cov structure. It reads and parses
// the configuration file given in argument. The file must be a TOML file.
func New(path string) (*Cov, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &util.IOError{Path: path, Err: err}
	}
	defer f.Close()

	var c Cov
	dec := toml.NewDecoder(f)
	err = dec.Decode(&c)
	if err != nil {
		return nil, err
	}

	c.sel, err = load.NewSelection(c.Frames)
	if err != nil {
		return nil, err
	}
	c.echo = true

	return &c, nil
}

// NewOpts returns an instance of the Cov structure. This calculation has no
// option.
func NewOpts(src load.Source, out string, opts []string) (*Cov, error) {
	if len(opts) != 0 {
		return nil, &util.ConfigError{Option: "taskopt", Msg: fmt.Sprintf("no option is needed, got %d", len(opts))}
	}
	return &Cov{FileIn: src.Path, Format: src.Format, FileOut: out, sel: src.Sel}, nil
}

// Start performs the calculation. It is a thread blocking method. It writes
// one angle in degrees per water molecule and per frame.
func (c *Cov) Start(log *zap.Logger) error {
	t, err := load.Load(c.FileIn, c.Format, c.sel)
	if err != nil {
		return fmt.Errorf("Load: %w", err)
	}
	log.Info("trajectory loaded", zap.String("file", c.FileIn), zap.Int("frames", len(t)))

	var echo interface{}
	if c.echo {
		echo = c
	}

	out, err := util.Write(c.FileOut, echo)
	if err != nil {
		return fmt.Errorf("Write: %w", err)
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	for _, f := range t {
		ang, err := Angles(f)
		if err != nil {
			return fmt.Errorf("Angles: %w", err)
		}

		for _, v := range ang {
			fmt.Fprintf(w, "%.8f\n", v)
		}
	}

	err = w.Flush()
	if err != nil {
		return &util.IOError{Path: c.FileOut, Err: err}
	}

	return nil
}

// Angles returns the H-O-H angle in degrees of every water molecule of the
// frame, in the order of the oxygens.
func Angles(f *traj.Frame) ([]float64, error) {
	oxy := f.ByKind(traj.Oxygen)
	hs := f.ByKind(traj.Hydrogen)

	res := make([]float64, len(oxy))
	for i, o := range oxy {
		h, err := BondedHydrogens(o, hs, f.Cell)
		if err != nil {
			return nil, util.WithFrame(err, f.Index)
		}

		res[i] = geom.Angle(h[0].Pos, o.Pos, h[1].Pos, f.Cell) * 180 / math.Pi
	}

	return res, nil
}
