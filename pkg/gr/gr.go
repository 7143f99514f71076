// Package gr calculates the radial distribution function g(r) between two
// species.
package gr

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/kpotier/wateranalysis/pkg/geom"
	"github.com/kpotier/wateranalysis/pkg/load"
	"github.com/kpotier/wateranalysis/pkg/traj"
	"github.com/kpotier/wateranalysis/pkg/util"

	"github.com/pelletier/go-toml"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

// Type is the type of calculation.
var Type = "rdf"

// GR is a structure containing the parameters that can be parsed from
// a TOML configuration file. This structure can be instanced through the New
// method or through the NewOpts method. Atoms contains the two species (A
// and B) and Bins is the number of bins between 0 and RCut.
type GR struct {
	FileIn   string `toml:"rdf.file_in"`
	Format   string `toml:"rdf.format"`
	Frames   []int  `toml:"rdf.frames"`
	FileOut  string `toml:"rdf.file_out"`
	FilePlot string `toml:"rdf.file_plot"`

	Atoms []string `toml:"rdf.atoms"`
	RCut  float64  `toml:"rdf.rcut"`
	Bins  int      `toml:"rdf.bins"`

	sel  load.Selection
	echo bool
}

// New returns an instance of the GR structure. It reads and parses
// the configuration file given in argument. The file must be a TOML file.
func New(path string) (*GR, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &util.IOError{Path: path, Err: err}
	}
	defer f.Close()

	var gr GR
	dec := toml.NewDecoder(f)
	err = dec.Decode(&gr)
	if err != nil {
		return nil, err
	}

	gr.sel, err = load.NewSelection(gr.Frames)
	if err != nil {
		return nil, err
	}
	gr.echo = true

	err = gr.check()
	if err != nil {
		return nil, err
	}

	return &gr, nil
}

// NewOpts returns an instance of the GR structure from the options given on
// the command line: "A B rcut bins".
func NewOpts(src load.Source, out string, opts []string) (*GR, error) {
	if len(opts) != 4 {
		return nil, &util.ConfigError{Option: "taskopt", Msg: fmt.Sprintf("4 options are needed (A B rcut bins), got %d", len(opts))}
	}

	gr := GR{FileIn: src.Path, Format: src.Format, FileOut: out, Atoms: opts[:2], sel: src.Sel}

	var err error
	gr.RCut, err = strconv.ParseFloat(opts[2], 64)
	if err != nil {
		return nil, &util.ConfigError{Option: "rcut", Msg: err.Error()}
	}

	gr.Bins, err = strconv.Atoi(opts[3])
	if err != nil {
		return nil, &util.ConfigError{Option: "bins", Msg: err.Error()}
	}

	err = gr.check()
	if err != nil {
		return nil, err
	}

	return &gr, nil
}

func (g *GR) check() error {
	if len(g.Atoms) != 2 {
		return &util.ConfigError{Option: "atoms", Msg: fmt.Sprintf("2 species are needed, got %d", len(g.Atoms))}
	}

	if !(g.RCut > 0) {
		return &util.ConfigError{Option: "rcut", Msg: "must be greater than 0"}
	}

	if g.Bins < 1 {
		return &util.ConfigError{Option: "bins", Msg: "must be greater than 0"}
	}

	return nil
}

// Start performs the calculation. It is a thread blocking method.
func (g *GR) Start(log *zap.Logger) error {
	t, err := load.Load(g.FileIn, g.Format, g.sel)
	if err != nil {
		return fmt.Errorf("Load: %w", err)
	}
	log.Info("trajectory loaded", zap.String("file", g.FileIn), zap.Int("frames", len(t)))

	r, gr, err := Compute(t, g.Atoms[0], g.Atoms[1], g.RCut, g.Bins)
	if err != nil {
		return fmt.Errorf("Compute: %w", err)
	}

	var echo interface{}
	if g.echo {
		echo = g
	}

	out, err := util.Write(g.FileOut, echo)
	if err != nil {
		return fmt.Errorf("Write: %w", err)
	}
	defer out.Close()

	err = util.WriteSeries(out, r, gr)
	if err != nil {
		return &util.IOError{Path: g.FileOut, Err: err}
	}

	if g.FilePlot != "" {
		err = util.Plot(g.FilePlot, fmt.Sprintf("g(r) %s-%s", g.Atoms[0], g.Atoms[1]), "r (Å)", "g(r)", r, gr)
		if err != nil {
			return fmt.Errorf("Plot: %w", err)
		}
	}

	return nil
}

// Compute returns the radii r_i = i*dr and g(r_i) averaged over the frames.
// g(r) is normalized for each frame and the normalized histograms are then
// averaged.
func Compute(t traj.Trajectory, a, b string, rcut float64, bins int) (r, gr []float64, err error) {
	gr = make([]float64, bins)
	for _, f := range t {
		var hstg []float64
		hstg, err = OneFrame(f, a, b, rcut, bins)
		if err != nil {
			return nil, nil, fmt.Errorf("OneFrame (frame %d): %w", f.Index, err)
		}
		floats.Add(gr, hstg)
	}

	if len(t) > 0 {
		floats.Scale(1/float64(len(t)), gr)
	}

	dr := rcut / float64(bins)
	r = make([]float64, bins)
	for i := range r {
		r[i] = dr * float64(i)
	}

	return r, gr, nil
}

// OneFrame returns the normalized g(r) of one frame. Every ordered pair
// (a, b) is counted, so a pair of the same species is counted twice. The
// first bin is always 0.
//
// The histogram is normalized by N_A*4*Pi*r^2*dr*rho_B where rho_B = N_B/V.
func OneFrame(f *traj.Frame, a, b string, rcut float64, bins int) ([]float64, error) {
	numbA := f.Count(a)
	numbB := f.Count(b)
	if numbA == 0 || numbB == 0 {
		return nil, &util.ConfigError{Option: "atoms", Msg: fmt.Sprintf("species %s or %s not found in frame %d", a, b, f.Index)}
	}

	atA := f.ByLabel(a)
	atB := f.ByLabel(b)

	dr := rcut / float64(bins)
	hstg := make([]float64, bins)
	for _, i := range atA {
		for _, j := range atB {
			d := geom.Distance(i.Pos, j.Pos, f.Cell)
			if d < rcut {
				index := int(math.Floor(d / dr))
				if index >= bins { // d/dr rounded up to bins
					index = bins - 1
				}
				hstg[index]++
			}
		}
	}

	rhoB := float64(numbB) / f.Volume()
	hstg[0] = 0
	for i := 1; i < bins; i++ {
		ri := float64(i) * dr
		hstg[i] /= float64(numbA) * 4 * math.Pi * util.Pow(ri, 2) * dr * rhoB
	}

	return hstg, nil
}
