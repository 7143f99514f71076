// Package tetra calculates the tetrahedral order parameter q of the water
// molecules. q is 1 for a perfect tetrahedron made of the four nearest
// oxygens and 0 on average for an ideal gas.
package tetra

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/kpotier/wateranalysis/pkg/geom"
	"github.com/kpotier/wateranalysis/pkg/load"
	"github.com/kpotier/wateranalysis/pkg/traj"
	"github.com/kpotier/wateranalysis/pkg/util"

	"github.com/pelletier/go-toml"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// Type is the type of calculation.
var Type = "q"

// Neighbour search. Oxygens closer than MinDist are the central oxygen
// itself.
const (
	MinDist = 0.1
	MaxDist = 5.0
)

// Tetra is a structure containing the parameters that can be parsed from
// a TOML configuration file. This structure can be instanced through the New
// method or through the NewOpts method.
type Tetra struct {
	FileIn   string `toml:"q.file_in"`
	Format   string `toml:"q.format"`
	Frames   []int  `toml:"q.frames"`
	FileOut  string `toml:"q.file_out"`
	FilePlot string `toml:"q.file_plot"`

	sel  load.Selection
	echo bool
}

// New returns an instance of the Tetra structure. It reads and parses
// the configuration file given in argument. The file must be a TOML file.
func New(path string) (*Tetra, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &util.IOError{Path: path, Err: err}
	}
	defer f.Close()

	var q Tetra
	dec := toml.NewDecoder(f)
	err = dec.Decode(&q)
	if err != nil {
		return nil, err
	}

	q.sel, err = load.NewSelection(q.Frames)
	if err != nil {
		return nil, err
	}
	q.echo = true

	return &q, nil
}

// NewOpts returns an instance of the Tetra structure. This calculation has
// no option.
func NewOpts(src load.Source, out string, opts []string) (*Tetra, error) {
	if len(opts) != 0 {
		return nil, &util.ConfigError{Option: "taskopt", Msg: fmt.Sprintf("no option is needed, got %d", len(opts))}
	}
	return &Tetra{FileIn: src.Path, Format: src.Format, FileOut: out, sel: src.Sel}, nil
}

// Start performs the calculation. It is a thread blocking method. For each
// frame, a comment line with the index of the frame and the mean of q is
// followed by the value of q of every oxygen. The last line is the mean over
// the frames.
func (q *Tetra) Start(log *zap.Logger) error {
	t, err := load.Load(q.FileIn, q.Format, q.sel)
	if err != nil {
		return fmt.Errorf("Load: %w", err)
	}
	log.Info("trajectory loaded", zap.String("file", q.FileIn), zap.Int("frames", len(t)))

	var echo interface{}
	if q.echo {
		echo = q
	}

	out, err := util.Write(q.FileOut, echo)
	if err != nil {
		return fmt.Errorf("Write: %w", err)
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	idx := make([]float64, len(t))
	means := make([]float64, len(t))
	for i, f := range t {
		res, mean, err := OneFrame(f)
		if err != nil {
			return fmt.Errorf("OneFrame (frame %d): %w", f.Index, err)
		}
		idx[i], means[i] = float64(f.Index), mean

		fmt.Fprintf(w, "# frame %d  %.8f\n", f.Index, mean)
		for _, v := range res {
			fmt.Fprintf(w, "%.8f\n", v)
		}
	}

	avg := stat.Mean(means, nil)
	fmt.Fprintf(w, "#avg %.8f\n", avg)
	log.Info("tetrahedral order parameter", zap.Float64("avg", avg))

	err = w.Flush()
	if err != nil {
		return &util.IOError{Path: q.FileOut, Err: err}
	}

	if q.FilePlot != "" {
		err = util.Plot(q.FilePlot, "Tetrahedral order parameter", "frame", "q", idx, means)
		if err != nil {
			return fmt.Errorf("Plot: %w", err)
		}
	}

	return nil
}

// Compute returns the index of each frame, the mean of q of each frame and
// the mean over the frames.
func Compute(t traj.Trajectory) (idx, res []float64, avg float64, err error) {
	idx = make([]float64, len(t))
	res = make([]float64, len(t))
	for i, f := range t {
		idx[i] = float64(f.Index)
		_, res[i], err = OneFrame(f)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("OneFrame (frame %d): %w", f.Index, err)
		}
	}

	return idx, res, stat.Mean(res, nil), nil
}

// OneFrame returns q of every oxygen of the frame and their mean.
func OneFrame(f *traj.Frame) ([]float64, float64, error) {
	oxy := f.ByKind(traj.Oxygen)
	if len(oxy) == 0 {
		return nil, 0, &util.GeometryError{Frame: f.Index, Msg: "no oxygen"}
	}

	res := make([]float64, len(oxy))
	for i, o := range oxy {
		var err error
		res[i], err = OrderParameter(o, oxy, f.Cell)
		if err != nil {
			return nil, 0, util.WithFrame(err, f.Index)
		}
	}

	return res, stat.Mean(res, nil), nil
}

// Neighbours returns the four nearest oxygens of oc. Ties keep the order of
// oxygens.
func Neighbours(oc *traj.Atom, oxygens []*traj.Atom, cell [3]float64) ([4]*traj.Atom, error) {
	type cand struct {
		a *traj.Atom
		d float64
	}

	var (
		res [4]*traj.Atom
		c   []cand
	)
	for _, o := range oxygens {
		d := geom.Distance(oc.Pos, o.Pos, cell)
		if d > MinDist && d <= MaxDist {
			c = append(c, cand{o, d})
		}
	}

	if len(c) < 4 {
		return res, &util.GeometryError{Atom: oc.Index, Msg: fmt.Sprintf("%d neighbour(s) within %g instead of 4", len(c), MaxDist)}
	}

	sort.SliceStable(c, func(i, j int) bool { return c[i].d < c[j].d })
	for k := range res {
		res[k] = c[k].a
	}
	return res, nil
}

// OrderParameter returns q = 1 - 3/8 sum_{j<k} (cos(theta_jk) + 1/3)^2 where
// theta_jk is the angle formed by the neighbours j and k of oc.
func OrderParameter(oc *traj.Atom, oxygens []*traj.Atom, cell [3]float64) (float64, error) {
	nb, err := Neighbours(oc, oxygens, cell)
	if err != nil {
		return 0, err
	}

	var sum float64
	for j := 0; j < 3; j++ {
		for k := j + 1; k < 4; k++ {
			theta := geom.Angle(nb[j].Pos, oc.Pos, nb[k].Pos, cell)
			if math.IsNaN(theta) {
				return 0, &util.GeometryError{Atom: oc.Index, Msg: "undefined angle"}
			}
			sum += util.Pow(math.Cos(theta)+1./3., 2)
		}
	}

	return 1 - 3./8.*sum, nil
}
