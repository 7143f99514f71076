// Package msd calculates the mean square displacement of one species. The
// coordinates are first unwrapped so that the atoms leaving the box are not
// folded back.
package msd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/kpotier/wateranalysis/pkg/load"
	"github.com/kpotier/wateranalysis/pkg/traj"
	"github.com/kpotier/wateranalysis/pkg/util"

	"github.com/pelletier/go-toml"
	"go.uber.org/zap"
)

// Type is the type of calculation.
var Type = "msd"

// Directions are the axes summed in the square displacement.
var Directions = map[string][]int{
	"xyz": {0, 1, 2},
	"xy":  {0, 1},
	"xz":  {0, 2},
	"yz":  {1, 2},
	"x":   {0},
	"y":   {1},
	"z":   {2},
}

// MSD is a structure containing the parameters that can be parsed from
// a TOML configuration file. This structure can be instanced through the New
// method or through the NewOpts method. The lags (in frames) go from
// StepStart to StepStop (excluded) by DStep.
type MSD struct {
	FileIn   string `toml:"msd.file_in"`
	Format   string `toml:"msd.format"`
	Frames   []int  `toml:"msd.frames"`
	FileOut  string `toml:"msd.file_out"`
	FilePlot string `toml:"msd.file_plot"`

	Species   string `toml:"msd.species"`
	Direction string `toml:"msd.direction"`
	StepStart int    `toml:"msd.stepstart"`
	StepStop  int    `toml:"msd.stepstop"`
	DStep     int    `toml:"msd.dstep"`

	sel  load.Selection
	echo bool
}

// New returns an instance of the MSD structure. It reads and parses
// the configuration file given in argument. The file must be a TOML file.
func New(path string) (*MSD, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &util.IOError{Path: path, Err: err}
	}
	defer f.Close()

	var m MSD
	dec := toml.NewDecoder(f)
	err = dec.Decode(&m)
	if err != nil {
		return nil, err
	}

	m.sel, err = load.NewSelection(m.Frames)
	if err != nil {
		return nil, err
	}
	m.echo = true

	err = m.check()
	if err != nil {
		return nil, err
	}

	return &m, nil
}

// NewOpts returns an instance of the MSD structure from the options given on
// the command line: "species direction stepstart stepstop dstep".
func NewOpts(src load.Source, out string, opts []string) (*MSD, error) {
	if len(opts) != 5 {
		return nil, &util.ConfigError{Option: "taskopt", Msg: fmt.Sprintf("5 options are needed (species direction stepstart stepstop dstep), got %d", len(opts))}
	}

	m := MSD{FileIn: src.Path, Format: src.Format, FileOut: out, Species: opts[0], Direction: opts[1], sel: src.Sel}

	names := [3]string{"stepstart", "stepstop", "dstep"}
	ptrs := [3]*int{&m.StepStart, &m.StepStop, &m.DStep}
	for k, v := range opts[2:] {
		var err error
		*ptrs[k], err = strconv.Atoi(v)
		if err != nil {
			return nil, &util.ConfigError{Option: names[k], Msg: err.Error()}
		}
	}

	err := m.check()
	if err != nil {
		return nil, err
	}

	return &m, nil
}

func (m *MSD) check() error {
	if m.Species == "" {
		return &util.ConfigError{Option: "species", Msg: "empty"}
	}

	if _, ok := Directions[m.Direction]; !ok {
		return &util.ConfigError{Option: "direction", Msg: fmt.Sprintf("`%s` isn't one of xyz, xy, xz, yz, x, y, z", m.Direction)}
	}

	if m.StepStart < 0 {
		return &util.ConfigError{Option: "stepstart", Msg: "must be greater or equal to 0"}
	}

	if m.StepStop < m.StepStart {
		return &util.ConfigError{Option: "stepstop", Msg: "must be greater or equal to stepstart"}
	}

	if m.DStep < 1 {
		return &util.ConfigError{Option: "dstep", Msg: "must be greater than 0"}
	}

	return nil
}

// Start performs the calculation. It is a thread blocking method. It writes
// the lag and the MSD for every lag having at least one time origin.
func (m *MSD) Start(log *zap.Logger) error {
	t, err := load.Load(m.FileIn, m.Format, m.sel)
	if err != nil {
		return fmt.Errorf("Load: %w", err)
	}
	log.Info("trajectory loaded", zap.String("file", m.FileIn), zap.Int("frames", len(t)))

	lags, res, err := Compute(t, m.Species, Directions[m.Direction], m.StepStart, m.StepStop, m.DStep, log)
	if err != nil {
		return fmt.Errorf("Compute: %w", err)
	}

	var echo interface{}
	if m.echo {
		echo = m
	}

	out, err := util.Write(m.FileOut, echo)
	if err != nil {
		return fmt.Errorf("Write: %w", err)
	}
	defer out.Close()

	err = util.WriteSeries(out, lags, res)
	if err != nil {
		return &util.IOError{Path: m.FileOut, Err: err}
	}

	if m.FilePlot != "" {
		err = util.Plot(m.FilePlot, "Mean square displacement of "+m.Species, "lag (frames)", "MSD", lags, res)
		if err != nil {
			return fmt.Errorf("Plot: %w", err)
		}
	}

	return nil
}

// Unwrap removes the periodic boundary conditions of the trajectory. It
// modifies t. An atom that moves by more than half of the box between two
// consecutive frames is considered to have crossed a boundary. The cell of
// the first frame is used for every frame.
func Unwrap(t traj.Trajectory) {
	if len(t) == 0 {
		return
	}

	box := t[0].Cell
	var box2 [3]float64
	for k := 0; k < 3; k++ {
		box2[k] = box[k] / 2.
	}

	// Number of boxes crossed by each atom.
	counter := make([][3]int, len(t[0].Atoms))
	last := make([][3]float64, len(t[0].Atoms))
	for i := range t[0].Atoms {
		last[i] = t[0].Atoms[i].Pos
	}

	for _, f := range t[1:] {
		for i := range f.Atoms {
			for k := 0; k < 3; k++ {
				raw := f.Atoms[i].Pos[k]

				d := raw - last[i][k]
				if d > box2[k] {
					counter[i][k]--
				} else if d < -box2[k] {
					counter[i][k]++
				}

				last[i][k] = raw
				f.Atoms[i].Pos[k] = raw + float64(counter[i][k])*box[k]
			}
		}
	}
}

// Compute returns the lags and the MSD of the atoms labelled species along
// the axes dir. The trajectory is cloned before being unwrapped. For each
// lag dk, the square displacements are averaged over every time origin k
// such as k+dk is a frame of the trajectory. Lags without any time origin
// are skipped.
func Compute(t traj.Trajectory, species string, dir []int, start, stop, dstep int, log *zap.Logger) (lags, res []float64, err error) {
	if len(t) == 0 {
		return nil, nil, &util.ConfigError{Option: "frames", Msg: "no frame"}
	}

	n := t[0].Count(species)
	if n == 0 {
		return nil, nil, &util.ConfigError{Option: "species", Msg: fmt.Sprintf("`%s` not found", species)}
	}

	u := t.Clone()
	Unwrap(u)

	for dk := start; dk < stop; dk += dstep {
		if dk >= len(u) {
			log.Warn("lag skipped", zap.Int("lag", dk), zap.Int("frames", len(u)))
			continue
		}

		var total float64
		for k := 0; k < len(u)-dk; k++ {
			total += SquareDisplacement(u[k], u[k+dk], species, dir) / float64(n)
		}

		lags = append(lags, float64(dk))
		res = append(res, total/float64(len(u)-dk))
	}

	return lags, res, nil
}

// SquareDisplacement returns the sum of the square displacements between a
// and b of the atoms labelled species along the axes dir. The other atoms
// contribute zero.
func SquareDisplacement(a, b *traj.Frame, species string, dir []int) float64 {
	var sd float64
	for i := range a.Atoms {
		if a.Atoms[i].Label != species {
			continue
		}
		for _, k := range dir {
			sd += util.Pow(b.Atoms[i].Pos[k]-a.Atoms[i].Pos[k], 2)
		}
	}
	return sd
}
