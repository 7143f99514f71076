package cfg

import (
	"fmt"
	"strings"

	"github.com/kpotier/wateranalysis/pkg/cov"
	"github.com/kpotier/wateranalysis/pkg/disttwoatoms"
	"github.com/kpotier/wateranalysis/pkg/gr"
	"github.com/kpotier/wateranalysis/pkg/hb"
	"github.com/kpotier/wateranalysis/pkg/load"
	"github.com/kpotier/wateranalysis/pkg/msd"
	"github.com/kpotier/wateranalysis/pkg/tetra"
	"github.com/kpotier/wateranalysis/pkg/util"

	"go.uber.org/zap"
)

// Calculation is an interface that only contains one method: Start. Every
// calculation must have a Start method that will launch the calculation. It
// must be a thread blocking method.
type Calculation interface {
	Start(log *zap.Logger) error
}

// Launch launchs a specific calculation. It is a thread blocking method. The
// parameters required to launch the calculation must be in a file.
func Launch(name string, path string, log *zap.Logger) error {
	var (
		err error
		cal Calculation
	)

	switch name {
	case gr.Type:
		cal, err = gr.New(path)
	case cov.Type:
		cal, err = cov.New(path)
	case hb.Type:
		cal, err = hb.New(path)
	case tetra.Type:
		cal, err = tetra.New(path)
	case msd.Type:
		cal, err = msd.New(path)
	case disttwoatoms.Type:
		cal, err = disttwoatoms.New(path)
	default:
		return &util.ConfigError{Option: "types", Msg: fmt.Sprintf("calculation `%s` doesn't exist", name)}
	}

	if err != nil {
		return fmt.Errorf("%s: New: %w", name, err)
	}

	err = cal.Start(log.With(zap.String("calculation", name)))
	if err != nil {
		return fmt.Errorf("%s: Start: %w", name, err)
	}

	return nil
}

// Task is a calculation described on the command line instead of a
// parameter file.
type Task struct {
	Name     string // type of calculation
	Opts     string // whitespace separated options of the calculation
	In       string
	Format   string
	Frames   string // "start stop step", empty for every frame
	Out      string
	FilePlot string
}

// LaunchTask launchs the calculation described by task. It is a thread
// blocking method. The options are checked before the trajectory is read.
func LaunchTask(task Task, log *zap.Logger) error {
	sel, err := load.ParseSelection(task.Frames)
	if err != nil {
		return err
	}

	src := load.Source{Path: task.In, Format: task.Format, Sel: sel}
	opts := strings.Fields(task.Opts)

	var cal Calculation
	switch task.Name {
	case gr.Type:
		var c *gr.GR
		c, err = gr.NewOpts(src, task.Out, opts)
		if c != nil {
			c.FilePlot = task.FilePlot
		}
		cal = c
	case cov.Type:
		if task.FilePlot != "" {
			return &util.ConfigError{Option: "plot", Msg: "cov doesn't produce a series"}
		}
		cal, err = cov.NewOpts(src, task.Out, opts)
	case hb.Type:
		var c *hb.HB
		c, err = hb.NewOpts(src, task.Out, opts)
		if c != nil {
			c.FilePlot = task.FilePlot
		}
		cal = c
	case tetra.Type:
		var c *tetra.Tetra
		c, err = tetra.NewOpts(src, task.Out, opts)
		if c != nil {
			c.FilePlot = task.FilePlot
		}
		cal = c
	case msd.Type:
		var c *msd.MSD
		c, err = msd.NewOpts(src, task.Out, opts)
		if c != nil {
			c.FilePlot = task.FilePlot
		}
		cal = c
	case disttwoatoms.Type:
		var c *disttwoatoms.DistTwoAtoms
		c, err = disttwoatoms.NewOpts(src, task.Out, opts)
		if c != nil {
			c.FilePlot = task.FilePlot
		}
		cal = c
	default:
		return &util.ConfigError{Option: "task", Msg: fmt.Sprintf("calculation `%s` doesn't exist", task.Name)}
	}

	if err != nil {
		return fmt.Errorf("%s: NewOpts: %w", task.Name, err)
	}

	err = cal.Start(log.With(zap.String("calculation", task.Name)))
	if err != nil {
		return fmt.Errorf("%s: Start: %w", task.Name, err)
	}

	return nil
}
