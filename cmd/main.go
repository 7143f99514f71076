package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/kpotier/wateranalysis/pkg/cfg"
	"github.com/kpotier/wateranalysis/pkg/convert"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	debug  bool
	logger *zap.Logger

	task cfg.Task
)

var rootCmd = &cobra.Command{
	Use:   "wateranalysis",
	Short: "Analysis of molecular dynamics trajectories of liquid water",
	Long: `wateranalysis post-processes trajectories of liquid water in an
orthorhombic periodic box: radial distribution function, H-O-H angles,
hydrogen bonds, tetrahedral order parameter, mean square displacement and
distance between two atoms.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if debug {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// runCmd launches the calculations of a job file.
var runCmd = &cobra.Command{
	Use:   "run [job file]",
	Short: "Run the calculations listed in a TOML or YAML job file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := cfg.New(args[0])
		if err != nil {
			return fmt.Errorf("New: %w", err)
		}
		return c.Start(logger)
	},
}

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Run one calculation described by flags",
	Long: `Runs one calculation on a trajectory. Tasks and their options:
  rdf   "A B rcut bins"
  cov   ""
  hb    ""
  q     ""
  msd   "species direction stepstart stepstop dstep"
  dist  "atom1 atom2"

Species (rdf, msd) are matched against the labels of the input file: the
element names of VASP and QE files, the type column of LAMMPS dumps ("1"
and "2" for a dump typed 1 = O and 2 = H). Oxygens and hydrogens are
recognized from either form for cov, hb and q.

Example:
  wateranalysis task --in XDATCAR --infmt vasp/xdatcar --frameopt "1 2000 1" \
    --task msd --taskopt "O xyz 1 2000 1" --out msd.out`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cfg.LaunchTask(task, logger)
	},
}

var (
	convertIn  string
	convertOpt string
	convertOut string
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a trajectory file",
	Long: `Converts a trajectory file. The first option names the conversion:
  qe2xdatcar                 QE trajectory to XDATCAR
  xdatcar_joint <XDATCAR2>   concatenation of two XDATCAR files`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := strings.Fields(convertOpt)
		if len(opts) == 0 {
			return errors.New("the conversion is missing")
		}
		return convert.Run(opts[0], convertIn, opts[1:], convertOut, logger)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	taskCmd.Flags().StringVarP(&task.In, "in", "i", "", "Input trajectory")
	taskCmd.Flags().StringVar(&task.Format, "infmt", "", "Format of the input (vasp/poscar, vasp/xdatcar, qe/traj, qe/traj_nopbc, lammps/traj)")
	taskCmd.Flags().StringVar(&task.Name, "task", "", "Calculation (rdf, cov, hb, q, msd, dist)")
	taskCmd.Flags().StringVar(&task.Opts, "taskopt", "", "Options of the calculation")
	taskCmd.Flags().StringVar(&task.Frames, "frameopt", "", "Selected frames: \"start stop step\"")
	taskCmd.Flags().StringVarP(&task.Out, "out", "o", "", "Output file")
	taskCmd.Flags().StringVar(&task.FilePlot, "plot", "", "Optional PNG plot of the result")
	for _, f := range []string{"in", "infmt", "task", "out"} {
		_ = taskCmd.MarkFlagRequired(f)
	}

	convertCmd.Flags().StringVarP(&convertIn, "in", "i", "", "Input file")
	convertCmd.Flags().StringVar(&convertOpt, "taskopt", "", "Conversion and its arguments")
	convertCmd.Flags().StringVarP(&convertOut, "out", "o", "", "Output file")
	for _, f := range []string{"in", "taskopt", "out"} {
		_ = convertCmd.MarkFlagRequired(f)
	}

	rootCmd.AddCommand(runCmd, taskCmd, convertCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
