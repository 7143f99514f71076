// Package convert converts trajectory files from one format to another
// without loading them into memory.
package convert

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kpotier/wateranalysis/pkg/load"
	"github.com/kpotier/wateranalysis/pkg/util"

	"go.uber.org/zap"
)

// Names of the conversions.
const (
	QE2Xdatcar   = "qe2xdatcar"
	XdatcarJoint = "xdatcar_joint"
)

// headerLines is the number of header lines of a XDATCAR file and of a QE
// trajectory.
const headerLines = 7

// Run performs the conversion name of the file in into the file out. opts
// contains the other arguments of the conversion: nothing for qe2xdatcar and
// the second file for xdatcar_joint.
func Run(name, in string, opts []string, out string, log *zap.Logger) error {
	var files []string
	switch name {
	case QE2Xdatcar:
		if len(opts) != 0 {
			return &util.ConfigError{Option: "taskopt", Msg: fmt.Sprintf("%s needs no argument, got %d", name, len(opts))}
		}
		files = []string{in}
	case XdatcarJoint:
		if len(opts) != 1 {
			return &util.ConfigError{Option: "taskopt", Msg: fmt.Sprintf("%s needs the name of the second file, got %d argument(s)", name, len(opts))}
		}
		files = []string{in, opts[0]}
	default:
		return &util.ConfigError{Option: "taskopt", Msg: fmt.Sprintf("unknown conversion `%s`", name)}
	}

	readers := make([]io.Reader, len(files))
	for k, path := range files {
		r, err := util.Open(path)
		if err != nil {
			return fmt.Errorf("Open: %w", err)
		}
		defer r.Close()
		readers[k] = r
	}

	f, err := util.Write(out, nil)
	if err != nil {
		return fmt.Errorf("Write: %w", err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	var n int
	switch name {
	case QE2Xdatcar:
		n, err = QEToXdatcar(readers[0], w)
	case XdatcarJoint:
		n, err = JoinXdatcar(readers[0], readers[1], w)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	err = w.Flush()
	if err != nil {
		return &util.IOError{Path: out, Err: err}
	}

	log.Info("conversion done", zap.String("conversion", name), zap.String("file_out", out), zap.Int("configurations", n))
	return nil
}

// QEToXdatcar converts a QE trajectory (coordinates in Bohr) into a XDATCAR
// file (fractional coordinates). The header is copied. The coordinates are
// wrapped into the box. It returns the number of configurations.
func QEToXdatcar(r io.Reader, w io.Writer) (int, error) {
	sc := bufio.NewScanner(r)

	var (
		cell [3]float64
		line int
		conf int
	)
	for sc.Scan() {
		line++
		s := sc.Text()
		fields := strings.Fields(s)

		if line <= headerLines {
			if line >= 3 && line <= 5 {
				k := line - 3
				if len(fields) != 3 {
					return conf, fmt.Errorf("line %d: lattice vector: 3 values expected, got %d", line, len(fields))
				}
				var err error
				cell[k], err = strconv.ParseFloat(fields[k], 64)
				if err != nil {
					return conf, fmt.Errorf("line %d: %w", line, err)
				}
				if !(cell[k] > 0) {
					return conf, &util.ConfigError{Option: "cell", Msg: fmt.Sprintf("length %d isn't positive", k+1)}
				}
			}
			fmt.Fprintln(w, s)
			continue
		}

		switch len(fields) {
		case 0:
		case 2:
			conf++
			fmt.Fprintf(w, "Direct  configuration= %d\n", conf)
		case 3:
			if conf == 0 {
				return conf, fmt.Errorf("line %d: coordinates before the first configuration", line)
			}
			var xyz [3]float64
			for k := 0; k < 3; k++ {
				v, err := strconv.ParseFloat(fields[k], 64)
				if err != nil {
					return conf, fmt.Errorf("line %d: %w", line, err)
				}
				xyz[k] = load.Wrap(v*load.BohrToAngst, cell[k]) / cell[k]
			}
			fmt.Fprintf(w, "  %.8f  %.8f  %.8f\n", xyz[0], xyz[1], xyz[2])
		default:
			return conf, fmt.Errorf("line %d: unexpected line `%s`", line, s)
		}
	}

	if err := sc.Err(); err != nil {
		return conf, err
	}
	if line < headerLines {
		return conf, fmt.Errorf("header: %d lines expected, got %d", headerLines, line)
	}
	return conf, nil
}

// JoinXdatcar concatenates two XDATCAR files. The header of the second file
// is dropped and the configurations are renumbered from 1. It returns the
// number of configurations.
func JoinXdatcar(r1, r2 io.Reader, w io.Writer) (int, error) {
	var conf int
	for k, r := range []io.Reader{r1, r2} {
		sc := bufio.NewScanner(r)
		var line int
		for sc.Scan() {
			line++
			s := sc.Text()

			if line <= headerLines {
				if k == 0 {
					fmt.Fprintln(w, s)
				}
				continue
			}

			if strings.HasPrefix(strings.TrimSpace(s), "D") {
				conf++
				fmt.Fprintf(w, "Direct  configuration= %d\n", conf)
				continue
			}
			fmt.Fprintln(w, s)
		}

		if err := sc.Err(); err != nil {
			return conf, fmt.Errorf("file %d: %w", k+1, err)
		}
		if line < headerLines {
			return conf, fmt.Errorf("file %d: header: %d lines expected, got %d", k+1, headerLines, line)
		}
	}
	return conf, nil
}
