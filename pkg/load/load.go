// Package load reads trajectory files and returns the in-memory trajectory
// used by the calculations. Files ending with .zst or .gz are decompressed on
// the fly.
package load

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kpotier/wateranalysis/pkg/traj"
	"github.com/kpotier/wateranalysis/pkg/util"
)

// Formats of the trajectory files.
const (
	Poscar     = "vasp/poscar"
	Xdatcar    = "vasp/xdatcar"
	QE         = "qe/traj"
	QENoPBC    = "qe/traj_nopbc"
	LammpsTraj = "lammps/traj"
)

// Selection selects the configurations that are kept. The configurations
// are numbered from 1 in the order of the file. Start and Stop are both
// inclusive. The zero value selects every configuration.
type Selection struct {
	Start int
	Stop  int
	Step  int
}

// NewSelection returns a Selection from a (start, stop, step) triple. An
// empty slice selects every configuration.
func NewSelection(v []int) (Selection, error) {
	if len(v) == 0 {
		return Selection{}, nil
	}

	if len(v) != 3 {
		return Selection{}, &util.ConfigError{Option: "frames", Msg: fmt.Sprintf("3 values are needed (start stop step), got %d", len(v))}
	}

	s := Selection{Start: v[0], Stop: v[1], Step: v[2]}
	if s.Start < 1 {
		return Selection{}, &util.ConfigError{Option: "frames", Msg: "start must be greater or equal to 1"}
	}
	if s.Stop < s.Start {
		return Selection{}, &util.ConfigError{Option: "frames", Msg: "stop is lower than start"}
	}
	if s.Step < 1 {
		return Selection{}, &util.ConfigError{Option: "frames", Msg: "step must be greater or equal to 1"}
	}

	return s, nil
}

// ParseSelection parses a whitespace separated "start stop step" string.
func ParseSelection(s string) (Selection, error) {
	fields := strings.Fields(s)
	v := make([]int, len(fields))
	for k, f := range fields {
		var err error
		v[k], err = strconv.Atoi(f)
		if err != nil {
			return Selection{}, &util.ConfigError{Option: "frames", Msg: fmt.Sprintf("`%s` isn't an integer", f)}
		}
	}
	return NewSelection(v)
}

// Keep returns true if the n-th configuration is selected.
func (s Selection) Keep(n int) bool {
	if s.Step == 0 {
		return true
	}
	return n >= s.Start && n <= s.Stop && (n-s.Start)%s.Step == 0
}

// Done returns true if no configuration after the n-th one can be selected.
func (s Selection) Done(n int) bool {
	return s.Step != 0 && n > s.Stop
}

// Load reads the file at path in the given format and returns the selected
// configurations. The trajectory is validated.
func Load(path, format string, sel Selection) (traj.Trajectory, error) {
	var read func(r *lineReader, sel Selection) (traj.Trajectory, error)
	switch format {
	case Poscar:
		read = readPoscar
	case Xdatcar:
		read = readXdatcar
	case QE:
		read = func(r *lineReader, sel Selection) (traj.Trajectory, error) {
			return readQE(r, sel, true)
		}
	case QENoPBC:
		read = func(r *lineReader, sel Selection) (traj.Trajectory, error) {
			return readQE(r, sel, false)
		}
	case LammpsTraj:
		read = readLammps
	default:
		return nil, &util.ConfigError{Option: "format", Msg: fmt.Sprintf("format `%s` doesn't exist", format)}
	}

	f, err := util.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := read(newLineReader(f), sel)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	err = t.Validate()
	if err != nil {
		return nil, fmt.Errorf("%s: Validate: %w", path, err)
	}

	return t, nil
}

// lineReader reads a file line by line and counts the lines for the error
// messages.
type lineReader struct {
	r    *bufio.Reader
	line int
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReaderSize(r, 1<<16)}
}

// next returns the next line without the line ending. It returns io.EOF only
// if there is nothing left to read.
func (l *lineReader) next() (string, error) {
	s, err := l.r.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) || len(s) == 0 {
			return "", err
		}
	}
	l.line++
	return strings.TrimRight(s, "\r\n"), nil
}

// nextFilled is like next but it skips the empty lines.
func (l *lineReader) nextFilled() (string, error) {
	for {
		s, err := l.next()
		if err != nil || strings.TrimSpace(s) != "" {
			return s, err
		}
	}
}

// must is like next but io.EOF is unexpected.
func (l *lineReader) must() (string, error) {
	s, err := l.next()
	if errors.Is(err, io.EOF) {
		return "", fmt.Errorf("line %d: %w", l.line+1, io.ErrUnexpectedEOF)
	}
	return s, err
}

// skip discards n lines.
func (l *lineReader) skip(n int) error {
	for i := 0; i < n; i++ {
		_, err := l.must()
		if err != nil {
			return err
		}
	}
	return nil
}

// floats parses the first n fields of s.
func (l *lineReader) floats(s string, n int) ([]float64, error) {
	fields := strings.Fields(s)
	if len(fields) < n {
		return nil, fmt.Errorf("line %d: not enough columns (at least %d; got %d)", l.line, n, len(fields))
	}

	v := make([]float64, n)
	for k := 0; k < n; k++ {
		var err error
		v[k], err = strconv.ParseFloat(fields[k], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", l.line, err)
		}
	}
	return v, nil
}

// Source is a trajectory file, its format and the selected configurations.
// The calculations built from the command line receive it.
type Source struct {
	Path   string
	Format string
	Sel    Selection
}
