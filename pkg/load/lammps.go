package load

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/kpotier/wateranalysis/pkg/traj"
	"github.com/kpotier/wateranalysis/pkg/util"
)

// lammpsCols is the position of the interesting columns of a LAMMPS
// trajectory. A negative value means the column doesn't exist.
type lammpsCols struct {
	id, typ int
	xyz     [3]int
	scaled  bool
	len     int
}

// readLammps reads a LAMMPS trajectory (dump) file. Each configuration has
// 9 header lines followed by one line per atom. The atoms are sorted by id
// when the id column exists so that their order is the same in every frame.
func readLammps(r *lineReader, sel Selection) (traj.Trajectory, error) {
	var (
		t    traj.Trajectory
		cols *lammpsCols
	)

	for n := 1; ; n++ {
		if sel.Done(n) {
			break
		}

		s, err := r.nextFilled()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if !strings.HasPrefix(s, "ITEM: TIMESTEP") {
			return nil, fmt.Errorf("line %d: `ITEM: TIMESTEP` expected, got `%s`", r.line, s)
		}

		atoms, lo, box, err := lammpsHeader(r)
		if err != nil {
			return nil, fmt.Errorf("configuration %d: lammpsHeader: %w", n, err)
		}

		s, err = r.must()
		if err != nil {
			return nil, err
		}

		if !sel.Keep(n) {
			err = r.skip(atoms)
			if err != nil {
				return nil, err
			}
			continue
		}

		if cols == nil {
			cols, err = lammpsColumns(s)
			if err != nil {
				return nil, fmt.Errorf("line %d: lammpsColumns: %w", r.line, err)
			}
		}

		f, err := lammpsAtoms(r, cols, atoms, lo, box)
		if err != nil {
			return nil, fmt.Errorf("configuration %d: lammpsAtoms: %w", n, err)
		}
		f.Index = n
		t = append(t, f)
	}

	return t, nil
}

// lammpsHeader reads the lines following `ITEM: TIMESTEP` until the
// `ITEM: ATOMS` line, which is excluded. It returns the number of atoms, the
// lower bounds and the size of the box.
func lammpsHeader(r *lineReader) (atoms int, lo, box [3]float64, err error) {
	err = r.skip(2) // timestep and ITEM: NUMBER OF ATOMS
	if err != nil {
		return
	}

	s, err := r.must()
	if err != nil {
		return
	}
	atoms, err = strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		err = fmt.Errorf("line %d: number of atoms: %w", r.line, err)
		return
	}

	s, err = r.must()
	if err != nil {
		return
	}
	if !strings.HasPrefix(s, "ITEM: BOX BOUNDS") {
		err = fmt.Errorf("line %d: `ITEM: BOX BOUNDS` expected, got `%s`", r.line, s)
		return
	}
	if strings.Contains(s, "xy") {
		err = &util.ConfigError{Option: "format", Msg: "triclinic boxes aren't supported"}
		return
	}

	for k := 0; k < 3; k++ {
		s, err = r.must()
		if err != nil {
			return
		}

		var v []float64
		v, err = r.floats(s, 2)
		if err != nil {
			err = fmt.Errorf("unable to get the size of the box: %w", err)
			return
		}

		lo[k] = v[0]
		box[k] = v[1] - v[0]
	}

	return
}

// lammpsColumns finds the columns from the `ITEM: ATOMS` line.
func lammpsColumns(s string) (*lammpsCols, error) {
	fields := strings.Fields(s)
	if len(fields) <= 2 {
		return nil, fmt.Errorf("not enough columns (at least 3; got %d)", len(fields))
	}
	fields = fields[2:] // Omission of ITEM: ATOMS

	cols := &lammpsCols{id: -1, typ: -1, xyz: [3]int{-1, -1, -1}, len: len(fields)}
	element := -1
	for k, v := range fields {
		switch v {
		case "id":
			cols.id = k
		case "type":
			cols.typ = k
		case "element":
			element = k
		case "x", "xu":
			cols.xyz[0] = k
		case "y", "yu":
			cols.xyz[1] = k
		case "z", "zu":
			cols.xyz[2] = k
		case "xs", "xsu":
			cols.xyz[0] = k
			cols.scaled = true
		case "ys", "ysu":
			cols.xyz[1] = k
			cols.scaled = true
		case "zs", "zsu":
			cols.xyz[2] = k
			cols.scaled = true
		}
	}

	if cols.typ < 0 {
		cols.typ = element
	}

	if cols.typ < 0 || cols.xyz[0] < 0 || cols.xyz[1] < 0 || cols.xyz[2] < 0 {
		return nil, errors.New("cannot find the columns x, y, z, and type")
	}

	return cols, nil
}

// lammpsAtoms reads the atoms of one configuration.
func lammpsAtoms(r *lineReader, cols *lammpsCols, atoms int, lo, box [3]float64) (*traj.Frame, error) {
	at := make([]traj.Atom, atoms)
	for i := 0; i < atoms; i++ {
		s, err := r.must()
		if err != nil {
			return nil, err
		}

		fields := strings.Fields(s)
		if len(fields) != cols.len {
			return nil, fmt.Errorf("line %d: number of columns don't match: %d (expected %d)", r.line, len(fields), cols.len)
		}

		at[i].Index = i + 1
		if cols.id >= 0 {
			at[i].Index, err = strconv.Atoi(fields[cols.id])
			if err != nil {
				return nil, fmt.Errorf("line %d: id: %w", r.line, err)
			}
		}

		at[i].Label = fields[cols.typ]
		at[i].Kind = traj.ParseKind(at[i].Label)

		for k := 0; k < 3; k++ {
			at[i].Pos[k], err = strconv.ParseFloat(fields[cols.xyz[k]], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", r.line, err)
			}
			if cols.scaled {
				at[i].Pos[k] = lo[k] + at[i].Pos[k]*box[k]
			}
		}
	}

	if cols.id >= 0 {
		sort.SliceStable(at, func(i, j int) bool { return at[i].Index < at[j].Index })
	}

	return traj.NewFrame(0, box, at), nil
}
