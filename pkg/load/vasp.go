package load

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/kpotier/wateranalysis/pkg/traj"
	"github.com/kpotier/wateranalysis/pkg/util"
)

// vaspHeader is the first 7 lines of a POSCAR or XDATCAR file: comment,
// scale factor, lattice vectors, species and number of atoms per species.
type vaspHeader struct {
	cell    [3]float64
	species []string
	counts  []int
	atoms   int
}

func readVaspHeader(r *lineReader) (*vaspHeader, error) {
	err := r.skip(1)
	if err != nil {
		return nil, err
	}

	s, err := r.must()
	if err != nil {
		return nil, err
	}
	scale, err := r.floats(s, 1)
	if err != nil {
		return nil, fmt.Errorf("scale factor: %w", err)
	}

	var h vaspHeader
	for k := 0; k < 3; k++ {
		s, err = r.must()
		if err != nil {
			return nil, err
		}

		v, err := r.floats(s, 3)
		if err != nil {
			return nil, fmt.Errorf("lattice vector %d: %w", k+1, err)
		}

		for j := 0; j < 3; j++ {
			if j != k && math.Abs(v[j]) > 1e-8 {
				return nil, &util.ConfigError{Option: "format", Msg: "only orthorhombic cells are supported"}
			}
		}
		h.cell[k] = v[k] * scale[0]
	}

	s, err = r.must()
	if err != nil {
		return nil, err
	}
	h.species = strings.Fields(s)
	if len(h.species) > 0 {
		if _, err := strconv.Atoi(h.species[0]); err == nil {
			return nil, fmt.Errorf("line %d: the names of the species are missing", r.line)
		}
	}

	s, err = r.must()
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(s)
	if len(fields) != len(h.species) {
		return nil, fmt.Errorf("line %d: length of species isn't equal to counts (%d vs %d)",
			r.line, len(h.species), len(fields))
	}

	h.counts = make([]int, len(fields))
	for k, v := range fields {
		h.counts[k], err = strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", r.line, err)
		}
		h.atoms += h.counts[k]
	}

	return &h, nil
}

// vaspAtoms reads the coordinates of one configuration. Direct coordinates
// are converted into Cartesian ones.
func vaspAtoms(r *lineReader, h *vaspHeader, direct bool) ([]traj.Atom, error) {
	at := make([]traj.Atom, 0, h.atoms)
	for sp, count := range h.counts {
		for i := 0; i < count; i++ {
			s, err := r.must()
			if err != nil {
				return nil, err
			}

			v, err := r.floats(s, 3)
			if err != nil {
				return nil, err
			}

			a := traj.Atom{
				Index: len(at) + 1,
				Label: h.species[sp],
				Kind:  traj.ParseKind(h.species[sp]),
			}
			for k := 0; k < 3; k++ {
				a.Pos[k] = v[k]
				if direct {
					a.Pos[k] *= h.cell[k]
				}
			}
			at = append(at, a)
		}
	}
	return at, nil
}

func newVaspFrame(index int, h *vaspHeader, at []traj.Atom) *traj.Frame {
	return &traj.Frame{
		Index:   index,
		Cell:    h.cell,
		Species: append([]string(nil), h.species...),
		Counts:  append([]int(nil), h.counts...),
		Atoms:   at,
	}
}

// isDirect returns true for Direct coordinates and false for Cartesian ones.
func isDirect(s string) (bool, error) {
	s = strings.TrimSpace(s)
	if len(s) == 0 {
		return false, errors.New("empty coordinates mode")
	}
	switch s[0] {
	case 'D', 'd':
		return true, nil
	case 'C', 'c', 'K', 'k':
		return false, nil
	}
	return false, fmt.Errorf("cartesian or direct? got `%s`", s)
}

// readPoscar reads a POSCAR file. It always returns one frame.
func readPoscar(r *lineReader, _ Selection) (traj.Trajectory, error) {
	h, err := readVaspHeader(r)
	if err != nil {
		return nil, fmt.Errorf("readVaspHeader: %w", err)
	}

	s, err := r.must()
	if err != nil {
		return nil, err
	}
	if len(s) > 0 && (s[0] == 'S' || s[0] == 's') { // Selective dynamics
		s, err = r.must()
		if err != nil {
			return nil, err
		}
	}

	direct, err := isDirect(s)
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", r.line, err)
	}

	at, err := vaspAtoms(r, h, direct)
	if err != nil {
		return nil, fmt.Errorf("vaspAtoms: %w", err)
	}

	return traj.Trajectory{newVaspFrame(1, h, at)}, nil
}

// readXdatcar reads a XDATCAR file of a simulation with a constant cell. The
// index of a frame is the number following `configuration=`.
func readXdatcar(r *lineReader, sel Selection) (traj.Trajectory, error) {
	h, err := readVaspHeader(r)
	if err != nil {
		return nil, fmt.Errorf("readVaspHeader: %w", err)
	}

	var t traj.Trajectory
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

		direct, err := isDirect(s)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", r.line, err)
		}

		index := n
		if i := strings.LastIndexByte(s, '='); i >= 0 {
			index, err = strconv.Atoi(strings.TrimSpace(s[i+1:]))
			if err != nil {
				return nil, fmt.Errorf("line %d: configuration number: %w", r.line, err)
			}
		}

		if !sel.Keep(n) {
			err = r.skip(h.atoms)
			if err != nil {
				return nil, err
			}
			continue
		}

		at, err := vaspAtoms(r, h, direct)
		if err != nil {
			return nil, fmt.Errorf("configuration %d: vaspAtoms: %w", index, err)
		}
		t = append(t, newVaspFrame(index, h, at))
	}

	return t, nil
}
