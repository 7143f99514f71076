package load

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/kpotier/wateranalysis/pkg/traj"
)

// BohrToAngst converts Bohr into Angstrom.
const BohrToAngst = 0.529

// readQE reads a Quantum ESPRESSO trajectory (.pos). The file must start with
// a header like the one of a XDATCAR file (cell in Angstrom, species and
// number of atoms per species). Each configuration starts with a line of two
// fields (step and time) followed by the coordinates in Bohr. If wrap is true,
// the atoms are put back into the box.
func readQE(r *lineReader, sel Selection, wrap bool) (traj.Trajectory, error) {
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
		if len(strings.Fields(s)) != 2 {
			return nil, fmt.Errorf("line %d: `step time` expected, got `%s`", r.line, s)
		}

		if !sel.Keep(n) {
			err = r.skip(h.atoms)
			if err != nil {
				return nil, err
			}
			continue
		}

		at, err := vaspAtoms(r, h, false)
		if err != nil {
			return nil, fmt.Errorf("configuration %d: vaspAtoms: %w", n, err)
		}

		for i := range at {
			for k := 0; k < 3; k++ {
				at[i].Pos[k] *= BohrToAngst
				if wrap {
					at[i].Pos[k] = Wrap(at[i].Pos[k], h.cell[k])
				}
			}
		}
		t = append(t, newVaspFrame(n, h, at))
	}

	return t, nil
}

// Wrap puts x back into [0, l).
func Wrap(x, l float64) float64 {
	x -= math.Floor(x/l) * l
	if x >= l { // rounding of tiny negative values
		x -= l
	}
	return x
}
