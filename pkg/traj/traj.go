// Package traj contains the in-memory representation of a trajectory. The
// loaders of the load package produce it; every calculation consumes it.
package traj

import (
	"fmt"
	"math"
)

// Kind is the chemical element of an atom, resolved once when loading.
type Kind int

// Kinds of atoms. Only oxygens and hydrogens matter for the water specific
// calculations.
const (
	Other Kind = iota
	Oxygen
	Hydrogen
)

// ParseKind returns the kind of a species label. Dump formats without named
// types use "1" for oxygen and "2" for hydrogen.
func ParseKind(label string) Kind {
	switch label {
	case "O", "1":
		return Oxygen
	case "H", "2":
		return Hydrogen
	}
	return Other
}

func (k Kind) String() string {
	switch k {
	case Oxygen:
		return "O"
	case Hydrogen:
		return "H"
	}
	return "other"
}

// Atom is one particle of a frame. Index starts at 1. Pos is in Angstrom.
type Atom struct {
	Index int
	Label string
	Kind  Kind
	Pos   [3]float64
}

// Frame is one configuration of the system. Species and Counts have the same
// length and the sum of Counts is equal to the number of atoms.
type Frame struct {
	Index   int
	Cell    [3]float64
	Species []string
	Counts  []int
	Atoms   []Atom
}

// NewFrame returns a frame whose species and counts are deduced from the
// atoms, in order of appearance.
func NewFrame(index int, cell [3]float64, atoms []Atom) *Frame {
	f := &Frame{Index: index, Cell: cell, Atoms: atoms}
	pos := make(map[string]int)
	for _, a := range atoms {
		i, ok := pos[a.Label]
		if !ok {
			i = len(f.Species)
			pos[a.Label] = i
			f.Species = append(f.Species, a.Label)
			f.Counts = append(f.Counts, 0)
		}
		f.Counts[i]++
	}
	return f
}

// Len returns the number of atoms.
func (f *Frame) Len() int {
	return len(f.Atoms)
}

// Volume returns the volume of the box.
func (f *Frame) Volume() float64 {
	return f.Cell[0] * f.Cell[1] * f.Cell[2]
}

// Count returns the number of atoms of the species label, as declared in
// Counts.
func (f *Frame) Count(label string) int {
	for i, s := range f.Species {
		if s == label {
			return f.Counts[i]
		}
	}
	return 0
}

// ByLabel returns the atoms whose label is equal to label, in the order of
// the frame.
func (f *Frame) ByLabel(label string) []*Atom {
	var res []*Atom
	for i := range f.Atoms {
		if f.Atoms[i].Label == label {
			res = append(res, &f.Atoms[i])
		}
	}
	return res
}

// ByKind returns the atoms of kind k, in the order of the frame.
func (f *Frame) ByKind(k Kind) []*Atom {
	var res []*Atom
	for i := range f.Atoms {
		if f.Atoms[i].Kind == k {
			res = append(res, &f.Atoms[i])
		}
	}
	return res
}

// Validate checks the invariants of the frame.
func (f *Frame) Validate() error {
	for k := 0; k < 3; k++ {
		if !(f.Cell[k] > 0) {
			return fmt.Errorf("frame %d: cell length %d isn't positive (%g)", f.Index, k, f.Cell[k])
		}
	}

	if len(f.Species) != len(f.Counts) {
		return fmt.Errorf("frame %d: length of Species isn't equal to Counts (%d vs %d)",
			f.Index, len(f.Species), len(f.Counts))
	}

	var sum int
	for _, c := range f.Counts {
		sum += c
	}
	if sum != len(f.Atoms) {
		return fmt.Errorf("frame %d: sum of Counts isn't equal to the number of atoms (%d vs %d)",
			f.Index, sum, len(f.Atoms))
	}

	return nil
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	c := *f
	c.Species = append([]string(nil), f.Species...)
	c.Counts = append([]int(nil), f.Counts...)
	c.Atoms = append([]Atom(nil), f.Atoms...)
	return &c
}

// CellTolerance is the largest relative difference between the cell of a
// frame and the cell of the first frame.
const CellTolerance = 1e-6

// Trajectory is an ordered sequence of frames. The atoms are in the same
// order in every frame.
type Trajectory []*Frame

// Validate checks every frame and checks that the frames are consistent with
// each other: same cell, same number of atoms, same labels.
func (t Trajectory) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("no frame")
	}

	for i, f := range t {
		err := f.Validate()
		if err != nil {
			return err
		}

		if i == 0 {
			continue
		}

		for k := 0; k < 3; k++ {
			if math.Abs(f.Cell[k]-t[0].Cell[k]) > CellTolerance*t[0].Cell[k] {
				return fmt.Errorf("frame %d: cell %v isn't equal to the cell of the first frame %v (variable cells aren't supported)",
					f.Index, f.Cell, t[0].Cell)
			}
		}

		if f.Len() != t[0].Len() {
			return fmt.Errorf("frame %d: number of atoms isn't equal to the first frame (%d vs %d)",
				f.Index, f.Len(), t[0].Len())
		}

		for j := range f.Atoms {
			if f.Atoms[j].Label != t[0].Atoms[j].Label {
				return fmt.Errorf("frame %d: atom %d is %s (expected %s)",
					f.Index, j+1, f.Atoms[j].Label, t[0].Atoms[j].Label)
			}
		}
	}

	return nil
}

// Clone returns a deep copy of the trajectory.
func (t Trajectory) Clone() Trajectory {
	c := make(Trajectory, len(t))
	for i, f := range t {
		c[i] = f.Clone()
	}
	return c
}
