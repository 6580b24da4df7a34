package outlier

import "gonum.org/v1/gonum/mat"

// Atoms is an immutable snapshot of an atomic configuration: the
// quantities the network sees and the quantities the staleness check
// compares. Positions is N x 3 in Angstrom, Cell is 3 x 3 (row
// vectors) or nil when the system has no cell.
type Atoms struct {
	Numbers   []int
	Positions *mat.Dense
	Charge    float64
	Cell      *mat.Dense
	PBC       [3]bool
}

// Len returns the number of atoms.
func (a *Atoms) Len() int {
	return len(a.Numbers)
}

// Periodic reports whether any axis is periodic.
func (a *Atoms) Periodic() bool {
	return a.PBC[0] || a.PBC[1] || a.PBC[2]
}

// Copy returns a deep copy, so later mutation of the original cannot
// leak into a cached snapshot.
func (a *Atoms) Copy() *Atoms {
	c := &Atoms{
		Numbers: make([]int, len(a.Numbers)),
		Charge:  a.Charge,
		PBC:     a.PBC,
	}
	copy(c.Numbers, a.Numbers)
	if a.Positions != nil {
		c.Positions = mat.DenseCopyOf(a.Positions)
	}
	if a.Cell != nil {
		c.Cell = mat.DenseCopyOf(a.Cell)
	}
	return c
}

// Equal compares two configurations by value: atomic numbers,
// positions, charge, cell and periodic flags. Exact float comparison
// is deliberate; any change, however small, must invalidate a cached
// result.
func (a *Atoms) Equal(b *Atoms) bool {
	if b == nil {
		return false
	}
	if len(a.Numbers) != len(b.Numbers) {
		return false
	}
	for i := range a.Numbers {
		if a.Numbers[i] != b.Numbers[i] {
			return false
		}
	}
	if a.Charge != b.Charge || a.PBC != b.PBC {
		return false
	}
	if !matEqual(a.Positions, b.Positions) {
		return false
	}
	return matEqual(a.Cell, b.Cell)
}

func matEqual(a, b *mat.Dense) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return mat.Equal(a, b)
}
