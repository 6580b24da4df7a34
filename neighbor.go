package outlier

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrNoCell    = errors.New("periodic boundary conditions without a cell")
	ErrBadCutoff = errors.New("cutoff must be positive")
	ErrBadCell   = errors.New("degenerate cell")
)

// PairList indexes candidate interacting atom pairs. I and J have
// equal length; pair k is (I[k], J[k]). Offsets is nPairs x 3 with the
// cartesian periodic image offset of atom J[k], or nil when no
// periodic search produced the list.
type PairList struct {
	I, J    []int
	Offsets *mat.Dense
}

// Len returns the number of pairs.
func (p PairList) Len() int {
	return len(p.I)
}

// AllPairs enumerates every ordered pair (i, j) with i != j among n
// atoms, i ascending. For n < 2 the list is empty. This is the static
// index used when no cutoff-based neighbor search is active.
func AllPairs(n int) PairList {
	if n < 2 {
		return PairList{}
	}
	idxI := make([]int, 0, n*(n-1))
	idxJ := make([]int, 0, n*(n-1))
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			idxI = append(idxI, i)
			idxJ = append(idxJ, j)
		}
	}
	return PairList{I: idxI, J: idxJ}
}

// CutoffPairs runs a distance-cutoff neighbor search over atoms,
// returning every ordered pair (i, j, S) with |r_j + S·cell - r_i| <
// cutoff. Periodic images are scanned on the axes flagged in
// atoms.PBC; an atom can pair with its own image under a nonzero
// shift. The search is a plain O(N²·images) scan, standing in for the
// simulation environment's binned neighbor list behind the same
// contract.
func CutoffPairs(atoms *Atoms, cutoff float64) (PairList, error) {
	if cutoff <= 0 {
		return PairList{}, fmt.Errorf("%w: %g", ErrBadCutoff, cutoff)
	}
	if atoms.Periodic() && atoms.Cell == nil {
		return PairList{}, ErrNoCell
	}
	n := atoms.Len()
	m, err := imageRanges(atoms, cutoff)
	if err != nil {
		return PairList{}, err
	}
	var (
		idxI, idxJ []int
		offs       []float64
		cut2       = cutoff * cutoff
	)
	for sx := -m[0]; sx <= m[0]; sx++ {
		for sy := -m[1]; sy <= m[1]; sy++ {
			for sz := -m[2]; sz <= m[2]; sz++ {
				off := shiftVector(atoms.Cell, sx, sy, sz)
				home := sx == 0 && sy == 0 && sz == 0
				for i := 0; i < n; i++ {
					ri := atoms.Positions.RawRowView(i)
					for j := 0; j < n; j++ {
						if home && i == j {
							continue
						}
						rj := atoms.Positions.RawRowView(j)
						var d2 float64
						for c := 0; c < 3; c++ {
							d := rj[c] + off[c] - ri[c]
							d2 += d * d
						}
						if d2 < cut2 {
							idxI = append(idxI, i)
							idxJ = append(idxJ, j)
							offs = append(offs, off[:]...)
						}
					}
				}
			}
		}
	}
	pl := PairList{I: idxI, J: idxJ}
	if len(idxI) > 0 {
		pl.Offsets = mat.NewDense(len(idxI), 3, offs)
	}
	return pl, nil
}

// imageRanges returns, per axis, how many periodic images the cutoff
// sphere can reach, from the perpendicular width of the cell along
// that axis. Non-periodic axes get zero. A cell with linearly
// dependent vectors has no perpendicular width to divide by, so it is
// rejected rather than turned into an unbounded shift range.
func imageRanges(atoms *Atoms, cutoff float64) ([3]int, error) {
	var m [3]int
	if atoms.Cell == nil {
		return m, nil
	}
	vol := math.Abs(mat.Det(atoms.Cell))
	for k := 0; k < 3; k++ {
		if !atoms.PBC[k] {
			continue
		}
		a := atoms.Cell.RawRowView((k + 1) % 3)
		b := atoms.Cell.RawRowView((k + 2) % 3)
		width := vol / crossNorm(a, b)
		if !(width > 0) || math.IsInf(width, 0) {
			return m, fmt.Errorf("%w: zero perpendicular width on axis %d", ErrBadCell, k)
		}
		m[k] = int(math.Ceil(cutoff / width))
	}
	return m, nil
}

func crossNorm(a, b []float64) float64 {
	x := a[1]*b[2] - a[2]*b[1]
	y := a[2]*b[0] - a[0]*b[2]
	z := a[0]*b[1] - a[1]*b[0]
	return math.Sqrt(x*x + y*y + z*z)
}

// shiftVector is the cartesian offset S·cell for integer shift S.
func shiftVector(cell *mat.Dense, sx, sy, sz int) [3]float64 {
	var off [3]float64
	if cell == nil {
		return off
	}
	s := [3]float64{float64(sx), float64(sy), float64(sz)}
	for c := 0; c < 3; c++ {
		off[c] = s[0]*cell.At(0, c) + s[1]*cell.At(1, c) + s[2]*cell.At(2, c)
	}
	return off
}
