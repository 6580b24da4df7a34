package outlier

import "gonum.org/v1/gonum/mat"

// Dtype selects the numeric precision the network is fed.
type Dtype int

const (
	Float64 Dtype = iota
	Float32
)

// convert returns positions in the requested precision. Float32 rounds
// every element through a 32-bit float, which is what the network's
// single-precision path would see.
func (d Dtype) convert(x *mat.Dense) *mat.Dense {
	out := mat.DenseCopyOf(x)
	if d == Float32 {
		raw := out.RawMatrix().Data
		for i, v := range raw {
			raw[i] = float64(float32(v))
		}
	}
	return out
}

// Input is the argument block shared by all four network entry
// points. SRPairs may be nil, in which case the network applies its
// own short-range/long-range split to Pairs. BatchSeg is always nil
// here; the calculator evaluates one configuration at a time.
type Input struct {
	Numbers   []int
	Positions *mat.Dense
	Charge    float64
	Pairs     PairList
	SRPairs   *PairList
	BatchSeg  []int
	Dtype     Dtype
}

// Evidential is the output of the simple/Lipschitz entry points:
// a point prediction plus the three evidential shape parameters the
// variance is derived from. Hessian is nil unless it was requested.
type Evidential struct {
	Energy  float64
	Lambda  float64
	Alpha   float64
	Beta    float64
	Charges []float64
	Forces  *mat.Dense
	Hessian *mat.Dense
}

// MDEvidential is the output of the MD entry points: a joint
// energy/dipole prediction with the packed lower-triangular scale
// (L00, L10, L11) and degrees of freedom Nu of a multivariate-t
// posterior.
type MDEvidential struct {
	Energy  float64
	Dipole  float64
	L00     float64
	L10     float64
	L11     float64
	Nu      float64
	Forces  *mat.Dense
	Hessian *mat.Dense
}

// Model is the pre-trained network the calculator drives. Forces and
// Hessians come out of the model's own differentiation of the energy
// with respect to positions; the calculator only passes positions in
// and receives plain arrays back. Implementations report a shape
// mismatch from LoadState rather than loading partially.
type Model interface {
	// LoadState installs checkpoint weights.
	LoadState(State) error
	// Eval puts the model in inference mode.
	Eval()

	EnergyForcesEvidential(*Input) (*Evidential, error)
	EnergyForcesHessianEvidential(*Input) (*Evidential, error)
	EnergyForcesMD(*Input) (*MDEvidential, error)
	EnergyForcesHessianMD(*Input) (*MDEvidential, error)
}
