package outlier

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrDegenerateEvidence marks evidential parameters outside the
// region where a finite, non-negative variance exists. Surfacing this
// beats handing the caller a NaN or a negative variance.
var ErrDegenerateEvidence = errors.New("degenerate evidential parameters")

// evidentialVariance derives the uncertainty pair from the simple /
// Lipschitz head's Normal-Inverse-Gamma parameters:
//
//	sigma2   = beta / (alpha - 1)
//	variance = sigma2 / lambda
func evidentialVariance(lambda, alpha, beta float64) (variance, sigma2 float64, err error) {
	if alpha <= 1 {
		return 0, 0, fmt.Errorf("%w: alpha = %g <= 1", ErrDegenerateEvidence, alpha)
	}
	if lambda <= 0 {
		return 0, 0, fmt.Errorf("%w: lambda = %g <= 0", ErrDegenerateEvidence, lambda)
	}
	if beta < 0 {
		return 0, 0, fmt.Errorf("%w: beta = %g < 0", ErrDegenerateEvidence, beta)
	}
	sigma2 = beta / (alpha - 1)
	variance = sigma2 / lambda
	return variance, sigma2, nil
}

// mdVariance derives the uncertainty pair from the MD head's packed
// multivariate-t parameters. The 2x2 scale matrix is rebuilt from its
// lower-triangular factor, sigma = L·Lᵀ, then
//
//	sigma2   = sigma * nu/(nu-3)
//	variance = sigma2 / nu
//
// and the energy-energy element [0,0] of each is reported.
func mdVariance(l00, l10, l11, nu float64) (variance, sigma2 float64, err error) {
	if nu <= 3 {
		return 0, 0, fmt.Errorf("%w: nu = %g <= 3", ErrDegenerateEvidence, nu)
	}
	l := mat.NewDense(2, 2, []float64{
		l00, 0,
		l10, l11,
	})
	var sigma mat.Dense
	sigma.Mul(l, l.T())
	sigma2 = sigma.At(0, 0) * nu / (nu - 3)
	variance = sigma2 / nu
	return variance, sigma2, nil
}
