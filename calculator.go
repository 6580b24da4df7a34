// Package outlier is a calculator for the atomic simulation
// environment that evaluates energies, forces and evidential
// uncertainties with a pre-trained PhysNet model.
package outlier

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var ErrNoCheckpoint = errors.New("no checkpoint given")

// Options collects the construction knobs that are not part of the
// hyperparameter file.
type Options struct {
	// Charge is the total charge handed to the network, fixed for
	// the lifetime of the calculator.
	Charge float64
	// LRCutoff switches on the long-range pair list at the given
	// distance. Zero means no long-range cutoff.
	LRCutoff float64
	// Mode overrides the config file's DER_type tag when non-empty.
	Mode string
	// Hessian requests the 3N x 3N second-derivative matrix on
	// every evaluation.
	Hessian bool
	Dtype   Dtype
}

// Result is one evaluation's worth of cached output. Hessian is nil
// unless Options.Hessian was set. Variance and Sigma2 are the
// uncertainty pair in the uniform representation, whatever mode
// produced them.
type Result struct {
	Energy   float64
	Forces   *mat.Dense
	Hessian  *mat.Dense
	Variance float64
	Sigma2   float64
}

// Calculator answers property queries against a pre-trained network,
// recomputing only when the queried configuration differs from the
// cached one.
//
// A Calculator is not safe for concurrent use: the staleness check
// and the cache write are not atomic, so it must stay single-writer,
// single-reader.
type Calculator struct {
	model  Model
	conf   Config
	mode   Mode
	charge float64

	srCutoff float64
	lrCutoff float64
	// useNeighborList forces the cutoff search regardless of the
	// queried configuration; periodic queries trigger it on their
	// own, per evaluation.
	useNeighborList bool
	hessian         bool
	dtype           Dtype

	// static all-pairs index, built once; only valid while no
	// cutoff-based neighbor search is active
	static PairList

	last *Atoms
	res  Result
}

// New builds a calculator around model, loads the checkpoint weights
// into it, and runs one throwaway evaluation of atoms so that load
// and shape errors surface here rather than deep inside a
// simulation. The cache is invalidated afterwards: the warm-up exists
// to validate wiring, not to seed results, since the caller may
// switch boundary modes before the first real query.
//
// Checkpoints beyond the first are accepted for forward compatibility
// with ensemble averaging but are not loaded.
func New(model Model, atoms *Atoms, checkpoints []string, configFile string, opts Options) (*Calculator, error) {
	conf, err := LoadConfig(configFile)
	if err != nil {
		return nil, err
	}
	tag := opts.Mode
	if tag == "" {
		tag = conf.DERType
	}
	mode, err := ParseMode(tag)
	if err != nil {
		return nil, err
	}
	if len(checkpoints) == 0 {
		return nil, ErrNoCheckpoint
	}
	st, err := ReadCheckpoint(checkpoints[0])
	if err != nil {
		return nil, err
	}
	if err := model.LoadState(st); err != nil {
		return nil, fmt.Errorf("loading %s: %w", checkpoints[0], err)
	}
	model.Eval()

	c := &Calculator{
		model:           model,
		conf:            conf,
		mode:            mode,
		charge:          opts.Charge,
		srCutoff:        conf.Cutoff,
		lrCutoff:        opts.LRCutoff,
		useNeighborList: opts.LRCutoff > 0,
		hessian:         opts.Hessian,
		dtype:           opts.Dtype,
		static:          AllPairs(atoms.Len()),
	}
	if err := c.calculate(atoms); err != nil {
		return nil, fmt.Errorf("warm-up evaluation: %w", err)
	}
	c.last = nil
	return c, nil
}

// Mode returns the inference mode dispatch is locked to.
func (c *Calculator) Mode() Mode { return c.mode }

// SRCutoff returns the short-range cutoff from the config file.
func (c *Calculator) SRCutoff() float64 { return c.srCutoff }

// LRCutoff returns the long-range cutoff, zero when none was given.
func (c *Calculator) LRCutoff() float64 { return c.lrCutoff }

// UseNeighborList reports whether a long-range cutoff forces the
// cutoff-based neighbor search on every evaluation. Periodic
// configurations take that path regardless, decided per query.
func (c *Calculator) UseNeighborList() bool { return c.useNeighborList }

// Config returns the hyperparameters the calculator was built with.
func (c *Calculator) Config() Config { return c.conf }

// CalculationRequired reports whether a query for atoms would have to
// recompute: true when nothing is cached yet or the cached snapshot
// differs by value from atoms.
func (c *Calculator) CalculationRequired(atoms *Atoms) bool {
	return c.last == nil || !c.last.Equal(atoms)
}

// Results is the single cache-gated query path every accessor goes
// through: recompute if and only if CalculationRequired, then return
// the cached result. It never serves a stale result for a changed
// configuration and never recomputes for an unchanged one.
func (c *Calculator) Results(atoms *Atoms) (*Result, error) {
	if c.CalculationRequired(atoms) {
		if err := c.calculate(atoms); err != nil {
			return nil, err
		}
	}
	return &c.res, nil
}

// PotentialEnergy returns the predicted energy.
func (c *Calculator) PotentialEnergy(atoms *Atoms) (float64, error) {
	res, err := c.Results(atoms)
	if err != nil {
		return 0, err
	}
	return res.Energy, nil
}

// PotentialEnergyAndUncertainty returns the predicted energy with its
// uncertainty pair (variance, sigma2).
func (c *Calculator) PotentialEnergyAndUncertainty(atoms *Atoms) (energy, variance, sigma2 float64, err error) {
	res, err := c.Results(atoms)
	if err != nil {
		return 0, 0, 0, err
	}
	return res.Energy, res.Variance, res.Sigma2, nil
}

// PotentialEnergyUncertaintyAndForces returns energy, the uncertainty
// pair, and forces in one query.
func (c *Calculator) PotentialEnergyUncertaintyAndForces(atoms *Atoms) (energy, variance, sigma2 float64, forces *mat.Dense, err error) {
	res, err := c.Results(atoms)
	if err != nil {
		return 0, 0, 0, nil, err
	}
	return res.Energy, res.Variance, res.Sigma2, res.Forces, nil
}

// Forces returns the N x 3 force matrix.
func (c *Calculator) Forces(atoms *Atoms) (*mat.Dense, error) {
	res, err := c.Results(atoms)
	if err != nil {
		return nil, err
	}
	return res.Forces, nil
}

// Hessian returns the 3N x 3N Hessian, or nil when the calculator was
// built without Options.Hessian.
func (c *Calculator) Hessian(atoms *Atoms) (*mat.Dense, error) {
	res, err := c.Results(atoms)
	if err != nil {
		return nil, err
	}
	return res.Hessian, nil
}

// calculate runs one full evaluation of atoms and replaces the cache.
func (c *Calculator) calculate(atoms *Atoms) error {
	var (
		pairs PairList
		sr    *PairList
		err   error
	)
	// The boundary mode belongs to the queried configuration, not
	// to the construction one: a calculator built non-periodic must
	// still run the image search when handed a periodic cell, and
	// vice versa.
	if c.useNeighborList || atoms.Periodic() {
		// Periodic systems without an explicit long-range cutoff
		// fall back to searching at the short-range cutoff.
		lr := c.lrCutoff
		if lr <= 0 {
			lr = c.srCutoff
		}
		pairs, err = CutoffPairs(atoms, lr)
		if err != nil {
			return err
		}
		short, err := CutoffPairs(atoms, c.srCutoff)
		if err != nil {
			return err
		}
		sr = &short
	} else {
		// Static index; nil offsets and nil short-range list let
		// the network apply its own cutoff split. Rebuilt only if
		// the atom count changed since construction.
		if c.static.Len() != atoms.Len()*(atoms.Len()-1) {
			c.static = AllPairs(atoms.Len())
		}
		pairs = c.static
	}

	in := &Input{
		Numbers:   atoms.Numbers,
		Positions: c.dtype.convert(atoms.Positions),
		Charge:    c.charge,
		Pairs:     pairs,
		SRPairs:   sr,
		Dtype:     c.dtype,
	}

	var res Result
	switch c.mode {
	case ModeSimple, ModeLipschitz:
		var out *Evidential
		if c.hessian {
			out, err = c.model.EnergyForcesHessianEvidential(in)
		} else {
			out, err = c.model.EnergyForcesEvidential(in)
		}
		if err != nil {
			return fmt.Errorf("%s inference: %w", c.mode, err)
		}
		res.Variance, res.Sigma2, err = evidentialVariance(out.Lambda, out.Alpha, out.Beta)
		if err != nil {
			return err
		}
		res.Energy = out.Energy
		res.Forces = out.Forces
		res.Hessian = out.Hessian
	case ModeMD:
		var out *MDEvidential
		if c.hessian {
			out, err = c.model.EnergyForcesHessianMD(in)
		} else {
			out, err = c.model.EnergyForcesMD(in)
		}
		if err != nil {
			return fmt.Errorf("%s inference: %w", c.mode, err)
		}
		res.Variance, res.Sigma2, err = mdVariance(out.L00, out.L10, out.L11, out.Nu)
		if err != nil {
			return err
		}
		res.Energy = out.Energy
		res.Forces = out.Forces
		res.Hessian = out.Hessian
	default:
		return fmt.Errorf("%w: %v", ErrUnknownMode, c.mode)
	}

	c.res = res
	c.last = atoms.Copy()
	return nil
}
