// sprt.go implements the Sequential Probability Ratio Test of spec.md §4.8,
// grounded on sequential_probability_ratio_test.cpp: classify H0 (true
// exceedance probability ≤ p0) vs H1 (≥ p1) from a lazily-consumed stream
// of bad/good samples, using linear acceptance/rejection lines in the
// cumulative bad-sample count as a function of samples inspected.
package stochastic

import (
	"errors"
	"math"
)

// ErrInsufficientSamples is returned by SPRT.Run, before any sample is
// drawn, when the pool size is smaller than both minimum-sample thresholds,
// so that neither line could ever fire. A pool that reaches only one of the
// thresholds runs normally and may end VerdictInconclusive with a nil error.
var ErrInsufficientSamples = errors.New("stochastic: sample pool too small relative to SPRT minimum sample thresholds")

// Verdict is the outcome of an SPRT run.
type Verdict int

const (
	// VerdictContinue indicates neither bound fired (should not escape
	// Run: it only returns once a verdict is reached or samples run out).
	VerdictContinue Verdict = iota
	// VerdictAcceptH0 indicates the makespan is accepted as robust.
	VerdictAcceptH0
	// VerdictRejectH0 (accept H1) indicates the candidate makespan must be
	// inflated and re-tested.
	VerdictRejectH0
	// VerdictInconclusive indicates the sample pool was exhausted with
	// neither bound reached.
	VerdictInconclusive
)

// SPRT is a configured sequential test instance. Construct with NewSPRT;
// the zero value is not usable (its bound computations depend on p0/p1/α/β
// supplied at construction).
type SPRT struct {
	p0, p1       float64
	alpha, beta  float64
	denominator  float64
	slope        float64
	acceptFirst  float64 // a0
	rejectFirst  float64 // b0
	minAccept    int
	minReject    int
}

// NewSPRT builds an SPRT for H0: exceedance probability ≤ p0 vs
// H1: exceedance probability ≥ p1, with type-I error alpha and type-II
// error beta. p0 < p1 and both in (0,1); alpha, beta in (0,1).
func NewSPRT(p0, p1, alpha, beta float64) *SPRT {
	logP1P0 := math.Log(p1 / p0)
	logQ1Q0 := math.Log((1 - p1) / (1 - p0)) // q = 1-p
	denom := logP1P0 - logQ1Q0

	a := math.Log((1 - beta) / alpha) // upper (reject H0) threshold on LLR
	b := math.Log(beta / (1 - alpha)) // lower (accept H0) threshold on LLR

	slope := -logQ1Q0 / denom
	acceptFirst := b / denom
	rejectFirst := a / denom

	s := &SPRT{
		p0: p0, p1: p1, alpha: alpha, beta: beta,
		denominator: denom,
		slope:       slope,
		acceptFirst: acceptFirst,
		rejectFirst: rejectFirst,
	}
	s.minAccept = minSamplesForAcceptance(acceptFirst, slope)
	s.minReject = minSamplesForRejection(rejectFirst, slope)
	return s
}

// minSamplesForAcceptance returns the smallest n ≥ 0 for which
// acceptFirst + slope*n ≥ 0 — the acceptance line's minimum-sample bound,
// computed (per the grounding source) assuming every sample is good.
func minSamplesForAcceptance(acceptFirst, slope float64) int {
	if acceptFirst >= 0 {
		return 0
	}
	if slope <= 0 {
		return 0
	}
	n := int(math.Ceil(-acceptFirst / slope))
	if n < 0 {
		n = 0
	}
	return n
}

// minSamplesForRejection returns ceil(rejectFirst / (1 - slope)), the
// rejection line's minimum-sample bound, computed (per the grounding
// source) assuming every sample is bad. The denominator is 1-slope, not
// slope: the rejection line is bounded by bad ≤ n, not bad ≥ 0, so it
// cannot reuse minSamplesForAcceptance's derivation.
func minSamplesForRejection(rejectFirst, slope float64) int {
	denom := 1 - slope
	if denom <= 0 {
		return 0
	}
	v := rejectFirst / denom
	if v <= 0 {
		return 0
	}
	n := int(math.Ceil(v))
	if n < 0 {
		n = 0
	}
	return n
}

// MinAcceptSamples returns the minimum number of inspected samples before
// AcceptH0 can fire.
func (s *SPRT) MinAcceptSamples() int { return s.minAccept }

// MinRejectSamples returns the minimum number of inspected samples before
// RejectH0 can fire.
func (s *SPRT) MinRejectSamples() int { return s.minReject }

// AcceptanceLine returns a(n) = acceptFirst + slope*n.
func (s *SPRT) AcceptanceLine(n int) float64 { return s.acceptFirst + s.slope*float64(n) }

// RejectionLine returns b(n) = rejectFirst + slope*n.
func (s *SPRT) RejectionLine(n int) float64 { return s.rejectFirst + s.slope*float64(n) }

// SampleSource yields the next sample's "bad" verdict lazily (true = bad,
// makespan exceeded) and reports whether the pool is exhausted.
type SampleSource func() (bad bool, ok bool)

// Run drives the test against source, a lazily-consumed sequence, matching
// the original's generator-based iteration. It warns (via
// ErrInsufficientSamples) rather than looping forever when the configured
// pool is smaller than both minimum-sample thresholds, since in that case
// neither bound can ever fire and the caller should know before spending
// any scheduler calls.
func (s *SPRT) Run(poolSize int, source SampleSource) (Verdict, error) {
	if poolSize < s.minAccept && poolSize < s.minReject {
		return VerdictInconclusive, ErrInsufficientSamples
	}

	var bad int
	n := 0
	for {
		sample, ok := source()
		if !ok {
			return VerdictInconclusive, nil
		}
		n++
		if sample {
			bad++
		}

		if n >= s.minAccept && float64(bad) <= s.AcceptanceLine(n) {
			return VerdictAcceptH0, nil
		}
		if n >= s.minReject && float64(bad) >= s.RejectionLine(n) {
			return VerdictRejectH0, nil
		}
		if n >= poolSize {
			return VerdictInconclusive, nil
		}
	}
}
