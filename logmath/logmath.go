// Package logmath provides the stable log-space primitives the EM engine is
// built on. Values are "log-negative probabilities": a stored float64 v
// represents probability exp(-v), and +Inf represents probability 0.
//
// This is the same log-add identity used by the Context Tree Weighting
// addition in the teacher package (logaddexp), adapted to the log-neg sign
// convention used throughout the rest of this module.
package logmath

import "math"

// Inf is the log-neg representation of probability 0. math.Inf(1) is a
// function call, not a constant expression, so this must be a var.
var Inf = math.Inf(1)

// Add returns the log-neg value of exp(-x)+exp(-y), i.e. probability-space
// addition performed in log space without underflow. Add is commutative,
// associative, and has Inf as its identity element.
func Add(x, y float64) float64 {
	if math.IsInf(x, 1) {
		return y
	}
	if math.IsInf(y, 1) {
		return x
	}
	m, M := x, y
	if y < x {
		m, M = y, x
	}
	return m - math.Log1p(math.Exp(m-M))
}

// Max returns the log-neg value corresponding to max(exp(-x), exp(-y)),
// i.e. the smaller of the two log-neg values. Max is commutative,
// associative, and has Inf as its identity element.
func Max(x, y float64) float64 {
	if x < y {
		return x
	}
	return y
}

// Combiner selects the semantics the inside/outside routines run under:
// Add for soft (sum) EM, Max for Viterbi (hard) decoding and annotation.
type Combiner func(x, y float64) float64
