// Package scoring combines the cosine and reasoning match scores and holds the
// gates that decide which jobs reach the reasoning and generation stages.
package scoring

import (
	"math"
	"strconv"
)

const (
	CosineWeight    = 0.3
	ReasoningWeight = 0.7

	// DefaultReasoningGate is the minimum cosine score for the reasoning stage.
	DefaultReasoningGate = 0.6
	// DefaultGenerateThreshold is the minimum combined score for generation.
	DefaultGenerateThreshold = 0.5
)

// Combine returns round4(0.3*cosine + 0.7*reasoning), or round4(cosine) when
// the job never received a reasoning score.
func Combine(cosine float64, reasoning *float64) float64 {
	if reasoning == nil {
		return Round4(cosine)
	}
	return Round4(CosineWeight*cosine + ReasoningWeight*(*reasoning))
}

// Round4 rounds to 4 decimal digits using the exact binary value of x.
// Exact ties round half to even.
func Round4(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	r, _ := strconv.ParseFloat(strconv.FormatFloat(x, 'f', 4, 64), 64)
	return r
}

// Gates holds the configurable gating policy.
type Gates struct {
	ReasoningGate     float64
	GenerateThreshold float64
}

func DefaultGates() Gates {
	return Gates{ReasoningGate: DefaultReasoningGate, GenerateThreshold: DefaultGenerateThreshold}
}

// ReasoningEligible is inclusive: cosine == gate qualifies.
func (g Gates) ReasoningEligible(cosine float64) bool {
	return cosine >= g.ReasoningGate
}

// GenerationEligible is inclusive: combined == threshold qualifies.
func (g Gates) GenerationEligible(combined float64) bool {
	return combined >= g.GenerateThreshold
}
