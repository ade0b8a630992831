// Package distance provides vector distance metrics and the Minkowski
// capability check used to decide whether bound estimation is possible.
package distance

import (
	"fmt"
	"math"
)

// Metric computes the distance between two vectors of equal dimensionality.
// Length checks are the caller's responsibility.
type Metric interface {
	// Distance returns the distance between a and b.
	Distance(a, b []float32) float64

	// Name returns a short human-readable metric name.
	Name() string
}

// Minkowski is the capability interface for Lp-norm metrics.
//
// An index that needs sound lower/upper distance bounds checks for this
// capability once at construction time via AsMinkowski, instead of
// type-switching on concrete metric implementations per query.
type Minkowski interface {
	Metric

	// P returns the norm exponent (finite, >= 1).
	P() float64
}

// AsMinkowski reports whether m is an Lp-norm metric and returns its exponent.
func AsMinkowski(m Metric) (float64, bool) {
	if lp, ok := m.(Minkowski); ok {
		return lp.P(), true
	}
	return 0, false
}

// LPNorm is the Minkowski distance (sum |a_i-b_i|^p)^(1/p) for finite p >= 1.
type LPNorm struct {
	p float64
}

var _ Minkowski = LPNorm{}

// NewLPNorm creates an Lp-norm metric. p must be finite and >= 1.
func NewLPNorm(p float64) (LPNorm, error) {
	if math.IsInf(p, 0) || math.IsNaN(p) || p < 1 {
		return LPNorm{}, fmt.Errorf("distance: invalid Lp exponent %v", p)
	}
	return LPNorm{p: p}, nil
}

// Euclidean returns the L2 norm metric.
func Euclidean() LPNorm { return LPNorm{p: 2} }

// Manhattan returns the L1 norm metric.
func Manhattan() LPNorm { return LPNorm{p: 1} }

// P returns the norm exponent.
func (m LPNorm) P() float64 { return m.p }

// Name returns the metric name.
func (m LPNorm) Name() string { return fmt.Sprintf("L%g", m.p) }

// Distance returns the Lp distance between a and b.
func (m LPNorm) Distance(a, b []float32) float64 {
	switch m.p {
	case 1:
		var sum float64
		for i := range a {
			sum += math.Abs(float64(a[i]) - float64(b[i]))
		}
		return sum
	case 2:
		var sum float64
		for i := range a {
			d := float64(a[i]) - float64(b[i])
			sum += d * d
		}
		return math.Sqrt(sum)
	default:
		var sum float64
		for i := range a {
			sum += math.Pow(math.Abs(float64(a[i])-float64(b[i])), m.p)
		}
		return math.Pow(sum, 1/m.p)
	}
}

// Cosine is the cosine distance 1 - cos(a, b).
//
// It is not a Minkowski metric, so indexes that require Lp bound estimation
// reject it and callers must use an exhaustive searcher instead.
type Cosine struct{}

var _ Metric = Cosine{}

// Name returns the metric name.
func (Cosine) Name() string { return "Cosine" }

// Distance returns the cosine distance between a and b.
// Zero vectors yield distance 1.
func (Cosine) Distance(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/math.Sqrt(na*nb)
}
