package quantize

import "math"

// Quantizer is a prepared, immutable quantizer for one Bounds.
//
// Step, half-step and range are computed once by Prepare. The Quantize and Unquantize
// methods do no validation: with Clamp disabled the caller is responsible for keeping
// inputs inside the bounds, and Unquantize masks its input to BitCount bits.
// A Quantizer is safe for concurrent use.
type Quantizer struct {
	bounds   Bounds
	lower    float64
	upper    float64
	step     float64
	halfStep float64
	maxQ     uint32
}

// Prepare validates b and returns a Quantizer bound to it.
func Prepare(b Bounds) (*Quantizer, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	s := b.Step()

	return &Quantizer{
		bounds:   b,
		lower:    float64(b.Lower),
		upper:    float64(b.Upper),
		step:     s,
		halfStep: s / 2,
		maxQ:     b.MaxQuantized(),
	}, nil
}

// MustPrepare is like Prepare but panics on invalid bounds. It is intended for
// package-level quantizers with constant bounds.
func MustPrepare(b Bounds) *Quantizer {
	q, err := Prepare(b)
	if err != nil {
		panic(err)
	}

	return q
}

// Bounds returns the bounds the quantizer was prepared with.
func (q *Quantizer) Bounds() Bounds {
	return q.bounds
}

// BitCount returns the width of quantized values.
func (q *Quantizer) BitCount() int {
	return int(q.bounds.BitCount)
}

// Step returns the distance between adjacent representable values.
func (q *Quantizer) Step() float64 {
	return q.step
}

// Quantize maps v to its nearest step index. Values outside the bounds are pinned to
// the bounds when Clamp is set; otherwise the result saturates at 0 or 2^BitCount - 1.
// NaN quantizes to 0.
func (q *Quantizer) Quantize(v float32) uint32 {
	f := float64(v)
	if q.bounds.Clamp {
		f = min(max(f, q.lower), q.upper)
	}

	return quantize(f-q.lower, q.halfStep, q.step, q.maxQ)
}

// Unquantize maps a step index back to a value.
func (q *Quantizer) Unquantize(quantized uint32) float32 {
	return float32(float64(quantized&q.maxQ)*q.step + q.lower)
}

// Snap returns the value a receiver reconstructs after v is quantized and sent.
func (q *Quantizer) Snap(v float32) float32 {
	return q.Unquantize(q.Quantize(v))
}

// Equal reports whether a and b quantize to the same integer, i.e. whether sending b
// after a would be indistinguishable on the receiving side.
func (q *Quantizer) Equal(a, b float32) bool {
	return q.Quantize(a) == q.Quantize(b)
}

// IsNearBoundary reports whether v lies within fraction*step of a rounding boundary,
// where a tiny perturbation flips the quantized result. fraction is typically small,
// for example 0.05.
func (q *Quantizer) IsNearBoundary(v float32, fraction float64) bool {
	pos := (float64(v) - q.lower) / q.step
	frac := pos - math.Floor(pos)

	return math.Abs(frac-0.5) <= fraction
}
