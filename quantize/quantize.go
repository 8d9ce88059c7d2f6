// Package quantize maps bounded floating-point values to fixed-width unsigned integers
// and back.
//
// Quantization rounds to the nearest representable step, so the reconstruction error
// of any in-range value is at most half a step:
//
//	step = (upper - lower) / (2^bitCount - 1)
//
// The package offers two paths. Quantize and Unquantize validate every argument and
// suit one-off conversions. Prepare validates a Bounds once and returns an immutable
// *Quantizer that skips per-call validation for hot loops.
package quantize

import (
	"fmt"
	"math"

	"github.com/arloliu/snapsync/errs"
)

// MaxBitCount is the widest supported quantized representation.
const MaxBitCount = 32

// Bounds describes the range and resolution of a quantized field.
type Bounds struct {
	Lower    float32
	Upper    float32
	BitCount uint32
	// Clamp pins out-of-range inputs to the nearest bound instead of rejecting them.
	Clamp bool
}

// Validate checks that the bit count is within [1, MaxBitCount] and Upper > Lower.
func (b Bounds) Validate() error {
	return validate(b.Lower, b.Upper, b.BitCount)
}

// MaxQuantized returns the largest quantized value, 2^BitCount - 1.
func (b Bounds) MaxQuantized() uint32 {
	return maxQuantized(b.BitCount)
}

// Step returns the distance between adjacent representable values.
func (b Bounds) Step() float64 {
	return step(b.Lower, b.Upper, b.BitCount)
}

// MaxError returns the worst-case reconstruction error for an in-range value.
func (b Bounds) MaxError() float64 {
	return b.Step() / 2
}

func (b Bounds) String() string {
	return fmt.Sprintf("[%g, %g]@%dbit(clamp=%t)", b.Lower, b.Upper, b.BitCount, b.Clamp)
}

// Quantize maps value in [lower, upper] to an unsigned integer of bitCount bits,
// rounding to the nearest step.
//
// Out-of-range values are pinned to the nearest bound when clamp is true and
// rejected with errs.ErrValueOutOfRange otherwise.
//
// Parameters:
//   - lower, upper: Inclusive range; upper must be greater than lower
//   - value: Value to quantize
//   - bitCount: Width of the result in bits, 1 to MaxBitCount
//   - clamp: Whether to clamp out-of-range values
//
// Returns:
//   - uint32: Quantized value in [0, 2^bitCount - 1]
//   - error: errs.ErrInvalidBitCount, errs.ErrInvalidBounds or errs.ErrValueOutOfRange
func Quantize(lower, upper, value float32, bitCount uint32, clamp bool) (uint32, error) {
	if err := validate(lower, upper, bitCount); err != nil {
		return 0, err
	}

	if !(value >= lower && value <= upper) {
		if !clamp || math.IsNaN(float64(value)) {
			return 0, fmt.Errorf("%w: %g not in [%g, %g]", errs.ErrValueOutOfRange, value, lower, upper)
		}
		value = min(max(value, lower), upper)
	}

	s := step(lower, upper, bitCount)

	return quantize(float64(value)-float64(lower), s/2, s, maxQuantized(bitCount)), nil
}

// Unquantize maps a quantized value back to [lower, upper].
//
// Returns errs.ErrQuantizedOutOfRange if quantized exceeds 2^bitCount - 1.
func Unquantize(lower, upper float32, quantized uint32, bitCount uint32) (float32, error) {
	if err := validate(lower, upper, bitCount); err != nil {
		return 0, err
	}

	maxQ := maxQuantized(bitCount)
	if quantized > maxQ {
		return 0, fmt.Errorf("%w: %d > %d", errs.ErrQuantizedOutOfRange, quantized, maxQ)
	}

	return float32(float64(quantized)*step(lower, upper, bitCount) + float64(lower)), nil
}

func validate(lower, upper float32, bitCount uint32) error {
	if bitCount < 1 || bitCount > MaxBitCount {
		return fmt.Errorf("%w: %d not in [1, %d]", errs.ErrInvalidBitCount, bitCount, MaxBitCount)
	}

	if math.IsNaN(float64(lower)) || math.IsNaN(float64(upper)) ||
		math.IsInf(float64(lower), 0) || math.IsInf(float64(upper), 0) || !(upper > lower) {
		return fmt.Errorf("%w: [%g, %g]", errs.ErrInvalidBounds, lower, upper)
	}

	return nil
}

func maxQuantized(bitCount uint32) uint32 {
	return uint32((uint64(1) << bitCount) - 1)
}

func step(lower, upper float32, bitCount uint32) float64 {
	return (float64(upper) - float64(lower)) / float64(maxQuantized(bitCount))
}

// quantize rounds offset/step to the nearest integer via floor(offset + halfStep) and
// pins the result to [0, maxQ] against float rounding at the upper edge. NaN maps to 0.
func quantize(offset, halfStep, step float64, maxQ uint32) uint32 {
	q := math.Floor((offset + halfStep) / step)
	if !(q > 0) {
		return 0
	}
	if q >= float64(maxQ) {
		return maxQ
	}

	return uint32(q)
}
