package quantize

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// DefaultRotationBits is the default per-component width of smallest-three rotations.
const DefaultRotationBits = 9

// rotationComponentBound bounds the three smallest components of a unit quaternion:
// if one of them exceeded 1/sqrt(2) it would be the largest.
const rotationComponentBound = float32(1 / math.Sqrt2)

// SmallestThree is the quantized form of a unit quaternion: the index of the
// component with the largest magnitude and the three remaining components, in
// x, y, z, w order with the largest omitted.
type SmallestThree struct {
	Largest    uint8
	Components [3]uint32
}

// RotationQuantizer quantizes unit quaternions with the smallest-three scheme.
// The largest component is dropped and rebuilt from the unit-length constraint, and
// the quaternion is negated when needed so the dropped component is positive.
type RotationQuantizer struct {
	q *Quantizer
}

// NewRotationQuantizer creates a smallest-three quantizer with bitsPerComponent bits
// for each of the three stored components.
func NewRotationQuantizer(bitsPerComponent uint32) (*RotationQuantizer, error) {
	q, err := Prepare(Bounds{
		Lower:    -rotationComponentBound,
		Upper:    rotationComponentBound,
		BitCount: bitsPerComponent,
		Clamp:    true,
	})
	if err != nil {
		return nil, err
	}

	return &RotationQuantizer{q: q}, nil
}

// BitsPerComponent returns the width of each stored component.
func (rq *RotationQuantizer) BitsPerComponent() int {
	return rq.q.BitCount()
}

// BitSize returns the encoded size of one rotation: 2 index bits plus three components.
func (rq *RotationQuantizer) BitSize() int {
	return 2 + 3*rq.q.BitCount()
}

// Quantize normalizes rot and reduces it to its smallest three components.
func (rq *RotationQuantizer) Quantize(rot mgl32.Quat) SmallestThree {
	rot = rot.Normalize()
	c := [4]float32{rot.V[0], rot.V[1], rot.V[2], rot.W}

	largest := 0
	for i := 1; i < 4; i++ {
		if abs32(c[i]) > abs32(c[largest]) {
			largest = i
		}
	}

	sign := float32(1)
	if c[largest] < 0 {
		sign = -1
	}

	out := SmallestThree{Largest: uint8(largest)} //nolint:gosec // G115: largest is 0-3
	j := 0
	for i := range 4 {
		if i == largest {
			continue
		}
		out.Components[j] = rq.q.Quantize(c[i] * sign)
		j++
	}

	return out
}

// Unquantize rebuilds a unit quaternion from its smallest-three form.
func (rq *RotationQuantizer) Unquantize(s SmallestThree) mgl32.Quat {
	largest := int(s.Largest & 0x3)

	var c [4]float32
	var sum float32
	j := 0
	for i := range 4 {
		if i == largest {
			continue
		}
		c[i] = rq.q.Unquantize(s.Components[j])
		sum += c[i] * c[i]
		j++
	}
	c[largest] = float32(math.Sqrt(float64(max(0, 1-sum))))

	return mgl32.Quat{W: c[3], V: mgl32.Vec3{c[0], c[1], c[2]}}.Normalize()
}

// Equal reports whether a and b quantize to the same smallest-three representation.
func (rq *RotationQuantizer) Equal(a, b mgl32.Quat) bool {
	return rq.Quantize(a) == rq.Quantize(b)
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}

	return v
}
