package quantize

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/snapsync/errs"
)

func TestQuantize_RoundTripWithinHalfStep(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))

	cases := []Bounds{
		{Lower: -31.999, Upper: 31.999, BitCount: 16},
		{Lower: 0, Upper: 1, BitCount: 1},
		{Lower: -1, Upper: 1, BitCount: 8},
		{Lower: -10000, Upper: 10000, BitCount: 24},
		{Lower: 0, Upper: 360, BitCount: 32},
	}

	for _, b := range cases {
		t.Run(b.String(), func(t *testing.T) {
			tolerance := b.MaxError() + float64(max(abs32(b.Lower), abs32(b.Upper)))*1e-6
			for range 500 {
				v := b.Lower + rng.Float32()*(b.Upper-b.Lower)
				q, err := Quantize(b.Lower, b.Upper, v, b.BitCount, false)
				require.NoError(t, err)
				require.LessOrEqual(t, q, b.MaxQuantized())

				got, err := Unquantize(b.Lower, b.Upper, q, b.BitCount)
				require.NoError(t, err)
				require.InDelta(t, v, got, tolerance)
			}
		})
	}
}

func TestQuantize_ZeroWithSixteenBits(t *testing.T) {
	b := Bounds{Lower: -31.999, Upper: 31.999, BitCount: 16}
	require.InDelta(t, 0.000977, b.Step(), 1e-6)

	q, err := Quantize(b.Lower, b.Upper, 0, b.BitCount, false)
	require.NoError(t, err)

	got, err := Unquantize(b.Lower, b.Upper, q, b.BitCount)
	require.NoError(t, err)
	require.InDelta(t, 0.0, got, b.Step()/2+1e-6)
}

func TestQuantize_RoundsInsteadOfTruncating(t *testing.T) {
	// step is 1.0: 0.6 must round up to 1, 0.4 down to 0
	q, err := Quantize(0, 255, 0.6, 8, false)
	require.NoError(t, err)
	require.Equal(t, uint32(1), q)

	q, err = Quantize(0, 255, 0.4, 8, false)
	require.NoError(t, err)
	require.Equal(t, uint32(0), q)
}

func TestQuantize_Endpoints(t *testing.T) {
	q, err := Quantize(-5, 5, -5, 10, false)
	require.NoError(t, err)
	require.Equal(t, uint32(0), q)

	q, err = Quantize(-5, 5, 5, 10, false)
	require.NoError(t, err)
	require.Equal(t, uint32(1023), q)

	q, err = Quantize(0, 1, 1, 32, false)
	require.NoError(t, err)
	require.Equal(t, uint32(math.MaxUint32), q)
}

func TestQuantize_OutOfRange(t *testing.T) {
	_, err := Quantize(-1, 1, 1.5, 8, false)
	require.ErrorIs(t, err, errs.ErrValueOutOfRange)

	_, err = Quantize(-1, 1, float32(math.NaN()), 8, true)
	require.ErrorIs(t, err, errs.ErrValueOutOfRange)

	q, err := Quantize(-1, 1, 1.5, 8, true)
	require.NoError(t, err)
	require.Equal(t, uint32(255), q)

	q, err = Quantize(-1, 1, -7, 8, true)
	require.NoError(t, err)
	require.Equal(t, uint32(0), q)
}

func TestQuantize_InvalidArguments(t *testing.T) {
	_, err := Quantize(0, 1, 0.5, 0, false)
	require.ErrorIs(t, err, errs.ErrInvalidBitCount)

	_, err = Quantize(0, 1, 0.5, 33, false)
	require.ErrorIs(t, err, errs.ErrInvalidBitCount)

	_, err = Quantize(1, 1, 1, 8, false)
	require.ErrorIs(t, err, errs.ErrInvalidBounds)

	_, err = Quantize(2, 1, 1.5, 8, false)
	require.ErrorIs(t, err, errs.ErrInvalidBounds)

	_, err = Unquantize(0, float32(math.Inf(1)), 1, 8)
	require.ErrorIs(t, err, errs.ErrInvalidBounds)
}

func TestUnquantize_ExceedsBitWidth(t *testing.T) {
	_, err := Unquantize(0, 1, 256, 8)
	require.ErrorIs(t, err, errs.ErrQuantizedOutOfRange)

	v, err := Unquantize(0, 1, 255, 8)
	require.NoError(t, err)
	require.InDelta(t, 1.0, v, 1e-6)
}

func TestQuantizer_MatchesCheckedPath(t *testing.T) {
	b := Bounds{Lower: -100, Upper: 250, BitCount: 18, Clamp: true}
	q, err := Prepare(b)
	require.NoError(t, err)
	require.Equal(t, b, q.Bounds())
	require.Equal(t, 18, q.BitCount())

	rng := rand.New(rand.NewPCG(9, 9))
	for range 1000 {
		v := b.Lower + rng.Float32()*(b.Upper-b.Lower)

		want, err := Quantize(b.Lower, b.Upper, v, b.BitCount, b.Clamp)
		require.NoError(t, err)
		require.Equal(t, want, q.Quantize(v))

		wantV, err := Unquantize(b.Lower, b.Upper, want, b.BitCount)
		require.NoError(t, err)
		require.Equal(t, wantV, q.Unquantize(want))
	}
}

func TestQuantizer_ClampAndSaturate(t *testing.T) {
	clamped := MustPrepare(Bounds{Lower: 0, Upper: 10, BitCount: 4, Clamp: true})
	require.Equal(t, uint32(15), clamped.Quantize(50))
	require.Equal(t, uint32(0), clamped.Quantize(-50))

	unclamped := MustPrepare(Bounds{Lower: 0, Upper: 10, BitCount: 4})
	require.Equal(t, uint32(15), unclamped.Quantize(50))
	require.Equal(t, uint32(0), unclamped.Quantize(-50))

	// high bits beyond the width are ignored
	require.Equal(t, unclamped.Unquantize(3), unclamped.Unquantize(3|0x10))
}

func TestQuantizer_NaN(t *testing.T) {
	for _, clamp := range []bool{true, false} {
		q := MustPrepare(Bounds{Lower: -5, Upper: 5, BitCount: 12, Clamp: clamp})
		require.Equal(t, uint32(0), q.Quantize(float32(math.NaN())))
	}
}

func TestPrepare_Invalid(t *testing.T) {
	_, err := Prepare(Bounds{Lower: 1, Upper: 0, BitCount: 8})
	require.ErrorIs(t, err, errs.ErrInvalidBounds)

	_, err = Prepare(Bounds{Lower: 0, Upper: 1, BitCount: 0})
	require.ErrorIs(t, err, errs.ErrInvalidBitCount)

	require.Panics(t, func() { MustPrepare(Bounds{}) })
}

func TestQuantizer_EqualAndSnap(t *testing.T) {
	q := MustPrepare(Bounds{Lower: 0, Upper: 10, BitCount: 4}) // step 2/3

	require.True(t, q.Equal(1.3, 1.4))
	require.False(t, q.Equal(1.3, 2.0))
	require.InDelta(t, 2.0/3.0*2, q.Snap(1.2), 1e-6)
}

func TestQuantizer_IsNearBoundary(t *testing.T) {
	q := MustPrepare(Bounds{Lower: 0, Upper: 255, BitCount: 8}) // step 1

	require.True(t, q.IsNearBoundary(3.5, 0.05))
	require.True(t, q.IsNearBoundary(3.52, 0.05))
	require.False(t, q.IsNearBoundary(3.0, 0.05))
	require.False(t, q.IsNearBoundary(3.8, 0.05))
}

func TestRotationQuantizer_RoundTrip(t *testing.T) {
	rq, err := NewRotationQuantizer(DefaultRotationBits)
	require.NoError(t, err)
	require.Equal(t, 2+3*DefaultRotationBits, rq.BitSize())
	require.Equal(t, DefaultRotationBits, rq.BitsPerComponent())

	rng := rand.New(rand.NewPCG(21, 42))
	for range 500 {
		axis := mgl32.Vec3{rng.Float32()*2 - 1, rng.Float32()*2 - 1, rng.Float32()*2 - 1}
		if axis.Len() < 1e-3 {
			continue
		}
		rot := mgl32.QuatRotate(rng.Float32()*2*math.Pi, axis.Normalize())

		got := rq.Unquantize(rq.Quantize(rot))
		// q and -q are the same rotation
		dot := math.Abs(float64(got.Dot(rot)))
		require.InDelta(t, 1.0, dot, 1e-4)
		require.InDelta(t, 1.0, got.Len(), 1e-5)
	}
}

func TestRotationQuantizer_LargestNegativeComponent(t *testing.T) {
	rq, err := NewRotationQuantizer(12)
	require.NoError(t, err)

	rot := mgl32.Quat{W: -0.9, V: mgl32.Vec3{0.1, 0.3, -0.2}}.Normalize()
	s := rq.Quantize(rot)
	require.Equal(t, uint8(3), s.Largest)

	got := rq.Unquantize(s)
	require.Positive(t, got.W)
	require.True(t, got.Scale(-1).ApproxEqualThreshold(rot, 1e-3))
	require.True(t, rq.Equal(rot, rot.Scale(-1)))
}

func TestNewRotationQuantizer_InvalidBits(t *testing.T) {
	_, err := NewRotationQuantizer(0)
	require.ErrorIs(t, err, errs.ErrInvalidBitCount)
}
