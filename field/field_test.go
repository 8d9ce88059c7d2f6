package field

import (
	"bytes"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/snapsync/bitstream"
	"github.com/arloliu/snapsync/errs"
	"github.com/arloliu/snapsync/format"
	"github.com/arloliu/snapsync/internal/hash"
	"github.com/arloliu/snapsync/snapshot"
)

const ms = snapshot.TicksPerSecond / 1000

func newField(t *testing.T, name string, kind format.ValueKind, opts ...Option) *Field {
	t.Helper()
	f, err := New(name, kind, opts...)
	require.NoError(t, err)

	return f
}

// roundTrip encodes v and decodes it back through a flushed byte slice.
func roundTrip(t *testing.T, f *Field, v snapshot.Value) snapshot.Value {
	t.Helper()
	w := bitstream.NewWriter(make([]byte, 64))
	require.NoError(t, f.Encode(w, v))
	require.Equal(t, f.EncodedBits(), w.PositionBits())
	w.WriteCurrentPartialByte(false)

	got, ok := f.Decode(bitstream.NewReader(w.Bytes()))
	require.True(t, ok)

	return got
}

func TestNew_Defaults(t *testing.T) {
	f := newField(t, "position", format.KindVector3)

	require.Equal(t, "position", f.Name())
	require.Equal(t, hash.ID("position"), f.ID())
	require.Equal(t, format.KindVector3, f.Kind())
	require.Equal(t, 13, f.Capacity()) // ceil(250ms / 50ms * 2.5)
	require.Equal(t, 96, f.EncodedBits())

	cfg := f.Config()
	require.Nil(t, cfg.Quantization)
	require.Equal(t, DefaultSendInterval, cfg.SendInterval)
	require.Equal(t, DefaultPresentationLead, cfg.PresentationLead)
	require.Equal(t, DefaultStaleness, cfg.Staleness)
	require.True(t, cfg.Acceleration)
	require.False(t, cfg.Smoothing)
}

func TestNew_CapacityFollowsLeadAndInterval(t *testing.T) {
	f := newField(t, "health", format.KindFloat,
		WithPresentationLead(time.Second),
		WithSendInterval(100*time.Millisecond),
		WithMinCapacity(4))

	require.Equal(t, 25, f.Capacity())

	f = newField(t, "armor", format.KindFloat, WithPresentationLead(0), WithMinCapacity(4))
	require.Equal(t, 4, f.Capacity())
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		field string
		kind  format.ValueKind
		opts  []Option
		err   error
	}{
		{"empty name", "", format.KindFloat, nil, errs.ErrInvalidFieldName},
		{"invalid kind", "x", format.ValueKind(0), nil, errs.ErrInvalidKind},
		{"zero send interval", "x", format.KindFloat, []Option{WithSendInterval(0)}, errs.ErrInvalidSendInterval},
		{"negative lead", "x", format.KindFloat, []Option{WithPresentationLead(-time.Millisecond)}, errs.ErrInvalidPresentationLag},
		{"zero staleness", "x", format.KindFloat, []Option{WithStaleness(0)}, errs.ErrInvalidStaleness},
		{"inverted bounds", "x", format.KindFloat, []Option{WithQuantization(1, 0, 8, false)}, errs.ErrInvalidBounds},
		{"zero bits", "x", format.KindFloat, []Option{WithQuantization(0, 1, 0, false)}, errs.ErrInvalidBitCount},
		{"rotation bits", "x", format.KindRotation, []Option{WithRotationBits(0)}, errs.ErrInvalidBitCount},
		{"quantized rotation", "x", format.KindRotation, []Option{WithQuantization(-1, 1, 8, true)}, errs.ErrKindMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.field, tt.kind, tt.opts...)
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestField_EncodeDecode_Raw(t *testing.T) {
	f := newField(t, "color", format.KindVector4)
	v := snapshot.NewVector4(mgl32.Vec4{0.1, -2.5, 1e6, float32(math.Pi)})

	require.Equal(t, v, roundTrip(t, f, v))
}

func TestField_EncodeDecode_Quantized(t *testing.T) {
	f := newField(t, "position", format.KindVector3, WithQuantization(-100, 100, 16, false))
	require.Equal(t, 48, f.EncodedBits())

	got := roundTrip(t, f, snapshot.NewVector3(mgl32.Vec3{1.5, -20, 99.9})).Vec3()

	require.InDelta(t, 1.5, got.X(), 0.002)
	require.InDelta(t, -20.0, got.Y(), 0.002)
	require.InDelta(t, 99.9, got.Z(), 0.002)
}

func TestField_Encode_OutOfRange(t *testing.T) {
	f := newField(t, "position", format.KindVector2, WithQuantization(-100, 100, 16, false))
	w := bitstream.NewWriter(make([]byte, 16))

	err := f.Encode(w, snapshot.NewVector2(mgl32.Vec2{0, 101}))

	require.ErrorIs(t, err, errs.ErrValueOutOfRange)
	require.Equal(t, 0, w.PositionBits())
}

func TestField_Encode_Clamped(t *testing.T) {
	f := newField(t, "throttle", format.KindFloat, WithQuantization(0, 1, 10, true))

	got := roundTrip(t, f, snapshot.NewFloat(1.7))

	require.InDelta(t, 1.0, got.Float(), 1e-6)
}

func TestField_Encode_ClampedRejectsNaN(t *testing.T) {
	f := newField(t, "position", format.KindVector3, WithQuantization(-10, 10, 16, true))
	w := bitstream.NewWriter(make([]byte, 16))

	err := f.Encode(w, snapshot.NewVector3(mgl32.Vec3{1, float32(math.NaN()), 3}))

	require.ErrorIs(t, err, errs.ErrValueOutOfRange)
	require.Equal(t, 0, w.PositionBits())

	// infinities are clamped like any other out-of-range value
	got := roundTrip(t, f, snapshot.NewVector3(mgl32.Vec3{float32(math.Inf(1)), 0, float32(math.Inf(-1))}))
	require.InDelta(t, 10.0, got.Vec3().X(), 1e-3)
	require.InDelta(t, -10.0, got.Vec3().Z(), 1e-3)
}

func TestField_Encode_InsufficientSpace(t *testing.T) {
	f := newField(t, "position", format.KindVector3, WithQuantization(-100, 100, 16, false))
	w := bitstream.NewWriter(make([]byte, 8))
	w.WriteBits(0x5, 3)

	// 61 bits left, 48 needed
	require.NoError(t, f.Encode(w, snapshot.NewVector3(mgl32.Vec3{1, 2, 3})))
	require.Equal(t, 51, w.PositionBits())

	err := f.Encode(w, snapshot.NewVector3(mgl32.Vec3{1, 2, 3}))
	require.ErrorIs(t, err, errs.ErrInsufficientSpace)
	require.Equal(t, 51, w.PositionBits())
}

func TestField_Encode_KindMismatch(t *testing.T) {
	f := newField(t, "health", format.KindFloat)
	w := bitstream.NewWriter(make([]byte, 16))

	err := f.Encode(w, snapshot.NewVector2(mgl32.Vec2{1, 2}))

	require.ErrorIs(t, err, errs.ErrKindMismatch)
	require.Equal(t, 0, w.PositionBits())
}

func TestField_EncodeDecode_Rotation(t *testing.T) {
	f := newField(t, "rotation", format.KindRotation)
	require.Equal(t, 29, f.EncodedBits())

	for _, q := range []mgl32.Quat{
		mgl32.QuatIdent(),
		mgl32.QuatRotate(0.7, mgl32.Vec3{0, 0, 1}),
		mgl32.QuatRotate(2.9, mgl32.Vec3{1, 1, 0}.Normalize()),
		mgl32.QuatRotate(-1.2, mgl32.Vec3{0.2, -0.9, 0.4}.Normalize()),
	} {
		v := snapshot.NewRotation(q)
		require.True(t, v.ApproxEqual(roundTrip(t, f, v), 0.01), "rotation %v", q)
	}
}

func TestField_Decode_Truncated(t *testing.T) {
	f := newField(t, "rotation", format.KindRotation)

	_, ok := f.Decode(bitstream.NewReader([]byte{0xff, 0xff}))

	require.False(t, ok)
}

func TestField_Changed(t *testing.T) {
	quantized := newField(t, "ammo", format.KindFloat, WithQuantization(0, 255, 8, true))
	require.False(t, quantized.Changed(snapshot.NewFloat(10.2), snapshot.NewFloat(10.4)))
	require.True(t, quantized.Changed(snapshot.NewFloat(10.2), snapshot.NewFloat(10.6)))

	raw := newField(t, "speed", format.KindFloat)
	require.False(t, raw.Changed(snapshot.NewFloat(1), snapshot.NewFloat(1)))
	require.True(t, raw.Changed(snapshot.NewFloat(1), snapshot.NewFloat(1.0001)))
	require.True(t, raw.Changed(snapshot.NewFloat(1), snapshot.NewVector2(mgl32.Vec2{1, 0})))

	rot := newField(t, "rotation", format.KindRotation)
	q := mgl32.QuatRotate(0.5, mgl32.Vec3{0, 1, 0})
	require.False(t, rot.Changed(snapshot.NewRotation(q), snapshot.NewRotation(q.Scale(-1))))
	require.True(t, rot.Changed(snapshot.NewRotation(q), snapshot.NewRotation(mgl32.QuatIdent())))
}

func TestField_ReceiveAndBlend(t *testing.T) {
	f := newField(t, "health", format.KindFloat)

	require.True(t, f.Receive(0, snapshot.NewFloat(1)))
	require.True(t, f.Receive(100*ms, snapshot.NewFloat(2)))

	// 300ms minus the 250ms lead lands halfway between the snapshots
	res, err := f.Blend(300 * ms)
	require.NoError(t, err)
	require.False(t, res.Extrapolated)
	require.InDelta(t, 1.5, res.Value.Float(), 1e-6)
}

func TestField_Blend_NoData(t *testing.T) {
	f := newField(t, "health", format.KindFloat)

	_, err := f.Blend(0)

	require.ErrorIs(t, err, errs.ErrNoData)
}

func TestField_Receive_Rejected(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	f := newField(t, "health", format.KindFloat, WithLogger(logger))

	require.True(t, f.Receive(100, snapshot.NewFloat(1)))
	require.False(t, f.Receive(100, snapshot.NewFloat(2)))
	require.False(t, f.Receive(200, snapshot.NewVector2(mgl32.Vec2{1, 2})))
	require.False(t, f.ReceiveWithVelocity(300, snapshot.NewFloat(3), snapshot.NewVector2(mgl32.Vec2{1, 2})))

	require.Len(t, f.History(), 1)
	require.Contains(t, buf.String(), "snapshot rejected")
	require.Contains(t, buf.String(), "field=health")
	require.Contains(t, buf.String(), "duplicate or too old")
	require.Contains(t, buf.String(), "velocity kind mismatch")
}

func TestField_ReceiveWithVelocity(t *testing.T) {
	f := newField(t, "height", format.KindFloat, WithPresentationLead(0))

	require.True(t, f.ReceiveWithVelocity(0, snapshot.NewFloat(10), snapshot.NewFloat(4)))

	res, err := f.Blend(500 * ms)
	require.NoError(t, err)
	require.True(t, res.Extrapolated)
	require.InDelta(t, 12.0, res.Value.Float(), 1e-5)

	rot := newField(t, "rotation", format.KindRotation)
	require.True(t, rot.ReceiveWithVelocity(0, snapshot.NewRotation(mgl32.QuatIdent()), snapshot.NewVector3(mgl32.Vec3{0, 0, 1})))
}

func TestField_Smoothing(t *testing.T) {
	f := newField(t, "height", format.KindFloat, WithPresentationLead(0), WithSmoothing(true))

	require.True(t, f.Receive(0, snapshot.NewFloat(0)))
	res, err := f.Blend(0)
	require.NoError(t, err)
	require.InDelta(t, 0.0, res.Value.Float(), 1e-6)

	require.True(t, f.Receive(100*ms, snapshot.NewFloat(10)))
	res, err = f.Blend(100 * ms)
	require.NoError(t, err)
	require.InDelta(t, 5.0, res.Value.Float(), 1e-5)

	f.Reset()
	require.True(t, f.Receive(200*ms, snapshot.NewFloat(8)))
	res, err = f.Blend(200 * ms)
	require.NoError(t, err)
	require.InDelta(t, 8.0, res.Value.Float(), 1e-5)
}

func TestField_HistoryAndRestore(t *testing.T) {
	src := newField(t, "health", format.KindFloat)
	for i := range 3 {
		require.True(t, src.Receive(int64(i)*100*ms, snapshot.NewFloat(float32(i))))
	}

	history := src.History()
	require.Len(t, history, 3)
	require.Equal(t, 200*ms, history[0].Ticks)
	require.Equal(t, int64(0), history[2].Ticks)

	dst := newField(t, "health", format.KindFloat)
	require.True(t, dst.Receive(900*ms, snapshot.NewFloat(9)))

	mixed := append(history, snapshot.Snapshot{Ticks: 50 * ms, Value: snapshot.NewVector2(mgl32.Vec2{1, 1})})
	require.Equal(t, 3, dst.Restore(mixed))
	require.Equal(t, history, dst.History())
}

func TestField_ConcurrentReceiveAndBlend(t *testing.T) {
	f := newField(t, "position", format.KindVector3, WithPresentationLead(0), WithSmoothing(true))
	require.True(t, f.Receive(0, snapshot.NewVector3(mgl32.Vec3{})))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 1; i <= 500; i++ {
			f.Receive(int64(i)*ms, snapshot.NewVector3(mgl32.Vec3{float32(i), 0, 0}))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 1; i <= 500; i++ {
			res, err := f.Blend(int64(i) * ms)
			if err != nil {
				t.Errorf("blend at %d: %v", i, err)
				return
			}
			if x := res.Value.Vec3().X(); math.IsNaN(float64(x)) {
				t.Errorf("blend at %d produced NaN", i)
				return
			}
		}
	}()
	wg.Wait()

	require.Equal(t, f.Capacity(), len(f.History()))
}
