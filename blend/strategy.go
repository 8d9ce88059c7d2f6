package blend

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/arloliu/snapsync/format"
	"github.com/arloliu/snapsync/snapshot"
)

// strategy blends values of one kind. A Reconstructor selects its strategy once, from
// the field's kind, when it is created.
type strategy interface {
	// interpolate blends between two snapshots' values; ratio is in (0, 1).
	interpolate(older, newer snapshot.Value, ratio float64) snapshot.Value
	// extrapolate projects the newest value of src forward by dtTicks (> 0).
	extrapolate(src Source, dtTicks int64, accel bool) snapshot.Value
}

func strategyFor(kind format.ValueKind) strategy {
	if kind == format.KindRotation {
		return spherical{}
	}

	return linear{kind: kind, dims: kind.Components()}
}

// linear blends scalars and vectors component-wise.
type linear struct {
	kind format.ValueKind
	dims int
}

func (s linear) interpolate(older, newer snapshot.Value, ratio float64) snapshot.Value {
	a, b := older.Components(), newer.Components()

	var out [4]float32
	for i := range s.dims {
		out[i] = float32(float64(a[i])*(1-ratio) + float64(b[i])*ratio)
	}

	return snapshot.FromComponents(s.kind, out)
}

// extrapolate projects s = s0 + v*dt + a*dt^2/2. Velocity comes from the newest
// snapshot's velocity sample when present, otherwise from the two newest positions.
// Acceleration comes from the change between the two newest velocities.
func (s linear) extrapolate(src Source, dtTicks int64, accel bool) snapshot.Value {
	newest := src.At(0)
	n := src.Len()

	var vel, acc [4]float64
	switch {
	case newest.HasVelocity():
		vel = toFloat64(newest.Velocity.Components(), s.dims)
		if accel && n >= 2 {
			prev := src.At(1)
			if prev.HasVelocity() {
				dt := snapshot.TicksToSeconds(newest.Ticks - prev.Ticks)
				prevVel := toFloat64(prev.Velocity.Components(), s.dims)
				for i := range s.dims {
					acc[i] = (vel[i] - prevVel[i]) / dt
				}
			}
		}
	case n >= 2:
		second := src.At(1)
		dt1 := snapshot.TicksToSeconds(newest.Ticks - second.Ticks)
		vel = finiteDifference(newest.Value, second.Value, dt1, s.dims)

		if accel && n >= 3 {
			third := src.At(2)
			dt2 := snapshot.TicksToSeconds(second.Ticks - third.Ticks)
			prevVel := finiteDifference(second.Value, third.Value, dt2, s.dims)
			span := (dt1 + dt2) / 2
			for i := range s.dims {
				acc[i] = (vel[i] - prevVel[i]) / span
			}
		}
	default:
		return newest.Value
	}

	t := snapshot.TicksToSeconds(dtTicks)
	s0 := newest.Value.Components()

	var out [4]float32
	for i := range s.dims {
		out[i] = float32(float64(s0[i]) + vel[i]*t + 0.5*acc[i]*t*t)
	}

	return snapshot.FromComponents(s.kind, out)
}

// spherical blends rotations along great arcs.
type spherical struct{}

func (spherical) interpolate(older, newer snapshot.Value, ratio float64) snapshot.Value {
	return snapshot.NewRotation(Slerp(older.Quat(), newer.Quat(), float32(ratio)))
}

// extrapolate continues the rotation between the two newest samples at the same
// angular rate, or integrates the newest angular velocity sample when present.
func (spherical) extrapolate(src Source, dtTicks int64, _ bool) snapshot.Value {
	newest := src.At(0)
	q0 := newest.Value.Quat()

	if newest.HasVelocity() {
		spin := IntegrateAngularVelocity(newest.Velocity.Vec3(), float32(snapshot.TicksToSeconds(dtTicks)))
		return snapshot.NewRotation(spin.Mul(q0).Normalize())
	}

	if src.Len() < 2 {
		return newest.Value
	}

	second := src.At(1)
	q1 := second.Value.Quat()
	// hemisphere correction: q and -q are the same orientation, take the shorter arc
	if q0.Dot(q1) < 0 {
		q1 = q1.Scale(-1)
	}

	interval := newest.Ticks - second.Ticks
	step := float32(float64(dtTicks) / float64(interval))
	delta := q0.Mul(q1.Inverse()).Normalize()

	return snapshot.NewRotation(Slerp(mgl32.QuatIdent(), delta, step).Mul(q0).Normalize())
}

func finiteDifference(newer, older snapshot.Value, dtSeconds float64, dims int) [4]float64 {
	var out [4]float64
	if dtSeconds <= 0 {
		return out
	}

	a, b := newer.Components(), older.Components()
	for i := range dims {
		out[i] = (float64(a[i]) - float64(b[i])) / dtSeconds
	}

	return out
}

func toFloat64(c [4]float32, dims int) [4]float64 {
	var out [4]float64
	for i := range dims {
		out[i] = float64(c[i])
	}

	return out
}
