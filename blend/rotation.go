package blend

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// nlerpThreshold is the cosine above which slerp falls back to normalized lerp,
// where sin(theta) is too small to divide by.
const nlerpThreshold = 0.9995

// Slerp spherically interpolates from a to b along the shorter arc.
//
// t is not clamped: values outside [0, 1] continue the rotation past b (or before a)
// at the same angular rate, which is how rotation extrapolation is done. If a and b
// lie in opposite hemispheres (negative dot product) b is negated first.
func Slerp(a, b mgl32.Quat, t float32) mgl32.Quat {
	dot := a.Dot(b)
	if dot < 0 {
		b = b.Scale(-1)
		dot = -dot
	}

	if dot > nlerpThreshold {
		if t >= 0 && t <= 1 {
			return a.Add(b.Sub(a).Scale(t)).Normalize()
		}

		// lerp falls behind a constant rate outside [0, 1]; scale the delta's angle
		return IntegrateAngularVelocity(AngularVelocity(a, b, 1), t).Mul(a).Normalize()
	}

	theta := math.Acos(float64(min(dot, 1)))
	sinTheta := math.Sin(theta)
	wa := float32(math.Sin((1-float64(t))*theta) / sinTheta)
	wb := float32(math.Sin(float64(t)*theta) / sinTheta)

	return a.Scale(wa).Add(b.Scale(wb)).Normalize()
}

// AngularVelocity returns the constant world-frame angular velocity, in radians per
// second, that rotates from into to over dtSeconds along the shorter arc.
func AngularVelocity(from, to mgl32.Quat, dtSeconds float32) mgl32.Vec3 {
	if dtSeconds <= 0 {
		return mgl32.Vec3{}
	}

	delta := to.Mul(from.Inverse()).Normalize()
	if delta.W < 0 {
		delta = delta.Scale(-1)
	}

	sinHalf := float64(delta.V.Len())
	if sinHalf < 1e-6 {
		return mgl32.Vec3{}
	}

	angle := 2 * math.Atan2(sinHalf, float64(delta.W))
	axis := delta.V.Mul(float32(1 / sinHalf))

	return axis.Mul(float32(angle) / dtSeconds)
}

// IntegrateAngularVelocity returns the rotation produced by applying the world-frame
// angular velocity omega (radians per second) for dtSeconds.
func IntegrateAngularVelocity(omega mgl32.Vec3, dtSeconds float32) mgl32.Quat {
	rate := omega.Len()
	angle := rate * dtSeconds
	if rate < 1e-9 || math.Abs(float64(angle)) < 1e-9 {
		return mgl32.QuatIdent()
	}

	return mgl32.QuatRotate(angle, omega.Mul(1/rate))
}
