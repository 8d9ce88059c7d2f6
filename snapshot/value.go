package snapshot

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/arloliu/snapsync/format"
)

// Value is a tagged numeric value: a scalar, a 2/3/4-component vector or a rotation.
//
// The set of kinds is closed. Values are created only through the New* constructors
// or FromComponents, and the zero Value has no kind, which is used to mark an absent
// optional value such as a missing velocity. Value is a small fixed-size struct and is
// meant to be passed by value.
type Value struct {
	kind format.ValueKind
	c    [4]float32 // x, y, z, w; unused components are zero
}

// NewFloat returns a scalar value.
func NewFloat(f float32) Value {
	return Value{kind: format.KindFloat, c: [4]float32{f}}
}

// NewVector2 returns a 2-component vector value.
func NewVector2(v mgl32.Vec2) Value {
	return Value{kind: format.KindVector2, c: [4]float32{v[0], v[1]}}
}

// NewVector3 returns a 3-component vector value.
func NewVector3(v mgl32.Vec3) Value {
	return Value{kind: format.KindVector3, c: [4]float32{v[0], v[1], v[2]}}
}

// NewVector4 returns a 4-component vector value.
func NewVector4(v mgl32.Vec4) Value {
	return Value{kind: format.KindVector4, c: v}
}

// NewRotation returns a rotation value. The quaternion is stored as given; callers
// normally pass unit quaternions.
func NewRotation(q mgl32.Quat) Value {
	return Value{kind: format.KindRotation, c: [4]float32{q.V[0], q.V[1], q.V[2], q.W}}
}

// FromComponents builds a value of the given kind from raw components in x, y, z, w
// order. Components beyond kind.Components() are zeroed.
//
// Panics if kind is not a valid value kind.
func FromComponents(kind format.ValueKind, c [4]float32) Value {
	n := kind.Components()
	if n == 0 {
		panic(fmt.Sprintf("snapshot: invalid value kind %d", kind))
	}
	for i := n; i < 4; i++ {
		c[i] = 0
	}

	return Value{kind: kind, c: c}
}

// Kind returns the value's kind, or zero for the zero Value.
func (v Value) Kind() format.ValueKind {
	return v.kind
}

// IsZero reports whether v is the zero Value (no kind).
func (v Value) IsZero() bool {
	return v.kind == 0
}

// Components returns all four raw components in x, y, z, w order.
func (v Value) Components() [4]float32 {
	return v.c
}

// Component returns the i-th raw component.
func (v Value) Component(i int) float32 {
	return v.c[i]
}

// Float returns the scalar component.
func (v Value) Float() float32 {
	return v.c[0]
}

// Vec2 returns the first two components as a vector.
func (v Value) Vec2() mgl32.Vec2 {
	return mgl32.Vec2{v.c[0], v.c[1]}
}

// Vec3 returns the first three components as a vector.
func (v Value) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{v.c[0], v.c[1], v.c[2]}
}

// Vec4 returns all four components as a vector.
func (v Value) Vec4() mgl32.Vec4 {
	return v.c
}

// Quat returns the components as a quaternion (x, y, z imaginary, w real).
func (v Value) Quat() mgl32.Quat {
	return mgl32.Quat{W: v.c[3], V: mgl32.Vec3{v.c[0], v.c[1], v.c[2]}}
}

// ApproxEqual reports whether v and o have the same kind and every component differs
// by at most epsilon. Rotations also compare equal to their negation, since q and -q
// describe the same orientation.
func (v Value) ApproxEqual(o Value, epsilon float32) bool {
	if v.kind != o.kind {
		return false
	}

	if componentsWithin(v.c, o.c, epsilon, 1) {
		return true
	}

	return v.kind == format.KindRotation && componentsWithin(v.c, o.c, epsilon, -1)
}

func (v Value) String() string {
	switch v.kind {
	case format.KindFloat:
		return fmt.Sprintf("Float(%g)", v.c[0])
	case format.KindVector2:
		return fmt.Sprintf("Vector2(%g, %g)", v.c[0], v.c[1])
	case format.KindVector3:
		return fmt.Sprintf("Vector3(%g, %g, %g)", v.c[0], v.c[1], v.c[2])
	case format.KindVector4:
		return fmt.Sprintf("Vector4(%g, %g, %g, %g)", v.c[0], v.c[1], v.c[2], v.c[3])
	case format.KindRotation:
		return fmt.Sprintf("Rotation(x=%g, y=%g, z=%g, w=%g)", v.c[0], v.c[1], v.c[2], v.c[3])
	default:
		return "None"
	}
}

// VelocityKind returns the kind of the velocity that accompanies values of kind k.
// Rotations pair with an angular velocity vector in radians per second; every other
// kind pairs with a rate of change of its own kind.
func VelocityKind(k format.ValueKind) format.ValueKind {
	if k == format.KindRotation {
		return format.KindVector3
	}

	return k
}

func componentsWithin(a, b [4]float32, epsilon float32, sign float32) bool {
	for i := range a {
		if math.Abs(float64(a[i]-sign*b[i])) > float64(epsilon) {
			return false
		}
	}

	return true
}
