package blend

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/arloliu/snapsync/format"
	"github.com/arloliu/snapsync/snapshot"
)

// Weights of the smoothing filter, newest first. They sum to 1.
var (
	inputWeights  = [3]float64{0.35, 0.1, 0.1}
	outputWeights = [2]float64{0.4, 0.05}
)

// Smoother is an opt-in jitter filter applied to reconstructed values before they are
// presented. Each output is a weighted blend of the three newest raw inputs and the
// two newest outputs. Until enough history exists, missing entries are filled with
// the newest raw input.
//
// A Smoother keeps per-field state and is not safe for concurrent use.
type Smoother struct {
	kind    format.ValueKind
	inputs  [3]snapshot.Value // newest first
	outputs [2]snapshot.Value // newest first
	nIn     int
	nOut    int
}

// NewSmoother creates a smoother for values of the given kind.
func NewSmoother(kind format.ValueKind) *Smoother {
	return &Smoother{kind: kind}
}

// Reset discards the filter history.
func (s *Smoother) Reset() {
	*s = Smoother{kind: s.kind}
}

// Apply feeds raw into the filter and returns the smoothed value.
// Values of a different kind than the smoother's pass through unchanged.
func (s *Smoother) Apply(raw snapshot.Value) snapshot.Value {
	if raw.Kind() != s.kind {
		return raw
	}

	pushFront(s.inputs[:], raw)
	s.nIn = min(s.nIn+1, len(s.inputs))

	var out snapshot.Value
	if s.kind == format.KindRotation {
		out = s.blendRotation(raw)
	} else {
		out = s.blendLinear(raw)
	}

	pushFront(s.outputs[:], out)
	s.nOut = min(s.nOut+1, len(s.outputs))

	return out
}

func (s *Smoother) history(raw snapshot.Value) ([3]snapshot.Value, [2]snapshot.Value) {
	in, out := s.inputs, s.outputs
	for i := s.nIn; i < len(in); i++ {
		in[i] = raw
	}
	for i := s.nOut; i < len(out); i++ {
		out[i] = raw
	}

	return in, out
}

func (s *Smoother) blendLinear(raw snapshot.Value) snapshot.Value {
	in, out := s.history(raw)
	dims := s.kind.Components()

	var acc [4]float64
	for i, w := range inputWeights {
		c := in[i].Components()
		for d := range dims {
			acc[d] += w * float64(c[d])
		}
	}
	for i, w := range outputWeights {
		c := out[i].Components()
		for d := range dims {
			acc[d] += w * float64(c[d])
		}
	}

	var res [4]float32
	for d := range dims {
		res[d] = float32(acc[d])
	}

	return snapshot.FromComponents(s.kind, res)
}

// blendRotation composes weighted partial rotations relative to the newest raw input:
// each history entry contributes slerp(identity, basis^-1 * entry, weight).
func (s *Smoother) blendRotation(raw snapshot.Value) snapshot.Value {
	in, out := s.history(raw)
	basis := raw.Quat()
	inv := basis.Inverse()

	acc := mgl32.QuatIdent()
	apply := func(v snapshot.Value, w float64) {
		rel := inv.Mul(v.Quat()).Normalize()
		acc = acc.Mul(Slerp(mgl32.QuatIdent(), rel, float32(w)))
	}
	for i, w := range inputWeights {
		apply(in[i], w)
	}
	for i, w := range outputWeights {
		apply(out[i], w)
	}

	return snapshot.NewRotation(basis.Mul(acc).Normalize())
}

func pushFront[T any](s []T, v T) {
	copy(s[1:], s[:len(s)-1])
	s[0] = v
}
