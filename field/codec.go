package field

import (
	"fmt"
	"math"

	"github.com/arloliu/snapsync/bitstream"
	"github.com/arloliu/snapsync/errs"
	"github.com/arloliu/snapsync/format"
	"github.com/arloliu/snapsync/quantize"
	"github.com/arloliu/snapsync/snapshot"
)

// valueCodec writes and reads one field value on a bitstream. A Field picks its codec
// once, from its kind and quantization settings.
type valueCodec interface {
	// check reports whether v can be encoded. encode assumes it can.
	check(v snapshot.Value) error
	encode(w *bitstream.Writer, v snapshot.Value)
	decode(r *bitstream.Reader) (snapshot.Value, bool)
	bits() int
	equal(a, b snapshot.Value) bool
}

func newCodec(kind format.ValueKind, cfg *Config) (valueCodec, error) {
	if kind == format.KindRotation {
		if cfg.Quantization != nil {
			return nil, fmt.Errorf("%w: rotation fields take WithRotationBits, not WithQuantization", errs.ErrKindMismatch)
		}
		rq, err := quantize.NewRotationQuantizer(cfg.RotationBits)
		if err != nil {
			return nil, err
		}

		return rotationCodec{rq: rq}, nil
	}

	if cfg.Quantization == nil {
		return rawCodec{kind: kind, dims: kind.Components()}, nil
	}

	q, err := quantize.Prepare(*cfg.Quantization)
	if err != nil {
		return nil, err
	}

	return quantizedCodec{kind: kind, dims: kind.Components(), q: q}, nil
}

// rawCodec sends every component as an IEEE 754 float32.
type rawCodec struct {
	kind format.ValueKind
	dims int
}

func (rawCodec) check(snapshot.Value) error { return nil }

func (c rawCodec) encode(w *bitstream.Writer, v snapshot.Value) {
	comps := v.Components()
	for i := range c.dims {
		w.WriteFloat32(comps[i])
	}
}

func (c rawCodec) decode(r *bitstream.Reader) (snapshot.Value, bool) {
	var comps [4]float32
	for i := range c.dims {
		f, ok := r.ReadFloat32()
		if !ok {
			return snapshot.Value{}, false
		}
		comps[i] = f
	}

	return snapshot.FromComponents(c.kind, comps), true
}

func (c rawCodec) bits() int {
	return 32 * c.dims
}

func (c rawCodec) equal(a, b snapshot.Value) bool {
	return a.Components() == b.Components()
}

// quantizedCodec sends every component as a BitCount-bit step index.
type quantizedCodec struct {
	kind format.ValueKind
	dims int
	q    *quantize.Quantizer
}

func (c quantizedCodec) check(v snapshot.Value) error {
	b := c.q.Bounds()
	comps := v.Components()
	for i := range c.dims {
		f := comps[i]
		if (f >= b.Lower && f <= b.Upper) || (b.Clamp && !math.IsNaN(float64(f))) {
			continue
		}

		return fmt.Errorf("%w: component %d is %v, bounds %s", errs.ErrValueOutOfRange, i, f, b)
	}

	return nil
}

func (c quantizedCodec) encode(w *bitstream.Writer, v snapshot.Value) {
	comps := v.Components()
	for i := range c.dims {
		w.WriteUint32(c.q.Quantize(comps[i]), c.q.BitCount())
	}
}

func (c quantizedCodec) decode(r *bitstream.Reader) (snapshot.Value, bool) {
	var comps [4]float32
	for i := range c.dims {
		q, ok := r.ReadUint32(c.q.BitCount())
		if !ok {
			return snapshot.Value{}, false
		}
		comps[i] = c.q.Unquantize(q)
	}

	return snapshot.FromComponents(c.kind, comps), true
}

func (c quantizedCodec) bits() int {
	return c.dims * c.q.BitCount()
}

func (c quantizedCodec) equal(a, b snapshot.Value) bool {
	ca, cb := a.Components(), b.Components()
	for i := range c.dims {
		if !c.q.Equal(ca[i], cb[i]) {
			return false
		}
	}

	return true
}

// rotationCodec sends a 2-bit largest-component index followed by the three
// smallest components.
type rotationCodec struct {
	rq *quantize.RotationQuantizer
}

func (rotationCodec) check(snapshot.Value) error { return nil }

func (c rotationCodec) encode(w *bitstream.Writer, v snapshot.Value) {
	s := c.rq.Quantize(v.Quat())
	bits := c.rq.BitsPerComponent()

	w.WriteBits(s.Largest, 2)
	for _, comp := range s.Components {
		w.WriteUint32(comp, bits)
	}
}

func (c rotationCodec) decode(r *bitstream.Reader) (snapshot.Value, bool) {
	largest, ok := r.ReadBits(2)
	if !ok {
		return snapshot.Value{}, false
	}

	s := quantize.SmallestThree{Largest: largest}
	bits := c.rq.BitsPerComponent()
	for i := range s.Components {
		comp, ok := r.ReadUint32(bits)
		if !ok {
			return snapshot.Value{}, false
		}
		s.Components[i] = comp
	}

	return snapshot.NewRotation(c.rq.Unquantize(s)), true
}

func (c rotationCodec) bits() int {
	return c.rq.BitSize()
}

func (c rotationCodec) equal(a, b snapshot.Value) bool {
	return c.rq.Equal(a.Quat(), b.Quat())
}
