// Package snapsync replicates continuously changing values, such as positions,
// rotations and health bars, from an authoritative sender to receivers that present
// them smoothly despite network jitter.
//
// A sender quantizes each value to a configured precision and packs it bit by bit
// into a compact message. A receiver keeps a short time-ordered history of the values
// it got and, at presentation time, reconstructs a value slightly in the past by
// interpolating between two snapshots, or extrapolates when data is late.
//
// # Basic Usage
//
// Declaring fields:
//
//	reg := snapsync.NewRegistry()
//	pos, _ := snapsync.NewField("player.position", format.KindVector3,
//	    field.WithQuantization(-512, 512, 20, true))
//	_ = reg.Register(pos)
//
// Sending:
//
//	w, release := snapsync.NewWriter()
//	defer release()
//	_ = reg.EncodeUpdate(w, pos.ID(), snapshot.NewVector3(mgl32.Vec3{1, 2, 3}))
//	w.WriteCurrentPartialByte(false)
//	send(w.Bytes())
//
// Receiving and presenting:
//
//	f, v, err := reg.DecodeUpdate(snapsync.NewReader(msg))
//	f.Receive(senderTicks, v)
//	res, err := f.Blend(nowTicks)
//
// # Package Structure
//
// This package provides top-level shortcuts. The building blocks live in bitstream
// (bit packing), quantize, snapshot (history rings), blend (reconstruction), field
// (per-field binding and registry), config (YAML profiles) and history (snapshot
// history blobs).
package snapsync

import (
	"fmt"

	"github.com/arloliu/snapsync/bitstream"
	"github.com/arloliu/snapsync/config"
	"github.com/arloliu/snapsync/errs"
	"github.com/arloliu/snapsync/field"
	"github.com/arloliu/snapsync/format"
	"github.com/arloliu/snapsync/history"
	"github.com/arloliu/snapsync/internal/hash"
	"github.com/arloliu/snapsync/internal/pool"
)

// NewField creates a synchronized field. See field.New.
func NewField(name string, kind format.ValueKind, opts ...field.Option) (*field.Field, error) {
	return field.New(name, kind, opts...)
}

// NewRegistry creates an empty field registry.
func NewRegistry() *field.Registry {
	return field.NewRegistry()
}

// LoadProfile reads a YAML field profile and builds its registry.
//
// Parameters:
//   - path: Profile file path
//   - shared: Options applied to every field before its profile settings, such as
//     field.WithLogger
//
// Returns:
//   - *field.Registry: The registered fields
//   - *config.Profile: The parsed profile
//   - error: File, parse or validation error
func LoadProfile(path string, shared ...field.Option) (*field.Registry, *config.Profile, error) {
	p, err := config.LoadFile(path)
	if err != nil {
		return nil, nil, err
	}

	reg, err := p.Build(shared...)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	return reg, p, nil
}

// FieldID returns the wire identifier of a field name.
func FieldID(name string) uint64 {
	return hash.ID(name)
}

// NewWriter returns a bit writer over a pooled scratch buffer sized for one message.
// Call release once the written bytes are no longer needed.
func NewWriter() (*bitstream.Writer, func()) {
	bb := pool.GetScratch()

	return bitstream.NewWriter(bb.Full()), func() { pool.PutScratch(bb) }
}

// NewReader returns a bit reader over a received message.
func NewReader(data []byte) *bitstream.Reader {
	return bitstream.NewReader(data)
}

// EncodeHistory serializes the retained history of f into a history blob.
func EncodeHistory(f *field.Field, opts ...history.Option) ([]byte, error) {
	enc, err := history.NewEncoder(opts...)
	if err != nil {
		return nil, err
	}

	return enc.Encode(f.ID(), f.Kind(), f.History())
}

// RestoreHistory decodes a history blob into f, replacing its history, and returns
// the number of snapshots retained.
//
// Returns errs.ErrFieldNotFound if the blob belongs to another field and
// errs.ErrKindMismatch if it holds a different kind.
func RestoreHistory(f *field.Field, blob []byte) (int, error) {
	h, err := history.Decode(blob)
	if err != nil {
		return 0, err
	}
	if h.FieldID != f.ID() {
		return 0, fmt.Errorf("%w: blob is for %#016x, field %q is %#016x", errs.ErrFieldNotFound, h.FieldID, f.Name(), f.ID())
	}
	if h.Kind != f.Kind() {
		return 0, fmt.Errorf("%w: blob holds %s, field %q is %s", errs.ErrKindMismatch, h.Kind, f.Name(), f.Kind())
	}

	return f.Restore(h.Snapshots), nil
}
