// Package history serializes a field's snapshot history into compact, self-describing
// blobs and reads them back.
//
// A blob lets a late-joining receiver or a replay recorder obtain a field's retained
// snapshots in one message. It starts with a fixed 32-byte Header followed by the
// payload, optionally compressed:
//
//   - timestamps, oldest first, delta-of-delta encoded, prefixed by their byte length
//   - one XOR-compressed float32 stream per value component
//   - if FlagVelocities is set, a presence bit per snapshot followed by one XOR stream
//     per velocity component, covering only the snapshots that carry a velocity
//
// The header records the uncompressed payload length and its xxHash64, which Decode
// verifies.
package history

import (
	"encoding/binary"
	"fmt"

	"github.com/arloliu/snapsync/bitstream"
	"github.com/arloliu/snapsync/compress"
	"github.com/arloliu/snapsync/errs"
	"github.com/arloliu/snapsync/format"
	"github.com/arloliu/snapsync/internal/hash"
	"github.com/arloliu/snapsync/internal/options"
	"github.com/arloliu/snapsync/internal/pool"
	"github.com/arloliu/snapsync/snapshot"
)

// Config holds encoder settings.
type Config struct {
	Compression format.CompressionType
}

// Option configures an Encoder.
type Option = options.Option[*Config]

// WithCompression selects the payload codec. The default is format.CompressionNone.
func WithCompression(ct format.CompressionType) Option {
	return options.New(func(c *Config) error {
		if _, err := compress.GetCodec(ct); err != nil {
			return err
		}
		c.Compression = ct

		return nil
	})
}

// Encoder writes history blobs. It is immutable and safe for concurrent use.
type Encoder struct {
	cfg   Config
	codec compress.Codec
}

// NewEncoder creates an encoder.
func NewEncoder(opts ...Option) (*Encoder, error) {
	cfg := &Config{Compression: format.CompressionNone}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	codec, err := compress.CreateCodec(cfg.Compression, "history payload")
	if err != nil {
		return nil, err
	}

	return &Encoder{cfg: *cfg, codec: codec}, nil
}

// Compression returns the payload codec type.
func (e *Encoder) Compression() format.CompressionType {
	return e.cfg.Compression
}

// Encode serializes snaps into a new blob.
//
// Parameters:
//   - id: Field ID recorded in the header
//   - kind: Kind of every snapshot value
//   - snaps: Snapshots newest first with strictly decreasing ticks, as returned by
//     snapshot.Ring.Snapshots
//
// Returns:
//   - []byte: The blob, owned by the caller
//   - error: errs.ErrInvalidKind, errs.ErrKindMismatch, errs.ErrUnsortedSnapshots or
//     errs.ErrTooManySnapshots
func (e *Encoder) Encode(id uint64, kind format.ValueKind, snaps []snapshot.Snapshot) ([]byte, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %d", errs.ErrInvalidKind, kind)
	}
	if len(snaps) > MaxSnapshots {
		return nil, fmt.Errorf("%w: %d > %d", errs.ErrTooManySnapshots, len(snaps), MaxSnapshots)
	}

	hasVelocity, err := validate(kind, snaps)
	if err != nil {
		return nil, err
	}

	n := len(snaps)
	ticks, releaseTicks := pool.GetInt64Slice(n)
	defer releaseTicks()
	for i := range ticks {
		ticks[i] = snaps[n-1-i].Ticks
	}

	tsBuf := pool.GetHistoryBuffer()
	defer pool.PutHistoryBuffer(tsBuf)
	tsBuf.B = appendTimestamps(tsBuf.B, ticks)

	payload := pool.GetHistoryBuffer()
	defer pool.PutHistoryBuffer(payload)
	payload.B = binary.AppendUvarint(payload.B, uint64(tsBuf.Len()))
	_, _ = payload.Write(tsBuf.B)

	vdims := 0
	if hasVelocity {
		vdims = snapshot.VelocityKind(kind).Components()
	}
	bound := (n*(kind.Components()+vdims)*xorBitsPerValue+n)/8 + 8
	payload.Grow(bound)

	start := payload.Len()
	w := bitstream.NewWriter(payload.Full()[start:])
	writeValues(w, kind, snaps, hasVelocity)
	w.WriteCurrentPartialByte(false)
	payload.B = payload.B[:start+w.Len()]

	h := Header{
		Version:       Version,
		Kind:          kind,
		Compression:   e.cfg.Compression,
		FieldID:       id,
		Count:         uint32(n),             //nolint:gosec // G115: n <= MaxSnapshots
		PayloadLength: uint32(payload.Len()), //nolint:gosec // G115: bounded by MaxSnapshots
		Checksum:      hash.Checksum(payload.B),
	}
	if hasVelocity {
		h.Flags |= FlagVelocities
	}

	blob := make([]byte, HeaderSize, HeaderSize+payload.Len())
	h.put(blob)

	return e.codec.Compress(blob, payload.B)
}

// validate checks ordering and kinds and reports whether any snapshot has a velocity.
func validate(kind format.ValueKind, snaps []snapshot.Snapshot) (bool, error) {
	velKind := snapshot.VelocityKind(kind)
	hasVelocity := false
	for i, s := range snaps {
		if s.Value.Kind() != kind {
			return false, fmt.Errorf("%w: snapshot %d holds %s, history is %s", errs.ErrKindMismatch, i, s.Value.Kind(), kind)
		}
		if s.HasVelocity() {
			if s.Velocity.Kind() != velKind {
				return false, fmt.Errorf("%w: snapshot %d velocity is %s, want %s", errs.ErrKindMismatch, i, s.Velocity.Kind(), velKind)
			}
			hasVelocity = true
		}
		if i > 0 && s.Ticks >= snaps[i-1].Ticks {
			return false, fmt.Errorf("%w: snapshot %d at %d follows %d", errs.ErrUnsortedSnapshots, i, s.Ticks, snaps[i-1].Ticks)
		}
	}

	return hasVelocity, nil
}

// writeValues writes the component streams, oldest snapshot first.
func writeValues(w *bitstream.Writer, kind format.ValueKind, snaps []snapshot.Snapshot, hasVelocity bool) {
	n := len(snaps)
	vals, release := pool.GetFloat32Slice(n)
	defer release()

	for d := range kind.Components() {
		for i := range vals {
			vals[i] = snaps[n-1-i].Value.Component(d)
		}
		writeXOR(w, vals)
	}

	if !hasVelocity {
		return
	}

	present := vals[:0]
	for i := n - 1; i >= 0; i-- {
		w.WriteBit(snaps[i].HasVelocity())
	}
	for d := range snapshot.VelocityKind(kind).Components() {
		present = present[:0]
		for i := n - 1; i >= 0; i-- {
			if snaps[i].HasVelocity() {
				present = append(present, snaps[i].Velocity.Component(d))
			}
		}
		writeXOR(w, present)
	}
}
