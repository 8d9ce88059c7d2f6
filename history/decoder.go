package history

import (
	"encoding/binary"
	"fmt"

	"github.com/arloliu/snapsync/bitstream"
	"github.com/arloliu/snapsync/compress"
	"github.com/arloliu/snapsync/errs"
	"github.com/arloliu/snapsync/format"
	"github.com/arloliu/snapsync/internal/hash"
	"github.com/arloliu/snapsync/internal/pool"
	"github.com/arloliu/snapsync/snapshot"
)

// History is a decoded blob.
type History struct {
	FieldID     uint64
	Kind        format.ValueKind
	Compression format.CompressionType
	// Snapshots are ordered newest first.
	Snapshots []snapshot.Snapshot
}

// Decode parses a blob produced by Encoder.Encode.
//
// Returns:
//   - *History: The decoded history
//   - error: errs.ErrInvalidHeader, errs.ErrUnsupportedVersion, errs.ErrInvalidCompression,
//     errs.ErrChecksumMismatch, errs.ErrTruncatedPayload or errs.ErrUnsortedSnapshots
func Decode(data []byte) (*History, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}

	codec, err := compress.GetCodec(h.Compression)
	if err != nil {
		return nil, err
	}

	buf := pool.GetHistoryBuffer()
	defer pool.PutHistoryBuffer(buf)

	payload, err := codec.Decompress(buf.B[:0], data[HeaderSize:], int(h.PayloadLength))
	if err != nil {
		return nil, err
	}
	buf.B = payload

	if sum := hash.Checksum(payload); sum != h.Checksum {
		return nil, fmt.Errorf("%w: got %#016x, header says %#016x", errs.ErrChecksumMismatch, sum, h.Checksum)
	}

	snaps, err := decodePayload(h, payload)
	if err != nil {
		return nil, err
	}

	return &History{
		FieldID:     h.FieldID,
		Kind:        h.Kind,
		Compression: h.Compression,
		Snapshots:   snaps,
	}, nil
}

// decodePayload rebuilds the snapshots, newest first.
func decodePayload(h Header, payload []byte) ([]snapshot.Snapshot, error) {
	n := int(h.Count)

	tsLen, k := binary.Uvarint(payload)
	if k <= 0 || tsLen > uint64(len(payload)-k) {
		return nil, fmt.Errorf("%w: timestamp section", errs.ErrTruncatedPayload)
	}
	tsData := payload[k : k+int(tsLen)] //nolint:gosec // G115: bounded by len(payload)

	// every timestamp takes at least one byte
	if n > len(tsData) {
		return nil, fmt.Errorf("%w: %d snapshots in %d timestamp bytes", errs.ErrTruncatedPayload, n, len(tsData))
	}

	ticks, release := pool.GetInt64Slice(n)
	defer release()
	if err := decodeTimestamps(tsData, ticks); err != nil {
		return nil, err
	}
	for i := 1; i < n; i++ {
		if ticks[i] <= ticks[i-1] {
			return nil, fmt.Errorf("%w: timestamp %d at %d follows %d", errs.ErrUnsortedSnapshots, i, ticks[i], ticks[i-1])
		}
	}

	// oldest first while decoding
	comps := make([][4]float32, n)
	r := bitstream.NewReader(payload[k+len(tsData):])
	for d := range h.Kind.Components() {
		if err := readXOR(r, n, func(i int, v float32) { comps[i][d] = v }); err != nil {
			return nil, fmt.Errorf("value component %d: %w", d, err)
		}
	}

	var (
		velocities [][4]float32
		present    []bool
	)
	if h.HasVelocities() {
		present = make([]bool, n)
		count := 0
		for i := range present {
			bit, ok := r.ReadBit()
			if !ok {
				return nil, fmt.Errorf("%w: velocity presence bits", errs.ErrTruncatedPayload)
			}
			present[i] = bit
			if bit {
				count++
			}
		}

		velocities = make([][4]float32, count)
		for d := range snapshot.VelocityKind(h.Kind).Components() {
			if err := readXOR(r, count, func(i int, v float32) { velocities[i][d] = v }); err != nil {
				return nil, fmt.Errorf("velocity component %d: %w", d, err)
			}
		}
	}

	velKind := snapshot.VelocityKind(h.Kind)
	snaps := make([]snapshot.Snapshot, n)
	next := 0
	for i := range n {
		s := snapshot.Snapshot{
			Ticks: ticks[i],
			Value: snapshot.FromComponents(h.Kind, comps[i]),
		}
		if present != nil && present[i] {
			s.Velocity = snapshot.FromComponents(velKind, velocities[next])
			next++
		}
		snaps[n-1-i] = s
	}

	return snaps, nil
}

// Restore replaces the contents of ring with the decoded snapshots and returns the
// number retained. A ring smaller than the history keeps the newest entries.
func (h *History) Restore(ring *snapshot.Ring) int {
	ring.Reset()

	// oldest first, so every Add takes the prepend path
	for i := len(h.Snapshots) - 1; i >= 0; i-- {
		ring.Add(h.Snapshots[i])
	}

	return ring.Len()
}

// Newest returns the newest decoded snapshot.
func (h *History) Newest() (snapshot.Snapshot, bool) {
	if len(h.Snapshots) == 0 {
		return snapshot.Snapshot{}, false
	}

	return h.Snapshots[0], true
}
