package history

import (
	"encoding/binary"
	"fmt"

	"github.com/arloliu/snapsync/errs"
)

// appendTimestamps appends ticks, oldest first, to dst: the first value as is, the
// second as a delta and the rest as delta-of-deltas, each zigzag and uvarint encoded.
// Snapshots arriving at a steady send interval cost one byte each.
func appendTimestamps(dst []byte, ticks []int64) []byte {
	var prev, prevDelta int64
	for i, t := range ticks {
		var v int64
		switch i {
		case 0:
			v = t
		case 1:
			prevDelta = t - prev
			v = prevDelta
		default:
			delta := t - prev
			v = delta - prevDelta
			prevDelta = delta
		}
		prev = t

		dst = binary.AppendUvarint(dst, zigzag(v))
	}

	return dst
}

// decodeTimestamps fills ticks from data, which must hold exactly len(ticks) values.
func decodeTimestamps(data []byte, ticks []int64) error {
	var prev, prevDelta int64
	off := 0
	for i := range ticks {
		u, n := binary.Uvarint(data[off:])
		if n <= 0 {
			return fmt.Errorf("%w: timestamp %d of %d", errs.ErrTruncatedPayload, i, len(ticks))
		}
		off += n
		v := unzigzag(u)

		switch i {
		case 0:
			ticks[i] = v
		case 1:
			prevDelta = v
			ticks[i] = prev + v
		default:
			prevDelta += v
			ticks[i] = prev + prevDelta
		}
		prev = ticks[i]
	}

	if off != len(data) {
		return fmt.Errorf("%w: %d trailing timestamp bytes", errs.ErrTruncatedPayload, len(data)-off)
	}

	return nil
}

func zigzag(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63)) //nolint:gosec // G115: zigzag reinterpretation
}

func unzigzag(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1) //nolint:gosec // G115: zigzag reinterpretation
}
