package history

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/arloliu/snapsync/bitstream"
	"github.com/arloliu/snapsync/errs"
)

// xorBitsPerValue is the worst-case size of one XOR-encoded value: two control bits,
// 5-bit leading zero count, 5-bit block size and a full 32-bit block.
const xorBitsPerValue = 2 + 5 + 5 + 32

// writeXOR encodes vals as a Gorilla-style XOR stream of float32 bit patterns.
//
// The first value is written raw. Each following value is XORed with its predecessor:
//   - 0: identical to the previous value
//   - 10 + block: the meaningful bits fit the previous block window
//   - 11 + 5-bit leading zeros + 5-bit (block size - 1) + block: a new window
func writeXOR(w *bitstream.Writer, vals []float32) {
	var prev uint32
	lead, trail := -1, 0 // no window yet
	for i, f := range vals {
		cur := math.Float32bits(f)
		if i == 0 {
			w.WriteUint32(cur, 32)
			prev = cur

			continue
		}

		xor := cur ^ prev
		prev = cur
		if xor == 0 {
			w.WriteBit(false)
			continue
		}
		w.WriteBit(true)

		l, t := bits.LeadingZeros32(xor), bits.TrailingZeros32(xor)
		if lead >= 0 && l >= lead && t >= trail {
			w.WriteBit(false)
			w.WriteUint32(xor>>trail, 32-lead-trail)

			continue
		}

		size := 32 - l - t
		w.WriteBit(true)
		w.WriteUint32(uint32(l), 5)      //nolint:gosec // G115: l is 0-31 for a non-zero xor
		w.WriteUint32(uint32(size-1), 5) //nolint:gosec // G115: size is 1-32
		w.WriteUint32(xor>>t, size)
		lead, trail = l, t
	}
}

// readXOR decodes n values written by writeXOR and passes each to set.
func readXOR(r *bitstream.Reader, n int, set func(i int, v float32)) error {
	if n == 0 {
		return nil
	}

	prev, ok := r.ReadUint32(32)
	if !ok {
		return errs.ErrTruncatedPayload
	}
	set(0, math.Float32frombits(prev))

	lead, trail := -1, 0
	for i := 1; i < n; i++ {
		changed, ok := r.ReadBit()
		if !ok {
			return errs.ErrTruncatedPayload
		}
		if !changed {
			set(i, math.Float32frombits(prev))
			continue
		}

		fresh, ok := r.ReadBit()
		if !ok {
			return errs.ErrTruncatedPayload
		}
		if fresh {
			l, ok1 := r.ReadUint32(5)
			s, ok2 := r.ReadUint32(5)
			if !ok1 || !ok2 {
				return errs.ErrTruncatedPayload
			}
			lead = int(l)
			trail = 32 - lead - (int(s) + 1)
			if trail < 0 {
				return fmt.Errorf("%w: XOR block of %d bits after %d leading zeros", errs.ErrTruncatedPayload, s+1, l)
			}
		} else if lead < 0 {
			return fmt.Errorf("%w: XOR block reuses a window before one was set", errs.ErrTruncatedPayload)
		}

		block, ok := r.ReadUint32(32 - lead - trail)
		if !ok {
			return errs.ErrTruncatedPayload
		}
		prev ^= block << trail
		set(i, math.Float32frombits(prev))
	}

	return nil
}
