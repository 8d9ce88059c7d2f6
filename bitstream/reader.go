package bitstream

import (
	"math"
)

// Reader unpacks values written by a Writer. Every Read method returns an ok flag
// that is false when the data ran out before all requested bits were read.
type Reader struct {
	data []byte
	n    int   // index of the next byte to load
	cur  byte  // byte currently being consumed
	used uint8 // bits of cur already consumed (0 means a new byte must be loaded)
}

// NewReader creates a reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Reset rewinds the reader and switches it to new data.
func (r *Reader) Reset(data []byte) {
	r.data = data
	r.n = 0
	r.cur = 0
	r.used = 0
}

// BitPosition returns the cursor inside the current byte in the range [1, 8].
// 8 means the reader is byte-aligned.
func (r *Reader) BitPosition() uint8 {
	if r.used == 0 {
		return PositionMax
	}

	return r.used
}

// PositionBits returns the total number of bits consumed so far.
func (r *Reader) PositionBits() int {
	if r.used == 0 {
		return r.n * 8
	}

	return (r.n-1)*8 + int(r.used)
}

// RemainingBits returns the number of bits that can still be read.
func (r *Reader) RemainingBits() int {
	return len(r.data)*8 - r.PositionBits()
}

// ReadBits reads count bits and returns them in the low bits of the result.
//
// Panics if count is outside [1, 8].
func (r *Reader) ReadBits(count int) (byte, bool) {
	if count < 1 || count > 8 {
		panic("bitstream: ReadBits count must be within [1, 8]")
	}

	if r.used == 0 && count == 8 {
		if r.n >= len(r.data) {
			return 0, false
		}
		r.cur = r.data[r.n]
		r.n++

		return r.cur, true
	}

	var value byte
	got := 0
	for got < count {
		if r.used == 0 {
			if r.n >= len(r.data) {
				return value, false
			}
			r.cur = r.data[r.n]
			r.n++
		}

		avail := 8 - int(r.used)
		take := min(avail, count-got)

		value |= ((r.cur >> r.used) & lowMask(take)) << got
		got += take
		r.used += uint8(take) //nolint:gosec // G115: take is 1-8
		if r.used == 8 {
			r.used = 0
		}
	}

	return value, true
}

// ReadBit reads a single bit.
func (r *Reader) ReadBit() (bool, bool) {
	b, ok := r.ReadBits(1)

	return b == 1, ok
}

// ReadUint8 reads 8 bits.
func (r *Reader) ReadUint8() (byte, bool) {
	return r.ReadBits(8)
}

// ReadUint16 reads bitCount bits into the low bits of a uint16.
//
// Panics if bitCount is outside [1, 16].
func (r *Reader) ReadUint16(bitCount int) (uint16, bool) {
	if bitCount < 1 || bitCount > 16 {
		panic("bitstream: ReadUint16 bitCount must be within [1, 16]")
	}
	v, ok := r.readUint(bitCount)

	return uint16(v), ok //nolint:gosec // G115: at most 16 bits were read
}

// ReadUint32 reads bitCount bits into the low bits of a uint32.
//
// Panics if bitCount is outside [1, 32].
func (r *Reader) ReadUint32(bitCount int) (uint32, bool) {
	if bitCount < 1 || bitCount > 32 {
		panic("bitstream: ReadUint32 bitCount must be within [1, 32]")
	}
	v, ok := r.readUint(bitCount)

	return uint32(v), ok //nolint:gosec // G115: at most 32 bits were read
}

// ReadUint64 reads bitCount bits into the low bits of a uint64.
//
// Panics if bitCount is outside [1, 64].
func (r *Reader) ReadUint64(bitCount int) (uint64, bool) {
	if bitCount < 1 || bitCount > 64 {
		panic("bitstream: ReadUint64 bitCount must be within [1, 64]")
	}

	return r.readUint(bitCount)
}

// ReadInt32 reads a bitCount-bit two's complement value and sign-extends it.
func (r *Reader) ReadInt32(bitCount int) (int32, bool) {
	v, ok := r.ReadUint32(bitCount)
	if !ok {
		return 0, false
	}
	shift := 32 - bitCount

	return int32(v<<shift) >> shift, true //nolint:gosec // G115: bit reinterpretation
}

// ReadFloat32 reads a 32-bit IEEE 754 value.
func (r *Reader) ReadFloat32() (float32, bool) {
	v, ok := r.readUint(32)

	return math.Float32frombits(uint32(v)), ok //nolint:gosec // G115: 32 bits were read
}

// ReadFloat64 reads a 64-bit IEEE 754 value.
func (r *Reader) ReadFloat64() (float64, bool) {
	v, ok := r.readUint(64)

	return math.Float64frombits(v), ok
}

// ReadString reads a 32-bit byte length followed by that many bytes.
func (r *Reader) ReadString() (string, bool) {
	length, ok := r.readUint(32)
	if !ok {
		return "", false
	}
	if length > uint64(r.RemainingBits()/8) {
		return "", false
	}

	buf := make([]byte, length)
	for i := range buf {
		if buf[i], ok = r.ReadBits(8); !ok {
			return "", false
		}
	}

	return string(buf), true
}

// ReadBytes reads n bytes into a newly allocated slice.
func (r *Reader) ReadBytes(n int) ([]byte, bool) {
	if n < 0 || n > r.RemainingBits()/8 {
		return nil, false
	}

	out := make([]byte, n)
	if r.used == 0 {
		r.n += copy(out, r.data[r.n:r.n+n])
		return out, true
	}

	for i := range out {
		out[i], _ = r.ReadBits(8)
	}

	return out, true
}

// ReadCurrentPartialByte discards the unread bits of the current byte, mirroring
// Writer.WriteCurrentPartialByte. It returns true if bits were skipped.
func (r *Reader) ReadCurrentPartialByte() bool {
	if r.used == 0 {
		return false
	}
	r.used = 0

	return true
}

func (r *Reader) readUint(bitCount int) (uint64, bool) {
	var v uint64
	shift := 0
	for bitCount > 0 {
		n := min(8, bitCount)
		b, ok := r.ReadBits(n)
		v |= uint64(b) << shift
		if !ok {
			return v, false
		}
		shift += 8
		bitCount -= n
	}

	return v, true
}
