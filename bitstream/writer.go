package bitstream

import (
	"math"
)

const (
	// PositionMin is the bit position after the first bit of a fresh byte is written.
	PositionMin uint8 = 1
	// PositionMax is the byte-aligned bit position.
	PositionMax uint8 = 8

	// MaxBufferSize is the largest scratch buffer a single message is expected to use.
	MaxBufferSize = 32 * 1024
)

// Writer packs values into a caller-owned fixed-capacity byte buffer.
//
// The zero value is not usable; create writers with NewWriter.
type Writer struct {
	buf  []byte // fixed-capacity destination, len(buf) is the capacity
	n    int    // number of committed bytes
	cur  byte   // partially filled byte not yet committed
	used uint8  // bits already placed in cur (0-7)
}

// NewWriter creates a writer over buf. The full length of buf is usable capacity;
// existing contents are overwritten as bytes are committed.
//
// Panics if buf is empty.
func NewWriter(buf []byte) *Writer {
	if len(buf) == 0 {
		panic("bitstream: writer requires a non-empty buffer")
	}

	return &Writer{buf: buf}
}

// Reset rewinds the writer to the start of its buffer so it can be reused for a new
// message.
func (w *Writer) Reset() {
	w.n = 0
	w.cur = 0
	w.used = 0
}

// ResetWithBuffer rewinds the writer and switches it to a new destination buffer.
//
// Panics if buf is empty.
func (w *Writer) ResetWithBuffer(buf []byte) {
	if len(buf) == 0 {
		panic("bitstream: writer requires a non-empty buffer")
	}
	w.buf = buf
	w.Reset()
}

// BitPosition returns the cursor inside the current byte in the range [1, 8].
// 8 means the writer is byte-aligned.
func (w *Writer) BitPosition() uint8 {
	if w.used == 0 {
		return PositionMax
	}

	return w.used
}

// PositionBits returns the total number of bits written so far.
func (w *Writer) PositionBits() int {
	return w.n*8 + int(w.used)
}

// RemainingBits returns how many more bits fit in the buffer.
func (w *Writer) RemainingBits() int {
	return len(w.buf)*8 - w.PositionBits()
}

// Len returns the number of committed bytes. A trailing partial byte is not counted
// until WriteCurrentPartialByte is called.
func (w *Writer) Len() int {
	return w.n
}

// Cap returns the capacity of the destination buffer in bytes.
func (w *Writer) Cap() int {
	return len(w.buf)
}

// Bytes returns the committed bytes. The slice aliases the writer's buffer and is
// only valid until the writer is reset or written to again.
func (w *Writer) Bytes() []byte {
	return w.buf[:w.n]
}

// WriteBits writes the low count bits of value, starting with bit 0.
//
// Panics if count is outside [1, 8] or the buffer is full.
func (w *Writer) WriteBits(value byte, count int) {
	if count < 1 || count > 8 {
		panic("bitstream: WriteBits count must be within [1, 8]")
	}

	if w.used == 0 && count == 8 {
		w.commit(value)
		return
	}

	value &= lowMask(count)
	for count > 0 {
		free := 8 - int(w.used)
		take := min(free, count)

		w.cur |= (value & lowMask(take)) << w.used
		value >>= take //nolint:gosec // G115: take is 1-8
		count -= take
		w.used += uint8(take) //nolint:gosec // G115: take is 1-8

		if w.used == 8 {
			w.commit(w.cur)
			w.cur = 0
			w.used = 0
		}
	}
}

// WriteBit writes a single bit.
func (w *Writer) WriteBit(bit bool) {
	if bit {
		w.WriteBits(1, 1)
	} else {
		w.WriteBits(0, 1)
	}
}

// WriteUint8 writes all 8 bits of b.
func (w *Writer) WriteUint8(b byte) {
	w.WriteBits(b, 8)
}

// WriteUint16 writes the low bitCount bits of v.
//
// Panics if bitCount is outside [1, 16].
func (w *Writer) WriteUint16(v uint16, bitCount int) {
	if bitCount < 1 || bitCount > 16 {
		panic("bitstream: WriteUint16 bitCount must be within [1, 16]")
	}
	w.writeUint(uint64(v), bitCount)
}

// WriteUint32 writes the low bitCount bits of v.
//
// Panics if bitCount is outside [1, 32].
func (w *Writer) WriteUint32(v uint32, bitCount int) {
	if bitCount < 1 || bitCount > 32 {
		panic("bitstream: WriteUint32 bitCount must be within [1, 32]")
	}
	w.writeUint(uint64(v), bitCount)
}

// WriteUint64 writes the low bitCount bits of v.
//
// Panics if bitCount is outside [1, 64].
func (w *Writer) WriteUint64(v uint64, bitCount int) {
	if bitCount < 1 || bitCount > 64 {
		panic("bitstream: WriteUint64 bitCount must be within [1, 64]")
	}
	w.writeUint(v, bitCount)
}

// WriteInt32 writes the low bitCount bits of the two's complement form of v.
// Readers recover negative values with ReadInt32 using the same bitCount.
func (w *Writer) WriteInt32(v int32, bitCount int) {
	w.WriteUint32(uint32(v), bitCount) //nolint:gosec // G115: bit reinterpretation
}

// WriteFloat32 writes the 32-bit IEEE 754 representation of f.
func (w *Writer) WriteFloat32(f float32) {
	w.writeUint(uint64(math.Float32bits(f)), 32)
}

// WriteFloat64 writes the 64-bit IEEE 754 representation of f.
func (w *Writer) WriteFloat64(f float64) {
	w.writeUint(math.Float64bits(f), 64)
}

// WriteString writes a 32-bit byte length followed by the UTF-8 bytes of s.
//
// Panics if s is longer than math.MaxUint32 bytes or does not fit in the buffer.
func (w *Writer) WriteString(s string) {
	if uint64(len(s)) > math.MaxUint32 {
		panic("bitstream: string length exceeds 32-bit length header")
	}

	w.writeUint(uint64(len(s)), 32)
	for i := 0; i < len(s); i++ {
		w.WriteBits(s[i], 8)
	}
}

// WriteBytes writes every byte of p, 8 bits each, without a length prefix.
func (w *Writer) WriteBytes(p []byte) {
	if w.used == 0 {
		if w.n+len(p) > len(w.buf) {
			panic("bitstream: buffer overflow")
		}
		w.n += copy(w.buf[w.n:], p)

		return
	}

	for _, b := range p {
		w.WriteBits(b, 8)
	}
}

// WriteCurrentPartialByte pads the current byte with paddingBit until it is full and
// commits it. It returns true if padding was written and false if the writer was
// already byte-aligned.
//
// Call it before treating Bytes as a complete byte-aligned message.
func (w *Writer) WriteCurrentPartialByte(paddingBit bool) bool {
	if w.used == 0 {
		return false
	}

	if paddingBit {
		w.cur |= ^lowMask(int(w.used))
	}
	w.commit(w.cur)
	w.cur = 0
	w.used = 0

	return true
}

// writeUint writes the low bitCount bits of v as little-endian byte chunks.
func (w *Writer) writeUint(v uint64, bitCount int) {
	for bitCount > 0 {
		n := min(8, bitCount)
		w.WriteBits(byte(v), n) //nolint:gosec // G115: intentional truncation to the low byte
		v >>= 8
		bitCount -= n
	}
}

func (w *Writer) commit(b byte) {
	if w.n >= len(w.buf) {
		panic("bitstream: buffer overflow")
	}
	w.buf[w.n] = b
	w.n++
}

// lowMask returns a byte with the low n bits set, for n in [0, 8].
func lowMask(n int) byte {
	return byte(uint(1)<<uint(n) - 1) //nolint:gosec // G115: n is 0-8
}
