// Package bitstream provides bit-granular primitive I/O over caller-owned byte buffers.
//
// A Writer packs values into a fixed-capacity buffer at sub-byte granularity and a
// Reader unpacks them in the same order. Neither allocates on the write or read path,
// and neither is safe for concurrent use: construct one Writer or Reader per
// connection or task and pass it through the call chain.
//
// # Wire Layout
//
// Bits are packed least-significant first. The first bit written to a fresh byte
// lands in bit 0 of that byte, the next in bit 1, and so on up to bit 7, at which
// point the byte is committed to the buffer. Multi-byte values are written as their
// little-endian bytes, so a 20-bit value written with WriteUint32(v, 20) occupies
// exactly 20 bits: the low byte, the next byte, then the low 4 bits of the third.
//
//	w := bitstream.NewWriter(make([]byte, 64))
//	w.WriteBit(true)
//	w.WriteUint32(0xABCDE, 20)
//	w.WriteFloat32(1.5)
//	w.WriteCurrentPartialByte(false)
//	payload := w.Bytes()
//
//	r := bitstream.NewReader(payload)
//	flag, _ := r.ReadBit()
//	v, _ := r.ReadUint32(20)
//	f, _ := r.ReadFloat32()
//
// # Bit Position
//
// BitPosition reports the cursor inside the current byte as a value in [1, 8].
// 8 means byte-aligned: the next bit starts a new byte. Writing one bit from an
// aligned position moves the cursor to 1.
//
// # Failure Modes
//
// Contract violations (a bit count outside the supported range, a nil or empty
// buffer, writing past the buffer capacity) panic. Reading past the end of the data
// is not a contract violation: every Read method returns an ok flag that is false
// when the requested bits were not all available. Bits consumed before the data ran
// out are not rolled back.
package bitstream
