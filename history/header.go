package history

import (
	"encoding/binary"
	"fmt"

	"github.com/arloliu/snapsync/errs"
	"github.com/arloliu/snapsync/format"
)

const (
	// HeaderSize is the fixed size of a history blob header in bytes.
	HeaderSize = 32
	// Magic identifies history blobs. It is stored little-endian in bytes 0-1.
	Magic uint16 = 0x5348
	// Version is the blob layout version written by this package.
	Version uint8 = 1

	// MaxSnapshots is the largest number of snapshots one blob may carry.
	MaxSnapshots = 1<<16 - 1
	// maxPayloadLength bounds the uncompressed payload a decoder will allocate.
	maxPayloadLength = 64 << 20

	// FlagVelocities marks payloads that carry velocity samples.
	FlagVelocities uint8 = 1 << 0
)

// Header is the fixed-size prefix of a history blob.
//
// Layout, little-endian:
//
//	0-1   magic
//	2     version
//	3     value kind
//	4     compression type
//	5     flags
//	6-7   reserved, zero
//	8-15  field ID
//	16-19 snapshot count
//	20-23 uncompressed payload length
//	24-31 xxHash64 of the uncompressed payload
type Header struct {
	Version       uint8
	Kind          format.ValueKind
	Compression   format.CompressionType
	Flags         uint8
	FieldID       uint64
	Count         uint32
	PayloadLength uint32
	Checksum      uint64
}

// HasVelocities reports whether the payload carries velocity samples.
func (h Header) HasVelocities() bool {
	return h.Flags&FlagVelocities != 0
}

// put serializes h into b, which must hold HeaderSize bytes.
func (h Header) put(b []byte) {
	_ = b[HeaderSize-1]
	binary.LittleEndian.PutUint16(b[0:2], Magic)
	b[2] = h.Version
	b[3] = uint8(h.Kind)
	b[4] = uint8(h.Compression)
	b[5] = h.Flags
	b[6], b[7] = 0, 0
	binary.LittleEndian.PutUint64(b[8:16], h.FieldID)
	binary.LittleEndian.PutUint32(b[16:20], h.Count)
	binary.LittleEndian.PutUint32(b[20:24], h.PayloadLength)
	binary.LittleEndian.PutUint64(b[24:32], h.Checksum)
}

// ParseHeader parses and validates the header at the start of data.
//
// Returns:
//   - Header: The parsed header
//   - error: errs.ErrInvalidHeader for a short or malformed header,
//     errs.ErrUnsupportedVersion for an unknown layout version
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes, need %d", errs.ErrInvalidHeader, len(data), HeaderSize)
	}

	if magic := binary.LittleEndian.Uint16(data[0:2]); magic != Magic {
		return Header{}, fmt.Errorf("%w: magic %#04x", errs.ErrInvalidHeader, magic)
	}

	h := Header{
		Version:       data[2],
		Kind:          format.ValueKind(data[3]),
		Compression:   format.CompressionType(data[4]),
		Flags:         data[5],
		FieldID:       binary.LittleEndian.Uint64(data[8:16]),
		Count:         binary.LittleEndian.Uint32(data[16:20]),
		PayloadLength: binary.LittleEndian.Uint32(data[20:24]),
		Checksum:      binary.LittleEndian.Uint64(data[24:32]),
	}

	switch {
	case h.Version != Version:
		return Header{}, fmt.Errorf("%w: %d", errs.ErrUnsupportedVersion, h.Version)
	case !h.Kind.Valid():
		return Header{}, fmt.Errorf("%w: value kind %d", errs.ErrInvalidHeader, h.Kind)
	case h.Flags&^FlagVelocities != 0 || data[6] != 0 || data[7] != 0:
		return Header{}, fmt.Errorf("%w: reserved bits set", errs.ErrInvalidHeader)
	case h.Count > MaxSnapshots:
		return Header{}, fmt.Errorf("%w: %d snapshots", errs.ErrInvalidHeader, h.Count)
	case h.PayloadLength > maxPayloadLength:
		return Header{}, fmt.Errorf("%w: payload length %d", errs.ErrInvalidHeader, h.PayloadLength)
	}

	return h, nil
}
