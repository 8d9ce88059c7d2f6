package compress

import "github.com/arloliu/snapsync/format"

// NoOpCompressor stores payloads uncompressed.
type NoOpCompressor struct{}

var _ Codec = NoOpCompressor{}

// NewNoOpCompressor returns the pass-through codec.
func NewNoOpCompressor() NoOpCompressor {
	return NoOpCompressor{}
}

// Type returns format.CompressionNone.
func (NoOpCompressor) Type() format.CompressionType { return format.CompressionNone }

// Compress appends src to dst.
func (NoOpCompressor) Compress(dst, src []byte) ([]byte, error) {
	return append(dst, src...), nil
}

// Decompress appends src to dst after checking its length against size.
func (NoOpCompressor) Decompress(dst, src []byte, size int) ([]byte, error) {
	if len(src) != size {
		return nil, sizeMismatch("none", len(src), size)
	}

	return append(dst, src...), nil
}
