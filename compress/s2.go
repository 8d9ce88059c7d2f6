package compress

import (
	"fmt"

	"github.com/klauspost/compress/s2"

	"github.com/arloliu/snapsync/errs"
	"github.com/arloliu/snapsync/format"
)

// S2Compressor compresses payloads with S2, the Snappy-compatible format from
// klauspost/compress.
type S2Compressor struct{}

var _ Codec = S2Compressor{}

// NewS2Compressor returns the S2 codec.
func NewS2Compressor() S2Compressor {
	return S2Compressor{}
}

// Type returns format.CompressionS2.
func (S2Compressor) Type() format.CompressionType { return format.CompressionS2 }

// Compress appends the S2 block encoding of src to dst.
func (S2Compressor) Compress(dst, src []byte) ([]byte, error) {
	if len(src) == 0 {
		return dst, nil
	}

	bound := s2.MaxEncodedLen(len(src))
	if bound < 0 {
		return nil, fmt.Errorf("%w: s2 input of %d bytes is too large", errs.ErrInvalidCompression, len(src))
	}

	l := len(dst)
	dst, window := grow(dst, bound)
	out := s2.Encode(window, src)

	return dst[:l+len(out)], nil
}

// Decompress appends the decoded form of src to dst.
func (S2Compressor) Decompress(dst, src []byte, size int) ([]byte, error) {
	if len(src) == 0 {
		if size != 0 {
			return nil, sizeMismatch("s2", 0, size)
		}

		return dst, nil
	}

	n, err := s2.DecodedLen(src)
	if err != nil {
		return nil, fmt.Errorf("s2 decompression failed: %w", err)
	}
	if n != size {
		return nil, sizeMismatch("s2", n, size)
	}

	l := len(dst)
	dst, window := grow(dst, size)
	if _, err := s2.Decode(window, src); err != nil {
		return nil, fmt.Errorf("s2 decompression failed: %w", err)
	}

	return dst[:l+size], nil
}
