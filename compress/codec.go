package compress

import (
	"fmt"

	"github.com/arloliu/snapsync/errs"
	"github.com/arloliu/snapsync/format"
)

// Compressor compresses encoded payloads.
type Compressor interface {
	// Compress appends the compressed form of src to dst and returns the extended
	// slice. src is not modified.
	Compress(dst, src []byte) ([]byte, error)
}

// Decompressor reverses a Compressor.
type Decompressor interface {
	// Decompress appends the decompressed form of src to dst and returns the extended
	// slice. size is the expected decompressed length; a different result is reported
	// as errs.ErrSizeMismatch.
	Decompress(dst, src []byte, size int) ([]byte, error)
}

// Codec is a Compressor and Decompressor for one format.CompressionType.
type Codec interface {
	Compressor
	Decompressor
	Type() format.CompressionType
}

// CreateCodec returns a new codec for compressionType.
//
// Parameters:
//   - compressionType: One of the format.Compression* constants
//   - target: What the codec is for, used in the error message
//
// Returns:
//   - Codec: The codec
//   - error: errs.ErrInvalidCompression for an unknown type
func CreateCodec(compressionType format.CompressionType, target string) (Codec, error) {
	switch compressionType {
	case format.CompressionNone:
		return NewNoOpCompressor(), nil
	case format.CompressionZstd:
		return NewZstdCompressor(), nil
	case format.CompressionS2:
		return NewS2Compressor(), nil
	case format.CompressionLZ4:
		return NewLZ4Compressor(), nil
	default:
		return nil, fmt.Errorf("%w: %s for %s", errs.ErrInvalidCompression, compressionType, target)
	}
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
}

// GetCodec returns the shared built-in codec for compressionType.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("%w: %s", errs.ErrInvalidCompression, compressionType)
}

// grow returns dst with room for n more bytes, and the n-byte window after len(dst).
func grow(dst []byte, n int) ([]byte, []byte) {
	l := len(dst)
	if cap(dst)-l < n {
		next := make([]byte, l, l+n)
		copy(next, dst)
		dst = next
	}

	return dst, dst[l : l+n]
}

func sizeMismatch(name string, got, want int) error {
	return fmt.Errorf("%w: %s produced %d bytes, expected %d", errs.ErrSizeMismatch, name, got, want)
}
