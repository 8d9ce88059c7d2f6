package compress

import "github.com/arloliu/snapsync/format"

// zstdLevel is the compression level used by both zstd backends.
const zstdLevel = 3

// ZstdCompressor compresses payloads with Zstandard. The backend is gozstd when cgo
// is available and klauspost/compress/zstd otherwise; both read each other's frames.
type ZstdCompressor struct{}

var _ Codec = ZstdCompressor{}

// NewZstdCompressor returns the Zstandard codec.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}

// Type returns format.CompressionZstd.
func (ZstdCompressor) Type() format.CompressionType { return format.CompressionZstd }
