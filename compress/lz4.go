package compress

import (
	"fmt"
	"sync"

	"github.com/pierrec/lz4/v4"

	"github.com/arloliu/snapsync/format"
)

// lz4CompressorPool reuses the hash tables of lz4.Compressor across calls.
var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// LZ4Compressor compresses payloads as raw LZ4 blocks.
type LZ4Compressor struct{}

var _ Codec = LZ4Compressor{}

// NewLZ4Compressor returns the LZ4 codec.
func NewLZ4Compressor() LZ4Compressor {
	return LZ4Compressor{}
}

// Type returns format.CompressionLZ4.
func (LZ4Compressor) Type() format.CompressionType { return format.CompressionLZ4 }

// Compress appends the LZ4 block encoding of src to dst.
func (LZ4Compressor) Compress(dst, src []byte) ([]byte, error) {
	if len(src) == 0 {
		return dst, nil
	}

	l := len(dst)
	dst, window := grow(dst, lz4.CompressBlockBound(len(src)))

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(src, window)
	if err != nil {
		return nil, fmt.Errorf("lz4 compression failed: %w", err)
	}

	return dst[:l+n], nil
}

// Decompress appends the decoded form of src to dst. The block carries no length, so
// size sets the output window exactly.
func (LZ4Compressor) Decompress(dst, src []byte, size int) ([]byte, error) {
	if len(src) == 0 {
		if size != 0 {
			return nil, sizeMismatch("lz4", 0, size)
		}

		return dst, nil
	}

	l := len(dst)
	dst, window := grow(dst, size)
	n, err := lz4.UncompressBlock(src, window)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompression failed: %w", err)
	}
	if n != size {
		return nil, sizeMismatch("lz4", n, size)
	}

	return dst[:l+n], nil
}
