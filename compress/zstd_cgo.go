//go:build cgo

package compress

import (
	"fmt"

	"github.com/valyala/gozstd"
)

// Compress appends a Zstandard frame holding src to dst.
func (ZstdCompressor) Compress(dst, src []byte) ([]byte, error) {
	return gozstd.CompressLevel(dst, src, zstdLevel), nil
}

// Decompress appends the content of the Zstandard frame src to dst.
func (ZstdCompressor) Decompress(dst, src []byte, size int) ([]byte, error) {
	if len(src) == 0 {
		if size != 0 {
			return nil, sizeMismatch("zstd", 0, size)
		}

		return dst, nil
	}

	l := len(dst)
	dst, _ = grow(dst, size)

	out, err := gozstd.Decompress(dst[:l], src)
	if err != nil {
		return nil, fmt.Errorf("zstd decompression failed: %w", err)
	}
	if n := len(out) - l; n != size {
		return nil, sizeMismatch("zstd", n, size)
	}

	return out, nil
}
