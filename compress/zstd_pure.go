//go:build !cgo

package compress

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Pooled encoders and decoders. EncodeAll and DecodeAll are stateless, so a warmed-up
// instance can serve any caller.
var (
	zstdEncoderPool = sync.Pool{
		New: func() any {
			enc, err := zstd.NewWriter(nil,
				zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(zstdLevel)),
				zstd.WithEncoderCRC(false),
			)
			if err != nil {
				panic(fmt.Sprintf("compress: create zstd encoder: %v", err))
			}

			return enc
		},
	}
	zstdDecoderPool = sync.Pool{
		New: func() any {
			dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
			if err != nil {
				panic(fmt.Sprintf("compress: create zstd decoder: %v", err))
			}

			return dec
		},
	}
)

// Compress appends a Zstandard frame holding src to dst.
func (ZstdCompressor) Compress(dst, src []byte) ([]byte, error) {
	enc, _ := zstdEncoderPool.Get().(*zstd.Encoder)
	defer zstdEncoderPool.Put(enc)

	return enc.EncodeAll(src, dst), nil
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

	dec, _ := zstdDecoderPool.Get().(*zstd.Decoder)
	defer zstdDecoderPool.Put(dec)

	out, err := dec.DecodeAll(src, dst[:l])
	if err != nil {
		return nil, fmt.Errorf("zstd decompression failed: %w", err)
	}
	if n := len(out) - l; n != size {
		return nil, sizeMismatch("zstd", n, size)
	}

	return out, nil
}
