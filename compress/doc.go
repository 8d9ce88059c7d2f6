// Package compress provides the general-purpose codecs applied to encoded history
// payloads.
//
// History payloads are already delta- and XOR-encoded, so compression mostly pays off
// for long histories of slowly changing values. Four codecs are available, selected
// by format.CompressionType:
//
//   - None: the payload is stored as is
//   - Zstd: best ratio; uses gozstd when cgo is enabled and klauspost/compress otherwise
//   - S2: fast, moderate ratio
//   - LZ4: fastest decompression
//
// All codecs append to a caller-provided destination so that pooled buffers can be
// reused, and decompression is told the expected output size, which history headers
// record. Codecs are stateless values and safe for concurrent use.
//
//	codec, err := compress.GetCodec(format.CompressionS2)
//	packed, err := codec.Compress(nil, payload)
//	payload, err = codec.Decompress(nil, packed, len(payload))
package compress
