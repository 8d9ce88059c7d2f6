package compress

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/snapsync/errs"
	"github.com/arloliu/snapsync/format"
)

var allTypes = []format.CompressionType{
	format.CompressionNone,
	format.CompressionZstd,
	format.CompressionS2,
	format.CompressionLZ4,
}

func testPayloads() map[string][]byte {
	rng := rand.New(rand.NewSource(7))
	random := make([]byte, 4096)
	rng.Read(random)

	// a history-like payload: small varint deltas followed by mostly-zero XOR bits
	history := make([]byte, 0, 2048)
	for i := range 2048 {
		if i%16 == 0 {
			history = append(history, byte(i))
		} else {
			history = append(history, 0)
		}
	}

	return map[string][]byte{
		"single byte": {0x42},
		"short":       []byte("position rotation health"),
		"repetitive":  bytes.Repeat([]byte{0x01, 0x00, 0x00, 0x80}, 1024),
		"history":     history,
		"random":      random,
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	for _, ct := range allTypes {
		codec, err := GetCodec(ct)
		require.NoError(t, err)
		require.Equal(t, ct, codec.Type())

		for name, payload := range testPayloads() {
			t.Run(ct.String()+"/"+name, func(t *testing.T) {
				packed, err := codec.Compress(nil, payload)
				require.NoError(t, err)

				got, err := codec.Decompress(nil, packed, len(payload))
				require.NoError(t, err)
				require.Equal(t, payload, got)
			})
		}
	}
}

func TestCodec_Empty(t *testing.T) {
	for _, ct := range allTypes {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := GetCodec(ct)
			require.NoError(t, err)

			packed, err := codec.Compress(nil, nil)
			require.NoError(t, err)

			got, err := codec.Decompress(nil, packed, 0)
			require.NoError(t, err)
			require.Empty(t, got)
		})
	}
}

func TestCodec_AppendsToDestination(t *testing.T) {
	payload := bytes.Repeat([]byte("snapshot"), 64)
	prefix := []byte{0xde, 0xad}

	for _, ct := range allTypes {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := GetCodec(ct)
			require.NoError(t, err)

			packed, err := codec.Compress(append([]byte{}, prefix...), payload)
			require.NoError(t, err)
			require.Equal(t, prefix, packed[:2])

			got, err := codec.Decompress(append([]byte{}, prefix...), packed[2:], len(payload))
			require.NoError(t, err)
			require.Equal(t, prefix, got[:2])
			require.Equal(t, payload, got[2:])
		})
	}
}

func TestCodec_Compresses(t *testing.T) {
	payload := testPayloads()["repetitive"]

	for _, ct := range allTypes[1:] {
		codec, err := GetCodec(ct)
		require.NoError(t, err)

		packed, err := codec.Compress(nil, payload)
		require.NoError(t, err)
		require.Less(t, len(packed), len(payload)/4, ct.String())
	}
}

func TestCodec_SizeMismatch(t *testing.T) {
	payload := bytes.Repeat([]byte{1, 2, 3}, 100)

	for _, ct := range allTypes {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := GetCodec(ct)
			require.NoError(t, err)

			packed, err := codec.Compress(nil, payload)
			require.NoError(t, err)

			_, err = codec.Decompress(nil, packed, len(payload)+1)
			require.Error(t, err)
		})
	}
}

func TestCodec_NoOpSizeMismatch(t *testing.T) {
	_, err := NewNoOpCompressor().Decompress(nil, []byte{1, 2, 3}, 4)
	require.ErrorIs(t, err, errs.ErrSizeMismatch)
}

func TestCodec_CorruptInput(t *testing.T) {
	garbage := []byte{0xff, 0xfe, 0xfd, 0xfc, 0xfb, 0xfa, 0xf9, 0xf8}

	for _, ct := range allTypes[1:] {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := GetCodec(ct)
			require.NoError(t, err)

			_, err = codec.Decompress(nil, garbage, 64)
			require.Error(t, err)
		})
	}
}

func TestCreateCodec(t *testing.T) {
	for _, ct := range allTypes {
		codec, err := CreateCodec(ct, "history")
		require.NoError(t, err)
		require.Equal(t, ct, codec.Type())
	}

	_, err := CreateCodec(format.CompressionType(0x9), "history")
	require.ErrorIs(t, err, errs.ErrInvalidCompression)
	require.Contains(t, err.Error(), "history")

	_, err = GetCodec(format.CompressionType(0))
	require.ErrorIs(t, err, errs.ErrInvalidCompression)
}

func BenchmarkCodec_Compress(b *testing.B) {
	payload := testPayloads()["history"]
	for _, ct := range allTypes {
		codec, _ := GetCodec(ct)
		b.Run(ct.String(), func(b *testing.B) {
			dst := make([]byte, 0, len(payload)*2)
			b.SetBytes(int64(len(payload)))
			b.ReportAllocs()
			for b.Loop() {
				dst, _ = codec.Compress(dst[:0], payload)
			}
		})
	}
}

func BenchmarkCodec_Decompress(b *testing.B) {
	payload := testPayloads()["history"]
	for _, ct := range allTypes {
		codec, _ := GetCodec(ct)
		packed, _ := codec.Compress(nil, payload)
		b.Run(ct.String(), func(b *testing.B) {
			dst := make([]byte, 0, len(payload))
			b.SetBytes(int64(len(payload)))
			b.ReportAllocs()
			for b.Loop() {
				dst, _ = codec.Decompress(dst[:0], packed, len(payload))
			}
		})
	}
}
