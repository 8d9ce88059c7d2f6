package format

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/snapsync/errs"
)

func TestValueKind_Components(t *testing.T) {
	tests := []struct {
		kind ValueKind
		want int
	}{
		{KindFloat, 1},
		{KindVector2, 2},
		{KindVector3, 3},
		{KindVector4, 4},
		{KindRotation, 4},
		{ValueKind(0), 0},
		{ValueKind(0x7f), 0},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			require.Equal(t, tt.want, tt.kind.Components())
			require.Equal(t, tt.want > 0, tt.kind.Valid())
		})
	}
}

func TestParseValueKind(t *testing.T) {
	k, err := ParseValueKind("Vector3")
	require.NoError(t, err)
	require.Equal(t, KindVector3, k)

	k, err = ParseValueKind(" quaternion ")
	require.NoError(t, err)
	require.Equal(t, KindRotation, k)

	_, err = ParseValueKind("matrix")
	require.ErrorIs(t, err, errs.ErrInvalidKind)
}

func TestParseCompressionType(t *testing.T) {
	for _, c := range []CompressionType{CompressionNone, CompressionZstd, CompressionS2, CompressionLZ4} {
		parsed, err := ParseCompressionType(c.String())
		require.NoError(t, err)
		require.Equal(t, c, parsed)
	}

	parsed, err := ParseCompressionType("")
	require.NoError(t, err)
	require.Equal(t, CompressionNone, parsed)

	_, err = ParseCompressionType("brotli")
	require.ErrorIs(t, err, errs.ErrInvalidCompression)
	require.Equal(t, "Unknown", CompressionType(0).String())
}
