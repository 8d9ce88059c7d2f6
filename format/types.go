package format

import (
	"fmt"
	"strings"

	"github.com/arloliu/snapsync/errs"
)

type (
	ValueKind       uint8
	CompressionType uint8
)

const (
	KindFloat    ValueKind = 0x1 // KindFloat represents a single float32 scalar.
	KindVector2  ValueKind = 0x2 // KindVector2 represents a 2-component float32 vector.
	KindVector3  ValueKind = 0x3 // KindVector3 represents a 3-component float32 vector.
	KindVector4  ValueKind = 0x4 // KindVector4 represents a 4-component float32 vector.
	KindRotation ValueKind = 0x5 // KindRotation represents a unit quaternion rotation.

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

// Valid reports whether k is one of the defined value kinds.
func (k ValueKind) Valid() bool {
	return k >= KindFloat && k <= KindRotation
}

// Components returns the number of float32 components carried by a value of kind k.
// Rotations carry four (x, y, z, w). Invalid kinds carry zero.
func (k ValueKind) Components() int {
	switch k {
	case KindFloat:
		return 1
	case KindVector2:
		return 2
	case KindVector3:
		return 3
	case KindVector4, KindRotation:
		return 4
	default:
		return 0
	}
}

func (k ValueKind) String() string {
	switch k {
	case KindFloat:
		return "Float"
	case KindVector2:
		return "Vector2"
	case KindVector3:
		return "Vector3"
	case KindVector4:
		return "Vector4"
	case KindRotation:
		return "Rotation"
	default:
		return "Unknown"
	}
}

// ParseValueKind parses a case-insensitive kind name such as "vector3" or "rotation".
// "quaternion" is accepted as an alias of "rotation" and "scalar" of "float".
func ParseValueKind(s string) (ValueKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "float", "scalar":
		return KindFloat, nil
	case "vector2", "vec2":
		return KindVector2, nil
	case "vector3", "vec3":
		return KindVector3, nil
	case "vector4", "vec4":
		return KindVector4, nil
	case "rotation", "quaternion", "quat":
		return KindRotation, nil
	default:
		return 0, fmt.Errorf("%w: %q", errs.ErrInvalidKind, s)
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// ParseCompressionType parses a case-insensitive compression name.
// An empty string maps to CompressionNone.
func ParseCompressionType(s string) (CompressionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "s2":
		return CompressionS2, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("%w: %q", errs.ErrInvalidCompression, s)
	}
}
