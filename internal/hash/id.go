package hash

import "github.com/cespare/xxhash/v2"

// ID computes the xxHash64 of a field name. The result is the field's wire identifier.
func ID(name string) uint64 {
	return xxhash.Sum64String(name)
}

// Checksum computes the xxHash64 of a history payload.
func Checksum(data []byte) uint64 {
	return xxhash.Sum64(data)
}
