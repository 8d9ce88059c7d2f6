// Package errs defines the sentinel errors shared by all snapsync packages.
//
// Callers should compare against these values with errors.Is, since most call
// sites wrap them with additional context.
package errs

import "errors"

// Quantization errors.
var (
	ErrInvalidBitCount     = errors.New("invalid bit count")
	ErrInvalidBounds       = errors.New("invalid quantization bounds: upper bound must be greater than lower bound")
	ErrValueOutOfRange     = errors.New("value out of quantization range")
	ErrQuantizedOutOfRange = errors.New("quantized value exceeds the maximum representable for bit count")
)

// Snapshot and reconstruction errors.
var (
	// ErrNoData is returned when a reconstruction is requested on an empty history.
	ErrNoData = errors.New("no snapshot data available")
	// ErrStale is returned when the newest snapshot is older than the staleness threshold.
	ErrStale = errors.New("snapshot data is stale")
	// ErrBracketNotFound signals an internal inconsistency: the query time lies inside
	// the retained history but no pair of snapshots brackets it.
	ErrBracketNotFound = errors.New("interpolation bracket not found within retained history")
	ErrKindMismatch    = errors.New("value kind mismatch")
	ErrInvalidKind     = errors.New("invalid value kind")
	ErrInvalidCapacity = errors.New("invalid ring capacity")
)

// Field configuration errors.
var (
	ErrInvalidSendInterval    = errors.New("send interval must be positive")
	ErrInvalidPresentationLag = errors.New("presentation lead must not be negative")
	ErrInvalidStaleness       = errors.New("staleness threshold must be positive")
	ErrInvalidFieldName       = errors.New("invalid field name")
	ErrFieldAlreadyRegistered = errors.New("field already registered")
	ErrHashCollision          = errors.New("field ID hash collision")
	ErrFieldNotFound          = errors.New("field not found")
	ErrInsufficientSpace      = errors.New("insufficient space left in message buffer")
)

// History blob errors.
var (
	ErrInvalidHeader       = errors.New("invalid history header")
	ErrUnsupportedVersion  = errors.New("unsupported history version")
	ErrChecksumMismatch    = errors.New("history payload checksum mismatch")
	ErrInvalidCompression  = errors.New("invalid compression type")
	ErrSizeMismatch        = errors.New("decompressed size does not match the recorded payload length")
	ErrTruncatedPayload    = errors.New("history payload truncated")
	ErrInsufficientData    = errors.New("insufficient data")
	ErrTooManySnapshots    = errors.New("too many snapshots for a single history blob")
	ErrUnsortedSnapshots   = errors.New("snapshots must be ordered newest first with distinct timestamps")
	ErrInvalidConfigSource = errors.New("invalid configuration source")
)
