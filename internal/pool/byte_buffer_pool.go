package pool

import "sync"

const (
	ScratchBufferSize         = 1024 * 32  // 32KiB, one outgoing sync message
	HistoryBufferDefaultSize  = 1024 * 4   // 4KiB
	HistoryBufferMaxThreshold = 1024 * 256 // 256KiB
)

// ByteBuffer is a growable byte slice wrapper that can be recycled through a ByteBufferPool.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the specified default capacity.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, defaultSize),
	}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Reset empties the buffer but keeps the allocated memory for reuse.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Len returns the length of the buffer.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Cap returns the capacity of the buffer.
func (bb *ByteBuffer) Cap() int {
	return cap(bb.B)
}

// Full returns the buffer resliced to its whole capacity, for use as fixed-size scratch
// space by writers that track their own length.
func (bb *ByteBuffer) Full() []byte {
	return bb.B[:cap(bb.B)]
}

// Grow ensures the buffer can hold requiredBytes more bytes without reallocating.
//
// Small buffers grow by HistoryBufferDefaultSize; larger ones grow by 25% of their
// capacity, or by requiredBytes when that is larger.
func (bb *ByteBuffer) Grow(requiredBytes int) {
	if cap(bb.B)-len(bb.B) >= requiredBytes {
		return
	}

	growBy := HistoryBufferDefaultSize
	if cap(bb.B) > 4*HistoryBufferDefaultSize {
		growBy = cap(bb.B) / 4
	}
	growBy = max(growBy, requiredBytes)

	newBuf := make([]byte, len(bb.B), len(bb.B)+growBy)
	copy(newBuf, bb.B)
	bb.B = newBuf
}

// Write appends data to the buffer, growing it as needed.
func (bb *ByteBuffer) Write(data []byte) (int, error) {
	bb.B = append(bb.B, data...)
	return len(data), nil
}

// ByteBufferPool is a sync.Pool of ByteBuffers.
//
// Buffers whose capacity grew beyond maxThreshold are dropped on Put instead of being
// retained.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a pool whose new buffers have defaultSize capacity.
// A maxThreshold of zero disables the retention limit.
func NewByteBufferPool(defaultSize int, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any {
				return NewByteBuffer(defaultSize)
			},
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves an empty ByteBuffer from the pool.
func (bbp *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := bbp.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns a ByteBuffer to the pool for reuse.
func (bbp *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}

	if bbp.maxThreshold > 0 && cap(bb.B) > bbp.maxThreshold {
		return
	}

	bb.Reset()
	bbp.pool.Put(bb)
}

var (
	scratchPool = NewByteBufferPool(ScratchBufferSize, ScratchBufferSize)
	historyPool = NewByteBufferPool(HistoryBufferDefaultSize, HistoryBufferMaxThreshold)
)

// GetScratch retrieves a fixed 32KiB scratch buffer for one outgoing message.
func GetScratch() *ByteBuffer {
	return scratchPool.Get()
}

// PutScratch returns a scratch buffer to its pool.
func PutScratch(bb *ByteBuffer) {
	scratchPool.Put(bb)
}

// GetHistoryBuffer retrieves a growable buffer for history blob encoding.
func GetHistoryBuffer() *ByteBuffer {
	return historyPool.Get()
}

// PutHistoryBuffer returns a history buffer to its pool.
func PutHistoryBuffer(bb *ByteBuffer) {
	historyPool.Put(bb)
}
