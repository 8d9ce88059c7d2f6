package pool

import "sync"

// Slice pools for the columnar transforms done by history encoding.
var (
	int64SlicePool = sync.Pool{
		New: func() any { return &[]int64{} },
	}
	float32SlicePool = sync.Pool{
		New: func() any { return &[]float32{} },
	}
)

// GetInt64Slice retrieves an int64 slice of exactly size elements from the pool.
//
// The caller must call the returned cleanup function to give the slice back.
//
// Example:
//
//	ticks, cleanup := pool.GetInt64Slice(len(snaps))
//	defer cleanup()
func GetInt64Slice(size int) ([]int64, func()) {
	ptr, _ := int64SlicePool.Get().(*[]int64)
	slice := (*ptr)[:0]

	if cap(slice) < size {
		slice = make([]int64, size)
	} else {
		slice = slice[:size]
	}
	*ptr = slice

	return slice, func() { int64SlicePool.Put(ptr) }
}

// GetFloat32Slice retrieves a float32 slice of exactly size elements from the pool.
//
// The caller must call the returned cleanup function to give the slice back.
func GetFloat32Slice(size int) ([]float32, func()) {
	ptr, _ := float32SlicePool.Get().(*[]float32)
	slice := (*ptr)[:0]

	if cap(slice) < size {
		slice = make([]float32, size)
	} else {
		slice = slice[:size]
	}
	*ptr = slice

	return slice, func() { float32SlicePool.Put(ptr) }
}
