package field

import (
	"fmt"
	"slices"
	"sync"

	"github.com/arloliu/snapsync/bitstream"
	"github.com/arloliu/snapsync/errs"
	"github.com/arloliu/snapsync/internal/collision"
	"github.com/arloliu/snapsync/internal/hash"
	"github.com/arloliu/snapsync/snapshot"
)

// Registry holds a set of fields addressed by ID and by name.
//
// Registration rejects empty names, duplicate names and names whose xxHash64 IDs
// collide. A Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	tracker *collision.Tracker
	byID    map[uint64]*Field
	order   []*Field
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tracker: collision.NewTracker(),
		byID:    make(map[uint64]*Field),
	}
}

// Register adds f to the registry.
func (r *Registry) Register(f *Field) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.tracker.Track(f.Name(), f.ID()); err != nil {
		return err
	}
	r.byID[f.ID()] = f
	r.order = append(r.order, f)

	return nil
}

// Lookup returns the field with the given ID.
func (r *Registry) Lookup(id uint64) (*Field, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.byID[id]

	return f, ok
}

// ByName returns the field with the given name.
func (r *Registry) ByName(name string) (*Field, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.byID[hash.ID(name)]
	if !ok || f.Name() != name {
		return nil, false
	}

	return f, true
}

// Names returns the registered field names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.tracker.Names())
}

// All returns the registered fields in registration order.
func (r *Registry) All() []*Field {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Field, len(r.order))
	copy(out, r.order)

	return out
}

// Len returns the number of registered fields.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.tracker.Count()
}

// EncodeUpdate writes a field update: the 64-bit field ID followed by the encoded value.
// Nothing is written when an error is returned; see Field.Encode for the errors,
// plus errs.ErrFieldNotFound for an unknown ID.
func (r *Registry) EncodeUpdate(w *bitstream.Writer, id uint64, v snapshot.Value) error {
	f, ok := r.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %#016x", errs.ErrFieldNotFound, id)
	}
	if err := f.check(v); err != nil {
		return err
	}
	if err := f.reserve(w, 64); err != nil {
		return err
	}

	w.WriteUint64(id, 64)
	f.codec.encode(w, v)

	return nil
}

// DecodeUpdate reads a field update written by EncodeUpdate.
//
// Returns:
//   - *Field: The field the update belongs to
//   - snapshot.Value: The decoded value
//   - error: errs.ErrInsufficientData if r ran out of bits, errs.ErrFieldNotFound for
//     an unknown ID
func (r *Registry) DecodeUpdate(rd *bitstream.Reader) (*Field, snapshot.Value, error) {
	id, ok := rd.ReadUint64(64)
	if !ok {
		return nil, snapshot.Value{}, errs.ErrInsufficientData
	}

	f, ok := r.Lookup(id)
	if !ok {
		return nil, snapshot.Value{}, fmt.Errorf("%w: %#016x", errs.ErrFieldNotFound, id)
	}

	v, ok := f.Decode(rd)
	if !ok {
		return nil, snapshot.Value{}, fmt.Errorf("%w: value of field %q", errs.ErrInsufficientData, f.Name())
	}

	return f, v, nil
}
