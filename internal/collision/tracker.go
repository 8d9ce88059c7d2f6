package collision

import (
	"fmt"

	"github.com/arloliu/snapsync/errs"
)

// Tracker records field names and their hashed IDs and detects conflicts as fields
// are registered. Field IDs travel on the wire in place of names, so two names that
// hash to the same ID cannot coexist.
type Tracker struct {
	names map[uint64]string // ID → name
	order []string          // registration order
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		names: make(map[uint64]string),
		order: make([]string, 0),
	}
}

// Track records name under id.
//
// Returns:
//   - errs.ErrInvalidFieldName if name is empty
//   - errs.ErrFieldAlreadyRegistered if name was tracked before
//   - errs.ErrHashCollision if a different name already owns id
func (t *Tracker) Track(name string, id uint64) error {
	if name == "" {
		return errs.ErrInvalidFieldName
	}

	if existing, ok := t.names[id]; ok {
		if existing == name {
			return fmt.Errorf("%w: %q", errs.ErrFieldAlreadyRegistered, name)
		}

		return fmt.Errorf("%w: %q and %q both hash to %#016x", errs.ErrHashCollision, existing, name, id)
	}

	t.names[id] = name
	t.order = append(t.order, name)

	return nil
}

// Names returns the tracked names in registration order.
func (t *Tracker) Names() []string {
	return t.order
}

// Count returns the number of tracked names.
func (t *Tracker) Count() int {
	return len(t.order)
}
