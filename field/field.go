// Package field binds one replicated value to its wire codec, its snapshot history and
// its blending settings.
//
// A sender uses a Field to decide whether a value changed enough to be worth sending
// (Changed) and to write it (Encode). A receiver decodes values, feeds them into the
// field's history (Receive) and asks for the value to present at a given time (Blend).
// Fields are grouped and addressed by ID through a Registry.
package field

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/arloliu/snapsync/bitstream"
	"github.com/arloliu/snapsync/blend"
	"github.com/arloliu/snapsync/errs"
	"github.com/arloliu/snapsync/format"
	"github.com/arloliu/snapsync/internal/hash"
	"github.com/arloliu/snapsync/internal/options"
	"github.com/arloliu/snapsync/snapshot"
)

// Field is one synchronized value.
//
// The receive side (Receive, ReceiveWithVelocity, Restore) and the presentation side
// (Blend, History) may run on different goroutines. Encode and Decode only touch the
// bitstream they are given.
type Field struct {
	name   string
	id     uint64
	kind   format.ValueKind
	cfg    Config
	codec  valueCodec
	ring   *snapshot.SharedRing
	recon  *blend.Reconstructor
	logger *slog.Logger

	smoothMu sync.Mutex
	smoother *blend.Smoother // nil unless smoothing is enabled
}

// New creates a field.
//
// Parameters:
//   - name: Unique field name; its xxHash64 is the field ID
//   - kind: Kind of value the field carries
//   - opts: Configuration options
//
// Returns:
//   - *Field: The configured field
//   - error: errs.ErrInvalidFieldName, errs.ErrInvalidKind or an option error
func New(name string, kind format.ValueKind, opts ...Option) (*Field, error) {
	if name == "" {
		return nil, errs.ErrInvalidFieldName
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %d", errs.ErrInvalidKind, kind)
	}

	cfg := defaultConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, fmt.Errorf("field %q: %w", name, err)
	}

	codec, err := newCodec(kind, cfg)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", name, err)
	}

	logger := cfg.logger.With(slog.String("field", name))
	recon, err := blend.NewReconstructor(kind,
		blend.WithPresentationLead(cfg.PresentationLead),
		blend.WithStaleness(cfg.Staleness),
		blend.WithMaxExtrapolation(cfg.MaxExtrapolation),
		blend.WithAcceleration(cfg.Acceleration),
		blend.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", name, err)
	}

	f := &Field{
		name:   name,
		id:     hash.ID(name),
		kind:   kind,
		cfg:    *cfg,
		codec:  codec,
		ring:   snapshot.NewSharedRing(snapshot.CapacityFor(cfg.PresentationLead, cfg.SendInterval, cfg.MinCapacity)),
		recon:  recon,
		logger: logger,
	}
	if cfg.Smoothing {
		f.smoother = blend.NewSmoother(kind)
	}

	return f, nil
}

// Name returns the field name.
func (f *Field) Name() string { return f.name }

// ID returns the field's wire identifier, the xxHash64 of its name.
func (f *Field) ID() uint64 { return f.id }

// Kind returns the kind of value the field carries.
func (f *Field) Kind() format.ValueKind { return f.kind }

// Config returns the field's settings.
func (f *Field) Config() Config { return f.cfg }

// Capacity returns the number of snapshots the field's history retains.
func (f *Field) Capacity() int { return f.ring.Cap() }

// EncodedBits returns the number of bits Encode writes for one value.
func (f *Field) EncodedBits() int { return f.codec.bits() }

// Encode writes v to w using the field's codec.
//
// Returns errs.ErrKindMismatch if v is not of the field's kind,
// errs.ErrValueOutOfRange if a component lies outside quantization bounds (or is NaN
// with clamping), or errs.ErrInsufficientSpace if w has fewer than EncodedBits bits
// left. Nothing is written when an error is returned.
func (f *Field) Encode(w *bitstream.Writer, v snapshot.Value) error {
	if err := f.check(v); err != nil {
		return err
	}
	if err := f.reserve(w, 0); err != nil {
		return err
	}
	f.codec.encode(w, v)

	return nil
}

func (f *Field) check(v snapshot.Value) error {
	if v.Kind() != f.kind {
		return fmt.Errorf("%w: field %q is %s, value is %s", errs.ErrKindMismatch, f.name, f.kind, v.Kind())
	}

	return f.codec.check(v)
}

// reserve checks that w has room for extra bits followed by one encoded value.
func (f *Field) reserve(w *bitstream.Writer, extra int) error {
	need := extra + f.codec.bits()
	if left := w.RemainingBits(); left < need {
		return fmt.Errorf("%w: field %q needs %d bits, %d left", errs.ErrInsufficientSpace, f.name, need, left)
	}

	return nil
}

// Decode reads one value from r. The boolean is false if r ran out of bits.
func (f *Field) Decode(r *bitstream.Reader) (snapshot.Value, bool) {
	return f.codec.decode(r)
}

// Changed reports whether a receiver could tell next apart from prev: for quantized
// fields, whether any component quantizes differently.
func (f *Field) Changed(prev, next snapshot.Value) bool {
	if prev.Kind() != next.Kind() {
		return true
	}

	return !f.codec.equal(prev, next)
}

// Receive appends a received value, stamped with the sender's time in ticks, to the
// field's history. It returns false if the value was rejected: a kind mismatch, a
// duplicate timestamp, or a snapshot older than a full history.
func (f *Field) Receive(ticks int64, v snapshot.Value) bool {
	return f.receive(snapshot.Snapshot{Ticks: ticks, Value: v})
}

// ReceiveWithVelocity is like Receive but also records the sender's velocity sample,
// which extrapolation prefers over finite differences. Rotation fields take an
// angular velocity in radians per second as a Vector3.
func (f *Field) ReceiveWithVelocity(ticks int64, v, velocity snapshot.Value) bool {
	if want := snapshot.VelocityKind(f.kind); velocity.Kind() != want {
		f.logger.Debug("snapshot rejected",
			slog.String("reason", "velocity kind mismatch"),
			slog.String("velocity_kind", velocity.Kind().String()))

		return false
	}

	return f.receive(snapshot.Snapshot{Ticks: ticks, Value: v, Velocity: velocity})
}

func (f *Field) receive(s snapshot.Snapshot) bool {
	if s.Value.Kind() != f.kind {
		f.logger.Debug("snapshot rejected",
			slog.String("reason", "kind mismatch"),
			slog.String("value_kind", s.Value.Kind().String()))

		return false
	}

	if !f.ring.Add(s) {
		f.logger.Debug("snapshot rejected",
			slog.String("reason", "duplicate or too old"),
			slog.Int64("ticks", s.Ticks))

		return false
	}

	return true
}

// Blend returns the value to present at now (in ticks). See blend.Reconstructor for
// the lookup rules. When smoothing is enabled the reconstructed value is filtered
// before it is returned.
func (f *Field) Blend(now int64) (blend.Result, error) {
	var (
		res blend.Result
		err error
	)
	f.ring.Read(func(r *snapshot.Ring) {
		res, err = f.recon.Reconstruct(r, now)
	})
	if err != nil {
		return blend.Result{}, err
	}

	if f.smoother != nil {
		f.smoothMu.Lock()
		res.Value = f.smoother.Apply(res.Value)
		f.smoothMu.Unlock()
	}

	return res, nil
}

// History returns a copy of the retained snapshots, newest first.
func (f *Field) History() []snapshot.Snapshot {
	var out []snapshot.Snapshot
	f.ring.Read(func(r *snapshot.Ring) {
		out = r.Snapshots(make([]snapshot.Snapshot, 0, r.Len()))
	})

	return out
}

// Restore replaces the field's history with snaps and returns the number accepted.
// Snapshots of the wrong kind are skipped. Smoother state is discarded.
func (f *Field) Restore(snaps []snapshot.Snapshot) int {
	accepted := 0
	f.ring.Write(func(r *snapshot.Ring) {
		r.Reset()
		for _, s := range snaps {
			if s.Value.Kind() == f.kind && r.Add(s) {
				accepted++
			}
		}
	})
	f.resetSmoother()

	if skipped := len(snaps) - accepted; skipped > 0 {
		f.logger.Debug("history restore skipped snapshots", slog.Int("skipped", skipped))
	}

	return accepted
}

// Reset discards the field's history and smoother state.
func (f *Field) Reset() {
	f.ring.Write(func(r *snapshot.Ring) {
		r.Reset()
	})
	f.resetSmoother()
}

func (f *Field) resetSmoother() {
	if f.smoother == nil {
		return
	}
	f.smoothMu.Lock()
	f.smoother.Reset()
	f.smoothMu.Unlock()
}
