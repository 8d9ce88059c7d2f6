package blend

import (
	"fmt"
	"log/slog"

	"github.com/arloliu/snapsync/errs"
	"github.com/arloliu/snapsync/format"
	"github.com/arloliu/snapsync/internal/options"
	"github.com/arloliu/snapsync/snapshot"
)

// Source is a newest-first snapshot history. *snapshot.Ring implements it.
type Source interface {
	// Len returns the number of snapshots.
	Len() int
	// At returns the i-th newest snapshot; At(0) is the newest.
	At(i int) snapshot.Snapshot
}

var _ Source = (*snapshot.Ring)(nil)

// Result is a reconstructed value.
type Result struct {
	Value snapshot.Value
	// Extrapolated is true when the value was projected past the newest snapshot.
	Extrapolated bool
}

// Reconstructor estimates a field's value at an arbitrary time from its snapshot
// history. It is immutable after creation and safe for concurrent use, provided the
// Source passed to Reconstruct is not mutated during the call.
type Reconstructor struct {
	kind     format.ValueKind
	cfg      Config
	strategy strategy
	logger   *slog.Logger
}

// NewReconstructor creates a reconstructor for values of the given kind.
//
// Parameters:
//   - kind: Kind of the values in the histories it will be given
//   - opts: Configuration options (WithPresentationLead, WithStaleness, ...)
//
// Returns:
//   - *Reconstructor: The reconstructor
//   - error: errs.ErrInvalidKind or an option validation error
func NewReconstructor(kind format.ValueKind, opts ...Option) (*Reconstructor, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %d", errs.ErrInvalidKind, kind)
	}

	cfg := defaultConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return &Reconstructor{
		kind:     kind,
		cfg:      *cfg,
		strategy: strategyFor(kind),
		logger:   cfg.logger.With(slog.String("kind", kind.String())),
	}, nil
}

// Kind returns the value kind the reconstructor blends.
func (r *Reconstructor) Kind() format.ValueKind {
	return r.kind
}

// Config returns the reconstructor's settings.
func (r *Reconstructor) Config() Config {
	return r.cfg
}

// Reconstruct returns the best estimate of the value at time at (in ticks).
//
// The query is shifted back by the presentation lead, then answered as follows:
//  1. Empty history: errs.ErrNoData.
//  2. at - newest >= staleness: errs.ErrStale.
//  3. Shifted time at or past the newest snapshot: the newest value projected forward
//     (Extrapolated is set when the projection distance is positive).
//  4. Shifted time at or before the oldest snapshot: the oldest value.
//  5. Otherwise the two snapshots bracketing the shifted time are interpolated.
//
// ErrNoData and ErrStale are expected boundary conditions; callers typically hold the
// last presented value. errs.ErrBracketNotFound means the source changed while it
// was being read, for example a ring written without holding its SharedRing lock.
// It is logged at error level.
func (r *Reconstructor) Reconstruct(src Source, at int64) (Result, error) {
	n := src.Len()
	if n == 0 {
		return Result{}, errs.ErrNoData
	}

	newest := src.At(0)
	if kind := newest.Value.Kind(); kind != r.kind {
		return Result{}, fmt.Errorf("%w: history holds %s, reconstructor blends %s", errs.ErrKindMismatch, kind, r.kind)
	}

	if age := at - newest.Ticks; age >= r.cfg.StalenessTicks {
		r.logger.Debug("refusing to blend stale history",
			slog.Int64("age_ticks", age),
			slog.Int64("staleness_ticks", r.cfg.StalenessTicks))

		return Result{}, fmt.Errorf("%w: newest snapshot is %s old", errs.ErrStale, snapshot.TicksToDuration(age))
	}

	t := at - r.cfg.LeadTicks

	if t >= newest.Ticks {
		dt := t - newest.Ticks
		if dt == 0 {
			return Result{Value: newest.Value}, nil
		}
		if limit := r.cfg.MaxExtrapolationTicks; limit > 0 && dt > limit {
			r.logger.Debug("extrapolation clamped",
				slog.Int64("requested_ticks", dt),
				slog.Int64("limit_ticks", limit))
			dt = limit
		}

		if n < 2 && !newest.HasVelocity() {
			return Result{Value: newest.Value}, nil
		}

		return Result{Value: r.strategy.extrapolate(src, dt, r.cfg.Acceleration), Extrapolated: true}, nil
	}

	oldest := src.At(n - 1)
	if t <= oldest.Ticks {
		return Result{Value: oldest.Value}, nil
	}

	for i := n - 1; i > 0; i-- {
		older, newer := src.At(i), src.At(i-1)
		if older.Ticks > t || t > newer.Ticks {
			continue
		}

		span := newer.Ticks - older.Ticks
		switch {
		case t == older.Ticks:
			return Result{Value: older.Value}, nil
		case t == newer.Ticks:
			return Result{Value: newer.Value}, nil
		case span <= 0:
			continue
		}

		ratio := float64(t-older.Ticks) / float64(span)

		return Result{Value: r.strategy.interpolate(older.Value, newer.Value, ratio)}, nil
	}

	r.logger.Error("no interpolation bracket for in-range query",
		slog.Int64("query_ticks", t),
		slog.Int64("oldest_ticks", oldest.Ticks),
		slog.Int64("newest_ticks", newest.Ticks),
		slog.Int("snapshots", n))

	return Result{}, fmt.Errorf("%w: query %d in (%d, %d)", errs.ErrBracketNotFound, t, oldest.Ticks, newest.Ticks)
}
