package field

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/arloliu/snapsync/errs"
	"github.com/arloliu/snapsync/internal/options"
	"github.com/arloliu/snapsync/quantize"
	"github.com/arloliu/snapsync/snapshot"
)

// Default field settings.
const (
	DefaultSendInterval     = 50 * time.Millisecond
	DefaultPresentationLead = 250 * time.Millisecond
	DefaultStaleness        = 2 * time.Second
)

// Config holds the settings of one field. It is populated by Options and read back
// with Field.Config.
type Config struct {
	// Quantization bounds the wire encoding of scalar and vector components.
	// A nil value sends raw float32 components.
	Quantization *quantize.Bounds
	// RotationBits is the per-component width of smallest-three rotations.
	RotationBits uint32
	// SendInterval is the expected time between snapshots from the sender.
	SendInterval time.Duration
	// PresentationLead is how far behind the query time values are presented.
	PresentationLead time.Duration
	// Staleness is the snapshot age at which Blend reports errs.ErrStale.
	Staleness time.Duration
	// MinCapacity is the lower bound of the history ring capacity.
	MinCapacity int
	// MaxExtrapolation caps how far past the newest snapshot values are projected.
	// Zero means no cap.
	MaxExtrapolation time.Duration
	Smoothing        bool
	Acceleration     bool

	logger *slog.Logger
}

// Option configures a Field.
type Option = options.Option[*Config]

func defaultConfig() *Config {
	return &Config{
		RotationBits:     quantize.DefaultRotationBits,
		SendInterval:     DefaultSendInterval,
		PresentationLead: DefaultPresentationLead,
		Staleness:        DefaultStaleness,
		MinCapacity:      snapshot.DefaultMinCapacity,
		Acceleration:     true,
		logger:           slog.New(slog.DiscardHandler),
	}
}

// WithQuantization quantizes every component of a scalar or vector field to bits bits
// within [lower, upper]. With clamp set, out-of-range values are pinned to the bounds
// before quantizing; otherwise Encode rejects them.
//
// Not applicable to rotation fields, which use WithRotationBits.
func WithQuantization(lower, upper float32, bits uint32, clamp bool) Option {
	return options.New(func(c *Config) error {
		b := quantize.Bounds{Lower: lower, Upper: upper, BitCount: bits, Clamp: clamp}
		if err := b.Validate(); err != nil {
			return err
		}
		c.Quantization = &b

		return nil
	})
}

// WithRotationBits sets the per-component width of smallest-three rotation encoding.
// The default is quantize.DefaultRotationBits.
func WithRotationBits(bits uint32) Option {
	return options.New(func(c *Config) error {
		if bits < 1 || bits > quantize.MaxBitCount {
			return fmt.Errorf("%w: %d", errs.ErrInvalidBitCount, bits)
		}
		c.RotationBits = bits

		return nil
	})
}

// WithSendInterval sets the expected interval between received snapshots. It is used
// to size the history ring.
func WithSendInterval(d time.Duration) Option {
	return options.New(func(c *Config) error {
		if d <= 0 {
			return fmt.Errorf("%w: %s", errs.ErrInvalidSendInterval, d)
		}
		c.SendInterval = d

		return nil
	})
}

// WithPresentationLead sets the presentation lag. Zero disables it.
func WithPresentationLead(d time.Duration) Option {
	return options.New(func(c *Config) error {
		if d < 0 {
			return fmt.Errorf("%w: %s", errs.ErrInvalidPresentationLag, d)
		}
		c.PresentationLead = d

		return nil
	})
}

// WithStaleness sets the snapshot age at which blending stops.
func WithStaleness(d time.Duration) Option {
	return options.New(func(c *Config) error {
		if snapshot.TicksFromDuration(d) <= 0 {
			return fmt.Errorf("%w: %s", errs.ErrInvalidStaleness, d)
		}
		c.Staleness = d

		return nil
	})
}

// WithMinCapacity sets the minimum history ring capacity. Values below 1 select
// snapshot.DefaultMinCapacity.
func WithMinCapacity(n int) Option {
	return options.NoError(func(c *Config) {
		if n < 1 {
			n = snapshot.DefaultMinCapacity
		}
		c.MinCapacity = n
	})
}

// WithSmoothing enables the jitter filter on blended values.
func WithSmoothing(enabled bool) Option {
	return options.NoError(func(c *Config) {
		c.Smoothing = enabled
	})
}

// WithAcceleration toggles the acceleration term of linear extrapolation.
func WithAcceleration(enabled bool) Option {
	return options.NoError(func(c *Config) {
		c.Acceleration = enabled
	})
}

// WithMaxExtrapolation caps the extrapolation distance. Zero or negative disables the cap.
func WithMaxExtrapolation(d time.Duration) Option {
	return options.NoError(func(c *Config) {
		c.MaxExtrapolation = max(0, d)
	})
}

// WithLogger sets the logger used for rejected snapshots and blend failures.
// A nil logger discards output.
func WithLogger(logger *slog.Logger) Option {
	return options.NoError(func(c *Config) {
		if logger == nil {
			logger = slog.New(slog.DiscardHandler)
		}
		c.logger = logger
	})
}
