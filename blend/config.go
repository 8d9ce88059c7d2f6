package blend

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/arloliu/snapsync/errs"
	"github.com/arloliu/snapsync/internal/options"
	"github.com/arloliu/snapsync/snapshot"
)

const (
	// DefaultStaleness is how long after the newest snapshot a field stops being blended.
	DefaultStaleness = 2 * time.Second
)

// Config holds the reconstruction settings of one field.
type Config struct {
	// LeadTicks is the presentation lag subtracted from every query time.
	LeadTicks int64
	// StalenessTicks is the age of the newest snapshot at which reconstruction is refused.
	StalenessTicks int64
	// MaxExtrapolationTicks bounds how far past the newest snapshot values are
	// projected. Zero means no bound other than staleness.
	MaxExtrapolationTicks int64
	// Acceleration enables the second-order term for scalar and vector extrapolation.
	Acceleration bool

	logger *slog.Logger
}

// Option configures a Reconstructor.
type Option = options.Option[*Config]

func defaultConfig() *Config {
	return &Config{
		StalenessTicks: snapshot.TicksFromDuration(DefaultStaleness),
		Acceleration:   true,
		logger:         slog.New(slog.DiscardHandler),
	}
}

// WithPresentationLead sets the presentation lag. Queries at time t are answered for
// t - lead, so that interpolation has a newer sample to blend towards.
func WithPresentationLead(lead time.Duration) Option {
	return options.New(func(c *Config) error {
		if lead < 0 {
			return fmt.Errorf("%w: %s", errs.ErrInvalidPresentationLag, lead)
		}
		c.LeadTicks = snapshot.TicksFromDuration(lead)

		return nil
	})
}

// WithStaleness sets the staleness threshold.
func WithStaleness(d time.Duration) Option {
	return WithStalenessTicks(snapshot.TicksFromDuration(d))
}

// WithStalenessTicks sets the staleness threshold in ticks.
func WithStalenessTicks(ticks int64) Option {
	return options.New(func(c *Config) error {
		if ticks <= 0 {
			return fmt.Errorf("%w: %d ticks", errs.ErrInvalidStaleness, ticks)
		}
		c.StalenessTicks = ticks

		return nil
	})
}

// WithMaxExtrapolation bounds forward projection past the newest snapshot. Queries
// further ahead are answered with the value projected at the bound. Zero disables
// the bound.
func WithMaxExtrapolation(d time.Duration) Option {
	return options.NoError(func(c *Config) {
		c.MaxExtrapolationTicks = max(0, snapshot.TicksFromDuration(d))
	})
}

// WithAcceleration enables or disables the acceleration term of scalar and vector
// extrapolation.
func WithAcceleration(enabled bool) Option {
	return options.NoError(func(c *Config) {
		c.Acceleration = enabled
	})
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(logger *slog.Logger) Option {
	return options.NoError(func(c *Config) {
		if logger == nil {
			logger = slog.New(slog.DiscardHandler)
		}
		c.logger = logger
	})
}
