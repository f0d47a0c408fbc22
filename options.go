package taskloop

import (
	"github.com/joeycumines/logiface"
	"github.com/prometheus/client_golang/prometheus"
)

// config holds resolved construction options for a Runtime.
type config struct {
	logger     *logiface.Logger[logiface.Event]
	registerer prometheus.Registerer
	poolSize   int
}

// Option configures a [Runtime].
type Option interface {
	apply(*config) error
}

// optionImpl implements Option.
type optionImpl struct {
	applyFunc func(*config) error
}

func (o *optionImpl) apply(cfg *config) error {
	return o.applyFunc(cfg)
}

// WithLogger sets the runtime's structured logger. A nil logger disables
// logging (the default).
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionImpl{func(cfg *config) error {
		cfg.logger = logger
		return nil
	}}
}

// WithMetrics registers the runtime's collectors with the given registerer.
// When unset, metric collection is disabled entirely.
func WithMetrics(reg prometheus.Registerer) Option {
	return &optionImpl{func(cfg *config) error {
		cfg.registerer = reg
		return nil
	}}
}

// WithPoolSize sets the CPU pool worker count used when the pool is built
// lazily. Zero (the default) selects the hardware thread count; negative
// values are rejected.
func WithPoolSize(n int) Option {
	return &optionImpl{func(cfg *config) error {
		if n < 0 {
			return NewError(KindInvalidArgument, "pool size must not be negative")
		}
		cfg.poolSize = n
		return nil
	}}
}

// resolveOptions applies Option instances over the defaults.
func resolveOptions(opts []Option) (*config, error) {
	cfg := &config{}
	for _, opt := range opts {
		if opt == nil {
			continue // Skip nil options gracefully
		}
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
