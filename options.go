package relevec

import (
	"log/slog"

	"github.com/hupe1980/relevec/codec"
)

type options struct {
	codec            codec.Codec
	metricsCollector MetricsCollector
	logger           *Logger
	host             HostNamespace
}

func defaultOptions() options {
	return options{
		codec:            codec.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
}

// Option configures a Registry or Serializer.
//
// Options that do not apply to the value being built are ignored.
type Option func(*options)

// WithCodec configures the codec used by the Serializer's byte-level methods.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := relevec.NewJSONLogger(slog.LevelDebug)
//	reg := relevec.NewRegistry(relevec.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithHostNamespace makes the registry reject names that the surrounding
// program already uses for something else.
func WithHostNamespace(host HostNamespace) Option {
	return func(o *options) {
		o.host = host
	}
}

// ShapeOption selects the schema variant built by Registry.GetOrCreate.
// Without options the schema is unconstrained.
type ShapeOption func(*shape)

type shape struct {
	record SchemaRecord
	err    error
}

func (s *shape) set(apply func(*SchemaRecord)) {
	if s.record.DimCount != nil || s.record.DimNames != nil {
		s.err = ErrAmbiguousShape
		return
	}
	apply(&s.record)
}

// DimCount bounds the schema to indices in [0, n).
func DimCount(n int) ShapeOption {
	return func(s *shape) {
		s.set(func(r *SchemaRecord) { r.DimCount = &n })
	}
}

// DimNames declares ordered dimension names; index i is names[i].
func DimNames(names ...string) ShapeOption {
	return func(s *shape) {
		s.set(func(r *SchemaRecord) {
			if names == nil {
				names = []string{}
			}
			r.DimNames = names
		})
	}
}
