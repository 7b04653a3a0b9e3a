package archive

import (
	"github.com/hupe1980/relevec"
	"github.com/hupe1980/relevec/codec"
	"github.com/hupe1980/relevec/internal/compress"
)

// Compression selects the block compression of snapshot blobs.
type Compression = compress.Type

const (
	// CompressionNone stores blobs uncompressed.
	CompressionNone = compress.None
	// CompressionLZ4 is fast with a moderate ratio.
	CompressionLZ4 = compress.LZ4
	// CompressionZSTD has a better ratio at a higher CPU cost.
	CompressionZSTD = compress.ZSTD
)

const (
	// DefaultChunkSize is the number of vectors per chunk blob.
	DefaultChunkSize = 1024
	// DefaultConcurrency is the number of blobs transferred in parallel.
	DefaultConcurrency = 4
)

type options struct {
	codec            codec.Codec
	compression      Compression
	logger           *relevec.Logger
	metricsCollector relevec.MetricsCollector
	chunkSize        int
	concurrency      int
	ioLimit          int64
}

func defaultOptions() options {
	return options{
		compression:      CompressionLZ4,
		logger:           relevec.NoopLogger(),
		metricsCollector: relevec.NoopMetricsCollector{},
		chunkSize:        DefaultChunkSize,
		concurrency:      DefaultConcurrency,
	}
}

// Option configures an Archive.
type Option func(*options)

// WithCodec sets the codec records are saved with.
// By default the serializer's codec is used. Load always uses the codec
// named in the manifest.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		o.codec = c
	}
}

// WithCompression sets the compression of saved blobs.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithLogger configures structured logging for saves and loads.
// Pass nil to disable logging.
func WithLogger(logger *relevec.Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = relevec.NoopLogger()
		}
		o.logger = logger
	}
}

// WithMetricsCollector configures a metrics collector for saves and loads.
// Pass nil to disable metrics collection.
func WithMetricsCollector(mc relevec.MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = relevec.NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithChunkSize sets the number of vectors stored per chunk blob.
func WithChunkSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

// WithConcurrency sets the number of blobs transferred in parallel.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithIOLimit throttles blob transfers to bytesPerSec. 0 means unlimited.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		if bytesPerSec >= 0 {
			o.ioLimit = bytesPerSec
		}
	}
}
