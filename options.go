package sog

import (
	"log/slog"
	"time"

	"github.com/hupe1980/sog/codec"
	"github.com/hupe1980/sog/internal/encode"
	"github.com/hupe1980/sog/internal/kmeans"
	"github.com/hupe1980/sog/nearest"
	"github.com/hupe1980/sog/plane"
	"github.com/hupe1980/sog/resource"
)

// DefaultGenerator is written to meta.json asset.generator unless
// overridden with WithGenerator.
const DefaultGenerator = "sog-go"

// ProgressFunc observes an export. It is called with step 0 and total 0
// when a stage starts, and after every Lloyd step of the clustering stages.
type ProgressFunc func(stage Stage, step, total int)

type options struct {
	iterations       int
	maxSHBands       int
	generator        string
	codec            codec.Codec
	metricsCollector MetricsCollector
	logger           *Logger
	encoder          plane.Encoder
	searcher         nearest.Searcher
	controller       *resource.Controller
	seed             *int64
	progress         ProgressFunc
	modified         time.Time
	nearestOptions   []nearest.Option
}

// Option configures an Exporter.
type Option func(*options)

// WithIterations sets the number of Lloyd steps of every clustering call.
// Values below 1 run a single step.
func WithIterations(n int) Option {
	return func(o *options) {
		o.iterations = n
	}
}

// WithMaxSHBands caps the exported spherical-harmonic bands (0..3).
// Sources with more bands are truncated; 0 disables SH output.
func WithMaxSHBands(bands int) Option {
	return func(o *options) {
		o.maxSHBands = max(0, min(bands, encode.MaxSHBands))
	}
}

// WithGenerator sets meta.json asset.generator.
func WithGenerator(generator string) Option {
	return func(o *options) {
		o.generator = generator
	}
}

// WithCodec configures the codec used to encode meta.json.
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

// WithMetricsCollector configures a metrics collector for monitoring exports.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &sog.BasicMetricsCollector{}
//	exp := sog.New(sog.WithMetricsCollector(metrics))
//	// ... export ...
//	stats := metrics.GetStats()
//	fmt.Printf("Exports: %d, Avg latency: %dns\n", stats.ExportCount, stats.ExportAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for exports.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := sog.NewJSONLogger(slog.LevelInfo)
//	exp := sog.New(sog.WithLogger(logger))
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

// WithEncoder replaces the plane encoder. The default is plane.WebP.
//
// If nil is passed, plane.WebP is used.
func WithEncoder(enc plane.Encoder) Option {
	return func(o *options) {
		if enc == nil {
			enc = plane.WebP{}
		}
		o.encoder = enc
	}
}

// WithSearcher replaces the nearest-centroid search used by clustering.
// WithWorkers, WithBatchSize and WithHalfPrecision are ignored when a
// searcher is set. Passing nil restores the default CPU searcher.
func WithSearcher(s nearest.Searcher) Option {
	return func(o *options) {
		o.searcher = s
	}
}

// WithController shares a resource controller between exporters so that
// their clustering jobs are serialized against one compute slot.
func WithController(c *resource.Controller) Option {
	return func(o *options) {
		o.controller = c
	}
}

// WithSeed makes seeding and empty-cluster reseeding reproducible.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = &seed
	}
}

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(o *options) {
		o.progress = fn
	}
}

// WithModTime sets the modification time stored in archive entries.
// Together with WithSeed it makes archives byte-for-byte reproducible.
func WithModTime(t time.Time) Option {
	return func(o *options) {
		o.modified = t
	}
}

// WithWorkers sets the number of goroutines of the default searcher.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.nearestOptions = append(o.nearestOptions, nearest.WithWorkers(n))
	}
}

// WithBatchSize sets the number of rows per batch of the default searcher.
func WithBatchSize(n int) Option {
	return func(o *options) {
		o.nearestOptions = append(o.nearestOptions, nearest.WithBatchSize(n))
	}
}

// WithHalfPrecision rounds search scratch buffers to binary16.
func WithHalfPrecision(enabled bool) Option {
	return func(o *options) {
		o.nearestOptions = append(o.nearestOptions, nearest.WithHalfPrecision(enabled))
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		iterations:       kmeans.DefaultIterations,
		maxSHBands:       encode.MaxSHBands,
		generator:        DefaultGenerator,
		codec:            codec.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		encoder:          plane.WebP{},
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.searcher == nil {
		o.searcher = nearest.NewCPU(o.nearestOptions...)
	}
	if o.controller == nil {
		o.controller = resource.NewController(resource.Config{})
	}
	return o
}
