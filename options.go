package hxtag

import (
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/pthm/hxtag/lib/telemetry"
)

// DefaultMaxDepth bounds component nesting during resolution.
const DefaultMaxDepth = 32

// DefaultFragmentPrefix is where the fragment endpoint is mounted.
const DefaultFragmentPrefix = "/_c/"

// Option configures a Registry, Resolver or Router. Each constructor reads
// the options it needs and ignores the rest, so one option list can be
// shared between them.
type Option func(*options)

type options struct {
	logger         *slog.Logger
	metrics        *telemetry.Metrics
	tracer         trace.Tracer
	maxDepth       int
	concurrency    int
	dev            bool
	fragmentKey    []byte
	fragmentPrefix string
}

func newOptions(opts []Option) options {
	o := options{
		maxDepth:       DefaultMaxDepth,
		fragmentPrefix: DefaultFragmentPrefix,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.maxDepth <= 0 {
		o.maxDepth = DefaultMaxDepth
	}
	o.tracer = telemetry.Tracer(o.tracer)
	return o
}

// WithLogger sets the logger for warnings and request failures.
// Without it nothing is logged.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records Prometheus metrics. See telemetry.NewMetrics.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithTracer overrides the tracer from the global otel provider.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithMaxDepth sets how deeply components may nest. Defaults to 32.
func WithMaxDepth(n int) Option {
	return func(o *options) { o.maxDepth = n }
}

// WithConcurrency limits how many sibling components render at once.
// Zero or less means no limit.
func WithConcurrency(n int) Option {
	return func(o *options) { o.concurrency = n }
}

// WithDev enables development error pages that show resolution failures
// (tag, offending attributes, suggestions). Never enable in production.
func WithDev(dev bool) Option {
	return func(o *options) { o.dev = dev }
}

// WithFragments enables the fragment endpoint, signing or encrypting
// component attributes with key. prefix defaults to "/_c/".
func WithFragments(key []byte, prefix string) Option {
	return func(o *options) {
		o.fragmentKey = key
		if prefix != "" {
			o.fragmentPrefix = prefix
		}
	}
}
