package plan

import (
	"context"
	"log/slog"

	"github.com/bisegni/ixscan/pkg/keys"
	"github.com/bisegni/ixscan/pkg/logging"
	"github.com/bisegni/ixscan/pkg/metrics"
	"github.com/bisegni/ixscan/pkg/storage"
)

// QueryContext is the execution-scoped handle cursors run under: the store
// they read, the context passed to every range read, and the shared codec,
// logger and metrics.
type QueryContext struct {
	ctx     context.Context
	store   storage.Store
	codec   *keys.Codec
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option customizes a QueryContext.
type Option func(*QueryContext)

func WithLogger(l *slog.Logger) Option {
	return func(qc *QueryContext) { qc.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(qc *QueryContext) { qc.metrics = m }
}

func WithCodec(c *keys.Codec) Option {
	return func(qc *QueryContext) { qc.codec = c }
}

func NewQueryContext(ctx context.Context, store storage.Store, opts ...Option) *QueryContext {
	qc := &QueryContext{ctx: ctx, store: store}
	for _, o := range opts {
		o(qc)
	}
	if qc.codec == nil {
		qc.codec = keys.NewCodec()
	}
	if qc.logger == nil {
		qc.logger = logging.Discard()
	}
	return qc
}

func (qc *QueryContext) Context() context.Context {
	return qc.ctx
}

func (qc *QueryContext) Store() storage.Store {
	return qc.store
}

func (qc *QueryContext) Codec() *keys.Codec {
	return qc.codec
}

func (qc *QueryContext) Logger() *slog.Logger {
	return qc.logger
}
