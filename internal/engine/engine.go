package engine

import (
	"context"
	"errors"
	"net/http"

	"actionkit/internal/pipeline"
	"actionkit/internal/spec"
)

// Engine is one configured build: a runner, the files it covers and the
// optional metrics endpoint.
type Engine struct {
	runner  *pipeline.Runner
	cfg     spec.File
	files   []string
	metrics *http.Server
}

func (e *Engine) Runner() *pipeline.Runner { return e.runner }
func (e *Engine) Files() []string          { return e.files }
func (e *Engine) Spec() spec.File          { return e.cfg }

// Run builds every target, then flushes sinks and stops the metrics
// endpoint. A failed build aborts the sinks instead of flushing them.
func (e *Engine) Run(ctx context.Context) ([]*pipeline.Report, error) {
	reports, err := e.runner.Build(ctx, e.files)
	var closeErr error
	if err != nil {
		closeErr = e.runner.Abort()
	} else {
		closeErr = e.runner.Close()
	}
	return reports, errors.Join(err, closeErr, e.stopMetrics())
}

// Abort releases the engine without building.
func (e *Engine) Abort() error {
	return errors.Join(e.runner.Abort(), e.stopMetrics())
}

func (e *Engine) stopMetrics() error {
	if e.metrics == nil {
		return nil
	}
	return e.metrics.Shutdown(context.Background())
}
