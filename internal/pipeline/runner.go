package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"actionkit/internal/actions"
	"actionkit/internal/identity"
	"actionkit/internal/logging"
	"actionkit/internal/rule"
	"actionkit/internal/syntax"
	"actionkit/internal/target"
	"actionkit/internal/telemetry"
	"actionkit/internal/transform"
	"actionkit/sink"
)

type Policy uint8

const (
	// FailFast cancels the build on the first failing file.
	FailFast Policy = iota
	// KeepGoing records failures and finishes every other file.
	KeepGoing
)

type Status string

const (
	StatusTransformed Status = "transformed"
	StatusSkipped     Status = "skipped"
	StatusFailed      Status = "failed"
)

// Event reports the outcome of one file for one target.
type Event struct {
	File    string
	Target  target.Target
	Status  Status
	Err     error
	Actions int
	Elapsed time.Duration
}

// Report is what a build produced for one target.
type Report struct {
	Target   target.Target
	Records  []sink.Record
	Skipped  int
	Failures []error
}

type Runner struct {
	rules   map[target.Target][]rule.ModuleRule
	filter  rule.Selector
	sinks   []sink.Adapter
	closers []io.Closer
	jobs    int
	policy  Policy
	root    string
	outDir  string
	metrics *telemetry.Metrics
	read    func(string) ([]byte, error)

	mu   sync.Mutex
	subs []func(Event)

	sinkMu sync.Mutex
}

func NewRunner() *Runner {
	return &Runner{rules: map[target.Target][]rule.ModuleRule{}, jobs: 1, read: os.ReadFile}
}

// AddRule registers r for builds of t. Rules apply in registration order.
func (r *Runner) AddRule(t target.Target, mr rule.ModuleRule) { r.rules[t] = append(r.rules[t], mr) }

func (r *Runner) AddSink(s sink.Adapter)                   { r.sinks = append(r.sinks, s) }
func (r *Runner) AddCloser(c io.Closer)                    { r.closers = append(r.closers, c) }
func (r *Runner) SetFilter(s rule.Selector)                { r.filter = s }
func (r *Runner) SetPolicy(p Policy)                       { r.policy = p }
func (r *Runner) SetMetrics(m *telemetry.Metrics)          { r.metrics = m }
func (r *Runner) SetReader(f func(string) ([]byte, error)) { r.read = f }

// SetOutput writes rewritten files to dir/<target>/<path relative to root>.
func (r *Runner) SetOutput(root, dir string) { r.root, r.outDir = root, dir }

func (r *Runner) SetJobs(n int) {
	if n < 1 {
		n = 1
	}
	r.jobs = n
}

// Targets lists targets that have at least one rule, in target order.
func (r *Runner) Targets() []target.Target {
	var out []target.Target
	for _, t := range target.All() {
		if len(r.rules[t]) > 0 {
			out = append(out, t)
		}
	}
	return out
}

func (r *Runner) Subscribe(fn func(Event)) {
	r.mu.Lock()
	r.subs = append(r.subs, fn)
	r.mu.Unlock()
}

func (r *Runner) emit(ev Event) {
	r.mu.Lock()
	handlers := append([]func(Event){}, r.subs...)
	r.mu.Unlock()
	for _, fn := range handlers {
		fn(ev)
	}
	r.metrics.ObserveFile(ev.Target.String(), string(ev.Status), ev.Actions, ev.Elapsed)
}

// Build runs every target with rules concurrently and returns one report
// per target, in target order.
func (r *Runner) Build(ctx context.Context, files []string) ([]*Report, error) {
	targets := r.Targets()
	reports := make([]*Report, len(targets))
	failures := make([]error, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range targets {
		g.Go(func() error {
			rep, err := r.Run(gctx, t, files)
			reports[i] = rep
			if err != nil && r.policy == KeepGoing {
				failures[i] = err
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return reports, err
	}
	return reports, errors.Join(failures...)
}

type result struct {
	record  sink.Record
	matched bool
	err     error
}

// Run transforms files for t and pushes the records to every sink in file
// order. Under FailFast nothing is pushed once a file fails.
func (r *Runner) Run(ctx context.Context, t target.Target, files []string) (*Report, error) {
	results := make([]result, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(r.jobs, max(len(files), 1)))
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			rec, matched, err := r.processFile(gctx, t, path)
			results[i] = result{record: rec, matched: matched, err: err}

			ev := Event{File: path, Target: t, Status: StatusTransformed, Err: err, Elapsed: time.Since(start)}
			switch {
			case err != nil:
				ev.Status = StatusFailed
				logging.File(path, t.String()).Error("transform failed", "err", err)
			case !matched:
				ev.Status = StatusSkipped
			default:
				ev.Actions = len(rec.Actions)
				logging.File(path, t.String()).Debug("transformed", "key", rec.Key, "actions", ev.Actions)
			}
			r.emit(ev)

			if err != nil && r.policy == FailFast {
				return err
			}
			return nil
		})
	}
	rep := &Report{Target: t}
	if err := g.Wait(); err != nil {
		return rep, err
	}

	for _, res := range results {
		switch {
		case res.err != nil:
			rep.Failures = append(rep.Failures, res.err)
		case !res.matched:
			rep.Skipped++
		default:
			rep.Records = append(rep.Records, res.record)
		}
	}
	if err := r.push(rep.Records); err != nil {
		return rep, err
	}
	return rep, errors.Join(rep.Failures...)
}

func (r *Runner) push(records []sink.Record) error {
	r.sinkMu.Lock()
	defer r.sinkMu.Unlock()
	for _, rec := range records {
		for _, s := range r.sinks {
			if err := s.Push(rec); err != nil {
				return fmt.Errorf("sink: %w", err)
			}
		}
	}
	return nil
}

func (r *Runner) effectsFor(t target.Target, m rule.Module) []rule.Effect {
	if r.filter != nil && !r.filter(m) {
		return nil
	}
	var out []rule.Effect
	for _, mr := range r.rules[t] {
		if mr.Matches(m) {
			out = append(out, mr.Effects()...)
		}
	}
	return out
}

func (r *Runner) processFile(ctx context.Context, t target.Target, path string) (sink.Record, bool, error) {
	effects := r.effectsFor(t, rule.Module{Path: path})
	if len(effects) == 0 {
		return sink.Record{}, false, nil
	}
	src, err := r.read(path)
	if err != nil {
		return sink.Record{}, true, err
	}
	prog, comments, err := syntax.Parse(ctx, path, src)
	if err != nil {
		return sink.Record{}, true, err
	}

	tctx := &transform.Context{FilePath: path, Comments: comments}
	for _, e := range effects {
		if err := e.Apply(prog, tctx); err != nil {
			return sink.Record{}, true, err
		}
	}

	entries, _, err := actions.Entries(comments)
	if err != nil {
		return sink.Record{}, true, err
	}
	key, err := identity.Derive(path, t)
	if err != nil {
		return sink.Record{}, true, err
	}
	rec := sink.Record{Path: path, Target: t.String(), Key: key.String(), Output: syntax.Print(prog, comments)}
	for id, name := range entries {
		rec.Actions = append(rec.Actions, sink.Action{ID: id, Name: name})
	}
	sort.Slice(rec.Actions, func(i, j int) bool {
		if rec.Actions[i].Name != rec.Actions[j].Name {
			return rec.Actions[i].Name < rec.Actions[j].Name
		}
		return rec.Actions[i].ID < rec.Actions[j].ID
	})

	if r.outDir != "" {
		if err := r.writeOutput(t, path, rec.Output); err != nil {
			return sink.Record{}, true, err
		}
	}
	return rec, true, nil
}

func (r *Runner) writeOutput(t target.Target, path string, out []byte) error {
	rel, err := filepath.Rel(r.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(path)
	}
	dst := filepath.Join(r.outDir, strings.ToLower(t.String()), rel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, out, 0o644)
}

// Abort releases sinks and engines after a failed build. Sinks that
// publish on Close are aborted instead, so earlier results stay in place.
func (r *Runner) Abort() error {
	var errs []error
	for _, s := range r.sinks {
		if a, ok := s.(sink.Aborter); ok {
			errs = append(errs, a.Abort())
			continue
		}
		errs = append(errs, s.Close())
	}
	for _, c := range r.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Close flushes sinks and releases engines. Errors are joined.
func (r *Runner) Close() error {
	var errs []error
	for _, s := range r.sinks {
		errs = append(errs, s.Close())
	}
	for _, c := range r.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
