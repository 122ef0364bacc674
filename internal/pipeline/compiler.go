package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"actionkit/internal/config"
	"actionkit/internal/rule"
	"actionkit/internal/spec"
	"actionkit/internal/transform"
	"actionkit/sink"
	"actionkit/sink/kafka"
	"actionkit/sink/manifest"
	"actionkit/sink/stdout"
)

// Compile loads the build config at path, applies overrides in order, and
// wires a runner from the result.
func Compile(ctx context.Context, path string, overrides ...func(*spec.File)) (*Runner, spec.File, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, cfg, err
	}
	for _, o := range overrides {
		o(&cfg)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, cfg, err
	}
	r := NewRunner()
	if err := Configure(ctx, cfg, r); err != nil {
		_ = r.Abort()
		return nil, cfg, err
	}
	return r, cfg, nil
}

// Configure registers one server actions rule per configured target, the
// engine behind them, and the sinks.
func Configure(ctx context.Context, cfg spec.File, r *Runner) error {
	targets, err := config.Targets(cfg)
	if err != nil {
		return err
	}

	var engine transform.Engine
	switch cfg.Engine.Kind {
	case config.EngineInProcess:
		engine = transform.InProcess()
	case config.EngineGRPC:
		to := time.Duration(cfg.Engine.TimeoutMS) * time.Millisecond
		remote, err := transform.NewGRPCEngine(ctx, cfg.Engine.Address, to)
		if err != nil {
			return err
		}
		r.AddCloser(remote)
		engine = remote
	default:
		return fmt.Errorf("unsupported engine kind %q", cfg.Engine.Kind)
	}
	for _, t := range targets {
		r.AddRule(t, rule.BuildRule(t, engine))
	}

	if len(cfg.Include) > 0 {
		dirs := make([]string, len(cfg.Include))
		for i, d := range cfg.Include {
			if !filepath.IsAbs(d) {
				d = filepath.Join(cfg.Root, d)
			}
			dirs[i] = d
		}
		r.SetFilter(rule.PathPrefix(dirs...))
	}
	r.SetJobs(cfg.Jobs)
	if cfg.FailurePolicy == config.KeepGoing {
		r.SetPolicy(KeepGoing)
	}
	if cfg.OutDir != "" {
		out := cfg.OutDir
		if !filepath.IsAbs(out) {
			out = filepath.Join(cfg.Root, out)
		}
		r.SetOutput(cfg.Root, out)
	}

	for _, name := range cfg.Sinks {
		sDrv, err := sink.NewAdapter(name)
		if err != nil {
			return err
		}
		switch name {
		case "stdout":
			err = sDrv.Configure(orDefault(cfg.SinkConfigs.Stdout, stdout.Config{}))
		case "manifest":
			err = sDrv.Configure(orDefault(cfg.SinkConfigs.Manifest, manifest.Config{}))
		case "kafka":
			err = sDrv.Configure(orDefault(cfg.SinkConfigs.Kafka, kafka.Config{}))
		default:
			err = fmt.Errorf("no config block for sink %q", name)
		}
		if err != nil {
			return fmt.Errorf("sink %s: %w", name, err)
		}
		r.AddSink(sDrv)
	}
	return nil
}

func orDefault(raw, def any) any {
	if raw == nil {
		return def
	}
	return raw
}
