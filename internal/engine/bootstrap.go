package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"actionkit/internal/logging"
	"actionkit/internal/pipeline"
	"actionkit/internal/spec"
	"actionkit/internal/target"
	"actionkit/internal/telemetry"
	"actionkit/source/fs"
)

// Config holds command-line overrides on top of the build config file.
type Config struct {
	ConfigPath  string
	Paths       []string // files or directories; defaults to the configured root
	Targets     []target.Target
	Jobs        int
	OutDir      string
	MetricsPort int
	LogLevel    string // set from flags; wins over the config file
	LogJSON     bool
}

func Bootstrap(ctx context.Context, cfg Config) (*Engine, error) {
	// 1. pipeline runner from config + overrides
	runner, file, err := pipeline.Compile(ctx, cfg.ConfigPath, cfg.apply)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	if file.Log.Level != "" || file.Log.JSON {
		logging.Configure(logging.Options{Level: file.Log.Level, JSON: file.Log.JSON})
	}

	// 2. metrics
	m := telemetry.New()
	runner.SetMetrics(m)
	e := &Engine{runner: runner, cfg: file}
	if file.Metrics.Port > 0 {
		e.metrics = m.Expose(file.Metrics.Port)
	}

	// 3. inputs
	paths := cfg.Paths
	if len(paths) == 0 {
		paths = []string{file.Root}
	}
	e.files, err = fs.NewWalker(excludes(file)...).Files(paths...)
	if err != nil {
		_ = e.Abort()
		return nil, fmt.Errorf("source: %w", err)
	}
	logging.L().Info("build configured",
		"files", len(e.files), "targets", file.Targets, "engine", file.Engine.Kind, "jobs", file.Jobs)
	return e, nil
}

func (c Config) apply(f *spec.File) {
	if len(c.Targets) > 0 {
		f.Targets = nil
		for _, t := range c.Targets {
			f.Targets = append(f.Targets, strings.ToLower(t.String()))
		}
	}
	if c.Jobs > 0 {
		f.Jobs = c.Jobs
	}
	if c.OutDir != "" {
		f.OutDir = c.OutDir
	}
	if c.MetricsPort > 0 {
		f.Metrics.Port = c.MetricsPort
	}
	if c.LogLevel != "" {
		f.Log.Level = c.LogLevel
	}
	if c.LogJSON {
		f.Log.JSON = true
	}
}

// excludes resolves relative exclude paths against the build root. Entries
// without a separator stay base-name globs.
func excludes(f spec.File) []string {
	out := make([]string, 0, len(f.Exclude))
	for _, ex := range f.Exclude {
		if strings.ContainsRune(filepath.ToSlash(ex), '/') && !filepath.IsAbs(ex) {
			ex = filepath.Join(f.Root, ex)
		}
		out = append(out, ex)
	}
	return out
}
