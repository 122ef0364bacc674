// Package config loads the build configuration: a YAML or TOML file merged
// with ACTIONKIT__ environment overrides (nesting delimiter "__").
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"actionkit/internal/spec"
	"actionkit/internal/target"
)

const (
	SupportedSchema = "v1"
	EnvPrefix       = "ACTIONKIT__"

	EngineInProcess = "inproc"
	EngineGRPC      = "grpc"

	FailFast  = "fail_fast"
	KeepGoing = "keep_going"
)

// Load reads path (optional; a missing file means defaults) and applies
// env overrides. A relative root resolves against the file's directory.
func Load(path string) (spec.File, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), parserFor(path)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return spec.File{}, fmt.Errorf("config %s: %w", path, err)
		}
	}
	if sv := k.String("schema_version"); sv != "" && sv != SupportedSchema {
		return spec.File{}, fmt.Errorf("config schema_version %q not supported (want %q)", sv, SupportedSchema)
	}

	_ = k.Load(env.Provider(EnvPrefix, "__", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)

	var cfg spec.File
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	applyDefaults(&cfg)
	if path != "" && !filepath.IsAbs(cfg.Root) {
		cfg.Root = filepath.Join(filepath.Dir(path), cfg.Root)
	}
	return cfg, Validate(cfg)
}

func parserFor(path string) koanf.Parser {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return TOML()
	}
	return yaml.Parser()
}

func applyDefaults(c *spec.File) {
	if c.SchemaVersion == "" {
		c.SchemaVersion = SupportedSchema
	}
	if c.Root == "" {
		c.Root = "."
	}
	if len(c.Targets) == 0 {
		c.Targets = []string{"client", "server"}
	}
	if c.Jobs <= 0 {
		c.Jobs = runtime.GOMAXPROCS(0)
	}
	if c.FailurePolicy == "" {
		c.FailurePolicy = FailFast
	}
	if c.Engine.Kind == "" {
		c.Engine.Kind = EngineInProcess
	}
	if c.Engine.TimeoutMS == 0 {
		c.Engine.TimeoutMS = 5000
	}
	if len(c.Sinks) == 0 {
		c.Sinks = []string{"stdout"}
	}
}

// Targets parses the configured target names, dropping duplicates.
func Targets(c spec.File) ([]target.Target, error) {
	seen := map[target.Target]bool{}
	var out []target.Target
	for _, s := range c.Targets {
		t, err := target.Parse(s)
		if err != nil {
			return nil, err
		}
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out, nil
}

func Validate(c spec.File) error {
	if _, err := Targets(c); err != nil {
		return fmt.Errorf("config targets: %w", err)
	}
	switch c.Engine.Kind {
	case EngineInProcess:
	case EngineGRPC:
		if c.Engine.Address == "" {
			return fmt.Errorf("config engine: kind %q needs an address", EngineGRPC)
		}
	default:
		return fmt.Errorf("config engine: unsupported kind %q", c.Engine.Kind)
	}
	if c.FailurePolicy != FailFast && c.FailurePolicy != KeepGoing {
		return fmt.Errorf("config failure_policy: unsupported %q", c.FailurePolicy)
	}
	return nil
}
