package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"actionkit/internal/target"
)

func write(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_YAMLResolvesRootAndDefaults(t *testing.T) {
	dir := t.TempDir()
	p := write(t, dir, "actionkit.yml", `schema_version: v1
root: src
targets: [server]
sinks: [stdout, manifest]
sink_configs:
  manifest:
    path: out/manifest.msgpack
`)
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "src"), cfg.Root)
	assert.Equal(t, []string{"server"}, cfg.Targets)
	assert.Equal(t, runtime.GOMAXPROCS(0), cfg.Jobs)
	assert.Equal(t, EngineInProcess, cfg.Engine.Kind)
	assert.Equal(t, FailFast, cfg.FailurePolicy)
	assert.Equal(t, []string{"stdout", "manifest"}, cfg.Sinks)
	assert.NotNil(t, cfg.SinkConfigs.Manifest)
}

func TestLoad_TOML(t *testing.T) {
	dir := t.TempDir()
	p := write(t, dir, "actionkit.toml", `schema_version = "v1"
root = "/abs/src"
jobs = 3
failure_policy = "keep_going"

[engine]
kind = "grpc"
address = "localhost:7071"
`)
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "/abs/src", cfg.Root)
	assert.Equal(t, 3, cfg.Jobs)
	assert.Equal(t, KeepGoing, cfg.FailurePolicy)
	assert.Equal(t, EngineGRPC, cfg.Engine.Kind)
	assert.Equal(t, "localhost:7071", cfg.Engine.Address)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	p := write(t, dir, "actionkit.yml", "schema_version: v1\njobs: 2\n")
	t.Setenv("ACTIONKIT__JOBS", "7")
	t.Setenv("ACTIONKIT__ENGINE__TIMEOUT_MS", "250")

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Jobs)
	assert.Equal(t, 250, cfg.Engine.TimeoutMS)
}

func TestLoad_MissingFileMeansDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	ts, err := Targets(cfg)
	require.NoError(t, err)
	assert.Equal(t, []target.Target{target.Client, target.Server}, ts)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"schema.yml": "schema_version: v9\n",
		"target.yml": "targets: [edge]\n",
		"engine.yml": "engine: { kind: grpc }\n",
		"kind.yml":   "engine: { kind: wasm }\n",
		"policy.yml": "failure_policy: sometimes\n",
	}
	for name, body := range cases {
		_, err := Load(write(t, dir, name, body))
		assert.Error(t, err, name)
	}
}

func TestTargets_Dedup(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Targets = []string{"server", "Server", "client"}
	ts, err := Targets(cfg)
	require.NoError(t, err)
	assert.Equal(t, []target.Target{target.Server, target.Client}, ts)
}
