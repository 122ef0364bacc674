package spec

import (
	"gopkg.in/yaml.v3"
)

// SinkConfigs holds the raw per-sink blocks; each sink decodes its own.
type SinkConfigs struct {
	Stdout   any `yaml:"stdout"`
	Manifest any `yaml:"manifest"`
	Kafka    any `yaml:"kafka"`
}

type EngineSpec struct {
	Kind      string `yaml:"kind"`    // "inproc" or "grpc"
	Address   string `yaml:"address"` // e.g. "localhost:7071"
	TimeoutMS int    `yaml:"timeout_ms"`
}

type LogSpec struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type MetricsSpec struct {
	Port int `yaml:"port"` // 0 disables the endpoint
}

// File is the build configuration.
type File struct {
	SchemaVersion string `yaml:"schema_version"`

	Root    string   `yaml:"root"`
	Include []string `yaml:"include"` // directories under root; empty means all
	Exclude []string `yaml:"exclude"`
	OutDir  string   `yaml:"out_dir"` // rewritten files go to out_dir/<target>/; empty skips writing

	Targets       []string `yaml:"targets"`
	Jobs          int      `yaml:"jobs"`
	FailurePolicy string   `yaml:"failure_policy"` // fail_fast | keep_going

	Engine      EngineSpec  `yaml:"engine"`
	Sinks       []string    `yaml:"sinks"`
	SinkConfigs SinkConfigs `yaml:"sink_configs"`

	Log     LogSpec     `yaml:"log"`
	Metrics MetricsSpec `yaml:"metrics"`
}

// Decode converts a raw sink block into the sink's typed config. A nil
// block leaves out untouched.
func Decode(raw any, out any) error {
	if raw == nil {
		return nil
	}
	b, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, out)
}
