package sink

import (
	"fmt"
	"sort"
)

type Action struct {
	ID   string `json:"id" msgpack:"id"`
	Name string `json:"name" msgpack:"name"`
}

// Record is the outcome of transforming one file for one target.
type Record struct {
	Path    string
	Target  string
	Key     string
	Actions []Action
	Output  []byte
}

// Adapter is the common behaviour every sink exposes.
type Adapter interface {
	Configure(any) error // driver-specific block from sink_configs
	Push(Record) error
	Close() error // flushes; idempotent
}

// Aborter is implemented by sinks whose Close publishes the build's result.
// Abort releases resources without publishing.
type Aborter interface {
	Abort() error
}

/*──────── registry ───────*/

type factory = func() Adapter

var reg = map[string]factory{}

func Register(name string, f factory) { reg[name] = f }

func NewAdapter(name string) (Adapter, error) {
	if f, ok := reg[name]; ok {
		return f(), nil
	}
	return nil, fmt.Errorf("unknown sink %q", name)
}

func Names() []string {
	out := make([]string, 0, len(reg))
	for n := range reg {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
