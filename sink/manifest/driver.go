// Package manifest collects every extracted action of a build into one
// msgpack file keyed by target and action ID.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"actionkit/internal/spec"
	"actionkit/sink"
)

const Version = 1

type Config struct {
	Path string `yaml:"path"`
}

type Entry struct {
	Path string `msgpack:"path"`
	Name string `msgpack:"name"`
	Key  string `msgpack:"key"`
}

type Manifest struct {
	Version int                         `msgpack:"version"`
	Targets map[string]map[string]Entry `msgpack:"targets"`
}

type driver struct {
	cfg Config

	mu     sync.Mutex
	m      Manifest
	closed bool
}

func (d *driver) Configure(raw any) error {
	var c Config
	if v, ok := raw.(Config); ok {
		c = v
	} else if err := spec.Decode(raw, &c); err != nil {
		return fmt.Errorf("manifest-sink: %w", err)
	}
	if c.Path == "" {
		c.Path = "actions-manifest.msgpack"
	}
	d.cfg = c
	d.m = Manifest{Version: Version, Targets: map[string]map[string]Entry{}}
	return nil
}

func (d *driver) Push(r sink.Record) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.m.Targets == nil {
		d.m.Targets = map[string]map[string]Entry{}
	}
	byID := d.m.Targets[r.Target]
	if byID == nil {
		byID = map[string]Entry{}
		d.m.Targets[r.Target] = byID
	}
	for _, a := range r.Actions {
		if prev, dup := byID[a.ID]; dup && prev.Path != r.Path {
			return fmt.Errorf("manifest-sink: action %s claimed by %s and %s", a.ID, prev.Path, r.Path)
		}
		byID[a.ID] = Entry{Path: r.Path, Name: a.Name, Key: r.Key}
	}
	return nil
}

func (d *driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	if dir := filepath.Dir(d.cfg.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(d.cfg.Path)
	if err != nil {
		return err
	}
	if err := msgpack.NewEncoder(f).Encode(&d.m); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Abort drops the collected entries and leaves any existing manifest file
// untouched. A later Close is a no-op.
func (d *driver) Abort() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.m.Targets = nil
	return nil
}

func Read(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var m Manifest
	if err := msgpack.NewDecoder(f).Decode(&m); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return &m, nil
}

func init() { sink.Register("manifest", func() sink.Adapter { return &driver{} }) }
