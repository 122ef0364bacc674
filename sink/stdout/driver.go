package stdout

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"actionkit/internal/spec"
	"actionkit/sink"
)

type Config struct {
	PrintOutput bool `yaml:"print_output"` // dump the rewritten source after each line
	NoColor     bool `yaml:"no_color"`
}

type driver struct {
	cfg    Config
	out    io.Writer
	target map[string]*color.Color
	dim    *color.Color
}

func (d *driver) Configure(raw any) error {
	var c Config
	switch v := raw.(type) {
	case Config:
		c = v
	default:
		if err := spec.Decode(raw, &c); err != nil {
			return fmt.Errorf("stdout-sink: %w", err)
		}
	}
	d.cfg = c
	d.target = map[string]*color.Color{
		"Client": color.New(color.FgCyan, color.Bold),
		"Server": color.New(color.FgMagenta, color.Bold),
	}
	d.dim = color.New(color.Faint)
	if c.NoColor {
		for _, col := range d.target {
			col.DisableColor()
		}
		d.dim.DisableColor()
	}
	return nil
}

func (d *driver) Push(r sink.Record) error {
	if d.out == nil {
		d.out = os.Stdout
	}
	label := "[" + r.Target + "]"
	if col, ok := d.target[r.Target]; ok {
		label = col.Sprint(label)
	}
	if _, err := fmt.Fprintf(d.out, "%s %s %s (%d actions)\n", label, r.Path, d.dim.Sprint("-> "+r.Key), len(r.Actions)); err != nil {
		return err
	}
	for _, a := range r.Actions {
		if _, err := fmt.Fprintf(d.out, "    %s %s\n", a.ID, a.Name); err != nil {
			return err
		}
	}
	if d.cfg.PrintOutput && len(r.Output) > 0 {
		if _, err := d.out.Write(r.Output); err != nil {
			return err
		}
	}
	return nil
}

func (d *driver) Close() error { return nil }

/* ────────── auto-register ────────── */
func init() {
	sink.Register("stdout", func() sink.Adapter { return &driver{dim: color.New(color.Faint)} })
}
