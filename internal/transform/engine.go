package transform

import (
	"context"
	"fmt"
	"time"

	"actionkit/internal/actions"
	"actionkit/internal/identity"
	"actionkit/internal/syntax"
	"actionkit/internal/transport"
)

// Visitor mutates one program in place. It is used once.
type Visitor interface {
	VisitProgram(*syntax.Program) error
}

// Engine builds visitors. The key replaces the file name when the engine
// derives action IDs.
type Engine interface {
	New(key identity.Key, cfg actions.Config, comments *syntax.Comments) (Visitor, error)
}

type inProcess struct{}

// InProcess runs the actions rewrite inside the pipeline process.
func InProcess() Engine { return inProcess{} }

func (inProcess) New(key identity.Key, cfg actions.Config, comments *syntax.Comments) (Visitor, error) {
	return actions.New(key, cfg, comments), nil
}

// GRPCEngine ships the printed program to an engine plugin and swaps the
// rewritten result back into the caller's tree.
type GRPCEngine struct {
	cli     *transport.Client
	timeout time.Duration
}

func NewGRPCEngine(ctx context.Context, address string, timeout time.Duration) (*GRPCEngine, error) {
	cli, err := transport.Dial(address)
	if err != nil {
		return nil, fmt.Errorf("engine %s: %w", address, err)
	}
	if err := cli.Health(ctx); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("engine %s: health: %w", address, err)
	}
	return &GRPCEngine{cli: cli, timeout: timeout}, nil
}

// NewGRPCEngineFromClient wraps an already connected client.
func NewGRPCEngineFromClient(cli *transport.Client, timeout time.Duration) *GRPCEngine {
	return &GRPCEngine{cli: cli, timeout: timeout}
}

func (e *GRPCEngine) New(key identity.Key, cfg actions.Config, comments *syntax.Comments) (Visitor, error) {
	return &remoteVisitor{engine: e, key: key, cfg: cfg, comments: comments}, nil
}

func (e *GRPCEngine) Close() error { return e.cli.Close() }

type remoteVisitor struct {
	engine   *GRPCEngine
	key      identity.Key
	cfg      actions.Config
	comments *syntax.Comments
	used     bool
}

func (v *remoteVisitor) VisitProgram(p *syntax.Program) error {
	if v.used {
		return actions.ErrVisitorReused
	}
	v.used = true

	ctx := context.Background()
	if v.engine.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.engine.timeout)
		defer cancel()
	}
	// The key carries the invoker's path; the tree's own Path may be unset.
	path, _, err := identity.Split(v.key)
	if err != nil {
		return err
	}
	out, err := v.engine.cli.Rewrite(ctx, transport.RewriteRequest{
		Key:           v.key,
		Path:          path,
		Source:        syntax.Print(p, v.comments),
		IsServerLayer: v.cfg.IsServerLayer,
		Enabled:       v.cfg.Enabled,
	})
	if err != nil {
		return err
	}
	next, comments, err := syntax.Parse(ctx, path, out)
	if err != nil {
		return fmt.Errorf("engine returned unparsable output: %w", err)
	}
	next.Path = p.Path
	*p = *next
	if v.comments != nil {
		v.comments.Reset(comments)
	}
	return nil
}
