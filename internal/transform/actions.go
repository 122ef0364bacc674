package transform

import (
	"errors"
	"fmt"

	"actionkit/internal/actions"
	"actionkit/internal/identity"
	"actionkit/internal/syntax"
	"actionkit/internal/target"
)

var ErrEmptyFilePath = errors.New("transform: empty file path")

// Context is what the pipeline lends an effect for a single call.
type Context struct {
	FilePath string
	Comments *syntax.Comments
}

// Error reports an engine failure for one (file, target) pair. Unwrap
// yields the engine's error unchanged.
type Error struct {
	Key    identity.Key
	Path   string
	Target target.Target
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("server actions transform failed for %s (%s) [%s]: %v", e.Path, e.Target, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ActionsTransform applies the server actions rewrite for one target.
type ActionsTransform struct {
	target target.Target
	engine Engine
}

func NewActionsTransform(t target.Target, engine Engine) *ActionsTransform {
	if engine == nil {
		engine = InProcess()
	}
	return &ActionsTransform{target: t, engine: engine}
}

func (a *ActionsTransform) Name() string { return "server-actions:" + a.target.String() }

func (a *ActionsTransform) Target() target.Target { return a.target }

// Config is the record handed to the engine for this transform's target.
func (a *ActionsTransform) Config() actions.Config {
	return actions.Config{IsServerLayer: a.target == target.Server, Enabled: true}
}

// Apply rewrites tree in place. The same file compiled for client and
// server gets two identity keys, so its actions get two distinct IDs.
func (a *ActionsTransform) Apply(tree *syntax.Program, ctx *Context) error {
	if ctx == nil || ctx.FilePath == "" {
		return ErrEmptyFilePath
	}
	key, err := identity.Derive(ctx.FilePath, a.target)
	if err != nil {
		return err
	}
	v, err := a.engine.New(key, a.Config(), ctx.Comments)
	if err != nil {
		return &Error{Key: key, Path: ctx.FilePath, Target: a.target, Err: err}
	}
	if err := v.VisitProgram(tree); err != nil {
		return &Error{Key: key, Path: ctx.FilePath, Target: a.target, Err: err}
	}
	return nil
}
