// Package rule pairs module selectors with the transform effects the
// pipeline runs on matching files.
package rule

import (
	"actionkit/internal/syntax"
	"actionkit/internal/target"
	"actionkit/internal/transform"
)

// Effect mutates a matched module's tree.
type Effect interface {
	Name() string
	Apply(tree *syntax.Program, ctx *transform.Context) error
}

// ModuleRule is immutable once built and shared by every file of a build.
type ModuleRule struct {
	name     string
	selector Selector
	effects  []Effect
}

func New(name string, selector Selector, effects ...Effect) ModuleRule {
	return ModuleRule{name: name, selector: selector, effects: append([]Effect(nil), effects...)}
}

func (r ModuleRule) Name() string { return r.name }

func (r ModuleRule) Matches(m Module) bool { return r.selector != nil && r.selector(m) }

// Effects returns the ordered effects; the slice is a copy.
func (r ModuleRule) Effects() []Effect { return append([]Effect(nil), r.effects...) }

// BuildRule returns the server actions rule for t: script modules that are
// not URL-addressed, rewritten by one actions transform bound to t.
func BuildRule(t target.Target, engine transform.Engine) ModuleRule {
	return New("server-actions:"+t.String(), MatchJSNoURL(), transform.NewActionsTransform(t, engine))
}

// BuildRules returns one rule per target, in order.
func BuildRules(engine transform.Engine, targets ...target.Target) []ModuleRule {
	out := make([]ModuleRule, 0, len(targets))
	for _, t := range targets {
		out = append(out, BuildRule(t, engine))
	}
	return out
}
