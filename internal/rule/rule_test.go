package rule

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"actionkit/internal/syntax"
	"actionkit/internal/target"
	"actionkit/internal/transform"
)

func TestMatchJSNoURL(t *testing.T) {
	sel := MatchJSNoURL()
	cases := []struct {
		m    Module
		want bool
	}{
		{Module{Path: "/src/actions.js"}, true},
		{Module{Path: "/src/page.TSX"}, true},
		{Module{Path: "/src/util.mjs"}, true},
		{Module{Path: "/src/style.css"}, false},
		{Module{Path: "/src/worker.js", URL: true}, false},
		{Module{Path: "/src/data", ContentType: "application/javascript; charset=utf-8"}, true},
		{Module{Path: "/src/fake.js", ContentType: "application/json"}, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, sel(c.m), "%+v", c.m)
	}
}

func TestCombinators(t *testing.T) {
	yes := func(Module) bool { return true }
	no := func(Module) bool { return false }
	assert.True(t, All()(Module{}))
	assert.False(t, All(yes, no)(Module{}))
	assert.True(t, Any(no, yes)(Module{}))
	assert.False(t, Any()(Module{}))
	assert.True(t, Not(no)(Module{}))

	under := PathPrefix("/src/app")
	assert.True(t, under(Module{Path: "/src/app/x.js"}))
	assert.False(t, under(Module{Path: "/src/application/x.js"}))
	assert.False(t, under(Module{Path: "/lib/x.js"}))
}

func TestBuildRule_ShapeAndTarget(t *testing.T) {
	for _, tg := range target.All() {
		r := BuildRule(tg, nil)
		assert.Equal(t, "server-actions:"+tg.String(), r.Name())
		assert.True(t, r.Matches(Module{Path: "/src/actions.js"}))
		assert.False(t, r.Matches(Module{Path: "/src/actions.js", URL: true}))

		effects := r.Effects()
		require.Len(t, effects, 1)
		at, ok := effects[0].(*transform.ActionsTransform)
		require.True(t, ok)
		assert.Equal(t, tg, at.Target())
		assert.Equal(t, tg == target.Server, at.Config().IsServerLayer)
	}
}

func TestBuildRule_IndependentButEquivalent(t *testing.T) {
	a, b := BuildRule(target.Server, nil), BuildRule(target.Server, nil)
	assert.NotSame(t, a.Effects()[0], b.Effects()[0])

	src := []byte("\"use server\";\nexport async function x() {}\n")
	render := func(r ModuleRule) string {
		p, c, err := syntax.Parse(t.Context(), "/src/a.js", src)
		require.NoError(t, err)
		for _, e := range r.Effects() {
			require.NoError(t, e.Apply(p, &transform.Context{FilePath: "/src/a.js", Comments: c}))
		}
		return string(syntax.Print(p, c))
	}
	assert.Equal(t, render(a), render(b))
}

func TestBuildRule_ConcurrentConstruction(t *testing.T) {
	var wg sync.WaitGroup
	rules := make([]ModuleRule, 16)
	for i := range rules {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rules[i] = BuildRule(target.All()[i%2], transform.InProcess())
		}(i)
	}
	wg.Wait()
	for i, r := range rules {
		assert.Equal(t, target.All()[i%2], r.Effects()[0].(*transform.ActionsTransform).Target())
	}
}

func TestEffectsReturnsCopy(t *testing.T) {
	r := BuildRules(nil, target.Client, target.Server)
	require.Len(t, r, 2)
	e := r[0].Effects()
	e[0] = nil
	assert.NotNil(t, r[0].Effects()[0])
}
