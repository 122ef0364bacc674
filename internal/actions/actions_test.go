package actions

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"actionkit/internal/identity"
	"actionkit/internal/syntax"
	"actionkit/internal/target"
)

const useServerModule = `"use server";
import { db } from "./db";

export async function createTodo(formData) {
  await db.insert(formData);
}

export const deleteTodo = async (id) => {
  await db.delete(id);
};
`

func parse(t *testing.T, src string) (*syntax.Program, *syntax.Comments) {
	t.Helper()
	p, c, err := syntax.Parse(context.Background(), "/src/actions.js", []byte(src))
	require.NoError(t, err)
	return p, c
}

func visit(t *testing.T, p *syntax.Program, c *syntax.Comments, tg target.Target) *Rewriter {
	t.Helper()
	r := New(identity.MustDerive(p.Path, tg), Config{IsServerLayer: tg.Privileged(), Enabled: true}, c)
	require.NoError(t, r.VisitProgram(p))
	return r
}

func TestID_DependsOnKeyAndName(t *testing.T) {
	kc := identity.MustDerive("/src/actions.js", target.Client)
	ks := identity.MustDerive("/src/actions.js", target.Server)
	assert.Equal(t, ID(kc, "a"), ID(kc, "a"))
	assert.NotEqual(t, ID(kc, "a"), ID(ks, "a"))
	assert.NotEqual(t, ID(kc, "a"), ID(kc, "b"))
	assert.Len(t, ID(kc, "a"), 40)
}

func TestServer_RegistersActions(t *testing.T) {
	p, c := parse(t, useServerModule)
	r := visit(t, p, c, target.Server)

	acts := r.Actions()
	require.Len(t, acts, 2)
	key := identity.MustDerive("/src/actions.js", target.Server)
	assert.Equal(t, ID(key, "createTodo"), acts[0].ID)
	assert.Equal(t, "deleteTodo", acts[1].Name)

	out := string(syntax.Print(p, c))
	assert.True(t, strings.HasPrefix(out, EntryPrefix))
	assert.Contains(t, out, `import { registerServerReference } from "actionkit/server";`)
	assert.Contains(t, out, `registerServerReference("`+acts[0].ID+`", createTodo);`)
	assert.Contains(t, out, "await db.insert(formData);")

	entries, ok, err := Entries(c)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, map[string]string{acts[0].ID: "createTodo", acts[1].ID: "deleteTodo"}, entries)
}

func TestClient_ReplacesModuleWithReferences(t *testing.T) {
	p, c := parse(t, useServerModule)
	r := visit(t, p, c, target.Client)

	acts := r.Actions()
	require.Len(t, acts, 2)
	out := string(syntax.Print(p, c))
	assert.NotContains(t, out, "db.insert")
	assert.NotContains(t, out, `"use server"`)
	assert.Contains(t, out, `export const createTodo = createServerReference("`+acts[0].ID+`");`)
	assert.Contains(t, out, `import { createServerReference } from "actionkit/client";`)
}

func TestClientAndServer_IDsDiffer(t *testing.T) {
	pc, cc := parse(t, useServerModule)
	ps, cs := parse(t, useServerModule)
	client := visit(t, pc, cc, target.Client).Actions()
	server := visit(t, ps, cs, target.Server).Actions()
	for i := range client {
		assert.NotEqual(t, client[i].ID, server[i].ID)
	}
}

func TestServer_InlineAndAnonymousDefault(t *testing.T) {
	p, c := parse(t, `
async function save(data) {
  "use server";
  return data;
}

export default async () => {
  "use server";
  return 1;
};
`)
	r := visit(t, p, c, target.Server)
	acts := r.Actions()
	require.Len(t, acts, 2)
	assert.Equal(t, "save", acts[0].Name)
	assert.Equal(t, "default", acts[1].Name)
	assert.Equal(t, "$$ACTION_0", acts[1].Local)

	out := string(syntax.Print(p, c))
	assert.Contains(t, out, "const $$ACTION_0 = async () => {")
	assert.Contains(t, out, "export default $$ACTION_0;")
}

func TestClient_InlineActionFails(t *testing.T) {
	p, c := parse(t, `async function save() { "use server"; }`)
	err := New("k_Client", Config{Enabled: true}, c).VisitProgram(p)
	assert.ErrorIs(t, err, ErrInlineActionInClient)
}

func TestNonAsyncExportFails(t *testing.T) {
	for _, src := range []string{
		"\"use server\";\nexport function sync() {}\n",
		"\"use server\";\nexport const value = 1;\n",
	} {
		p, c := parse(t, src)
		err := New("k_Server", Config{IsServerLayer: true, Enabled: true}, c).VisitProgram(p)
		assert.ErrorIs(t, err, ErrNotAsync, src)
	}
}

func TestNoActions_LeavesTreeUntouched(t *testing.T) {
	src := "import x from \"y\";\nexport function helper() { return x; }\n"
	for _, tg := range target.All() {
		p, c := parse(t, src)
		before := p.Clone()
		visit(t, p, c, tg)
		assert.Equal(t, before, p)
		assert.Empty(t, c.Snapshot())
	}
}

func TestDisabled_IsNoop(t *testing.T) {
	p, c := parse(t, useServerModule)
	before := p.Clone()
	require.NoError(t, New("k_Server", Config{IsServerLayer: true}, c).VisitProgram(p))
	assert.Equal(t, before, p)
}

func TestRewriteIsIdempotent(t *testing.T) {
	for _, tg := range target.All() {
		p, c := parse(t, useServerModule)
		visit(t, p, c, tg)
		once := string(syntax.Print(p, c))

		visit(t, p, c, tg)
		assert.Equal(t, once, string(syntax.Print(p, c)), tg.String())
	}
}

func TestVisitorIsOneShot(t *testing.T) {
	p, c := parse(t, useServerModule)
	r := New("k_Server", Config{IsServerLayer: true, Enabled: true}, c)
	require.NoError(t, r.VisitProgram(p))
	assert.ErrorIs(t, r.VisitProgram(p), ErrVisitorReused)
}

func TestEntries_Malformed(t *testing.T) {
	c := syntax.NewComments()
	c.AddLeading(syntax.ProgramStart, EntryPrefix+"{not json */")
	_, ok, err := Entries(c)
	assert.True(t, ok)
	assert.Error(t, err)

	_, ok, err = Entries(syntax.NewComments())
	assert.False(t, ok)
	assert.NoError(t, err)
}
