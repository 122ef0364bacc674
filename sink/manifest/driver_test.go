package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"actionkit/sink"
)

func TestDriver_WritesMsgpackManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "manifest.msgpack")
	a, err := sink.NewAdapter("manifest")
	require.NoError(t, err)
	require.NoError(t, a.Configure(map[string]any{"path": path}))

	require.NoError(t, a.Push(sink.Record{Path: "/src/a.js", Target: "Client", Key: "/src/a.js_Client",
		Actions: []sink.Action{{ID: "c1", Name: "save"}}}))
	require.NoError(t, a.Push(sink.Record{Path: "/src/a.js", Target: "Server", Key: "/src/a.js_Server",
		Actions: []sink.Action{{ID: "s1", Name: "save"}}}))
	require.NoError(t, a.Close())
	require.NoError(t, a.Close())

	m, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, Version, m.Version)
	assert.Equal(t, Entry{Path: "/src/a.js", Name: "save", Key: "/src/a.js_Client"}, m.Targets["Client"]["c1"])
	assert.Equal(t, Entry{Path: "/src/a.js", Name: "save", Key: "/src/a.js_Server"}, m.Targets["Server"]["s1"])
}

func TestDriver_RejectsCollidingIDs(t *testing.T) {
	d := &driver{}
	require.NoError(t, d.Configure(Config{Path: filepath.Join(t.TempDir(), "m.msgpack")}))
	require.NoError(t, d.Push(sink.Record{Path: "/a.js", Target: "Server", Actions: []sink.Action{{ID: "x"}}}))
	assert.Error(t, d.Push(sink.Record{Path: "/b.js", Target: "Server", Actions: []sink.Action{{ID: "x"}}}))
}

func TestDriver_AbortKeepsPreviousManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.msgpack")
	require.NoError(t, os.WriteFile(path, []byte("PREVIOUS BUILD"), 0o644))

	d := &driver{}
	require.NoError(t, d.Configure(Config{Path: path}))
	require.NoError(t, d.Push(sink.Record{Path: "/src/a.js", Target: "Server", Actions: []sink.Action{{ID: "s1", Name: "save"}}}))
	require.NoError(t, d.Abort())
	require.NoError(t, d.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "PREVIOUS BUILD", string(b))
}

func TestDriver_PushBeforeConfigure(t *testing.T) {
	d := &driver{}
	require.NotPanics(t, func() {
		require.NoError(t, d.Push(sink.Record{Path: "/src/a.js", Target: "Client", Actions: []sink.Action{{ID: "c1", Name: "save"}}}))
	})
	assert.Equal(t, "save", d.m.Targets["Client"]["c1"].Name)
}
