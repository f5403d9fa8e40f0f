package dsgen

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"

	"github.com/broady/dsgen/decl"
	"github.com/broady/dsgen/javascript"
	"github.com/broady/dsgen/sink"
)

const services = `
-- docs/service.json --
{"endpointDirectory": "/ds/docs/", "desc": "Document operations."}
-- docs/get.api --
{"functionName": "get", "params": [{"name": "uri", "datatype": "string"}], "return": {"datatype": "jsonDocument"}}
-- docs/get.sjs --
-- docs/put.api --
{"functionName": "put", "params": [{"name": "uri", "datatype": "string"}, {"name": "doc", "datatype": "jsonDocument"}, {"name": "s", "datatype": "session"}]}
-- docs/put.mjs --
-- custom/service.json --
{"endpointDirectory": "/ds/custom/", "$jsModule": "lib/searcher"}
-- custom/find.api --
{"functionName": "find", "params": [{"name": "q", "datatype": "string"}], "return": {"datatype": "int", "multiple": true}}
-- custom/find.xqy --
-- empty/README.md --
-- broken/service.json --
{"endpointDirectory": "/ds/broken/"}
-- broken/bad.api --
{"functionName": "bad", "params": [{"name": "x", "datatype": "nope"}]}
-- broken/bad.sjs --
`

func archiveFS(t *testing.T, archive string) fstest.MapFS {
	t.Helper()
	fsys := fstest.MapFS{}
	for _, f := range txtar.Parse([]byte(archive)).Files {
		fsys[f.Name] = &fstest.MapFile{Data: f.Data}
	}
	return fsys
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestGenerateSource(t *testing.T) {
	src, err := GenerateSource("mod",
		&decl.ServiceDescriptor{EndpointDirectory: "/d/"},
		[]*decl.EndpointDescriptor{{ModuleExtension: ".x", Declaration: &decl.FunctionDescriptor{FunctionName: "f"}}},
	)
	require.NoError(t, err)

	assert.Contains(t, src, "class Mod {")
	assert.Contains(t, src, "static on(")
	assert.Equal(t, 1, strings.Count(src, "  f() {"))
	assert.Contains(t, src, `.withFunction({"functionName":"f"}, ".x")`)
}

func TestGenerateSource_Errors(t *testing.T) {
	svc := &decl.ServiceDescriptor{EndpointDirectory: "/d/"}
	eps := []*decl.EndpointDescriptor{{ModuleExtension: ".sjs", Declaration: &decl.FunctionDescriptor{FunctionName: "f"}}}

	tests := []struct {
		name      string
		module    string
		service   *decl.ServiceDescriptor
		endpoints []*decl.EndpointDescriptor
		errMsg    string
	}{
		{"no module", "", svc, eps, "missing module name"},
		{"no service", "m", nil, eps, "missing service.json declaration"},
		{"no endpoint directory", "m", &decl.ServiceDescriptor{}, eps, "without endpointDirectory property"},
		{"no endpoints", "m", svc, nil, "no endpoint pairs of *.api declaration and main module"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GenerateSource(tt.module, tt.service, tt.endpoints)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.ErrorIs(t, err, decl.ErrInvalidDescriptor)
		})
	}
}

func TestReadDeclarations(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "foo.api"), []byte(`{"functionName":"foo"}`), 0o644))

	got, err := ReadDeclarations(context.Background(), dir)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "service.json"), []byte(`{"endpointDirectory":"/d/"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "foo.sjs"), nil, 0o644))

	got, err = ReadDeclarations(context.Background(), dir)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Endpoints, 1)
}

func TestTransform_Apply(t *testing.T) {
	tr := Generate().WithFS(archiveFS(t, services)).WithLogger(quiet())
	ctx := context.Background()

	t.Run("directory name", func(t *testing.T) {
		out, err := tr.Apply(ctx, "docs")
		require.NoError(t, err)
		require.NotNil(t, out)

		assert.Equal(t, "docs", out.Module)
		assert.Equal(t, "docs.js", out.Path)
		src := string(out.Source)
		assert.Contains(t, src, "class Docs {")
		assert.Contains(t, src, " * Document operations.")
		assert.Contains(t, src, "  put(uri, doc, s) {")
		assert.Contains(t, src, "  createSession() {")
		assert.Less(t, strings.Index(src, `"functionName":"get"`), strings.Index(src, `"functionName":"put"`))
	})

	t.Run("jsModule", func(t *testing.T) {
		out, err := tr.Apply(ctx, "custom")
		require.NoError(t, err)
		require.NotNil(t, out)

		assert.Equal(t, "searcher", out.Module)
		assert.Equal(t, "lib/searcher.js", out.Path)
		assert.Contains(t, string(out.Source), "class Searcher {")
		assert.NotContains(t, string(out.Source), "createSession")
	})

	t.Run("nothing to generate", func(t *testing.T) {
		out, err := tr.Apply(ctx, "empty")
		require.NoError(t, err)
		assert.Nil(t, out)
	})

	t.Run("invalid declaration", func(t *testing.T) {
		_, err := tr.Apply(ctx, "broken")
		require.Error(t, err)
		assert.Equal(t, decl.CodeInvalidDatatype, decl.CodeOf(err))
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := tr.Apply(ctx, "missing")
		require.Error(t, err)
		assert.NotErrorIs(t, err, decl.ErrInvalidDescriptor)
	})
}

func TestTransform_Options(t *testing.T) {
	fsys := archiveFS(t, services)
	out, err := Generate().
		WithFS(fsys).
		WithLogger(quiet()).
		WithHeader("custom header").
		WithRenderer(javascript.New(javascript.Config{ModuleStyle: "esm"})).
		Apply(context.Background(), "docs")
	require.NoError(t, err)

	src := string(out.Source)
	assert.True(t, strings.HasPrefix(src, "// custom header\n"), src)
	assert.Contains(t, src, "export default Docs;")
	assert.NotContains(t, src, "GENERATED")
}

func TestModulePath(t *testing.T) {
	tests := []struct {
		in         string
		wantModule string
		wantPath   string
		wantErr    bool
	}{
		{in: "docs", wantModule: "docs", wantPath: "docs.js"},
		{in: "docs.js", wantModule: "docs", wantPath: "docs.js"},
		{in: "/lib/docs", wantModule: "docs", wantPath: "lib/docs.js"},
		{in: "lib/./x/../docs.js", wantModule: "docs", wantPath: "lib/docs.js"},
		{in: "../docs", wantErr: true},
		{in: ".js", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			module, p, err := ModulePath(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantModule, module)
			assert.Equal(t, tt.wantPath, p)
		})
	}
}

func TestTransform_Run(t *testing.T) {
	for _, n := range []int{1, 3} {
		out := sink.NewMemory()
		report, err := Generate().
			WithFS(archiveFS(t, services)).
			WithLogger(quiet()).
			WithConcurrency(n).
			Run(context.Background(), []string{"docs", "custom", "empty", "broken"}, out)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "broken: ")
		assert.ErrorIs(t, err, decl.ErrInvalidDescriptor)

		assert.Equal(t, []string{"docs.js", "lib/searcher.js"}, report.Written)
		assert.Equal(t, []string{"empty"}, report.Skipped)
		assert.Equal(t, []string{"broken"}, report.Failed)
		assert.Equal(t, []string{"docs.js", "lib/searcher.js"}, out.Paths())
	}
}

func TestTransform_RunCollision(t *testing.T) {
	fsys := archiveFS(t, `
-- a/docs/service.json --
{"endpointDirectory": "/a/"}
-- a/docs/f.api --
{"functionName": "f"}
-- a/docs/f.sjs --
-- b/docs/service.json --
{"endpointDirectory": "/b/"}
-- b/docs/g.api --
{"functionName": "g"}
-- b/docs/g.sjs --
`)
	report, err := Generate().WithFS(fsys).WithLogger(quiet()).
		Run(context.Background(), []string{"a/docs", "b/docs"}, sink.NewMemory())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "output docs.js already generated from a/docs")
	assert.Equal(t, []string{"docs.js"}, report.Written)
	assert.Equal(t, []string{"b/docs"}, report.Failed)
}

func TestTransform_RunWriteError(t *testing.T) {
	report, err := Generate().WithFS(archiveFS(t, services)).WithLogger(quiet()).
		Run(context.Background(), []string{"docs"}, failingSink{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "write docs.js")
	assert.Equal(t, []string{"docs"}, report.Failed)
	assert.Empty(t, report.Written)
}

func TestTransform_RunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Generate().WithFS(archiveFS(t, services)).WithLogger(quiet()).
		Run(ctx, []string{"docs", "custom"}, sink.NewMemory())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTransform_Stream(t *testing.T) {
	in := make(chan string, 2)
	in <- "docs"
	in <- "empty"
	close(in)

	results := map[string]Result{}
	for r := range Generate().WithFS(archiveFS(t, services)).WithLogger(quiet()).Stream(context.Background(), in) {
		results[r.Dir] = r
	}

	require.Len(t, results, 2)
	assert.NoError(t, results["docs"].Err)
	assert.NotNil(t, results["docs"].Output)
	assert.NoError(t, results["empty"].Err)
	assert.Nil(t, results["empty"].Output)
}

type failingSink struct{}

func (failingSink) WriteFile(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestTransform_ApplyAs(t *testing.T) {
	out, err := Generate().WithFS(archiveFS(t, services)).WithLogger(quiet()).
		ApplyAs(context.Background(), "custom", "finder")
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.Equal(t, "finder", out.Module)
	assert.Equal(t, "finder.js", out.Path)
	assert.Contains(t, string(out.Source), "class Finder {")
}
