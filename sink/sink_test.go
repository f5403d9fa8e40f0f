package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
		errMsg  string
	}{
		{name: "simple", path: "docs.js"},
		{name: "nested", path: "proxies/docs/index.js"},
		{name: "dots in name", path: "a..b.js"},
		{name: "empty", path: "", wantErr: true, errMsg: "empty"},
		{name: "absolute", path: "/etc/passwd", wantErr: true, errMsg: "absolute"},
		{name: "drive letter", path: "C:/x.js", wantErr: true, errMsg: "absolute"},
		{name: "traversal", path: "../x.js", wantErr: true, errMsg: "traversal"},
		{name: "inner traversal", path: "a/../../x.js", wantErr: true, errMsg: "traversal"},
		{name: "backslash", path: `a\b.js`, wantErr: true, errMsg: "backslash"},
		{name: "dot prefix", path: "./x.js", wantErr: true, errMsg: "not clean"},
		{name: "double slash", path: "a//x.js", wantErr: true, errMsg: "not clean"},
		{name: "trailing slash", path: "a/", wantErr: true, errMsg: "not clean"},
		{name: "root", path: ".", wantErr: true, errMsg: "root"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidatePath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("ValidatePath(%q) error = %v, want containing %q", tt.path, err, tt.errMsg)
			}
		})
	}
}

func TestDir(t *testing.T) {
	ctx := context.Background()

	t.Run("writes nested module", func(t *testing.T) {
		root := t.TempDir()
		if err := NewDir(root).WriteFile(ctx, "a/b/docs.js", []byte("class Docs {}")); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		got, err := os.ReadFile(filepath.Join(root, "a", "b", "docs.js"))
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}
		if string(got) != "class Docs {}" {
			t.Errorf("content = %q", got)
		}
	})

	t.Run("default mode", func(t *testing.T) {
		root := t.TempDir()
		d := &Dir{Root: root, Overwrite: true}
		if err := d.WriteFile(ctx, "x.js", []byte("x")); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		info, err := os.Stat(filepath.Join(root, "x.js"))
		if err != nil {
			t.Fatalf("Stat() error = %v", err)
		}
		if mode := info.Mode().Perm(); mode != 0644 {
			t.Errorf("mode = %o, want 0644", mode)
		}
	})

	t.Run("overwrites", func(t *testing.T) {
		root := t.TempDir()
		d := NewDir(root)
		for _, content := range []string{"first", "second"} {
			if err := d.WriteFile(ctx, "x.js", []byte(content)); err != nil {
				t.Fatalf("WriteFile(%q) error = %v", content, err)
			}
		}
		got, _ := os.ReadFile(filepath.Join(root, "x.js"))
		if string(got) != "second" {
			t.Errorf("content = %q, want second", got)
		}
	})

	t.Run("leaves identical content untouched", func(t *testing.T) {
		root := t.TempDir()
		d := NewDir(root)
		full := filepath.Join(root, "x.js")
		if err := d.WriteFile(ctx, "x.js", []byte("same")); err != nil {
			t.Fatal(err)
		}
		old := time.Now().Add(-time.Hour).Truncate(time.Second)
		if err := os.Chtimes(full, old, old); err != nil {
			t.Fatal(err)
		}
		if err := d.WriteFile(ctx, "x.js", []byte("same")); err != nil {
			t.Fatal(err)
		}
		info, err := os.Stat(full)
		if err != nil {
			t.Fatal(err)
		}
		if !info.ModTime().Equal(old) {
			t.Errorf("ModTime = %v, want %v", info.ModTime(), old)
		}
	})

	t.Run("refuses existing without overwrite", func(t *testing.T) {
		root := t.TempDir()
		d := &Dir{Root: root}
		if err := d.WriteFile(ctx, "x.js", []byte("first")); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		err := d.WriteFile(ctx, "x.js", []byte("second"))
		if !errors.Is(err, ErrExists) {
			t.Fatalf("WriteFile() error = %v, want ErrExists", err)
		}
		got, _ := os.ReadFile(filepath.Join(root, "x.js"))
		if string(got) != "first" {
			t.Errorf("content = %q, want first", got)
		}
	})

	t.Run("rejects invalid path", func(t *testing.T) {
		err := NewDir(t.TempDir()).WriteFile(ctx, "../x.js", []byte("x"))
		if err == nil || !strings.Contains(err.Error(), "traversal") {
			t.Errorf("WriteFile() error = %v, want traversal error", err)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := NewDir(t.TempDir()).WriteFile(cctx, "x.js", []byte("x"))
		if !errors.Is(err, context.Canceled) {
			t.Errorf("WriteFile() error = %v, want context.Canceled", err)
		}
	})

	t.Run("no temp files left", func(t *testing.T) {
		root := t.TempDir()
		d := NewDir(root)
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if err := d.WriteFile(ctx, fmt.Sprintf("m%d.js", i), []byte("x")); err != nil {
					t.Errorf("WriteFile() error = %v", err)
				}
			}(i)
		}
		wg.Wait()

		matches, _ := filepath.Glob(filepath.Join(root, ".dsgen-*.tmp"))
		if len(matches) != 0 {
			t.Errorf("temp files left: %v", matches)
		}
	})
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	content := []byte("b")
	if err := m.WriteFile(ctx, "b.js", content); err != nil {
		t.Fatal(err)
	}
	if err := m.WriteFile(ctx, "a.js", []byte("a")); err != nil {
		t.Fatal(err)
	}
	content[0] = 'x'

	if got := string(m.Get("b.js")); got != "b" {
		t.Errorf("Get(b.js) = %q, want b", got)
	}
	if got := m.Get("missing.js"); got != nil {
		t.Errorf("Get(missing.js) = %q, want nil", got)
	}
	if got := strings.Join(m.Paths(), ","); got != "a.js,b.js" {
		t.Errorf("Paths() = %s", got)
	}
	if err := m.WriteFile(ctx, "/abs.js", nil); err == nil {
		t.Error("WriteFile() should reject absolute paths")
	}
}

func TestStream(t *testing.T) {
	var buf bytes.Buffer
	s := &Stream{W: &buf}
	if err := s.WriteFile(context.Background(), "docs.js", []byte("class Docs {}\n")); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), "// docs.js\nclass Docs {}\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}
