// Package scan reads the declarations of one service directory.
//
// A service directory is flat. It holds one service.json file, one
// <name>.api function declaration per endpoint and, for each of them, the
// main module implementing it (<name>.mjs, <name>.sjs or <name>.xqy).
package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/broady/dsgen/decl"
)

// ServiceFile is the name of the service declaration in a directory.
const ServiceFile = "service.json"

// APIExtension is the extension of function declaration files.
const APIExtension = ".api"

// ModuleExtensions are the extensions of recognized main modules.
var ModuleExtensions = []string{".mjs", ".sjs", ".xqy"}

// Declarations is what a service directory declares.
type Declarations struct {
	Service *decl.ServiceDescriptor

	// Endpoints holds the complete endpoints ordered by base name.
	Endpoints []*decl.EndpointDescriptor
}

// State is a step of reading a directory.
type State int

const (
	StateListing State = iota
	StateReading
	StateDone
)

func (s State) String() string {
	switch s {
	case StateListing:
		return "listing"
	case StateReading:
		return "reading"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

// Reader reads service directories from a file system.
type Reader struct {
	// FS is the file system directories are read from. Nil means the
	// operating system's file system, with directories named by OS paths.
	FS fs.FS

	// Logger receives discovery warnings. Nil means slog.Default().
	Logger *slog.Logger
}

// Read reads the directory dir. It returns nil, nil when the directory has
// nothing to generate: it is empty, it has no service.json, or none of its
// endpoints has both a declaration and a main module. Files are read one at
// a time; a failure to list or read a file is returned as an error.
func (r *Reader) Read(ctx context.Context, dir string) (*Declarations, error) {
	fsys, root := r.FS, dir
	if fsys == nil {
		fsys, root = os.DirFS(dir), "."
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	run := &reading{
		fsys:      fsys,
		root:      root,
		logger:    logger.With(slog.String("dir", dir)),
		endpoints: make(map[string]*pending),
	}
	return run.run(ctx)
}

// pending is an endpoint whose files are still being collected.
type pending struct {
	declaration     *decl.FunctionDescriptor
	moduleExtension string
}

type reading struct {
	fsys   fs.FS
	root   string
	logger *slog.Logger

	state     State
	files     []string
	service   *decl.ServiceDescriptor
	endpoints map[string]*pending
}

func (rd *reading) run(ctx context.Context) (*Declarations, error) {
	rd.enter(StateListing)
	if err := rd.list(); err != nil {
		rd.enter(StateDone)
		return nil, err
	}
	if len(rd.files) == 0 && len(rd.endpoints) == 0 {
		rd.enter(StateDone)
		rd.logger.Debug("empty directory")
		return nil, nil
	}

	rd.enter(StateReading)
	for _, name := range rd.files {
		if err := ctx.Err(); err != nil {
			rd.enter(StateDone)
			return nil, err
		}
		if err := rd.read(name); err != nil {
			rd.enter(StateDone)
			return nil, err
		}
	}

	rd.enter(StateDone)
	return rd.result(), nil
}

func (rd *reading) enter(s State) {
	rd.state = s
	rd.logger.Debug("reader state", slog.String("state", s.String()))
}

// list classifies the directory entries and collects the files to read.
func (rd *reading) list() error {
	entries, err := fs.ReadDir(rd.fsys, rd.root)
	if err != nil {
		return fmt.Errorf("list directory: %w", err)
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			rd.logger.Debug("ignoring subdirectory", slog.String("name", name))
			continue
		}
		ext := path.Ext(name)
		base := strings.TrimSuffix(name, ext)

		switch {
		case name == ServiceFile:
			rd.files = append(rd.files, name)
		case ext == APIExtension:
			rd.endpoint(base)
			rd.files = append(rd.files, name)
		case isModuleExtension(ext):
			ep := rd.endpoint(base)
			if ep.moduleExtension != "" {
				rd.logger.Warn("ignoring duplicate main module",
					slog.String("file", name),
					slog.String("kept", base+ep.moduleExtension))
				continue
			}
			ep.moduleExtension = ext
		default:
			rd.logger.Warn("ignoring unexpected file", slog.String("file", name))
		}
	}
	return nil
}

func (rd *reading) endpoint(base string) *pending {
	ep, ok := rd.endpoints[base]
	if !ok {
		ep = &pending{}
		rd.endpoints[base] = ep
	}
	return ep
}

func (rd *reading) read(name string) error {
	data, err := fs.ReadFile(rd.fsys, path.Join(rd.root, name))
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}

	if name == ServiceFile {
		var svc decl.ServiceDescriptor
		if err := json.Unmarshal(data, &svc); err != nil {
			return fmt.Errorf("decode %s: %w", name, err)
		}
		rd.service = &svc
		return nil
	}

	var fd decl.FunctionDescriptor
	if err := json.Unmarshal(data, &fd); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	rd.endpoint(strings.TrimSuffix(name, APIExtension)).declaration = &fd
	return nil
}

func (rd *reading) result() *Declarations {
	if rd.service == nil {
		rd.logger.Warn("no " + ServiceFile + " declaration, skipping directory")
		return nil
	}

	bases := make([]string, 0, len(rd.endpoints))
	for base := range rd.endpoints {
		bases = append(bases, base)
	}
	sort.Strings(bases)

	var endpoints []*decl.EndpointDescriptor
	for _, base := range bases {
		ep := rd.endpoints[base]
		switch {
		case ep.declaration == nil:
			rd.logger.Warn("main module without *.api declaration",
				slog.String("endpoint", base))
		case ep.moduleExtension == "":
			rd.logger.Warn("*.api declaration without main module",
				slog.String("endpoint", base))
		default:
			endpoints = append(endpoints, &decl.EndpointDescriptor{
				Declaration:     ep.declaration,
				ModuleExtension: ep.moduleExtension,
			})
		}
	}
	if len(endpoints) == 0 {
		rd.logger.Warn("no endpoint pairs of *.api declaration and main module, skipping directory")
		return nil
	}

	return &Declarations{Service: rd.service, Endpoints: endpoints}
}

func isModuleExtension(ext string) bool {
	for _, e := range ModuleExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
