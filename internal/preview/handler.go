// Package preview serves generated proxy modules over HTTP, generating
// them on every request from the service directories below a root.
package preview

import (
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"

	"github.com/broady/dsgen"
	"github.com/broady/dsgen/jsast"
	"github.com/broady/dsgen/scan"
	"github.com/broady/dsgen/sink"
)

var (
	schemaDecoder = newDecoder()
	validate      = newValidator()
)

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("schema")
	})
	_ = v.RegisterValidation("relpath", func(fl validator.FieldLevel) bool {
		return sink.ValidatePath(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("modulename", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
	})
	return v
}

// SourceRequest is the query of GET /source.
type SourceRequest struct {
	// Dir is the service directory relative to the root.
	Dir string `schema:"dir" validate:"required,relpath"`

	// Module overrides the module name derived from the directory.
	Module string `schema:"module" validate:"omitempty,max=128,modulename"`
}

// Handler serves:
//
//	GET /services               names of the directories holding a service.json
//	GET /source?dir=&module=    generated module of one directory
type Handler struct {
	fsys      fs.FS
	transform *dsgen.Transform
	logger    *slog.Logger
	mux       *http.ServeMux
}

// New returns a Handler generating from the directories of fsys with
// renderer. A nil renderer selects the default JavaScript renderer.
func New(fsys fs.FS, renderer jsast.Renderer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		fsys:      fsys,
		transform: dsgen.Generate().WithFS(fsys).WithRenderer(renderer).WithLogger(logger),
		logger:    logger,
		mux:       http.NewServeMux(),
	}
	h.mux.HandleFunc("GET /services", h.services)
	h.mux.HandleFunc("GET /source", h.source)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) services(w http.ResponseWriter, r *http.Request) {
	entries, err := fs.ReadDir(h.fsys, ".")
	if err != nil {
		writeError(w, toError(err), h.logger)
		return
	}

	names := []string{}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := fs.Stat(h.fsys, path.Join(e.Name(), scan.ServiceFile)); err == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string][]string{"services": names}); err != nil {
		h.logger.Error("failed to encode response", slog.Any("error", err))
	}
}

func (h *Handler) source(w http.ResponseWriter, r *http.Request) {
	var req SourceRequest
	if err := schemaDecoder.Decode(&req, r.URL.Query()); err != nil {
		writeError(w, toError(err), h.logger)
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, toError(err), h.logger)
		return
	}

	out, err := h.transform.ApplyAs(r.Context(), req.Dir, req.Module)
	if err != nil {
		h.logger.Warn("preview failed", slog.String("dir", req.Dir), slog.Any("error", err))
		writeError(w, toError(err), h.logger)
		return
	}
	if out == nil {
		writeError(w, &Error{Code: CodeNotFound, Message: "nothing to generate in " + req.Dir}, h.logger)
		return
	}

	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Header().Set("X-Module-Path", out.Path)
	if _, err := w.Write(out.Source); err != nil {
		h.logger.Debug("failed to write response", slog.Any("error", err))
	}
}
