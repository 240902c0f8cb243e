// Package runtime embeds a Risor VM and exposes the semantic model to
// scripts: name lookups, overload families, template specialisations and,
// when a snapshot database is attached, read-only SQL.
package runtime

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"

	"github.com/jward/cppmodel/internal/sema"
	"github.com/jward/cppmodel/internal/store"
)

// Runtime runs Risor scripts against a sema.Model.
type Runtime struct {
	model      *sema.Model
	store      *store.Store
	scriptsDir string
	fsys       fs.FS
	logger     *slog.Logger
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeFS loads scripts and resolves imports from fsys instead of
// scriptsDir.
func WithRuntimeFS(fsys fs.FS) RuntimeOption {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// WithStore exposes a snapshot database through db_query.
func WithStore(s *store.Store) RuntimeOption {
	return func(r *Runtime) {
		r.store = s
	}
}

// WithLogger sets the logger behind the script-level log object.
func WithLogger(l *slog.Logger) RuntimeOption {
	return func(r *Runtime) {
		r.logger = l
	}
}

// NewRuntime creates a Runtime over m. scriptsDir is the base directory for
// relative script paths and imports; it may be empty.
func NewRuntime(m *sema.Model, scriptsDir string, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		model:      m,
		scriptsDir: scriptsDir,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunScript loads and executes a Risor script with all standard globals
// plus any extra globals provided by the caller. It returns the value of
// the script's last expression converted to Go.
func (r *Runtime) RunScript(ctx context.Context, scriptPath string, extraGlobals map[string]any) (any, error) {
	src, err := r.LoadScript(scriptPath)
	if err != nil {
		return nil, err
	}
	return r.eval(ctx, src, scriptPath, extraGlobals)
}

// RunSource executes Risor source code directly.
func (r *Runtime) RunSource(ctx context.Context, source string, extraGlobals map[string]any) (any, error) {
	return r.eval(ctx, source, "<inline>", extraGlobals)
}

func (r *Runtime) eval(ctx context.Context, source, label string, extraGlobals map[string]any) (any, error) {
	globals := r.buildGlobals(extraGlobals)

	var opts []risor.Option
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}
	if imp := r.buildImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	result, err := risor.Eval(ctx, source, opts...)
	if err != nil {
		return nil, fmt.Errorf("runtime: script %s: %w", label, err)
	}
	if result == nil {
		return nil, nil
	}
	return result.Interface(), nil
}

// buildImporter returns nil if neither fs.FS nor scriptsDir is configured.
func (r *Runtime) buildImporter(globals map[string]any) importer.Importer {
	globalNames := make([]string, 0, len(globals))
	for name := range globals {
		globalNames = append(globalNames, name)
	}

	if r.fsys != nil {
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: globalNames,
			SourceFS:    r.fsys,
			Extensions:  []string{".risor"},
		})
	}
	if r.scriptsDir != "" {
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: globalNames,
			SourceDir:   r.scriptsDir,
			Extensions:  []string{".risor"},
		})
	}
	return nil
}

// LoadScript reads a .risor file from the configured fs.FS, or from disk
// relative to scriptsDir.
func (r *Runtime) LoadScript(path string) (string, error) {
	if r.fsys != nil {
		fsPath := strings.TrimPrefix(filepath.ToSlash(path), "/")
		data, err := fs.ReadFile(r.fsys, fsPath)
		if err != nil {
			return "", fmt.Errorf("runtime: loading script %s from fs: %w", fsPath, err)
		}
		return string(data), nil
	}

	fullPath := path
	if !filepath.IsAbs(path) {
		fullPath = filepath.Join(r.scriptsDir, path)
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("runtime: loading script %s: %w", fullPath, err)
	}
	return string(data), nil
}

func (r *Runtime) buildGlobals(extra map[string]any) map[string]any {
	globals := map[string]any{
		"log": mustProxy(&logObject{logger: r.logger}),
	}

	if r.model != nil {
		globals["find_type"] = makeFindTypeFn(r.model)
		globals["find_content"] = makeFindContentFn(r.model)
		globals["entity"] = makeEntityFn(r.model)
		globals["entities"] = makeEntitiesFn(r.model)
		globals["children"] = makeChildrenFn(r.model)
		globals["overloads"] = makeOverloadsFn(r.model)
		globals["specialisations"] = makeSpecialisationsFn(r.model)
		globals["namespaces_chain"] = makeNamespacesChainFn(r.model)
		globals["type_target"] = makeTypeTargetFn(r.model)
	}
	if r.store != nil {
		globals["db_query"] = makeDBQueryFn(r.store)
	}

	for k, v := range extra {
		globals[k] = v
	}
	return globals
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}

// logObject provides log.info/warn/error methods for Risor scripts.
type logObject struct {
	logger *slog.Logger
}

func (l *logObject) Info(msg string)  { l.logger.Info(msg, "source", "script") }
func (l *logObject) Warn(msg string)  { l.logger.Warn(msg, "source", "script") }
func (l *logObject) Error(msg string) { l.logger.Error(msg, "source", "script") }
