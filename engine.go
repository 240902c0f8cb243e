package cppmodel

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	goruntime "runtime"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jward/cppmodel/internal/config"
	"github.com/jward/cppmodel/internal/cppparse"
	"github.com/jward/cppmodel/internal/discover"
	"github.com/jward/cppmodel/internal/extract"
	cpprt "github.com/jward/cppmodel/internal/runtime"
	"github.com/jward/cppmodel/internal/sema"
	"github.com/jward/cppmodel/internal/store"
)

// ErrFileChanged is returned when a path that is already part of the model
// is indexed again with different contents. The model only grows; start a
// new Engine to pick up edits.
var ErrFileChanged = errors.New("file changed since it was indexed")

// Engine orchestrates the pipeline: discovery, parallel parsing, serial
// extraction into one sema.Model, queries, hooks and snapshot export.
type Engine struct {
	model     *sema.Model
	extractor *extract.Extractor
	runtime   *cpprt.Runtime
	logger    *slog.Logger

	cfg         *config.Config
	basicTypes  []string
	scriptsDir  string
	scriptsFS   fs.FS
	useParallel bool
	strict      bool

	files     map[string]*indexedFile
	order     []string
	ambiguous int
}

type indexedFile struct {
	path      string
	hash      string
	hasErrors bool
	indexed   time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used by extraction, scripts and the Engine.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithConfig applies a project configuration: extensions and exclude
// patterns for IndexDirectory, extra basic types, hook scripts and strict
// mode.
func WithConfig(c *config.Config) Option {
	return func(e *Engine) {
		e.cfg = c
		e.basicTypes = append(e.basicTypes, c.BasicTypes...)
		e.strict = e.strict || c.Strict
	}
}

// WithBasicTypes adds names that resolve as intrinsic scalars, on top of
// sema.DefaultBasicTypes.
func WithBasicTypes(names ...string) Option {
	return func(e *Engine) {
		e.basicTypes = append(e.basicTypes, names...)
	}
}

// WithParallel controls parallel parsing. When true (default), files are
// parsed by a worker pool; extraction into the model is always serial.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.useParallel = parallel
	}
}

// WithScriptsDir sets the base directory for relative script paths and
// Risor imports.
func WithScriptsDir(dir string) Option {
	return func(e *Engine) {
		e.scriptsDir = dir
	}
}

// WithScriptsFS loads Risor scripts from fsys instead of disk.
func WithScriptsFS(fsys fs.FS) Option {
	return func(e *Engine) {
		e.scriptsFS = fsys
	}
}

// WithStrict makes an ambiguity in any file abort indexing. By default the
// offending translation unit is logged and indexing continues.
func WithStrict(strict bool) Option {
	return func(e *Engine) {
		e.strict = strict
	}
}

// New creates an Engine with an empty model.
func New(opts ...Option) *Engine {
	e := &Engine{
		cfg:         &config.Config{},
		logger:      slog.New(slog.DiscardHandler),
		useParallel: true,
		files:       make(map[string]*indexedFile),
	}
	for _, opt := range opts {
		opt(e)
	}

	basic := append(slices.Clone(sema.DefaultBasicTypes), e.basicTypes...)
	e.model = sema.NewModel(sema.WithBasicTypes(basic...), sema.WithLogger(e.logger))
	e.extractor = extract.New(e.model, e.logger)

	rtOpts := []cpprt.RuntimeOption{cpprt.WithLogger(e.logger)}
	if e.scriptsFS != nil {
		rtOpts = append(rtOpts, cpprt.WithRuntimeFS(e.scriptsFS))
	}
	e.runtime = cpprt.NewRuntime(e.model, e.scriptsDir, rtOpts...)
	return e
}

// Model returns the semantic model built so far.
func (e *Engine) Model() *sema.Model { return e.model }

// Query returns a QueryBuilder over the model.
func (e *Engine) Query() *QueryBuilder {
	return &QueryBuilder{model: e.model}
}

// Stats summarises what has been indexed.
type Stats struct {
	Files     int `json:"files"`
	Entities  int `json:"entities"`
	Scopes    int `json:"scopes"`
	Skipped   int `json:"skipped"`
	Ambiguous int `json:"ambiguous"`
}

// Stats reports counts for the model built so far.
func (e *Engine) Stats() Stats {
	return Stats{
		Files:     len(e.order),
		Entities:  len(e.model.Entities()),
		Scopes:    len(e.model.Scopes()),
		Skipped:   e.extractor.Skipped(),
		Ambiguous: e.ambiguous,
	}
}

type source struct {
	path string
	src  []byte
	hash string
}

// IndexSource indexes one in-memory translation unit under name.
func (e *Engine) IndexSource(ctx context.Context, name string, src []byte) error {
	return e.index(ctx, []source{{path: name, src: src, hash: store.ContentHash(src)}})
}

// IndexFiles reads and indexes the given paths in order. A file already
// indexed with the same contents is skipped. Unreadable files are logged
// and reported in the returned error after the rest are indexed.
func (e *Engine) IndexFiles(ctx context.Context, paths []string) error {
	var sources []source
	var errs []error
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			e.logger.Error("read failed", "file", path, "error", err)
			errs = append(errs, fmt.Errorf("read %s: %w", path, err))
			continue
		}
		sources = append(sources, source{path: path, src: content, hash: store.ContentHash(content)})
	}
	if err := e.index(ctx, sources); err != nil {
		return err
	}
	if len(errs) > 0 {
		return fmt.Errorf("cppmodel: indexing had %d error(s): %w", len(errs), errs[0])
	}
	return nil
}

// IndexDirectory discovers the C++ sources under root, honouring the
// configured extensions and exclude patterns and the repository's
// .gitignore, and indexes them.
func (e *Engine) IndexDirectory(ctx context.Context, root string) error {
	rel, err := discover.Files(root, discover.Options{
		Extensions: e.cfg.Extensions,
		Exclude:    e.cfg.Exclude,
	})
	if err != nil {
		return fmt.Errorf("cppmodel: discover %s: %w", root, err)
	}
	paths := make([]string, len(rel))
	for i, p := range rel {
		paths[i] = filepath.Join(root, p)
	}
	e.logger.Debug("discovered sources", "root", root, "count", len(paths))
	return e.IndexFiles(ctx, paths)
}

// index parses sources concurrently, then extracts them one at a time in
// input order so entity handles are deterministic.
func (e *Engine) index(ctx context.Context, sources []source) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("cppmodel: %w", err)
	}
	var pending []source
	batch := make(map[string]string, len(sources))
	for _, s := range sources {
		hash, ok := batch[s.path]
		if prev, seen := e.files[s.path]; seen {
			hash, ok = prev.hash, true
		}
		switch {
		case !ok:
			batch[s.path] = s.hash
			pending = append(pending, s)
		case hash == s.hash:
			e.logger.Debug("unchanged, skipping", "file", s.path)
		default:
			return fmt.Errorf("cppmodel: %s: %w", s.path, ErrFileChanged)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	parsed := make([]*cppparse.File, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	if e.useParallel {
		g.SetLimit(goruntime.NumCPU())
	} else {
		g.SetLimit(1)
	}
	for i, s := range pending {
		g.Go(func() error {
			f, err := cppparse.Parse(gctx, s.path, s.src)
			if err != nil {
				return err
			}
			parsed[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("cppmodel: %w", err)
	}

	for i, f := range parsed {
		if err := ctx.Err(); err != nil {
			return err
		}
		s := pending[i]
		if f.HasErrors {
			e.logger.Warn("syntax errors, indexing what parsed", "file", f.Path)
		}
		e.files[s.path] = &indexedFile{path: s.path, hash: s.hash, hasErrors: f.HasErrors, indexed: time.Now()}
		e.order = append(e.order, s.path)

		if err := e.extractor.File(f.Root); err != nil {
			if e.strict || !sema.IsAmbiguity(err) {
				return fmt.Errorf("cppmodel: extract %s: %w", s.path, err)
			}
			e.ambiguous++
			e.logger.Error("translation unit abandoned", "file", s.path, "error", err)
		}
	}
	return nil
}

// RunScript runs a Risor script against the model. extras become extra
// script globals.
func (e *Engine) RunScript(ctx context.Context, path string, extras map[string]any) (any, error) {
	return e.runtime.RunScript(ctx, path, extras)
}

// RunSource runs inline Risor source against the model.
func (e *Engine) RunSource(ctx context.Context, src string, extras map[string]any) (any, error) {
	return e.runtime.RunSource(ctx, src, extras)
}

// RunHooks runs the configured hook scripts in order and stops at the first
// failure.
func (e *Engine) RunHooks(ctx context.Context) error {
	for _, path := range e.cfg.ScriptPaths() {
		e.logger.Debug("running hook", "script", path)
		if _, err := e.runtime.RunScript(ctx, path, nil); err != nil {
			return fmt.Errorf("cppmodel: hook: %w", err)
		}
	}
	return nil
}
