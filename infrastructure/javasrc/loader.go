// Package javasrc builds an observed program from Java source files using
// tree-sitter. It extracts class snapshots for the structural matcher, a
// call graph for capability checks and a type-dependency graph.
//
// Names are resolved from source alone: imports, the declaring package,
// member and nested types of the program, and the implicit java.lang
// import. Receivers of library calls are typed from locals, parameters,
// fields and a small table of well-known JDK members; a call chain through
// an unknown library method keeps the receiver type of its head.
package javasrc

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"runtime"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
	"golang.org/x/sync/errgroup"

	"github.com/reglet-dev/reglet-verify/domain/entities"
	"github.com/reglet-dev/reglet-verify/infrastructure/memprogram"
)

// loaderConfig holds configuration for the Loader.
type loaderConfig struct {
	logger      *slog.Logger
	include     string
	exclude     []string
	parallelism int
}

func defaultLoaderConfig() loaderConfig {
	return loaderConfig{
		logger:  slog.Default(),
		include: "**/*.java",
		exclude: []string{
			"**/.*/**",
			"**/target/**",
			"**/build/**",
			"**/out/**",
			"**/node_modules/**",
		},
		parallelism: runtime.GOMAXPROCS(0),
	}
}

// LoaderOption configures the Loader.
type LoaderOption func(*loaderConfig)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) LoaderOption {
	return func(c *loaderConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithInclude sets the doublestar pattern selecting source files.
// Default is "**/*.java".
func WithInclude(pattern string) LoaderOption {
	return func(c *loaderConfig) {
		c.include = pattern
	}
}

// WithExclude replaces the doublestar patterns of skipped paths. The
// default skips hidden directories and common build output.
func WithExclude(patterns ...string) LoaderOption {
	return func(c *loaderConfig) {
		c.exclude = append([]string(nil), patterns...)
	}
}

// WithParallelism bounds the number of files parsed at once.
func WithParallelism(n int) LoaderOption {
	return func(c *loaderConfig) {
		if n > 0 {
			c.parallelism = n
		}
	}
}

// Loader parses Java sources into observed programs.
type Loader struct {
	config loaderConfig
}

// NewLoader creates a new Loader.
func NewLoader(opts ...LoaderOption) *Loader {
	cfg := defaultLoaderConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Loader{config: cfg}
}

// Load parses the Java sources below dir.
func Load(ctx context.Context, dir string, opts ...LoaderOption) (*memprogram.Program, error) {
	return NewLoader(opts...).Load(ctx, dir)
}

// Load parses the Java sources below dir.
func (l *Loader) Load(ctx context.Context, dir string) (*memprogram.Program, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("source directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source directory: %s is not a directory", dir)
	}
	return l.LoadFS(ctx, os.DirFS(dir))
}

// LoadFS parses the Java sources in fsys.
func (l *Loader) LoadFS(ctx context.Context, fsys fs.FS) (*memprogram.Program, error) {
	paths, err := l.sourcePaths(fsys)
	if err != nil {
		return nil, err
	}

	files := make([]*sourceFile, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.config.parallelism)
	for i, path := range paths {
		g.Go(func() error {
			f, err := l.parseFile(gctx, fsys, path)
			if err != nil {
				return err
			}
			files[i] = f
			return nil
		})
	}
	err = g.Wait()
	defer func() {
		for _, f := range files {
			if f != nil {
				f.tree.Close()
			}
		}
	}()
	if err != nil {
		return nil, err
	}

	idx := newIndex(l.config.logger)
	for _, f := range files {
		idx.addFile(f)
	}

	calls := entities.NewCallGraph()
	deps := entities.NewDependencyGraph()
	classes := make([]*entities.ObservedClass, 0, len(idx.decls))
	for _, d := range idx.decls {
		classes = append(classes, idx.observe(d))
	}
	for _, d := range idx.decls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		idx.collect(d, calls, deps)
	}

	l.config.logger.Debug("java sources loaded",
		slog.Int("files", len(files)),
		slog.Int("classes", len(classes)),
		slog.Int("callables", len(calls.Declared())),
		slog.Int("edges", calls.EdgeCount()))

	return memprogram.New(classes,
		memprogram.WithCallGraph(calls),
		memprogram.WithDependencyGraph(deps),
	), nil
}

func (l *Loader) sourcePaths(fsys fs.FS) ([]string, error) {
	matches, err := doublestar.Glob(fsys, l.config.include)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", l.config.include, err)
	}
	paths := matches[:0]
	for _, p := range matches {
		if l.excluded(p) {
			continue
		}
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

func (l *Loader) excluded(path string) bool {
	for _, pattern := range l.config.exclude {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
	}
	return false
}

func (l *Loader) parseFile(ctx context.Context, fsys fs.FS, path string) (*sourceFile, error) {
	content, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(java.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	root := tree.RootNode()
	if root.HasError() {
		l.config.logger.Warn("java source has syntax errors",
			slog.String("path", path),
			slog.Int("line", firstErrorLine(root)))
	}

	f := &sourceFile{path: path, content: content, tree: tree, root: root}
	f.readHeader()
	return f, nil
}

// firstErrorLine returns the 1-based line of the first ERROR node, or 0.
func firstErrorLine(n *sitter.Node) int {
	if n.Type() == "ERROR" || n.IsMissing() {
		return int(n.StartPoint().Row) + 1
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.HasError() {
			if line := firstErrorLine(c); line > 0 {
				return line
			}
		}
	}
	return 0
}
