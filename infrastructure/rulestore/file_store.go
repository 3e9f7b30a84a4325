// Package rulestore reads forbidden-signature documents, one per
// capability category, from a directory or an fs.FS.
//
// A document is either "<category>.txt" with one signature per line
// (blank lines and lines starting with '#' are ignored) or
// "<category>.yaml" holding a list of signatures, or a mapping with a
// "signatures" list.
package rulestore

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/reglet-dev/reglet-verify/domain/ports"
	"gopkg.in/yaml.v3"
)

var _ ports.RuleSource = (*FileStore)(nil)

// fileStoreConfig holds configuration for the FileStore.
type fileStoreConfig struct {
	dir      string // Directory holding rule documents
	fsys     fs.FS  // Overrides dir when set
	location string // Description used in messages
}

func defaultFileStoreConfig() fileStoreConfig {
	return fileStoreConfig{
		dir: "rules",
	}
}

// FileStoreOption configures a FileStore instance.
type FileStoreOption func(*fileStoreConfig)

// WithDir sets the directory holding rule documents.
func WithDir(dir string) FileStoreOption {
	return func(c *fileStoreConfig) {
		c.dir = dir
	}
}

// WithFS reads rule documents from fsys instead of the local directory.
// location describes fsys in error messages.
func WithFS(fsys fs.FS, location string) FileStoreOption {
	return func(c *fileStoreConfig) {
		c.fsys = fsys
		c.location = location
	}
}

// FileStore provides file-based rule documents.
type FileStore struct {
	config fileStoreConfig
	fsys   fs.FS
}

// NewFileStore creates a new FileStore with the given options.
func NewFileStore(opts ...FileStoreOption) *FileStore {
	cfg := defaultFileStoreConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	fsys := cfg.fsys
	if fsys == nil {
		fsys = os.DirFS(cfg.dir)
		cfg.location = cfg.dir
	}
	return &FileStore{config: cfg, fsys: fsys}
}

// Location returns where the rule documents are read from.
func (s *FileStore) Location() string {
	return s.config.location
}

// Dir returns the local directory, or "" when reading from an fs.FS.
func (s *FileStore) Dir() string {
	if s.config.fsys != nil {
		return ""
	}
	return s.config.dir
}

// ReadRules returns the signatures of the document for category.
func (s *FileStore) ReadRules(ctx context.Context, category string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if category == "" || strings.ContainsAny(category, `/\`) || !fs.ValidPath(category) {
		return nil, fmt.Errorf("invalid rule category name %q", category)
	}

	for _, ext := range []string{".txt", ".yaml", ".yml"} {
		data, err := fs.ReadFile(s.fsys, category+ext)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read rule document %s%s in %s: %w", category, ext, s.config.location, err)
		}
		if ext == ".txt" {
			return parseLines(data)
		}
		return parseYAML(data, category+ext)
	}
	return nil, fmt.Errorf("no rule document for %q in %s: %w", category, s.config.location, fs.ErrNotExist)
}

// CategoryOf maps a document file name back to its category, reporting
// false for files that are not rule documents.
func CategoryOf(name string) (string, bool) {
	for _, ext := range []string{".txt", ".yaml", ".yml"} {
		if strings.HasSuffix(name, ext) && len(name) > len(ext) {
			return strings.TrimSuffix(name, ext), true
		}
	}
	return "", false
}

func parseLines(data []byte) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan rule document: %w", err)
	}
	return out, nil
}

func parseYAML(data []byte, name string) ([]string, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to parse rule document %s: %w", name, err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}

	var list []string
	root := node.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&list); err != nil {
			return nil, fmt.Errorf("failed to decode rule document %s: %w", name, err)
		}
	case yaml.MappingNode:
		var doc struct {
			Signatures []string `yaml:"signatures"`
		}
		if err := root.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode rule document %s: %w", name, err)
		}
		list = doc.Signatures
	default:
		return nil, fmt.Errorf("rule document %s must be a list or a mapping with signatures", name)
	}

	out := list[:0]
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}
