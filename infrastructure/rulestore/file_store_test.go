package rulestore_test

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/reglet-dev/reglet-verify/domain/entities"
	"github.com/reglet-dev/reglet-verify/infrastructure/rulestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestFileStore_ReadRules(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "network.txt", "# sockets\njava.net.\n\n   javax.net.  \n#java.io.\n")
	writeFile(t, dir, "reflection.yaml", "- java.lang.reflect.\n- \"  \"\n- java.lang.Class.forName\n")
	writeFile(t, dir, "filesystem.yml", "signatures:\n  - java.io.File.\n  - java.nio.file.Files.\n")
	writeFile(t, dir, "broken.yaml", "signatures: [unclosed\n")
	writeFile(t, dir, "scalar.yaml", "just a string\n")

	store := rulestore.NewFileStore(rulestore.WithDir(dir))
	ctx := context.Background()

	tests := []struct {
		category string
		want     []string
		wantErr  bool
	}{
		{"network", []string{"java.net.", "javax.net."}, false},
		{"reflection", []string{"java.lang.reflect.", "java.lang.Class.forName"}, false},
		{"filesystem", []string{"java.io.File.", "java.nio.file.Files."}, false},
		{"broken", nil, true},
		{"scalar", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			got, err := store.ReadRules(ctx, tt.category)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, dir, store.Location())
	assert.Equal(t, dir, store.Dir())
}

func TestFileStore_MissingDocument(t *testing.T) {
	store := rulestore.NewFileStore(rulestore.WithDir(t.TempDir()))

	_, err := store.ReadRules(context.Background(), "network")
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), `no rule document for "network"`)
}

func TestFileStore_InvalidCategory(t *testing.T) {
	store := rulestore.NewFileStore(rulestore.WithDir(t.TempDir()))

	for _, name := range []string{"", "../etc/passwd", `a\b`, "/abs"} {
		_, err := store.ReadRules(context.Background(), name)
		assert.Error(t, err, "category %q", name)
	}
}

func TestFileStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := rulestore.Embedded().ReadRules(ctx, "network")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileStore_FS(t *testing.T) {
	fsys := fstest.MapFS{
		"command-execution.txt": {Data: []byte("java.lang.Runtime.exec\n")},
	}
	store := rulestore.NewFileStore(rulestore.WithFS(fsys, "memory"))

	got, err := store.ReadRules(context.Background(), "command-execution")
	require.NoError(t, err)
	assert.Equal(t, []string{"java.lang.Runtime.exec"}, got)
	assert.Equal(t, "memory", store.Location())
	assert.Empty(t, store.Dir())
}

func TestEmbedded(t *testing.T) {
	store := rulestore.Embedded()

	for _, c := range entities.AllCategories() {
		t.Run(string(c), func(t *testing.T) {
			got, err := store.ReadRules(context.Background(), string(c))
			require.NoError(t, err)
			assert.NotEmpty(t, got)
			for _, sig := range got {
				assert.NotContains(t, sig, "#")
			}
		})
	}
}

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{"network.txt", "network", true},
		{"reflection.yaml", "reflection", true},
		{"filesystem.yml", "filesystem", true},
		{".txt", "", false},
		{"README.md", "", false},
	}
	for _, tt := range tests {
		got, ok := rulestore.CategoryOf(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
}
