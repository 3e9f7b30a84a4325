package domain_test

import (
	"go/parser"
	"go/token"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modulePath = "github.com/reglet-dev/reglet-verify/"

// domainPackages are the domain subdirectories checked for layering.
var domainPackages = []string{"entities", "errors", "ports", "policy", "structure", "reachability"}

// TestDomainHasNoExternalDependencies verifies that the domain layer
// does not import from application or infrastructure layers.
// This is a critical hexagonal architecture requirement.
func TestDomainHasNoExternalDependencies(t *testing.T) {
	fset := token.NewFileSet()

	for _, pkg := range domainPackages {
		files, err := filepath.Glob(filepath.Join("../domain", pkg, "*.go"))
		require.NoError(t, err, "failed to glob %s files", pkg)

		for _, file := range files {
			// Test files may import testutil and testify
			if strings.HasSuffix(file, "_test.go") {
				continue
			}
			checkFileImports(t, fset, file, pkg)
		}
	}
}

// TestCoreDomainIsStdlibOnly verifies that entities, errors and ports do not
// pull in third-party modules.
func TestCoreDomainIsStdlibOnly(t *testing.T) {
	fset := token.NewFileSet()

	for _, pkg := range []string{"entities", "errors", "ports"} {
		files, err := filepath.Glob(filepath.Join("../domain", pkg, "*.go"))
		require.NoError(t, err)

		for _, file := range files {
			if strings.HasSuffix(file, "_test.go") {
				continue
			}
			f, err := parser.ParseFile(fset, file, nil, parser.ImportsOnly)
			require.NoError(t, err, "failed to parse %s", file)

			for _, imp := range f.Imports {
				importPath := strings.Trim(imp.Path.Value, `"`)
				if strings.HasPrefix(importPath, modulePath) {
					continue
				}
				first := strings.SplitN(importPath, "/", 2)[0]
				assert.NotContains(t, first, ".",
					"domain/%s (%s) imports third-party package %s", pkg, filepath.Base(file), importPath)
			}
		}
	}
}

func checkFileImports(t *testing.T, fset *token.FileSet, filename, pkg string) {
	t.Helper()

	f, err := parser.ParseFile(fset, filename, nil, parser.ImportsOnly)
	require.NoError(t, err, "failed to parse %s", filename)

	for _, imp := range f.Imports {
		importPath := strings.Trim(imp.Path.Value, `"`)

		forbiddenPackages := []string{
			modulePath + "application",
			modulePath + "infrastructure",
			modulePath + "internal",
		}

		for _, forbidden := range forbiddenPackages {
			assert.NotContains(t, importPath, forbidden,
				"domain/%s package (%s) must not import from %s (violates hexagonal architecture)",
				pkg, filepath.Base(filename), forbidden)
		}

		// Within the module, domain may only import domain
		if strings.HasPrefix(importPath, modulePath) {
			assert.True(t,
				strings.HasPrefix(importPath, modulePath+"domain/"),
				"domain/%s package (%s) imports non-domain package: %s",
				pkg, filepath.Base(filename), importPath)
		}
	}
}

// TestDomainPackagesExist verifies that required domain packages exist
func TestDomainPackagesExist(t *testing.T) {
	for _, dir := range domainPackages {
		files, err := filepath.Glob(filepath.Join("../domain", dir, "*.go"))

		require.NoError(t, err, "failed to check %s directory", dir)
		assert.NotEmpty(t, files, "domain/%s should contain Go files", dir)
	}
}
