package rulestore

import (
	"embed"
	"io/fs"
)

//go:embed rules/*.txt
var defaultRules embed.FS

// Embedded returns a FileStore over the built-in Java rule documents.
func Embedded() *FileStore {
	sub, err := fs.Sub(defaultRules, "rules")
	if err != nil {
		panic(err)
	}
	return NewFileStore(WithFS(sub, "embedded:rules"))
}
