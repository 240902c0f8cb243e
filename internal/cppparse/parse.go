// Package cppparse turns C++ source into rawnode trees using tree-sitter.
//
// The tree-sitter tree is walked once and every declaration is copied into a
// Node; the tree is released before Parse returns. Declarations are kept,
// statement bodies are not: the semantic layer only needs what is declared at
// namespace and class scope.
package cppparse

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"

	"github.com/jward/cppmodel/internal/rawnode"
)

// DefaultExtensions are the file extensions treated as C++.
var DefaultExtensions = []string{".h", ".hh", ".hpp", ".hxx", ".h++", ".c", ".cc", ".cpp", ".cxx", ".c++", ".ipp", ".tpp", ".inl"}

// IsSource reports whether path has one of the given extensions, compared
// case-insensitively.
func IsSource(path string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range extensions {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// File is one parsed translation unit.
type File struct {
	Path string
	Root *Node
	// HasErrors is set when tree-sitter had to recover from syntax errors.
	// Declarations outside the damaged region are still present.
	HasErrors bool
}

// Parse parses src as C++. Each call uses its own tree-sitter parser, so
// Parse is safe for concurrent use.
func Parse(ctx context.Context, path string, src []byte) (*File, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(cpp.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("cppparse: parsing %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	tu := &Node{
		kind: rawnode.KindTranslationUnit,
		name: path,
		loc:  rawnode.Location{File: path, Line: 1, Column: 1},
	}
	b := &builder{src: src, file: path}
	b.items(root, tu)
	return &File{Path: path, Root: tu, HasErrors: root.HasError()}, nil
}

// Walk calls fn for n and every descendant in source order.
func Walk(n *Node, fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		Walk(c, fn)
	}
}
