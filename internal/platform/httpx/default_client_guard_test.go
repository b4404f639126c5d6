// SPDX-License-Identifier: MIT

package httpx

import (
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// Package-level helpers that go through http.DefaultClient.
var defaultClientHelpers = map[string]bool{
	"DefaultClient": true,
	"Get":           true,
	"Head":          true,
	"Post":          true,
	"PostForm":      true,
}

func TestNoDefaultClientUsage(t *testing.T) {
	repoRoot := filepath.Clean(filepath.Join("..", "..", ".."))
	scanRoots := []string{
		filepath.Join(repoRoot, "internal"),
		filepath.Join(repoRoot, "cmd"),
	}

	var violations []string
	fset := token.NewFileSet()

	for _, root := range scanRoots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				name := d.Name()
				if name == "vendor" || name == "testdata" || strings.HasPrefix(name, ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
				return nil
			}
			if strings.HasPrefix(filepath.Base(path), "._") {
				return nil
			}

			file, parseErr := parser.ParseFile(fset, path, nil, 0)
			if parseErr != nil {
				return parseErr
			}
			ast.Inspect(file, func(n ast.Node) bool {
				sel, ok := n.(*ast.SelectorExpr)
				if !ok {
					return true
				}
				ident, ok := sel.X.(*ast.Ident)
				if !ok {
					return true
				}
				if ident.Name == "http" && defaultClientHelpers[sel.Sel.Name] {
					pos := fset.Position(sel.Pos())
					violations = append(violations, pos.String())
				}
				return true
			})
			return nil
		})
		if err != nil {
			t.Fatalf("scan %s: %v", root, err)
		}
	}

	if len(violations) > 0 {
		sort.Strings(violations)
		t.Fatalf("outbound requests must use httpx clients; http.DefaultClient usage found:\n%s", strings.Join(violations, "\n"))
	}
}
