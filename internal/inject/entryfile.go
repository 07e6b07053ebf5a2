package inject

import (
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// entrySkeleton is written when a module targets an entry file that does
// not exist yet. It carries the default markers so injection can proceed;
// the caller warns that the file still needs wiring into the app.
const entrySkeleton = `package main

func main() {
	// monolith:plugins

	// monolith:routes
}
`

// edit is one pending splice at a byte offset of the original source.
type edit struct {
	offset int
	text   string
}

// EntryFile is a Go source file staged for marker-based edits. Positions
// are resolved against the parsed AST, but changes are applied as byte
// splices so untouched code keeps its exact formatting. All edits target
// offsets of the original source and are applied back-to-front in a
// single pass, then the result is formatted and syntax-checked before
// one write.
type EntryFile struct {
	path    string
	src     []byte
	fset    *token.FileSet
	file    *ast.File
	created bool
	edits   []edit
}

// OpenEntryFile parses an entry file, synthesizing a minimal skeleton
// when it does not exist on disk.
func OpenEntryFile(path string) (*EntryFile, error) {
	src, err := os.ReadFile(path)
	created := false
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		src = []byte(entrySkeleton)
		created = true
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return &EntryFile{
		path:    path,
		src:     src,
		fset:    fset,
		file:    file,
		created: created,
	}, nil
}

// Created reports whether the file was synthesized rather than read.
func (e *EntryFile) Created() bool {
	return e.created
}

// Dirty reports whether the file has pending changes to write.
func (e *EntryFile) Dirty() bool {
	return len(e.edits) > 0 || e.created
}

// HasImport reports whether an import would collide with the given alias
// or path. An unaliased import binds its path's last element, so that
// name counts as taken too.
func (e *EntryFile) HasImport(alias, importPath string) bool {
	for _, imp := range e.file.Imports {
		p := strings.Trim(imp.Path.Value, `"`)
		if p == importPath {
			return true
		}
		if imp.Name != nil {
			if imp.Name.Name == alias {
				return true
			}
			continue
		}
		if lastSegment(p) == alias {
			return true
		}
	}
	return false
}

// AddImport queues an aliased import. Existing blocks grow in place;
// files without imports get a new declaration after the package clause.
func (e *EntryFile) AddImport(alias, importPath string) {
	spec := fmt.Sprintf("%s %q", alias, importPath)

	var last *ast.GenDecl
	for _, decl := range e.file.Decls {
		if gd, ok := decl.(*ast.GenDecl); ok && gd.Tok == token.IMPORT {
			last = gd
		}
	}

	switch {
	case last == nil:
		e.insert(e.offset(e.file.Name.End()), "\n\nimport "+spec)
	case last.Lparen.IsValid():
		e.insert(e.offset(last.Rparen), "\t"+spec+"\n")
	default:
		e.insert(e.offset(last.End()), "\nimport "+spec)
	}
}

// MarkerLine returns the line of the first comment containing marker.
func (e *EntryFile) MarkerLine(marker string) (int, bool) {
	for _, group := range e.file.Comments {
		for _, c := range group.List {
			if strings.Contains(c.Text, marker) {
				return e.fset.Position(c.Pos()).Line, true
			}
		}
	}
	return 0, false
}

// AppendToUseChain finds the first statement at or below line whose call
// chain includes a .Use(...) invocation and queues suffix at the end of
// that chain. It reports false when no such chain exists.
func (e *EntryFile) AppendToUseChain(line int, suffix string) bool {
	var target *ast.CallExpr
	targetLine := int(^uint(0) >> 1)

	ast.Inspect(e.file, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		// Inspect reaches the outermost call of a chain first, so the
		// strict < keeps it over its nested calls on the same line.
		callLine := e.fset.Position(call.Pos()).Line
		if callLine < line || callLine >= targetLine {
			return true
		}
		if !chainHasUse(call) {
			return true
		}
		target = call
		targetLine = callLine
		return true
	})

	if target == nil {
		return false
	}
	e.insert(e.offset(target.End()), suffix)
	return true
}

// InsertStatementAfter queues stmt on its own line directly below line,
// matching that line's indentation.
func (e *EntryFile) InsertStatementAfter(line int, stmt string) {
	tf := e.fset.File(e.file.Pos())
	indent := e.lineIndent(tf, line)

	if line < tf.LineCount() {
		off := tf.Offset(tf.LineStart(line + 1))
		e.insert(off, indent+stmt+"\n")
		return
	}
	e.insert(len(e.src), "\n"+indent+stmt+"\n")
}

// Apply splices all pending edits, formats the result, and re-parses it
// as a final gate. The original buffer is never mutated.
func (e *EntryFile) Apply() ([]byte, error) {
	out := make([]byte, len(e.src))
	copy(out, e.src)

	// Descending offsets keep earlier splice points valid.
	edits := make([]edit, len(e.edits))
	copy(edits, e.edits)
	sort.SliceStable(edits, func(i, j int) bool {
		return edits[i].offset > edits[j].offset
	})

	for _, ed := range edits {
		spliced := make([]byte, 0, len(out)+len(ed.text))
		spliced = append(spliced, out[:ed.offset]...)
		spliced = append(spliced, ed.text...)
		spliced = append(spliced, out[ed.offset:]...)
		out = spliced
	}

	formatted, err := format.Source(out)
	if err != nil {
		return nil, fmt.Errorf("failed to format %s: %w", e.path, err)
	}
	if err := validateSyntax(formatted); err != nil {
		return nil, fmt.Errorf("%s: %w", e.path, err)
	}
	return formatted, nil
}

// Write applies pending edits and writes the file in one shot.
func (e *EntryFile) Write() error {
	out, err := e.Apply()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(e.path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", e.path, err)
	}
	if err := os.WriteFile(e.path, out, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", e.path, err)
	}
	return nil
}

func (e *EntryFile) insert(offset int, text string) {
	e.edits = append(e.edits, edit{offset: offset, text: text})
}

func (e *EntryFile) offset(pos token.Pos) int {
	return e.fset.Position(pos).Offset
}

func (e *EntryFile) lineIndent(tf *token.File, line int) string {
	start := tf.Offset(tf.LineStart(line))
	end := start
	for end < len(e.src) && (e.src[end] == ' ' || e.src[end] == '\t') {
		end++
	}
	return string(e.src[start:end])
}

// chainHasUse walks a call chain outward-in looking for a .Use selector.
func chainHasUse(call *ast.CallExpr) bool {
	for {
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok {
			return false
		}
		if sel.Sel.Name == "Use" {
			return true
		}
		inner, ok := sel.X.(*ast.CallExpr)
		if !ok {
			return false
		}
		call = inner
	}
}

// validateSyntax confirms the generated source still parses.
func validateSyntax(content []byte) error {
	fset := token.NewFileSet()
	if _, err := parser.ParseFile(fset, "", content, parser.AllErrors); err != nil {
		return fmt.Errorf("syntax validation failed: %w", err)
	}
	return nil
}

func lastSegment(importPath string) string {
	if i := strings.LastIndex(importPath, "/"); i >= 0 {
		return importPath[i+1:]
	}
	return importPath
}
