package codemod

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
)

// Language selects which tree-sitter grammar to use for parsing.
type Language int

const (
	TSX Language = iota
	JavaScript
)

func (l Language) String() string {
	if l == JavaScript {
		return "javascript"
	}
	return "tsx"
}

// LanguageForPath picks the grammar for a layout file by extension.
// Plain .js/.jsx files use the JavaScript grammar, which includes JSX.
func LanguageForPath(path string) Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".jsx", ".mjs", ".cjs":
		return JavaScript
	default:
		return TSX
	}
}

func (l Language) grammar() *sitter.Language {
	if l == JavaScript {
		return javascript.GetLanguage()
	}
	return tsx.GetLanguage()
}

// ErrEditCorrupted reports that applying edits produced unparseable source.
var ErrEditCorrupted = errors.New("edit produced invalid source")

// ParseError describes the first syntax error in a source file.
type ParseError struct {
	Line   int // 1-based
	Column int // 1-based, in bytes
	Kind   string
	Near   string
}

func (e *ParseError) Error() string {
	if e.Near == "" {
		return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Column, e.Kind)
	}
	return fmt.Sprintf("parse error at %d:%d: %s near %q", e.Line, e.Column, e.Kind, e.Near)
}

// Edit replaces src[Start:End] with Text. Start == End inserts.
type Edit struct {
	Start uint32
	End   uint32
	Text  string
}

// Document is the source text of one file together with the syntax tree
// parsed from it. Applying edits re-parses, so nodes obtained before an
// Apply must not be used after it.
type Document struct {
	lang   Language
	parser *sitter.Parser
	src    []byte
	tree   *sitter.Tree
}

// Parse parses src and fails with *ParseError when it is not valid.
func Parse(ctx context.Context, src []byte, lang Language) (*Document, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(lang.grammar())

	d := &Document{lang: lang, parser: parser}
	if err := d.reparse(ctx, src); err != nil {
		parser.Close()
		return nil, err
	}
	return d, nil
}

func (d *Document) reparse(ctx context.Context, src []byte) error {
	tree, err := d.parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if perr := firstError(tree.RootNode(), src); perr != nil {
		tree.Close()
		return perr
	}
	if d.tree != nil {
		d.tree.Close()
	}
	d.tree = tree
	d.src = src
	return nil
}

// Close releases the tree and parser.
func (d *Document) Close() {
	if d.tree != nil {
		d.tree.Close()
		d.tree = nil
	}
	d.parser.Close()
}

// Root returns the program node of the current tree.
func (d *Document) Root() *sitter.Node { return d.tree.RootNode() }

// Bytes returns the current source.
func (d *Document) Bytes() []byte { return d.src }

// Text returns the source text covered by n.
func (d *Document) Text(n *sitter.Node) string {
	return string(d.src[n.StartByte():n.EndByte()])
}

// Apply applies non-overlapping edits and re-parses the result.
func (d *Document) Apply(ctx context.Context, edits ...Edit) error {
	if len(edits) == 0 {
		return nil
	}
	sorted := append([]Edit(nil), edits...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var sb strings.Builder
	sb.Grow(len(d.src))
	var pos uint32
	for _, e := range sorted {
		if e.Start < pos || e.End < e.Start || int(e.End) > len(d.src) {
			return fmt.Errorf("%w: overlapping or out of range edit [%d,%d)", ErrEditCorrupted, e.Start, e.End)
		}
		sb.Write(d.src[pos:e.Start])
		sb.WriteString(e.Text)
		pos = e.End
	}
	sb.Write(d.src[pos:])

	if err := d.reparse(ctx, []byte(sb.String())); err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			return fmt.Errorf("%w: %v", ErrEditCorrupted, perr)
		}
		return err
	}
	return nil
}

// firstError returns the first ERROR or MISSING node in document order.
func firstError(root *sitter.Node, src []byte) *ParseError {
	if !root.HasError() {
		return nil
	}
	var found *sitter.Node
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if found != nil || n == nil {
			return
		}
		if n.Type() == "ERROR" || n.IsMissing() {
			found = n
			return
		}
		if !n.HasError() {
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	if found == nil {
		found = root
	}

	pt := found.StartPoint()
	perr := &ParseError{Line: int(pt.Row) + 1, Column: int(pt.Column) + 1, Kind: "unexpected syntax"}
	if found.IsMissing() {
		perr.Kind = "missing " + found.Type()
		return perr
	}
	near := string(src[found.StartByte():found.EndByte()])
	if i := strings.IndexByte(near, '\n'); i >= 0 {
		near = near[:i]
	}
	if len(near) > 40 {
		near = near[:40]
	}
	perr.Near = strings.TrimSpace(near)
	return perr
}

// DumpTree returns the S-expression of the parsed source.
// Useful for seeing which node kinds the grammar produces for a layout.
func DumpTree(ctx context.Context, src []byte, lang Language) (string, error) {
	d, err := Parse(ctx, src, lang)
	if err != nil {
		return "", err
	}
	defer d.Close()
	return d.Root().String(), nil
}

// namedChildren returns the named children of n, skipping comments.
func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, int(n.NamedChildCount()))
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c == nil || c.Type() == "comment" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// firstNamed returns the first non-comment named child of n.
func firstNamed(n *sitter.Node) *sitter.Node {
	if kids := namedChildren(n); len(kids) > 0 {
		return kids[0]
	}
	return nil
}

// unquote strips the delimiters of a string literal.
func unquote(s string) string {
	if len(s) >= 2 {
		switch s[0] {
		case '"', '\'', '`':
			if s[len(s)-1] == s[0] {
				return s[1 : len(s)-1]
			}
		}
	}
	return s
}
