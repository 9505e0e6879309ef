package codemod

import (
	"context"
	"fmt"
	"strings"

	"fontmod/internal/logging"

	sitter "github.com/smacker/go-tree-sitter"
)

// style is the punctuation convention new statements follow.
type style struct {
	quote byte
	semi  bool
}

// detectStyle copies quote and semicolon habits from the first import.
// Files without imports get double quotes and semicolons.
func (d *Document) detectStyle() style {
	st := style{quote: '"', semi: true}
	imports := d.topLevelImports()
	if len(imports) == 0 {
		return st
	}
	first := imports[0].Node
	if src := first.ChildByFieldName("source"); src != nil {
		if text := d.Text(src); len(text) > 0 && (text[0] == '\'' || text[0] == '"') {
			st.quote = text[0]
		}
	}
	st.semi = strings.HasSuffix(d.Text(first), ";")
	return st
}

func (st style) str(s string) string {
	q := string(st.quote)
	return q + strings.ReplaceAll(s, q, `\`+q) + q
}

func (st style) end() string {
	if st.semi {
		return ";"
	}
	return ""
}

// ensureNamedImport makes sure symbol is imported unaliased from module,
// extending an existing import of the module before adding a new one.
func ensureNamedImport(ctx context.Context, d *Document, module, symbol string) error {
	imports := d.importsFrom(module)
	for _, imp := range imports {
		if imp.hasValue(symbol) {
			logging.CodemodDebug("import %s from %s already present", symbol, module)
			return nil
		}
	}

	if edit, ok := extendImport(d, imports, symbol); ok {
		logging.CodemodDebug("extending import from %s with %s", module, symbol)
		return d.Apply(ctx, edit)
	}

	st := d.detectStyle()
	line := fmt.Sprintf("import { %s } from %s%s", symbol, st.str(module), st.end())
	logging.CodemodDebug("adding %s", line)
	return d.Apply(ctx, newImportEdit(d, line))
}

// extendImport returns an edit adding symbol to the first import that can
// take another named specifier.
func extendImport(d *Document, imports []importDecl, symbol string) (Edit, bool) {
	for _, imp := range imports {
		if imp.Named == nil {
			continue
		}
		if len(imp.SpecNodes) > 0 {
			last := imp.SpecNodes[len(imp.SpecNodes)-1]
			return Edit{Start: last.EndByte(), End: last.EndByte(), Text: ", " + symbol}, true
		}
		return Edit{Start: imp.Named.StartByte(), End: imp.Named.EndByte(), Text: "{ " + symbol + " }"}, true
	}
	for _, imp := range imports {
		if imp.Default != nil && !imp.Namespace {
			end := imp.Default.EndByte()
			return Edit{Start: end, End: end, Text: ", { " + symbol + " }"}, true
		}
	}
	for _, imp := range imports {
		if imp.Default == nil && !imp.Namespace {
			// Side-effect import: `import "module"`.
			src := imp.Node.ChildByFieldName("source")
			if src == nil {
				continue
			}
			text := fmt.Sprintf("import { %s } from %s", symbol, d.Text(src))
			if strings.HasSuffix(d.Text(imp.Node), ";") {
				text += ";"
			}
			return Edit{Start: imp.Node.StartByte(), End: imp.Node.EndByte(), Text: text}, true
		}
	}
	return Edit{}, false
}

// newImportEdit places a new import line after the last import, after the
// directive prologue, or at the start of the file.
func newImportEdit(d *Document, line string) Edit {
	imports := d.topLevelImports()
	if len(imports) > 0 {
		pos := lineEnd(d.src, imports[len(imports)-1].Node.EndByte())
		return Edit{Start: pos, End: pos, Text: "\n" + line}
	}

	var lastDirective *sitter.Node
	for _, n := range namedChildren(d.Root()) {
		if n.Type() != "expression_statement" {
			break
		}
		if e := firstNamed(n); e == nil || e.Type() != "string" {
			break
		}
		lastDirective = n
	}
	if lastDirective != nil {
		pos := lineEnd(d.src, lastDirective.EndByte())
		return Edit{Start: pos, End: pos, Text: "\n\n" + line + blankLineAfter(d.src, pos, 2)}
	}

	text := line + "\n"
	if len(d.src) > 0 && d.src[0] != '\n' {
		text += "\n"
	}
	return Edit{Start: 0, End: 0, Text: text}
}

// lineEnd moves pos past trailing whitespace and a line comment that share
// the statement's line, stopping before the newline.
func lineEnd(src []byte, pos uint32) uint32 {
	i := int(pos)
	for i < len(src) && (src[i] == ' ' || src[i] == '\t') {
		i++
	}
	if i+1 < len(src) && src[i] == '/' && src[i+1] == '/' {
		for i < len(src) && src[i] != '\n' && src[i] != '\r' {
			i++
		}
		return uint32(i)
	}
	if i >= len(src) || src[i] == '\n' || src[i] == '\r' {
		return uint32(i)
	}
	return pos
}

// blankLineAfter returns the newlines needed so that `want` newlines
// separate an insertion at pos from the code that follows it.
func blankLineAfter(src []byte, pos uint32, want int) string {
	rest := src[pos:]
	if len(rest) == 0 {
		return "\n"
	}
	have := 0
	for _, c := range rest {
		if c == '\n' {
			have++
		} else if c != '\r' {
			break
		}
	}
	if have >= want {
		return ""
	}
	return strings.Repeat("\n", want-have)
}
