package codemod

import (
	"context"
	"strings"

	"fontmod/internal/fonts"
	"fontmod/internal/logging"

	sitter "github.com/smacker/go-tree-sitter"
)

// optionsLiteral renders the loader options in the fixed compact form:
// unquoted keys, single-quoted values, weight only when present, variable last.
func optionsLiteral(req fonts.FontRequest) string {
	var sb strings.Builder
	sb.WriteString("{subsets:")
	writeArray(&sb, req.Subsets)
	if len(req.Weights) > 0 {
		sb.WriteString(",weight:")
		writeArray(&sb, req.Weights)
	}
	sb.WriteString(",variable:'")
	sb.WriteString(req.CSSVariable)
	sb.WriteString("'}")
	return sb.String()
}

func writeArray(sb *strings.Builder, values []string) {
	sb.WriteByte('[')
	for i, v := range values {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('\'')
		sb.WriteString(v)
		sb.WriteByte('\'')
	}
	sb.WriteByte(']')
}

// loaderCall is the initializer a binding for req should have.
func loaderCall(req fonts.FontRequest) string {
	return req.ImportSymbol + "(" + optionsLiteral(req) + ")"
}

// ensureBinding creates or updates the loader binding for req and returns
// the identifier it is bound to.
func ensureBinding(ctx context.Context, d *Document, req fonts.FontRequest) (string, error) {
	name := req.BindingName()

	if decl, ok := d.findFontBinding(req.CSSVariable); ok {
		oldName := d.Text(decl.Name)
		var edits []Edit
		replace := !d.equivalentCall(decl.Value, req)
		if replace {
			edits = append(edits, Edit{Start: decl.Value.StartByte(), End: decl.Value.EndByte(), Text: loaderCall(req)})
		}
		if oldName != name {
			renames, ok := d.renameEdits(oldName, name)
			if !ok {
				// A local named `name` would capture a reference; keep
				// the existing name rather than change what it points to.
				logging.Codemod("cannot rename %s to %s without capture, keeping %s", oldName, name, oldName)
				name = oldName
				renames = nil
			} else {
				logging.CodemodDebug("renaming font binding %s -> %s", oldName, name)
			}
			var removed *Edit
			if other, taken := d.findBindingNamed(name); taken && name != oldName && other.Node.StartByte() != decl.Node.StartByte() {
				// The latest request owns the name; drop the other binding.
				logging.Codemod("removing binding %s, its name goes to %s", name, req.CSSVariable)
				e := d.removeDeclarator(other)
				removed = &e
				edits = append(edits, e)
			}
			for _, e := range renames {
				if replace && e.Start >= decl.Value.StartByte() && e.End <= decl.Value.EndByte() {
					continue
				}
				if removed != nil && e.Start >= removed.Start && e.End <= removed.End {
					continue
				}
				edits = append(edits, e)
			}
		}
		if len(edits) == 0 {
			logging.CodemodDebug("binding %s for %s up to date", name, req.CSSVariable)
		}
		return name, d.Apply(ctx, edits...)
	}

	if decl, ok := d.findBindingNamed(name); ok && decl.Value != nil {
		// The derived name is taken by a binding for another variable; the
		// latest request owns the name.
		logging.Codemod("replacing binding %s with %s for %s", name, req.ImportSymbol, req.CSSVariable)
		return name, d.Apply(ctx, Edit{Start: decl.Value.StartByte(), End: decl.Value.EndByte(), Text: loaderCall(req)})
	}

	st := d.detectStyle()
	stmt := "const " + name + " = " + loaderCall(req) + st.end()
	logging.CodemodDebug("adding %s", stmt)

	anchor := d.bindingAnchor()
	if anchor == nil {
		return name, d.Apply(ctx, Edit{Start: 0, End: 0, Text: stmt + "\n" + blankLineAfter(d.src, 0, 1)})
	}
	pos := lineEnd(d.src, anchor.EndByte())
	return name, d.Apply(ctx, Edit{Start: pos, End: pos, Text: "\n\n" + stmt + blankLineAfter(d.src, pos, 2)})
}

// bindingAnchor returns the last top-level statement that is an import or
// a font loader binding. New bindings go right after it so they stay
// grouped in request order.
func (d *Document) bindingAnchor() *sitter.Node {
	loaders := d.loaderLocals(fonts.LoaderModule)
	var anchor *sitter.Node
	for _, n := range namedChildren(d.Root()) {
		if n.Type() == "import_statement" {
			anchor = n
		}
	}
	for _, decl := range d.topLevelDeclarators() {
		if d.isLoaderCall(decl.Value, loaders) && (anchor == nil || decl.Statement.StartByte() > anchor.StartByte()) {
			anchor = decl.Statement
		}
	}
	return anchor
}

// equivalentCall reports whether value already calls req.ImportSymbol
// with exactly the requested options, whatever its formatting.
func (d *Document) equivalentCall(value *sitter.Node, req fonts.FontRequest) bool {
	if value == nil || value.Type() != "call_expression" {
		return false
	}
	fn := value.ChildByFieldName("function")
	if fn == nil || d.Text(fn) != req.ImportSymbol {
		return false
	}
	args := namedChildren(value.ChildByFieldName("arguments"))
	if len(args) != 1 || args[0].Type() != "object" {
		return false
	}

	seen := map[string]bool{}
	for _, pair := range namedChildren(args[0]) {
		if pair.Type() != "pair" {
			return false
		}
		key := d.propertyKey(pair)
		if seen[key] {
			return false
		}
		seen[key] = true
		val := pair.ChildByFieldName("value")
		switch key {
		case "subsets":
			if !d.stringArrayEquals(val, req.Subsets) {
				return false
			}
		case "weight":
			if !d.stringArrayEquals(val, req.Weights) {
				return false
			}
		case "variable":
			if s, ok := d.stringValue(val); !ok || s != req.CSSVariable {
				return false
			}
		default:
			return false
		}
	}
	return seen["subsets"] && seen["variable"] && seen["weight"] == (len(req.Weights) > 0)
}

func (d *Document) stringArrayEquals(n *sitter.Node, want []string) bool {
	if n == nil || n.Type() != "array" {
		return false
	}
	elems := namedChildren(n)
	if len(elems) != len(want) {
		return false
	}
	for i, e := range elems {
		if s, ok := d.stringValue(e); !ok || s != want[i] {
			return false
		}
	}
	return true
}

// removeDeclarator deletes a top-level declarator. When it is the only one
// in its statement the whole statement goes, with its line and one
// following blank line.
func (d *Document) removeDeclarator(decl declarator) Edit {
	if parent := decl.Node.Parent(); parent != nil && countNamed(parent, "variable_declarator") > 1 {
		if next := decl.Node.NextNamedSibling(); next != nil {
			return Edit{Start: decl.Node.StartByte(), End: next.StartByte()}
		}
		if prev := decl.Node.PrevNamedSibling(); prev != nil {
			return Edit{Start: prev.EndByte(), End: decl.Node.EndByte()}
		}
	}

	src := d.src
	start, end := decl.Statement.StartByte(), decl.Statement.EndByte()
	lineStart := start
	for lineStart > 0 && (src[lineStart-1] == ' ' || src[lineStart-1] == '\t') {
		lineStart--
	}
	if lineStart > 0 && src[lineStart-1] != '\n' {
		return Edit{Start: start, End: end}
	}
	end = lineEnd(src, end)
	for blank := 0; blank < 2; blank++ {
		if int(end) < len(src) && src[end] == '\r' {
			end++
		}
		if int(end) >= len(src) || src[end] != '\n' {
			break
		}
		end++
	}
	return Edit{Start: lineStart, End: end}
}

func countNamed(n *sitter.Node, typ string) int {
	c := 0
	for _, child := range namedChildren(n) {
		if child.Type() == typ {
			c++
		}
	}
	return c
}

// renameEdits renames a module-scope identifier and its references.
// Shorthand properties keep their key; JSX tag names and import
// specifiers are left alone. Functions that re-bind oldName are skipped.
// It reports false when a function binding newName references oldName,
// since renaming would capture that reference.
func (d *Document) renameEdits(oldName, newName string) ([]Edit, bool) {
	var edits []Edit
	captured := false
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		switch n.Type() {
		case "import_statement":
			return
		case "function_declaration", "generator_function_declaration", "function_expression",
			"function", "generator_function", "arrow_function", "method_definition":
			if d.scopeBinds(n, oldName) {
				return
			}
			if d.scopeBinds(n, newName) && d.mentions(n, oldName) {
				captured = true
				return
			}
		case "jsx_opening_element", "jsx_closing_element", "jsx_self_closing_element":
			// Tag names are identifiers too; only descend into attributes.
			for _, attr := range namedChildren(n) {
				if attr.Type() == "jsx_attribute" || attr.Type() == "jsx_expression" {
					walk(attr)
				}
			}
			return
		case "identifier":
			if d.Text(n) == oldName {
				edits = append(edits, Edit{Start: n.StartByte(), End: n.EndByte(), Text: newName})
			}
			return
		case "shorthand_property_identifier":
			if d.Text(n) == oldName {
				edits = append(edits, Edit{Start: n.StartByte(), End: n.EndByte(), Text: oldName + ": " + newName})
			}
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(d.Root())
	if captured {
		return nil, false
	}
	return edits, true
}

// scopeBinds reports whether fn declares name as a parameter or in the
// top level of its body.
func (d *Document) scopeBinds(fn *sitter.Node, name string) bool {
	params := fn.ChildByFieldName("parameters")
	if params == nil {
		params = fn.ChildByFieldName("parameter")
	}
	if params != nil && d.patternBinds(params, name) {
		return true
	}
	body := fn.ChildByFieldName("body")
	if body == nil || body.Type() != "statement_block" {
		return false
	}
	for _, stmt := range namedChildren(body) {
		switch stmt.Type() {
		case "lexical_declaration", "variable_declaration":
			for _, v := range namedChildren(stmt) {
				if v.Type() != "variable_declarator" {
					continue
				}
				if pat := v.ChildByFieldName("name"); pat != nil && d.patternBinds(pat, name) {
					return true
				}
			}
		case "function_declaration", "generator_function_declaration", "class_declaration":
			if id := stmt.ChildByFieldName("name"); id != nil && d.Text(id) == name {
				return true
			}
		}
	}
	return false
}

// patternBinds reports whether a parameter list or binding pattern
// introduces name. Default values and type annotations are not bindings.
func (d *Document) patternBinds(n *sitter.Node, name string) bool {
	switch n.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		return d.Text(n) == name
	case "type_annotation":
		return false
	}
	skipA, skipB := n.ChildByFieldName("value"), n.ChildByFieldName("right")
	for _, c := range namedChildren(n) {
		if (skipA != nil && c.Equal(skipA)) || (skipB != nil && c.Equal(skipB)) {
			continue
		}
		if d.patternBinds(c, name) {
			return true
		}
	}
	return false
}

// mentions reports whether any identifier under n reads name.
func (d *Document) mentions(n *sitter.Node, name string) bool {
	switch n.Type() {
	case "identifier", "shorthand_property_identifier":
		return d.Text(n) == name
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if d.mentions(n.Child(i), name) {
			return true
		}
	}
	return false
}
