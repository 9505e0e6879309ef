package codemod

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// importSpec is one `name as alias` entry of a named import list.
type importSpec struct {
	Name  string
	Alias string
}

// Local returns the identifier the specifier binds in the module scope.
func (s importSpec) Local() string {
	if s.Alias != "" {
		return s.Alias
	}
	return s.Name
}

// importDecl is a top-level import statement broken into its clause parts.
type importDecl struct {
	Node      *sitter.Node
	Source    string
	Default   *sitter.Node // default import identifier
	Named     *sitter.Node // named_imports
	Namespace bool
	TypeOnly  bool
	Specs     []importSpec
	SpecNodes []*sitter.Node
}

// hasValue reports whether the import binds name unaliased.
func (i importDecl) hasValue(name string) bool {
	for _, s := range i.Specs {
		if s.Name == name && s.Local() == name {
			return true
		}
	}
	return false
}

// bindsLocal reports whether the import binds local under any spelling.
func (i importDecl) bindsLocal(local string) bool {
	for _, s := range i.Specs {
		if s.Local() == local {
			return true
		}
	}
	return false
}

// topLevelImports returns every import statement directly under the program.
func (d *Document) topLevelImports() []importDecl {
	var out []importDecl
	for _, n := range namedChildren(d.Root()) {
		if n.Type() != "import_statement" {
			continue
		}
		out = append(out, d.decodeImport(n))
	}
	return out
}

func (d *Document) decodeImport(n *sitter.Node) importDecl {
	decl := importDecl{Node: n}
	if src := n.ChildByFieldName("source"); src != nil {
		decl.Source = unquote(d.Text(src))
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch c.Type() {
		case "type":
			if !c.IsNamed() {
				decl.TypeOnly = true
			}
		case "import_clause":
			d.decodeClause(c, &decl)
		}
	}
	return decl
}

func (d *Document) decodeClause(clause *sitter.Node, decl *importDecl) {
	for _, c := range namedChildren(clause) {
		switch c.Type() {
		case "identifier":
			decl.Default = c
		case "namespace_import":
			decl.Namespace = true
		case "named_imports":
			decl.Named = c
			for _, spec := range namedChildren(c) {
				if spec.Type() != "import_specifier" {
					continue
				}
				s := importSpec{}
				if name := spec.ChildByFieldName("name"); name != nil {
					s.Name = unquote(d.Text(name))
				}
				if alias := spec.ChildByFieldName("alias"); alias != nil {
					s.Alias = d.Text(alias)
				}
				decl.Specs = append(decl.Specs, s)
				decl.SpecNodes = append(decl.SpecNodes, spec)
			}
		}
	}
}

// importsFrom returns the value imports whose source is module.
func (d *Document) importsFrom(module string) []importDecl {
	var out []importDecl
	for _, imp := range d.topLevelImports() {
		if imp.Source == module && !imp.TypeOnly {
			out = append(out, imp)
		}
	}
	return out
}

// importedLocal reports whether any top-level import binds local.
func (d *Document) importedLocal(local string) bool {
	for _, imp := range d.topLevelImports() {
		if imp.TypeOnly {
			continue
		}
		if imp.bindsLocal(local) {
			return true
		}
		if imp.Default != nil && d.Text(imp.Default) == local {
			return true
		}
	}
	return false
}

// declaredLocal reports whether a top-level variable, function or class
// declaration binds local.
func (d *Document) declaredLocal(local string) bool {
	if _, ok := d.findBindingNamed(local); ok {
		return true
	}
	for _, stmt := range namedChildren(d.Root()) {
		decl := stmt
		if stmt.Type() == "export_statement" {
			if decl = stmt.ChildByFieldName("declaration"); decl == nil {
				continue
			}
		}
		switch decl.Type() {
		case "function_declaration", "generator_function_declaration", "class_declaration":
			if name := decl.ChildByFieldName("name"); name != nil && d.Text(name) == local {
				return true
			}
		}
	}
	return false
}

// declarator is a top-level `const|let|var name = value` binding.
type declarator struct {
	Statement *sitter.Node // lexical_declaration, variable_declaration or export_statement
	Node      *sitter.Node // variable_declarator
	Name      *sitter.Node
	Value     *sitter.Node
}

// topLevelDeclarators lists declarators of plain and exported variable
// statements at module scope, in source order.
func (d *Document) topLevelDeclarators() []declarator {
	var out []declarator
	for _, stmt := range namedChildren(d.Root()) {
		decl := stmt
		if stmt.Type() == "export_statement" {
			decl = stmt.ChildByFieldName("declaration")
			if decl == nil {
				continue
			}
		}
		if decl.Type() != "lexical_declaration" && decl.Type() != "variable_declaration" {
			continue
		}
		for _, v := range namedChildren(decl) {
			if v.Type() != "variable_declarator" {
				continue
			}
			name := v.ChildByFieldName("name")
			if name == nil || name.Type() != "identifier" {
				continue
			}
			out = append(out, declarator{
				Statement: stmt,
				Node:      v,
				Name:      name,
				Value:     v.ChildByFieldName("value"),
			})
		}
	}
	return out
}

// loaderOptions returns the object literal passed to a loader call, or nil
// when value is not a call with an object first argument.
func loaderOptions(value *sitter.Node) *sitter.Node {
	if value == nil || value.Type() != "call_expression" {
		return nil
	}
	args := value.ChildByFieldName("arguments")
	if args == nil || args.Type() != "arguments" {
		return nil
	}
	first := firstNamed(args)
	if first == nil || first.Type() != "object" {
		return nil
	}
	return first
}

// propertyKey returns the key of a pair, unquoting string keys.
func (d *Document) propertyKey(pair *sitter.Node) string {
	key := pair.ChildByFieldName("key")
	if key == nil {
		return ""
	}
	switch key.Type() {
	case "property_identifier", "identifier":
		return d.Text(key)
	case "string":
		return unquote(d.Text(key))
	}
	return ""
}

// stringValue returns the contents of a string literal (or a template
// literal without substitutions) and whether n was one.
func (d *Document) stringValue(n *sitter.Node) (string, bool) {
	if n == nil {
		return "", false
	}
	switch n.Type() {
	case "string":
		return unquote(d.Text(n)), true
	case "template_string":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if n.NamedChild(i).Type() == "template_substitution" {
				return "", false
			}
		}
		return unquote(d.Text(n)), true
	}
	return "", false
}

// callsWithVariable reports whether value is a call whose options object
// binds `variable` to exactly cssVariable.
func (d *Document) callsWithVariable(value *sitter.Node, cssVariable string) bool {
	opts := loaderOptions(value)
	if opts == nil {
		return false
	}
	for _, pair := range namedChildren(opts) {
		if pair.Type() != "pair" || d.propertyKey(pair) != "variable" {
			continue
		}
		if v, ok := d.stringValue(pair.ChildByFieldName("value")); ok && v == cssVariable {
			return true
		}
	}
	return false
}

// findFontBinding returns the top-level declarator whose loader call is
// configured with cssVariable.
func (d *Document) findFontBinding(cssVariable string) (declarator, bool) {
	for _, decl := range d.topLevelDeclarators() {
		if d.callsWithVariable(decl.Value, cssVariable) {
			return decl, true
		}
	}
	return declarator{}, false
}

// findBindingNamed returns the top-level declarator bound to name.
func (d *Document) findBindingNamed(name string) (declarator, bool) {
	for _, decl := range d.topLevelDeclarators() {
		if d.Text(decl.Name) == name {
			return decl, true
		}
	}
	return declarator{}, false
}

// isLoaderCall reports whether value calls a symbol imported from module.
func (d *Document) isLoaderCall(value *sitter.Node, loaders map[string]bool) bool {
	if value == nil || value.Type() != "call_expression" {
		return false
	}
	fn := value.ChildByFieldName("function")
	return fn != nil && fn.Type() == "identifier" && loaders[d.Text(fn)]
}

// loaderLocals returns the local names imported from module.
func (d *Document) loaderLocals(module string) map[string]bool {
	out := make(map[string]bool)
	for _, imp := range d.importsFrom(module) {
		for _, s := range imp.Specs {
			out[s.Local()] = true
		}
	}
	return out
}
