package codemod

import (
	"context"
	"slices"
	"strings"

	"fontmod/internal/logging"

	sitter "github.com/smacker/go-tree-sitter"
)

// HelperName is the class-merging helper used when more than one class
// fragment must be combined.
const HelperName = "cn"

// AttributeShape classifies the root element's className value.
type AttributeShape int

const (
	ShapeAbsent AttributeShape = iota
	ShapeStringLiteral
	ShapeHelperCall
	ShapeSingleReference
	ShapeTemplateLiteral
	ShapeOtherExpression
)

var shapeNames = [...]string{
	ShapeAbsent:          "absent",
	ShapeStringLiteral:   "string-literal",
	ShapeHelperCall:      "helper-call",
	ShapeSingleReference: "single-reference",
	ShapeTemplateLiteral: "template-literal",
	ShapeOtherExpression: "other-expression",
}

func (s AttributeShape) String() string {
	if int(s) < len(shapeNames) {
		return shapeNames[s]
	}
	return "unknown"
}

// classAttr is the located className attribute of the root element.
type classAttr struct {
	Element *sitter.Node // opening or self-closing element
	Attr    *sitter.Node // jsx_attribute, nil when absent
	Value   *sitter.Node // string or jsx_expression, nil when valueless
	Expr    *sitter.Node // expression inside jsx_expression, or the string
	Shape   AttributeShape
}

// rootElement returns the opening (or self-closing) element of the first
// <html> element in document order.
func (d *Document) rootElement() *sitter.Node {
	var found *sitter.Node
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if found != nil {
			return
		}
		switch n.Type() {
		case "jsx_element":
			open := n.ChildByFieldName("open_tag")
			if open == nil {
				open = firstNamed(n)
			}
			if open != nil && d.elementName(open) == "html" {
				found = open
				return
			}
		case "jsx_self_closing_element":
			if d.elementName(n) == "html" {
				found = n
				return
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(d.Root())
	return found
}

func elementNameNode(el *sitter.Node) *sitter.Node {
	if name := el.ChildByFieldName("name"); name != nil {
		return name
	}
	if first := firstNamed(el); first != nil && first.Type() != "jsx_attribute" && first.Type() != "jsx_expression" {
		return first
	}
	return nil
}

func (d *Document) elementName(el *sitter.Node) string {
	if name := elementNameNode(el); name != nil {
		return d.Text(name)
	}
	return ""
}

// classNameAttr locates and classifies the className attribute of el.
func (d *Document) classNameAttr(el *sitter.Node) classAttr {
	ca := classAttr{Element: el, Shape: ShapeAbsent}
	for _, attr := range namedChildren(el) {
		if attr.Type() != "jsx_attribute" {
			continue
		}
		parts := namedChildren(attr)
		if len(parts) == 0 || d.Text(parts[0]) != "className" {
			continue
		}
		ca.Attr = attr
		if len(parts) > 1 {
			ca.Value = parts[1]
		}
		break
	}
	if ca.Value == nil {
		return ca
	}

	switch ca.Value.Type() {
	case "string":
		ca.Expr = ca.Value
		ca.Shape = ShapeStringLiteral
		return ca
	case "jsx_expression":
		ca.Expr = firstNamed(ca.Value)
	default:
		ca.Expr = ca.Value
		ca.Shape = ShapeOtherExpression
		return ca
	}
	if ca.Expr == nil {
		return ca
	}

	switch ca.Expr.Type() {
	case "string":
		ca.Shape = ShapeStringLiteral
	case "call_expression":
		ca.Shape = ShapeOtherExpression
		if fn := ca.Expr.ChildByFieldName("function"); fn != nil && fn.Type() == "identifier" && d.Text(fn) == HelperName {
			ca.Shape = ShapeHelperCall
		}
	case "member_expression":
		ca.Shape = ShapeOtherExpression
		if _, ok := d.fontRef(ca.Expr); ok {
			ca.Shape = ShapeSingleReference
		}
	case "template_string":
		ca.Shape = ShapeTemplateLiteral
	default:
		ca.Shape = ShapeOtherExpression
	}
	return ca
}

// fontRef reports whether n is `<identifier>.variable` and returns the
// identifier.
func (d *Document) fontRef(n *sitter.Node) (string, bool) {
	if n == nil || n.Type() != "member_expression" {
		return "", false
	}
	obj := n.ChildByFieldName("object")
	prop := n.ChildByFieldName("property")
	if obj == nil || prop == nil || obj.Type() != "identifier" || d.Text(prop) != "variable" {
		return "", false
	}
	// Reject optional chaining, `a?.variable` is not a plain reference.
	if strings.Contains(d.Text(n), "?.") {
		return "", false
	}
	return d.Text(obj), true
}

func refs(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = n + ".variable"
	}
	return out
}

func helperCall(args []string) string {
	return HelperName + "(" + strings.Join(args, ", ") + ")"
}

// rewriteRootClassName points the root element's className at every font
// binding. It reports the shape found and whether the helper was
// introduced or extended.
func rewriteRootClassName(ctx context.Context, d *Document, names []string) (AttributeShape, bool, error) {
	el := d.rootElement()
	if el == nil {
		logging.Codemod("no <html> element found, className left alone")
		return ShapeAbsent, false, nil
	}
	ca := d.classNameAttr(el)
	targets := refs(names)
	logging.CodemodDebug("root className shape: %s, targets: %v", ca.Shape, targets)

	expr, changed := d.classNameExpr(ca, names, targets)
	if !changed {
		return ca.Shape, false, nil
	}

	var edit Edit
	switch {
	case ca.Attr == nil:
		pos := elementNameNode(el).EndByte()
		for _, attr := range namedChildren(el) {
			if attr.EndByte() > pos && (attr.Type() == "jsx_attribute" || attr.Type() == "jsx_expression") {
				pos = attr.EndByte()
			}
		}
		edit = Edit{Start: pos, End: pos, Text: " className={" + expr + "}"}
	case ca.Value == nil:
		edit = Edit{Start: ca.Attr.StartByte(), End: ca.Attr.EndByte(), Text: "className={" + expr + "}"}
	case ca.Value.Type() != "jsx_expression" || ca.Expr == nil:
		edit = Edit{Start: ca.Value.StartByte(), End: ca.Value.EndByte(), Text: "{" + expr + "}"}
	default:
		edit = Edit{Start: ca.Expr.StartByte(), End: ca.Expr.EndByte(), Text: expr}
	}
	if err := d.Apply(ctx, edit); err != nil {
		return ca.Shape, false, err
	}
	return ca.Shape, strings.HasPrefix(expr, HelperName+"("), nil
}

// classNameExpr computes the new className expression for ca and whether
// it differs from the current one.
func (d *Document) classNameExpr(ca classAttr, names, targets []string) (string, bool) {
	direct := func() string {
		if len(targets) == 1 {
			return targets[0]
		}
		return helperCall(targets)
	}

	switch ca.Shape {
	case ShapeAbsent:
		return direct(), true

	case ShapeStringLiteral:
		raw := d.Text(ca.Expr)
		if strings.TrimSpace(unquote(raw)) == "" {
			return direct(), true
		}
		if ca.Value.Type() == "string" {
			raw = jsxStringToJS(raw)
		}
		return helperCall(append([]string{raw}, targets...)), true

	case ShapeHelperCall:
		args := namedChildren(ca.Expr.ChildByFieldName("arguments"))
		present := map[string]bool{}
		complete := true
		for _, a := range args {
			if obj, ok := d.fontRef(a); ok {
				// A repeated reference is left over from two bindings
				// merging into one name.
				if present[obj] {
					complete = false
				}
				present[obj] = true
			}
		}
		for _, n := range names {
			if !present[n] {
				complete = false
				break
			}
		}
		if complete {
			return "", false
		}
		var kept []string
		for _, a := range args {
			if _, ok := d.fontRef(a); !ok {
				kept = append(kept, d.Text(a))
			}
		}
		return helperCall(append(kept, targets...)), true

	case ShapeSingleReference:
		obj, _ := d.fontRef(ca.Expr)
		if slices.Contains(names, obj) {
			return "", false
		}
		return direct(), true

	case ShapeTemplateLiteral:
		statics, dynamics := d.splitTemplate(ca.Expr)
		args := make([]string, 0, len(statics)+len(dynamics)+len(targets))
		for _, s := range statics {
			args = append(args, `"`+strings.ReplaceAll(s, `"`, `\"`)+`"`)
		}
		have := map[string]bool{}
		for _, e := range dynamics {
			if have[e] {
				continue
			}
			args = append(args, e)
			have[e] = true
		}
		for _, t := range targets {
			if !have[t] {
				args = append(args, t)
			}
		}
		return helperCall(args), true

	default:
		raw := d.Text(ca.Expr)
		if ca.Expr.Type() == "sequence_expression" {
			raw = "(" + raw + ")"
		}
		return helperCall(append([]string{raw}, targets...)), true
	}
}

// jsxStringToJS turns a quoted JSX attribute string, which has no escape
// sequences, into an equivalent JavaScript string literal.
func jsxStringToJS(raw string) string {
	if len(raw) < 2 {
		return raw
	}
	q := raw[:1]
	body := raw[1 : len(raw)-1]
	body = strings.NewReplacer(`\`, `\\`, "\r", `\r`, "\n", `\n`).Replace(body)
	return q + body + q
}

// splitTemplate returns the whitespace-separated static tokens and the
// interpolated expressions of a template literal, each in source order.
func (d *Document) splitTemplate(tpl *sitter.Node) (statics, dynamics []string) {
	pos := tpl.StartByte() + 1
	end := tpl.EndByte() - 1
	for i := 0; i < int(tpl.NamedChildCount()); i++ {
		sub := tpl.NamedChild(i)
		if sub.Type() != "template_substitution" {
			continue
		}
		statics = append(statics, strings.Fields(string(d.src[pos:sub.StartByte()]))...)
		if e := firstNamed(sub); e != nil {
			dynamics = append(dynamics, d.Text(e))
		}
		pos = sub.EndByte()
	}
	if pos < end {
		statics = append(statics, strings.Fields(string(d.src[pos:end]))...)
	}
	return statics, dynamics
}

// ensureHelperImport imports the class helper from utils unless an import
// or a module-level declaration already binds it.
func ensureHelperImport(ctx context.Context, d *Document, utils string) error {
	if d.importedLocal(HelperName) || d.declaredLocal(HelperName) {
		return nil
	}
	return ensureNamedImport(ctx, d, utils, HelperName)
}
