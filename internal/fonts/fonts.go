// Package fonts describes the fonts a layout should load and how their
// loader bindings are named.
package fonts

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// LoaderModule is the module every Google font loader is imported from.
const LoaderModule = "next/font/google"

var (
	ErrInvalidRequest    = errors.New("invalid font request")
	ErrDuplicateVariable = errors.New("duplicate css variable")
	ErrBindingCollision  = errors.New("binding name collision")
)

// FontRequest is one font the caller wants present in the layout.
// CSSVariable identifies the font within a batch.
type FontRequest struct {
	ImportSymbol string   `yaml:"import" json:"import"`
	CSSVariable  string   `yaml:"variable" json:"variable"`
	Subsets      []string `yaml:"subsets" json:"subsets"`
	Weights      []string `yaml:"weight,omitempty" json:"weight,omitempty"`
}

// BindingName returns the identifier the loader result is bound to.
// Segments are split on underscores; the first is lower-cased and the rest
// are capitalised, e.g. Geist_Mono -> geistMono.
func BindingName(importSymbol string) string {
	var sb strings.Builder
	first := true
	for _, seg := range strings.Split(importSymbol, "_") {
		if seg == "" {
			continue
		}
		lower := strings.ToLower(seg)
		if first {
			sb.WriteString(lower)
			first = false
			continue
		}
		r, size := utf8.DecodeRuneInString(lower)
		sb.WriteRune(unicode.ToUpper(r))
		sb.WriteString(lower[size:])
	}
	return sb.String()
}

// BindingName returns the derived binding identifier for the request.
func (r FontRequest) BindingName() string {
	return BindingName(r.ImportSymbol)
}

// Validate checks a single request.
func (r FontRequest) Validate() error {
	if !isIdentifier(r.ImportSymbol) {
		return fmt.Errorf("%w: import %q is not an identifier", ErrInvalidRequest, r.ImportSymbol)
	}
	if name := r.BindingName(); name == "" || reserved[name] {
		return fmt.Errorf("%w: import %q derives unusable binding %q", ErrInvalidRequest, r.ImportSymbol, name)
	}
	if !strings.HasPrefix(r.CSSVariable, "--") || len(r.CSSVariable) < 3 {
		return fmt.Errorf("%w: variable %q must start with --", ErrInvalidRequest, r.CSSVariable)
	}
	if strings.ContainsAny(r.CSSVariable, "'\"\\ \t\n") {
		return fmt.Errorf("%w: variable %q contains quotes or whitespace", ErrInvalidRequest, r.CSSVariable)
	}
	if len(r.Subsets) == 0 {
		return fmt.Errorf("%w: %s has no subsets", ErrInvalidRequest, r.ImportSymbol)
	}
	for _, v := range append(append([]string{}, r.Subsets...), r.Weights...) {
		if v == "" || strings.ContainsAny(v, "'\\\n") {
			return fmt.Errorf("%w: %s has malformed value %q", ErrInvalidRequest, r.ImportSymbol, v)
		}
	}
	return nil
}

// ValidateBatch validates every request and rejects batches where two
// requests share a css variable or derive the same binding name.
func ValidateBatch(reqs []FontRequest) error {
	vars := make(map[string]string, len(reqs))
	names := make(map[string]string, len(reqs))
	for _, r := range reqs {
		if err := r.Validate(); err != nil {
			return err
		}
		if prev, ok := vars[r.CSSVariable]; ok {
			return fmt.Errorf("%w: %s used by %s and %s", ErrDuplicateVariable, r.CSSVariable, prev, r.ImportSymbol)
		}
		vars[r.CSSVariable] = r.ImportSymbol

		name := r.BindingName()
		if prev, ok := names[name]; ok {
			return fmt.Errorf("%w: %s and %s both bind %s", ErrBindingCollision, prev, r.ImportSymbol, name)
		}
		names[name] = r.ImportSymbol
	}
	return nil
}

// ParseFlag parses the compact command-line form
// Symbol:--variable:subset[,subset][:weight[,weight]].
func ParseFlag(s string) (FontRequest, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 3 || len(parts) > 4 {
		return FontRequest{}, fmt.Errorf("%w: %q, want Symbol:--variable:subsets[:weights]", ErrInvalidRequest, s)
	}
	req := FontRequest{
		ImportSymbol: strings.TrimSpace(parts[0]),
		CSSVariable:  strings.TrimSpace(parts[1]),
		Subsets:      splitList(parts[2]),
	}
	if len(parts) == 4 {
		req.Weights = splitList(parts[3])
	}
	if err := req.Validate(); err != nil {
		return FontRequest{}, err
	}
	return req, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var reserved = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true, "do": true,
	"else": true, "enum": true, "export": true, "extends": true, "false": true,
	"finally": true, "for": true, "function": true, "if": true, "import": true,
	"in": true, "instanceof": true, "new": true, "null": true, "return": true,
	"super": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "var": true, "void": true, "while": true,
	"with": true, "yield": true, "let": true, "static": true, "await": true,
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}
