// Package codemod rewrites a Next.js root layout so that it loads a set of
// Google fonts and applies their CSS variable classes to <html>.
//
// It operates on raw source bytes, preserving all formatting, comments and
// whitespace outside the rewritten ranges. Each step produces byte-range
// edits guided by the tree-sitter concrete syntax tree; the document is
// re-parsed after every step so later steps see earlier changes.
//
// Given
//
//	export default function RootLayout({ children }) {
//	  return <html lang="en"><body>{children}</body></html>
//	}
//
// and a request for Inter bound to --font-sans, UpdateFonts produces
//
//	import { Inter } from "next/font/google";
//
//	const inter = Inter({subsets:['latin'],variable:'--font-sans'});
//
//	export default function RootLayout({ children }) {
//	  return <html lang="en" className={inter.variable}><body>{children}</body></html>
//	}
//
// Running it again on its own output changes nothing.
package codemod

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"fontmod/internal/fonts"
	"fontmod/internal/logging"
)

// slowTransform is the duration past which a transform is logged as a
// warning.
const slowTransform = 250 * time.Millisecond

// DefaultUtilsModule is where the class helper is imported from when the
// caller does not say otherwise.
const DefaultUtilsModule = "@/lib/utils"

// Options control a transform.
type Options struct {
	Language Language
	// UtilsModule is the import path of the module exporting the class
	// helper. Empty means DefaultUtilsModule.
	UtilsModule string
}

// Result describes one transform.
type Result struct {
	Output   []byte
	Bindings []string       // binding names in request order
	Shape    AttributeShape // className shape found before rewriting
	Changed  bool
}

// UpdateFonts returns src rewritten to load fonts. It is a convenience
// wrapper around Transform.
func UpdateFonts(ctx context.Context, src []byte, reqs []fonts.FontRequest, opts Options) ([]byte, error) {
	res, err := Transform(ctx, src, reqs, opts)
	if err != nil {
		return nil, err
	}
	return res.Output, nil
}

// Transform runs the full pipeline: parse, then per font ensure the import
// and the binding, then rewrite the root className and import the helper if
// it was introduced. Invalid input fails with *ParseError and produces no
// output.
func Transform(ctx context.Context, src []byte, reqs []fonts.FontRequest, opts Options) (*Result, error) {
	if len(reqs) == 0 {
		return &Result{Output: src}, nil
	}
	if err := fonts.ValidateBatch(reqs); err != nil {
		return nil, err
	}
	utils := opts.UtilsModule
	if utils == "" {
		utils = DefaultUtilsModule
	}

	timer := logging.StartTimer(logging.CategoryCodemod, "transform")
	defer timer.StopWithThreshold(slowTransform)

	doc, err := Parse(ctx, src, opts.Language)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	names := make([]string, 0, len(reqs))
	for _, req := range reqs {
		if err := ensureNamedImport(ctx, doc, fonts.LoaderModule, req.ImportSymbol); err != nil {
			return nil, fmt.Errorf("import %s: %w", req.ImportSymbol, err)
		}
		name, err := ensureBinding(ctx, doc, req)
		if err != nil {
			return nil, fmt.Errorf("binding %s: %w", req.ImportSymbol, err)
		}
		names = append(names, name)
	}

	shape, usesHelper, err := rewriteRootClassName(ctx, doc, names)
	if err != nil {
		return nil, fmt.Errorf("rewrite className: %w", err)
	}
	if usesHelper {
		if err := ensureHelperImport(ctx, doc, utils); err != nil {
			return nil, fmt.Errorf("import %s: %w", HelperName, err)
		}
	}

	out := doc.Bytes()
	res := &Result{
		Output:   out,
		Bindings: names,
		Shape:    shape,
		Changed:  !bytes.Equal(out, src),
	}
	logging.Codemod("transform done: fonts=%v shape=%s changed=%v", names, shape, res.Changed)
	return res, nil
}
