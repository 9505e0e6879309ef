// Package project detects Next.js projects and locates their root layout.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fontmod/internal/logging"
)

// Framework identifies what kind of project a directory holds.
type Framework string

const (
	FrameworkNextApp   Framework = "next-app"
	FrameworkNextPages Framework = "next-pages"
	FrameworkUnknown   Framework = "unknown"
)

// ErrNoLayout is returned when an explicitly configured layout does not exist.
var ErrNoLayout = errors.New("layout file not found")

// Info describes a detected project.
type Info struct {
	Dir        string
	Framework  Framework
	LayoutPath string // absolute, empty unless Framework is next-app
	TSX        bool
	UtilsAlias string // aliases.utils from components.json, if any
}

var nextConfigs = []string{"next.config.js", "next.config.mjs", "next.config.ts", "next.config.cjs"}

var layoutNames = []string{"layout.tsx", "layout.jsx", "layout.js", "layout.ts"}

var appDirs = []string{"app", filepath.Join("src", "app")}

// Detect inspects dir and finds its root layout.
func Detect(dir string) (Info, error) {
	return DetectWithLayout(dir, "")
}

// DetectWithLayout is Detect with an explicit layout path relative to dir.
// When layout is set it must exist and the project is treated as an App
// Router project even if no Next.js marker is found.
func DetectWithLayout(dir, layout string) (Info, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Info{}, fmt.Errorf("resolve %s: %w", dir, err)
	}
	st, err := os.Stat(abs)
	if err != nil {
		return Info{}, fmt.Errorf("stat project: %w", err)
	}
	if !st.IsDir() {
		return Info{}, fmt.Errorf("project %s is not a directory", abs)
	}

	info := Info{Dir: abs, Framework: FrameworkUnknown}
	comps := readComponents(abs)
	info.UtilsAlias = comps.Aliases.Utils

	if layout != "" {
		path := layout
		if !filepath.IsAbs(path) {
			path = filepath.Join(abs, layout)
		}
		if _, err := os.Stat(path); err != nil {
			return info, fmt.Errorf("%w: %s", ErrNoLayout, path)
		}
		info.Framework = FrameworkNextApp
		info.LayoutPath = path
		info.TSX = isTSX(path, comps)
		logging.Project("%s: using configured layout %s", abs, path)
		return info, nil
	}

	if !isNext(abs) {
		logging.ProjectDebug("%s: no Next.js marker found", abs)
		return info, nil
	}
	info.Framework = FrameworkNextPages
	for _, app := range appDirs {
		for _, name := range layoutNames {
			path := filepath.Join(abs, app, name)
			if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
				info.Framework = FrameworkNextApp
				info.LayoutPath = path
				info.TSX = isTSX(path, comps)
				logging.Project("%s: %s layout at %s", abs, info.Framework, path)
				return info, nil
			}
		}
	}
	logging.Project("%s: Next.js without an app layout", abs)
	return info, nil
}

// isNext reports whether dir has a next.config file or depends on next.
func isNext(dir string) bool {
	for _, name := range nextConfigs {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return false
	}
	var pkg struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		logging.ProjectDebug("%s: unreadable package.json: %v", dir, err)
		return false
	}
	_, dep := pkg.Dependencies["next"]
	_, dev := pkg.DevDependencies["next"]
	return dep || dev
}

// components is the subset of shadcn's components.json that matters here.
type components struct {
	TSX     *bool `json:"tsx"`
	Aliases struct {
		Utils string `json:"utils"`
	} `json:"aliases"`
}

func readComponents(dir string) components {
	var c components
	data, err := os.ReadFile(filepath.Join(dir, "components.json"))
	if err != nil {
		return c
	}
	if err := json.Unmarshal(data, &c); err != nil {
		logging.ProjectDebug("%s: unreadable components.json: %v", dir, err)
	}
	return c
}

func isTSX(path string, c components) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsx", ".ts":
		return true
	case ".jsx", ".js":
		return false
	}
	return c.TSX == nil || *c.TSX
}
