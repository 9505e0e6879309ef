package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDetect_AppRouter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "next.config.mjs", "export default {}\n")
	layout := writeFile(t, dir, "app/layout.tsx", "export default function L() {}\n")

	info, err := Detect(dir)
	require.NoError(t, err)
	assert.Equal(t, FrameworkNextApp, info.Framework)
	assert.Equal(t, layout, info.LayoutPath)
	assert.True(t, info.TSX)
	assert.Empty(t, info.UtilsAlias)
}

func TestDetect_SrcAppAndPackageJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", `{"dependencies":{"next":"15.0.0","react":"19.0.0"}}`)
	layout := writeFile(t, dir, "src/app/layout.jsx", "export default function L() {}\n")

	info, err := Detect(dir)
	require.NoError(t, err)
	assert.Equal(t, FrameworkNextApp, info.Framework)
	assert.Equal(t, layout, info.LayoutPath)
	assert.False(t, info.TSX)
}

func TestDetect_PrefersAppOverSrcApp(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "next.config.js", "module.exports = {}\n")
	want := writeFile(t, dir, "app/layout.js", "")
	writeFile(t, dir, "src/app/layout.tsx", "")

	info, err := Detect(dir)
	require.NoError(t, err)
	assert.Equal(t, want, info.LayoutPath)
}

func TestDetect_PagesRouter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", `{"devDependencies":{"next":"14.2.0"}}`)
	writeFile(t, dir, "pages/_app.tsx", "")

	info, err := Detect(dir)
	require.NoError(t, err)
	assert.Equal(t, FrameworkNextPages, info.Framework)
	assert.Empty(t, info.LayoutPath)
}

func TestDetect_Unknown(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", `{"dependencies":{"vite":"5.0.0"}}`)
	writeFile(t, dir, "app/layout.tsx", "")

	info, err := Detect(dir)
	require.NoError(t, err)
	assert.Equal(t, FrameworkUnknown, info.Framework)
	assert.Empty(t, info.LayoutPath)
}

func TestDetect_MalformedPackageJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", `{not json`)

	info, err := Detect(dir)
	require.NoError(t, err)
	assert.Equal(t, FrameworkUnknown, info.Framework)
}

func TestDetect_ComponentsJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "next.config.ts", "")
	writeFile(t, dir, "app/layout.tsx", "")
	writeFile(t, dir, "components.json", `{"tsx":true,"aliases":{"components":"~/components","utils":"~/lib/utils"}}`)

	info, err := Detect(dir)
	require.NoError(t, err)
	assert.Equal(t, "~/lib/utils", info.UtilsAlias)
}

func TestDetectWithLayout(t *testing.T) {
	dir := t.TempDir()
	layout := writeFile(t, dir, "web/app/root.tsx", "")

	info, err := DetectWithLayout(dir, "web/app/root.tsx")
	require.NoError(t, err)
	assert.Equal(t, FrameworkNextApp, info.Framework)
	assert.Equal(t, layout, info.LayoutPath)

	_, err = DetectWithLayout(dir, "missing/layout.tsx")
	assert.ErrorIs(t, err, ErrNoLayout)
}

func TestDetect_NotADirectory(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "file.txt", "x")

	_, err := Detect(file)
	assert.Error(t, err)

	_, err = Detect(filepath.Join(dir, "nope"))
	assert.Error(t, err)
}
