package discover

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFiles_CppSources(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "main.cpp", "int main() {}")
	writeFile(t, dir, "include/a.hpp", "struct A {};")
	writeFile(t, dir, "README.md", "hello")
	writeFile(t, dir, ".hidden.h", "int x;")

	files, err := Files(dir, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("include", "a.hpp"), "main.cpp"}, files)
}

func TestFiles_SkipDirs(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "a.cc", "")
	writeFile(t, dir, "build/gen.cc", "")
	writeFile(t, dir, "cmake-build-debug/x.cc", "")
	writeFile(t, dir, ".cache/y.cc", "")

	files, err := Files(dir, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.cc"}, files)
}

func TestFiles_ExcludeAndExtensions(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "src/a.cpp", "")
	writeFile(t, dir, "src/a.gen.cpp", "")
	writeFile(t, dir, "third_party/lib.cpp", "")
	writeFile(t, dir, "src/b.ixx", "")

	files, err := Files(dir, Options{Exclude: []string{"third_party/", "*.gen.cpp"}})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("src", "a.cpp")}, files)

	files, err = Files(dir, Options{Extensions: []string{".ixx"}})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("src", "b.ixx")}, files)
}

func TestFiles_Gitignore(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, ".gitignore", "generated/\n")
	writeFile(t, dir, "keep.h", "")
	writeFile(t, dir, "generated/skip.h", "")

	files, err := Files(dir, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"keep.h"}, files)
}
