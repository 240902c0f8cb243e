// Package discover finds the C++ sources under a directory.
package discover

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/jward/cppmodel/internal/cppparse"
)

var skipDirs = map[string]struct{}{
	".git":         {},
	".hg":          {},
	".svn":         {},
	".cache":       {},
	"node_modules": {},
	"build":        {},
	"out":          {},
	"CMakeFiles":   {},
}

// Options narrows discovery.
type Options struct {
	// Extensions overrides cppparse.DefaultExtensions.
	Extensions []string
	// Exclude holds gitignore-style patterns relative to root.
	Exclude []string
}

// Files returns the source files under root, relative to root and sorted.
// In a git work tree only tracked and unignored-untracked files count;
// elsewhere root/.gitignore is honoured if present.
func Files(root string, opts Options) ([]string, error) {
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = cppparse.DefaultExtensions
	}
	var excluded *ignore.GitIgnore
	if len(opts.Exclude) > 0 {
		excluded = ignore.CompileIgnoreLines(opts.Exclude...)
	}
	gitFiles := gitLsFiles(root)
	var gi *ignore.GitIgnore
	if gitFiles == nil {
		gi = loadGitignore(root)
	}

	var results []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors
		}
		name := d.Name()

		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "cmake-build-") {
				return filepath.SkipDir
			}
			if rel, err := filepath.Rel(root, path); err == nil && excluded != nil && excluded.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") || d.Type()&os.ModeSymlink != 0 {
			return nil
		}
		if !cppparse.IsSource(name, exts) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if gitFiles != nil {
			if _, ok := gitFiles[filepath.ToSlash(rel)]; !ok {
				return nil
			}
		} else if gi != nil && gi.MatchesPath(rel) {
			return nil
		}
		if excluded != nil && excluded.MatchesPath(rel) {
			return nil
		}

		results = append(results, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(results)
	return results, nil
}

func gitLsFiles(root string) map[string]struct{} {
	info, err := os.Stat(filepath.Join(root, ".git"))
	if err != nil || !info.IsDir() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return nil
	}

	files := make(map[string]struct{})
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if line != "" {
			files[line] = struct{}{}
		}
	}
	return files
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}
