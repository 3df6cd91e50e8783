package indexer

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/mvp-joe/project-callgraph/internal/indexer/parsers"
	ignore "github.com/sabhiram/go-gitignore"
)

// DefaultExcludeDirs are directory names never descended into.
var DefaultExcludeDirs = []string{
	"node_modules", ".git", "__pycache__", "venv", "env",
	"build", "dist", "target", ".idea", ".vscode", "bin", "obj",
}

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// SourceFile is an eligible file found under the root.
type SourceFile struct {
	Path     string // absolute
	RelPath  string // root-relative, slash separated
	Language parsers.Language
}

// FileDiscovery walks a root and selects files whose extension has a
// language variant, honoring exclude dirs, glob ignore patterns and
// optionally .gitignore.
type FileDiscovery struct {
	rootDir        string
	excludeDirs    map[string]bool
	ignorePatterns []compiledPattern
	gitignore      *ignore.GitIgnore
}

// NewFileDiscovery creates a new file discovery instance.
func NewFileDiscovery(rootDir string, excludeDirs, ignorePatterns []string, respectGitignore bool) (*FileDiscovery, error) {
	fd := &FileDiscovery{
		rootDir:     rootDir,
		excludeDirs: make(map[string]bool, len(excludeDirs)),
	}

	for _, dir := range excludeDirs {
		fd.excludeDirs[dir] = true
	}

	for _, pattern := range ignorePatterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		fd.ignorePatterns = append(fd.ignorePatterns, compiledPattern{pattern: pattern, glob: g})
	}

	if respectGitignore {
		gi, err := ignore.CompileIgnoreFile(filepath.Join(rootDir, ".gitignore"))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		fd.gitignore = gi
	}

	return fd, nil
}

// DiscoverFiles walks the directory tree and returns eligible files sorted by relative path.
func (fd *FileDiscovery) DiscoverFiles() ([]SourceFile, error) {
	files := []SourceFile{}

	err := filepath.WalkDir(fd.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(fd.rootDir, path)
		if err != nil {
			return err
		}
		// Normalize path separators for glob matching
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if relPath != "." && fd.skipDir(d.Name(), relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || fd.shouldIgnore(relPath, false) {
			return nil
		}

		lang, ok := parsers.DetectLanguage(relPath)
		if !ok {
			return nil
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		files = append(files, SourceFile{Path: abs, RelPath: relPath, Language: lang})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

// skipDir excludes configured names and hidden directories.
func (fd *FileDiscovery) skipDir(name, relPath string) bool {
	if fd.excludeDirs[name] || strings.HasPrefix(name, ".") {
		return true
	}
	return fd.shouldIgnore(relPath, true)
}

// shouldIgnore checks if a path matches any ignore pattern or .gitignore rule.
func (fd *FileDiscovery) shouldIgnore(relPath string, isDir bool) bool {
	if fd.gitignore != nil {
		candidate := relPath
		if isDir {
			candidate += "/"
		}
		if fd.gitignore.MatchesPath(candidate) {
			return true
		}
	}

	if fd.matchesAnyPattern(relPath) {
		return true
	}

	// A directory also matches patterns written as "dir/**".
	return isDir && fd.matchesAnyPattern(relPath+"/**")
}

// matchesAnyPattern checks if a path matches any of the ignore patterns.
func (fd *FileDiscovery) matchesAnyPattern(path string) bool {
	for _, cp := range fd.ignorePatterns {
		if cp.glob.Match(path) {
			return true
		}
	}

	// Root-level paths also match "**/" patterns with the prefix removed,
	// so "**/*_test.go" matches "main_test.go".
	if !strings.Contains(path, "/") {
		for _, cp := range fd.ignorePatterns {
			if strings.HasPrefix(cp.pattern, "**/") {
				if g, err := glob.Compile(strings.TrimPrefix(cp.pattern, "**/"), '/'); err == nil && g.Match(path) {
					return true
				}
			}
		}
	}

	return false
}

// statRoot verifies root is an existing directory.
func statRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fs.ErrInvalid
	}
	return abs, nil
}
