package cleaners

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// Directory names never descended into when scanning project trees.
var scanExclude = map[string]bool{
	"node_modules":  true,
	"Library":       true,
	"Movies":        true,
	"Music":         true,
	"Pictures":      true,
	"Applications":  true,
	".Trash":        true,
	"site-packages": true,
}

// scanDirs walks each existing root up to maxDepth levels down, pruning
// excluded names, and calls visit with every directory it enters. Walk errors
// are logged and the scan moves on.
func scanDirs(roots []string, maxDepth int, visit func(dir string)) {
	for _, root := range roots {
		base := strings.Count(filepath.Clean(root), string(filepath.Separator))
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if !d.IsDir() {
				return nil
			}
			if path != root && scanExclude[d.Name()] {
				return fs.SkipDir
			}
			depth := strings.Count(filepath.Clean(path), string(filepath.Separator)) - base
			if depth > maxDepth {
				return fs.SkipDir
			}
			visit(path)
			return nil
		})
		if err != nil {
			log.Debug("scan aborted", "root", root, "err", err)
		}
	}
}

// existingDirs filters paths down to those that exist as directories,
// falling back to fallback when none do.
func existingDirs(paths []string, fallback string) []string {
	var out []string
	for _, p := range paths {
		if isDir(p) {
			out = append(out, p)
		}
	}
	if len(out) == 0 && fallback != "" && isDir(fallback) {
		out = []string{fallback}
	}
	return out
}
