// Package fsutil provides the size and age primitives shared by every
// provider and the application analyzer.
package fsutil

import (
	"io/fs"
	"os"
	"path/filepath"
)

// Size returns the byte size of a file, or the recursive sum of all regular
// files under a directory. Entries that cannot be statted or listed
// (permissions, races with concurrent deletion) contribute 0; a scan never
// fails because of a single bad entry.
func Size(path string) int64 {
	info, err := os.Lstat(path)
	if err != nil {
		return 0
	}
	if !info.IsDir() {
		return info.Size()
	}
	return DirSize(path)
}

// DirSize walks the tree rooted at path and sums the sizes of regular files.
// Symlinks are not followed, so the walk cannot loop.
func DirSize(path string) int64 {
	var total int64
	_ = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtree contributes nothing.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		total += info.Size()
		return nil
	})
	return total
}
