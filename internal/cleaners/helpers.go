package cleaners

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/devsweep/devsweep/internal/cleaner"
	"github.com/devsweep/devsweep/pkg/whitelist"
)

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

func isFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

// removePath deletes a file or directory tree after re-checking the
// whitelist. Callers rely on the ErrProtected sentinel to classify skips.
func removePath(wl *whitelist.Whitelist, path string, dryRun bool) error {
	if wl != nil && wl.Contains(path) {
		return fmt.Errorf("%s is whitelisted: %w", path, cleaner.ErrProtected)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if dryRun {
		return nil
	}
	log.Debug("removing", "path", path)
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}
