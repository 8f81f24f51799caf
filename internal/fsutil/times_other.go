//go:build !darwin

package fsutil

import (
	"os"
	"time"
)

// statTimes falls back to mtime on platforms without the darwin stat fields.
func statTimes(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}
