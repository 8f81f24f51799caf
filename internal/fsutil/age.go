package fsutil

import (
	"time"
)

// LastUsed returns the most recent of a path's access, modification, change,
// and creation timestamps. Compilers bump mtime, shells bump atime, and some
// tools touch neither consistently; taking the max avoids classifying a
// recently used entry as stale.
func LastUsed(path string) (time.Time, error) {
	return statTimes(path)
}

// IsUnused reports whether path has seen no activity for at least
// thresholdDays. On stat failure it returns false: never classify as unused
// when uncertain.
func IsUnused(path string, thresholdDays int) bool {
	last, err := LastUsed(path)
	if err != nil {
		return false
	}
	return time.Since(last) >= time.Duration(thresholdDays)*24*time.Hour
}

// AgeDays returns whole days since the path was last used, or 0 if the
// timestamps cannot be read.
func AgeDays(path string) int {
	last, err := LastUsed(path)
	if err != nil {
		return 0
	}
	days := int(time.Since(last).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
