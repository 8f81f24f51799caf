//go:build darwin

package fsutil

import (
	"time"

	"golang.org/x/sys/unix"
)

// statTimes reads atime, mtime, ctime, and birthtime via unix.Stat and
// returns the most recent. Go's portable FileInfo only exposes mtime.
func statTimes(path string) (time.Time, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return time.Time{}, err
	}
	latest := time.Unix(st.Atimespec.Sec, st.Atimespec.Nsec)
	for _, ts := range []unix.Timespec{st.Mtimespec, st.Ctimespec, st.Birthtimespec} {
		t := time.Unix(ts.Sec, ts.Nsec)
		if t.After(latest) {
			latest = t
		}
	}
	return latest, nil
}
