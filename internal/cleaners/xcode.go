package cleaners

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/devsweep/devsweep/internal/cleaner"
	"github.com/devsweep/devsweep/internal/fsutil"
	"github.com/devsweep/devsweep/pkg/whitelist"
)

// Xcode cleans derived data, old archives, device support files, and Xcode
// caches.
type Xcode struct {
	home string
	wl   *whitelist.Whitelist
}

func NewXcode(o Options) *Xcode {
	return &Xcode{home: o.Home, wl: o.Whitelist}
}

func (x *Xcode) Name() string { return "xcode" }

func (x *Xcode) Description() string {
	return "Cleans Xcode derived data, caches, old archives, and device support files"
}

func (x *Xcode) derivedDataDir() string {
	return filepath.Join(x.home, "Library", "Developer", "Xcode", "DerivedData")
}

func (x *Xcode) CheckPrerequisites(ctx context.Context) error {
	if runtime.GOOS != "darwin" {
		return fmt.Errorf("xcode cleaning requires macOS (running on %s)", runtime.GOOS)
	}
	if !isDir("/Applications/Xcode.app") && !isDir(x.derivedDataDir()) {
		return fmt.Errorf("Xcode does not appear to be installed")
	}
	return nil
}

func (x *Xcode) Discover(ctx context.Context, thresholdDays int) ([]cleaner.Item, error) {
	xcodeDir := filepath.Join(x.home, "Library", "Developer", "Xcode")

	var items []cleaner.Item
	items = append(items, itemsFromChildren(x.derivedDataDir(), "derived-data", thresholdDays)...)
	items = append(items, x.findArchives(filepath.Join(xcodeDir, "Archives"), thresholdDays)...)
	items = append(items, itemsFromChildren(filepath.Join(xcodeDir, "iOS DeviceSupport"), "device-support", thresholdDays)...)
	items = append(items, itemsFromChildren(filepath.Join(xcodeDir, "watchOS DeviceSupport"), "device-support", thresholdDays)...)

	cacheDir := filepath.Join(x.home, "Library", "Caches", "com.apple.dt.Xcode")
	if isDir(cacheDir) && fsutil.IsUnused(cacheDir, thresholdDays) {
		items = append(items, cleaner.Item{
			Kind:      "cache",
			Identity:  cacheDir,
			SizeBytes: fsutil.Size(cacheDir),
			AgeDays:   fsutil.AgeDays(cacheDir),
		})
	}
	return items, nil
}

// findArchives walks the date-named directories Xcode organizes archives
// into, collecting .xcarchive bundles past the threshold.
func (x *Xcode) findArchives(dir string, thresholdDays int) []cleaner.Item {
	dateDirs, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var items []cleaner.Item
	for _, dd := range dateDirs {
		if !dd.IsDir() {
			continue
		}
		datePath := filepath.Join(dir, dd.Name())
		if !dateDirPast(dd.Name(), datePath, thresholdDays) {
			continue
		}
		archives, err := os.ReadDir(datePath)
		if err != nil {
			continue
		}
		for _, a := range archives {
			if !strings.HasSuffix(a.Name(), ".xcarchive") {
				continue
			}
			path := filepath.Join(datePath, a.Name())
			if !fsutil.IsUnused(path, thresholdDays) {
				continue
			}
			items = append(items, cleaner.Item{
				Kind:      "archive",
				Identity:  path,
				SizeBytes: fsutil.Size(path),
				AgeDays:   fsutil.AgeDays(path),
			})
		}
	}
	return items
}

func (x *Xcode) CleanItem(ctx context.Context, item cleaner.Item, dryRun bool) error {
	return removePath(x.wl, item.Identity, dryRun)
}

func (x *Xcode) Describe(item cleaner.Item) string {
	label := map[string]string{
		"derived-data":   "Derived Data",
		"archive":        "Archive",
		"device-support": "Device Support",
		"cache":          "Xcode Cache",
	}[item.Kind]
	if label == "" {
		label = item.Kind
	}
	return fmt.Sprintf("%s: %s (%s, %d days old)",
		label, filepath.Base(item.Identity), humanize.IBytes(uint64(item.SizeBytes)), item.AgeDays)
}

// itemsFromChildren turns each sufficiently old child directory of dir into
// an item of the given kind.
func itemsFromChildren(dir, kind string, thresholdDays int) []cleaner.Item {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var items []cleaner.Item
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if !fsutil.IsUnused(path, thresholdDays) {
			continue
		}
		items = append(items, cleaner.Item{
			Kind:      kind,
			Identity:  path,
			SizeBytes: fsutil.Size(path),
			AgeDays:   fsutil.AgeDays(path),
		})
	}
	return items
}

// dateDirPast interprets the YYYY-MM-DD directory name Xcode uses, falling
// back to mtime when the name does not parse.
func dateDirPast(name, path string, thresholdDays int) bool {
	if t, err := time.Parse("2006-01-02", name); err == nil {
		return time.Since(t) >= time.Duration(thresholdDays)*24*time.Hour
	}
	return fsutil.IsUnused(path, thresholdDays)
}
