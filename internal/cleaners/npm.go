package cleaners

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/devsweep/devsweep/internal/cleaner"
	"github.com/devsweep/devsweep/internal/execx"
	"github.com/devsweep/devsweep/internal/fsutil"
	"github.com/devsweep/devsweep/pkg/whitelist"
)

const (
	npmCacheFloor    = 10 << 20
	nodeModulesFloor = 5 << 20
)

// NPM cleans the npm package cache and orphaned node_modules trees under the
// usual project directories.
type NPM struct {
	run  execx.Runner
	home string
	wl   *whitelist.Whitelist
}

func NewNPM(o Options) *NPM {
	return &NPM{run: o.Runner, home: o.Home, wl: o.Whitelist}
}

func (n *NPM) Name() string { return "npm" }

func (n *NPM) Description() string {
	return "Cleans npm caches and unused node_modules directories"
}

func (n *NPM) CheckPrerequisites(ctx context.Context) error {
	if _, err := n.run.Run(ctx, 10*time.Second, "npm", "--version"); err != nil {
		return fmt.Errorf("npm not available: %w", err)
	}
	return nil
}

func (n *NPM) Discover(ctx context.Context, thresholdDays int) ([]cleaner.Item, error) {
	var items []cleaner.Item

	cacheDir := filepath.Join(n.home, ".npm")
	if isDir(cacheDir) {
		size := fsutil.Size(cacheDir)
		if size >= npmCacheFloor && fsutil.IsUnused(cacheDir, thresholdDays) {
			items = append(items, cleaner.Item{
				Kind:      "npm-cache",
				Identity:  cacheDir,
				SizeBytes: size,
				AgeDays:   fsutil.AgeDays(cacheDir),
			})
		}
	}

	roots := existingDirs([]string{
		filepath.Join(n.home, "projects"),
		filepath.Join(n.home, "code"),
		filepath.Join(n.home, "Documents", "projects"),
		filepath.Join(n.home, "work"),
	}, n.home)

	scanDirs(roots, 8, func(dir string) {
		nm := filepath.Join(dir, "node_modules")
		if !isDir(nm) {
			return
		}
		// Orphaned: the owning project is gone but its modules remain.
		if isFile(filepath.Join(dir, "package.json")) {
			return
		}
		size := fsutil.Size(nm)
		if size < nodeModulesFloor {
			return
		}
		if !fsutil.IsUnused(nm, thresholdDays) {
			return
		}
		items = append(items, cleaner.Item{
			Kind:      "node-modules",
			Identity:  nm,
			SizeBytes: size,
			AgeDays:   fsutil.AgeDays(nm),
		})
	})

	return items, nil
}

func (n *NPM) CleanItem(ctx context.Context, item cleaner.Item, dryRun bool) error {
	switch item.Kind {
	case "npm-cache":
		if dryRun {
			return nil
		}
		_, err := n.run.Run(ctx, 60*time.Second, "npm", "cache", "clean", "--force")
		return err
	case "node-modules":
		return removePath(n.wl, item.Identity, dryRun)
	default:
		return fmt.Errorf("unknown npm resource kind %q", item.Kind)
	}
}

func (n *NPM) Describe(item cleaner.Item) string {
	label := "node_modules"
	if item.Kind == "npm-cache" {
		label = "NPM cache"
	}
	return fmt.Sprintf("%s: %s (%s, %d days old)",
		label, item.Identity, humanize.IBytes(uint64(item.SizeBytes)), item.AgeDays)
}
