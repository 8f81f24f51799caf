package cleaners

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/devsweep/devsweep/internal/cleaner"
	"github.com/devsweep/devsweep/internal/execx"
	"github.com/devsweep/devsweep/internal/fsutil"
	"github.com/devsweep/devsweep/pkg/whitelist"
)

const (
	downloadFloor = 1 << 20
	kegFloor      = 5 << 20
)

// Brew upgrades outdated Homebrew packages and removes stale cache downloads
// and abandoned kegs.
type Brew struct {
	run execx.Runner
	wl  *whitelist.Whitelist

	cacheDir  string
	cellarDir string
}

func NewBrew(o Options) *Brew {
	return &Brew{run: o.Runner, wl: o.Whitelist}
}

func (b *Brew) Name() string { return "brew" }

func (b *Brew) Description() string {
	return "Cleans Homebrew caches, downloads, and outdated package versions"
}

func (b *Brew) CheckPrerequisites(ctx context.Context) error {
	if _, err := b.run.Run(ctx, 10*time.Second, "brew", "--version"); err != nil {
		return fmt.Errorf("homebrew not available: %w", err)
	}
	cache, err := b.run.Run(ctx, 10*time.Second, "brew", "--cache")
	if err != nil {
		return fmt.Errorf("resolving brew cache directory: %w", err)
	}
	cellar, err := b.run.Run(ctx, 10*time.Second, "brew", "--cellar")
	if err != nil {
		return fmt.Errorf("resolving brew cellar directory: %w", err)
	}
	b.cacheDir = cache
	b.cellarDir = cellar
	return nil
}

func (b *Brew) Discover(ctx context.Context, thresholdDays int) ([]cleaner.Item, error) {
	var items []cleaner.Item
	items = append(items, b.findOutdated(ctx)...)
	items = append(items, b.findOldDownloads(thresholdDays)...)
	items = append(items, b.findAbandonedKegs(ctx, thresholdDays)...)
	return items, nil
}

func (b *Brew) CleanItem(ctx context.Context, item cleaner.Item, dryRun bool) error {
	switch item.Kind {
	case "outdated":
		if dryRun {
			return nil
		}
		return b.upgrade(ctx, item.Identity)
	case "download":
		return removePath(b.wl, item.Identity, dryRun)
	case "keg":
		parts := cleaner.SplitID(item.Identity)
		if len(parts) != 2 {
			return fmt.Errorf("malformed keg identity %q", item.Identity)
		}
		if dryRun {
			return nil
		}
		_, err := b.run.Run(ctx, 60*time.Second, "brew", "cleanup", parts[0], "--prune="+parts[1])
		return err
	default:
		return fmt.Errorf("unknown homebrew resource kind %q", item.Kind)
	}
}

func (b *Brew) Describe(item cleaner.Item) string {
	switch item.Kind {
	case "outdated":
		return fmt.Sprintf("Outdated package: %s (current: %s, latest: %s)",
			item.Identity, item.Meta("installed"), item.Meta("latest"))
	case "download":
		return fmt.Sprintf("Download: %s (%s, %d days old)",
			filepath.Base(item.Identity), humanize.IBytes(uint64(item.SizeBytes)), item.AgeDays)
	case "keg":
		parts := cleaner.SplitID(item.Identity)
		if len(parts) != 2 {
			return item.Identity
		}
		return fmt.Sprintf("Old keg: %s %s (%s)",
			parts[0], parts[1], humanize.IBytes(uint64(item.SizeBytes)))
	default:
		return item.Identity
	}
}

func (b *Brew) findOutdated(ctx context.Context) []cleaner.Item {
	out, err := b.run.Run(ctx, 30*time.Second, "brew", "outdated", "--json=v2")
	if err != nil {
		log.Warn("listing outdated packages failed", "err", err)
		return nil
	}
	return parseBrewOutdated(out)
}

func parseBrewOutdated(out string) []cleaner.Item {
	var data struct {
		Formulae []brewOutdatedEntry `json:"formulae"`
		Casks    []brewOutdatedEntry `json:"casks"`
	}
	if err := json.Unmarshal([]byte(out), &data); err != nil {
		log.Warn("parsing brew outdated output failed", "err", err)
		return nil
	}

	var items []cleaner.Item
	add := func(entries []brewOutdatedEntry, cask bool) {
		for _, e := range entries {
			installed := "unknown"
			if len(e.InstalledVersions) > 0 {
				installed = e.InstalledVersions[0]
			}
			items = append(items, cleaner.Item{
				Kind:     "outdated",
				Identity: e.Name,
				Metadata: map[string]string{
					"installed": installed,
					"latest":    e.CurrentVersion,
					"cask":      fmt.Sprintf("%t", cask),
				},
			})
		}
	}
	add(data.Formulae, false)
	add(data.Casks, true)
	return items
}

type brewOutdatedEntry struct {
	Name              string   `json:"name"`
	InstalledVersions []string `json:"installed_versions"`
	CurrentVersion    string   `json:"current_version"`
}

func (b *Brew) findOldDownloads(thresholdDays int) []cleaner.Item {
	entries, err := os.ReadDir(b.cacheDir)
	if err != nil {
		log.Warn("scanning brew cache failed", "dir", b.cacheDir, "err", err)
		return nil
	}
	var items []cleaner.Item
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(b.cacheDir, e.Name())
		if !fsutil.IsUnused(path, thresholdDays) {
			continue
		}
		size := fsutil.Size(path)
		if size < downloadFloor {
			continue
		}
		items = append(items, cleaner.Item{
			Kind:      "download",
			Identity:  path,
			SizeBytes: size,
			AgeDays:   fsutil.AgeDays(path),
		})
	}
	return items
}

// findAbandonedKegs looks for formulae carrying more than one installed
// version and reports the versions brew does not link.
func (b *Brew) findAbandonedKegs(ctx context.Context, thresholdDays int) []cleaner.Item {
	formulae, err := os.ReadDir(b.cellarDir)
	if err != nil {
		log.Warn("scanning brew cellar failed", "dir", b.cellarDir, "err", err)
		return nil
	}

	var items []cleaner.Item
	for _, f := range formulae {
		if !f.IsDir() {
			continue
		}
		formulaDir := filepath.Join(b.cellarDir, f.Name())
		versions, err := os.ReadDir(formulaDir)
		if err != nil || len(versions) <= 1 {
			continue
		}

		linked := b.linkedVersion(ctx, f.Name())
		for _, v := range versions {
			if !v.IsDir() || v.Name() == linked {
				continue
			}
			kegDir := filepath.Join(formulaDir, v.Name())
			if !fsutil.IsUnused(kegDir, thresholdDays) {
				continue
			}
			size := fsutil.Size(kegDir)
			if size < kegFloor {
				continue
			}
			items = append(items, cleaner.Item{
				Kind:      "keg",
				Identity:  cleaner.JoinID(f.Name(), v.Name()),
				SizeBytes: size,
				AgeDays:   fsutil.AgeDays(kegDir),
				Metadata:  map[string]string{"path": kegDir},
			})
		}
	}
	return items
}

func (b *Brew) linkedVersion(ctx context.Context, formula string) string {
	out, err := b.run.Run(ctx, 15*time.Second, "brew", "info", "--json=v2", formula)
	if err != nil {
		return ""
	}
	var data struct {
		Formulae []struct {
			LinkedKeg string `json:"linked_keg"`
		} `json:"formulae"`
	}
	if err := json.Unmarshal([]byte(out), &data); err != nil || len(data.Formulae) == 0 {
		return ""
	}
	return data.Formulae[0].LinkedKeg
}

func (b *Brew) upgrade(ctx context.Context, name string) error {
	args := []string{"upgrade"}
	if b.isCask(ctx, name) {
		args = append(args, "--cask")
	}
	args = append(args, name)
	_, err := b.run.Run(ctx, 5*time.Minute, "brew", args...)
	return err
}

func (b *Brew) isCask(ctx context.Context, name string) bool {
	out, err := b.run.Run(ctx, 15*time.Second, "brew", "info", "--json=v2", name)
	if err != nil {
		return false
	}
	var data struct {
		Casks []json.RawMessage `json:"casks"`
	}
	if err := json.Unmarshal([]byte(out), &data); err != nil {
		return false
	}
	return len(data.Casks) > 0
}
