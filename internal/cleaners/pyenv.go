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
	pipCacheFloor = 5 << 20
	pycacheFloor  = 512 << 10
	venvFloor     = 10 << 20
)

var venvNames = []string{
	"venv", "env", ".venv", ".env",
	".virtualenv", "virtualenv", "pyenv", ".pyenv",
}

// Pyenv cleans pip caches, __pycache__ directories, and abandoned virtual
// environments.
type Pyenv struct {
	run  execx.Runner
	home string
	wl   *whitelist.Whitelist
}

func NewPyenv(o Options) *Pyenv {
	return &Pyenv{run: o.Runner, home: o.Home, wl: o.Whitelist}
}

func (p *Pyenv) Name() string { return "pyenv" }

func (p *Pyenv) Description() string {
	return "Cleans Python caches, __pycache__ directories, and old virtual environments"
}

func (p *Pyenv) CheckPrerequisites(ctx context.Context) error {
	if _, err := p.run.Run(ctx, 10*time.Second, "python3", "--version"); err == nil {
		return nil
	}
	if _, err := p.run.Run(ctx, 10*time.Second, "python", "--version"); err == nil {
		return nil
	}
	return fmt.Errorf("python not available")
}

func (p *Pyenv) scanRoots() []string {
	return existingDirs([]string{
		p.home,
		filepath.Join(p.home, "projects"),
		filepath.Join(p.home, "work"),
		filepath.Join(p.home, "dev"),
		"/tmp",
	}, "")
}

func (p *Pyenv) Discover(ctx context.Context, thresholdDays int) ([]cleaner.Item, error) {
	var items []cleaner.Item
	items = append(items, p.findPipCaches(thresholdDays)...)

	roots := p.scanRoots()
	scanDirs(roots, 8, func(dir string) {
		items = append(items, p.inspectDir(dir, thresholdDays)...)
	})
	return items, nil
}

// inspectDir reports a __pycache__ child and any virtualenv children of dir
// that qualify for cleaning.
func (p *Pyenv) inspectDir(dir string, thresholdDays int) []cleaner.Item {
	var items []cleaner.Item

	pycache := filepath.Join(dir, "__pycache__")
	if isDir(pycache) && fsutil.IsUnused(pycache, thresholdDays) {
		if size := fsutil.Size(pycache); size >= pycacheFloor {
			items = append(items, cleaner.Item{
				Kind:      "pycache",
				Identity:  pycache,
				SizeBytes: size,
				AgeDays:   fsutil.AgeDays(pycache),
				Metadata:  map[string]string{"project": dir},
			})
		}
	}

	for _, name := range venvNames {
		venv := filepath.Join(dir, name)
		if !isVirtualEnv(venv) {
			continue
		}
		// Environments next to a live project get three times the grace
		// period before they are considered abandoned.
		effective := thresholdDays
		if hasProjectFile(dir) {
			effective = thresholdDays * 3
		}
		if !fsutil.IsUnused(venv, effective) {
			continue
		}
		size := fsutil.Size(venv)
		if size < venvFloor {
			continue
		}
		items = append(items, cleaner.Item{
			Kind:      "venv",
			Identity:  venv,
			SizeBytes: size,
			AgeDays:   fsutil.AgeDays(venv),
			Metadata:  map[string]string{"project": dir},
		})
	}
	return items
}

func (p *Pyenv) findPipCaches(thresholdDays int) []cleaner.Item {
	var items []cleaner.Item
	for _, sub := range []string{"wheels", "http"} {
		dir := filepath.Join(p.home, ".cache", "pip", sub)
		if !isDir(dir) {
			continue
		}
		if !fsutil.IsUnused(dir, thresholdDays) {
			continue
		}
		size := fsutil.Size(dir)
		if size < pipCacheFloor {
			continue
		}
		items = append(items, cleaner.Item{
			Kind:      "pip-cache",
			Identity:  dir,
			SizeBytes: size,
			AgeDays:   fsutil.AgeDays(dir),
		})
	}
	return items
}

func (p *Pyenv) CleanItem(ctx context.Context, item cleaner.Item, dryRun bool) error {
	return removePath(p.wl, item.Identity, dryRun)
}

func (p *Pyenv) Describe(item cleaner.Item) string {
	switch item.Kind {
	case "pip-cache":
		return fmt.Sprintf("Pip cache: %s (%s, %d days old)",
			filepath.Base(item.Identity), humanize.IBytes(uint64(item.SizeBytes)), item.AgeDays)
	case "pycache":
		return fmt.Sprintf("__pycache__: %s (%s, %d days old)",
			item.Meta("project"), humanize.IBytes(uint64(item.SizeBytes)), item.AgeDays)
	case "venv":
		return fmt.Sprintf("Virtual environment: %s (%s, %d days old)",
			item.Identity, humanize.IBytes(uint64(item.SizeBytes)), item.AgeDays)
	default:
		return item.Identity
	}
}

// isVirtualEnv checks for the interpreter a virtualenv always ships.
func isVirtualEnv(path string) bool {
	return isFile(filepath.Join(path, "bin", "python")) ||
		isFile(filepath.Join(path, "Scripts", "python.exe"))
}

// hasProjectFile looks for Python project markers in dir and its parent.
func hasProjectFile(dir string) bool {
	for range 2 {
		for _, marker := range []string{"requirements.txt", "pyproject.toml", "setup.py"} {
			if isFile(filepath.Join(dir, marker)) {
				return true
			}
		}
		dir = filepath.Dir(dir)
	}
	return false
}
