package cleaners

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/devsweep/devsweep/internal/cleaner"
	"github.com/devsweep/devsweep/internal/fsutil"
	"github.com/devsweep/devsweep/pkg/whitelist"
)

// Maven removes unused artifacts from the local Maven repository.
type Maven struct {
	home string
	wl   *whitelist.Whitelist
}

func NewMaven(o Options) *Maven {
	return &Maven{home: o.Home, wl: o.Whitelist}
}

func (m *Maven) Name() string { return "maven" }

func (m *Maven) Description() string {
	return "Removes unused Maven dependencies from the local repository"
}

// repoPath honors M2_HOME when it points at an existing repository,
// otherwise falls back to ~/.m2/repository.
func (m *Maven) repoPath() string {
	if m2 := os.Getenv("M2_HOME"); m2 != "" {
		custom := filepath.Join(m2, "repository")
		if isDir(custom) {
			return custom
		}
	}
	def := filepath.Join(m.home, ".m2", "repository")
	if isDir(def) {
		return def
	}
	return ""
}

func (m *Maven) CheckPrerequisites(ctx context.Context) error {
	if m.repoPath() == "" {
		return fmt.Errorf("maven repository not found at %s", filepath.Join(m.home, ".m2", "repository"))
	}
	return nil
}

func (m *Maven) Discover(ctx context.Context, thresholdDays int) ([]cleaner.Item, error) {
	repo := m.repoPath()
	if repo == "" {
		return nil, fmt.Errorf("maven repository not found")
	}

	var items []cleaner.Item
	err := filepath.WalkDir(repo, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if !isArtifactRoot(path) {
			return nil
		}
		// Artifact roots are the unit of deletion; no nested artifacts.
		if !fsutil.IsUnused(path, thresholdDays) {
			return filepath.SkipDir
		}
		items = append(items, cleaner.Item{
			Kind:      "artifact",
			Identity:  path,
			SizeBytes: fsutil.Size(path),
			AgeDays:   fsutil.AgeDays(path),
			Metadata:  map[string]string{"relpath": relTo(repo, path)},
		})
		return filepath.SkipDir
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", repo, err)
	}
	return items, nil
}

func (m *Maven) CleanItem(ctx context.Context, item cleaner.Item, dryRun bool) error {
	return removePath(m.wl, item.Identity, dryRun)
}

func (m *Maven) Describe(item cleaner.Item) string {
	return fmt.Sprintf("Maven artifact: %s (%s, %d days old)",
		item.Meta("relpath"), humanize.IBytes(uint64(item.SizeBytes)), item.AgeDays)
}

// isArtifactRoot reports whether dir directly contains a .jar or pom.xml.
func isArtifactRoot(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), ".jar") || e.Name() == "pom.xml" {
			return true
		}
	}
	return false
}

func relTo(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return rel
}
