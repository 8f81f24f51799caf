package analyzer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"howett.net/plist"
)

// plistReadBudget caps how long a single Info.plist read may take. Bundles on
// network volumes or with damaged metadata can hang the reader.
const plistReadBudget = 5 * time.Second

type infoPlist struct {
	CFBundleIdentifier string `plist:"CFBundleIdentifier"`
}

// bundleID reads CFBundleIdentifier from the bundle's Info.plist. The read
// runs in its own goroutine; on deadline it is abandoned and an error
// returned so the caller can fall back to a synthesized identifier.
func bundleID(ctx context.Context, appPath string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, plistReadBudget)
	defer cancel()

	type result struct {
		id  string
		err error
	}
	ch := make(chan result, 1)
	go func() {
		id, err := readBundleID(appPath)
		ch <- result{id, err}
	}()

	select {
	case res := <-ch:
		return res.id, res.err
	case <-ctx.Done():
		return "", fmt.Errorf("reading Info.plist of %s: %w", appPath, ctx.Err())
	}
}

func readBundleID(appPath string) (string, error) {
	path := filepath.Join(appPath, "Contents", "Info.plist")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	var info infoPlist
	if _, err := plist.Unmarshal(data, &info); err != nil {
		return "", fmt.Errorf("decoding %s: %w", path, err)
	}
	if info.CFBundleIdentifier == "" {
		return "", fmt.Errorf("%s has no CFBundleIdentifier", path)
	}
	return info.CFBundleIdentifier, nil
}

// fallbackBundleID synthesizes a deterministic identifier for bundles whose
// metadata cannot be read.
func fallbackBundleID(appName string) string {
	return "local.fallback." + strings.ReplaceAll(strings.ToLower(appName), " ", "")
}

// resolveBundleID returns the bundle's real identifier or, failing that, the
// synthesized fallback.
func resolveBundleID(ctx context.Context, appPath string) string {
	id, err := bundleID(ctx, appPath)
	if err != nil {
		name := strings.TrimSuffix(filepath.Base(appPath), ".app")
		id = fallbackBundleID(name)
		log.Debug("using synthesized bundle identifier", "app", appPath, "id", id, "err", err)
	}
	return id
}
