package cleaners

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/devsweep/devsweep/internal/cleaner"
	"github.com/devsweep/devsweep/internal/execx"
	"github.com/devsweep/devsweep/internal/fsutil"
	"github.com/devsweep/devsweep/pkg/whitelist"
)

const (
	deviceFloor   = 50 << 20
	simCacheFloor = 20 << 20
	simLogFloor   = 5 << 20
)

// Simulator erases unused iOS simulator devices and removes CoreSimulator
// caches and logs.
type Simulator struct {
	run  execx.Runner
	home string
	wl   *whitelist.Whitelist
}

func NewSimulator(o Options) *Simulator {
	return &Simulator{run: o.Runner, home: o.Home, wl: o.Whitelist}
}

func (s *Simulator) Name() string { return "simulator" }

func (s *Simulator) Description() string {
	return "Cleans unused iOS simulator devices, old runtimes, and caches"
}

func (s *Simulator) coreSimDir() string {
	return filepath.Join(s.home, "Library", "Developer", "CoreSimulator")
}

func (s *Simulator) CheckPrerequisites(ctx context.Context) error {
	if runtime.GOOS != "darwin" {
		return fmt.Errorf("simulator cleaning requires macOS (running on %s)", runtime.GOOS)
	}
	if _, err := s.run.Run(ctx, 10*time.Second, "xcrun", "simctl", "list"); err != nil {
		return fmt.Errorf("simctl not available: %w", err)
	}
	if !isDir(s.coreSimDir()) {
		return fmt.Errorf("simulator directory not found: %s", s.coreSimDir())
	}
	return nil
}

func (s *Simulator) Discover(ctx context.Context, thresholdDays int) ([]cleaner.Item, error) {
	var items []cleaner.Item
	items = append(items, s.findUnusedDevices(ctx, thresholdDays)...)
	items = append(items, s.findCaches(thresholdDays)...)
	items = append(items, s.findLogs(thresholdDays)...)
	return items, nil
}

func (s *Simulator) CleanItem(ctx context.Context, item cleaner.Item, dryRun bool) error {
	switch item.Kind {
	case "device":
		if s.bootedDevices(ctx)[item.Identity] {
			return fmt.Errorf("device %s is booted: %w", item.Identity, cleaner.ErrInUse)
		}
		if dryRun {
			return nil
		}
		_, err := s.run.Run(ctx, 60*time.Second, "xcrun", "simctl", "erase", item.Identity)
		return err
	case "cache", "log":
		return removePath(s.wl, item.Identity, dryRun)
	default:
		return fmt.Errorf("unknown simulator resource kind %q", item.Kind)
	}
}

func (s *Simulator) Describe(item cleaner.Item) string {
	switch item.Kind {
	case "device":
		return fmt.Sprintf("Simulator device: %s (%s, %s, %d days old)",
			item.Meta("name"), item.Meta("runtime"), humanize.IBytes(uint64(item.SizeBytes)), item.AgeDays)
	case "cache":
		return fmt.Sprintf("Simulator cache: %s (%s, %d days old)",
			filepath.Base(item.Identity), humanize.IBytes(uint64(item.SizeBytes)), item.AgeDays)
	case "log":
		return fmt.Sprintf("Simulator log: %s (%s, %d days old)",
			filepath.Base(item.Identity), humanize.IBytes(uint64(item.SizeBytes)), item.AgeDays)
	default:
		return item.Identity
	}
}

type simDevice struct {
	UDID        string `json:"udid"`
	State       string `json:"state"`
	IsAvailable bool   `json:"isAvailable"`
	Name        string `json:"name"`
}

func parseSimDevices(out string) map[string][]simDevice {
	var data struct {
		Devices map[string][]simDevice `json:"devices"`
	}
	if err := json.Unmarshal([]byte(out), &data); err != nil {
		log.Warn("parsing simctl output failed", "err", err)
		return nil
	}
	return data.Devices
}

func (s *Simulator) findUnusedDevices(ctx context.Context, thresholdDays int) []cleaner.Item {
	out, err := s.run.Run(ctx, 20*time.Second, "xcrun", "simctl", "list", "devices", "-j")
	if err != nil {
		log.Warn("listing simulator devices failed", "err", err)
		return nil
	}

	devicesDir := filepath.Join(s.coreSimDir(), "Devices")
	var items []cleaner.Item
	for rt, devices := range parseSimDevices(out) {
		runtimeName := strings.TrimPrefix(rt, "com.apple.CoreSimulator.SimRuntime.")
		for _, dev := range devices {
			if dev.State == "Booted" {
				continue
			}
			dir := filepath.Join(devicesDir, dev.UDID)
			if !isDir(dir) {
				continue
			}
			if !fsutil.IsUnused(dir, thresholdDays) {
				continue
			}
			size := fsutil.Size(dir)
			if size < deviceFloor {
				continue
			}
			items = append(items, cleaner.Item{
				Kind:      "device",
				Identity:  dev.UDID,
				SizeBytes: size,
				AgeDays:   fsutil.AgeDays(dir),
				Metadata: map[string]string{
					"name":    dev.Name,
					"runtime": runtimeName,
				},
			})
		}
	}
	return items
}

func (s *Simulator) bootedDevices(ctx context.Context) map[string]bool {
	booted := make(map[string]bool)
	out, err := s.run.Run(ctx, 20*time.Second, "xcrun", "simctl", "list", "devices", "-j")
	if err != nil {
		return booted
	}
	for _, devices := range parseSimDevices(out) {
		for _, dev := range devices {
			if dev.State == "Booted" {
				booted[dev.UDID] = true
			}
		}
	}
	return booted
}

func (s *Simulator) findCaches(thresholdDays int) []cleaner.Item {
	dyldCache := filepath.Join(s.coreSimDir(), "Caches", "dyld")
	cacheDirs := []string{
		filepath.Join(s.home, "Library", "Caches", "com.apple.CoreSimulator"),
		dyldCache,
	}

	var items []cleaner.Item
	for _, dir := range cacheDirs {
		if !isDir(dir) {
			continue
		}
		if fsutil.IsUnused(dir, thresholdDays) {
			if size := fsutil.Size(dir); size >= simCacheFloor {
				items = append(items, cleaner.Item{
					Kind:      "cache",
					Identity:  dir,
					SizeBytes: size,
					AgeDays:   fsutil.AgeDays(dir),
				})
				continue
			}
		}
		// The whole tree did not qualify; per-runtime dyld caches are
		// independently removable.
		if dir == dyldCache {
			items = append(items, s.findRuntimeCaches(dir, thresholdDays)...)
		}
	}
	return items
}

func (s *Simulator) findRuntimeCaches(dir string, thresholdDays int) []cleaner.Item {
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
		size := fsutil.Size(path)
		if size < simCacheFloor {
			continue
		}
		items = append(items, cleaner.Item{
			Kind:      "cache",
			Identity:  path,
			SizeBytes: size,
			AgeDays:   fsutil.AgeDays(path),
		})
	}
	return items
}

func (s *Simulator) findLogs(thresholdDays int) []cleaner.Item {
	logsDir := filepath.Join(s.home, "Library", "Logs", "CoreSimulator")
	entries, err := os.ReadDir(logsDir)
	if err != nil {
		return nil
	}
	var items []cleaner.Item
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := filepath.Join(logsDir, e.Name())
		if !fsutil.IsUnused(path, thresholdDays) {
			continue
		}
		size := fsutil.Size(path)
		if size < simLogFloor {
			continue
		}
		items = append(items, cleaner.Item{
			Kind:      "log",
			Identity:  path,
			SizeBytes: size,
			AgeDays:   fsutil.AgeDays(path),
		})
	}
	return items
}
