// Package analyzer maps installed application bundles to everything they
// leave on disk: support files, caches, preferences, logs, containers, saved
// state, and crash reports.
package analyzer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/schollz/progressbar/v3"

	"github.com/devsweep/devsweep/internal/fsutil"
)

// bundleBudget caps how long one bundle's analysis may take during a batch
// run. Past it the in-flight analysis is abandoned and the run moves on.
const bundleBudget = 30 * time.Second

// Analyzer probes the conventional ~/Library locations for each application's
// data categories.
type Analyzer struct {
	home    string
	library string
	appDirs []string
}

// New builds an Analyzer rooted at home. Application install directories
// default to /Applications and ~/Applications when none are given.
func New(home string, appDirs ...string) *Analyzer {
	if len(appDirs) == 0 {
		appDirs = []string{"/Applications", filepath.Join(home, "Applications")}
	}
	return &Analyzer{
		home:    home,
		library: filepath.Join(home, "Library"),
		appDirs: appDirs,
	}
}

func (a *Analyzer) CheckPrerequisites() error {
	if runtime.GOOS != "darwin" {
		return fmt.Errorf("application analysis requires macOS (running on %s)", runtime.GOOS)
	}
	for _, dir := range a.appDirs {
		if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
			return nil
		}
	}
	return fmt.Errorf("no application directory found (checked %v)", a.appDirs)
}

// Analyze resolves target to a single bundle and analyzes it. A target
// ending in .app is taken as a path; anything else is matched
// case-insensitively against the install directories.
func (a *Analyzer) Analyze(ctx context.Context, target string) (Report, error) {
	path, err := a.resolveTarget(target)
	if err != nil {
		return Report{}, err
	}
	return a.analyzeBundle(ctx, path), nil
}

// AnalyzeAll analyzes every installed bundle, sorted by total size
// descending. Bundles that exceed their time budget are dropped and counted
// in Errored. The progress bar is written to stderr when showProgress is set.
func (a *Analyzer) AnalyzeAll(ctx context.Context, showProgress bool) (BatchReport, error) {
	bundles := a.listBundles()
	if len(bundles) == 0 {
		return BatchReport{}, fmt.Errorf("no application bundles found in %v", a.appDirs)
	}

	var bar *progressbar.ProgressBar
	if showProgress {
		bar = progressbar.NewOptions(len(bundles),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("analyzing applications"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	// Bundle-ID cache for the duration of this batch; merged only from
	// bundles that finished in time.
	seen := make(map[string]string, len(bundles))

	var batch BatchReport
	for _, path := range bundles {
		report, ok := a.analyzeWithBudget(ctx, path)
		if bar != nil {
			_ = bar.Add(1)
		}
		if !ok {
			batch.Errored++
			continue
		}
		if prev, dup := seen[report.BundleID]; dup {
			log.Debug("skipping duplicate bundle", "id", report.BundleID, "path", path, "previous", prev)
			continue
		}
		seen[report.BundleID] = path
		batch.Apps = append(batch.Apps, report)
		batch.TotalSize += report.TotalSize
	}

	sort.Slice(batch.Apps, func(i, j int) bool {
		return batch.Apps[i].TotalSize > batch.Apps[j].TotalSize
	})
	batch.AppCount = len(batch.Apps)
	return batch, nil
}

// analyzeWithBudget runs one bundle's analysis under the batch deadline. On
// timeout the goroutine is abandoned; it touches nothing shared.
func (a *Analyzer) analyzeWithBudget(ctx context.Context, path string) (Report, bool) {
	ctx, cancel := context.WithTimeout(ctx, bundleBudget)
	defer cancel()

	ch := make(chan Report, 1)
	go func() {
		ch <- a.analyzeBundle(ctx, path)
	}()

	select {
	case report := <-ch:
		return report, true
	case <-ctx.Done():
		log.Warn("bundle analysis exceeded budget, skipping", "path", path)
		return Report{}, false
	}
}

func (a *Analyzer) resolveTarget(target string) (string, error) {
	if strings.HasSuffix(target, ".app") && strings.ContainsRune(target, os.PathSeparator) {
		if fi, err := os.Stat(target); err == nil && fi.IsDir() {
			return target, nil
		}
		return "", fmt.Errorf("application bundle not found: %s", target)
	}

	want := strings.ToLower(strings.TrimSuffix(target, ".app"))
	for _, dir := range a.appDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !strings.HasSuffix(e.Name(), ".app") {
				continue
			}
			if strings.ToLower(strings.TrimSuffix(e.Name(), ".app")) == want {
				return filepath.Join(dir, e.Name()), nil
			}
		}
	}
	return "", fmt.Errorf("application %q not found in %v", target, a.appDirs)
}

func (a *Analyzer) listBundles() []string {
	var bundles []string
	for _, dir := range a.appDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() && strings.HasSuffix(e.Name(), ".app") {
				bundles = append(bundles, filepath.Join(dir, e.Name()))
			}
		}
	}
	return bundles
}

// analyzeBundle measures the bundle itself and probes every data category
// using both the bundle identifier and the raw name as keys, since apps are
// inconsistent about which one they file their data under.
func (a *Analyzer) analyzeBundle(ctx context.Context, appPath string) Report {
	name := strings.TrimSuffix(filepath.Base(appPath), ".app")
	report := Report{
		Name:     name,
		BundleID: resolveBundleID(ctx, appPath),
		Path:     appPath,
	}
	report.addCategory(CategoryApp, fsutil.Size(appPath), appPath)

	a.probeSupport(&report)
	a.probeCaches(&report)
	a.probePreferences(&report)
	a.probeLogs(&report)
	a.probeCrashReports(&report)
	a.probeContainers(&report)
	a.probeSavedState(&report)

	report.finish()
	return report
}

// probeSupport checks ~/Library/Application Support under the bundle ID,
// then the app name.
func (a *Analyzer) probeSupport(r *Report) {
	dir := filepath.Join(a.library, "Application Support")
	for _, key := range []string{r.BundleID, r.Name} {
		path := filepath.Join(dir, key)
		if size := sizeIfExists(path); size > 0 {
			r.addCategory(CategorySupport, size, path)
			return
		}
	}
}

// probeCaches sums ~/Library/Caches entries for the bundle ID, the app name,
// and any <bundleID>.* siblings.
func (a *Analyzer) probeCaches(r *Report) {
	dir := filepath.Join(a.library, "Caches")
	var total int64
	var locations []string
	for _, key := range []string{r.BundleID, r.Name} {
		path := filepath.Join(dir, key)
		if size := sizeIfExists(path); size > 0 {
			total += size
			locations = append(locations, path)
		}
	}
	for _, path := range prefixedChildren(dir, r.BundleID+".", "") {
		total += fsutil.Size(path)
		locations = append(locations, path)
	}
	r.addCategory(CategoryCache, total, locations...)
}

// probePreferences collects <bundleID>.plist and <bundleID>.*.plist files.
func (a *Analyzer) probePreferences(r *Report) {
	dir := filepath.Join(a.library, "Preferences")
	var total int64
	var locations []string
	primary := filepath.Join(dir, r.BundleID+".plist")
	if size := sizeIfExists(primary); size > 0 {
		total += size
		locations = append(locations, primary)
	}
	for _, path := range prefixedChildren(dir, r.BundleID+".", ".plist") {
		if path == primary {
			continue
		}
		total += fsutil.Size(path)
		locations = append(locations, path)
	}
	r.addCategory(CategoryPreferences, total, locations...)
}

func (a *Analyzer) probeLogs(r *Report) {
	dir := filepath.Join(a.library, "Logs")
	var total int64
	var locations []string
	for _, key := range []string{r.BundleID, r.Name} {
		path := filepath.Join(dir, key)
		if size := sizeIfExists(path); size > 0 {
			total += size
			locations = append(locations, path)
		}
	}
	r.addCategory(CategoryLogs, total, locations...)
}

// probeCrashReports collects DiagnosticReports entries named after the app.
func (a *Analyzer) probeCrashReports(r *Report) {
	dir := filepath.Join(a.library, "Logs", "DiagnosticReports")
	var total int64
	var locations []string
	for _, path := range prefixedChildren(dir, r.Name+"_", "") {
		total += fsutil.Size(path)
		locations = append(locations, path)
	}
	r.addCategory(CategoryCrashes, total, locations...)
}

// probeContainers sums ~/Library/Containers/<bundleID> and <bundleID>.*.
func (a *Analyzer) probeContainers(r *Report) {
	dir := filepath.Join(a.library, "Containers")
	var total int64
	var locations []string
	primary := filepath.Join(dir, r.BundleID)
	if size := sizeIfExists(primary); size > 0 {
		total += size
		locations = append(locations, primary)
	}
	for _, path := range prefixedChildren(dir, r.BundleID+".", "") {
		total += fsutil.Size(path)
		locations = append(locations, path)
	}
	r.addCategory(CategoryContainers, total, locations...)
}

func (a *Analyzer) probeSavedState(r *Report) {
	path := filepath.Join(a.library, "Saved Application State", r.BundleID+".savedState")
	r.addCategory(CategorySavedState, sizeIfExists(path), path)
}

func sizeIfExists(path string) int64 {
	if _, err := os.Stat(path); err != nil {
		return 0
	}
	return fsutil.Size(path)
}

// prefixedChildren lists entries of dir whose name starts with prefix and
// ends with suffix.
func prefixedChildren(dir, prefix, suffix string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), prefix) && strings.HasSuffix(e.Name(), suffix) {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out
}
