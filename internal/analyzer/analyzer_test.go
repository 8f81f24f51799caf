package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const demoPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>CFBundleIdentifier</key>
	<string>com.example.demo</string>
</dict>
</plist>
`

// fakeInstall fabricates a Demo.app bundle plus the Library entries the
// probes look for, and returns an Analyzer over them.
func fakeInstall(t *testing.T) *Analyzer {
	t.Helper()
	home := t.TempDir()
	appDir := filepath.Join(home, "apps")

	write := func(rel string, size int) {
		t.Helper()
		path := filepath.Join(home, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
	}

	bundle := filepath.Join(appDir, "Demo.app")
	require.NoError(t, os.MkdirAll(filepath.Join(bundle, "Contents", "MacOS"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(bundle, "Contents", "Info.plist"), []byte(demoPlist), 0o644))
	require.NoError(t, os.WriteFile(
		filepath.Join(bundle, "Contents", "MacOS", "demo"), make([]byte, 1000), 0o755))

	write("Library/Application Support/com.example.demo/data.db", 2000)
	write("Library/Caches/com.example.demo/blob", 500)
	write("Library/Caches/com.example.demo.helper/blob", 250)
	write("Library/Preferences/com.example.demo.plist", 100)
	write("Library/Preferences/com.example.demo.helper.plist", 50)
	write("Library/Logs/Demo/run.log", 300)
	write("Library/Logs/DiagnosticReports/Demo_2024-11-02.ips", 77)
	write("Library/Containers/com.example.demo/Data/state", 600)
	write("Library/Saved Application State/com.example.demo.savedState/windows.plist", 40)

	// Noise belonging to other apps must never be attributed to Demo.
	write("Library/Caches/com.other.tool/blob", 9999)
	write("Library/Preferences/com.other.tool.plist", 9999)

	return New(home, appDir)
}

func TestAnalyze_ResolvesNameCaseInsensitively(t *testing.T) {
	a := fakeInstall(t)

	report, err := a.Analyze(context.Background(), "demo")

	require.NoError(t, err)
	assert.Equal(t, "Demo", report.Name)
	assert.Equal(t, "com.example.demo", report.BundleID)
}

func TestAnalyze_UnknownApp(t *testing.T) {
	a := fakeInstall(t)

	_, err := a.Analyze(context.Background(), "Ghost")

	assert.ErrorContains(t, err, "not found")
}

func TestAnalyze_CategorySizes(t *testing.T) {
	a := fakeInstall(t)

	report, err := a.Analyze(context.Background(), "Demo")
	require.NoError(t, err)

	assert.Equal(t, int64(2000), report.Sizes[CategorySupport])
	assert.Equal(t, int64(750), report.Sizes[CategoryCache], "bundle id dir plus prefixed sibling")
	assert.Equal(t, int64(150), report.Sizes[CategoryPreferences], "primary plist plus prefixed plists")
	assert.Equal(t, int64(300), report.Sizes[CategoryLogs])
	assert.Equal(t, int64(77), report.Sizes[CategoryCrashes])
	assert.Equal(t, int64(600), report.Sizes[CategoryContainers])
	assert.Equal(t, int64(40), report.Sizes[CategorySavedState])
	assert.Greater(t, report.Sizes[CategoryApp], int64(1000))

	var sum int64
	for _, size := range report.Sizes {
		sum += size
	}
	assert.Equal(t, sum, report.TotalSize)
	assert.NotEmpty(t, report.Percentages)
}

func TestAnalyze_FallbackBundleID(t *testing.T) {
	home := t.TempDir()
	appDir := filepath.Join(home, "apps")
	bundle := filepath.Join(appDir, "No Meta.app")
	require.NoError(t, os.MkdirAll(filepath.Join(bundle, "Contents"), 0o755))

	a := New(home, appDir)
	report, err := a.Analyze(context.Background(), "No Meta")

	require.NoError(t, err)
	assert.Equal(t, "local.fallback.nometa", report.BundleID)
}

func TestAnalyzeAll_RanksBySize(t *testing.T) {
	a := fakeInstall(t)

	// Second, smaller bundle.
	small := filepath.Join(a.appDirs[0], "Tiny.app")
	require.NoError(t, os.MkdirAll(filepath.Join(small, "Contents"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(small, "Contents", "Info.plist"), []byte(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0"><dict><key>CFBundleIdentifier</key><string>com.example.tiny</string></dict></plist>`), 0o644))

	batch, err := a.AnalyzeAll(context.Background(), false)

	require.NoError(t, err)
	assert.Equal(t, 2, batch.AppCount)
	assert.Zero(t, batch.Errored)
	require.Len(t, batch.Apps, 2)
	assert.Equal(t, "Demo", batch.Apps[0].Name)
	assert.Equal(t, "Tiny", batch.Apps[1].Name)
	assert.Equal(t, batch.Apps[0].TotalSize+batch.Apps[1].TotalSize, batch.TotalSize)
}

func TestAnalyzeAll_NoBundles(t *testing.T) {
	home := t.TempDir()
	a := New(home, filepath.Join(home, "empty-apps"))

	_, err := a.AnalyzeAll(context.Background(), false)

	assert.Error(t, err)
}
