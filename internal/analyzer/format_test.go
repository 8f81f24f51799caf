package analyzer

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBatch() BatchReport {
	app := Report{
		Name:     "Demo",
		BundleID: "com.example.demo",
		Path:     "/Applications/Demo.app",
	}
	app.addCategory(CategoryApp, 3<<20, "/Applications/Demo.app")
	app.addCategory(CategoryCache, 1<<20, "/Users/me/Library/Caches/com.example.demo")
	app.addCategory(CategoryPreferences, 2<<10, "/Users/me/Library/Preferences/com.example.demo.plist")
	app.finish()

	return BatchReport{
		Apps:      []Report{app},
		AppCount:  1,
		TotalSize: app.TotalSize,
	}
}

func TestWriteCSV_HeaderAndUnits(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleBatch()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	header := records[0]
	assert.Equal(t, []string{"Rank", "Name", "Bundle ID", "Location", "Total Size (MB)"}, header[:5])
	assert.Contains(t, header, "App Bundle (MB)")
	assert.Contains(t, header, "Cache (MB)")
	assert.Contains(t, header, "Preferences (KB)")
	assert.Contains(t, header, "Saved State (KB)")
	assert.Contains(t, header, "Crash Reports (KB)")
	assert.Contains(t, header, "Containers %")

	row := records[1]
	assert.Equal(t, "1", row[0])
	assert.Equal(t, "Demo", row[1])
	assert.Equal(t, "com.example.demo", row[2])

	// App bundle column: 3 MiB in MB units.
	appIdx := indexOf(t, header, "App Bundle (MB)")
	assert.Equal(t, "3.00", row[appIdx])

	// Preferences column: 2 KiB in KB units.
	prefIdx := indexOf(t, header, "Preferences (KB)")
	assert.Equal(t, "2.00", row[prefIdx])

	// Absent categories render as zero.
	logsIdx := indexOf(t, header, "Logs (MB)")
	assert.Equal(t, "0.00", row[logsIdx])
	assert.Equal(t, "0.0%", row[logsIdx+1])
}

func indexOf(t *testing.T, header []string, name string) int {
	t.Helper()
	for i, h := range header {
		if h == name {
			return i
		}
	}
	t.Fatalf("column %q not found in %v", name, header)
	return -1
}

func TestWriteJSON_RoundTrips(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleBatch()))

	var decoded BatchReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Apps, 1)
	assert.Equal(t, "com.example.demo", decoded.Apps[0].BundleID)
	assert.Equal(t, int64(3<<20), decoded.Apps[0].Sizes[CategoryApp])
}

func TestWriteText_ContainsRankedApps(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, sampleBatch()))

	out := buf.String()
	assert.Contains(t, out, "Application Disk Usage Analysis")
	assert.Contains(t, out, "Demo")
	assert.Contains(t, out, "com.example.demo")
	assert.Contains(t, out, CategoryLabels[CategoryCache])
}

func TestWrite_UnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, "yaml", sampleBatch())

	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "yaml"))
}
