package cleaners

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseImageTable(t *testing.T) {
	out := `
abc123def456|nginx|1.25|2024-11-02 10:30:00 +0000 UTC|142MB
789aaa000bbb|postgres|16|2024-10-15 08:00:00 +0000 UTC|431.2MB
badline-without-pipes
fff000fff000|redis|7|not-a-date|10MB
`

	rows := parseImageTable(out)

	require.Len(t, rows, 2)
	assert.Equal(t, "abc123def456", rows[0].ID)
	assert.Equal(t, "nginx", rows[0].Repository)
	assert.Equal(t, "1.25", rows[0].Tag)
	assert.Equal(t, 2024, rows[0].Created.Year())
	assert.Equal(t, int64(142_000_000), rows[0].SizeBytes)
	assert.Equal(t, "postgres", rows[1].Repository)
}

func TestParseImageUsage_KeepsNewestPerImage(t *testing.T) {
	out := `
nginx:1.25|2024-09-01 00:00:00 +0000 UTC
nginx:1.25|2024-11-01 00:00:00 +0000 UTC
redis:7|2024-10-01 00:00:00 +0000 UTC
`

	usage := parseImageUsage(out)

	require.Len(t, usage, 2)
	assert.Equal(t, time.November, usage["nginx:1.25"].Month())
	assert.Equal(t, time.October, usage["redis:7"].Month())
}

func TestParseDockerTime_BothLayouts(t *testing.T) {
	withZone, err := parseDockerTime("2024-11-02 10:30:00 +0000 UTC")
	require.NoError(t, err)
	assert.Equal(t, 2, withZone.Day())

	withoutZone, err := parseDockerTime("2024-11-02 10:30:00 +0100")
	require.NoError(t, err)
	assert.Equal(t, 2, withoutZone.Day())

	_, err = parseDockerTime("yesterday")
	assert.Error(t, err)
}

func TestMountedVolumeNames(t *testing.T) {
	raw := `[
		{"Type":"volume","Name":"pgdata","Destination":"/var/lib/postgresql/data"},
		{"Type":"bind","Name":"","Source":"/host/dir"},
		{"Type":"volume","Name":"redis-data"}
	]`

	names := mountedVolumeNames(raw)

	assert.Equal(t, []string{"pgdata", "redis-data"}, names)
}

func TestMountedVolumeNames_BadJSON(t *testing.T) {
	assert.Nil(t, mountedVolumeNames("not json"))
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitLines("a\n\n  b  \n"))
	assert.Nil(t, splitLines("\n \n"))
}
