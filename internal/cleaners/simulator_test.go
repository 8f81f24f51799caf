package cleaners

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSimDevices(t *testing.T) {
	out := `{
		"devices": {
			"com.apple.CoreSimulator.SimRuntime.iOS-17-5": [
				{"udid": "AAAA-1111", "state": "Shutdown", "isAvailable": true, "name": "iPhone 15"},
				{"udid": "BBBB-2222", "state": "Booted", "isAvailable": true, "name": "iPhone 15 Pro"}
			],
			"com.apple.CoreSimulator.SimRuntime.watchOS-10-0": [
				{"udid": "CCCC-3333", "state": "Shutdown", "isAvailable": false, "name": "Watch Ultra"}
			]
		}
	}`

	devices := parseSimDevices(out)

	require.Len(t, devices, 2)
	ios := devices["com.apple.CoreSimulator.SimRuntime.iOS-17-5"]
	require.Len(t, ios, 2)
	assert.Equal(t, "AAAA-1111", ios[0].UDID)
	assert.Equal(t, "Shutdown", ios[0].State)
	assert.True(t, ios[0].IsAvailable)
	assert.Equal(t, "iPhone 15 Pro", ios[1].Name)
}

func TestParseSimDevices_BadJSON(t *testing.T) {
	assert.Nil(t, parseSimDevices("xcrun: error"))
}
