package cleaners

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBrewOutdated(t *testing.T) {
	out := `{
		"formulae": [
			{"name": "node", "installed_versions": ["20.1.0"], "current_version": "22.3.0"},
			{"name": "jq", "installed_versions": [], "current_version": "1.7"}
		],
		"casks": [
			{"name": "firefox", "installed_versions": ["128.0"], "current_version": "130.0"}
		]
	}`

	items := parseBrewOutdated(out)

	require.Len(t, items, 3)

	assert.Equal(t, "outdated", items[0].Kind)
	assert.Equal(t, "node", items[0].Identity)
	assert.Equal(t, "20.1.0", items[0].Meta("installed"))
	assert.Equal(t, "22.3.0", items[0].Meta("latest"))
	assert.Equal(t, "false", items[0].Meta("cask"))

	assert.Equal(t, "unknown", items[1].Meta("installed"))

	assert.Equal(t, "firefox", items[2].Identity)
	assert.Equal(t, "true", items[2].Meta("cask"))
}

func TestParseBrewOutdated_BadJSON(t *testing.T) {
	assert.Nil(t, parseBrewOutdated("Error: unknown command"))
}
