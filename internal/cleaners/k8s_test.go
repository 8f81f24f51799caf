package cleaners

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devsweep/devsweep/internal/cleaner"
)

func TestIsProtected(t *testing.T) {
	assert.True(t, isProtected("kube-system", "anything"))
	assert.True(t, isProtected("monitoring", "my-configmap"))
	assert.True(t, isProtected("default", "anything"))
	assert.True(t, isProtected("apps", "istio-sidecar-injector"))
	assert.True(t, isProtected("apps", "prometheus-rules"))
	assert.False(t, isProtected("apps", "my-app-config"))
}

func TestParseFinishedPods(t *testing.T) {
	old := time.Now().Add(-60 * 24 * time.Hour).UTC().Format("2006-01-02T15:04:05Z")
	out := `{"items": [
		{"metadata": {"name": "batch-job-x", "namespace": "apps", "creationTimestamp": "` + old + `"},
		 "status": {"phase": "Succeeded"}},
		{"metadata": {"name": "web-1", "namespace": "apps", "creationTimestamp": "` + old + `"},
		 "status": {"phase": "Running"}},
		{"metadata": {"name": "crashed", "namespace": "kube-system", "creationTimestamp": "` + old + `"},
		 "status": {"phase": "Failed"}},
		{"metadata": {"name": "fresh", "namespace": "apps", "creationTimestamp": "2099-01-01T00:00:00Z"},
		 "status": {"phase": "Failed"}}
	]}`

	items := parseFinishedPods(out, time.Now().Add(-30*24*time.Hour))

	require.Len(t, items, 1)
	assert.Equal(t, "pod", items[0].Kind)
	assert.Equal(t, cleaner.JoinID("apps", "batch-job-x"), items[0].Identity)
	assert.Equal(t, "Succeeded", items[0].Meta("phase"))
	assert.GreaterOrEqual(t, items[0].AgeDays, 59)
}

func TestParseIdleReplicaSets(t *testing.T) {
	old := time.Now().Add(-45 * 24 * time.Hour).UTC().Format("2006-01-02T15:04:05Z")
	out := `{"items": [
		{"metadata": {"name": "app-5f6d", "namespace": "apps", "creationTimestamp": "` + old + `"},
		 "spec": {"replicas": 0}, "status": {"replicas": 0}},
		{"metadata": {"name": "app-live", "namespace": "apps", "creationTimestamp": "` + old + `"},
		 "spec": {"replicas": 3}, "status": {"replicas": 3}},
		{"metadata": {"name": "no-spec", "namespace": "apps", "creationTimestamp": "` + old + `"},
		 "spec": {}, "status": {"replicas": 0}}
	]}`

	items := parseIdleReplicaSets(out, time.Now().Add(-30*24*time.Hour))

	require.Len(t, items, 1)
	assert.Equal(t, "replicaset", items[0].Kind)
	assert.Equal(t, cleaner.JoinID("apps", "app-5f6d"), items[0].Identity)
}

func TestCollectReferences_Pods(t *testing.T) {
	out := `{"items": [
		{"metadata": {"name": "web", "namespace": "apps"},
		 "spec": {
			"volumes": [
				{"configMap": {"name": "web-config"}},
				{"secret": {"secretName": "web-tls"}}
			],
			"containers": [
				{"envFrom": [{"configMapRef": {"name": "web-env"}}],
				 "env": [{"valueFrom": {"secretKeyRef": {"name": "db-password"}}}]}
			]
		 }}
	]}`

	configmaps := make(map[nsName]bool)
	secrets := make(map[nsName]bool)
	collectReferences(out, true, configmaps, secrets)

	assert.True(t, configmaps[nsName{"apps", "web-config"}])
	assert.True(t, configmaps[nsName{"apps", "web-env"}])
	assert.True(t, secrets[nsName{"apps", "web-tls"}])
	assert.True(t, secrets[nsName{"apps", "db-password"}])
}

func TestCollectReferences_ControllersUseTemplateSpec(t *testing.T) {
	out := `{"items": [
		{"metadata": {"name": "api", "namespace": "apps"},
		 "spec": {
			"template": {"spec": {
				"volumes": [{"configMap": {"name": "api-config"}}],
				"containers": [],
				"initContainers": [
					{"envFrom": [{"secretRef": {"name": "migrate-creds"}}]}
				]
			}}
		 }}
	]}`

	configmaps := make(map[nsName]bool)
	secrets := make(map[nsName]bool)
	collectReferences(out, false, configmaps, secrets)

	assert.True(t, configmaps[nsName{"apps", "api-config"}])
	assert.True(t, secrets[nsName{"apps", "migrate-creds"}])
	assert.Empty(t, secrets[nsName{"apps", "api-config"}])
}

func TestCollectReferences_DefaultsNamespace(t *testing.T) {
	out := `{"items": [
		{"metadata": {"name": "solo"},
		 "spec": {"volumes": [{"configMap": {"name": "cfg"}}], "containers": []}}
	]}`

	configmaps := make(map[nsName]bool)
	collectReferences(out, true, configmaps, make(map[nsName]bool))

	assert.True(t, configmaps[nsName{"default", "cfg"}])
}
