package cleaner

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider scripts every step of the workflow and records how it was
// driven.
type fakeProvider struct {
	name       string
	prereqErr  error
	items      []Item
	discardErr error

	// cleanErrs maps item identity to the error CleanItem returns for it.
	cleanErrs map[string]error

	prereqCalls   int
	discoverCalls int
	cleanCalls    []string
	dryRunSeen    []bool
}

func (f *fakeProvider) Name() string        { return f.name }
func (f *fakeProvider) Description() string { return "fake provider" }

func (f *fakeProvider) CheckPrerequisites(ctx context.Context) error {
	f.prereqCalls++
	return f.prereqErr
}

func (f *fakeProvider) Discover(ctx context.Context, thresholdDays int) ([]Item, error) {
	f.discoverCalls++
	return f.items, f.discardErr
}

func (f *fakeProvider) CleanItem(ctx context.Context, item Item, dryRun bool) error {
	f.cleanCalls = append(f.cleanCalls, item.Identity)
	f.dryRunSeen = append(f.dryRunSeen, dryRun)
	return f.cleanErrs[item.Identity]
}

func (f *fakeProvider) Describe(item Item) string {
	return fmt.Sprintf("%s %s", item.Kind, item.Identity)
}

func TestRun_NothingDiscovered(t *testing.T) {
	p := &fakeProvider{name: "fake"}

	s := Run(context.Background(), p, 30, false)

	assert.True(t, s.Succeeded())
	assert.Equal(t, 0, s.Total)
	assert.Equal(t, 1, p.prereqCalls)
	assert.Equal(t, 1, p.discoverCalls)
	assert.Empty(t, p.cleanCalls)
}

func TestRun_PrerequisitesFailSkipsDiscovery(t *testing.T) {
	p := &fakeProvider{name: "fake", prereqErr: errors.New("daemon not running")}

	s := Run(context.Background(), p, 30, false)

	require.Error(t, s.Err)
	assert.ErrorIs(t, s.Err, ErrPrerequisites)
	assert.False(t, s.Succeeded())
	assert.Equal(t, 0, p.discoverCalls)
	assert.Empty(t, p.cleanCalls)
}

func TestRun_DiscoveryFailure(t *testing.T) {
	p := &fakeProvider{name: "fake", discardErr: errors.New("cannot list")}

	s := Run(context.Background(), p, 30, false)

	require.Error(t, s.Err)
	assert.False(t, s.Succeeded())
	assert.Empty(t, p.cleanCalls)
}

func TestRun_PartialFailureStillSucceeds(t *testing.T) {
	p := &fakeProvider{
		name: "fake",
		items: []Item{
			{Kind: "cache", Identity: "/a", SizeBytes: 100},
			{Kind: "cache", Identity: "/b", SizeBytes: 200},
			{Kind: "cache", Identity: "/c", SizeBytes: 400},
		},
		cleanErrs: map[string]error{"/b": errors.New("permission denied")},
	}

	s := Run(context.Background(), p, 30, false)

	assert.True(t, s.Succeeded())
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.Cleaned)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, int64(500), s.ReclaimedBytes)
	require.Len(t, s.Failures, 1)
	assert.Equal(t, "/b", s.Failures[0].Item.Identity)
	assert.Equal(t, []string{"/a", "/b", "/c"}, p.cleanCalls)
}

func TestRun_AllItemsFailIsNotSuccess(t *testing.T) {
	p := &fakeProvider{
		name:      "fake",
		items:     []Item{{Kind: "cache", Identity: "/a"}},
		cleanErrs: map[string]error{"/a": errors.New("boom")},
	}

	s := Run(context.Background(), p, 30, false)

	assert.False(t, s.Succeeded())
	assert.Equal(t, 1, s.Failed)
	assert.Zero(t, s.Cleaned)
}

func TestRun_ProtectedAndInUseAreSkipsNotFailures(t *testing.T) {
	p := &fakeProvider{
		name: "fake",
		items: []Item{
			{Kind: "secret", Identity: JoinID("kube-system", "token"), SizeBytes: 10},
			{Kind: "image", Identity: "abc123", SizeBytes: 20},
			{Kind: "cache", Identity: "/ok", SizeBytes: 40},
		},
		cleanErrs: map[string]error{
			JoinID("kube-system", "token"): fmt.Errorf("namespace: %w", ErrProtected),
			"abc123":                       ErrInUse,
		},
	}

	s := Run(context.Background(), p, 30, false)

	assert.True(t, s.Succeeded())
	assert.Equal(t, 1, s.SkippedProtected)
	assert.Equal(t, 1, s.SkippedInUse)
	assert.Zero(t, s.Failed)
	assert.Equal(t, 1, s.Cleaned)
	assert.Equal(t, int64(40), s.ReclaimedBytes)
}

func TestRun_DryRunNeverPassesFalse(t *testing.T) {
	p := &fakeProvider{
		name: "fake",
		items: []Item{
			{Kind: "cache", Identity: "/a", SizeBytes: 1},
			{Kind: "cache", Identity: "/b", SizeBytes: 2},
		},
	}

	s := Run(context.Background(), p, 30, true)

	assert.True(t, s.Succeeded())
	assert.Equal(t, 2, s.WouldClean)
	assert.Zero(t, s.Cleaned)
	assert.Equal(t, int64(3), s.ReclaimedBytes)
	for _, dry := range p.dryRunSeen {
		assert.True(t, dry)
	}
}

func TestJoinSplitID(t *testing.T) {
	id := JoinID("default", "my-app")

	parts := SplitID(id)

	require.Len(t, parts, 2)
	assert.Equal(t, "default", parts[0])
	assert.Equal(t, "my-app", parts[1])

	// Single-part identities round-trip untouched.
	assert.Equal(t, []string{"/some/path"}, SplitID("/some/path"))
}

func TestItemMeta(t *testing.T) {
	it := Item{Metadata: map[string]string{"phase": "Succeeded"}}

	assert.Equal(t, "Succeeded", it.Meta("phase"))
	assert.Empty(t, it.Meta("missing"))
	assert.Empty(t, Item{}.Meta("phase"))
}
