package cleaners

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devsweep/devsweep/internal/cleaner"
)

func TestParseBranchList(t *testing.T) {
	out := `
  feature/login
* main
  fix/typo
`

	current, branches := parseBranchList(out)

	assert.Equal(t, "main", current)
	assert.Equal(t, []string{"feature/login", "main", "fix/typo"}, branches)
}

func TestParseBranchList_DetachedHead(t *testing.T) {
	out := `
* (HEAD detached at 1a2b3c4)
  main
`

	current, branches := parseBranchList(out)

	assert.Empty(t, current)
	assert.Equal(t, []string{"main"}, branches)
}

func TestParseGitDate(t *testing.T) {
	d, err := parseGitDate("2024-06-15 12:00:00 +0200\n")

	require.NoError(t, err)
	assert.Equal(t, time.June, d.Month())
	assert.Equal(t, 15, d.Day())
}

func TestSplitBranchID(t *testing.T) {
	repo, branch, ok := splitBranchID(cleaner.JoinID("/home/me/projects/app", "feature/login"))

	require.True(t, ok)
	assert.Equal(t, "/home/me/projects/app", repo)
	assert.Equal(t, "feature/login", branch)

	_, _, ok = splitBranchID("just-a-branch")
	assert.False(t, ok)
}

func TestFindGitRepos(t *testing.T) {
	root := t.TempDir()
	mkRepo := func(rel string) {
		require.NoError(t, os.MkdirAll(filepath.Join(root, rel, ".git"), 0o755))
	}
	mkRepo("app")
	mkRepo("nested/lib")
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".hidden", "repo", ".git"), 0o755))

	repos := findGitRepos(root, 5)

	assert.ElementsMatch(t, []string{
		filepath.Join(root, "app"),
		filepath.Join(root, "nested", "lib"),
	}, repos)
}

func TestRepoStaleSince(t *testing.T) {
	repo := t.TempDir()
	head := filepath.Join(repo, ".git", "HEAD")
	require.NoError(t, os.MkdirAll(filepath.Dir(head), 0o755))
	require.NoError(t, os.WriteFile(head, []byte("ref: refs/heads/main\n"), 0o644))

	stale, _ := repoStaleSince(repo, time.Now().Add(-24*time.Hour))
	assert.False(t, stale)

	past := time.Now().Add(-90 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(head, past, past))

	stale, days := repoStaleSince(repo, time.Now().Add(-30*24*time.Hour))
	assert.True(t, stale)
	assert.GreaterOrEqual(t, days, 89)
}
