package cleaners

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/devsweep/devsweep/internal/cleaner"
	"github.com/devsweep/devsweep/internal/execx"
)

// Git deletes stale local branches in repositories under the usual project
// directories. Stale repositories themselves are reported, never deleted.
type Git struct {
	run           execx.Runner
	home          string
	cleanUnmerged bool
}

func NewGit(o Options) *Git {
	return &Git{run: o.Runner, home: o.Home, cleanUnmerged: o.CleanUnmerged}
}

func (g *Git) Name() string { return "git" }

func (g *Git) Description() string {
	return "Removes unused Git branches from local repositories"
}

func (g *Git) CheckPrerequisites(ctx context.Context) error {
	if _, err := g.run.Run(ctx, 10*time.Second, "git", "--version"); err != nil {
		return fmt.Errorf("git not available: %w", err)
	}
	return nil
}

func (g *Git) searchRoots() []string {
	return existingDirs([]string{
		filepath.Join(g.home, "projects"),
		filepath.Join(g.home, "code"),
		filepath.Join(g.home, "Documents", "projects"),
		filepath.Join(g.home, "work"),
	}, g.home)
}

func (g *Git) Discover(ctx context.Context, thresholdDays int) ([]cleaner.Item, error) {
	var repos []string
	for _, root := range g.searchRoots() {
		repos = append(repos, findGitRepos(root, 5)...)
	}
	log.Debug("checking git repositories", "count", len(repos))

	cutoff := time.Now().AddDate(0, 0, -thresholdDays)
	var items []cleaner.Item

	for _, repo := range repos {
		if stale, age := repoStaleSince(repo, cutoff); stale {
			items = append(items, cleaner.Item{
				Kind:     "repo",
				Identity: repo,
				AgeDays:  age,
				Metadata: map[string]string{"name": filepath.Base(repo)},
			})
		}
		items = append(items, g.unusedBranches(ctx, repo, cutoff)...)
	}
	return items, nil
}

func (g *Git) CleanItem(ctx context.Context, item cleaner.Item, dryRun bool) error {
	if item.Kind == "repo" {
		// Report-only: the repository may hold unpushed work.
		log.Info("stale repository (not deleting)", "path", item.Identity)
		return nil
	}

	repo, branch, ok := splitBranchID(item.Identity)
	if !ok {
		return fmt.Errorf("malformed branch identity %q", item.Identity)
	}
	merged := item.Meta("merged") == "true"

	switch {
	case merged:
		if dryRun {
			return nil
		}
		_, err := g.run.RunIn(ctx, 15*time.Second, repo, "git", "branch", "-d", branch)
		return err
	case g.cleanUnmerged:
		if dryRun {
			return nil
		}
		log.Warn("force-deleting unmerged branch", "repo", repo, "branch", branch)
		_, err := g.run.RunIn(ctx, 15*time.Second, repo, "git", "branch", "-D", branch)
		return err
	default:
		return fmt.Errorf("branch %s is not merged (pass --unmerged to delete): %w",
			branch, cleaner.ErrProtected)
	}
}

func (g *Git) Describe(item cleaner.Item) string {
	if item.Kind == "repo" {
		return fmt.Sprintf("Repository: %s (%s, inactive for %d days)",
			item.Meta("name"), item.Identity, item.AgeDays)
	}
	_, branch, _ := splitBranchID(item.Identity)
	status := "not merged"
	if item.Meta("merged") == "true" {
		status = "merged"
	}
	return fmt.Sprintf("Branch: %s in %s (inactive for %d days, %s)",
		branch, item.Meta("repo"), item.AgeDays, status)
}

func (g *Git) unusedBranches(ctx context.Context, repo string, cutoff time.Time) []cleaner.Item {
	out, err := g.run.RunIn(ctx, 15*time.Second, repo, "git", "branch")
	if err != nil {
		log.Warn("listing branches failed", "repo", repo, "err", err)
		return nil
	}
	current, branches := parseBranchList(out)

	mergedOut, err := g.run.RunIn(ctx, 15*time.Second, repo, "git", "branch", "--merged", current)
	if err != nil {
		mergedOut = ""
	}
	_, merged := parseBranchList(mergedOut)
	mergedSet := make(map[string]bool, len(merged))
	for _, b := range merged {
		mergedSet[b] = true
	}

	var items []cleaner.Item
	for _, branch := range branches {
		if branch == current {
			continue
		}
		lastOut, err := g.run.RunIn(ctx, 15*time.Second, repo,
			"git", "log", "-1", "--format=%cd", "--date=iso", branch)
		if err != nil {
			log.Warn("reading last commit failed", "repo", repo, "branch", branch, "err", err)
			continue
		}
		last, err := parseGitDate(lastOut)
		if err != nil {
			continue
		}
		if last.After(cutoff) {
			continue
		}
		items = append(items, cleaner.Item{
			Kind:     "branch",
			Identity: cleaner.JoinID(repo, branch),
			AgeDays:  int(time.Since(last).Hours() / 24),
			Metadata: map[string]string{
				"repo":   filepath.Base(repo),
				"merged": fmt.Sprintf("%t", mergedSet[branch]),
			},
		})
	}
	return items
}

// findGitRepos walks dir looking for .git directories, up to maxDepth levels
// down. It does not descend into repositories it finds.
func findGitRepos(dir string, maxDepth int) []string {
	if maxDepth <= 0 {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var repos []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		sub := filepath.Join(dir, e.Name())
		if isDir(filepath.Join(sub, ".git")) {
			repos = append(repos, sub)
			continue
		}
		repos = append(repos, findGitRepos(sub, maxDepth-1)...)
	}
	return repos
}

// repoStaleSince uses the .git/HEAD mtime as a proxy for repository activity.
func repoStaleSince(repo string, cutoff time.Time) (bool, int) {
	fi, err := os.Stat(filepath.Join(repo, ".git", "HEAD"))
	if err != nil {
		return false, 0
	}
	if fi.ModTime().After(cutoff) {
		return false, 0
	}
	return true, int(time.Since(fi.ModTime()).Hours() / 24)
}

// parseBranchList parses `git branch` output: the current branch carries a
// leading asterisk.
func parseBranchList(out string) (current string, branches []string) {
	for _, line := range splitLines(out) {
		name, isCurrent := strings.CutPrefix(line, "* ")
		name = strings.TrimSpace(name)
		if name == "" || strings.HasPrefix(name, "(") {
			continue
		}
		if isCurrent {
			current = name
		}
		branches = append(branches, name)
	}
	return current, branches
}

func parseGitDate(out string) (time.Time, error) {
	return time.Parse("2006-01-02 15:04:05 -0700", strings.TrimSpace(out))
}

func splitBranchID(id string) (repo, branch string, ok bool) {
	parts := cleaner.SplitID(id)
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}
