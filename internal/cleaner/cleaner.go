// Package cleaner defines the provider contract shared by every ecosystem
// cleaner and the orchestrated workflow that drives them: check
// prerequisites, discover, then report (dry-run) or delete item by item.
package cleaner

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
)

// Sentinel results a provider returns from CleanItem to classify a refusal.
var (
	// ErrProtected marks an item whose identity matches a protection rule
	// (protected namespace, current branch, linked keg).
	ErrProtected = errors.New("protected resource")

	// ErrInUse marks an item that is currently in use (running container,
	// booted simulator).
	ErrInUse = errors.New("resource in use")

	// ErrPrerequisites marks a summary whose provider was unusable: tool
	// not installed, daemon unreachable, wrong platform.
	ErrPrerequisites = errors.New("prerequisites not met")
)

// Provider is one ecosystem plugin. Discover is read-only and idempotent
// given unchanged external state; CleanItem must re-validate safety at call
// time even though Discover already filtered, because external state can
// change between the two.
type Provider interface {
	Name() string
	Description() string

	// CheckPrerequisites verifies the ecosystem is usable (binary on PATH,
	// daemon reachable, directory present). Returning an error aborts the
	// run before any discovery.
	CheckPrerequisites(ctx context.Context) error

	// Discover returns the items eligible for cleaning: measured
	// inactivity of at least thresholdDays, above the provider's own
	// minimum-size floor, and not excluded by its safety rules.
	Discover(ctx context.Context, thresholdDays int) ([]Item, error)

	// CleanItem deletes one item, or with dryRun only re-runs the per-item
	// safety checks. Returns ErrProtected/ErrInUse for refusals, any other
	// error for a deletion failure.
	CleanItem(ctx context.Context, item Item, dryRun bool) error

	// Describe renders a one-line human description of an item.
	Describe(item Item) string
}

// Run drives one provider through the full workflow and returns its summary.
// Items are processed sequentially in discovery order; a per-item failure is
// recorded and the loop continues. Run itself enforces no ecosystem safety
// rules beyond one: CleanItem is only ever called with dryRun=false when the
// caller asked for a real run.
func Run(ctx context.Context, p Provider, thresholdDays int, dryRun bool) Summary {
	log.Info("running cleaner", "provider", p.Name(), "threshold_days", thresholdDays, "dry_run", dryRun)
	s := Summary{Provider: p.Name(), DryRun: dryRun}

	if err := p.CheckPrerequisites(ctx); err != nil {
		log.Error("prerequisites not met", "provider", p.Name(), "err", err)
		s.Err = fmt.Errorf("%w: %v", ErrPrerequisites, err)
		return s
	}

	items, err := p.Discover(ctx, thresholdDays)
	if err != nil {
		log.Error("discovery failed", "provider", p.Name(), "err", err)
		s.Err = fmt.Errorf("discovery failed: %w", err)
		return s
	}

	s.Total = len(items)
	if len(items) == 0 {
		log.Info("no unused items found", "provider", p.Name())
		return s
	}

	log.Info("found items to clean", "provider", p.Name(), "count", len(items))
	if dryRun {
		log.Info("dry run: no items will be deleted")
	}

	for _, it := range items {
		log.Info("processing: " + p.Describe(it))

		err := p.CleanItem(ctx, it, dryRun)
		switch {
		case errors.Is(err, ErrProtected):
			s.SkippedProtected++
			log.Warn("skipped (protected): " + p.Describe(it))
		case errors.Is(err, ErrInUse):
			s.SkippedInUse++
			log.Warn("skipped (in use): " + p.Describe(it))
		case err != nil:
			s.Failed++
			s.Failures = append(s.Failures, Failure{Item: it, Reason: err.Error()})
			log.Error("failed to clean: "+p.Describe(it), "err", err)
		case dryRun:
			s.WouldClean++
			s.ReclaimedBytes += it.SizeBytes
			log.Info("would clean: " + p.Describe(it))
		default:
			s.Cleaned++
			s.ReclaimedBytes += it.SizeBytes
			log.Info("cleaned: " + p.Describe(it))
		}
	}

	if dryRun {
		log.Info("dry run complete", "provider", p.Name(),
			"would_clean", s.WouldClean, "reclaimable", humanize.IBytes(uint64(s.ReclaimedBytes)))
	} else {
		log.Info("clean complete", "provider", p.Name(),
			"cleaned", s.Cleaned, "failed", s.Failed, "reclaimed", humanize.IBytes(uint64(s.ReclaimedBytes)))
	}
	return s
}
