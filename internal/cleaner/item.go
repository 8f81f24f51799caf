package cleaner

import "strings"

// idSep joins the parts of a composite identity. The unit separator cannot
// appear in paths, git refs, image IDs, or Kubernetes names.
const idSep = "\x1f"

// JoinID builds a composite identity from its parts.
func JoinID(parts ...string) string {
	return strings.Join(parts, idSep)
}

// SplitID splits a composite identity back into its parts.
func SplitID(id string) []string {
	return strings.Split(id, idSep)
}

// Item is one discovered, independently cleanable resource. Items are value
// objects: built during discovery, never mutated, discarded after one cycle.
type Item struct {
	// Kind is the provider-defined resource tag ("image", "branch", "keg").
	Kind string

	// Identity is the stable key sufficient, on its own, to re-locate and
	// delete the resource: a path, or a JoinID composite such as
	// namespace+name. Deletion never derives anything from display strings.
	Identity string

	// SizeBytes is the resource's size, or 0 when unknown.
	SizeBytes int64

	// AgeDays is the measured inactivity in days, or 0 when unknown.
	AgeDays int

	// Metadata carries ecosystem-specific display facts (merge status,
	// pod phase, volume driver). Never consulted for deletion.
	Metadata map[string]string
}

// Meta returns a metadata value, or "" when absent.
func (it Item) Meta(key string) string {
	if it.Metadata == nil {
		return ""
	}
	return it.Metadata[key]
}

// Failure records one item that could not be cleaned.
type Failure struct {
	Item   Item
	Reason string
}

// Summary is the aggregated outcome of one orchestrated run.
type Summary struct {
	Provider string
	DryRun   bool

	Total            int
	Cleaned          int
	WouldClean       int
	SkippedProtected int
	SkippedInUse     int
	Failed           int

	// ReclaimedBytes sums the sizes of cleaned items (dry-run: of items
	// that would be cleaned).
	ReclaimedBytes int64

	Failures []Failure

	// Err is set when prerequisites or discovery failed; per-item failures
	// land in Failures instead.
	Err error
}

// Succeeded reports whether the run counts as an overall success. Finding
// nothing to clean is success; a real run where every item failed is not.
func (s Summary) Succeeded() bool {
	if s.Err != nil {
		return false
	}
	if s.DryRun {
		return true
	}
	return s.Cleaned > 0 || s.Total == 0
}
