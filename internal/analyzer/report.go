package analyzer

import "sort"

// Data categories an application can occupy on disk. CategoryApp is the
// bundle itself; the rest live under ~/Library.
const (
	CategoryApp         = "app"
	CategorySupport     = "support"
	CategoryCache       = "cache"
	CategoryPreferences = "preferences"
	CategoryLogs        = "logs"
	CategoryContainers  = "containers"
	CategorySavedState  = "saved_state"
	CategoryCrashes     = "crashes"
)

// CategoryLabels maps category keys to their display names.
var CategoryLabels = map[string]string{
	CategoryApp:         "Application bundle",
	CategorySupport:     "Application support files",
	CategoryCache:       "Cache files",
	CategoryPreferences: "Preference files",
	CategoryLogs:        "Log files",
	CategoryContainers:  "App containers",
	CategorySavedState:  "Saved application state",
	CategoryCrashes:     "Crash reports",
}

// Report is the per-application analysis result. Categories with nothing on
// disk are absent from Sizes, not zero-filled, and TotalSize is always the
// sum of what is present.
type Report struct {
	Name        string              `json:"name"`
	BundleID    string              `json:"bundle_id"`
	Path        string              `json:"path"`
	Sizes       map[string]int64    `json:"sizes"`
	Locations   map[string][]string `json:"locations"`
	TotalSize   int64               `json:"total_size"`
	Percentages map[string]float64  `json:"percentages,omitempty"`
}

// addCategory records a discovered data category. Zero-size categories are
// dropped.
func (r *Report) addCategory(category string, size int64, locations ...string) {
	if size <= 0 {
		return
	}
	if r.Sizes == nil {
		r.Sizes = make(map[string]int64)
		r.Locations = make(map[string][]string)
	}
	r.Sizes[category] += size
	r.Locations[category] = append(r.Locations[category], locations...)
	r.TotalSize += size
}

// finish computes category percentages. Only meaningful once all categories
// are recorded; skipped entirely for empty reports.
func (r *Report) finish() {
	if r.TotalSize <= 0 {
		return
	}
	r.Percentages = make(map[string]float64, len(r.Sizes))
	for category, size := range r.Sizes {
		pct := float64(size) / float64(r.TotalSize) * 100
		r.Percentages[category] = float64(int(pct*10+0.5)) / 10
	}
}

// sortedCategories returns the report's categories largest first.
func (r *Report) sortedCategories() []string {
	cats := make([]string, 0, len(r.Sizes))
	for c := range r.Sizes {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool {
		if r.Sizes[cats[i]] != r.Sizes[cats[j]] {
			return r.Sizes[cats[i]] > r.Sizes[cats[j]]
		}
		return cats[i] < cats[j]
	})
	return cats
}

// BatchReport aggregates a whole-machine analysis run.
type BatchReport struct {
	Apps      []Report `json:"apps"`
	AppCount  int      `json:"app_count"`
	TotalSize int64    `json:"total_size"`
	Errored   int      `json:"errored"`
}
