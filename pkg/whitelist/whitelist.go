// Package whitelist maintains the list of paths the tool must never delete:
// a built-in set of system locations plus user-added entries persisted under
// the user config directory.
package whitelist

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adrg/xdg"
)

// neverDelete are system locations that are always protected, together with
// everything beneath them.
func neverDelete() []string {
	home, _ := os.UserHomeDir()
	return []string{
		"/System",
		"/Library",
		"/Applications",
		"/usr",
		"/bin",
		"/sbin",
		"/private/etc",
		"/private/var/db",
		filepath.Join(home, "Documents"),
		filepath.Join(home, "Desktop"),
	}
}

// Whitelist answers "is this path protected?" for the path-deleting cleaners.
type Whitelist struct {
	// entries protect their whole subtree.
	entries map[string]bool

	// exact protects only the named path. The home directory lives here:
	// cleaners work under home constantly, but must never delete home
	// itself.
	exact map[string]bool

	path string
}

// New builds an in-memory whitelist of the built-in protections plus the
// given subtree entries. Nothing is persisted.
func New(paths ...string) *Whitelist {
	wl := &Whitelist{
		entries: make(map[string]bool),
		exact:   make(map[string]bool),
	}
	for _, p := range neverDelete() {
		wl.entries[normalize(p)] = true
	}
	if home, err := os.UserHomeDir(); err == nil {
		wl.exact[normalize(home)] = true
	}
	for _, p := range paths {
		wl.entries[normalize(p)] = true
	}
	return wl
}

// ConfigPath returns the location of the persisted user whitelist.
func ConfigPath() (string, error) {
	return xdg.ConfigFile("devsweep/whitelist")
}

// Load reads the user whitelist, merging it with the built-in protected set.
// A missing file is not an error; the built-ins still apply.
func Load() (*Whitelist, error) {
	wl := New()

	path, err := ConfigPath()
	if err != nil {
		return wl, nil
	}
	wl.path = path

	f, err := os.Open(path)
	if err != nil {
		return wl, nil
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		wl.entries[normalize(line)] = true
	}
	return wl, sc.Err()
}

// Add protects a path and persists the change.
func (wl *Whitelist) Add(path string) error {
	wl.entries[normalize(path)] = true
	return wl.save()
}

// Contains reports whether path, or any of its ancestors, is whitelisted.
// Protecting a directory protects everything under it.
func (wl *Whitelist) Contains(path string) bool {
	p := normalize(path)
	if wl.exact[p] {
		return true
	}
	for {
		if wl.entries[p] {
			return true
		}
		parent := filepath.Dir(p)
		if parent == p {
			return false
		}
		p = parent
	}
}

// Entries returns the user-added whitelist entries, sorted, for display.
func (wl *Whitelist) Entries() []string {
	builtin := make(map[string]bool)
	for _, p := range neverDelete() {
		builtin[normalize(p)] = true
	}
	var out []string
	for p := range wl.entries {
		if !builtin[p] {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

func (wl *Whitelist) save() error {
	if wl.path == "" {
		path, err := ConfigPath()
		if err != nil {
			return err
		}
		wl.path = path
	}
	if err := os.MkdirAll(filepath.Dir(wl.path), 0o755); err != nil {
		return err
	}
	var b strings.Builder
	for _, p := range wl.Entries() {
		b.WriteString(p)
		b.WriteByte('\n')
	}
	return os.WriteFile(wl.path, []byte(b.String()), 0o644)
}

func normalize(path string) string {
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
