// Package cleaners implements the resource providers: one per developer
// ecosystem, each discovering reclaimable disk space and deleting it through
// that ecosystem's own tooling.
package cleaners

import (
	"fmt"
	"os"
	"sort"

	"github.com/devsweep/devsweep/internal/cleaner"
	"github.com/devsweep/devsweep/internal/execx"
	"github.com/devsweep/devsweep/pkg/whitelist"
)

// Options carries the shared collaborators every provider is built with.
type Options struct {
	Runner    execx.Runner
	Whitelist *whitelist.Whitelist
	Home      string

	// CleanUnmerged allows the git provider to force-delete unmerged
	// branches. Off by default.
	CleanUnmerged bool
}

func (o Options) withDefaults() Options {
	if o.Runner == nil {
		o.Runner = execx.System{}
	}
	if o.Home == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			o.Home = home
		}
	}
	if o.Whitelist == nil {
		wl, _ := whitelist.Load()
		o.Whitelist = wl
	}
	return o
}

var registry = map[string]func(Options) cleaner.Provider{
	"brew":      func(o Options) cleaner.Provider { return NewBrew(o) },
	"docker":    func(o Options) cleaner.Provider { return NewDocker(o) },
	"git":       func(o Options) cleaner.Provider { return NewGit(o) },
	"k8s":       func(o Options) cleaner.Provider { return NewK8s(o) },
	"maven":     func(o Options) cleaner.Provider { return NewMaven(o) },
	"npm":       func(o Options) cleaner.Provider { return NewNPM(o) },
	"pyenv":     func(o Options) cleaner.Provider { return NewPyenv(o) },
	"simulator": func(o Options) cleaner.Provider { return NewSimulator(o) },
	"xcode":     func(o Options) cleaner.Provider { return NewXcode(o) },
}

// Names returns the registered provider names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the named provider.
func New(name string, opts Options) (cleaner.Provider, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q (available: %v)", name, Names())
	}
	return ctor(opts.withDefaults()), nil
}

// All builds every registered provider, in name order.
func All(opts Options) []cleaner.Provider {
	opts = opts.withDefaults()
	providers := make([]cleaner.Provider, 0, len(registry))
	for _, name := range Names() {
		providers = append(providers, registry[name](opts))
	}
	return providers
}
