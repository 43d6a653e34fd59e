package window

import (
	"fmt"
	"sort"
	"sync"
)

// Factory creates a new, unopened provider.
type Factory func() Provider

var (
	registryMu sync.RWMutex
	providers  = make(map[string]Factory)
	// Priority order for Default: a real window wins over offscreen.
	providerPriority = []string{"desktop", "headless"}
)

// Register makes a provider available by name. It is typically called
// from init in the provider's package. Registering a name again replaces
// the previous factory.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	providers[name] = factory
}

// Unregister removes a provider. Useful in tests.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(providers, name)
}

// Available returns the registered provider names, sorted.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered reports whether name has a factory.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := providers[name]
	return ok
}

// Get returns a new provider by name.
func Get(name string) (Provider, error) {
	registryMu.RLock()
	factory, ok := providers[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("window: provider %q not registered (available: %v)", name, Available())
	}
	return factory(), nil
}

// Default returns the highest-priority registered provider, or nil if
// none is registered.
func Default() Provider {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, name := range providerPriority {
		if factory, ok := providers[name]; ok {
			if p := factory(); p != nil {
				return p
			}
		}
	}
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if p := providers[name](); p != nil {
			return p
		}
	}
	return nil
}
