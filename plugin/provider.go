package plugin

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hereon-GEMS/pydidas-sub009/errors"
)

// ProviderFunc registers a collection of plugin types with a registry. Each
// provider stands in for one discoverable plugin location: instead of
// scanning directories and importing arbitrary code at runtime, plugin
// collections register themselves explicitly under a path-like identifier at
// load time.
type ProviderFunc func(*Registry) error

var (
	providerMu sync.RWMutex
	providers  = make(map[string]ProviderFunc)
)

// RegisterProvider installs a plugin provider under a path identifier.
// Registering a second provider under the same path is a configuration
// error.
func RegisterProvider(path string, fn ProviderFunc) error {
	if path == "" || fn == nil {
		return errors.WrapConfig(
			fmt.Errorf("provider path and function are required: %w", errors.ErrInvalidConfig),
			"Provider", "RegisterProvider", "argument validation")
	}

	providerMu.Lock()
	defer providerMu.Unlock()
	if _, exists := providers[path]; exists {
		return errors.WrapConfig(
			fmt.Errorf("provider path %q already registered: %w", path, errors.ErrInvalidConfig),
			"Provider", "RegisterProvider", "duplicate path check")
	}
	providers[path] = fn
	return nil
}

// ProviderPaths returns all registered provider paths, sorted.
func ProviderPaths() []string {
	providerMu.RLock()
	defer providerMu.RUnlock()
	paths := make([]string, 0, len(providers))
	for path := range providers {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func lookupProvider(path string) (ProviderFunc, bool) {
	providerMu.RLock()
	defer providerMu.RUnlock()
	fn, ok := providers[path]
	return fn, ok
}

// resetProviders clears the provider table. Test helper.
func resetProviders() {
	providerMu.Lock()
	defer providerMu.Unlock()
	providers = make(map[string]ProviderFunc)
}
