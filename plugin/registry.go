package plugin

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/hereon-GEMS/pydidas-sub009/config"
	"github.com/hereon-GEMS/pydidas-sub009/errors"
)

// Factory creates a fresh plugin instance with default configuration.
type Factory func() Plugin

// Registration holds the factory and metadata for one plugin type.
type Registration struct {
	Class       string  `json:"class"`       // Implementation identifier
	Name        string  `json:"name"`        // Logical name, unique across the registry
	Kind        Kind    `json:"kind"`        // input, proc, output or base
	Description string  `json:"description"` // Human-readable description
	Version     string  `json:"version"`     // Plugin version
	Factory     Factory `json:"-"`           // Factory function (not serializable)

	// path records which provider path registered this plugin. Set by the
	// registry during Load.
	path string
}

const (
	// PathsSettingsKey is the settings-store entry holding registered paths.
	PathsSettingsKey = "plugin/paths"
	// PathSeparator joins persisted plugin paths into one settings value.
	PathSeparator = ";;"
	// DefaultPath is scanned when no paths were configured or persisted.
	DefaultPath = "builtin"
)

// Registry is the catalogue of available plugin types, keyed by class name
// and by logical name. It is intended to exist once per process with lazy
// initialization; lookups and registrations are guarded internally, but
// callers sharing one instance across goroutines for multi-step mutation
// sequences still need external coordination.
type Registry struct {
	mu      sync.RWMutex
	store   config.Store
	logger  *slog.Logger
	byClass map[string]*Registration
	byName  map[string]*Registration
	bases   map[string]*Registration
	paths   []string

	initialized   bool
	pendingUpdate bool

	// reload marks an intentional-replacement load in progress; currentPath
	// attributes registrations to the provider being run. Both are only
	// written under initMu during Load.
	reload      bool
	currentPath string

	// initMu serializes lazy initialization and explicit loads. Providers
	// call Register re-entrantly, so Load must not hold mu while running
	// them.
	initMu sync.Mutex
}

// NewRegistry creates an empty registry. The settings store may be nil, in
// which case path bookkeeping is kept in memory only.
func NewRegistry(store config.Store, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	if store == nil {
		store = config.NewMemoryStore()
	}
	return &Registry{
		store:   store,
		logger:  logger,
		byClass: make(map[string]*Registration),
		byName:  make(map[string]*Registration),
		bases:   make(map[string]*Registration),
	}
}

// Register adds a plugin type to the catalogue. A logical name already
// mapping to a different class is a configuration error citing both classes;
// re-registering the same class is a no-op outside a reload and an
// intentional replacement during one. Base plugins are filed separately and
// never returned by name lookup.
func (r *Registry) Register(reg Registration) error {
	if err := validateRegistration(&reg); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	reg.path = r.currentPath

	if reg.Kind == KindBase {
		r.bases[reg.Class] = &reg
		return nil
	}

	if existing, ok := r.byName[reg.Name]; ok {
		if existing.Class != reg.Class {
			return errors.WrapConfig(
				fmt.Errorf("name %q already registered by class %q, rejected class %q: %w",
					reg.Name, existing.Class, reg.Class, errors.ErrDuplicatePluginName),
				"Registry", "Register", "name conflict check")
		}
		if !r.reload {
			// Same implementation, no reload requested: keep the entry.
			return nil
		}
	}

	r.byClass[reg.Class] = &reg
	r.byName[reg.Name] = &reg
	return nil
}

// Load runs the providers registered under the given paths, in order. Paths
// without a provider are skipped with a warning and pruned from persistence;
// genuinely conflicting registrations still fail. With reload set, plugins
// re-registering the same class replace the existing entries.
func (r *Registry) Load(reload bool, paths ...string) error {
	r.initMu.Lock()
	defer r.initMu.Unlock()
	return r.load(reload, paths...)
}

// load performs the actual provider run. Callers must hold initMu.
func (r *Registry) load(reload bool, paths ...string) error {
	r.setLoadState(reload, "")
	defer r.setLoadState(false, "")

	var scanned []string
	for _, path := range paths {
		provider, ok := lookupProvider(path)
		if !ok {
			r.logger.Warn("no plugin provider for path, pruning", "path", path)
			continue
		}
		r.setLoadState(reload, path)
		if err := provider(r); err != nil {
			return errors.Wrap(err, "Registry", "Load", fmt.Sprintf("provider %q", path))
		}
		scanned = append(scanned, path)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = scanned
	if err := r.persistPathsLocked(); err != nil {
		return err
	}
	r.initialized = true
	r.pendingUpdate = true
	return nil
}

func (r *Registry) setLoadState(reload bool, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reload = reload
	r.currentPath = path
}

// ensureInitialized performs the deferred first load. Persisted paths are
// used when present; otherwise the application default path is scanned.
func (r *Registry) ensureInitialized() error {
	r.initMu.Lock()
	defer r.initMu.Unlock()

	r.mu.RLock()
	initialized := r.initialized
	r.mu.RUnlock()
	if initialized {
		return nil
	}

	paths := []string{DefaultPath}
	if stored, ok, err := r.store.Get(PathsSettingsKey); err == nil && ok && stored != "" {
		paths = strings.Split(stored, PathSeparator)
	}
	return r.load(true, paths...)
}

// persistPathsLocked writes the scanned paths to the settings store.
// Callers must hold mu.
func (r *Registry) persistPathsLocked() error {
	if len(r.paths) == 0 {
		if err := r.store.Delete(PathsSettingsKey); err != nil {
			return errors.Wrap(err, "Registry", "persistPaths", "settings delete")
		}
		return nil
	}
	if err := r.store.Set(PathsSettingsKey, strings.Join(r.paths, PathSeparator)); err != nil {
		return errors.Wrap(err, "Registry", "persistPaths", "settings write")
	}
	return nil
}

// PluginByClass returns a fresh instance of the plugin with the given
// implementation identifier.
func (r *Registry) PluginByClass(class string) (Plugin, error) {
	if err := r.ensureInitialized(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.byClass[class]
	if !ok {
		if _, isBase := r.bases[class]; isBase {
			return nil, errors.WrapConfig(
				fmt.Errorf("class %q: %w", class, errors.ErrBasePlugin),
				"Registry", "PluginByClass", "base plugin check")
		}
		return nil, errors.WrapLookup(
			fmt.Errorf("class %q: %w", class, errors.ErrUnknownClass),
			"Registry", "PluginByClass", "class lookup")
	}
	return reg.Factory(), nil
}

// PluginByName returns a fresh instance of the plugin with the given logical
// name. Base plugins are never returned.
func (r *Registry) PluginByName(name string) (Plugin, error) {
	if err := r.ensureInitialized(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.byName[name]
	if !ok {
		return nil, errors.WrapLookup(
			fmt.Errorf("name %q: %w", name, errors.ErrUnknownPlugin),
			"Registry", "PluginByName", "name lookup")
	}
	return reg.Factory(), nil
}

// AllOfKind returns metadata for every registered plugin of the given kind,
// sorted by logical name.
func (r *Registry) AllOfKind(kind Kind) ([]Metadata, error) {
	if err := r.ensureInitialized(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	var metas []Metadata
	for _, reg := range r.byName {
		if reg.Kind == kind {
			metas = append(metas, Metadata{
				Class:       reg.Class,
				Name:        reg.Name,
				Kind:        reg.Kind,
				Description: reg.Description,
				Version:     reg.Version,
			})
		}
	}
	sort.Slice(metas, func(i, j int) bool { return metas[i].Name < metas[j].Name })
	return metas, nil
}

// Classes returns all registered implementation identifiers, sorted.
func (r *Registry) Classes() ([]string, error) {
	if err := r.ensureInitialized(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	classes := make([]string, 0, len(r.byClass))
	for class := range r.byClass {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	return classes, nil
}

// Names returns all registered logical names, sorted.
func (r *Registry) Names() ([]string, error) {
	if err := r.ensureInitialized(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Paths returns the currently registered plugin paths.
func (r *Registry) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.paths))
	copy(out, r.paths)
	return out
}

// UnregisterPath removes a path and every plugin it contributed.
// Unregistering a path that is not registered is a lookup error.
func (r *Registry) UnregisterPath(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, p := range r.paths {
		if p == path {
			idx = i
			break
		}
	}
	if idx < 0 {
		return errors.WrapLookup(
			fmt.Errorf("path %q: %w", path, errors.ErrUnknownPath),
			"Registry", "UnregisterPath", "path lookup")
	}
	r.paths = append(r.paths[:idx], r.paths[idx+1:]...)

	for class, reg := range r.byClass {
		if reg.path == path {
			delete(r.byClass, class)
			delete(r.byName, reg.Name)
		}
	}
	for class, reg := range r.bases {
		if reg.path == path {
			delete(r.bases, class)
		}
	}

	if err := r.persistPathsLocked(); err != nil {
		return err
	}
	r.pendingUpdate = true
	return nil
}

// ClearCollection empties the whole catalogue. It refuses to act without
// explicit confirmation.
func (r *Registry) ClearCollection(confirm bool) error {
	if !confirm {
		return errors.WrapConfig(
			fmt.Errorf("clear collection: %w", errors.ErrNotConfirmed),
			"Registry", "ClearCollection", "confirmation check")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byClass = make(map[string]*Registration)
	r.byName = make(map[string]*Registration)
	r.bases = make(map[string]*Registration)
	r.paths = nil
	r.initialized = false
	r.pendingUpdate = true
	return r.persistPathsLocked()
}

// ConsumePendingUpdate reports whether the catalogue changed since the last
// call and resets the flag. A UI layer polls this to refresh exactly once
// per completed (re-)initialization.
func (r *Registry) ConsumePendingUpdate() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	pending := r.pendingUpdate
	r.pendingUpdate = false
	return pending
}

// validateRegistration checks the registration fields before acceptance.
func validateRegistration(reg *Registration) error {
	if reg.Factory == nil {
		return errors.WrapConfig(
			fmt.Errorf("plugin %q has no factory: %w", reg.Name, errors.ErrInvalidConfig),
			"Registry", "Register", "factory validation")
	}
	if !reg.Kind.Valid() {
		return errors.WrapConfig(
			fmt.Errorf("plugin %q has kind %q: %w", reg.Name, reg.Kind, errors.ErrInvalidConfig),
			"Registry", "Register", "kind validation")
	}
	if err := ValidateName(reg.Class); err != nil {
		return errors.Wrap(err, "Registry", "Register", "class name validation")
	}
	if err := ValidateName(reg.Name); err != nil {
		return errors.Wrap(err, "Registry", "Register", "plugin name validation")
	}
	return nil
}
