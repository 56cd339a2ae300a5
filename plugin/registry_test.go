package plugin

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hereon-GEMS/pydidas-sub009/config"
	"github.com/hereon-GEMS/pydidas-sub009/dataset"
	"github.com/hereon-GEMS/pydidas-sub009/errors"
)

// mockPlugin is a minimal plugin implementation for registry tests.
type mockPlugin struct {
	BasePlugin
	executed int
}

func newMockPlugin(class, name string, kind Kind) *mockPlugin {
	return &mockPlugin{
		BasePlugin: NewBasePlugin(
			Metadata{Class: class, Name: name, Kind: kind, Version: "1.0.0"},
			map[string]any{"factor": 1.0},
		),
	}
}

func (m *mockPlugin) Execute(
	_ context.Context, _ int, data *dataset.Dataset, aux Aux,
) (*dataset.Dataset, Aux, error) {
	m.executed++
	return data, aux, nil
}

func (m *mockPlugin) OutputShape(parent Shape) (Shape, error) {
	return CloneShape(parent), nil
}

func (m *mockPlugin) Copy() Plugin {
	clone := &mockPlugin{BasePlugin: m.CopyBase()}
	return clone
}

func mockRegistration(class, name string, kind Kind) Registration {
	return Registration{
		Class:   class,
		Name:    name,
		Kind:    kind,
		Version: "1.0.0",
		Factory: func() Plugin { return newMockPlugin(class, name, kind) },
	}
}

func newTestRegistry() *Registry {
	return NewRegistry(config.NewMemoryStore(), nil)
}

func TestRegisterAndLookup(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.Register(mockRegistration("ScalerPlugin", "scaler", KindProc)))

	byName, err := r.PluginByName("scaler")
	require.NoError(t, err)
	assert.Equal(t, "ScalerPlugin", byName.Meta().Class)

	byClass, err := r.PluginByClass("ScalerPlugin")
	require.NoError(t, err)
	assert.Equal(t, "scaler", byClass.Meta().Name)

	// Lookups return fresh instances.
	assert.NotSame(t, byName, byClass)
}

func TestRegisterDuplicateNameDifferentClassFails(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.Register(mockRegistration("ScalerPlugin", "scaler", KindProc)))

	err := r.Register(mockRegistration("OtherScaler", "scaler", KindProc))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDuplicatePluginName)
	// Both the existing and the incoming implementation are named.
	assert.Contains(t, err.Error(), "ScalerPlugin")
	assert.Contains(t, err.Error(), "OtherScaler")
}

func TestRegisterSameClassWithoutReloadKeepsEntry(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.Register(mockRegistration("ScalerPlugin", "scaler", KindProc)))

	replacement := mockRegistration("ScalerPlugin", "scaler", KindProc)
	replacement.Version = "2.0.0"
	require.NoError(t, r.Register(replacement))

	metas, err := r.AllOfKind(KindProc)
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, "1.0.0", metas[0].Version)
}

func TestReloadReplacesSameClass(t *testing.T) {
	resetProviders()
	t.Cleanup(resetProviders)

	version := "1.0.0"
	require.NoError(t, RegisterProvider("builtin", func(r *Registry) error {
		reg := mockRegistration("ScalerPlugin", "scaler", KindProc)
		reg.Version = version
		return r.Register(reg)
	}))

	r := newTestRegistry()
	require.NoError(t, r.Load(true, "builtin"))

	version = "2.0.0"
	require.NoError(t, r.Load(true, "builtin"))

	metas, err := r.AllOfKind(KindProc)
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, "2.0.0", metas[0].Version)
}

func TestBasePluginsExcludedFromNameLookup(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.Register(mockRegistration("BaseFitPlugin", "base-fit", KindBase)))

	_, err := r.PluginByName("base-fit")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnknownPlugin)

	_, err = r.PluginByClass("BaseFitPlugin")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrBasePlugin)
}

func TestUnknownLookupsNameTheMissingKey(t *testing.T) {
	r := newTestRegistry()

	_, err := r.PluginByName("ghost")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnknownPlugin)
	assert.Contains(t, err.Error(), "ghost")

	_, err = r.PluginByClass("GhostPlugin")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnknownClass)
	assert.Contains(t, err.Error(), "GhostPlugin")
}

func TestRegisterValidation(t *testing.T) {
	r := newTestRegistry()

	err := r.Register(Registration{Class: "X", Name: "x", Kind: KindProc})
	require.Error(t, err, "missing factory")

	bad := mockRegistration("Bad Class", "bad", KindProc)
	require.Error(t, r.Register(bad), "class with space")

	badKind := mockRegistration("KindlessPlugin", "kindless", Kind("weird"))
	require.Error(t, r.Register(badKind))
}

func TestLazyInitializationUsesPersistedPaths(t *testing.T) {
	resetProviders()
	t.Cleanup(resetProviders)

	require.NoError(t, RegisterProvider("builtin", func(r *Registry) error {
		return r.Register(mockRegistration("LoaderPlugin", "loader", KindInput))
	}))

	store := config.NewMemoryStore()
	// Persisted paths contain a stale entry with no live provider.
	require.NoError(t, store.Set(PathsSettingsKey, "builtin;;ghost-path"))

	r := NewRegistry(store, nil)
	names, err := r.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"loader"}, names)

	// The stale path was pruned from persistence.
	stored, ok, err := store.Get(PathsSettingsKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "builtin", stored)
	assert.Equal(t, []string{"builtin"}, r.Paths())

	// Initialization completed exactly once, flagged for the UI.
	assert.True(t, r.ConsumePendingUpdate())
	assert.False(t, r.ConsumePendingUpdate())
}

func TestLazyInitializationFallsBackToDefaultPath(t *testing.T) {
	resetProviders()
	t.Cleanup(resetProviders)

	require.NoError(t, RegisterProvider(DefaultPath, func(r *Registry) error {
		return r.Register(mockRegistration("LoaderPlugin", "loader", KindInput))
	}))

	r := newTestRegistry()
	names, err := r.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"loader"}, names)
}

func TestUnregisterPathRemovesContributedPlugins(t *testing.T) {
	resetProviders()
	t.Cleanup(resetProviders)

	require.NoError(t, RegisterProvider("builtin", func(r *Registry) error {
		return r.Register(mockRegistration("LoaderPlugin", "loader", KindInput))
	}))
	require.NoError(t, RegisterProvider("extra", func(r *Registry) error {
		return r.Register(mockRegistration("ExtraPlugin", "extra-proc", KindProc))
	}))

	r := newTestRegistry()
	require.NoError(t, r.Load(true, "builtin", "extra"))

	require.NoError(t, r.UnregisterPath("extra"))

	_, err := r.PluginByName("extra-proc")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnknownPlugin)

	_, err = r.PluginByName("loader")
	assert.NoError(t, err)

	err = r.UnregisterPath("extra")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnknownPath)
}

func TestClearCollectionRequiresConfirmation(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.Register(mockRegistration("ScalerPlugin", "scaler", KindProc)))

	err := r.ClearCollection(false)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNotConfirmed)

	require.NoError(t, r.ClearCollection(true))
	r.mu.RLock()
	count := len(r.byName)
	r.mu.RUnlock()
	assert.Zero(t, count)
}

func TestRegisterProviderDuplicatePathFails(t *testing.T) {
	resetProviders()
	t.Cleanup(resetProviders)

	fn := func(*Registry) error { return nil }
	require.NoError(t, RegisterProvider("builtin", fn))
	err := RegisterProvider("builtin", fn)
	require.Error(t, err)
}

func TestProviderErrorAbortsLoad(t *testing.T) {
	resetProviders()
	t.Cleanup(resetProviders)

	require.NoError(t, RegisterProvider("broken", func(*Registry) error {
		return fmt.Errorf("deliberate failure")
	}))

	r := newTestRegistry()
	err := r.Load(true, "broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}
