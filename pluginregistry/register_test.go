package pluginregistry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hereon-GEMS/pydidas-sub009/config"
	"github.com/hereon-GEMS/pydidas-sub009/plugin"
)

func TestRegisterInstallsAllBuiltins(t *testing.T) {
	registry := plugin.NewRegistry(config.NewMemoryStore(), nil)
	require.NoError(t, Register(registry))

	classes, err := registry.Classes()
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]string{"FrameSource", "FileSeries", "Scaler", "Integrate", "FileSink"},
		classes)

	inputs, err := registry.AllOfKind(plugin.KindInput)
	require.NoError(t, err)
	assert.Len(t, inputs, 2)

	p, err := registry.PluginByClass("Scaler")
	require.NoError(t, err)
	assert.Equal(t, plugin.KindProc, p.Meta().Kind)
}

func TestRegisterRejectsNilRegistry(t *testing.T) {
	require.Error(t, Register(nil))
}

func TestBuiltinProviderServesLazyInitialization(t *testing.T) {
	// The init hook installs the builtin provider, so a fresh registry's
	// first query loads the catalogue without explicit registration.
	registry := plugin.NewRegistry(config.NewMemoryStore(), nil)

	names, err := registry.Names()
	require.NoError(t, err)
	assert.Contains(t, names, "frame-source")
	assert.Contains(t, names, "file-sink")
	assert.Equal(t, []string{plugin.DefaultPath}, registry.Paths())
}
