package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hereon-GEMS/pydidas-sub009/errors"
)

func TestAuxCloneIsIndependent(t *testing.T) {
	original := Aux{"scan/index": 3, "detector": "eiger"}
	clone := original.Clone()

	clone["scan/index"] = 99
	clone["extra"] = true

	assert.Equal(t, 3, original["scan/index"])
	assert.NotContains(t, original, "extra")
}

func TestNodeKeyQualifiesPerNode(t *testing.T) {
	assert.Equal(t, "node02/scale", NodeKey(2, "scale"))
	assert.NotEqual(t, NodeKey(1, "scale"), NodeKey(2, "scale"))
}

func TestBasePluginConfigureUnknownKeyFails(t *testing.T) {
	b := NewBasePlugin(Metadata{Name: "scaler"}, map[string]any{"factor": 1.0})

	err := b.Configure(map[string]any{"factor": 2.0, "bogus": 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnknownKey)
	assert.Contains(t, err.Error(), "bogus")

	// Nothing was applied.
	v, ok := b.ConfigValue("factor")
	require.True(t, ok)
	assert.Equal(t, 1.0, v)
}

func TestBasePluginSetAndGet(t *testing.T) {
	b := NewBasePlugin(Metadata{Name: "scaler"}, map[string]any{"factor": 1.0, "offset": 0.0})

	require.NoError(t, b.SetConfigValue("factor", 2.5))
	v, ok := b.ConfigValue("factor")
	require.True(t, ok)
	assert.Equal(t, 2.5, v)

	err := b.SetConfigValue("ghost", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnknownKey)

	values := b.ConfigValues()
	values["factor"] = -1.0
	v, _ = b.ConfigValue("factor")
	assert.Equal(t, 2.5, v, "ConfigValues must return a copy")
}

func TestBasePluginCopyBaseIsIndependent(t *testing.T) {
	b := NewBasePlugin(Metadata{Name: "scaler"}, map[string]any{"factor": 1.0})
	clone := b.CopyBase()

	require.NoError(t, clone.SetConfigValue("factor", 9.0))
	v, _ := b.ConfigValue("factor")
	assert.Equal(t, 1.0, v)
}

func TestDecodeConfig(t *testing.T) {
	b := NewBasePlugin(Metadata{Name: "scaler"}, map[string]any{
		"factor": 2.0,
		"offset": 1,
		"label":  "calibrated",
	})

	var cfg struct {
		Factor float64 `config:"factor"`
		Offset float64 `config:"offset"`
		Label  string  `config:"label"`
	}
	require.NoError(t, b.DecodeConfig(&cfg))
	assert.Equal(t, 2.0, cfg.Factor)
	assert.Equal(t, 1.0, cfg.Offset)
	assert.Equal(t, "calibrated", cfg.Label)
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("scaler-1.0_beta"))
	assert.Error(t, ValidateName(""))
	assert.Error(t, ValidateName("white space"))
	assert.Error(t, ValidateName("sla/sh"))
}
