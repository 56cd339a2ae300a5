package scaler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hereon-GEMS/pydidas-sub009/dataset"
	"github.com/hereon-GEMS/pydidas-sub009/plugin"
)

func TestAppliesLinearTransform(t *testing.T) {
	p := New()
	p.SetNodeID(2)
	require.NoError(t, p.Configure(map[string]any{"factor": 2.0, "offset": 1.0}))
	require.NoError(t, p.PreExecute())

	in := dataset.New(2, 2)
	in.Data = []float64{0, 1, 2, 3}

	out, aux, err := p.Execute(context.Background(), 0, in, plugin.Aux{})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3, 5, 7}, out.Data)
	assert.Equal(t, 2.0, aux["node02/factor"])
	assert.Equal(t, 1.0, aux["node02/offset"])

	// The incoming frame stays untouched.
	assert.Equal(t, []float64{0, 1, 2, 3}, in.Data)
}

func TestDefaultIsIdentity(t *testing.T) {
	p := New()
	require.NoError(t, p.PreExecute())

	in := dataset.New(1, 3)
	in.Data = []float64{4, 5, 6}

	out, _, err := p.Execute(context.Background(), 0, in, plugin.Aux{})
	require.NoError(t, err)
	assert.Equal(t, in.Data, out.Data)
}

func TestOutputShapeUnchanged(t *testing.T) {
	p := New()
	shape, err := p.OutputShape(plugin.Shape{4, 6})
	require.NoError(t, err)
	assert.Equal(t, plugin.Shape{4, 6}, shape)
}

func TestCopyIsIndependent(t *testing.T) {
	p := New()
	require.NoError(t, p.SetConfigValue("factor", 3.0))

	clone := p.Copy()
	require.NoError(t, clone.SetConfigValue("factor", 7.0))

	factor, _ := p.ConfigValue("factor")
	assert.Equal(t, 3.0, factor)
}
