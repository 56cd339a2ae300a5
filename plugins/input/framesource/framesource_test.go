package framesource

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hereon-GEMS/pydidas-sub009/errors"
	"github.com/hereon-GEMS/pydidas-sub009/plugin"
)

func TestGeneratesRecognizableFrames(t *testing.T) {
	p := New()
	require.NoError(t, p.Configure(map[string]any{"rows": 2, "cols": 3, "offset": 10.0}))
	require.NoError(t, p.PreExecute())

	out, aux, err := p.Execute(context.Background(), 5, nil, plugin.Aux{})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, out.Shape)
	assert.Equal(t, 15.0, out.Data[0])
	assert.Equal(t, 20.0, out.Data[5])
	assert.Equal(t, 5, out.Metadata["frame"])
	assert.Equal(t, 5, aux[plugin.NodeKey(p.NodeID(), "frame")])
}

func TestOutputShapeFollowsConfig(t *testing.T) {
	p := New()
	require.NoError(t, p.Configure(map[string]any{"rows": 8, "cols": 4}))

	shape, err := p.OutputShape(nil)
	require.NoError(t, err)
	assert.Equal(t, plugin.Shape{8, 4}, shape)
}

func TestPreExecuteRejectsBadGeometry(t *testing.T) {
	p := New()
	require.NoError(t, p.Configure(map[string]any{"rows": 0}))

	err := p.PreExecute()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
}

func TestRegistration(t *testing.T) {
	reg := Registration()
	assert.Equal(t, Class, reg.Class)
	assert.Equal(t, plugin.KindInput, reg.Kind)
	require.NotNil(t, reg.Factory)

	instance := reg.Factory()
	assert.Equal(t, Class, instance.Meta().Class)
}
