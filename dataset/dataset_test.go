package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hereon-GEMS/pydidas-sub009/errors"
)

func sequential(shape ...int) *Dataset {
	d := New(shape...)
	for i := range d.Data {
		d.Data[i] = float64(i)
	}
	return d
}

func TestNewShapeAndSize(t *testing.T) {
	d := New(2, 3, 4)
	assert.Equal(t, 3, d.NDim())
	assert.Equal(t, 24, d.Size())
	assert.Equal(t, []float64{0, 1, 2}, d.AxisRanges[1])
}

func TestAtSetAtRowMajor(t *testing.T) {
	d := New(2, 3)
	require.NoError(t, d.SetAt(7.5, 1, 2))
	assert.Equal(t, 7.5, d.Data[5])

	v, err := d.At(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 7.5, v)
}

func TestAtBoundsChecks(t *testing.T) {
	d := New(2, 3)
	_, err := d.At(2, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrIndexOutOfRange)

	_, err = d.At(0)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDimensionCount)
}

func TestCloneIndependence(t *testing.T) {
	d := sequential(2, 2)
	d.Metadata["source"] = "test"

	clone := d.Clone()
	clone.Data[0] = 99
	clone.Metadata["source"] = "clone"
	clone.AxisRanges[0][0] = -1

	assert.Equal(t, 0.0, d.Data[0])
	assert.Equal(t, "test", d.Metadata["source"])
	assert.Equal(t, 0.0, d.AxisRanges[0][0])
}

func TestSumAxis(t *testing.T) {
	// [[0 1 2] [3 4 5]]
	d := sequential(2, 3)

	sum0, err := d.SumAxis(0)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, sum0.Shape)
	assert.Equal(t, []float64{3, 5, 7}, sum0.Data)

	sum1, err := d.SumAxis(1)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, sum1.Shape)
	assert.Equal(t, []float64{3, 12}, sum1.Data)
}

func TestMeanAxisScalarKeepsShape(t *testing.T) {
	d := sequential(4)
	mean, err := d.MeanAxis(0)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, mean.Shape)
	assert.Equal(t, []float64{1.5}, mean.Data)
}

func TestSumAxisInvalidAxis(t *testing.T) {
	d := sequential(2, 2)
	_, err := d.SumAxis(2)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrIndexOutOfRange)
}

func TestExtract(t *testing.T) {
	// [[0 1 2 3] [4 5 6 7] [8 9 10 11]]
	d := sequential(3, 4)
	d.AxisRanges[1] = []float64{10, 20, 30, 40}

	sub, err := d.Extract([][]int{{0, 2}, {1, 3}})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, sub.Shape)
	assert.Equal(t, []float64{1, 3, 9, 11}, sub.Data)
	assert.Equal(t, []float64{20, 40}, sub.AxisRanges[1])
}

func TestExtractArityAndBounds(t *testing.T) {
	d := sequential(3, 4)

	_, err := d.Extract([][]int{{0}})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDimensionCount)

	_, err = d.Extract([][]int{{0}, {4}})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrIndexOutOfRange)
}
