// Package dataset provides the multi-dimensional data artifact that flows
// through a workflow chain. Data is stored flat in row-major order with the
// shape, per-axis coordinate ranges and metadata carried alongside.
package dataset

import (
	"fmt"
	"maps"
	"slices"

	"github.com/hereon-GEMS/pydidas-sub009/errors"
)

// Dataset is an n-dimensional array with axis coordinates and metadata.
type Dataset struct {
	Shape      []int
	Data       []float64 // row-major
	AxisRanges [][]float64
	AxisLabels []string
	AxisUnits  []string
	Metadata   map[string]any
}

// New creates a zero-filled dataset of the given shape. Axis ranges default
// to ordinal coordinates 0..n-1 per dimension.
func New(shape ...int) *Dataset {
	size := 1
	for _, extent := range shape {
		size *= extent
	}
	ranges := make([][]float64, len(shape))
	for dim, extent := range shape {
		ranges[dim] = make([]float64, extent)
		for i := range ranges[dim] {
			ranges[dim][i] = float64(i)
		}
	}
	return &Dataset{
		Shape:      slices.Clone(shape),
		Data:       make([]float64, size),
		AxisRanges: ranges,
		AxisLabels: make([]string, len(shape)),
		AxisUnits:  make([]string, len(shape)),
		Metadata:   make(map[string]any),
	}
}

// NDim returns the number of dimensions.
func (d *Dataset) NDim() int {
	return len(d.Shape)
}

// Size returns the total number of elements.
func (d *Dataset) Size() int {
	return len(d.Data)
}

// flatIndex converts per-dimension indices to the row-major flat offset.
func (d *Dataset) flatIndex(indices ...int) (int, error) {
	if len(indices) != len(d.Shape) {
		return 0, errors.WrapStructural(
			fmt.Errorf("got %d indices for %d dimensions: %w",
				len(indices), len(d.Shape), errors.ErrDimensionCount),
			"Dataset", "flatIndex", "index count check")
	}
	flat := 0
	for dim, idx := range indices {
		if idx < 0 || idx >= d.Shape[dim] {
			return 0, errors.WrapStructural(
				fmt.Errorf("index %d outside extent %d of dimension %d: %w",
					idx, d.Shape[dim], dim, errors.ErrIndexOutOfRange),
				"Dataset", "flatIndex", "bounds check")
		}
		flat = flat*d.Shape[dim] + idx
	}
	return flat, nil
}

// At returns the element at the given per-dimension indices.
func (d *Dataset) At(indices ...int) (float64, error) {
	flat, err := d.flatIndex(indices...)
	if err != nil {
		return 0, err
	}
	return d.Data[flat], nil
}

// SetAt stores a value at the given per-dimension indices.
func (d *Dataset) SetAt(value float64, indices ...int) error {
	flat, err := d.flatIndex(indices...)
	if err != nil {
		return err
	}
	d.Data[flat] = value
	return nil
}

// Clone returns a deep copy sharing no mutable state with the original.
func (d *Dataset) Clone() *Dataset {
	clone := &Dataset{
		Shape:      slices.Clone(d.Shape),
		Data:       slices.Clone(d.Data),
		AxisRanges: make([][]float64, len(d.AxisRanges)),
		AxisLabels: slices.Clone(d.AxisLabels),
		AxisUnits:  slices.Clone(d.AxisUnits),
		Metadata:   make(map[string]any, len(d.Metadata)),
	}
	for dim, axis := range d.AxisRanges {
		clone.AxisRanges[dim] = slices.Clone(axis)
	}
	maps.Copy(clone.Metadata, d.Metadata)
	return clone
}

// ReducedShape returns the shape with the given axis removed. Scalar results
// keep an explicit single-element shape.
func ReducedShape(shape []int, axis int) ([]int, error) {
	if axis < 0 || axis >= len(shape) {
		return nil, errors.WrapConfig(
			fmt.Errorf("axis %d outside %d dimensions: %w", axis, len(shape), errors.ErrIndexOutOfRange),
			"Dataset", "ReducedShape", "axis check")
	}
	reduced := append(append([]int{}, shape[:axis]...), shape[axis+1:]...)
	if len(reduced) == 0 {
		reduced = []int{1}
	}
	return reduced, nil
}

// SumAxis reduces the dataset by summing over one axis. Axis bookkeeping for
// the remaining dimensions is preserved.
func (d *Dataset) SumAxis(axis int) (*Dataset, error) {
	return d.reduceAxis(axis, false)
}

// MeanAxis reduces the dataset by averaging over one axis.
func (d *Dataset) MeanAxis(axis int) (*Dataset, error) {
	return d.reduceAxis(axis, true)
}

func (d *Dataset) reduceAxis(axis int, mean bool) (*Dataset, error) {
	reduced, err := ReducedShape(d.Shape, axis)
	if err != nil {
		return nil, err
	}
	out := New(reduced...)

	// Strides of the source array.
	strides := make([]int, len(d.Shape))
	stride := 1
	for dim := len(d.Shape) - 1; dim >= 0; dim-- {
		strides[dim] = stride
		stride *= d.Shape[dim]
	}

	outer := d.Size() / d.Shape[axis]
	counters := make([]int, len(d.Shape))
	for i := 0; i < outer; i++ {
		base := 0
		for dim, c := range counters {
			base += c * strides[dim]
		}
		sum := 0.0
		for k := 0; k < d.Shape[axis]; k++ {
			sum += d.Data[base+k*strides[axis]]
		}
		if mean {
			sum /= float64(d.Shape[axis])
		}
		out.Data[i] = sum

		// Advance counters over all dimensions except the reduced one.
		for dim := len(counters) - 1; dim >= 0; dim-- {
			if dim == axis {
				continue
			}
			counters[dim]++
			if counters[dim] < d.Shape[dim] {
				break
			}
			counters[dim] = 0
		}
	}

	// Carry over axis bookkeeping for the surviving dimensions.
	outDim := 0
	for dim := range d.Shape {
		if dim == axis || outDim >= len(out.Shape) {
			continue
		}
		if len(d.AxisRanges[dim]) == out.Shape[outDim] {
			out.AxisRanges[outDim] = slices.Clone(d.AxisRanges[dim])
		}
		if dim < len(d.AxisLabels) {
			out.AxisLabels[outDim] = d.AxisLabels[dim]
		}
		if dim < len(d.AxisUnits) {
			out.AxisUnits[outDim] = d.AxisUnits[dim]
		}
		outDim++
	}
	maps.Copy(out.Metadata, d.Metadata)
	return out, nil
}

// Extract carves a rectangular-in-index-space subset out of the dataset.
// selection holds one ascending index array per dimension, as produced by
// the selector.
func (d *Dataset) Extract(selection [][]int) (*Dataset, error) {
	if len(selection) != len(d.Shape) {
		return nil, errors.WrapConfig(
			fmt.Errorf("got %d index arrays for %d dimensions: %w",
				len(selection), len(d.Shape), errors.ErrDimensionCount),
			"Dataset", "Extract", "selection arity check")
	}

	outShape := make([]int, len(selection))
	for dim, indices := range selection {
		for _, idx := range indices {
			if idx < 0 || idx >= d.Shape[dim] {
				return nil, errors.WrapConfig(
					fmt.Errorf("index %d outside extent %d of dimension %d: %w",
						idx, d.Shape[dim], dim, errors.ErrIndexOutOfRange),
					"Dataset", "Extract", "bounds check")
			}
		}
		outShape[dim] = len(indices)
	}

	out := New(outShape...)
	counters := make([]int, len(outShape))
	src := make([]int, len(outShape))
	for i := 0; i < out.Size(); i++ {
		for dim, c := range counters {
			src[dim] = selection[dim][c]
		}
		value, err := d.At(src...)
		if err != nil {
			return nil, err
		}
		out.Data[i] = value

		for dim := len(counters) - 1; dim >= 0; dim-- {
			counters[dim]++
			if counters[dim] < outShape[dim] {
				break
			}
			counters[dim] = 0
		}
	}

	// Subset the axis coordinates along each dimension.
	for dim, indices := range selection {
		axis := make([]float64, len(indices))
		for i, idx := range indices {
			axis[i] = d.AxisRanges[dim][idx]
		}
		out.AxisRanges[dim] = axis
		out.AxisLabels[dim] = d.AxisLabels[dim]
		out.AxisUnits[dim] = d.AxisUnits[dim]
	}
	maps.Copy(out.Metadata, d.Metadata)
	return out, nil
}
