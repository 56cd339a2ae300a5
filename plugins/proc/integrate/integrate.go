// Package integrate provides a proc unit reducing the incoming frame over
// one axis, by sum or mean. It is the built-in unit whose output shape
// differs from its input shape, exercising downstream shape propagation.
package integrate

import (
	"context"
	"fmt"

	"github.com/hereon-GEMS/pydidas-sub009/config"
	"github.com/hereon-GEMS/pydidas-sub009/dataset"
	"github.com/hereon-GEMS/pydidas-sub009/errors"
	"github.com/hereon-GEMS/pydidas-sub009/plugin"
)

// Class is the implementation identifier in the plugin catalogue.
const Class = "Integrate"

// Reduction modes.
const (
	ModeSum  = "sum"
	ModeMean = "mean"
)

// Integrate collapses one axis of the incoming frame.
type Integrate struct {
	plugin.BasePlugin
	axis int
	mode string
}

// New creates an integrator summing over axis 0.
func New() *Integrate {
	return &Integrate{
		BasePlugin: plugin.NewBasePlugin(
			plugin.Metadata{
				Class:       Class,
				Name:        "integrate",
				Kind:        plugin.KindProc,
				Description: "Axis reduction by sum or mean",
				Version:     "1.0.0",
			},
			map[string]any{"axis": 0, "mode": ModeSum},
		),
	}
}

// Registration returns the catalogue entry for this plugin.
func Registration() plugin.Registration {
	meta := New().Meta()
	return plugin.Registration{
		Class:       meta.Class,
		Name:        meta.Name,
		Kind:        meta.Kind,
		Description: meta.Description,
		Version:     meta.Version,
		Factory:     func() plugin.Plugin { return New() },
	}
}

// PreExecute reads and checks the reduction parameters once per run.
func (p *Integrate) PreExecute() error {
	values := p.ConfigValues()
	p.axis = config.GetInt(values, "axis", 0)
	p.mode = config.GetString(values, "mode", ModeSum)
	if p.mode != ModeSum && p.mode != ModeMean {
		return errors.WrapConfig(
			fmt.Errorf("mode %q: %w", p.mode, errors.ErrInvalidConfig),
			"Integrate", "PreExecute", "mode check")
	}
	return nil
}

// Execute reduces the frame over the configured axis.
func (p *Integrate) Execute(
	_ context.Context, _ int, data *dataset.Dataset, aux plugin.Aux,
) (*dataset.Dataset, plugin.Aux, error) {
	var out *dataset.Dataset
	var err error
	if p.mode == ModeMean {
		out, err = data.MeanAxis(p.axis)
	} else {
		out, err = data.SumAxis(p.axis)
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "Integrate", "Execute", "axis reduction")
	}

	aux[plugin.NodeKey(p.NodeID(), "axis")] = p.axis
	aux[plugin.NodeKey(p.NodeID(), "mode")] = p.mode
	return out, aux, nil
}

// OutputShape declares the parent shape with the reduced axis removed.
func (p *Integrate) OutputShape(parent plugin.Shape) (plugin.Shape, error) {
	axis := config.GetInt(p.ConfigValues(), "axis", 0)
	reduced, err := dataset.ReducedShape(parent, axis)
	if err != nil {
		return nil, errors.Wrap(err, "Integrate", "OutputShape", "shape reduction")
	}
	return plugin.Shape(reduced), nil
}

// Copy returns an independent instance.
func (p *Integrate) Copy() plugin.Plugin {
	return &Integrate{BasePlugin: p.CopyBase(), axis: p.axis, mode: p.mode}
}
