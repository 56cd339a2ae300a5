// Package scaler provides a proc unit applying an elementwise linear
// transform (factor and offset) to the incoming frame.
package scaler

import (
	"context"

	"github.com/hereon-GEMS/pydidas-sub009/config"
	"github.com/hereon-GEMS/pydidas-sub009/dataset"
	"github.com/hereon-GEMS/pydidas-sub009/plugin"
)

// Class is the implementation identifier in the plugin catalogue.
const Class = "Scaler"

// Scaler computes out = in*factor + offset without changing the shape.
type Scaler struct {
	plugin.BasePlugin
	factor float64
	offset float64
}

// New creates a scaler with the identity transform.
func New() *Scaler {
	return &Scaler{
		BasePlugin: plugin.NewBasePlugin(
			plugin.Metadata{
				Class:       Class,
				Name:        "scaler",
				Kind:        plugin.KindProc,
				Description: "Elementwise linear transform",
				Version:     "1.0.0",
			},
			map[string]any{"factor": 1.0, "offset": 0.0},
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

// PreExecute reads the transform parameters once per run.
func (p *Scaler) PreExecute() error {
	values := p.ConfigValues()
	p.factor = config.GetFloat64(values, "factor", 1.0)
	p.offset = config.GetFloat64(values, "offset", 0.0)
	return nil
}

// Execute applies the transform to an independent copy of the frame and
// records the applied factor in the aux bag.
func (p *Scaler) Execute(
	_ context.Context, _ int, data *dataset.Dataset, aux plugin.Aux,
) (*dataset.Dataset, plugin.Aux, error) {
	out := data.Clone()
	for i, v := range out.Data {
		out.Data[i] = v*p.factor + p.offset
	}

	aux[plugin.NodeKey(p.NodeID(), "factor")] = p.factor
	aux[plugin.NodeKey(p.NodeID(), "offset")] = p.offset
	return out, aux, nil
}

// OutputShape passes the parent shape through unchanged.
func (p *Scaler) OutputShape(parent plugin.Shape) (plugin.Shape, error) {
	return plugin.CloneShape(parent), nil
}

// Copy returns an independent instance.
func (p *Scaler) Copy() plugin.Plugin {
	return &Scaler{BasePlugin: p.CopyBase(), factor: p.factor, offset: p.offset}
}
