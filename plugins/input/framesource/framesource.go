// Package framesource provides a synthetic input unit producing generated
// detector frames, used for pipeline tests and dry runs without data files.
package framesource

import (
	"context"
	"fmt"

	"github.com/hereon-GEMS/pydidas-sub009/config"
	"github.com/hereon-GEMS/pydidas-sub009/dataset"
	"github.com/hereon-GEMS/pydidas-sub009/errors"
	"github.com/hereon-GEMS/pydidas-sub009/plugin"
)

// Class is the implementation identifier in the plugin catalogue.
const Class = "FrameSource"

type sourceConfig struct {
	Rows   int     `config:"rows"`
	Cols   int     `config:"cols"`
	Offset float64 `config:"offset"`
}

// FrameSource generates one gradient frame per index. The pixel at (r, c)
// holds offset + frame + r*cols + c, which makes individual frames and
// positions recognizable downstream.
type FrameSource struct {
	plugin.BasePlugin
	cfg sourceConfig
}

// New creates a frame source with a 64x64 default frame.
func New() *FrameSource {
	return &FrameSource{
		BasePlugin: plugin.NewBasePlugin(
			plugin.Metadata{
				Class:       Class,
				Name:        "frame-source",
				Kind:        plugin.KindInput,
				Description: "Synthetic gradient frames for tests and dry runs",
				Version:     "1.0.0",
			},
			map[string]any{"rows": 64, "cols": 64, "offset": 0.0},
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

// PreExecute decodes and checks the frame geometry once per run.
func (p *FrameSource) PreExecute() error {
	if err := p.DecodeConfig(&p.cfg); err != nil {
		return err
	}
	if p.cfg.Rows <= 0 || p.cfg.Cols <= 0 {
		return errors.WrapConfig(
			fmt.Errorf("frame geometry %dx%d: %w", p.cfg.Rows, p.cfg.Cols, errors.ErrInvalidConfig),
			"FrameSource", "PreExecute", "geometry check")
	}
	return nil
}

// Execute generates the frame for the given index.
func (p *FrameSource) Execute(
	_ context.Context, frame int, _ *dataset.Dataset, aux plugin.Aux,
) (*dataset.Dataset, plugin.Aux, error) {
	out := dataset.New(p.cfg.Rows, p.cfg.Cols)
	for i := range out.Data {
		out.Data[i] = p.cfg.Offset + float64(frame) + float64(i)
	}
	out.AxisLabels[0], out.AxisLabels[1] = "row", "column"
	out.Metadata["frame"] = frame

	aux[plugin.NodeKey(p.NodeID(), "frame")] = frame
	return out, aux, nil
}

// OutputShape declares the configured frame geometry.
func (p *FrameSource) OutputShape(_ plugin.Shape) (plugin.Shape, error) {
	values := p.ConfigValues()
	return plugin.Shape{
		config.GetInt(values, "rows", 64),
		config.GetInt(values, "cols", 64),
	}, nil
}

// Copy returns an independent instance.
func (p *FrameSource) Copy() plugin.Plugin {
	return &FrameSource{BasePlugin: p.CopyBase(), cfg: p.cfg}
}
