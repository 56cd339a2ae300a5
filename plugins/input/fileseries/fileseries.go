// Package fileseries provides an input unit reading a series of raw binary
// frame files from disk, one file per frame index. A missing file is a
// transient error: during a running acquisition the frame may simply not
// have been written yet, and the runner's backoff will pick it up.
package fileseries

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hereon-GEMS/pydidas-sub009/config"
	"github.com/hereon-GEMS/pydidas-sub009/dataset"
	"github.com/hereon-GEMS/pydidas-sub009/errors"
	"github.com/hereon-GEMS/pydidas-sub009/plugin"
)

// Class is the implementation identifier in the plugin catalogue.
const Class = "FileSeries"

type seriesConfig struct {
	Directory string `config:"directory"`
	Template  string `config:"template"`
	Rows      int    `config:"rows"`
	Cols      int    `config:"cols"`
}

// FileSeries reads little-endian float64 frames of fixed geometry from
// files named by an index template, e.g. frame_%05d.bin.
type FileSeries struct {
	plugin.BasePlugin
	cfg seriesConfig
}

// New creates a file series reader with an empty directory configuration.
func New() *FileSeries {
	return &FileSeries{
		BasePlugin: plugin.NewBasePlugin(
			plugin.Metadata{
				Class:       Class,
				Name:        "file-series",
				Kind:        plugin.KindInput,
				Description: "Raw binary frame files read by frame index",
				Version:     "1.0.0",
			},
			map[string]any{
				"directory": "",
				"template":  "frame_%05d.bin",
				"rows":      64,
				"cols":      64,
			},
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

// PreExecute decodes the configuration and verifies the series directory.
func (p *FileSeries) PreExecute() error {
	if err := p.DecodeConfig(&p.cfg); err != nil {
		return err
	}
	if p.cfg.Rows <= 0 || p.cfg.Cols <= 0 {
		return errors.WrapConfig(
			fmt.Errorf("frame geometry %dx%d: %w", p.cfg.Rows, p.cfg.Cols, errors.ErrInvalidConfig),
			"FileSeries", "PreExecute", "geometry check")
	}
	if p.cfg.Directory == "" {
		return errors.WrapConfig(
			fmt.Errorf("directory: %w", errors.ErrMissingConfig),
			"FileSeries", "PreExecute", "directory check")
	}
	info, err := os.Stat(p.cfg.Directory)
	if err != nil || !info.IsDir() {
		return errors.WrapConfig(
			fmt.Errorf("directory %q: %w", p.cfg.Directory, errors.ErrInvalidConfig),
			"FileSeries", "PreExecute", "directory check")
	}
	return nil
}

// Execute reads the frame file for the given index.
func (p *FileSeries) Execute(
	_ context.Context, frame int, _ *dataset.Dataset, aux plugin.Aux,
) (*dataset.Dataset, plugin.Aux, error) {
	path := filepath.Join(p.cfg.Directory, fmt.Sprintf(p.cfg.Template, frame))
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.WrapTransient(
				fmt.Errorf("frame %d at %s: %w", frame, path, errors.ErrFrameUnavailable),
				"FileSeries", "Execute", "frame open")
		}
		return nil, nil, errors.Wrap(err, "FileSeries", "Execute", "frame open")
	}
	defer file.Close()

	out := dataset.New(p.cfg.Rows, p.cfg.Cols)
	if err := binary.Read(file, binary.LittleEndian, out.Data); err != nil {
		return nil, nil, errors.WrapConfig(
			fmt.Errorf("frame %d at %s holds fewer than %d values: %w",
				frame, path, len(out.Data), errors.ErrInvalidConfig),
			"FileSeries", "Execute", "frame read")
	}
	out.AxisLabels[0], out.AxisLabels[1] = "row", "column"
	out.Metadata["frame"] = frame
	out.Metadata["source"] = path

	aux[plugin.NodeKey(p.NodeID(), "source")] = path
	return out, aux, nil
}

// OutputShape declares the configured frame geometry.
func (p *FileSeries) OutputShape(_ plugin.Shape) (plugin.Shape, error) {
	values := p.ConfigValues()
	return plugin.Shape{
		config.GetInt(values, "rows", 64),
		config.GetInt(values, "cols", 64),
	}, nil
}

// Copy returns an independent instance.
func (p *FileSeries) Copy() plugin.Plugin {
	return &FileSeries{BasePlugin: p.CopyBase(), cfg: p.cfg}
}
