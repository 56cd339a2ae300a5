// Package filesink provides an output unit writing processed frames to disk
// as raw little-endian float64 files, one file per frame.
package filesink

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hereon-GEMS/pydidas-sub009/dataset"
	"github.com/hereon-GEMS/pydidas-sub009/errors"
	"github.com/hereon-GEMS/pydidas-sub009/plugin"
)

// Class is the implementation identifier in the plugin catalogue.
const Class = "FileSink"

type sinkConfig struct {
	Directory string `config:"directory"`
	Template  string `config:"template"`
}

// FileSink terminates its branch and persists every received frame.
type FileSink struct {
	plugin.BasePlugin
	cfg sinkConfig
}

// New creates a file sink with an empty directory configuration.
func New() *FileSink {
	return &FileSink{
		BasePlugin: plugin.NewBasePlugin(
			plugin.Metadata{
				Class:       Class,
				Name:        "file-sink",
				Kind:        plugin.KindOutput,
				Description: "Raw binary frame files written per frame index",
				Version:     "1.0.0",
			},
			map[string]any{
				"directory": "",
				"template":  "result_%05d.bin",
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

// PreExecute decodes the configuration and creates the target directory.
func (p *FileSink) PreExecute() error {
	if err := p.DecodeConfig(&p.cfg); err != nil {
		return err
	}
	if p.cfg.Directory == "" {
		return errors.WrapConfig(
			fmt.Errorf("directory: %w", errors.ErrMissingConfig),
			"FileSink", "PreExecute", "directory check")
	}
	if err := os.MkdirAll(p.cfg.Directory, 0o755); err != nil {
		return errors.Wrap(err, "FileSink", "PreExecute", "directory creation")
	}
	return nil
}

// Execute writes the frame and passes it through unchanged, so the branch
// result still carries the data.
func (p *FileSink) Execute(
	_ context.Context, frame int, data *dataset.Dataset, aux plugin.Aux,
) (*dataset.Dataset, plugin.Aux, error) {
	path := filepath.Join(p.cfg.Directory, fmt.Sprintf(p.cfg.Template, frame))
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "FileSink", "Execute", "result file creation")
	}
	if err := binary.Write(file, binary.LittleEndian, data.Data); err != nil {
		file.Close()
		return nil, nil, errors.Wrap(err, "FileSink", "Execute", "result write")
	}
	if err := file.Close(); err != nil {
		return nil, nil, errors.Wrap(err, "FileSink", "Execute", "result file close")
	}

	aux[plugin.NodeKey(p.NodeID(), "path")] = path
	return data, aux, nil
}

// OutputShape passes the parent shape through unchanged.
func (p *FileSink) OutputShape(parent plugin.Shape) (plugin.Shape, error) {
	return plugin.CloneShape(parent), nil
}

// Copy returns an independent instance.
func (p *FileSink) Copy() plugin.Plugin {
	return &FileSink{BasePlugin: p.CopyBase(), cfg: p.cfg}
}
