// Package pluginregistry provides aggregate registration of all built-in
// processing plugins. Importing it installs the "builtin" provider, so a
// registry's lazy initialization picks the built-ins up automatically.
//
// Domain-specific plugin collections live in separate modules and install
// their own providers under their own path identifiers.
package pluginregistry

import (
	stderrors "errors"

	"github.com/hereon-GEMS/pydidas-sub009/errors"
	"github.com/hereon-GEMS/pydidas-sub009/plugin"
	"github.com/hereon-GEMS/pydidas-sub009/plugins/input/fileseries"
	"github.com/hereon-GEMS/pydidas-sub009/plugins/input/framesource"
	"github.com/hereon-GEMS/pydidas-sub009/plugins/output/filesink"
	"github.com/hereon-GEMS/pydidas-sub009/plugins/proc/integrate"
	"github.com/hereon-GEMS/pydidas-sub009/plugins/proc/scaler"
)

func init() {
	// A second registration of the builtin path can only happen when two
	// packages both claim it, which is a programming error worth a panic at
	// startup rather than a silently shadowed catalogue.
	if err := plugin.RegisterProvider(plugin.DefaultPath, Register); err != nil {
		panic(err)
	}
}

// Register registers every built-in plugin with the provided registry:
//
//   - FrameSource input (synthetic gradient frames)
//   - FileSeries input (raw binary frame files)
//   - Scaler proc (elementwise linear transform)
//   - Integrate proc (axis reduction by sum or mean)
//   - FileSink output (raw binary result files)
func Register(registry *plugin.Registry) error {
	if registry == nil {
		return errors.WrapStructural(
			stderrors.New("registry cannot be nil"),
			"PluginRegistry", "Register", "registry validation")
	}

	registrations := []plugin.Registration{
		framesource.Registration(),
		fileseries.Registration(),
		scaler.Registration(),
		integrate.Registration(),
		filesink.Registration(),
	}
	for _, reg := range registrations {
		if err := registry.Register(reg); err != nil {
			return errors.Wrap(err, "PluginRegistry", "Register",
				reg.Class+" plugin registration")
		}
	}
	return nil
}
