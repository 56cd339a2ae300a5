package plugin

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/mitchellh/mapstructure"

	"github.com/hereon-GEMS/pydidas-sub009/dataset"
	"github.com/hereon-GEMS/pydidas-sub009/errors"
)

// Kind classifies a processing unit within the workflow chain.
type Kind string

// Kind constants define where a unit may appear in a chain:
//   - KindInput: chain roots, produce data from a frame index
//   - KindProc: transform data and annotate the auxiliary bag
//   - KindOutput: chain leaves, terminate propagation along their branch
//   - KindBase: reusable abstract bases, never constructible by name
const (
	KindInput  Kind = "input"
	KindProc   Kind = "proc"
	KindOutput Kind = "output"
	KindBase   Kind = "base"
)

// Valid reports whether the kind is one of the defined classifications.
func (k Kind) Valid() bool {
	switch k {
	case KindInput, KindProc, KindOutput, KindBase:
		return true
	}
	return false
}

// Metadata describes what a plugin is.
type Metadata struct {
	Class       string `json:"class"`       // Implementation identifier, unique per type
	Name        string `json:"name"`        // Logical name, globally unique across the registry
	Kind        Kind   `json:"kind"`        // input, proc, output or base
	Description string `json:"description"` // Human-readable description
	Version     string `json:"version"`     // Plugin version
}

// Shape is a declared output shape, one extent per dimension.
type Shape []int

// Aux is the auxiliary key/value bag pushed alongside data during chain
// execution. Every branch receives its own copy so that sibling mutations
// stay invisible to each other.
type Aux map[string]any

// Clone returns an independent copy of the bag.
func (a Aux) Clone() Aux {
	clone := make(Aux, len(a))
	maps.Copy(clone, a)
	return clone
}

// NodeKey qualifies an aux key with the node id that wrote it, so per-node
// measurements from parallel branches never collide.
func NodeKey(nodeID int, key string) string {
	return fmt.Sprintf("node%02d/%s", nodeID, key)
}

// Plugin is the capability contract every node payload must satisfy.
//
// Input units ignore the incoming data argument and produce a dataset from
// the frame index; proc and output units receive the upstream dataset. All
// units may read and extend the aux bag; the returned bag is forwarded
// downstream.
type Plugin interface {
	// Meta returns the plugin's classification and identifiers.
	Meta() Metadata

	// PreExecute performs one-time setup. Failures abort the whole
	// pipeline's pre-execution pass.
	PreExecute() error

	// Execute processes one frame. Implementations must not retain or
	// mutate the incoming dataset beyond the call.
	Execute(ctx context.Context, frame int, data *dataset.Dataset, aux Aux) (*dataset.Dataset, Aux, error)

	// OutputShape declares the unit's output shape given the parent's
	// declared shape. Input units receive nil and declare unconditionally.
	OutputShape(parent Shape) (Shape, error)

	// Configuration-value access keyed by string identifiers.
	Configure(values map[string]any) error
	ConfigValue(key string) (any, bool)
	SetConfigValue(key string, value any) error
	ConfigValues() map[string]any

	// Copy returns an independent instance sharing no mutable state.
	Copy() Plugin
}

// NodeAware is implemented by plugins that want to know the id of the tree
// node carrying them, typically to qualify their aux-bag keys. The workflow
// tree calls SetNodeID when the plugin is attached.
type NodeAware interface {
	SetNodeID(id int)
}

// BasePlugin provides the configuration-value plumbing shared by all
// concrete plugins. Concrete types embed it and supply Execute/OutputShape.
type BasePlugin struct {
	meta   Metadata
	config map[string]any
	nodeID int
}

// NewBasePlugin creates the embeddable base with metadata and the complete
// set of configuration keys with their defaults. The default keys define the
// accepted key set: setting an unknown key is a lookup error.
func NewBasePlugin(meta Metadata, defaults map[string]any) BasePlugin {
	cfg := make(map[string]any, len(defaults))
	maps.Copy(cfg, defaults)
	return BasePlugin{meta: meta, config: cfg, nodeID: -1}
}

// SetNodeID records the id of the tree node carrying this plugin.
func (b *BasePlugin) SetNodeID(id int) {
	b.nodeID = id
}

// NodeID returns the carrying node's id, or -1 when detached.
func (b *BasePlugin) NodeID() int {
	return b.nodeID
}

// Meta returns the plugin metadata.
func (b *BasePlugin) Meta() Metadata {
	return b.meta
}

// PreExecute is a no-op by default; plugins with one-time setup override it.
func (b *BasePlugin) PreExecute() error {
	return nil
}

// Configure applies a set of configuration values. Unknown keys fail before
// any value is applied.
func (b *BasePlugin) Configure(values map[string]any) error {
	for key := range values {
		if _, ok := b.config[key]; !ok {
			return errors.WrapLookup(
				fmt.Errorf("key %q for plugin %q: %w", key, b.meta.Name, errors.ErrUnknownKey),
				"BasePlugin", "Configure", "key validation")
		}
	}
	maps.Copy(b.config, values)
	return nil
}

// ConfigValue returns the value stored under key.
func (b *BasePlugin) ConfigValue(key string) (any, bool) {
	v, ok := b.config[key]
	return v, ok
}

// SetConfigValue stores a value under an already-defined key.
func (b *BasePlugin) SetConfigValue(key string, value any) error {
	if _, ok := b.config[key]; !ok {
		return errors.WrapLookup(
			fmt.Errorf("key %q for plugin %q: %w", key, b.meta.Name, errors.ErrUnknownKey),
			"BasePlugin", "SetConfigValue", "key validation")
	}
	b.config[key] = value
	return nil
}

// ConfigValues returns a copy of all configuration values.
func (b *BasePlugin) ConfigValues() map[string]any {
	out := make(map[string]any, len(b.config))
	maps.Copy(out, b.config)
	return out
}

// CopyBase returns an independent copy of the embedded base, keeping the
// node assignment.
func (b *BasePlugin) CopyBase() BasePlugin {
	clone := NewBasePlugin(b.meta, b.config)
	clone.nodeID = b.nodeID
	return clone
}

// DecodeConfig decodes the stored configuration values into a typed config
// struct. Plugins call this from PreExecute or Execute to obtain their
// parameters.
func (b *BasePlugin) DecodeConfig(target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		TagName:          "config",
	})
	if err != nil {
		return errors.WrapStructural(err, "BasePlugin", "DecodeConfig", "decoder setup")
	}
	if err := decoder.Decode(b.config); err != nil {
		return errors.WrapConfig(err, "BasePlugin", "DecodeConfig", "config decoding")
	}
	return nil
}

// CloneShape returns a copy of a declared shape.
func CloneShape(s Shape) Shape {
	return Shape(slices.Clone([]int(s)))
}
