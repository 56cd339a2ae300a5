package workflow

import (
	"fmt"

	"github.com/hereon-GEMS/pydidas-sub009/errors"
	"github.com/hereon-GEMS/pydidas-sub009/plugin"
	"github.com/hereon-GEMS/pydidas-sub009/tree"
)

// pluginPayload adapts a plugin to the generic tree payload contract.
type pluginPayload struct {
	p plugin.Plugin
}

func (pp pluginPayload) Copy() tree.Payload {
	return pluginPayload{p: pp.p.Copy()}
}

// Tree is the processing tree: a specialization of the generic tree whose
// nodes each own one plugin instance. It adds tree-wide operations for
// shape propagation, chain execution and node-list serialization.
//
// Like the underlying tree, it has no internal locking. Copy produces a
// shared-nothing clone that can be handed to a separate worker.
type Tree struct {
	*tree.Tree

	preExecuted bool
	shapes      map[int]plugin.Shape
}

// New creates an empty processing tree.
func New() *Tree {
	return &Tree{
		Tree:   tree.New(),
		shapes: make(map[int]plugin.Shape),
	}
}

// SetRootPlugin clears the tree and installs a node carrying p as root with
// id 0.
func (t *Tree) SetRootPlugin(p plugin.Plugin) (int, error) {
	if p == nil {
		return tree.NoID, errors.WrapStructural(
			errors.ErrWrongNodeType, "WorkflowTree", "SetRootPlugin", "plugin validation")
	}
	if err := t.SetRoot(tree.NewNode(pluginPayload{p: p})); err != nil {
		return tree.NoID, err
	}
	t.preExecuted = false
	t.shapes = make(map[int]plugin.Shape)
	assignNodeID(p, t.RootID())
	return t.RootID(), nil
}

// AddPlugin registers a node carrying p under an existing parent and
// returns the assigned node id.
func (t *Tree) AddPlugin(parentID int, p plugin.Plugin) (int, error) {
	if p == nil {
		return tree.NoID, errors.WrapStructural(
			errors.ErrWrongNodeType, "WorkflowTree", "AddPlugin", "plugin validation")
	}
	id, err := t.AddChild(parentID, tree.NewNode(pluginPayload{p: p}))
	if err != nil {
		return tree.NoID, err
	}
	assignNodeID(p, id)
	return id, nil
}

// assignNodeID informs node-aware plugins of their position in the tree.
func assignNodeID(p plugin.Plugin, id int) {
	if aware, ok := p.(plugin.NodeAware); ok {
		aware.SetNodeID(id)
	}
}

// Plugin returns the plugin instance owned by the given node.
func (t *Tree) Plugin(id int) (plugin.Plugin, error) {
	n, err := t.Node(id)
	if err != nil {
		return nil, err
	}
	payload, ok := n.Payload.(pluginPayload)
	if !ok || payload.p == nil {
		return nil, errors.WrapStructural(
			fmt.Errorf("node %d payload: %w", id, errors.ErrWrongNodeType),
			"WorkflowTree", "Plugin", "payload type check")
	}
	return payload.p, nil
}

// NodeShape returns the declared output shape of a node from the last
// shape-propagation pass.
func (t *Tree) NodeShape(id int) (plugin.Shape, bool) {
	shape, ok := t.shapes[id]
	return shape, ok
}

// Copy produces a fully independent processing tree: new nodes with
// identical ids and topology, independent plugin copies, and the declared
// shapes of the last propagation pass.
func (t *Tree) Copy() *Tree {
	clone := &Tree{
		Tree:        t.Tree.Copy(),
		preExecuted: t.preExecuted,
		shapes:      make(map[int]plugin.Shape, len(t.shapes)),
	}
	for id, shape := range t.shapes {
		clone.shapes[id] = plugin.CloneShape(shape)
	}
	return clone
}
