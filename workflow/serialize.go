package workflow

import (
	"fmt"
	"slices"

	"github.com/hereon-GEMS/pydidas-sub009/errors"
	"github.com/hereon-GEMS/pydidas-sub009/plugin"
	"github.com/hereon-GEMS/pydidas-sub009/tree"
)

// NodeRecord is the flat serialization form of one workflow node. The file
// encoding around the record list is owned by an external IO layer; the
// workflow tree only exports and restores the list itself.
type NodeRecord struct {
	NodeID      int            `json:"node_id"                 yaml:"node_id"`
	ParentID    int            `json:"parent_id"               yaml:"parent_id"`
	ChildrenIDs []int          `json:"children_ids,omitempty"  yaml:"children_ids,omitempty"`
	Class       string         `json:"class"                   yaml:"class"`
	Config      map[string]any `json:"config,omitempty"        yaml:"config,omitempty"`
}

// ExportToNodeList flattens the tree into node records ordered by ascending
// node id.
func (t *Tree) ExportToNodeList() ([]NodeRecord, error) {
	records := make([]NodeRecord, 0, t.NodeCount())
	for _, id := range t.NodeIDs() {
		n, err := t.Node(id)
		if err != nil {
			return nil, err
		}
		p, err := t.Plugin(id)
		if err != nil {
			return nil, err
		}
		records = append(records, NodeRecord{
			NodeID:      n.ID,
			ParentID:    n.ParentID,
			ChildrenIDs: slices.Clone(n.ChildIDs),
			Class:       p.Meta().Class,
			Config:      p.ConfigValues(),
		})
	}
	return records, nil
}

// RestoreFromNodeList rebuilds a processing tree from node records. Plugins
// are instantiated from the registry by class and configured with the
// recorded values. The whole subtree is assembled detached, with children
// staged in recorded order, and registered in one pass; node ids survive the
// round trip exactly, and the id allocator resumes above the highest id.
func RestoreFromNodeList(records []NodeRecord, registry *plugin.Registry) (*Tree, error) {
	const component, method = "WorkflowTree", "RestoreFromNodeList"

	if len(records) == 0 {
		return nil, errors.WrapConfig(
			fmt.Errorf("empty node list: %w", errors.ErrInvalidConfig),
			component, method, "record validation")
	}

	nodes := make(map[int]*tree.Node, len(records))
	byID := make(map[int]NodeRecord, len(records))
	rootID := tree.NoID
	for _, record := range records {
		if _, dup := nodes[record.NodeID]; dup {
			return nil, errors.WrapConfig(
				fmt.Errorf("node id %d listed twice: %w", record.NodeID, errors.ErrInvalidConfig),
				component, method, "record validation")
		}

		p, err := registry.PluginByClass(record.Class)
		if err != nil {
			return nil, errors.Wrap(err, component, method,
				fmt.Sprintf("plugin instantiation for node %d", record.NodeID))
		}
		if len(record.Config) > 0 {
			if err := p.Configure(record.Config); err != nil {
				return nil, errors.Wrap(err, component, method,
					fmt.Sprintf("plugin configuration for node %d", record.NodeID))
			}
		}

		assignNodeID(p, record.NodeID)
		nodes[record.NodeID] = tree.NewNodeWithID(record.NodeID, pluginPayload{p: p})
		byID[record.NodeID] = record
		if record.ParentID == tree.NoID {
			if rootID != tree.NoID {
				return nil, errors.WrapConfig(
					fmt.Errorf("nodes %d and %d both claim no parent: %w",
						rootID, record.NodeID, errors.ErrMultipleRoots),
					component, method, "root identification")
			}
			rootID = record.NodeID
		}
	}
	if rootID == tree.NoID {
		return nil, errors.WrapConfig(
			fmt.Errorf("no root record: %w", errors.ErrInvalidConfig),
			component, method, "root identification")
	}

	// Stage children in recorded order so execution fan-out order survives
	// the round trip.
	for _, record := range records {
		parent := nodes[record.NodeID]
		for _, childID := range record.ChildrenIDs {
			child, ok := nodes[childID]
			if !ok {
				return nil, errors.WrapConfig(
					fmt.Errorf("node %d references missing child %d: %w",
						record.NodeID, childID, errors.ErrInvalidConfig),
					component, method, "topology verification")
			}
			if byID[childID].ParentID != record.NodeID {
				return nil, errors.WrapConfig(
					fmt.Errorf("node %d lists child %d whose record claims parent %d: %w",
						record.NodeID, childID, byID[childID].ParentID, errors.ErrInvalidConfig),
					component, method, "topology verification")
			}
			parent.AttachChild(child)
		}
	}

	t := New()
	if _, err := t.RegisterNode(nodes[rootID], tree.NoID); err != nil {
		return nil, errors.Wrap(err, component, method, "tree registration")
	}
	if t.NodeCount() != len(records) {
		return nil, errors.WrapConfig(
			fmt.Errorf("%d of %d records reachable from root %d: %w",
				t.NodeCount(), len(records), rootID, errors.ErrInvalidConfig),
			component, method, "topology verification")
	}

	t.ClearChanged()
	return t, nil
}
