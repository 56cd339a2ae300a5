package tree

import (
	"fmt"
	"hash/fnv"
	"slices"
	"sort"

	"github.com/google/uuid"

	"github.com/hereon-GEMS/pydidas-sub009/errors"
)

// Connection is one parent→child edge, used for rendering and bulk export.
type Connection struct {
	ParentID int
	ChildID  int
}

// Tree owns the node collection. Nodes are stored in a single arena keyed by
// id; parent/child links are ids, never live references, so copying the tree
// is a structural clone of the arena.
//
// Ids are assigned monotonically and never reused within the tree's lifetime,
// even after deletions. The tree is not safe for concurrent mutation; it is
// intended as a single process-wide instance with external synchronization
// where needed.
type Tree struct {
	seed     uuid.UUID
	nodes    map[int]*Node
	rootID   int
	activeID int
	nextID   int
	changed  bool
}

// New creates an empty tree with a fresh identity seed.
func New() *Tree {
	return &Tree{
		seed:     uuid.New(),
		nodes:    make(map[int]*Node),
		rootID:   NoID,
		activeID: NoID,
	}
}

// RootID returns the root node id, or NoID for an empty tree.
func (t *Tree) RootID() int {
	return t.rootID
}

// Root returns the root node, or nil for an empty tree.
func (t *Tree) Root() *Node {
	if t.rootID == NoID {
		return nil
	}
	return t.nodes[t.rootID]
}

// Node returns the node with the given id.
func (t *Tree) Node(id int) (*Node, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, errors.WrapLookup(
			fmt.Errorf("node id %d: %w", id, errors.ErrNodeNotFound),
			"Tree", "Node", "node lookup")
	}
	return n, nil
}

// NodeCount returns the number of live nodes.
func (t *Tree) NodeCount() int {
	return len(t.nodes)
}

// NodeIDs returns all live node ids in ascending order.
func (t *Tree) NodeIDs() []int {
	ids := make([]int, 0, len(t.nodes))
	for id := range t.nodes {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// ActiveNodeID returns the currently selected node id, or NoID.
func (t *Tree) ActiveNodeID() int {
	return t.activeID
}

// SetActiveNode selects a node. The id must reference a live node; NoID
// clears the selection.
func (t *Tree) SetActiveNode(id int) error {
	if id != NoID {
		if _, ok := t.nodes[id]; !ok {
			return errors.WrapLookup(
				fmt.Errorf("node id %d: %w", id, errors.ErrNodeNotFound),
				"Tree", "SetActiveNode", "node lookup")
		}
	}
	t.activeID = id
	t.changed = true
	return nil
}

// Changed reports whether the tree was mutated since the flag was cleared.
func (t *Tree) Changed() bool {
	return t.changed
}

// ClearChanged resets the changed flag. The flag is cleared explicitly by
// the consumer, never by the tree itself.
func (t *Tree) ClearChanged() {
	t.changed = false
}

// Clear removes all nodes and resets the id allocator.
func (t *Tree) Clear() {
	t.nodes = make(map[int]*Node)
	t.rootID = NoID
	t.activeID = NoID
	t.nextID = 0
	t.changed = true
}

// SetRoot clears the tree and installs node as root with id 0. Any children
// staged on the node are registered recursively.
func (t *Tree) SetRoot(node *Node) error {
	if node == nil {
		return errors.WrapStructural(errors.ErrWrongNodeType, "Tree", "SetRoot", "node validation")
	}
	t.Clear()
	node.ID = 0
	node.ParentID = NoID
	_, err := t.RegisterNode(node, 0)
	return err
}

// RegisterNode adds a detached node (and all of its staged descendants) to
// the tree. nodeID overrides the node's own id when >= 0; pass NoID to keep
// a preassigned id or to have a fresh one allocated.
//
// Validation happens before any mutation: no id in the node's subtree may
// collide with a live id or another subtree id, and every preassigned id
// must be >= the current id counter so that ids stay monotonic. The node's
// ParentID must reference a live node, except for the first node of an empty
// tree, which becomes the root.
func (t *Tree) RegisterNode(node *Node, nodeID int) (int, error) {
	if node == nil {
		return NoID, errors.WrapStructural(errors.ErrWrongNodeType, "Tree", "RegisterNode", "node validation")
	}
	if nodeID != NoID {
		node.ID = nodeID
	}

	subtree := node.subtree()

	// Validate ids before touching the arena by simulating the depth-first
	// install, fresh allocation included: a preassigned id may collide
	// neither with a live id, nor with another subtree id, nor with an id
	// a fresh allocation is about to hand out.
	next := t.nextID
	seen := make(map[int]bool, len(subtree))
	for _, n := range subtree {
		id := n.ID
		if id == NoID {
			id = next
		} else {
			if _, exists := t.nodes[id]; exists {
				return NoID, errors.WrapStructural(
					fmt.Errorf("node id %d: %w", id, errors.ErrDuplicateNodeID),
					"Tree", "RegisterNode", "id collision check")
			}
			if id < t.nextID {
				return NoID, errors.WrapStructural(
					fmt.Errorf("node id %d < next id %d: %w", id, t.nextID, errors.ErrNonMonotonicID),
					"Tree", "RegisterNode", "monotonicity check")
			}
		}
		if seen[id] {
			return NoID, errors.WrapStructural(
				fmt.Errorf("node id %d duplicated within subtree: %w", id, errors.ErrDuplicateNodeID),
				"Tree", "RegisterNode", "subtree id check")
		}
		seen[id] = true
		if id >= next {
			next = id + 1
		}
	}

	// Validate the attachment point.
	if node.ParentID != NoID {
		if _, ok := t.nodes[node.ParentID]; !ok {
			return NoID, errors.WrapLookup(
				fmt.Errorf("parent id %d: %w", node.ParentID, errors.ErrNodeNotFound),
				"Tree", "RegisterNode", "parent lookup")
		}
	} else if t.rootID != NoID {
		return NoID, errors.WrapConfig(
			fmt.Errorf("tree already has root %d: %w", t.rootID, errors.ErrMultipleRoots),
			"Tree", "RegisterNode", "root uniqueness check")
	}

	// Install depth-first: parents always receive their id before children.
	var install func(n *Node, parentID int)
	install = func(n *Node, parentID int) {
		if n.ID == NoID {
			n.ID = t.nextID
		}
		if n.ID >= t.nextID {
			t.nextID = n.ID + 1
		}
		n.ParentID = parentID
		n.ChildIDs = nil
		t.nodes[n.ID] = n
		if parentID != NoID {
			parent := t.nodes[parentID]
			parent.ChildIDs = append(parent.ChildIDs, n.ID)
		}
		for _, child := range n.staged {
			install(child, n.ID)
		}
		n.staged = nil
	}
	install(node, node.ParentID)

	if node.ParentID == NoID {
		t.rootID = node.ID
	}
	t.changed = true
	return node.ID, nil
}

// AddChild registers a detached node under an existing parent and returns
// the assigned id.
func (t *Tree) AddChild(parentID int, node *Node) (int, error) {
	if node == nil {
		return NoID, errors.WrapStructural(errors.ErrWrongNodeType, "Tree", "AddChild", "node validation")
	}
	if _, ok := t.nodes[parentID]; !ok {
		return NoID, errors.WrapLookup(
			fmt.Errorf("parent id %d: %w", parentID, errors.ErrNodeNotFound),
			"Tree", "AddChild", "parent lookup")
	}
	node.ParentID = parentID
	return t.RegisterNode(node, NoID)
}

// RecursiveIDs returns the flat id list for a node and all of its
// descendants in depth-first order.
func (t *Tree) RecursiveIDs(id int) ([]int, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, errors.WrapLookup(
			fmt.Errorf("node id %d: %w", id, errors.ErrNodeNotFound),
			"Tree", "RecursiveIDs", "node lookup")
	}
	ids := []int{n.ID}
	for _, childID := range n.ChildIDs {
		childIDs, err := t.RecursiveIDs(childID)
		if err != nil {
			return nil, err
		}
		ids = append(ids, childIDs...)
	}
	return ids, nil
}

// RecursiveConnections returns the parent→child edge list for a node and all
// of its descendants in depth-first order.
func (t *Tree) RecursiveConnections(id int) ([]Connection, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, errors.WrapLookup(
			fmt.Errorf("node id %d: %w", id, errors.ErrNodeNotFound),
			"Tree", "RecursiveConnections", "node lookup")
	}
	var conns []Connection
	for _, childID := range n.ChildIDs {
		conns = append(conns, Connection{ParentID: n.ID, ChildID: childID})
		childConns, err := t.RecursiveConnections(childID)
		if err != nil {
			return nil, err
		}
		conns = append(conns, childConns...)
	}
	return conns, nil
}

// DeleteNode removes a node following one of three policies. A node with
// children requires exactly one of recursive (delete the whole subtree) or
// keepChildren (reconnect children to the node's own parent). Deleting the
// root in keepChildren mode fails when more than one child would remain at
// the top level, since a tree has exactly one root.
func (t *Tree) DeleteNode(id int, recursive, keepChildren bool) error {
	n, ok := t.nodes[id]
	if !ok {
		return errors.WrapLookup(
			fmt.Errorf("node id %d: %w", id, errors.ErrNodeNotFound),
			"Tree", "DeleteNode", "node lookup")
	}

	if len(n.ChildIDs) > 0 && recursive == keepChildren {
		return errors.WrapConfig(
			fmt.Errorf("node %d has %d children: %w", id, len(n.ChildIDs), errors.ErrDeleteFlags),
			"Tree", "DeleteNode", "deletion policy check")
	}

	switch {
	case len(n.ChildIDs) == 0 || recursive:
		ids, err := t.RecursiveIDs(id)
		if err != nil {
			return err
		}
		t.detachFromParent(n)
		for _, deadID := range ids {
			delete(t.nodes, deadID)
			if t.activeID == deadID {
				t.activeID = NoID
			}
		}
		if id == t.rootID {
			t.rootID = NoID
		}

	case keepChildren:
		if n.ParentID == NoID && len(n.ChildIDs) > 1 {
			return errors.WrapConfig(
				fmt.Errorf("deleting root %d would leave %d top-level nodes: %w",
					id, len(n.ChildIDs), errors.ErrMultipleRoots),
				"Tree", "DeleteNode", "root uniqueness check")
		}
		t.detachFromParent(n)
		for _, childID := range n.ChildIDs {
			child := t.nodes[childID]
			child.ParentID = n.ParentID
			if n.ParentID != NoID {
				parent := t.nodes[n.ParentID]
				parent.ChildIDs = append(parent.ChildIDs, childID)
			}
		}
		if id == t.rootID {
			if len(n.ChildIDs) == 1 {
				t.rootID = n.ChildIDs[0]
			} else {
				t.rootID = NoID
			}
		}
		delete(t.nodes, id)
		if t.activeID == id {
			t.activeID = NoID
		}
	}

	t.changed = true
	return nil
}

// detachFromParent removes the node's id from its parent's child list.
func (t *Tree) detachFromParent(n *Node) {
	if n.ParentID == NoID {
		return
	}
	parent, ok := t.nodes[n.ParentID]
	if !ok {
		return
	}
	idx := slices.Index(parent.ChildIDs, n.ID)
	if idx >= 0 {
		parent.ChildIDs = slices.Delete(parent.ChildIDs, idx, idx+1)
	}
}

// ChangeNodeParent moves a node (with its subtree) under a new parent. The
// move fails if the new parent is the node itself or one of its descendants,
// which would create a cycle.
func (t *Tree) ChangeNodeParent(id, newParentID int) error {
	n, ok := t.nodes[id]
	if !ok {
		return errors.WrapLookup(
			fmt.Errorf("node id %d: %w", id, errors.ErrNodeNotFound),
			"Tree", "ChangeNodeParent", "node lookup")
	}
	if _, ok := t.nodes[newParentID]; !ok {
		return errors.WrapLookup(
			fmt.Errorf("parent id %d: %w", newParentID, errors.ErrNodeNotFound),
			"Tree", "ChangeNodeParent", "parent lookup")
	}
	if newParentID == n.ParentID {
		return nil
	}

	subtreeIDs, err := t.RecursiveIDs(id)
	if err != nil {
		return err
	}
	if slices.Contains(subtreeIDs, newParentID) {
		return errors.WrapStructural(
			fmt.Errorf("node %d cannot adopt ancestor %d: %w", newParentID, id, errors.ErrCyclicReparent),
			"Tree", "ChangeNodeParent", "cycle check")
	}

	t.detachFromParent(n)
	n.ParentID = newParentID
	parent := t.nodes[newParentID]
	parent.ChildIDs = append(parent.ChildIDs, id)
	t.changed = true
	return nil
}

// Copy produces a fully independent tree: new node objects with identical
// ids and topology, payloads copied via their Copy method, and a fresh
// identity seed so the clone hashes differently from the original.
func (t *Tree) Copy() *Tree {
	clone := New()
	clone.rootID = t.rootID
	clone.activeID = t.activeID
	clone.nextID = t.nextID
	clone.changed = t.changed
	for id, n := range t.nodes {
		var payload Payload
		if n.Payload != nil {
			payload = n.Payload.Copy()
		}
		clone.nodes[id] = &Node{
			ID:       n.ID,
			ParentID: n.ParentID,
			ChildIDs: slices.Clone(n.ChildIDs),
			Payload:  payload,
		}
	}
	return clone
}

// Hash returns a cheap identity hash: the tree's own seed combined with a
// summary of node ids and topology. Two trees with equal content but
// separate identities hash differently. This is an equality-avoidance hash
// for caches, not a content hash.
func (t *Tree) Hash() uint64 {
	h := fnv.New64a()
	h.Write(t.seed[:])
	buf := make([]byte, 8)
	writeInt := func(v int) {
		for i := 0; i < 8; i++ {
			buf[i] = byte(v >> (8 * i))
		}
		h.Write(buf)
	}
	for _, id := range t.NodeIDs() {
		n := t.nodes[id]
		writeInt(n.ID)
		writeInt(n.ParentID)
		writeInt(len(n.ChildIDs))
	}
	return h.Sum64()
}
