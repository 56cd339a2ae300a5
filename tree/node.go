package tree

// NoID marks a node id or parent id as unset.
const NoID = -1

// Payload is the processing-unit attachment carried by every node. The tree
// only requires that payloads know how to produce an independent copy of
// themselves; everything else about a payload is opaque at this level.
type Payload interface {
	Copy() Payload
}

// Node represents one addressable step in the pipeline graph.
//
// ID, ParentID and ChildIDs are bookkeeping owned by the Tree: they are
// exported for inspection and serialization but must never be mutated
// directly. Parent/child consistency is enforced by the tree operations.
type Node struct {
	ID       int
	ParentID int
	ChildIDs []int
	Payload  Payload

	// staged holds children attached before the node is registered with a
	// tree. Registration walks this list recursively and converts it into
	// id-based links.
	staged []*Node
}

// NewNode creates a detached node carrying the given payload. The node has
// no id until it is registered with a tree.
func NewNode(payload Payload) *Node {
	return &Node{
		ID:       NoID,
		ParentID: NoID,
		Payload:  payload,
	}
}

// NewNodeWithID creates a detached node with a preassigned id, used when
// rebuilding a tree from a serialized node list.
func NewNodeWithID(id int, payload Payload) *Node {
	n := NewNode(payload)
	n.ID = id
	return n
}

// AttachChild links a detached child to a detached node. It may only be used
// before registration; once the subtree is registered the link is converted
// to id bookkeeping and the staged list is cleared.
func (n *Node) AttachChild(child *Node) {
	n.staged = append(n.staged, child)
}

// StagedChildren returns the children attached before registration.
func (n *Node) StagedChildren() []*Node {
	return n.staged
}

// subtree returns the node and all staged descendants in depth-first order.
func (n *Node) subtree() []*Node {
	nodes := []*Node{n}
	for _, child := range n.staged {
		nodes = append(nodes, child.subtree()...)
	}
	return nodes
}
