// Package tree provides the generic, identifier-addressed tree structure
// underlying the workflow graph.
//
// # Arena Design
//
// Nodes live in a single owning collection keyed by integer id; parent and
// child links are stored as ids, never as live references. This makes the
// ownership story trivial (the tree owns every node exclusively) and turns
// Copy into a structural clone of the arena plus payload copies.
//
// # Id Allocation
//
// Ids are assigned monotonically and never reused within a tree's lifetime.
// Gaps left by deletions are permitted; reuse is forbidden. Registration
// validates both collision and monotonicity before mutating the arena.
//
// # Building Subtrees
//
// Detached nodes can be linked with AttachChild before registration:
//
//	branch := tree.NewNode(payload)
//	branch.AttachChild(tree.NewNode(childPayload))
//	branch.ParentID = parentID
//	id, err := t.RegisterNode(branch, tree.NoID)
//
// Registration walks the staged links depth-first and converts them into id
// bookkeeping, so parents always receive their id before their children.
//
// The tree has no internal locking. It is intended to be used as a single
// process-wide instance; concurrent mutation requires external
// synchronization.
package tree
