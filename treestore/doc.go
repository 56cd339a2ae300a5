// Package treestore persists workflow trees as YAML node-list documents.
// Documents are structurally validated against an embedded JSON schema
// before restore, and writes replace the previous file atomically.
package treestore
