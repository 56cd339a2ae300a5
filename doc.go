// Package pydidas is the workflow execution core for scientific frame
// processing: a plugin catalogue, an id-addressed workflow tree and a
// recursive frame execution engine with shape propagation.
//
// # Architecture
//
// The module is organised around four layers:
//
// Tree layer (tree): a generic arena of nodes addressed by monotonically
// increasing integer ids. Nodes carry an opaque payload and never reuse ids
// within one tree lifetime, so persisted references stay valid across edits.
//
// Plugin layer (plugin, plugins, pluginregistry): processing units classified
// input, proc and output. The registry resolves plugin classes lazily from
// registered providers and persists its search paths through the config
// store. Builtin plugins live under plugins/ and are installed by importing
// pluginregistry.
//
// Workflow layer (workflow, treestore): a tree whose payloads are plugins.
// It owns chain execution (PreExecuteAll, PropagateShapes, ExecuteFrame with
// per-branch auxiliary data) and node-list serialization; treestore persists
// node lists as schema-validated YAML documents.
//
// Run layer (runner, selector): the runner fans frames out over worker-local
// tree copies with retry on transient source failures and Prometheus
// metrics; the selector resolves textual slice patterns against result
// shapes.
//
// # Error Handling
//
// All packages return classified errors from the errors package so callers
// can distinguish structural, configuration, lookup and transient failures
// without string matching.
package pydidas
