// Package workflow implements the processing tree: the specialization of the
// generic node tree whose payloads are plugin instances. It provides the
// chain orchestration passes (one-time pre-execution, per-frame shape
// propagation, frame execution with branch-local auxiliary bags) and the flat
// node-list serialization used for persistence.
package workflow
