// Package errors provides classified error handling for the workflow core.
//
// # Error Classification
//
// Every failure in the core falls into one of four classes:
//
//   - Structural: programming/integration errors such as attaching a payload
//     of the wrong type, registering a duplicate or non-monotonic node id, or
//     re-parenting a node under its own descendant. These indicate a bug in
//     the caller and are raised immediately.
//   - Config: operator-facing domain errors such as a duplicate plugin name,
//     a malformed selection pattern, or a dimensionality mismatch. Messages
//     always name the offending identifiers.
//   - Lookup: unknown-key errors (plugin name, class, path, node id).
//   - Transient: temporary failures such as an unavailable source frame.
//     The core never retries these itself; an external polling loop may.
//
// # Wrapping
//
// Use the Wrap* helpers to attach component/operation context while
// preserving the class:
//
//	if err := tree.RegisterNode(node, id); err != nil {
//	    return errors.WrapStructural(err, "Workflow", "AddPlugin", "node registration")
//	}
//
// Wrapped errors keep the standard "component.method: action failed: %w"
// format and remain compatible with errors.Is/errors.As.
package errors
