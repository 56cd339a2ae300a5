// Package plugin defines the processing-unit capability contract and the
// registry that catalogues available plugin types.
//
// # Capability Contract
//
// Every node payload in a workflow satisfies the Plugin interface: a
// classification (input, proc or output), a globally unique logical name, a
// one-time PreExecute hook, a per-frame Execute method, an OutputShape
// declaration for the dry-run shape-propagation pass, and a string-keyed
// configuration-value surface. Concrete plugins embed BasePlugin for the
// configuration plumbing and decode their typed parameters with
// DecodeConfig.
//
// # Registry
//
// The Registry maps implementation identifiers (class names) and logical
// names to factories. Registering two distinct implementations under one
// logical name is a configuration error naming both classes; re-registering
// the same implementation replaces the entry only during an explicit reload.
// Plugins marked KindBase are filed separately and never returned by
// name-based lookup.
//
// # Providers Instead of Directory Scanning
//
// Runtime source scanning is replaced by explicit registration: plugin
// collections install a ProviderFunc under a path-like identifier via
// RegisterProvider, and Registry.Load runs the providers for the requested
// paths. The registry initializes lazily on first query, loading the paths
// persisted in the settings store (or the "builtin" default); persisted
// paths without a live provider are pruned with a warning.
package plugin
