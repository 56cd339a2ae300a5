// Package runner provides concurrent frame execution over a workflow tree.
// A pool of workers, each holding its own copy of the tree, consumes frame
// indices from a channel; transient input failures are retried with
// exponential backoff while every other failure aborts the run.
package runner
