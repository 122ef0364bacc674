// Package transform defines the pipeline-side boundary to rewrite engines.
// A rule's effects use an Engine to obtain a one-shot visitor for a file and
// apply it to the syntax tree in place. Engines run in-process or as a gRPC
// plugin behind the same interface.
package transform
