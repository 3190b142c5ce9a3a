// Package llm wraps text-generation backends behind a small Provider
// interface. The rest of the system treats the model as an opaque service:
// a prompt goes in, text comes out.
package llm
