// Package handlers implements the HTTP handlers of the backend: auth, chat,
// conversations, documents, knowledge-base management, transactions and
// health. All responses share the envelope defined in common.go.
package handlers
