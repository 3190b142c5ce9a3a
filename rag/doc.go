// Package rag implements the retrieval engine behind the knowledge base:
// chunking, embedding, vector indexing, similarity search and token-budgeted
// context assembly.
//
// The package is a library with no transport concerns. Construct a
// KnowledgeBase once and share it; mutating operations are serialized
// internally, searches run concurrently.
package rag
