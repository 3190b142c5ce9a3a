// Package agent glues the retrieval engine to the language model: it wraps
// similarity search as an LLM-callable tool and drives the chat flow that
// enriches user messages with knowledge-base context. User-facing strings
// are in Portuguese, matching the product surface.
package agent
