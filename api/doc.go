// Package api defines the wire types of the HTTP API: request and response
// bodies exchanged with clients. Handlers live in api/handlers.
package api
