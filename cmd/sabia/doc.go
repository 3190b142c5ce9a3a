// Command sabia runs the backend: an HTTP API for authentication, chat,
// conversations, document ingestion, knowledge-base search and transactions,
// plus a separate metrics listener.
//
// Usage:
//
//	sabia serve                      # start the server
//	sabia serve --config config.yaml # with a config file
//	sabia version                    # print build information
//	sabia health                     # probe a running server
package main
