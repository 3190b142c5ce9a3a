// Package store holds the relational persistence layer: gorm models for
// users, roles, permissions, transactions, conversations, messages and
// knowledge-base documents, plus the repositories the HTTP handlers use.
package store
