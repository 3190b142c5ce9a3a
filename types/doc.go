// Package types provides the core types shared across the sabia backend.
// It has zero dependencies on other sabia packages to avoid circular imports;
// every other package imports types from here.
package types
