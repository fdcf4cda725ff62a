// Package domain defines the core domain types shared across the client.
//
// This package contains concept-oriented files (session.go, analysis.go, tone.go, errors.go)
// with shared types and no implementation code beyond pure functions. Prevents circular
// imports by keeping contracts on the consumer side.
package domain
