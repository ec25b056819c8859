// Package pipeline wires one distribution run together: the shared queue,
// the lock table, the discoverer, and one worker per destination. All state
// is held per pipeline instance so multiple runs can coexist in tests.
package pipeline
