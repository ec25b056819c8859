// Package main hosts the shuttle CLI entrypoint and command graph.
//
// The Cobra-based command tree covers running the distribution pipeline in
// the foreground, inspecting the transfer history ledger, checking whether a
// daemon instance holds the lock, and configuration scaffolding. Heavy
// lifting lives in the internal packages; commands here stay declarative.
package main
