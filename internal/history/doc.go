// Package history persists terminal transfer outcomes to SQLite. The work
// queue itself stays in memory; the ledger exists so every dequeued file
// ends up recorded as transferred or dropped, and to back the history CLI.
package history
