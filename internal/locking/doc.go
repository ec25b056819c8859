// Package locking bounds transfer concurrency with an optional global lock
// and optional per-source-directory locks.
package locking
