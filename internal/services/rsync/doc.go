// Package rsync wraps rsync subprocess invocations behind a small client so
// the coordination logic stays independent of how bytes actually move.
package rsync
