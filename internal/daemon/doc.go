// Package daemon enforces single-instance execution and ties the pipeline
// lifecycle to the process lifecycle.
package daemon
