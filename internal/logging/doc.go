// Package logging constructs the shared slog logger and provides the
// standardized attribute keys used across shuttle components.
package logging
