// Package discover feeds the work queue: an initial recursive scan of each
// source root followed by a live recursive watch for files renamed or
// created inside them. Both phases apply the same capture-file naming
// convention.
package discover
