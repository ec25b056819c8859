// Package queue provides the in-memory work queue shared by the discoverer
// and the destination workers. Contents are not persisted; files still
// queued at shutdown are picked up again by the next initial scan.
package queue
