// Package diskcheck inspects destination filesystems: whether a path is
// backed by a real mount and how much space is free.
package diskcheck
