// Package worker implements the per-destination consumer loop: dequeue,
// validate the destination, acquire locks, transfer, and apply the
// fail-stop policy. Destinations are independent fail domains; one worker
// terminating never blocks the others.
package worker
