// Package requeue schedules keys for re-processing after a fixed delay.
// Operators use it to retry reconciliation of individual objects: inserting
// a key that is already pending resets its timer rather than queueing a
// duplicate.
package requeue
