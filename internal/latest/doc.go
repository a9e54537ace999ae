// Package latest provides a last-value-wins broadcast cell: one producer,
// any number of consumers, no queues. New subscribers observe the current
// value immediately; slow subscribers coalesce intermediate values but
// never observe a stale value after a fresh one.
package latest
