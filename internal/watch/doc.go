// Package watch converts a raw cluster list/watch into a production-grade
// typed event stream. The pipeline composes four stages: a raw watcher that
// lists, watches, and re-lists when the server reports staleness; an
// error-handling stage that logs recoverable failures and backs off on
// consecutive errors; a latch-release stage that reports initialization
// after the first event; and a shutdown stage that terminates the stream
// when the runtime drains. A reflector variant additionally mirrors events
// into a concurrently readable Store.
package watch
