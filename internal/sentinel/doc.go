// Package sentinel provides a string-backed error type that can be declared
// as a constant. Packages declare their sentinel errors as
//
//	const ErrFoo = sentinel.Error("foo happened")
//
// and callers match them with errors.Is through wrapped chains.
package sentinel
