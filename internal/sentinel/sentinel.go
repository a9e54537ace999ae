package sentinel

// Compile-time check that Error implements the error interface.
var _ error = Error("")

// Error is an immutable error backed by a string constant. errors.New
// returns a pointer that must live in a var; Error values can be declared
// const, so they cannot be reassigned.
//
// errors.Is works through wrapped chains without an Is method: Error is a
// comparable type, so the default == comparison applies.
type Error string

// Error implements the error interface.
func (e Error) Error() string {
	return string(e)
}
