// Package logging holds the package-level logger shared by the runtime and
// its subsystems. Applications integrate it with their own logging by
// calling the public SetLogger; everything in this module logs through
// Logger().
package logging
