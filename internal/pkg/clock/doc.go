// Package clock lets use cases read the current time through an interface, so
// code generation can be pinned to a known instant in tests.
package clock
