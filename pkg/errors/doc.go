// Package errors provides the structured error taxonomy shared by every
// releasekit command.
//
// Errors carry a Code describing the failure class:
//
//   - INVALID_INPUT: a required file is missing or an argument is unusable
//   - CONFLICT: an output that must not be overwritten already exists
//   - PARSE: a version line or version component could not be parsed
//   - IO: a file could not be read or written
//   - INTERNAL: anything else
//
// StructuredError implements Unwrap, so errors.Is and errors.As see through
// it. CodeOf reports the code of the outermost StructuredError in a chain.
package errors
