// Package errors provides the classified error primitives used across the
// blog build pipeline.
//
// Hard failures (unreadable files, unresolvable entries, manifest name
// collisions) are reported as ClassifiedError values so the CLI can map them
// to exit codes. Heuristic failures never become errors.
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryFileSystem, "read markdown file").
//		Fatal().
//		WithContext("path", path).
//		Build()
package errors
