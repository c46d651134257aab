// Package errors provides the classified error primitives used across classdoc.
//
// A ClassifiedError carries a category (what kind of failure), a severity
// (whether the build can continue) and structured context. Errors are built
// with a fluent builder:
//
//	err := errors.NewError(errors.CategorySymbol, "duplicate qualified name").
//		Fatal().
//		WithContext("qualified_name", name).
//		WithCause(ErrDuplicateSymbol).
//		Build()
//
// Only fatal errors stop a documentation build. Everything else is logged
// and absorbed by the component that observed it.
package errors
