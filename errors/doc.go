// Package errors defines the structured error shared by every static-protocol
// package.
//
// An Error carries the Phase that failed (parse, compile, encode, decode,
// validate, register, dispatch, transport) and a Kind. Path, Go type and
// schema type are set when known. Errors compare with errors.Is on Phase and
// Kind alone:
//
//	if errors.Is(err, &sperrors.Error{Phase: sperrors.PhaseDecode, Kind: sperrors.KindOutOfBounds}) {
//		// truncated message
//	}
//
// Build errors with New:
//
//	err := errors.New(errors.PhaseEncode, errors.KindOverflow).
//		Path("points", "x").
//		SchemaType("int16").
//		Value(40000).
//		Build()
//
// Errors raised inside a nested record, array element or union payload get the
// enclosing field names prepended with WithPrefix as they propagate.
package errors
