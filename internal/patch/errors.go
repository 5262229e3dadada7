package patch

import "errors"

// Per-operation failure classes. Each skipped operation wraps exactly one of
// these, so callers can classify skips with errors.Is.
var (
	// ErrMalformedValue indicates a value that is not valid JSON, fails the
	// FactRecord required-field contract, or cannot be coerced to the
	// targeted field's type.
	ErrMalformedValue = errors.New("malformed value")

	// ErrIndexOutOfRange indicates an indexed path outside the current
	// bounds of the extracted_facts array.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrUnknownField indicates a field path not present on FactRecord.
	ErrUnknownField = errors.New("unknown field")

	// ErrUnsupportedOperation indicates an op/path combination outside the
	// pipeline's supported subset.
	ErrUnsupportedOperation = errors.New("unsupported operation")
)

// Skip records one rejected operation. Skips are non-fatal: the applicator
// logs them and continues with the remainder of the batch.
type Skip struct {
	Index int // Position in the patch array
	Err   error
}

// Reason returns the human-readable skip reason
func (s Skip) Reason() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}
