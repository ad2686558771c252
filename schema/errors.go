package schema

import "errors"

// Validation failures surfaced by the feature builder, the drift analyzer and
// the simulator. Callers match them with errors.Is; the wrapping message
// carries the specifics. A drifted dataset is a successful result, never one
// of these.
var (
	// ErrInsufficientHistory means a frame is shorter than the lookback its
	// lag and rolling configuration requires.
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrSchemaMismatch means reference and current inputs disagree on
	// column names, column order, or aligned lengths.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrEmptyDataset means a zero-row input reached analysis.
	ErrEmptyDataset = errors.New("empty dataset")

	// ErrInvalidConfiguration means a non-positive lag or window, an empty
	// lag set, or a threshold outside its valid range.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)
