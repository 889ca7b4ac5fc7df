package board

import "errors"

// The engine's error taxonomy. Callers match these with errors.Is; the
// returned errors wrap them with context.
var (
	// ErrMisuse is a caller bug: a nil board or an argument out of range.
	ErrMisuse = errors.New("misuse")
	// ErrOutOfMemory is returned when a table cannot be allocated.
	ErrOutOfMemory = errors.New("out of memory")
	// ErrMalformedInput is bad position or move syntax.
	ErrMalformedInput = errors.New("malformed input")
	// ErrIllegalPosition is well-formed text describing an impossible position.
	ErrIllegalPosition = errors.New("illegal position")
	// ErrIllegalMove is a move that is not in the legal move set.
	ErrIllegalMove = errors.New("illegal move")
	// ErrOpponentInCheck means the move would leave the mover's own king
	// attacked, i.e. the side not to move in check.
	ErrOpponentInCheck = errors.New("opponent in check after move")
	// ErrAmbiguousMove is move text matching more than one legal move.
	ErrAmbiguousMove = errors.New("ambiguous move")
)
