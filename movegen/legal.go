package movegen

import (
	"github.com/phonekimera/lisco-sub000/bitboard"
	"github.com/phonekimera/lisco-sub000/board"
	"github.com/phonekimera/lisco-sub000/move"
)

// IllegalMove returns true if the pseudo-legal move m would leave the
// mover's king attacked, or is a castle out of or through check.
//
// With extended set, m must also be present in the generator's output for
// b. Use it for moves from the transposition table or the killer slots,
// which may belong to another position.
func IllegalMove(b *board.Board, m move.Move, extended bool) bool {
	if m.IsNull() {
		return true
	}
	if extended && !generates(b, m) {
		return true
	}
	if m.IsCastle() {
		// The rook's destination is the square the king passes over.
		_, transit := m.CastleRook()
		if b.InCheck() || b.Attacked(transit, b.ToMove().Opposite()) {
			return true
		}
	}
	b.Apply(m)
	illegal := b.OpponentInCheck()
	b.Unapply(m)
	return illegal
}

func generates(b *board.Board, m move.Move) bool {
	var arr [MaxMoves]move.Move
	var moves []move.Move
	if m.IsCapture() || m.Promotion == bitboard.Queen {
		moves = GenerateCaptures(b, arr[:0])
	} else {
		moves = GenerateNonCaptures(b, arr[:0])
	}
	for _, g := range moves {
		if g == m {
			return true
		}
	}
	return false
}

// FilterLegal removes the illegal moves from moves, in place.
func FilterLegal(b *board.Board, moves []move.Move) []move.Move {
	out := moves[:0]
	for _, m := range moves {
		if !IllegalMove(b, m, false) {
			out = append(out, m)
		}
	}
	return out
}

// LegalMoves returns every legal move in b.
func LegalMoves(b *board.Board) []move.Move {
	moves := GenerateMoves(b, make([]move.Move, 0, 64))
	return FilterLegal(b, moves)
}

// HasLegalMove returns true if the side to move has at least one legal move.
func HasLegalMove(b *board.Board) bool {
	var arr [MaxMoves]move.Move
	for _, m := range GenerateMoves(b, arr[:0]) {
		if !IllegalMove(b, m, false) {
			return true
		}
	}
	return false
}
