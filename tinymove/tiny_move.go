package tinymove

import (
	"github.com/phonekimera/lisco-sub000/bitboard"
	"github.com/phonekimera/lisco-sub000/board"
	"github.com/phonekimera/lisco-sub000/move"
)

// TinyMove is a 16-bit representation of a move, small enough to sit in a
// transposition table entry. The attacker, victim and en-passant flag are
// recovered from the board the move is played on.
type TinyMove uint16

// Schema:
// 6 bits for the from square
// 6 bits for the to square
// 3 bits for the promotion piece (0 = none)
//
// 15   11    7    3
//  xxxx xxxx xxxx xxxx
//   PPP TTTT TTFF FFFF

const FromBitMask = 0b00111111
const ToBitMask = 0b00001111_11000000
const PromotionBitMask = 0b01110000_00000000

// InvalidTinyMove has from == to and never decodes to a move.
const InvalidTinyMove TinyMove = 0

// FromMove packs m.
func FromMove(m move.Move) TinyMove {
	return TinyMove(uint16(m.From) | uint16(m.To)<<6 | uint16(m.Promotion)<<12)
}

func (tm TinyMove) From() bitboard.Square {
	return bitboard.Square(tm & FromBitMask)
}

func (tm TinyMove) To() bitboard.Square {
	return bitboard.Square((tm & ToBitMask) >> 6)
}

func (tm TinyMove) Promotion() bitboard.Piece {
	return bitboard.Piece((tm & PromotionBitMask) >> 12)
}

// ToMove rebuilds the full move on b. ok is false when the squares cannot
// describe a move of the side to move; the result is still only
// pseudo-legal at best and must be verified before it is played.
func ToMove(tm TinyMove, b *board.Board) (m move.Move, ok bool) {
	from, to := tm.From(), tm.To()
	if from == to {
		return move.Null, false
	}
	attacker, c := b.PieceAt(from)
	if attacker == bitboard.NoPiece || c != b.ToMove() {
		return move.Null, false
	}
	victim, vc := b.PieceAt(to)
	if victim != bitboard.NoPiece && vc == c {
		return move.Null, false
	}
	ep := attacker == bitboard.Pawn && to == b.EnPassant() && from.File() != to.File()
	return move.New(from, to, attacker, victim, tm.Promotion(), ep), true
}
