package movegen

import (
	"github.com/phonekimera/lisco-sub000/bitboard"
	"github.com/phonekimera/lisco-sub000/board"
	"github.com/phonekimera/lisco-sub000/move"
)

// MaxMoves bounds the number of pseudo-legal moves in any position.
const MaxMoves = 256

// side describes the board from one color's point of view. The generator
// is written once against it and instantiated for white and black.
type side interface {
	us() bitboard.Color
	// forward shifts a set one rank towards the opponent.
	forward(bitboard.Bitboard) bitboard.Bitboard
	// back is the square a pawn came from after a single push to sq.
	back(sq bitboard.Square) bitboard.Square
	// thirdRank holds the pawns that may push a second time.
	thirdRank() bitboard.Bitboard
	lastRank() bitboard.Bitboard
}

type whiteSide struct{}

func (whiteSide) us() bitboard.Color { return bitboard.White }
func (whiteSide) forward(bb bitboard.Bitboard) bitboard.Bitboard { return bb.North() }
func (whiteSide) back(sq bitboard.Square) bitboard.Square { return sq - 8 }
func (whiteSide) thirdRank() bitboard.Bitboard { return bitboard.Rank3 }
func (whiteSide) lastRank() bitboard.Bitboard { return bitboard.Rank8 }

type blackSide struct{}

func (blackSide) us() bitboard.Color { return bitboard.Black }
func (blackSide) forward(bb bitboard.Bitboard) bitboard.Bitboard { return bb.South() }
func (blackSide) back(sq bitboard.Square) bitboard.Square { return sq + 8 }
func (blackSide) thirdRank() bitboard.Bitboard { return bitboard.Rank6 }
func (blackSide) lastRank() bitboard.Bitboard { return bitboard.Rank1 }

var (
	allPromotions   = [4]bitboard.Piece{bitboard.Queen, bitboard.Rook, bitboard.Bishop, bitboard.Knight}
	underPromotions = [3]bitboard.Piece{bitboard.Rook, bitboard.Bishop, bitboard.Knight}
	officers        = [4]bitboard.Piece{bitboard.Knight, bitboard.Bishop, bitboard.Rook, bitboard.Queen}
)

func attacksOf(p bitboard.Piece, sq bitboard.Square, occ bitboard.Bitboard) bitboard.Bitboard {
	switch p {
	case bitboard.Knight:
		return bitboard.KnightAttacks(sq)
	case bitboard.Bishop:
		return bitboard.BishopAttacks(sq, occ)
	case bitboard.Rook:
		return bitboard.RookAttacks(sq, occ)
	case bitboard.Queen:
		return bitboard.QueenAttacks(sq, occ)
	case bitboard.King:
		return bitboard.KingAttacks(sq)
	}
	return bitboard.Empty
}

// GenerateCaptures appends to buf every pseudo-legal capture, en passant,
// every capture-promotion and the non-capturing promotions to a queen.
func GenerateCaptures(b *board.Board, buf []move.Move) []move.Move {
	if b.ToMove() == bitboard.White {
		return genCaptures[whiteSide](b, buf)
	}
	return genCaptures[blackSide](b, buf)
}

// GenerateNonCaptures appends to buf every quiet pseudo-legal move,
// castling and the non-capturing under-promotions.
func GenerateNonCaptures(b *board.Board, buf []move.Move) []move.Move {
	if b.ToMove() == bitboard.White {
		return genNonCaptures[whiteSide](b, buf)
	}
	return genNonCaptures[blackSide](b, buf)
}

// GenerateMoves appends every pseudo-legal move to buf, captures first.
func GenerateMoves(b *board.Board, buf []move.Move) []move.Move {
	buf = GenerateCaptures(b, buf)
	return GenerateNonCaptures(b, buf)
}

func genCaptures[S side](b *board.Board, buf []move.Move) []move.Move {
	var s S
	us := s.us()
	them := us.Opposite()
	enemy := b.ByColor(them)
	occ := b.Occupied()

	for pawns := b.Pieces(us, bitboard.Pawn); pawns != 0; {
		from := pawns.Pop()
		for targets := bitboard.PawnAttacks(us, from) & enemy; targets != 0; {
			to := targets.Pop()
			victim, _ := b.PieceAt(to)
			if s.lastRank().Has(to) {
				for _, promo := range allPromotions {
					buf = append(buf, move.New(from, to, bitboard.Pawn, victim, promo, false))
				}
			} else {
				buf = append(buf, move.New(from, to, bitboard.Pawn, victim, bitboard.NoPiece, false))
			}
		}
	}

	if ep := b.EnPassant(); ep != bitboard.NoSquare {
		// Pawns attacking ep are those a pawn of the other color on ep
		// would attack.
		for from := bitboard.PawnAttacks(them, ep) & b.Pieces(us, bitboard.Pawn); from != 0; {
			buf = append(buf, move.New(from.Pop(), ep, bitboard.Pawn, bitboard.NoPiece, bitboard.NoPiece, true))
		}
	}

	pushes := s.forward(b.Pieces(us, bitboard.Pawn)) &^ occ & s.lastRank()
	for pushes != 0 {
		to := pushes.Pop()
		buf = append(buf, move.New(s.back(to), to, bitboard.Pawn, bitboard.NoPiece, bitboard.Queen, false))
	}

	for _, p := range officers {
		for pieces := b.Pieces(us, p); pieces != 0; {
			from := pieces.Pop()
			buf = appendCaptures(b, buf, p, from, attacksOf(p, from, occ)&enemy)
		}
	}
	king := b.KingSquare(us)
	return appendCaptures(b, buf, bitboard.King, king, bitboard.KingAttacks(king)&enemy)
}

func appendCaptures(b *board.Board, buf []move.Move, p bitboard.Piece,
	from bitboard.Square, targets bitboard.Bitboard) []move.Move {

	for targets != 0 {
		to := targets.Pop()
		victim, _ := b.PieceAt(to)
		buf = append(buf, move.New(from, to, p, victim, bitboard.NoPiece, false))
	}
	return buf
}

func genNonCaptures[S side](b *board.Board, buf []move.Move) []move.Move {
	var s S
	us := s.us()
	occ := b.Occupied()
	empty := ^occ

	single := s.forward(b.Pieces(us, bitboard.Pawn)) & empty
	double := s.forward(single&s.thirdRank()) & empty
	for promos := single & s.lastRank(); promos != 0; {
		to := promos.Pop()
		for _, promo := range underPromotions {
			buf = append(buf, move.New(s.back(to), to, bitboard.Pawn, bitboard.NoPiece, promo, false))
		}
	}
	for quiet := single &^ s.lastRank(); quiet != 0; {
		to := quiet.Pop()
		buf = append(buf, move.New(s.back(to), to, bitboard.Pawn, bitboard.NoPiece, bitboard.NoPiece, false))
	}
	for double != 0 {
		to := double.Pop()
		buf = append(buf, move.New(s.back(s.back(to)), to, bitboard.Pawn, bitboard.NoPiece, bitboard.NoPiece, false))
	}

	for _, p := range officers {
		for pieces := b.Pieces(us, p); pieces != 0; {
			from := pieces.Pop()
			buf = appendQuiets(buf, p, from, attacksOf(p, from, occ)&empty)
		}
	}
	king := b.KingSquare(us)
	buf = appendQuiets(buf, bitboard.King, king, bitboard.KingAttacks(king)&empty)

	// Castling: the right is held and the squares between king and rook
	// are empty. Attacks on the king's path are left to the legality check.
	for _, kingside := range [2]bool{true, false} {
		right := board.CastleRightFor(us, kingside)
		if b.Castling()&right == 0 || occ&board.CastlePath(right) != 0 {
			continue
		}
		to := king + 2
		if !kingside {
			to = king - 2
		}
		buf = append(buf, move.New(king, to, bitboard.King, bitboard.NoPiece, bitboard.NoPiece, false))
	}
	return buf
}

func appendQuiets(buf []move.Move, p bitboard.Piece, from bitboard.Square,
	targets bitboard.Bitboard) []move.Move {

	for targets != 0 {
		buf = append(buf, move.New(from, targets.Pop(), p, bitboard.NoPiece, bitboard.NoPiece, false))
	}
	return buf
}
