// Package equity holds the static evaluation of chess positions: the
// positional score used at the leaves of the search and the static exchange
// evaluation used to order and prune captures.
//
// All values are centipawns on the scale of bitboard.PieceValues.
package equity

import (
	"github.com/phonekimera/lisco-sub000/bitboard"
	"github.com/phonekimera/lisco-sub000/board"
)

const (
	BishopPairBonus = 30
	// maxPhase is the game phase with all the minor and major pieces on
	// the board.
	maxPhase = 24
)

var phaseWeight = [bitboard.PieceArraySize]int{0, 0, 1, 1, 2, 4, 0}

// Tables are written from white's point of view with rank 8 on top, so
// they read like a diagram.
var (
	pawnTable = [64]int{
		0, 0, 0, 0, 0, 0, 0, 0,
		50, 50, 50, 50, 50, 50, 50, 50,
		10, 10, 20, 30, 30, 20, 10, 10,
		5, 5, 10, 25, 25, 10, 5, 5,
		0, 0, 0, 20, 20, 0, 0, 0,
		5, -5, -10, 0, 0, -10, -5, 5,
		5, 10, 10, -20, -20, 10, 10, 5,
		0, 0, 0, 0, 0, 0, 0, 0,
	}
	pawnEndTable = [64]int{
		0, 0, 0, 0, 0, 0, 0, 0,
		80, 80, 80, 80, 80, 80, 80, 80,
		50, 50, 50, 50, 50, 50, 50, 50,
		30, 30, 30, 30, 30, 30, 30, 30,
		20, 20, 20, 20, 20, 20, 20, 20,
		10, 10, 10, 10, 10, 10, 10, 10,
		0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0,
	}
	knightTable = [64]int{
		-50, -40, -30, -30, -30, -30, -40, -50,
		-40, -20, 0, 0, 0, 0, -20, -40,
		-30, 0, 10, 15, 15, 10, 0, -30,
		-30, 5, 15, 20, 20, 15, 5, -30,
		-30, 0, 15, 20, 20, 15, 0, -30,
		-30, 5, 10, 15, 15, 10, 5, -30,
		-40, -20, 0, 5, 5, 0, -20, -40,
		-50, -40, -30, -30, -30, -30, -40, -50,
	}
	bishopTable = [64]int{
		-20, -10, -10, -10, -10, -10, -10, -20,
		-10, 0, 0, 0, 0, 0, 0, -10,
		-10, 0, 5, 10, 10, 5, 0, -10,
		-10, 5, 5, 10, 10, 5, 5, -10,
		-10, 0, 10, 10, 10, 10, 0, -10,
		-10, 10, 10, 10, 10, 10, 10, -10,
		-10, 5, 0, 0, 0, 0, 5, -10,
		-20, -10, -10, -10, -10, -10, -10, -20,
	}
	rookTable = [64]int{
		0, 0, 0, 0, 0, 0, 0, 0,
		5, 10, 10, 10, 10, 10, 10, 5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		0, 0, 0, 5, 5, 0, 0, 0,
	}
	queenTable = [64]int{
		-20, -10, -10, -5, -5, -10, -10, -20,
		-10, 0, 0, 0, 0, 0, 0, -10,
		-10, 0, 5, 5, 5, 5, 0, -10,
		-5, 0, 5, 5, 5, 5, 0, -5,
		0, 0, 5, 5, 5, 5, 0, -5,
		-10, 5, 5, 5, 5, 5, 0, -10,
		-10, 0, 5, 0, 0, 0, 0, -10,
		-20, -10, -10, -5, -5, -10, -10, -20,
	}
	kingTable = [64]int{
		-30, -40, -40, -50, -50, -40, -40, -30,
		-30, -40, -40, -50, -50, -40, -40, -30,
		-30, -40, -40, -50, -50, -40, -40, -30,
		-30, -40, -40, -50, -50, -40, -40, -30,
		-20, -30, -30, -40, -40, -30, -30, -20,
		-10, -20, -20, -20, -20, -20, -20, -10,
		20, 20, 0, 0, 0, 0, 20, 20,
		20, 30, 10, 0, 0, 10, 30, 20,
	}
	kingEndTable = [64]int{
		-50, -40, -30, -20, -20, -30, -40, -50,
		-30, -20, -10, 0, 0, -10, -20, -30,
		-30, -10, 20, 30, 30, 20, -10, -30,
		-30, -10, 30, 40, 40, 30, -10, -30,
		-30, -10, 30, 40, 40, 30, -10, -30,
		-30, -10, 20, 30, 30, 20, -10, -30,
		-30, -30, 0, 0, 0, 0, -30, -30,
		-50, -30, -30, -30, -30, -30, -30, -50,
	}

	middleTables = [bitboard.PieceArraySize]*[64]int{
		nil, &pawnTable, &knightTable, &bishopTable, &rookTable, &queenTable, &kingTable,
	}
	endTables = [bitboard.PieceArraySize]*[64]int{
		nil, &pawnEndTable, &knightTable, &bishopTable, &rookTable, &queenTable, &kingEndTable,
	}
)

// tableIndex maps a square to the row-major diagram index of the tables
// above, mirrored for black.
func tableIndex(c bitboard.Color, sq bitboard.Square) int {
	if c == bitboard.White {
		return (7-sq.Rank())*8 + sq.File()
	}
	return sq.Rank()*8 + sq.File()
}

// Phase returns a number between 0 (bare kings and pawns) and 24 (all the
// pieces present).
func Phase(b *board.Board) int {
	phase := 0
	for c := bitboard.White; c <= bitboard.Black; c++ {
		for p := bitboard.Knight; p <= bitboard.Queen; p++ {
			phase += phaseWeight[p] * b.Pieces(c, p).Count()
		}
	}
	return min(phase, maxPhase)
}

// Evaluate returns the static score of b from the point of view of the
// side to move.
func Evaluate(b *board.Board) int {
	phase := Phase(b)
	var mg, eg int
	for c := bitboard.White; c <= bitboard.Black; c++ {
		sign := 1
		if c == bitboard.Black {
			sign = -1
		}
		for p := bitboard.Pawn; p <= bitboard.King; p++ {
			for set := b.Pieces(c, p); set != 0; {
				i := tableIndex(c, set.Pop())
				mg += sign * middleTables[p][i]
				eg += sign * endTables[p][i]
			}
		}
		if b.Pieces(c, bitboard.Bishop).Count() >= 2 {
			mg += sign * BishopPairBonus
			eg += sign * BishopPairBonus
		}
	}
	score := b.Material() + (mg*phase+eg*(maxPhase-phase))/maxPhase
	if b.ToMove() == bitboard.Black {
		return -score
	}
	return score
}
