package bitboard

var (
	knightAttacks [SquareArraySize]Bitboard
	kingAttacks   [SquareArraySize]Bitboard
	// pawnAttacks[c][sq] are the squares a pawn of color c on sq attacks.
	pawnAttacks [2][SquareArraySize]Bitboard
)

func init() {
	initLeapers()
	initMagics()
}

func initLeapers() {
	knightDeltas := [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingDeltas := [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	for sq := Square(0); sq < SquareArraySize; sq++ {
		r, f := sq.Rank(), sq.File()
		knightAttacks[sq] = leaperMask(r, f, knightDeltas[:])
		kingAttacks[sq] = leaperMask(r, f, kingDeltas[:])
		pawnAttacks[White][sq] = leaperMask(r, f, [][2]int{{1, -1}, {1, 1}})
		pawnAttacks[Black][sq] = leaperMask(r, f, [][2]int{{-1, -1}, {-1, 1}})
	}
}

func leaperMask(r, f int, deltas [][2]int) Bitboard {
	var bb Bitboard
	for _, d := range deltas {
		rr, ff := r+d[0], f+d[1]
		if rr >= 0 && rr < 8 && ff >= 0 && ff < 8 {
			bb |= RankFile(rr, ff).Bitboard()
		}
	}
	return bb
}

// KnightAttacks returns the squares attacked by a knight on sq.
func KnightAttacks(sq Square) Bitboard {
	return knightAttacks[sq]
}

// KingAttacks returns the squares attacked by a king on sq.
func KingAttacks(sq Square) Bitboard {
	return kingAttacks[sq]
}

// PawnAttacks returns the squares attacked by a pawn of color c on sq.
func PawnAttacks(c Color, sq Square) Bitboard {
	return pawnAttacks[c][sq]
}

var (
	rookDirections   = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	bishopDirections = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

// slidingAttacks walks each direction until the edge or the first
// occupied square, which is included.
func slidingAttacks(sq Square, occ Bitboard, dirs [4][2]int) Bitboard {
	var attacks Bitboard
	r, f := sq.Rank(), sq.File()
	for _, d := range dirs {
		for rr, ff := r+d[0], f+d[1]; rr >= 0 && rr < 8 && ff >= 0 && ff < 8; rr, ff = rr+d[0], ff+d[1] {
			s := RankFile(rr, ff).Bitboard()
			attacks |= s
			if occ&s != 0 {
				break
			}
		}
	}
	return attacks
}

// RookAttacksSlow computes rook attacks by walking rays. It is used to build
// and check the magic tables.
func RookAttacksSlow(sq Square, occ Bitboard) Bitboard {
	return slidingAttacks(sq, occ, rookDirections)
}

// BishopAttacksSlow computes bishop attacks by walking rays.
func BishopAttacksSlow(sq Square, occ Bitboard) Bitboard {
	return slidingAttacks(sq, occ, bishopDirections)
}

// RookAttacks returns the squares a rook on sq attacks under occupancy occ.
func RookAttacks(sq Square, occ Bitboard) Bitboard {
	m := &rookMagics[sq]
	return m.attacks[m.index(occ)]
}

// BishopAttacks returns the squares a bishop on sq attacks under occupancy occ.
func BishopAttacks(sq Square, occ Bitboard) Bitboard {
	m := &bishopMagics[sq]
	return m.attacks[m.index(occ)]
}

// QueenAttacks is the union of rook and bishop attacks.
func QueenAttacks(sq Square, occ Bitboard) Bitboard {
	return RookAttacks(sq, occ) | BishopAttacks(sq, occ)
}
