package bitboard

import (
	"encoding/binary"
	"testing"

	"github.com/matryer/is"
	"lukechampine.com/frand"
)

func randomOccupancy(rng *frand.RNG) Bitboard {
	var buf [16]byte
	rng.Read(buf[:])
	// Two words ANDed together give roughly a quarter of the board filled.
	return Bitboard(binary.LittleEndian.Uint64(buf[:8]) & binary.LittleEndian.Uint64(buf[8:]))
}

func TestMagicsMatchRayWalk(t *testing.T) {
	is := is.New(t)
	rng := frand.NewCustom(make([]byte, 32), 1024, 12)
	for sq := Square(0); sq < SquareArraySize; sq++ {
		for i := 0; i < 200; i++ {
			occ := randomOccupancy(rng)
			is.Equal(RookAttacks(sq, occ), RookAttacksSlow(sq, occ))
			is.Equal(BishopAttacks(sq, occ), BishopAttacksSlow(sq, occ))
		}
		is.Equal(RookAttacks(sq, Empty), RookAttacksSlow(sq, Empty))
		is.Equal(BishopAttacks(sq, Full), BishopAttacksSlow(sq, Full))
	}
}

func TestRookAttacksKnownSquares(t *testing.T) {
	is := is.New(t)
	// A rook on an empty board always sees 14 squares.
	for sq := Square(0); sq < SquareArraySize; sq++ {
		is.Equal(RookAttacks(sq, Empty).Count(), 14)
	}
	// a1 rook blocked on a3 and c1.
	occ := RankFile(2, 0).Bitboard() | RankFile(0, 2).Bitboard()
	att := RookAttacks(SquareA1, occ)
	is.Equal(att.Count(), 4)
	is.True(att.Has(RankFile(2, 0)))
	is.True(att.Has(SquareC1))
	is.True(!att.Has(SquareD1))
}

func TestBishopCornerToCorner(t *testing.T) {
	is := is.New(t)
	is.Equal(BishopAttacks(SquareA1, Empty).Count(), 7)
	is.True(BishopAttacks(SquareA1, Empty).Has(SquareH8))
	is.Equal(QueenAttacks(RankFile(3, 3), Empty).Count(), 27)
}

func TestLeapers(t *testing.T) {
	is := is.New(t)
	is.Equal(KnightAttacks(SquareA1).Count(), 2)
	is.Equal(KnightAttacks(RankFile(3, 3)).Count(), 8)
	is.Equal(KingAttacks(SquareH8).Count(), 3)
	is.Equal(KingAttacks(RankFile(4, 4)).Count(), 8)

	e4 := RankFile(3, 4)
	is.Equal(PawnAttacks(White, e4), RankFile(4, 3).Bitboard()|RankFile(4, 5).Bitboard())
	is.Equal(PawnAttacks(Black, e4), RankFile(2, 3).Bitboard()|RankFile(2, 5).Bitboard())
	is.Equal(PawnAttacks(White, SquareH1), RankFile(1, 6).Bitboard())
}

func TestBitboardOps(t *testing.T) {
	is := is.New(t)
	b := SquareA1.Bitboard() | SquareH8.Bitboard() | RankFile(3, 4).Bitboard()
	is.Equal(b.Count(), 3)
	is.Equal(b.LSB(), SquareA1)
	is.Equal(b.MSB(), SquareH8)
	is.Equal(b.Pop(), SquareA1)
	is.Equal(b.Pop(), RankFile(3, 4))
	is.Equal(b.Pop(), SquareH8)
	is.Equal(b, Empty)

	is.Equal(FileH.East(), Empty)
	is.Equal(FileA.West(), Empty)
	is.Equal(Rank1.North(), Rank2)
	is.Equal(Rank8.North(), Empty)
	is.True(SquareH1.IsLight())
	is.True(!SquareA1.IsLight())
	is.True(LightSquares.Has(SquareH1))
	is.True(DarkSquares.Has(SquareA1))
}

func TestParseSquare(t *testing.T) {
	is := is.New(t)
	sq, err := ParseSquare("e4")
	is.NoErr(err)
	is.Equal(sq, RankFile(3, 4))
	is.Equal(sq.String(), "e4")

	for _, bad := range []string{"", "e", "i1", "a9", "e44", "E4"} {
		_, err := ParseSquare(bad)
		is.True(err != nil)
	}
}

func TestPieceLetters(t *testing.T) {
	is := is.New(t)
	p, c, ok := PieceFromLetter('Q')
	is.True(ok)
	is.Equal(p, Queen)
	is.Equal(c, White)
	p, c, ok = PieceFromLetter('n')
	is.True(ok)
	is.Equal(p, Knight)
	is.Equal(c, Black)
	_, _, ok = PieceFromLetter('x')
	is.True(!ok)
	is.Equal(Rook.ColoredLetter(White), byte('R'))
	is.Equal(Rook.ColoredLetter(Black), byte('r'))
}
