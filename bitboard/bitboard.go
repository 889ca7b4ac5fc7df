package bitboard

import (
	"math/bits"
	"strings"
)

// Bitboard is a set of squares; bit i is square i.
type Bitboard uint64

const (
	Empty Bitboard = 0
	Full  Bitboard = 0xffffffffffffffff

	FileA Bitboard = 0x0101010101010101
	FileH Bitboard = FileA << 7
	Rank1 Bitboard = 0xff
	Rank2 Bitboard = Rank1 << 8
	Rank3 Bitboard = Rank1 << 16
	Rank4 Bitboard = Rank1 << 24
	Rank5 Bitboard = Rank1 << 32
	Rank6 Bitboard = Rank1 << 40
	Rank7 Bitboard = Rank1 << 48
	Rank8 Bitboard = Rank1 << 56

	LightSquares Bitboard = 0x55aa55aa55aa55aa
	DarkSquares  Bitboard = ^LightSquares
)

// Has returns true if sq is in the set.
func (b Bitboard) Has(sq Square) bool {
	return b>>sq&1 != 0
}

// Count returns the number of squares in the set.
func (b Bitboard) Count() int {
	return bits.OnesCount64(uint64(b))
}

// LSB returns the lowest square of a non-empty set.
func (b Bitboard) LSB() Square {
	return Square(bits.TrailingZeros64(uint64(b)))
}

// MSB returns the highest square of a non-empty set.
func (b Bitboard) MSB() Square {
	return Square(63 - bits.LeadingZeros64(uint64(b)))
}

// Pop removes and returns the lowest square of a non-empty set.
func (b *Bitboard) Pop() Square {
	sq := Square(bits.TrailingZeros64(uint64(*b)))
	*b &= *b - 1
	return sq
}

// North shifts every square one rank up.
func (b Bitboard) North() Bitboard { return b << 8 }

// South shifts every square one rank down.
func (b Bitboard) South() Bitboard { return b >> 8 }

// East shifts every square one file towards h, dropping the h file.
func (b Bitboard) East() Bitboard { return (b &^ FileH) << 1 }

// West shifts every square one file towards a, dropping the a file.
func (b Bitboard) West() Bitboard { return (b &^ FileA) >> 1 }

// String renders the set as an 8x8 grid, rank 8 first.
func (b Bitboard) String() string {
	var sb strings.Builder
	for r := 7; r >= 0; r-- {
		for f := 0; f < 8; f++ {
			if b.Has(RankFile(r, f)) {
				sb.WriteByte('x')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
