package zobrist

import (
	"lukechampine.com/frand"

	"github.com/phonekimera/lisco-sub000/bitboard"
	"github.com/phonekimera/lisco-sub000/move"
)

const bignum = 1<<63 - 2

// Zobrist generates a hash for a chess position: one key per
// (color, piece, square) plus one for black to move.
// https://en.wikipedia.org/wiki/Zobrist_hashing
//
// Castling rights and the en-passant file are not part of the hash. AddMove
// only sees the move and the mover, which is not enough to update them.
type Zobrist struct {
	blackToMove uint64
	posTable    [2][bitboard.PieceArraySize][bitboard.SquareArraySize]uint64
}

// Default is the hasher boards use. Its keys are the same on every run.
var Default = &Zobrist{}

func init() {
	Default.Initialize([]byte("lisco zobrist keys, fixed seed!!"))
}

// Initialize fills in the keys. A nil seed draws them from the system
// generator; otherwise seed must be 32 bytes and the keys are reproducible.
func (z *Zobrist) Initialize(seed []byte) {
	next := func() uint64 { return frand.Uint64n(bignum) + 1 }
	if seed != nil {
		rng := frand.NewCustom(seed, 1024, 12)
		next = func() uint64 { return rng.Uint64n(bignum) + 1 }
	}
	for c := range z.posTable {
		for p := bitboard.Pawn; p <= bitboard.King; p++ {
			for sq := range z.posTable[c][p] {
				z.posTable[c][p][sq] = next()
			}
		}
	}
	z.blackToMove = next()
}

// Key returns the key of a piece of color c on sq.
func (z *Zobrist) Key(c bitboard.Color, p bitboard.Piece, sq bitboard.Square) uint64 {
	return z.posTable[c][p][sq]
}

// Hash computes the hash from scratch. pieces holds, per color and piece,
// the squares that piece stands on.
func (z *Zobrist) Hash(pieces *[2][bitboard.PieceArraySize]bitboard.Bitboard,
	toMove bitboard.Color) uint64 {

	key := uint64(0)
	for c := range pieces {
		for p := bitboard.Pawn; p <= bitboard.King; p++ {
			for bb := pieces[c][p]; bb != 0; {
				key ^= z.posTable[c][p][bb.Pop()]
			}
		}
	}
	if toMove == bitboard.Black {
		key ^= z.blackToMove
	}
	return key
}

// AddMove updates key for m played by mover. Since XOR is its own inverse,
// calling it again with the same arguments takes the move back.
func (z *Zobrist) AddMove(key uint64, m move.Move, mover bitboard.Color) uint64 {
	if !m.IsNull() {
		// - XOR the attacker off its square and the placed piece onto the
		//   destination (they differ on promotion)
		// - XOR the victim off its square
		// - for castling, move the rook too
		key ^= z.posTable[mover][m.Attacker][m.From]
		key ^= z.posTable[mover][m.Placed()][m.To]
		if m.Victim != bitboard.NoPiece {
			key ^= z.posTable[mover.Opposite()][m.Victim][m.CaptureSquare()]
		}
		if m.IsCastle() {
			rf, rt := m.CastleRook()
			key ^= z.posTable[mover][bitboard.Rook][rf]
			key ^= z.posTable[mover][bitboard.Rook][rt]
		}
	}
	key ^= z.blackToMove
	return key
}
