package board

import (
	"fmt"
	"strings"

	"github.com/phonekimera/lisco-sub000/bitboard"
	"github.com/phonekimera/lisco-sub000/zobrist"
)

// CastleRights is a set of castling rights.
type CastleRights uint8

const (
	WhiteKingside CastleRights = 1 << iota
	WhiteQueenside
	BlackKingside
	BlackQueenside

	NoCastle  CastleRights = 0
	AnyCastle CastleRights = 15
)

var castleLetters = [4]byte{'K', 'Q', 'k', 'q'}

func (cr CastleRights) String() string {
	if cr == NoCastle {
		return "-"
	}
	var sb strings.Builder
	for i, l := range castleLetters {
		if cr&(1<<i) != 0 {
			sb.WriteByte(l)
		}
	}
	return sb.String()
}

// castleMask[sq] lists the rights lost when a piece leaves or is captured
// on sq.
var castleMask [bitboard.SquareArraySize]CastleRights

func init() {
	castleMask[bitboard.SquareE1] = WhiteKingside | WhiteQueenside
	castleMask[bitboard.SquareH1] = WhiteKingside
	castleMask[bitboard.SquareA1] = WhiteQueenside
	castleMask[bitboard.SquareE8] = BlackKingside | BlackQueenside
	castleMask[bitboard.SquareH8] = BlackKingside
	castleMask[bitboard.SquareA8] = BlackQueenside
}

const (
	// At most 16 pawns each make one double push, plus the one implied by
	// an en-passant square in the starting FEN.
	maxDoublePushes = 24
	// Clock resets happen on pawn moves (at most 6 per pawn) and captures
	// (at most 30), counted from the starting position.
	maxClockResets = 160
	// neverLost marks a castling right that was not lost by a move.
	neverLost = -1 << 30
)

type doublePush struct {
	ply  int32
	file uint8
}

// Board is a chess position plus the bookkeeping needed to take moves back.
//
// Pieces are stored per color for pawns, knights, bishops, rooks and kings.
// A queen is a square present in both the bishop and the rook bitboards.
//
// All undo state lives in fixed-size arrays, so assigning a Board makes an
// independent copy.
type Board struct {
	pieces   [2][bitboard.PieceArraySize]bitboard.Bitboard
	occupied [2]bitboard.Bitboard
	all      bitboard.Bitboard

	toMove   bitboard.Color
	castle   CastleRights
	epValid  bool
	epFile   uint8
	halfMove int32
	// ply counts half moves since the start of the game: 0 is white's first
	// move. It is derived from the FEN move number.
	ply       int32
	material  int32
	signature uint64

	castleLostPly [4]int32
	pushes        [maxDoublePushes]doublePush
	nPushes       int
	clockSaves    [maxClockResets]int32
	nClockSaves   int
}

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// New returns the initial position.
func New() *Board {
	b, err := FromFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Board) clear() {
	*b = Board{}
	for i := range b.castleLostPly {
		b.castleLostPly[i] = neverLost
	}
}

// Copy returns an independent copy of the board.
func (b *Board) Copy() *Board {
	c := *b
	return &c
}

func (b *Board) put(c bitboard.Color, p bitboard.Piece, sq bitboard.Square) {
	bit := sq.Bitboard()
	if p == bitboard.Queen {
		b.pieces[c][bitboard.Bishop] |= bit
		b.pieces[c][bitboard.Rook] |= bit
	} else {
		b.pieces[c][p] |= bit
	}
	b.occupied[c] |= bit
	b.all |= bit
}

func (b *Board) remove(c bitboard.Color, p bitboard.Piece, sq bitboard.Square) {
	bit := sq.Bitboard()
	if p == bitboard.Queen {
		b.pieces[c][bitboard.Bishop] &^= bit
		b.pieces[c][bitboard.Rook] &^= bit
	} else {
		b.pieces[c][p] &^= bit
	}
	b.occupied[c] &^= bit
	b.all &^= bit
}

// ToMove returns the side to move.
func (b *Board) ToMove() bitboard.Color { return b.toMove }

// Castling returns the castling rights still held.
func (b *Board) Castling() CastleRights { return b.castle }

// EnPassant returns the en-passant target square, or NoSquare.
func (b *Board) EnPassant() bitboard.Square {
	if !b.epValid {
		return bitboard.NoSquare
	}
	if b.toMove == bitboard.White {
		return bitboard.RankFile(5, int(b.epFile))
	}
	return bitboard.RankFile(2, int(b.epFile))
}

// HalfMove returns the half-move clock of the fifty-move rule.
func (b *Board) HalfMove() int { return int(b.halfMove) }

// Ply returns the number of half moves played since the start of the game.
func (b *Board) Ply() int { return int(b.ply) }

// FullMove returns the FEN move number.
func (b *Board) FullMove() int { return int(b.ply)/2 + 1 }

// Material returns white's material minus black's, kings excluded.
func (b *Board) Material() int { return int(b.material) }

// Signature returns the Zobrist hash of the position.
func (b *Board) Signature() uint64 { return b.signature }

// Occupied returns every occupied square.
func (b *Board) Occupied() bitboard.Bitboard { return b.all }

// ByColor returns the squares occupied by color c.
func (b *Board) ByColor(c bitboard.Color) bitboard.Bitboard { return b.occupied[c] }

// Pieces returns the squares holding piece p of color c.
func (b *Board) Pieces(c bitboard.Color, p bitboard.Piece) bitboard.Bitboard {
	switch p {
	case bitboard.Queen:
		return b.pieces[c][bitboard.Bishop] & b.pieces[c][bitboard.Rook]
	case bitboard.Bishop:
		return b.pieces[c][bitboard.Bishop] &^ b.pieces[c][bitboard.Rook]
	case bitboard.Rook:
		return b.pieces[c][bitboard.Rook] &^ b.pieces[c][bitboard.Bishop]
	}
	return b.pieces[c][p]
}

// Diagonal returns bishops and queens of color c.
func (b *Board) Diagonal(c bitboard.Color) bitboard.Bitboard {
	return b.pieces[c][bitboard.Bishop]
}

// Orthogonal returns rooks and queens of color c.
func (b *Board) Orthogonal(c bitboard.Color) bitboard.Bitboard {
	return b.pieces[c][bitboard.Rook]
}

// PieceSets returns, for each color and piece, the squares it stands on,
// with queens split out of the rook and bishop sets.
func (b *Board) PieceSets() [2][bitboard.PieceArraySize]bitboard.Bitboard {
	var ps [2][bitboard.PieceArraySize]bitboard.Bitboard
	for c := bitboard.White; c <= bitboard.Black; c++ {
		for p := bitboard.Pawn; p <= bitboard.King; p++ {
			ps[c][p] = b.Pieces(c, p)
		}
	}
	return ps
}

// PieceAt returns the piece and its color on sq, or NoPiece, NoColor.
func (b *Board) PieceAt(sq bitboard.Square) (bitboard.Piece, bitboard.Color) {
	bit := sq.Bitboard()
	if b.all&bit == 0 {
		return bitboard.NoPiece, bitboard.NoColor
	}
	c := bitboard.White
	if b.occupied[bitboard.Black]&bit != 0 {
		c = bitboard.Black
	}
	ps := &b.pieces[c]
	switch {
	case ps[bitboard.Pawn]&bit != 0:
		return bitboard.Pawn, c
	case ps[bitboard.Knight]&bit != 0:
		return bitboard.Knight, c
	case ps[bitboard.Bishop]&bit != 0:
		if ps[bitboard.Rook]&bit != 0 {
			return bitboard.Queen, c
		}
		return bitboard.Bishop, c
	case ps[bitboard.Rook]&bit != 0:
		return bitboard.Rook, c
	}
	return bitboard.King, c
}

// KingSquare returns the square of the king of color c.
func (b *Board) KingSquare(c bitboard.Color) bitboard.Square {
	return b.pieces[c][bitboard.King].LSB()
}

// AttackersTo returns the pieces of both colors attacking sq under
// occupancy occ.
func (b *Board) AttackersTo(sq bitboard.Square, occ bitboard.Bitboard) bitboard.Bitboard {
	w, k := &b.pieces[bitboard.White], &b.pieces[bitboard.Black]
	att := bitboard.PawnAttacks(bitboard.Black, sq) & w[bitboard.Pawn]
	att |= bitboard.PawnAttacks(bitboard.White, sq) & k[bitboard.Pawn]
	att |= bitboard.KnightAttacks(sq) & (w[bitboard.Knight] | k[bitboard.Knight])
	att |= bitboard.KingAttacks(sq) & (w[bitboard.King] | k[bitboard.King])
	att |= bitboard.BishopAttacks(sq, occ) & (w[bitboard.Bishop] | k[bitboard.Bishop])
	att |= bitboard.RookAttacks(sq, occ) & (w[bitboard.Rook] | k[bitboard.Rook])
	return att & occ
}

// Attacked returns true if color by attacks sq.
func (b *Board) Attacked(sq bitboard.Square, by bitboard.Color) bool {
	ps := &b.pieces[by]
	if bitboard.PawnAttacks(by.Opposite(), sq)&ps[bitboard.Pawn] != 0 ||
		bitboard.KnightAttacks(sq)&ps[bitboard.Knight] != 0 ||
		bitboard.KingAttacks(sq)&ps[bitboard.King] != 0 {
		return true
	}
	if bitboard.BishopAttacks(sq, b.all)&ps[bitboard.Bishop] != 0 {
		return true
	}
	return bitboard.RookAttacks(sq, b.all)&ps[bitboard.Rook] != 0
}

// InCheck returns true if the side to move is in check.
func (b *Board) InCheck() bool {
	return b.Attacked(b.KingSquare(b.toMove), b.toMove.Opposite())
}

// OpponentInCheck returns true if the side that just moved left its king
// attacked.
func (b *Board) OpponentInCheck() bool {
	them := b.toMove.Opposite()
	return b.Attacked(b.KingSquare(them), b.toMove)
}

// HasNonPawnMaterial returns true if color c owns a knight, bishop, rook
// or queen.
func (b *Board) HasNonPawnMaterial(c bitboard.Color) bool {
	return b.occupied[c]&^(b.pieces[c][bitboard.Pawn]|b.pieces[c][bitboard.King]) != 0
}

// IsInsufficientMaterial returns true when neither side can mate: bare
// kings, a single minor piece on the board, or one bishop each on squares
// of the same color.
func (b *Board) IsInsufficientMaterial() bool {
	for c := range b.pieces {
		if b.pieces[c][bitboard.Pawn]|b.pieces[c][bitboard.Rook] != 0 {
			return false
		}
	}
	w, k := &b.pieces[bitboard.White], &b.pieces[bitboard.Black]
	minors := (w[bitboard.Knight] | w[bitboard.Bishop] | k[bitboard.Knight] | k[bitboard.Bishop]).Count()
	if minors <= 1 {
		return true
	}
	if minors != 2 || w[bitboard.Bishop].Count() != 1 || k[bitboard.Bishop].Count() != 1 {
		return false
	}
	bishops := w[bitboard.Bishop] | k[bitboard.Bishop]
	return bishops&bitboard.LightSquares == 0 || bishops&bitboard.DarkSquares == 0
}

func (b *Board) computeMaterial() int32 {
	var m int32
	for p := bitboard.Pawn; p < bitboard.King; p++ {
		v := int32(p.Value())
		m += v * int32(b.Pieces(bitboard.White, p).Count())
		m -= v * int32(b.Pieces(bitboard.Black, p).Count())
	}
	return m
}

func (b *Board) computeSignature() uint64 {
	ps := b.PieceSets()
	return zobrist.Default.Hash(&ps, b.toMove)
}

// Verify checks the internal invariants of the board. A non-nil error means
// an engine bug, not bad input.
func (b *Board) Verify() error {
	for c := bitboard.White; c <= bitboard.Black; c++ {
		ps := &b.pieces[c]
		union := ps[bitboard.Pawn] | ps[bitboard.Knight] | ps[bitboard.Bishop] |
			ps[bitboard.Rook] | ps[bitboard.King]
		if union != b.occupied[c] {
			return fmt.Errorf("%v occupancy %x does not match pieces %x", c, b.occupied[c], union)
		}
		// Only bishop and rook may overlap (queens).
		sets := []bitboard.Bitboard{ps[bitboard.Pawn], ps[bitboard.Knight], ps[bitboard.Bishop] | ps[bitboard.Rook], ps[bitboard.King]}
		for i := range sets {
			for j := i + 1; j < len(sets); j++ {
				if sets[i]&sets[j] != 0 {
					return fmt.Errorf("%v piece sets overlap", c)
				}
			}
		}
		if ps[bitboard.King].Count() != 1 {
			return fmt.Errorf("%v has %d kings", c, ps[bitboard.King].Count())
		}
	}
	if b.occupied[bitboard.White]&b.occupied[bitboard.Black] != 0 {
		return fmt.Errorf("colors overlap")
	}
	if b.all != b.occupied[bitboard.White]|b.occupied[bitboard.Black] {
		return fmt.Errorf("total occupancy mismatch")
	}
	if m := b.computeMaterial(); m != b.material {
		return fmt.Errorf("material %d, expected %d", b.material, m)
	}
	if s := b.computeSignature(); s != b.signature {
		return fmt.Errorf("signature %x, expected %x", b.signature, s)
	}
	return nil
}

// String draws the board, rank 8 first, followed by the FEN.
func (b *Board) String() string {
	var sb strings.Builder
	for r := 7; r >= 0; r-- {
		fmt.Fprintf(&sb, "%d ", r+1)
		for f := 0; f < 8; f++ {
			p, c := b.PieceAt(bitboard.RankFile(r, f))
			sb.WriteByte(p.ColoredLetter(c))
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("  a b c d e f g h\n")
	sb.WriteString(b.FEN())
	sb.WriteByte('\n')
	return sb.String()
}

// CastleRightFor returns the right color c needs to castle on the given side.
func CastleRightFor(c bitboard.Color, kingside bool) CastleRights {
	right := WhiteKingside
	if !kingside {
		right = WhiteQueenside
	}
	if c == bitboard.Black {
		right <<= 2
	}
	return right
}

var castlePaths = [4]bitboard.Bitboard{
	bitboard.SquareF1.Bitboard() | bitboard.SquareG1.Bitboard(),
	bitboard.SquareB1.Bitboard() | bitboard.SquareC1.Bitboard() | bitboard.SquareD1.Bitboard(),
	bitboard.SquareF8.Bitboard() | bitboard.SquareG8.Bitboard(),
	bitboard.SquareB8.Bitboard() | bitboard.SquareC8.Bitboard() | bitboard.SquareD8.Bitboard(),
}

// CastlePath returns the squares between king and rook that must be empty
// to castle with a single right.
func CastlePath(right CastleRights) bitboard.Bitboard {
	switch right {
	case WhiteKingside:
		return castlePaths[0]
	case WhiteQueenside:
		return castlePaths[1]
	case BlackKingside:
		return castlePaths[2]
	case BlackQueenside:
		return castlePaths[3]
	}
	return bitboard.Empty
}
