package bitboard

import (
	"errors"
	"fmt"
)

// Color is the side owning a piece or having the move.
type Color uint8

const (
	White Color = iota
	Black
	NoColor
)

// Opposite returns the other color.
func (c Color) Opposite() Color {
	return c ^ 1
}

func (c Color) String() string {
	switch c {
	case White:
		return "w"
	case Black:
		return "b"
	}
	return "-"
}

// Piece is a piece type without color. The order is the order of
// increasing exchange value, which the exchange evaluator relies on.
type Piece uint8

const (
	NoPiece Piece = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

const PieceArraySize = 7

var pieceLetters = [PieceArraySize]byte{'.', 'p', 'n', 'b', 'r', 'q', 'k'}

// Letter returns the lowercase letter of the piece, '.' for NoPiece.
func (p Piece) Letter() byte {
	return pieceLetters[p]
}

// ColoredLetter returns the FEN letter of the piece: uppercase for white.
func (p Piece) ColoredLetter(c Color) byte {
	l := pieceLetters[p]
	if c == White && p != NoPiece {
		return l - 'a' + 'A'
	}
	return l
}

// PieceValues is the material scale in centipawns. The king's value only
// matters to exchange evaluation; kings are never captured in play.
var PieceValues = [PieceArraySize]int16{0, 100, 300, 300, 500, 900, 10000}

// Value returns the material value of the piece.
func (p Piece) Value() int16 {
	return PieceValues[p]
}

func (p Piece) String() string {
	if p == NoPiece {
		return ""
	}
	return string(pieceLetters[p])
}

// PieceFromLetter maps a FEN letter to a piece and a color.
func PieceFromLetter(r byte) (Piece, Color, bool) {
	c := Black
	if r >= 'A' && r <= 'Z' {
		c = White
		r = r - 'A' + 'a'
	}
	for i := Pawn; i <= King; i++ {
		if pieceLetters[i] == r {
			return i, c, true
		}
	}
	return NoPiece, NoColor, false
}

// Square is a board square; a1 = 0, b1 = 1, ..., h8 = 63.
type Square uint8

const (
	SquareA1 Square = 0
	SquareB1 Square = 1
	SquareC1 Square = 2
	SquareD1 Square = 3
	SquareE1 Square = 4
	SquareF1 Square = 5
	SquareG1 Square = 6
	SquareH1 Square = 7
	SquareA8 Square = 56
	SquareB8 Square = 57
	SquareC8 Square = 58
	SquareD8 Square = 59
	SquareE8 Square = 60
	SquareF8 Square = 61
	SquareG8 Square = 62
	SquareH8 Square = 63

	SquareArraySize = 64
	NoSquare Square = 64
)

var ErrBadSquare = errors.New("bad square")

// RankFile returns a square from rank and file, both 0 based.
func RankFile(r, f int) Square {
	return Square(r*8 + f)
}

// Rank returns the rank of the square, 0 based.
func (sq Square) Rank() int {
	return int(sq >> 3)
}

// File returns the file of the square, 0 based.
func (sq Square) File() int {
	return int(sq & 7)
}

// Bitboard returns a bitboard with only sq set.
func (sq Square) Bitboard() Bitboard {
	return Bitboard(1) << sq
}

// IsLight is true for light squares (h1, a8, ...).
func (sq Square) IsLight() bool {
	return (sq.Rank()+sq.File())%2 == 1
}

func (sq Square) String() string {
	if sq >= NoSquare {
		return "-"
	}
	return string([]byte{byte('a' + sq.File()), byte('1' + sq.Rank())})
}

// ParseSquare parses a square in algebraic notation, e.g. "e4".
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return NoSquare, fmt.Errorf("%w: %q", ErrBadSquare, s)
	}
	f, r := int(s[0]-'a'), int(s[1]-'1')
	if f < 0 || f > 7 || r < 0 || r > 7 {
		return NoSquare, fmt.Errorf("%w: %q", ErrBadSquare, s)
	}
	return RankFile(r, f), nil
}
