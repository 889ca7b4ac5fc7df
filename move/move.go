package move

import (
	"strings"

	"github.com/phonekimera/lisco-sub000/bitboard"
)

// Move is a chess move. It is filled in once, by the generator or by New,
// and never changed afterwards. Castling is a king move of two files.
type Move struct {
	From      bitboard.Square
	To        bitboard.Square
	Attacker  bitboard.Piece
	Victim    bitboard.Piece
	Promotion bitboard.Piece
	EnPassant bool
	// Delta is the material gained by the mover, in centipawns.
	Delta int16
}

// Null is the move used by null-move pruning. It is never generated.
var Null = Move{}

// New builds a move and computes its material delta.
func New(from, to bitboard.Square, attacker, victim, promotion bitboard.Piece, enPassant bool) Move {
	m := Move{
		From:      from,
		To:        to,
		Attacker:  attacker,
		Victim:    victim,
		Promotion: promotion,
		EnPassant: enPassant,
	}
	if enPassant {
		m.Victim = bitboard.Pawn
	}
	m.Delta = m.Victim.Value()
	if promotion != bitboard.NoPiece {
		m.Delta += promotion.Value() - bitboard.Pawn.Value()
	}
	return m
}

func (m Move) IsNull() bool {
	return m.From == m.To
}

// IsCapture is true for captures, en passant included.
func (m Move) IsCapture() bool {
	return m.Victim != bitboard.NoPiece
}

func (m Move) IsPromotion() bool {
	return m.Promotion != bitboard.NoPiece
}

// IsCastle is true for a king moving two files.
func (m Move) IsCastle() bool {
	if m.Attacker != bitboard.King {
		return false
	}
	d := int(m.To) - int(m.From)
	return d == 2 || d == -2
}

// IsQuiet is true for moves that neither capture nor promote.
func (m Move) IsQuiet() bool {
	return m.Victim == bitboard.NoPiece && m.Promotion == bitboard.NoPiece
}

// Placed returns the piece standing on the destination after the move.
func (m Move) Placed() bitboard.Piece {
	if m.Promotion != bitboard.NoPiece {
		return m.Promotion
	}
	return m.Attacker
}

// CaptureSquare is the square of the captured piece; it differs from To
// only for en passant.
func (m Move) CaptureSquare() bitboard.Square {
	if !m.EnPassant {
		return m.To
	}
	return bitboard.RankFile(m.From.Rank(), m.To.File())
}

// CastleRook returns the rook's from and to squares for a castling move.
func (m Move) CastleRook() (bitboard.Square, bitboard.Square) {
	r := m.From.Rank()
	if m.To > m.From {
		return bitboard.RankFile(r, 7), bitboard.RankFile(r, 5)
	}
	return bitboard.RankFile(r, 0), bitboard.RankFile(r, 3)
}

// Schema of OrderKey, higher sorts first:
//
//	bits 12-14 promotion piece
//	bits  8-10 victim
//	bits  4-6  7 - attacker
//
// So promotions rank above captures, captures by most valuable victim
// and then by least valuable attacker.
func (m Move) OrderKey() uint32 {
	return uint32(m.Promotion)<<12 | uint32(m.Victim)<<8 | uint32(7-m.Attacker)<<4
}

// UCI returns the move in pure coordinate form, e.g. e1g1 or e7e8q.
func (m Move) UCI() string {
	if m.IsNull() {
		return "0000"
	}
	var sb strings.Builder
	sb.WriteString(m.From.String())
	sb.WriteString(m.To.String())
	if m.Promotion != bitboard.NoPiece {
		sb.WriteByte(m.Promotion.Letter())
	}
	return sb.String()
}

// String returns coordinate form, with castling written O-O or O-O-O.
func (m Move) String() string {
	if m.IsCastle() {
		if m.To > m.From {
			return "O-O"
		}
		return "O-O-O"
	}
	return m.UCI()
}
