package game

import (
	"fmt"
	"strings"

	"github.com/phonekimera/lisco-sub000/bitboard"
	"github.com/phonekimera/lisco-sub000/board"
	"github.com/phonekimera/lisco-sub000/move"
	"github.com/phonekimera/lisco-sub000/movegen"
)

var sanPieces = map[byte]bitboard.Piece{
	'N': bitboard.Knight,
	'B': bitboard.Bishop,
	'R': bitboard.Rook,
	'Q': bitboard.Queen,
	'K': bitboard.King,
}

var promotionPieces = map[byte]bitboard.Piece{
	'n': bitboard.Knight,
	'b': bitboard.Bishop,
	'r': bitboard.Rook,
	'q': bitboard.Queen,
}

// ParseMove finds the legal move described by text: coordinate notation
// (e2e4, e7e8q), castling (O-O, O-O-O, or with zeros) or standard algebraic
// notation (Nf3, exd5, e8=Q+, Rad1). Check and annotation marks are ignored.
func ParseMove(b *board.Board, text string) (move.Move, error) {
	s := strings.TrimRight(strings.TrimSpace(text), "+#!?")
	if s == "" {
		return move.Null, fmt.Errorf("%w: empty move", board.ErrMalformedInput)
	}
	legal := movegen.LegalMoves(b)
	switch strings.ReplaceAll(s, "0", "O") {
	case "O-O":
		return findCastle(b, legal, true, text)
	case "O-O-O":
		return findCastle(b, legal, false, text)
	}
	if isCoordinate(s) {
		return parseCoordinate(b, legal, s)
	}
	return parseSAN(legal, s, text)
}

func isCoordinate(s string) bool {
	if len(s) != 4 && len(s) != 5 {
		return false
	}
	for i, first := range []byte{'a', '1', 'a', '1'} {
		if s[i] < first || s[i] > first+7 {
			return false
		}
	}
	return len(s) == 4 || promotionPieces[lower(s[4])] != bitboard.NoPiece
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c - 'A' + 'a'
	}
	return c
}

func findCastle(b *board.Board, legal []move.Move, kingside bool, text string) (move.Move, error) {
	for _, m := range legal {
		if m.IsCastle() && (m.To > m.From) == kingside {
			return m, nil
		}
	}
	return move.Null, fmt.Errorf("%w: %s in %s", board.ErrIllegalMove, text, b.FEN())
}

func parseCoordinate(b *board.Board, legal []move.Move, s string) (move.Move, error) {
	from, _ := bitboard.ParseSquare(s[:2])
	to, _ := bitboard.ParseSquare(s[2:4])
	promo := bitboard.NoPiece
	if len(s) == 5 {
		promo = promotionPieces[lower(s[4])]
	}
	var found []move.Move
	for _, m := range legal {
		if m.From == from && m.To == to && (len(s) == 4 || m.Promotion == promo) {
			found = append(found, m)
		}
	}
	switch {
	case len(found) == 1:
		return found[0], nil
	case len(found) > 1:
		return move.Null, fmt.Errorf("%w: %s needs a promotion piece", board.ErrAmbiguousMove, s)
	}
	// Tell a move that exposes the king apart from one that is not there.
	var buf [movegen.MaxMoves]move.Move
	for _, m := range movegen.GenerateMoves(b, buf[:0]) {
		if m.From == from && m.To == to && !m.IsCastle() {
			return move.Null, fmt.Errorf("%w: %s", board.ErrOpponentInCheck, s)
		}
	}
	return move.Null, fmt.Errorf("%w: %s in %s", board.ErrIllegalMove, s, b.FEN())
}

// parseSAN matches [piece][file][rank][x]square[=promotion].
func parseSAN(legal []move.Move, s, text string) (move.Move, error) {
	malformed := fmt.Errorf("%w: %q is not a move", board.ErrMalformedInput, text)

	piece := bitboard.Pawn
	if p, ok := sanPieces[s[0]]; ok {
		piece = p
		s = s[1:]
	}
	promo := bitboard.NoPiece
	if piece == bitboard.Pawn && len(s) >= 3 {
		if p, ok := sanPieces[s[len(s)-1]]; ok && p != bitboard.King {
			promo = p
			s = strings.TrimSuffix(s[:len(s)-1], "=")
		}
	}
	if len(s) < 2 {
		return move.Null, malformed
	}
	to, err := bitboard.ParseSquare(s[len(s)-2:])
	if err != nil {
		return move.Null, malformed
	}
	prefix := s[:len(s)-2]
	capture := strings.HasSuffix(prefix, "x") || strings.HasSuffix(prefix, ":")
	if capture {
		prefix = prefix[:len(prefix)-1]
	}
	file, rank := -1, -1
	for i := 0; i < len(prefix); i++ {
		switch c := prefix[i]; {
		case c >= 'a' && c <= 'h' && file < 0 && rank < 0:
			file = int(c - 'a')
		case c >= '1' && c <= '8' && rank < 0:
			rank = int(c - '1')
		default:
			return move.Null, malformed
		}
	}
	if piece == bitboard.Pawn && (capture != (file >= 0) || rank >= 0) {
		return move.Null, malformed
	}

	var found []move.Move
	for _, m := range legal {
		if m.Attacker != piece || m.To != to || m.IsCastle() {
			continue
		}
		// Without a piece, all four promotions match.
		if promo != bitboard.NoPiece && m.Promotion != promo {
			continue
		}
		if file >= 0 && m.From.File() != file || rank >= 0 && m.From.Rank() != rank {
			continue
		}
		if capture && !m.IsCapture() || piece == bitboard.Pawn && !capture && m.IsCapture() {
			continue
		}
		found = append(found, m)
	}
	switch len(found) {
	case 0:
		return move.Null, fmt.Errorf("%w: %s", board.ErrIllegalMove, text)
	case 1:
		return found[0], nil
	}
	return move.Null, fmt.Errorf("%w: %s matches %d moves", board.ErrAmbiguousMove, text, len(found))
}

// ToSAN returns m, which must be legal on b, in standard algebraic
// notation with a check or mate suffix.
func ToSAN(b *board.Board, m move.Move) string {
	var sb strings.Builder
	if m.IsCastle() {
		sb.WriteString(m.String())
	} else {
		if m.Attacker != bitboard.Pawn {
			sb.WriteByte(m.Attacker.ColoredLetter(bitboard.White))
			sb.WriteString(disambiguation(b, m))
		} else if m.IsCapture() {
			sb.WriteByte(m.From.String()[0])
		}
		if m.IsCapture() {
			sb.WriteByte('x')
		}
		sb.WriteString(m.To.String())
		if m.IsPromotion() {
			sb.WriteByte('=')
			sb.WriteByte(m.Promotion.ColoredLetter(bitboard.White))
		}
	}
	cp := b.Copy()
	cp.Apply(m)
	if cp.InCheck() {
		if movegen.HasLegalMove(cp) {
			sb.WriteByte('+')
		} else {
			sb.WriteByte('#')
		}
	}
	return sb.String()
}

// disambiguation returns the from file, rank or square needed to tell m
// apart from other moves of the same piece type to the same square.
func disambiguation(b *board.Board, m move.Move) string {
	others, sameFile, sameRank := 0, false, false
	for _, o := range movegen.LegalMoves(b) {
		if o.Attacker != m.Attacker || o.To != m.To || o.From == m.From {
			continue
		}
		others++
		sameFile = sameFile || o.From.File() == m.From.File()
		sameRank = sameRank || o.From.Rank() == m.From.Rank()
	}
	sq := m.From.String()
	switch {
	case others == 0:
		return ""
	case !sameFile:
		return sq[:1]
	case !sameRank:
		return sq[1:]
	}
	return sq
}

// FormatLine writes moves played from b in numbered algebraic notation,
// e.g. "1. e4 e5 2. Nf3" or "3... Nc6 4. Bb5". b is not changed.
func FormatLine(b *board.Board, moves []move.Move) string {
	cp := b.Copy()
	var sb strings.Builder
	for i, m := range moves {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if cp.ToMove() == bitboard.White {
			fmt.Fprintf(&sb, "%d. ", cp.FullMove())
		} else if i == 0 {
			fmt.Fprintf(&sb, "%d... ", cp.FullMove())
		}
		sb.WriteString(ToSAN(cp, m))
		cp.Apply(m)
	}
	return sb.String()
}
