package board

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/phonekimera/lisco-sub000/bitboard"
)

const maxClock = 1 << 20

// FromFEN parses a position. It fails on the first bad field with an error
// wrapping ErrMalformedInput (syntax) or ErrIllegalPosition (the text is
// well-formed but the position cannot exist).
func FromFEN(fen string) (*Board, error) {
	fields := strings.Fields(fen)
	if len(fields) != 6 {
		return nil, fmt.Errorf("%w: expected 6 fields, got %d", ErrMalformedInput, len(fields))
	}
	b := &Board{}
	b.clear()

	if err := b.parsePlacement(fields[0]); err != nil {
		return nil, err
	}

	switch fields[1] {
	case "w":
		b.toMove = bitboard.White
	case "b":
		b.toMove = bitboard.Black
	default:
		return nil, fmt.Errorf("%w: side to move %q", ErrMalformedInput, fields[1])
	}

	cr, err := parseCastling(fields[2])
	if err != nil {
		return nil, err
	}
	b.castle = cr

	ep := bitboard.NoSquare
	if fields[3] != "-" {
		ep, err = bitboard.ParseSquare(fields[3])
		if err != nil {
			return nil, fmt.Errorf("%w: en passant: %w", ErrMalformedInput, err)
		}
		if ep.Rank() != 2 && ep.Rank() != 5 {
			return nil, fmt.Errorf("%w: en passant square %v", ErrMalformedInput, ep)
		}
	}

	half, err := parseCounter(fields[4], 0)
	if err != nil {
		return nil, err
	}
	full, err := parseCounter(fields[5], 1)
	if err != nil {
		return nil, err
	}
	b.halfMove = int32(half)
	b.ply = int32(2*(full-1) + int(b.toMove))

	if err := b.validate(ep); err != nil {
		return nil, err
	}
	if ep != bitboard.NoSquare {
		b.pushes[0] = doublePush{ply: b.ply - 1, file: uint8(ep.File())}
		b.nPushes = 1
		b.epValid = true
		b.epFile = uint8(ep.File())
	}
	b.material = b.computeMaterial()
	b.signature = b.computeSignature()
	return b, nil
}

func (b *Board) parsePlacement(s string) error {
	ranks := strings.Split(s, "/")
	if len(ranks) != 8 {
		return fmt.Errorf("%w: expected 8 ranks, got %d", ErrMalformedInput, len(ranks))
	}
	for i, rank := range ranks {
		r := 7 - i
		f := 0
		lastDigit := false
		for j := 0; j < len(rank); j++ {
			ch := rank[j]
			if ch >= '1' && ch <= '8' {
				if lastDigit {
					return fmt.Errorf("%w: rank %d: consecutive digits", ErrMalformedInput, r+1)
				}
				f += int(ch - '0')
				lastDigit = true
			} else {
				p, c, ok := bitboard.PieceFromLetter(ch)
				if !ok {
					return fmt.Errorf("%w: rank %d: unexpected %q", ErrMalformedInput, r+1, ch)
				}
				if f > 7 {
					return fmt.Errorf("%w: rank %d: too many squares", ErrMalformedInput, r+1)
				}
				b.put(c, p, bitboard.RankFile(r, f))
				f++
				lastDigit = false
			}
			if f > 8 {
				return fmt.Errorf("%w: rank %d: too many squares", ErrMalformedInput, r+1)
			}
		}
		if f != 8 {
			return fmt.Errorf("%w: rank %d has %d squares", ErrMalformedInput, r+1, f)
		}
	}
	return nil
}

func parseCastling(s string) (CastleRights, error) {
	if s == "-" {
		return NoCastle, nil
	}
	var cr CastleRights
	next := 0
	for i := 0; i < len(s); i++ {
		found := false
		for k := next; k < len(castleLetters); k++ {
			if castleLetters[k] == s[i] {
				cr |= 1 << k
				next = k + 1
				found = true
				break
			}
		}
		if !found {
			return NoCastle, fmt.Errorf("%w: castling rights %q", ErrMalformedInput, s)
		}
	}
	if cr == NoCastle {
		return NoCastle, fmt.Errorf("%w: castling rights %q", ErrMalformedInput, s)
	}
	return cr, nil
}

func parseCounter(s string, min int) (int, error) {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("%w: counter %q", ErrMalformedInput, s)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < min || n > maxClock {
		return 0, fmt.Errorf("%w: counter %q", ErrMalformedInput, s)
	}
	return n, nil
}

// validateCounts rejects material that cannot come from the initial
// position: more than 16 men, more than 8 pawns, or more promoted pieces
// than missing pawns.
func (b *Board) validateCounts(c bitboard.Color) error {
	men, pawns := 0, b.Pieces(c, bitboard.Pawn).Count()
	for p := bitboard.Pawn; p <= bitboard.King; p++ {
		men += b.Pieces(c, p).Count()
	}
	if men > 16 || pawns > 8 {
		return fmt.Errorf("%w: %v has %d men and %d pawns", ErrIllegalPosition, c, men, pawns)
	}
	promoted := max(0, b.Pieces(c, bitboard.Queen).Count()-1)
	for _, p := range []bitboard.Piece{bitboard.Knight, bitboard.Bishop, bitboard.Rook} {
		promoted += max(0, b.Pieces(c, p).Count()-2)
	}
	if pawns+promoted > 8 {
		return fmt.Errorf("%w: %v has %d promoted pieces and %d pawns", ErrIllegalPosition, c,
			promoted, pawns)
	}
	return nil
}

// validate rejects positions that cannot arise: wrong king count or
// material, pawns on the back ranks, castling rights without king and rook
// at home, an impossible en-passant square, or the side not to move in
// check.
func (b *Board) validate(ep bitboard.Square) error {
	for c := bitboard.White; c <= bitboard.Black; c++ {
		if n := b.pieces[c][bitboard.King].Count(); n != 1 {
			return fmt.Errorf("%w: %v has %d kings", ErrIllegalPosition, c, n)
		}
		if b.pieces[c][bitboard.Pawn]&(bitboard.Rank1|bitboard.Rank8) != 0 {
			return fmt.Errorf("%w: pawn on first or last rank", ErrIllegalPosition)
		}
		if err := b.validateCounts(c); err != nil {
			return err
		}
	}
	homes := [4]struct{ king, rook bitboard.Square }{
		{bitboard.SquareE1, bitboard.SquareH1},
		{bitboard.SquareE1, bitboard.SquareA1},
		{bitboard.SquareE8, bitboard.SquareH8},
		{bitboard.SquareE8, bitboard.SquareA8},
	}
	for i, h := range homes {
		if b.castle&(1<<i) == 0 {
			continue
		}
		c := bitboard.Color(i / 2)
		if !b.Pieces(c, bitboard.King).Has(h.king) || !b.Pieces(c, bitboard.Rook).Has(h.rook) {
			return fmt.Errorf("%w: castling right %c without king and rook at home",
				ErrIllegalPosition, castleLetters[i])
		}
	}
	if ep != bitboard.NoSquare {
		// The pawn that just moved stands in front of ep; both ep and the
		// square it came from are empty.
		them := b.toMove.Opposite()
		wantRank, pawnRank, fromRank := 5, 4, 6
		if b.toMove == bitboard.Black {
			wantRank, pawnRank, fromRank = 2, 3, 1
		}
		pawn := bitboard.RankFile(pawnRank, ep.File())
		from := bitboard.RankFile(fromRank, ep.File())
		if ep.Rank() != wantRank || !b.Pieces(them, bitboard.Pawn).Has(pawn) ||
			b.all.Has(ep) || b.all.Has(from) {
			return fmt.Errorf("%w: en passant square %v", ErrIllegalPosition, ep)
		}
	}
	if b.OpponentInCheck() {
		return fmt.Errorf("%w: side not to move is in check", ErrIllegalPosition)
	}
	return nil
}

// FEN serializes the board. FromFEN(b.FEN()) reproduces b exactly.
func (b *Board) FEN() string {
	var sb strings.Builder
	for r := 7; r >= 0; r-- {
		empty := 0
		for f := 0; f < 8; f++ {
			p, c := b.PieceAt(bitboard.RankFile(r, f))
			if p == bitboard.NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(p.ColoredLetter(c))
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if r > 0 {
			sb.WriteByte('/')
		}
	}
	fmt.Fprintf(&sb, " %v %v %v %d %d", b.toMove, b.castle, b.EnPassant(),
		b.halfMove, b.FullMove())
	return sb.String()
}
