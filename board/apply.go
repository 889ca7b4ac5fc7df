package board

import (
	"fmt"

	"github.com/phonekimera/lisco-sub000/bitboard"
	"github.com/phonekimera/lisco-sub000/move"
	"github.com/phonekimera/lisco-sub000/zobrist"
)

func resetsClock(m move.Move) bool {
	return m.Attacker == bitboard.Pawn || m.Victim != bitboard.NoPiece
}

func isDoublePush(m move.Move) bool {
	if m.Attacker != bitboard.Pawn {
		return false
	}
	d := int(m.To) - int(m.From)
	return d == 16 || d == -16
}

// Apply plays a pseudo-legal move for the side to move. It does not check
// legality; the move must come from the generator or have been verified.
func (b *Board) Apply(m move.Move) {
	us, them := b.toMove, b.toMove.Opposite()

	if m.Victim != bitboard.NoPiece {
		b.remove(them, m.Victim, m.CaptureSquare())
	}
	b.remove(us, m.Attacker, m.From)
	b.put(us, m.Placed(), m.To)
	if m.IsCastle() {
		rf, rt := m.CastleRook()
		b.remove(us, bitboard.Rook, rf)
		b.put(us, bitboard.Rook, rt)
	}

	if lost := b.castle & (castleMask[m.From] | castleMask[m.To]); lost != 0 {
		for i := range b.castleLostPly {
			if lost&(1<<i) != 0 {
				b.castleLostPly[i] = b.ply
			}
		}
		b.castle &^= lost
	}

	b.epValid, b.epFile = false, 0
	if isDoublePush(m) {
		b.pushes[b.nPushes] = doublePush{ply: b.ply, file: uint8(m.From.File())}
		b.nPushes++
		b.epValid = true
		b.epFile = uint8(m.From.File())
	}

	if resetsClock(m) {
		b.clockSaves[b.nClockSaves] = b.halfMove
		b.nClockSaves++
		b.halfMove = 0
	} else {
		b.halfMove++
	}

	if us == bitboard.White {
		b.material += int32(m.Delta)
	} else {
		b.material -= int32(m.Delta)
	}
	b.signature = zobrist.Default.AddMove(b.signature, m, us)
	b.ply++
	b.toMove = them
}

// Unapply takes back m, which must be the last move applied. Every field,
// clocks and rights included, is restored exactly.
func (b *Board) Unapply(m move.Move) {
	us, them := b.toMove.Opposite(), b.toMove
	b.toMove = us
	b.ply--
	b.signature = zobrist.Default.AddMove(b.signature, m, us)
	if us == bitboard.White {
		b.material -= int32(m.Delta)
	} else {
		b.material += int32(m.Delta)
	}

	if resetsClock(m) {
		b.nClockSaves--
		b.halfMove = b.clockSaves[b.nClockSaves]
		b.clockSaves[b.nClockSaves] = 0
	} else {
		b.halfMove--
	}

	if isDoublePush(m) {
		b.nPushes--
		b.pushes[b.nPushes] = doublePush{}
	}
	b.restoreEnPassant()

	for i := range b.castleLostPly {
		if b.castleLostPly[i] == b.ply {
			b.castle |= 1 << i
			b.castleLostPly[i] = neverLost
		}
	}

	if m.IsCastle() {
		rf, rt := m.CastleRook()
		b.remove(us, bitboard.Rook, rt)
		b.put(us, bitboard.Rook, rf)
	}
	b.remove(us, m.Placed(), m.To)
	b.put(us, m.Attacker, m.From)
	if m.Victim != bitboard.NoPiece {
		b.put(them, m.Victim, m.CaptureSquare())
	}
}

// restoreEnPassant sets the en-passant state from the double-push record:
// it is valid if the previous half move was a double push.
func (b *Board) restoreEnPassant() {
	b.epValid, b.epFile = false, 0
	if b.nPushes > 0 && b.pushes[b.nPushes-1].ply == b.ply-1 {
		b.epValid = true
		b.epFile = b.pushes[b.nPushes-1].file
	}
}

// MakeNull passes the move to the opponent. It is used by null-move pruning
// and must be undone with UnmakeNull.
func (b *Board) MakeNull() {
	b.epValid, b.epFile = false, 0
	b.halfMove++
	b.signature = zobrist.Default.AddMove(b.signature, move.Null, b.toMove)
	b.ply++
	b.toMove = b.toMove.Opposite()
}

// UnmakeNull takes back MakeNull.
func (b *Board) UnmakeNull() {
	b.toMove = b.toMove.Opposite()
	b.ply--
	b.signature = zobrist.Default.AddMove(b.signature, move.Null, b.toMove)
	b.halfMove--
	b.restoreEnPassant()
}

// ApplyChecked is Apply for moves from outside the engine. It checks that
// the move fits the board and does not leave the mover in check. The board
// is unchanged when an error is returned.
func ApplyChecked(b *Board, m move.Move) error {
	if b == nil {
		return fmt.Errorf("%w: nil board", ErrMisuse)
	}
	if err := b.fits(m); err != nil {
		return err
	}
	b.Apply(m)
	if b.OpponentInCheck() {
		b.Unapply(m)
		return fmt.Errorf("%w: %v", ErrOpponentInCheck, m)
	}
	return nil
}

// fits checks that m describes pieces actually on the board.
func (b *Board) fits(m move.Move) error {
	us := b.toMove
	if p, c := b.PieceAt(m.From); p != m.Attacker || c != us || p == bitboard.NoPiece {
		return fmt.Errorf("%w: %v: no %v on %v", ErrIllegalMove, m, m.Attacker, m.From)
	}
	switch {
	case m.EnPassant:
		if b.EnPassant() != m.To || m.Attacker != bitboard.Pawn {
			return fmt.Errorf("%w: %v: en passant not possible", ErrIllegalMove, m)
		}
	case m.Victim != bitboard.NoPiece:
		if p, c := b.PieceAt(m.To); p != m.Victim || c != us.Opposite() || p == bitboard.King {
			return fmt.Errorf("%w: %v: no %v to capture", ErrIllegalMove, m, m.Victim)
		}
	default:
		if b.all.Has(m.To) {
			return fmt.Errorf("%w: %v: destination occupied", ErrIllegalMove, m)
		}
	}
	if m.IsCastle() {
		right := CastleRightFor(us, m.To > m.From)
		_, rt := m.CastleRook()
		if b.castle&right == 0 || b.all&CastlePath(right) != 0 || b.InCheck() ||
			b.Attacked(rt, us.Opposite()) {
			return fmt.Errorf("%w: %v: cannot castle", ErrIllegalMove, m)
		}
	}
	return nil
}
