package equity

import (
	"github.com/phonekimera/lisco-sub000/bitboard"
	"github.com/phonekimera/lisco-sub000/board"
	"github.com/phonekimera/lisco-sub000/move"
)

// An exchange on one square never has more than 32 captures.
const maxExchange = 34

type attacker struct {
	value int16
	sq    bitboard.Square
	piece bitboard.Piece
}

// attackerList is kept sorted by ascending value. next is the least
// valuable attacker not yet used.
type attackerList struct {
	items [16]attacker
	n     int
	next  int
}

func (l *attackerList) empty() bool {
	return l.next == l.n
}

func (l *attackerList) insert(a attacker) {
	i := l.n
	for i > l.next && l.items[i-1].value > a.value {
		l.items[i] = l.items[i-1]
		i--
	}
	l.items[i] = a
	l.n++
}

func (l *attackerList) pop() attacker {
	a := l.items[l.next]
	l.next++
	return a
}

// StaticExchange returns the material outcome, from the mover's point of
// view, of playing m and then letting both sides recapture on m.To with
// their least valuable piece for as long as it pays.
//
// Pins are not considered. A king only recaptures when the square is no
// longer defended.
func StaticExchange(b *board.Board, m move.Move) int {
	to := m.To
	occ := b.Occupied() &^ m.From.Bitboard()
	if m.EnPassant {
		occ &^= m.CaptureSquare().Bitboard()
	}

	attackers := b.AttackersTo(to, occ)
	seen := attackers | m.From.Bitboard()
	var lists [2]attackerList
	addAttackers(b, &lists, attackers)

	var gain [maxExchange]int
	gain[0] = int(m.Delta)
	onSquare := int(m.Placed().Value())
	side := b.ToMove().Opposite()
	last := lastRank(side)

	d := 0
	for d+1 < maxExchange {
		list := &lists[side]
		if list.empty() {
			break
		}
		a := list.items[list.next]
		if a.piece == bitboard.King {
			rest := occ &^ a.sq.Bitboard()
			if b.AttackersTo(to, rest)&b.ByColor(side.Opposite())&rest != 0 {
				break
			}
		}
		list.pop()
		d++
		gain[d] = onSquare - gain[d-1]
		onSquare = int(a.value)
		if a.piece == bitboard.Pawn && last.Has(to) {
			gain[d] += int(bitboard.Queen.Value() - bitboard.Pawn.Value())
			onSquare = int(bitboard.Queen.Value())
		}
		occ &^= a.sq.Bitboard()

		// Sliders behind the piece that just captured.
		xray := bitboard.BishopAttacks(to, occ) & (b.Diagonal(bitboard.White) | b.Diagonal(bitboard.Black))
		xray |= bitboard.RookAttacks(to, occ) & (b.Orthogonal(bitboard.White) | b.Orthogonal(bitboard.Black))
		xray &= occ &^ seen
		seen |= xray
		addAttackers(b, &lists, xray)

		side = side.Opposite()
		last = lastRank(side)
	}

	for ; d > 0; d-- {
		gain[d-1] = -max(-gain[d-1], gain[d])
	}
	return gain[0]
}

func addAttackers(b *board.Board, lists *[2]attackerList, set bitboard.Bitboard) {
	for set != 0 {
		sq := set.Pop()
		p, c := b.PieceAt(sq)
		lists[c].insert(attacker{value: p.Value(), sq: sq, piece: p})
	}
}

func lastRank(c bitboard.Color) bitboard.Bitboard {
	if c == bitboard.White {
		return bitboard.Rank8
	}
	return bitboard.Rank1
}
