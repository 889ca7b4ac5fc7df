package negamax

import (
	"github.com/phonekimera/lisco-sub000/bitboard"
	"github.com/phonekimera/lisco-sub000/board"
	"github.com/phonekimera/lisco-sub000/equity"
	"github.com/phonekimera/lisco-sub000/move"
)

// Ordering classes. Quiet moves score their history value, which stays
// below Killer1Offset.
const (
	HashMoveOffset    = 1 << 28
	GoodCaptureOffset = 1 << 24
	Killer0Offset     = 1<<20 + 1
	Killer1Offset     = 1 << 20
	BadCaptureOffset  = -(1 << 20)

	maxHistory = 1 << 19
)

// scoreMoves assigns an ordering score to each move: the hash move, then
// captures and queen promotions that do not lose material by exchange
// (by SEE, then MVV/LVA), the killers, quiet moves by history and at last
// the losing captures.
func (s *Solver) scoreMoves(b *board.Board, ply int, moves []move.Move, scores []int,
	hashMove move.Move) []int {

	us := b.ToMove()
	killers := &s.killers[ply]
	for i, m := range moves {
		switch {
		case m == hashMove:
			scores[i] = HashMoveOffset
		case m.IsCapture() || m.Promotion == bitboard.Queen:
			see := equity.StaticExchange(b, m)
			if see >= 0 {
				scores[i] = GoodCaptureOffset + see<<12 + int(m.OrderKey()&0x0ff0)
			} else {
				scores[i] = BadCaptureOffset + see
			}
		case m == killers[0]:
			scores[i] = Killer0Offset
		case m == killers[1]:
			scores[i] = Killer1Offset
		default:
			scores[i] = s.historyTable[us][m.From][m.To]
		}
	}
	return scores
}

// pickMove moves the best scored move at or after i to i and returns it.
func pickMove(moves []move.Move, scores []int, i int) move.Move {
	bi := i
	for j := i + 1; j < len(moves); j++ {
		if scores[j] > scores[bi] {
			bi = j
		}
	}
	moves[i], moves[bi] = moves[bi], moves[i]
	scores[i], scores[bi] = scores[bi], scores[i]
	return moves[i]
}

func (s *Solver) storeKiller(ply int, m move.Move) {
	k := &s.killers[ply]
	if k[0] != m {
		k[1] = k[0]
		k[0] = m
	}
}

func (s *Solver) addHistory(c bitboard.Color, m move.Move, depth int) {
	h := &s.historyTable[c]
	h[m.From][m.To] += depth * depth
	if h[m.From][m.To] < maxHistory {
		return
	}
	for from := range h {
		for to := range h[from] {
			h[from][to] /= 2
		}
	}
}
