package negamax

import (
	"github.com/phonekimera/lisco-sub000/board"
	"github.com/phonekimera/lisco-sub000/common"
	"github.com/phonekimera/lisco-sub000/equity"
	"github.com/phonekimera/lisco-sub000/move"
	"github.com/phonekimera/lisco-sub000/movegen"
	"github.com/phonekimera/lisco-sub000/tinymove"
)

const (
	nullMoveMinDepth = 3
	// Quiet moves that would need more than the margin to reach alpha are
	// not searched at frontier depths.
	maxFutilityDepth = 2
	deltaMargin      = 200
)

var (
	futilityMargin = [maxFutilityDepth + 1]int{0, 200, 500}
	razorMargin    = [maxFutilityDepth + 1]int{0, 300, 550}
)

// toTT converts a score at ply into a distance-to-mate score relative to
// the node, for storing in a table.
func toTT(score, ply int) int {
	switch {
	case score > MateBound:
		return score + ply
	case score < -MateBound:
		return score - ply
	}
	return score
}

func fromTT(score, ply int) int {
	switch {
	case score > MateBound:
		return score - ply
	case score < -MateBound:
		return score + ply
	}
	return score
}

// repeated returns true if the position on top of the stack is a draw by
// repetition. A repetition of a position inside the search path counts at
// once; one from the game before the root only on its third occurrence.
func (s *Solver) repeated() bool {
	top := len(s.stack) - 1
	limit := max(top-s.board.HalfMove(), s.nullBarrier, 0)
	latest, count := repetitions(s.stack, limit)
	return count >= 2 || count == 1 && latest >= s.rootIdx
}

// repetitions looks for the last signature of sigs among the earlier ones
// with the same side to move, down to index limit. It returns the index of
// the most recent match and the number of matches.
func repetitions(sigs []uint64, limit int) (latest, count int) {
	top := len(sigs) - 1
	latest = -1
	for i := top - 2; i >= limit; i -= 2 {
		if sigs[i] != sigs[top] {
			continue
		}
		if count == 0 {
			latest = i
		}
		count++
	}
	return latest, count
}

// Repetitions returns how many times the last position of a game occurred
// before. sigs are the signatures of every position of the game, oldest
// first, and halfMove the current half-move clock: no position before the
// last irreversible move can repeat.
func Repetitions(sigs []uint64, halfMove int) int {
	if len(sigs) == 0 {
		return 0
	}
	_, count := repetitions(sigs, max(len(sigs)-1-halfMove, 0))
	return count
}

// play applies m if it is legal. Castling legality is checked before the
// move is made, king safety after.
func (s *Solver) play(m move.Move) bool {
	b := s.board
	if m.IsCastle() && movegen.IllegalMove(b, m, false) {
		return false
	}
	b.Apply(m)
	if b.OpponentInCheck() {
		b.Unapply(m)
		return false
	}
	s.stack = append(s.stack, b.Signature())
	return true
}

func (s *Solver) unplay(m move.Move) {
	s.stack = s.stack[:len(s.stack)-1]
	s.board.Unapply(m)
}

func (s *Solver) isDraw(b *board.Board) bool {
	return b.HalfMove() >= 100 || b.IsInsufficientMaterial() || s.repeated()
}

func (s *Solver) negamax(depth, ply, α, β int, pv *common.PVLine, allowNull bool) int {
	pv.Clear()
	if s.checkStop() {
		return 0
	}
	b := s.board
	if ply > 0 {
		if s.isDraw(b) {
			return DrawScore
		}
		// Mate distance pruning.
		α = max(α, -MateScore+ply)
		β = min(β, MateScore-ply-1)
		if α >= β {
			return α
		}
	}
	inCheck := b.InCheck()
	if inCheck && ply < common.MaxPly/2 {
		depth++
	}
	if depth <= 0 {
		return s.quiesce(ply, α, β)
	}
	if ply >= common.MaxPly-1 {
		return equity.Evaluate(b)
	}
	s.nodes.Add(1)

	sig := b.Signature()
	toMove := b.ToMove()
	alphaOrig := α
	pvNode := β-α > 1

	res, ttScore, hint := s.ttable.Lookup(sig, toMove, depth, toTT(α, ply), toTT(β, ply))
	if ply > 0 && res != LookupMiss {
		return fromTT(ttScore, ply)
	}

	eval := 0
	if !inCheck {
		eval = equity.Evaluate(b)
	}

	if s.futilityOptim && !pvNode && !inCheck && depth <= maxFutilityDepth &&
		eval+razorMargin[depth] <= α {
		score := s.quiesce(ply, α, α+1)
		if s.aborted {
			return 0
		}
		if score <= α {
			return score
		}
	}

	if s.nullMoveOptim && allowNull && ply > 0 && !inCheck && !pvNode &&
		depth >= nullMoveMinDepth && eval >= β && b.HasNonPawnMaterial(toMove) {

		r := 2
		if depth > 6 {
			r = 3
		}
		barrier := s.nullBarrier
		b.MakeNull()
		s.stack = append(s.stack, b.Signature())
		s.nullBarrier = len(s.stack) - 1
		score := -s.negamax(depth-1-r, ply+1, -β, -β+1, &s.pvs[ply+1], false)
		s.nullBarrier = barrier
		s.stack = s.stack[:len(s.stack)-1]
		b.UnmakeNull()
		if s.aborted {
			return 0
		}
		if score >= β {
			if score > MateBound {
				score = β
			}
			return score
		}
	}

	futile := s.futilityOptim && !pvNode && !inCheck && depth <= maxFutilityDepth &&
		eval+futilityMargin[depth] <= α

	childPV := &s.pvs[ply+1]
	best := -Infinity
	bestMove := move.Null
	legal := 0

	// search visits one move; it returns true on a beta cutoff.
	search := func(m move.Move) (cutoff bool) {
		if !s.play(m) {
			return false
		}
		legal++
		if futile && legal > 1 && m.IsQuiet() && !b.InCheck() {
			s.unplay(m)
			return false
		}
		var score int
		if legal == 1 {
			score = -s.negamax(depth-1, ply+1, -β, -α, childPV, true)
		} else {
			score = -s.negamax(depth-1, ply+1, -α-1, -α, childPV, true)
			if score > α && score < β && !s.aborted {
				score = -s.negamax(depth-1, ply+1, -β, -α, childPV, true)
			}
		}
		s.unplay(m)
		if s.aborted {
			return true
		}
		if score > best {
			best = score
			bestMove = m
			if score > α {
				α = score
				pv.Update(m, *childPV, score)
			}
		}
		if score >= β {
			if m.IsQuiet() {
				s.storeKiller(ply, m)
				s.addHistory(toMove, m, depth)
			}
			return true
		}
		return false
	}

	hashMove := move.Null
	if hint != tinymove.InvalidTinyMove {
		if m, ok := tinymove.ToMove(hint, b); ok && !movegen.IllegalMove(b, m, true) {
			hashMove = m
			if search(hashMove) {
				return s.finish(ply, depth, sig, alphaOrig, β, best, bestMove)
			}
		}
	}

	moves := movegen.GenerateMoves(b, s.moveBufs[ply][:0])
	scores := s.scoreMoves(b, ply, moves, s.scoreBufs[ply][:len(moves)], move.Null)
	for i := range moves {
		m := pickMove(moves, scores, i)
		if m == hashMove {
			continue
		}
		if search(m) {
			break
		}
	}
	if s.aborted {
		return 0
	}
	if legal == 0 {
		if inCheck {
			return -MateScore + ply
		}
		return DrawScore
	}
	return s.finish(ply, depth, sig, alphaOrig, β, best, bestMove)
}

// finish stores the result of a node in the transposition table.
func (s *Solver) finish(ply, depth int, sig uint64, alphaOrig, β, best int, bestMove move.Move) int {
	if s.aborted {
		return 0
	}
	bound := BoundExact
	switch {
	case best >= β:
		bound = BoundLower
	case best <= alphaOrig:
		bound = BoundUpper
	}
	tm := tinymove.InvalidTinyMove
	if !bestMove.IsNull() {
		tm = tinymove.FromMove(bestMove)
	}
	s.ttable.Store(sig, s.board.ToMove(), depth, toTT(best, ply), bound, tm)
	return best
}

// quiesce searches captures and promotions until the position is quiet.
// In check every evasion is searched.
func (s *Solver) quiesce(ply, α, β int) int {
	if s.checkStop() {
		return 0
	}
	b := s.board
	s.nodes.Add(1)
	if b.HalfMove() >= 100 || b.IsInsufficientMaterial() {
		return DrawScore
	}
	if ply >= common.MaxPly-1 {
		return equity.Evaluate(b)
	}
	sig := b.Signature()
	toMove := b.ToMove()
	alphaOrig := α
	res, ttScore, hint := s.qtable.Lookup(sig, toMove, 0, toTT(α, ply), toTT(β, ply))
	if res != LookupMiss {
		return fromTT(ttScore, ply)
	}

	inCheck := b.InCheck()
	best := -Infinity
	stand := 0
	if !inCheck {
		stand = equity.Evaluate(b)
		if stand >= β {
			return stand
		}
		best = stand
		α = max(α, stand)
	}

	var moves []move.Move
	if inCheck {
		moves = movegen.GenerateMoves(b, s.moveBufs[ply][:0])
	} else {
		moves = movegen.GenerateCaptures(b, s.moveBufs[ply][:0])
	}
	hashMove := move.Null
	if hint != tinymove.InvalidTinyMove {
		hashMove, _ = tinymove.ToMove(hint, b)
	}
	scores := s.scoreMoves(b, ply, moves, s.scoreBufs[ply][:len(moves)], hashMove)

	bestMove := move.Null
	legal := 0
	for i := range moves {
		m := pickMove(moves, scores, i)
		if !inCheck {
			if scores[i] < 0 {
				// The rest lose material by exchange.
				break
			}
			if !m.IsPromotion() && stand+int(m.Delta)+deltaMargin <= α {
				continue
			}
		}
		if !s.play(m) {
			continue
		}
		legal++
		score := -s.quiesce(ply+1, -β, -α)
		s.unplay(m)
		if s.aborted {
			return 0
		}
		if score > best {
			best = score
			bestMove = m
			if score > α {
				α = score
				if score >= β {
					break
				}
			}
		}
	}
	if inCheck && legal == 0 {
		return -MateScore + ply
	}

	bound := BoundExact
	switch {
	case best >= β:
		bound = BoundLower
	case best <= alphaOrig:
		bound = BoundUpper
	}
	tm := tinymove.InvalidTinyMove
	if !bestMove.IsNull() {
		tm = tinymove.FromMove(bestMove)
	}
	s.qtable.Store(sig, toMove, 0, toTT(best, ply), bound, tm)
	return best
}
