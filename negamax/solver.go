// Package negamax searches chess positions with iterative deepening
// alpha-beta (negamax formulation) and a quiescence search at the leaves.
package negamax

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/phonekimera/lisco-sub000/board"
	"github.com/phonekimera/lisco-sub000/common"
	"github.com/phonekimera/lisco-sub000/equity"
	"github.com/phonekimera/lisco-sub000/move"
	"github.com/phonekimera/lisco-sub000/movegen"
)

// thanks Wikipedia:
/*
function negamax(node, depth, α, β, color) is
    if depth = 0 or node is a terminal node then
        return color × the heuristic value of node

    childNodes := generateMoves(node)
    childNodes := orderMoves(childNodes)
    value := −∞
    foreach child in childNodes do
        value := max(value, −negamax(child, depth − 1, −β, −α, −color))
        α := max(α, value)
        if α ≥ β then
            break (* cut-off *)
    return value
(* Initial call for Player A's root node *)
negamax(rootNode, depth, −∞, +∞, 1)
**/

const (
	Infinity  = 32000
	MateScore = 31000
	// Scores beyond MateBound in absolute value are mates; the distance
	// to mate is MateScore minus the score, in plies.
	MateBound = MateScore - common.MaxPly
	DrawScore = 0

	MaxDepth   = 64
	MaxKillers = 2

	// Wall time, stop requests and the context are polled once per
	// pollInterval nodes. Must be a power of 2.
	pollInterval = 1024
)

var ErrNoBoard = errors.New("solver has no board")

// Limits bound a search. Zero values mean no limit, except that a search
// without any limit stops at MaxDepth.
type Limits struct {
	Depth    int
	Nodes    uint64
	MoveTime time.Duration
}

// Result is the outcome of the deepest completed iteration.
type Result struct {
	BestMove move.Move
	Score    int
	PV       []move.Move
	Depth    int
	Nodes    uint64
	Elapsed  time.Duration
}

// IsMate returns true if the score announces a forced mate for either
// side.
func IsMate(score int) bool {
	return score > MateBound || score < -MateBound
}

// MateIn returns the number of moves to mate for a mate score, negative
// when the side to move gets mated.
func MateIn(score int) int {
	if score > 0 {
		return (MateScore - score + 1) / 2
	}
	return -(MateScore + score) / 2
}

type Solver struct {
	board  *board.Board
	ttable *TranspositionTable
	qtable *TranspositionTable

	nullMoveOptim bool
	futilityOptim bool
	debug         bool

	// stack holds the signatures of the game so far followed by those
	// along the current search path. rootIdx is the root position.
	stack       []uint64
	rootIdx     int
	nullBarrier int

	killers      [common.MaxPly][MaxKillers]move.Move
	historyTable [2][64][64]int
	moveBufs     [common.MaxPly][movegen.MaxMoves]move.Move
	scoreBufs    [common.MaxPly][movegen.MaxMoves]int
	pvs          [common.MaxPly + 1]common.PVLine

	ctx      context.Context
	limits   Limits
	deadline time.Time
	aborted  bool
	nodes    atomic.Uint64
	stopped  atomic.Bool
}

// NewSolver returns a solver searching b with the given tables.
func NewSolver(b *board.Board, ttable, qtable *TranspositionTable) *Solver {
	s := &Solver{
		board:         b,
		ttable:        ttable,
		qtable:        qtable,
		nullMoveOptim: true,
		futilityOptim: true,
	}
	for i := range s.pvs {
		s.pvs[i].Moves = make([]move.Move, 0, common.MaxPly)
	}
	return s
}

func (s *Solver) SetNullMoveOptim(n bool) {
	s.nullMoveOptim = n
}

func (s *Solver) SetFutilityOptim(f bool) {
	s.futilityOptim = f
}

// SetDebug turns on the consistency checks of the board after a search.
func (s *Solver) SetDebug(d bool) {
	s.debug = d
}

// SetBoard points the solver at another board.
func (s *Solver) SetBoard(b *board.Board) {
	s.board = b
}

// SetHistory sets the signatures of the positions played before the
// current one, oldest first. They are used to detect repetitions.
func (s *Solver) SetHistory(sigs []uint64) {
	s.stack = append(s.stack[:0], sigs...)
}

// Stop makes a running search return as soon as it polls for it. A Stop
// that comes before Solve starts ends that search at once. It is safe to
// call from another goroutine.
func (s *Solver) Stop() {
	s.stopped.Store(true)
}

// Nodes returns the number of nodes visited by the current or last search.
func (s *Solver) Nodes() uint64 {
	return s.nodes.Load()
}

// ClearKillers clears the killer moves and the history table.
func (s *Solver) ClearKillers() {
	for ply := range s.killers {
		for k := range s.killers[ply] {
			s.killers[ply][k] = move.Null
		}
	}
	clear(s.historyTable[0][:])
	clear(s.historyTable[1][:])
}

// Solve searches the board within limits. The board is left as it was
// found. If the search stops before the first iteration completes, the
// first legal move is returned with its static score.
func (s *Solver) Solve(ctx context.Context, limits Limits) (Result, error) {
	if s.board == nil {
		return Result{}, ErrNoBoard
	}
	b := s.board
	tstart := time.Now()
	if limits.Depth <= 0 || limits.Depth > MaxDepth {
		limits.Depth = MaxDepth
	}
	s.limits = limits
	s.deadline = time.Time{}
	if limits.MoveTime > 0 {
		s.deadline = tstart.Add(limits.MoveTime)
	}
	s.ctx = ctx
	s.aborted = false
	// The flag is cleared when a search ends, not when it starts.
	defer s.stopped.Store(false)
	s.nodes.Store(0)
	s.ClearKillers()
	s.ttable.NewSearch()
	s.qtable.NewSearch()

	s.rootIdx = len(s.stack)
	s.nullBarrier = 0
	s.stack = append(s.stack, b.Signature())
	defer func() { s.stack = s.stack[:s.rootIdx] }()

	var before board.Board
	if s.debug {
		before = *b
	}

	roots := movegen.LegalMoves(b)
	if len(roots) == 0 {
		score := DrawScore
		if b.InCheck() {
			score = -MateScore
		}
		return Result{BestMove: move.Null, Score: score, Elapsed: time.Since(tstart)}, nil
	}
	best := Result{BestMove: roots[0], Score: equity.Evaluate(b), PV: roots[:1:1]}

	log.Debug().Int("depth", limits.Depth).Uint64("nodes", limits.Nodes).
		Dur("movetime", limits.MoveTime).Msg("negamax-solve-config")

	g := &errgroup.Group{}
	done := make(chan struct{})

	g.Go(func() error {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		var lastNodes uint64
		for {
			select {
			case <-done:
				return nil
			case <-ticker.C:
				nodes := s.nodes.Load()
				log.Debug().Uint64("nps", nodes-lastNodes).Msg("nodes-per-second")
				lastNodes = nodes
			}
		}
	})

	g.Go(func() error {
		defer close(done)
		s.iterativelyDeepen(&best, tstart)
		return nil
	})

	err := g.Wait()
	best.Nodes = s.nodes.Load()
	best.Elapsed = time.Since(tstart)

	if s.debug {
		if *b != before {
			log.Error().Str("fen", b.FEN()).Str("expected", before.FEN()).Msg("board-changed-by-search")
		}
		if verr := b.Verify(); verr != nil {
			log.Error().Err(verr).Msg("board-inconsistent-after-search")
		}
	}

	s.ttable.LogStats()
	s.qtable.LogStats()
	log.Info().
		Uint64("nodes", best.Nodes).
		Int("depth", best.Depth).
		Int("score", best.Score).
		Str("best", best.BestMove.UCI()).
		Str("pv", common.PVLine{Moves: best.PV}.UCIString()).
		Float64("time-elapsed-sec", best.Elapsed.Seconds()).
		Msg("search-returning")

	return best, err
}

func (s *Solver) iterativelyDeepen(best *Result, tstart time.Time) {
	for d := 1; d <= s.limits.Depth; d++ {
		log.Debug().Int("depth", d).Msg("deepening-iteratively")
		pv := &s.pvs[0]
		score := s.negamax(d, 0, -Infinity, Infinity, pv, false)
		if s.aborted {
			break
		}
		if m := pv.GetPVMove(); !m.IsNull() {
			best.BestMove = m
			best.PV = pv.Copy().Moves
		}
		best.Score = score
		best.Depth = d
		log.Debug().Int("score", score).Int("depth", d).Str("pv", pv.NLBString()).Msg("best-val")

		if IsMate(score) && MateScore-abs(score) <= d {
			// The mate is inside the horizon; deeper iterations cannot
			// find a shorter one.
			break
		}
		if s.limits.MoveTime > 0 && time.Since(tstart) > s.limits.MoveTime/2 {
			break
		}
	}
}

// checkStop polls the budget. Node limits are checked at every node, the
// rest every pollInterval nodes.
func (s *Solver) checkStop() bool {
	if s.aborted {
		return true
	}
	n := s.nodes.Load()
	if s.limits.Nodes > 0 && n >= s.limits.Nodes {
		s.aborted = true
	} else if n&(pollInterval-1) == 0 {
		if s.stopped.Load() || s.ctx.Err() != nil ||
			!s.deadline.IsZero() && time.Now().After(s.deadline) {
			s.aborted = true
		}
	}
	return s.aborted
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
