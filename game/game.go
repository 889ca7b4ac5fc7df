// Package game keeps a chess game session: the current position, the moves
// that led to it and the search tables, and it classifies the end of the
// game.
package game

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/phonekimera/lisco-sub000/bitboard"
	"github.com/phonekimera/lisco-sub000/board"
	"github.com/phonekimera/lisco-sub000/config"
	"github.com/phonekimera/lisco-sub000/move"
	"github.com/phonekimera/lisco-sub000/movegen"
	"github.com/phonekimera/lisco-sub000/negamax"
)

type Outcome int

const (
	Ongoing Outcome = iota
	WhiteMates
	BlackMates
	Stalemate
	FiftyMoves
	Threefold
	InsufficientMaterial
)

func (o Outcome) String() string {
	switch o {
	case Ongoing:
		return "ongoing"
	case WhiteMates:
		return "checkmate, white wins"
	case BlackMates:
		return "checkmate, black wins"
	case Stalemate:
		return "draw by stalemate"
	case FiftyMoves:
		return "draw by the fifty-move rule"
	case Threefold:
		return "draw by threefold repetition"
	case InsufficientMaterial:
		return "draw by insufficient material"
	}
	return "unknown"
}

// Result returns the game result in PGN form.
func (o Outcome) Result() string {
	switch o {
	case Ongoing:
		return "*"
	case WhiteMates:
		return "1-0"
	case BlackMates:
		return "0-1"
	}
	return "1/2-1/2"
}

// Game is a position together with its history and a solver to search
// it. A Game is not safe for concurrent use, except for StopSearch.
type Game struct {
	cfg   *config.Config
	start *board.Board
	board *board.Board
	moves []move.Move
	// history holds the signature of the position before each move.
	history []uint64

	ttable *negamax.TranspositionTable
	qtable *negamax.TranspositionTable
	solver *negamax.Solver
}

// NewGame returns a game at the initial position, with tables sized by cfg.
func NewGame(cfg *config.Config) (*Game, error) {
	ttBytes := uint64(cfg.GetInt(config.ConfigTTSizeMB)) << 20
	if f := cfg.GetFloat64(config.ConfigTTMemoryFraction); f > 0 {
		ttBytes = negamax.MemoryFraction(f)
	}
	tt, err := negamax.NewTranspositionTable("main", ttBytes)
	if err != nil {
		return nil, err
	}
	qtt, err := negamax.NewTranspositionTable("quiescence", uint64(cfg.GetInt(config.ConfigQTTSizeMB))<<20)
	if err != nil {
		return nil, err
	}
	b := board.New()
	g := &Game{
		cfg:    cfg,
		start:  b.Copy(),
		board:  b,
		ttable: tt,
		qtable: qtt,
		solver: negamax.NewSolver(b, tt, qtt),
	}
	return g, nil
}

// SetPosition starts the game over from a FEN position, or the initial
// position for "startpos", with empty tables. The game is unchanged on
// error.
func (g *Game) SetPosition(fen string) error {
	if fen == "startpos" {
		fen = board.StartFEN
	}
	b, err := board.FromFEN(fen)
	if err != nil {
		return err
	}
	g.start = b.Copy()
	g.board = b
	g.moves = g.moves[:0]
	g.history = g.history[:0]
	g.solver.SetBoard(b)
	g.ClearTables()
	log.Debug().Str("fen", fen).Msg("position-set")
	return nil
}

// Position returns the current position in FEN.
func (g *Game) Position() string {
	return g.board.FEN()
}

// Board returns the current position. Callers must not change it.
func (g *Game) Board() *board.Board {
	return g.board
}

// Moves returns the moves played since the position was set.
func (g *Game) Moves() []move.Move {
	return g.moves
}

// MoveText returns the moves played in numbered algebraic notation.
func (g *Game) MoveText() string {
	return FormatLine(g.start, g.moves)
}

func (g *Game) LegalMoves() []move.Move {
	return movegen.LegalMoves(g.board)
}

// PlayMove plays the move described by text. See ParseMove for the
// accepted forms.
func (g *Game) PlayMove(text string) (move.Move, error) {
	if o := g.Outcome(); o != Ongoing {
		return move.Null, fmt.Errorf("%w: game is over (%v)", board.ErrIllegalMove, o)
	}
	m, err := ParseMove(g.board, text)
	if err != nil {
		return move.Null, err
	}
	san := ToSAN(g.board, m)
	g.play(m)
	log.Debug().Str("move", san).Str("fen", g.board.FEN()).Msg("move-played")
	return m, nil
}

// Play plays m, which must be one of the legal moves. A move the pieces can
// make but that leaves the king attacked fails with ErrOpponentInCheck.
func (g *Game) Play(m move.Move) error {
	var buf [movegen.MaxMoves]move.Move
	if !lo.Contains(movegen.GenerateMoves(g.board, buf[:0]), m) {
		return fmt.Errorf("%w: %v", board.ErrIllegalMove, m)
	}
	sig := g.board.Signature()
	if err := board.ApplyChecked(g.board, m); err != nil {
		return err
	}
	g.history = append(g.history, sig)
	g.moves = append(g.moves, m)
	return nil
}

func (g *Game) play(m move.Move) {
	g.history = append(g.history, g.board.Signature())
	g.board.Apply(m)
	g.moves = append(g.moves, m)
}

// UndoMove takes back the last move.
func (g *Game) UndoMove() (move.Move, error) {
	if len(g.moves) == 0 {
		return move.Null, fmt.Errorf("%w: no move to take back", board.ErrMisuse)
	}
	m := g.moves[len(g.moves)-1]
	g.board.Unapply(m)
	g.moves = g.moves[:len(g.moves)-1]
	g.history = g.history[:len(g.history)-1]
	return m, nil
}

// Outcome classifies the current position. Mate takes precedence over the
// fifty-move rule.
func (g *Game) Outcome() Outcome {
	b := g.board
	if !movegen.HasLegalMove(b) {
		switch {
		case !b.InCheck():
			return Stalemate
		case b.ToMove() == bitboard.White:
			return BlackMates
		}
		return WhiteMates
	}
	if b.IsInsufficientMaterial() {
		return InsufficientMaterial
	}
	if b.HalfMove() >= 100 {
		return FiftyMoves
	}
	if negamax.Repetitions(append(g.history, b.Signature()), b.HalfMove()) >= 2 {
		return Threefold
	}
	return Ongoing
}

// Search searches the current position. Zero limits are replaced by the
// configured defaults.
func (g *Game) Search(ctx context.Context, limits negamax.Limits) (negamax.Result, error) {
	if limits == (negamax.Limits{}) {
		limits.Depth = g.cfg.GetInt(config.ConfigDefaultDepth)
		limits.MoveTime = time.Duration(g.cfg.GetInt(config.ConfigDefaultMoveTimeMS)) * time.Millisecond
	}
	g.solver.SetBoard(g.board)
	g.solver.SetHistory(g.history)
	g.solver.SetNullMoveOptim(g.cfg.GetBool(config.ConfigNullMove))
	g.solver.SetFutilityOptim(g.cfg.GetBool(config.ConfigFutility))
	g.solver.SetDebug(g.cfg.GetBool(config.ConfigDebug))
	return g.solver.Solve(ctx, limits)
}

// StopSearch stops a running Search. It may be called from any goroutine.
func (g *Game) StopSearch() {
	g.solver.Stop()
}

// ClearTables empties both transposition tables.
func (g *Game) ClearTables() {
	g.ttable.Clear()
	g.qtable.Clear()
}

// ResizeTables reallocates the tables. A table keeps its size if its
// resize fails.
func (g *Game) ResizeTables(ttBytes, qttBytes uint64) error {
	if err := g.ttable.Resize(ttBytes); err != nil {
		return err
	}
	return g.qtable.Resize(qttBytes)
}

// Tables returns the main and the quiescence table.
func (g *Game) Tables() (*negamax.TranspositionTable, *negamax.TranspositionTable) {
	return g.ttable, g.qtable
}
