// Package automatic plays the engine against itself, for testing changes
// to the search and collecting statistics about its play.
package automatic

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"

	"github.com/phonekimera/lisco-sub000/bitboard"
	"github.com/phonekimera/lisco-sub000/config"
	"github.com/phonekimera/lisco-sub000/game"
	"github.com/phonekimera/lisco-sub000/move"
	"github.com/phonekimera/lisco-sub000/negamax"
	"github.com/phonekimera/lisco-sub000/stats"
)

const DefaultMaxPlies = 400

// GameRunner plays games between two players. Each player keeps its own
// transposition tables; both follow every move.
type GameRunner struct {
	config  *config.Config
	logchan chan string
	rng     *frand.RNG

	players [2]*game.Game
	limits  [2]negamax.Limits

	randomPlies int
	maxPlies    int
}

// GameResult is a finished game seen from player 0.
type GameResult struct {
	ID      int
	Outcome game.Outcome
	// WhitePlayer is the index of the player with the white pieces.
	WhitePlayer int
	Plies       int
	// Unfinished is set when the game reached the ply limit.
	Unfinished bool
}

// Score is player 0's result: 1, 0.5 or 0.
func (r GameResult) Score() float64 {
	switch r.Outcome {
	case game.WhiteMates:
		if r.WhitePlayer == 0 {
			return 1
		}
		return 0
	case game.BlackMates:
		if r.WhitePlayer == 1 {
			return 1
		}
		return 0
	}
	return 0.5
}

// NewGameRunner returns a runner whose players search with the given
// limits. Zero limits use the configured defaults.
func NewGameRunner(cfg *config.Config, logchan chan string, seed []byte,
	limits [2]negamax.Limits) (*GameRunner, error) {

	r := &GameRunner{
		config:   cfg,
		logchan:  logchan,
		limits:   limits,
		maxPlies: DefaultMaxPlies,
	}
	if seed != nil {
		r.rng = frand.NewCustom(seed, 1024, 12)
	} else {
		r.rng = frand.New()
	}
	for i := range r.players {
		g, err := game.NewGame(cfg)
		if err != nil {
			return nil, err
		}
		r.players[i] = g
	}
	return r, nil
}

// SetRandomPlies makes every game open with n random legal moves.
func (r *GameRunner) SetRandomPlies(n int) {
	r.randomPlies = n
}

// SetMaxPlies ends games that are still running after n plies.
func (r *GameRunner) SetMaxPlies(n int) {
	r.maxPlies = n
}

// PlayGame plays one game from fen with whitePlayer on the white side.
// It writes one CSV line per searched move to the log channel, if any.
func (r *GameRunner) PlayGame(ctx context.Context, id int, fen string, whitePlayer int,
	nodes *stats.Statistic) (GameResult, error) {

	for _, p := range r.players {
		if err := p.SetPosition(fen); err != nil {
			return GameResult{}, err
		}
	}
	res := GameResult{ID: id, WhitePlayer: whitePlayer}
	ref := r.players[0]

	for ply := 0; ; ply++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Plies = ply
		if res.Outcome = ref.Outcome(); res.Outcome != game.Ongoing {
			break
		}
		if ply >= r.maxPlies {
			res.Unfinished = true
			break
		}
		if ply < r.randomPlies {
			legal := ref.LegalMoves()
			if err := r.play(legal[r.rng.Intn(len(legal))]); err != nil {
				return res, err
			}
			continue
		}
		onTurn := whitePlayer
		if ref.Board().ToMove() == bitboard.Black {
			onTurn = 1 - whitePlayer
		}
		sr, err := r.players[onTurn].Search(ctx, r.limits[onTurn])
		if err != nil {
			return res, err
		}
		if sr.BestMove.IsNull() {
			return res, fmt.Errorf("player %d found no move in %s", onTurn, ref.Position())
		}
		if nodes != nil {
			nodes.Push(float64(sr.Nodes))
		}
		if r.logchan != nil {
			r.logchan <- fmt.Sprintf("%d,%d,%d,%s,%s,%d,%d,%d,%d\n", id, ply, onTurn,
				ref.Position(), sr.BestMove.UCI(), sr.Score, sr.Depth, sr.Nodes,
				sr.Elapsed/time.Millisecond)
		}
		if err := r.play(sr.BestMove); err != nil {
			return res, err
		}
	}
	log.Debug().Int("game", id).Str("result", res.Outcome.Result()).
		Int("plies", res.Plies).Bool("unfinished", res.Unfinished).Msg("game-over")
	return res, nil
}

func (r *GameRunner) play(m move.Move) error {
	for _, p := range r.players {
		if err := p.Play(m); err != nil {
			return err
		}
	}
	return nil
}
