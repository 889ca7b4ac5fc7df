package game

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/matryer/is"
	"github.com/pbnjay/memory"
	"github.com/rs/zerolog"

	"github.com/phonekimera/lisco-sub000/bitboard"
	"github.com/phonekimera/lisco-sub000/board"
	"github.com/phonekimera/lisco-sub000/config"
	"github.com/phonekimera/lisco-sub000/move"
	"github.com/phonekimera/lisco-sub000/negamax"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func newTestGame(t *testing.T) *Game {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigTTSizeMB, 4)
	cfg.Set(config.ConfigQTTSizeMB, 1)
	cfg.Set(config.ConfigDefaultDepth, 2)
	cfg.Set(config.ConfigDebug, true)
	g, err := NewGame(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func play(t *testing.T, g *Game, moves ...string) {
	t.Helper()
	for _, m := range moves {
		if _, err := g.PlayMove(m); err != nil {
			t.Fatal(err)
		}
	}
}

func TestPlayAndUndo(t *testing.T) {
	is := is.New(t)
	g := newTestGame(t)
	is.Equal(g.Position(), board.StartFEN)
	is.Equal(len(g.LegalMoves()), 20)

	play(t, g, "e4", "e7e5", "Nf3")
	is.Equal(g.Position(), "rnbqkbnr/pppp1ppp/8/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R b KQkq - 1 2")
	is.Equal(g.MoveText(), "1. e4 e5 2. Nf3")
	is.Equal(len(g.Moves()), 3)

	m, err := g.UndoMove()
	is.NoErr(err)
	is.Equal(m.UCI(), "g1f3")
	_, err = g.UndoMove()
	is.NoErr(err)
	_, err = g.UndoMove()
	is.NoErr(err)
	is.Equal(g.Position(), board.StartFEN)
	is.Equal(*g.Board(), *board.New())

	_, err = g.UndoMove()
	is.True(errors.Is(err, board.ErrMisuse))
}

func TestPlayErrors(t *testing.T) {
	is := is.New(t)
	g := newTestGame(t)
	_, err := g.PlayMove("e5")
	is.True(errors.Is(err, board.ErrIllegalMove))
	_, err = g.PlayMove("Zz")
	is.True(errors.Is(err, board.ErrMalformedInput))
	is.Equal(g.Position(), board.StartFEN)
	is.Equal(len(g.Moves()), 0)

	legal := g.LegalMoves()
	is.NoErr(g.Play(legal[0]))
	is.True(errors.Is(g.Play(legal[0]), board.ErrIllegalMove))
}

func TestPlayPinnedPiece(t *testing.T) {
	is := is.New(t)
	g := newTestGame(t)
	pinned := "4k3/4r3/8/8/8/8/4N3/4K3 w - - 0 1"
	is.NoErr(g.SetPosition(pinned))
	from, _ := bitboard.ParseSquare("e2")
	to, _ := bitboard.ParseSquare("c3")
	err := g.Play(move.New(from, to, bitboard.Knight, bitboard.NoPiece, bitboard.NoPiece, false))
	is.True(errors.Is(err, board.ErrOpponentInCheck))
	is.Equal(g.Position(), pinned)
	is.Equal(len(g.Moves()), 0)
	_, err = g.UndoMove()
	is.True(errors.Is(err, board.ErrMisuse))
}

func TestSetPosition(t *testing.T) {
	is := is.New(t)
	g := newTestGame(t)
	play(t, g, "d4")
	err := g.SetPosition("not a position")
	is.True(errors.Is(err, board.ErrMalformedInput))
	is.Equal(len(g.Moves()), 1)

	is.NoErr(g.SetPosition(kiwipete))
	is.Equal(g.Position(), kiwipete)
	is.Equal(len(g.Moves()), 0)
	is.Equal(len(g.LegalMoves()), 48)

	is.NoErr(g.SetPosition("startpos"))
	is.Equal(g.Position(), board.StartFEN)
}

func TestSetPositionClearsTables(t *testing.T) {
	is := is.New(t)
	g := newTestGame(t)
	_, err := g.Search(context.Background(), negamax.Limits{Depth: 3})
	is.NoErr(err)
	tt, _ := g.Tables()
	created, _, _, _ := tt.Stats()
	is.True(created > 0)

	is.NoErr(g.SetPosition(kiwipete))
	created, _, _, _ = tt.Stats()
	is.Equal(created, uint64(0))
}

func TestOutcome(t *testing.T) {
	for _, tc := range []struct {
		name  string
		fen   string
		moves []string
		want  Outcome
	}{
		{"start", board.StartFEN, nil, Ongoing},
		{"fool's mate", board.StartFEN, []string{"f3", "e5", "g4", "Qh4"}, BlackMates},
		{"back rank", "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1", []string{"Ra8"}, WhiteMates},
		{"mated", "6Rk/5Q2/8/8/8/8/8/6K1 b - - 0 1", nil, WhiteMates},
		{"stalemate", "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", nil, Stalemate},
		{"fifty moves", "4k3/8/8/8/8/8/8/Q3K3 w - - 100 80", nil, FiftyMoves},
		{"bare kings", "8/8/4k3/8/8/3K4/8/8 w - - 0 1", nil, InsufficientMaterial},
		{"bishops", "2b5/8/4k3/8/8/3K1B2/8/8 w - - 0 1", nil, InsufficientMaterial},
		{"opposite bishops", "1b6/8/4k3/8/8/3K1B2/8/8 w - - 0 1", nil, Ongoing},
		{"rook", "8/8/4k3/8/8/3K1R2/8/8 w - - 0 1", nil, Ongoing},
		{"twice", board.StartFEN, []string{"Nf3", "Nf6", "Ng1", "Ng8"}, Ongoing},
		{"threefold", board.StartFEN,
			[]string{"Nf3", "Nf6", "Ng1", "Ng8", "Nf3", "Nf6", "Ng1", "Ng8"}, Threefold},
		{"capture resets", board.StartFEN,
			[]string{"Nc3", "d5", "Nf3", "Nf6", "Nxd5", "Nxd5", "Ng1", "Nf6", "Nf3", "Ng8", "Ng1", "Nf6"}, Ongoing},
	} {
		t.Run(tc.name, func(t *testing.T) {
			is := is.New(t)
			g := newTestGame(t)
			is.NoErr(g.SetPosition(tc.fen))
			play(t, g, tc.moves...)
			is.Equal(g.Outcome(), tc.want)
		})
	}
}

func TestOutcomeStopsPlay(t *testing.T) {
	is := is.New(t)
	g := newTestGame(t)
	play(t, g, "f3", "e5", "g4", "Qh4#")
	is.Equal(g.Outcome().Result(), "0-1")
	_, err := g.PlayMove("e4")
	is.True(errors.Is(err, board.ErrIllegalMove))
	_, err = g.UndoMove()
	is.NoErr(err)
	is.Equal(g.Outcome(), Ongoing)
	is.Equal(g.Outcome().Result(), "*")
}

func TestSearch(t *testing.T) {
	is := is.New(t)
	g := newTestGame(t)
	is.NoErr(g.SetPosition("6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1"))
	res, err := g.Search(context.Background(), negamax.Limits{Depth: 3})
	is.NoErr(err)
	is.Equal(res.BestMove.UCI(), "a1a8")
	is.Equal(g.Position(), "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")
	is.NoErr(g.Play(res.BestMove))
	is.Equal(g.Outcome(), WhiteMates)

	// Zero limits use the configured depth.
	is.NoErr(g.SetPosition("startpos"))
	res, err = g.Search(context.Background(), negamax.Limits{})
	is.NoErr(err)
	is.Equal(res.Depth, 2)
}

func TestTables(t *testing.T) {
	is := is.New(t)
	g := newTestGame(t)
	is.NoErr(g.ResizeTables(1<<20, 1<<20))
	tt, qtt := g.Tables()
	is.Equal(tt.Buckets(), 16381)
	is.Equal(qtt.Buckets(), 16381)

	_, err := g.Search(context.Background(), negamax.Limits{Depth: 3})
	is.NoErr(err)
	created, _, _, _ := tt.Stats()
	is.True(created > 0)
	g.ClearTables()
	created, _, _, _ = tt.Stats()
	is.Equal(created, uint64(0))

	if memory.TotalMemory() > 0 {
		err = g.ResizeTables(memory.TotalMemory()+1, 1<<20)
		is.True(errors.Is(err, board.ErrOutOfMemory))
		is.Equal(tt.Buckets(), 16381)
	}
}
