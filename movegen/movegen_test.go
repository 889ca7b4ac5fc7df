package movegen

import (
	"context"
	"os"
	"sort"
	"testing"

	"github.com/matryer/is"
	"github.com/notnil/chess"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
	"lukechampine.com/frand"

	"github.com/phonekimera/lisco-sub000/bitboard"
	"github.com/phonekimera/lisco-sub000/board"
	"github.com/phonekimera/lisco-sub000/move"
	"github.com/phonekimera/lisco-sub000/zobrist"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func mustFEN(t *testing.T, fen string) *board.Board {
	t.Helper()
	b, err := board.FromFEN(fen)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func uciStrings(moves []move.Move) []string {
	return lo.Map(moves, func(m move.Move, _ int) string { return m.UCI() })
}

func TestStartPositionMoves(t *testing.T) {
	b := board.New()
	want := []string{
		"a2a3", "a2a4", "b2b3", "b2b4", "c2c3", "c2c4", "d2d3", "d2d4",
		"e2e3", "e2e4", "f2f3", "f2f4", "g2g3", "g2g4", "h2h3", "h2h4",
		"b1a3", "b1c3", "g1f3", "g1h3",
	}
	assert.ElementsMatch(t, want, uciStrings(LegalMoves(b)))
}

func TestCapturesAndNonCapturesPartition(t *testing.T) {
	is := is.New(t)
	for _, fen := range []string{
		board.StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
		"r2q1rk1/pP1p2pp/Q4n2/bbp1p3/Np6/1B3NBn/pPPP1PPP/R3K2R b KQ - 0 1",
	} {
		b := mustFEN(t, fen)
		caps := GenerateCaptures(b, nil)
		quiets := GenerateNonCaptures(b, nil)
		all := GenerateMoves(b, nil)
		is.Equal(len(caps)+len(quiets), len(all))
		is.Equal(len(lo.Intersect(caps, quiets)), 0)
		for _, m := range caps {
			is.True(m.IsCapture() || m.Promotion == bitboard.Queen)
		}
		for _, m := range quiets {
			is.True(!m.IsCapture())
			is.True(m.Promotion != bitboard.Queen)
		}
	}
}

func TestPromotionSplit(t *testing.T) {
	is := is.New(t)
	b := mustFEN(t, "1n2k3/P7/8/8/8/8/8/4K3 w - - 0 1")
	caps := uciStrings(GenerateCaptures(b, nil))
	sort.Strings(caps)
	is.Equal(caps, []string{"a7a8q", "a7b8b", "a7b8n", "a7b8q", "a7b8r"})
	quiets := uciStrings(GenerateNonCaptures(b, nil))
	is.True(lo.Every(quiets, []string{"a7a8r", "a7a8b", "a7a8n"}))
	is.True(!lo.Contains(quiets, "a7a8q"))
}

func TestCastlingRules(t *testing.T) {
	cases := []struct {
		name string
		fen  string
		want []string
		not  []string
	}{
		{"both sides", "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1",
			[]string{"e1g1", "e1c1"}, nil},
		{"in check", "r3k2r/8/8/8/8/8/4r3/R3K2R w KQkq - 0 1",
			nil, []string{"e1g1", "e1c1"}},
		{"through check", "r3k2r/8/8/8/8/8/5r2/R3K2R w KQkq - 0 1",
			[]string{"e1c1"}, []string{"e1g1"}},
		{"into check", "r3k2r/8/8/8/8/8/6r1/R3K2R w KQkq - 0 1",
			[]string{"e1c1"}, []string{"e1g1"}},
		// b1 may be attacked on the queen side, only c1 and d1 count.
		{"b1 attacked", "r3k2r/8/8/8/8/8/1r6/R3K2R w KQkq - 0 1",
			[]string{"e1c1", "e1g1"}, nil},
		{"blocked", "r3k2r/8/8/8/8/8/8/RN2K1NR w KQkq - 0 1",
			nil, []string{"e1g1", "e1c1"}},
		{"black", "r3k2r/8/8/8/8/8/8/R3K2R b KQkq - 0 1",
			[]string{"e8g8", "e8c8"}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			moves := uciStrings(LegalMoves(mustFEN(t, tc.fen)))
			for _, w := range tc.want {
				assert.Contains(t, moves, w)
			}
			for _, n := range tc.not {
				assert.NotContains(t, moves, n)
			}
		})
	}
}

func TestEnPassantPin(t *testing.T) {
	is := is.New(t)
	// Taking en passant would expose the king along the fifth rank.
	b := mustFEN(t, "8/8/8/KPp4r/8/8/8/7k w - c6 0 2")
	moves := uciStrings(LegalMoves(b))
	is.True(!lo.Contains(moves, "b5c6"))
	b = mustFEN(t, "8/8/8/1Pp4r/8/8/8/K6k w - c6 0 2")
	is.True(lo.Contains(uciStrings(LegalMoves(b)), "b5c6"))
}

func TestIllegalMoveExtended(t *testing.T) {
	is := is.New(t)
	b := board.New()
	sq := func(s string) bitboard.Square {
		x, _ := bitboard.ParseSquare(s)
		return x
	}
	// A knight move from another position: pseudo-legal in shape but not
	// present here.
	bogus := move.New(sq("c3"), sq("d5"), bitboard.Knight, bitboard.NoPiece, bitboard.NoPiece, false)
	is.True(IllegalMove(b, bogus, true))
	good := move.New(sq("g1"), sq("f3"), bitboard.Knight, bitboard.NoPiece, bitboard.NoPiece, false)
	is.True(!IllegalMove(b, good, true))
	is.True(!IllegalMove(b, good, false))
	is.True(IllegalMove(b, move.Null, false))
}

type perftCase struct {
	Name   string   `yaml:"name"`
	FEN    string   `yaml:"fen"`
	Counts []uint64 `yaml:"counts"`
}

func loadPerftCases(t *testing.T) []perftCase {
	t.Helper()
	data, err := os.ReadFile("testdata/perft.yaml")
	if err != nil {
		t.Fatal(err)
	}
	var cases []perftCase
	if err := yaml.Unmarshal(data, &cases); err != nil {
		t.Fatal(err)
	}
	return cases
}

func TestPerft(t *testing.T) {
	limit := uint64(1 << 62)
	if testing.Short() {
		limit = 200000
	}
	for _, pc := range loadPerftCases(t) {
		t.Run(pc.Name, func(t *testing.T) {
			is := is.New(t)
			b := mustFEN(t, pc.FEN)
			before := *b
			for i, want := range pc.Counts {
				if want > limit {
					t.Logf("skipping depth %d in short mode", i+1)
					break
				}
				is.Equal(Perft(b, i+1), want)
				is.Equal(*b, before)
			}
		})
	}
}

func TestDivide(t *testing.T) {
	is := is.New(t)
	b := mustFEN(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	entries, err := Divide(context.Background(), b, 2)
	is.NoErr(err)
	is.Equal(len(entries), 48)
	total := lo.SumBy(entries, func(e DivideEntry) uint64 { return e.Nodes })
	is.Equal(total, uint64(2039))
	is.True(sort.SliceIsSorted(entries, func(i, j int) bool {
		return entries[i].Move.UCI() < entries[j].Move.UCI()
	}))
}

func TestDivideCancelled(t *testing.T) {
	is := is.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Divide(ctx, board.New(), 3)
	is.True(err != nil)
}

// TestAgainstReferenceGenerator plays random games and compares the legal
// move set with an independent implementation at every position. Along the
// way every legal move is applied and taken back to check the incremental
// state.
func TestAgainstReferenceGenerator(t *testing.T) {
	is := is.New(t)
	games, plies := 40, 120
	if testing.Short() {
		games = 8
	}
	rng := frand.NewCustom(make([]byte, 32), 1024, 12)
	starts := []string{
		board.StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	}
	for gi := 0; gi < games; gi++ {
		fen := starts[gi%len(starts)]
		b := mustFEN(t, fen)
		opt, err := chess.FEN(fen)
		is.NoErr(err)
		ref := chess.NewGame(opt)

		for ply := 0; ply < plies; ply++ {
			ours := LegalMoves(b)
			theirs := lo.Map(ref.ValidMoves(), func(m *chess.Move, _ int) string { return m.String() })
			if !assert.ElementsMatch(t, theirs, uciStrings(ours), b.FEN()) {
				return
			}
			if len(ours) == 0 || ref.Outcome() != chess.NoOutcome {
				break
			}
			checkRoundTrips(t, b, ours)

			m := ours[rng.Intn(len(ours))]
			next, ok := lo.Find(ref.ValidMoves(), func(rm *chess.Move) bool { return rm.String() == m.UCI() })
			is.True(ok)
			is.NoErr(ref.Move(next))
			b.Apply(m)
		}
	}
}

func checkRoundTrips(t *testing.T, b *board.Board, moves []move.Move) {
	t.Helper()
	before := *b
	mover := b.ToMove()
	for _, m := range moves {
		want := zobrist.Default.AddMove(before.Signature(), m, mover)
		b.Apply(m)
		if b.Signature() != want {
			t.Fatalf("%v: incremental signature differs", m)
		}
		if err := b.Verify(); err != nil {
			t.Fatalf("%v: %v", m, err)
		}
		b.Unapply(m)
		if *b != before {
			t.Fatalf("%v: board not restored in %v", m, before.FEN())
		}
	}
}
