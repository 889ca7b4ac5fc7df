package equity_test

import (
	"os"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/phonekimera/lisco-sub000/board"
	"github.com/phonekimera/lisco-sub000/equity"
	"github.com/phonekimera/lisco-sub000/move"
	"github.com/phonekimera/lisco-sub000/movegen"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

type seeCase struct {
	Name  string `yaml:"name"`
	FEN   string `yaml:"fen"`
	Move  string `yaml:"move"`
	Score int    `yaml:"score"`
}

func findMove(t *testing.T, b *board.Board, uci string) move.Move {
	t.Helper()
	m, ok := lo.Find(movegen.LegalMoves(b), func(m move.Move) bool { return m.UCI() == uci })
	if !ok {
		t.Fatalf("%s is not legal in %s", uci, b.FEN())
	}
	return m
}

func TestStaticExchange(t *testing.T) {
	data, err := os.ReadFile("testdata/see.yaml")
	if err != nil {
		t.Fatal(err)
	}
	var cases []seeCase
	if err := yaml.Unmarshal(data, &cases); err != nil {
		t.Fatal(err)
	}
	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			is := is.New(t)
			b, err := board.FromFEN(tc.FEN)
			is.NoErr(err)
			before := *b
			m := findMove(t, b, tc.Move)
			is.Equal(equity.StaticExchange(b, m), tc.Score)
			is.Equal(*b, before)
		})
	}
}

func TestStaticExchangeNeverBeatsVictim(t *testing.T) {
	is := is.New(t)
	b, err := board.FromFEN("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	is.NoErr(err)
	for _, m := range movegen.GenerateCaptures(b, nil) {
		is.True(equity.StaticExchange(b, m) <= int(m.Delta))
	}
}

// mirror swaps the colors of a FEN without castling or en passant rights.
func mirror(fen string) string {
	fields := strings.Fields(fen)
	ranks := strings.Split(fields[0], "/")
	ranks = lo.Reverse(ranks)
	placement := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z':
			return r - 'A' + 'a'
		}
		return r
	}, strings.Join(ranks, "/"))
	side := "w"
	if fields[1] == "w" {
		side = "b"
	}
	return strings.Join([]string{placement, side, "-", "-", fields[4], fields[5]}, " ")
}

func TestEvaluateSymmetry(t *testing.T) {
	is := is.New(t)
	start := board.New()
	is.Equal(equity.Evaluate(start), 0)
	is.Equal(equity.Phase(start), 24)

	for _, fen := range []string{
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w - - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"rnbqkb1r/pp1p1ppp/4pn2/2p5/2PP4/5N2/PP2PPPP/RNBQKB1R b - - 0 1",
	} {
		b, err := board.FromFEN(fen)
		is.NoErr(err)
		m, err := board.FromFEN(mirror(fen))
		is.NoErr(err)
		is.Equal(equity.Evaluate(b), equity.Evaluate(m))
	}
}

func TestEvaluateMaterial(t *testing.T) {
	is := is.New(t)
	b, err := board.FromFEN("4k3/8/8/8/8/8/8/3QK3 w - - 0 1")
	is.NoErr(err)
	is.True(equity.Evaluate(b) > 800)
	is.Equal(equity.Phase(b), 4)

	b, err = board.FromFEN("4k3/8/8/8/8/8/8/3QK3 b - - 0 1")
	is.NoErr(err)
	is.True(equity.Evaluate(b) < -800)

	b, err = board.FromFEN("4k3/8/8/8/8/8/8/4K3 w - - 0 1")
	is.NoErr(err)
	is.Equal(equity.Phase(b), 0)
}
