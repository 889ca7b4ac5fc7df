package game

import (
	"errors"
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"
	"lukechampine.com/frand"

	"github.com/phonekimera/lisco-sub000/board"
	"github.com/phonekimera/lisco-sub000/move"
	"github.com/phonekimera/lisco-sub000/movegen"
)

const (
	kiwipete    = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"
	twoRooks    = "7k/8/8/R7/8/8/7K/R7 w - - 0 1"
	rooksOnRank = "7k/8/8/8/8/8/7K/R6R w - - 0 1"
	promotion   = "7k/P7/8/8/8/8/8/K7 w - - 0 1"
	enPassant   = "4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 1"
)

func mustFEN(t *testing.T, fen string) *board.Board {
	t.Helper()
	b, err := board.FromFEN(fen)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestParseMove(t *testing.T) {
	for _, tc := range []struct {
		fen, text, want string
	}{
		{board.StartFEN, "e4", "e2e4"},
		{board.StartFEN, "e2e4", "e2e4"},
		{board.StartFEN, "Nf3", "g1f3"},
		{board.StartFEN, "g1f3", "g1f3"},
		{board.StartFEN, "Nc3!?", "b1c3"},
		{kiwipete, "O-O", "e1g1"},
		{kiwipete, "0-0-0", "e1c1"},
		{kiwipete, "e1g1", "e1g1"},
		{kiwipete, "Nxd7", "e5d7"},
		{kiwipete, "Qxf6", "f3f6"},
		{kiwipete, "dxe6", "d5e6"},
		{kiwipete, "gxh3", "g2h3"},
		{kiwipete, "Bxa6", "e2a6"},
		{twoRooks, "R1a3", "a1a3"},
		{twoRooks, "R5a3", "a5a3"},
		{rooksOnRank, "Rad1", "a1d1"},
		{rooksOnRank, "Rhd1", "h1d1"},
		{promotion, "a8=Q+", "a7a8q"},
		{promotion, "a8Q", "a7a8q"},
		{promotion, "a8=N", "a7a8n"},
		{promotion, "a7a8r", "a7a8r"},
		{enPassant, "exd6", "e5d6"},
		{enPassant, "e5d6", "e5d6"},
	} {
		b := mustFEN(t, tc.fen)
		m, err := ParseMove(b, tc.text)
		if assert.NoError(t, err, tc.text) {
			assert.Equal(t, tc.want, m.UCI(), tc.text)
		}
	}
}

func TestParseMoveErrors(t *testing.T) {
	for _, tc := range []struct {
		fen, text string
		want      error
	}{
		{board.StartFEN, "", board.ErrMalformedInput},
		{board.StartFEN, "hello", board.ErrMalformedInput},
		{board.StartFEN, "Nz9", board.ErrMalformedInput},
		{board.StartFEN, "e5", board.ErrIllegalMove},
		{board.StartFEN, "Ke2", board.ErrIllegalMove},
		{board.StartFEN, "O-O", board.ErrIllegalMove},
		{board.StartFEN, "e2e5", board.ErrIllegalMove},
		{board.StartFEN, "exd3", board.ErrIllegalMove},
		{twoRooks, "Ra3", board.ErrAmbiguousMove},
		{rooksOnRank, "Rd1", board.ErrAmbiguousMove},
		{promotion, "a8", board.ErrAmbiguousMove},
		{promotion, "a7a8", board.ErrAmbiguousMove},
		// The e2 pawn is pinned by the rook.
		{"4r1k1/8/8/8/8/8/4P3/4K3 w - - 0 1", "e2d3", board.ErrIllegalMove},
		{"4r1k1/8/8/8/8/3p4/4P3/4K3 w - - 0 1", "e2d3", board.ErrOpponentInCheck},
	} {
		b := mustFEN(t, tc.fen)
		_, err := ParseMove(b, tc.text)
		assert.True(t, errors.Is(err, tc.want), "%q: got %v, want %v", tc.text, err, tc.want)
	}
}

func TestToSAN(t *testing.T) {
	for _, tc := range []struct {
		fen, uci, want string
	}{
		{board.StartFEN, "e2e4", "e4"},
		{board.StartFEN, "g1f3", "Nf3"},
		{kiwipete, "e1g1", "O-O"},
		{kiwipete, "e1c1", "O-O-O"},
		{kiwipete, "e5f7", "Nxf7"},
		{kiwipete, "d5e6", "dxe6"},
		{twoRooks, "a1a3", "R1a3"},
		{rooksOnRank, "a1d1", "Rad1"},
		{rooksOnRank, "h1d1", "Rhd1"},
		{promotion, "a7a8q", "a8=Q+"},
		{promotion, "a7a8n", "a8=N"},
		{enPassant, "e5d6", "exd6"},
		{"6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1", "a1a8", "Ra8#"},
	} {
		b := mustFEN(t, tc.fen)
		m, err := ParseMove(b, tc.uci)
		if !assert.NoError(t, err, tc.uci) {
			continue
		}
		before := *b
		assert.Equal(t, tc.want, ToSAN(b, m), tc.uci)
		assert.Equal(t, before, *b)
	}
}

// TestSANRoundTrip checks along random games that every legal move has a
// distinct algebraic name that parses back to it.
func TestSANRoundTrip(t *testing.T) {
	is := is.New(t)
	games := 20
	if testing.Short() {
		games = 4
	}
	rng := frand.NewCustom(make([]byte, 32), 1024, 12)
	for gi := 0; gi < games; gi++ {
		b := mustFEN(t, []string{board.StartFEN, kiwipete}[gi%2])
		for ply := 0; ply < 80; ply++ {
			moves := movegen.LegalMoves(b)
			if len(moves) == 0 {
				break
			}
			seen := map[string]bool{}
			for _, m := range moves {
				san := ToSAN(b, m)
				is.True(!seen[san]) // algebraic names are unique
				seen[san] = true
				back, err := ParseMove(b, san)
				is.NoErr(err)
				is.Equal(back, m)
			}
			b.Apply(moves[rng.Intn(len(moves))])
		}
	}
}

func playLine(t *testing.T, b *board.Board, line ...string) []move.Move {
	t.Helper()
	cp := b.Copy()
	var moves []move.Move
	for _, s := range line {
		m, err := ParseMove(cp, s)
		if err != nil {
			t.Fatal(err)
		}
		moves = append(moves, m)
		cp.Apply(m)
	}
	return moves
}

func TestFormatLine(t *testing.T) {
	is := is.New(t)
	b := board.New()
	is.Equal(FormatLine(b, playLine(t, b, "e4", "e5", "Nf3", "Nc6")), "1. e4 e5 2. Nf3 Nc6")
	is.Equal(FormatLine(b, nil), "")

	b = mustFEN(t, "r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3")
	moves := playLine(t, b, "Bb5", "a6")
	is.Equal(FormatLine(b, moves), "3. Bb5 a6")
	b.Apply(moves[0])
	is.Equal(FormatLine(b, moves[1:]), "3... a6")
}
