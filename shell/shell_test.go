package shell

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/phonekimera/lisco-sub000/board"
	"github.com/phonekimera/lisco-sub000/config"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func newTestController(t *testing.T) (*ShellController, *bytes.Buffer) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigTTSizeMB, 2)
	cfg.Set(config.ConfigQTTSizeMB, 1)
	out := &bytes.Buffer{}
	sc, err := newController(cfg, out)
	if err != nil {
		t.Fatal(err)
	}
	return sc, out
}

func run(t *testing.T, sc *ShellController, line string) string {
	t.Helper()
	r, err := sc.standardModeSwitch(line, nil)
	if err != nil {
		t.Fatalf("%s: %v", line, err)
	}
	if r == nil {
		return ""
	}
	return r.message
}

func TestExtractFields(t *testing.T) {
	is := is.New(t)
	type testdata struct {
		line   string
		expCmd *shellcmd
		expErr error
	}
	cases := []testdata{
		{"", nil, errNoData},
		{"search -depth 6 -movetime 500",
			&shellcmd{"search", nil, map[string]string{"depth": "6", "movetime": "500"}},
			nil},
		{"tt clear",
			&shellcmd{"tt", []string{"clear"}, map[string]string{}},
			nil},
		{"play e4 e5 -x 1 Nf3 ",
			&shellcmd{"play", []string{"e4", "e5", "Nf3"}, map[string]string{"x": "1"}},
			nil},
		{"undo -2",
			&shellcmd{"undo", []string{"-2"}, map[string]string{}},
			nil},
		{`script "my file.lua"`,
			&shellcmd{"script", []string{"my file.lua"}, map[string]string{}},
			nil},
		{"search -depth",
			nil, errWrongOptionSyntax},
	}
	for _, t := range cases {
		cmd, err := extractFields(t.line)
		is.Equal(cmd, t.expCmd)
		is.Equal(err, t.expErr)
	}
}

func TestPositionAndPlay(t *testing.T) {
	is := is.New(t)
	sc, _ := newTestController(t)
	out := run(t, sc, "position startpos moves e4 e5")
	is.True(strings.Contains(out, "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e6 0 2"))
	is.True(strings.Contains(out, "1. e4 e5"))

	run(t, sc, "play Nf3 Nc6")
	is.Equal(run(t, sc, "position"), "r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3")
	run(t, sc, "undo 4")
	is.Equal(run(t, sc, "position"), board.StartFEN)

	_, err := sc.standardModeSwitch("play e5", nil)
	is.True(err != nil)
	_, err = sc.standardModeSwitch("undo", nil)
	is.True(err != nil)
	_, err = sc.standardModeSwitch("frobnicate", nil)
	is.True(err != nil)
}

func TestMovesAndPerft(t *testing.T) {
	is := is.New(t)
	sc, _ := newTestController(t)
	is.True(strings.HasPrefix(run(t, sc, "moves"), "20 moves: "))
	is.True(strings.Contains(run(t, sc, "moves -uci true"), "g1f3"))
	is.True(strings.HasPrefix(run(t, sc, "perft 3"), "perft(3) = 8902 "))
	out := run(t, sc, "divide 2")
	is.True(strings.Contains(out, "e2e4: 20\n"))
	is.True(strings.HasSuffix(out, "moves: 20, nodes: 400"))
	_, err := sc.standardModeSwitch("perft 0", nil)
	is.True(err != nil)
}

func TestSearchCommand(t *testing.T) {
	is := is.New(t)
	sc, _ := newTestController(t)
	run(t, sc, "position 6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")
	out := run(t, sc, "search -depth 3 -play true")
	is.True(strings.HasPrefix(out, "best move: Ra8# (a1a8)\nscore: mate 1, depth: "))
	is.True(strings.Contains(out, "pv: 1. Ra8#"))
	is.Equal(run(t, sc, "outcome"), "checkmate, white wins (1-0)")
	is.True(strings.HasPrefix(run(t, sc, "search -depth 2"), "no legal moves"))
}

func TestAutoplay(t *testing.T) {
	is := is.New(t)
	sc, _ := newTestController(t)
	run(t, sc, "position 6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")
	out := run(t, sc, "autoplay -games 2 -depth 2")
	is.True(strings.HasPrefix(out, "games: 2, +1 -1 =0 (unfinished 0)\ncheckmate, white wins: 2\nscore: 0.500, elo: +0 "))
	// The shell's own game is left alone.
	is.Equal(run(t, sc, "outcome"), "ongoing (*)")
}

func TestStoredMove(t *testing.T) {
	is := is.New(t)
	sc, _ := newTestController(t)
	run(t, sc, "position 6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")
	is.Equal(run(t, sc, "tt move"), "no stored move")
	run(t, sc, "search -depth 3")
	is.Equal(run(t, sc, "tt move"), "stored move: Ra8# (a1a8)")
	// A new position starts with empty tables.
	run(t, sc, "position startpos")
	is.Equal(run(t, sc, "tt move"), "no stored move")
}

func TestSeeEvalAndTables(t *testing.T) {
	is := is.New(t)
	sc, _ := newTestController(t)
	run(t, sc, "position 4k3/8/8/3q4/8/8/3R4/4K3 w - - 0 1")
	is.Equal(run(t, sc, "see Rxd5"), "Rxd5: 900")
	is.True(strings.HasPrefix(run(t, sc, "eval"), "eval: "))

	is.Equal(run(t, sc, "tt resize 1 1"), "tables resized to 1 MB and 1 MB")
	is.True(strings.HasPrefix(run(t, sc, "tt"), "buckets: 16381, stored: 0"))
	is.Equal(run(t, sc, "tt clear"), "tables cleared")
}

func TestSet(t *testing.T) {
	is := is.New(t)
	sc, _ := newTestController(t)
	is.Equal(run(t, sc, "set default-depth 3"), "default-depth set to 3")
	is.Equal(sc.cfg.GetInt(config.ConfigDefaultDepth), 3)
	is.Equal(run(t, sc, "set null-move false"), "null-move set to false")
	is.True(!sc.cfg.GetBool(config.ConfigNullMove))
	is.True(strings.Contains(run(t, sc, "set"), "default-depth: 3"))
	_, err := sc.standardModeSwitch("set tt-size-mb 5", nil)
	is.True(err != nil)
	_, err = sc.standardModeSwitch("set futility maybe", nil)
	is.True(err != nil)
}

func TestScript(t *testing.T) {
	is := is.New(t)
	sc, _ := newTestController(t)
	err := sc.runScript(`
lisco_position("startpos")
lisco_play("d4 d5")
local out = lisco_perft("2")
if not string.find(out, "perft%(2%) = ") then error(out) end
lisco_undo("1")
`, false)
	is.NoErr(err)
	is.Equal(sc.game.Position(), "rnbqkbnr/pppppppp/8/8/3P4/8/PPP1PPPP/RNBQKBNR b KQkq d3 0 1")

	is.True(sc.runScript(`error("boom")`, false) != nil)
}

func TestHelp(t *testing.T) {
	is := is.New(t)
	sc, _ := newTestController(t)
	is.True(strings.HasPrefix(run(t, sc, "help"), "Commands:"))
	is.True(strings.HasPrefix(run(t, sc, "help search"), "search [-depth d]"))
	is.True(strings.HasPrefix(run(t, sc, "help autoplay"), "autoplay [-games n]"))
	is.Equal(run(t, sc, "help nothing"), "There is no help text for the topic nothing")
}

func TestCompleter(t *testing.T) {
	is := is.New(t)
	sc, _ := newTestController(t)
	c := NewShellCompleter(sc)

	matches, n := c.Do([]rune("se"), 2)
	is.Equal(n, 2)
	is.Equal(matches, [][]rune{[]rune("arch"), []rune("e"), []rune("t")})

	line := []rune("search -d")
	matches, n = c.Do(line, len(line))
	is.Equal(n, 2)
	is.Equal(matches, [][]rune{[]rune("epth")})

	line = []rune("search -play ")
	matches, _ = c.Do(line, len(line))
	is.Equal(len(matches), 2)

	line = []rune("autoplay -h")
	matches, n = c.Do(line, len(line))
	is.Equal(n, 2)
	is.Equal(matches, [][]rune{[]rune("ist")})
}
