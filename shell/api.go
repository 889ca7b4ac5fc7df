package shell

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/phonekimera/lisco-sub000/config"
	"github.com/phonekimera/lisco-sub000/equity"
	"github.com/phonekimera/lisco-sub000/game"
	"github.com/phonekimera/lisco-sub000/move"
	"github.com/phonekimera/lisco-sub000/movegen"
	"github.com/phonekimera/lisco-sub000/negamax"
	"github.com/phonekimera/lisco-sub000/tinymove"
)

// position startpos | position <fen>, optionally followed by moves ...
func (sc *ShellController) position(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return msg(sc.game.Position()), nil
	}
	args := cmd.args
	var moves []string
	if i := lo.IndexOf(args, "moves"); i >= 0 {
		args, moves = args[:i], args[i+1:]
	}
	fen := strings.Join(args, " ")
	if err := sc.game.SetPosition(fen); err != nil {
		return nil, err
	}
	for _, m := range moves {
		if _, err := sc.game.PlayMove(m); err != nil {
			return nil, err
		}
	}
	return sc.show(cmd)
}

// moves lists the legal moves, in algebraic notation unless -uci true.
func (sc *ShellController) moves(cmd *shellcmd) (*Response, error) {
	b := sc.game.Board()
	legal := sc.game.LegalMoves()
	names := lo.Map(legal, func(m move.Move, _ int) string {
		if cmd.options["uci"] == "true" {
			return m.UCI()
		}
		return game.ToSAN(b, m)
	})
	sort.Strings(names)
	return msg(fmt.Sprintf("%d moves: %s", len(names), strings.Join(names, " "))), nil
}

func (sc *ShellController) play(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("play needs at least one move")
	}
	for _, m := range cmd.args {
		if _, err := sc.game.PlayMove(m); err != nil {
			return nil, err
		}
	}
	return sc.show(cmd)
}

func (sc *ShellController) undo(cmd *shellcmd) (*Response, error) {
	n := 1
	if len(cmd.args) > 0 {
		var err error
		if n, err = strconv.Atoi(cmd.args[0]); err != nil {
			return nil, err
		}
	}
	for i := 0; i < n; i++ {
		if _, err := sc.game.UndoMove(); err != nil {
			return nil, err
		}
	}
	return sc.show(cmd)
}

func depthArg(cmd *shellcmd) (int, error) {
	if len(cmd.args) != 1 {
		return 0, fmt.Errorf("%s needs a depth", cmd.cmd)
	}
	d, err := strconv.Atoi(cmd.args[0])
	if err != nil {
		return 0, err
	}
	if d < 1 {
		return 0, errors.New("depth must be at least 1")
	}
	return d, nil
}

func (sc *ShellController) perft(cmd *shellcmd) (*Response, error) {
	depth, err := depthArg(cmd)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	nodes := movegen.Perft(sc.game.Board().Copy(), depth)
	elapsed := time.Since(start)
	return msg(fmt.Sprintf("perft(%d) = %d in %v (%.0f nps)", depth, nodes,
		elapsed.Round(time.Millisecond), float64(nodes)/elapsed.Seconds())), nil
}

func (sc *ShellController) divide(cmd *shellcmd) (*Response, error) {
	depth, err := depthArg(cmd)
	if err != nil {
		return nil, err
	}
	entries, err := movegen.Divide(context.Background(), sc.game.Board(), depth)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	var total uint64
	for _, e := range entries {
		fmt.Fprintf(&sb, "%s: %d\n", e.Move.UCI(), e.Nodes)
		total += e.Nodes
	}
	fmt.Fprintf(&sb, "moves: %d, nodes: %d", len(entries), total)
	return msg(sb.String()), nil
}

func scoreText(score int) string {
	if negamax.IsMate(score) {
		return fmt.Sprintf("mate %d", negamax.MateIn(score))
	}
	return fmt.Sprintf("%+.2f", float64(score)/100)
}

// search [-depth d] [-movetime ms] [-nodes n] [-play true]
func (sc *ShellController) search(cmd *shellcmd) (*Response, error) {
	var limits negamax.Limits
	var err error
	if limits.Depth, err = cmd.intOption("depth", 0); err != nil {
		return nil, err
	}
	ms, err := cmd.intOption("movetime", 0)
	if err != nil {
		return nil, err
	}
	limits.MoveTime = time.Duration(ms) * time.Millisecond
	nodes, err := cmd.intOption("nodes", 0)
	if err != nil {
		return nil, err
	}
	limits.Nodes = uint64(max(nodes, 0))

	b := sc.game.Board().Copy()
	res, err := sc.game.Search(context.Background(), limits)
	if err != nil {
		return nil, err
	}
	if res.BestMove.IsNull() {
		return msg("no legal moves: " + sc.game.Outcome().String()), nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "best move: %s (%s)\n", game.ToSAN(b, res.BestMove), res.BestMove.UCI())
	fmt.Fprintf(&sb, "score: %s, depth: %d, nodes: %d, time: %v\n", scoreText(res.Score), res.Depth,
		res.Nodes, res.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(&sb, "pv: %s", game.FormatLine(b, res.PV))
	if cmd.options["play"] == "true" {
		if err := sc.game.Play(res.BestMove); err != nil {
			return nil, err
		}
		fmt.Fprintf(&sb, "\nplayed %s", res.BestMove.UCI())
	}
	return msg(sb.String()), nil
}

// see <move> prints the static exchange value of a capture.
func (sc *ShellController) see(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New("see needs a move")
	}
	b := sc.game.Board()
	m, err := game.ParseMove(b, cmd.args[0])
	if err != nil {
		return nil, err
	}
	return msg(fmt.Sprintf("%s: %d", game.ToSAN(b, m), equity.StaticExchange(b, m))), nil
}

func (sc *ShellController) eval(cmd *shellcmd) (*Response, error) {
	b := sc.game.Board()
	return msg(fmt.Sprintf("eval: %d (side to move), material: %d, phase: %d",
		equity.Evaluate(b), b.Material(), equity.Phase(b))), nil
}

// tt | tt clear | tt move | tt resize <mb> [<quiescence mb>]
func (sc *ShellController) tt(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		var sb strings.Builder
		tt, qtt := sc.game.Tables()
		for _, t := range []*negamax.TranspositionTable{tt, qtt} {
			created, lookups, hits, collisions := t.Stats()
			fmt.Fprintf(&sb, "buckets: %d, stored: %d, lookups: %d, hits: %d, collisions: %d\n",
				t.Buckets(), created, lookups, hits, collisions)
		}
		return msg(strings.TrimSuffix(sb.String(), "\n")), nil
	}
	switch cmd.args[0] {
	case "clear":
		sc.game.ClearTables()
		return msg("tables cleared"), nil
	case "move":
		b := sc.game.Board()
		tt, _ := sc.game.Tables()
		m, ok := tinymove.ToMove(tt.BestMove(b.Signature(), b.ToMove()), b)
		if !ok || !lo.Contains(sc.game.LegalMoves(), m) {
			return msg("no stored move"), nil
		}
		return msg(fmt.Sprintf("stored move: %s (%s)", game.ToSAN(b, m), m.UCI())), nil
	case "resize":
		if len(cmd.args) < 2 {
			return nil, errors.New("tt resize needs a size in MB")
		}
		mb, err := strconv.Atoi(cmd.args[1])
		if err != nil {
			return nil, err
		}
		qmb := sc.cfg.GetInt(config.ConfigQTTSizeMB)
		if len(cmd.args) > 2 {
			if qmb, err = strconv.Atoi(cmd.args[2]); err != nil {
				return nil, err
			}
		}
		if mb <= 0 || qmb <= 0 {
			return nil, errors.New("sizes must be positive")
		}
		if err := sc.game.ResizeTables(uint64(mb)<<20, uint64(qmb)<<20); err != nil {
			return nil, err
		}
		return msg(fmt.Sprintf("tables resized to %d MB and %d MB", mb, qmb)), nil
	}
	return nil, fmt.Errorf("unknown tt command %q", cmd.args[0])
}

func (sc *ShellController) show(*shellcmd) (*Response, error) {
	var sb strings.Builder
	sb.WriteString(sc.game.Board().String())
	sb.WriteString("\n")
	sb.WriteString(sc.game.Position())
	if text := sc.game.MoveText(); text != "" {
		sb.WriteString("\n")
		sb.WriteString(text)
	}
	if o := sc.game.Outcome(); o != game.Ongoing {
		fmt.Fprintf(&sb, "\n%s %s", o.Result(), o)
	}
	return msg(sb.String()), nil
}

func (sc *ShellController) outcome(*shellcmd) (*Response, error) {
	o := sc.game.Outcome()
	return msg(fmt.Sprintf("%s (%s)", o, o.Result())), nil
}

var settable = []string{
	config.ConfigDefaultDepth, config.ConfigDefaultMoveTimeMS,
	config.ConfigNullMove, config.ConfigFutility, config.ConfigDebug,
}

// set | set <key> | set <key> <value>
func (sc *ShellController) set(cmd *shellcmd) (*Response, error) {
	switch len(cmd.args) {
	case 0:
		lines := lo.Map(settable, func(k string, _ int) string {
			return fmt.Sprintf("%s: %v", k, sc.cfg.Get(k))
		})
		return msg(strings.Join(lines, "\n")), nil
	case 1:
		return msg(fmt.Sprintf("%v", sc.cfg.Get(cmd.args[0]))), nil
	}
	key, value := cmd.args[0], cmd.args[1]
	if !lo.Contains(settable, key) {
		return nil, fmt.Errorf("%s cannot be set from the shell", key)
	}
	switch key {
	case config.ConfigNullMove, config.ConfigFutility, config.ConfigDebug:
		v, err := strconv.ParseBool(value)
		if err != nil {
			return nil, err
		}
		sc.cfg.Set(key, v)
	default:
		v, err := strconv.Atoi(value)
		if err != nil {
			return nil, err
		}
		if v < 0 {
			return nil, errors.New("value must not be negative")
		}
		sc.cfg.Set(key, v)
	}
	return msg(fmt.Sprintf("%s set to %s", key, value)), nil
}
