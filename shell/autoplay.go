package shell

import (
	"context"
	"strings"
	"time"

	"github.com/phonekimera/lisco-sub000/automatic"
)

// autoplay plays a match between two copies of the engine, from the
// current position.
func (sc *ShellController) autoplay(cmd *shellcmd) (*Response, error) {
	opts := automatic.MatchOptions{StartFEN: sc.game.Position()}
	var err error
	ints := []struct {
		key  string
		dflt int
		dst  *int
	}{
		{"games", 2, &opts.Games},
		{"threads", 1, &opts.Threads},
		{"randomplies", 0, &opts.RandomPlies},
		{"maxplies", automatic.DefaultMaxPlies, &opts.MaxPlies},
		{"depth", 0, &opts.Limits[0].Depth},
	}
	for _, o := range ints {
		if *o.dst, err = cmd.intOption(o.key, o.dflt); err != nil {
			return nil, err
		}
	}
	if opts.Limits[1].Depth, err = cmd.intOption("depth1", opts.Limits[0].Depth); err != nil {
		return nil, err
	}
	ms, err := cmd.intOption("movetime", 0)
	if err != nil {
		return nil, err
	}
	for i := range opts.Limits {
		opts.Limits[i].MoveTime = time.Duration(ms) * time.Millisecond
	}
	if seed, ok := cmd.options["seed"]; ok {
		opts.Seed = []byte(seed)
	}
	opts.LogFile = cmd.options["file"]

	res, err := automatic.PlayMatch(context.Background(), sc.cfg, opts)
	if err != nil {
		return nil, err
	}
	if cmd.options["hist"] != "true" {
		return msg(res.String()), nil
	}
	var sb strings.Builder
	sb.WriteString(res.String())
	sb.WriteString("\ngame lengths:\n")
	if err := res.PliesHistogram(&sb, 10); err != nil {
		return nil, err
	}
	return msg(strings.TrimSuffix(sb.String(), "\n")), nil
}
