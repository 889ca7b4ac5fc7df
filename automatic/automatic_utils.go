package automatic

// Running many games, possibly on several threads, and summarizing them.

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"

	"github.com/phonekimera/lisco-sub000/board"
	"github.com/phonekimera/lisco-sub000/config"
	"github.com/phonekimera/lisco-sub000/game"
	"github.com/phonekimera/lisco-sub000/negamax"
	"github.com/phonekimera/lisco-sub000/stats"
)

var (
	GamesCounter *expvar.Int
	IsPlaying    *expvar.Int
)

func init() {
	GamesCounter = expvar.NewInt("autoplayGames")
	IsPlaying = expvar.NewInt("autoplayIsPlaying")
}

var ErrAlreadyPlaying = errors.New("games are already being played, please wait till complete")

const logHeader = "gameID,ply,player,fen,move,score,depth,nodes,ms\n"

// MatchOptions describes a match between player 0 and player 1. The
// players swap colors every game.
type MatchOptions struct {
	Games   int
	Threads int
	// Limits per player; zero limits use the configured defaults.
	Limits      [2]negamax.Limits
	StartFEN    string
	RandomPlies int
	MaxPlies    int
	// Seed makes the random openings repeatable. Every thread derives its
	// own 32-byte seed from it.
	Seed []byte
	// LogFile receives one CSV line per searched move.
	LogFile string
}

// Results sums up a match from player 0's side.
type Results struct {
	Games      int
	Wins       int
	Losses     int
	Draws      int
	Unfinished int
	Outcomes   map[game.Outcome]int

	Score stats.Statistic
	Plies stats.Statistic
	Nodes stats.Statistic

	lengths []float64
}

func newResults() *Results {
	return &Results{Outcomes: map[game.Outcome]int{}}
}

func (r *Results) add(g GameResult) {
	r.Games++
	r.Outcomes[g.Outcome]++
	if g.Unfinished {
		r.Unfinished++
	}
	score := g.Score()
	switch score {
	case 1:
		r.Wins++
	case 0:
		r.Losses++
	default:
		r.Draws++
	}
	r.Score.Push(score)
	r.Plies.Push(float64(g.Plies))
	r.lengths = append(r.lengths, float64(g.Plies))
}

func (r *Results) merge(o *Results) {
	r.Games += o.Games
	r.Wins += o.Wins
	r.Losses += o.Losses
	r.Draws += o.Draws
	r.Unfinished += o.Unfinished
	for k, v := range o.Outcomes {
		r.Outcomes[k] += v
	}
	r.Score.Merge(&o.Score)
	r.Plies.Merge(&o.Plies)
	r.Nodes.Merge(&o.Nodes)
	r.lengths = append(r.lengths, o.lengths...)
}

// PliesHistogram draws the distribution of game lengths.
func (r *Results) PliesHistogram(w io.Writer, bins int) error {
	if len(r.lengths) == 0 {
		return nil
	}
	h := histogram.Hist(bins, r.lengths)
	return histogram.Fprint(w, h, histogram.Linear(40))
}

// Elo returns the rating difference of player 0 over player 1 with its
// margin at the given confidence, in percent.
func (r *Results) Elo(confidence float64) (float64, float64) {
	mean := r.Score.Mean()
	margin := stats.ZVal(confidence) * r.Score.StandardError()
	elo := stats.EloDifference(mean)
	return elo, (stats.EloDifference(mean+margin) - stats.EloDifference(mean-margin)) / 2
}

func (r *Results) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "games: %d, +%d -%d =%d (unfinished %d)\n", r.Games, r.Wins, r.Losses,
		r.Draws, r.Unfinished)
	for o := game.WhiteMates; o <= game.InsufficientMaterial; o++ {
		if n := r.Outcomes[o]; n > 0 {
			fmt.Fprintf(&sb, "%s: %d\n", o, n)
		}
	}
	elo, margin := r.Elo(95)
	fmt.Fprintf(&sb, "score: %.3f, elo: %+.0f +- %.0f\n", r.Score.Mean(), elo, margin)
	fmt.Fprintf(&sb, "plies: %.1f avg, nodes per move: %.0f avg", r.Plies.Mean(), r.Nodes.Mean())
	return sb.String()
}

// PlayMatch plays opts.Games games and waits for them to finish. On
// cancellation it returns the games finished so far along with the error.
func PlayMatch(ctx context.Context, cfg *config.Config, opts MatchOptions) (*Results, error) {
	if IsPlaying.Value() > 0 {
		return nil, ErrAlreadyPlaying
	}
	if opts.Games <= 0 {
		return nil, fmt.Errorf("%w: number of games must be positive", board.ErrMisuse)
	}
	opts.Threads = max(1, min(opts.Threads, opts.Games))
	if opts.StartFEN == "" {
		opts.StartFEN = board.StartFEN
	}
	if _, err := board.FromFEN(opts.StartFEN); err != nil {
		return nil, err
	}

	var seeds *frand.RNG
	if opts.Seed != nil {
		base := make([]byte, 32)
		copy(base, opts.Seed)
		seeds = frand.NewCustom(base, 1024, 12)
	}
	var logChan chan string
	if opts.LogFile != "" {
		logChan = make(chan string, 100)
	}
	runners := make([]*GameRunner, opts.Threads)
	for i := range runners {
		var seed []byte
		if seeds != nil {
			seed = seeds.Bytes(32)
		}
		r, err := NewGameRunner(cfg, logChan, seed, opts.Limits)
		if err != nil {
			return nil, err
		}
		r.SetRandomPlies(opts.RandomPlies)
		if opts.MaxPlies > 0 {
			r.SetMaxPlies(opts.MaxPlies)
		}
		runners[i] = r
	}
	var logfile *os.File
	if logChan != nil {
		var err error
		if logfile, err = os.Create(opts.LogFile); err != nil {
			return nil, err
		}
	}
	log.Debug().Msgf("Starting %v games, %v threads", opts.Games, opts.Threads)

	GamesCounter.Set(0)
	jobs := make(chan int, 100)
	perThread := make([]*Results, opts.Threads)
	g, ctx := errgroup.WithContext(ctx)
	var wg sync.WaitGroup

	for i, r := range runners {
		i, r := i, r
		perThread[i] = newResults()
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			IsPlaying.Add(1)
			defer IsPlaying.Add(-1)
			res := perThread[i]
			for id := range jobs {
				gr, err := r.PlayGame(ctx, id, opts.StartFEN, id%2, &res.Nodes)
				if err != nil {
					return err
				}
				res.add(gr)
				GamesCounter.Add(1)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(jobs)
		for id := 0; id < opts.Games; id++ {
			select {
			case jobs <- id:
			case <-ctx.Done():
				log.Info().Msg("Got stop signal, exiting soon...")
				return ctx.Err()
			}
		}
		return nil
	})

	if logChan != nil {
		go func() {
			wg.Wait()
			close(logChan)
		}()
		g.Go(func() error {
			defer logfile.Close()
			_, err := io.WriteString(logfile, logHeader)
			// Drain the channel even after a write error.
			for msg := range logChan {
				if err == nil {
					_, err = io.WriteString(logfile, msg)
				}
			}
			return err
		})
	}
	err := g.Wait()

	total := newResults()
	for _, res := range perThread {
		total.merge(res)
	}
	log.Info().Int("games", total.Games).Float64("score", total.Score.Mean()).Msg("match-over")
	return total, err
}
