package movegen

import (
	"context"
	"sort"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/phonekimera/lisco-sub000/board"
	"github.com/phonekimera/lisco-sub000/move"
)

const maxPerftDepth = 32

type perft struct {
	buffers [maxPerftDepth][MaxMoves]move.Move
}

func (p *perft) count(b *board.Board, depth int) uint64 {
	if depth == 0 {
		return 1
	}
	moves := GenerateMoves(b, p.buffers[depth-1][:0])
	var nodes uint64
	for _, m := range moves {
		if IllegalMove(b, m, false) {
			continue
		}
		if depth == 1 {
			nodes++
			continue
		}
		b.Apply(m)
		nodes += p.count(b, depth-1)
		b.Unapply(m)
	}
	return nodes
}

// Perft counts the leaf nodes of the legal move tree to the given depth.
func Perft(b *board.Board, depth int) uint64 {
	if depth > maxPerftDepth {
		depth = maxPerftDepth
	}
	p := &perft{}
	return p.count(b, depth)
}

// DivideEntry is the node count below one root move.
type DivideEntry struct {
	Move  move.Move
	Nodes uint64
}

// Divide runs perft below every root move, each root move on its own copy
// of the board and its own goroutine. Entries are sorted by move text.
func Divide(ctx context.Context, b *board.Board, depth int) ([]DivideEntry, error) {
	if depth < 1 {
		return nil, nil
	}
	roots := LegalMoves(b)
	entries := make([]DivideEntry, len(roots))
	g, ctx := errgroup.WithContext(ctx)
	for i, m := range roots {
		i, m := i, m
		entries[i].Move = m
		bc := b.Copy()
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			bc.Apply(m)
			entries[i].Nodes = Perft(bc, depth-1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Move.UCI() < entries[j].Move.UCI()
	})
	var total uint64
	for _, e := range entries {
		total += e.Nodes
	}
	log.Debug().Int("depth", depth).Int("root-moves", len(entries)).
		Uint64("nodes", total).Msg("divide-done")
	return entries, nil
}
