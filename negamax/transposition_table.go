package negamax

import (
	"fmt"
	"sync/atomic"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"

	"github.com/phonekimera/lisco-sub000/bitboard"
	"github.com/phonekimera/lisco-sub000/board"
	"github.com/phonekimera/lisco-sub000/tinymove"
)

// Bound says how a stored score relates to the true score of the node.
// Stronger bounds compare greater.
type Bound uint8

const (
	BoundNone Bound = iota
	BoundUpper
	BoundLower
	BoundExact
)

func (b Bound) String() string {
	switch b {
	case BoundUpper:
		return "upper"
	case BoundLower:
		return "lower"
	case BoundExact:
		return "exact"
	}
	return "none"
}

// LookupResult is the outcome of a table lookup.
type LookupResult uint8

const (
	LookupMiss LookupResult = iota
	// LookupExact: the stored score is exact at a sufficient depth.
	LookupExact
	// LookupLower: the stored lower bound is at least beta.
	LookupLower
	// LookupUpper: the stored upper bound is at most alpha.
	LookupUpper
)

// 16 bytes (entrySize)
type TableEntry struct {
	signature uint64
	score     int16
	play      tinymove.TinyMove
	depth     int8
	bound     Bound
	age       uint8
	_         uint8
}

const entrySize = 16

func (t TableEntry) valid() bool {
	return t.bound != BoundNone
}

// A bucket has a depth-preferred slot and an always-replace slot.
type bucket [2]TableEntry

const bucketSize = 2 * entrySize

const (
	depthPreferred = 0
	alwaysReplace  = 1
)

// TranspositionTable caches search results by position signature. It is
// split into independent halves for white and black to move, each with a
// prime number of buckets.
//
// The table is not safe for concurrent use.
type TranspositionTable struct {
	name   string
	halves [2][]bucket
	age    uint8

	created      atomic.Uint64
	lookups      atomic.Uint64
	hits         atomic.Uint64
	t2collisions atomic.Uint64
}

// NewTranspositionTable returns a table of about the given size.
func NewTranspositionTable(name string, bytes uint64) (*TranspositionTable, error) {
	t := &TranspositionTable{name: name}
	if err := t.Resize(bytes); err != nil {
		return nil, err
	}
	return t, nil
}

// MemoryFraction returns the given fraction of the system memory in bytes.
func MemoryFraction(fraction float64) uint64 {
	return uint64(fraction * float64(memory.TotalMemory()))
}

// largestPrimeAtMost returns the largest prime <= n, or 1 for n < 2.
func largestPrimeAtMost(n uint64) uint64 {
	for ; n >= 2; n-- {
		if isPrime(n) {
			return n
		}
	}
	return 1
}

func isPrime(n uint64) bool {
	if n < 4 {
		return n >= 2
	}
	if n%2 == 0 || n%3 == 0 {
		return false
	}
	for i := uint64(5); i*i <= n; i += 6 {
		if n%i == 0 || n%(i+2) == 0 {
			return false
		}
	}
	return true
}

// Resize reallocates the table for a budget of bytes, dropping all
// entries. A budget larger than the system memory fails with
// board.ErrOutOfMemory.
func (t *TranspositionTable) Resize(bytes uint64) error {
	totalMem := memory.TotalMemory()
	if totalMem > 0 && bytes > totalMem {
		return fmt.Errorf("%w: %s table of %d bytes, system has %d",
			board.ErrOutOfMemory, t.name, bytes, totalMem)
	}
	n := largestPrimeAtMost(bytes / 2 / uint64(bucketSize))
	reset := false
	for c := range t.halves {
		if uint64(len(t.halves[c])) == n {
			clear(t.halves[c])
			reset = true
		} else {
			t.halves[c] = make([]bucket, n)
		}
	}
	t.age = 0
	t.resetCounters()

	log.Info().Str("table", t.name).
		Uint64("buckets-per-side", n).
		Uint64("estimated-total-memory-bytes", 2*n*uint64(bucketSize)).
		Uint64("total-system-memory-bytes", totalMem).
		Bool("reset", reset).
		Msg("transposition-table-size")
	return nil
}

// Clear drops every entry but keeps the allocation.
func (t *TranspositionTable) Clear() {
	for c := range t.halves {
		clear(t.halves[c])
	}
	t.age = 0
	t.resetCounters()
}

func (t *TranspositionTable) resetCounters() {
	t.created.Store(0)
	t.lookups.Store(0)
	t.hits.Store(0)
	t.t2collisions.Store(0)
}

// NewSearch ages the table. Entries from earlier searches may then be
// evicted from the depth-preferred slots by shallower ones.
func (t *TranspositionTable) NewSearch() {
	t.age++
}

// Buckets returns the number of buckets in each half.
func (t *TranspositionTable) Buckets() int {
	return len(t.halves[bitboard.White])
}

func (t *TranspositionTable) bucketFor(sig uint64, toMove bitboard.Color) *bucket {
	half := t.halves[toMove]
	return &half[sig%uint64(len(half))]
}

func (t *TranspositionTable) lookup(sig uint64, toMove bitboard.Color) (TableEntry, bool) {
	t.lookups.Add(1)
	bk := t.bucketFor(sig, toMove)
	for i := range bk {
		if bk[i].valid() && bk[i].signature == sig {
			t.hits.Add(1)
			return bk[i], true
		}
	}
	if bk[depthPreferred].valid() || bk[alwaysReplace].valid() {
		// Another position sharing the bucket.
		t.t2collisions.Add(1)
	}
	return TableEntry{}, false
}

// Lookup finds sig. An entry stored at depth >= depth resolves the
// lookup when its bound allows a cutoff with respect to alpha and beta.
// Any matching entry, however shallow, donates its best move as hint.
func (t *TranspositionTable) Lookup(sig uint64, toMove bitboard.Color, depth, alpha, beta int) (
	LookupResult, int, tinymove.TinyMove) {

	e, ok := t.lookup(sig, toMove)
	if !ok {
		return LookupMiss, 0, tinymove.InvalidTinyMove
	}
	score := int(e.score)
	if int(e.depth) < depth {
		return LookupMiss, score, e.play
	}
	switch {
	case e.bound == BoundExact:
		return LookupExact, score, e.play
	case e.bound == BoundLower && score >= beta:
		return LookupLower, score, e.play
	case e.bound == BoundUpper && score <= alpha:
		return LookupUpper, score, e.play
	}
	return LookupMiss, score, e.play
}

// BestMove returns the move stored for sig, whatever its depth and bound.
func (t *TranspositionTable) BestMove(sig uint64, toMove bitboard.Color) tinymove.TinyMove {
	bk := t.bucketFor(sig, toMove)
	for i := range bk {
		if bk[i].valid() && bk[i].signature == sig {
			return bk[i].play
		}
	}
	return tinymove.InvalidTinyMove
}

// Store records a search result. The depth-preferred slot is only
// overwritten by an entry at least as deep (or with a stronger bound at
// the same depth), or when it was written by an earlier search; what it
// held moves to the always-replace slot. Otherwise the new entry goes in
// the always-replace slot.
func (t *TranspositionTable) Store(sig uint64, toMove bitboard.Color, depth, score int,
	bound Bound, best tinymove.TinyMove) {

	bk := t.bucketFor(sig, toMove)
	e := TableEntry{
		signature: sig,
		score:     int16(score),
		play:      best,
		depth:     int8(depth),
		bound:     bound,
		age:       t.age,
	}
	dp := &bk[depthPreferred]
	if best == tinymove.InvalidTinyMove {
		for i := range bk {
			if bk[i].valid() && bk[i].signature == sig {
				e.play = bk[i].play
				break
			}
		}
	}
	t.created.Add(1)

	switch {
	case !dp.valid() || dp.signature == sig && (e.depth > dp.depth ||
		e.depth == dp.depth && e.bound >= dp.bound):
		*dp = e
		if bk[alwaysReplace].signature == sig {
			bk[alwaysReplace] = TableEntry{}
		}
	case dp.signature != sig && (e.depth > dp.depth ||
		e.depth == dp.depth && e.bound >= dp.bound || dp.age != t.age):
		bk[alwaysReplace] = *dp
		*dp = e
	default:
		bk[alwaysReplace] = e
	}
}

// LogStats writes the table counters.
func (t *TranspositionTable) LogStats() {
	log.Info().Str("table", t.name).
		Uint64("created", t.created.Load()).
		Uint64("lookups", t.lookups.Load()).
		Uint64("hits", t.hits.Load()).
		Uint64("t2collisions", t.t2collisions.Load()).
		Msg("transposition-table-stats")
}

// Stats returns the created, lookups, hits and collision counters.
func (t *TranspositionTable) Stats() (created, lookups, hits, collisions uint64) {
	return t.created.Load(), t.lookups.Load(), t.hits.Load(), t.t2collisions.Load()
}
