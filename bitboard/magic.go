package bitboard

import (
	"encoding/binary"
	"math/bits"

	"lukechampine.com/frand"
)

// Magic bitboards: the relevant blockers of a slider on a square are
// isolated with a mask, multiplied by a magic number and shifted down to
// an index into a per-square attack table.
//
//   occ & mask  -->  * magic  -->  >> shift  -->  attacks[index]
//
// The starting magic numbers are well-known ones. Each is verified at
// startup against every blocker subset; if one collides, a replacement is
// searched for with a deterministic generator, so the tables are always
// correct.

type magicEntry struct {
	mask    Bitboard
	magic   uint64
	shift   uint8
	attacks []Bitboard
}

func (m *magicEntry) index(occ Bitboard) uint64 {
	return uint64(occ&m.mask) * m.magic >> m.shift
}

var (
	rookMagics    [SquareArraySize]magicEntry
	bishopMagics  [SquareArraySize]magicEntry
	rookTable     [102400]Bitboard
	bishopTable   [5248]Bitboard
	magicSearches int
)

var rookMagicNumbers = [SquareArraySize]uint64{
	0x0080001020400080, 0x0040001000200040, 0x0080081000200080, 0x0080040800100080,
	0x0080020400080080, 0x0080010200040080, 0x0080008001000200, 0x0080002040800100,
	0x0000800020400080, 0x0000400020005000, 0x0000801000200080, 0x0000800800100080,
	0x0000800400080080, 0x0000800200040080, 0x0000800100020080, 0x0000800040800100,
	0x0000208000400080, 0x0000404000201000, 0x0000808010002000, 0x0000808008001000,
	0x0000808004000800, 0x0000808002000400, 0x0000010100020004, 0x0000020000408104,
	0x0000208080004000, 0x0000200040005000, 0x0000100080200080, 0x0000080080100080,
	0x0000040080080080, 0x0000020080040080, 0x0000010080800200, 0x0000800080004100,
	0x0000204000800080, 0x0000200040401000, 0x0000100080802000, 0x0000080080801000,
	0x0000040080800800, 0x0000020080800400, 0x0000020001010004, 0x0000800040800100,
	0x0000204000808000, 0x0000200040008080, 0x0000100020008080, 0x0000080010008080,
	0x0000040008008080, 0x0000020004008080, 0x0000010002008080, 0x0000004081020004,
	0x0000204000800080, 0x0000200040008080, 0x0000100020008080, 0x0000080010008080,
	0x0000040008008080, 0x0000020004008080, 0x0000800100020080, 0x0000800041000080,
	0x00FFFCDDFCED714A, 0x007FFCDDFCED714A, 0x003FFFCDFFD88096, 0x0000040810002101,
	0x0001000204080011, 0x0001000204000801, 0x0001000082000401, 0x0001FFFAABFAD1A2,
}

var bishopMagicNumbers = [SquareArraySize]uint64{
	0x0002020202020200, 0x0002020202020000, 0x0004010202000000, 0x0004040080000000,
	0x0001104000000000, 0x0000821040000000, 0x0000410410400000, 0x0000104104104000,
	0x0000040404040400, 0x0000020202020200, 0x0000040102020000, 0x0000040400800000,
	0x0000011040000000, 0x0000008210400000, 0x0000004104104000, 0x0000002082082000,
	0x0004000808080800, 0x0002000404040400, 0x0001000202020200, 0x0000800802004000,
	0x0000800400A00000, 0x0000200100884000, 0x0000400082082000, 0x0000200041041000,
	0x0002080010101000, 0x0001040008080800, 0x0000208004010400, 0x0000404004010200,
	0x0000840000802000, 0x0000404002011000, 0x0000808001041000, 0x0000404000820800,
	0x0001041000202000, 0x0000820800101000, 0x0000104400080800, 0x0000020080080080,
	0x0000404040040100, 0x0000808100020100, 0x0001010100020800, 0x0000808080010400,
	0x0000820820004000, 0x0000410410002000, 0x0000082088001000, 0x0000002011000800,
	0x0000080100400400, 0x0001010101000200, 0x0002020202000400, 0x0001010101000200,
	0x0000410410400000, 0x0000208208200000, 0x0000002084100000, 0x0000000020880000,
	0x0000001002020000, 0x0000040408020000, 0x0004040404040000, 0x0002020202020000,
	0x0000104104104000, 0x0000002082082000, 0x0000000020841000, 0x0000000000208800,
	0x0000000010020200, 0x0000000404080200, 0x0000040404040400, 0x0002020202020200,
}

func rookMask(sq Square) Bitboard {
	r, f := sq.Rank(), sq.File()
	var m Bitboard
	for rr := r + 1; rr <= 6; rr++ {
		m |= RankFile(rr, f).Bitboard()
	}
	for rr := r - 1; rr >= 1; rr-- {
		m |= RankFile(rr, f).Bitboard()
	}
	for ff := f + 1; ff <= 6; ff++ {
		m |= RankFile(r, ff).Bitboard()
	}
	for ff := f - 1; ff >= 1; ff-- {
		m |= RankFile(r, ff).Bitboard()
	}
	return m
}

func bishopMask(sq Square) Bitboard {
	// Bishop attacks on an empty board, minus the edges.
	return BishopAttacksSlow(sq, Empty) &^ (Rank1 | Rank8 | FileA | FileH)
}

// subsets enumerates every subset of mask (Carry-Rippler).
func subsets(mask Bitboard) []Bitboard {
	out := make([]Bitboard, 0, 1<<mask.Count())
	var s Bitboard
	for {
		out = append(out, s)
		s = (s - mask) & mask
		if s == 0 {
			return out
		}
	}
}

func initMagics() {
	// Fixed seed: the tables must be identical from run to run.
	rng := frand.NewCustom(make([]byte, 32), 1024, 12)
	rookOffset, bishopOffset := 0, 0
	for sq := Square(0); sq < SquareArraySize; sq++ {
		n := 1 << rookMask(sq).Count()
		fillMagic(&rookMagics[sq], rookMask(sq), rookMagicNumbers[sq],
			rookTable[rookOffset:rookOffset+n], sq, RookAttacksSlow, rng)
		rookOffset += n

		n = 1 << bishopMask(sq).Count()
		fillMagic(&bishopMagics[sq], bishopMask(sq), bishopMagicNumbers[sq],
			bishopTable[bishopOffset:bishopOffset+n], sq, BishopAttacksSlow, rng)
		bishopOffset += n
	}
}

func fillMagic(m *magicEntry, mask Bitboard, magic uint64, table []Bitboard,
	sq Square, slow func(Square, Bitboard) Bitboard, rng *frand.RNG) {

	m.mask = mask
	m.shift = uint8(64 - mask.Count())
	m.attacks = table

	occs := subsets(mask)
	refs := make([]Bitboard, len(occs))
	for i, occ := range occs {
		refs[i] = slow(sq, occ)
	}
	used := make([]bool, len(table))
	for candidate := magic; ; candidate = sparseRandom(rng) {
		if candidate == 0 || bits.OnesCount64((uint64(mask)*candidate)>>56) < 6 && candidate != magic {
			continue
		}
		m.magic = candidate
		if tryMagic(m, occs, refs, used) {
			return
		}
		magicSearches++
	}
}

func tryMagic(m *magicEntry, occs, refs []Bitboard, used []bool) bool {
	clear(used)
	for i, occ := range occs {
		idx := m.index(occ)
		if used[idx] && m.attacks[idx] != refs[i] {
			return false
		}
		used[idx] = true
		m.attacks[idx] = refs[i]
	}
	return true
}

func sparseRandom(rng *frand.RNG) uint64 {
	var buf [24]byte
	rng.Read(buf[:])
	a := binary.LittleEndian.Uint64(buf[0:])
	b := binary.LittleEndian.Uint64(buf[8:])
	c := binary.LittleEndian.Uint64(buf[16:])
	return a & b & c
}
