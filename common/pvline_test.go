package common

import (
	"testing"

	"github.com/matryer/is"

	"github.com/phonekimera/lisco-sub000/bitboard"
	"github.com/phonekimera/lisco-sub000/move"
)

func TestPVLineUpdate(t *testing.T) {
	is := is.New(t)
	e4 := move.New(bitboard.RankFile(1, 4), bitboard.RankFile(3, 4), bitboard.Pawn, bitboard.NoPiece, bitboard.NoPiece, false)
	e5 := move.New(bitboard.RankFile(6, 4), bitboard.RankFile(4, 4), bitboard.Pawn, bitboard.NoPiece, bitboard.NoPiece, false)

	var child, parent PVLine
	is.Equal(parent.GetPVMove(), move.Null)
	child.Update(e5, PVLine{}, -15)
	parent.Update(e4, child, 15)
	is.Equal(len(parent.Moves), 2)
	is.Equal(parent.GetPVMove(), e4)
	is.Equal(parent.Score(), 15)
	is.Equal(parent.UCIString(), "e2e4 e7e5")
	is.Equal(parent.NLBString(), "PV; val 15; 1: e2e4; 2: e7e5; ")

	cp := parent.Copy()
	parent.Clear()
	is.Equal(len(parent.Moves), 0)
	is.Equal(cp.UCIString(), "e2e4 e7e5")
}
