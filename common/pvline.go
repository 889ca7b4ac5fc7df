package common

import (
	"fmt"
	"strings"

	"github.com/phonekimera/lisco-sub000/move"
)

// MaxPly bounds the length of a variation.
const MaxPly = 128

// Credit: MIT-licensed https://github.com/algerbrex/blunder/blob/main/engine/search.go
type PVLine struct {
	Moves []move.Move
	score int
}

// Clear the principal variation line.
func (pvLine *PVLine) Clear() {
	pvLine.Moves = pvLine.Moves[:0]
}

// Update the principal variation line with a new best move,
// and a new line of best play after the best move.
func (pvLine *PVLine) Update(m move.Move, newPVLine PVLine, score int) {
	pvLine.Moves = append(pvLine.Moves[:0], m)
	if len(newPVLine.Moves) >= MaxPly {
		newPVLine.Moves = newPVLine.Moves[:MaxPly-1]
	}
	pvLine.Moves = append(pvLine.Moves, newPVLine.Moves...)
	pvLine.score = score
}

// GetPVMove returns the first move of the line, or move.Null if the line
// is empty.
func (pvLine *PVLine) GetPVMove() move.Move {
	if len(pvLine.Moves) == 0 {
		return move.Null
	}
	return pvLine.Moves[0]
}

func (pvLine *PVLine) Score() int {
	return pvLine.score
}

// Copy returns a line that does not share storage with pvLine.
func (pvLine *PVLine) Copy() PVLine {
	return PVLine{
		Moves: append([]move.Move(nil), pvLine.Moves...),
		score: pvLine.score,
	}
}

// Convert the principal variation line to a string.
func (pvLine PVLine) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "PV; val %d\n", pvLine.score)
	for i, m := range pvLine.Moves {
		fmt.Fprintf(&sb, "%d: %s\n", i+1, m.UCI())
	}
	return sb.String()
}

func (pvLine PVLine) NLBString() string {
	// no line breaks
	var sb strings.Builder
	fmt.Fprintf(&sb, "PV; val %d; ", pvLine.score)
	for i, m := range pvLine.Moves {
		fmt.Fprintf(&sb, "%d: %s; ", i+1, m.UCI())
	}
	return sb.String()
}

// UCIString returns the moves of the line in coordinate notation,
// separated by spaces.
func (pvLine PVLine) UCIString() string {
	parts := make([]string, len(pvLine.Moves))
	for i, m := range pvLine.Moves {
		parts[i] = m.UCI()
	}
	return strings.Join(parts, " ")
}
