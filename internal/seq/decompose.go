package seq

import (
	"bytes"
)

// MaxPeriod is the longest repeat unit that's searched for.
const MaxPeriod = 6

// DefaultMinRunLength is the number of bases, per unit length (index 0 is a
// 1bp unit), that a run must span to be called a Repeat. Shorter units need
// more copies: a homopolymer needs 20bp while a 4bp unit needs ~7 copies.
var DefaultMinRunLength = [MaxPeriod]int{20, 15, 20, 27, 30, 33}

// Decomposer splits sequences into Literal and Repeat nodes.
type Decomposer struct {
	// MinRunLength is the minimum span, in bases, of a repeat with
	// a unit of length i+1. The trailing partial copy counts toward it
	MinRunLength [MaxPeriod]int
}

// NewDecomposer returns a Decomposer with the default run lengths.
func NewDecomposer() Decomposer {
	return Decomposer{MinRunLength: DefaultMinRunLength}
}

// Decompose splits bases into repeat-aware nodes with the default thresholds.
func Decompose(bases, quals []byte) ([]Node, error) {
	return NewDecomposer().Decompose(bases, quals)
}

// Decompose scans the bases left to right. At each position it looks for the
// shortest unit whose tandem copies span at least the unit's minimum run length.
// A qualifying run becomes a Repeat of its whole copies and the scan resumes
// after them, everything else accumulates into Literal nodes.
//
// Concatenating the nodes' Content reconstructs bases exactly.
func (d Decomposer) Decompose(bases, quals []byte) ([]Node, error) {
	if err := validate(bases, quals); err != nil {
		return nil, err
	}
	return d.decompose(bases), nil
}

func (d Decomposer) decompose(bases []byte) []Node {
	var nodes []Node
	literalStart := 0

	for i := 0; i < len(bases); {
		period, count := d.run(bases, i)
		if count == 0 {
			i++
			continue
		}

		if literalStart < i {
			nodes = append(nodes, Literal{Bases: string(bases[literalStart:i])})
		}
		nodes = append(nodes, Repeat{Unit: string(bases[i : i+period]), Count: count})

		i += period * count
		literalStart = i
	}

	if literalStart < len(bases) {
		nodes = append(nodes, Literal{Bases: string(bases[literalStart:])})
	}
	return nodes
}

// run returns the shortest qualifying repeat starting at i, or a count of 0.
func (d Decomposer) run(bases []byte, i int) (period, count int) {
	for p := 1; p <= MaxPeriod && i+2*p <= len(bases); p++ {
		unit := bases[i : i+p]
		if !primitive(unit) {
			continue
		}

		c := 1
		for j := i + p; j+p <= len(bases) && bytes.Equal(bases[j:j+p], unit); j += p {
			c++
		}
		if c < 2 {
			continue
		}

		span := c*p + repair(bases[i+c*p:], unit)
		if span >= d.MinRunLength[p-1] {
			return p, c
		}
	}
	return 0, 0
}

// repair looks past the end of a run and returns how many of the following
// bases match a prefix of the unit, ie the length of a trailing partial copy.
// The partial copy counts toward the run's span but isn't consumed: it stays
// in the stream, where it may start the next node.
func repair(rest, unit []byte) int {
	m := 0
	for m < len(unit)-1 && m < len(rest) && rest[m] == unit[m] {
		m++
	}
	return m
}

// primitive reports whether unit isn't itself a tandem copy of a shorter unit.
func primitive(unit []byte) bool {
	p := len(unit)
	for d := 1; d < p; d++ {
		if p%d != 0 {
			continue
		}
		if bytes.Equal(unit, bytes.Repeat(unit[:d], p/d)) {
			return false
		}
	}
	return true
}
