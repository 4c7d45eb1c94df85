package seq

import (
	"bytes"
	"errors"
	"fmt"
)

var (
	// ErrSupportIndex is returned when the support index isn't within the left sequence
	ErrSupportIndex = errors.New("support index outside of left sequence")

	// ErrDiscordantOverlap is returned when the overlap disagrees in a way that
	// repeat jitter doesn't explain, most often a frame shift from an upstream indel
	ErrDiscordantOverlap = errors.New("overlap is not explained by repeat jitter")
)

// MergeOptions are the settings for merging two overlapping sequences.
type MergeOptions struct {
	// MaxQuality caps the quality of bases that both sequences agree on
	MaxQuality byte

	// MaxMismatchFraction is the largest share of compared overlap bases
	// that may disagree before the overlap is rejected
	MaxMismatchFraction float64

	// MinCheckedOverlap is the fewest compared bases for which the
	// mismatch fraction is checked
	MinCheckedOverlap int

	// Decomposer finds the repeats in each overlap window
	Decomposer Decomposer
}

// DefaultMergeOptions returns the default merge settings.
func DefaultMergeOptions() MergeOptions {
	return MergeOptions{
		MaxQuality:          MaxQuality,
		MaxMismatchFraction: 0.25,
		MinCheckedOverlap:   12,
		Decomposer:          NewDecomposer(),
	}
}

// span is a node and the window coordinates it covers
type span struct {
	start, end int
	node       Node
}

func spans(nodes []Node) []span {
	out := make([]span, len(nodes))
	start := 0
	for i, n := range nodes {
		out[i] = span{start: start, end: start + n.Len(), node: n}
		start += n.Len()
	}
	return out
}

// confirmLength is the most bases after a mismatch compared to tell a
// substitution from a slipped copy or a shift
const confirmLength = 2 * MaxPeriod

// minConfirm is the fewest bases that must agree after a mismatch to call it a slip or a shift
const minConfirm = 4

// copies counts the whole copies of unit at the start of bases
func copies(bases []byte, unit string) int {
	p, c := len(unit), 0
	for (c+1)*p <= len(bases) && string(bases[c*p:(c+1)*p]) == unit {
		c++
	}
	return c
}

// repeatJitter reports whether the repeat s, when pos is its first base, is
// found in other with a different number of whole copies, whatever the length
// of other's run. n is the length of other's run. A repeat that's the last
// node of its window, or a run that reaches the end of other, may be cut
// short by the window and isn't jitter.
func repeatJitter(s span, last bool, pos int, other []byte) (n int, ok bool) {
	r, isRepeat := s.node.(Repeat)
	if !isRepeat || last || pos != s.start {
		return 0, false
	}

	c := copies(other, r.Unit)
	n = c * len(r.Unit)
	if c == 0 || c == r.Count || n >= len(other) {
		return 0, false
	}
	return n, true
}

// agree reports whether x and y start with the same bases, comparing up to
// confirmLength of them and no fewer than minConfirm
func agree(x, y []byte) bool {
	n := min(confirmLength, len(x), len(y))
	return n >= minConfirm && bytes.Equal(x[:n], y[:n])
}

// extraCopies returns the length of the whole copies of a period p unit that
// long has at a and short lacks at b. Both must end a copy of the unit just
// before the mismatch and the bases after long's extra copies must agree with short.
func extraCopies(long, short []byte, a, b, p int) int {
	if a < p || b < p || !bytes.Equal(long[a-p:a], short[b-p:b]) || !primitive(long[a-p:a]) {
		return 0
	}
	for k := 0; a+k < len(long) && long[a+k] == long[a+k-p]; k++ {
		if (k+1)%p == 0 && agree(long[a+k+1:], short[b:]) {
			return k + 1
		}
	}
	return 0
}

// slip explains a mismatch between l[i] and r[j] as whole copies of a short
// tandem unit that one window has and the other doesn't, ie jitter in a run
// too short to be a Repeat node. n is the number of extra bases.
func slip(l, r []byte, i, j int) (n, period int, inLeft bool) {
	for p := 1; p <= MaxPeriod; p++ {
		if n := extraCopies(l, r, i, j, p); n > 0 {
			return n, p, true
		}
		if n := extraCopies(r, l, j, i, p); n > 0 {
			return n, p, false
		}
	}
	return 0, 0, false
}

// shifted reports whether the windows only agree again after the mismatch at
// l[i], r[j] if one of them is offset by a few bases: an indel that isn't jitter.
func shifted(l, r []byte, i, j int) bool {
	if agree(l[i+1:], r[j+1:]) {
		return false
	}
	for s := 1; s <= MaxPeriod; s++ {
		if i+s < len(l) && agree(l[i+s:], r[j:]) {
			return true
		}
		if j+s < len(r) && agree(l[i:], r[j+s:]) {
			return true
		}
	}
	return false
}

// merger accumulates the consensus and the agreement within the overlap
type merger struct {
	opts       MergeOptions
	out        Sequence
	compared   int
	mismatches int
}

// add appends the consensus of two bases
func (m *merger) add(a, qa, b, qb byte) {
	switch {
	case a == b:
		q := int(qa) + int(qb)
		if q > int(m.opts.MaxQuality) {
			q = int(m.opts.MaxQuality)
		}
		m.out.Bases = append(m.out.Bases, a)
		m.out.Quals = append(m.out.Quals, byte(q))
	case qb > qa:
		m.out.Bases = append(m.out.Bases, b)
		m.out.Quals = append(m.out.Quals, qb)
	default:
		m.out.Bases = append(m.out.Bases, a)
		m.out.Quals = append(m.out.Quals, qa)
	}
}

// expand merges two copies of the same repeat with different copy counts.
// The longer run is kept and each of its bases is paired with the base of
// the shorter run at the same phase, so the extra copies are boosted too.
func (m *merger) expand(l, r Sequence) {
	if l.Len() >= r.Len() {
		for k := range l.Bases {
			p := k % r.Len()
			m.add(l.Bases[k], l.Quals[k], r.Bases[p], r.Quals[p])
		}
		return
	}
	for k := range r.Bases {
		p := k % l.Len()
		m.add(l.Bases[p], l.Quals[p], r.Bases[k], r.Quals[k])
	}
}

// verbatim appends the bases and qualities as they are
func (m *merger) verbatim(s Sequence) {
	m.out.Bases = append(m.out.Bases, s.Bases...)
	m.out.Quals = append(m.out.Quals, s.Quals...)
}

// Merge combines two overlapping sequences into one consensus. The base at
// left[supportIndex] corresponds to right[0].
//
// The overlap windows, left[supportIndex:] and right, are decomposed and walked
// together. Where one window is at the start of a repeat and the other has a
// different number of copies of its unit at the same place the difference is
// treated as jitter and the longer run is kept. Copies of a unit that only one
// window has at a mismatch, in runs too short to be repeats, are kept too.
// Elsewhere bases are merged position by position: bases that agree have their
// qualities summed (up to MaxQuality) and, where they disagree, the higher
// quality base is kept. Whatever extends past the end of the other window is
// copied as is.
//
// An overlap that only agrees when shifted by a few bases that aren't copies of
// a repeat unit, or with too many mismatches, is an ErrDiscordantOverlap.
func Merge(left, right Sequence, supportIndex int, opts MergeOptions) (Sequence, error) {
	if err := left.validate(); err != nil {
		return Sequence{}, fmt.Errorf("left: %w", err)
	}
	if err := right.validate(); err != nil {
		return Sequence{}, fmt.Errorf("right: %w", err)
	}
	if supportIndex < 0 || supportIndex >= left.Len() {
		return Sequence{}, fmt.Errorf("%w: %d not in [0, %d)", ErrSupportIndex, supportIndex, left.Len())
	}

	lw := left.Slice(supportIndex, left.Len())
	rw := right
	ln := spans(opts.Decomposer.decompose(lw.Bases))
	rn := spans(opts.Decomposer.decompose(rw.Bases))

	size := supportIndex + lw.Len() + rw.Len()
	m := &merger{
		opts: opts,
		out: Sequence{
			Bases: make([]byte, 0, size),
			Quals: make([]byte, 0, size),
		},
	}
	m.verbatim(left.Slice(0, supportIndex))

	i, j, li, ri := 0, 0, 0, 0
	for i < lw.Len() && j < rw.Len() {
		for ln[li].end <= i {
			li++
		}
		for rn[ri].end <= j {
			ri++
		}

		if n, ok := repeatJitter(ln[li], li == len(ln)-1, i, rw.Bases[j:]); ok {
			m.expand(lw.Slice(i, ln[li].end), rw.Slice(j, j+n))
			i, j = ln[li].end, j+n
			continue
		}
		if n, ok := repeatJitter(rn[ri], ri == len(rn)-1, j, lw.Bases[i:]); ok {
			m.expand(lw.Slice(i, i+n), rw.Slice(j, rn[ri].end))
			i, j = i+n, rn[ri].end
			continue
		}

		if lw.Bases[i] != rw.Bases[j] {
			if n, p, inLeft := slip(lw.Bases, rw.Bases, i, j); n > 0 {
				// the extra copies pair with the copy before them in the other window
				if inLeft {
					m.expand(lw.Slice(i, i+n), rw.Slice(j-p, j))
					i += n
				} else {
					m.expand(lw.Slice(i-p, i), rw.Slice(j, j+n))
					j += n
				}
				continue
			}
			if shifted(lw.Bases, rw.Bases, i, j) {
				return Sequence{}, fmt.Errorf(
					"%w: left from %d only agrees with right from %d when shifted",
					ErrDiscordantOverlap, supportIndex+i, j,
				)
			}
			m.mismatches++
		}

		m.compared++
		m.add(lw.Bases[i], lw.Quals[i], rw.Bases[j], rw.Quals[j])
		i++
		j++
	}

	if m.compared >= opts.MinCheckedOverlap && float64(m.mismatches) > opts.MaxMismatchFraction*float64(m.compared) {
		return Sequence{}, fmt.Errorf(
			"%w: %d of %d overlapping bases disagree",
			ErrDiscordantOverlap, m.mismatches, m.compared,
		)
	}

	switch {
	case i < lw.Len():
		m.verbatim(lw.Slice(i, lw.Len()))
	case j < rw.Len():
		m.verbatim(rw.Slice(j, rw.Len()))
	}

	return m.out, nil
}
