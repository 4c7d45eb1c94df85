package anchor

import (
	"errors"
	"fmt"

	"github.com/biogo/hts/sam"
)

// DefaultMaxIndel is the length at which an indel ends an anchor.
const DefaultMaxIndel = 10

var (
	// ErrAnchorNotFound is returned when an anchor isn't one of the contig's alignments
	ErrAnchorNotFound = errors.New("anchor not in alignments")

	// ErrAnchorOrder is returned when the left anchor doesn't precede the right one
	ErrAnchorOrder = errors.New("left anchor does not precede right anchor")

	// ErrAnchorUnmapped is returned for an anchor that isn't Mapped
	ErrAnchorUnmapped = errors.New("anchor is not mapped")
)

// Options are settings for anchoring.
type Options struct {
	// MaxIndel is the shortest insertion or deletion that ends an anchor
	MaxIndel int

	// MinMapQ is the lowest mapping quality of a segment that Pick will use
	MinMapQ int
}

// DefaultOptions returns the default anchoring settings.
func DefaultOptions() Options {
	return Options{MaxIndel: DefaultMaxIndel}
}

// Side is the trusted alignment on one side of a junction.
type Side struct {
	// Cigar in reference order
	Cigar sam.Cigar

	// RefLen is the reference span, the sum of M and D operations
	RefLen int

	// ReadLen is the contig span, the sum of M and I operations
	ReadLen int
}

// Anchors are the trusted alignments on the two sides of a junction.
type Anchors struct {
	Left  Side
	Right Side
}

// state of a walk away from an anchor
type state int

const (
	consumingMatch state = iota
	consumingSmallIndel
	halted
)

// op is a CIGAR operation before conversion to sam.CigarOp
type op struct {
	t sam.CigarOpType
	n int
}

// walker extends an anchor, one segment at a time, in one direction along the contig
type walker struct {
	alignments []Alignment

	// step is +1 to walk toward the end of the contig and -1 to walk toward its start
	step int

	// other is the index of the other anchor, which is never consumed
	other int

	maxIndel int

	// ops in walk order
	ops []op
}

// walkable reports whether the segment at i can be consumed
func (w *walker) walkable(i int) bool {
	return i >= 0 && i < len(w.alignments) && i != w.other
}

// refGap is the number of reference bases skipped going from a to b in the
// walk direction: 0 if they're contiguous, positive for a deletion and
// negative when b re-aligns bases already covered by a.
func refGap(a, b Mapped, step int) int {
	if a.Reverse == (step < 0) {
		return b.RefStart - a.RefEnd()
	}
	return a.RefStart - b.RefEnd()
}

// walk extends the anchor at index from until the first segment that can't be trusted.
//
// Contiguous collinear segments extend the match. An indel shorter than
// maxIndel is kept in-line, and the segment after it consumed, while one
// at or above it ends the walk without being consumed. An unmapped segment
// that isn't an insertion is soft clipped and ends the walk. Anything else,
// another chromosome or strand, the other anchor, or the end of the contig,
// ends the walk.
func (w *walker) walk(from int) []op {
	cur := w.alignments[from].(Mapped)
	i := from + w.step

	var pending Mapped // segment after an in-line indel
	var inserted int   // bases of pending already emitted as an insertion

	for st := consumingMatch; st != halted; {
		switch st {
		case consumingMatch:
			if !w.walkable(i) {
				st = halted
				continue
			}

			switch next := w.alignments[i].(type) {
			case Mapped:
				if !cur.collinear(next) {
					st = halted
					continue
				}

				gap := refGap(cur, next, w.step)
				switch {
				case gap == 0:
					w.emit(sam.CigarMatch, next.Length)
					cur = next
					i += w.step
				case gap >= w.maxIndel || -gap >= w.maxIndel || -gap >= next.Length:
					st = halted
				case gap > 0:
					w.emit(sam.CigarDeletion, gap)
					pending, inserted = next, 0
					st = consumingSmallIndel
				default:
					w.emit(sam.CigarInsertion, -gap)
					pending, inserted = next, -gap
					st = consumingSmallIndel
				}

			case Unmapped:
				after := i + w.step
				if after >= 0 && after < len(w.alignments) {
					if m, ok := w.alignments[after].(Mapped); ok && cur.collinear(m) && refGap(cur, m, w.step) == 0 {
						// an insertion: kept only if short and followed by something we can consume
						if next.Length >= w.maxIndel || !w.walkable(after) {
							st = halted
							continue
						}
						w.emit(sam.CigarInsertion, next.Length)
						pending, inserted = m, 0
						i = after
						st = consumingSmallIndel
						continue
					}
				}
				w.emit(sam.CigarSoftClipped, next.Length)
				st = halted

			default:
				panic(fmt.Sprintf("anchor: unknown alignment %T", next))
			}

		case consumingSmallIndel:
			w.emit(sam.CigarMatch, pending.Length-inserted)
			cur = pending
			i += w.step
			st = consumingMatch
		}
	}
	return w.ops
}

func (w *walker) emit(t sam.CigarOpType, n int) {
	w.ops = append(w.ops, op{t: t, n: n})
}

// Cigar finds the trusted CIGAR and reference span of each anchor.
//
// Each anchor is extended in both directions: away from the other anchor,
// toward the end of the contig, and toward the other anchor through the
// segments between them. Both anchors must be Mapped members of alignments,
// and left must come before right.
func Cigar(contig string, alignments []Alignment, left, right Alignment, opts Options) (Anchors, error) {
	if err := Validate(contig, alignments); err != nil {
		return Anchors{}, err
	}

	li, ri := indexOf(alignments, left), indexOf(alignments, right)
	for _, a := range []struct {
		name  string
		index int
		seg   Alignment
	}{{"left", li, left}, {"right", ri, right}} {
		if a.index < 0 {
			return Anchors{}, &ContigError{Contig: contig, Err: fmt.Errorf("%s %w: %v", a.name, ErrAnchorNotFound, a.seg)}
		}
		if _, ok := a.seg.(Mapped); !ok {
			return Anchors{}, &ContigError{Contig: contig, Err: fmt.Errorf("%s %w: %v", a.name, ErrAnchorUnmapped, a.seg)}
		}
	}
	if li >= ri {
		return Anchors{}, &ContigError{Contig: contig, Err: fmt.Errorf("%w: %d >= %d", ErrAnchorOrder, li, ri)}
	}

	return Anchors{
		Left:  side(alignments, li, ri, opts.MaxIndel),
		Right: side(alignments, ri, li, opts.MaxIndel),
	}, nil
}

// side walks out from the anchor at index at in both directions and
// assembles the CIGAR in reference order.
func side(alignments []Alignment, at, other, maxIndel int) Side {
	anchor := alignments[at].(Mapped)

	back := (&walker{alignments: alignments, step: -1, other: other, maxIndel: maxIndel}).walk(at)
	fwd := (&walker{alignments: alignments, step: 1, other: other, maxIndel: maxIndel}).walk(at)

	// contig order
	ops := make([]op, 0, len(back)+len(fwd)+1)
	for k := len(back) - 1; k >= 0; k-- {
		ops = append(ops, back[k])
	}
	ops = append(ops, op{t: sam.CigarMatch, n: anchor.Length})
	ops = append(ops, fwd...)

	if anchor.Reverse {
		for i, j := 0, len(ops)-1; i < j; i, j = i+1, j-1 {
			ops[i], ops[j] = ops[j], ops[i]
		}
	}

	var s Side
	for _, o := range ops {
		switch o.t {
		case sam.CigarMatch:
			s.RefLen += o.n
			s.ReadLen += o.n
		case sam.CigarDeletion:
			s.RefLen += o.n
		case sam.CigarInsertion:
			s.ReadLen += o.n
		}

		if last := len(s.Cigar) - 1; last >= 0 && s.Cigar[last].Type() == o.t {
			s.Cigar[last] = sam.NewCigarOp(o.t, s.Cigar[last].Len()+o.n)
			continue
		}
		s.Cigar = append(s.Cigar, sam.NewCigarOp(o.t, o.n))
	}
	return s
}

func indexOf(alignments []Alignment, a Alignment) int {
	for i, b := range alignments {
		if a == b {
			return i
		}
	}
	return -1
}
