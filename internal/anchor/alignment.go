// Package anchor is for turning the alignment of an assembled contig into
// the CIGAR and reference span that can be trusted on each side of a
// breakpoint junction.
package anchor

import (
	"errors"
	"fmt"
)

// ErrNotContiguous is returned when alignments don't tile their contig
var ErrNotContiguous = errors.New("alignments are not contiguous")

// ContigError is an error in the alignments of a single contig.
type ContigError struct {
	Contig string
	Err    error
}

func (e *ContigError) Error() string {
	return fmt.Sprintf("contig %s: %v", e.Contig, e.Err)
}

func (e *ContigError) Unwrap() error {
	return e.Err
}

// Alignment is one segment of a contig's alignment: either a Mapped stretch
// or an Unmapped (soft clipped) one.
type Alignment interface {
	// Start is the 0-based offset of the segment on the contig
	Start() int

	// Len is the number of contig bases in the segment
	Len() int

	alignment()
}

// Mapped is an ungapped stretch of the contig aligned to the reference.
type Mapped struct {
	// Chromosome the segment aligns to
	Chromosome string

	// RefStart is the 0-based reference position of the lowest aligned base
	RefStart int

	// SeqStart is the 0-based contig offset of the segment
	SeqStart int

	// Length in bases, on both the contig and the reference
	Length int

	// Reverse if the contig aligns to the reverse strand
	Reverse bool

	// MapQ is the mapping quality of the alignment the segment came from
	MapQ int
}

// Unmapped is a stretch of the contig without an alignment.
type Unmapped struct {
	SeqStart int
	Length   int
}

func (Mapped) alignment()   {}
func (Unmapped) alignment() {}

// Start returns the contig offset.
func (m Mapped) Start() int { return m.SeqStart }

// Len returns the segment length.
func (m Mapped) Len() int { return m.Length }

// RefEnd is the reference position after the last aligned base.
func (m Mapped) RefEnd() int { return m.RefStart + m.Length }

// collinear reports whether the two segments are on the same chromosome and strand
func (m Mapped) collinear(o Mapped) bool {
	return m.Chromosome == o.Chromosome && m.Reverse == o.Reverse
}

func (m Mapped) String() string {
	strand := '+'
	if m.Reverse {
		strand = '-'
	}
	return fmt.Sprintf("%d-%d:%s:%d%c", m.SeqStart, m.SeqStart+m.Length, m.Chromosome, m.RefStart, strand)
}

// Start returns the contig offset.
func (u Unmapped) Start() int { return u.SeqStart }

// Len returns the segment length.
func (u Unmapped) Len() int { return u.Length }

func (u Unmapped) String() string {
	return fmt.Sprintf("%d-%d:unmapped", u.SeqStart, u.SeqStart+u.Length)
}

// Validate checks that the alignments tile a contig: each segment starts
// where the one before it ends.
func Validate(contig string, alignments []Alignment) error {
	for i := 1; i < len(alignments); i++ {
		prev, next := alignments[i-1], alignments[i]
		if want := prev.Start() + prev.Len(); next.Start() != want {
			return &ContigError{
				Contig: contig,
				Err: fmt.Errorf(
					"%w: segment %d starts at %d, segment %d ends at %d",
					ErrNotContiguous, i, next.Start(), i-1, want,
				),
			}
		}
	}
	return nil
}
