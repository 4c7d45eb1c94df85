// Package seq is for repeat-aware decomposition and consensus merging of
// the base/quality sequences that make up candidate breakpoint contigs.
package seq

import (
	"errors"
	"fmt"
)

// MaxQuality is the highest Phred score that still encodes as printable
// Sanger FASTQ ('~').
const MaxQuality = 93

var (
	// ErrEmpty is returned for a sequence without bases
	ErrEmpty = errors.New("empty sequence")

	// ErrLengthMismatch is returned when bases and qualities differ in length
	ErrLengthMismatch = errors.New("bases and qualities differ in length")
)

// Sequence is a run of bases with a Phred quality (not ASCII offset) per base.
type Sequence struct {
	// Bases of the sequence, eg "ACGT"
	Bases []byte

	// Quals are the per-base Phred scores, same length as Bases
	Quals []byte
}

// New creates a Sequence from its bases and qualities. The slices are copied.
func New(bases, quals []byte) (Sequence, error) {
	s := Sequence{
		Bases: append([]byte(nil), bases...),
		Quals: append([]byte(nil), quals...),
	}
	return s, s.validate()
}

// Uniform returns a Sequence of the bases where every base has quality q.
func Uniform(bases string, q byte) Sequence {
	quals := make([]byte, len(bases))
	for i := range quals {
		quals[i] = q
	}
	return Sequence{Bases: []byte(bases), Quals: quals}
}

// Len is the number of bases in the sequence.
func (s Sequence) Len() int {
	return len(s.Bases)
}

// String returns the bases.
func (s Sequence) String() string {
	return string(s.Bases)
}

// Slice returns the bases and qualities in [start, end). It shares memory with s.
func (s Sequence) Slice(start, end int) Sequence {
	return Sequence{Bases: s.Bases[start:end], Quals: s.Quals[start:end]}
}

func (s Sequence) validate() error {
	return validate(s.Bases, s.Quals)
}

func validate(bases, quals []byte) error {
	if len(bases) == 0 {
		return ErrEmpty
	}
	if len(bases) != len(quals) {
		return fmt.Errorf("%w: %d bases, %d qualities", ErrLengthMismatch, len(bases), len(quals))
	}
	return nil
}
