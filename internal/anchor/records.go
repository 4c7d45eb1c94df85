package anchor

import (
	"errors"
	"fmt"
	"sort"

	"github.com/biogo/hts/sam"
)

var (
	// ErrNoRecords is returned when none of a contig's records are mapped
	ErrNoRecords = errors.New("no mapped records")

	// ErrContigLength is returned when a contig's records imply different lengths
	ErrContigLength = errors.New("records disagree on contig length")
)

// FromRecords builds the tiling alignment of a contig from its primary and
// supplementary SAM records.
//
// Each M, = or X operation becomes a Mapped segment in contig coordinates
// (records on the reverse strand are mirrored). Contig bases that no record
// aligns, including insertions, become Unmapped segments. Where records
// overlap on the contig the earlier segment keeps the shared bases.
func FromRecords(records []*sam.Record) ([]Alignment, error) {
	var segments []Mapped
	length := -1
	name := ""

	for _, r := range records {
		if r.Flags&(sam.Unmapped|sam.Secondary) != 0 || r.Ref == nil {
			continue
		}

		n := queryLength(r.Cigar)
		if length >= 0 && n != length {
			return nil, &ContigError{
				Contig: r.Name,
				Err:    fmt.Errorf("%w: %d and %d", ErrContigLength, length, n),
			}
		}
		length, name = n, r.Name
		segments = append(segments, blocks(r, n)...)
	}
	if length < 0 {
		return nil, ErrNoRecords
	}

	sort.SliceStable(segments, func(i, j int) bool {
		if segments[i].SeqStart != segments[j].SeqStart {
			return segments[i].SeqStart < segments[j].SeqStart
		}
		return segments[i].Length > segments[j].Length
	})

	var alignments []Alignment
	pos := 0
	for _, m := range segments {
		end := m.SeqStart + m.Length
		if end <= pos {
			continue
		}

		if trim := pos - m.SeqStart; trim > 0 {
			// on the reverse strand the first contig bases are the last reference bases
			if !m.Reverse {
				m.RefStart += trim
			}
			m.SeqStart = pos
			m.Length -= trim
		}

		if m.SeqStart > pos {
			alignments = append(alignments, Unmapped{SeqStart: pos, Length: m.SeqStart - pos})
		}
		alignments = append(alignments, m)
		pos = end
	}
	if pos < length {
		alignments = append(alignments, Unmapped{SeqStart: pos, Length: length - pos})
	}

	return alignments, Validate(name, alignments)
}

// queryLength is the length of the full contig, hard clips included
func queryLength(cigar sam.Cigar) int {
	n := 0
	for _, co := range cigar {
		if co.Type() == sam.CigarHardClipped || co.Type().Consumes().Query > 0 {
			n += co.Len()
		}
	}
	return n
}

// blocks splits a record into its ungapped aligned blocks
func blocks(r *sam.Record, length int) []Mapped {
	reverse := r.Flags&sam.Reverse != 0
	q, ref := 0, r.Pos

	var out []Mapped
	for _, co := range r.Cigar {
		n := co.Len()
		switch co.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			start := q
			if reverse {
				start = length - q - n
			}
			out = append(out, Mapped{
				Chromosome: r.Ref.Name(),
				RefStart:   ref,
				SeqStart:   start,
				Length:     n,
				Reverse:    reverse,
				MapQ:       int(r.MapQ),
			})
			q += n
			ref += n
		case sam.CigarInsertion, sam.CigarSoftClipped, sam.CigarHardClipped:
			q += n
		case sam.CigarDeletion, sam.CigarSkipped:
			ref += n
		}
	}
	return out
}
