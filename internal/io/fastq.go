// Package io is for reading fragments and alignments from, and writing
// contigs and results to, the filesystem.
package io

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio/fastq"
	"github.com/biogo/biogo/seq/linear"
	"github.com/jjtimmons/breakend/internal/seq"
)

// Fragment is a named sequence read from a FASTQ file.
type Fragment struct {
	// ID is the read name
	ID string

	// Contig is the contig the fragment belongs to, from a "contig=" description tag
	Contig string

	// Offset is the fragment's position on its contig, from an "offset=" description tag
	Offset int

	// Seq holds the bases and Phred qualities
	Seq seq.Sequence
}

// ReadFASTQ reads every record of a FASTQ file.
func ReadFASTQ(path string) ([]Fragment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fastq %s: %w", path, err)
	}
	defer f.Close()

	frags, err := ParseFASTQ(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read fastq %s: %w", path, err)
	}
	return frags, nil
}

// ParseFASTQ reads Sanger encoded FASTQ records.
func ParseFASTQ(r io.Reader) ([]Fragment, error) {
	reader := fastq.NewReader(r, linear.NewQSeq("", nil, alphabet.DNA, alphabet.Sanger))

	var frags []Fragment
	for {
		s, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		q := s.(*linear.QSeq)
		frag := Fragment{
			ID: q.ID,
			Seq: seq.Sequence{
				Bases: make([]byte, len(q.Seq)),
				Quals: make([]byte, len(q.Seq)),
			},
		}
		for i, ql := range q.Seq {
			frag.Seq.Bases[i] = byte(ql.L)
			frag.Seq.Quals[i] = byte(ql.Q)
		}
		if err := frag.parseTags(q.Description()); err != nil {
			return nil, fmt.Errorf("fragment %s: %w", q.ID, err)
		}

		frags = append(frags, frag)
	}
	return frags, nil
}

// parseTags reads "key=value" fields from a FASTQ description line
func (f *Fragment) parseTags(desc string) error {
	for _, field := range strings.Fields(desc) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}

		switch key {
		case "contig":
			f.Contig = value
		case "offset":
			offset, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("failed to parse offset %q: %w", value, err)
			}
			f.Offset = offset
		}
	}
	return nil
}

// WriteFASTQ writes sequences as Sanger encoded FASTQ records. ids and seqs are parallel.
func WriteFASTQ(w io.Writer, ids []string, seqs []seq.Sequence) error {
	writer := fastq.NewWriter(w)
	for i, s := range seqs {
		qs := make([]alphabet.QLetter, s.Len())
		for j := range s.Bases {
			qs[j] = alphabet.QLetter{L: alphabet.Letter(s.Bases[j]), Q: alphabet.Qphred(s.Quals[j])}
		}

		if _, err := writer.Write(linear.NewQSeq(ids[i], qs, alphabet.DNA, alphabet.Sanger)); err != nil {
			return fmt.Errorf("failed to write %s: %w", ids[i], err)
		}
	}
	return nil
}
