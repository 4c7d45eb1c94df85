package io

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	"github.com/jjtimmons/breakend/internal/phase"
)

// recordReader is satisfied by both sam.Reader and bam.Reader
type recordReader interface {
	Header() *sam.Header
	Read() (*sam.Record, error)
}

// Group is the records of a single contig or read, in file order.
type Group struct {
	Name    string
	Records []*sam.Record
}

// ReadRecords reads a SAM or BAM file (chosen by extension) into its header and records.
func ReadRecords(path string) (*sam.Header, []*sam.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open alignments %s: %w", path, err)
	}
	defer f.Close()

	var reader recordReader
	if strings.EqualFold(filepath.Ext(path), ".bam") {
		br, err := bam.NewReader(f, 0)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read bam %s: %w", path, err)
		}
		defer br.Close()
		reader = br
	} else {
		sr, err := sam.NewReader(f)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read sam %s: %w", path, err)
		}
		reader = sr
	}

	records, err := readAll(reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read records from %s: %w", path, err)
	}
	return reader.Header(), records, nil
}

// ParseSAM reads the header and records of SAM text.
func ParseSAM(r io.Reader) (*sam.Header, []*sam.Record, error) {
	sr, err := sam.NewReader(r)
	if err != nil {
		return nil, nil, err
	}
	records, err := readAll(sr)
	return sr.Header(), records, err
}

func readAll(reader recordReader) ([]*sam.Record, error) {
	var records []*sam.Record
	for {
		r, err := reader.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
}

// GroupByName groups records by read name. Groups are ordered by each
// name's first record.
func GroupByName(records []*sam.Record) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, r := range records {
		i, ok := index[r.Name]
		if !ok {
			i = len(groups)
			index[r.Name] = i
			groups = append(groups, Group{Name: r.Name})
		}
		groups[i].Records = append(groups[i].Records, r)
	}
	return groups
}

// Support turns reads aligned to contigs into assemblies: each reference
// in the header is an assembly, and the names of the mapped reads aligned
// to it are its support.
func Support(header *sam.Header, records []*sam.Record) []*phase.Assembly {
	var assemblies []*phase.Assembly
	byName := make(map[string]*phase.Assembly)
	for _, ref := range header.Refs() {
		a := phase.NewAssembly(ref.Name(), nil)
		byName[ref.Name()] = a
		assemblies = append(assemblies, a)
	}

	for _, r := range records {
		if r.Flags&sam.Unmapped != 0 || r.Ref == nil {
			continue
		}
		if a, ok := byName[r.Ref.Name()]; ok {
			a.AddSupport(r.Name)
		}
	}
	return assemblies
}
