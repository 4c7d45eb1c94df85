package anchor

import (
	"errors"
	"testing"
)

func Test_Cigar(t *testing.T) {
	left := Mapped{Chromosome: "chr1", RefStart: 1000, SeqStart: 0, Length: 100, MapQ: 60}
	right := Mapped{Chromosome: "chr2", RefStart: 5000, SeqStart: 100, Length: 200, MapQ: 60}

	// shift moves a segment along the contig
	shift := func(m Mapped, by int) Mapped {
		m.SeqStart += by
		return m
	}

	type want struct {
		left, right               string
		leftRefLen, rightRefLen   int
		leftReadLen, rightReadLen int
	}
	tests := []struct {
		name        string
		alignments  []Alignment
		left, right Alignment
		want        want
	}{
		{
			"contiguous anchors",
			[]Alignment{left, right},
			left, right,
			want{"100M", "200M", 100, 200, 100, 200},
		},
		{
			"soft clip before the left anchor",
			[]Alignment{Unmapped{0, 50}, shift(left, 50), shift(right, 50)},
			shift(left, 50), shift(right, 50),
			want{"50S100M", "200M", 100, 200, 100, 200},
		},
		{
			"soft clip after the right anchor",
			[]Alignment{left, right, Unmapped{300, 50}},
			left, right,
			want{"100M", "200M50S", 100, 200, 100, 200},
		},
		{
			"small deletion between anchors",
			[]Alignment{
				left,
				Mapped{Chromosome: "chr1", RefStart: 1105, SeqStart: 100, Length: 50},
				shift(right, 50),
			},
			left, shift(right, 50),
			want{"100M5D50M", "200M", 155, 200, 150, 200},
		},
		{
			"large deletion between anchors",
			[]Alignment{
				left,
				Mapped{Chromosome: "chr1", RefStart: 1120, SeqStart: 100, Length: 50},
				shift(right, 50),
			},
			left, shift(right, 50),
			want{"100M", "200M", 100, 200, 100, 200},
		},
		{
			"deletion at the threshold",
			[]Alignment{
				left,
				Mapped{Chromosome: "chr1", RefStart: 1110, SeqStart: 100, Length: 50},
				shift(right, 50),
			},
			left, shift(right, 50),
			want{"100M", "200M", 100, 200, 100, 200},
		},
		{
			"small insertion between anchors",
			[]Alignment{
				left,
				Unmapped{100, 5},
				Mapped{Chromosome: "chr1", RefStart: 1100, SeqStart: 105, Length: 50},
				shift(right, 55),
			},
			left, shift(right, 55),
			want{"100M5I50M", "200M", 150, 200, 155, 200},
		},
		{
			"large insertion between anchors",
			[]Alignment{
				left,
				Unmapped{100, 30},
				Mapped{Chromosome: "chr1", RefStart: 1100, SeqStart: 130, Length: 50},
				shift(right, 80),
			},
			left, shift(right, 80),
			want{"100M", "200M", 100, 200, 100, 200},
		},
		{
			"insertion between collinear anchors",
			[]Alignment{
				left,
				Unmapped{100, 30},
				Mapped{Chromosome: "chr1", RefStart: 1100, SeqStart: 130, Length: 200},
			},
			left, Mapped{Chromosome: "chr1", RefStart: 1100, SeqStart: 130, Length: 200},
			want{"100M", "200M", 100, 200, 100, 200},
		},
		{
			"untemplated sequence at the junction",
			[]Alignment{left, Unmapped{100, 30}, shift(right, 30)},
			left, shift(right, 30),
			want{"100M30S", "30S200M", 100, 200, 100, 200},
		},
		{
			"reference overlap read as an insertion",
			[]Alignment{
				left,
				Mapped{Chromosome: "chr1", RefStart: 1097, SeqStart: 100, Length: 50},
				shift(right, 50),
			},
			left, shift(right, 50),
			want{"100M3I47M", "200M", 147, 200, 150, 200},
		},
		{
			"anchor extended away from the junction",
			[]Alignment{
				Mapped{Chromosome: "chr1", RefStart: 900, SeqStart: 0, Length: 100},
				shift(left, 100),
				shift(right, 100),
				Mapped{Chromosome: "chr2", RefStart: 5202, SeqStart: 400, Length: 40},
				Unmapped{440, 20},
			},
			shift(left, 100), shift(right, 100),
			want{"200M", "200M2D40M20S", 200, 242, 200, 240},
		},
		{
			"other chromosome past the anchor",
			[]Alignment{
				Mapped{Chromosome: "chr5", RefStart: 900, SeqStart: 0, Length: 100},
				shift(left, 100),
				shift(right, 100),
			},
			shift(left, 100), shift(right, 100),
			want{"100M", "200M", 100, 200, 100, 200},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Cigar("contig1", tt.alignments, tt.left, tt.right, DefaultOptions())
			if err != nil {
				t.Fatal(err)
			}

			if s := got.Left.Cigar.String(); s != tt.want.left {
				t.Errorf("Cigar() left = %s, want %s", s, tt.want.left)
			}
			if s := got.Right.Cigar.String(); s != tt.want.right {
				t.Errorf("Cigar() right = %s, want %s", s, tt.want.right)
			}
			if got.Left.RefLen != tt.want.leftRefLen || got.Right.RefLen != tt.want.rightRefLen {
				t.Errorf("Cigar() ref lengths = %d/%d, want %d/%d",
					got.Left.RefLen, got.Right.RefLen, tt.want.leftRefLen, tt.want.rightRefLen)
			}
			if got.Left.ReadLen != tt.want.leftReadLen || got.Right.ReadLen != tt.want.rightReadLen {
				t.Errorf("Cigar() read lengths = %d/%d, want %d/%d",
					got.Left.ReadLen, got.Right.ReadLen, tt.want.leftReadLen, tt.want.rightReadLen)
			}
		})
	}
}

func Test_Cigar_reverse(t *testing.T) {
	// the contig runs from chr1:2100 down to chr1:1945 on the reverse strand
	left := Mapped{Chromosome: "chr1", RefStart: 2000, SeqStart: 50, Length: 100, Reverse: true}
	small := Mapped{Chromosome: "chr1", RefStart: 1945, SeqStart: 150, Length: 50, Reverse: true}
	right := Mapped{Chromosome: "chr3", RefStart: 300, SeqStart: 200, Length: 80}

	alignments := []Alignment{Unmapped{0, 50}, left, small, right}
	got, err := Cigar("contig2", alignments, left, right, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	if s := got.Left.Cigar.String(); s != "50M5D100M50S" {
		t.Errorf("Cigar() left = %s, want 50M5D100M50S", s)
	}
	if got.Left.RefLen != 155 {
		t.Errorf("Cigar() left ref length = %d, want 155", got.Left.RefLen)
	}
	if s := got.Right.Cigar.String(); s != "80M" {
		t.Errorf("Cigar() right = %s, want 80M", s)
	}
}

func Test_Cigar_errors(t *testing.T) {
	left := Mapped{Chromosome: "chr1", RefStart: 1000, SeqStart: 0, Length: 100}
	right := Mapped{Chromosome: "chr2", RefStart: 5000, SeqStart: 100, Length: 200}
	gapped := Mapped{Chromosome: "chr2", RefStart: 5000, SeqStart: 110, Length: 200}
	clip := Unmapped{300, 20}

	tests := []struct {
		name        string
		alignments  []Alignment
		left, right Alignment
		want        error
	}{
		{"gap between segments", []Alignment{left, gapped}, left, gapped, ErrNotContiguous},
		{"left anchor missing", []Alignment{left, right}, gapped, right, ErrAnchorNotFound},
		{"right anchor missing", []Alignment{left, right}, left, nil, ErrAnchorNotFound},
		{"anchors out of order", []Alignment{left, right}, right, left, ErrAnchorOrder},
		{"same anchor twice", []Alignment{left, right}, left, left, ErrAnchorOrder},
		{"unmapped anchor", []Alignment{left, right, clip}, left, clip, ErrAnchorUnmapped},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Cigar("contig7", tt.alignments, tt.left, tt.right, DefaultOptions())
			if !errors.Is(err, tt.want) {
				t.Fatalf("Cigar() err = %v, want %v", err, tt.want)
			}

			var contigErr *ContigError
			if !errors.As(err, &contigErr) || contigErr.Contig != "contig7" {
				t.Errorf("Cigar() err = %v, want it to name contig7", err)
			}
		})
	}
}
