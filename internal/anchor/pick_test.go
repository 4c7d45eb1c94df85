package anchor

import (
	"errors"
	"testing"
)

func Test_Pick(t *testing.T) {
	a := Mapped{Chromosome: "chr1", RefStart: 1000, SeqStart: 0, Length: 100, MapQ: 60}
	aSmallDel := Mapped{Chromosome: "chr1", RefStart: 1103, SeqStart: 100, Length: 90, MapQ: 60}
	b := Mapped{Chromosome: "chr2", RefStart: 5000, SeqStart: 190, Length: 80, MapQ: 60}
	lowQ := Mapped{Chromosome: "chr3", RefStart: 100, SeqStart: 270, Length: 150, MapQ: 3}

	tests := []struct {
		name        string
		alignments  []Alignment
		opts        Options
		left, right Mapped
		err         error
	}{
		{
			"longest two",
			[]Alignment{a, Unmapped{100, 10}, Mapped{Chromosome: "chr2", RefStart: 5000, SeqStart: 110, Length: 80, MapQ: 60}},
			DefaultOptions(),
			a, Mapped{Chromosome: "chr2", RefStart: 5000, SeqStart: 110, Length: 80, MapQ: 60},
			nil,
		},
		{
			"continuation across a small deletion is skipped",
			[]Alignment{a, aSmallDel, b},
			DefaultOptions(),
			a, b,
			nil,
		},
		{
			"mapping quality before length",
			[]Alignment{a, aSmallDel, b, lowQ},
			DefaultOptions(),
			a, b,
			nil,
		},
		{
			"low mapping quality excluded",
			[]Alignment{a, lowQ},
			Options{MaxIndel: DefaultMaxIndel, MinMapQ: 20},
			Mapped{}, Mapped{},
			ErrNoAnchors,
		},
		{
			"single segment",
			[]Alignment{Unmapped{0, 20}, a},
			DefaultOptions(),
			Mapped{}, Mapped{},
			ErrNoAnchors,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			left, right, err := Pick(tt.alignments, tt.opts)
			if !errors.Is(err, tt.err) {
				t.Fatalf("Pick() err = %v, want %v", err, tt.err)
			}
			if left != tt.left || right != tt.right {
				t.Errorf("Pick() = %v, %v, want %v, %v", left, right, tt.left, tt.right)
			}
		})
	}
}
