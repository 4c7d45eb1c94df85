package anchor

import (
	"errors"
	"sort"
)

// ErrNoAnchors is returned when a contig doesn't have two segments to anchor a junction
var ErrNoAnchors = errors.New("fewer than two anchor candidates")

// Pick chooses the two segments that anchor a contig's junction: the mapped
// segment with the highest mapping quality (the longest on ties) and the best
// segment that isn't just the continuation of it across a short indel. They're
// returned in contig order.
func Pick(alignments []Alignment, opts Options) (left, right Mapped, err error) {
	var candidates []Mapped
	for _, a := range alignments {
		if m, ok := a.(Mapped); ok && m.MapQ >= opts.MinMapQ {
			candidates = append(candidates, m)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].MapQ != candidates[j].MapQ {
			return candidates[i].MapQ > candidates[j].MapQ
		}
		return candidates[i].Length > candidates[j].Length
	})

	for i := 1; i < len(candidates); i++ {
		first, second := candidates[0], candidates[i]
		if near(first, second, opts.MaxIndel) {
			continue
		}
		if second.SeqStart < first.SeqStart {
			return second, first, nil
		}
		return first, second, nil
	}
	return Mapped{}, Mapped{}, ErrNoAnchors
}

// near reports whether b continues a on the reference with less than maxIndel between them
func near(a, b Mapped, maxIndel int) bool {
	if !a.collinear(b) {
		return false
	}

	step := 1
	if b.SeqStart < a.SeqStart {
		step = -1
	}
	gap := refGap(a, b, step)
	return gap < maxIndel && -gap < maxIndel
}
