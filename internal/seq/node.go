package seq

import (
	"strconv"
	"strings"
)

// Node is one element of a decomposed sequence: either a Literal stretch
// of bases or a Repeat of a short unit.
type Node interface {
	// Content is the bases the node stands for
	Content() string

	// Len is len(Content())
	Len() int

	String() string

	node()
}

// Literal is a stretch of bases without a qualifying tandem repeat.
type Literal struct {
	Bases string
}

// Repeat is Count whole copies of a primitive Unit, eg (TA)7.
type Repeat struct {
	Unit  string
	Count int
}

func (Literal) node() {}
func (Repeat) node()  {}

// Content returns the literal's bases.
func (l Literal) Content() string { return l.Bases }

// Len returns the number of bases.
func (l Literal) Len() int { return len(l.Bases) }

func (l Literal) String() string { return l.Bases }

// Content returns the repeat expanded to its bases.
func (r Repeat) Content() string { return strings.Repeat(r.Unit, r.Count) }

// Len returns the number of bases the repeat spans.
func (r Repeat) Len() int { return len(r.Unit) * r.Count }

func (r Repeat) String() string {
	return "(" + r.Unit + ")" + strconv.Itoa(r.Count)
}

// Reconstruct concatenates the content of the nodes.
func Reconstruct(nodes []Node) string {
	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(n.Content())
	}
	return b.String()
}

// Format joins the nodes with spaces, eg "GCCTGGC (TA)7 (T)20 AGTAG".
func Format(nodes []Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, " ")
}
