// Package phase groups assembled contigs into phase sets: contigs that are
// linked, directly or through other contigs, by a shared supporting fragment.
package phase

import (
	"sort"
)

// Assembly is an assembled contig and the fragments that support it.
type Assembly struct {
	// Name of the contig, unique within a batch
	Name string

	// Bases is the consensus sequence
	Bases []byte

	// support is the set of supporting fragment (read) names
	support map[string]struct{}
}

// NewAssembly creates an Assembly with an initial set of supporting fragments.
func NewAssembly(name string, bases []byte, support ...string) *Assembly {
	a := &Assembly{
		Name:    name,
		Bases:   bases,
		support: make(map[string]struct{}, len(support)),
	}
	a.AddSupport(support...)
	return a
}

// AddSupport adds fragments to the assembly's support.
func (a *Assembly) AddSupport(fragments ...string) {
	if a.support == nil {
		a.support = make(map[string]struct{}, len(fragments))
	}
	for _, f := range fragments {
		a.support[f] = struct{}{}
	}
}

// Supports returns whether the fragment supports the assembly.
func (a *Assembly) Supports(fragment string) bool {
	_, ok := a.support[fragment]
	return ok
}

// Support returns the supporting fragments, sorted.
func (a *Assembly) Support() []string {
	out := make([]string, 0, len(a.support))
	for f := range a.support {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// disjointSet is a union-find over the indices of an arena
type disjointSet struct {
	parent []int
	size   []int
}

func newDisjointSet(n int) *disjointSet {
	d := &disjointSet{parent: make([]int, n), size: make([]int, n)}
	for i := range d.parent {
		d.parent[i] = i
		d.size[i] = 1
	}
	return d
}

func (d *disjointSet) find(i int) int {
	for d.parent[i] != i {
		d.parent[i] = d.parent[d.parent[i]]
		i = d.parent[i]
	}
	return i
}

func (d *disjointSet) union(i, j int) {
	ri, rj := d.find(i), d.find(j)
	if ri == rj {
		return
	}
	if d.size[ri] < d.size[rj] {
		ri, rj = rj, ri
	}
	d.parent[rj] = ri
	d.size[ri] += d.size[rj]
}

// Run partitions the assemblies into phase sets. Two assemblies are in the
// same set if they're connected by a chain of shared supporting fragments.
//
// Sets are ordered by the first appearance of any of their members in the
// input and members keep their input order. An assembly passed more than
// once is only returned once. Assemblies are told apart by identity, not
// Name: distinct assemblies that share a name are phased independently.
func Run(assemblies []*Assembly) [][]*Assembly {
	// arena of distinct assemblies
	arena := make([]*Assembly, 0, len(assemblies))
	seen := make(map[*Assembly]bool, len(assemblies))
	for _, a := range assemblies {
		if a == nil || seen[a] {
			continue
		}
		seen[a] = true
		arena = append(arena, a)
	}

	sets := newDisjointSet(len(arena))
	owner := make(map[string]int) // fragment -> first assembly it supports
	for i, a := range arena {
		for f := range a.support {
			if j, ok := owner[f]; ok {
				sets.union(i, j)
			} else {
				owner[f] = i
			}
		}
	}

	partition := [][]*Assembly{}
	setIndex := make(map[int]int) // root -> index in partition
	for i, a := range arena {
		root := sets.find(i)
		k, ok := setIndex[root]
		if !ok {
			k = len(partition)
			setIndex[root] = k
			partition = append(partition, nil)
		}
		partition[k] = append(partition[k], a)
	}
	return partition
}
