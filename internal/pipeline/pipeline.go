// Package pipeline runs the per-contig steps over a batch in parallel: the
// merging of fragments into contigs, their decomposition and the anchoring
// of their breakpoints. Phasing runs once a whole batch is merged.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"

	"github.com/exascience/pargo/parallel"
	"github.com/jjtimmons/breakend/internal/anchor"
	"github.com/jjtimmons/breakend/internal/phase"
	"github.com/jjtimmons/breakend/internal/seq"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNoOverlap is returned when a fragment starts past the end of the contig built so far
var ErrNoOverlap = errors.New("fragment does not overlap the contig")

// Options are the settings of a batch.
type Options struct {
	// Anchor settings
	Anchor anchor.Options

	// Merge settings
	Merge seq.MergeOptions

	// Workers is the most contigs processed at once, GOMAXPROCS if < 1
	Workers int

	// Strict fails the batch on the first contig error rather than skipping the contig
	Strict bool
}

func (o Options) workers() int {
	if o.Workers < 1 {
		return runtime.GOMAXPROCS(0)
	}
	return o.Workers
}

// Fragment is a read, or read pair, that contributes to a contig.
type Fragment struct {
	ID string

	// Offset of the fragment's first base on the contig. Offsets are taken
	// before repeat lengths are reconciled: bases added by resolving jitter
	// in earlier merges move the fragments that start after them.
	Offset int

	Seq seq.Sequence
}

// FragmentGroup is the fragments of a single contig.
type FragmentGroup struct {
	Contig    string
	Fragments []Fragment
}

// Consensus is a merged contig.
type Consensus struct {
	Assembly *phase.Assembly
	Seq      seq.Sequence
}

// Batch is the contigs merged from a set of fragment groups and their phase sets.
type Batch struct {
	Contigs   []Consensus
	PhaseSets [][]*phase.Assembly
}

// Assemble merges every group into a contig, in parallel, and then phases
// the contigs. Phasing waits for every merge to finish since it needs the
// complete support of each contig.
func Assemble(ctx context.Context, log *zap.Logger, groups []FragmentGroup, opts Options) (Batch, error) {
	contigs, err := MergeAll(ctx, log, groups, opts)
	if err != nil {
		return Batch{}, err
	}

	assemblies := make([]*phase.Assembly, 0, len(contigs))
	for _, c := range contigs {
		if c.Assembly != nil {
			assemblies = append(assemblies, c.Assembly)
		}
	}

	sets := phase.Run(assemblies)
	log.Info("phased contigs", zap.Int("contigs", len(assemblies)), zap.Int("phaseSets", len(sets)))
	return Batch{Contigs: contigs, PhaseSets: sets}, nil
}

// MergeAll merges each group of fragments into a consensus contig. A group
// that fails to merge is logged and left empty, unless opts.Strict.
func MergeAll(ctx context.Context, log *zap.Logger, groups []FragmentGroup, opts Options) ([]Consensus, error) {
	contigs := make([]Consensus, len(groups))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())
	for i, group := range groups {
		i, group := i, group
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			c, err := merge(group, opts.Merge)
			if err != nil {
				if opts.Strict {
					return err
				}
				log.Warn("skipping contig", zap.String("contig", group.Contig), zap.Error(err))
				return nil
			}

			log.Debug("merged contig",
				zap.String("contig", group.Contig),
				zap.Int("fragments", len(group.Fragments)),
				zap.Int("length", c.Seq.Len()))
			contigs[i] = c
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return contigs, nil
}

// merge folds a group's fragments, in offset order, into one sequence
func merge(group FragmentGroup, opts seq.MergeOptions) (Consensus, error) {
	if len(group.Fragments) == 0 {
		return Consensus{}, fmt.Errorf("contig %s: no fragments", group.Contig)
	}

	frags := append([]Fragment(nil), group.Fragments...)
	sort.SliceStable(frags, func(i, j int) bool {
		return frags[i].Offset < frags[j].Offset
	})

	consensus := frags[0].Seq
	start := frags[0].Offset
	support := []string{frags[0].ID}

	// bases added to the contig by jitter so far
	shift := 0
	for _, f := range frags[1:] {
		supportIndex := f.Offset - start + shift
		if supportIndex >= consensus.Len() {
			return Consensus{}, fmt.Errorf(
				"contig %s: %w: %s at %d, contig ends at %d",
				group.Contig, ErrNoOverlap, f.ID, f.Offset, start+consensus.Len(),
			)
		}

		merged, err := seq.Merge(consensus, f.Seq, supportIndex, opts)
		if err != nil {
			return Consensus{}, fmt.Errorf("contig %s: failed to merge %s: %w", group.Contig, f.ID, err)
		}
		shift += merged.Len() - max(consensus.Len(), supportIndex+f.Seq.Len())
		consensus = merged
		support = append(support, f.ID)
	}

	return Consensus{
		Assembly: phase.NewAssembly(group.Contig, consensus.Bases, support...),
		Seq:      consensus,
	}, nil
}

// Contig is the alignment of a single assembled contig.
type Contig struct {
	Name       string
	Alignments []anchor.Alignment
}

// Breakend is the anchored junction of a contig. Err is set if the contig was skipped.
type Breakend struct {
	Contig  string
	Left    anchor.Mapped
	Right   anchor.Mapped
	Anchors anchor.Anchors
	Err     error
}

// AnchorAll picks the anchors of each contig and finds their trusted CIGARs, in parallel.
// Results are in the order of contigs.
func AnchorAll(ctx context.Context, log *zap.Logger, contigs []Contig, opts Options) ([]Breakend, error) {
	results := make([]Breakend, len(contigs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())
	for i, c := range contigs {
		i, c := i, c
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			b, err := anchorContig(c, opts.Anchor)
			if err != nil {
				if opts.Strict {
					return err
				}
				log.Warn("skipping contig", zap.String("contig", c.Name), zap.Error(err))
				b = Breakend{Contig: c.Name, Err: err}
			}
			results[i] = b
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func anchorContig(c Contig, opts anchor.Options) (Breakend, error) {
	left, right, err := anchor.Pick(c.Alignments, opts)
	if err != nil {
		return Breakend{}, &anchor.ContigError{Contig: c.Name, Err: err}
	}

	anchors, err := anchor.Cigar(c.Name, c.Alignments, left, right, opts)
	if err != nil {
		return Breakend{}, err
	}
	return Breakend{Contig: c.Name, Left: left, Right: right, Anchors: anchors}, nil
}

// DecomposeAll decomposes a batch of sequences in parallel.
func DecomposeAll(seqs []seq.Sequence, d seq.Decomposer) ([][]seq.Node, error) {
	if len(seqs) == 0 {
		return nil, nil
	}

	nodes := make([][]seq.Node, len(seqs))
	errs := make([]error, len(seqs))
	parallel.Range(0, len(seqs), 0, func(low, high int) {
		for i := low; i < high; i++ {
			nodes[i], errs[i] = d.Decompose(seqs[i].Bases, seqs[i].Quals)
		}
	})

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("sequence %d: %w", i, err)
		}
	}
	return nodes, nil
}
