package cmd

import (
	"context"
	"fmt"
	goio "io"
	"os"
	"strings"

	"github.com/jjtimmons/breakend/internal/io"
	"github.com/jjtimmons/breakend/internal/pipeline"
	"github.com/jjtimmons/breakend/internal/seq"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// mergeCmd is for merging overlapping sequences into consensus contigs
var mergeCmd = &cobra.Command{
	Use:   "merge [left] [right]",
	Short: "Merge overlapping sequences into a consensus",
	Long: `Merge overlapping sequences into a consensus.

The right sequence starts at --support-index on the left sequence. Where they
overlap, bases that agree have their qualities summed and, where they disagree,
the higher quality base is kept. A short tandem repeat that differs by whole
copies between the two is kept at its longer length.

With --in, fragments are read from a FASTQ file and grouped by the "contig="
tag of their description. Each group is merged in order of its "offset=" tag
and the contigs are written as FASTQ.`,
	Example: `  breakend merge ACGTTGCATGCCAGTACGGA TGCCAGTACGGATCCTAGGC --support-index 8
  breakend merge --in fragments.fq --out contigs.fq`,
	RunE: mergeExec,
}

func init() {
	mergeCmd.Flags().IntP("support-index", "s", 0, "position of the right sequence's first base on the left sequence")
	mergeCmd.Flags().StringP("in", "i", "", "path to a FASTQ file of fragments")
	mergeCmd.Flags().StringP("out", "o", "", "path to write contigs to (default stdout)")
	mergeCmd.Flags().Int("max-quality", 0, "highest quality of a merged base")

	viper.BindPFlag("merge.max-quality", mergeCmd.Flags().Lookup("max-quality"))

	RootCmd.AddCommand(mergeCmd)
}

func mergeExec(cmd *cobra.Command, args []string) error {
	conf, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	out := cmd.OutOrStdout()
	if path, _ := cmd.Flags().GetString("out"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		defer f.Close()
		out = f
	}

	in, _ := cmd.Flags().GetString("in")
	if in != "" {
		groups, err := readGroups(in)
		if err != nil {
			return err
		}

		contigs, err := pipeline.MergeAll(ctx(cmd), logger, groups, conf.PipelineOptions())
		if err != nil {
			return err
		}
		return writeContigs(out, contigs)
	}

	if len(args) != 2 {
		return fmt.Errorf("expected a left and right sequence, got %d args", len(args))
	}

	supportIndex, _ := cmd.Flags().GetInt("support-index")
	left := seq.Uniform(strings.ToUpper(args[0]), defaultQuality)
	right := seq.Uniform(strings.ToUpper(args[1]), defaultQuality)
	merged, err := seq.Merge(left, right, supportIndex, conf.MergeOptions())
	if err != nil {
		return err
	}
	logger.Debug("merged sequences", zap.Int("length", merged.Len()))

	return io.WriteFASTQ(out, []string{"merged"}, []seq.Sequence{merged})
}

// readGroups reads fragments from a FASTQ file and groups them by contig,
// in order of each contig's first fragment. Untagged fragments are contigs of their own
func readGroups(path string) ([]pipeline.FragmentGroup, error) {
	frags, err := io.ReadFASTQ(path)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	var groups []pipeline.FragmentGroup
	for _, f := range frags {
		contig := f.Contig
		if contig == "" {
			contig = f.ID
		}

		i, ok := index[contig]
		if !ok {
			i = len(groups)
			index[contig] = i
			groups = append(groups, pipeline.FragmentGroup{Contig: contig})
		}
		groups[i].Fragments = append(groups[i].Fragments, pipeline.Fragment{
			ID:     f.ID,
			Offset: f.Offset,
			Seq:    f.Seq,
		})
	}
	return groups, nil
}

// writeContigs writes the contigs that merged, skipping those that didn't
func writeContigs(w goio.Writer, contigs []pipeline.Consensus) error {
	var ids []string
	var seqs []seq.Sequence
	for _, c := range contigs {
		if c.Assembly == nil {
			continue
		}
		ids = append(ids, c.Assembly.Name)
		seqs = append(seqs, c.Seq)
	}
	return io.WriteFASTQ(w, ids, seqs)
}

// ctx returns the command's context, or the background context outside of Execute
func ctx(cmd *cobra.Command) context.Context {
	if c := cmd.Context(); c != nil {
		return c
	}
	return context.Background()
}
