package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jjtimmons/breakend/internal/io"
	"github.com/jjtimmons/breakend/internal/pipeline"
	"github.com/jjtimmons/breakend/internal/seq"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// defaultQuality is the Phred quality of bases passed as arguments
const defaultQuality = 30

// decomposeCmd is for finding the short tandem repeats in sequences
var decomposeCmd = &cobra.Command{
	Use:   "decompose [sequence...]",
	Short: "Find the short tandem repeats in sequences",
	Long: `Find the short tandem repeats in sequences.

Each sequence is split into literal runs of bases and repeats of a 1-6bp unit,
written like (CA)12. A repeat is only collapsed when it spans at least the
minimum run length for its unit period (decompose.min-run-length in settings).

Sequences are read from the arguments or, with --in, from a FASTQ file.`,
	Example: `  breakend decompose GGTATATATATATATATATATTTTTTTTTTTTTTTTTTTT
  breakend decompose --in fragments.fq`,
	RunE: decomposeExec,
}

func init() {
	decomposeCmd.Flags().StringP("in", "i", "", "path to a FASTQ file of sequences")
	decomposeCmd.Flags().IntSlice("min-run-length", nil, "minimum run length per unit period, 1-6bp")

	viper.BindPFlag("decompose.min-run-length", decomposeCmd.Flags().Lookup("min-run-length"))

	RootCmd.AddCommand(decomposeCmd)
}

func decomposeExec(cmd *cobra.Command, args []string) error {
	conf, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	in, _ := cmd.Flags().GetString("in")
	if in == "" && len(args) == 0 {
		return fmt.Errorf("no sequences: pass them as arguments or with --in")
	}

	var ids []string
	var seqs []seq.Sequence
	if in != "" {
		frags, err := io.ReadFASTQ(in)
		if err != nil {
			return err
		}
		for _, f := range frags {
			ids = append(ids, f.ID)
			seqs = append(seqs, f.Seq)
		}
	}
	for i, a := range args {
		ids = append(ids, "seq"+strconv.Itoa(i+1))
		seqs = append(seqs, seq.Uniform(strings.ToUpper(a), defaultQuality))
	}

	nodes, err := pipeline.DecomposeAll(seqs, conf.Decomposer())
	if err != nil {
		return err
	}
	logger.Debug("decomposed sequences", zap.Int("count", len(seqs)))

	rows := make([][]string, len(nodes))
	for i, n := range nodes {
		rows[i] = []string{ids[i], strconv.Itoa(seqs[i].Len()), seq.Format(n)}
	}
	return io.WriteTable(cmd.OutOrStdout(), []string{"id", "length", "nodes"}, rows)
}
