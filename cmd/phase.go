package cmd

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jjtimmons/breakend/internal/io"
	"github.com/jjtimmons/breakend/internal/phase"
	"github.com/jjtimmons/breakend/internal/pipeline"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// phaseCmd is for grouping contigs that share supporting fragments
var phaseCmd = &cobra.Command{
	Use:   "phase [file]",
	Short: "Group contigs that share supporting fragments into phase sets",
	Long: `Group contigs that share supporting fragments into phase sets.

Two contigs are in the same phase set if they share a supporting fragment, or
are linked through a chain of contigs that do. The input is either:

  - a SAM/BAM file of reads aligned to contigs: each reference is a contig and
    the names of the reads mapped to it are its support
  - a FASTQ file of fragments, tagged with "contig=" and "offset=", that are
    first merged into contigs (see "breakend merge")`,
	Example: `  breakend phase reads.bam
  breakend phase fragments.fq`,
	Args: cobra.ExactArgs(1),
	RunE: phaseExec,
}

func init() {
	RootCmd.AddCommand(phaseCmd)
}

func phaseExec(cmd *cobra.Command, args []string) error {
	conf, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	var sets [][]*phase.Assembly
	switch strings.ToLower(filepath.Ext(args[0])) {
	case ".sam", ".bam":
		header, records, err := io.ReadRecords(args[0])
		if err != nil {
			return err
		}
		sets = phase.Run(io.Support(header, records))
	case ".fq", ".fastq":
		groups, err := readGroups(args[0])
		if err != nil {
			return err
		}
		batch, err := pipeline.Assemble(ctx(cmd), logger, groups, conf.PipelineOptions())
		if err != nil {
			return err
		}
		sets = batch.PhaseSets
	default:
		return fmt.Errorf("unknown file type %s: expected SAM, BAM or FASTQ", args[0])
	}
	logger.Debug("phase sets", zap.Int("count", len(sets)))

	rows := make([][]string, len(sets))
	for i, set := range sets {
		var names []string
		support := make(map[string]bool)
		for _, a := range set {
			names = append(names, a.Name)
			for _, s := range a.Support() {
				support[s] = true
			}
		}
		rows[i] = []string{strconv.Itoa(i + 1), strings.Join(names, ","), strconv.Itoa(len(support))}
	}
	return io.WriteTable(cmd.OutOrStdout(), []string{"set", "contigs", "fragments"}, rows)
}
