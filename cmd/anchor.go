package cmd

import (
	"strconv"

	"github.com/jjtimmons/breakend/internal/anchor"
	"github.com/jjtimmons/breakend/internal/io"
	"github.com/jjtimmons/breakend/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// anchorCmd is for finding the trusted alignment on either side of each contig's junction
var anchorCmd = &cobra.Command{
	Use:   "anchor [file]",
	Short: "Find the reference alignment on either side of each contig's breakpoint",
	Long: `Find the reference alignment on either side of each contig's breakpoint.

The input is a SAM or BAM file of contigs split-aligned to the reference, with
a primary and supplementary records per contig. Two of each contig's segments
are picked as anchors: the one with the best mapping quality and the best one
that isn't just its continuation across a small indel.

From each anchor the alignment is extended, away from the junction, through
indels shorter than --max-indel and reported as a CIGAR on that anchor's strand.`,
	Example: `  breakend anchor contigs.bam
  breakend anchor contigs.sam --max-indel 5 --json anchors.json`,
	Args: cobra.ExactArgs(1),
	RunE: anchorExec,
}

// anchorResult is a row of anchor output
type anchorResult struct {
	Contig       string `json:"contig"`
	Left         string `json:"left,omitempty"`
	LeftCigar    string `json:"leftCigar,omitempty"`
	LeftRefLen   int    `json:"leftRefLen,omitempty"`
	LeftReadLen  int    `json:"leftReadLen,omitempty"`
	Right        string `json:"right,omitempty"`
	RightCigar   string `json:"rightCigar,omitempty"`
	RightRefLen  int    `json:"rightRefLen,omitempty"`
	RightReadLen int    `json:"rightReadLen,omitempty"`
	Error        string `json:"error,omitempty"`
}

func init() {
	anchorCmd.Flags().Int("max-indel", 0, "shortest indel that ends an anchor's alignment")
	anchorCmd.Flags().Int("min-mapq", 0, "lowest mapping quality of an anchor")
	anchorCmd.Flags().StringP("json", "j", "", "path to write results to as JSON")

	viper.BindPFlag("anchor.max-indel", anchorCmd.Flags().Lookup("max-indel"))
	viper.BindPFlag("anchor.min-mapq", anchorCmd.Flags().Lookup("min-mapq"))

	RootCmd.AddCommand(anchorCmd)
}

func anchorExec(cmd *cobra.Command, args []string) error {
	conf, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	_, records, err := io.ReadRecords(args[0])
	if err != nil {
		return err
	}

	opts := conf.PipelineOptions()
	var contigs []pipeline.Contig
	var results []anchorResult
	for _, g := range io.GroupByName(records) {
		alignments, err := anchor.FromRecords(g.Records)
		if err != nil {
			if opts.Strict {
				return err
			}
			logger.Warn("skipping contig", zap.String("contig", g.Name), zap.Error(err))
			results = append(results, anchorResult{Contig: g.Name, Error: err.Error()})
			continue
		}
		contigs = append(contigs, pipeline.Contig{Name: g.Name, Alignments: alignments})
	}

	breakends, err := pipeline.AnchorAll(ctx(cmd), logger, contigs, opts)
	if err != nil {
		return err
	}
	logger.Debug("anchored contigs", zap.Int("contigs", len(breakends)))

	for _, b := range breakends {
		if b.Err != nil {
			results = append(results, anchorResult{Contig: b.Contig, Error: b.Err.Error()})
			continue
		}
		results = append(results, anchorResult{
			Contig:       b.Contig,
			Left:         b.Left.String(),
			LeftCigar:    b.Anchors.Left.Cigar.String(),
			LeftRefLen:   b.Anchors.Left.RefLen,
			LeftReadLen:  b.Anchors.Left.ReadLen,
			Right:        b.Right.String(),
			RightCigar:   b.Anchors.Right.Cigar.String(),
			RightRefLen:  b.Anchors.Right.RefLen,
			RightReadLen: b.Anchors.Right.ReadLen,
		})
	}

	if path, _ := cmd.Flags().GetString("json"); path != "" {
		return io.WriteJSON(path, results)
	}

	rows := make([][]string, len(results))
	for i, r := range results {
		if r.Error != "" {
			rows[i] = []string{r.Contig, "-", "-", "-", "-", "-", "-", "-", "-", r.Error}
			continue
		}
		rows[i] = []string{
			r.Contig,
			r.Left, r.LeftCigar, strconv.Itoa(r.LeftRefLen), strconv.Itoa(r.LeftReadLen),
			r.Right, r.RightCigar, strconv.Itoa(r.RightRefLen), strconv.Itoa(r.RightReadLen),
			"",
		}
	}
	header := []string{
		"contig",
		"left", "left cigar", "left ref len", "left read len",
		"right", "right cigar", "right ref len", "right read len",
		"error",
	}
	return io.WriteTable(cmd.OutOrStdout(), header, rows)
}
