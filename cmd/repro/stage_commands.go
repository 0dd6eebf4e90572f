package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"repro/internal/pipeline"
	"repro/internal/scanner"
)

var stageDescriptions = map[string]string{
	pipeline.StagePreview:     "Decode uploads, write previews and excerpts, run the pre-ingest query",
	pipeline.StageChecksum:    "Hash previewed payloads and record their checksums",
	pipeline.StageFingerprint: "Ingest fingerprints and verify them with a second query",
	pipeline.StageDrop:        "Mark fingerprinted payloads as dropped",
}

func newStageCommands(ctx *commandContext) []*cobra.Command {
	commands := make([]*cobra.Command, 0, len(pipeline.StageNames()))
	for _, name := range pipeline.StageNames() {
		stageName := name
		commands = append(commands, &cobra.Command{
			Use:   stageName,
			Short: stageDescriptions[stageName],
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return ctx.withPipeline(func(p *pipeline.Pipeline) error {
					summary, err := p.RunStage(cmd.Context(), stageName)
					if err != nil {
						return err
					}
					printSummaries(cmd.OutOrStdout(), map[string]scanner.Summary{stageName: summary})
					return nil
				})
			},
		})
	}
	return commands
}

func newAllCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Run one pass of every stage in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPipeline(func(p *pipeline.Pipeline) error {
				summaries, err := p.RunAll(cmd.Context())
				printSummaries(cmd.OutOrStdout(), summaries)
				return err
			})
		},
	}
}

func printSummaries(out io.Writer, summaries map[string]scanner.Summary) {
	title := cases.Title(language.English)
	headers := []string{"Stage", "Claimed", "Succeeded", "Failed", "Skipped", "Ignored"}
	aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight}
	var rows [][]string
	for _, name := range pipeline.StageNames() {
		summary, ok := summaries[name]
		if !ok {
			continue
		}
		rows = append(rows, []string{
			title.String(name),
			strconv.Itoa(summary.Claimed),
			strconv.Itoa(summary.Succeeded),
			strconv.Itoa(summary.Failed),
			strconv.Itoa(summary.Skipped),
			strconv.Itoa(summary.Ignored),
		})
	}
	fmt.Fprintln(out, renderTable(headers, rows, aligns))
}
