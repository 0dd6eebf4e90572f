package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"repro/internal/config"
	"repro/internal/content"
	"repro/internal/preflight"
	"repro/internal/scanner"
)

type stageUsage struct {
	Name   string
	Owners int
	Files  int
	Bytes  int64
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show stage directory usage, submission states and dependency health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *content.Store, _ *slog.Logger) error {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				title := cases.Title(language.English)

				lines := renderSectionHeader("Stage directories", colorize)
				var rows [][]string
				for _, usage := range collectStageUsage(cfg) {
					rows = append(rows, []string{
						title.String(usage.Name),
						strconv.Itoa(usage.Owners),
						strconv.Itoa(usage.Files),
						humanize.Bytes(uint64(usage.Bytes)),
					})
				}
				lines = append(lines, renderTable(
					[]string{"Stage", "Owners", "Files", "Size"}, rows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
				))

				counts, err := store.CountByState(cmd.Context())
				if err != nil {
					return err
				}
				lines = append(lines, "")
				lines = append(lines, renderSectionHeader("Submissions", colorize)...)
				rows = rows[:0]
				for _, state := range []content.State{
					content.StateUploaded, content.StatePreviewed, content.StateChecksummed,
					content.StateFingerprinted, content.StateDropped, content.StateRejected, content.StateUnknown,
				} {
					rows = append(rows, []string{title.String(string(state)), humanize.Comma(int64(counts[state]))})
				}
				lines = append(lines, renderTable([]string{"State", "Count"}, rows,
					[]columnAlignment{alignLeft, alignRight}))

				lines = append(lines, "")
				lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
				for _, dep := range preflight.CheckSystemDeps(cfg) {
					kind := statusOK
					message := dep.Resolved
					if !dep.Available {
						kind = statusError
						if dep.Optional {
							kind = statusWarn
						}
						message = dep.Detail
					}
					lines = append(lines, renderStatusLine(dep.Name, kind, message, colorize))
				}

				lines = append(lines, "")
				lines = append(lines, renderSectionHeader("Checks", colorize)...)
				for _, result := range preflight.RunAll(cmd.Context(), cfg, offline) {
					kind := statusOK
					if !result.Passed {
						kind = statusError
					}
					lines = append(lines, renderStatusLine(result.Name, kind, result.Detail, colorize))
				}
				lines = append(lines, renderStatusLine("Worker host", statusInfo, cfg.Worker.Hostname, colorize))
				lines = append(lines, renderStatusLine("Disembody", statusInfo, yesNo(cfg.Worker.DisembodyDropped), colorize))

				fmt.Fprintln(out, strings.Join(lines, "\n"))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the fingerprint matcher reachability check")
	return cmd
}

// collectStageUsage counts payloads in the owner directories of every stage.
func collectStageUsage(cfg *config.Config) []stageUsage {
	names := []string{
		cfg.Stages.Uploaded, cfg.Stages.Previewed, cfg.Stages.Checksummed,
		cfg.Stages.Fingerprinted, cfg.Stages.Dropped, cfg.Stages.Rejected,
	}
	usages := make([]stageUsage, 0, len(names))
	for _, name := range names {
		usage := stageUsage{Name: name}
		owners, _ := os.ReadDir(cfg.StageDir(name))
		for _, owner := range owners {
			if !owner.IsDir() {
				continue
			}
			usage.Owners++
			entries, _ := os.ReadDir(filepath.Join(cfg.StageDir(name), owner.Name()))
			for _, entry := range entries {
				if !entry.Type().IsRegular() || !scanner.IsSubmissionName(entry.Name()) {
					continue
				}
				info, err := entry.Info()
				if err != nil {
					continue
				}
				usage.Files++
				usage.Bytes += info.Size()
			}
		}
		usages = append(usages, usage)
	}
	return usages
}
