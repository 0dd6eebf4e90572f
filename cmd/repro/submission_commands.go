package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"repro/internal/config"
	"repro/internal/content"
	"repro/internal/fileutil"
	"repro/internal/fingerprint"
	"repro/internal/pipeline"
	"repro/internal/scanner"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var (
		owner    string
		category string
		artist   string
		title    string
		release  string
	)

	cmd := &cobra.Command{
		Use:   "add <path>",
		Short: "Register a file as a new upload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			absPath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			info, err := os.Stat(absPath)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("file does not exist: %s", absPath)
				}
				return fmt.Errorf("inspect file: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("%s is a directory", absPath)
			}

			owner = strings.TrimSpace(owner)
			if owner == "" || owner != filepath.Base(owner) || strings.HasPrefix(owner, ".") {
				return fmt.Errorf("invalid owner %q", owner)
			}
			cat := content.Category(strings.ToLower(strings.TrimSpace(category)))
			if cat != content.CategoryAudio && cat != content.CategorySheet {
				return fmt.Errorf("invalid category %q (use audio or sheet)", category)
			}

			return ctx.withStore(func(cfg *config.Config, store *content.Store, _ *slog.Logger) error {
				id := uuid.New().String()
				rel := filepath.Join(cfg.Stages.Uploaded, owner, id)
				target := filepath.Join(cfg.Paths.StorageDir, rel)
				if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
					return fmt.Errorf("create owner directory: %w", err)
				}

				sub := &content.Submission{
					UUID:           id,
					Owner:          owner,
					Category:       cat,
					State:          content.StateUploaded,
					Path:           rel,
					MetadataArtist: strings.TrimSpace(artist),
					MetadataTitle:  strings.TrimSpace(title),
				}
				if err := store.Upsert(cmd.Context(), sub); err != nil {
					return err
				}
				if artist != "" || title != "" || release != "" {
					creation := &content.Creation{
						SubmissionID: sub.ID,
						Artist:       strings.TrimSpace(artist),
						Title:        strings.TrimSpace(title),
						Release:      strings.TrimSpace(release),
					}
					if err := store.SaveCreation(cmd.Context(), creation); err != nil {
						return err
					}
				}
				// The record exists before the payload becomes visible to the scanner.
				if err := fileutil.CopyFile(absPath, target); err != nil {
					return fmt.Errorf("copy upload: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s for %s (%s)\n", id, owner, cat)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Owner directory for the upload")
	cmd.Flags().StringVar(&category, "category", string(content.CategoryAudio), "Submission category (audio or sheet)")
	cmd.Flags().StringVar(&artist, "artist", "", "Artist of the work")
	cmd.Flags().StringVar(&title, "title", "", "Title of the work")
	cmd.Flags().StringVar(&release, "release", "", "Release the work appears on")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <uuid>",
		Short: "Remove a submission's fingerprint from the matcher",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			if !scanner.IsSubmissionName(id) {
				return fmt.Errorf("invalid submission uuid %q", id)
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client := fingerprint.NewClient(cfg.Echoprint.URL, cfg.Echoprint.Token, cfg.RequestTimeout(), nil)
			trackID := fingerprint.TrackIDFromName(strings.ToLower(id))
			if err := client.Delete(cmd.Context(), trackID); err != nil {
				return fmt.Errorf("delete fingerprint: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted fingerprint %s\n", trackID)
			return nil
		},
	}
}

func newMarkUnknownCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "mark-unknown <uuid>",
		Short: "Reset a submission to the unknown processing state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPipeline(func(p *pipeline.Pipeline) error {
				sub, err := p.MarkUnknown(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Marked %s as %s\n", sub.UUID, sub.State)
				return nil
			})
		},
	}
}
