package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/GintGld/kshana-timeline/internal/lib/logger/slogdiscard"
	"github.com/GintGld/kshana-timeline/internal/lib/timecode"
	"github.com/GintGld/kshana-timeline/internal/models"
	"github.com/GintGld/kshana-timeline/internal/service/resolve"
	"github.com/GintGld/kshana-timeline/internal/service/schema"
	"github.com/GintGld/kshana-timeline/internal/service/source"
	"github.com/GintGld/kshana-timeline/internal/storage"
	"github.com/GintGld/kshana-timeline/internal/storage/sqlite"
)

func newResolveCommand() *cobra.Command {
	var (
		dbPath string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <project-dir>",
		Short: "Print the resolved timeline of a project",
		Long: "Resolve reads placements and the asset manifest of a project directory " +
			"and prints the timeline items. With --db the stored edits are applied.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			dir := args[0]
			src := source.New(slogdiscard.NewDiscardLogger(), dir, nil)

			placements, err := src.Placements(ctx)
			if err != nil {
				return err
			}
			assets, err := src.Manifest(ctx)
			if err != nil {
				return err
			}

			state := models.EmptyState()
			if dbPath != "" {
				if state, err = storedState(ctx, dbPath, filepath.Base(filepath.Clean(dir))); err != nil {
					return err
				}
			}

			duration := resolve.ProjectDuration(placements.Items, placements.TranscriptDuration, resolve.DefaultMinDuration)
			for _, c := range state.ImportedClips {
				duration = max(duration, c.EndTimeSeconds())
			}

			items := resolve.ResolveEdited(placements.Items, assets, state.ActiveVersions, duration, resolve.Edits{
				ImageOverrides:       state.ImageOverrides,
				InfographicOverrides: state.InfographicOverrides,
				VideoSplits:          state.VideoSplitOverrides,
			})

			out := cmd.OutOrStdout()
			if asJSON {
				data, err := sonic.ConfigStd.MarshalIndent(items, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			}

			rows := make([][]string, 0, len(items))
			for _, it := range items {
				rows = append(rows, []string{
					it.ID,
					string(it.Type),
					timecode.Format(it.StartTime),
					strconv.FormatFloat(it.Duration, 'f', 2, 64),
					it.Label,
					it.MediaRef(),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"ID", "Type", "Start", "Duration", "Label", "Media"}, rows, 3))
			fmt.Fprintf(out, "duration %s (%.2fs), %d items\n", timecode.Format(duration), duration, len(items))

			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "Timeline database to read stored edits from")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print items as JSON")

	return cmd
}

func storedState(ctx context.Context, dbPath, project string) (models.TimelineState, error) {
	st, err := sqlite.New(dbPath)
	if err != nil {
		return models.TimelineState{}, err
	}
	defer st.Stop()

	data, err := st.State(ctx, project)
	if err != nil {
		if errors.Is(err, storage.ErrStateNotFound) {
			return models.EmptyState(), nil
		}
		return models.TimelineState{}, err
	}

	doc, _, err := schema.Parse(data)
	if err != nil {
		return models.TimelineState{}, err
	}

	return schema.Normalize(doc), nil
}
