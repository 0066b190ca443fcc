package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/GintGld/kshana-timeline/internal/storage/sqlite"
)

func newStatesCommand() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "states",
		Short: "List stored timelines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			st, err := sqlite.New(dbPath)
			if err != nil {
				return err
			}
			defer st.Stop()

			states, err := st.States(ctx)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(states))
			for _, s := range states {
				rows = append(rows, []string{
					s.Project,
					s.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
					strconv.FormatInt(s.Size, 10),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Project", "Saved", "Bytes"}, rows, 2))

			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "Timeline database")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}
