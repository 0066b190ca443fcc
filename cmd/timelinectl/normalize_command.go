package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/GintGld/kshana-timeline/internal/service/schema"
)

func newNormalizeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize [file]",
		Short: "Upgrade a stored timeline document to the current schema",
		Long: "Normalize reads a timeline document from file or stdin and prints it in " +
			"the current schema. Malformed fields are reported on stderr and dropped.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if len(args) == 1 && args[0] != "-" {
				data, err = os.ReadFile(args[0])
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return err
			}

			doc, anomalies, err := schema.Parse(data)
			if err != nil {
				return err
			}
			for _, a := range anomalies {
				fmt.Fprintf(cmd.ErrOrStderr(), "dropped malformed field %s\n", a)
			}

			out, err := schema.Encode(schema.Export(schema.Normalize(doc)))
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}

	return cmd
}
