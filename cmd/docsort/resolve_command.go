package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docsort/internal/api"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var typeFlag string
	var sourceFlag string

	cmd := &cobra.Command{
		Use:   "resolve <row-id> <doc-number>",
		Short: "Apply manual identity to a Review row",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			req := api.ResolveRequest{
				DocNumber:  args[1],
				Type:       typeFlag,
				SourcePath: sourceFlag,
			}
			if err := client.resolve(args[0], req); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Row %s resolved to %s (%s)\n", args[0], args[1], typeFlag)
			return nil
		},
	}

	cmd.Flags().StringVar(&typeFlag, "type", "Tax Invoice", "Document type to assign")
	cmd.Flags().StringVar(&sourceFlag, "source", "", "Corrected source path, if the file moved")
	return cmd
}
