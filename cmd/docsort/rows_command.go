package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRowsCommand(ctx *commandContext) *cobra.Command {
	var statusFlag string
	var typeFlag string

	cmd := &cobra.Command{
		Use:   "rows",
		Short: "List document rows, Review rows first",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			rows, err := client.rows(statusFlag, typeFlag)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No rows.")
				return nil
			}

			headers := []string{"", "ID", "Name", "Type", "Status", "File"}
			tableRows := make([][]string, 0, len(rows))
			for _, row := range rows {
				mark := ""
				if row.CheckboxEnabled {
					mark = "[" + checkMark(row.Checked) + "]"
				}
				tableRows = append(tableRows, []string{
					mark,
					row.ID,
					row.DisplayName,
					row.TypeCode,
					row.Status,
					row.SourcePath,
				})
			}
			fmt.Fprintln(out, renderTable(headers, tableRows, nil))
			return nil
		},
	}

	cmd.Flags().StringVar(&statusFlag, "status", "", "Filter by status (ready, review, processed)")
	cmd.Flags().StringVar(&typeFlag, "type", "", "Filter by document type")
	return cmd
}
