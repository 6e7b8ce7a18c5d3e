package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docsort/internal/api"
)

func newSettingsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or update folder settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			current, err := client.settings()
			if err != nil {
				return err
			}
			printSettings(cmd, current)
			return nil
		},
	}

	cmd.AddCommand(newSettingsSetCommand(ctx))
	return cmd
}

func newSettingsSetCommand(ctx *commandContext) *cobra.Command {
	var sourceFlag string
	var destFlag string
	var exportFlag string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update folder settings; unset flags keep their current value",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			updated, err := client.updateSettings(api.SettingsPayload{
				SourceFolder: sourceFlag,
				DestFolder:   destFlag,
				ExportFolder: exportFlag,
			})
			if err != nil {
				return err
			}
			printSettings(cmd, updated)
			return nil
		},
	}

	cmd.Flags().StringVar(&sourceFlag, "source", "", "Source folder")
	cmd.Flags().StringVar(&destFlag, "dest", "", "Destination folder")
	cmd.Flags().StringVar(&exportFlag, "export", "", "Export folder")
	return cmd
}

func printSettings(cmd *cobra.Command, s api.SettingsPayload) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderTable(
		[]string{"Setting", "Value"},
		[][]string{
			{"source_folder", s.SourceFolder},
			{"dest_folder", s.DestFolder},
			{"export_folder", s.ExportFolder},
		},
		nil,
	))
}
