package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/debemdeboas/quill/internal/tui"
)

func localCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "local",
		Short: "Inspect the locally saved draft",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the locally saved draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.local.Get()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if rec == nil {
				fmt.Fprintln(out, tui.MutedStyle.Render("No local draft"))
				return nil
			}

			fmt.Fprintln(out, tui.PromptStyle.Render(rec.Title))
			if rec.DraftID != "" {
				fmt.Fprintln(out, tui.MutedStyle.Render("draft: "+string(rec.DraftID)))
			}
			if len(rec.Tags) > 0 {
				fmt.Fprintln(out, tui.MutedStyle.Render("tags: "+rec.Tags.String()))
			}
			fmt.Fprintln(out, tui.MutedStyle.Render("saved: "+rec.SavedAt.Local().Format("2006-01-02 15:04:05")))
			fmt.Fprintln(out, rec.Content)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Throw away the locally saved draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.local.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tui.OutputStyle.Render("Local draft cleared"))
			return nil
		},
	})

	return cmd
}
