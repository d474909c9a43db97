package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/debemdeboas/quill/internal/model"
	"github.com/debemdeboas/quill/internal/tui"
)

func draftsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "Manage server drafts",
	}
	cmd.AddCommand(draftsListCmd(a), draftsRmCmd(a), draftsPublishCmd(a))
	return cmd
}

func draftsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your drafts, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			drafts, err := c.ListDrafts(cmd.Context())
			if err != nil {
				return err
			}
			if len(drafts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), tui.MutedStyle.Render("No drafts"))
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tTAGS\tUPDATED")
			for _, d := range drafts {
				title := d.Title
				if title == "" {
					title = "(untitled)"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.ID, title, d.Tags, d.ModifiedDate.Local().Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
}

func draftsRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			if err := c.DeleteDraft(cmd.Context(), model.DraftID(args[0])); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tui.OutputStyle.Render("Deleted draft "+args[0]))
			return nil
		},
	}
}

func draftsPublishCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "publish <id>",
		Short: "Publish a draft as a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			post, err := c.PublishDraft(cmd.Context(), model.DraftID(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tui.OutputStyle.Render(fmt.Sprintf("Published %q as post %s", post.Title, post.ID)))
			return nil
		},
	}
}
