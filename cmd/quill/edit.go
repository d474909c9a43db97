package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/debemdeboas/quill/internal/autosave"
	"github.com/debemdeboas/quill/internal/model"
	"github.com/debemdeboas/quill/internal/tui"
)

func editCmd(a *app) *cobra.Command {
	var draftID, postID string
	var plain bool

	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Open the editor on a new draft, an existing draft or a post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if draftID != "" && postID != "" {
				return errors.New("--draft and --post are mutually exclusive")
			}
			c, err := a.client()
			if err != nil {
				return err
			}

			console := tui.NewConsole(a.in, cmd.OutOrStdout(), a.log)
			var confirmer autosave.Confirmer = console
			if !plain && isTerminal(os.Stdin) {
				confirmer = tui.TerminalConfirmer{Dialog: tui.ProgramConfirmer{}, Console: console}
			}

			e := &editor{out: cmd.OutOrStdout(), log: a.log}
			e.session = autosave.NewSession(autosave.SessionDeps{
				Local:     a.local,
				Drafts:    c,
				Posts:     c,
				Navigator: e,
				Notifier:  console,
				Confirmer: confirmer,
				Options: autosave.Options{
					Delay:  a.cfg.Client.AutosaveDelay,
					Logger: a.log,
				},
			})
			defer e.session.Close()

			nav := autosave.NavContext{DraftID: model.DraftID(draftID), PostID: model.PostID(postID)}
			return runEditor(cmd.Context(), e, nav, a)
		},
	}

	cmd.Flags().StringVar(&draftID, "draft", "", "Edit the draft with this id")
	cmd.Flags().StringVar(&postID, "post", "", "Start a draft from the published post with this id")
	cmd.Flags().BoolVar(&plain, "plain", false, "Ask questions on plain lines instead of a dialog")

	return cmd
}

func runEditor(ctx context.Context, e *editor, nav autosave.NavContext, a *app) error {
	if err := e.open(ctx, nav); err != nil {
		return err
	}

	fmt.Fprintln(e.out, tui.MutedStyle.Render("Type :help for commands"))
	if e.state.Title != "" || e.state.Content != "" {
		e.show()
	}

	for !e.left {
		line, err := a.in.ReadString('\n')
		if line != "" {
			if !e.handle(ctx, strings.TrimRight(line, "\r\n")) {
				break
			}
		}
		if errors.Is(err, io.EOF) {
			// End of input leaves like :q
			if !e.left && e.exit(ctx, autosave.DestHome) {
				// The user chose to stay but there is nothing left to read
				e.session.Coordinator().FlushLocal()
			}
			break
		}
		if err != nil {
			return err
		}
	}

	if e.left {
		fmt.Fprintln(e.out, tui.MutedStyle.Render("Left the editor for "+string(e.dest)))
	}
	return nil
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
