// cli/notes.go
package cli

import (
	"bytes"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ViniZap4/lumi-notes/domain"
	"github.com/ViniZap4/lumi-notes/editor"
	"github.com/ViniZap4/lumi-notes/hub"
	"github.com/ViniZap4/lumi-notes/notes"
)

func newNotesCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "List and edit notes",
		Long: `List and edit notes.

Examples:
  lumi notes list
  lumi notes watch --interval 10s
  lumi notes new "Groceries" --content "milk, eggs"
  lumi notes rename <id> "Weekly groceries"
  lumi notes delete <id>`,
	}
	cmd.AddCommand(
		newNotesListCmd(o),
		newNotesWatchCmd(o),
		newNotesShowCmd(o),
		newNotesNewCmd(o),
		newNotesRenameCmd(o),
		newNotesDeleteCmd(o),
	)
	return cmd
}

// loadNotes returns an app that is allowed to touch notes.
func (o *options) loadNotes(cmd *cobra.Command) (*App, error) {
	app, err := o.load(cmd)
	if err != nil {
		return nil, err
	}
	if err := app.RequireSession(); err != nil {
		return nil, err
	}
	return app, nil
}

func newNotesListCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List notes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := o.loadNotes(cmd)
			if err != nil {
				return err
			}
			list, err := app.Notes.List(cmd.Context(), notes.ListOptions{OnMount: true})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), renderNotes(list))
			return nil
		},
	}
}

func renderNotes(list []domain.Note) string {
	if len(list) == 0 {
		return "No notes yet\n"
	}
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tUPDATED")
	for _, n := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\n", n.ID, n.Title, updated(n))
	}
	w.Flush()
	return buf.String()
}

func newNotesWatchCmd(o *options) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the notes list on screen, reprinting it when it changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				return fmt.Errorf("--interval must be positive")
			}
			app, err := o.loadNotes(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			events := app.Notes.Events()
			defer app.Notes.StopEvents(events)

			out := cmd.OutOrStdout()
			var last string
			show := func(list []domain.Note) {
				rendered := renderNotes(list)
				if rendered == last {
					return
				}
				if last != "" {
					fmt.Fprintln(out)
				}
				fmt.Fprint(out, rendered)
				last = rendered
			}

			list, err := app.Notes.List(ctx, notes.ListOptions{OnMount: true})
			if err != nil {
				return err
			}
			show(list)

			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					app.Notes.Invalidate()
					if _, err := app.Notes.List(ctx, notes.ListOptions{}); err != nil && ctx.Err() == nil {
						fmt.Fprintln(cmd.ErrOrStderr(), "refresh failed:", err)
					}
				case ev, ok := <-events:
					if !ok {
						return nil
					}
					if ev.Key != notes.CollectionKey || ev.Type != hub.EventUpdated {
						continue
					}
					if list, ok := app.Notes.Cached(); ok {
						show(list)
					}
				}
			}
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "how often to re-read the notes")
	return cmd
}

func updated(n domain.Note) string {
	t := n.UpdatedAt
	if t.IsZero() {
		t = n.CreatedAt
	}
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}

func newNotesShowCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := o.loadNotes(cmd)
			if err != nil {
				return err
			}
			n, err := app.Notes.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# %s\n\n", n.Title)
			if n.Content != "" {
				fmt.Fprintln(out, n.Content)
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "id: %s\nupdated: %s\n", n.ID, updated(n))
			if len(n.Tags) > 0 {
				fmt.Fprintf(out, "tags: %s\n", strings.Join(n.Tags, ", "))
			}
			return nil
		},
	}
}

// edit runs an editor session the way a screen would: apply the changes,
// then leave, which flushes them.
func edit(cmd *cobra.Command, s *editor.Session, title string, content *string) (string, error) {
	s.SetTitle(title)
	if content != nil {
		s.SetContent(*content)
	}
	if err := s.Leave(cmd.Context()); err != nil {
		return "", err
	}
	return s.ID(), nil
}

func editorOptions(app *App, cmd *cobra.Command) editor.Options {
	return editor.Options{
		Debounce: app.Config.Editor.Debounce,
		OnError: func(err error) {
			fmt.Fprintln(cmd.ErrOrStderr(), "save failed:", err)
		},
	}
}

func newNotesNewCmd(o *options) *cobra.Command {
	var content string
	cmd := &cobra.Command{
		Use:   "new <title>",
		Short: "Create a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := (domain.NoteInput{Title: args[0]}).Validate(); err != nil {
				return err
			}
			app, err := o.loadNotes(cmd)
			if err != nil {
				return err
			}
			s := editor.New(app.Notes, editorOptions(app, cmd), app.Log)
			id, err := edit(cmd, s, args[0], &content)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	cmd.Flags().StringVar(&content, "content", "", "note body")
	return cmd
}

func newNotesRenameCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <title>",
		Short: "Change a note's title",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := (domain.NoteInput{Title: args[1]}).Validate(); err != nil {
				return err
			}
			app, err := o.loadNotes(cmd)
			if err != nil {
				return err
			}
			n, err := app.Notes.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			s := editor.Open(app.Notes, n, editorOptions(app, cmd), app.Log)
			if _, err := edit(cmd, s, args[1], nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s\n", n.ID)
			return nil
		},
	}
}

func newNotesDeleteCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := o.loadNotes(cmd)
			if err != nil {
				return err
			}
			if err := app.Notes.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}
