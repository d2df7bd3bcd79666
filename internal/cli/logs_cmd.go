// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/switchboard/internal/app"
	"github.com/jeranaias/switchboard/internal/catalog"
)

// saveCurrent saves the live log. With no title it overwrites the log it was
// loaded from, or creates one titled after the first user message.
func saveCurrent(a *app.App, title string) (catalog.Entry, error) {
	switch {
	case title != "":
		return a.SaveAs(title)
	case a.ActiveLogID() != "":
		return a.Save("")
	default:
		return a.SaveAs(a.SuggestTitle())
	}
}

func newLogsCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "logs",
		Aliases: []string{"log"},
		Short:   "Manage saved logs",
		Long: `Manage saved logs.

A log is referenced by its id, a unique id prefix, or its exact title.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:     "list",
			Aliases: []string{"ls"},
			Short:   "List saved logs, most recent first",
			Args:    cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := e.session(cmd)
				if err != nil {
					return err
				}
				fmt.Fprint(e.out, catalog.FormatList(a.Logs()))
				if id := a.ActiveLogID(); id != "" {
					fmt.Fprintf(e.out, "\nCurrent log: %s\n", id)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "new [title]",
			Short: "Start a new empty log",
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := e.session(cmd)
				if err != nil {
					return err
				}
				entry, err := a.NewLog(strings.Join(args, " "))
				if err != nil {
					return err
				}
				fmt.Fprintf(e.out, "Started %q (%s)\n", entry.Title, entry.ID)
				return nil
			},
		},
		&cobra.Command{
			Use:   "save [title]",
			Short: "Save the current log",
			Long: `Save the current log.

With a title, the log is saved as a new entry. Without one it overwrites
the entry it was loaded from, or is titled after its first message.`,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := e.session(cmd)
				if err != nil {
					return err
				}
				entry, err := saveCurrent(a, strings.Join(args, " "))
				if err != nil {
					return err
				}
				fmt.Fprintf(e.out, "Saved %q (%s, %d messages)\n", entry.Title, entry.ID, entry.MessageCount)
				return nil
			},
		},
		&cobra.Command{
			Use:   "load <log>",
			Short: "Make a saved log the current one",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := e.session(cmd)
				if err != nil {
					return err
				}
				entry, err := a.ResolveLog(strings.Join(args, " "))
				if err != nil {
					return err
				}
				if entry, err = a.LoadLog(entry.ID); err != nil {
					return err
				}
				fmt.Fprintf(e.out, "Loaded %q (%d messages)\n", entry.Title, entry.MessageCount)
				return nil
			},
		},
		&cobra.Command{
			Use:     "delete <log>",
			Aliases: []string{"rm"},
			Short:   "Delete a saved log",
			Args:    cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := e.session(cmd)
				if err != nil {
					return err
				}
				entry, err := a.ResolveLog(strings.Join(args, " "))
				if err != nil {
					return err
				}
				if err := a.DeleteLog(entry.ID); err != nil {
					return err
				}
				fmt.Fprintf(e.out, "Deleted %q\n", entry.Title)
				return nil
			},
		},
		&cobra.Command{
			Use:   "rename <log> <title>",
			Short: "Rename a saved log",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := e.session(cmd)
				if err != nil {
					return err
				}
				entry, err := a.ResolveLog(args[0])
				if err != nil {
					return err
				}
				if entry, err = a.RenameLog(entry.ID, strings.Join(args[1:], " ")); err != nil {
					return err
				}
				fmt.Fprintf(e.out, "Renamed to %q\n", entry.Title)
				return nil
			},
		},
	)
	return cmd
}
