// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/switchboard/internal/app"
	"github.com/jeranaias/switchboard/internal/export"
	"github.com/jeranaias/switchboard/internal/util"
)

// documentTitle is the catalog title of the live log, or one derived from it.
func documentTitle(a *app.App) string {
	if id := a.ActiveLogID(); id != "" {
		if entry, err := a.ResolveLog(id); err == nil {
			return entry.Title
		}
	}
	return a.SuggestTitle()
}

func newExportCommand(e *env) *cobra.Command {
	var (
		format      string
		output      string
		dir         string
		allVariants bool
		thinking    bool
		noKey       bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the current log as JSON or Markdown",
		Long: `Write the current log as JSON or Markdown.

JSON output is the snapshot format read by "switchboard import".
Markdown is for reading and sharing.`,
		Example: `  switchboard export > backup.json
  switchboard export --format md --dir ./exports
  switchboard export --no-key -o shared.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.session(cmd)
			if err != nil {
				return err
			}

			opts := export.DefaultOptions()
			opts.AllVariants = allVariants
			opts.IncludeThinking = thinking
			if dir != "" {
				opts.OutputDir = dir
			}
			exporter, err := export.ForFormat(format, opts)
			if err != nil {
				return err
			}

			doc := &export.Document{
				Title:         documentTitle(a),
				Log:           a.Log(),
				Endpoint:      a.Endpoint(),
				SystemMessage: a.SystemMessage(),
			}
			if noKey {
				doc.Endpoint.APIKey = ""
			}

			if dir != "" {
				path, err := export.ExportToFile(doc, exporter, opts)
				if err != nil {
					return err
				}
				fmt.Fprintf(e.out, "Exported to %s\n", path)
				return nil
			}

			data, err := exporter.Export(doc)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = e.out.Write(data)
				return err
			}
			if err := util.AtomicWriteFile(output, data, 0600); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(e.errOut, "Exported to %s\n", output)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&format, "format", "f", "json", "output format: json or md")
	f.StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	f.StringVar(&dir, "dir", "", "write a timestamped file into this directory")
	f.BoolVar(&allVariants, "all-variants", false, "include every variant of each turn (md)")
	f.BoolVar(&thinking, "thinking", false, "include thinking blocks (md)")
	f.BoolVar(&noKey, "no-key", false, "leave the API key out of the export")
	cmd.MarkFlagsMutuallyExclusive("output", "dir")
	return cmd
}

func newImportCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace the current log with a JSON snapshot",
		Long: `Replace the current log, endpoint and system message with a JSON snapshot.

An empty endpoint URL or API key in the snapshot keeps the current one.
The imported log is not saved until "switchboard logs save".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(e.in)
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to read snapshot: %w", err)
			}

			a, err := e.session(cmd)
			if err != nil {
				return err
			}
			if err := a.Import(data); err != nil {
				return err
			}
			fmt.Fprintf(e.out, "Imported %d messages\n", a.Log().Len())
			return nil
		},
	}
}

func newSystemCommand(e *env) *cobra.Command {
	var clearMsg bool

	cmd := &cobra.Command{
		Use:   "system [text]",
		Short: "Show or set the system message",
		Long: `Show or set the system message sent ahead of the conversation.

Use "-" to read the text from stdin and --clear to remove it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.session(cmd)
			if err != nil {
				return err
			}

			text := strings.Join(args, " ")
			switch {
			case clearMsg:
				return a.SetSystemMessage("")
			case text == "":
				fmt.Fprintln(e.out, a.SystemMessage())
				return nil
			case text == "-":
				data, err := io.ReadAll(e.in)
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				text = strings.TrimSpace(string(data))
			}
			return a.SetSystemMessage(text)
		},
	}
	cmd.Flags().BoolVar(&clearMsg, "clear", false, "remove the system message")
	return cmd
}
