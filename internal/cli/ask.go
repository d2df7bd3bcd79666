// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/switchboard/internal/app"
	"github.com/jeranaias/switchboard/internal/util"
)

func newAskCommand(e *env) *cobra.Command {
	var (
		imagePath string
		regen     bool
		raw       bool
	)

	cmd := &cobra.Command{
		Use:   "ask [text]",
		Short: "Send one message on the current log and print the reply",
		Long: `Send one message on the current log and print the reply.

The text is read from stdin when it is "-" or omitted with stdin piped.
An empty message asks the model to continue the conversation.`,
		Example: `  switchboard ask "Summarize our plan so far"
  git diff | switchboard ask -
  switchboard ask --image chart.png "What does this show?"
  switchboard ask --regen`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if text == "-" || (text == "" && !regen && !isTerminal(e.in)) {
				data, err := io.ReadAll(e.in)
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				text = string(data)
			}

			if err := e.setup(false); err != nil {
				return err
			}
			opts := e.options(cmd.Context())
			// Failures are returned, not printed twice.
			opts.Notifier = app.NotifierFunc(func(string) {})
			a := app.New(opts)

			var err error
			switch {
			case regen && (text != "" || imagePath != ""):
				return errors.New("--regen takes no message")
			case regen:
				err = a.Regenerate()
			default:
				var image *string
				if imagePath != "" {
					url, ierr := util.ImageDataURL(imagePath)
					if ierr != nil {
						return ierr
					}
					image = &url
				}
				err = a.Send(text, image)
			}
			if err != nil {
				return err
			}
			if err := a.LastError(); err != nil {
				return err
			}

			last, _ := a.Log().LastTurn()
			p := newPrinter(e.out)
			if raw {
				p.renderer = nil
			}
			p.reply(last.Text())
			return nil
		},
	}

	cmd.Flags().StringVar(&imagePath, "image", "", "attach an image file to the message")
	cmd.Flags().BoolVar(&regen, "regen", false, "regenerate the newest AI response instead")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the reply without markdown rendering")
	return cmd
}
