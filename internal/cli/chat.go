// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/switchboard/internal/app"
	"github.com/jeranaias/switchboard/internal/chatlog"
	"github.com/jeranaias/switchboard/internal/util"
)

// historyFileName holds REPL input history inside the data directory.
const historyFileName = "chat_history"

// =============================================================================
// INPUT
// =============================================================================

// lineReader is the part of liner.State the REPL uses.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// chatInput wraps liner with history persisted in the data directory.
type chatInput struct {
	line        *liner.State
	historyFile string
}

func newChatInput(dataDir string) *chatInput {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetMultiLineMode(true)

	c := &chatInput{line: line, historyFile: filepath.Join(dataDir, historyFileName)}
	if f, err := os.Open(c.historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	return c
}

func (c *chatInput) Prompt(prompt string) (string, error) { return c.line.Prompt(prompt) }

func (c *chatInput) AppendHistory(item string) { c.line.AppendHistory(item) }

// Close saves history with owner-only permissions and restores the terminal.
func (c *chatInput) Close() error {
	if f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
		_, _ = c.line.WriteHistory(f)
		f.Close()
	}
	return c.line.Close()
}

// =============================================================================
// CHAT COMMAND
// =============================================================================

func newChatCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start a line-oriented chat session",
		Long: `Start a line-oriented chat session on the current log.

Type a message and press enter. Lines starting with / are commands;
type /help to list them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.setup(true); err != nil {
				return err
			}
			a := app.New(e.options(cmd.Context()))

			input := newChatInput(e.cfg.DataDir)
			defer input.Close()

			return newChatSession(a, input, e.out).run()
		},
	}
}

// chatSession is one REPL run over an App.
type chatSession struct {
	app     *app.App
	input   lineReader
	out     io.Writer
	printer *printer

	// image is attached to the next message sent.
	image *string
}

func newChatSession(a *app.App, input lineReader, out io.Writer) *chatSession {
	return &chatSession{app: a, input: input, out: out, printer: newPrinter(out)}
}

func (s *chatSession) run() error {
	s.printWelcome()

	for {
		input, err := s.input.Prompt(promptStyle.Render("you> "))
		if err != nil {
			// Ctrl+C, Ctrl+D or a closed stdin all end the session.
			if !errors.Is(err, liner.ErrPromptAborted) && !errors.Is(err, io.EOF) {
				return err
			}
			fmt.Fprintln(s.out)
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		s.input.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			cont, err := s.handleSlashCommand(input)
			if err != nil {
				fmt.Fprintf(s.out, "%s %v\n", errorStyle.Render("[Error]"), err)
			}
			if !cont {
				return nil
			}
			continue
		}
		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			return nil
		}

		if err := s.send(input); err != nil {
			fmt.Fprintf(s.out, "%s %v\n", errorStyle.Render("[Error]"), err)
		}
	}
}

func (s *chatSession) printWelcome() {
	e := s.app.Endpoint()
	fmt.Fprintln(s.out, welcomeStyle.Render("switchboard chat"))
	fmt.Fprintln(s.out, infoStyle.Render(fmt.Sprintf("%s @ %s", e.ModelID, e.Endpoint)))
	if n := s.app.Log().Len(); n > 0 {
		fmt.Fprintln(s.out, infoStyle.Render(fmt.Sprintf("%d messages in the current log. /history shows them.", n)))
	}
	fmt.Fprintln(s.out, infoStyle.Render("Type /help for commands."))
	fmt.Fprintln(s.out)
}

// send adds a user turn (or none, to continue) and prints the reply.
func (s *chatSession) send(text string) error {
	image := s.image
	s.image = nil
	return s.await(func() error { return s.app.Send(text, image) })
}

// await runs op, which triggers a response, and prints the newest turn when a
// new response arrived. Failures are reported through the app's notifier.
func (s *chatSession) await(op func() error) error {
	before := s.app.LastResponse()
	if err := op(); err != nil {
		return err
	}
	if s.app.LastResponse() != before {
		s.printNewest()
	}
	return nil
}

func (s *chatSession) printNewest() {
	last, ok := s.app.Log().LastTurn()
	if !ok {
		return
	}
	fmt.Fprintln(s.out, turnLabel(last))
	s.printer.reply(last.Text())
}

// turnLabel renders "Assistant (2/3)" style headers.
func turnLabel(t chatlog.Turn) string {
	label := "You"
	if t.AIGenerated {
		label = "Assistant"
	}
	if len(t.Stack) > 1 {
		label += fmt.Sprintf(" (%d/%d)", t.Selected+1, len(t.Stack))
	}
	return welcomeStyle.Render(label)
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

const chatHelp = `Commands:
  /help              Show this help
  /continue          Ask the model to continue without a new message
  /regen             Regenerate the newest AI response
  /prev, /next       Show the previous or next variant of the newest turn
  /history           List the turns of the current log
  /edit <id> <text>  Replace the text of a turn
  /resend <id> <text>  Edit a turn, drop everything after it and resend
  /delete [id]       Delete a turn (default: the newest)
  /image <path>      Attach an image to the next message
  /system [text]     Show or set the system message
  /save [title]      Save the current log
  /quit, /q          Exit`

// handleSlashCommand runs one command. It reports whether the REPL continues.
func (s *chatSession) handleSlashCommand(input string) (bool, error) {
	name, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)

	name = strings.ToLower(name)
	switch name {
	case "/quit", "/q", "/exit":
		return false, nil

	case "/help", "/h":
		fmt.Fprintln(s.out, commandStyle.Render(chatHelp))

	case "/continue", "/c":
		return true, s.await(func() error { return s.app.Send("", nil) })

	case "/regen", "/r":
		return true, s.await(s.app.Regenerate)

	case "/prev", "/next":
		delta := -1
		if name == "/next" {
			delta = 1
		}
		if err := s.app.ShiftLastVariant(delta); err != nil {
			return true, err
		}
		s.printNewest()

	case "/history":
		s.printHistory()

	case "/edit", "/resend":
		id, text, err := parseTurnArgs(rest)
		if err != nil {
			return true, err
		}
		if name == "/edit" {
			return true, s.app.EditTurn(id, text)
		}
		return true, s.await(func() error { return s.app.EditAndResend(id, text) })

	case "/delete":
		return true, s.deleteTurn(rest)

	case "/image":
		if rest == "" {
			return true, errors.New("usage: /image <path>")
		}
		url, err := util.ImageDataURL(rest)
		if err != nil {
			return true, err
		}
		s.image = &url
		fmt.Fprintln(s.out, infoStyle.Render("Image attached to the next message."))

	case "/system":
		if rest == "" {
			fmt.Fprintln(s.out, systemOrPlaceholder(s.app.SystemMessage()))
			return true, nil
		}
		if err := s.app.SetSystemMessage(rest); err != nil {
			return true, err
		}
		fmt.Fprintln(s.out, infoStyle.Render("System message updated."))

	case "/save":
		entry, err := saveCurrent(s.app, rest)
		if err != nil {
			return true, err
		}
		fmt.Fprintln(s.out, infoStyle.Render(fmt.Sprintf("Saved %q (%s).", entry.Title, entry.ID)))

	default:
		fmt.Fprintln(s.out, warningStyle.Render("Unknown command "+name+". Type /help."))
	}
	return true, nil
}

func (s *chatSession) deleteTurn(arg string) error {
	if arg == "" {
		last, ok := s.app.Log().LastTurn()
		if !ok {
			return errors.New("the log is empty")
		}
		return s.app.DeleteTurn(last.ID)
	}
	id, err := parseTurnID(arg)
	if err != nil {
		return err
	}
	return s.app.DeleteTurn(id)
}

func (s *chatSession) printHistory() {
	turns := s.app.Turns()
	if len(turns) == 0 {
		fmt.Fprintln(s.out, infoStyle.Render("The log is empty."))
		return
	}
	for _, t := range turns {
		text := util.TruncateRunes(util.SingleLine(chatlog.StripThinking(t.Text())), 70)
		fmt.Fprintf(s.out, "%s %s %s\n", infoStyle.Render(fmt.Sprintf("[%d]", t.ID)), turnLabel(t), text)
	}
}

func parseTurnID(s string) (uint32, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid turn id %q", s)
	}
	return uint32(id), nil
}

func parseTurnArgs(s string) (uint32, string, error) {
	idText, text, ok := strings.Cut(s, " ")
	if !ok || strings.TrimSpace(text) == "" {
		return 0, "", errors.New("usage: <id> <text>")
	}
	id, err := parseTurnID(idText)
	if err != nil {
		return 0, "", err
	}
	return id, strings.TrimSpace(text), nil
}

func systemOrPlaceholder(msg string) string {
	if msg == "" {
		return infoStyle.Render("(no system message)")
	}
	return msg
}
