// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/switchboard/internal/app"
)

// inputHeight is the number of textarea rows.
const inputHeight = 3

// notices holds text written by the app notifier and read by View.
type notices struct {
	alert  string
	status string
}

// Model is the chat screen.
type Model struct {
	app       *app.App
	scheduler *Scheduler
	notices   *notices
	keys      KeyMap
	theme     Theme
	renderer  *glamour.TermRenderer

	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model

	width  int
	height int
	ready  bool
}

// New builds the app from opts and wraps it in a Model. The Scheduler and
// Notifier fields of opts are replaced.
func New(opts app.Options) (Model, *Scheduler) {
	sched := &Scheduler{}
	box := &notices{}
	opts.Scheduler = sched
	opts.Notifier = app.NotifierFunc(func(msg string) { box.alert = msg })

	a := app.New(opts)

	input := textarea.New()
	input.Placeholder = "Message (enter to send, empty to continue)"
	input.ShowLineNumbers = false
	input.SetHeight(inputHeight)
	input.CharLimit = 0
	input.KeyMap.InsertNewline = DefaultKeyMap().Newline
	input.Focus()

	// The textarea owns the keyboard; scrolling goes through KeyMap.
	vp := viewport.New(80, 20)
	vp.KeyMap = viewport.KeyMap{}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		app:       a,
		scheduler: sched,
		notices:   box,
		keys:      DefaultKeyMap(),
		theme:     NewTheme(a.DarkMode()),
		viewport:  vp,
		input:     input,
		spinner:   sp,
	}, sched
}

// App returns the session behind the model.
func (m Model) App() *app.App { return m.app }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		m.refresh()
		m.ready = true
		return m, nil

	case resumeMsg:
		msg.cont()
		m.refresh()
		m.viewport.GotoBottom()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if handled, cmd := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleKey runs the screen-level bindings. It reports whether the key was
// consumed.
func (m *Model) handleKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return true, tea.Quit

	case key.Matches(msg, m.keys.Send):
		m.notices.alert, m.notices.status = "", ""
		text := m.input.Value()
		if m.check(m.app.Send(text, nil)) {
			m.input.Reset()
		}

	case key.Matches(msg, m.keys.Regenerate):
		m.notices.alert, m.notices.status = "", ""
		m.check(m.app.Regenerate())

	case key.Matches(msg, m.keys.PrevVariant):
		m.check(m.app.ShiftLastVariant(-1))

	case key.Matches(msg, m.keys.NextVariant):
		m.check(m.app.ShiftLastVariant(1))

	case key.Matches(msg, m.keys.ToggleTheme):
		if m.check(m.app.ToggleDarkMode()) {
			m.theme = NewTheme(m.app.DarkMode())
			m.renderer = newRenderer(m.theme.IsDark, m.viewport.Width)
		}

	case key.Matches(msg, m.keys.Save):
		m.save()

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return true, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return true, nil

	default:
		return false, nil
	}

	m.refresh()
	m.viewport.GotoBottom()
	return true, nil
}

func (m *Model) save() {
	var (
		title string
		err   error
	)
	if m.app.ActiveLogID() != "" {
		entry, e := m.app.Save("")
		title, err = entry.Title, e
	} else {
		entry, e := m.app.SaveAs(m.app.SuggestTitle())
		title, err = entry.Title, e
	}
	if m.check(err) {
		m.notices.status = fmt.Sprintf("Saved %q", title)
	}
}

// check records err as an alert and reports whether it was nil.
func (m *Model) check(err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, app.ErrResponsePending):
		m.notices.status = "Waiting for the response..."
	default:
		m.notices.alert = err.Error()
	}
	return false
}

func (m *Model) resize() {
	header := lipgloss.Height(m.headerView())
	footer := lipgloss.Height(m.footerView())
	m.input.SetWidth(m.width)
	m.viewport.Width = m.width
	m.viewport.Height = max(1, m.height-header-footer-inputHeight)
	m.renderer = newRenderer(m.theme.IsDark, m.width)
}

func (m *Model) refresh() {
	m.viewport.SetContent(renderTurns(m.app.Turns(), m.theme, m.renderer))
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.headerView(),
		m.viewport.View(),
		m.input.View(),
		m.footerView(),
	)
}

func (m Model) headerView() string {
	e := m.app.Endpoint()
	title := "Switchboard"
	if e.ModelID != "" {
		title += " · " + e.ModelID
	}
	return m.theme.Header.Width(max(m.width, 1)).Render(title)
}

func (m Model) footerView() string {
	var line string
	switch {
	case m.notices.alert != "":
		line = m.theme.Alert.Render(strings.ReplaceAll(m.notices.alert, "\n\n", " "))
	case m.app.Pending():
		line = m.spinner.View() + m.theme.Status.Render(" Generating...")
	case m.notices.status != "":
		line = m.theme.Status.Render(m.notices.status)
	default:
		line = m.helpView()
	}
	return line
}

func (m Model) helpView() string {
	parts := make([]string, 0, len(m.keys.ShortHelp()))
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return m.theme.Help.Render(strings.Join(parts, " • "))
}

// Run starts the full-screen interface and blocks until it exits.
func Run(opts app.Options) error {
	m, sched := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	sched.Attach(p.Send)
	_, err := p.Run()
	return err
}
