// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// resumeMsg carries a continuation back onto the update loop.
type resumeMsg struct {
	cont func()
}

// Scheduler runs request work in a goroutine and posts the continuation to
// the program as a resumeMsg.
type Scheduler struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

// Attach sets the function used to deliver messages, normally
// (*tea.Program).Send.
func (s *Scheduler) Attach(send func(tea.Msg)) {
	s.mu.Lock()
	s.send = send
	s.mu.Unlock()
}

// Schedule starts work in a new goroutine.
func (s *Scheduler) Schedule(work func() func()) {
	go func() {
		cont := work()
		if cont == nil {
			return
		}
		s.mu.Lock()
		send := s.send
		s.mu.Unlock()
		if send != nil {
			send(resumeMsg{cont: cont})
		}
	}()
}
