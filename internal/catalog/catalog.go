// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// Version is written into the persisted catalog record.
const Version = 1

// UntitledTitle replaces an empty title.
const UntitledTitle = "Untitled chatlog"

// KeyPrefix prefixes the storage key of every saved log.
const KeyPrefix = "chatlog_"

var (
	// ErrNoMatch is returned by Resolve when nothing matches.
	ErrNoMatch = errors.New("no saved log matches")

	// ErrAmbiguous is returned by Resolve when a reference matches several logs.
	ErrAmbiguous = errors.New("ambiguous log reference")
)

// Entry describes one saved log.
type Entry struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	LastAccessed int64  `json:"last_accessed_time"` // unix milliseconds
	StorageKey   string `json:"storage_key"`
	MessageCount int    `json:"message_count"`
}

// LastAccessedTime returns LastAccessed as a time.Time.
func (e Entry) LastAccessedTime() time.Time {
	return time.UnixMilli(e.LastAccessed)
}

// Catalog is the persisted list of saved logs.
type Catalog struct {
	Version   int     `json:"version"`
	SavedLogs []Entry `json:"saved_logs"`

	now func() time.Time
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{Version: Version, SavedLogs: []Entry{}}
}

// SetClock replaces the time source. Intended for tests.
func (c *Catalog) SetClock(now func() time.Time) {
	c.now = now
}

func (c *Catalog) timestamp() int64 {
	if c.now != nil {
		return c.now().UnixMilli()
	}
	return time.Now().UnixMilli()
}

// StorageKey returns the storage key for a log id.
func StorageKey(id string) string {
	return KeyPrefix + id
}

// NormalizeTitle trims and NFC-normalizes a title, defaulting when empty.
func NormalizeTitle(title string) string {
	title = strings.TrimSpace(norm.NFC.String(title))
	if title == "" {
		return UntitledTitle
	}
	return title
}

// Add creates an entry with a fresh id.
func (c *Catalog) Add(title string, messageCount int) Entry {
	id := uuid.NewString()
	e := Entry{
		ID:           id,
		Title:        NormalizeTitle(title),
		LastAccessed: c.timestamp(),
		StorageKey:   StorageKey(id),
		MessageCount: messageCount,
	}
	c.SavedLogs = append(c.SavedLogs, e)
	return e
}

// Get returns the entry with the given id.
func (c *Catalog) Get(id string) (Entry, bool) {
	for _, e := range c.SavedLogs {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Update applies fn to the entry with the given id.
func (c *Catalog) Update(id string, fn func(*Entry)) bool {
	for i := range c.SavedLogs {
		if c.SavedLogs[i].ID == id {
			fn(&c.SavedLogs[i])
			return true
		}
	}
	return false
}

// Rename changes an entry's title.
func (c *Catalog) Rename(id, title string) bool {
	return c.Update(id, func(e *Entry) {
		e.Title = NormalizeTitle(title)
	})
}

// Touch refreshes an entry's access time and message count.
func (c *Catalog) Touch(id string, messageCount int) bool {
	ts := c.timestamp()
	return c.Update(id, func(e *Entry) {
		e.LastAccessed = ts
		e.MessageCount = messageCount
	})
}

// Remove deletes an entry and returns it.
func (c *Catalog) Remove(id string) (Entry, bool) {
	for i, e := range c.SavedLogs {
		if e.ID == id {
			c.SavedLogs = append(c.SavedLogs[:i], c.SavedLogs[i+1:]...)
			return e, true
		}
	}
	return Entry{}, false
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.SavedLogs)
}

// Sorted returns a copy of the entries, most recently accessed first.
func (c *Catalog) Sorted() []Entry {
	out := make([]Entry, len(c.SavedLogs))
	copy(out, c.SavedLogs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastAccessed > out[j].LastAccessed
	})
	return out
}

// Resolve finds an entry by full id, unique id prefix, or exact title.
func (c *Catalog) Resolve(ref string) (Entry, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Entry{}, fmt.Errorf("empty log reference")
	}
	if e, ok := c.Get(ref); ok {
		return e, nil
	}

	var matches []Entry
	for _, e := range c.SavedLogs {
		if strings.HasPrefix(e.ID, ref) || e.Title == NormalizeTitle(ref) {
			matches = append(matches, e)
		}
	}
	switch len(matches) {
	case 0:
		return Entry{}, fmt.Errorf("%w %q", ErrNoMatch, ref)
	case 1:
		return matches[0], nil
	default:
		return Entry{}, fmt.Errorf("%w: %q matches %d saved logs", ErrAmbiguous, ref, len(matches))
	}
}
