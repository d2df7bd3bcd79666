// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

// titleWidth is the display width of the title column.
const titleWidth = 36

// FormatList renders entries as an aligned table. Titles are truncated by
// display width so wide characters keep the columns straight.
func FormatList(entries []Entry) string {
	if len(entries) == 0 {
		return "No saved logs.\n"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%-8s  %s  %5s  %s\n", "ID", runewidth.FillRight("TITLE", titleWidth), "TURNS", "LAST ACCESSED")
	for _, e := range entries {
		title := runewidth.Truncate(e.Title, titleWidth, "...")
		fmt.Fprintf(&sb, "%-8s  %s  %5d  %s\n",
			shortID(e.ID),
			runewidth.FillRight(title, titleWidth),
			e.MessageCount,
			e.LastAccessedTime().Local().Format(time.DateTime))
	}
	return sb.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
