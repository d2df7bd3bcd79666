// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package prompt

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/jeranaias/switchboard/internal/chatlog"
	"github.com/jeranaias/switchboard/internal/config"
)

// Wire roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultCharsPerToken is the estimator ratio used when Options leaves it unset.
const DefaultCharsPerToken = 4

// =============================================================================
// WIRE TYPES
// =============================================================================

// Message is one entry of the outbound messages array. Content is either a
// plain string or a list of parts when an image is attached.
type Message struct {
	Role    string
	Content string
	Parts   []ContentPart
}

// ContentPart is one element of multi-part content.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL carries an image reference or data URL.
type ImageURL struct {
	URL string `json:"url"`
}

// MarshalJSON writes content as a string, or as a part list when Parts is set.
func (m Message) MarshalJSON() ([]byte, error) {
	if len(m.Parts) > 0 {
		return json.Marshal(struct {
			Role    string        `json:"role"`
			Content []ContentPart `json:"content"`
		}{m.Role, m.Parts})
	}
	return json.Marshal(struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}{m.Role, m.Content})
}

// =============================================================================
// BUILD
// =============================================================================

// Options control a single Build call.
type Options struct {
	SystemMessage string
	Budget        int
	// Regenerating excludes the newest turn, which is being replaced.
	Regenerating  bool
	CharsPerToken int
}

// Result is the built prompt plus accounting for logging.
type Result struct {
	Messages      []Message
	IncludedTurns int
	SystemTokens  int
	HistoryTokens int
}

// EstimateTokens approximates the token cost of s as its character count
// divided by charsPerToken, rounded down.
func EstimateTokens(s string, charsPerToken int) int {
	if charsPerToken <= 0 {
		charsPerToken = DefaultCharsPerToken
	}
	return utf8.RuneCountInString(s) / charsPerToken
}

// Build selects the newest turns that fit the budget and returns them in
// chronological order, preceded by the system message when one is set.
//
// Build never fails. A budget exhausted by the system message yields a prompt
// with no history.
func Build(turns []chatlog.Turn, opts Options) Result {
	cpt := opts.CharsPerToken
	if cpt <= 0 {
		cpt = DefaultCharsPerToken
	}

	var res Result
	system := strings.TrimSpace(opts.SystemMessage)
	res.SystemTokens = EstimateTokens(system, cpt)
	remaining := opts.Budget - res.SystemTokens

	end := len(turns)
	if opts.Regenerating && end > 0 {
		end--
	}

	history := make([]Message, 0, end)
	for i := end - 1; i >= 0; i-- {
		variant := turns[i].SelectedVariant()
		text := chatlog.StripThinking(variant.Text)
		cost := EstimateTokens(text, cpt)
		if cost > remaining {
			break
		}
		remaining -= cost
		res.HistoryTokens += cost

		msg := Message{Role: roleOf(turns[i]), Content: text}
		if len(history) == 0 && variant.Image != nil && *variant.Image != "" {
			msg.Parts = []ContentPart{
				{Type: "text", Text: text},
				{Type: "image_url", ImageURL: &ImageURL{URL: *variant.Image}},
			}
		}
		history = append(history, msg)
	}
	res.IncludedTurns = len(history)

	res.Messages = make([]Message, 0, len(history)+1)
	if system != "" {
		res.Messages = append(res.Messages, Message{Role: RoleSystem, Content: system})
	}
	for i := len(history) - 1; i >= 0; i-- {
		res.Messages = append(res.Messages, history[i])
	}
	return res
}

func roleOf(t chatlog.Turn) string {
	if t.AIGenerated {
		return RoleAssistant
	}
	return RoleUser
}

// =============================================================================
// BUDGET
// =============================================================================

// Limits are the provider-side constants used when an endpoint does not set
// its own context size.
type Limits struct {
	ProviderMaxContext  int
	ResponseReservation int
	CharsPerToken       int
}

// DefaultLimits returns 16000 tokens of context with 2000 reserved for the
// response.
func DefaultLimits() Limits {
	return Limits{
		ProviderMaxContext:  config.DefaultProviderMaxContext,
		ResponseReservation: config.DefaultResponseReservation,
		CharsPerToken:       config.DefaultCharsPerToken,
	}
}

// LimitsFromConfig reads the [budget] section.
func LimitsFromConfig(b config.BudgetConfig) Limits {
	return Limits{
		ProviderMaxContext:  b.ProviderMaxContext,
		ResponseReservation: b.ResponseReservation,
		CharsPerToken:       b.CharsPerToken,
	}
}

// ResolveBudget returns the endpoint's target context size when set, otherwise
// the provider maximum less the response reservation.
func ResolveBudget(endpoint config.Endpoint, limits Limits) int {
	if endpoint.TargetContextSize != nil {
		return endpoint.GetTargetContextSize()
	}
	return limits.ProviderMaxContext - limits.ResponseReservation
}
