// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Defaults for a fresh endpoint.
const (
	DefaultEndpointName = "Default"
	DefaultEndpointURL  = "https://openrouter.ai/api/v1"
	DefaultModelID      = "google/gemma-3-27b-it:free"
)

// Fallbacks used by the typed accessors when a field is absent or does not
// parse.
const (
	DefaultTemperature       float32 = 1.0
	DefaultTopP              float32 = 1.0
	DefaultTopK              uint32  = 0
	DefaultMinP              float32 = 0.0
	DefaultRepetitionPenalty float32 = 1.0
	DefaultMaxTokens         uint32  = 100
	DefaultTargetContextSize         = 4096
)

// Endpoint describes an OpenAI-compatible completion API.
//
// The optional parameters are kept as the strings the user typed. A nil field
// means "not set" and is left out of outbound requests; the Get* accessors
// parse on demand and fall back to the documented defaults.
type Endpoint struct {
	Name     string `json:"name" toml:"name"`
	Endpoint string `json:"endpoint" toml:"endpoint"`
	APIKey   string `json:"api_key" toml:"api_key"`
	ModelID  string `json:"model_id" toml:"model_id"`

	Temperature       *string `json:"temperature" toml:"temperature,omitempty"`
	TopP              *string `json:"top_p" toml:"top_p,omitempty"`
	TopK              *string `json:"top_k" toml:"top_k,omitempty"`
	MinP              *string `json:"min_p" toml:"min_p,omitempty"`
	RepetitionPenalty *string `json:"repetition_penalty" toml:"repetition_penalty,omitempty"`

	MaxTokens         *string `json:"max_tokens" toml:"max_tokens,omitempty"`
	TargetContextSize *string `json:"target_context_size" toml:"target_context_size,omitempty"`
}

// DefaultEndpoint returns the endpoint used before the user configures one.
func DefaultEndpoint() Endpoint {
	return Endpoint{
		Name:     DefaultEndpointName,
		Endpoint: DefaultEndpointURL,
		ModelID:  DefaultModelID,
	}
}

// =============================================================================
// TYPED ACCESSORS
// =============================================================================

// GetTemperature returns temperature or 1.0.
func (e Endpoint) GetTemperature() float32 { return parseFloat(e.Temperature, DefaultTemperature) }

// GetTopP returns top_p or 1.0.
func (e Endpoint) GetTopP() float32 { return parseFloat(e.TopP, DefaultTopP) }

// GetTopK returns top_k or 0.
func (e Endpoint) GetTopK() uint32 { return parseUint(e.TopK, DefaultTopK) }

// GetMinP returns min_p or 0.0.
func (e Endpoint) GetMinP() float32 { return parseFloat(e.MinP, DefaultMinP) }

// GetRepetitionPenalty returns repetition_penalty or 1.0.
func (e Endpoint) GetRepetitionPenalty() float32 {
	return parseFloat(e.RepetitionPenalty, DefaultRepetitionPenalty)
}

// GetMaxTokens returns max_tokens or 100.
func (e Endpoint) GetMaxTokens() uint32 { return parseUint(e.MaxTokens, DefaultMaxTokens) }

// GetTargetContextSize returns target_context_size or 4096.
func (e Endpoint) GetTargetContextSize() int {
	return int(parseUint(e.TargetContextSize, DefaultTargetContextSize))
}

func parseFloat(s *string, fallback float32) float32 {
	if s == nil {
		return fallback
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(*s), 32)
	if err != nil {
		return fallback
	}
	return float32(v)
}

func parseUint(s *string, fallback uint32) uint32 {
	if s == nil {
		return fallback
	}
	v, err := strconv.ParseUint(strings.TrimSpace(*s), 10, 32)
	if err != nil {
		return fallback
	}
	return uint32(v)
}

// =============================================================================
// FIELD ACCESS BY NAME
// =============================================================================

// EndpointKeys lists the field names accepted by Set and Field, in display order.
var EndpointKeys = []string{
	"name", "endpoint", "api_key", "model_id",
	"temperature", "top_p", "top_k", "min_p", "repetition_penalty",
	"max_tokens", "target_context_size",
}

// Set assigns a field by its JSON name. For optional fields an empty value
// clears the field, matching how a blank input box means "not set".
func (e *Endpoint) Set(key, value string) error {
	switch key {
	case "name":
		e.Name = value
	case "endpoint":
		e.Endpoint = strings.TrimSuffix(strings.TrimSpace(value), "/")
	case "api_key":
		e.APIKey = value
	case "model_id":
		e.ModelID = value
	default:
		field := e.optional(key)
		if field == nil {
			return fmt.Errorf("unknown endpoint setting %q", key)
		}
		*field = optionalString(value)
	}
	return nil
}

// Field returns the raw value of a field and whether it is set.
func (e *Endpoint) Field(key string) (string, bool) {
	switch key {
	case "name":
		return e.Name, true
	case "endpoint":
		return e.Endpoint, true
	case "api_key":
		return e.APIKey, e.APIKey != ""
	case "model_id":
		return e.ModelID, true
	}
	field := e.optional(key)
	if field == nil || *field == nil {
		return "", false
	}
	return **field, true
}

func (e *Endpoint) optional(key string) **string {
	switch key {
	case "temperature":
		return &e.Temperature
	case "top_p":
		return &e.TopP
	case "top_k":
		return &e.TopK
	case "min_p":
		return &e.MinP
	case "repetition_penalty":
		return &e.RepetitionPenalty
	case "max_tokens":
		return &e.MaxTokens
	case "target_context_size":
		return &e.TargetContextSize
	}
	return nil
}

// optionalString maps "" to nil.
func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
