// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpoint_AccessorDefaults(t *testing.T) {
	e := DefaultEndpoint()

	assert.Equal(t, "Default", e.Name)
	assert.Equal(t, float32(1.0), e.GetTemperature())
	assert.Equal(t, float32(1.0), e.GetTopP())
	assert.Equal(t, uint32(0), e.GetTopK())
	assert.Equal(t, float32(0.0), e.GetMinP())
	assert.Equal(t, float32(1.0), e.GetRepetitionPenalty())
	assert.Equal(t, uint32(100), e.GetMaxTokens())
	assert.Equal(t, 4096, e.GetTargetContextSize())
}

func TestEndpoint_AccessorParsing(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float32
	}{
		{"plain", "0.5", 0.5},
		{"padded", " 0.25 ", 0.25},
		{"garbage falls back", "hot", 1.0},
		{"empty falls back", "", 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Endpoint{Temperature: strPtr(tt.raw)}
			assert.Equal(t, tt.want, e.GetTemperature())
		})
	}

	e := Endpoint{MaxTokens: strPtr("-3"), TargetContextSize: strPtr("8192")}
	assert.Equal(t, uint32(100), e.GetMaxTokens())
	assert.Equal(t, 8192, e.GetTargetContextSize())
}

func TestEndpoint_SetAndField(t *testing.T) {
	e := DefaultEndpoint()

	require.NoError(t, e.Set("temperature", "0.3"))
	v, ok := e.Field("temperature")
	assert.True(t, ok)
	assert.Equal(t, "0.3", v)

	require.NoError(t, e.Set("temperature", "  "))
	_, ok = e.Field("temperature")
	assert.False(t, ok)
	assert.Nil(t, e.Temperature)

	require.NoError(t, e.Set("endpoint", "http://localhost:5000/v1/"))
	assert.Equal(t, "http://localhost:5000/v1", e.Endpoint)

	assert.Error(t, e.Set("seed", "1"))
	_, ok = e.Field("seed")
	assert.False(t, ok)
}

func TestEndpoint_JSONKeepsNullOptionals(t *testing.T) {
	e := DefaultEndpoint()
	e.TopK = strPtr("40")

	data, err := json.Marshal(e)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range EndpointKeys {
		assert.Contains(t, raw, key)
	}
	assert.Nil(t, raw["temperature"])
	assert.Equal(t, "40", raw["top_k"])

	var back Endpoint
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, e, back)
}
