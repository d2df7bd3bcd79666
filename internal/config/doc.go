// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config holds the two kinds of settings switchboard works with.
//
// # Key Types
//
//   - Endpoint: the OpenAI-compatible API settings that travel with every
//     chatlog snapshot (URL, key, model and optional sampling parameters)
//   - Config: process settings read from ~/.switchboard/config.toml
//     (data directory, storage backend, logging, token budget, client headers)
//
// # Configuration Precedence
//
//   - Environment variables (SWITCHBOARD_*)
//   - ~/.switchboard/config.toml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	temp := cfg.Endpoint.GetTemperature()
package config
