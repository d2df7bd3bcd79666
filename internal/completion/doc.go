// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package completion sends a conversation to an OpenAI-compatible
// /chat/completions endpoint and parses the reply.
//
// Each Send performs exactly one POST. There are no retries and no client-side
// caching; callers serialize requests themselves.
//
// # Error Classes
//
//   - ErrTransport: the request could not be sent or the body could not be read
//   - ErrProtocol: the body was not the expected JSON (ErrMissingContent is a
//     special case), or the provider returned an *APIError
//
// # Usage
//
//	client := completion.NewClient().WithTimeout(cfg.Client.Timeout())
//	resp, err := client.Send(ctx, log.Turns(), log.IsRegenerating(), endpoint, sys)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(resp.Text)
package completion
