// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"net/http"

	"github.com/jeranaias/switchboard/internal/app"
	"github.com/jeranaias/switchboard/internal/completion"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError covers start-up failures and anything unclassified
	ExitGeneralError = 1
	// ExitAuthError indicates the provider rejected the API key
	ExitAuthError = 4
	// ExitNetworkError indicates the request never got a response
	ExitNetworkError = 5
	// ExitNotFoundError indicates a saved log or turn was not found
	ExitNotFoundError = 7
)

// startupError marks failures before a command could run.
type startupError struct {
	err error
}

func (e *startupError) Error() string { return e.err.Error() }

func (e *startupError) Unwrap() error { return e.err }

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var se *startupError
	if errors.As(err, &se) {
		return ExitGeneralError
	}

	var apiErr *completion.APIError
	switch {
	case errors.As(err, &apiErr) &&
		(apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden):
		return ExitAuthError
	case errors.Is(err, completion.ErrTransport):
		return ExitNetworkError
	case app.IsNotFound(err):
		return ExitNotFoundError
	default:
		return ExitGeneralError
	}
}
