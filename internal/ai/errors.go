package ai

import "github.com/kiranshivaraju/loganalyzer/internal/ai/aierr"

// Re-exported so callers only need to import ai.
var (
	ErrProviderUnavailable = aierr.ErrProviderUnavailable
	ErrInferenceTimeout    = aierr.ErrInferenceTimeout
	ErrInvalidResponse     = aierr.ErrInvalidResponse
	ErrUnexpectedStatus    = aierr.ErrUnexpectedStatus
	ErrMissingAPIKey       = aierr.ErrMissingAPIKey
)

// StatusError carries a non-success reply from a backend.
type StatusError = aierr.StatusError
