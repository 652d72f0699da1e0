package provider

import (
	"errors"
	"fmt"
	"strings"
)

// CredentialError marks a provider failure that a fresh credential set is
// likely to fix: HTTP 401/403, GraphQL errors mentioning the session, AppError
// payloads about tokens, and request timeouts.
type CredentialError struct {
	Reason string
	Err    error
}

func (e *CredentialError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider credential error: %s: %v", e.Reason, e.Err)
	}
	return "provider credential error: " + e.Reason
}

func (e *CredentialError) Unwrap() error {
	return e.Err
}

func IsCredentialError(err error) bool {
	var ce *CredentialError
	return errors.As(err, &ce)
}

var credentialKeywords = []string{"token", "authorization", "session"}

// looksLikeCredentialIssue reports whether an error message from the provider
// suggests an expired or rejected session rather than a bad query.
func looksLikeCredentialIssue(message string, extraKeywords ...string) bool {
	lower := strings.ToLower(message)
	for _, kw := range credentialKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	for _, kw := range extraKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
