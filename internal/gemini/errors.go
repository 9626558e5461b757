package gemini

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingCredential matches any ConfigurationError via errors.Is.
var ErrMissingCredential = errors.New("gemini: api key is not configured")

// ConfigurationError reports a fatal setup problem detected before any
// backend call is made.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrMissingCredential
}

// StatusError is a non-2xx response from one candidate.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// ValidateCredential rejects blank keys and unresolved placeholders such as
// "UNSET", "${GEMINI_API_KEY}" or "<your-key>".
func ValidateCredential(key string) error {
	k := strings.TrimSpace(key)
	switch {
	case k == "":
		return &ConfigurationError{Reason: "GEMINI_API_KEY is not set"}
	case strings.EqualFold(k, "UNSET"),
		strings.HasPrefix(k, "${"),
		strings.HasPrefix(k, "<") && strings.HasSuffix(k, ">"):
		return &ConfigurationError{Reason: "GEMINI_API_KEY is an unresolved placeholder"}
	}
	return nil
}
