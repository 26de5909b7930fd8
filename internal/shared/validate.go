package shared

import (
	"fmt"
	"regexp"
	"strings"
)

var credentialPattern = regexp.MustCompile(`^[A-Za-z0-9]{32}$`)

// ValidateCredential checks that a Spotify client id or secret is 32 alphanumeric characters.
func ValidateCredential(name, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s is required", ErrMissingCredentials, name)
	}
	if !credentialPattern.MatchString(value) {
		return fmt.Errorf("%w: %s must be 32 alphanumeric characters", ErrInvalidCredentials, name)
	}
	return nil
}

// ValidateHTTPURL checks that value looks like an http(s) link.
func ValidateHTTPURL(name, value string) error {
	if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
		return fmt.Errorf("%w: %s must be an http(s) URL, got %q", ErrInvalidArgument, name, value)
	}
	return nil
}
