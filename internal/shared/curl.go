// Extracting the Deezer ARL cookie from a request copied from the browser.
package shared

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

const arlCookie = "arl"

var (
	curlHeaderRegex = regexp.MustCompile(`-H\s+'([^']+)'|-H\s+"([^"]+)"`)
	curlCookieRegex = regexp.MustCompile(`(?:-b|--cookie)\s+'([^']+)'|(?:-b|--cookie)\s+"([^"]+)"`)
	arlRegex        = regexp.MustCompile(`^[A-Za-z0-9]+$`)
)

// CurlCookies returns the cookie string of a cURL command ("Copy as cURL" in the browser's DevTools).
//
// A -b/--cookie argument wins over a Cookie header.
func CurlCookies(data []byte) (string, error) {
	curlCmd := strings.ReplaceAll(string(data), "\\\n", " ")
	curlCmd = strings.ReplaceAll(curlCmd, "\\", "")

	if m := curlCookieRegex.FindStringSubmatch(curlCmd); m != nil {
		return firstGroup(m), nil
	}

	for _, m := range curlHeaderRegex.FindAllStringSubmatch(curlCmd, -1) {
		key, value, ok := strings.Cut(firstGroup(m), ":")
		if ok && strings.EqualFold(strings.TrimSpace(key), "cookie") {
			return strings.TrimSpace(value), nil
		}
	}
	return "", fmt.Errorf("%w: no cookies found in curl command", ErrInvalidInput)
}

func firstGroup(m []string) string {
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}

// ARLFromCurl finds the arl cookie in a cURL command copied from a logged-in deezer.com tab.
func ARLFromCurl(data []byte) (string, error) {
	cookies, err := CurlCookies(data)
	if err != nil {
		return "", err
	}

	for _, pair := range strings.Split(cookies, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if ok && name == arlCookie {
			return value, ValidateARL(value)
		}
	}
	return "", fmt.Errorf("%w: no arl cookie, copy a request from a logged-in deezer.com tab", ErrInvalidInput)
}

// ARLFromCurlFile reads a .sh file containing a cURL command and extracts the arl cookie.
func ARLFromCurlFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read curl file: %w", err)
	}
	return ARLFromCurl(content)
}

// ValidateARL checks that an ARL looks like a Deezer session token.
func ValidateARL(arl string) error {
	if arl == "" {
		return fmt.Errorf("%w: empty ARL", ErrMissingCredentials)
	}
	if !arlRegex.MatchString(arl) {
		return fmt.Errorf("%w: malformed ARL", ErrInvalidCredentials)
	}
	return nil
}
