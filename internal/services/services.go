// package services implements the HTTP adapters for the Deemix and Spotify catalogs
package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/desertthunder/spoteemix/internal/shared"
)

const (
	CatalogDeemix  = "deemix"
	CatalogSpotify = "spotify"
)

// ErrCatalogUnavailable indicates a transient failure reaching a catalog (transport error,
// rate limiting, server error).
type ErrCatalogUnavailable struct {
	Catalog string
	Cause   error
}

func (e *ErrCatalogUnavailable) Error() string {
	return fmt.Sprintf("catalog %s unavailable: %v", e.Catalog, e.Cause)
}

func (e *ErrCatalogUnavailable) Unwrap() error { return e.Cause }

// IsUnavailable reports whether err is an [ErrCatalogUnavailable].
func IsUnavailable(err error) bool {
	var target *ErrCatalogUnavailable
	return errors.As(err, &target)
}

// checkStatus maps non-2xx responses to shared errors.
func checkStatus(catalog string, resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s returned status %d", shared.ErrNotAuthenticated, catalog, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s returned status %d", errNotFound, catalog, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return &ErrCatalogUnavailable{
			Catalog: catalog,
			Cause:   fmt.Errorf("%w: status %d", shared.ErrServiceUnavailable, resp.StatusCode),
		}
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s returned status %d: %s", shared.ErrAPIRequest, catalog, resp.StatusCode, body)
	}
}

var errNotFound = fmt.Errorf("%w: not found", shared.ErrAPIRequest)

// decodeJSON decodes a response body, tagging failures as malformed.
func decodeJSON(r io.Reader, v any) error {
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
	}
	return nil
}
