// Spotify Web API adapter
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spoteemix/internal/match"
	"github.com/desertthunder/spoteemix/internal/models"
	"github.com/desertthunder/spoteemix/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	spotifyTrackURL = "https://open.spotify.com/track/"

	DefaultRedirectURI    = "http://127.0.0.1:8888/callback"
	DefaultSpotifyTimeout = 15 * time.Second
	DefaultSpotifyRate    = 10.0
	PlaylistDescription   = "Created by spoteemix"

	pageSize        = 100
	tracksBatchSize = 50
	addItemsBatch   = 100
	searchLimit     = 5
)

var (
	playlistPattern = regexp.MustCompile(`.*/playlist/(\w*)(\?.*)?`)

	// UserScopes are requested when a command modifies the user's playlists.
	UserScopes = []string{"playlist-modify-private", "playlist-read-private"}
)

// ParsePlaylistID extracts the playlist id from an open.spotify.com link.
func ParsePlaylistID(link string) (string, error) {
	m := playlistPattern.FindStringSubmatch(link)
	if m == nil || m[1] == "" {
		return "", fmt.Errorf("%w: %q is not a Spotify playlist link", shared.ErrInvalidArgument, link)
	}
	return m[1], nil
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifyArtist represents a simplified Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyTrack represents a Spotify track. It satisfies [match.Candidate].
type SpotifyTrack struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Artists []SpotifyArtist `json:"artists"`
	URI     string          `json:"uri"`
	IsLocal bool            `json:"is_local"`
}

func (t SpotifyTrack) Title() string { return t.Name }

func (t SpotifyTrack) ArtistNames() []string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return names
}

// URL is the track's open.spotify.com link.
func (t SpotifyTrack) URL() string { return spotifyTrackURL + t.ID }

// HasFormat is always false: Spotify exposes no download formats.
func (t SpotifyTrack) HasFormat(models.Format) bool { return false }

// Reference converts the track into the form the matcher searches for.
func (t SpotifyTrack) Reference() models.ReferenceTrack {
	return models.NewReferenceTrack(t.Name, t.ArtistNames()...)
}

type spotifyPlaylist struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	SnapshotID string `json:"snapshot_id"`
	Owner      struct {
		DisplayName string `json:"display_name"`
	} `json:"owner"`
	Tracks struct {
		Total int `json:"total"`
	} `json:"tracks"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

func (p spotifyPlaylist) model() *models.Playlist {
	return &models.Playlist{
		ID:         p.ID,
		Name:       p.Name,
		Owner:      p.Owner.DisplayName,
		TrackCount: p.Tracks.Total,
		SnapshotID: p.SnapshotID,
		URL:        p.ExternalURLs.Spotify,
	}
}

type playlistItemsPage struct {
	Total int `json:"total"`
	Items []struct {
		Track *struct {
			ID string `json:"id"`
		} `json:"track"`
	} `json:"items"`
}

// SpotifyOpts configures a [SpotifyService]. Empty URLs default to Spotify's production endpoints.
type SpotifyOpts struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	BaseURL      string
	AuthURL      string
	TokenURL     string
	HTTPClient   *http.Client
	Timeout      time.Duration // per request, including token fetches
	RateLimit    float64       // requests per second
	Logger       *log.Logger
}

// SpotifyService talks to the Spotify Web API.
//
// Reads use an app token from the client credentials grant. Writes need a user token from
// [SpotifyService.Exchange] or [SpotifyService.SetUserToken].
type SpotifyService struct {
	baseURL    string
	oauth      *oauth2.Config
	appClient  *http.Client
	userClient *http.Client
	httpClient *http.Client
	timeout    time.Duration
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewSpotifyService creates a new Spotify service with the given credentials.
func NewSpotifyService(opts SpotifyOpts) (*SpotifyService, error) {
	if opts.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}
	if opts.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}
	if opts.RedirectURI == "" {
		opts.RedirectURI = DefaultRedirectURI
	}
	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.AuthURL == "" {
		opts.AuthURL = spotifyAuthURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = spotifyTokenURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultSpotifyTimeout
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = DefaultSpotifyRate
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	cc := &clientcredentials.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		TokenURL:     opts.TokenURL,
	}

	s := &SpotifyService{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		oauth: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURI,
			Scopes:       UserScopes,
			Endpoint:     oauth2.Endpoint{AuthURL: opts.AuthURL, TokenURL: opts.TokenURL},
		},
		httpClient: opts.HTTPClient,
		timeout:    opts.Timeout,
		limiter:    rate.NewLimiter(rate.Limit(opts.RateLimit), max(1, int(opts.RateLimit))),
		logger:     shared.WithLogger(opts.Logger, "catalog", CatalogSpotify),
	}
	s.appClient = cc.Client(s.clientContext(context.Background()))
	s.appClient.Timeout = s.timeout
	return s, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

func (s *SpotifyService) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

// AuthCodeURL returns the URL the user visits to grant playlist access.
func (s *SpotifyService) AuthCodeURL(state string) string {
	return s.oauth.AuthCodeURL(state)
}

// RedirectURI is the callback the authorization server sends the user back to.
func (s *SpotifyService) RedirectURI() string {
	return s.oauth.RedirectURL
}

// Exchange trades an authorization code for a user token.
func (s *SpotifyService) Exchange(ctx context.Context, code string) error {
	token, err := s.oauth.Exchange(s.clientContext(ctx), code)
	if err != nil {
		return fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
	}
	s.SetUserToken(ctx, token)
	return nil
}

// SetUserToken installs a user token. It lives in memory only.
func (s *SpotifyService) SetUserToken(ctx context.Context, token *oauth2.Token) {
	s.userClient = s.oauth.Client(s.clientContext(context.WithoutCancel(ctx)), token)
	s.userClient.Timeout = s.timeout
}

// Authenticated reports whether a user token is installed.
func (s *SpotifyService) Authenticated() bool {
	return s.userClient != nil
}

// readClient prefers the user's token so private playlists are readable once authorized.
func (s *SpotifyService) readClient() *http.Client {
	if s.userClient != nil {
		return s.userClient
	}
	return s.appClient
}

func (s *SpotifyService) writeClient() (*http.Client, error) {
	if s.userClient == nil {
		return nil, fmt.Errorf("%w: user authorization required", shared.ErrNotAuthenticated)
	}
	return s.userClient, nil
}

// doRequest performs a request against the API, encoding body and decoding into result when non-nil.
func (s *SpotifyService) doRequest(ctx context.Context, client *http.Client, method, endpoint string, body, result any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		r = bytes.NewReader(data)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, r)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			return fmt.Errorf("%w: %v", shared.ErrInvalidCredentials, re)
		}
		return &ErrCatalogUnavailable{Catalog: CatalogSpotify, Cause: err}
	}
	defer resp.Body.Close()

	if err := checkStatus(CatalogSpotify, resp); err != nil {
		return err
	}

	if result != nil {
		return decodeJSON(resp.Body, result)
	}
	return nil
}

// CurrentUser retrieves the authorized user's profile.
func (s *SpotifyService) CurrentUser(ctx context.Context) (*SpotifyUser, error) {
	client, err := s.writeClient()
	if err != nil {
		return nil, err
	}
	var user SpotifyUser
	if err := s.doRequest(ctx, client, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// PlaylistInfo retrieves playlist metadata.
func (s *SpotifyService) PlaylistInfo(ctx context.Context, playlistID string) (*models.Playlist, error) {
	q := url.Values{"fields": {"id,name,snapshot_id,owner(display_name),tracks(total),external_urls"}}
	endpoint := "/playlists/" + url.PathEscape(playlistID) + "?" + q.Encode()

	var p spotifyPlaylist
	if err := s.doRequest(ctx, s.readClient(), http.MethodGet, endpoint, nil, &p); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
		}
		return nil, err
	}
	return p.model(), nil
}

// TrackIDs pages through a playlist's items until an empty page.
//
// Local files and removed tracks have no id and are skipped.
func (s *SpotifyService) TrackIDs(ctx context.Context, playlistID string) ([]string, error) {
	var ids []string
	for offset := 0; ; offset += pageSize {
		q := url.Values{
			"fields":           {"items.track.id,total"},
			"additional_types": {"track"},
			"limit":            {fmt.Sprint(pageSize)},
			"offset":           {fmt.Sprint(offset)},
		}
		endpoint := "/playlists/" + url.PathEscape(playlistID) + "/tracks?" + q.Encode()

		var page playlistItemsPage
		if err := s.doRequest(ctx, s.readClient(), http.MethodGet, endpoint, nil, &page); err != nil {
			if errors.Is(err, errNotFound) {
				return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
			}
			return nil, err
		}
		if len(page.Items) == 0 {
			break
		}

		for _, item := range page.Items {
			if item.Track == nil || item.Track.ID == "" {
				continue
			}
			ids = append(ids, item.Track.ID)
		}
	}

	s.logger.Debug("playlist items fetched", "playlist", playlistID, "tracks", len(ids))
	return ids, nil
}

// Tracks fetches full track objects, batching ids 50 at a time. Unknown ids are dropped.
//
// onBatch, when non-nil, is called with the number of tracks fetched so far.
func (s *SpotifyService) Tracks(ctx context.Context, ids []string, onBatch func(done int)) ([]SpotifyTrack, error) {
	tracks := make([]SpotifyTrack, 0, len(ids))
	for start := 0; start < len(ids); start += tracksBatchSize {
		end := min(start+tracksBatchSize, len(ids))
		endpoint := "/tracks?" + url.Values{"ids": {strings.Join(ids[start:end], ",")}}.Encode()

		var response struct {
			Tracks []*SpotifyTrack `json:"tracks"`
		}
		if err := s.doRequest(ctx, s.readClient(), http.MethodGet, endpoint, nil, &response); err != nil {
			return nil, err
		}
		for _, t := range response.Tracks {
			if t != nil {
				tracks = append(tracks, *t)
			}
		}
		if onBatch != nil {
			onBatch(end)
		}
	}
	return tracks, nil
}

// SearchTracks returns up to five tracks matching query.
func (s *SpotifyService) SearchTracks(ctx context.Context, query string) ([]SpotifyTrack, error) {
	q := url.Values{"q": {query}, "type": {"track"}, "limit": {fmt.Sprint(searchLimit)}}

	var response struct {
		Tracks struct {
			Items []SpotifyTrack `json:"items"`
		} `json:"tracks"`
	}
	if err := s.doRequest(ctx, s.readClient(), http.MethodGet, "/search?"+q.Encode(), nil, &response); err != nil {
		return nil, err
	}
	return response.Tracks.Items, nil
}

// Search implements [match.Searcher].
func (s *SpotifyService) Search(ctx context.Context, query string) ([]match.Candidate, error) {
	tracks, err := s.SearchTracks(ctx, query)
	if err != nil {
		return nil, err
	}
	candidates := make([]match.Candidate, len(tracks))
	for i, t := range tracks {
		candidates[i] = t
	}
	return candidates, nil
}

// CreatePlaylist creates a private playlist owned by userID.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, userID, name string) (*models.Playlist, error) {
	client, err := s.writeClient()
	if err != nil {
		return nil, err
	}

	body := map[string]any{"name": name, "public": false, "description": PlaylistDescription}
	var p spotifyPlaylist
	if err := s.doRequest(ctx, client, http.MethodPost, "/users/"+url.PathEscape(userID)+"/playlists", body, &p); err != nil {
		return nil, err
	}
	s.logger.Info("playlist created", "id", p.ID, "name", p.Name)
	return p.model(), nil
}

// AddItems appends track URIs to a playlist, 100 per request. It returns the last snapshot id.
func (s *SpotifyService) AddItems(ctx context.Context, playlistID string, uris []string) (string, error) {
	client, err := s.writeClient()
	if err != nil {
		return "", err
	}

	var snapshot string
	for start := 0; start < len(uris); start += addItemsBatch {
		end := min(start+addItemsBatch, len(uris))
		var resp struct {
			SnapshotID string `json:"snapshot_id"`
		}
		body := map[string]any{"uris": uris[start:end]}
		if err := s.doRequest(ctx, client, http.MethodPost, "/playlists/"+url.PathEscape(playlistID)+"/tracks", body, &resp); err != nil {
			return snapshot, err
		}
		snapshot = resp.SnapshotID
	}
	return snapshot, nil
}

// ReorderItems moves rangeLength items starting at rangeStart to before insertBefore.
// It returns the playlist's new snapshot id.
func (s *SpotifyService) ReorderItems(ctx context.Context, playlistID string, rangeStart, rangeLength, insertBefore int, snapshotID string) (string, error) {
	client, err := s.writeClient()
	if err != nil {
		return "", err
	}

	body := map[string]any{
		"range_start":   rangeStart,
		"range_length":  rangeLength,
		"insert_before": insertBefore,
	}
	if snapshotID != "" {
		body["snapshot_id"] = snapshotID
	}

	var resp struct {
		SnapshotID string `json:"snapshot_id"`
	}
	if err := s.doRequest(ctx, client, http.MethodPut, "/playlists/"+url.PathEscape(playlistID)+"/tracks", body, &resp); err != nil {
		return "", err
	}
	return resp.SnapshotID, nil
}
