package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spoteemix/internal/match"
	"github.com/desertthunder/spoteemix/internal/models"
	"github.com/desertthunder/spoteemix/internal/shared"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

const (
	DefaultDeemixURL     = "http://127.0.0.1:6595"
	DefaultDeemixTimeout = 15 * time.Second
	DefaultSearchRate    = 10.0
	DefaultQueueRate     = 2.0

	deezerTrackURL = "https://www.deezer.com/track/"
)

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*f = flexString(v)
		return nil
	}
	*f = flexString(s)
	return nil
}

// fileSize is a FILESIZE_* field. Deemix reports these as strings or numbers; zero, empty and
// unparseable values all mean the format is unavailable.
type fileSize int64

func (f *fileSize) UnmarshalJSON(b []byte) error {
	var raw flexString
	if err := raw.UnmarshalJSON(b); err != nil {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(string(raw), 64)
	if err != nil || n < 0 {
		*f = 0
		return nil
	}
	*f = fileSize(n)
	return nil
}

// DeezerArtist is one entry of a track's ARTISTS list.
type DeezerArtist struct {
	ID   flexString `json:"ART_ID"`
	Name string     `json:"ART_NAME"`
}

// DeezerTrack is one search result from Deemix's mainSearch endpoint.
type DeezerTrack struct {
	ID           flexString     `json:"SNG_ID"`
	SongTitle    string         `json:"SNG_TITLE"`
	Version      string         `json:"VERSION"`
	AlbumTitle   string         `json:"ALB_TITLE"`
	Artists      []DeezerArtist `json:"ARTISTS"`
	Duration     flexString     `json:"DURATION"`
	SizeLossless fileSize       `json:"FILESIZE_FLAC"`
	SizeHigh     fileSize       `json:"FILESIZE_MP3_320"`
	SizeLow      fileSize       `json:"FILESIZE_MP3_128"`
}

func (t DeezerTrack) Title() string { return t.SongTitle }

func (t DeezerTrack) ArtistNames() []string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return names
}

// HasFormat reports whether Deezer holds a file for f.
func (t DeezerTrack) HasFormat(f models.Format) bool {
	switch f {
	case models.FormatLossless:
		return t.SizeLossless > 0
	case models.FormatHigh:
		return t.SizeHigh > 0
	case models.FormatLow:
		return t.SizeLow > 0
	default:
		return false
	}
}

// URL is the public Deezer link Deemix accepts in its queue.
func (t DeezerTrack) URL() string {
	return deezerTrackURL + string(t.ID)
}

type mainSearchResponse struct {
	Track *struct {
		Data []DeezerTrack `json:"data"`
	} `json:"TRACK"`
}

// DeemixOpts configures [DeemixService] and [DeemixQueue]. Zero values use the defaults.
type DeemixOpts struct {
	BaseURL    string
	ARL        string
	HTTPClient *http.Client
	RateLimit  float64 // requests per second
	Timeout    time.Duration
	Logger     *log.Logger
}

func (o *DeemixOpts) defaults(ratePerSec float64) {
	if o.BaseURL == "" {
		o.BaseURL = DefaultDeemixURL
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.Timeout <= 0 {
		o.Timeout = DefaultDeemixTimeout
	}
	if o.RateLimit <= 0 {
		o.RateLimit = ratePerSec
	}
	if o.Logger == nil {
		o.Logger = shared.NewLogger(nil)
	}
}

// DeemixService searches a Deemix instance.
type DeemixService struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  *log.Logger
}

func NewDeemixService(opts DeemixOpts) *DeemixService {
	opts.defaults(DefaultSearchRate)
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &DeemixService{
		baseURL: opts.BaseURL,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		logger:  shared.WithLogger(opts.Logger, "catalog", CatalogDeemix),
	}
}

// SearchTracks runs one query against /api/mainSearch.
//
// A response without a TRACK section, or with a track missing its title, is
// [shared.ErrMalformedResponse].
func (d *DeemixService) SearchTracks(ctx context.Context, query string) ([]DeezerTrack, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, &ErrCatalogUnavailable{Catalog: CatalogDeemix, Cause: fmt.Errorf("rate limiter: %w", err)}
	}

	reqURL := d.baseURL + "/api/mainSearch?" + url.Values{"term": {query}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &ErrCatalogUnavailable{Catalog: CatalogDeemix, Cause: err}
	}
	defer resp.Body.Close()

	if err := checkStatus(CatalogDeemix, resp); err != nil {
		return nil, err
	}

	var body mainSearchResponse
	if err := decodeJSON(resp.Body, &body); err != nil {
		return nil, err
	}
	if body.Track == nil {
		return nil, fmt.Errorf("%w: missing TRACK section", shared.ErrMalformedResponse)
	}
	for i, t := range body.Track.Data {
		if t.SongTitle == "" {
			return nil, fmt.Errorf("%w: track %d has no SNG_TITLE", shared.ErrMalformedResponse, i)
		}
	}

	d.logger.Debug("search completed", "query", query, "results", len(body.Track.Data))
	return body.Track.Data, nil
}

// Search implements [match.Searcher].
func (d *DeemixService) Search(ctx context.Context, query string) ([]match.Candidate, error) {
	tracks, err := d.SearchTracks(ctx, query)
	if err != nil {
		return nil, err
	}
	candidates := make([]match.Candidate, len(tracks))
	for i, t := range tracks {
		candidates[i] = t
	}
	return candidates, nil
}

// Deemix login states returned by /api/loginArl.
const (
	loginFailed        = 0
	loginSuccess       = 1
	loginAlreadyLogged = 2
	loginForced        = 3
)

type connectResponse struct {
	CurrentUser json.RawMessage `json:"currentUser"`
}

type deemixUser struct {
	Name string     `json:"name"`
	ID   flexString `json:"id"`
}

// loggedInUser returns the user name when currentUser holds a user object.
func (c connectResponse) loggedInUser() (string, bool) {
	var u deemixUser
	if len(c.CurrentUser) == 0 || json.Unmarshal(c.CurrentUser, &u) != nil {
		return "", false
	}
	return u.Name, u.Name != "" || u.ID != ""
}

// DeemixQueue adds tracks to a Deemix instance's download queue over one cookie-backed session.
type DeemixQueue struct {
	baseURL string
	arl     string
	client  *http.Client
	limiter *rate.Limiter
	logger  *log.Logger
	user    string
}

func NewDeemixQueue(opts DeemixOpts) (*DeemixQueue, error) {
	opts.defaults(DefaultQueueRate)

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	client := &http.Client{Timeout: opts.Timeout, Jar: jar}
	if opts.HTTPClient != nil {
		client.Transport = opts.HTTPClient.Transport
	}

	return &DeemixQueue{
		baseURL: opts.BaseURL,
		arl:     opts.ARL,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		logger:  shared.WithLogger(opts.Logger, "catalog", CatalogDeemix, "component", "queue"),
	}, nil
}

// User is the Deezer account name the session is logged in as.
func (q *DeemixQueue) User() string { return q.user }

// Open starts a session and makes sure a Deezer account is logged in.
func (q *DeemixQueue) Open(ctx context.Context) error {
	var conn connectResponse
	if err := q.do(ctx, http.MethodGet, "/api/connect", nil, "", &conn); err != nil {
		return err
	}
	if name, ok := conn.loggedInUser(); ok {
		q.user = name
		q.logger.Info("connected", "user", name)
		return nil
	}

	if q.arl == "" {
		return fmt.Errorf("%w: couldn't log in to Deemix, check if your ARL is up to date", shared.ErrNotAuthenticated)
	}

	payload, err := json.Marshal(map[string]any{"arl": q.arl, "force": true, "child": 0})
	if err != nil {
		return err
	}
	var login struct {
		Status int        `json:"status"`
		User   deemixUser `json:"user"`
	}
	if err := q.do(ctx, http.MethodPost, "/api/loginArl", bytes.NewReader(payload), "application/json", &login); err != nil {
		return err
	}

	switch login.Status {
	case loginSuccess, loginAlreadyLogged, loginForced:
		q.user = login.User.Name
		q.logger.Info("logged in", "user", q.user)
		return nil
	default:
		return fmt.Errorf("%w: couldn't log in to Deemix (status %d), check if your ARL is up to date", shared.ErrNotAuthenticated, login.Status)
	}
}

// Enqueue adds one track to the download queue. Calls are throttled.
func (q *DeemixQueue) Enqueue(ctx context.Context, t DeezerTrack) error {
	if err := q.limiter.Wait(ctx); err != nil {
		return err
	}

	form := url.Values{"url": {t.URL()}, "bitrate": {"null"}}
	if err := q.do(ctx, http.MethodPost, "/api/addToQueue", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", nil); err != nil {
		return fmt.Errorf("failed to queue %s: %w", t.URL(), err)
	}
	q.logger.Debug("queued", "title", t.SongTitle, "url", t.URL())
	return nil
}

// Close releases idle connections.
func (q *DeemixQueue) Close() error {
	q.client.CloseIdleConnections()
	return nil
}

func (q *DeemixQueue) do(ctx context.Context, method, path string, body io.Reader, contentType string, result any) error {
	req, err := http.NewRequestWithContext(ctx, method, q.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := q.client.Do(req)
	if err != nil {
		return &ErrCatalogUnavailable{Catalog: CatalogDeemix, Cause: err}
	}
	defer resp.Body.Close()

	if err := checkStatus(CatalogDeemix, resp); err != nil {
		return err
	}
	if result != nil {
		return decodeJSON(resp.Body, result)
	}
	return nil
}
