package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/spoteemix/internal/shared"
	"golang.org/x/oauth2"
)

// fakeSpotify serves the token endpoint and whatever API routes a test registers.
type fakeSpotify struct {
	*httptest.Server
	mu       sync.Mutex
	requests []*http.Request
	bodies   []map[string]any
}

func newFakeSpotify(t *testing.T, routes map[string]http.HandlerFunc) *fakeSpotify {
	t.Helper()
	f := &fakeSpotify{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token": "app-token", "token_type": "bearer", "expires_in": 3600}`)
	})
	mux.HandleFunc("/v1/", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}
		f.mu.Lock()
		f.requests = append(f.requests, r)
		f.bodies = append(f.bodies, body)
		f.mu.Unlock()

		route := r.Method + " " + strings.TrimPrefix(r.URL.Path, "/v1")
		h, ok := routes[route]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		h(w, r)
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeSpotify) service(t *testing.T) *SpotifyService {
	t.Helper()
	s, err := NewSpotifyService(SpotifyOpts{
		ClientID:     "id",
		ClientSecret: "secret",
		BaseURL:      f.URL + "/v1",
		TokenURL:     f.URL + "/api/token",
		AuthURL:      f.URL + "/authorize",
		Logger:       quietLogger(),
	})
	if err != nil {
		t.Fatalf("NewSpotifyService: %v", err)
	}
	return s
}

func TestParsePlaylistID(t *testing.T) {
	tests := []struct {
		link    string
		want    string
		wantErr bool
	}{
		{"https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M", "37i9dQZF1DXcBWIGoYBM5M", false},
		{"https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=abc123", "37i9dQZF1DXcBWIGoYBM5M", false},
		{"https://open.spotify.com/album/1234", "", true},
		{"https://open.spotify.com/playlist/", "", true},
		{"not a link", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.link, func(t *testing.T) {
			got, err := ParsePlaylistID(tt.link)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidArgument) {
					t.Errorf("expected ErrInvalidArgument, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParsePlaylistID() = %q, %v, want %q", got, err, tt.want)
			}
		})
	}
}

func TestNewSpotifyService(t *testing.T) {
	t.Run("Missing Client ID", func(t *testing.T) {
		_, err := NewSpotifyService(SpotifyOpts{ClientSecret: "secret"})
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("Missing Client Secret", func(t *testing.T) {
		_, err := NewSpotifyService(SpotifyOpts{ClientID: "id"})
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("Default Redirect URI", func(t *testing.T) {
		s, err := NewSpotifyService(SpotifyOpts{ClientID: "id", ClientSecret: "secret", Logger: quietLogger()})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.RedirectURI() != DefaultRedirectURI {
			t.Errorf("expected %s, got %s", DefaultRedirectURI, s.RedirectURI())
		}
		if s.Name() != "Spotify" {
			t.Errorf("expected service name 'Spotify', got %s", s.Name())
		}
	})

	t.Run("default client times out", func(t *testing.T) {
		s, err := NewSpotifyService(SpotifyOpts{ClientID: "id", ClientSecret: "secret", Logger: quietLogger()})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.httpClient == http.DefaultClient || s.httpClient.Timeout != DefaultSpotifyTimeout {
			t.Errorf("expected a dedicated client with %v timeout, got %v", DefaultSpotifyTimeout, s.httpClient.Timeout)
		}
		if s.appClient.Timeout != DefaultSpotifyTimeout {
			t.Errorf("app client timeout = %v, want %v", s.appClient.Timeout, DefaultSpotifyTimeout)
		}

		s.SetUserToken(context.Background(), &oauth2.Token{AccessToken: "user"})
		if s.userClient.Timeout != DefaultSpotifyTimeout {
			t.Errorf("user client timeout = %v, want %v", s.userClient.Timeout, DefaultSpotifyTimeout)
		}
	})

	t.Run("slow API is unavailable", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/token" {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, `{"access_token":"app","token_type":"bearer","expires_in":3600}`)
				return
			}
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		s, err := NewSpotifyService(SpotifyOpts{
			ClientID: "id", ClientSecret: "secret",
			BaseURL: srv.URL, TokenURL: srv.URL + "/token",
			Timeout: 50 * time.Millisecond,
			Logger:  quietLogger(),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := s.PlaylistInfo(context.Background(), "abc"); !IsUnavailable(err) {
			t.Errorf("expected unavailable after timeout, got %v", err)
		}
	})

	t.Run("AuthCodeURL", func(t *testing.T) {
		s, _ := NewSpotifyService(SpotifyOpts{ClientID: "id", ClientSecret: "secret", Logger: quietLogger()})
		u := s.AuthCodeURL("state-123")
		for _, want := range []string{"state=state-123", "client_id=id", "playlist-modify-private"} {
			if !strings.Contains(u, want) {
				t.Errorf("auth url %q missing %q", u, want)
			}
		}
	})
}

func TestSpotifyReads(t *testing.T) {
	t.Run("PlaylistInfo", func(t *testing.T) {
		f := newFakeSpotify(t, map[string]http.HandlerFunc{
			"GET /playlists/pl1": func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "Bearer app-token" {
					t.Errorf("authorization = %q", got)
				}
				_, _ = io.WriteString(w, `{"id": "pl1", "name": "Road Trip", "snapshot_id": "snap",
					"owner": {"display_name": "me"}, "tracks": {"total": 3},
					"external_urls": {"spotify": "https://open.spotify.com/playlist/pl1"}}`)
			},
		})

		p, err := f.service(t).PlaylistInfo(context.Background(), "pl1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Name != "Road Trip" || p.Owner != "me" || p.TrackCount != 3 || p.SnapshotID != "snap" {
			t.Errorf("unexpected playlist %+v", p)
		}
	})

	t.Run("PlaylistInfo not found", func(t *testing.T) {
		f := newFakeSpotify(t, nil)
		_, err := f.service(t).PlaylistInfo(context.Background(), "missing")
		if !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})

	t.Run("TrackIDs pages until empty", func(t *testing.T) {
		var offsets []string
		f := newFakeSpotify(t, map[string]http.HandlerFunc{
			"GET /playlists/pl1/tracks": func(w http.ResponseWriter, r *http.Request) {
				q := r.URL.Query()
				offsets = append(offsets, q.Get("offset"))
				if q.Get("fields") != "items.track.id,total" || q.Get("additional_types") != "track" {
					t.Errorf("unexpected query %s", r.URL.RawQuery)
				}
				if q.Get("offset") == "0" {
					_, _ = io.WriteString(w, `{"total": 4, "items": [
						{"track": {"id": "a"}}, {"track": null}, {"track": {"id": ""}}, {"track": {"id": "b"}}]}`)
					return
				}
				_, _ = io.WriteString(w, `{"total": 4, "items": []}`)
			},
		})

		ids, err := f.service(t).TrackIDs(context.Background(), "pl1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if fmt.Sprint(ids) != "[a b]" {
			t.Errorf("ids = %v", ids)
		}
		if fmt.Sprint(offsets) != "[0 100]" {
			t.Errorf("offsets = %v", offsets)
		}
	})

	t.Run("Tracks batches by 50", func(t *testing.T) {
		var batches []int
		f := newFakeSpotify(t, map[string]http.HandlerFunc{
			"GET /tracks": func(w http.ResponseWriter, r *http.Request) {
				ids := strings.Split(r.URL.Query().Get("ids"), ",")
				batches = append(batches, len(ids))
				var items []string
				for _, id := range ids {
					if id == "gone" {
						items = append(items, "null")
						continue
					}
					items = append(items, fmt.Sprintf(`{"id": %q, "name": "Song %s", "artists": [{"name": "A"}, {"name": "B"}]}`, id, id))
				}
				_, _ = fmt.Fprintf(w, `{"tracks": [%s]}`, strings.Join(items, ","))
			},
		})

		ids := make([]string, 120)
		for i := range ids {
			ids[i] = fmt.Sprint(i)
		}
		ids[7] = "gone"

		var progress []int
		tracks, err := f.service(t).Tracks(context.Background(), ids, func(done int) { progress = append(progress, done) })
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if fmt.Sprint(batches) != "[50 50 20]" {
			t.Errorf("batches = %v", batches)
		}
		if fmt.Sprint(progress) != "[50 100 120]" {
			t.Errorf("progress = %v", progress)
		}
		if len(tracks) != 119 {
			t.Fatalf("expected 119 tracks, got %d", len(tracks))
		}
		ref := tracks[0].Reference()
		if ref.Title != "Song 0" || fmt.Sprint(ref.Artists) != "[A B]" {
			t.Errorf("unexpected reference %+v", ref)
		}
	})

	t.Run("Search", func(t *testing.T) {
		f := newFakeSpotify(t, map[string]http.HandlerFunc{
			"GET /search": func(w http.ResponseWriter, r *http.Request) {
				q := r.URL.Query()
				if q.Get("type") != "track" || q.Get("limit") != "5" || q.Get("q") != "song artist" {
					t.Errorf("unexpected query %s", r.URL.RawQuery)
				}
				_, _ = io.WriteString(w, `{"tracks": {"items": [{"id": "x", "name": "Song", "uri": "spotify:track:x", "artists": [{"name": "Artist"}]}]}}`)
			},
		})

		candidates, err := f.service(t).Search(context.Background(), "song artist")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(candidates) != 1 || candidates[0].Title() != "Song" || candidates[0].ArtistNames()[0] != "Artist" {
			t.Errorf("unexpected candidates %+v", candidates)
		}
	})

	t.Run("rate limited is unavailable", func(t *testing.T) {
		f := newFakeSpotify(t, map[string]http.HandlerFunc{
			"GET /search": func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
		})

		if _, err := f.service(t).SearchTracks(context.Background(), "x"); !IsUnavailable(err) {
			t.Errorf("expected ErrCatalogUnavailable, got %v", err)
		}
	})
}

func TestSpotifyWrites(t *testing.T) {
	t.Run("requires user token", func(t *testing.T) {
		f := newFakeSpotify(t, nil)
		s := f.service(t)
		ctx := context.Background()

		if _, err := s.CurrentUser(ctx); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("CurrentUser: expected ErrNotAuthenticated, got %v", err)
		}
		if _, err := s.CreatePlaylist(ctx, "u", "n"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("CreatePlaylist: expected ErrNotAuthenticated, got %v", err)
		}
		if _, err := s.AddItems(ctx, "p", []string{"x"}); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("AddItems: expected ErrNotAuthenticated, got %v", err)
		}
		if _, err := s.ReorderItems(ctx, "p", 0, 1, 2, ""); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("ReorderItems: expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("user operations", func(t *testing.T) {
		f := newFakeSpotify(t, map[string]http.HandlerFunc{
			"GET /me": func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "Bearer user-token" {
					t.Errorf("authorization = %q", got)
				}
				_, _ = io.WriteString(w, `{"id": "user1", "display_name": "User"}`)
			},
			"POST /users/user1/playlists": func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"id": "new", "name": "Local files", "snapshot_id": "s0"}`)
			},
			"POST /playlists/new/tracks": func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"snapshot_id": "s1"}`)
			},
			"PUT /playlists/new/tracks": func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"snapshot_id": "s2"}`)
			},
		})
		s := f.service(t)
		ctx := context.Background()
		s.SetUserToken(ctx, &oauth2.Token{AccessToken: "user-token", TokenType: "Bearer"})
		if !s.Authenticated() {
			t.Fatal("expected Authenticated after SetUserToken")
		}

		user, err := s.CurrentUser(ctx)
		if err != nil || user.ID != "user1" {
			t.Fatalf("CurrentUser = %+v, %v", user, err)
		}

		p, err := s.CreatePlaylist(ctx, user.ID, "Local files")
		if err != nil || p.ID != "new" {
			t.Fatalf("CreatePlaylist = %+v, %v", p, err)
		}

		uris := make([]string, 150)
		for i := range uris {
			uris[i] = fmt.Sprintf("spotify:track:%d", i)
		}
		snap, err := s.AddItems(ctx, p.ID, uris)
		if err != nil || snap != "s1" {
			t.Fatalf("AddItems = %q, %v", snap, err)
		}

		snap, err = s.ReorderItems(ctx, p.ID, 3, 2, 0, "s1")
		if err != nil || snap != "s2" {
			t.Fatalf("ReorderItems = %q, %v", snap, err)
		}

		// bodies: /me, create, add, add, reorder
		if len(f.bodies) != 5 {
			t.Fatalf("expected 5 API calls, got %d", len(f.bodies))
		}
		create := f.bodies[1]
		if create["public"] != false || create["description"] != PlaylistDescription || create["name"] != "Local files" {
			t.Errorf("unexpected create body %v", create)
		}
		if n := len(f.bodies[2]["uris"].([]any)); n != 100 {
			t.Errorf("first add batch = %d, want 100", n)
		}
		if n := len(f.bodies[3]["uris"].([]any)); n != 50 {
			t.Errorf("second add batch = %d, want 50", n)
		}
		reorder := f.bodies[4]
		if reorder["range_start"] != float64(3) || reorder["range_length"] != float64(2) ||
			reorder["insert_before"] != float64(0) || reorder["snapshot_id"] != "s1" {
			t.Errorf("unexpected reorder body %v", reorder)
		}
	})
}
