// Spotify Web API implementation of [RemoteClient].
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"cratesync/internal/shared"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	pageLimit = 100
)

// SpotifyClient implements [RemoteClient] against the Spotify Web API.
// Uses [oauth2] for authentication and a [rate.Limiter] so reconciliation
// bursts stay inside the API's request budget.
type SpotifyClient struct {
	config     *oauth2.Config
	token      *oauth2.Token
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewSpotifyClient creates a Spotify client from remote credentials.
// requestsPerSecond <= 0 falls back to a conservative default of 5.
func NewSpotifyClient(cfg shared.RemoteConfig) (*SpotifyClient, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: client_id and client_secret are required", shared.ErrMissingCredentials)
	}

	redirectURI := cfg.RedirectURI
	if redirectURI == "" {
		redirectURI = "http://localhost:8080/callback"
	}

	rps := cfg.RateLimit
	if rps <= 0 {
		rps = 5.0
	}

	config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"playlist-read-private",
			"playlist-read-collaborative",
			"playlist-modify-public",
			"playlist-modify-private",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyClient{
		config:     config,
		baseURL:    spotifyBaseURL,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

// Authenticate completes authentication from either an access token or an
// authorization code obtained through the consent flow.
func (s *SpotifyClient) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		s.token = &oauth2.Token{AccessToken: accessToken}
		s.httpClient = s.config.Client(ctx, s.token)
		return nil
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
		}
		s.token = token
		s.httpClient = s.config.Client(ctx, s.token)
		return nil
	}

	return fmt.Errorf("%w: access_token or auth_code", shared.ErrMissingCredentials)
}

func (s *SpotifyClient) Name() string {
	return "Spotify"
}

// AccessToken returns the current bearer token, or "" before Authenticate.
func (s *SpotifyClient) AccessToken() string {
	if s.token == nil {
		return ""
	}
	return s.token.AccessToken
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyClient) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// doRequest performs an authenticated, rate-limited HTTP request to the
// Spotify API, JSON-encoding body when non-nil.
func (s *SpotifyClient) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter interrupted: %w", err)
	}

	apiURL := s.baseURL + endpoint

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: status 404", shared.ErrPlaylistNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

type snapshotResponse struct {
	SnapshotID string `json:"snapshot_id"`
}

// AddTrackToPlaylist appends one track. Local-file URIs are reported as
// Success without WasAdded since the API refuses to insert them.
func (s *SpotifyClient) AddTrackToPlaylist(ctx context.Context, trackURI, playlistID string) (AddResult, error) {
	if IsLocalURI(trackURI) {
		return AddResult{Success: true, WasAdded: false}, nil
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	body := map[string]any{"uris": []string{trackURI}}

	var snap snapshotResponse
	if err := s.doRequest(ctx, http.MethodPost, endpoint, body, &snap); err != nil {
		return AddResult{}, err
	}

	return AddResult{Success: true, WasAdded: true}, nil
}

// RemoveTrackFromPlaylist removes every occurrence of the track.
func (s *SpotifyClient) RemoveTrackFromPlaylist(ctx context.Context, trackURI, playlistID string) (bool, error) {
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	body := map[string]any{
		"tracks": []map[string]string{{"uri": trackURI}},
	}

	var snap snapshotResponse
	if err := s.doRequest(ctx, http.MethodDelete, endpoint, body, &snap); err != nil {
		return false, err
	}

	return true, nil
}

type playlistTracksPage struct {
	Items []struct {
		Track struct {
			URI string `json:"uri"`
		} `json:"track"`
	} `json:"items"`
	Next *string `json:"next"`
}

// GetAllTrackUrisInPlaylist pages through the playlist's tracks and returns
// their URIs in remote order. A missing playlist yields an empty slice.
func (s *SpotifyClient) GetAllTrackUrisInPlaylist(ctx context.Context, playlistID string) ([]string, error) {
	uris := []string{}
	offset := 0

	for {
		endpoint := fmt.Sprintf("/playlists/%s/tracks?fields=items(track(uri)),next&limit=%d&offset=%d",
			url.PathEscape(playlistID), pageLimit, offset)

		var page playlistTracksPage
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			if isNotFound(err) {
				return []string{}, nil
			}
			return nil, err
		}

		for _, item := range page.Items {
			if item.Track.URI != "" {
				uris = append(uris, item.Track.URI)
			}
		}

		if page.Next == nil || len(page.Items) == 0 {
			break
		}
		offset += pageLimit
	}

	return uris, nil
}

type playlistMeta struct {
	Tracks struct {
		Total int `json:"total"`
	} `json:"tracks"`
}

// GetPlaylistTrackCounts fetches track totals for each playlist.
// Individual failures are skipped; missing entries mean "unknown".
func (s *SpotifyClient) GetPlaylistTrackCounts(ctx context.Context, playlistIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(playlistIDs))

	for _, id := range playlistIDs {
		endpoint := fmt.Sprintf("/playlists/%s?fields=tracks(total)", url.PathEscape(id))

		var meta playlistMeta
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &meta); err != nil {
			continue
		}
		counts[id] = meta.Tracks.Total
	}

	return counts, nil
}

type userPlaylistsPage struct {
	Items []struct {
		ID string `json:"id"`
	} `json:"items"`
	Next *string `json:"next"`
}

// GetAllUserPlaylists pages through /me/playlists and returns playlist IDs.
func (s *SpotifyClient) GetAllUserPlaylists(ctx context.Context) ([]string, error) {
	ids := []string{}
	offset := 0

	for {
		endpoint := fmt.Sprintf("/me/playlists?limit=50&offset=%d", offset)

		var page userPlaylistsPage
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			ids = append(ids, item.ID)
		}

		if page.Next == nil || len(page.Items) == 0 {
			break
		}
		offset += 50
	}

	return ids, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, shared.ErrPlaylistNotFound)
}
