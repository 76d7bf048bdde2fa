package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/studyhub-tz/studyhub/internal/common"
)

// HTTPStore implements Store over the backend's JSON API. An expired
// access token is refreshed transparently and the failed call retried
// once, mirroring how the server rotates refresh tokens.
type HTTPStore struct {
	baseURL string
	client  *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

func NewHTTPStore(baseURL string) *HTTPStore {
	return &HTTPStore{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *HTTPStore) Close() error { return nil }

// AccessToken returns the current access token (for the websocket
// notification listener, which authenticates separately).
func (s *HTTPStore) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken
}

func (s *HTTPStore) setTokens(pair TokenPair) {
	s.mu.Lock()
	s.accessToken = pair.AccessToken
	s.refreshToken = pair.RefreshToken
	s.mu.Unlock()
}

type apiError struct {
	Error string `json:"error"`
}

// do sends a request with the access token attached. On a token-expired
// 401 it refreshes the pair and retries the request once.
func (s *HTTPStore) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	resp, status, err := s.send(ctx, method, path, body, true)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized && s.tryRefresh(ctx, resp) {
		resp, status, err = s.send(ctx, method, path, body, true)
		if err != nil {
			return nil, err
		}
	}
	return s.check(resp, status)
}

func (s *HTTPStore) send(ctx context.Context, method, path string, body any, withToken bool) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: encode request: %v", common.ErrRemoteFailure, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", common.ErrRemoteFailure, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if withToken {
		s.mu.Lock()
		token := s.accessToken
		s.mu.Unlock()
		if token != "" {
			req.Header.Set(common.AccessTokenHeaderName, "Bearer "+token)
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", common.ErrRemoteFailure, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: read response: %v", common.ErrRemoteFailure, err)
	}
	return data, resp.StatusCode, nil
}

// tryRefresh swaps the token pair if the 401 body names an expired access
// token and a refresh token is on hand.
func (s *HTTPStore) tryRefresh(ctx context.Context, body []byte) bool {
	var e apiError
	_ = json.Unmarshal(body, &e)
	if e.Error != common.ErrTokenExpired.Error() {
		return false
	}

	s.mu.Lock()
	refresh := s.refreshToken
	s.mu.Unlock()
	if refresh == "" {
		return false
	}

	data, status, err := s.send(ctx, http.MethodPost, "/api/v1/auth/refresh",
		map[string]string{"refreshToken": refresh}, false)
	if err != nil || status != http.StatusOK {
		return false
	}

	var pair TokenPair
	if err := json.Unmarshal(data, &pair); err != nil {
		return false
	}
	s.setTokens(pair)
	return true
}

func (s *HTTPStore) check(body []byte, status int) ([]byte, error) {
	switch {
	case status >= 200 && status < 300:
		return body, nil
	case status == http.StatusNotFound:
		return nil, common.ErrNotFound
	case status == http.StatusUnauthorized:
		return nil, common.ErrUnauthorized
	default:
		var e apiError
		_ = json.Unmarshal(body, &e)
		if e.Error != "" {
			return nil, fmt.Errorf("%w: %s", common.ErrRemoteFailure, e.Error)
		}
		return nil, fmt.Errorf("%w: status %d", common.ErrRemoteFailure, status)
	}
}

func (s *HTTPStore) Register(ctx context.Context, req RegisterRequest) (string, error) {
	data, status, err := s.send(ctx, http.MethodPost, "/api/v1/auth/register", req, false)
	if err != nil {
		return "", err
	}
	body, err := s.check(data, status)
	if err != nil {
		return "", err
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", common.ErrRemoteFailure, err)
	}
	return out.ID, nil
}

func (s *HTTPStore) Login(ctx context.Context, email, password string) (json.RawMessage, error) {
	data, status, err := s.send(ctx, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": email, "password": password}, false)
	if err != nil {
		return nil, err
	}
	body, err := s.check(data, status)
	if err != nil {
		return nil, err
	}
	var out struct {
		TokenPair
		User json.RawMessage `json:"user"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", common.ErrRemoteFailure, err)
	}
	s.setTokens(out.TokenPair)
	return out.User, nil
}

func (s *HTTPStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	data, status, err := s.send(ctx, http.MethodGet, "/api/v1/ping", nil, false)
	if err != nil {
		return err
	}
	_, err = s.check(data, status)
	return err
}

func (s *HTTPStore) FetchAll(ctx context.Context, collection string, filter *Filter) ([]json.RawMessage, error) {
	path := "/api/v1/collections/" + url.PathEscape(collection)
	if filter != nil {
		q := url.Values{}
		q.Set("field", filter.Field)
		q.Set("value", filter.Value)
		path += "?" + q.Encode()
	}

	body, err := s.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var docs []json.RawMessage
	if err := json.Unmarshal(body, &docs); err != nil {
		return nil, fmt.Errorf("%w: decode documents: %v", common.ErrRemoteFailure, err)
	}
	return docs, nil
}

func (s *HTTPStore) UpsertOne(ctx context.Context, collection, id string, doc any) error {
	path := fmt.Sprintf("/api/v1/collections/%s/%s", url.PathEscape(collection), url.PathEscape(id))
	_, err := s.do(ctx, http.MethodPut, path, doc)
	return err
}

func (s *HTTPStore) UpdateField(ctx context.Context, collection, id, field string, value any) error {
	path := fmt.Sprintf("/api/v1/collections/%s/%s", url.PathEscape(collection), url.PathEscape(id))
	_, err := s.do(ctx, http.MethodPatch, path, map[string]any{"field": field, "value": value})
	return err
}

func (s *HTTPStore) PaperDownloadURL(ctx context.Context, paperID string) (string, error) {
	path := fmt.Sprintf("/api/v1/papers/%s/download", url.PathEscape(paperID))
	body, err := s.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return "", err
	}
	var out struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", common.ErrRemoteFailure, err)
	}
	return out.URL, nil
}
