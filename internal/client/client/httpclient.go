package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/client/models"
	"github.com/dmitrijs2005/gophnotes/internal/common"
)

const refreshPath = "/auth/token/refresh"

// Client is the API surface the CLI services depend on.
type Client interface {
	SetTokens(access, refresh string)
	Tokens() (access, refresh string)
	OnAccessRefreshed(fn func(access string))

	Ping(ctx context.Context) error
	Register(ctx context.Context, reg models.Registration) (*models.User, *models.Tokens, error)
	Login(ctx context.Context, email, password string) (*models.User, *models.Tokens, error)
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (*models.User, error)
	UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*models.User, error)

	ListNotes(ctx context.Context, q models.NoteQuery) ([]*models.Note, error)
	Favorites(ctx context.Context) ([]*models.Note, error)
	GetNote(ctx context.Context, id string) (*models.Note, error)
	CreateNote(ctx context.Context, n models.NewNote) (*models.Note, error)
	UpdateNote(ctx context.Context, id string, upd models.NoteUpdate) (*models.Note, error)
	DeleteNote(ctx context.Context, id string) error
	ToggleFavorite(ctx context.Context, id string) (*models.Note, string, error)
	DownloadNote(ctx context.Context, id, format string) (*models.File, error)
	ExportNote(ctx context.Context, id, format string) (*models.Export, error)
	ListExports(ctx context.Context, id string) ([]*models.Export, error)
}

// HTTPClient talks to the JSON API. It keeps the current token pair, sends
// the access token as a bearer header and, when a call comes back 401 while
// a refresh token is known, obtains a new access token and retries once.
type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	onRefresh    func(access string)
}

var _ Client = (*HTTPClient)(nil)

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) SetTokens(access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = access
	c.refreshToken = refresh
}

func (c *HTTPClient) Tokens() (string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken, c.refreshToken
}

// OnAccessRefreshed registers a callback invoked after a transparent refresh.
func (c *HTTPClient) OnAccessRefreshed(fn func(access string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRefresh = fn
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/ping", nil, nil, nil, false)
}

type authEnvelope struct {
	Message string        `json:"message"`
	User    models.User   `json:"user"`
	Tokens  models.Tokens `json:"tokens"`
}

func (c *HTTPClient) Register(ctx context.Context, reg models.Registration) (*models.User, *models.Tokens, error) {
	var out authEnvelope
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, reg, &out, false); err != nil {
		return nil, nil, err
	}
	c.SetTokens(out.Tokens.Access, out.Tokens.Refresh)
	return &out.User, &out.Tokens, nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*models.User, *models.Tokens, error) {
	in := map[string]string{"email": email, "password": password}

	var out authEnvelope
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, in, &out, false); err != nil {
		return nil, nil, err
	}
	c.SetTokens(out.Tokens.Access, out.Tokens.Refresh)
	return &out.User, &out.Tokens, nil
}

// Logout revokes the refresh token on the server and forgets both tokens.
func (c *HTTPClient) Logout(ctx context.Context) error {
	_, refresh := c.Tokens()
	if refresh == "" {
		return ErrNotLoggedIn
	}

	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, map[string]string{"refresh": refresh}, nil, true)
	if err != nil {
		return err
	}
	c.SetTokens("", "")
	return nil
}

func (c *HTTPClient) Profile(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodGet, "/auth/profile", nil, nil, &u, true); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodPatch, "/auth/profile", nil, upd, &u, true); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) ListNotes(ctx context.Context, q models.NoteQuery) ([]*models.Note, error) {
	query := url.Values{}
	if q.Search != "" {
		query.Set("search", q.Search)
	}
	if q.IsFavorite != nil {
		query.Set("is_favorite", strconv.FormatBool(*q.IsFavorite))
	}

	var notes []*models.Note
	if err := c.do(ctx, http.MethodGet, "/notes", query, nil, &notes, true); err != nil {
		return nil, err
	}
	return notes, nil
}

func (c *HTTPClient) Favorites(ctx context.Context) ([]*models.Note, error) {
	var out struct {
		Count   int            `json:"count"`
		Results []*models.Note `json:"results"`
	}
	if err := c.do(ctx, http.MethodGet, "/notes/favorites", nil, nil, &out, true); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (c *HTTPClient) GetNote(ctx context.Context, id string) (*models.Note, error) {
	var n models.Note
	if err := c.do(ctx, http.MethodGet, notePath(id), nil, nil, &n, true); err != nil {
		return nil, err
	}
	return &n, nil
}

func (c *HTTPClient) CreateNote(ctx context.Context, in models.NewNote) (*models.Note, error) {
	var n models.Note
	if err := c.do(ctx, http.MethodPost, "/notes", nil, in, &n, true); err != nil {
		return nil, err
	}
	return &n, nil
}

func (c *HTTPClient) UpdateNote(ctx context.Context, id string, upd models.NoteUpdate) (*models.Note, error) {
	var n models.Note
	if err := c.do(ctx, http.MethodPatch, notePath(id), nil, upd, &n, true); err != nil {
		return nil, err
	}
	return &n, nil
}

func (c *HTTPClient) DeleteNote(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, notePath(id), nil, nil, nil, true)
}

// ToggleFavorite flips the favorite flag and returns the server's message with the note.
func (c *HTTPClient) ToggleFavorite(ctx context.Context, id string) (*models.Note, string, error) {
	var out struct {
		Message string      `json:"message"`
		Note    models.Note `json:"note"`
	}
	if err := c.do(ctx, http.MethodPatch, notePath(id)+"/toggle-favorite", nil, nil, &out, true); err != nil {
		return nil, "", err
	}
	return &out.Note, out.Message, nil
}

func (c *HTTPClient) DownloadNote(ctx context.Context, id, format string) (*models.File, error) {
	resp, err := c.send(ctx, http.MethodGet, notePath(id)+"/download", formatQuery(format), nil, true)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return &models.File{
		Name:        attachmentName(resp.Header.Get("Content-Disposition")),
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

func (c *HTTPClient) ExportNote(ctx context.Context, id, format string) (*models.Export, error) {
	var e models.Export
	if err := c.do(ctx, http.MethodPost, notePath(id)+"/export", formatQuery(format), nil, &e, true); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *HTTPClient) ListExports(ctx context.Context, id string) ([]*models.Export, error) {
	var out []*models.Export
	if err := c.do(ctx, http.MethodGet, notePath(id)+"/exports", nil, nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

// do sends a JSON request and decodes a JSON answer into out when out is non-nil.
func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, in, out any, auth bool) error {
	var body []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = b
	}

	resp, err := c.send(ctx, method, path, query, body, auth)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// send performs the request and returns a 2xx response or a mapped error.
// The caller owns the body of a successful response.
func (c *HTTPClient) send(ctx context.Context, method, path string, query url.Values, body []byte, auth bool) (*http.Response, error) {
	resp, err := c.roundTrip(ctx, method, path, query, body, auth)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && auth {
		if _, refresh := c.Tokens(); refresh != "" {
			_ = resp.Body.Close()
			if err := c.refreshAccess(ctx, refresh); err != nil {
				return nil, err
			}
			resp, err = c.roundTrip(ctx, method, path, query, body, auth)
			if err != nil {
				return nil, err
			}
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, mapStatus(resp)
	}
	return resp, nil
}

func (c *HTTPClient) roundTrip(ctx context.Context, method, path string, query url.Values, body []byte, auth bool) (*http.Response, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if auth {
		if access, _ := c.Tokens(); access != "" {
			req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+access)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

func (c *HTTPClient) refreshAccess(ctx context.Context, refresh string) error {
	body, err := json.Marshal(map[string]string{"refresh": refresh})
	if err != nil {
		return err
	}

	resp, err := c.roundTrip(ctx, http.MethodPost, refreshPath, nil, body, false)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := mapStatus(resp)
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest {
			return ErrUnauthorized
		}
		return err
	}

	var out struct {
		Access string `json:"access"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode refresh: %w", err)
	}

	c.mu.Lock()
	c.accessToken = out.Access
	cb := c.onRefresh
	c.mu.Unlock()

	if cb != nil {
		cb(out.Access)
	}
	return nil
}

func mapStatus(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return ErrUnavailable
	}

	var payload struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&payload)
	if payload.Error == "" {
		payload.Error = http.StatusText(resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Message: payload.Error, Fields: payload.Fields}
}

func notePath(id string) string {
	return "/notes/" + url.PathEscape(id)
}

func formatQuery(format string) url.Values {
	if format == "" {
		return nil
	}
	return url.Values{"format": []string{format}}
}

func attachmentName(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}
