package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *HTTPClient {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return NewHTTPClient(ts.URL+"/", time.Second)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestHTTPClient_LoginStoresTokens(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "a@b.io", in["email"])

		writeJSON(w, http.StatusOK, map[string]any{
			"message": "login successful",
			"user":    map[string]any{"id": "u1", "email": "a@b.io"},
			"tokens":  map[string]string{"access": "acc", "refresh": "ref"},
		})
	})

	u, tok, err := c.Login(context.Background(), "a@b.io", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "acc", tok.Access)

	access, refresh := c.Tokens()
	assert.Equal(t, "acc", access)
	assert.Equal(t, "ref", refresh)
}

func TestHTTPClient_SendsBearerAndQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer acc", r.Header.Get("Authorization"))
		assert.Equal(t, "/notes", r.URL.Path)
		assert.Equal(t, "milk", r.URL.Query().Get("search"))
		assert.Equal(t, "true", r.URL.Query().Get("is_favorite"))
		writeJSON(w, http.StatusOK, []map[string]any{{"id": "n1", "title": "Groceries"}})
	})
	c.SetTokens("acc", "ref")

	fav := true
	notes, err := c.ListNotes(context.Background(), models.NoteQuery{Search: "milk", IsFavorite: &fav})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Groceries", notes[0].Title)
}

func TestHTTPClient_RefreshesOnceOn401(t *testing.T) {
	var calls, refreshes atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/token/refresh":
			refreshes.Add(1)
			var in map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			assert.Equal(t, "ref", in["refresh"])
			writeJSON(w, http.StatusOK, map[string]string{"access": "fresh"})
		case "/auth/profile":
			calls.Add(1)
			if r.Header.Get("Authorization") != "Bearer fresh" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or expired access token"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"id": "u1", "email": "a@b.io"})
		}
	})
	c.SetTokens("stale", "ref")

	var got string
	c.OnAccessRefreshed(func(access string) { got = access })

	u, err := c.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, int32(1), refreshes.Load())
	assert.Equal(t, "fresh", got)

	access, _ := c.Tokens()
	assert.Equal(t, "fresh", access)
}

func TestHTTPClient_RefreshRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/token/refresh" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "token has been revoked"})
			return
		}
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or expired access token"})
	})
	c.SetTokens("stale", "revoked")

	_, err := c.Profile(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestHTTPClient_NoRefreshTokenMeansUnauthorized(t *testing.T) {
	var refreshes atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/token/refresh" {
			refreshes.Add(1)
		}
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
	})

	_, err := c.GetNote(context.Background(), "n1")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Zero(t, refreshes.Load())
}

func TestHTTPClient_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   any
		check  func(t *testing.T, err error)
	}{
		{
			name:   "not found",
			status: http.StatusNotFound,
			body:   map[string]string{"error": "not found"},
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrNotFound) },
		},
		{
			name:   "unavailable",
			status: http.StatusServiceUnavailable,
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrUnavailable) },
		},
		{
			name:   "validation",
			status: http.StatusBadRequest,
			body:   map[string]any{"error": "validation failed", "fields": map[string]string{"title": "required"}},
			check: func(t *testing.T, err error) {
				var apiErr *APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, http.StatusBadRequest, apiErr.Status)
				assert.Equal(t, "validation failed", apiErr.Message)
				assert.Equal(t, "required", apiErr.Fields["title"])
			},
		},
		{
			name:   "no body",
			status: http.StatusNotImplemented,
			check: func(t *testing.T, err error) {
				var apiErr *APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, "Not Implemented", apiErr.Message)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if tt.body == nil {
					w.WriteHeader(tt.status)
					return
				}
				writeJSON(w, tt.status, tt.body)
			})
			c.SetTokens("acc", "")

			_, err := c.CreateNote(context.Background(), models.NewNote{Title: "x"})
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestHTTPClient_ServerDown(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	ts.Close()

	c := NewHTTPClient(ts.URL, time.Second)
	assert.ErrorIs(t, c.Ping(context.Background()), ErrUnavailable)
}

func TestHTTPClient_LogoutClearsTokens(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/logout", r.URL.Path)
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "ref", in["refresh"])
		writeJSON(w, http.StatusOK, map[string]string{"message": "logout successful"})
	})

	assert.ErrorIs(t, c.Logout(context.Background()), ErrNotLoggedIn)

	c.SetTokens("acc", "ref")
	require.NoError(t, c.Logout(context.Background()))

	access, refresh := c.Tokens()
	assert.Empty(t, access)
	assert.Empty(t, refresh)
}

func TestHTTPClient_DeleteAndToggle(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodDelete && r.URL.Path == "/notes/n1":
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodPatch && r.URL.Path == "/notes/n1/toggle-favorite":
			writeJSON(w, http.StatusOK, map[string]any{
				"message": "Note added to favorites",
				"note":    map[string]any{"id": "n1", "is_favorite": true},
			})
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	})
	c.SetTokens("acc", "ref")

	n, msg, err := c.ToggleFavorite(context.Background(), "n1")
	require.NoError(t, err)
	assert.True(t, n.IsFavorite)
	assert.Equal(t, "Note added to favorites", msg)

	require.NoError(t, c.DeleteNote(context.Background(), "n1"))
}

func TestHTTPClient_DownloadNote(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/notes/n1/download", r.URL.Path)
		assert.Equal(t, "txt", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="My_note.txt"`)
		_, _ = w.Write([]byte("My note\n=======\n\nbody"))
	})
	c.SetTokens("acc", "ref")

	f, err := c.DownloadNote(context.Background(), "n1", "txt")
	require.NoError(t, err)
	assert.Equal(t, "My_note.txt", f.Name)
	assert.Equal(t, "text/plain; charset=utf-8", f.ContentType)
	assert.Equal(t, "My note\n=======\n\nbody", string(f.Body))
}

func TestHTTPClient_ExportAndFavorites(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/notes/n1/export":
			assert.Equal(t, http.MethodPost, r.Method)
			writeJSON(w, http.StatusOK, map[string]string{"key": "exports/k", "format": "md", "url": "http://s3/x"})
		case "/notes/n1/exports":
			writeJSON(w, http.StatusOK, []map[string]string{{"id": "e1"}, {"id": "e2"}})
		case "/notes/favorites":
			writeJSON(w, http.StatusOK, map[string]any{"count": 1, "results": []map[string]any{{"id": "n1"}}})
		}
	})
	c.SetTokens("acc", "ref")
	ctx := context.Background()

	e, err := c.ExportNote(ctx, "n1", "md")
	require.NoError(t, err)
	assert.Equal(t, "http://s3/x", e.URL)

	list, err := c.ListExports(ctx, "n1")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	favs, err := c.Favorites(ctx)
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, "n1", favs[0].ID)
}

func TestAttachmentName(t *testing.T) {
	assert.Equal(t, "a.md", attachmentName(`attachment; filename="a.md"`))
	assert.Equal(t, "", attachmentName(""))
	assert.Equal(t, "", attachmentName("attachment; filename"))
}
