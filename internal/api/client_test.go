package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkoh/bookstore-tui/internal/api"
	"github.com/tkoh/bookstore-tui/internal/model"
	"github.com/tkoh/bookstore-tui/tests/testutil"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestGetUnwrapsEnvelope(t *testing.T) {
	srv := testutil.NewBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/users/me", r.URL.Path)
		testutil.WriteEnvelope(t, w, model.User{ID: 7, Username: "clara"})
	})

	c := api.NewClient(srv.URL, staticToken("T1"), zerolog.Nop())
	user, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, "clara", user.Username)
}

func TestBearerHeaderIsAttached(t *testing.T) {
	var got string
	srv := testutil.NewBackend(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		testutil.WriteEnvelope(t, w, model.User{})
	})

	c := api.NewClient(srv.URL, staticToken("T1"), zerolog.Nop())
	_, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer T1", got)
}

func TestNoHeaderWithoutCredential(t *testing.T) {
	var got string
	var present bool
	srv := testutil.NewBackend(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		_, present = r.Header["Authorization"]
		testutil.WriteEnvelope(t, w, model.User{})
	})

	c := api.NewClient(srv.URL, staticToken(""), zerolog.Nop())
	_, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.False(t, present)
}

func TestUnauthorizedInvokesHandlerAndReturnsSentinel(t *testing.T) {
	srv := testutil.NewBackend(t, func(w http.ResponseWriter, r *http.Request) {
		testutil.WriteEnvelopeError(t, w, http.StatusUnauthorized, "token expired")
	})

	var calls int32
	c := api.NewClient(srv.URL, staticToken("stale"), zerolog.Nop())
	c.SetUnauthorizedHandler(func() { atomic.AddInt32(&calls, 1) })

	_, err := c.Me(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrUnauthorized)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestEnvelopeFailureBecomesError(t *testing.T) {
	srv := testutil.NewBackend(t, func(w http.ResponseWriter, r *http.Request) {
		testutil.WriteEnvelopeError(t, w, http.StatusConflict, "el ISBN ya existe")
	})

	c := api.NewClient(srv.URL, staticToken("T1"), zerolog.Nop())
	_, err := c.CreateBook(context.Background(), model.BookCreate{ISBN: "123"})
	require.Error(t, err)

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "el ISBN ya existe", apiErr.Message)
}

func TestSuccessFalseWithOKStatusBecomesError(t *testing.T) {
	srv := testutil.NewBackend(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "validation failed",
		})
	})

	c := api.NewClient(srv.URL, staticToken("T1"), zerolog.Nop())
	_, err := c.Me(context.Background())
	require.Error(t, err)

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "validation failed", apiErr.Message)
}

func TestPageDecoding(t *testing.T) {
	srv := testutil.NewBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/libros", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Equal(t, "20", r.URL.Query().Get("size"))
		assert.Equal(t, "titulo,asc", r.URL.Query().Get("sort"))
		testutil.WriteEnvelope(t, w, map[string]interface{}{
			"content": []map[string]interface{}{
				{"isbn": "9780134190440", "titulo": "The Go Programming Language"},
			},
			"totalElements": 41,
			"totalPages":    3,
			"number":        1,
			"last":          false,
		})
	})

	c := api.NewClient(srv.URL, staticToken("T1"), zerolog.Nop())
	page, err := c.ListBooks(context.Background(), api.Pageable{Page: 1, Size: 20, Sort: "titulo,asc"})
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, "9780134190440", page.Content[0].ISBN)
	assert.Equal(t, int64(41), page.TotalElements)
	assert.False(t, page.Last)
}

func TestGetRetriesOnceOnTransportError(t *testing.T) {
	// A server that closes the connection on the first attempt exercises
	// the single read retry.
	var attempts int32
	srv := testutil.NewBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}
		testutil.WriteEnvelope(t, w, model.User{Username: "clara"})
	})

	c := api.NewClient(srv.URL, staticToken("T1"), zerolog.Nop())
	user, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "clara", user.Username)
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestUserMessageMapping(t *testing.T) {
	assert.Equal(t, "Session expired, please log in again",
		api.UserMessage(api.ErrUnauthorized))
	assert.Equal(t, "el libro no existe",
		api.UserMessage(&api.Error{Status: 404, Message: "el libro no existe"}))

	c := api.NewClient("http://127.0.0.1:1", staticToken(""), zerolog.Nop())
	err := c.Delete(context.Background(), "/api/v1/libros/1")
	require.Error(t, err)
	assert.Equal(t, "Cannot reach server", api.UserMessage(err))
}
