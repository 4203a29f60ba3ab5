package booklist

import (
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkoh/bookstore-tui/internal/api"
	"github.com/tkoh/bookstore-tui/internal/keys"
	"github.com/tkoh/bookstore-tui/internal/model"
	"github.com/tkoh/bookstore-tui/tests/testutil"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestFetchForEditLoadsFreshRecord(t *testing.T) {
	srv := testutil.NewBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/libros/9780140449136", r.URL.Path)
		testutil.WriteEnvelope(t, w, model.Book{
			ISBN:        "9780140449136",
			Title:       "La Odisea",
			Author:      "Homero",
			PublishedAt: time.Date(1996, time.January, 1, 0, 0, 0, 0, time.UTC),
		})
	})
	client := api.NewClient(srv.URL, staticToken("T1"), zerolog.Nop())

	m := New(client, keys.DefaultKeyMap(), 80, 24)
	msg := m.fetchForEdit("9780140449136")()

	loaded, ok := msg.(editLoadedMsg)
	require.True(t, ok, "fetchForEdit returned %T", msg)
	assert.Equal(t, "La Odisea", loaded.book.Title)
}

func TestFetchForEditHandlesVanishedRecord(t *testing.T) {
	srv := testutil.NewBackend(t, func(w http.ResponseWriter, r *http.Request) {
		testutil.WriteEnvelopeError(t, w, http.StatusNotFound, "el libro no existe")
	})
	client := api.NewClient(srv.URL, staticToken("T1"), zerolog.Nop())

	m := New(client, keys.DefaultKeyMap(), 80, 24)
	msg := m.fetchForEdit("0000000000")()

	_, ok := msg.(staleRowMsg)
	require.True(t, ok, "fetchForEdit returned %T", msg)
}
