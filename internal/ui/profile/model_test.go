package profile

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkoh/bookstore-tui/internal/api"
	"github.com/tkoh/bookstore-tui/internal/keys"
	"github.com/tkoh/bookstore-tui/internal/session"
	"github.com/tkoh/bookstore-tui/tests/testutil"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestChangePasswordHitsOwnEndpoint(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]string
	srv := testutil.NewBackend(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		testutil.WriteEnvelope(t, w, nil)
	})
	client := api.NewClient(srv.URL, staticToken("T1"), zerolog.Nop())
	sess := session.New(session.NopPersistence{}, zerolog.Nop())

	m := New(client, sess, keys.DefaultKeyMap(), 80, 24)
	m.fb.current = "old-secret"
	m.fb.next = "new-secret-1"

	msg := m.changePassword()()
	_, ok := msg.(changedMsg)
	require.True(t, ok, "changePassword returned %T", msg)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/api/v1/users/me/password", gotPath)
	assert.Equal(t, "old-secret", gotBody["passwordActual"])
	assert.Equal(t, "new-secret-1", gotBody["passwordNueva"])
}
