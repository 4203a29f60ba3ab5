package userlist

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkoh/bookstore-tui/internal/api"
	"github.com/tkoh/bookstore-tui/internal/keys"
	"github.com/tkoh/bookstore-tui/tests/testutil"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestSetPasswordHitsAdminEndpoint(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]string
	srv := testutil.NewBackend(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		testutil.WriteEnvelope(t, w, nil)
	})
	client := api.NewClient(srv.URL, staticToken("T1"), zerolog.Nop())

	m := New(client, keys.DefaultKeyMap(), 80, 24)
	m.editing = 7
	m.fb.password = "secreto-123"

	msg := m.setPassword()()
	saved, ok := msg.(savedMsg)
	require.True(t, ok, "setPassword returned %T", msg)
	assert.Equal(t, "password updated", saved.verb)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/api/v1/admin/users/7/password", gotPath)
	assert.Equal(t, "secreto-123", gotBody["password"])
}
