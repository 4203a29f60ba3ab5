package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkoh/bookstore-tui/internal/api"
	"github.com/tkoh/bookstore-tui/internal/model"
)

type fakeGateway struct {
	mu         sync.Mutex
	loginResp  api.LoginResponse
	loginErr   error
	meUser     *model.User
	meErr      error
	loginCalls int
	meCalls    int
}

func (g *fakeGateway) Login(ctx context.Context, req api.LoginRequest) (api.LoginResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.loginCalls++
	return g.loginResp, g.loginErr
}

func (g *fakeGateway) Me(ctx context.Context) (*model.User, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.meCalls++
	return g.meUser, g.meErr
}

func (g *fakeGateway) Register(ctx context.Context, req api.RegisterRequest) error { return nil }
func (g *fakeGateway) ForgotPassword(ctx context.Context, req api.ForgotPasswordRequest) error {
	return nil
}
func (g *fakeGateway) ResetPassword(ctx context.Context, req api.ResetPasswordRequest) error {
	return nil
}

type recordingPersistence struct {
	mu      sync.Mutex
	token   string
	saves   int
	deletes int
}

func (p *recordingPersistence) SaveToken(token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = token
	p.saves++
	return nil
}

func (p *recordingPersistence) LoadToken() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.token, nil
}

func (p *recordingPersistence) DeleteToken() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = ""
	p.deletes++
	return nil
}

func adminUser() *model.User {
	return &model.User{
		ID:       1,
		Username: "clara",
		Email:    "clara@example.com",
		Roles:    []model.Role{{ID: 2, Name: model.RoleAdmin}},
	}
}

func newTestStore(g Gateway) (*Store, *recordingPersistence) {
	p := &recordingPersistence{}
	s := New(p, zerolog.Nop())
	s.SetGateway(g)
	return s, p
}

func TestLoginStoresCredentialAndIdentity(t *testing.T) {
	gw := &fakeGateway{
		loginResp: api.LoginResponse{Token: "T1"},
		meUser:    adminUser(),
	}
	s, p := newTestStore(gw)

	err := s.Login(context.Background(), "clara@example.com", "password1")
	require.NoError(t, err)

	assert.Equal(t, "T1", s.Token())
	assert.True(t, s.Authenticated())
	require.NotNil(t, s.User())
	assert.True(t, s.User().HasRole(model.RoleAdmin))
	assert.Equal(t, "T1", p.token)
}

func TestLoginFailureLeavesLoggedOut(t *testing.T) {
	gw := &fakeGateway{loginErr: errors.New("bad credentials")}
	s, _ := newTestStore(gw)

	err := s.Login(context.Background(), "clara@example.com", "wrong")
	require.Error(t, err)

	assert.Empty(t, s.Token())
	assert.False(t, s.Authenticated())
	assert.Nil(t, s.User())
}

func TestLoginWithoutTokenFails(t *testing.T) {
	gw := &fakeGateway{loginResp: api.LoginResponse{}}
	s, _ := newTestStore(gw)

	err := s.Login(context.Background(), "clara@example.com", "password1")
	require.Error(t, err)
	assert.False(t, s.Authenticated())
}

func TestIdentityFetchFailureTearsDownSession(t *testing.T) {
	gw := &fakeGateway{
		loginResp: api.LoginResponse{Token: "T1"},
		meErr:     errors.New("boom"),
	}
	s, p := newTestStore(gw)

	err := s.Login(context.Background(), "clara@example.com", "password1")
	require.Error(t, err)

	assert.Empty(t, s.Token())
	assert.False(t, s.Authenticated())
	assert.Equal(t, "", p.token)
}

func TestLogoutClearsEverythingAndNotifies(t *testing.T) {
	gw := &fakeGateway{loginResp: api.LoginResponse{Token: "T1"}, meUser: adminUser()}
	s, p := newTestStore(gw)

	var mu sync.Mutex
	var seen []string
	s.OnChange(func(token string) {
		mu.Lock()
		seen = append(seen, token)
		mu.Unlock()
	})

	require.NoError(t, s.Login(context.Background(), "clara@example.com", "password1"))
	s.Logout()

	assert.Empty(t, s.Token())
	assert.Nil(t, s.User())
	assert.False(t, s.Authenticated())
	assert.GreaterOrEqual(t, p.deletes, 1)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	assert.Equal(t, "T1", seen[0])
	assert.Equal(t, "", seen[len(seen)-1])
}

func TestLogoutIsIdempotent(t *testing.T) {
	gw := &fakeGateway{loginResp: api.LoginResponse{Token: "T1"}, meUser: adminUser()}
	s, _ := newTestStore(gw)
	require.NoError(t, s.Login(context.Background(), "clara@example.com", "password1"))

	before := s.Generation()
	s.Logout()
	after := s.Generation()
	assert.Equal(t, before+1, after)

	s.Logout()
	s.Logout()
	assert.Equal(t, after, s.Generation())
}

func TestConcurrentLogoutsTearDownOnce(t *testing.T) {
	// A burst of 401 responses triggers Logout from several goroutines;
	// the teardown must happen exactly once.
	gw := &fakeGateway{loginResp: api.LoginResponse{Token: "T1"}, meUser: adminUser()}
	s, _ := newTestStore(gw)
	require.NoError(t, s.Login(context.Background(), "clara@example.com", "password1"))

	var emptyNotifies int32
	var mu sync.Mutex
	s.OnChange(func(token string) {
		if token == "" {
			mu.Lock()
			emptyNotifies++
			mu.Unlock()
		}
	})

	gen := s.Generation()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Logout()
		}()
	}
	wg.Wait()

	assert.Equal(t, gen+1, s.Generation())
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, int32(1), emptyNotifies)
}

func TestRehydrateRestoresValidCredential(t *testing.T) {
	gw := &fakeGateway{meUser: adminUser()}
	p := &recordingPersistence{token: "T9"}
	s := New(p, zerolog.Nop())
	s.SetGateway(gw)

	s.Rehydrate(context.Background())

	assert.Equal(t, "T9", s.Token())
	assert.True(t, s.Authenticated())
	require.NotNil(t, s.User())
}

func TestRehydrateStaleCredentialFallsBackSilently(t *testing.T) {
	gw := &fakeGateway{meErr: errors.New("401")}
	p := &recordingPersistence{token: "stale"}
	s := New(p, zerolog.Nop())
	s.SetGateway(gw)

	s.Rehydrate(context.Background())

	assert.Empty(t, s.Token())
	assert.False(t, s.Authenticated())
}

func TestRehydrateWithoutCredentialIsNoOp(t *testing.T) {
	gw := &fakeGateway{}
	s, _ := newTestStore(gw)

	s.Rehydrate(context.Background())

	assert.False(t, s.Authenticated())
	assert.Zero(t, gw.meCalls)
}

func TestListenersRunOnEveryCredentialTransition(t *testing.T) {
	gw := &fakeGateway{loginResp: api.LoginResponse{Token: "A"}, meUser: adminUser()}
	s, _ := newTestStore(gw)

	var mu sync.Mutex
	var seen []string
	s.OnChange(func(token string) {
		mu.Lock()
		seen = append(seen, token)
		mu.Unlock()
	})

	require.NoError(t, s.Login(context.Background(), "clara@example.com", "password1"))
	gw.mu.Lock()
	gw.loginResp = api.LoginResponse{Token: "B"}
	gw.mu.Unlock()
	require.NoError(t, s.Login(context.Background(), "clara@example.com", "password1"))
	s.Logout()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"A", "B", ""}, seen)
}
