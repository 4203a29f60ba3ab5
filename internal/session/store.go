package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tkoh/bookstore-tui/internal/api"
	"github.com/tkoh/bookstore-tui/internal/credential"
	"github.com/tkoh/bookstore-tui/internal/model"
)

// Gateway is the slice of the HTTP client the session store needs.
type Gateway interface {
	Login(ctx context.Context, req api.LoginRequest) (api.LoginResponse, error)
	Me(ctx context.Context) (*model.User, error)
	Register(ctx context.Context, req api.RegisterRequest) error
	ForgotPassword(ctx context.Context, req api.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req api.ResetPasswordRequest) error
}

// Persistence stores the credential across runs.
type Persistence interface {
	SaveToken(token string) error
	LoadToken() (string, error)
	DeleteToken() error
}

// KeyringPersistence keeps the token in the system keyring.
type KeyringPersistence struct{}

func (KeyringPersistence) SaveToken(token string) error { return credential.Set(credential.TokenKey, token) }
func (KeyringPersistence) LoadToken() (string, error)   { return credential.Get(credential.TokenKey) }
func (KeyringPersistence) DeleteToken() error           { return credential.Delete(credential.TokenKey) }

// NopPersistence discards the token; used in tests and for `tkoh --no-keyring`.
type NopPersistence struct{}

func (NopPersistence) SaveToken(string) error    { return nil }
func (NopPersistence) LoadToken() (string, error) { return "", nil }
func (NopPersistence) DeleteToken() error         { return nil }

// Store owns the authenticated session: the bearer credential, the fetched
// identity, and the authenticated flag. It is the single writer of all
// three; everything else reads through accessors. Credential changes are
// broadcast to registered listeners, which is how the realtime channel
// manager follows login/logout.
type Store struct {
	mu            sync.Mutex
	gateway       Gateway
	persist       Persistence
	logger        zerolog.Logger
	token         string
	user          *model.User
	authenticated bool

	// generation increments on every transition to logged-out state, so a
	// burst of concurrent 401s tears the session down once, not once per
	// failing request.
	generation uint64

	listeners []func(token string)
}

// New creates an empty, logged-out session store. The gateway is attached
// afterwards with SetGateway because the HTTP client itself needs the store
// as its token source.
func New(persist Persistence, logger zerolog.Logger) *Store {
	if persist == nil {
		persist = NopPersistence{}
	}
	return &Store{persist: persist, logger: logger}
}

// SetGateway attaches the HTTP gateway used for auth operations.
func (s *Store) SetGateway(g Gateway) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gateway = g
}

// OnChange registers a listener invoked with the new credential after every
// credential transition ("" on logout). Listeners run outside the store's
// lock and may call back into the store.
func (s *Store) OnChange(fn func(token string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Token implements api.TokenSource.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// User returns the fetched identity, or nil when logged out.
func (s *Store) User() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Authenticated reports whether a user is logged in.
func (s *Store) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// Generation returns the teardown counter; it changes exactly once per
// transition to logged-out state.
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Login exchanges credentials for a bearer token, stores it, and fetches
// the identity. Any failure leaves the store fully logged out and returns
// the cause.
func (s *Store) Login(ctx context.Context, email, password string) error {
	resp, err := s.gateway.Login(ctx, api.LoginRequest{Email: email, Password: password})
	if err != nil {
		s.Logout()
		return err
	}
	if resp.Token == "" {
		s.Logout()
		return fmt.Errorf("login succeeded but no token was issued")
	}

	s.SetToken(resp.Token)

	if err := s.FetchIdentity(ctx); err != nil {
		return err
	}

	s.logger.Info().Str("email", email).Msg("logged in")
	return nil
}

// Register creates an account; it does not log in.
func (s *Store) Register(ctx context.Context, req api.RegisterRequest) error {
	return s.gateway.Register(ctx, req)
}

// ForgotPassword requests a reset code for the given email or username.
func (s *Store) ForgotPassword(ctx context.Context, identifier string) error {
	return s.gateway.ForgotPassword(ctx, api.ForgotPasswordRequest{Identifier: identifier})
}

// ResetPassword redeems a reset code.
func (s *Store) ResetPassword(ctx context.Context, req api.ResetPasswordRequest) error {
	return s.gateway.ResetPassword(ctx, req)
}

// FetchIdentity loads /users/me using the stored credential. A failure
// means the credential is stale or revoked, so the session is torn down
// before the error is returned.
func (s *Store) FetchIdentity(ctx context.Context) error {
	if s.Token() == "" {
		return fmt.Errorf("no credential set")
	}

	user, err := s.gateway.Me(ctx)
	if err != nil {
		s.Logout()
		return fmt.Errorf("fetching identity: %w", err)
	}

	s.mu.Lock()
	s.user = user
	s.authenticated = true
	s.mu.Unlock()
	return nil
}

// SetToken replaces the credential, persists it, and notifies listeners.
func (s *Store) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.authenticated = token != ""
	listeners := append([]func(string){}, s.listeners...)
	s.mu.Unlock()

	if err := s.persist.SaveToken(token); err != nil {
		s.logger.Warn().Err(err).Msg("persisting credential failed")
	}

	for _, fn := range listeners {
		fn(token)
	}
}

// Logout clears the credential, identity, and authenticated flag, removes
// the persisted credential, and notifies listeners with an empty token.
// It is idempotent: if the store is already logged out nothing happens, so
// concurrent 401 failures cause a single teardown.
func (s *Store) Logout() {
	s.mu.Lock()
	if s.token == "" && !s.authenticated && s.user == nil {
		s.mu.Unlock()
		return
	}
	s.token = ""
	s.user = nil
	s.authenticated = false
	s.generation++
	listeners := append([]func(string){}, s.listeners...)
	s.mu.Unlock()

	if err := s.persist.DeleteToken(); err != nil {
		s.logger.Warn().Err(err).Msg("removing persisted credential failed")
	}
	s.logger.Info().Msg("logged out")

	for _, fn := range listeners {
		fn("")
	}
}

// Rehydrate restores a persisted credential at startup and validates it
// with a fresh identity fetch. A stale credential falls back silently to
// the logged-out state.
func (s *Store) Rehydrate(ctx context.Context) {
	token, err := s.persist.LoadToken()
	if err != nil {
		s.logger.Warn().Err(err).Msg("loading persisted credential failed")
		return
	}
	if token == "" {
		return
	}

	s.SetToken(token)
	if err := s.FetchIdentity(ctx); err != nil {
		// FetchIdentity already logged out.
		s.logger.Info().Err(err).Msg("persisted credential rejected, starting logged out")
	}
}
