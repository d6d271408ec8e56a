package auth

import (
	"context"
	"sync"

	"github.com/khaleelElias/YA/internal/catalog"
)

// State is the sign-in state of the app: Loading, Anonymous or Authenticated.
type State interface {
	// Identity returns the storage identity for the state. Loading resolves
	// to the anonymous identity.
	Identity() Identity
	Name() string
	isState()
}

// Loading means the stored session has not been checked yet.
type Loading struct{}

// Anonymous means the reader uses the app without an account.
type Anonymous struct{}

// Authenticated carries the profile of the signed-in user.
type Authenticated struct {
	Profile catalog.Profile
}

func (Loading) Identity() Identity   { return AnonymousIdentity }
func (Anonymous) Identity() Identity { return AnonymousIdentity }
func (s Authenticated) Identity() Identity {
	return User(s.Profile.ID)
}

func (Loading) Name() string       { return "loading" }
func (Anonymous) Name() string     { return "anonymous" }
func (Authenticated) Name() string { return "authenticated" }

func (Loading) isState()       {}
func (Anonymous) isState()     {}
func (Authenticated) isState() {}

// Session holds the current sign-in state. It starts in Loading.
type Session struct {
	mu    sync.RWMutex
	state State
}

// NewSession returns a session in the Loading state.
func NewSession() *Session {
	return &Session{state: Loading{}}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Identity returns the identity of the current state.
func (s *Session) Identity() Identity {
	return s.State().Identity()
}

// SignedIn moves the session to Authenticated.
func (s *Session) SignedIn(profile catalog.Profile) {
	s.set(Authenticated{Profile: profile})
}

// SignedOut moves the session to Anonymous.
func (s *Session) SignedOut() {
	s.set(Anonymous{})
}

func (s *Session) set(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// ProfileFetcher loads the profile behind an access token.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, accessToken, userID string) catalog.Result[catalog.Profile]
}

// Restore resolves Loading from a stored access token. No token means
// Anonymous. When the profile cannot be fetched the session is still
// Authenticated with a profile holding only the user id, so local data stays
// scoped to the right identity while offline.
func (s *Session) Restore(ctx context.Context, accessToken, secret string, profiles ProfileFetcher) (State, error) {
	if accessToken == "" {
		s.SignedOut()
		return s.State(), nil
	}

	sub, err := SubjectFromToken(accessToken, secret)
	if err != nil {
		s.SignedOut()
		return s.State(), err
	}

	profile := catalog.Profile{ID: sub, Role: catalog.RoleReader}
	if profiles != nil {
		if res := profiles.FetchProfile(ctx, accessToken, sub); res.OK() {
			profile = res.Data
		}
	}
	s.SignedIn(profile)
	return s.State(), nil
}
