package icloud

import (
	"sync"

	"github.com/photomirror/photomirror/pkg/errors"
)

// SessionState tracks where the authentication handshake stands. Transitions
// are gated on the expected current state so two concurrent prompts cannot
// cross-talk: whichever caller loses the race gets ErrSessionState instead of
// corrupting the handshake.
type SessionState int

const (
	StateNone SessionState = iota
	StateAuthenticating
	StateNeedsTwoFactor
	StateTrusted
	StateAuthenticated
)

var stateNames = map[SessionState]string{
	StateNone:           "none",
	StateAuthenticating: "authenticating",
	StateNeedsTwoFactor: "needs-two-factor",
	StateTrusted:        "trusted",
	StateAuthenticated:  "authenticated",
}

func (s SessionState) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// Session holds the handshake state plus the tokens the web API hands out
// along the way.
type Session struct {
	mu    sync.Mutex
	state SessionState

	SessionToken string
	TrustToken   string
	Scnt         string
	SessionID    string
}

// State returns the current handshake state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Advance moves the session from the expected state to the next one. It fails
// with ErrSessionState when the session is not in the expected state.
func (s *Session) Advance(from, to SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != from {
		return errors.Wrapf(errors.ErrSessionState, "expected %s, session is %s", from, s.state)
	}
	s.state = to
	return nil
}

// Reset unconditionally returns the session to the unauthenticated state and
// clears handshake tokens. Trust tokens survive: device trust outlives one
// session.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateNone
	s.SessionToken = ""
	s.Scnt = ""
	s.SessionID = ""
}
