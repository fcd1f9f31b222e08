package domain

// SessionStatus represents the lifecycle state of the client session.
type SessionStatus string

const (
	StatusAnonymous     SessionStatus = "anonymous"
	StatusPending       SessionStatus = "pending"
	StatusAuthenticated SessionStatus = "authenticated"
)

// validTransitions defines the allowed session state machine moves.
var validTransitions = map[SessionStatus][]SessionStatus{
	StatusAnonymous:     {StatusPending},
	StatusPending:       {StatusAuthenticated, StatusAnonymous},
	StatusAuthenticated: {StatusAnonymous, StatusPending},
}

// CanTransitionTo reports whether a move from the current status to next is valid.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Session is the in-memory authentication state. Identity and Token are
// either both set or both empty; a session is authenticated exactly when
// both are held. Only the session controller mutates it; everything
// else reads copies.
type Session struct {
	Status    SessionStatus
	Identity  *User
	Token     string
	LastError string
}

// IsAuthenticated is a pure function of state, recomputed on every read.
func (s Session) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated
}

// IsAdmin reports whether the session holds an admin identity.
func (s Session) IsAdmin() bool {
	return s.IsAuthenticated() && s.Identity != nil && s.Identity.Role == RoleAdmin
}

// Consistent verifies the credential/identity pairing invariant:
// identity and token are present together, and only when authenticated.
func (s Session) Consistent() bool {
	held := s.Identity != nil && s.Token != ""
	empty := s.Identity == nil && s.Token == ""
	if s.Status == StatusAuthenticated {
		return held
	}
	return empty
}
