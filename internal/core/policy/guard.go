// Package policy decides whether a protected view may render for the
// current session. The decision is advisory UX only; the server is the
// actual enforcement point.
package policy

import "github.com/theaddress/rentals/internal/core/domain"

// Capability names the requirement a protected view declares.
type Capability string

const (
	CapabilityAuthenticated Capability = "authenticated"
	CapabilityAdmin         Capability = "admin"
)

// LoginTarget is the sole redirect destination. Missing authentication
// and insufficient privilege are deliberately indistinguishable: both
// land on the login entry point, never on an "unauthorized" page.
const LoginTarget = "/login"

// Verdict is the outcome of a guard decision.
type Verdict int

const (
	// Defer means the session is still settling; render a neutral
	// loading state and make no redirect decision yet.
	Defer Verdict = iota
	// Render allows the protected view to paint.
	Render
	// Redirect sends the user to Decision.Target before first paint.
	Redirect
)

// Decision carries the verdict and, for Redirect, the target.
type Decision struct {
	Verdict Verdict
	Target  string
}

// Decide is a pure function of the session and the required capability.
// A pending session (including the instant before startup reconciliation
// completes) always defers, avoiding a flash-redirect on reload.
func Decide(session domain.Session, required Capability) Decision {
	if session.Status == domain.StatusPending {
		return Decision{Verdict: Defer}
	}

	switch required {
	case CapabilityAdmin:
		if session.IsAdmin() {
			return Decision{Verdict: Render}
		}
	case CapabilityAuthenticated:
		if session.IsAuthenticated() {
			return Decision{Verdict: Render}
		}
	}

	return Decision{Verdict: Redirect, Target: LoginTarget}
}
