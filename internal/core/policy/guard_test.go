package policy

import (
	"testing"

	"github.com/theaddress/rentals/internal/core/domain"
)

func authenticated(role string) domain.Session {
	return domain.Session{
		Status:   domain.StatusAuthenticated,
		Identity: &domain.User{ID: "1", Email: "a@x.com", Role: role},
		Token:    "tok",
	}
}

func TestDecide_PendingDefers(t *testing.T) {
	pending := domain.Session{Status: domain.StatusPending}

	for _, capability := range []Capability{CapabilityAuthenticated, CapabilityAdmin} {
		d := Decide(pending, capability)
		if d.Verdict != Defer {
			t.Fatalf("capability %s while pending: verdict %v, want Defer", capability, d.Verdict)
		}
		if d.Target != "" {
			t.Fatalf("deferred decision must not carry a redirect target, got %q", d.Target)
		}
	}
}

func TestDecide_Authenticated(t *testing.T) {
	if d := Decide(authenticated(domain.RoleUser), CapabilityAuthenticated); d.Verdict != Render {
		t.Fatalf("authenticated user: verdict %v, want Render", d.Verdict)
	}

	d := Decide(domain.Session{Status: domain.StatusAnonymous}, CapabilityAuthenticated)
	if d.Verdict != Redirect || d.Target != LoginTarget {
		t.Fatalf("anonymous: got %+v, want redirect to %s", d, LoginTarget)
	}
}

func TestDecide_Admin(t *testing.T) {
	if d := Decide(authenticated(domain.RoleAdmin), CapabilityAdmin); d.Verdict != Render {
		t.Fatalf("admin: verdict %v, want Render", d.Verdict)
	}

	// A signed-in non-admin lands on the login entry point too:
	// insufficient privilege is indistinguishable from missing auth.
	d := Decide(authenticated(domain.RoleUser), CapabilityAdmin)
	if d.Verdict != Redirect || d.Target != LoginTarget {
		t.Fatalf("non-admin: got %+v, want redirect to %s", d, LoginTarget)
	}

	d = Decide(domain.Session{Status: domain.StatusAnonymous}, CapabilityAdmin)
	if d.Verdict != Redirect || d.Target != LoginTarget {
		t.Fatalf("anonymous admin check: got %+v, want redirect to %s", d, LoginTarget)
	}
}
