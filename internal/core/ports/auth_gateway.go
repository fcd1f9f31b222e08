package ports

import (
	"context"

	"github.com/theaddress/rentals/internal/core/domain"
)

// AuthGateway defines the auth-family operations on the remote API.
// Register creates the account server-side and carries no session state;
// establishing a session is always a separate Login call.
type AuthGateway interface {
	Register(ctx context.Context, input domain.RegisterInput) error
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
}
