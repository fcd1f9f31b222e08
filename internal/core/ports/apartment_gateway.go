package ports

import (
	"context"

	"github.com/theaddress/rentals/internal/core/domain"
)

// ApartmentGateway defines the listing-family operations on the remote
// API. Every call is fire-once, with no retries and no deduplication;
// callers re-invoke after a user-visible failure action.
type ApartmentGateway interface {
	// ListAll returns the server-ordered snapshot; the client applies
	// no reordering.
	ListAll(ctx context.Context) ([]domain.Apartment, error)
	GetByID(ctx context.Context, id int64) (*domain.Apartment, error)
	Create(ctx context.Context, form domain.ApartmentForm) (*domain.Apartment, error)
	// Update has partial-update semantics server-side but carries the
	// same field set as Create.
	Update(ctx context.Context, id int64, form domain.ApartmentForm) (*domain.Apartment, error)
	Delete(ctx context.Context, id int64) error
}
