package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/theaddress/rentals/internal/core/domain"
	"github.com/theaddress/rentals/internal/core/ports"
)

// ApartmentService mediates listing operations for the views. It owns
// no listing state: the server-ordered snapshot returned by each call
// is the only list the views render. After any successful mutation the
// list is refreshed, and the refresh is sequenced strictly after the
// mutation's own response. A rejected mutation issues no refresh, so
// the previously displayed list stays untouched.
type ApartmentService struct {
	gateway  ports.ApartmentGateway
	validate *validator.Validate
	log      zerolog.Logger
}

func NewApartmentService(gateway ports.ApartmentGateway, log zerolog.Logger) *ApartmentService {
	return &ApartmentService{
		gateway:  gateway,
		validate: validator.New(),
		log:      log,
	}
}

// ListAll fetches the current server-ordered snapshot.
func (s *ApartmentService) ListAll(ctx context.Context) ([]domain.Apartment, error) {
	return s.gateway.ListAll(ctx)
}

// Get fetches a single listing by id.
func (s *ApartmentService) Get(ctx context.Context, id int64) (*domain.Apartment, error) {
	return s.gateway.GetByID(ctx, id)
}

// Create validates the form, submits it, and on success returns the
// created listing together with the refreshed list. When the refresh
// itself fails, the created listing is still returned alongside the
// refresh error and a nil list.
func (s *ApartmentService) Create(ctx context.Context, form domain.ApartmentForm) (*domain.Apartment, []domain.Apartment, error) {
	if err := s.checkForm(form); err != nil {
		return nil, nil, err
	}

	created, err := s.gateway.Create(ctx, form)
	if err != nil {
		return nil, nil, err
	}
	s.log.Info().Int64("id", created.ID).Str("name", created.Name).Msg("listing created")

	list, err := s.gateway.ListAll(ctx)
	if err != nil {
		return created, nil, err
	}
	return created, list, nil
}

// Update submits the same field set as Create with partial-update
// semantics server-side, then refreshes the list.
func (s *ApartmentService) Update(ctx context.Context, id int64, form domain.ApartmentForm) (*domain.Apartment, []domain.Apartment, error) {
	if err := s.checkForm(form); err != nil {
		return nil, nil, err
	}

	updated, err := s.gateway.Update(ctx, id, form)
	if err != nil {
		return nil, nil, err
	}
	s.log.Info().Int64("id", id).Msg("listing updated")

	list, err := s.gateway.ListAll(ctx)
	if err != nil {
		return updated, nil, err
	}
	return updated, list, nil
}

// Delete removes a listing and returns the refreshed list.
func (s *ApartmentService) Delete(ctx context.Context, id int64) ([]domain.Apartment, error) {
	if err := s.gateway.Delete(ctx, id); err != nil {
		return nil, err
	}
	s.log.Info().Int64("id", id).Msg("listing deleted")

	return s.gateway.ListAll(ctx)
}

// checkForm enforces the required-field and positivity checks before
// any network traffic is issued.
func (s *ApartmentService) checkForm(form domain.ApartmentForm) error {
	if err := s.validate.Struct(form); err != nil {
		return domain.NewRequestError(domain.ErrValidation, validationMessage(err))
	}
	return nil
}
