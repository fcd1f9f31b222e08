package ports

import "github.com/theaddress/rentals/internal/core/domain"

// CredentialStore is durable key-value persistence for the current
// session's token and identity, surviving process restarts. Save writes
// both entries atomically from the caller's perspective; Load reports
// absence as ("", nil, nil) and must recover from corrupted data by
// clearing itself and reporting absence rather than failing.
type CredentialStore interface {
	Save(token string, identity *domain.User) error
	Load() (string, *domain.User, error)
	Clear() error
}
