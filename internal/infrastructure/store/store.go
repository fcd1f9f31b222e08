// Package store persists the session credential between runs. It is a
// passive durable mirror of the in-memory session: written and read
// only by the session controller, never consulted by business logic
// directly.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"

	// Pure-Go sqlite driver.
	_ "modernc.org/sqlite"

	"github.com/theaddress/rentals/internal/core/domain"
)

const (
	keyToken = "token"
	keyUser  = "user"
)

// Store is a two-entry key-value table backed by sqlite. Save and
// Clear run in single transactions, so no reader ever observes a token
// without its identity or vice versa.
type Store struct {
	conn *sql.DB
	log  zerolog.Logger
}

// Open opens (and if needed creates) the credential database at path.
// Use ":memory:" in tests.
func Open(path string, log zerolog.Logger) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`CREATE TABLE IF NOT EXISTS credentials (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		return nil, err
	}

	return &Store{conn: conn, log: log}, nil
}

// Save writes the token and the serialized identity in one transaction.
func (s *Store) Save(token string, identity *domain.User) error {
	raw, err := json.Marshal(identity)
	if err != nil {
		return err
	}

	tx, err := s.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	upsert := `INSERT INTO credentials (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := tx.Exec(upsert, keyToken, token); err != nil {
		return err
	}
	if _, err := tx.Exec(upsert, keyUser, string(raw)); err != nil {
		return err
	}
	return tx.Commit()
}

// Load returns the persisted credential pair, or ("", nil, nil) when
// absent. A missing half or an unparseable identity record is treated
// as logout: the store clears itself and reports absence, so a corrupt
// record can never produce a partial session.
func (s *Store) Load() (string, *domain.User, error) {
	token, ok, err := s.get(keyToken)
	if err != nil {
		return "", nil, err
	}
	rawUser, okUser, err := s.get(keyUser)
	if err != nil {
		return "", nil, err
	}
	if !ok || !okUser || token == "" {
		// Half a record is a logout, not an error. Drop the leftover
		// row so it cannot linger across restarts.
		if ok || okUser {
			s.log.Warn().Msg("incomplete credential record, clearing")
			if clearErr := s.Clear(); clearErr != nil {
				return "", nil, clearErr
			}
		}
		return "", nil, nil
	}

	var identity domain.User
	if err := json.Unmarshal([]byte(rawUser), &identity); err != nil || identity.ID == "" {
		s.log.Warn().Msg("stored identity unreadable, clearing credentials")
		if clearErr := s.Clear(); clearErr != nil {
			return "", nil, clearErr
		}
		return "", nil, nil
	}

	return token, &identity, nil
}

// Clear removes both entries in one transaction. Idempotent.
func (s *Store) Clear() error {
	tx, err := s.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM credentials WHERE key IN (?, ?)`, keyToken, keyUser); err != nil {
		return err
	}
	return tx.Commit()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) get(key string) (string, bool, error) {
	var value string
	err := s.conn.QueryRow(`SELECT value FROM credentials WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}
