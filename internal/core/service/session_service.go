package service

import (
	"context"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/theaddress/rentals/internal/core/domain"
	"github.com/theaddress/rentals/internal/core/ports"
)

// SessionController owns the in-memory session. It is the only writer;
// every other component reads snapshots or subscribes to changes.
//
// The mutex guards the session value itself and is never held across a
// network call, so concurrent auth operations are not serialized: the
// later-resolving operation determines the final state (last-write-wins).
type SessionController struct {
	gateway  ports.AuthGateway
	store    ports.CredentialStore
	validate *validator.Validate
	log      zerolog.Logger

	mu        sync.Mutex
	session   domain.Session
	restored  bool
	listeners []func(domain.Session)
}

// NewSessionController builds a controller in the pending state. Until
// Restore runs, the session is indeterminate and route guards defer.
func NewSessionController(gateway ports.AuthGateway, store ports.CredentialStore, log zerolog.Logger) *SessionController {
	return &SessionController{
		gateway:  gateway,
		store:    store,
		validate: validator.New(),
		log:      log,
		session:  domain.Session{Status: domain.StatusPending},
	}
}

// Restore reconciles the in-memory session with the credential store.
// A persisted credential is accepted without re-validation against the
// server; an invalid token surfaces lazily on the first rejected
// request. Runs once; later calls are no-ops.
func (c *SessionController) Restore() {
	c.mu.Lock()
	if c.restored {
		c.mu.Unlock()
		return
	}
	c.restored = true
	c.mu.Unlock()

	token, identity, err := c.store.Load()
	if err != nil {
		c.log.Warn().Err(err).Msg("credential store unreadable, starting anonymous")
		c.setAnonymous("")
		return
	}
	if token == "" || identity == nil {
		c.setAnonymous("")
		return
	}

	c.log.Debug().Str("email", identity.Email).Msg("session restored from store")
	c.setAuthenticated(token, identity)
}

// Login authenticates against the server. On success the credential is
// written to the store and held in memory; on failure the session ends
// anonymous with LastError carrying the server message.
func (c *SessionController) Login(ctx context.Context, email, password string) error {
	c.setPending()

	token, identity, err := c.gateway.Login(ctx, email, password)
	if err != nil {
		msg := domain.ErrorMessage(err, domain.MsgLoginFailed)
		c.log.Info().Str("email", email).Str("reason", msg).Msg("login rejected")
		c.setAnonymous(msg)
		return err
	}

	if saveErr := c.store.Save(token, identity); saveErr != nil {
		// The in-memory session is still valid; persistence is best
		// effort and the credential simply won't survive a restart.
		c.log.Warn().Err(saveErr).Msg("failed to persist credential")
	}

	c.setAuthenticated(token, identity)
	return nil
}

// Register creates the account, then immediately logs in with the same
// email and password. When registration succeeds but the follow-up
// login fails, the account exists server-side with no local session and
// the controller ends anonymous with LastError set; callers must treat
// that split as a possible outcome, not an internal bug.
func (c *SessionController) Register(ctx context.Context, input domain.RegisterInput) error {
	c.setPending()

	if err := c.validate.Struct(input); err != nil {
		reqErr := domain.NewRequestError(domain.ErrValidation, validationMessage(err))
		c.setAnonymous(reqErr.Message)
		return reqErr
	}

	if err := c.gateway.Register(ctx, input); err != nil {
		msg := domain.ErrorMessage(err, domain.MsgRegisterFailed)
		c.log.Info().Str("email", input.Email).Str("reason", msg).Msg("registration rejected")
		c.setAnonymous(msg)
		return err
	}

	return c.Login(ctx, input.Email, input.Password)
}

// Logout clears memory and store. Synchronous, always succeeds from the
// caller's perspective, and idempotent.
func (c *SessionController) Logout() {
	if err := c.store.Clear(); err != nil {
		c.log.Warn().Err(err).Msg("failed to clear credential store")
	}
	c.setAnonymous("")
}

// Snapshot returns a copy of the current session for reading. Derived
// flags are methods on the copy, recomputed on every call.
func (c *SessionController) Snapshot() domain.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneSession(c.session)
}

// Token returns the current bearer credential, empty when anonymous.
// The resource-access client uses this as its token source.
func (c *SessionController) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Token
}

// Subscribe registers a listener invoked with a session copy after
// every state transition. Listeners run synchronously on the mutating
// flow and must not call back into the controller.
func (c *SessionController) Subscribe(fn func(domain.Session)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *SessionController) setPending() {
	c.transition(domain.Session{Status: domain.StatusPending})
}

func (c *SessionController) setAnonymous(lastError string) {
	c.transition(domain.Session{Status: domain.StatusAnonymous, LastError: lastError})
}

func (c *SessionController) setAuthenticated(token string, identity *domain.User) {
	c.transition(domain.Session{
		Status:   domain.StatusAuthenticated,
		Identity: identity,
		Token:    token,
	})
}

func (c *SessionController) transition(next domain.Session) {
	c.mu.Lock()
	if !c.session.Status.CanTransitionTo(next.Status) && c.session.Status != next.Status {
		// Interleaved auth operations can race here; the later write
		// wins and the move is logged rather than refused.
		c.log.Debug().
			Str("from", string(c.session.Status)).
			Str("to", string(next.Status)).
			Msg("out-of-order session transition")
	}
	c.session = next
	listeners := c.listeners
	snapshot := cloneSession(c.session)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}

func cloneSession(s domain.Session) domain.Session {
	clone := s
	if s.Identity != nil {
		id := *s.Identity
		clone.Identity = &id
	}
	return clone
}
