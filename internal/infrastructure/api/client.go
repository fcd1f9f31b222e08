// Package api implements the single outbound gateway for all network
// calls. It attaches the current bearer credential to every request,
// decodes server JSON into domain types, and normalizes every failure
// into the domain error taxonomy; raw transport errors never escape.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/theaddress/rentals/internal/core/domain"
)

// TokenSource supplies the current bearer credential. An empty return
// value means the request is sent unauthenticated.
type TokenSource func() string

// Client is the stateless resource-access gateway. It owns no session
// state: each call is a function of (operation, payload, current
// credential). No retries, no deduplication.
type Client struct {
	baseURL string
	http    *http.Client
	token   TokenSource
	log     zerolog.Logger
}

// NewClient builds a gateway against baseURL. A nil token source sends
// every request unauthenticated.
func NewClient(baseURL string, token TokenSource, log zerolog.Logger) *Client {
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		token:   token,
		log:     log,
	}
}

// --- Auth family ---

// Register creates the account server-side. The response carries no
// session fields; logging in is a separate call.
func (c *Client) Register(ctx context.Context, input domain.RegisterInput) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/auth/register", input)
	if err != nil {
		return err
	}
	defer drain(resp)
	return c.checkStatus(resp)
}

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	User        *domain.User `json:"user"`
}

// Login exchanges credentials for a bearer token and identity.
func (c *Client) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	body := map[string]string{"email": email, "password": password}
	resp, err := c.doJSON(ctx, http.MethodPost, "/auth/login", body)
	if err != nil {
		return "", nil, err
	}
	defer drain(resp)
	if err := c.checkStatus(resp); err != nil {
		return "", nil, err
	}

	var out loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", nil, c.malformed("login", err)
	}
	if out.AccessToken == "" || out.User == nil || out.User.ID == "" {
		return "", nil, c.malformed("login", fmt.Errorf("missing token or user"))
	}
	return out.AccessToken, out.User, nil
}

// --- Listing family ---

// ListAll fetches the full snapshot in server-defined order.
func (c *Client) ListAll(ctx context.Context) ([]domain.Apartment, error) {
	resp, err := c.do(ctx, http.MethodGet, "/apartments", nil, "")
	if err != nil {
		return nil, err
	}
	defer drain(resp)
	if err := c.checkStatus(resp); err != nil {
		return nil, err
	}

	var out []domain.Apartment
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, c.malformed("apartments", err)
	}
	for i := range out {
		if out[i].ID <= 0 {
			return nil, c.malformed("apartments", fmt.Errorf("listing without id at index %d", i))
		}
	}
	return out, nil
}

// GetByID fetches one listing; a missing id surfaces as ErrNotFound.
func (c *Client) GetByID(ctx context.Context, id int64) (*domain.Apartment, error) {
	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/apartments/%d", id), nil, "")
	if err != nil {
		return nil, err
	}
	defer drain(resp)
	if err := c.checkStatus(resp); err != nil {
		return nil, err
	}
	return c.decodeApartment(resp.Body)
}

// Create submits a new listing as a multipart body.
func (c *Client) Create(ctx context.Context, form domain.ApartmentForm) (*domain.Apartment, error) {
	return c.submitForm(ctx, http.MethodPost, "/apartments", form)
}

// Update patches an existing listing with the same multipart field set.
func (c *Client) Update(ctx context.Context, id int64, form domain.ApartmentForm) (*domain.Apartment, error) {
	return c.submitForm(ctx, http.MethodPatch, fmt.Sprintf("/apartments/%d", id), form)
}

// Delete removes a listing.
func (c *Client) Delete(ctx context.Context, id int64) error {
	resp, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/apartments/%d", id), nil, "")
	if err != nil {
		return err
	}
	defer drain(resp)
	return c.checkStatus(resp)
}

func (c *Client) submitForm(ctx context.Context, method, path string, form domain.ApartmentForm) (*domain.Apartment, error) {
	body, contentType, err := encodeMultipart(form)
	if err != nil {
		return nil, domain.NewRequestError(domain.ErrValidation, err.Error())
	}

	resp, err := c.do(ctx, method, path, body, contentType)
	if err != nil {
		return nil, err
	}
	defer drain(resp)
	if err := c.checkStatus(resp); err != nil {
		return nil, err
	}
	return c.decodeApartment(resp.Body)
}

func (c *Client) decodeApartment(r io.Reader) (*domain.Apartment, error) {
	var out domain.Apartment
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, c.malformed("apartment", err)
	}
	if out.ID <= 0 {
		return nil, c.malformed("apartment", fmt.Errorf("listing without id"))
	}
	return &out, nil
}

// --- Transport plumbing ---

func (c *Client) doJSON(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, domain.NewRequestError(domain.ErrValidation, err.Error())
	}
	return c.do(ctx, method, path, bytes.NewReader(raw), "application/json")
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, domain.NewRequestError(domain.ErrNetwork, domain.MsgRequestFailed)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("method", method).Str("path", path).Msg("transport failure")
		return nil, domain.NewRequestError(domain.ErrNetwork, domain.MsgRequestFailed)
	}
	return resp, nil
}

// errorEnvelope matches the server's structured error body. The message
// field arrives either as a string or as an array of strings.
type errorEnvelope struct {
	Message json.RawMessage `json:"message"`
}

// checkStatus maps a non-2xx response to the error taxonomy, extracting
// the server-supplied message when present.
func (c *Client) checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	msg := extractMessage(resp.Body)

	var kind error
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		kind = domain.ErrUnauthorized
	case http.StatusNotFound:
		kind = domain.ErrNotFound
	default:
		kind = domain.ErrServer
	}

	if msg == "" {
		msg = domain.MsgRequestFailed
	}
	c.log.Debug().Int("status", resp.StatusCode).Str("message", msg).Msg("request rejected")
	return domain.NewRequestError(kind, msg)
}

func (c *Client) malformed(what string, err error) error {
	c.log.Warn().Err(err).Str("payload", what).Msg("response shape mismatch")
	return domain.NewRequestError(domain.ErrServer, domain.MsgRequestFailed)
}

func extractMessage(r io.Reader) string {
	var envelope errorEnvelope
	if err := json.NewDecoder(r).Decode(&envelope); err != nil || len(envelope.Message) == 0 {
		return ""
	}

	var single string
	if err := json.Unmarshal(envelope.Message, &single); err == nil {
		return single
	}
	var many []string
	if err := json.Unmarshal(envelope.Message, &many); err == nil {
		return strings.Join(many, "; ")
	}
	return ""
}

// drain consumes and closes the response body so connections can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
