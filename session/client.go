package session

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/simhq/go-portal-client/internal/validate"
	"github.com/simhq/go-portal-client/session/credstore"
	"github.com/simhq/go-portal-client/users"
	"github.com/simhq/go-portal-client/verification"
)

const (
	defaultCSRFCookieName = "csrftoken"
	defaultTimeout        = 10 * time.Second

	csrfHeaderName  = "X-CSRFToken"
	requestIDHeader = "X-Request-ID"
)

// Client issues the portal's authentication operations and owns the resulting
// session state. All mutation of Session goes through Client methods; callers
// such as the route guard only read it. The UI serializes user-triggered
// actions, so the client assumes one writer at a time; the internal mutex only
// keeps a racing pair of calls from interleaving a half-applied transition.
type Client struct {
	baseURL        *url.URL
	httpClient     *http.Client
	creds          credstore.Repo
	tracker        *verification.Tracker
	csrfCookieName string
	cookieFile     string

	mu      sync.Mutex
	session Session
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithCSRFCookieName overrides the cookie the anti-forgery token is read from.
func WithCSRFCookieName(name string) ClientOption {
	return func(c *Client) {
		c.csrfCookieName = name
	}
}

// WithCookieFile enables cookie jar persistence at the given path, so the
// backend session cookie survives process restarts.
func WithCookieFile(path string) ClientOption {
	return func(c *Client) {
		c.cookieFile = path
	}
}

// WithVerificationTracker injects a preconfigured tracker (primarily for
// testing with a fixed clock).
func WithVerificationTracker(tracker *verification.Tracker) ClientOption {
	return func(c *Client) {
		c.tracker = tracker
	}
}

// New initializes a Client against the portal API at baseURL, rehydrating the
// session from the credential repository so a restart does not need a network
// round trip to know who is logged in.
func New(baseURL string, creds credstore.Repo, options ...ClientOption) (*Client, error) {
	if creds == nil {
		return nil, errors.New("[session.New] credential repo is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "[session.New] invalid base URL")
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, errors.New("[session.New] base URL must be absolute")
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "[session.New] cookiejar.New")
	}

	client := &Client{
		baseURL:        parsed,
		httpClient:     &http.Client{Jar: jar, Timeout: defaultTimeout},
		creds:          creds,
		tracker:        verification.NewTracker(),
		csrfCookieName: defaultCSRFCookieName,
	}

	for _, opt := range options {
		opt(client)
	}

	client.loadCookies()

	if state := creds.Load(); state.IsAuthenticated && state.User != nil {
		client.session.User = state.User
		client.session.IsAuthenticated = true
	}

	return client, nil
}

// User returns the current user record, nil when logged out.
func (c *Client) User() *users.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.User
}

// IsAuthenticated reports whether the client currently holds an authenticated
// session.
func (c *Client) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.IsAuthenticated
}

// ServerMessage returns the last status string reported by the backend.
func (c *Client) ServerMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.ServerMessage
}

// SetServerMessage records a message for the UI layer to display.
func (c *Client) SetServerMessage(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.ServerMessage = message
}

// ClearMessage drops the pending server message.
func (c *Client) ClearMessage() {
	c.SetServerMessage("")
}

// Verification exposes the membership verification tracker.
func (c *Client) Verification() *verification.Tracker {
	return c.tracker
}

// HasValidVerification reports whether a membership verification is still
// inside its validity window.
func (c *Client) HasValidVerification() bool {
	return c.tracker.Valid()
}

// Snapshot returns a copy of the current session state.
func (c *Client) Snapshot() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// EnsureCSRF primes the cookie jar with the backend's anti-forgery cookie.
// Call it once before the first mutating operation of a fresh process.
func (c *Client) EnsureCSRF(ctx context.Context) error {
	_, _, err := c.do(ctx, http.MethodGet, "set-csrf-token", nil, false)
	return errors.Wrap(err, "[Client.EnsureCSRF] request failed")
}

// Login authenticates with email and password. On backend-reported success the
// user profile is pulled so the session fact carries the user record; with the
// code second factor enabled the profile stays unauthenticated until CheckCode
// completes. Any failure forces the logged-out state (fail closed) and records
// the backend's message for the UI.
func (c *Client) Login(ctx context.Context, email, password string) error {
	body := map[string]string{"email": email, "password": password}
	resp, data, err := c.do(ctx, http.MethodPost, "login", body, true)
	if err != nil {
		if errors.Is(err, MissingCSRFTokenErr) {
			return err
		}
		c.forceLoggedOut("")
		return errors.Wrap(err, "[Client.Login] request failed")
	}

	env := decodeEnvelope(data)
	if resp.StatusCode != http.StatusOK || (env.Success != nil && !*env.Success) {
		c.forceLoggedOut(env.text("Invalid credentials"))
		return errors.Wrap(InvalidCredentialsErr, env.text("login rejected"))
	}

	c.SetServerMessage(env.text(""))
	if err := c.FetchUser(ctx); err != nil {
		// Second factor still pending: the backend accepted the credentials
		// but has not established the session yet.
		log.Debug().Err(err).Msg("profile not available after login")
	}
	return nil
}

// CheckCode submits the one-time login code. Success establishes the session
// server-side, so the profile is refreshed and the client marked
// authenticated. Failure propagates to the caller with state unchanged.
func (c *Client) CheckCode(ctx context.Context, code string) error {
	resp, data, err := c.do(ctx, http.MethodPost, "code-check", map[string]string{"code": code}, true)
	if err != nil {
		return errors.Wrap(err, "[Client.CheckCode] request failed")
	}

	env := decodeEnvelope(data)
	if resp.StatusCode != http.StatusOK || env.Success == nil || !*env.Success {
		return errors.Wrap(CodeRejectedErr, env.text("incorrect code"))
	}

	if err := c.FetchUser(ctx); err != nil {
		return errors.Wrap(err, "[Client.CheckCode] fetch user")
	}
	c.SetServerMessage(env.text(""))
	return nil
}

// FetchUser replaces the cached user record with the backend's view. Any
// failure, transport or authorization, clears the session (fail closed). The
// outcome is persisted either way.
func (c *Client) FetchUser(ctx context.Context) error {
	resp, data, err := c.do(ctx, http.MethodGet, "user", nil, false)
	if err != nil {
		c.forceLoggedOut("")
		return errors.Wrap(err, "[Client.FetchUser] request failed")
	}
	if resp.StatusCode != http.StatusOK {
		c.forceLoggedOut("")
		return errors.Wrapf(NotAuthenticatedErr, "[Client.FetchUser] status %d", resp.StatusCode)
	}

	var user users.User
	if err := json.Unmarshal(data, &user); err != nil {
		c.forceLoggedOut("")
		return errors.Wrap(err, "[Client.FetchUser] decode user")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.User = &user
	c.session.IsAuthenticated = true
	c.persistLocked()
	return nil
}

// Logout notifies the backend and clears the local session and verification
// state. The network call is best effort: the local state clears regardless of
// its outcome, since the backend may already have dropped the session.
func (c *Client) Logout(ctx context.Context) error {
	_, data, reqErr := c.do(ctx, http.MethodPost, "logout", nil, true)

	c.mu.Lock()
	c.session.User = nil
	c.session.IsAuthenticated = false
	if reqErr == nil {
		c.session.ServerMessage = decodeEnvelope(data).text("Logged out")
	}
	c.persistLocked()
	c.mu.Unlock()

	c.tracker.Clear()

	if reqErr != nil {
		return errors.Wrap(reqErr, "[Client.Logout] request failed")
	}
	return nil
}

// VerifyMember checks the signup details against the member database. A match
// marks the verification tracker, opening the registration window.
func (c *Client) VerifyMember(ctx context.Context, email, chapter, classYear string) error {
	body := map[string]string{
		"email":           email,
		"selectedChapter": chapter,
		"selectedYear":    classYear,
	}
	resp, data, err := c.do(ctx, http.MethodPost, "verify-member", body, true)
	if err != nil {
		return errors.Wrap(err, "[Client.VerifyMember] request failed")
	}

	env := decodeEnvelope(data)
	c.SetServerMessage(env.text(""))
	if resp.StatusCode == http.StatusOK && env.Message == "OK" {
		c.tracker.MarkVerified(email)
		return nil
	}
	return errors.Wrap(MemberNotFoundErr, env.text("verification failed"))
}

// RequestPasswordReset asks the backend to email a reset link. The operation
// is non-destructive, so it always reports through the Result and never
// returns an error.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) Result {
	if err := validate.Email(email); err != nil {
		return c.resetResult(false, err.Error())
	}

	resp, data, err := c.do(ctx, http.MethodPost, "password-reset-request", map[string]string{"email": email}, true)
	if err != nil {
		log.Warn().Err(err).Msg("password reset request failed")
		return c.resetResult(false, "An error occurred while sending the reset email")
	}

	env := decodeEnvelope(data)
	if resp.StatusCode == http.StatusOK {
		return c.resetResult(true, env.text("Password reset email sent successfully"))
	}
	return c.resetResult(false, env.text("Failed to send reset email"))
}

// ConfirmPasswordReset completes a reset started from an emailed link. The new
// password pair is validated locally before the tokens are spent on a request
// the backend would reject anyway.
func (c *Client) ConfirmPasswordReset(ctx context.Context, uid, token, newPassword, newPasswordConfirm string) Result {
	if newPassword != newPasswordConfirm {
		return c.resetResult(false, "Passwords do not match")
	}
	if err := validate.PasswordStrength(newPassword); err != nil {
		return c.resetResult(false, err.Error())
	}

	path := "password-reset-confirm/" + url.PathEscape(uid) + "/" + url.PathEscape(token) + "/"
	body := map[string]string{
		"new_password1": newPassword,
		"new_password2": newPasswordConfirm,
	}
	resp, data, err := c.do(ctx, http.MethodPost, path, body, true)
	if err != nil {
		log.Warn().Err(err).Msg("password reset confirmation failed")
		return c.resetResult(false, "An error occurred while resetting password")
	}

	env := decodeEnvelope(data)
	if resp.StatusCode == http.StatusOK {
		return c.resetResult(true, env.text("Password reset successfully"))
	}
	return c.resetResult(false, env.text("Failed to reset password"))
}

// Chapters fetches the chapter roster, sorted by title.
func (c *Client) Chapters(ctx context.Context) ([]Chapter, error) {
	resp, data, err := c.do(ctx, http.MethodGet, "chapter-list", nil, false)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Chapters] request failed")
	}
	// The backend answers 201 here, an old quirk its clients have to accept.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, errors.Wrapf(UnexpectedStatusErr, "[Client.Chapters] status %d", resp.StatusCode)
	}

	var payload struct {
		Chapters map[string]Chapter `json:"chapters"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, errors.Wrap(err, "[Client.Chapters] decode chapters")
	}

	chapters := make([]Chapter, 0, len(payload.Chapters))
	for _, chapter := range payload.Chapters {
		chapters = append(chapters, chapter)
	}
	sort.Slice(chapters, func(i, j int) bool { return chapters[i].Title < chapters[j].Title })
	return chapters, nil
}

func (c *Client) resetResult(success bool, message string) Result {
	c.SetServerMessage(message)
	return Result{Success: success, Message: message}
}

func (c *Client) forceLoggedOut(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.session.User = nil
	c.session.IsAuthenticated = false
	if message != "" {
		c.session.ServerMessage = message
	}
	c.persistLocked()
}

// persistLocked writes the session fact through the credential repo. Callers
// must hold c.mu. Persistence failures degrade to "act as logged out on next
// start" and are not surfaced.
func (c *Client) persistLocked() {
	state := credstore.State{
		User:            c.session.User,
		IsAuthenticated: c.session.IsAuthenticated,
	}
	if err := c.creds.Save(state); err != nil {
		log.Warn().Err(err).Msg("failed to persist session state")
	}
}

// do executes one JSON request against the portal API. Mutating requests must
// carry the anti-forgery token copied from the cookie jar; a missing token is
// a hard precondition failure. Reads attach the token when present and omit
// it silently otherwise.
func (c *Client) do(ctx context.Context, method, path string, body any, mutating bool) (*http.Response, []byte, error) {
	target := *c.baseURL
	target.Path = strings.TrimSuffix(target.Path, "/") + "/" + path

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, nil, errors.Wrap(err, "[Client.do] json.Marshal")
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reqBody)
	if err != nil {
		return nil, nil, errors.Wrap(err, "[Client.do] http.NewRequestWithContext")
	}
	req.Header.Set("Content-Type", "application/json")

	token := c.csrfToken()
	if mutating && token == "" {
		return nil, nil, MissingCSRFTokenErr
	}
	if token != "" {
		req.Header.Set(csrfHeaderName, token)
	}

	requestID := uuid.New().String()
	req.Header.Set(requestIDHeader, requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug().Str("request_id", requestID).Str("path", path).Err(err).Msg("portal request failed")
		return nil, nil, errors.Wrap(err, "[Client.do] httpClient.Do")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, errors.Wrap(err, "[Client.do] read response body")
	}

	c.persistCookies()
	log.Debug().Str("request_id", requestID).Str("path", path).Int("status", resp.StatusCode).Msg("portal request")
	return resp, data, nil
}

// csrfToken reads the anti-forgery token from the cookie jar, mirroring what
// the backend expects in the X-CSRFToken header.
func (c *Client) csrfToken() string {
	for _, cookie := range c.httpClient.Jar.Cookies(c.cookieOrigin()) {
		if cookie.Name == c.csrfCookieName {
			return cookie.Value
		}
	}
	return ""
}

func (c *Client) cookieOrigin() *url.URL {
	return &url.URL{Scheme: c.baseURL.Scheme, Host: c.baseURL.Host, Path: "/"}
}

// apiEnvelope is the common shape of the backend's JSON replies. Endpoints
// use message and error inconsistently, so both are carried.
type apiEnvelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func decodeEnvelope(data []byte) apiEnvelope {
	var env apiEnvelope
	_ = json.Unmarshal(data, &env)
	return env
}

// text returns the best human-readable string in the envelope, falling back
// when the backend supplied neither field.
func (e apiEnvelope) text(fallback string) string {
	if e.Message != "" {
		return e.Message
	}
	if e.Error != "" {
		return e.Error
	}
	return fallback
}
