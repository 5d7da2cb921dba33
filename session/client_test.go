package session_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/simhq/go-portal-client/session"
	"github.com/simhq/go-portal-client/session/credstore"
	"github.com/simhq/go-portal-client/session/credstore/repofake"
	"github.com/simhq/go-portal-client/users"
	"github.com/simhq/go-portal-client/verification"
	"github.com/stretchr/testify/require"
)

const (
	testToken    = "csrf-token-1"
	testEmail    = "john.doe@example.com"
	testPassword = "Password123"
)

// portalBackend is a scriptable stand-in for the portal API.
type portalBackend struct {
	mux      *http.ServeMux
	requests atomic.Int64

	loginStatus  int
	loginBody    map[string]any
	userStatus   int
	userBody     any
	codeStatus   int
	codeBody     map[string]any
	logoutStatus int
	verifyBody   map[string]any
	resetStatus  int
	resetBody    map[string]any
}

func newPortalBackend() *portalBackend {
	b := &portalBackend{
		mux:          http.NewServeMux(),
		loginStatus:  http.StatusOK,
		loginBody:    map[string]any{"success": true, "message": "logged in"},
		userStatus:   http.StatusOK,
		userBody:     users.User{ID: "user-1", Email: testEmail, Role: users.RoleCollegiate},
		codeStatus:   http.StatusOK,
		codeBody:     map[string]any{"success": true, "message": "logged in"},
		logoutStatus: http.StatusOK,
		verifyBody:   map[string]any{"message": "OK"},
		resetStatus:  http.StatusOK,
		resetBody:    map[string]any{"message": "Password reset email sent successfully"},
	}

	b.mux.HandleFunc("GET /api/set-csrf-token", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: testToken, Path: "/"})
		writeJSON(w, http.StatusOK, map[string]any{"message": "CSRF cookie set"})
	})
	b.mux.HandleFunc("POST /api/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-CSRFToken") != testToken {
			writeJSON(w, http.StatusForbidden, map[string]any{"message": "CSRF verification failed"})
			return
		}
		writeJSON(w, b.loginStatus, b.loginBody)
	})
	b.mux.HandleFunc("GET /api/user", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, b.userStatus, b.userBody)
	})
	b.mux.HandleFunc("POST /api/code-check", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, b.codeStatus, b.codeBody)
	})
	b.mux.HandleFunc("POST /api/logout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, b.logoutStatus, map[string]any{"message": "Logged out"})
	})
	b.mux.HandleFunc("POST /api/verify-member", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, b.verifyBody)
	})
	b.mux.HandleFunc("POST /api/password-reset-request", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, b.resetStatus, b.resetBody)
	})
	b.mux.HandleFunc("POST /api/password-reset-confirm/{uid}/{token}/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, b.resetStatus, map[string]any{"message": "Password reset successfully", "uid": r.PathValue("uid")})
	})
	b.mux.HandleFunc("GET /api/chapter-list", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]any{"chapters": map[string]session.Chapter{
			"0": {ID: "CA", Title: "State University (CA)"},
			"1": {ID: "AB", Title: "Institute of Technology (AB)"},
		}})
	})
	return b
}

func (b *portalBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.requests.Add(1)
	b.mux.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newTestClient(t *testing.T, backend *portalBackend, options ...session.ClientOption) (*session.Client, *repofake.FakeCredRepo) {
	t.Helper()
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	repo := repofake.NewFakeCredRepo()
	client, err := session.New(server.URL+"/api", repo, options...)
	require.NoError(t, err)
	return client, repo
}

func TestLoginSuccess(t *testing.T) {
	client, repo := newTestClient(t, newPortalBackend())
	ctx := context.Background()

	require.NoError(t, client.EnsureCSRF(ctx))
	require.NoError(t, client.Login(ctx, testEmail, testPassword))

	require.True(t, client.IsAuthenticated())
	require.NotNil(t, client.User())
	require.Equal(t, testEmail, client.User().Email)

	persisted := repo.Load()
	require.True(t, persisted.IsAuthenticated)
	require.NotNil(t, persisted.User)
}

func TestLoginWrongPassword(t *testing.T) {
	backend := newPortalBackend()
	backend.loginStatus = http.StatusUnauthorized
	backend.loginBody = map[string]any{"success": false, "message": "Incorrect password."}
	client, repo := newTestClient(t, backend)
	ctx := context.Background()

	require.NoError(t, client.EnsureCSRF(ctx))
	err := client.Login(ctx, testEmail, "wrong")
	require.ErrorIs(t, err, session.InvalidCredentialsErr)

	require.False(t, client.IsAuthenticated())
	require.Nil(t, client.User())
	require.Equal(t, "Incorrect password.", client.ServerMessage())

	require.True(t, repo.Saved())
	require.False(t, repo.Load().IsAuthenticated)
}

func TestLoginMissingCSRFCookie(t *testing.T) {
	backend := newPortalBackend()
	client, _ := newTestClient(t, backend)

	err := client.Login(context.Background(), testEmail, testPassword)
	require.ErrorIs(t, err, session.MissingCSRFTokenErr)
	require.Zero(t, backend.requests.Load(), "precondition failure must not reach the backend")
}

func TestLoginSecondFactorPending(t *testing.T) {
	backend := newPortalBackend()
	backend.userStatus = http.StatusUnauthorized
	backend.userBody = map[string]any{"message": "Not logged in"}
	client, _ := newTestClient(t, backend)
	ctx := context.Background()

	require.NoError(t, client.EnsureCSRF(ctx))
	require.NoError(t, client.Login(ctx, testEmail, testPassword))
	require.False(t, client.IsAuthenticated(), "session pends on the one-time code")

	// The code arrives and checks out; the backend now serves the profile.
	backend.userStatus = http.StatusOK
	backend.userBody = users.User{ID: "user-1", Email: testEmail, Role: users.RoleCollegiate}
	require.NoError(t, client.CheckCode(ctx, "123456"))
	require.True(t, client.IsAuthenticated())
	require.Equal(t, testEmail, client.User().Email)
}

func TestCheckCodeRejectedLeavesStateUnchanged(t *testing.T) {
	backend := newPortalBackend()
	backend.codeStatus = http.StatusBadRequest
	backend.codeBody = map[string]any{"success": false, "message": "Invalid code"}
	client, _ := newTestClient(t, backend)
	ctx := context.Background()

	require.NoError(t, client.EnsureCSRF(ctx))
	err := client.CheckCode(ctx, "000000")
	require.ErrorIs(t, err, session.CodeRejectedErr)
	require.False(t, client.IsAuthenticated())
}

func TestFetchUserFailureClearsSession(t *testing.T) {
	backend := newPortalBackend()
	backend.userStatus = http.StatusUnauthorized
	backend.userBody = map[string]any{"message": "Not logged in"}

	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	repo := repofake.NewFakeCredRepo()
	require.NoError(t, repo.Save(credstore.State{
		User:            &users.User{ID: "user-1", Email: testEmail, Role: users.RoleCollegiate},
		IsAuthenticated: true,
	}))

	client, err := session.New(server.URL+"/api", repo)
	require.NoError(t, err)
	require.True(t, client.IsAuthenticated(), "rehydrated from the credential store")

	require.Error(t, client.FetchUser(context.Background()))
	require.False(t, client.IsAuthenticated())
	require.Nil(t, client.User())
	require.False(t, repo.Load().IsAuthenticated)
}

func TestLogoutAlwaysClears(t *testing.T) {
	backend := newPortalBackend()
	backend.logoutStatus = http.StatusInternalServerError
	client, repo := newTestClient(t, backend)
	ctx := context.Background()

	require.NoError(t, client.EnsureCSRF(ctx))
	require.NoError(t, client.Login(ctx, testEmail, testPassword))
	client.Verification().MarkVerified(testEmail)
	require.True(t, client.IsAuthenticated())

	// The notification reaches the backend and gets a 500; local state
	// clears regardless.
	require.NoError(t, client.Logout(ctx))
	require.False(t, client.IsAuthenticated())
	require.Nil(t, client.User())
	require.False(t, client.HasValidVerification())
	require.False(t, repo.Load().IsAuthenticated)
}

func TestLogoutClearsEvenWithoutCSRFCookie(t *testing.T) {
	backend := newPortalBackend()

	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	repo := repofake.NewFakeCredRepo()
	require.NoError(t, repo.Save(credstore.State{
		User:            &users.User{ID: "user-1", Email: testEmail},
		IsAuthenticated: true,
	}))
	client, err := session.New(server.URL+"/api", repo)
	require.NoError(t, err)
	client.Verification().MarkVerified(testEmail)

	err = client.Logout(context.Background())
	require.ErrorIs(t, err, session.MissingCSRFTokenErr)
	require.False(t, client.IsAuthenticated())
	require.False(t, client.HasValidVerification())
	require.False(t, repo.Load().IsAuthenticated)
}

func TestVerifyMemberMatch(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tracker := verification.NewTracker(verification.WithNowTime(func() time.Time { return now }))
	client, _ := newTestClient(t, newPortalBackend(), session.WithVerificationTracker(tracker))
	ctx := context.Background()

	require.NoError(t, client.EnsureCSRF(ctx))
	require.NoError(t, client.VerifyMember(ctx, testEmail, "CA", "2020"))
	require.True(t, client.HasValidVerification())
	require.Equal(t, testEmail, tracker.Email())

	now = now.Add(16 * time.Minute)
	require.False(t, client.HasValidVerification(), "verification expires after the window")
}

func TestVerifyMemberNoRecord(t *testing.T) {
	backend := newPortalBackend()
	backend.verifyBody = map[string]any{"message": "No member record could be found."}
	client, _ := newTestClient(t, backend)
	ctx := context.Background()

	require.NoError(t, client.EnsureCSRF(ctx))
	err := client.VerifyMember(ctx, testEmail, "CA", "2020")
	require.ErrorIs(t, err, session.MemberNotFoundErr)
	require.False(t, client.HasValidVerification())
	require.Equal(t, "No member record could be found.", client.ServerMessage())
}

func TestRequestPasswordResetSuccess(t *testing.T) {
	client, _ := newTestClient(t, newPortalBackend())
	ctx := context.Background()

	require.NoError(t, client.EnsureCSRF(ctx))
	result := client.RequestPasswordReset(ctx, testEmail)
	require.True(t, result.Success)
	require.Equal(t, "Password reset email sent successfully", result.Message)
	require.Equal(t, result.Message, client.ServerMessage())
}

func TestRequestPasswordResetNeverFailsHard(t *testing.T) {
	backend := newPortalBackend()
	server := httptest.NewServer(backend)

	repo := repofake.NewFakeCredRepo()
	client, err := session.New(server.URL+"/api", repo)
	require.NoError(t, err)
	require.NoError(t, client.EnsureCSRF(context.Background()))

	// Backend goes away mid-session: still a structured result, no error.
	server.Close()
	result := client.RequestPasswordReset(context.Background(), testEmail)
	require.False(t, result.Success)
	require.NotEmpty(t, result.Message)
}

func TestRequestPasswordResetRejectsBadEmail(t *testing.T) {
	backend := newPortalBackend()
	client, _ := newTestClient(t, backend)

	result := client.RequestPasswordReset(context.Background(), "not-an-email")
	require.False(t, result.Success)
	require.Zero(t, backend.requests.Load())
}

func TestConfirmPasswordReset(t *testing.T) {
	client, _ := newTestClient(t, newPortalBackend())
	ctx := context.Background()
	require.NoError(t, client.EnsureCSRF(ctx))

	result := client.ConfirmPasswordReset(ctx, "uid-1", "token-1", "Password123", "Password123")
	require.True(t, result.Success)
	require.Equal(t, "Password reset successfully", result.Message)
}

func TestConfirmPasswordResetLocalValidation(t *testing.T) {
	backend := newPortalBackend()
	client, _ := newTestClient(t, backend)
	ctx := context.Background()

	result := client.ConfirmPasswordReset(ctx, "uid-1", "token-1", "Password123", "Password124")
	require.False(t, result.Success)
	require.Equal(t, "Passwords do not match", result.Message)

	result = client.ConfirmPasswordReset(ctx, "uid-1", "token-1", "weak", "weak")
	require.False(t, result.Success)

	require.Zero(t, backend.requests.Load(), "local validation failures stay local")
}

func TestChaptersSortedByTitle(t *testing.T) {
	client, _ := newTestClient(t, newPortalBackend())

	chapters, err := client.Chapters(context.Background())
	require.NoError(t, err)
	require.Len(t, chapters, 2)
	require.Equal(t, "Institute of Technology (AB)", chapters[0].Title)
	require.Equal(t, "State University (CA)", chapters[1].Title)
}

func TestCookieSnapshotSurvivesRestart(t *testing.T) {
	backend := newPortalBackend()
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	cookieFile := filepath.Join(t.TempDir(), "cookies.json")
	repo := repofake.NewFakeCredRepo()

	first, err := session.New(server.URL+"/api", repo, session.WithCookieFile(cookieFile))
	require.NoError(t, err)
	require.NoError(t, first.EnsureCSRF(context.Background()))

	// A new client over the same cookie file stands in for a new process; it
	// can issue mutating calls without re-priming CSRF.
	second, err := session.New(server.URL+"/api", repo, session.WithCookieFile(cookieFile))
	require.NoError(t, err)
	require.NoError(t, second.Login(context.Background(), testEmail, testPassword))
	require.True(t, second.IsAuthenticated())
}
