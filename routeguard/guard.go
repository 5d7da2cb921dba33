// Package routeguard decides, before each navigation, whether the target page
// may be shown to the current session. It only reads session state; the one
// exception is recording the verification prompt as a server message for the
// UI to display on the redirect target.
package routeguard

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/simhq/go-portal-client/internal/utils"
	"github.com/simhq/go-portal-client/users"
)

// VerificationPrompt is shown when a navigation needs a fresh membership
// verification.
const VerificationPrompt = "Please verify your membership before registering."

// Outcome is the terminal result of a guard check.
type Outcome string

const (
	OutcomeAllow          Outcome = "allow"
	OutcomeRedirectLogin  Outcome = "redirect-login"
	OutcomeRedirectVerify Outcome = "redirect-verify"
	OutcomeRedirectHome   Outcome = "redirect-home"
)

// Decision is what the navigation layer acts on: either proceed, or go to
// Target instead, optionally carrying an error query parameter.
type Decision struct {
	Outcome    Outcome
	Target     string // route name to navigate to when not allowed
	ErrorParam string // error query parameter for home redirects
}

// Session is the slice of the session client the guard depends on. The
// concrete implementation is *session.Client; tests substitute a fake.
type Session interface {
	IsAuthenticated() bool
	User() *users.User
	SetServerMessage(message string)
	HasValidVerification() bool
	FetchUser(ctx context.Context) error
}

var UnknownRouteErr = errors.New("unknown route")

// Guard evaluates route requirements against the session. It takes its
// collaborators by explicit injection; there is no ambient store to reach
// into.
type Guard struct {
	session  Session
	taxonomy users.Taxonomy
	routes   map[string]Route
}

// GuardOption defines a function type to modify the Guard instance.
type GuardOption func(*Guard)

// WithTaxonomy overrides the role groupings used for member and staff checks.
func WithTaxonomy(taxonomy users.Taxonomy) GuardOption {
	return func(g *Guard) {
		g.taxonomy = taxonomy
	}
}

// New initializes a Guard over the given route table.
func New(session Session, routes []Route, options ...GuardOption) (*Guard, error) {
	if session == nil {
		return nil, errors.New("[routeguard.New] session is required")
	}
	if len(routes) == 0 {
		return nil, errors.New("[routeguard.New] route table is required")
	}

	guard := &Guard{
		session:  session,
		taxonomy: users.DefaultTaxonomy(),
		routes:   make(map[string]Route, len(routes)),
	}
	for _, route := range routes {
		guard.routes[route.Name] = route
	}

	for _, opt := range options {
		opt(guard)
	}
	return guard, nil
}

// Route returns the named route from the guard's table.
func (g *Guard) Route(name string) (Route, error) {
	route, ok := g.routes[name]
	if !ok {
		return Route{}, errors.Wrap(UnknownRouteErr, name)
	}
	return route, nil
}

// Check evaluates the target route's requirements in fixed order; the first
// matching rule decides. The role re-fetch in the third rule is the only
// suspension point and is bounded by ctx.
func (g *Guard) Check(ctx context.Context, name string) (Decision, error) {
	route, err := g.Route(name)
	if err != nil {
		return Decision{}, err
	}
	req := route.Requirement

	if req.RequiresAuth && !g.session.IsAuthenticated() {
		return redirect(OutcomeRedirectLogin, RouteLogin), nil
	}

	if req.RequiresVerification && !g.session.HasValidVerification() {
		g.session.SetServerMessage(VerificationPrompt)
		return redirect(OutcomeRedirectVerify, RouteVerify), nil
	}

	if len(req.RequiresRoles) > 0 {
		// Re-fetch the user so a stale cached role cannot grant access. A
		// failed fetch resolves to the logged-out state rather than hanging
		// the navigation.
		if err := g.session.FetchUser(ctx); err != nil {
			log.Debug().Str("route", route.Name).Err(err).Msg("role re-fetch failed")
		}
		if !g.session.IsAuthenticated() {
			return redirect(OutcomeRedirectLogin, RouteLogin), nil
		}
		if !g.session.User().HasAnyRole(req.RequiresRoles...) {
			return homeWithError("unauthorized"), nil
		}
	}

	role := utils.Value(g.session.User()).Role
	if req.RequiresMember && !g.taxonomy.IsMember(role) {
		return homeWithError("members-only"), nil
	}
	if req.RequiresStaff && !g.taxonomy.IsStaff(role) {
		return homeWithError("staff-only"), nil
	}

	return Decision{Outcome: OutcomeAllow}, nil
}

func redirect(outcome Outcome, target string) Decision {
	return Decision{Outcome: outcome, Target: target}
}

func homeWithError(param string) Decision {
	return Decision{Outcome: OutcomeRedirectHome, Target: RouteHome, ErrorParam: param}
}
