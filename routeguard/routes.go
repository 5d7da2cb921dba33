package routeguard

import "github.com/simhq/go-portal-client/users"

// Requirement is the declarative access metadata attached to a route. It is
// static configuration; nothing mutates it at runtime.
type Requirement struct {
	RequiresAuth         bool
	RequiresVerification bool
	RequiresRoles        []users.RoleType // OR semantics: any listed role grants access
	RequiresMember       bool
	RequiresStaff        bool
}

// Route is a named navigation target with its access requirements.
type Route struct {
	Name        string
	Path        string
	Requirement Requirement
}

// Route names referenced across the client.
const (
	RouteHome                 = "home"
	RouteLogin                = "login"
	RouteRegister             = "register"
	RouteVerify               = "verify"
	RouteEmailConfirmation    = "email-confirmation"
	RouteCodeCheck            = "code-check"
	RoutePasswordForgot       = "password-forgot"
	RoutePasswordResetConfirm = "password-reset-confirm"
	RouteEmailLinkError       = "email-link-error"
	RouteAccount              = "account"
	RouteConventions          = "conventions"
	RouteExpenseReports       = "expense-reports"
	RouteAddressList          = "address-list"
	RouteRecruiters           = "recruiters"
)

// DefaultRoutes returns the portal's navigation surface.
func DefaultRoutes() []Route {
	return []Route{
		{Name: RouteHome, Path: "/", Requirement: Requirement{RequiresAuth: true}},
		{Name: RouteLogin, Path: "/login"},
		{Name: RouteRegister, Path: "/register", Requirement: Requirement{RequiresVerification: true}},
		{Name: RouteVerify, Path: "/verify"},
		{Name: RouteEmailConfirmation, Path: "/email-confirmation"},
		{Name: RouteCodeCheck, Path: "/code-check"},
		{Name: RoutePasswordForgot, Path: "/password-forgot"},
		{Name: RoutePasswordResetConfirm, Path: "/password-reset-confirm/:uid/:token"},
		{Name: RouteEmailLinkError, Path: "/email-link-error"},
		{Name: RouteAccount, Path: "/account", Requirement: Requirement{RequiresAuth: true}},
		{Name: RouteConventions, Path: "/conventions", Requirement: Requirement{
			RequiresAuth:   true,
			RequiresMember: true,
		}},
		{Name: RouteExpenseReports, Path: "/expense-reports", Requirement: Requirement{
			RequiresAuth:  true,
			RequiresRoles: []users.RoleType{users.RoleHQStaff, users.RoleHQFinance, users.RoleHQAdmin},
		}},
		{Name: RouteAddressList, Path: "/address-list", Requirement: Requirement{
			RequiresAuth:  true,
			RequiresRoles: []users.RoleType{users.RoleOfficial, users.RoleHQStaff, users.RoleHQAdmin},
		}},
		{Name: RouteRecruiters, Path: "/recruiters", Requirement: Requirement{
			RequiresAuth:  true,
			RequiresRoles: []users.RoleType{users.RoleHQStaff, users.RoleHQAdmin},
		}},
	}
}
