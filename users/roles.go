package users

// RoleType represents a portal role as reported by the backend user contract.
type RoleType string

const (
	RoleNonMember         RoleType = "non-member"
	RoleCollegiate        RoleType = "collegiate"
	RoleAlumni            RoleType = "alumni"
	RoleOfficial          RoleType = "official"
	RoleMember            RoleType = "member"
	RoleCollegiateOfficer RoleType = "collegiate_officer"

	// HQ roles
	RoleHQStaff           RoleType = "hq_staff"
	RoleHQIT              RoleType = "hq_it"
	RoleHQFinance         RoleType = "hq_finance"
	RoleHQChapterServices RoleType = "hq_chapter_services"
	RoleHQAdmin           RoleType = "hq_admin"
)

// RoleSet is an unordered set of roles.
type RoleSet map[RoleType]struct{}

// NewRoleSet builds a RoleSet from the given roles.
func NewRoleSet(roles ...RoleType) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// Contains reports whether the role is in the set.
func (s RoleSet) Contains(role RoleType) bool {
	_, ok := s[role]
	return ok
}

// Taxonomy groups roles into the access classes the route guard checks.
// The backend's role contract has drifted over time, so the groupings are
// configuration rather than hardcoded predicates.
type Taxonomy struct {
	Member RoleSet // roles granted generic member access
	Staff  RoleSet // roles granted HQ staff access
}

// DefaultTaxonomy returns the role groupings matching the backend's current
// role contract.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		Member: NewRoleSet(
			RoleMember,
			RoleCollegiate,
			RoleAlumni,
			RoleOfficial,
			RoleCollegiateOfficer,
		),
		Staff: NewRoleSet(
			RoleHQStaff,
			RoleHQIT,
			RoleHQFinance,
			RoleHQChapterServices,
			RoleHQAdmin,
		),
	}
}

// IsMember reports whether the role grants generic member access.
func (t Taxonomy) IsMember(role RoleType) bool {
	return t.Member.Contains(role)
}

// IsStaff reports whether the role grants HQ staff access.
func (t Taxonomy) IsStaff(role RoleType) bool {
	return t.Staff.Contains(role)
}
