package users

// MemberProfile holds the membership record linked to a portal account.
// It mirrors the HQ member database row the backend joins onto the user.
type MemberProfile struct {
	MemberID      int    `json:"member_id,omitempty"`      // HQ member identifier
	FirstName     string `json:"first_name,omitempty"`     // First name of the member
	MiddleName    string `json:"middle_name,omitempty"`    // Middle name of the member
	LastName      string `json:"last_name,omitempty"`      // Last name of the member
	PreferredName string `json:"preferred_name,omitempty"` // Preferred name, if set
	Chapter       string `json:"chapter,omitempty"`        // Chapter code the member initiated with
	ClassYear     string `json:"class_year,omitempty"`     // Initiation class year
}

// User is the portal account as returned by the backend's /user endpoint.
type User struct {
	ID       string         `json:"id,omitempty"`        // Unique identifier for the user
	Username string         `json:"username,omitempty"`  // Unique username (the backend aliases this to email)
	Email    string         `json:"email,omitempty"`     // Primary email address
	AltEmail string         `json:"alt_email,omitempty"` // Alternate email address
	Role     RoleType       `json:"role,omitempty"`      // Portal role, see roles.go
	Member   *MemberProfile `json:"member,omitempty"`    // Linked member record, nil for non-members
}

// HasRole checks whether the user carries the given role.
func (u *User) HasRole(role RoleType) bool {
	if u == nil {
		return false
	}
	return u.Role == role
}

// HasAnyRole checks whether the user's role intersects the given set.
// An empty required set never matches.
func (u *User) HasAnyRole(roles ...RoleType) bool {
	if u == nil {
		return false
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// DisplayName returns the name to show in UI surfaces, falling back to the
// email address when no member record is linked.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Member != nil {
		if u.Member.PreferredName != "" {
			return u.Member.PreferredName + " " + u.Member.LastName
		}
		if u.Member.FirstName != "" {
			return u.Member.FirstName + " " + u.Member.LastName
		}
	}
	return u.Email
}
