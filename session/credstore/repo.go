// Package credstore persists the minimal session fact across process
// restarts: who the user is and whether they are authenticated. Nothing else
// is stored here; server messages and verification state are deliberately
// process-local.
package credstore

import "github.com/simhq/go-portal-client/users"

// State is the persisted slice of the session.
type State struct {
	User            *users.User `json:"user"`
	IsAuthenticated bool        `json:"isAuthenticated"`
}

// Repo defines the interface for credential persistence.
//
// Load never fails from the caller's point of view: missing or malformed
// persisted data degrades to the zero State ("act as logged out").
type Repo interface {
	// Load returns the last persisted state, or the zero State
	Load() State

	// Save durably overwrites the persisted state
	Save(state State) error
}
