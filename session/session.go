// Package session owns the client-side authentication lifecycle for the
// membership portal: the session state, the remote calls that mutate it, and
// the persistence that lets a new process pick up where the last one left off.
package session

import "github.com/simhq/go-portal-client/users"

// Session is the authenticated identity as the client currently knows it.
// IsAuthenticated true implies User is non-nil; the pair is persisted and
// restored together. ServerMessage is the last human-readable status string
// from the backend and is never persisted.
type Session struct {
	User            *users.User
	IsAuthenticated bool
	ServerMessage   string
}

// Result is the structured outcome of the password reset operations, which
// report failure as data rather than as an error.
type Result struct {
	Success bool
	Message string
}

// Chapter is one entry of the portal's chapter roster.
type Chapter struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}
