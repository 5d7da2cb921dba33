package session

import "errors"

var (
	MissingCSRFTokenErr   = errors.New("missing csrf cookie")
	InvalidCredentialsErr = errors.New("invalid credentials")
	CodeRejectedErr       = errors.New("verification code rejected")
	MemberNotFoundErr     = errors.New("no matching member record")
	NotAuthenticatedErr   = errors.New("not authenticated")
	UnexpectedStatusErr   = errors.New("unexpected response status")
)
