package handler

import (
	"errors"
	"net/http"
	"strings"
)

var ErrUnauthorized = errors.New("unauthorized")

// Authorizer resolves the authenticated user behind a request. The pipeline
// reads it once per request.
type Authorizer interface {
	CurrentUserID(r *http.Request) (string, error)
}

// TokenAuthorizer maps static bearer tokens to user ids. Session handling
// lives elsewhere; this is the boundary the pipeline needs.
type TokenAuthorizer struct {
	tokens map[string]string
}

func NewTokenAuthorizer(tokens map[string]string) *TokenAuthorizer {
	return &TokenAuthorizer{tokens: tokens}
}

func (a *TokenAuthorizer) CurrentUserID(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", ErrUnauthorized
	}
	userID, ok := a.tokens[token]
	if !ok {
		return "", ErrUnauthorized
	}

	return userID, nil
}
