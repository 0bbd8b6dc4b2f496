package auth

import (
	"errors"
	"net/http"
	"strings"
)

// ErrMissingToken is returned when a request carries no bearer token.
var ErrMissingToken = errors.New("missing bearer token")

// ExtractToken extracts the Bearer token from the Authorization header.
func ExtractToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingToken
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", errors.New("invalid Authorization header format")
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}
