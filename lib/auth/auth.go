// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/bash/toby/lib/config"
)

// ErrForbidden is the single error returned for every authorization
// failure.
var ErrForbidden = errors.New("forbidden")

// headerScheme prefixes the Authorization header value.
const headerScheme = "Token "

// Authorize returns the matching token when tokenName with secret may
// trigger project, or ErrForbidden.
func Authorize(cfg *config.Config, project, tokenName, secret string) (config.Token, error) {
	if _, ok := cfg.Project(project); !ok {
		return config.Token{}, ErrForbidden
	}
	token, ok := cfg.Token(tokenName)
	if !ok {
		return config.Token{}, ErrForbidden
	}
	if subtle.ConstantTimeCompare([]byte(token.Secret), []byte(secret)) != 1 {
		return config.Token{}, ErrForbidden
	}
	if !token.CanAccess(project) {
		return config.Token{}, ErrForbidden
	}
	return token, nil
}

// ParseHeader splits an Authorization header of the form
// "Token <name>:<secret>". The scheme is case-insensitive; the secret
// may itself contain colons.
func ParseHeader(value string) (name, secret string, ok bool) {
	if len(value) < len(headerScheme) || !strings.EqualFold(value[:len(headerScheme)], headerScheme) {
		return "", "", false
	}
	name, secret, found := strings.Cut(strings.TrimSpace(value[len(headerScheme):]), ":")
	if !found || name == "" || secret == "" {
		return "", "", false
	}
	return name, secret, true
}

// FormatHeader builds the Authorization header value for a token.
func FormatHeader(name, secret string) string {
	return headerScheme + name + ":" + secret
}
