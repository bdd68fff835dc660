// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

// Package auth decides whether a webhook caller may trigger a project.
//
// Callers present a named token and its secret, normally in an
// "Authorization: Token <name>:<secret>" header (see [ParseHeader]).
// [Authorize] performs four checks: the project exists, the token
// exists, the secret matches, and the token's access list includes the
// project. Every failure returns the same [ErrForbidden] so a caller
// cannot tell which check failed.
package auth
