// Package auth resolves the current user of a request and carries it
// through context.Context. Authentication itself happens upstream (an
// identity-aware proxy); this package only trusts what that proxy asserts.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// ErrUnauthenticated means no user could be resolved for the request.
var ErrUnauthenticated = errors.New("unauthenticated")

// User is the authenticated principal. ID is the owner key for records.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// Name returns the best human-readable label for u.
func (u User) Name() string {
	switch {
	case u.DisplayName != "":
		return u.DisplayName
	case u.Email != "":
		if at := strings.IndexByte(u.Email, '@'); at > 0 {
			return u.Email[:at]
		}
		return u.Email
	default:
		return u.ID
	}
}

// Resolver yields the user behind a request or ErrUnauthenticated.
type Resolver interface {
	CurrentUser(r *http.Request) (User, error)
}

// Identity headers set by the authenticating proxy.
const (
	HeaderUser     = "X-Forwarded-User"
	HeaderEmail    = "X-Forwarded-Email"
	HeaderUsername = "X-Forwarded-Preferred-Username"
)

// HeaderResolver reads identity headers. When Fallback has an ID it is used
// for requests without headers, which is how local development runs.
type HeaderResolver struct {
	Fallback User
}

func (h HeaderResolver) CurrentUser(r *http.Request) (User, error) {
	u := User{
		ID:          strings.TrimSpace(r.Header.Get(HeaderUser)),
		Email:       strings.TrimSpace(r.Header.Get(HeaderEmail)),
		DisplayName: strings.TrimSpace(r.Header.Get(HeaderUsername)),
	}
	if u.ID == "" {
		u.ID = u.Email
	}
	if u.ID != "" {
		return u, nil
	}
	if h.Fallback.ID != "" {
		return h.Fallback, nil
	}
	return User{}, ErrUnauthenticated
}

type contextKey struct{}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// FromContext returns the user stored by WithUser.
func FromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(contextKey{}).(User)
	return u, ok && u.ID != ""
}
