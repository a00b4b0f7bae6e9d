// Package identity supplies the actor for every engine call. The engine
// trusts the provider and never reads ambient user state itself.
package identity

import (
	"errors"
	"net/http"
	"strings"
)

// Actor is the authenticated user on whose behalf an engine operation runs.
type Actor struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// ErrNoActor is returned when a request carries no usable identity.
var ErrNoActor = errors.New("no actor identity on request")

// Provider resolves the current actor from an incoming request.
type Provider interface {
	CurrentUser(r *http.Request) (Actor, error)
}

// HeaderProvider reads the actor from trusted gateway headers. Role
// resolution happens upstream; this service only consumes the result.
type HeaderProvider struct {
	EmailHeader string
	RoleHeader  string
}

// NewHeaderProvider creates a provider with the default header names.
func NewHeaderProvider() *HeaderProvider {
	return &HeaderProvider{
		EmailHeader: "X-User-Email",
		RoleHeader:  "X-User-Role",
	}
}

// CurrentUser extracts the actor from request headers.
func (p *HeaderProvider) CurrentUser(r *http.Request) (Actor, error) {
	email := strings.TrimSpace(r.Header.Get(p.EmailHeader))
	role := strings.TrimSpace(r.Header.Get(p.RoleHeader))
	if email == "" || role == "" {
		return Actor{}, ErrNoActor
	}
	return Actor{Email: email, Role: role}, nil
}
