// Package gate guards the admin editor with a single shared secret.
//
// This is a UI gate, not access control. Whoever knows the secret gets
// the capability; there is no identity, session or revocation, and the
// store itself performs no authorization. Putting real authorization in
// front of the editor needs a server-enforced check outside this package.
package gate

import (
	"crypto/subtle"
	"errors"
	"time"
)

var ErrDenied = errors.New("invalid admin secret")

// Capability proves a successful Unlock. The zero value is not valid.
type Capability struct {
	grantedAt time.Time
}

func (c Capability) Valid() bool {
	return !c.grantedAt.IsZero()
}

func (c Capability) GrantedAt() time.Time {
	return c.grantedAt
}

type Gate struct {
	secret []byte
	now    func() time.Time
}

func New(secret string) *Gate {
	return &Gate{secret: []byte(secret), now: time.Now}
}

// Unlock compares input with the shared secret. An unconfigured gate
// never unlocks.
func (g *Gate) Unlock(input string) (Capability, error) {
	if len(g.secret) == 0 || input == "" {
		return Capability{}, ErrDenied
	}
	if subtle.ConstantTimeCompare(g.secret, []byte(input)) != 1 {
		return Capability{}, ErrDenied
	}
	return Capability{grantedAt: g.now().UTC()}, nil
}
