package entity

import (
	"github.com/google/uuid"
)

type IdentityKind string

const (
	IdentityAnonymous IdentityKind = "anonymous"
	IdentityUser      IdentityKind = "user"
)

// Identity is the owner of quota counters, sessions and turns. It is a sum
// type: exactly one of the anonymous token or the user id is set, enforced by
// the constructors below. An anonymous identity may later be subsumed into a
// user identity; a user identity never reverts.
type Identity struct {
	kind   IdentityKind
	anonID string
	userID uuid.UUID
}

func AnonymousIdentity(anonID string) Identity {
	return Identity{kind: IdentityAnonymous, anonID: anonID}
}

func UserIdentity(userID uuid.UUID) Identity {
	return Identity{kind: IdentityUser, userID: userID}
}

func (i Identity) Kind() IdentityKind {
	return i.kind
}

func (i Identity) IsZero() bool {
	return i.kind == ""
}

func (i Identity) IsUser() bool {
	return i.kind == IdentityUser
}

// AnonID returns the anonymous token, or false for user identities.
func (i Identity) AnonID() (string, bool) {
	if i.kind != IdentityAnonymous {
		return "", false
	}
	return i.anonID, true
}

// UserID returns the account id, or false for anonymous identities.
func (i Identity) UserID() (uuid.UUID, bool) {
	if i.kind != IdentityUser {
		return uuid.Nil, false
	}
	return i.userID, true
}

// Key returns the string used to namespace quota counters for this identity.
func (i Identity) Key() string {
	if i.kind == IdentityUser {
		return i.userID.String()
	}
	return i.anonID
}
