package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"prompt-polish-be/internal/entity"
)

// OwnedBy filters sessions and turns by their owning identity. This is the
// only access-control boundary for sessions: a lookup that presents the wrong
// identity sees nothing, indistinguishable from not-found.
type OwnedBy struct {
	Owner entity.Identity
}

func (s OwnedBy) Apply(db *gorm.DB) *gorm.DB {
	if userID, ok := s.Owner.UserID(); ok {
		return db.Where("user_owner_id = ?", userID)
	}
	if anonID, ok := s.Owner.AnonID(); ok {
		return db.Where("anon_owner_id = ?", anonID)
	}
	// Zero identity matches nothing rather than everything.
	return db.Where("1 = 0")
}

type BySessionID struct {
	SessionID uuid.UUID
}

func (s BySessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}
