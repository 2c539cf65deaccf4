package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Session stores ownership as two mutually exclusive nullable columns. The
// entity layer exposes this as a sum type; the mapper enforces that exactly
// one column is populated.
type Session struct {
	Id              uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AnonOwnerId     *string    `gorm:"type:varchar(64);index"`
	UserOwnerId     *uuid.UUID `gorm:"type:uuid;index"`
	Title           string     `gorm:"type:text;not null"`
	SynopsisGoal    string     `gorm:"type:varchar(160)"`
	SynopsisTone    string     `gorm:"type:varchar(160)"`
	SynopsisConstr  string     `gorm:"type:varchar(160);column:synopsis_constraints"`
	SynopsisAud     string     `gorm:"type:varchar(160);column:synopsis_audience"`
	SynopsisStyle   string     `gorm:"type:varchar(160)"`
	SynopsisTodos   datatypes.JSONSlice[string]
	SynopsisVersion int       `gorm:"not null;default:0"`
	LastActivityAt  time.Time `gorm:"not null"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}

func (Session) TableName() string {
	return "sessions"
}
