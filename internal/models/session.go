package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session is the server-side record behind a bearer token. Only the SHA-256
// hash of the token is stored.
type Session struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"userId"`
	TokenHash string    `gorm:"uniqueIndex;not null;size:64" json:"-"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expiresAt"`
	UserAgent string    `gorm:"size:255" json:"userAgent,omitempty"`
	IPAddress string    `gorm:"size:64" json:"ipAddress,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	User      *User     `gorm:"foreignKey:UserID" json:"-"`
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Live reports whether the session has not yet expired at now.
func (s *Session) Live(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}
