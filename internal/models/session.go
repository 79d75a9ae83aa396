package models

import (
	"time"
)

// StaffSession is a persisted login marker. A session is live while it
// exists, is not revoked and has not expired.
type StaffSession struct {
	BaseModel
	StaffID   string    `gorm:"size:64;index" json:"staffId"`
	Payload   string    `gorm:"type:text" json:"-"`
	ExpiresAt time.Time `gorm:"index" json:"expiresAt"`
	IsRevoked bool      `gorm:"default:false" json:"isRevoked"`
}
