package model

import "time"

// Message is one recorded chat turn. SessionID is the opaque session id used
// by the HTTP API; UserID is zero for anonymous callers.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID string    `gorm:"size:64;not null;index" json:"session_id"`
	UserID    uint      `gorm:"not null;default:0;index" json:"user_id"`
	Role      string    `gorm:"size:16;not null" json:"role"`
	Kind      string    `gorm:"size:32;not null" json:"kind"`
	Provider  string    `gorm:"size:32" json:"provider,omitempty"`
	Degraded  bool      `gorm:"not null;default:false" json:"degraded"`
	Content   string    `gorm:"type:mediumtext;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
