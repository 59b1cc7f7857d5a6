package model

import "time"

// SourceRecord is the durable summary of an ingested source, kept after the
// session entry itself has expired.
type SourceRecord struct {
	SessionID string    `bson:"_id" json:"session_id"`
	Type      string    `bson:"type" json:"type"`
	Name      string    `bson:"name,omitempty" json:"name,omitempty"`
	MimeType  string    `bson:"mime_type,omitempty" json:"mime_type,omitempty"`
	Chars     int       `bson:"chars" json:"chars"`
	Preview   string    `bson:"preview" json:"preview"`
	UserID    uint      `bson:"user_id,omitempty" json:"user_id,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
