package models

import (
	"time"
)

// Post is a titled entry with an optional image stored in the upload directory.
// Image holds the bare filename, never a path.
type Post struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Image       *string   `gorm:"size:255" json:"image"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasImage reports whether the post references a stored image file.
func (p *Post) HasImage() bool {
	return p != nil && p.Image != nil && *p.Image != ""
}
