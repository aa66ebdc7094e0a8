package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// ArticleVersion is a snapshot taken on a persisted save.
type ArticleVersion struct {
	ID            uint      `json:"id" gorm:"primarykey"`
	ArticleID     string    `json:"article_id" gorm:"type:uuid;not null;index"`
	VersionNumber int       `json:"version_number" gorm:"not null"`
	Title         string    `json:"title"`
	Content       string    `json:"content" gorm:"type:text"`
	ContentHash   string    `json:"content_hash" gorm:"size:64"`
	SavedAt       time.Time `json:"saved_at"`
	CreatedAt     time.Time `json:"created_at"`
}

func ContentHash(title, content string) string {
	sum := sha256.Sum256([]byte(title + "\x00" + content))
	return hex.EncodeToString(sum[:])
}
