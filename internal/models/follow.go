package models

import "time"

// Follow is a directed subscription edge from UserID to AuthorID.
type Follow struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_follows_pair" json:"user_id"`
	AuthorID  uint      `gorm:"not null;uniqueIndex:idx_follows_pair;index" json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Follow) TableName() string {
	return "follows"
}
