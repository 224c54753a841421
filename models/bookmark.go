package models

import "time"

// Bookmark marks content saved by a user, optionally into a named
// collection. One bookmark per user per content; saving again toggles.
type Bookmark struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	ContentID  uint      `json:"contentId" gorm:"not null;uniqueIndex:idx_bookmarks_pair;index"`
	UserID     uint      `json:"userId" gorm:"not null;uniqueIndex:idx_bookmarks_pair;index"`
	Collection string    `json:"collection" gorm:"type:varchar(100)"`
	CreatedAt  time.Time `json:"createdAt"`
}
