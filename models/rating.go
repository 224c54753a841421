package models

import "time"

// Rating is a 1-5 star rating with an optional short review. One rating per
// user per content, enforced by the composite unique index.
type Rating struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ContentID uint      `json:"contentId" gorm:"not null;uniqueIndex:idx_ratings_pair;index"`
	UserID    uint      `json:"userId" gorm:"not null;uniqueIndex:idx_ratings_pair"`
	Score     int       `json:"score" gorm:"not null"`
	Review    string    `json:"review" gorm:"type:text"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
