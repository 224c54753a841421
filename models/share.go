package models

import "time"

const (
	ShareAudienceFamily     = "FAMILY"
	ShareAudienceGeneration = "GENERATION"
	ShareAudienceExternal   = "EXTERNAL"
)

type Share struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ContentID uint      `json:"contentId" gorm:"not null;index"`
	UserID    uint      `json:"userId" gorm:"not null;index"`
	Audience  string    `json:"audience" gorm:"type:varchar(20);not null;default:'FAMILY'"`
	Message   string    `json:"message" gorm:"type:text"`
	CreatedAt time.Time `json:"createdAt"`
}
