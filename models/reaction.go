package models

import (
	"time"

	"github.com/lib/pq"
)

const (
	MinReactionIntensity = 1
	MaxReactionIntensity = 5
)

// Reaction is a single user's reaction to a piece of content. The composite
// unique index on (content_id, user_id) is the storage-level backstop for
// the one-reaction-per-user-per-content rule; application code treats a
// duplicate-key error on insert as "already exists".
type Reaction struct {
	ID               uint           `json:"id" gorm:"primaryKey"`
	ContentID        uint           `json:"contentId" gorm:"not null;uniqueIndex:idx_reactions_pair;index"`
	UserID           uint           `json:"userId" gorm:"not null;uniqueIndex:idx_reactions_pair;index"`
	Type             string         `json:"type" gorm:"type:varchar(30);not null"`
	Intensity        int            `json:"intensity" gorm:"not null;default:3"`
	GenerationLevel  int            `json:"generationLevel" gorm:"default:0;index"`
	FamilyID         uint           `json:"familyId" gorm:"index"`
	CulturalTags     pq.StringArray `json:"culturalTags" gorm:"type:text[]"`
	FamilyContext    string         `json:"familyContext" gorm:"type:text"`
	RelationContext  string         `json:"relationshipContext" gorm:"type:text"`
	CulturalContext  string         `json:"culturalContext" gorm:"type:text"`
	EmotionalContext string         `json:"emotionalContext" gorm:"type:text"`
	IsAnonymous      bool           `json:"isAnonymous" gorm:"default:false"`
	IsPrivate        bool           `json:"isPrivate" gorm:"default:false"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

func (r *Reaction) IsHighIntensity() bool {
	return r.Intensity >= 4
}

func (r *Reaction) IsLowIntensity() bool {
	return r.Intensity <= 2
}

func (r *Reaction) Category() ReactionCategory {
	if info, ok := LookupReactionType(r.Type); ok {
		return info.Category
	}
	return ""
}
