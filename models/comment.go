package models

import (
	"time"

	"github.com/lib/pq"
)

// Visibility axis. ACTIVE is the only state in which a comment can be shown;
// the other three are terminal.
const (
	CommentStatusActive   = "ACTIVE"
	CommentStatusHidden   = "HIDDEN"
	CommentStatusDeleted  = "DELETED"
	CommentStatusArchived = "ARCHIVED"
)

// Moderation axis. FLAGGED can only be left through a moderation decision.
const (
	ModerationPending      = "PENDING"
	ModerationApproved     = "APPROVED"
	ModerationAutoApproved = "AUTO_APPROVED"
	ModerationRejected     = "REJECTED"
	ModerationFlagged      = "FLAGGED"
)

const MaxCommentLength = 5000

type Comment struct {
	ID               uint           `json:"id" gorm:"primaryKey"`
	ContentID        uint           `json:"contentId" gorm:"not null;index"`
	UserID           uint           `json:"userId" gorm:"not null;index"`
	ParentCommentID  *uint          `json:"parentCommentId" gorm:"index"` // nil for top-level comments
	Body             string         `json:"body" gorm:"type:text;not null"`
	Mentions         pq.StringArray `json:"mentions" gorm:"type:text[]"`
	Hashtags         pq.StringArray `json:"hashtags" gorm:"type:text[]"`
	MediaURLs        pq.StringArray `json:"mediaUrls" gorm:"type:text[]"`
	IsEdited         bool           `json:"isEdited" gorm:"default:false"`
	EditCount        int            `json:"editCount" gorm:"default:0"`
	Status           string         `json:"status" gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	ModerationStatus string         `json:"moderationStatus" gorm:"type:varchar(20);not null;default:'PENDING';index"`
	ReplyCount       int            `json:"replyCount" gorm:"default:0"`
	LikeCount        int            `json:"likeCount" gorm:"default:0"`
	ReactionCount    int            `json:"reactionCount" gorm:"default:0"`
	GenerationLevel  int            `json:"generationLevel" gorm:"default:0;index"`
	FamilyID         uint           `json:"familyId" gorm:"index"`
	FamilyContext    string         `json:"familyContext" gorm:"type:text"`
	RelationContext  string         `json:"relationshipContext" gorm:"type:text"`
	CulturalContext  string         `json:"culturalContext" gorm:"type:text"`
	SentimentScore   *float64       `json:"sentimentScore"` // advisory, computed by the analytics service
	Language         string         `json:"language" gorm:"type:varchar(10)"`
	IsAnonymous      bool           `json:"isAnonymous" gorm:"default:false"`
	IsPrivate        bool           `json:"isPrivate" gorm:"default:false"`
	Edits            []CommentEdit  `json:"edits,omitempty" gorm:"foreignKey:CommentID"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

func (c *Comment) IsReply() bool {
	return c.ParentCommentID != nil
}

// IsVisible reports whether the comment may be shown to a regular viewer.
func (c *Comment) IsVisible() bool {
	return c.Status == CommentStatusActive &&
		(c.ModerationStatus == ModerationApproved || c.ModerationStatus == ModerationAutoApproved)
}

// ModerationVisible reports whether the comment passed moderation, ignoring
// the visibility axis. A DELETED comment that passed moderation is still
// rendered in threads as a placeholder so its replies stay attached.
func (c *Comment) ModerationVisible() bool {
	return c.ModerationStatus == ModerationApproved || c.ModerationStatus == ModerationAutoApproved
}

// CommentEdit is one entry of a comment's append-only edit history.
type CommentEdit struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	CommentID    uint      `json:"commentId" gorm:"not null;index"`
	EditorID     uint      `json:"editorId" gorm:"not null"`
	PreviousBody string    `json:"previousBody" gorm:"type:text;not null"`
	Reason       string    `json:"reason" gorm:"type:varchar(255)"`
	CreatedAt    time.Time `json:"createdAt"`
}

type CommentLike struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CommentID uint      `json:"commentId" gorm:"not null;uniqueIndex:idx_comment_likes_pair"`
	UserID    uint      `json:"userId" gorm:"not null;uniqueIndex:idx_comment_likes_pair"`
	CreatedAt time.Time `json:"createdAt"`
}

// CommentFlagRecord keeps an audit trail of who flagged a comment and why.
// Flagging also forces the comment's ModerationStatus to FLAGGED.
type CommentFlagRecord struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CommentID uint      `json:"commentId" gorm:"not null;index"`
	UserID    uint      `json:"userId" gorm:"not null"`
	Reason    string    `json:"reason" gorm:"type:varchar(255);not null"`
	Resolved  bool      `json:"resolved" gorm:"default:false;index"`
	CreatedAt time.Time `json:"createdAt"`
}
