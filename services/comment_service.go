package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/legacykeep/interaction-service/models"
)

// Thread traversal bounds. Threads deeper than maxThreadDepth or larger
// than maxThreadNodes are cut off rather than loaded whole.
const (
	maxThreadDepth = 10
	maxThreadNodes = 2000
)

const deletedPlaceholderBody = "[deleted]"

// CommentService owns comment creation, editing with history, soft
// deletion, moderation transitions, flagging, likes and thread
// materialization. Every mutation runs in a single transaction together
// with its denormalized counter updates and emits an event after commit.
type CommentService struct {
	db     *gorm.DB
	events *EventService
	logger *zap.Logger
}

func NewCommentService(db *gorm.DB, events *EventService, logger *zap.Logger) *CommentService {
	return &CommentService{db: db, events: events, logger: logger}
}

type CreateCommentInput struct {
	ContentID       uint
	ParentCommentID *uint
	Body            string
	Mentions        []string
	Hashtags        []string
	MediaURLs       []string
	GenerationLevel int
	FamilyID        uint
	FamilyContext   string
	RelationContext string
	CulturalContext string
	Language        string
	IsAnonymous     bool
	IsPrivate       bool
}

// Create inserts a new comment and, for replies, increments the parent's
// reply counter in the same transaction. Moderator comments are
// auto-approved; everything else starts PENDING.
func (s *CommentService) Create(ctx context.Context, actor Actor, in CreateCommentInput) (*models.Comment, error) {
	body := strings.TrimSpace(in.Body)
	if body == "" {
		return nil, &ValidationError{Field: "body", Reason: "must not be empty"}
	}
	if len(body) > models.MaxCommentLength {
		return nil, &ValidationError{Field: "body", Reason: fmt.Sprintf("exceeds %d characters", models.MaxCommentLength)}
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	if in.ParentCommentID != nil {
		var parent models.Comment
		if err := tx.First(&parent, *in.ParentCommentID).Error; err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("parent comment %d: %w", *in.ParentCommentID, ErrNotFound)
			}
			return nil, err
		}
	}

	moderation := models.ModerationPending
	if actor.Moderator {
		moderation = models.ModerationAutoApproved
	}

	comment := models.Comment{
		ContentID:        in.ContentID,
		UserID:           actor.ID,
		ParentCommentID:  in.ParentCommentID,
		Body:             body,
		Mentions:         in.Mentions,
		Hashtags:         in.Hashtags,
		MediaURLs:        in.MediaURLs,
		Status:           models.CommentStatusActive,
		ModerationStatus: moderation,
		GenerationLevel:  in.GenerationLevel,
		FamilyID:         in.FamilyID,
		FamilyContext:    in.FamilyContext,
		RelationContext:  in.RelationContext,
		CulturalContext:  in.CulturalContext,
		Language:         in.Language,
		IsAnonymous:      in.IsAnonymous,
		IsPrivate:        in.IsPrivate,
	}

	if err := tx.Create(&comment).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if in.ParentCommentID != nil {
		if err := tx.Model(&models.Comment{}).
			Where("id = ?", *in.ParentCommentID).
			UpdateColumn("reply_count", gorm.Expr("reply_count + ?", 1)).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	event := models.NewInteractionEvent(models.EventCommentCreated, actor.ID, comment.ContentID, "comment").
		WithFamily(comment.FamilyID).
		WithPayload("commentId", comment.ID).
		WithPayload("isReply", comment.IsReply())
	if comment.ParentCommentID != nil {
		event.WithPayload("parentCommentId", *comment.ParentCommentID)
	}
	s.events.Emit(ctx, event)

	return &comment, nil
}

// Edit replaces the comment body, appending the prior text to the edit
// history. Only the original author may edit.
func (s *CommentService) Edit(ctx context.Context, actor Actor, commentID uint, newBody, reason string) (*models.Comment, error) {
	body := strings.TrimSpace(newBody)
	if body == "" {
		return nil, &ValidationError{Field: "body", Reason: "must not be empty"}
	}
	if len(body) > models.MaxCommentLength {
		return nil, &ValidationError{Field: "body", Reason: fmt.Sprintf("exceeds %d characters", models.MaxCommentLength)}
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	var comment models.Comment
	if err := tx.First(&comment, commentID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("comment %d: %w", commentID, ErrNotFound)
		}
		return nil, err
	}

	if comment.UserID != actor.ID {
		tx.Rollback()
		return nil, fmt.Errorf("only the author may edit: %w", ErrForbidden)
	}

	edit := models.CommentEdit{
		CommentID:    comment.ID,
		EditorID:     actor.ID,
		PreviousBody: comment.Body,
		Reason:       reason,
	}
	if err := tx.Create(&edit).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	comment.Body = body
	comment.EditCount++
	comment.IsEdited = true
	if err := tx.Model(&models.Comment{}).Where("id = ?", comment.ID).Updates(map[string]interface{}{
		"body":       comment.Body,
		"edit_count": comment.EditCount,
		"is_edited":  true,
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	s.events.Emit(ctx, models.NewInteractionEvent(models.EventCommentUpdated, actor.ID, comment.ContentID, "comment").
		WithFamily(comment.FamilyID).
		WithPayload("commentId", comment.ID).
		WithPayload("editCount", comment.EditCount))

	return &comment, nil
}

// SoftDelete marks the comment DELETED while retaining the row for audit
// and so existing replies stay addressable. Author or moderator only.
func (s *CommentService) SoftDelete(ctx context.Context, actor Actor, commentID uint) error {
	var comment models.Comment
	if err := s.db.WithContext(ctx).First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("comment %d: %w", commentID, ErrNotFound)
		}
		return err
	}

	if comment.UserID != actor.ID && !actor.Moderator {
		return fmt.Errorf("only the author or a moderator may delete: %w", ErrForbidden)
	}

	if comment.Status == models.CommentStatusDeleted {
		return nil
	}

	if err := s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ?", comment.ID).
		UpdateColumn("status", models.CommentStatusDeleted).Error; err != nil {
		return err
	}

	s.events.Emit(ctx, models.NewInteractionEvent(models.EventCommentDeleted, actor.ID, comment.ContentID, "comment").
		WithFamily(comment.FamilyID).
		WithPayload("commentId", comment.ID))

	return nil
}

// Moderate applies an APPROVED or REJECTED decision. Decisions are only
// valid from PENDING or FLAGGED; once decided, a comment re-enters
// moderation solely through a flag.
func (s *CommentService) Moderate(ctx context.Context, actor Actor, commentID uint, decision, reason string) (*models.Comment, error) {
	if !actor.Moderator {
		return nil, fmt.Errorf("moderation requires a moderator role: %w", ErrForbidden)
	}
	if decision != models.ModerationApproved && decision != models.ModerationRejected {
		return nil, &ValidationError{Field: "decision", Reason: "must be APPROVED or REJECTED"}
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	var comment models.Comment
	if err := tx.First(&comment, commentID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("comment %d: %w", commentID, ErrNotFound)
		}
		return nil, err
	}

	if comment.ModerationStatus != models.ModerationPending && comment.ModerationStatus != models.ModerationFlagged {
		tx.Rollback()
		return nil, fmt.Errorf("comment %d already moderated as %s: %w", commentID, comment.ModerationStatus, ErrConflict)
	}

	previous := comment.ModerationStatus
	comment.ModerationStatus = decision
	if err := tx.Model(&models.Comment{}).
		Where("id = ?", comment.ID).
		UpdateColumn("moderation_status", decision).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if previous == models.ModerationFlagged {
		if err := tx.Model(&models.CommentFlagRecord{}).
			Where("comment_id = ? AND resolved = ?", comment.ID, false).
			UpdateColumn("resolved", true).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	s.events.Emit(ctx, models.NewInteractionEvent(models.EventCommentModerated, actor.ID, comment.ContentID, "comment").
		WithFamily(comment.FamilyID).
		WithPayload("commentId", comment.ID).
		WithPayload("decision", decision).
		WithPayload("previousStatus", previous).
		WithPayload("reason", reason).
		HighPriority())

	return &comment, nil
}

// Flag forces the comment into FLAGGED regardless of any prior approval and
// records an audit row for the flag.
func (s *CommentService) Flag(ctx context.Context, actor Actor, commentID uint, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return &ValidationError{Field: "reason", Reason: "must not be empty"}
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	var comment models.Comment
	if err := tx.First(&comment, commentID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("comment %d: %w", commentID, ErrNotFound)
		}
		return err
	}

	record := models.CommentFlagRecord{
		CommentID: comment.ID,
		UserID:    actor.ID,
		Reason:    reason,
	}
	if err := tx.Create(&record).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Model(&models.Comment{}).
		Where("id = ?", comment.ID).
		UpdateColumn("moderation_status", models.ModerationFlagged).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	s.events.Emit(ctx, models.NewInteractionEvent(models.EventCommentFlagged, actor.ID, comment.ContentID, "comment").
		WithFamily(comment.FamilyID).
		WithPayload("commentId", comment.ID).
		WithPayload("reason", reason).
		HighPriority())

	return nil
}

// ToggleLike likes the comment, or removes the actor's existing like. The
// like row and the denormalized like counter change in one transaction.
func (s *CommentService) ToggleLike(ctx context.Context, actor Actor, commentID uint) (bool, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return false, tx.Error
	}

	var comment models.Comment
	if err := tx.First(&comment, commentID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, fmt.Errorf("comment %d: %w", commentID, ErrNotFound)
		}
		return false, err
	}

	var existing models.CommentLike
	err := tx.Where("comment_id = ? AND user_id = ?", commentID, actor.ID).First(&existing).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		like := models.CommentLike{CommentID: commentID, UserID: actor.ID}
		if err := tx.Create(&like).Error; err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Concurrent like for the same pair; the row exists, done.
				return true, nil
			}
			return false, err
		}
		if err := tx.Model(&models.Comment{}).
			Where("id = ?", commentID).
			UpdateColumn("like_count", gorm.Expr("like_count + ?", 1)).Error; err != nil {
			tx.Rollback()
			return false, err
		}
		if err := tx.Commit().Error; err != nil {
			return false, err
		}

		s.events.Emit(ctx, models.NewInteractionEvent(models.EventCommentLiked, actor.ID, comment.ContentID, "comment_like").
			WithFamily(comment.FamilyID).
			WithPayload("commentId", commentID))
		return true, nil

	case err != nil:
		tx.Rollback()
		return false, err

	default:
		if err := tx.Delete(&existing).Error; err != nil {
			tx.Rollback()
			return false, err
		}
		// The like row existed, so the counter is at least one.
		if err := tx.Model(&models.Comment{}).
			Where("id = ? AND like_count > 0", commentID).
			UpdateColumn("like_count", gorm.Expr("like_count - ?", 1)).Error; err != nil {
			tx.Rollback()
			return false, err
		}
		if err := tx.Commit().Error; err != nil {
			return false, err
		}

		s.events.Emit(ctx, models.NewInteractionEvent(models.EventCommentUnliked, actor.ID, comment.ContentID, "comment_like").
			WithFamily(comment.FamilyID).
			WithPayload("commentId", commentID))
		return false, nil
	}
}

// ThreadNode is one rendered node of a comment thread. Deleted is set when
// the underlying comment was soft-deleted and its body masked; its replies
// remain attached.
type ThreadNode struct {
	Comment *models.Comment `json:"comment"`
	Deleted bool            `json:"deleted,omitempty"`
	Replies []*ThreadNode   `json:"replies"`
}

// FetchThread materializes the reply tree under one comment by expanding
// the parent index breadth-first, level by level, loading only the
// requested comment's descendant set. Siblings order by creation time
// ascending. For non-moderator viewers a node that failed moderation is
// omitted and its children spliced up to the nearest rendered ancestor;
// soft-deleted nodes that passed moderation render as masked placeholders.
func (s *CommentService) FetchThread(ctx context.Context, viewer Actor, commentID uint) (*ThreadNode, error) {
	var root models.Comment
	if err := s.db.WithContext(ctx).First(&root, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("comment %d: %w", commentID, ErrNotFound)
		}
		return nil, err
	}

	if !viewer.Moderator && !threadRenderable(&root) {
		return nil, fmt.Errorf("comment %d: %w", commentID, ErrNotFound)
	}

	rootNode := s.renderNode(&root, viewer)
	// anchors maps every traversed comment to the node its children attach
	// to: the comment's own node when rendered, otherwise the nearest
	// rendered ancestor.
	anchors := map[uint]*ThreadNode{root.ID: rootNode}
	frontier := []uint{root.ID}
	total := 1

	for depth := 0; depth < maxThreadDepth && len(frontier) > 0 && total < maxThreadNodes; depth++ {
		var children []models.Comment
		if err := s.db.WithContext(ctx).
			Where("parent_comment_id IN ?", frontier).
			Order("created_at ASC, id ASC").
			Find(&children).Error; err != nil {
			return nil, err
		}

		next := make([]uint, 0, len(children))
		for i := range children {
			child := &children[i]
			anchor := anchors[*child.ParentCommentID]
			if anchor == nil {
				continue
			}

			if total >= maxThreadNodes {
				break
			}

			if viewer.Moderator || threadRenderable(child) {
				node := s.renderNode(child, viewer)
				anchor.Replies = append(anchor.Replies, node)
				anchors[child.ID] = node
				total++
			} else {
				// Omitted node: descendants splice up to this anchor.
				anchors[child.ID] = anchor
			}
			next = append(next, child.ID)
		}
		frontier = next
	}

	return rootNode, nil
}

// threadRenderable reports whether a regular viewer may see the comment
// inside a thread: approved and either ACTIVE or soft-deleted. Deleted
// nodes render as masked placeholders; HIDDEN and ARCHIVED nodes are
// omitted like moderation failures.
func threadRenderable(c *models.Comment) bool {
	if !c.ModerationVisible() {
		return false
	}
	return c.Status == models.CommentStatusActive || c.Status == models.CommentStatusDeleted
}

// renderNode masks soft-deleted comments for regular viewers while keeping
// the node in place so replies stay attached.
func (s *CommentService) renderNode(comment *models.Comment, viewer Actor) *ThreadNode {
	node := &ThreadNode{Comment: comment, Replies: []*ThreadNode{}}
	if comment.Status == models.CommentStatusDeleted && !viewer.Moderator {
		masked := *comment
		masked.Body = deletedPlaceholderBody
		masked.Mentions = nil
		masked.Hashtags = nil
		masked.MediaURLs = nil
		node.Comment = &masked
		node.Deleted = true
	}
	return node
}

// EditHistory returns the append-only edit log of a comment, oldest first.
func (s *CommentService) EditHistory(ctx context.Context, commentID uint) ([]models.CommentEdit, error) {
	var comment models.Comment
	if err := s.db.WithContext(ctx).First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("comment %d: %w", commentID, ErrNotFound)
		}
		return nil, err
	}

	var edits []models.CommentEdit
	if err := s.db.WithContext(ctx).
		Where("comment_id = ?", commentID).
		Order("created_at ASC, id ASC").
		Find(&edits).Error; err != nil {
		return nil, err
	}
	return edits, nil
}

// ReconcileCounters recomputes the denormalized reply and like counters of
// a comment from their source rows. Used as a fallback when a counter is
// suspected to have drifted.
func (s *CommentService) ReconcileCounters(ctx context.Context, commentID uint) error {
	var replyCount, likeCount int64
	if err := s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("parent_comment_id = ?", commentID).
		Count(&replyCount).Error; err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(&models.CommentLike{}).
		Where("comment_id = ?", commentID).
		Count(&likeCount).Error; err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ?", commentID).
		Updates(map[string]interface{}{
			"reply_count": replyCount,
			"like_count":  likeCount,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("comment %d: %w", commentID, ErrNotFound)
	}
	return nil
}
