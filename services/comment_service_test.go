package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/legacykeep/interaction-service/models"
	"github.com/legacykeep/interaction-service/services"
)

func TestCreateComment(t *testing.T) {
	svc, db := newCommentService(t)
	ctx := context.Background()

	comment, err := svc.Create(ctx, member, services.CreateCommentInput{
		ContentID: 10,
		Body:      "hello",
		Hashtags:  []string{"family"},
	})
	require.NoError(t, err)
	assert.NotZero(t, comment.ID)
	assert.Equal(t, models.CommentStatusActive, comment.Status)
	assert.Equal(t, models.ModerationPending, comment.ModerationStatus)
	assert.False(t, comment.IsReply())
	assert.False(t, comment.IsEdited)

	var stored models.Comment
	require.NoError(t, db.First(&stored, comment.ID).Error)
	assert.Equal(t, "hello", stored.Body)
	assert.Equal(t, []string{"family"}, []string(stored.Hashtags))
}

func TestCreateCommentValidation(t *testing.T) {
	svc, _ := newCommentService(t)
	ctx := context.Background()

	var validationErr *services.ValidationError

	_, err := svc.Create(ctx, member, services.CreateCommentInput{ContentID: 10, Body: "   "})
	require.ErrorAs(t, err, &validationErr)

	_, err = svc.Create(ctx, member, services.CreateCommentInput{
		ContentID: 10,
		Body:      strings.Repeat("a", models.MaxCommentLength+1),
	})
	require.ErrorAs(t, err, &validationErr)
}

func TestCreateReplyDanglingParent(t *testing.T) {
	svc, _ := newCommentService(t)

	missing := uint(12345)
	_, err := svc.Create(context.Background(), member, services.CreateCommentInput{
		ContentID:       10,
		ParentCommentID: &missing,
		Body:            "hi",
	})
	require.ErrorIs(t, err, services.ErrNotFound)
}

func TestCreateReplyIncrementsParentCounter(t *testing.T) {
	svc, db := newCommentService(t)
	ctx := context.Background()

	parent, err := svc.Create(ctx, member, services.CreateCommentInput{ContentID: 10, Body: "hello"})
	require.NoError(t, err)

	reply, err := svc.Create(ctx, other, services.CreateCommentInput{
		ContentID:       10,
		ParentCommentID: &parent.ID,
		Body:            "hi",
	})
	require.NoError(t, err)
	require.True(t, reply.IsReply())
	assert.Equal(t, parent.ID, *reply.ParentCommentID)

	var stored models.Comment
	require.NoError(t, db.First(&stored, parent.ID).Error)
	assert.Equal(t, 1, stored.ReplyCount)
}

func TestModeratorCommentsAutoApproved(t *testing.T) {
	svc, _ := newCommentService(t)

	comment, err := svc.Create(context.Background(), moderator, services.CreateCommentInput{ContentID: 10, Body: "hello"})
	require.NoError(t, err)
	assert.Equal(t, models.ModerationAutoApproved, comment.ModerationStatus)
	assert.True(t, comment.IsVisible())
}

func TestEditKeepsHistory(t *testing.T) {
	svc, db := newCommentService(t)
	ctx := context.Background()

	comment, err := svc.Create(ctx, member, services.CreateCommentInput{ContentID: 10, Body: "first"})
	require.NoError(t, err)

	edited, err := svc.Edit(ctx, member, comment.ID, "second", "typo")
	require.NoError(t, err)
	assert.Equal(t, "second", edited.Body)
	assert.Equal(t, 1, edited.EditCount)
	assert.True(t, edited.IsEdited)

	edited, err = svc.Edit(ctx, member, comment.ID, "third", "")
	require.NoError(t, err)
	assert.Equal(t, 2, edited.EditCount)

	history, err := svc.EditHistory(ctx, comment.ID)
	require.NoError(t, err)
	require.Len(t, history, edited.EditCount)
	assert.Equal(t, "first", history[0].PreviousBody)
	assert.Equal(t, "second", history[1].PreviousBody)
	assert.Equal(t, "typo", history[0].Reason)

	var stored models.Comment
	require.NoError(t, db.First(&stored, comment.ID).Error)
	assert.Equal(t, stored.EditCount, len(history))
	assert.Equal(t, stored.IsEdited, stored.EditCount > 0)
}

func TestEditByNonAuthorForbidden(t *testing.T) {
	svc, db := newCommentService(t)
	ctx := context.Background()

	comment, err := svc.Create(ctx, member, services.CreateCommentInput{ContentID: 10, Body: "mine"})
	require.NoError(t, err)

	_, err = svc.Edit(ctx, other, comment.ID, "stolen", "")
	require.ErrorIs(t, err, services.ErrForbidden)

	var stored models.Comment
	require.NoError(t, db.First(&stored, comment.ID).Error)
	assert.Equal(t, "mine", stored.Body)
	assert.Equal(t, 0, stored.EditCount)
	assert.False(t, stored.IsEdited)
}

func TestEditMissingComment(t *testing.T) {
	svc, _ := newCommentService(t)

	_, err := svc.Edit(context.Background(), member, 999, "text", "")
	require.ErrorIs(t, err, services.ErrNotFound)
}

func TestSoftDelete(t *testing.T) {
	svc, db := newCommentService(t)
	ctx := context.Background()

	comment, err := svc.Create(ctx, member, services.CreateCommentInput{ContentID: 10, Body: "gone soon"})
	require.NoError(t, err)

	require.ErrorIs(t, svc.SoftDelete(ctx, other, comment.ID), services.ErrForbidden)
	require.NoError(t, svc.SoftDelete(ctx, member, comment.ID))

	var stored models.Comment
	require.NoError(t, db.First(&stored, comment.ID).Error)
	assert.Equal(t, models.CommentStatusDeleted, stored.Status)
	assert.Equal(t, "gone soon", stored.Body) // retained for audit
	assert.False(t, stored.IsVisible())

	// Idempotent
	require.NoError(t, svc.SoftDelete(ctx, member, comment.ID))
}

func TestModerationStateMachine(t *testing.T) {
	svc, _ := newCommentService(t)
	ctx := context.Background()

	comment, err := svc.Create(ctx, member, services.CreateCommentInput{ContentID: 10, Body: "moderate me"})
	require.NoError(t, err)

	_, err = svc.Moderate(ctx, member, comment.ID, models.ModerationApproved, "")
	require.ErrorIs(t, err, services.ErrForbidden)

	_, err = svc.Moderate(ctx, moderator, comment.ID, "MAYBE", "")
	var validationErr *services.ValidationError
	require.ErrorAs(t, err, &validationErr)

	moderated, err := svc.Moderate(ctx, moderator, comment.ID, models.ModerationRejected, "off topic")
	require.NoError(t, err)
	assert.Equal(t, models.ModerationRejected, moderated.ModerationStatus)

	// A decided comment only re-enters moderation through a flag.
	_, err = svc.Moderate(ctx, moderator, comment.ID, models.ModerationApproved, "")
	require.ErrorIs(t, err, services.ErrConflict)

	require.NoError(t, svc.Flag(ctx, other, comment.ID, "please re-review"))

	moderated, err = svc.Moderate(ctx, moderator, comment.ID, models.ModerationApproved, "fine after all")
	require.NoError(t, err)
	assert.Equal(t, models.ModerationApproved, moderated.ModerationStatus)
	assert.True(t, moderated.IsVisible())
}

func TestFlagPreemptsApproval(t *testing.T) {
	svc, db := newCommentService(t)
	ctx := context.Background()

	comment, err := svc.Create(ctx, moderator, services.CreateCommentInput{ContentID: 10, Body: "approved"})
	require.NoError(t, err)
	require.True(t, comment.IsVisible())

	require.NoError(t, svc.Flag(ctx, other, comment.ID, "inappropriate"))

	var stored models.Comment
	require.NoError(t, db.First(&stored, comment.ID).Error)
	assert.Equal(t, models.ModerationFlagged, stored.ModerationStatus)
	assert.False(t, stored.IsVisible())

	var flags []models.CommentFlagRecord
	require.NoError(t, db.Where("comment_id = ?", comment.ID).Find(&flags).Error)
	require.Len(t, flags, 1)
	assert.Equal(t, "inappropriate", flags[0].Reason)
	assert.False(t, flags[0].Resolved)

	// The moderation decision resolves the open flag.
	_, err = svc.Moderate(ctx, moderator, comment.ID, models.ModerationRejected, "confirmed")
	require.NoError(t, err)
	require.NoError(t, db.Where("comment_id = ?", comment.ID).Find(&flags).Error)
	assert.True(t, flags[0].Resolved)
}

func TestFlagValidation(t *testing.T) {
	svc, _ := newCommentService(t)

	var validationErr *services.ValidationError
	err := svc.Flag(context.Background(), member, 1, "  ")
	require.ErrorAs(t, err, &validationErr)

	err = svc.Flag(context.Background(), member, 999, "spam")
	require.ErrorIs(t, err, services.ErrNotFound)
}

func TestToggleLike(t *testing.T) {
	svc, db := newCommentService(t)
	ctx := context.Background()

	comment, err := svc.Create(ctx, member, services.CreateCommentInput{ContentID: 10, Body: "like me"})
	require.NoError(t, err)

	liked, err := svc.ToggleLike(ctx, other, comment.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	var stored models.Comment
	require.NoError(t, db.First(&stored, comment.ID).Error)
	assert.Equal(t, 1, stored.LikeCount)

	liked, err = svc.ToggleLike(ctx, other, comment.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	require.NoError(t, db.First(&stored, comment.ID).Error)
	assert.Equal(t, 0, stored.LikeCount)

	_, err = svc.ToggleLike(ctx, other, 999)
	require.ErrorIs(t, err, services.ErrNotFound)
}

func TestToggleLikeConcurrentInsert(t *testing.T) {
	svc, db := newCommentService(t)
	ctx := context.Background()

	comment, err := svc.Create(ctx, member, services.CreateCommentInput{ContentID: 10, Body: "like me"})
	require.NoError(t, err)

	liked, err := svc.ToggleLike(ctx, other, comment.ID)
	require.NoError(t, err)
	require.True(t, liked)

	// Hide the existing like from the next read so the insert collides
	// with it, as when two likes for the same pair race.
	hidden := true
	require.NoError(t, db.Callback().Query().Before("gorm:query").Register("hide_like_once", func(d *gorm.DB) {
		if !hidden {
			return
		}
		if _, ok := d.Statement.Dest.(*models.CommentLike); !ok {
			return
		}
		hidden = false
		d.Statement.AddClause(clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "1 = 0"}}})
	}))

	liked, err = svc.ToggleLike(ctx, other, comment.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	var count int64
	require.NoError(t, db.Model(&models.CommentLike{}).Where("comment_id = ?", comment.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	var stored models.Comment
	require.NoError(t, db.First(&stored, comment.ID).Error)
	assert.Equal(t, 1, stored.LikeCount)
}

// approve makes a comment visible so thread assertions exercise the
// filtering rather than the default PENDING state.
func approve(t *testing.T, svc *services.CommentService, commentID uint) {
	t.Helper()
	_, err := svc.Moderate(context.Background(), moderator, commentID, models.ModerationApproved, "")
	require.NoError(t, err)
}

func TestFetchThreadScenario(t *testing.T) {
	svc, _ := newCommentService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, member, services.CreateCommentInput{ContentID: 10, Body: "hello"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, other, services.CreateCommentInput{ContentID: 10, ParentCommentID: &a.ID, Body: "hi"})
	require.NoError(t, err)
	approve(t, svc, a.ID)
	approve(t, svc, b.ID)

	thread, err := svc.FetchThread(ctx, services.Actor{ID: 3}, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, thread.Comment.ID)
	require.Len(t, thread.Replies, 1)
	assert.Equal(t, b.ID, thread.Replies[0].Comment.ID)
	assert.Equal(t, a.ID, *thread.Replies[0].Comment.ParentCommentID)
}

func TestFetchThreadFiltersModeration(t *testing.T) {
	svc, _ := newCommentService(t)
	ctx := context.Background()

	root, err := svc.Create(ctx, member, services.CreateCommentInput{ContentID: 10, Body: "root"})
	require.NoError(t, err)
	rejected, err := svc.Create(ctx, other, services.CreateCommentInput{ContentID: 10, ParentCommentID: &root.ID, Body: "rejected child"})
	require.NoError(t, err)
	pending, err := svc.Create(ctx, other, services.CreateCommentInput{ContentID: 10, ParentCommentID: &root.ID, Body: "pending child"})
	require.NoError(t, err)
	grandchild, err := svc.Create(ctx, member, services.CreateCommentInput{ContentID: 10, ParentCommentID: &rejected.ID, Body: "visible grandchild"})
	require.NoError(t, err)

	approve(t, svc, root.ID)
	approve(t, svc, grandchild.ID)
	_, err = svc.Moderate(ctx, moderator, rejected.ID, models.ModerationRejected, "")
	require.NoError(t, err)

	// Non-moderator: the rejected child is omitted and its visible
	// grandchild splices up to the root; the pending child never appears.
	thread, err := svc.FetchThread(ctx, services.Actor{ID: 3}, root.ID)
	require.NoError(t, err)
	require.Len(t, thread.Replies, 1)
	assert.Equal(t, grandchild.ID, thread.Replies[0].Comment.ID)

	// Moderators see the full tree in place.
	modThread, err := svc.FetchThread(ctx, moderator, root.ID)
	require.NoError(t, err)
	require.Len(t, modThread.Replies, 2)

	// A moderation-hidden root is not addressable for regular viewers.
	_, err = svc.FetchThread(ctx, services.Actor{ID: 3}, pending.ID)
	require.ErrorIs(t, err, services.ErrNotFound)
}

func TestFetchThreadDeletedPlaceholder(t *testing.T) {
	svc, _ := newCommentService(t)
	ctx := context.Background()

	root, err := svc.Create(ctx, member, services.CreateCommentInput{ContentID: 10, Body: "root"})
	require.NoError(t, err)
	child, err := svc.Create(ctx, other, services.CreateCommentInput{ContentID: 10, ParentCommentID: &root.ID, Body: "secret"})
	require.NoError(t, err)
	grandchild, err := svc.Create(ctx, member, services.CreateCommentInput{ContentID: 10, ParentCommentID: &child.ID, Body: "still here"})
	require.NoError(t, err)

	approve(t, svc, root.ID)
	approve(t, svc, child.ID)
	approve(t, svc, grandchild.ID)
	require.NoError(t, svc.SoftDelete(ctx, other, child.ID))

	thread, err := svc.FetchThread(ctx, services.Actor{ID: 3}, root.ID)
	require.NoError(t, err)
	require.Len(t, thread.Replies, 1)

	placeholder := thread.Replies[0]
	assert.True(t, placeholder.Deleted)
	assert.NotEqual(t, "secret", placeholder.Comment.Body)
	require.Len(t, placeholder.Replies, 1)
	assert.Equal(t, grandchild.ID, placeholder.Replies[0].Comment.ID)

	// Moderators still see the original body.
	modThread, err := svc.FetchThread(ctx, moderator, root.ID)
	require.NoError(t, err)
	assert.Equal(t, "secret", modThread.Replies[0].Comment.Body)
	assert.False(t, modThread.Replies[0].Deleted)
}

func TestFetchThreadOmitsArchived(t *testing.T) {
	svc, db := newCommentService(t)
	ctx := context.Background()

	root, err := svc.Create(ctx, member, services.CreateCommentInput{ContentID: 10, Body: "root"})
	require.NoError(t, err)
	child, err := svc.Create(ctx, other, services.CreateCommentInput{ContentID: 10, ParentCommentID: &root.ID, Body: "archived child"})
	require.NoError(t, err)
	grandchild, err := svc.Create(ctx, member, services.CreateCommentInput{ContentID: 10, ParentCommentID: &child.ID, Body: "still active"})
	require.NoError(t, err)

	approve(t, svc, root.ID)
	approve(t, svc, child.ID)
	approve(t, svc, grandchild.ID)
	require.NoError(t, db.Model(&models.Comment{}).Where("id = ?", child.ID).
		UpdateColumn("status", models.CommentStatusArchived).Error)

	// Regular viewers: the archived child is omitted like a hidden one and
	// its grandchild splices up to the root.
	thread, err := svc.FetchThread(ctx, services.Actor{ID: 3}, root.ID)
	require.NoError(t, err)
	require.Len(t, thread.Replies, 1)
	assert.Equal(t, grandchild.ID, thread.Replies[0].Comment.ID)

	_, err = svc.FetchThread(ctx, services.Actor{ID: 3}, child.ID)
	require.ErrorIs(t, err, services.ErrNotFound)

	// Moderators see the archived node in place.
	modThread, err := svc.FetchThread(ctx, moderator, root.ID)
	require.NoError(t, err)
	require.Len(t, modThread.Replies, 1)
	assert.Equal(t, child.ID, modThread.Replies[0].Comment.ID)

	_, err = svc.FetchThread(ctx, moderator, child.ID)
	require.NoError(t, err)
}

func TestFetchThreadSiblingOrder(t *testing.T) {
	svc, _ := newCommentService(t)
	ctx := context.Background()

	root, err := svc.Create(ctx, member, services.CreateCommentInput{ContentID: 10, Body: "root"})
	require.NoError(t, err)
	approve(t, svc, root.ID)

	var ids []uint
	for i := 0; i < 3; i++ {
		reply, err := svc.Create(ctx, other, services.CreateCommentInput{ContentID: 10, ParentCommentID: &root.ID, Body: "reply"})
		require.NoError(t, err)
		approve(t, svc, reply.ID)
		ids = append(ids, reply.ID)
		time.Sleep(2 * time.Millisecond)
	}

	thread, err := svc.FetchThread(ctx, services.Actor{ID: 3}, root.ID)
	require.NoError(t, err)
	require.Len(t, thread.Replies, 3)
	for i, reply := range thread.Replies {
		assert.Equal(t, ids[i], reply.Comment.ID)
	}
}

func TestFetchThreadMissing(t *testing.T) {
	svc, _ := newCommentService(t)

	_, err := svc.FetchThread(context.Background(), member, 999)
	require.ErrorIs(t, err, services.ErrNotFound)
}

func TestReconcileCounters(t *testing.T) {
	svc, db := newCommentService(t)
	ctx := context.Background()

	root, err := svc.Create(ctx, member, services.CreateCommentInput{ContentID: 10, Body: "root"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, other, services.CreateCommentInput{ContentID: 10, ParentCommentID: &root.ID, Body: "reply"})
	require.NoError(t, err)
	_, err = svc.ToggleLike(ctx, other, root.ID)
	require.NoError(t, err)

	// Simulate drift.
	require.NoError(t, db.Model(&models.Comment{}).Where("id = ?", root.ID).
		Updates(map[string]interface{}{"reply_count": 7, "like_count": 9}).Error)

	require.NoError(t, svc.ReconcileCounters(ctx, root.ID))

	var stored models.Comment
	require.NoError(t, db.First(&stored, root.ID).Error)
	assert.Equal(t, 1, stored.ReplyCount)
	assert.Equal(t, 1, stored.LikeCount)

	require.ErrorIs(t, svc.ReconcileCounters(ctx, 999), services.ErrNotFound)
}
