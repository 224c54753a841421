package services_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/legacykeep/interaction-service/models"
	"github.com/legacykeep/interaction-service/services"
)

func TestUpsertReactionReplacesInPlace(t *testing.T) {
	svc, db := newReactionService(t)
	ctx := context.Background()

	first, created, err := svc.Upsert(ctx, member, services.UpsertReactionInput{
		ContentID: 42,
		Type:      "LIKE",
		Intensity: 2,
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, first.IsLowIntensity())

	second, created, err := svc.Upsert(ctx, member, services.UpsertReactionInput{
		ContentID: 42,
		Type:      "LOVE",
		Intensity: 4,
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.IsHighIntensity())

	var count int64
	require.NoError(t, db.Model(&models.Reaction{}).
		Where("content_id = ? AND user_id = ?", 42, member.ID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)

	summary, err := svc.Summarize(ctx, 42, member.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalReactions)
	assert.Equal(t, 1, summary.DistinctReactors)
	assert.InDelta(t, 4.0, summary.AverageIntensity, 1e-9)
	require.NotNil(t, summary.ViewerReaction)
	assert.Equal(t, "LOVE", summary.ViewerReaction.Type)
	assert.Equal(t, 4, summary.ViewerReaction.Intensity)
}

func TestUpsertReactionValidation(t *testing.T) {
	svc, _ := newReactionService(t)
	ctx := context.Background()

	var validationErr *services.ValidationError

	_, _, err := svc.Upsert(ctx, member, services.UpsertReactionInput{ContentID: 1, Type: "NOPE", Intensity: 3})
	require.ErrorAs(t, err, &validationErr)

	_, _, err = svc.Upsert(ctx, member, services.UpsertReactionInput{ContentID: 1, Type: "LIKE", Intensity: 0})
	require.ErrorAs(t, err, &validationErr)

	_, _, err = svc.Upsert(ctx, member, services.UpsertReactionInput{ContentID: 1, Type: "LIKE", Intensity: 6})
	require.ErrorAs(t, err, &validationErr)
}

func TestRepeatedUpsertsKeepOneRow(t *testing.T) {
	svc, db := newReactionService(t)
	ctx := context.Background()

	inputs := []services.UpsertReactionInput{
		{ContentID: 7, Type: "LIKE", Intensity: 1},
		{ContentID: 7, Type: "WOW", Intensity: 5},
		{ContentID: 7, Type: "RESPECT", Intensity: 3},
		{ContentID: 7, Type: "LOVE", Intensity: 2},
	}
	for i, in := range inputs {
		_, created, err := svc.Upsert(ctx, member, in)
		require.NoError(t, err)
		assert.Equal(t, i == 0, created)
	}

	var rows []models.Reaction
	require.NoError(t, db.Where("content_id = ?", 7).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "LOVE", rows[0].Type)
	assert.Equal(t, 2, rows[0].Intensity)
}

func TestUpsertReactionInsertCollision(t *testing.T) {
	svc, db := newReactionService(t)
	ctx := context.Background()

	rival := models.Reaction{ContentID: 31, UserID: member.ID, Type: "LIKE", Intensity: 2}
	require.NoError(t, db.Create(&rival).Error)

	// Hide the rival from the first read so the insert collides with it,
	// the way a concurrent writer committing between read and write does.
	hidden := true
	require.NoError(t, db.Callback().Query().Before("gorm:query").Register("hide_rival_once", func(d *gorm.DB) {
		if !hidden {
			return
		}
		if _, ok := d.Statement.Dest.(*models.Reaction); !ok {
			return
		}
		hidden = false
		d.Statement.AddClause(clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "1 = 0"}}})
	}))

	reaction, created, err := svc.Upsert(ctx, member, services.UpsertReactionInput{
		ContentID: 31,
		Type:      "LOVE",
		Intensity: 4,
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, rival.ID, reaction.ID)
	assert.Equal(t, "LOVE", reaction.Type)

	var rows []models.Reaction
	require.NoError(t, db.Where("content_id = ?", 31).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "LOVE", rows[0].Type)
	assert.Equal(t, 4, rows[0].Intensity)
}

func TestRemoveReaction(t *testing.T) {
	svc, db := newReactionService(t)
	ctx := context.Background()

	require.ErrorIs(t, svc.Remove(ctx, member, 42), services.ErrNotFound)

	_, _, err := svc.Upsert(ctx, member, services.UpsertReactionInput{ContentID: 42, Type: "LIKE", Intensity: 3})
	require.NoError(t, err)
	require.NoError(t, svc.Remove(ctx, member, 42))

	var count int64
	require.NoError(t, db.Model(&models.Reaction{}).Where("content_id = ?", 42).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestReactionCountOnCommentTarget(t *testing.T) {
	svc, db := newReactionService(t)
	ctx := context.Background()

	comment := models.Comment{ContentID: 5, UserID: member.ID, Body: "reactable"}
	require.NoError(t, db.Create(&comment).Error)

	_, _, err := svc.Upsert(ctx, other, services.UpsertReactionInput{ContentID: comment.ID, Type: "PROUD", Intensity: 5})
	require.NoError(t, err)

	var stored models.Comment
	require.NoError(t, db.First(&stored, comment.ID).Error)
	assert.Equal(t, 1, stored.ReactionCount)

	require.NoError(t, svc.Remove(ctx, other, comment.ID))
	require.NoError(t, db.First(&stored, comment.ID).Error)
	assert.Equal(t, 0, stored.ReactionCount)
}

func seedReaction(t *testing.T, svc *services.ReactionService, actor services.Actor, in services.UpsertReactionInput) {
	t.Helper()
	_, _, err := svc.Upsert(context.Background(), actor, in)
	require.NoError(t, err)
}

func TestSummarizeBreakdowns(t *testing.T) {
	svc, _ := newReactionService(t)
	ctx := context.Background()
	contentID := uint(100)

	seedReaction(t, svc, services.Actor{ID: 1}, services.UpsertReactionInput{
		ContentID: contentID, Type: "LIKE", Intensity: 2,
		GenerationLevel: 1, FamilyID: 10, CulturalTags: []string{"diwali"},
	})
	seedReaction(t, svc, services.Actor{ID: 2}, services.UpsertReactionInput{
		ContentID: contentID, Type: "LIKE", Intensity: 4,
		GenerationLevel: 2, FamilyID: 10, CulturalTags: []string{"diwali", "punjabi"},
	})
	seedReaction(t, svc, services.Actor{ID: 3}, services.UpsertReactionInput{
		ContentID: contentID, Type: "TRADITION", Intensity: 5,
		GenerationLevel: 2, FamilyID: 20,
	})
	seedReaction(t, svc, services.Actor{ID: 4}, services.UpsertReactionInput{
		ContentID: contentID, Type: "RESPECT", Intensity: 5,
		GenerationLevel: 3,
	})

	summary, err := svc.Summarize(ctx, contentID, 2)
	require.NoError(t, err)

	assert.Equal(t, 4, summary.TotalReactions)
	assert.Equal(t, 4, summary.DistinctReactors)
	assert.InDelta(t, 4.0, summary.AverageIntensity, 1e-9)

	assert.Equal(t, 2, summary.ByType["LIKE"].Count)
	assert.InDelta(t, 50.0, summary.ByType["LIKE"].Percentage, 1e-9)
	assert.InDelta(t, 25.0, summary.ByType["TRADITION"].Percentage, 1e-9)

	// Intensity breakdown covers the full 1-5 range, zeroes included.
	require.Len(t, summary.ByIntensity, 5)
	assert.Equal(t, 0, summary.ByIntensity[1].Count)
	assert.Equal(t, 2, summary.ByIntensity[5].Count)
	assert.InDelta(t, 0.0, summary.ByIntensity[3].Percentage, 1e-9)

	assert.Equal(t, 1, summary.ByGeneration[1].Count)
	assert.Equal(t, 2, summary.ByGeneration[2].Count)

	assert.Equal(t, 2, summary.ByCulturalTag["diwali"].Count)
	assert.Equal(t, 1, summary.ByCulturalTag["punjabi"].Count)

	family := summary.ByFamily[10]
	assert.Equal(t, 2, family.Count)
	assert.InDelta(t, 50.0, family.Percentage, 1e-9)
	assert.Equal(t, 1, family.ByGeneration[1].Count)
	assert.InDelta(t, 50.0, family.ByGeneration[2].Percentage, 1e-9)

	assert.Equal(t, 2, summary.ByCategory[models.CategoryCore].Count)
	assert.Equal(t, 1, summary.ByCategory[models.CategoryCultural].Count)
	assert.Equal(t, 1, summary.ByCategory[models.CategoryGenerational].Count)
	assert.Equal(t, 0, summary.ByCategory[models.CategoryFamily].Count)

	require.NotNil(t, summary.ViewerReaction)
	assert.Equal(t, "LIKE", summary.ViewerReaction.Type)
	assert.Equal(t, 4, summary.ViewerReaction.Intensity)

	// Each dimension's percentages sum to 100 within rounding error.
	sumTypes := 0.0
	for _, entry := range summary.ByType {
		sumTypes += entry.Percentage
	}
	assert.InDelta(t, 100.0, sumTypes, 1e-6)

	sumIntensity := 0.0
	for _, entry := range summary.ByIntensity {
		sumIntensity += entry.Percentage
	}
	assert.InDelta(t, 100.0, sumIntensity, 1e-6)

	sumCategories := 0.0
	for _, entry := range summary.ByCategory {
		sumCategories += entry.Percentage
	}
	assert.InDelta(t, 100.0, sumCategories, 1e-6)
}

func TestSummarizeEmpty(t *testing.T) {
	svc, _ := newReactionService(t)

	summary, err := svc.Summarize(context.Background(), 404, member.ID)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.TotalReactions)
	assert.Equal(t, 0, summary.DistinctReactors)
	assert.True(t, math.Abs(summary.AverageIntensity) < 1e-12)
	assert.Nil(t, summary.ViewerReaction)
	assert.Empty(t, summary.ByType)
	for level := 1; level <= 5; level++ {
		assert.Equal(t, 0.0, summary.ByIntensity[level].Percentage)
	}
	for _, entry := range summary.ByCategory {
		assert.Equal(t, 0.0, entry.Percentage)
	}
}
