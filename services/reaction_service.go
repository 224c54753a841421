package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/legacykeep/interaction-service/models"
)

// ReactionService owns the one-reaction-per-user-per-content upsert path
// and on-demand multi-dimensional aggregation over a content item's
// reactions.
type ReactionService struct {
	db     *gorm.DB
	events *EventService
	logger *zap.Logger
}

func NewReactionService(db *gorm.DB, events *EventService, logger *zap.Logger) *ReactionService {
	return &ReactionService{db: db, events: events, logger: logger}
}

type UpsertReactionInput struct {
	ContentID        uint
	Type             string
	Intensity        int
	GenerationLevel  int
	FamilyID         uint
	CulturalTags     []string
	FamilyContext    string
	RelationContext  string
	CulturalContext  string
	EmotionalContext string
	IsAnonymous      bool
	IsPrivate        bool
}

// Upsert creates the actor's reaction to the content, or replaces the type,
// intensity and context of an existing one. A duplicate-key error from a
// concurrent insert for the same pair is retried as an update, so a race
// never produces two rows or a failure.
func (s *ReactionService) Upsert(ctx context.Context, actor Actor, in UpsertReactionInput) (*models.Reaction, bool, error) {
	if !models.IsValidReactionType(in.Type) {
		return nil, false, &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown reaction type %q", in.Type)}
	}
	if in.Intensity < models.MinReactionIntensity || in.Intensity > models.MaxReactionIntensity {
		return nil, false, &ValidationError{
			Field:  "intensity",
			Reason: fmt.Sprintf("must be between %d and %d", models.MinReactionIntensity, models.MaxReactionIntensity),
		}
	}

	const attempts = 2
	for attempt := 0; attempt < attempts; attempt++ {
		reaction, created, err := s.tryUpsert(ctx, actor, in)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost an insert race; the row exists now, retry as an update.
			continue
		}
		if err != nil {
			return nil, false, err
		}

		kind := models.EventReactionUpdated
		if created {
			kind = models.EventReactionAdded
		}
		s.events.Emit(ctx, models.NewInteractionEvent(kind, actor.ID, in.ContentID, "reaction").
			WithFamily(in.FamilyID).
			WithPayload("reactionId", reaction.ID).
			WithPayload("reactionType", reaction.Type).
			WithPayload("intensity", reaction.Intensity))

		return reaction, created, nil
	}
	return nil, false, fmt.Errorf("reaction upsert for content %d: %w", in.ContentID, ErrConflict)
}

func (s *ReactionService) tryUpsert(ctx context.Context, actor Actor, in UpsertReactionInput) (*models.Reaction, bool, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, false, tx.Error
	}

	var existing models.Reaction
	err := tx.Where("content_id = ? AND user_id = ?", in.ContentID, actor.ID).First(&existing).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		reaction := models.Reaction{
			ContentID:        in.ContentID,
			UserID:           actor.ID,
			Type:             in.Type,
			Intensity:        in.Intensity,
			GenerationLevel:  in.GenerationLevel,
			FamilyID:         in.FamilyID,
			CulturalTags:     in.CulturalTags,
			FamilyContext:    in.FamilyContext,
			RelationContext:  in.RelationContext,
			CulturalContext:  in.CulturalContext,
			EmotionalContext: in.EmotionalContext,
			IsAnonymous:      in.IsAnonymous,
			IsPrivate:        in.IsPrivate,
		}
		if err := tx.Create(&reaction).Error; err != nil {
			tx.Rollback()
			return nil, false, err
		}
		// Comments are reactable content; when the target is a comment row,
		// its denormalized reaction counter moves in the same transaction.
		if err := tx.Model(&models.Comment{}).
			Where("id = ?", in.ContentID).
			UpdateColumn("reaction_count", gorm.Expr("reaction_count + ?", 1)).Error; err != nil {
			tx.Rollback()
			return nil, false, err
		}
		if err := tx.Commit().Error; err != nil {
			return nil, false, err
		}
		return &reaction, true, nil

	case err != nil:
		tx.Rollback()
		return nil, false, err

	default:
		existing.Type = in.Type
		existing.Intensity = in.Intensity
		existing.GenerationLevel = in.GenerationLevel
		existing.FamilyID = in.FamilyID
		existing.CulturalTags = in.CulturalTags
		existing.FamilyContext = in.FamilyContext
		existing.RelationContext = in.RelationContext
		existing.CulturalContext = in.CulturalContext
		existing.EmotionalContext = in.EmotionalContext
		existing.IsAnonymous = in.IsAnonymous
		existing.IsPrivate = in.IsPrivate
		if err := tx.Save(&existing).Error; err != nil {
			tx.Rollback()
			return nil, false, err
		}
		if err := tx.Commit().Error; err != nil {
			return nil, false, err
		}
		return &existing, false, nil
	}
}

// Remove deletes the actor's reaction to the content.
func (s *ReactionService) Remove(ctx context.Context, actor Actor, contentID uint) error {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	var reaction models.Reaction
	if err := tx.Where("content_id = ? AND user_id = ?", contentID, actor.ID).First(&reaction).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("reaction for content %d: %w", contentID, ErrNotFound)
		}
		return err
	}

	if err := tx.Delete(&reaction).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Model(&models.Comment{}).
		Where("id = ? AND reaction_count > 0", contentID).
		UpdateColumn("reaction_count", gorm.Expr("reaction_count - ?", 1)).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return err
	}

	s.events.Emit(ctx, models.NewInteractionEvent(models.EventReactionRemoved, actor.ID, contentID, "reaction").
		WithFamily(reaction.FamilyID).
		WithPayload("reactionId", reaction.ID).
		WithPayload("reactionType", reaction.Type))

	return nil
}

// BreakdownEntry is a count with its share of the total, as a percentage.
type BreakdownEntry struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// FamilyBreakdown nests a per-generation breakdown inside a family's slice
// of the total.
type FamilyBreakdown struct {
	Count        int                    `json:"count"`
	Percentage   float64                `json:"percentage"`
	ByGeneration map[int]BreakdownEntry `json:"byGeneration"`
}

type ViewerReaction struct {
	Type      string    `json:"type"`
	Intensity int       `json:"intensity"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReactionSummary is the on-demand aggregation over all reactions attached
// to one content item. AverageIntensity is zero when there are no
// reactions; callers distinguish that from real data via TotalReactions.
type ReactionSummary struct {
	ContentID        uint                                       `json:"contentId"`
	TotalReactions   int                                        `json:"totalReactions"`
	DistinctReactors int                                        `json:"distinctReactors"`
	AverageIntensity float64                                    `json:"averageIntensity"`
	ByType           map[string]BreakdownEntry                  `json:"byType"`
	ByIntensity      map[int]BreakdownEntry                     `json:"byIntensity"`
	ByGeneration     map[int]BreakdownEntry                     `json:"byGeneration"`
	ByCulturalTag    map[string]BreakdownEntry                  `json:"byCulturalTag"`
	ByFamily         map[uint]FamilyBreakdown                   `json:"byFamily"`
	ByCategory       map[models.ReactionCategory]BreakdownEntry `json:"byCategory"`
	ViewerReaction   *ViewerReaction                            `json:"viewerReaction,omitempty"`
}

// Summarize loads the content's reactions once and aggregates in memory.
// Percentages are (subset/total)*100 at full float64 precision, and 0.0
// whenever the denominator is zero.
func (s *ReactionService) Summarize(ctx context.Context, contentID, viewerID uint) (*ReactionSummary, error) {
	var reactions []models.Reaction
	if err := s.db.WithContext(ctx).
		Where("content_id = ?", contentID).
		Find(&reactions).Error; err != nil {
		return nil, err
	}

	summary := &ReactionSummary{
		ContentID:     contentID,
		ByType:        map[string]BreakdownEntry{},
		ByIntensity:   map[int]BreakdownEntry{},
		ByGeneration:  map[int]BreakdownEntry{},
		ByCulturalTag: map[string]BreakdownEntry{},
		ByFamily:      map[uint]FamilyBreakdown{},
		ByCategory:    map[models.ReactionCategory]BreakdownEntry{},
	}

	total := len(reactions)
	summary.TotalReactions = total

	typeCounts := map[string]int{}
	intensityCounts := map[int]int{}
	generationCounts := map[int]int{}
	tagCounts := map[string]int{}
	familyCounts := map[uint]int{}
	familyGenerationCounts := map[uint]map[int]int{}
	categoryCounts := map[models.ReactionCategory]int{}
	// Computed independently of the total as a correctness check on the
	// one-reaction-per-user invariant.
	reactors := map[uint]struct{}{}

	intensitySum := 0
	for i := range reactions {
		r := &reactions[i]
		intensitySum += r.Intensity
		reactors[r.UserID] = struct{}{}

		typeCounts[r.Type]++
		intensityCounts[r.Intensity]++
		generationCounts[r.GenerationLevel]++
		for _, tag := range r.CulturalTags {
			tagCounts[tag]++
		}
		if r.FamilyID != 0 {
			familyCounts[r.FamilyID]++
			if familyGenerationCounts[r.FamilyID] == nil {
				familyGenerationCounts[r.FamilyID] = map[int]int{}
			}
			familyGenerationCounts[r.FamilyID][r.GenerationLevel]++
		}
		if category := r.Category(); category != "" {
			categoryCounts[category]++
		}

		if r.UserID == viewerID {
			summary.ViewerReaction = &ViewerReaction{
				Type:      r.Type,
				Intensity: r.Intensity,
				CreatedAt: r.CreatedAt,
			}
		}
	}

	summary.DistinctReactors = len(reactors)
	if total > 0 {
		summary.AverageIntensity = float64(intensitySum) / float64(total)
	}

	for key, count := range typeCounts {
		summary.ByType[key] = BreakdownEntry{Count: count, Percentage: percentage(count, total)}
	}
	for level := models.MinReactionIntensity; level <= models.MaxReactionIntensity; level++ {
		count := intensityCounts[level]
		summary.ByIntensity[level] = BreakdownEntry{Count: count, Percentage: percentage(count, total)}
	}
	for generation, count := range generationCounts {
		summary.ByGeneration[generation] = BreakdownEntry{Count: count, Percentage: percentage(count, total)}
	}
	for tag, count := range tagCounts {
		summary.ByCulturalTag[tag] = BreakdownEntry{Count: count, Percentage: percentage(count, total)}
	}
	for familyID, count := range familyCounts {
		byGeneration := map[int]BreakdownEntry{}
		for generation, generationCount := range familyGenerationCounts[familyID] {
			byGeneration[generation] = BreakdownEntry{Count: generationCount, Percentage: percentage(generationCount, count)}
		}
		summary.ByFamily[familyID] = FamilyBreakdown{
			Count:        count,
			Percentage:   percentage(count, total),
			ByGeneration: byGeneration,
		}
	}
	for _, category := range []models.ReactionCategory{
		models.CategoryCore, models.CategoryFamily, models.CategoryGenerational, models.CategoryCultural,
	} {
		count := categoryCounts[category]
		summary.ByCategory[category] = BreakdownEntry{Count: count, Percentage: percentage(count, total)}
	}

	return summary, nil
}

func percentage(count, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return float64(count) / float64(total) * 100
}
