package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/legacykeep/interaction-service/models"
	"github.com/legacykeep/interaction-service/services"
	"github.com/legacykeep/interaction-service/utils"
)

type ReactionController struct {
	Reactions *services.ReactionService
}

func NewReactionController(reactions *services.ReactionService) *ReactionController {
	return &ReactionController{Reactions: reactions}
}

type UpsertReactionRequest struct {
	Type             string   `json:"type" binding:"required"`
	Intensity        int      `json:"intensity" binding:"required,min=1,max=5"`
	GenerationLevel  int      `json:"generationLevel"`
	FamilyID         uint     `json:"familyId"`
	CulturalTags     []string `json:"culturalTags"`
	FamilyContext    string   `json:"familyContext"`
	RelationContext  string   `json:"relationshipContext"`
	CulturalContext  string   `json:"culturalContext"`
	EmotionalContext string   `json:"emotionalContext"`
	IsAnonymous      bool     `json:"isAnonymous"`
	IsPrivate        bool     `json:"isPrivate"`
}

// UpsertReaction godoc
// @Summary React to content, replacing any prior reaction by the same user
// @Tags reactions
// @Accept json
// @Produce json
// @Param contentId path string true "Content ID"
// @Param reaction body UpsertReactionRequest true "Reaction request"
// @Success 200 {object} map[string]interface{}
// @Router /contents/{contentId}/reactions [put]
func (rc *ReactionController) UpsertReaction(c *gin.Context) {
	user := utils.GetUser(c)
	contentID, ok := parseIDParam(c, "contentId")
	if !ok {
		return
	}

	var req UpsertReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reaction, created, err := rc.Reactions.Upsert(c.Request.Context(), actorFrom(user), services.UpsertReactionInput{
		ContentID:        contentID,
		Type:             req.Type,
		Intensity:        req.Intensity,
		GenerationLevel:  req.GenerationLevel,
		FamilyID:         req.FamilyID,
		CulturalTags:     req.CulturalTags,
		FamilyContext:    req.FamilyContext,
		RelationContext:  req.RelationContext,
		CulturalContext:  req.CulturalContext,
		EmotionalContext: req.EmotionalContext,
		IsAnonymous:      req.IsAnonymous,
		IsPrivate:        req.IsPrivate,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"reaction": reaction, "created": created})
}

// RemoveReaction godoc
// @Summary Remove the caller's reaction from content
// @Tags reactions
// @Produce json
// @Param contentId path string true "Content ID"
// @Success 200 {object} map[string]interface{}
// @Router /contents/{contentId}/reactions [delete]
func (rc *ReactionController) RemoveReaction(c *gin.Context) {
	user := utils.GetUser(c)
	contentID, ok := parseIDParam(c, "contentId")
	if !ok {
		return
	}

	if err := rc.Reactions.Remove(c.Request.Context(), actorFrom(user), contentID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": true})
}

// GetReactionSummary godoc
// @Summary Multi-dimensional reaction breakdown for a piece of content
// @Tags reactions
// @Produce json
// @Param contentId path string true "Content ID"
// @Success 200 {object} services.ReactionSummary
// @Router /contents/{contentId}/reactions/summary [get]
func (rc *ReactionController) GetReactionSummary(c *gin.Context) {
	user := utils.GetUser(c)
	contentID, ok := parseIDParam(c, "contentId")
	if !ok {
		return
	}

	summary, err := rc.Reactions.Summarize(c.Request.Context(), contentID, user.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ListReactionTypes godoc
// @Summary The static reaction type catalog
// @Tags reactions
// @Produce json
// @Success 200 {object} StandardResponse
// @Router /reactions/types [get]
func (rc *ReactionController) ListReactionTypes(c *gin.Context) {
	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    models.AllReactionTypes(),
	})
}
