package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/legacykeep/interaction-service/clients"
	"github.com/legacykeep/interaction-service/services"
	"github.com/legacykeep/interaction-service/utils"
)

type CommentController struct {
	Comments *services.CommentService
	Profiles clients.ProfileClient
	Families clients.FamilyClient
	Logger   *zap.Logger
}

func NewCommentController(comments *services.CommentService, profiles clients.ProfileClient, families clients.FamilyClient, logger *zap.Logger) *CommentController {
	return &CommentController{Comments: comments, Profiles: profiles, Families: families, Logger: logger}
}

type CreateCommentRequest struct {
	Body            string   `json:"body" binding:"required"`
	ParentCommentID *uint    `json:"parentCommentId"`
	Mentions        []string `json:"mentions"`
	Hashtags        []string `json:"hashtags"`
	MediaURLs       []string `json:"mediaUrls"`
	GenerationLevel int      `json:"generationLevel"`
	FamilyID        uint     `json:"familyId"`
	FamilyContext   string   `json:"familyContext"`
	RelationContext string   `json:"relationshipContext"`
	CulturalContext string   `json:"culturalContext"`
	Language        string   `json:"language"`
	IsAnonymous     bool     `json:"isAnonymous"`
	IsPrivate       bool     `json:"isPrivate"`
}

type EditCommentRequest struct {
	Body   string `json:"body" binding:"required"`
	Reason string `json:"reason"`
}

type ModerateCommentRequest struct {
	Decision string `json:"decision" binding:"required,oneof=APPROVED REJECTED"`
	Reason   string `json:"reason"`
}

type FlagCommentRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func actorFrom(user *utils.UserClaims) services.Actor {
	return services.Actor{ID: user.UserID, Moderator: user.IsModerator()}
}

// CreateComment godoc
// @Summary Create a comment or reply on a piece of content
// @Tags comments
// @Accept json
// @Produce json
// @Param contentId path string true "Content ID"
// @Param comment body CreateCommentRequest true "Comment creation request"
// @Success 201 {object} models.Comment
// @Router /contents/{contentId}/comments [post]
func (cc *CommentController) CreateComment(c *gin.Context) {
	user := utils.GetUser(c)
	contentID, ok := parseIDParam(c, "contentId")
	if !ok {
		return
	}

	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := cc.Comments.Create(c.Request.Context(), actorFrom(user), services.CreateCommentInput{
		ContentID:       contentID,
		ParentCommentID: req.ParentCommentID,
		Body:            req.Body,
		Mentions:        req.Mentions,
		Hashtags:        req.Hashtags,
		MediaURLs:       req.MediaURLs,
		GenerationLevel: req.GenerationLevel,
		FamilyID:        req.FamilyID,
		FamilyContext:   req.FamilyContext,
		RelationContext: req.RelationContext,
		CulturalContext: req.CulturalContext,
		Language:        req.Language,
		IsAnonymous:     req.IsAnonymous,
		IsPrivate:       req.IsPrivate,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// EditComment godoc
// @Summary Edit a comment, keeping the prior text in the edit history
// @Tags comments
// @Accept json
// @Produce json
// @Param id path string true "Comment ID"
// @Success 200 {object} models.Comment
// @Router /comments/{id} [put]
func (cc *CommentController) EditComment(c *gin.Context) {
	user := utils.GetUser(c)
	commentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req EditCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := cc.Comments.Edit(c.Request.Context(), actorFrom(user), commentID, req.Body, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, comment)
}

// DeleteComment godoc
// @Summary Soft-delete a comment; replies remain addressable
// @Tags comments
// @Produce json
// @Param id path string true "Comment ID"
// @Success 200 {object} map[string]interface{}
// @Router /comments/{id} [delete]
func (cc *CommentController) DeleteComment(c *gin.Context) {
	user := utils.GetUser(c)
	commentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := cc.Comments.SoftDelete(c.Request.Context(), actorFrom(user), commentID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ModerateComment godoc
// @Summary Apply a moderation decision to a comment
// @Tags comments
// @Accept json
// @Produce json
// @Param id path string true "Comment ID"
// @Success 200 {object} models.Comment
// @Router /comments/{id}/moderate [post]
func (cc *CommentController) ModerateComment(c *gin.Context) {
	user := utils.GetUser(c)
	commentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ModerateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := cc.Comments.Moderate(c.Request.Context(), actorFrom(user), commentID, req.Decision, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, comment)
}

// FlagComment godoc
// @Summary Flag a comment for moderation review
// @Tags comments
// @Accept json
// @Produce json
// @Param id path string true "Comment ID"
// @Success 200 {object} map[string]interface{}
// @Router /comments/{id}/flag [post]
func (cc *CommentController) FlagComment(c *gin.Context) {
	user := utils.GetUser(c)
	commentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req FlagCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := cc.Comments.Flag(c.Request.Context(), actorFrom(user), commentID, req.Reason); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"flagged": true})
}

// LikeComment godoc
// @Summary Like or unlike a comment
// @Description Toggles like status for a comment
// @Tags comments
// @Produce json
// @Param id path string true "Comment ID"
// @Success 200 {object} map[string]interface{}
// @Router /comments/{id}/like [post]
func (cc *CommentController) LikeComment(c *gin.Context) {
	user := utils.GetUser(c)
	commentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	liked, err := cc.Comments.ToggleLike(c.Request.Context(), actorFrom(user), commentID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

// GetThread godoc
// @Summary Fetch a comment with its nested replies
// @Tags comments
// @Produce json
// @Param id path string true "Comment ID"
// @Success 200 {object} StandardResponse
// @Router /comments/{id}/thread [get]
func (cc *CommentController) GetThread(c *gin.Context) {
	user := utils.GetUser(c)
	commentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	thread, err := cc.Comments.FetchThread(c.Request.Context(), actorFrom(user), commentID)
	if err != nil {
		respondError(c, err)
		return
	}

	authors := cc.decorateAuthors(c, thread)
	relationships := cc.decorateRelationships(c, user, thread)

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    thread,
		Meta:    gin.H{"authors": authors, "relationships": relationships},
	})
}

// GetEditHistory godoc
// @Summary Fetch the edit history of a comment, oldest first
// @Tags comments
// @Produce json
// @Param id path string true "Comment ID"
// @Success 200 {object} StandardResponse
// @Router /comments/{id}/history [get]
func (cc *CommentController) GetEditHistory(c *gin.Context) {
	commentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	edits, err := cc.Comments.EditHistory(c.Request.Context(), commentID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: edits})
}

// threadAuthorIDs collects the authors a thread exposes: deleted
// placeholders and anonymous comments stay unattributed.
func threadAuthorIDs(thread *services.ThreadNode) map[uint]struct{} {
	authorIDs := map[uint]struct{}{}
	var walk func(node *services.ThreadNode)
	walk = func(node *services.ThreadNode) {
		if !node.Deleted && !node.Comment.IsAnonymous {
			authorIDs[node.Comment.UserID] = struct{}{}
		}
		for _, reply := range node.Replies {
			walk(reply)
		}
	}
	walk(thread)
	return authorIDs
}

// decorateAuthors resolves display profiles for the non-anonymous authors
// in a thread. Lookup failures only cost the decoration, never the thread.
func (cc *CommentController) decorateAuthors(c *gin.Context, thread *services.ThreadNode) map[uint]*clients.Profile {
	authorIDs := threadAuthorIDs(thread)

	authors := make(map[uint]*clients.Profile, len(authorIDs))
	for userID := range authorIDs {
		profile, err := cc.Profiles.GetProfile(c.Request.Context(), userID)
		if err != nil {
			cc.Logger.Debug("profile lookup failed",
				zap.Uint("userId", userID),
				zap.Error(err))
			continue
		}
		authors[userID] = profile
	}
	return authors
}

// decorateRelationships resolves how the viewer relates to each exposed
// author, keyed by author ID. Best-effort like decorateAuthors.
func (cc *CommentController) decorateRelationships(c *gin.Context, user *utils.UserClaims, thread *services.ThreadNode) map[uint]*clients.Relationship {
	authorIDs := threadAuthorIDs(thread)
	delete(authorIDs, user.UserID)

	relationships := make(map[uint]*clients.Relationship, len(authorIDs))
	for userID := range authorIDs {
		relationship, err := cc.Families.GetRelationship(c.Request.Context(), user.UserID, userID)
		if err != nil {
			cc.Logger.Debug("relationship lookup failed",
				zap.Uint("userId", userID),
				zap.Error(err))
			continue
		}
		relationships[userID] = relationship
	}
	return relationships
}
