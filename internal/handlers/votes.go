package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/emilythestrangee/anime-awards/backend/internal/awards"
	"github.com/emilythestrangee/anime-awards/backend/internal/middleware"
	"github.com/emilythestrangee/anime-awards/backend/internal/models"
)

type VoteHandler struct {
	awards *awards.Service
	logger *zap.Logger
}

func NewVoteHandler(svc *awards.Service, logger *zap.Logger) *VoteHandler {
	return &VoteHandler{awards: svc, logger: logger}
}

// CastPublicVote records the caller's public ballot in a category.
func (h *VoteHandler) CastPublicVote(c *gin.Context) {
	h.cast(c, false)
}

// CastJuryVote records the caller's jury ballot in a category.
func (h *VoteHandler) CastJuryVote(c *gin.Context) {
	h.cast(c, true)
}

func (h *VoteHandler) cast(c *gin.Context, jury bool) {
	var input models.VoteRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A valid nominee_id is required"})
		return
	}
	nomineeID, err := uuid.Parse(input.NomineeID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A valid nominee_id is required"})
		return
	}

	ctx := c.Request.Context()
	category, err := h.awards.CategoryBySlug(ctx, c.Param("slug"))
	if err != nil {
		writeError(c, h.logger, err, "Category not found")
		return
	}

	vote, err := h.awards.CastVote(ctx, middleware.CallerFrom(c), awards.CastVoteInput{
		CategoryID: category.ID,
		NomineeID:  nomineeID,
		IsJury:     jury,
	})
	if err != nil {
		writeError(c, h.logger, err, "Nominee not found in this category")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Vote recorded",
		"vote":    vote,
	})
}

// GetMyVotes lists the caller's ballots; ?jury=true selects jury ballots.
func (h *VoteHandler) GetMyVotes(c *gin.Context) {
	jury := false
	if raw := c.Query("jury"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "jury must be true or false"})
			return
		}
		jury = v
	}

	votes, err := h.awards.MyVotes(c.Request.Context(), middleware.CallerFrom(c), jury)
	if err != nil {
		writeError(c, h.logger, err, "Vote not found")
		return
	}
	if votes == nil {
		votes = []models.Vote{}
	}
	c.JSON(http.StatusOK, votes)
}
