package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/database"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/progression"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/pkg/models"
)

func (s *Server) getDocument(c *gin.Context) {
	doc, err := s.deps.Documents.Load(c.Request.Context(), UserID(c))
	if errors.Is(err, database.ErrNotFound) {
		errorJSON(c, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to load document", "user_id", UserID(c), "error", err)
		errorJSON(c, http.StatusInternalServerError, "Failed to load data")
		return
	}
	c.JSON(http.StatusOK, doc)
}

// syncDocument overwrites the caller's document with the request body. Level
// and rank are derived from XP here as well, whatever the client sent.
func (s *Server) syncDocument(c *gin.Context) {
	var env models.SyncEnvelope
	if err := c.ShouldBindJSON(&env); err != nil {
		errorJSON(c, http.StatusBadRequest, "Invalid sync payload: "+err.Error())
		return
	}
	for date := range env.StreakHistory {
		if _, err := time.Parse(models.DateLayout, date); err != nil {
			errorJSON(c, http.StatusBadRequest, "Invalid streak history date "+date)
			return
		}
	}

	env.Level = progression.LevelForXP(env.XP)
	env.Rank = progression.RankForLevel(env.Level)
	if env.Tasks == nil {
		env.Tasks = map[string]models.Task{}
	}
	if env.FlashCards == nil {
		env.FlashCards = map[string]models.Flashcard{}
	}

	if err := s.deps.Documents.Save(c.Request.Context(), UserID(c), env, s.now()); err != nil {
		s.logger.Error("failed to save document", "user_id", UserID(c), "error", err)
		errorJSON(c, http.StatusInternalServerError, "Failed to sync data")
		return
	}
	s.deps.Metrics.ObserveDocumentWrite()
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Data synced successfully"})
}

func (s *Server) getStreaks(c *gin.Context) {
	st, err := s.deps.Streaks.Get(c.Request.Context(), UserID(c))
	if err != nil {
		s.logger.Error("failed to load streaks", "user_id", UserID(c), "error", err)
		errorJSON(c, http.StatusInternalServerError, "Failed to load streaks")
		return
	}
	c.JSON(http.StatusOK, models.StreaksResponse{Streaks: st.Streaks, History: st.History})
}

func (s *Server) updateProgress(c *gin.Context) {
	var upd models.ProgressUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		errorJSON(c, http.StatusBadRequest, "Invalid progress update: "+err.Error())
		return
	}
	if _, err := time.Parse(models.DateLayout, upd.Date); err != nil {
		errorJSON(c, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
		return
	}

	if _, err := s.deps.Streaks.Increment(c.Request.Context(), UserID(c), upd); err != nil {
		s.logger.Error("failed to update progress", "user_id", UserID(c), "error", err)
		errorJSON(c, http.StatusInternalServerError, "Failed to update progress")
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Progress updated"})
}

type askRequest struct {
	Topic string `json:"topic" binding:"required"`
}

type flashcardsRequest struct {
	Topic string `json:"topic" binding:"required"`
	Count int    `json:"count" binding:"gte=0,lte=20"`
}

type rewardRequest struct {
	Title       string          `json:"title" binding:"required"`
	Description string          `json:"description"`
	Priority    models.Priority `json:"priority"`
}

func (s *Server) agentAvailable(c *gin.Context) bool {
	if !s.deps.Agent.Available() {
		errorJSON(c, http.StatusServiceUnavailable, "Content agent is not configured")
		return false
	}
	return true
}

func (s *Server) agentAsk(c *gin.Context) {
	if !s.agentAvailable(c) {
		return
	}
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}
	advice, err := s.deps.Agent.Advice(c.Request.Context(), req.Topic)
	if err != nil {
		s.logger.Warn("agent advice failed", "error", err)
		errorJSON(c, http.StatusBadGateway, "Content agent failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"advice": advice})
}

func (s *Server) agentFlashcards(c *gin.Context) {
	if !s.agentAvailable(c) {
		return
	}
	var req flashcardsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}
	cards, err := s.deps.Agent.Flashcards(c.Request.Context(), req.Topic, req.Count)
	if err != nil {
		s.logger.Warn("agent flashcards failed", "error", err)
		errorJSON(c, http.StatusBadGateway, "Content agent failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"flashcards": cards})
}

func (s *Server) agentReward(c *gin.Context) {
	if !s.agentAvailable(c) {
		return
	}
	var req rewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.Priority == "" {
		req.Priority = models.PriorityMedium
	}
	c.JSON(http.StatusOK, s.deps.Agent.SuggestReward(c.Request.Context(), req.Title, req.Description, req.Priority))
}
