package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zigzig/talent-matcher/internal/job"
	"github.com/zigzig/talent-matcher/internal/matching"
)

const (
	recruiterKey = "recruiter_id"

	defaultComputeTimeout = 10 * time.Minute
)

type JobCreator interface {
	CreateFromDescription(ctx context.Context, recruiterID string, in job.ParseRequest) (*job.Posting, error)
}

type MatchComputer interface {
	ComputeMatches(ctx context.Context, recruiterID, jobID string) (*matching.Result, error)
}

type MatchReviewer interface {
	UpdateStatus(ctx context.Context, recruiterID string, req matching.UpdateStatusRequest) (*matching.CandidateMatch, error)
	ListMatches(ctx context.Context, recruiterID, jobID, status string, limit int) ([]*matching.CandidateMatch, error)
	MarkViewed(ctx context.Context, recruiterID, matchID string) (*matching.CandidateMatch, error)
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Handler struct {
	jobs           JobCreator
	matcher        MatchComputer
	reviewer       MatchReviewer
	checks         map[string]HealthCheck
	computeTimeout time.Duration
	logger         *zap.Logger
}

func NewHandler(jobs JobCreator, matcher MatchComputer, reviewer MatchReviewer, checks map[string]HealthCheck, computeTimeout time.Duration, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if computeTimeout <= 0 {
		computeTimeout = defaultComputeTimeout
	}
	return &Handler{
		jobs:           jobs,
		matcher:        matcher,
		reviewer:       reviewer,
		checks:         checks,
		computeTimeout: computeTimeout,
		logger:         logger,
	}
}

func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := strings.TrimSpace(c.GetHeader(UserIDHeader))
		if user == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + UserIDHeader + " header"})
			return
		}
		c.Set(recruiterKey, user)
		c.Next()
	}
}

func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Warn("health check failed", zap.String("dependency", name), zap.Error(err))
			deps[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	c.JSON(status, gin.H{"status": http.StatusText(status), "dependencies": deps})
}

type parseJobRequest struct {
	Description string `json:"description"`
	Title       string `json:"title"`
	Company     string `json:"company"`
}

func (h *Handler) ParseJob(c *gin.Context) {
	var req parseJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
		return
	}

	posting, err := h.jobs.CreateFromDescription(c.Request.Context(), c.GetString(recruiterKey), job.ParseRequest{
		Description: req.Description,
		Title:       req.Title,
		Company:     req.Company,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":                true,
		"job":                    posting,
		"extracted_requirements": posting.Requirements,
	})
}

type computeMatchesRequest struct {
	JobID string `json:"jobId"`
}

func (h *Handler) ComputeMatches(c *gin.Context) {
	var req computeMatchesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.JobID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "jobId is required"})
		return
	}

	// A client disconnect must not abandon a run halfway through.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), h.computeTimeout)
	defer cancel()

	result, err := h.matcher.ComputeMatches(ctx, c.GetString(recruiterKey), req.JobID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"job_id":        result.JobID,
		"total_matches": result.TotalMatches,
	})
}

func (h *Handler) UpdateMatchStatus(c *gin.Context) {
	var req matching.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
		return
	}

	m, err := h.reviewer.UpdateStatus(c.Request.Context(), c.GetString(recruiterKey), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"matchId": m.ID,
		"status":  m.Status,
	})
}

func (h *Handler) ListMatches(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	matches, err := h.reviewer.ListMatches(c.Request.Context(), c.GetString(recruiterKey), c.Query("jobId"), c.Query("status"), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

func (h *Handler) MarkViewed(c *gin.Context) {
	m, err := h.reviewer.MarkViewed(c.Request.Context(), c.GetString(recruiterKey), c.Param("matchId"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "matchId": m.ID, "viewed_at": m.ViewedAt})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var validation *matching.ValidationError
	var extraction *job.ExtractionError

	switch {
	case errors.As(err, &validation),
		errors.Is(err, job.ErrEmptyDescription),
		errors.Is(err, matching.ErrTransitionNotAllowed):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, matching.ErrJobNotFound), errors.Is(err, matching.ErrMatchNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, matching.ErrComputeInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &extraction):
		h.logger.Error("job extraction failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to extract job requirements"})
	default:
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
