package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nec-exams/examportal-backend/internal/model"
	"github.com/nec-exams/examportal-backend/internal/repository"
	"github.com/nec-exams/examportal-backend/internal/response"
	"github.com/nec-exams/examportal-backend/internal/service"
)

// DashboardHandler handles admin statistics endpoints.
type DashboardHandler struct {
	statsService  *service.StatsService
	integrityRepo *repository.IntegrityRepository
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(statsService *service.StatsService, integrityRepo *repository.IntegrityRepository) *DashboardHandler {
	return &DashboardHandler{statsService: statsService, integrityRepo: integrityRepo}
}

// Summary godoc
// GET /api/v1/admin/dashboard/summary
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.statsService.GetSummary(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"summary": summary})
}

// SubjectAggregates godoc
// GET /api/v1/admin/dashboard/subjects?branch=CSE
func (h *DashboardHandler) SubjectAggregates(c *gin.Context) {
	aggregates, err := h.statsService.GetSubjectAggregates(c.Request.Context(), normalizedQuery(c, "branch"))
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"subjects": aggregates})
}

// ScoreDistribution godoc
// GET /api/v1/admin/dashboard/distribution?branch=CSE&subject=DBMS
func (h *DashboardHandler) ScoreDistribution(c *gin.Context) {
	buckets, err := h.statsService.GetScoreDistribution(c.Request.Context(), filterFromQuery(c))
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"distribution": buckets})
}

// FilteredStats godoc
// GET /api/v1/admin/dashboard/results?branch=CSE&subject=DBMS
// The statistics block for a filtered result set: overall plus branch and
// section breakdowns.
func (h *DashboardHandler) FilteredStats(c *gin.Context) {
	stats, err := h.statsService.GetFilteredStats(c.Request.Context(), filterFromQuery(c))
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"stats": stats})
}

// Attempts godoc
// GET /api/v1/admin/dashboard/attempts/:branch/:year/:semester/:subject?section=A
// Splits the branch roster into attempted and pending for one offering.
func (h *DashboardHandler) Attempts(c *gin.Context) {
	roster, err := h.statsService.GetAttempts(c.Request.Context(), keyFromParams(c), normalizedQuery(c, "section"))
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"roster": roster})
}

// IntegrityEvents godoc
// GET /api/v1/admin/dashboard/integrity?branch=CSE&limit=100
func (h *DashboardHandler) IntegrityEvents(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 1 || limit > 1000 {
		limit = 100
	}

	events, err := h.integrityRepo.ListRecent(c.Request.Context(), normalizedQuery(c, "branch"), limit)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if events == nil {
		events = []model.IntegrityEvent{}
	}
	response.Success(c, http.StatusOK, gin.H{"events": events})
}
