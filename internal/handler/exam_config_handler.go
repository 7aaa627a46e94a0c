package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nec-exams/examportal-backend/internal/model"
	"github.com/nec-exams/examportal-backend/internal/response"
	"github.com/nec-exams/examportal-backend/internal/service"
	"github.com/nec-exams/examportal-backend/internal/validator"
)

// ExamConfigHandler handles admin exam offering endpoints.
type ExamConfigHandler struct {
	configService *service.ExamConfigService
}

// NewExamConfigHandler creates a new ExamConfigHandler.
func NewExamConfigHandler(configService *service.ExamConfigService) *ExamConfigHandler {
	return &ExamConfigHandler{configService: configService}
}

// keyFromParams builds the exam key from the standard four path params.
func keyFromParams(c *gin.Context) model.ExamKey {
	return model.ExamKey{
		Branch:   c.Param("branch"),
		Year:     c.Param("year"),
		Semester: c.Param("semester"),
		Subject:  c.Param("subject"),
	}.Normalize()
}

// Upsert godoc
// POST /api/v1/admin/exams
// Creates or replaces an exam offering's delivery parameters.
func (h *ExamConfigHandler) Upsert(c *gin.Context) {
	var req model.UpsertExamConfigRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	cfg, err := h.configService.Upsert(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"config": cfg})
}

// List godoc
// GET /api/v1/admin/exams?branch=CSE
// Lists offerings, optionally filtered by branch.
func (h *ExamConfigHandler) List(c *gin.Context) {
	configs, err := h.configService.List(c.Request.Context(), normalizedQuery(c, "branch"))
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if configs == nil {
		configs = []model.ExamConfig{}
	}
	response.Success(c, http.StatusOK, gin.H{"configs": configs})
}

// Get godoc
// GET /api/v1/admin/exams/:branch/:year/:semester/:subject
func (h *ExamConfigHandler) Get(c *gin.Context) {
	cfg, err := h.configService.Get(c.Request.Context(), keyFromParams(c))
	if err != nil {
		if errors.Is(err, service.ErrConfigNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrConfigNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"config": cfg})
}

// ListBranches godoc
// GET /api/v1/admin/exams/branches
func (h *ExamConfigHandler) ListBranches(c *gin.Context) {
	branches, err := h.configService.ListBranches(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if branches == nil {
		branches = []string{}
	}
	response.Success(c, http.StatusOK, gin.H{"branches": branches})
}

// Delete godoc
// DELETE /api/v1/admin/exams/:id
// Removes an offering with its questions and results.
func (h *ExamConfigHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.configService.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrConfigNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrConfigNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}
