package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nec-exams/examportal-backend/internal/model"
	"github.com/nec-exams/examportal-backend/internal/repository"
	"github.com/nec-exams/examportal-backend/internal/response"
	"github.com/nec-exams/examportal-backend/internal/service"
)

// ResultHandler handles admin result endpoints.
type ResultHandler struct {
	resultService *service.ResultService
}

// NewResultHandler creates a new ResultHandler.
func NewResultHandler(resultService *service.ResultService) *ResultHandler {
	return &ResultHandler{resultService: resultService}
}

func filterFromQuery(c *gin.Context) repository.ResultFilter {
	return repository.ResultFilter{
		Branch:     c.Query("branch"),
		Year:       c.Query("year"),
		Semester:   c.Query("semester"),
		Subject:    c.Query("subject"),
		Section:    normalizedQuery(c, "section"),
		RollNumber: c.Query("roll_number"),
	}
}

// List godoc
// GET /api/v1/admin/results?branch=CSE&subject=DBMS&page=1
func (h *ResultHandler) List(c *gin.Context) {
	limit, offset := paginationParams(c)

	results, total, err := h.resultService.List(c.Request.Context(), filterFromQuery(c), limit, offset)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if results == nil {
		results = []model.ExamResult{}
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"results": results},
		response.NewPagination(pageFromOffset(limit, offset), limit, total))
}

// Get godoc
// GET /api/v1/admin/results/:id
func (h *ResultHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, err := h.resultService.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrResultNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// FilterOptions godoc
// GET /api/v1/admin/results/filters?column=subject&branch=CSE
// Distinct recorded values for one filter dropdown.
func (h *ResultHandler) FilterOptions(c *gin.Context) {
	column := c.DefaultQuery("column", "subject")
	values, err := h.resultService.FilterOptions(c.Request.Context(), column, normalizedQuery(c, "branch"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}
	if values == nil {
		values = []string{}
	}
	response.Success(c, http.StatusOK, gin.H{"values": values})
}

// Delete godoc
// DELETE /api/v1/admin/results/:id
// Erasing a result re-opens the offering for that student.
func (h *ResultHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.resultService.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrResultNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}
