package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nec-exams/examportal-backend/internal/model"
	"github.com/nec-exams/examportal-backend/internal/response"
	"github.com/nec-exams/examportal-backend/internal/service"
	"github.com/nec-exams/examportal-backend/internal/validator"
)

// QuestionHandler handles admin question bank endpoints. Everything here
// exposes correct answers and is mounted behind the admin JWT only.
type QuestionHandler struct {
	questionService *service.QuestionService
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// Create godoc
// POST /api/v1/admin/questions
func (h *QuestionHandler) Create(c *gin.Context) {
	var req model.CreateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	q, err := h.questionService.Create(c.Request.Context(), &req)
	if err != nil {
		h.failCreate(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"question": q})
}

// Import godoc
// POST /api/v1/admin/questions/import
// Bulk imports questions from pasted document text.
func (h *QuestionHandler) Import(c *gin.Context) {
	var req model.ImportQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questions, err := h.questionService.Import(c.Request.Context(), &req)
	if err != nil {
		h.failCreate(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{
		"imported":  len(questions),
		"questions": questions,
	})
}

// List godoc
// GET /api/v1/admin/questions/:branch/:year/:semester/:subject?section=A
func (h *QuestionHandler) List(c *gin.Context) {
	questions, err := h.questionService.List(c.Request.Context(), keyFromParams(c), c.Query("section"))
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if questions == nil {
		questions = []model.Question{}
	}
	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// ListSections godoc
// GET /api/v1/admin/questions/:branch/:year/:semester/:subject/sections
func (h *QuestionHandler) ListSections(c *gin.Context) {
	sections, err := h.questionService.ListSections(c.Request.Context(), keyFromParams(c))
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if sections == nil {
		sections = []string{}
	}
	response.Success(c, http.StatusOK, gin.H{"sections": sections})
}

// Update godoc
// PUT /api/v1/admin/questions/:id
func (h *QuestionHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	q, err := h.questionService.Update(c.Request.Context(), id, &req)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		h.failCreate(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"question": q})
}

// Delete godoc
// DELETE /api/v1/admin/questions/:id
func (h *QuestionHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.questionService.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// failCreate maps authoring errors onto API codes.
func (h *QuestionHandler) failCreate(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrConfigNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrConfigNotFound)
	case errors.Is(err, service.ErrNothingParsed),
		errors.Is(err, model.ErrTooFewOptions),
		errors.Is(err, model.ErrCorrectOutOfRange),
		errors.Is(err, model.ErrEmptyQuestionText),
		errors.Is(err, model.ErrNonPositiveMarks):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
