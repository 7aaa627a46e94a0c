package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nec-exams/examportal-backend/internal/middleware"
	"github.com/nec-exams/examportal-backend/internal/model"
	"github.com/nec-exams/examportal-backend/internal/response"
	"github.com/nec-exams/examportal-backend/internal/service"
	"github.com/nec-exams/examportal-backend/internal/validator"
)

// StudentPortalHandler handles the student-facing exam endpoints. The
// WebSocket stream is the primary surface during an attempt; these HTTP
// routes cover discovery, the initial draw and the final submit.
type StudentPortalHandler struct {
	portalService  *service.PortalService
	sessionService *service.ExamSessionService
	studentService *service.StudentService
}

// NewStudentPortalHandler creates a new StudentPortalHandler.
func NewStudentPortalHandler(portalService *service.PortalService, sessionService *service.ExamSessionService, studentService *service.StudentService) *StudentPortalHandler {
	return &StudentPortalHandler{
		portalService:  portalService,
		sessionService: sessionService,
		studentService: studentService,
	}
}

func (h *StudentPortalHandler) currentStudent(c *gin.Context) (*model.Student, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, false
	}
	student, err := h.studentService.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
		return nil, false
	}
	return student, true
}

// ListExams godoc
// GET /api/v1/student/exams
// Lists the offerings of the student's branch, completed ones flagged.
func (h *StudentPortalHandler) ListExams(c *gin.Context) {
	student, ok := h.currentStudent(c)
	if !ok {
		return
	}

	exams, err := h.portalService.ListExams(c.Request.Context(), student)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// StartExam godoc
// POST /api/v1/student/exams/:branch/:year/:semester/:subject/start
// Creates or resumes the student's session and returns the full attempt
// state: questions (no answers), saved selections, review flags, countdown.
func (h *StudentPortalHandler) StartExam(c *gin.Context) {
	student, ok := h.currentStudent(c)
	if !ok {
		return
	}

	sess, err := h.sessionService.StartOrResume(c.Request.Context(), student, keyFromParams(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadySubmitted):
			response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
		case errors.Is(err, service.ErrConfigNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrConfigNotFound)
		case errors.Is(err, service.ErrNoQuestions):
			response.Fail(c, http.StatusNotFound, response.ErrNoQuestions)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"session": sess,
		"exam_config": gin.H{
			"number_of_questions":     len(sess.Questions),
			"time_limit_minutes":      sess.TimeLimitMinutes,
			"total_questions_in_pool": sess.QuestionPoolSize,
		},
	})
}

// SubmitExam godoc
// POST /api/v1/student/exams/submit
// HTTP fallback submit for clients whose socket died.
func (h *StudentPortalHandler) SubmitExam(c *gin.Context) {
	student, ok := h.currentStudent(c)
	if !ok {
		return
	}

	var req model.SubmitExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	key := model.ExamKey{Branch: req.Branch, Year: req.Year, Semester: req.Semester, Subject: req.Subject}
	result, err := h.sessionService.Submit(c.Request.Context(), student, key, req.Answers)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadySubmitted):
			response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
		case errors.Is(err, service.ErrNoActiveSession):
			response.Fail(c, http.StatusNotFound, response.ErrNoActiveSession)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// ListOwnResults godoc
// GET /api/v1/student/results
func (h *StudentPortalHandler) ListOwnResults(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	results, err := h.portalService.ListOwnResults(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"results": results})
}
