package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/nec-exams/examportal-backend/internal/model"
	"github.com/nec-exams/examportal-backend/internal/repository"
)

// StudentService is the admin-side management surface over student accounts.
type StudentService struct {
	studentRepo *repository.StudentRepository
	auth        *AuthService
	log         zerolog.Logger
}

// NewStudentService creates a new StudentService.
func NewStudentService(studentRepo *repository.StudentRepository, auth *AuthService, log zerolog.Logger) *StudentService {
	return &StudentService{
		studentRepo: studentRepo,
		auth:        auth,
		log:         log.With().Str("component", "student_service").Logger(),
	}
}

// List retrieves students with pagination and optional branch/section filters.
func (s *StudentService) List(ctx context.Context, branch, section string, limit, offset int) ([]model.Student, int, error) {
	return s.studentRepo.ListPaginated(ctx, branch, section, limit, offset)
}

// Get retrieves one student.
func (s *StudentService) Get(ctx context.Context, id int) (*model.Student, error) {
	return s.studentRepo.GetByID(ctx, id)
}

// Search returns up to limit students matching the query, for the admin
// suggestion box.
func (s *StudentService) Search(ctx context.Context, query string, limit int) ([]model.Student, error) {
	if limit <= 0 || limit > 25 {
		limit = 10
	}
	return s.studentRepo.Search(ctx, query, limit)
}

// Update edits a student's profile and optionally resets their password.
func (s *StudentService) Update(ctx context.Context, id int, req *model.UpdateStudentRequest) (*model.Student, error) {
	student, err := s.studentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	student.Name = req.Name
	student.Branch = req.Branch
	student.Section = req.Section
	student.Normalize()

	if err := s.studentRepo.Update(ctx, student); err != nil {
		return nil, fmt.Errorf("update student: %w", err)
	}

	if req.Password != "" {
		hash, err := s.auth.HashPassword(req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		if err := s.studentRepo.UpdatePassword(ctx, id, hash); err != nil {
			return nil, fmt.Errorf("update password: %w", err)
		}
	}

	return student, nil
}

// Delete removes a student. Their results go with them through the foreign
// key cascade.
func (s *StudentService) Delete(ctx context.Context, id int) error {
	if err := s.studentRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	s.log.Info().Int("student_id", id).Msg("Student deleted")
	return nil
}
