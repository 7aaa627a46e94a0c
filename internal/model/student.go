package model

import (
	"strings"
	"time"
)

// Student is an exam-taking user, identified by a unique roll number.
// Name, roll number, branch and section are normalized to upper case on
// write so the same student can never register twice under different
// casings of the same roll number.
type Student struct {
	ID           int       `json:"id"`
	RollNumber   string    `json:"roll_number"`
	Name         string    `json:"name"`
	Branch       string    `json:"branch"`
	Section      string    `json:"section"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// NormalizeRollNumber strips all whitespace and upper-cases a roll number.
func NormalizeRollNumber(raw string) string {
	return strings.ToUpper(strings.Join(strings.Fields(raw), ""))
}

// Normalize applies the upper-case write normalization to all identity fields.
func (s *Student) Normalize() {
	s.RollNumber = NormalizeRollNumber(s.RollNumber)
	s.Name = strings.ToUpper(strings.TrimSpace(s.Name))
	s.Branch = strings.ToUpper(strings.TrimSpace(s.Branch))
	s.Section = strings.ToUpper(strings.TrimSpace(s.Section))
}

// RegisterStudentRequest is the payload for student self-registration.
type RegisterStudentRequest struct {
	Name       string `json:"name" binding:"required,min=2,max=100"`
	RollNumber string `json:"roll_number" binding:"required,min=4,max=20,roll_number"`
	Branch     string `json:"branch" binding:"required,min=1,max=50"`
	Section    string `json:"section" binding:"required,min=1,max=20"`
	Password   string `json:"password" binding:"required,min=6,max=128"`
}

// StudentLoginRequest is the payload for student authentication.
type StudentLoginRequest struct {
	RollNumber string `json:"roll_number" binding:"required,min=4,max=20"`
	Password   string `json:"password" binding:"required,min=4,max=128"`
}

// AdminLoginRequest is the payload for admin authentication.
type AdminLoginRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=4,max=128"`
}

// UpdateStudentRequest is the admin payload for editing a student.
// Password is optional; when empty it is left unchanged.
type UpdateStudentRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Branch   string `json:"branch" binding:"required,min=1,max=50"`
	Section  string `json:"section" binding:"required,min=1,max=20"`
	Password string `json:"password" binding:"omitempty,min=6,max=128"`
}

// Admin is a portal administrator account.
type Admin struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
