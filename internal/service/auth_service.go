package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/nec-exams/examportal-backend/internal/config"
	"github.com/nec-exams/examportal-backend/internal/model"
	"github.com/nec-exams/examportal-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Common auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRollNumberTaken    = errors.New("roll number already registered")
)

// TokenType distinguishes student vs admin tokens.
type TokenType string

const (
	TokenTypeStudent TokenType = "student"
	TokenTypeAdmin   TokenType = "admin"
)

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	TokenType  TokenType `json:"token_type"`
	UserID     int       `json:"user_id"`
	RollNumber string    `json:"roll_number,omitempty"` // Student only
	Branch     string    `json:"branch,omitempty"`      // Student only
	Section    string    `json:"section,omitempty"`     // Student only
	Username   string    `json:"username,omitempty"`    // Admin only
}

// AuthService handles registration, authentication and JWT issuance.
type AuthService struct {
	cfg         *config.Config
	studentRepo *repository.StudentRepository
	adminRepo   *repository.AdminRepository
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, studentRepo *repository.StudentRepository, adminRepo *repository.AdminRepository) *AuthService {
	return &AuthService{cfg: cfg, studentRepo: studentRepo, adminRepo: adminRepo}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// RegisterStudent creates a student account. Identity fields are
// normalized before the write, so "21cs 101" and "21CS101" collide on the
// unique roll number index rather than registering twice.
func (s *AuthService) RegisterStudent(ctx context.Context, req *model.RegisterStudentRequest) (*model.Student, error) {
	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	student := &model.Student{
		RollNumber:   req.RollNumber,
		Name:         req.Name,
		Branch:       req.Branch,
		Section:      req.Section,
		PasswordHash: hash,
	}
	student.Normalize()

	if err := s.studentRepo.Create(ctx, student); err != nil {
		if errors.Is(err, repository.ErrDuplicateRollNumber) {
			return nil, ErrRollNumberTaken
		}
		return nil, fmt.Errorf("create student: %w", err)
	}
	return student, nil
}

// RollNumberAvailable reports whether a roll number is still free, for the
// registration form's pre-flight check.
func (s *AuthService) RollNumberAvailable(ctx context.Context, rollNumber string) (bool, error) {
	exists, err := s.studentRepo.RollNumberExists(ctx, model.NormalizeRollNumber(rollNumber))
	if err != nil {
		return false, fmt.Errorf("check roll number: %w", err)
	}
	return !exists, nil
}

// LoginStudent authenticates a student and returns the student plus a
// signed token. Lookup misses and password mismatches both come back as
// ErrInvalidCredentials so the response never reveals which one happened.
func (s *AuthService) LoginStudent(ctx context.Context, req *model.StudentLoginRequest) (*model.Student, string, error) {
	student, err := s.studentRepo.GetByRollNumber(ctx, model.NormalizeRollNumber(req.RollNumber))
	if err != nil {
		return nil, "", ErrInvalidCredentials
	}
	if err := s.CheckPassword(student.PasswordHash, req.Password); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.generateToken(Claims{
		TokenType:  TokenTypeStudent,
		UserID:     student.ID,
		RollNumber: student.RollNumber,
		Branch:     student.Branch,
		Section:    student.Section,
	}, student.ID)
	if err != nil {
		return nil, "", err
	}
	return student, token, nil
}

// LoginAdmin authenticates an admin and returns the admin plus a signed token.
func (s *AuthService) LoginAdmin(ctx context.Context, req *model.AdminLoginRequest) (*model.Admin, string, error) {
	admin, err := s.adminRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, "", ErrInvalidCredentials
	}
	if err := s.CheckPassword(admin.PasswordHash, req.Password); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.generateToken(Claims{
		TokenType: TokenTypeAdmin,
		UserID:    admin.ID,
		Username:  admin.Username,
	}, admin.ID)
	if err != nil {
		return nil, "", err
	}
	return admin, token, nil
}

func (s *AuthService) generateToken(claims Claims, subjectID int) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.New().String(),
		Subject:   strconv.Itoa(subjectID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
