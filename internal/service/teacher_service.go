package service

import (
	"context"
	"database/sql"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/tutorhive/tutorhive-api/internal/models"
	appErrors "github.com/tutorhive/tutorhive-api/pkg/errors"
)

type teacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.TeacherDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.TeacherDetail, error)
	FindByUserID(ctx context.Context, userID string) (*models.Teacher, error)
	ExistsBySlug(ctx context.Context, slug string, excludeID string) (bool, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	Deactivate(ctx context.Context, id string) error
}

type teacherUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Deactivate(ctx context.Context, id string) error
}

// CreateTeacherRequest onboards a new tutor account with its profile.
type CreateTeacherRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	FullName        string `json:"full_name" validate:"required"`
	DisplayName     string `json:"display_name" validate:"required"`
	Bio             string `json:"bio"`
	Timezone        string `json:"timezone" validate:"required"`
	Subjects        string `json:"subjects"`
	HourlyRateCents int64  `json:"hourly_rate_cents" validate:"gte=0"`
	BookingSlug     string `json:"booking_slug" validate:"required"`
}

// UpdateTeacherRequest modifies a tutor profile.
type UpdateTeacherRequest struct {
	DisplayName     string `json:"display_name" validate:"required"`
	Bio             string `json:"bio"`
	Timezone        string `json:"timezone" validate:"required"`
	Subjects        string `json:"subjects"`
	HourlyRateCents int64  `json:"hourly_rate_cents" validate:"gte=0"`
	BookingSlug     string `json:"booking_slug" validate:"required"`
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// TeacherService handles tutor account workflows for the admin console.
type TeacherService struct {
	repo      teacherRepository
	users     teacherUserRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService creates a new teacher service.
func NewTeacherService(repo teacherRepository, users teacherUserRepository, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, users: users, validator: validate, logger: logger}
}

// List returns paginated tutor accounts.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.TeacherDetail, *models.Pagination, error) {
	teachers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return teachers, pagination, nil
}

// Get returns one tutor by identifier.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.TeacherDetail, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// Create provisions the user account and tutor profile together.
func (s *TeacherService) Create(ctx context.Context, req CreateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	slug := normalizeSlug(req.BookingSlug)
	if !slugPattern.MatchString(slug) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "booking slug must be lowercase letters, digits and dashes")
	}

	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}

	exists, err := s.repo.ExistsBySlug(ctx, slug, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check booking slug")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "booking slug already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Role:         models.RoleTeacher,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user account")
	}

	teacher := &models.Teacher{
		UserID:          user.ID,
		DisplayName:     req.DisplayName,
		Bio:             req.Bio,
		Timezone:        req.Timezone,
		Subjects:        req.Subjects,
		HourlyRateCents: req.HourlyRateCents,
		BookingSlug:     slug,
		Active:          true,
	}
	if err := s.repo.Create(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher profile")
	}
	return teacher, nil
}

// Update modifies a tutor profile.
func (s *TeacherService) Update(ctx context.Context, id string, req UpdateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	slug := normalizeSlug(req.BookingSlug)
	if !slugPattern.MatchString(slug) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "booking slug must be lowercase letters, digits and dashes")
	}

	exists, err := s.repo.ExistsBySlug(ctx, slug, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check booking slug")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "booking slug already taken")
	}

	teacher := detail.Teacher
	teacher.DisplayName = req.DisplayName
	teacher.Bio = req.Bio
	teacher.Timezone = req.Timezone
	teacher.Subjects = req.Subjects
	teacher.HourlyRateCents = req.HourlyRateCents
	teacher.BookingSlug = slug
	teacher.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, &teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}
	return &teacher, nil
}

// Deactivate disables the tutor profile and its login.
func (s *TeacherService) Deactivate(ctx context.Context, id string) error {
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate teacher")
	}
	if err := s.users.Deactivate(ctx, detail.UserID); err != nil {
		s.logger.Warn("failed to deactivate teacher login", zap.Error(err))
	}
	return nil
}

func normalizeSlug(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
