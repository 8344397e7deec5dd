package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tutorhive/tutorhive-api/internal/models"
	appErrors "github.com/tutorhive/tutorhive-api/pkg/errors"
	"github.com/tutorhive/tutorhive-api/pkg/storage"
)

type materialRepository interface {
	List(ctx context.Context, filter models.MaterialFilter) ([]models.Material, int, error)
	FindByID(ctx context.Context, teacherID, id string) (*models.Material, error)
	Create(ctx context.Context, material *models.Material) error
	UpdateMeta(ctx context.Context, material *models.Material) error
	Delete(ctx context.Context, teacherID, id string) error
	Share(ctx context.Context, materialID, classID string) error
	Unshare(ctx context.Context, materialID, classID string) error
}

type materialClassRepository interface {
	FindByID(ctx context.Context, teacherID, id string) (*models.Class, error)
}

type materialStorage interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Delete(filename string) error
}

// UploadMaterialRequest carries the metadata of an upload.
type UploadMaterialRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	FileName    string `json:"-" validate:"required"`
	MIMEType    string `json:"-" validate:"required"`
	SizeBytes   int64  `json:"-" validate:"gt=0"`
}

// UpdateMaterialRequest modifies material metadata; the file is immutable.
type UpdateMaterialRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

// MaterialLink is a short-lived signed download pointer.
type MaterialLink struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// MaterialService handles the teaching material library.
type MaterialService struct {
	repo         materialRepository
	classes      materialClassRepository
	storage      materialStorage
	signer       *storage.SignedURLSigner
	maxSizeBytes int64
	allowedMIMEs []string
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewMaterialService creates a new material service.
func NewMaterialService(repo materialRepository, classes materialClassRepository, store materialStorage, signer *storage.SignedURLSigner, maxSizeBytes int64, allowedMIMEs []string, validate *validator.Validate, logger *zap.Logger) *MaterialService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaterialService{
		repo:         repo,
		classes:      classes,
		storage:      store,
		signer:       signer,
		maxSizeBytes: maxSizeBytes,
		allowedMIMEs: allowedMIMEs,
		validator:    validate,
		logger:       logger,
	}
}

// List returns paginated materials of a teacher.
func (s *MaterialService) List(ctx context.Context, filter models.MaterialFilter) ([]models.Material, *models.Pagination, error) {
	materials, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list materials")
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
	return materials, pagination, nil
}

// Get returns one material scoped to the teacher.
func (s *MaterialService) Get(ctx context.Context, teacherID, id string) (*models.Material, error) {
	material, err := s.repo.FindByID(ctx, teacherID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}
	return material, nil
}

// Upload validates and stores a new material.
func (s *MaterialService) Upload(ctx context.Context, teacherID string, req UploadMaterialRequest, r io.Reader) (*models.Material, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid material payload")
	}
	if s.maxSizeBytes > 0 && req.SizeBytes > s.maxSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file exceeds the size limit")
	}
	if len(s.allowedMIMEs) > 0 && !containsMIME(s.allowedMIMEs, req.MIMEType) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file type is not allowed")
	}

	relPath := fmt.Sprintf("materials/%s/%s-%s", teacherID, uuid.NewString(), filepath.Base(req.FileName))
	stored, err := s.storage.SaveStream(relPath, r)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store material file")
	}

	material := &models.Material{
		TeacherID:   teacherID,
		Title:       req.Title,
		Description: req.Description,
		FileName:    req.FileName,
		FilePath:    stored,
		MIMEType:    req.MIMEType,
		SizeBytes:   req.SizeBytes,
	}
	if err := s.repo.Create(ctx, material); err != nil {
		if cleanupErr := s.storage.Delete(stored); cleanupErr != nil {
			s.logger.Warn("failed to remove orphaned upload", zap.Error(cleanupErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create material")
	}
	return material, nil
}

// Update modifies material metadata.
func (s *MaterialService) Update(ctx context.Context, teacherID, id string, req UpdateMaterialRequest) (*models.Material, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid material payload")
	}

	material, err := s.repo.FindByID(ctx, teacherID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}

	material.Title = req.Title
	material.Description = req.Description
	if err := s.repo.UpdateMeta(ctx, material); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update material")
	}
	return material, nil
}

// Delete removes the material row and its stored file.
func (s *MaterialService) Delete(ctx context.Context, teacherID, id string) error {
	material, err := s.repo.FindByID(ctx, teacherID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}

	if err := s.repo.Delete(ctx, teacherID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete material")
	}
	if err := s.storage.Delete(material.FilePath); err != nil {
		s.logger.Warn("failed to delete stored material file", zap.Error(err))
	}
	return nil
}

// Share exposes a material to one of the teacher's classes.
func (s *MaterialService) Share(ctx context.Context, teacherID, materialID, classID string) error {
	if _, err := s.repo.FindByID(ctx, teacherID, materialID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}
	if _, err := s.classes.FindByID(ctx, teacherID, classID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if err := s.repo.Share(ctx, materialID, classID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to share material")
	}
	return nil
}

// Unshare removes a material from a class.
func (s *MaterialService) Unshare(ctx context.Context, teacherID, materialID, classID string) error {
	if _, err := s.repo.FindByID(ctx, teacherID, materialID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}
	if err := s.repo.Unshare(ctx, materialID, classID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unshare material")
	}
	return nil
}

// DownloadLink returns a signed download token for a material.
func (s *MaterialService) DownloadLink(ctx context.Context, teacherID, id string) (*MaterialLink, error) {
	material, err := s.repo.FindByID(ctx, teacherID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}

	token, expiresAt, err := s.signer.Generate(material.ID, material.FilePath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	return &MaterialLink{Token: token, ExpiresAt: expiresAt.Format("2006-01-02T15:04:05Z07:00")}, nil
}

func containsMIME(allowed []string, mime string) bool {
	for _, m := range allowed {
		if strings.EqualFold(m, mime) {
			return true
		}
	}
	return false
}
