package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oref-labs/placement-api/internal/models"
	appErrors "github.com/oref-labs/placement-api/pkg/errors"
	"github.com/oref-labs/placement-api/pkg/export"
	"github.com/oref-labs/placement-api/pkg/storage"
)

// Export types and formats.
const (
	ExportTypeAssignments = "assignments"
	ExportTypeUnconnected = "unconnected"
	ExportFormatCSV       = "csv"
	ExportFormatPDF       = "pdf"
)

type exportSource interface {
	Assignments(ctx context.Context) ([]models.Assignment, error)
	Unconnected(ctx context.Context) ([]string, []string, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportRequest selects what to render and how.
type ExportRequest struct {
	Type   string `json:"type" validate:"required,oneof=assignments unconnected"`
	Format string `json:"format" validate:"required,oneof=csv pdf"`
}

// ExportResult describes a rendered file and its signed download link.
type ExportResult struct {
	ID        string    `json:"id"`
	Format    string    `json:"format"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExportDownload is a resolved download: an open file plus serving metadata.
type ExportDownload struct {
	File        *os.File
	Filename    string
	ContentType string
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
}

// ExportService renders report datasets synchronously, persists the file and
// hands back a signed download URL.
type ExportService struct {
	source    exportSource
	storage   fileStorage
	csv       csvRenderer
	pdf       pdfRenderer
	signer    *storage.SignedURLSigner
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(source exportSource, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, validate *validator.Validate, logger *zap.Logger) *ExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		source:    source,
		storage:   store,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		signer:    signer,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Generate renders the requested dataset, saves it and signs a download
// link. The second value carries reference warnings for the unconnected set.
func (s *ExportService) Generate(ctx context.Context, req ExportRequest) (*ExportResult, []string, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export request")
	}

	dataset, warnings, err := s.buildDataset(ctx, req.Type)
	if err != nil {
		return nil, nil, err
	}

	var payload []byte
	switch req.Format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(*dataset)
	case ExportFormatPDF:
		payload, err = s.pdf.Render(*dataset, req.Type)
	}
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	exportID := uuid.NewString()
	relPath := fmt.Sprintf("%s-%s.%s", req.Type, exportID, req.Format)
	if _, err := s.storage.Save(relPath, payload); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}

	token, expiresAt, err := s.signer.Generate(exportID, relPath)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}

	s.logger.Info("export generated", zap.String("type", req.Type), zap.String("format", req.Format), zap.String("file", relPath))
	return &ExportResult{
		ID:        exportID,
		Format:    req.Format,
		URL:       fmt.Sprintf("%s/exports/download?token=%s", s.cfg.APIPrefix, token),
		ExpiresAt: expiresAt,
	}, warnings, nil
}

// ResolveDownload validates a signed token and opens the referenced file.
func (s *ExportService) ResolveDownload(ctx context.Context, token string) (*ExportDownload, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidLink, "")
	}

	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export file no longer available")
	}

	contentType := "text/csv; charset=utf-8"
	if ext := relPath[len(relPath)-3:]; ext == ExportFormatPDF {
		contentType = "application/pdf"
	}
	return &ExportDownload{File: file, Filename: relPath, ContentType: contentType}, nil
}

func (s *ExportService) buildDataset(ctx context.Context, exportType string) (*export.Dataset, []string, error) {
	switch exportType {
	case ExportTypeAssignments:
		rows, err := s.source.Assignments(ctx)
		if err != nil {
			return nil, nil, err
		}
		headers := []string{"id", "year", "period", "test_id", "class", "student", "edited_by", "edited_at"}
		dataset := &export.Dataset{Headers: headers, Rows: make([]map[string]string, 0, len(rows))}
		for _, a := range rows {
			dataset.Rows = append(dataset.Rows, map[string]string{
				"id":        strconv.FormatInt(a.ID, 10),
				"year":      a.Year,
				"period":    a.Period,
				"test_id":   a.TestID,
				"class":     a.Class,
				"student":   a.Student,
				"edited_by": a.EditedBy,
				"edited_at": a.EditedAt.UTC().Format(time.RFC3339),
			})
		}
		return dataset, nil, nil

	case ExportTypeUnconnected:
		names, warnings, err := s.source.Unconnected(ctx)
		if err != nil {
			return nil, nil, err
		}
		dataset := &export.Dataset{Headers: []string{"student"}, Rows: make([]map[string]string, 0, len(names))}
		for _, name := range names {
			dataset.Rows = append(dataset.Rows, map[string]string{"student": name})
		}
		return dataset, warnings, nil
	}

	return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown export type %q", exportType))
}
