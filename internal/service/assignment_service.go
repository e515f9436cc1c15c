package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oref-labs/placement-api/internal/models"
	appErrors "github.com/oref-labs/placement-api/pkg/errors"
)

type assignmentRepository interface {
	Create(ctx context.Context, a *models.Assignment) error
	List(ctx context.Context) ([]models.Assignment, error)
	FindByID(ctx context.Context, id int64) (*models.Assignment, error)
	Update(ctx context.Context, a *models.Assignment) error
	DeleteAll(ctx context.Context) (int64, error)
}

type cacheInvalidator interface {
	InvalidateAll(ctx context.Context) error
}

// BatchCreateRequest holds one save action: the selected reference values
// and the set of students, each of which becomes an independent row.
type BatchCreateRequest struct {
	Year     string   `json:"year" validate:"required"`
	Period   string   `json:"period" validate:"required"`
	TestID   string   `json:"test_id" validate:"required"`
	Class    string   `json:"class" validate:"required"`
	Students []string `json:"students" validate:"required,min=1,dive,required"`
}

// UpdateAssignmentRequest replaces every mutable field of one row.
type UpdateAssignmentRequest struct {
	Year    string `json:"year" validate:"required"`
	Period  string `json:"period" validate:"required"`
	TestID  string `json:"test_id" validate:"required"`
	Class   string `json:"class" validate:"required"`
	Student string `json:"student" validate:"required"`
}

// AssignmentService owns all writes to the assignment store and the
// clear-all confirmation gate. After any mutation the shared reference
// cache is cleared so derived views see the new rows immediately.
type AssignmentService struct {
	repo      assignmentRepository
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger

	clearWindow time.Duration
	mu          sync.Mutex
	pending     map[string]time.Time
	now         func() time.Time
}

// NewAssignmentService constructs the assignment service.
func NewAssignmentService(repo assignmentRepository, cache cacheInvalidator, validate *validator.Validate, clearWindow time.Duration, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if clearWindow <= 0 {
		clearWindow = 2 * time.Minute
	}
	return &AssignmentService{
		repo:        repo,
		cache:       cache,
		validator:   validate,
		logger:      logger,
		clearWindow: clearWindow,
		pending:     make(map[string]time.Time),
		now:         time.Now,
	}
}

// CreateBatch inserts one row per selected student. There is no dedup,
// neither within the batch nor against existing rows: saving the same
// selection twice doubles the rows, as the data model allows.
func (s *AssignmentService) CreateBatch(ctx context.Context, actor string, req BatchCreateRequest) ([]models.Assignment, error) {
	if strings.TrimSpace(actor) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "an editor identifier is required before saving")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid placement payload")
	}

	created := make([]models.Assignment, 0, len(req.Students))
	for _, student := range req.Students {
		a := models.Assignment{
			Year:     req.Year,
			Period:   req.Period,
			TestID:   req.TestID,
			Class:    req.Class,
			Student:  student,
			EditedBy: actor,
		}
		if err := s.repo.Create(ctx, &a); err != nil {
			// Earlier rows of the batch are already committed; derived
			// views must not serve stale data while the caller retries.
			if len(created) > 0 {
				s.invalidate(ctx)
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save placements")
		}
		created = append(created, a)
	}

	s.invalidate(ctx)
	s.logger.Info("placements saved", zap.Int("count", len(created)), zap.String("actor", actor))
	return created, nil
}

// List returns all stored rows, straight from the store.
func (s *AssignmentService) List(ctx context.Context) ([]models.Assignment, error) {
	assignments, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list placements")
	}
	return assignments, nil
}

// Get fetches one row by id.
func (s *AssignmentService) Get(ctx context.Context, id int64) (*models.Assignment, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "placement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load placement")
	}
	return a, nil
}

// Update replaces all mutable fields of the row at id. The id is the only
// stable update key; missing rows report not-found with no effect.
func (s *AssignmentService) Update(ctx context.Context, actor string, id int64, req UpdateAssignmentRequest) (*models.Assignment, error) {
	if strings.TrimSpace(actor) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "an editor identifier is required before saving")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid placement payload")
	}

	a := models.Assignment{
		ID:       id,
		Year:     req.Year,
		Period:   req.Period,
		TestID:   req.TestID,
		Class:    req.Class,
		Student:  req.Student,
		EditedBy: actor,
	}
	if err := s.repo.Update(ctx, &a); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "placement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update placement")
	}

	s.invalidate(ctx)
	return &a, nil
}

// RequestClear opens the two-step clear-all gate and returns a single-use
// confirmation token valid for the configured window.
func (s *AssignmentService) RequestClear(ctx context.Context, actor string) *models.ClearConfirmation {
	token := uuid.NewString()
	expires := s.now().Add(s.clearWindow)

	s.mu.Lock()
	s.prunePendingLocked()
	s.pending[token] = expires
	s.mu.Unlock()

	s.logger.Info("clear-all requested", zap.String("actor", actor))
	return &models.ClearConfirmation{Token: token, ExpiresAt: expires}
}

// ConfirmClear consumes a pending token and destroys every row. The delete
// is irreversible; unknown or expired tokens change nothing.
func (s *AssignmentService) ConfirmClear(ctx context.Context, actor, token string) (int64, error) {
	if !s.consumeToken(token) {
		return 0, appErrors.Clone(appErrors.ErrGone, "clear confirmation is missing or expired")
	}

	deleted, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear placements")
	}

	s.invalidate(ctx)
	s.logger.Info("placements cleared", zap.Int64("deleted", deleted), zap.String("actor", actor))
	return deleted, nil
}

// CancelClear releases a pending confirmation without deleting anything.
func (s *AssignmentService) CancelClear(token string) error {
	if !s.consumeToken(token) {
		return appErrors.Clone(appErrors.ErrGone, "clear confirmation is missing or expired")
	}
	return nil
}

func (s *AssignmentService) consumeToken(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prunePendingLocked()

	_, ok := s.pending[token]
	if ok {
		delete(s.pending, token)
	}
	return ok
}

func (s *AssignmentService) prunePendingLocked() {
	now := s.now()
	for token, expires := range s.pending {
		if now.After(expires) {
			delete(s.pending, token)
		}
	}
}

func (s *AssignmentService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateAll(ctx); err != nil {
		s.logger.Warn("cache invalidation after write failed", zap.Error(err))
	}
}
