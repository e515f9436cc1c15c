package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/oref-labs/placement-api/internal/models"
	appErrors "github.com/oref-labs/placement-api/pkg/errors"
)

type reportAssignmentRepository interface {
	List(ctx context.Context) ([]models.Assignment, error)
	FindByID(ctx context.Context, id int64) (*models.Assignment, error)
	DistinctStudents(ctx context.Context) ([]string, error)
}

type referenceProvider interface {
	Roster(ctx context.Context) ([]models.RosterEntry, []string)
	List(ctx context.Context, name string) ([]string, []string, error)
}

// ReportService reconciles the read-only reference data against the
// assignment store for derived views, without mutating either side.
type ReportService struct {
	repo   reportAssignmentRepository
	refs   referenceProvider
	logger *zap.Logger
}

// NewReportService constructs the report service.
func NewReportService(repo reportAssignmentRepository, refs referenceProvider, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{repo: repo, refs: refs, logger: logger}
}

// Assignments returns the full report row set, live from the store.
func (s *ReportService) Assignments(ctx context.Context) ([]models.Assignment, error) {
	assignments, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build report")
	}
	return assignments, nil
}

// Unconnected computes the roster entries with no assignment row. The set
// difference is recomputed from live data on every call; caching it would
// show a student as unconnected right after they were connected.
func (s *ReportService) Unconnected(ctx context.Context) ([]string, []string, error) {
	roster, warnings := s.refs.Roster(ctx)

	assigned, err := s.repo.DistinctStudents(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build report")
	}

	assignedSet := make(map[string]struct{}, len(assigned))
	for _, name := range assigned {
		assignedSet[name] = struct{}{}
	}

	unconnected := make([]string, 0, len(roster))
	seen := make(map[string]struct{}, len(roster))
	for _, entry := range roster {
		if _, ok := assignedSet[entry.Student]; ok {
			continue
		}
		if _, ok := seen[entry.Student]; ok {
			continue
		}
		seen[entry.Student] = struct{}{}
		unconnected = append(unconnected, entry.Student)
	}
	return unconnected, warnings, nil
}

// EditForm builds the edit view for one row: the stored values, the current
// reference options, and a preselection. A stored value that has drifted out
// of its reference list defaults to the first available option and is listed
// in StaleFields, so the row stays editable after upstream roster changes.
func (s *ReportService) EditForm(ctx context.Context, id int64) (*models.EditForm, []string, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "placement not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load placement")
	}

	var warnings []string
	collect := func(name string) []string {
		values, w, err := s.refs.List(ctx, name)
		if err != nil {
			s.logger.Warn("edit options fetch failed", zap.String("list", name), zap.Error(err))
			return nil
		}
		warnings = append(warnings, w...)
		return values
	}

	roster, rosterWarnings := s.refs.Roster(ctx)
	warnings = append(warnings, rosterWarnings...)
	students := make([]string, 0, len(roster))
	for _, entry := range roster {
		students = append(students, entry.Student)
	}

	options := models.EditOptions{
		Years:    collect(models.ListYears),
		Periods:  collect(models.ListPeriods),
		Tests:    collect(models.ListTests),
		Classes:  collect(models.ListClasses),
		Students: students,
	}

	form := &models.EditForm{Assignment: *row, Options: options}
	form.Selected.Year = pickSelection(row.Year, options.Years, "year", &form.StaleFields)
	form.Selected.Period = pickSelection(row.Period, options.Periods, "period", &form.StaleFields)
	form.Selected.TestID = pickSelection(row.TestID, options.Tests, "test_id", &form.StaleFields)
	form.Selected.Class = pickSelection(row.Class, options.Classes, "class", &form.StaleFields)
	form.Selected.Student = pickSelection(row.Student, options.Students, "student", &form.StaleFields)

	return form, warnings, nil
}

// pickSelection keeps the stored value when the current list still carries
// it, otherwise defaults to the first available option and records the field
// as stale. With no options at all the stored value stands as-is.
func pickSelection(stored string, options []string, field string, stale *[]string) string {
	for _, opt := range options {
		if opt == stored {
			return stored
		}
	}
	if len(options) == 0 {
		return stored
	}
	*stale = append(*stale, field)
	return options[0]
}
