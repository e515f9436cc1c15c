package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/oref-labs/placement-api/internal/models"
	"github.com/oref-labs/placement-api/internal/sheets"
	"github.com/oref-labs/placement-api/pkg/config"
	appErrors "github.com/oref-labs/placement-api/pkg/errors"
)

const (
	cacheKeyRoster     = "ref:roster"
	cacheKeyListPrefix = "ref:list:"
)

// ReferenceService serves the read-only reference lists with a short-lived
// memoization window. An upstream failure never propagates as an error: the
// caller gets an empty sequence plus a warning, so selection widgets degrade
// to "no options" instead of failing the whole view.
type ReferenceService struct {
	source       sheets.Source
	cache        *CacheService
	fieldMap     config.FieldMap
	defaultYears []string
	logger       *zap.Logger
}

// NewReferenceService constructs the reference fetcher.
func NewReferenceService(source sheets.Source, cache *CacheService, fieldMap config.FieldMap, defaultYears []string, logger *zap.Logger) *ReferenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferenceService{
		source:       source,
		cache:        cache,
		fieldMap:     fieldMap,
		defaultYears: defaultYears,
		logger:       logger,
	}
}

// Roster returns the current student/class pairs. The second value carries
// user-visible warnings when the upstream source failed.
func (s *ReferenceService) Roster(ctx context.Context) ([]models.RosterEntry, []string) {
	var cached []models.RosterEntry
	if hit, err := s.cache.Get(ctx, cacheKeyRoster, &cached); err == nil && hit {
		return cached, nil
	}

	grid, err := s.source.Values(ctx, s.fieldMap.RosterTab)
	if err != nil {
		s.logger.Warn("roster fetch failed", zap.Error(err))
		return []models.RosterEntry{}, []string{fmt.Sprintf("roster unavailable: %v", err)}
	}

	entries, err := parseRoster(grid, s.fieldMap)
	if err != nil {
		s.logger.Warn("roster parse failed", zap.Error(err))
		return []models.RosterEntry{}, []string{fmt.Sprintf("roster unavailable: %v", err)}
	}

	_ = s.cache.Set(ctx, cacheKeyRoster, entries, 0)
	return entries, nil
}

// List returns one named reference list. Unknown names are a validation
// error; upstream failures degrade to an empty list plus a warning.
func (s *ReferenceService) List(ctx context.Context, name string) ([]string, []string, error) {
	if !models.KnownList(name) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown reference list %q", name))
	}

	if name == models.ListClasses {
		roster, warnings := s.Roster(ctx)
		return distinctClasses(roster), warnings, nil
	}

	if name == models.ListYears && s.fieldMap.YearsTab == "" {
		return append([]string{}, s.defaultYears...), nil, nil
	}

	key := cacheKeyListPrefix + name
	var cached []string
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil, nil
	}

	tab, column := s.listBinding(name)
	values, err := s.fetchColumn(ctx, tab, column)
	if err != nil {
		s.logger.Warn("reference fetch failed", zap.String("list", name), zap.Error(err))
		return []string{}, []string{fmt.Sprintf("%s unavailable: %v", name, err)}, nil
	}

	_ = s.cache.Set(ctx, key, values, 0)
	return values, nil, nil
}

// InvalidateAll clears the whole reference cache. Called after every store
// mutation so the next render reflects just-written data.
func (s *ReferenceService) InvalidateAll(ctx context.Context) error {
	return s.cache.InvalidateAll(ctx)
}

func (s *ReferenceService) listBinding(name string) (tab, column string) {
	switch name {
	case models.ListTests:
		return s.fieldMap.TestsTab, s.fieldMap.TestsColumn
	case models.ListPeriods:
		return s.fieldMap.PeriodsTab, s.fieldMap.PeriodsColumn
	case models.ListYears:
		return s.fieldMap.YearsTab, s.fieldMap.YearsColumn
	}
	return "", ""
}

func (s *ReferenceService) fetchColumn(ctx context.Context, tab, column string) ([]string, error) {
	grid, err := s.source.Values(ctx, tab)
	if err != nil {
		return nil, err
	}
	return parseColumn(grid, column)
}

// parseColumn discards the header row and collects the non-blank cells of
// one column, located by header name or falling back to the first column.
func parseColumn(grid [][]string, column string) ([]string, error) {
	if len(grid) == 0 {
		return []string{}, nil
	}
	idx, err := columnIndex(grid[0], column, 0)
	if err != nil {
		return nil, err
	}

	values := make([]string, 0, len(grid)-1)
	for _, row := range grid[1:] {
		if idx >= len(row) || row[idx] == "" {
			continue
		}
		values = append(values, row[idx])
	}
	return values, nil
}

func parseRoster(grid [][]string, fm config.FieldMap) ([]models.RosterEntry, error) {
	if len(grid) == 0 {
		return []models.RosterEntry{}, nil
	}
	nameIdx, err := columnIndex(grid[0], fm.RosterNameColumn, 0)
	if err != nil {
		return nil, err
	}
	classIdx, err := columnIndex(grid[0], fm.RosterClassColumn, 1)
	if err != nil {
		return nil, err
	}

	entries := make([]models.RosterEntry, 0, len(grid)-1)
	for _, row := range grid[1:] {
		if nameIdx >= len(row) || row[nameIdx] == "" {
			continue
		}
		entry := models.RosterEntry{Student: row[nameIdx]}
		if classIdx < len(row) {
			entry.Class = row[classIdx]
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func columnIndex(header []string, name string, fallback int) (int, error) {
	if name == "" {
		return fallback, nil
	}
	for i, h := range header {
		if h == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("column %q not found", name)
}

func distinctClasses(roster []models.RosterEntry) []string {
	seen := make(map[string]struct{}, len(roster))
	classes := make([]string, 0, len(roster))
	for _, entry := range roster {
		if entry.Class == "" {
			continue
		}
		if _, ok := seen[entry.Class]; ok {
			continue
		}
		seen[entry.Class] = struct{}{}
		classes = append(classes, entry.Class)
	}
	return classes
}
