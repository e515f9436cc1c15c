package service

import (
	"context"
	"database/sql"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oref-labs/placement-api/internal/models"
	appErrors "github.com/oref-labs/placement-api/pkg/errors"
)

type stubAssignmentRepo struct {
	rows        []models.Assignment
	nextID      int64
	createErr   error
	failOnCall  int
	createCalls int
	updateErr   error
	deleteErr   error
	deletedAll  int
}

func (r *stubAssignmentRepo) Create(ctx context.Context, a *models.Assignment) error {
	r.createCalls++
	if r.createErr != nil && (r.failOnCall == 0 || r.createCalls == r.failOnCall) {
		return r.createErr
	}
	r.nextID++
	a.ID = r.nextID
	a.EditedAt = time.Now().UTC()
	r.rows = append(r.rows, *a)
	return nil
}

func (r *stubAssignmentRepo) List(ctx context.Context) ([]models.Assignment, error) {
	return r.rows, nil
}

func (r *stubAssignmentRepo) FindByID(ctx context.Context, id int64) (*models.Assignment, error) {
	for i := range r.rows {
		if r.rows[i].ID == id {
			row := r.rows[i]
			return &row, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *stubAssignmentRepo) Update(ctx context.Context, a *models.Assignment) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	for i := range r.rows {
		if r.rows[i].ID == a.ID {
			a.EditedAt = time.Now().UTC()
			r.rows[i] = *a
			return nil
		}
	}
	return sql.ErrNoRows
}

func (r *stubAssignmentRepo) DeleteAll(ctx context.Context) (int64, error) {
	if r.deleteErr != nil {
		return 0, r.deleteErr
	}
	r.deletedAll++
	n := int64(len(r.rows))
	r.rows = nil
	return n, nil
}

func (r *stubAssignmentRepo) DistinctStudents(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	var students []string
	for _, row := range r.rows {
		if _, ok := seen[row.Student]; ok {
			continue
		}
		seen[row.Student] = struct{}{}
		students = append(students, row.Student)
	}
	return students, nil
}

type stubInvalidator struct {
	calls int
	err   error
}

func (s *stubInvalidator) InvalidateAll(ctx context.Context) error {
	s.calls++
	return s.err
}

func newAssignmentService(repo *stubAssignmentRepo, cache *stubInvalidator) *AssignmentService {
	return NewAssignmentService(repo, cache, nil, 2*time.Minute, zap.NewNop())
}

func TestAssignmentServiceCreateBatch(t *testing.T) {
	repo := &stubAssignmentRepo{}
	cache := &stubInvalidator{}
	svc := newAssignmentService(repo, cache)

	created, err := svc.CreateBatch(context.Background(), "michal", BatchCreateRequest{
		Year:     "5785",
		Period:   "winter",
		TestID:   "T-1",
		Class:    "9a",
		Students: []string{"Dana Levi", "Omri Peled"},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, int64(1), created[0].ID)
	assert.Equal(t, "Omri Peled", created[1].Student)
	assert.Equal(t, "michal", created[1].EditedBy)
	assert.Len(t, repo.rows, 2)
	assert.Equal(t, 1, cache.calls)
}

func TestAssignmentServiceCreateBatchSameStudentTwice(t *testing.T) {
	repo := &stubAssignmentRepo{}
	svc := newAssignmentService(repo, &stubInvalidator{})

	created, err := svc.CreateBatch(context.Background(), "michal", BatchCreateRequest{
		Year:     "5785",
		Period:   "winter",
		TestID:   "T-1",
		Class:    "9a",
		Students: []string{"Dana Levi", "Dana Levi"},
	})
	require.NoError(t, err)
	assert.Len(t, created, 2)
}

func TestAssignmentServiceCreateBatchBlankActor(t *testing.T) {
	repo := &stubAssignmentRepo{}
	cache := &stubInvalidator{}
	svc := newAssignmentService(repo, cache)

	_, err := svc.CreateBatch(context.Background(), "  ", BatchCreateRequest{
		Year:     "5785",
		Period:   "winter",
		TestID:   "T-1",
		Class:    "9a",
		Students: []string{"Dana Levi"},
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Empty(t, repo.rows)
	assert.Zero(t, cache.calls)
}

func TestAssignmentServiceCreateBatchEmptyStudents(t *testing.T) {
	svc := newAssignmentService(&stubAssignmentRepo{}, &stubInvalidator{})

	_, err := svc.CreateBatch(context.Background(), "michal", BatchCreateRequest{
		Year:   "5785",
		Period: "winter",
		TestID: "T-1",
		Class:  "9a",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestAssignmentServiceUpdate(t *testing.T) {
	repo := &stubAssignmentRepo{}
	cache := &stubInvalidator{}
	svc := newAssignmentService(repo, cache)

	created, err := svc.CreateBatch(context.Background(), "michal", BatchCreateRequest{
		Year:     "5785",
		Period:   "winter",
		TestID:   "T-1",
		Class:    "9a",
		Students: []string{"Dana Levi"},
	})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), "yossi", created[0].ID, UpdateAssignmentRequest{
		Year:    "5785",
		Period:  "summer",
		TestID:  "T-2",
		Class:   "9a",
		Student: "Dana Levi",
	})
	require.NoError(t, err)
	assert.Equal(t, "summer", updated.Period)
	assert.Equal(t, "yossi", updated.EditedBy)
	assert.Equal(t, 2, cache.calls)
}

func TestAssignmentServiceUpdateMissingRow(t *testing.T) {
	svc := newAssignmentService(&stubAssignmentRepo{}, &stubInvalidator{})

	_, err := svc.Update(context.Background(), "michal", 42, UpdateAssignmentRequest{
		Year:    "5785",
		Period:  "winter",
		TestID:  "T-1",
		Class:   "9a",
		Student: "Dana Levi",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestAssignmentServiceClearFlow(t *testing.T) {
	repo := &stubAssignmentRepo{rows: []models.Assignment{
		{ID: 1, Student: "Dana Levi"},
		{ID: 2, Student: "Omri Peled"},
	}}
	cache := &stubInvalidator{}
	svc := newAssignmentService(repo, cache)

	confirmation := svc.RequestClear(context.Background(), "michal")
	require.NotEmpty(t, confirmation.Token)
	assert.Len(t, repo.rows, 2, "request alone must not delete")

	deleted, err := svc.ConfirmClear(context.Background(), "michal", confirmation.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.Empty(t, repo.rows)
	assert.Equal(t, 1, cache.calls)

	// the token is single use
	_, err = svc.ConfirmClear(context.Background(), "michal", confirmation.Token)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrGone.Code, appErr.Code)
}

func TestAssignmentServiceConfirmClearExpiredToken(t *testing.T) {
	repo := &stubAssignmentRepo{rows: []models.Assignment{{ID: 1}}}
	svc := newAssignmentService(repo, &stubInvalidator{})

	base := time.Now()
	svc.now = func() time.Time { return base }
	confirmation := svc.RequestClear(context.Background(), "michal")

	svc.now = func() time.Time { return base.Add(3 * time.Minute) }
	_, err := svc.ConfirmClear(context.Background(), "michal", confirmation.Token)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrGone.Code, appErr.Code)
	assert.Len(t, repo.rows, 1)
}

func TestAssignmentServiceCancelClear(t *testing.T) {
	repo := &stubAssignmentRepo{rows: []models.Assignment{{ID: 1}}}
	svc := newAssignmentService(repo, &stubInvalidator{})

	confirmation := svc.RequestClear(context.Background(), "michal")
	require.NoError(t, svc.CancelClear(confirmation.Token))
	assert.Len(t, repo.rows, 1)

	// a cancelled token cannot be confirmed afterwards
	_, err := svc.ConfirmClear(context.Background(), "michal", confirmation.Token)
	require.Error(t, err)
}

func TestAssignmentServiceCreateBatchRepoFailure(t *testing.T) {
	repo := &stubAssignmentRepo{createErr: stderrors.New("disk full")}
	cache := &stubInvalidator{}
	svc := newAssignmentService(repo, cache)

	_, err := svc.CreateBatch(context.Background(), "michal", BatchCreateRequest{
		Year:     "5785",
		Period:   "winter",
		TestID:   "T-1",
		Class:    "9a",
		Students: []string{"Dana Levi"},
	})
	require.Error(t, err)
	assert.Zero(t, cache.calls, "nothing was written, nothing to invalidate")
}

func TestAssignmentServiceCreateBatchPartialFailureInvalidates(t *testing.T) {
	repo := &stubAssignmentRepo{createErr: stderrors.New("disk full"), failOnCall: 2}
	cache := &stubInvalidator{}
	svc := newAssignmentService(repo, cache)

	_, err := svc.CreateBatch(context.Background(), "michal", BatchCreateRequest{
		Year:     "5785",
		Period:   "winter",
		TestID:   "T-1",
		Class:    "9a",
		Students: []string{"Dana Levi", "Omri Peled"},
	})
	require.Error(t, err)

	// the first row is committed, so the cache must be cleared even
	// though the batch as a whole failed
	assert.Len(t, repo.rows, 1)
	assert.Equal(t, 1, cache.calls)
}
