package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oref-labs/placement-api/internal/models"
	"github.com/oref-labs/placement-api/pkg/config"
)

func newAssignmentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAssignmentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db, config.DriverSQLite)

	mock.ExpectExec("INSERT INTO assignments").
		WithArgs("5785", "winter", "T-42", "9b", "Dana Levi", "office", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(7, 1))

	a := &models.Assignment{Year: "5785", Period: "winter", TestID: "T-42", Class: "9b", Student: "Dana Levi", EditedBy: "office"}
	before := time.Now().UTC()
	require.NoError(t, repo.Create(context.Background(), a))

	assert.Equal(t, int64(7), a.ID)
	assert.False(t, a.EditedAt.Before(before))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryCreatePostgresReturningID(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db, config.DriverPostgres)

	mock.ExpectQuery("INSERT INTO assignments").
		WithArgs("5785", "winter", "T-42", "9b", "Dana Levi", "office", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))

	a := &models.Assignment{Year: "5785", Period: "winter", TestID: "T-42", Class: "9b", Student: "Dana Levi", EditedBy: "office"}
	require.NoError(t, repo.Create(context.Background(), a))

	assert.Equal(t, int64(12), a.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryList(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db, config.DriverSQLite)

	rows := sqlmock.NewRows([]string{"id", "year", "period", "test_id", "class", "student", "edited_by", "edited_at"}).
		AddRow(1, "5785", "winter", "T-1", "9a", "Dana Levi", "office", time.Now()).
		AddRow(2, "5785", "spring", "T-2", "9b", "Omri Peled", "office", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, year, period, test_id, class, student, edited_by, edited_at FROM assignments ORDER BY id")).
		WillReturnRows(rows)

	assignments, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, assignments, 2)
	assert.Equal(t, "Omri Peled", assignments[1].Student)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryUpdate(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db, config.DriverSQLite)

	mock.ExpectExec("UPDATE assignments SET").
		WithArgs("5785", "spring", "T-9", "9c", "Dana Levi", "office", sqlmock.AnyArg(), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	a := &models.Assignment{ID: 3, Year: "5785", Period: "spring", TestID: "T-9", Class: "9c", Student: "Dana Levi", EditedBy: "office"}
	require.NoError(t, repo.Update(context.Background(), a))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryUpdateMissingRow(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db, config.DriverSQLite)

	mock.ExpectExec("UPDATE assignments SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	a := &models.Assignment{ID: 99, Year: "5785", Period: "spring", TestID: "T-9", Class: "9c", Student: "Dana Levi", EditedBy: "office"}
	err := repo.Update(context.Background(), a)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryDeleteAll(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db, config.DriverSQLite)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM assignments")).
		WillReturnResult(sqlmock.NewResult(0, 5))

	deleted, err := repo.DeleteAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryDistinctStudents(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db, config.DriverSQLite)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT student FROM assignments")).
		WillReturnRows(sqlmock.NewRows([]string{"student"}).AddRow("Dana Levi").AddRow("Omri Peled"))

	students, err := repo.DistinctStudents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Dana Levi", "Omri Peled"}, students)
	assert.NoError(t, mock.ExpectationsWereMet())
}
