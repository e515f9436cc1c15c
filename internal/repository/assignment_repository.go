package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/oref-labs/placement-api/internal/models"
	"github.com/oref-labs/placement-api/pkg/config"
)

// AssignmentRepository owns persistence for assignment rows. Every operation
// is a single statement; storage failures surface to the caller unretried.
type AssignmentRepository struct {
	db     *sqlx.DB
	driver string
}

// NewAssignmentRepository constructs an AssignmentRepository for the given
// driver.
func NewAssignmentRepository(db *sqlx.DB, driver string) *AssignmentRepository {
	return &AssignmentRepository{db: db, driver: driver}
}

// Create inserts a new row and fills in the store-assigned id. edited_at is
// stamped here so it is never older than the insert itself.
func (r *AssignmentRepository) Create(ctx context.Context, a *models.Assignment) error {
	a.EditedAt = time.Now().UTC()

	if r.driver == config.DriverPostgres {
		const query = `INSERT INTO assignments (year, period, test_id, class, student, edited_by, edited_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
		if err := r.db.QueryRowxContext(ctx, query,
			a.Year, a.Period, a.TestID, a.Class, a.Student, a.EditedBy, a.EditedAt).Scan(&a.ID); err != nil {
			return fmt.Errorf("create assignment: %w", err)
		}
		return nil
	}

	const query = `INSERT INTO assignments (year, period, test_id, class, student, edited_by, edited_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		a.Year, a.Period, a.TestID, a.Class, a.Student, a.EditedBy, a.EditedAt)
	if err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("assignment id: %w", err)
	}
	a.ID = id
	return nil
}

// List returns every stored row.
func (r *AssignmentRepository) List(ctx context.Context) ([]models.Assignment, error) {
	const query = `SELECT id, year, period, test_id, class, student, edited_by, edited_at FROM assignments ORDER BY id`
	assignments := []models.Assignment{}
	if err := r.db.SelectContext(ctx, &assignments, query); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// FindByID fetches one row by its id.
func (r *AssignmentRepository) FindByID(ctx context.Context, id int64) (*models.Assignment, error) {
	query := r.db.Rebind(`SELECT id, year, period, test_id, class, student, edited_by, edited_at FROM assignments WHERE id = ?`)
	var a models.Assignment
	if err := r.db.GetContext(ctx, &a, query, id); err != nil {
		return nil, err
	}
	return &a, nil
}

// Update replaces all mutable fields of the row identified by id and
// advances edited_at. sql.ErrNoRows is returned when the id does not exist.
func (r *AssignmentRepository) Update(ctx context.Context, a *models.Assignment) error {
	a.EditedAt = time.Now().UTC()

	query := r.db.Rebind(`UPDATE assignments SET year = ?, period = ?, test_id = ?, class = ?, student = ?, edited_by = ?, edited_at = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query,
		a.Year, a.Period, a.TestID, a.Class, a.Student, a.EditedBy, a.EditedAt, a.ID)
	if err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update assignment result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteAll unconditionally removes every row and reports how many went.
func (r *AssignmentRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM assignments`)
	if err != nil {
		return 0, fmt.Errorf("clear assignments: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear assignments result: %w", err)
	}
	return affected, nil
}

// DistinctStudents lists the student values present in any row, for the
// unconnected-students report.
func (r *AssignmentRepository) DistinctStudents(ctx context.Context) ([]string, error) {
	students := []string{}
	if err := r.db.SelectContext(ctx, &students, `SELECT DISTINCT student FROM assignments`); err != nil {
		return nil, fmt.Errorf("list assigned students: %w", err)
	}
	return students, nil
}
