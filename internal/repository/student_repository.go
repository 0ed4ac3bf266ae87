package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edumanage-api/internal/models"
)

const studentColumns = `s.id, s.iin, s.first_name, s.last_name, s.middle_name, s.birth_date, s.group_id,
        s.profile_picture, s.phone, s.email, s.address, s.created_at, s.updated_at`

var studentSorts = map[string]string{
	"lastName":  "s.last_name",
	"firstName": "s.first_name",
	"iin":       "s.iin",
	"birthDate": "s.birth_date",
	"createdAt": "s.created_at",
}

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	filter.Normalize()
	base := "FROM students s LEFT JOIN groups g ON g.id = s.group_id"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.GroupID != nil {
		conditions = append(conditions, fmt.Sprintf("s.group_id = $%d", len(args)+1))
		args = append(args, *filter.GroupID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.first_name) LIKE $%d OR LOWER(s.last_name) LIKE $%d OR s.iin LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	query := fmt.Sprintf("SELECT %s, g.name AS group_name %s ORDER BY %s LIMIT %d OFFSET %d",
		studentColumns, base, orderClause(studentSorts, filter.SortBy, filter.SortOrder, "createdAt"), filter.PageSize, filter.Offset())

	students := []models.StudentDetail{}
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student with its group name.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.StudentDetail, error) {
	query := "SELECT " + studentColumns + ", g.name AS group_name FROM students s LEFT JOIN groups g ON g.id = s.group_id WHERE s.id = $1"
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &detail, nil
}

// ListByGroup returns the members of a group ordered by name.
func (r *StudentRepository) ListByGroup(ctx context.Context, groupID int64) ([]models.Student, error) {
	query := "SELECT " + studentColumns + " FROM students s WHERE s.group_id = $1 ORDER BY s.last_name, s.first_name"
	students := []models.Student{}
	if err := r.db.SelectContext(ctx, &students, query, groupID); err != nil {
		return nil, fmt.Errorf("list group students: %w", err)
	}
	return students, nil
}

// Exists reports whether a student row exists.
func (r *StudentRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM students WHERE id = $1)", id); err != nil {
		return false, fmt.Errorf("check student: %w", err)
	}
	return exists, nil
}

// Create inserts a new student. A duplicate iin surfaces as ErrDuplicate.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now
	const query = `INSERT INTO students (iin, first_name, last_name, middle_name, birth_date, group_id, profile_picture, phone, email, address, created_at, updated_at)
        VALUES (:iin, :first_name, :last_name, :middle_name, :birth_date, :group_id, :profile_picture, :phone, :email, :address, :created_at, :updated_at)
        RETURNING id`
	id, err := insertReturningID(ctx, r.db, query, student)
	if err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	student.ID = id
	return nil
}

// Update overwrites the profile columns of a student. Group membership is
// changed only through AssignGroup and RemoveFromGroup.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET iin = :iin, first_name = :first_name, last_name = :last_name, middle_name = :middle_name,
        birth_date = :birth_date, profile_picture = :profile_picture, phone = :phone, email = :email,
        address = :address, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, student)
	if err != nil {
		return fmt.Errorf("update student: %w", translate(err))
	}
	return expectAffected(res)
}

// Delete removes a student together with its attendance and performance rows.
func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM attendance WHERE student_id = $1", id); err != nil {
			return fmt.Errorf("delete student attendance: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM performance WHERE student_id = $1", id); err != nil {
			return fmt.Errorf("delete student performance: %w", err)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM students WHERE id = $1", id)
		if err != nil {
			return fmt.Errorf("delete student: %w", err)
		}
		return expectAffected(res)
	})
}

// AssignGroup links a student to a group only while the student has no group.
// It reports false when no row changed: the student is missing or already assigned.
func (r *StudentRepository) AssignGroup(ctx context.Context, studentID, groupID int64) (bool, error) {
	const query = `UPDATE students SET group_id = $1, updated_at = $2 WHERE id = $3 AND group_id IS NULL`
	res, err := r.db.ExecContext(ctx, query, groupID, time.Now().UTC(), studentID)
	if err != nil {
		return false, fmt.Errorf("assign student group: %w", translate(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("assign student group: %w", err)
	}
	return n == 1, nil
}

// RemoveFromGroup detaches a student from the given group.
func (r *StudentRepository) RemoveFromGroup(ctx context.Context, studentID, groupID int64) (bool, error) {
	const query = `UPDATE students SET group_id = NULL, updated_at = $1 WHERE id = $2 AND group_id = $3`
	res, err := r.db.ExecContext(ctx, query, time.Now().UTC(), studentID, groupID)
	if err != nil {
		return false, fmt.Errorf("remove student group: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove student group: %w", err)
	}
	return n == 1, nil
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
