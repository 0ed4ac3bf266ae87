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

const teacherColumns = `t.id, t.user_id, t.first_name, t.last_name, t.middle_name, t.department, t.subjects, t.created_at, t.updated_at, u.email`

var teacherSorts = map[string]string{
	"lastName":   "t.last_name",
	"firstName":  "t.first_name",
	"department": "t.department",
	"createdAt":  "t.created_at",
}

// TeacherRepository handles persistence for teachers and their login accounts.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a new repository instance.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns teachers joined with their user email.
func (r *TeacherRepository) List(ctx context.Context, filter models.TeacherFilter) ([]models.TeacherDetail, int, error) {
	filter.Normalize()
	base := "FROM teachers t JOIN users u ON u.id = t.user_id"
	var conditions []string
	var args []interface{}

	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("t.department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(t.first_name) LIKE $%d OR LOWER(t.last_name) LIKE $%d OR LOWER(u.email) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		base += " WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s LIMIT %d OFFSET %d", teacherColumns, base,
		orderClause(teacherSorts, filter.SortBy, filter.SortOrder, "createdAt"), filter.PageSize, filter.Offset())
	teachers := []models.TeacherDetail{}
	if err := r.db.SelectContext(ctx, &teachers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}
	return teachers, total, nil
}

// FindByID fetches a teacher by identifier.
func (r *TeacherRepository) FindByID(ctx context.Context, id int64) (*models.TeacherDetail, error) {
	query := "SELECT " + teacherColumns + " FROM teachers t JOIN users u ON u.id = t.user_id WHERE t.id = $1"
	var teacher models.TeacherDetail
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find teacher: %w", err)
	}
	return &teacher, nil
}

// Exists reports whether a teacher row exists.
func (r *TeacherRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM teachers WHERE id = $1)", id); err != nil {
		return false, fmt.Errorf("check teacher: %w", err)
	}
	return exists, nil
}

// CreateWithUser inserts the login account and the teacher profile atomically.
func (r *TeacherRepository) CreateWithUser(ctx context.Context, user *models.User, teacher *models.Teacher) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := insertUser(ctx, tx, user); err != nil {
			return err
		}
		teacher.UserID = user.ID
		now := time.Now().UTC()
		teacher.CreatedAt = now
		teacher.UpdatedAt = now
		const query = `INSERT INTO teachers (user_id, first_name, last_name, middle_name, department, subjects, created_at, updated_at)
            VALUES (:user_id, :first_name, :last_name, :middle_name, :department, :subjects, :created_at, :updated_at) RETURNING id`
		id, err := insertReturningID(ctx, tx, query, teacher)
		if err != nil {
			return fmt.Errorf("create teacher: %w", err)
		}
		teacher.ID = id
		return nil
	})
}

// Update modifies the teacher profile and keeps the user's display name in sync.
func (r *TeacherRepository) Update(ctx context.Context, teacher *models.Teacher) error {
	teacher.UpdatedAt = time.Now().UTC()
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const query = `UPDATE teachers SET first_name = :first_name, last_name = :last_name, middle_name = :middle_name,
            department = :department, subjects = :subjects, updated_at = :updated_at WHERE id = :id`
		res, err := sqlx.NamedExecContext(ctx, tx, query, teacher)
		if err != nil {
			return fmt.Errorf("update teacher: %w", err)
		}
		if err := expectAffected(res); err != nil {
			return err
		}
		const userQuery = `UPDATE users SET full_name = $1, updated_at = $2 WHERE id = (SELECT user_id FROM teachers WHERE id = $3)`
		if _, err := tx.ExecContext(ctx, userQuery, teacher.FullName(), teacher.UpdatedAt, teacher.ID); err != nil {
			return fmt.Errorf("sync teacher user: %w", err)
		}
		return nil
	})
}

// Delete removes a teacher and the linked user account in one transaction.
func (r *TeacherRepository) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var userID int64
		if err := tx.GetContext(ctx, &userID, "DELETE FROM teachers WHERE id = $1 RETURNING user_id", id); err != nil {
			if err == sql.ErrNoRows {
				return err
			}
			return fmt.Errorf("delete teacher: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id = $1", userID); err != nil {
			return fmt.Errorf("delete teacher user: %w", err)
		}
		return nil
	})
}
