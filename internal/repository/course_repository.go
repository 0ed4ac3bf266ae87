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

var courseSorts = map[string]string{
	"name":      "name",
	"createdAt": "created_at",
}

// CourseRepository manages course numbers (year or level labels).
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns course numbers matching the filter.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseNumber, int, error) {
	filter.Normalize()
	where := ""
	var args []interface{}
	if filter.Search != "" {
		where = " WHERE LOWER(name) LIKE $1"
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	query := fmt.Sprintf("SELECT id, name, description, created_at, updated_at FROM course_numbers%s ORDER BY %s LIMIT %d OFFSET %d",
		where, orderClause(courseSorts, filter.SortBy, filter.SortOrder, "name"), filter.PageSize, filter.Offset())

	courses := []models.CourseNumber{}
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM course_numbers"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// FindByID fetches a course number.
func (r *CourseRepository) FindByID(ctx context.Context, id int64) (*models.CourseNumber, error) {
	const query = `SELECT id, name, description, created_at, updated_at FROM course_numbers WHERE id = $1`
	var course models.CourseNumber
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return &course, nil
}

// Create inserts a course. A taken name surfaces as ErrDuplicate.
func (r *CourseRepository) Create(ctx context.Context, course *models.CourseNumber) error {
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now
	const query = `INSERT INTO course_numbers (name, description, created_at, updated_at)
        VALUES (:name, :description, :created_at, :updated_at) RETURNING id`
	id, err := insertReturningID(ctx, r.db, query, course)
	if err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	course.ID = id
	return nil
}

// Update modifies a course.
func (r *CourseRepository) Update(ctx context.Context, course *models.CourseNumber) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE course_numbers SET name = :name, description = :description, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, course)
	if err != nil {
		return fmt.Errorf("update course: %w", translate(err))
	}
	return expectAffected(res)
}

// Delete removes a course. Courses still referenced by groups or grades surface as ErrForeignKey.
func (r *CourseRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM course_numbers WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete course: %w", translate(err))
	}
	return expectAffected(res)
}
