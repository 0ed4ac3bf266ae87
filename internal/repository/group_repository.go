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

const groupColumns = `g.id, g.name, g.specialty, g.start_date, g.end_date, g.course_number_id, g.teacher_id, g.created_at, g.updated_at`

const groupDetailSelect = `SELECT ` + groupColumns + `, c.name AS course_name,
        NULLIF(TRIM(CONCAT(t.first_name, ' ', t.last_name)), '') AS teacher_name
        FROM groups g
        JOIN course_numbers c ON c.id = g.course_number_id
        LEFT JOIN teachers t ON t.id = g.teacher_id`

var groupSorts = map[string]string{
	"name":      "g.name",
	"specialty": "g.specialty",
	"startDate": "g.start_date",
	"endDate":   "g.end_date",
	"createdAt": "g.created_at",
}

// GroupRepository manages persistence for student groups.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository constructs a GroupRepository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// List returns groups with their course and curator names.
func (r *GroupRepository) List(ctx context.Context, filter models.GroupFilter) ([]models.GroupDetail, int, error) {
	filter.Normalize()
	var conditions []string
	var args []interface{}

	if filter.CourseNumberID != nil {
		conditions = append(conditions, fmt.Sprintf("g.course_number_id = $%d", len(args)+1))
		args = append(args, *filter.CourseNumberID)
	}
	if filter.TeacherID != nil {
		conditions = append(conditions, fmt.Sprintf("g.teacher_id = $%d", len(args)+1))
		args = append(args, *filter.TeacherID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(g.name) LIKE $%d OR LOWER(g.specialty) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("%s%s ORDER BY %s LIMIT %d OFFSET %d", groupDetailSelect, where,
		orderClause(groupSorts, filter.SortBy, filter.SortOrder, "createdAt"), filter.PageSize, filter.Offset())
	groups := []models.GroupDetail{}
	if err := r.db.SelectContext(ctx, &groups, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list groups: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM groups g"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count groups: %w", err)
	}
	return groups, total, nil
}

// FindByID fetches a group without its students.
func (r *GroupRepository) FindByID(ctx context.Context, id int64) (*models.GroupDetail, error) {
	var group models.GroupDetail
	if err := r.db.GetContext(ctx, &group, groupDetailSelect+" WHERE g.id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find group: %w", err)
	}
	return &group, nil
}

// ListByTeacher returns the groups curated by a teacher.
func (r *GroupRepository) ListByTeacher(ctx context.Context, teacherID int64) ([]models.Group, error) {
	groups := []models.Group{}
	query := "SELECT " + groupColumns + " FROM groups g WHERE g.teacher_id = $1 ORDER BY g.name"
	if err := r.db.SelectContext(ctx, &groups, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher groups: %w", err)
	}
	return groups, nil
}

// Exists reports whether a group row exists.
func (r *GroupRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM groups WHERE id = $1)", id); err != nil {
		return false, fmt.Errorf("check group: %w", err)
	}
	return exists, nil
}

// Create inserts a group. Unknown course or teacher ids surface as ErrForeignKey.
func (r *GroupRepository) Create(ctx context.Context, group *models.Group) error {
	now := time.Now().UTC()
	group.CreatedAt = now
	group.UpdatedAt = now
	const query = `INSERT INTO groups (name, specialty, start_date, end_date, course_number_id, teacher_id, created_at, updated_at)
        VALUES (:name, :specialty, :start_date, :end_date, :course_number_id, :teacher_id, :created_at, :updated_at) RETURNING id`
	id, err := insertReturningID(ctx, r.db, query, group)
	if err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	group.ID = id
	return nil
}

// Update overwrites a group's mutable columns.
func (r *GroupRepository) Update(ctx context.Context, group *models.Group) error {
	group.UpdatedAt = time.Now().UTC()
	const query = `UPDATE groups SET name = :name, specialty = :specialty, start_date = :start_date, end_date = :end_date,
        course_number_id = :course_number_id, teacher_id = :teacher_id, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, group)
	if err != nil {
		return fmt.Errorf("update group: %w", translate(err))
	}
	return expectAffected(res)
}

// Delete removes a group; its students are detached by the foreign key.
func (r *GroupRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM groups WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return expectAffected(res)
}
