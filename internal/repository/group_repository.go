package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/physed-journal-api/internal/models"
)

// GroupRepository manages student groups, their visit value and curator.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository constructs a GroupRepository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// FindByName fetches a group.
func (r *GroupRepository) FindByName(ctx context.Context, groupName string) (*models.Group, error) {
	const query = `SELECT group_name, visit_value, curator_guid FROM groups WHERE group_name = $1`
	var group models.Group
	if err := r.db.GetContext(ctx, &group, query, groupName); err != nil {
		return nil, err
	}
	return &group, nil
}

// UpdateVisitValue sets the per-visit credit; a missing group yields sql.ErrNoRows.
func (r *GroupRepository) UpdateVisitValue(ctx context.Context, groupName string, visitValue float64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE groups SET visit_value = $1 WHERE group_name = $2`, visitValue, groupName)
	if err != nil {
		return fmt.Errorf("update visit value: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return fmt.Errorf("update visit value %s: %w", groupName, err)
	}
	return nil
}

// UpdateCurator assigns the curator teacher; a missing group yields sql.ErrNoRows.
func (r *GroupRepository) UpdateCurator(ctx context.Context, groupName, curatorGUID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE groups SET curator_guid = $1 WHERE group_name = $2`, curatorGUID, groupName)
	if err != nil {
		return fmt.Errorf("update curator: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return fmt.Errorf("update curator %s: %w", groupName, err)
	}
	return nil
}

// ListMembers returns the students of a group ordered by name.
func (r *GroupRepository) ListMembers(ctx context.Context, groupName string) ([]models.GroupMember, error) {
	const query = `SELECT student_guid, full_name FROM students WHERE group_number = $1 ORDER BY full_name, student_guid`
	var members []models.GroupMember
	if err := r.db.SelectContext(ctx, &members, query, groupName); err != nil {
		return nil, fmt.Errorf("list group members: %w", err)
	}
	return members, nil
}
