package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ArchivedStudent is the immutable snapshot of a closed semester.
type ArchivedStudent struct {
	ID                 int64                   `db:"id" json:"id"`
	StudentGUID        string                  `db:"student_guid" json:"student_guid"`
	SemesterName       string                  `db:"semester_name" json:"semester_name"`
	FullName           string                  `db:"full_name" json:"full_name"`
	GroupNumber        string                  `db:"group_number" json:"group_number"`
	TotalPoints        float64                 `db:"total_points" json:"total_points"`
	Visits             int                     `db:"visits" json:"visits"`
	VisitValue         float64                 `db:"visit_value" json:"visit_value"`
	AdditionalPoints   int                     `db:"additional_points" json:"additional_points"`
	PointsForStandards int                     `db:"points_for_standards" json:"points_for_standards"`
	VisitsHistory      History[VisitRecord]    `db:"visits_history" json:"visits_history"`
	PointsHistory      History[PointRecord]    `db:"points_history" json:"points_history"`
	StandardsHistory   History[StandardRecord] `db:"standards_history" json:"standards_history"`
	ArchivedBy         string                  `db:"archived_by" json:"archived_by"`
	ArchivedAt         time.Time               `db:"archived_at" json:"archived_at"`
}

// History is a record list persisted as JSONB.
type History[T any] []T

// Value marshals the list to JSON for persistence.
func (h History[T]) Value() (driver.Value, error) {
	if h == nil {
		h = History[T]{}
	}
	data, err := json.Marshal([]T(h))
	if err != nil {
		return nil, fmt.Errorf("marshal history: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSONB payloads into the list.
func (h *History[T]) Scan(value interface{}) error {
	if value == nil {
		*h = History[T]{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for history", value)
	}
	if len(data) == 0 {
		*h = History[T]{}
		return nil
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("unmarshal history: %w", err)
	}
	*h = items
	return nil
}
