package models

import (
	"math"
	"time"
)

// Student is the live point ledger of one learner for the current semester.
type Student struct {
	StudentGUID                 string    `db:"student_guid" json:"student_guid"`
	FullName                    string    `db:"full_name" json:"full_name"`
	GroupNumber                 string    `db:"group_number" json:"group_number"`
	Course                      int       `db:"course" json:"course"`
	CurrentSemesterName         string    `db:"current_semester_name" json:"current_semester_name"`
	Visits                      int       `db:"visits" json:"visits"`
	AdditionalPoints            int       `db:"additional_points" json:"additional_points"`
	PointsForStandards          int       `db:"points_for_standards" json:"points_for_standards"`
	ArchivedVisitValue          float64   `db:"archived_visit_value" json:"archived_visit_value"`
	HasDebtFromPreviousSemester bool      `db:"has_debt_from_previous_semester" json:"has_debt_from_previous_semester"`
	HadDebtInSemester           bool      `db:"had_debt_in_semester" json:"had_debt_in_semester"`
	IsActive                    bool      `db:"is_active" json:"is_active"`
	Version                     int64     `db:"version" json:"version"`
	UpdatedAt                   time.Time `db:"updated_at" json:"updated_at"`
}

// StudentLedger joins a student with the visit credit of their group.
type StudentLedger struct {
	Student
	VisitValue  float64 `db:"visit_value" json:"visit_value"`
	CuratorGUID *string `db:"curator_guid" json:"curator_guid,omitempty"`
}

// EffectiveVisitValue is the per-visit credit used for totals. Indebted students keep
// the value snapshotted when the debt was recorded.
func (l StudentLedger) EffectiveVisitValue() float64 {
	if l.HasDebtFromPreviousSemester {
		return l.ArchivedVisitValue
	}
	return l.VisitValue
}

// TotalPoints derives the semester total from the live counters.
func (l StudentLedger) TotalPoints() float64 {
	return TotalPoints(l.Visits, l.EffectiveVisitValue(), l.AdditionalPoints, l.PointsForStandards)
}

// TotalPoints computes ceil(visits*visitValue + additional + standards).
func TotalPoints(visits int, visitValue float64, additional, standards int) float64 {
	return math.Ceil(float64(visits)*visitValue + float64(additional) + float64(standards))
}

// StudentFilter narrows bulk selections of ledgers.
type StudentFilter struct {
	ExcludeSemester string
	ActiveOnly      bool
	WithDebt        *bool
}
