package models

import "time"

// VisitRecord is one credited attendance.
type VisitRecord struct {
	ID          int64     `db:"id" json:"id"`
	StudentGUID string    `db:"student_guid" json:"student_guid"`
	TeacherGUID string    `db:"teacher_guid" json:"teacher_guid"`
	Date        time.Time `db:"date" json:"date"`
}

// PointRecord is one grant of additional points for a work type.
type PointRecord struct {
	ID          int64     `db:"id" json:"id"`
	StudentGUID string    `db:"student_guid" json:"student_guid"`
	TeacherGUID string    `db:"teacher_guid" json:"teacher_guid"`
	Date        time.Time `db:"date" json:"date"`
	Points      int       `db:"points" json:"points"`
	WorkType    WorkType  `db:"work_type" json:"work_type"`
	Comment     *string   `db:"comment" json:"comment,omitempty"`
}

// StandardRecord is one passed fitness standard.
type StandardRecord struct {
	ID           int64        `db:"id" json:"id"`
	StudentGUID  string       `db:"student_guid" json:"student_guid"`
	TeacherGUID  string       `db:"teacher_guid" json:"teacher_guid"`
	Date         time.Time    `db:"date" json:"date"`
	Points       int          `db:"points" json:"points"`
	StandardType StandardType `db:"standard_type" json:"standard_type"`
	Comment      *string      `db:"comment" json:"comment,omitempty"`
}

// StudentHistory groups the live history of one student.
type StudentHistory struct {
	Visits    []VisitRecord    `json:"visits"`
	Points    []PointRecord    `json:"points"`
	Standards []StandardRecord `json:"standards"`
}
