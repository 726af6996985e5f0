package dto

import (
	"strings"
	"time"
)

// DateLayout is the wire format of journal dates.
const DateLayout = "2006-01-02"

// AddVisitRequest records one attendance.
type AddVisitRequest struct {
	StudentGUID string `json:"studentGuid" binding:"required"`
	Date        string `json:"date" binding:"required"`
}

// AddPointsRequest grants additional points for a work type.
type AddPointsRequest struct {
	StudentGUID string  `json:"studentGuid" binding:"required"`
	Date        string  `json:"date" binding:"required"`
	Points      int     `json:"points"`
	WorkType    string  `json:"workType" binding:"required"`
	Comment     *string `json:"comment"`
}

// AddStandardRequest records a fitness standard result. Override replaces a lower existing score.
type AddStandardRequest struct {
	StudentGUID  string  `json:"studentGuid" binding:"required"`
	Date         string  `json:"date" binding:"required"`
	Points       int     `json:"points"`
	StandardType string  `json:"standardType" binding:"required"`
	Override     bool    `json:"override"`
	Comment      *string `json:"comment"`
}

// ArchiveStudentRequest closes the semester of one student.
type ArchiveStudentRequest struct {
	TargetSemester string `json:"targetSemester"`
	Force          bool   `json:"force"`
}

// UnarchiveStudentRequest names the archived semester to restore.
type UnarchiveStudentRequest struct {
	Semester string `json:"semester" binding:"required"`
}

// AssignVisitValueRequest sets the per-visit credit of a group.
type AssignVisitValueRequest struct {
	VisitValue float64 `json:"visitValue"`
}

// AssignCuratorRequest makes a teacher the curator of a group.
type AssignCuratorRequest struct {
	TeacherGUID string `json:"teacherGuid" binding:"required"`
}

// GivePermissionsRequest replaces the permission bit set of a teacher.
type GivePermissionsRequest struct {
	Permissions int `json:"permissions"`
}

// StartSemesterRequest switches the current semester. Migrate enqueues a bulk migration afterwards.
type StartSemesterRequest struct {
	Name    string `json:"name" binding:"required"`
	Migrate bool   `json:"migrate"`
}

// StartMigrationRequest queues a bulk run. Kind is "semester" (default) or "debt".
type StartMigrationRequest struct {
	Target string `json:"target"`
	Kind   string `json:"kind"`
}

// StartSemesterResponse reports the registry change and the migration job, when one was queued.
type StartSemesterResponse struct {
	Semester  interface{} `json:"semester"`
	Changed   bool        `json:"changed"`
	Migration interface{} `json:"migration,omitempty"`
}

// ParseDate reads a calendar date in DateLayout.
func ParseDate(value string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(value))
}
