package models

// TeacherPermission is a bit set of access flags granted to a teacher.
type TeacherPermission int

const (
	PermissionDefault      TeacherPermission = 0
	PermissionSuperUser    TeacherPermission = 1
	PermissionAdmin        TeacherPermission = 2
	PermissionSecretary    TeacherPermission = 4
	PermissionOnlineCourse TeacherPermission = 8

	PermissionAll = PermissionSuperUser | PermissionAdmin | PermissionSecretary | PermissionOnlineCourse
)

// Has reports whether every flag in p is granted.
func (tp TeacherPermission) Has(p TeacherPermission) bool {
	return tp&p == p
}

// Privileged reports whether the holder may bypass retention and ownership checks.
func (tp TeacherPermission) Privileged() bool {
	return tp&(PermissionSuperUser|PermissionAdmin|PermissionSecretary) != 0
}

// Teacher represents an instructor allowed to write to the journal.
type Teacher struct {
	TeacherGUID string            `db:"teacher_guid" json:"teacher_guid"`
	FullName    string            `db:"full_name" json:"full_name"`
	Permissions TeacherPermission `db:"permissions" json:"permissions"`
}

// Group carries the per-visit credit and curator of a student group.
type Group struct {
	GroupName   string  `db:"group_name" json:"group_name"`
	VisitValue  float64 `db:"visit_value" json:"visit_value"`
	CuratorGUID *string `db:"curator_guid" json:"curator_guid,omitempty"`
}

// GroupMember is the roster entry of a student within a group.
type GroupMember struct {
	StudentGUID string `db:"student_guid" json:"student_guid"`
	FullName    string `db:"full_name" json:"full_name"`
}
