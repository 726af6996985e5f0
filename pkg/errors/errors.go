package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Status  int                    `json:"status"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target carries the same code, so clones still match their template.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Generic errors shared by the transport layer.
var (
	ErrNotFound     = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden    = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict     = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation   = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal     = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss    = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Ledger command and archive errors.
var (
	ErrStudentNotFound             = New("STUDENT_NOT_FOUND", http.StatusNotFound, "student not found")
	ErrTeacherNotFound             = New("TEACHER_NOT_FOUND", http.StatusNotFound, "teacher not found")
	ErrActionFromFuture            = New("ACTION_FROM_FUTURE", http.StatusBadRequest, "date cannot be in the future")
	ErrDateExpired                 = New("DATE_EXPIRED", http.StatusBadRequest, "date is older than the allowed window")
	ErrNonWorkingDay               = New("NON_WORKING_DAY", http.StatusBadRequest, "date falls on a non-working day")
	ErrCategoryLimitExceeded       = New("CATEGORY_LIMIT_EXCEEDED", http.StatusBadRequest, "points exceed the category limit")
	ErrDuplicateCategoryRecord     = New("DUPLICATE_CATEGORY_RECORD", http.StatusConflict, "a record for this category already exists")
	ErrNonEvenPointsValue          = New("NON_EVEN_POINTS_VALUE", http.StatusBadRequest, "points value must be even")
	ErrNegativePoints              = New("NEGATIVE_POINTS", http.StatusBadRequest, "points must be positive")
	ErrLoweringTheScore            = New("LOWERING_THE_SCORE", http.StatusConflict, "new value is lower than the existing one")
	ErrRecordNotFound              = New("RECORD_NOT_FOUND", http.StatusNotFound, "history record not found")
	ErrTeacherMismatch             = New("TEACHER_MISMATCH", http.StatusForbidden, "record belongs to another teacher")
	ErrHistoryDeleteExpired        = New("HISTORY_DELETE_EXPIRED", http.StatusBadRequest, "record is too old to be deleted")
	ErrNotEnoughPoints             = New("NOT_ENOUGH_POINTS", http.StatusUnprocessableEntity, "student has not reached the required points")
	ErrCannotMigrateSameSemester   = New("CANNOT_MIGRATE_SAME_SEMESTER", http.StatusConflict, "student is already in the target semester")
	ErrSemesterNameInvalid         = New("SEMESTER_NAME_INVALID", http.StatusBadRequest, "semester name must look like 2023-2024/autumn")
	ErrConcurrencyConflict         = New("CONCURRENCY_CONFLICT", http.StatusConflict, "student was modified concurrently, resubmit the request")
	ErrNotEnoughPointsForStandards = New("NOT_ENOUGH_POINTS_FOR_STANDARDS", http.StatusUnprocessableEntity, "student needs more points before standards can be added")
	ErrSemesterNotFound            = New("SEMESTER_NOT_FOUND", http.StatusNotFound, "current semester is not configured")
	ErrGroupNotFound               = New("GROUP_NOT_FOUND", http.StatusNotFound, "group not found")
	ErrNoStudentsInGroup           = New("NO_STUDENTS_IN_GROUP", http.StatusUnprocessableEntity, "group has no students")
	ErrArchivedStudentNotFound     = New("ARCHIVED_STUDENT_NOT_FOUND", http.StatusNotFound, "no archived semester for the student")
	ErrVisitValueInvalid           = New("VISIT_VALUE_INVALID", http.StatusBadRequest, "visit value must be positive")
	ErrCannotGrantSuperUser        = New("CANNOT_GRANT_SUPERUSER", http.StatusForbidden, "superuser permissions cannot be granted")
)

// DateExpired reports a submission outside the retention window (in days).
func DateExpired(window int) *Error {
	return WithDetails(ErrDateExpired, map[string]interface{}{"window": window})
}

// CategoryLimitExceeded reports a value above the category cap.
func CategoryLimitExceeded(limit int) *Error {
	return WithDetails(ErrCategoryLimitExceeded, map[string]interface{}{"cap": limit})
}

// HistoryDeleteExpired reports a deletion outside the deletion window (in days).
func HistoryDeleteExpired(window int) *Error {
	return WithDetails(ErrHistoryDeleteExpired, map[string]interface{}{"window": window})
}

// LoweringTheScore reports the value an override attempted to undercut.
func LoweringTheScore(existing int) *Error {
	return WithDetails(ErrLoweringTheScore, map[string]interface{}{"existing": existing})
}

// NotEnoughPoints reports how far a student is from the required amount.
func NotEnoughPoints(shortfall int, total float64) *Error {
	return WithDetails(ErrNotEnoughPoints, map[string]interface{}{"shortfall": shortfall, "total": total})
}

// NotEnoughPointsForStandards reports the minimum total needed before standards count.
func NotEnoughPointsForStandards(required int) *Error {
	return WithDetails(ErrNotEnoughPointsForStandards, map[string]interface{}{"required": required})
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// WithDetails returns a copy of err carrying the provided details.
func WithDetails(err *Error, details map[string]interface{}) *Error {
	clone := Clone(err, "")
	if clone == nil {
		return nil
	}
	clone.Details = details
	return clone
}

// Detail returns an integer detail value, or false when it is absent.
func (e *Error) Detail(key string) (int, bool) {
	if e == nil || e.Details == nil {
		return 0, false
	}
	v, ok := e.Details[key].(int)
	return v, ok
}
