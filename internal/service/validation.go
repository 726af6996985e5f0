package service

import (
	"context"
	"strings"
	"time"

	"github.com/noah-isme/physed-journal-api/internal/models"
	"github.com/noah-isme/physed-journal-api/pkg/clock"
	appErrors "github.com/noah-isme/physed-journal-api/pkg/errors"
)

type visitDuplicateReader interface {
	ExistsOnDate(ctx context.Context, studentGUID string, date time.Time) (bool, error)
}

type pointDuplicateReader interface {
	CountByWorkType(ctx context.Context, studentGUID string, workType models.WorkType) (int, error)
}

type standardDuplicateReader interface {
	MaxByType(ctx context.Context, studentGUID string, standardType models.StandardType) (int, bool, error)
}

// EntryCheck is one submission to be validated against its category rule.
type EntryCheck struct {
	Category    Category
	StudentGUID string
	Date        time.Time
	Points      int
	Comment     *string
	Privileged  bool
	// Override marks a standard re-submission that may replace the existing score.
	Override bool
}

// ValidatedEntry is a submission that passed every rule, normalised for persistence.
type ValidatedEntry struct {
	Date    time.Time
	Points  int
	Comment *string
	Rule    CategoryRule
	// Existing is the best score already recorded for an overridden standard.
	Existing    int
	HasExisting bool
}

// EntryValidator runs the category rule chain. It never mutates state.
type EntryValidator struct {
	rules     *CategoryRules
	clock     clock.Clock
	visits    visitDuplicateReader
	points    pointDuplicateReader
	standards standardDuplicateReader
}

// NewEntryValidator constructs the validator. A nil clock reads the wall clock in the rules timezone.
func NewEntryValidator(rules *CategoryRules, clk clock.Clock, visits visitDuplicateReader, points pointDuplicateReader, standards standardDuplicateReader) *EntryValidator {
	if clk == nil {
		clk = clock.NewSystem(rules.Config().Location())
	}
	return &EntryValidator{rules: rules, clock: clk, visits: visits, points: points, standards: standards}
}

// Today returns the current calendar day of the journal.
func (v *EntryValidator) Today() time.Time {
	return clock.Today(v.clock)
}

// Validate applies, in order: future date, weekday, retention window, duplicates and value bounds.
// The first failing rule is returned.
func (v *EntryValidator) Validate(ctx context.Context, check EntryCheck) (*ValidatedEntry, error) {
	if err := validCategory(check.Category); err != nil {
		return nil, err
	}
	rule := v.rules.For(check.Category)
	date := normalizeDate(check.Date)
	age := clock.DaysBetween(date, v.Today())

	if age < 0 {
		return nil, appErrors.ErrActionFromFuture
	}
	if rule.Forbids(date.Weekday()) || (rule.SameDayOnly && age != 0) {
		return nil, appErrors.ErrNonWorkingDay
	}
	if !check.Privileged && age > rule.RetentionDays {
		return nil, appErrors.DateExpired(rule.RetentionDays)
	}

	entry := &ValidatedEntry{Date: date, Points: check.Points, Comment: normalizeComment(check.Comment), Rule: rule}

	if err := v.checkDuplicates(ctx, check, rule, date, entry); err != nil {
		return nil, err
	}

	if _, isVisit := check.Category.(VisitCategory); isVisit {
		entry.Points = 0
		return entry, nil
	}
	if err := checkBounds(rule, check.Points); err != nil {
		return nil, err
	}
	if entry.HasExisting && check.Points < entry.Existing {
		return nil, appErrors.LoweringTheScore(entry.Existing)
	}
	return entry, nil
}

func (v *EntryValidator) checkDuplicates(ctx context.Context, check EntryCheck, rule CategoryRule, date time.Time, entry *ValidatedEntry) error {
	switch cat := check.Category.(type) {
	case VisitCategory:
		if rule.Singleton != SingletonPerDate {
			return nil
		}
		exists, err := v.visits.ExistsOnDate(ctx, check.StudentGUID, date)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check visits")
		}
		if exists {
			return appErrors.ErrDuplicateCategoryRecord
		}
	case PointCategory:
		if rule.Singleton != SingletonPerStudent {
			return nil
		}
		count, err := v.points.CountByWorkType(ctx, check.StudentGUID, cat.WorkType)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check points")
		}
		if count > 0 {
			return appErrors.ErrDuplicateCategoryRecord
		}
	case StandardCategory:
		if rule.Singleton != SingletonPerStudent && !check.Override {
			return nil
		}
		best, found, err := v.standards.MaxByType(ctx, check.StudentGUID, cat.StandardType)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check standards")
		}
		if !found {
			return nil
		}
		if check.Override {
			entry.Existing, entry.HasExisting = best, true
			return nil
		}
		return appErrors.ErrDuplicateCategoryRecord
	}
	return nil
}

func checkBounds(rule CategoryRule, points int) error {
	if points <= 0 {
		return appErrors.ErrNegativePoints
	}
	if rule.RequireEven && points%2 != 0 {
		return appErrors.ErrNonEvenPointsValue
	}
	if rule.MaxPoints > 0 && points > rule.MaxPoints {
		return appErrors.CategoryLimitExceeded(rule.MaxPoints)
	}
	if rule.GlobalMaxPoints > 0 && points > rule.GlobalMaxPoints {
		return appErrors.CategoryLimitExceeded(rule.GlobalMaxPoints)
	}
	return nil
}

func validCategory(c Category) error {
	switch cat := c.(type) {
	case VisitCategory:
		return nil
	case PointCategory:
		if _, err := models.ParseWorkType(string(cat.WorkType)); err != nil {
			return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unknown work type")
		}
		return nil
	case StandardCategory:
		if _, err := models.ParseStandardType(string(cat.StandardType)); err != nil {
			return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unknown standard type")
		}
		return nil
	default:
		return appErrors.Clone(appErrors.ErrValidation, "unknown category")
	}
}

// normalizeDate keeps the calendar day of t and drops the clock and zone.
func normalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func normalizeComment(comment *string) *string {
	if comment == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*comment)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
