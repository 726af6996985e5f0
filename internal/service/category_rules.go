package service

import (
	"fmt"
	"time"

	"github.com/noah-isme/physed-journal-api/internal/models"
	"github.com/noah-isme/physed-journal-api/pkg/config"
)

// Category identifies what a journal entry is credited for. The set of variants is
// closed: VisitCategory, PointCategory and StandardCategory.
type Category interface {
	Name() string
	category()
}

// VisitCategory is a single attendance.
type VisitCategory struct{}

// PointCategory is an additional-points grant for one work type.
type PointCategory struct {
	WorkType models.WorkType
}

// StandardCategory is a fitness standard result. Course is the student's year of study;
// zero means unknown and leaves the first-course cap in place.
type StandardCategory struct {
	StandardType models.StandardType
	Course       int
}

func (VisitCategory) category()    {}
func (PointCategory) category()    {}
func (StandardCategory) category() {}

// Name returns the rule-table key.
func (VisitCategory) Name() string { return "Visit" }

// Name returns the rule-table key.
func (c PointCategory) Name() string { return string(c.WorkType) }

// Name returns the rule-table key.
func (c StandardCategory) Name() string { return "Standard" }

// SingletonScope describes which duplicate records a category rejects.
type SingletonScope int

const (
	// SingletonNone allows any number of records.
	SingletonNone SingletonScope = iota
	// SingletonPerDate allows one record per calendar day.
	SingletonPerDate
	// SingletonPerStudent allows one outstanding record per student.
	SingletonPerStudent
)

// CategoryRule is the validation policy of one category.
type CategoryRule struct {
	ForbiddenWeekdays []time.Weekday
	SameDayOnly       bool
	RetentionDays     int
	DeleteWindowDays  int
	Singleton         SingletonScope
	RequireEven       bool
	MaxPoints         int
	GlobalMaxPoints   int
}

// Forbids reports whether submissions dated on day are rejected.
func (r CategoryRule) Forbids(day time.Weekday) bool {
	for _, forbidden := range r.ForbiddenWeekdays {
		if forbidden == day {
			return true
		}
	}
	return false
}

var workingWeekOnly = []time.Weekday{time.Sunday, time.Monday}

// CategoryRules resolves the rule for every category from the configured constants.
type CategoryRules struct {
	cfg       config.RulesConfig
	overrides map[string]categoryOverride
}

type categoryOverride struct {
	config.CategoryOverride
	weekdays []time.Weekday
}

// NewCategoryRules validates the per-category overrides and builds the rule table.
func NewCategoryRules(cfg config.RulesConfig) (*CategoryRules, error) {
	overrides := make(map[string]categoryOverride, len(cfg.Categories))
	for name, override := range cfg.Categories {
		if !knownCategory(name) {
			return nil, fmt.Errorf("rules override for unknown category %q", name)
		}
		parsed := categoryOverride{CategoryOverride: override}
		if override.ForbiddenWeekdays != nil {
			days, err := config.ParseWeekdays(override.ForbiddenWeekdays)
			if err != nil {
				return nil, fmt.Errorf("rules override %s: %w", name, err)
			}
			parsed.weekdays = days
		}
		overrides[name] = parsed
	}
	return &CategoryRules{cfg: cfg, overrides: overrides}, nil
}

// Config exposes the numeric constants the table was built from.
func (r *CategoryRules) Config() config.RulesConfig {
	return r.cfg
}

// For returns the rule of category c.
func (r *CategoryRules) For(c Category) CategoryRule {
	var rule CategoryRule
	switch cat := c.(type) {
	case VisitCategory:
		rule = CategoryRule{
			ForbiddenWeekdays: workingWeekOnly,
			RetentionDays:     r.cfg.VisitLifeDays,
			DeleteWindowDays:  r.cfg.DaysToDeleteVisit,
			Singleton:         SingletonPerDate,
		}
	case PointCategory:
		rule = r.pointRule(cat.WorkType)
	case StandardCategory:
		rule = CategoryRule{
			ForbiddenWeekdays: workingWeekOnly,
			RetentionDays:     r.cfg.StandardLifeDays,
			DeleteWindowDays:  r.cfg.DaysToDeleteStandard,
			Singleton:         SingletonPerStudent,
			RequireEven:       true,
			MaxPoints:         r.cfg.MaxPointsForOneStandard,
		}
		if cat.StandardType == models.StandardTypeOther {
			rule.Singleton = SingletonNone
		}
	default:
		panic(fmt.Sprintf("unhandled category %T", c))
	}
	rule = r.applyOverride(c.Name(), rule)
	if cat, ok := c.(StandardCategory); ok && cat.Course > 1 {
		upper := r.cfg.MaxPointsForOneStandardUpperCourses
		if upper > 0 && (rule.MaxPoints == 0 || upper < rule.MaxPoints) {
			rule.MaxPoints = upper
		}
	}
	return rule
}

func (r *CategoryRules) pointRule(workType models.WorkType) CategoryRule {
	rule := CategoryRule{
		ForbiddenWeekdays: workingWeekOnly,
		RetentionDays:     r.cfg.PointsLifeDays,
		DeleteWindowDays:  r.cfg.DaysToDeletePoints,
		GlobalMaxPoints:   r.cfg.MaxPointsAmount,
	}
	switch workType {
	case models.WorkTypeExternalFitness:
		rule.Singleton = SingletonPerStudent
		rule.MaxPoints = r.cfg.MaxPointsForExternalFitness
	case models.WorkTypeGTO:
		rule.Singleton = SingletonPerStudent
	case models.WorkTypeScience:
		rule.MaxPoints = r.cfg.MaxPointsForScience
	case models.WorkTypeOnlineWork:
		rule.RetentionDays = r.cfg.OnlineWorkPointsLifeDays
	case models.WorkTypeCompetition, models.WorkTypeInternalTeam, models.WorkTypeActivist:
	default:
		panic(fmt.Sprintf("unhandled work type %q", workType))
	}
	return rule
}

func (r *CategoryRules) applyOverride(name string, rule CategoryRule) CategoryRule {
	override, ok := r.overrides[name]
	if !ok {
		return rule
	}
	if override.RetentionDays != nil {
		rule.RetentionDays = *override.RetentionDays
	}
	if override.ForbiddenWeekdays != nil {
		rule.ForbiddenWeekdays = override.weekdays
	}
	if override.SameDayOnly != nil {
		rule.SameDayOnly = *override.SameDayOnly
	}
	if override.MaxPoints != nil {
		rule.MaxPoints = *override.MaxPoints
	}
	return rule
}

func knownCategory(name string) bool {
	if name == (VisitCategory{}).Name() || name == (StandardCategory{}).Name() {
		return true
	}
	_, err := models.ParseWorkType(name)
	return err == nil
}
