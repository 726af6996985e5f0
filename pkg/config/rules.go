package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// RulesConfig holds the point-accounting constants used by validators and the archiver.
type RulesConfig struct {
	RequiredPointAmount          int `toml:"required_point_amount"`
	MaxPointsForStandards        int `toml:"max_points_for_standards"`
	MaxPointsAmount              int `toml:"max_points_amount"`
	MaxPointsForExternalFitness  int `toml:"max_points_for_external_fitness"`
	MaxPointsForScience          int `toml:"max_points_for_science"`
	MaxPointsForOneStandard      int `toml:"max_points_for_one_standard"`
	MinTotalPointsToAddStandards int `toml:"min_total_points_to_add_standards"`
	// MaxPointsForOneStandardUpperCourses caps a single standard for students past the first course.
	MaxPointsForOneStandardUpperCourses int `toml:"max_points_for_one_standard_upper_courses"`

	PointsLifeDays           int `toml:"points_life_days"`
	OnlineWorkPointsLifeDays int `toml:"online_work_points_life_days"`
	VisitLifeDays            int `toml:"visit_life_days"`
	StandardLifeDays         int `toml:"standard_life_days"`

	DaysToDeletePoints   int `toml:"days_to_delete_points"`
	DaysToDeleteVisit    int `toml:"days_to_delete_visit"`
	DaysToDeleteStandard int `toml:"days_to_delete_standard"`

	Timezone string `toml:"timezone"`

	// Categories overrides individual category rules keyed by category name
	// ("Visit", a work type such as "Competition", or "Standard").
	Categories map[string]CategoryOverride `toml:"categories"`
}

// CategoryOverride replaces selected fields of a built-in category rule.
type CategoryOverride struct {
	RetentionDays     *int     `toml:"retention_days"`
	ForbiddenWeekdays []string `toml:"forbidden_weekdays"`
	SameDayOnly       *bool    `toml:"same_day_only"`
	MaxPoints         *int     `toml:"max_points"`
}

// DefaultRules mirrors the values the journal has always shipped with.
func DefaultRules() RulesConfig {
	return RulesConfig{
		RequiredPointAmount:          50,
		MaxPointsForStandards:        30,
		MaxPointsAmount:              50,
		MaxPointsForExternalFitness:  10,
		MaxPointsForScience:          30,
		MaxPointsForOneStandard:      10,
		MinTotalPointsToAddStandards: 40,

		MaxPointsForOneStandardUpperCourses: 5,

		PointsLifeDays:           60,
		OnlineWorkPointsLifeDays: 7,
		VisitLifeDays:            7,
		StandardLifeDays:         7,
		DaysToDeletePoints:       30,
		DaysToDeleteVisit:        30,
		DaysToDeleteStandard:     30,
		Timezone:                 "Asia/Yekaterinburg",
	}
}

// MergeFile overlays non-zero values from a TOML rules file.
func (r *RulesConfig) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read rules file: %w", err)
	}
	var fileRules RulesConfig
	if err := toml.Unmarshal(data, &fileRules); err != nil {
		return fmt.Errorf("parse rules file %s: %w", path, err)
	}
	r.merge(fileRules)
	return nil
}

func (r *RulesConfig) merge(other RulesConfig) {
	setInt := func(dst *int, src int) {
		if src > 0 {
			*dst = src
		}
	}
	setInt(&r.RequiredPointAmount, other.RequiredPointAmount)
	setInt(&r.MaxPointsForStandards, other.MaxPointsForStandards)
	setInt(&r.MaxPointsAmount, other.MaxPointsAmount)
	setInt(&r.MaxPointsForExternalFitness, other.MaxPointsForExternalFitness)
	setInt(&r.MaxPointsForScience, other.MaxPointsForScience)
	setInt(&r.MaxPointsForOneStandard, other.MaxPointsForOneStandard)
	setInt(&r.MinTotalPointsToAddStandards, other.MinTotalPointsToAddStandards)
	setInt(&r.MaxPointsForOneStandardUpperCourses, other.MaxPointsForOneStandardUpperCourses)
	setInt(&r.PointsLifeDays, other.PointsLifeDays)
	setInt(&r.OnlineWorkPointsLifeDays, other.OnlineWorkPointsLifeDays)
	setInt(&r.VisitLifeDays, other.VisitLifeDays)
	setInt(&r.StandardLifeDays, other.StandardLifeDays)
	setInt(&r.DaysToDeletePoints, other.DaysToDeletePoints)
	setInt(&r.DaysToDeleteVisit, other.DaysToDeleteVisit)
	setInt(&r.DaysToDeleteStandard, other.DaysToDeleteStandard)
	if other.Timezone != "" {
		r.Timezone = other.Timezone
	}
	if len(other.Categories) > 0 {
		if r.Categories == nil {
			r.Categories = make(map[string]CategoryOverride, len(other.Categories))
		}
		for name, override := range other.Categories {
			r.Categories[name] = override
		}
	}
}

// Location resolves the configured timezone, falling back to UTC.
func (r RulesConfig) Location() *time.Location {
	if r.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ParseWeekdays converts names such as "sunday" or "Mon" into time.Weekday values.
func ParseWeekdays(names []string) ([]time.Weekday, error) {
	result := make([]time.Weekday, 0, len(names))
	for _, name := range names {
		day, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", name)
		}
		result = append(result, day)
	}
	return result, nil
}

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}
