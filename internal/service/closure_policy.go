package service

import (
	"sort"
	"time"

	"github.com/noah-isme/physed-journal-api/internal/models"
)

// ClosureInput is everything a policy needs to split a semester into archived and carried records.
type ClosureInput struct {
	Ledger       models.StudentLedger
	History      models.StudentHistory
	Required     int
	StandardsCap int
}

// ClosurePlan describes which records move into the archive snapshot and what stays live.
type ClosurePlan struct {
	Archived models.StudentHistory
	// Full is true when every record is archived and the live history can be cleared wholesale.
	Full bool

	ArchivedVisits     int
	ArchivedAdditional int
	ArchivedStandards  int
	VisitValue         float64
	TotalPoints        float64

	RemainingVisits     int
	RemainingAdditional int
	RemainingStandards  int
}

// ClosurePolicy decides how a semester is closed.
type ClosurePolicy interface {
	Name() string
	Plan(in ClosureInput) ClosurePlan
}

// NewClosurePolicy returns the policy configured by name; unknown names fall back to a full reset.
func NewClosurePolicy(name string) ClosurePolicy {
	if name == "fifo" {
		return FIFODebtPolicy{}
	}
	return FullResetPolicy{}
}

// FullResetPolicy archives the whole semester and zeroes every counter.
type FullResetPolicy struct{}

// Name implements ClosurePolicy.
func (FullResetPolicy) Name() string { return "full" }

// Plan implements ClosurePolicy.
func (FullResetPolicy) Plan(in ClosureInput) ClosurePlan {
	return ClosurePlan{
		Archived:           in.History,
		Full:               true,
		ArchivedVisits:     in.Ledger.Visits,
		ArchivedAdditional: in.Ledger.AdditionalPoints,
		ArchivedStandards:  in.Ledger.PointsForStandards,
		VisitValue:         in.Ledger.EffectiveVisitValue(),
		TotalPoints:        in.Ledger.TotalPoints(),
	}
}

// FIFODebtPolicy closes a debt with the oldest records first and carries the surplus into the
// new semester. Students without debt are closed with a full reset.
type FIFODebtPolicy struct{}

// Name implements ClosurePolicy.
func (FIFODebtPolicy) Name() string { return "fifo" }

type closureItem struct {
	date  time.Time
	kind  int
	index int
}

const (
	itemVisit = iota
	itemPoints
	itemStandard
)

// Plan implements ClosurePolicy.
func (p FIFODebtPolicy) Plan(in ClosureInput) ClosurePlan {
	if !in.Ledger.HasDebtFromPreviousSemester {
		return FullResetPolicy{}.Plan(in)
	}

	items := make([]closureItem, 0, len(in.History.Visits)+len(in.History.Points)+len(in.History.Standards))
	for i, v := range in.History.Visits {
		items = append(items, closureItem{date: v.Date, kind: itemVisit, index: i})
	}
	for i, r := range in.History.Points {
		items = append(items, closureItem{date: r.Date, kind: itemPoints, index: i})
	}
	for i, r := range in.History.Standards {
		items = append(items, closureItem{date: r.Date, kind: itemStandard, index: i})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].date.Equal(items[j].date) {
			return items[i].date.Before(items[j].date)
		}
		return items[i].kind < items[j].kind
	})

	visitValue := in.Ledger.EffectiveVisitValue()
	plan := ClosurePlan{VisitValue: visitValue}
	var sum float64
	cut := 0
	for cut < len(items) && sum < float64(in.Required) {
		item := items[cut]
		switch item.kind {
		case itemVisit:
			plan.Archived.Visits = append(plan.Archived.Visits, in.History.Visits[item.index])
			plan.ArchivedVisits++
			sum += visitValue
		case itemPoints:
			record := in.History.Points[item.index]
			plan.Archived.Points = append(plan.Archived.Points, record)
			plan.ArchivedAdditional += record.Points
			sum += float64(record.Points)
		case itemStandard:
			record := in.History.Standards[item.index]
			plan.Archived.Standards = append(plan.Archived.Standards, record)
			credited := capStandards(plan.ArchivedStandards+record.Points, in.StandardsCap) - plan.ArchivedStandards
			plan.ArchivedStandards += credited
			sum += float64(credited)
		}
		cut++
	}
	plan.Full = cut == len(items)
	plan.TotalPoints = models.TotalPoints(plan.ArchivedVisits, visitValue, plan.ArchivedAdditional, plan.ArchivedStandards)

	var remainingStandards int
	for _, item := range items[cut:] {
		switch item.kind {
		case itemVisit:
			plan.RemainingVisits++
		case itemPoints:
			plan.RemainingAdditional += in.History.Points[item.index].Points
		case itemStandard:
			remainingStandards += in.History.Standards[item.index].Points
		}
	}
	plan.RemainingStandards = capStandards(remainingStandards, in.StandardsCap)
	return plan
}

// archivedIDs lists the record ids of each kind in h.
func archivedIDs(h models.StudentHistory) (visits, points, standards []int64) {
	for _, r := range h.Visits {
		visits = append(visits, r.ID)
	}
	for _, r := range h.Points {
		points = append(points, r.ID)
	}
	for _, r := range h.Standards {
		standards = append(standards, r.ID)
	}
	return visits, points, standards
}
