package sla

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/assetdesk/assetdesk/internal/cache"
)

// Classification buckets a single SLA evaluation.
type Classification string

const (
	ClassResolved Classification = "resolved"
	ClassNoSLA    Classification = "no_sla"
	ClassOnTrack  Classification = "on_track"
	ClassAtRisk   Classification = "at_risk"
	ClassBreached Classification = "breached"
)

// Status is the derived SLA state of one ticket. It is recomputed on every
// query and never persisted.
type Status struct {
	HasSLA         bool           `json:"has_sla"`
	DueDate        *time.Time     `json:"due_date"`
	WorkingDays    *int           `json:"working_days"`
	IsBreached     bool           `json:"is_breached"`
	DaysRemaining  *int           `json:"days_remaining"`
	HoursRemaining *int           `json:"hours_remaining"`
	Classification Classification `json:"status"`
}

const (
	holidayCacheTTL = 5 * time.Minute
	policyCacheTTL  = 5 * time.Minute
)

// HolidayCachePrefix is the key prefix under which holiday sets for queueID
// are cached. Holiday writes invalidate the whole prefix.
func HolidayCachePrefix(queueID string) string { return "sla:holidays:" + queueID + ":" }

func holidayCacheKey(queueID string, from, to time.Time) string {
	return HolidayCachePrefix(queueID) + DateKey(from).Format("2006-01-02") + ":" + DateKey(to).Format("2006-01-02")
}

// PolicyCacheKey is the key under which the active policy for
// (queueID, category) is cached.
func PolicyCacheKey(queueID string, category Category) string {
	return "sla:policy:" + queueID + ":" + string(category)
}

// Evaluator resolves SLA status for tickets against the policy and holiday
// stores. The cache is optional; a nil cache means every call hits storage.
type Evaluator struct {
	db    DB
	cache *cache.Cache
	now   func() time.Time
}

// NewEvaluator constructs an Evaluator. c may be nil.
func NewEvaluator(db DB, c *cache.Cache) *Evaluator {
	return &Evaluator{db: db, cache: c, now: time.Now}
}

// Evaluate classifies a single ticket. Storage failures degrade to no_sla
// (policies) or an empty holiday set rather than failing the call: SLA
// display must never block ticket visibility.
func (e *Evaluator) Evaluate(ctx context.Context, t Ticket) Status {
	st := e.evaluate(ctx, t)
	evaluations.WithLabelValues(string(st.Classification)).Inc()
	return st
}

func (e *Evaluator) evaluate(ctx context.Context, t Ticket) Status {
	if t.Status.IsTerminal() {
		return Status{Classification: ClassResolved}
	}
	pol, ok := e.policyFor(ctx, t.QueueID, t.Category)
	if !ok {
		return Status{Classification: ClassNoSLA}
	}
	created := t.CreatedAt.UTC()
	// Realizing N working days can span up to ~N*7/5 calendar days from
	// weekends alone; 3x leaves headroom for holiday-dense queues while
	// keeping the holiday query bounded.
	windowEnd := created.AddDate(0, 0, pol.WorkingDays*3)
	holidays := e.holidaysFor(ctx, t.QueueID, created, windowEnd)
	due := AdvanceWorkingDays(created, pol.WorkingDays, holidays)

	now := e.now().UTC()
	remaining := due.Sub(now)
	days := floorDiv(remaining, 24*time.Hour)
	hours := floorDiv(remaining, time.Hour)
	wd := pol.WorkingDays
	st := Status{
		HasSLA:         true,
		DueDate:        &due,
		WorkingDays:    &wd,
		IsBreached:     now.After(due),
		DaysRemaining:  &days,
		HoursRemaining: &hours,
	}
	switch {
	case st.IsBreached:
		st.Classification = ClassBreached
	case days <= 1:
		st.Classification = ClassAtRisk
	default:
		st.Classification = ClassOnTrack
	}
	return st
}

func (e *Evaluator) policyFor(ctx context.Context, queueID string, category Category) (Policy, bool) {
	if queueID == "" || category == "" {
		return Policy{}, false
	}
	key := PolicyCacheKey(queueID, category)
	var p Policy
	if e.cache.Get(ctx, key, &p) {
		return p, true
	}
	p, found, err := ActivePolicy(ctx, e.db, queueID, category)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("queue_id", queueID).Str("category", string(category)).Msg("sla policy lookup")
		return Policy{}, false
	}
	if found {
		e.cache.Set(ctx, key, p, policyCacheTTL)
	}
	return p, found
}

func (e *Evaluator) holidaysFor(ctx context.Context, queueID string, from, to time.Time) map[time.Time]struct{} {
	key := holidayCacheKey(queueID, from, to)
	var dates []string
	if e.cache.Get(ctx, key, &dates) {
		return parseDateSet(dates)
	}
	set, err := ListHolidays(ctx, e.db, queueID, from, to)
	if err != nil {
		// Fail open: a holiday-store outage yields optimistic due dates,
		// never a failed ticket view.
		log.Ctx(ctx).Error().Err(err).Str("queue_id", queueID).Msg("sla holiday lookup")
		return map[time.Time]struct{}{}
	}
	dates = dates[:0]
	for d := range set {
		dates = append(dates, d.Format("2006-01-02"))
	}
	sort.Strings(dates)
	e.cache.Set(ctx, key, dates, holidayCacheTTL)
	return set
}

// floorDiv divides d by unit rounding toward negative infinity, so a ticket
// breached by less than one unit reports -1 rather than 0.
func floorDiv(d, unit time.Duration) int {
	q := d / unit
	if d < 0 && d%unit != 0 {
		q--
	}
	return int(q)
}

func parseDateSet(dates []string) map[time.Time]struct{} {
	out := make(map[time.Time]struct{}, len(dates))
	for _, s := range dates {
		d, err := time.ParseInLocation("2006-01-02", s, time.UTC)
		if err != nil {
			continue
		}
		out[d] = struct{}{}
	}
	return out
}

// Summary aggregates per-ticket classifications for dashboard display.
// Resolved tickets are excluded from every bucket.
type Summary struct {
	OnTrack      int `json:"on_track"`
	AtRisk       int `json:"at_risk"`
	Breached     int `json:"breached"`
	NoSLA        int `json:"no_sla"`
	TotalWithSLA int `json:"total_with_sla"`
}

// WorklistItem pairs a ticket with its evaluated SLA status.
type WorklistItem struct {
	Ticket Ticket `json:"ticket"`
	SLA    Status `json:"sla"`
}

// Summarize classifies each ticket independently and returns bucket counts
// plus a worklist sorted breached first, then at_risk, then on_track, with
// ascending days remaining inside each bucket; entries without a numeric
// remaining value sort last.
func (e *Evaluator) Summarize(ctx context.Context, tickets []Ticket) (Summary, []WorklistItem) {
	var sum Summary
	items := make([]WorklistItem, 0, len(tickets))
	for _, t := range tickets {
		st := e.Evaluate(ctx, t)
		switch st.Classification {
		case ClassResolved:
			continue
		case ClassOnTrack:
			sum.OnTrack++
		case ClassAtRisk:
			sum.AtRisk++
		case ClassBreached:
			sum.Breached++
		case ClassNoSLA:
			sum.NoSLA++
		}
		items = append(items, WorklistItem{Ticket: t, SLA: st})
	}
	sum.TotalWithSLA = sum.OnTrack + sum.AtRisk + sum.Breached
	sort.SliceStable(items, func(i, j int) bool {
		ri, rj := classRank(items[i].SLA.Classification), classRank(items[j].SLA.Classification)
		if ri != rj {
			return ri < rj
		}
		di, dj := items[i].SLA.DaysRemaining, items[j].SLA.DaysRemaining
		switch {
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return *di < *dj
		}
	})
	return sum, items
}

func classRank(c Classification) int {
	switch c {
	case ClassBreached:
		return 0
	case ClassAtRisk:
		return 1
	case ClassOnTrack:
		return 2
	default:
		return 3
	}
}
