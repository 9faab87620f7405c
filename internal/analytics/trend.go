package analytics

import (
	"math"
	"time"

	"github.com/ecodeclub/ekit/slice"

	"github.com/crb12546/musical-memory/internal/recruiting"
)

const (
	window = 30 * 24 * time.Hour
	day    = 24 * time.Hour

	TrendLabel = "vs 上月"
)

type Direction string

const (
	Up      Direction = "up"
	Down    Direction = "down"
	Neutral Direction = "neutral"
)

// Metric compares the last 30 days with the 30 days before them.
type Metric struct {
	Value     int
	Delta     int
	Direction Direction
}

// windows splits items into the recent window (at or after now-30d) and the
// previous one (from now-60d up to now-30d). Items without a timestamp fall
// in neither.
func windows[T any](items []T, now time.Time, at func(T) time.Time) (recent, previous []T) {
	recentStart := now.Add(-window)
	previousStart := now.Add(-2 * window)

	recent = slice.FindAll(items, func(item T) bool {
		t := at(item)
		return !t.IsZero() && !t.Before(recentStart)
	})
	previous = slice.FindAll(items, func(item T) bool {
		t := at(item)
		return !t.IsZero() && !t.Before(previousStart) && t.Before(recentStart)
	})
	return recent, previous
}

func ratio[T any](items []T, ok func(T) bool) float64 {
	hits := len(slice.FindAll(items, ok))
	return float64(hits) / float64(max(len(items), 1))
}

func compare(recent, previous float64) Direction {
	switch {
	case recent > previous:
		return Up
	case recent < previous:
		return Down
	default:
		return Neutral
	}
}

// round matches the half-up rounding used for displayed percentages.
func round(x float64) int {
	return int(math.Floor(x + 0.5))
}

// ProcessingEfficiency is the share of resumes whose content was parsed.
// Resumes carrying an extraction error do not count as processed.
func ProcessingEfficiency(resumes []recruiting.Resume, now time.Time) Metric {
	recent, previous := windows(resumes, now, func(r recruiting.Resume) time.Time { return r.CreatedAt.Time })

	parsed := func(r recruiting.Resume) bool { return r.ParsedContent.IsParsed() }
	r := ratio(recent, parsed)
	p := ratio(previous, parsed)

	return Metric{
		Value:     round(r * 100),
		Delta:     round((r - p) * 100),
		Direction: compare(r, p),
	}
}

// InterviewConversion is the share of interviews that were completed.
func InterviewConversion(interviews []recruiting.Interview, now time.Time) Metric {
	recent, previous := windows(interviews, now, func(iv recruiting.Interview) time.Time { return iv.CreatedAt.Time })

	completed := func(iv recruiting.Interview) bool { return iv.Status == recruiting.InterviewCompleted }
	r := ratio(recent, completed)
	p := ratio(previous, completed)

	return Metric{
		Value:     round(r * 100),
		Delta:     round((r - p) * 100),
		Direction: compare(r, p),
	}
}

// RecruitmentCycle is the average number of days closed projects took,
// from creation to their last update. A shorter cycle is reported as Up.
func RecruitmentCycle(projects []recruiting.Project, now time.Time) Metric {
	closed := slice.FindAll(projects, func(p recruiting.Project) bool { return p.Status == recruiting.ProjectClosed })
	recent, previous := windows(closed, now, func(p recruiting.Project) time.Time { return p.CreatedAt.Time })

	r := averageCycleDays(recent)
	p := averageCycleDays(previous)

	divisor := p
	if divisor == 0 {
		divisor = 1
	}

	return Metric{
		Value:     round(r),
		Delta:     round((p - r) / divisor * 100),
		Direction: compare(p, r),
	}
}

func averageCycleDays(projects []recruiting.Project) float64 {
	if len(projects) == 0 {
		return 0
	}

	var total float64
	for _, p := range projects {
		end := p.UpdatedAt.Time
		if end.IsZero() {
			end = p.CreatedAt.Time
		}
		total += float64(end.Sub(p.CreatedAt.Time)) / float64(day)
	}
	return total / float64(len(projects))
}
