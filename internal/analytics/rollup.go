// Package analytics derives dashboard rollups and insights from stored ratings.
//
// Everything here is computed on read from a Source; nothing is persisted.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/jitenkr2030/Rail-Clean/internal/domain"
)

const (
	// DashboardPrecision and ReportPrecision are the decimal places used when
	// presenting means on the dashboard and analytics payloads respectively.
	DashboardPrecision = 1
	ReportPrecision    = 2

	// WorstTrainsLimit caps the analytics worst-trains list.
	WorstTrainsLimit = 5

	// TrendWindow is the trailing window covered by temporal rollups.
	TrendWindow = 7 * 24 * time.Hour
)

// Tally accumulates a rating count and the sum of their overall scores.
type Tally struct {
	Count int64
	Sum   int64
}

// Add returns the combined tally.
func (t Tally) Add(o Tally) Tally {
	return Tally{Count: t.Count + o.Count, Sum: t.Sum + o.Sum}
}

// Mean is Sum/Count, or 0 for an empty tally.
func (t Tally) Mean() float64 {
	if t.Count == 0 {
		return 0
	}
	return float64(t.Sum) / float64(t.Count)
}

// TrainNode is a train with its coach count and the tally of every rating given to
// any of its coaches.
type TrainNode struct {
	Train   domain.Train
	Coaches int64
	Ratings Tally
}

// CategoryTotals sums every category, and overall, across all ratings.
type CategoryTotals struct {
	Count       int64
	Cleanliness int64
	Toilet      int64
	Odor        int64
	Garbage     int64
	Water       int64
	Overall     int64
}

func (c CategoryTotals) sum(cat domain.Category) int64 {
	switch cat {
	case domain.CategoryCleanliness:
		return c.Cleanliness
	case domain.CategoryToilet:
		return c.Toilet
	case domain.CategoryOdor:
		return c.Odor
	case domain.CategoryGarbage:
		return c.Garbage
	case domain.CategoryWater:
		return c.Water
	}
	return 0
}

// RatingPoint is the slice of a rating the temporal rollups need.
type RatingPoint struct {
	Overall   int
	CreatedAt time.Time
}

// GroupStat is the rollup of a named group.
type GroupStat struct {
	ID      string
	Name    string
	Code    string
	Members int64
	Ratings Tally
}

// TrainStat is the rollup of a single train.
type TrainStat struct {
	Train   domain.Train
	Coaches int64
	Ratings Tally
}

// CategoryScore is the global mean of one category.
type CategoryScore struct {
	Category domain.Category
	Mean     float64
}

// DayStat summarises one calendar day of the trend window.
type DayStat struct {
	Date    string
	Ratings Tally
}

// HourStat counts submissions in one hour of the day.
type HourStat struct {
	Hour  int
	Count int64
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// RollupTrains returns one stat per train in enumeration order. When activeOnly is
// set inactive trains are skipped. Trains without ratings are kept with an empty tally.
func RollupTrains(trains []TrainNode, activeOnly bool) []TrainStat {
	stats := make([]TrainStat, 0, len(trains))
	for _, t := range trains {
		if activeOnly && !t.Train.IsActive {
			continue
		}
		stats = append(stats, TrainStat{Train: t.Train, Coaches: t.Coaches, Ratings: t.Ratings})
	}
	return stats
}

// RollupDivisions flattens the ratings of each division's trains. Members counts the
// trains considered; pass only the trains that should contribute.
func RollupDivisions(divisions []domain.Division, trains []TrainNode) []GroupStat {
	byDivision := make(map[string]GroupStat, len(divisions))
	for _, t := range trains {
		g := byDivision[t.Train.DivisionID]
		g.Members++
		g.Ratings = g.Ratings.Add(t.Ratings)
		byDivision[t.Train.DivisionID] = g
	}

	stats := make([]GroupStat, 0, len(divisions))
	for _, d := range divisions {
		g := byDivision[d.ID]
		g.ID, g.Name, g.Code = d.ID, d.Name, d.Code
		stats = append(stats, g)
	}
	return stats
}

// RollupStations flattens ratings of the trains that originate at each station.
// Trains terminating at a station do not contribute to it.
func RollupStations(stations []domain.Station, trains []TrainNode) []GroupStat {
	byOrigin := make(map[string]GroupStat, len(stations))
	for _, t := range trains {
		g := byOrigin[t.Train.OriginID]
		g.Members++
		g.Ratings = g.Ratings.Add(t.Ratings)
		byOrigin[t.Train.OriginID] = g
	}

	stats := make([]GroupStat, 0, len(stations))
	for _, s := range stations {
		g := byOrigin[s.ID]
		g.ID, g.Name, g.Code = s.ID, s.Name, s.Code
		stats = append(stats, g)
	}
	return stats
}

// RollupCategories returns the global mean of every category in domain.Categories order.
func RollupCategories(totals CategoryTotals) []CategoryScore {
	scores := make([]CategoryScore, 0, len(domain.Categories))
	for _, c := range domain.Categories {
		scores = append(scores, CategoryScore{
			Category: c,
			Mean:     Tally{Count: totals.Count, Sum: totals.sum(c)}.Mean(),
		})
	}
	return scores
}

// RollupDays groups points by calendar day in loc, ascending. Days without ratings
// are omitted.
func RollupDays(points []RatingPoint, loc *time.Location) []DayStat {
	byDay := make(map[string]Tally)
	for _, p := range points {
		key := p.CreatedAt.In(loc).Format("2006-01-02")
		byDay[key] = byDay[key].Add(Tally{Count: 1, Sum: int64(p.Overall)})
	}

	days := make([]DayStat, 0, len(byDay))
	for date, tally := range byDay {
		days = append(days, DayStat{Date: date, Ratings: tally})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}

// RollupHours counts points per hour of the day in loc. All 24 hours are returned.
func RollupHours(points []RatingPoint, loc *time.Location) []HourStat {
	hours := make([]HourStat, 24)
	for h := range hours {
		hours[h].Hour = h
	}
	for _, p := range points {
		hours[p.CreatedAt.In(loc).Hour()].Count++
	}
	return hours
}

// PeakHour returns the busiest hour; the earliest hour wins a tie.
func PeakHour(hours []HourStat) HourStat {
	var peak HourStat
	for i, h := range hours {
		if i == 0 || h.Count > peak.Count {
			peak = h
		}
	}
	return peak
}

// WorstTrains drops trains without ratings, orders the rest by ascending mean rounded
// to places, and keeps at most limit. Equal means keep enumeration order.
func WorstTrains(stats []TrainStat, places, limit int) []TrainStat {
	rated := make([]TrainStat, 0, len(stats))
	for _, s := range stats {
		if s.Ratings.Count > 0 {
			rated = append(rated, s)
		}
	}
	sort.SliceStable(rated, func(i, j int) bool {
		return Round(rated[i].Ratings.Mean(), places) < Round(rated[j].Ratings.Mean(), places)
	})
	if limit > 0 && len(rated) > limit {
		rated = rated[:limit]
	}
	return rated
}

// WorstGroups drops groups without ratings and orders the rest by ascending mean
// rounded to places.
func WorstGroups(stats []GroupStat, places int) []GroupStat {
	rated := make([]GroupStat, 0, len(stats))
	for _, s := range stats {
		if s.Ratings.Count > 0 {
			rated = append(rated, s)
		}
	}
	sort.SliceStable(rated, func(i, j int) bool {
		return Round(rated[i].Ratings.Mean(), places) < Round(rated[j].Ratings.Mean(), places)
	})
	return rated
}

// RankTrains orders train stats by descending rounded mean, in place.
func RankTrains(stats []TrainStat, places int) {
	sort.SliceStable(stats, func(i, j int) bool {
		return Round(stats[i].Ratings.Mean(), places) > Round(stats[j].Ratings.Mean(), places)
	})
}

// RankGroups orders group stats by descending rounded mean, in place.
func RankGroups(stats []GroupStat, places int) {
	sort.SliceStable(stats, func(i, j int) bool {
		return Round(stats[i].Ratings.Mean(), places) > Round(stats[j].Ratings.Mean(), places)
	})
}
