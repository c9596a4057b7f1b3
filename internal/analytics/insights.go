package analytics

import (
	"fmt"
	"strings"
)

// InsightKind classifies an insight.
type InsightKind string

const (
	InsightCritical     InsightKind = "critical"
	InsightOptimization InsightKind = "optimization"
	InsightStation      InsightKind = "station"
	InsightTrain        InsightKind = "train"
)

const (
	lowScoreThreshold = 3.0
	peakLoadThreshold = 10
)

// Insight is a templated observation with a recommended action.
type Insight struct {
	Kind           InsightKind
	Title          string
	Description    string
	Recommendation string
}

// InsightInput is the rollup snapshot the rules read.
type InsightInput struct {
	// Categories must be in domain.Categories order.
	Categories []CategoryScore
	Hours      []HourStat
	// WorstStations and WorstTrains are ascending by mean and hold rated groups only.
	WorstStations []GroupStat
	WorstTrains   []TrainStat
	// Places is the precision the station and train means are compared at.
	Places int
}

// Rule produces an insight when its condition holds.
type Rule struct {
	Kind     InsightKind
	Evaluate func(in InsightInput) (Insight, bool)
}

// DefaultRules are evaluated in order by Derive.
var DefaultRules = []Rule{
	{Kind: InsightCritical, Evaluate: criticalCategory},
	{Kind: InsightOptimization, Evaluate: peakLoad},
	{Kind: InsightStation, Evaluate: worstStation},
	{Kind: InsightTrain, Evaluate: worstTrain},
}

// Derive evaluates every rule independently and returns the insights that fired, in
// rule order.
func Derive(in InsightInput, rules []Rule) []Insight {
	insights := make([]Insight, 0, len(rules))
	for _, r := range rules {
		if insight, ok := r.Evaluate(in); ok {
			insight.Kind = r.Kind
			insights = append(insights, insight)
		}
	}
	return insights
}

// CountKind returns the number of insights of the given kind.
func CountKind(insights []Insight, kind InsightKind) int {
	n := 0
	for _, i := range insights {
		if i.Kind == kind {
			n++
		}
	}
	return n
}

func criticalCategory(in InsightInput) (Insight, bool) {
	if len(in.Categories) == 0 {
		return Insight{}, false
	}
	lowest := in.Categories[0]
	for _, c := range in.Categories[1:] {
		if c.Mean < lowest.Mean {
			lowest = c
		}
	}
	if lowest.Mean >= lowScoreThreshold {
		return Insight{}, false
	}
	name := string(lowest.Category)
	return Insight{
		Title:          "Critical Issue Detected",
		Description:    fmt.Sprintf("%s has the lowest average rating (%.1f/5). Immediate attention required.", capitalize(name), lowest.Mean),
		Recommendation: fmt.Sprintf("Focus on improving %s standards across all coaches. Consider additional training for cleaning staff.", name),
	}, true
}

func peakLoad(in InsightInput) (Insight, bool) {
	if len(in.Hours) == 0 {
		return Insight{}, false
	}
	peak := PeakHour(in.Hours)
	if peak.Count <= peakLoadThreshold {
		return Insight{}, false
	}
	return Insight{
		Title:          "Peak Usage Pattern Identified",
		Description:    fmt.Sprintf("Maximum feedback received between %d:00 - %d:00 (%d responses).", peak.Hour, peak.Hour+1, peak.Count),
		Recommendation: "Schedule cleaning staff 1-2 hours before peak times to maintain cleanliness during high-traffic periods.",
	}, true
}

func worstStation(in InsightInput) (Insight, bool) {
	if len(in.WorstStations) == 0 {
		return Insight{}, false
	}
	s := in.WorstStations[0]
	mean := Round(s.Ratings.Mean(), in.Places)
	if mean >= lowScoreThreshold {
		return Insight{}, false
	}
	return Insight{
		Title:          "Station Performance Alert",
		Description:    fmt.Sprintf("%s (%s) has the lowest average rating (%.1f/5).", s.Name, s.Code, mean),
		Recommendation: "Conduct detailed inspection at this station. Consider replacing cleaning team or providing additional resources.",
	}, true
}

func worstTrain(in InsightInput) (Insight, bool) {
	if len(in.WorstTrains) == 0 {
		return Insight{}, false
	}
	t := in.WorstTrains[0]
	mean := Round(t.Ratings.Mean(), in.Places)
	if mean >= lowScoreThreshold {
		return Insight{}, false
	}
	return Insight{
		Title:          "Train Performance Alert",
		Description:    fmt.Sprintf("%s - %s has the lowest rating (%.1f/5).", t.Train.Number, t.Train.Name, mean),
		Recommendation: "Increase cleaning frequency for this train. Assign dedicated cleaning team for immediate improvement.",
	}, true
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
