package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/jitenkr2030/Rail-Clean/internal/domain"
)

// RecentAlertsLimit is the number of alerts listed on the dashboard.
const RecentAlertsLimit = 10

// Counts are the headline numbers of the dashboard overview.
type Counts struct {
	Feedback      int64
	ActiveTrains  int64
	ActiveCoaches int64
	ActiveAlerts  int64
}

// Source supplies the read snapshot the rollups are computed from. Calls are not
// pinned to one transaction, so figures from different calls may reflect slightly
// different data under concurrent writes.
type Source interface {
	Counts(ctx context.Context) (Counts, error)
	TrainNodes(ctx context.Context) ([]TrainNode, error)
	Divisions(ctx context.Context) ([]domain.Division, error)
	Stations(ctx context.Context) ([]domain.Station, error)
	CategoryTotals(ctx context.Context) (CategoryTotals, error)
	RatingPointsSince(ctx context.Context, since time.Time) ([]RatingPoint, error)
	RecentAlerts(ctx context.Context, limit int) ([]domain.AlertSummary, error)
}

// Service assembles the dashboard and analytics payloads.
type Service struct {
	src   Source
	loc   *time.Location
	rules []Rule
	now   func() time.Time
}

// NewService builds a Service. Calendar days and hours are computed in loc.
func NewService(src Source, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{src: src, loc: loc, rules: DefaultRules, now: time.Now}
}

// Dashboard is the overview payload.
type Dashboard struct {
	Overview      Overview          `json:"overview"`
	TrainStats    []TrainSummary    `json:"trainStats"`
	DivisionStats []DivisionSummary `json:"divisionStats"`
	RecentAlerts  []AlertItem       `json:"recentAlerts"`
}

// Overview carries the headline figures.
type Overview struct {
	TotalFeedback  int64   `json:"totalFeedback"`
	TotalTrains    int64   `json:"totalTrains"`
	TotalCoaches   int64   `json:"totalCoaches"`
	ActiveAlerts   int64   `json:"activeAlerts"`
	AvgCleanliness float64 `json:"avgCleanliness"`
}

// TrainSummary is one dashboard train row.
type TrainSummary struct {
	ID            string  `json:"id"`
	TrainNumber   string  `json:"trainNumber"`
	TrainName     string  `json:"trainName"`
	AvgRating     float64 `json:"avgRating"`
	TotalFeedback int64   `json:"totalFeedback"`
	TotalCoaches  int64   `json:"totalCoaches"`
}

// DivisionSummary is one dashboard division row.
type DivisionSummary struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Code          string  `json:"code"`
	AvgRating     float64 `json:"avgRating"`
	TotalTrains   int64   `json:"totalTrains"`
	TotalFeedback int64   `json:"totalFeedback"`
}

// AlertItem is one recent alert.
type AlertItem struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Severity    string    `json:"severity"`
	Message     string    `json:"message"`
	CoachNumber string    `json:"coachNumber"`
	TrainInfo   string    `json:"trainInfo"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Dashboard computes the overview payload.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	counts, err := s.src.Counts(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("load counts: %w", err)
	}
	totals, err := s.src.CategoryTotals(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("load category totals: %w", err)
	}
	nodes, err := s.src.TrainNodes(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("load trains: %w", err)
	}
	divisions, err := s.src.Divisions(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("load divisions: %w", err)
	}
	alerts, err := s.src.RecentAlerts(ctx, RecentAlertsLimit)
	if err != nil {
		return Dashboard{}, fmt.Errorf("load alerts: %w", err)
	}

	active := make([]TrainNode, 0, len(nodes))
	for _, n := range nodes {
		if n.Train.IsActive {
			active = append(active, n)
		}
	}

	trains := RollupTrains(active, false)
	RankTrains(trains, DashboardPrecision)
	divs := RollupDivisions(divisions, active)
	RankGroups(divs, DashboardPrecision)

	out := Dashboard{
		Overview: Overview{
			TotalFeedback:  counts.Feedback,
			TotalTrains:    counts.ActiveTrains,
			TotalCoaches:   counts.ActiveCoaches,
			ActiveAlerts:   counts.ActiveAlerts,
			AvgCleanliness: Round(Tally{Count: totals.Count, Sum: totals.Overall}.Mean(), DashboardPrecision),
		},
		TrainStats:    make([]TrainSummary, 0, len(trains)),
		DivisionStats: make([]DivisionSummary, 0, len(divs)),
		RecentAlerts:  make([]AlertItem, 0, len(alerts)),
	}
	for _, t := range trains {
		out.TrainStats = append(out.TrainStats, TrainSummary{
			ID:            t.Train.ID,
			TrainNumber:   t.Train.Number,
			TrainName:     t.Train.Name,
			AvgRating:     Round(t.Ratings.Mean(), DashboardPrecision),
			TotalFeedback: t.Ratings.Count,
			TotalCoaches:  t.Coaches,
		})
	}
	for _, d := range divs {
		out.DivisionStats = append(out.DivisionStats, DivisionSummary{
			ID:            d.ID,
			Name:          d.Name,
			Code:          d.Code,
			AvgRating:     Round(d.Ratings.Mean(), DashboardPrecision),
			TotalTrains:   d.Members,
			TotalFeedback: d.Ratings.Count,
		})
	}
	for _, a := range alerts {
		out.RecentAlerts = append(out.RecentAlerts, AlertItem{
			ID:          a.ID,
			Type:        a.Type,
			Severity:    string(a.Severity),
			Message:     a.Message,
			CoachNumber: a.CoachNumber,
			TrainInfo:   fmt.Sprintf("%s - %s", a.TrainNumber, a.TrainName),
			CreatedAt:   a.CreatedAt,
		})
	}
	return out, nil
}

// Report is the analytics payload.
type Report struct {
	Summary   Summary       `json:"summary"`
	Insights  []InsightItem `json:"insights"`
	Analytics Breakdown     `json:"analytics"`
}

// Summary counts the insights of a report.
type Summary struct {
	TotalInsights  int       `json:"totalInsights"`
	CriticalIssues int       `json:"criticalIssues"`
	LastUpdated    time.Time `json:"lastUpdated"`
}

// InsightItem is the transport form of an Insight.
type InsightItem struct {
	Type           string `json:"type"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation"`
}

// Breakdown holds the detailed rollups of a report.
type Breakdown struct {
	WorstTrains         []TrainPerformance   `json:"worstTrains"`
	StationPerformance  []StationPerformance `json:"stationPerformance"`
	CategoryPerformance CategoryPerformance  `json:"categoryPerformance"`
	HourlyStats         []HourCount          `json:"hourlyStats"`
	PeakHour            int                  `json:"peakHour"`
	FeedbackTrends      []TrendPoint         `json:"feedbackTrends"`
}

// TrainPerformance is one worst-trains row.
type TrainPerformance struct {
	TrainNumber   string  `json:"trainNumber"`
	TrainName     string  `json:"trainName"`
	AvgRating     float64 `json:"avgRating"`
	FeedbackCount int64   `json:"feedbackCount"`
}

// StationPerformance is one station row.
type StationPerformance struct {
	StationCode   string  `json:"stationCode"`
	StationName   string  `json:"stationName"`
	AvgRating     float64 `json:"avgRating"`
	FeedbackCount int64   `json:"feedbackCount"`
}

// CategoryPerformance holds the global category means.
type CategoryPerformance struct {
	Cleanliness float64 `json:"cleanliness"`
	Toilet      float64 `json:"toilet"`
	Odor        float64 `json:"odor"`
	Garbage     float64 `json:"garbage"`
	Water       float64 `json:"water"`
}

// HourCount is one hourly bucket.
type HourCount struct {
	Hour  int   `json:"hour"`
	Count int64 `json:"count"`
}

// TrendPoint is one day of the feedback trend.
type TrendPoint struct {
	Date      string  `json:"date"`
	Count     int64   `json:"count"`
	AvgRating float64 `json:"avgRating"`
}

// Report computes the analytics payload.
func (s *Service) Report(ctx context.Context) (Report, error) {
	now := s.now()

	points, err := s.src.RatingPointsSince(ctx, now.Add(-TrendWindow))
	if err != nil {
		return Report{}, fmt.Errorf("load recent ratings: %w", err)
	}
	nodes, err := s.src.TrainNodes(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("load trains: %w", err)
	}
	stations, err := s.src.Stations(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("load stations: %w", err)
	}
	totals, err := s.src.CategoryTotals(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("load category totals: %w", err)
	}

	worstTrains := WorstTrains(RollupTrains(nodes, false), ReportPrecision, WorstTrainsLimit)
	worstStations := WorstGroups(RollupStations(stations, nodes), ReportPrecision)
	categories := RollupCategories(totals)
	hours := RollupHours(points, s.loc)
	days := RollupDays(points, s.loc)

	insights := Derive(InsightInput{
		Categories:    categories,
		Hours:         hours,
		WorstStations: worstStations,
		WorstTrains:   worstTrains,
		Places:        ReportPrecision,
	}, s.rules)

	out := Report{
		Summary: Summary{
			TotalInsights:  len(insights),
			CriticalIssues: CountKind(insights, InsightCritical),
			LastUpdated:    now.UTC(),
		},
		Insights: make([]InsightItem, 0, len(insights)),
		Analytics: Breakdown{
			WorstTrains:        make([]TrainPerformance, 0, len(worstTrains)),
			StationPerformance: make([]StationPerformance, 0, len(worstStations)),
			HourlyStats:        make([]HourCount, 0, len(hours)),
			PeakHour:           PeakHour(hours).Hour,
			FeedbackTrends:     make([]TrendPoint, 0, len(days)),
		},
	}

	for _, i := range insights {
		out.Insights = append(out.Insights, InsightItem{
			Type:           string(i.Kind),
			Title:          i.Title,
			Description:    i.Description,
			Recommendation: i.Recommendation,
		})
	}
	for _, t := range worstTrains {
		out.Analytics.WorstTrains = append(out.Analytics.WorstTrains, TrainPerformance{
			TrainNumber:   t.Train.Number,
			TrainName:     t.Train.Name,
			AvgRating:     Round(t.Ratings.Mean(), ReportPrecision),
			FeedbackCount: t.Ratings.Count,
		})
	}
	for _, st := range worstStations {
		out.Analytics.StationPerformance = append(out.Analytics.StationPerformance, StationPerformance{
			StationCode:   st.Code,
			StationName:   st.Name,
			AvgRating:     Round(st.Ratings.Mean(), ReportPrecision),
			FeedbackCount: st.Ratings.Count,
		})
	}
	for _, c := range categories {
		v := Round(c.Mean, ReportPrecision)
		switch c.Category {
		case domain.CategoryCleanliness:
			out.Analytics.CategoryPerformance.Cleanliness = v
		case domain.CategoryToilet:
			out.Analytics.CategoryPerformance.Toilet = v
		case domain.CategoryOdor:
			out.Analytics.CategoryPerformance.Odor = v
		case domain.CategoryGarbage:
			out.Analytics.CategoryPerformance.Garbage = v
		case domain.CategoryWater:
			out.Analytics.CategoryPerformance.Water = v
		}
	}
	for _, h := range hours {
		out.Analytics.HourlyStats = append(out.Analytics.HourlyStats, HourCount{Hour: h.Hour, Count: h.Count})
	}
	for _, d := range days {
		out.Analytics.FeedbackTrends = append(out.Analytics.FeedbackTrends, TrendPoint{
			Date:      d.Date,
			Count:     d.Ratings.Count,
			AvgRating: Round(d.Ratings.Mean(), ReportPrecision),
		})
	}
	return out, nil
}
