package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jitenkr2030/Rail-Clean/internal/analytics"
	"github.com/jitenkr2030/Rail-Clean/internal/config"
	"github.com/jitenkr2030/Rail-Clean/internal/domain"
	"github.com/jitenkr2030/Rail-Clean/internal/feedback"
	"github.com/jitenkr2030/Rail-Clean/internal/logging"
	"github.com/jitenkr2030/Rail-Clean/internal/photos"
	"github.com/jitenkr2030/Rail-Clean/internal/repository"
)

type fakeFeedback struct {
	submitted []feedback.Submission
	submitErr error
	page      feedback.CoachFeedback
	listErr   error
}

func (f *fakeFeedback) Submit(_ context.Context, sub feedback.Submission) (feedback.Result, error) {
	if f.submitErr != nil {
		return feedback.Result{}, f.submitErr
	}
	f.submitted = append(f.submitted, sub)
	return feedback.Result{Rating: domain.Rating{ID: "rating-1", CoachID: sub.CoachID, Scores: sub.Scores, Overall: sub.Scores.Overall()}}, nil
}

func (f *fakeFeedback) ForCoach(_ context.Context, coachID string) (feedback.CoachFeedback, error) {
	return f.page, f.listErr
}

type fakeReports struct{ err error }

func (f fakeReports) Dashboard(context.Context) (analytics.Dashboard, error) {
	return analytics.Dashboard{}, f.err
}

func (f fakeReports) Report(context.Context) (analytics.Report, error) {
	return analytics.Report{}, f.err
}

type fakeHealth struct{ err error }

func (f fakeHealth) HealthCheck(context.Context) error { return f.err }

type fakeCoaches map[string]domain.CoachInfo

func (f fakeCoaches) CoachByQRCode(_ context.Context, qr string) (domain.CoachInfo, error) {
	c, ok := f[qr]
	if !ok {
		return domain.CoachInfo{}, repository.ErrNotFound
	}
	return c, nil
}

type fakeStaff struct {
	teams   []domain.CleaningTeam
	records []domain.CleaningRecordDetail
	created []domain.CleaningRecord
	gotArgs [2]any
}

func (f *fakeStaff) ActiveTeams(context.Context) ([]domain.CleaningTeam, error) {
	return f.teams, nil
}

func (f *fakeStaff) CreateRecord(_ context.Context, rec domain.CleaningRecord) (domain.CleaningRecordDetail, error) {
	if rec.TeamID == "missing" {
		return domain.CleaningRecordDetail{}, domain.NewValidationError("teamId", "team not found")
	}
	f.created = append(f.created, rec)
	rec.ID = "rec-1"
	return domain.CleaningRecordDetail{CleaningRecord: rec, CoachNumber: "C01", TeamName: "Team"}, nil
}

func (f *fakeStaff) ListRecords(_ context.Context, coachID string, limit int) ([]domain.CleaningRecordDetail, error) {
	f.gotArgs = [2]any{coachID, limit}
	return f.records, nil
}

type testServer struct {
	*Server
	feedback *fakeFeedback
	staff    *fakeStaff
}

func testConfig() config.Config {
	return config.Config{
		Port:              "0",
		ReadTimeoutSecs:   15,
		WriteTimeoutSecs:  15,
		IdleTimeoutSecs:   60,
		FeedbackRateRPS:   1000,
		FeedbackRateBurst: 1000,
		PhotoMaxBytes:     1 << 10,
	}
}

func buildFakeServer(tb testing.TB, mutate func(*config.Config, *Deps)) *testServer {
	tb.Helper()
	fb := &fakeFeedback{}
	staff := &fakeStaff{}
	store, err := photos.NewFileStore(tb.TempDir(), PhotoPrefix, 1<<10)
	if err != nil {
		tb.Fatalf("photo store: %v", err)
	}
	cfg := testConfig()
	deps := Deps{
		Health:   fakeHealth{},
		Feedback: fb,
		Reports:  fakeReports{},
		Coaches: fakeCoaches{"12301-C01": {
			Coach:       domain.Coach{ID: "coach-1", Number: "C01", Type: "AC1", QRCode: "12301-C01"},
			TrainNumber: "12301",
			TrainName:   "Rajdhani Express",
		}},
		Teams:   staff,
		Records: staff,
		Photos:  store,
		Logger:  logging.Discard(),
	}
	if mutate != nil {
		mutate(&cfg, &deps)
	}
	srv := New(cfg, deps)
	tb.Cleanup(srv.limiter.Close)
	return &testServer{Server: srv, feedback: fb, staff: staff}
}

func do(t testing.TB, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t testing.TB, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHandleSubmitFeedback_Success(t *testing.T) {
	srv := buildFakeServer(t, nil)
	body := `{"coachId":"coach-1","cleanliness":4,"toilet":4,"odor":5,"garbage":3,"water":4,"comments":"  ok  ","extra":"ignored"}`
	rec := do(t, srv, http.MethodPost, "/feedback", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decode[submitResponse](t, rec)
	if !resp.Success || resp.FeedbackID != "rating-1" || resp.Message != "Thank you for your feedback!" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(srv.feedback.submitted) != 1 {
		t.Fatalf("submitted = %d", len(srv.feedback.submitted))
	}
	sub := srv.feedback.submitted[0]
	if sub.Comments == nil || *sub.Comments != "ok" || sub.Language != "" {
		t.Fatalf("unexpected submission: %+v", sub)
	}
	if sub.IPAddress != "192.0.2.1" {
		t.Fatalf("ip = %q, want httptest remote address", sub.IPAddress)
	}
}

func TestHandleSubmitFeedback_IntegralFloatScores(t *testing.T) {
	srv := buildFakeServer(t, nil)
	body := `{"coachId":"coach-1","cleanliness":3.0,"toilet":4,"odor":5.0,"garbage":1e0,"water":2}`
	rec := do(t, srv, http.MethodPost, "/feedback", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	want := domain.Scores{Cleanliness: 3, Toilet: 4, Odor: 5, Garbage: 1, Water: 2}
	if got := srv.feedback.submitted[0].Scores; got != want {
		t.Fatalf("scores = %+v, want %+v", got, want)
	}
}

func TestHandleSubmitFeedback_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "zero cleanliness", body: `{"coachId":"c","cleanliness":0,"toilet":3,"odor":3,"garbage":3,"water":3}`, wantErr: "cleanliness"},
		{name: "six cleanliness", body: `{"coachId":"c","cleanliness":6,"toilet":3,"odor":3,"garbage":3,"water":3}`, wantErr: "cleanliness"},
		{name: "fractional score", body: `{"coachId":"c","cleanliness":3.5,"toilet":3,"odor":3,"garbage":3,"water":3}`, wantErr: "Invalid value for field cleanliness"},
		{name: "string score", body: `{"coachId":"c","cleanliness":"3","toilet":3,"odor":3,"garbage":3,"water":3}`, wantErr: "cleanliness"},
		{name: "missing water", body: `{"coachId":"c","cleanliness":3,"toilet":3,"odor":3,"garbage":3}`, wantErr: "water is required"},
		{name: "missing coach", body: `{"cleanliness":3,"toilet":3,"odor":3,"garbage":3,"water":3}`, wantErr: "coachId is required"},
		{name: "NUL in coach", body: `{"coachId":"c\u0000","cleanliness":3,"toilet":3,"odor":3,"garbage":3,"water":3}`, wantErr: "coachId must not contain NUL"},
		{name: "NUL in comments", body: `{"coachId":"c","cleanliness":3,"toilet":3,"odor":3,"garbage":3,"water":3,"comments":"a\u0000b"}`, wantErr: "comments must not contain NUL"},
		{name: "NUL in language", body: `{"coachId":"c","cleanliness":3,"toilet":3,"odor":3,"garbage":3,"water":3,"language":"\u0000"}`, wantErr: "language must not contain NUL"},
		{name: "malformed", body: `{"coachId":`, wantErr: "Malformed"},
		{name: "empty", body: ``, wantErr: "empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := buildFakeServer(t, nil)
			rec := do(t, srv, http.MethodPost, "/feedback", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
			}
			resp := decode[submitResponse](t, rec)
			if resp.Success || resp.Message != "Invalid feedback data" || !strings.Contains(resp.Error, tt.wantErr) {
				t.Fatalf("unexpected response: %+v", resp)
			}
			if len(srv.feedback.submitted) != 0 {
				t.Fatalf("invalid request reached the service")
			}
		})
	}
}

func TestHandleSubmitFeedback_ServiceErrors(t *testing.T) {
	t.Run("validation", func(t *testing.T) {
		srv := buildFakeServer(t, nil)
		srv.feedback.submitErr = domain.NewValidationError("coachId", "coach not found")
		rec := do(t, srv, http.MethodPost, "/feedback", `{"coachId":"x","cleanliness":3,"toilet":3,"odor":3,"garbage":3,"water":3}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		if resp := decode[submitResponse](t, rec); resp.Error != "coach not found" {
			t.Fatalf("error = %q", resp.Error)
		}
	})
	t.Run("store failure", func(t *testing.T) {
		srv := buildFakeServer(t, nil)
		srv.feedback.submitErr = errors.New("connection refused")
		rec := do(t, srv, http.MethodPost, "/feedback", `{"coachId":"x","cleanliness":3,"toilet":3,"odor":3,"garbage":3,"water":3}`)
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", rec.Code)
		}
		if strings.Contains(rec.Body.String(), "connection refused") {
			t.Fatalf("internal error leaked: %s", rec.Body.String())
		}
	})
}

func TestHandleSubmitFeedback_RateLimited(t *testing.T) {
	srv := buildFakeServer(t, func(cfg *config.Config, _ *Deps) {
		cfg.FeedbackRateRPS = 0.001
		cfg.FeedbackRateBurst = 2
	})
	body := `{"coachId":"c","cleanliness":3,"toilet":3,"odor":3,"garbage":3,"water":3}`

	for i := 0; i < 2; i++ {
		if rec := do(t, srv, http.MethodPost, "/feedback", body); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
	rec := do(t, srv, http.MethodPost, "/feedback", body)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After header")
	}

	// Reads are not limited.
	if rec := do(t, srv, http.MethodGet, "/feedback?coachId=c", ""); rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d", rec.Code)
	}
}

func TestHandleListFeedback(t *testing.T) {
	srv := buildFakeServer(t, nil)

	rec := do(t, srv, http.MethodGet, "/feedback", "")
	if rec.Code != http.StatusBadRequest || decode[errorResponse](t, rec).Error != "Coach ID required" {
		t.Fatalf("missing coachId: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, srv, http.MethodGet, "/feedback?coachId=empty", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"avgRatings":null`) || !strings.Contains(rec.Body.String(), `"feedback":[]`) {
		t.Fatalf("empty page body = %s", rec.Body.String())
	}

	srv.feedback.page = feedback.CoachFeedback{
		Ratings:  []domain.Rating{{ID: "a", Overall: 1}, {ID: "b", Overall: 5}},
		Averages: &domain.RatingAverages{Overall: 3},
	}
	rec = do(t, srv, http.MethodGet, "/feedback?coachId=X", "")
	resp := decode[feedbackListResponse](t, rec)
	if resp.TotalResponses != 2 || resp.AvgRatings == nil || resp.AvgRatings.Overall != 3.0 {
		t.Fatalf("unexpected response: %+v", resp)
	}

	rec = do(t, srv, http.MethodGet, "/feedback?coachId=abc%00", "")
	if rec.Code != http.StatusBadRequest || decode[errorResponse](t, rec).Error != "Invalid coach ID" {
		t.Fatalf("NUL coachId: %d %s", rec.Code, rec.Body.String())
	}

	srv.feedback.listErr = errors.New("boom")
	rec = do(t, srv, http.MethodGet, "/feedback?coachId=X", "")
	if rec.Code != http.StatusInternalServerError || decode[errorResponse](t, rec).Error != "Failed to retrieve feedback" {
		t.Fatalf("failure: %d %s", rec.Code, rec.Body.String())
	}
}

func TestHandleReports_Errors(t *testing.T) {
	srv := buildFakeServer(t, func(_ *config.Config, d *Deps) {
		d.Reports = fakeReports{err: errors.New("db down")}
	})
	tests := []struct {
		path string
		want string
	}{
		{path: "/dashboard", want: "Failed to fetch dashboard data"},
		{path: "/analytics", want: "Failed to fetch analytics data"},
	}
	for _, tt := range tests {
		rec := do(t, srv, http.MethodGet, tt.path, "")
		if rec.Code != http.StatusInternalServerError || decode[errorResponse](t, rec).Error != tt.want {
			t.Fatalf("%s: %d %s", tt.path, rec.Code, rec.Body.String())
		}
	}
}

func TestHandleHealthz(t *testing.T) {
	srv := buildFakeServer(t, nil)
	if rec := do(t, srv, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	down := buildFakeServer(t, func(_ *config.Config, d *Deps) { d.Health = fakeHealth{err: errors.New("down")} })
	if rec := do(t, down, http.MethodGet, "/healthz", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestHandleGetCoach(t *testing.T) {
	srv := buildFakeServer(t, nil)

	rec := do(t, srv, http.MethodGet, "/coaches/12301-C01", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decode[coachResponse](t, rec)
	if resp.ID != "coach-1" || resp.Train.TrainName != "Rajdhani Express" {
		t.Fatalf("unexpected coach: %+v", resp)
	}

	if rec := do(t, srv, http.MethodGet, "/coaches/nope", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandleCleaningRecords(t *testing.T) {
	srv := buildFakeServer(t, nil)

	rec := do(t, srv, http.MethodPost, "/cleaning-records", `{"coachId":"coach-1","teamId":"team-1","status":"verified","notes":"done"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	created := srv.staff.created[0]
	if created.Status != domain.CleaningVerified || created.VerifiedAt == nil {
		t.Fatalf("created = %+v", created)
	}

	rec = do(t, srv, http.MethodPost, "/cleaning-records", `{"coachId":"coach-1","teamId":"team-1"}`)
	if rec.Code != http.StatusCreated || srv.staff.created[1].Status != domain.CleaningPending {
		t.Fatalf("default status not applied: %d", rec.Code)
	}

	badRequests := []string{
		`{"coachId":"coach-1","teamId":"team-1","status":"scrubbed"}`,
		`{"teamId":"team-1"}`,
		`{"coachId":"coach-1","teamId":"team-1","colour":"red"}`,
		`{"coachId":"coach-1","teamId":"missing"}`,
		`{"coachId":"coach-1","teamId":"team-1","notes":"a\u0000b"}`,
	}
	for _, body := range badRequests {
		if rec := do(t, srv, http.MethodPost, "/cleaning-records", body); rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: status = %d, want 400", body, rec.Code)
		}
	}

	rec = do(t, srv, http.MethodGet, "/cleaning-records?coachId=coach-1&limit=500", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	if srv.staff.gotArgs != [2]any{"coach-1", 100} {
		t.Fatalf("list args = %v", srv.staff.gotArgs)
	}
	do(t, srv, http.MethodGet, "/cleaning-records", "")
	if srv.staff.gotArgs != [2]any{"", 20} {
		t.Fatalf("default args = %v", srv.staff.gotArgs)
	}
	if rec := do(t, srv, http.MethodGet, "/cleaning-records?coachId=a%00", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("NUL coachId status = %d", rec.Code)
	}
	if rec := do(t, srv, http.MethodGet, "/cleaning-records?limit=abc", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad limit status = %d", rec.Code)
	}
}

func TestHandleListTeams(t *testing.T) {
	srv := buildFakeServer(t, nil)
	srv.staff.teams = []domain.CleaningTeam{{ID: "t1", Name: "Delhi Cleaning Team A", StationName: "New Delhi", StationCode: "NDLS", IsActive: true}}

	rec := do(t, srv, http.MethodGet, "/teams", "")
	resp := decode[teamListResponse](t, rec)
	if len(resp.Teams) != 1 || resp.Teams[0].Station.Code != "NDLS" {
		t.Fatalf("teams = %+v", resp)
	}
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func multipartPhoto(t testing.TB, kind, coachID string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("kind", kind)
	_ = mw.WriteField("coachId", coachID)
	fw, err := mw.CreateFormFile("photo", "coach.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = fw.Write(data)
	_ = mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestHandleUploadPhoto(t *testing.T) {
	srv := buildFakeServer(t, nil)

	body, ct := multipartPhoto(t, "after", "coach-1", pngHeader)
	req := httptest.NewRequest(http.MethodPost, "/photos", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	resp := decode[photoResponse](t, rec)
	if !strings.HasPrefix(resp.URL, "/photos/after/coach-1-") {
		t.Fatalf("url = %q", resp.URL)
	}

	get := do(t, srv, http.MethodGet, resp.URL, "")
	if get.Code != http.StatusOK || !bytes.Equal(get.Body.Bytes(), pngHeader) {
		t.Fatalf("served photo: %d", get.Code)
	}

	body, ct = multipartPhoto(t, "during", "coach-1", pngHeader)
	req = httptest.NewRequest(http.MethodPost, "/photos", body)
	req.Header.Set("Content-Type", ct)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad kind status = %d", rec.Code)
	}
}

func TestHandleUploadPhoto_TooLarge(t *testing.T) {
	srv := buildFakeServer(t, nil)

	tests := []struct {
		name string
		size int
	}{
		{name: "over photo limit", size: 2 << 10},
		{name: "over request limit", size: maxRequestBody + 4<<10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := append(append([]byte{}, pngHeader...), make([]byte, tt.size)...)
			body, ct := multipartPhoto(t, "before", "coach-1", data)
			req := httptest.NewRequest(http.MethodPost, "/photos", body)
			req.Header.Set("Content-Type", ct)
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)
			if rec.Code != http.StatusRequestEntityTooLarge {
				t.Fatalf("status = %d, want 413 (body %s)", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRecordResponseShape(t *testing.T) {
	verified := time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC)
	resp := toRecordResponse(domain.CleaningRecordDetail{
		CleaningRecord: domain.CleaningRecord{ID: "r", Status: domain.CleaningCompleted, VerifiedAt: &verified},
		CoachNumber:    "C01",
		TrainNumber:    "12301",
		TrainName:      "Rajdhani Express",
		TeamName:       "Delhi Cleaning Team A",
		TeamLeaderName: "Ramesh Kumar",
	})
	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, want := range []string{`"coach":{"coachNumber":"C01","train":{"trainNumber":"12301","trainName":"Rajdhani Express"}}`, `"team":{"name":"Delhi Cleaning Team A","leaderName":"Ramesh Kumar"}`, `"verifiedAt":"2024-01-02T03:04:05Z"`} {
		if !strings.Contains(string(raw), want) {
			t.Fatalf("missing %s in %s", want, raw)
		}
	}
}
