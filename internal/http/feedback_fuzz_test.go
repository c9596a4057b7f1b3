package httpserver

import (
	"net/http"
	"testing"

	"github.com/jitenkr2030/Rail-Clean/internal/config"
)

func FuzzHandleSubmitFeedback(f *testing.F) {
	f.Add(`{"coachId":"c","cleanliness":3,"toilet":3,"odor":3,"garbage":3,"water":3}`)
	f.Add(`{"coachId":"c","cleanliness":9}`)
	f.Add(`{"coachId":1}`)
	f.Add(`[]`)
	f.Add(``)

	srv := buildFakeServer(f, func(cfg *config.Config, _ *Deps) {
		cfg.FeedbackRateRPS = 1e9
		cfg.FeedbackRateBurst = 1 << 30
	})
	f.Fuzz(func(t *testing.T, body string) {
		rec := do(t, srv, http.MethodPost, "/feedback", body)
		switch rec.Code {
		case http.StatusOK:
			// Accepted submissions always carry in-range scores.
			sub := srv.feedback.submitted[len(srv.feedback.submitted)-1]
			if err := sub.Scores.Validate(); err != nil {
				t.Fatalf("accepted out-of-range scores %+v for body %q", sub.Scores, body)
			}
		case http.StatusBadRequest:
		default:
			t.Fatalf("unexpected status %d for body %q", rec.Code, body)
		}
	})
}
