package httpserver

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/jitenkr2030/Rail-Clean/internal/domain"
	"github.com/jitenkr2030/Rail-Clean/internal/feedback"
)

const (
	feedbackThanks  = "Thank you for your feedback!"
	feedbackInvalid = "Invalid feedback data"
)

// score is a category score. Integral numbers such as 3.0 are accepted.
type score int

func (sc *score) UnmarshalJSON(data []byte) error {
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil || v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		return &json.UnmarshalTypeError{Value: "number " + string(data), Type: reflect.TypeOf(0)}
	}
	*sc = score(v)
	return nil
}

type feedbackRequest struct {
	CoachID     string  `json:"coachId" validate:"required,nonul"`
	Cleanliness *score  `json:"cleanliness" validate:"required,min=1,max=5"`
	Toilet      *score  `json:"toilet" validate:"required,min=1,max=5"`
	Odor        *score  `json:"odor" validate:"required,min=1,max=5"`
	Garbage     *score  `json:"garbage" validate:"required,min=1,max=5"`
	Water       *score  `json:"water" validate:"required,min=1,max=5"`
	Comments    *string `json:"comments" validate:"omitempty,max=2000,nonul"`
	Language    *string `json:"language" validate:"omitempty,max=32,nonul"`
}

func (r feedbackRequest) scores() domain.Scores {
	return domain.Scores{
		Cleanliness: int(*r.Cleanliness),
		Toilet:      int(*r.Toilet),
		Odor:        int(*r.Odor),
		Garbage:     int(*r.Garbage),
		Water:       int(*r.Water),
	}
}

type submitResponse struct {
	Success    bool   `json:"success"`
	FeedbackID string `json:"feedbackId,omitempty"`
	Message    string `json:"message"`
	Error      string `json:"error,omitempty"`
}

type feedbackItem struct {
	ID          string    `json:"id"`
	CoachID     string    `json:"coachId"`
	Cleanliness int       `json:"cleanliness"`
	Toilet      int       `json:"toilet"`
	Odor        int       `json:"odor"`
	Garbage     int       `json:"garbage"`
	Water       int       `json:"water"`
	Overall     int       `json:"overall"`
	Comments    *string   `json:"comments"`
	Language    string    `json:"language"`
	IPAddress   string    `json:"ipAddress"`
	UserAgent   string    `json:"userAgent"`
	CreatedAt   time.Time `json:"createdAt"`
}

type averagesResponse struct {
	Cleanliness float64 `json:"cleanliness"`
	Toilet      float64 `json:"toilet"`
	Odor        float64 `json:"odor"`
	Garbage     float64 `json:"garbage"`
	Water       float64 `json:"water"`
	Overall     float64 `json:"overall"`
}

type feedbackListResponse struct {
	Feedback       []feedbackItem    `json:"feedback"`
	AvgRatings     *averagesResponse `json:"avgRatings"`
	TotalResponses int               `json:"totalResponses"`
}

func (s *Server) handleSubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := decodeJSONBody(w, r, &req, false); err != nil {
		s.respondInvalidFeedback(w, decodeErrorMessage(err))
		return
	}
	if err := validate.Struct(req); err != nil {
		s.respondInvalidFeedback(w, validationMessage(err))
		return
	}

	sub := feedback.Submission{
		CoachID:   req.CoachID,
		Scores:    req.scores(),
		Comments:  normalizeStringPtr(req.Comments),
		IPAddress: clientAddress(r),
		UserAgent: r.UserAgent(),
	}
	if req.Language != nil {
		sub.Language = *req.Language
	}

	res, err := s.deps.Feedback.Submit(r.Context(), sub)
	if err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			s.respondInvalidFeedback(w, vErr.Message)
			return
		}
		s.logger.Error().Err(err).Str("coach_id", req.CoachID).Msg("submit feedback failed")
		s.respondJSON(w, http.StatusInternalServerError, submitResponse{
			Success: false,
			Message: "Failed to submit feedback",
			Error:   "internal error",
		})
		return
	}

	s.respondJSON(w, http.StatusOK, submitResponse{
		Success:    true,
		FeedbackID: res.Rating.ID,
		Message:    feedbackThanks,
	})
}

func (s *Server) respondInvalidFeedback(w http.ResponseWriter, detail string) {
	s.respondJSON(w, http.StatusBadRequest, submitResponse{
		Success: false,
		Message: feedbackInvalid,
		Error:   detail,
	})
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusTooManyRequests, submitResponse{
		Success: false,
		Message: "Too many submissions, please try again shortly",
		Error:   "rate limited",
	})
}

func (s *Server) handleListFeedback(w http.ResponseWriter, r *http.Request) {
	coachID := strings.TrimSpace(r.URL.Query().Get("coachId"))
	if coachID == "" {
		s.respondError(w, http.StatusBadRequest, "Coach ID required")
		return
	}
	if hasNUL(coachID) {
		s.respondError(w, http.StatusBadRequest, "Invalid coach ID")
		return
	}

	page, err := s.deps.Feedback.ForCoach(r.Context(), coachID)
	if err != nil {
		s.logger.Error().Err(err).Str("coach_id", coachID).Msg("list feedback failed")
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve feedback")
		return
	}

	resp := feedbackListResponse{
		Feedback:       make([]feedbackItem, 0, len(page.Ratings)),
		TotalResponses: len(page.Ratings),
	}
	for _, rt := range page.Ratings {
		resp.Feedback = append(resp.Feedback, toFeedbackItem(rt))
	}
	if avg := page.Averages; avg != nil {
		resp.AvgRatings = &averagesResponse{
			Cleanliness: avg.Cleanliness,
			Toilet:      avg.Toilet,
			Odor:        avg.Odor,
			Garbage:     avg.Garbage,
			Water:       avg.Water,
			Overall:     avg.Overall,
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func toFeedbackItem(r domain.Rating) feedbackItem {
	return feedbackItem{
		ID:          r.ID,
		CoachID:     r.CoachID,
		Cleanliness: r.Scores.Cleanliness,
		Toilet:      r.Scores.Toilet,
		Odor:        r.Scores.Odor,
		Garbage:     r.Scores.Garbage,
		Water:       r.Scores.Water,
		Overall:     r.Overall,
		Comments:    r.Comments,
		Language:    r.Language,
		IPAddress:   r.IPAddress,
		UserAgent:   r.UserAgent,
		CreatedAt:   r.CreatedAt,
	}
}

// clientAddress is the host part of RemoteAddr, which RealIP has already replaced
// with the forwarded client address when present.
func clientAddress(r *http.Request) string {
	return clientKey(r)
}

func normalizeStringPtr(ptr *string) *string {
	if ptr == nil {
		return nil
	}
	val := strings.TrimSpace(*ptr)
	if val == "" {
		return nil
	}
	return &val
}
