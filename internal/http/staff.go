package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jitenkr2030/Rail-Clean/internal/domain"
	"github.com/jitenkr2030/Rail-Clean/internal/photos"
	"github.com/jitenkr2030/Rail-Clean/internal/repository"
)

const (
	defaultRecordLimit = 20
	maxRecordLimit     = 100
)

type coachResponse struct {
	ID          string   `json:"id"`
	CoachNumber string   `json:"coachNumber"`
	Type        string   `json:"type"`
	QRCode      string   `json:"qrCode"`
	Train       trainRef `json:"train"`
}

type trainRef struct {
	TrainNumber string `json:"trainNumber"`
	TrainName   string `json:"trainName"`
}

type stationRef struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type teamResponse struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	LeaderName string     `json:"leaderName"`
	Contact    string     `json:"contact"`
	IsActive   bool       `json:"isActive"`
	Station    stationRef `json:"station"`
}

type teamListResponse struct {
	Teams []teamResponse `json:"teams"`
}

type recordCoachRef struct {
	CoachNumber string   `json:"coachNumber"`
	Train       trainRef `json:"train"`
}

type recordTeamRef struct {
	Name       string `json:"name"`
	LeaderName string `json:"leaderName"`
}

type recordResponse struct {
	ID             string         `json:"id"`
	CoachID        string         `json:"coachId"`
	TeamID         string         `json:"teamId"`
	Coach          recordCoachRef `json:"coach"`
	Team           recordTeamRef  `json:"team"`
	Status         string         `json:"status"`
	BeforePhotoURL *string        `json:"beforePhotoUrl"`
	AfterPhotoURL  *string        `json:"afterPhotoUrl"`
	Notes          *string        `json:"notes"`
	CleanedAt      time.Time      `json:"cleanedAt"`
	VerifiedAt     *time.Time     `json:"verifiedAt"`
}

type recordListResponse struct {
	Records []recordResponse `json:"records"`
}

type recordCreateRequest struct {
	CoachID        string  `json:"coachId" validate:"required,nonul"`
	TeamID         string  `json:"teamId" validate:"required,nonul"`
	Status         string  `json:"status" validate:"omitempty,oneof=pending in_progress completed verified"`
	BeforePhotoURL *string `json:"beforePhotoUrl" validate:"omitempty,max=512,nonul"`
	AfterPhotoURL  *string `json:"afterPhotoUrl" validate:"omitempty,max=512,nonul"`
	Notes          *string `json:"notes" validate:"omitempty,max=2000,nonul"`
}

type photoResponse struct {
	URL string `json:"url"`
}

func (s *Server) handleGetCoach(w http.ResponseWriter, r *http.Request) {
	qr := strings.TrimSpace(chi.URLParam(r, "qrCode"))
	if hasNUL(qr) {
		s.respondError(w, http.StatusNotFound, "Coach not found")
		return
	}
	coach, err := s.deps.Coaches.CoachByQRCode(r.Context(), qr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "Coach not found")
			return
		}
		s.logger.Error().Err(err).Str("qr_code", qr).Msg("coach lookup failed")
		s.respondError(w, http.StatusInternalServerError, "Failed to fetch coach")
		return
	}
	s.respondJSON(w, http.StatusOK, coachResponse{
		ID:          coach.ID,
		CoachNumber: coach.Number,
		Type:        coach.Type,
		QRCode:      coach.QRCode,
		Train:       trainRef{TrainNumber: coach.TrainNumber, TrainName: coach.TrainName},
	})
}

func (s *Server) handleListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := s.deps.Teams.ActiveTeams(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("list teams failed")
		s.respondError(w, http.StatusInternalServerError, "Failed to fetch teams")
		return
	}
	resp := teamListResponse{Teams: make([]teamResponse, 0, len(teams))}
	for _, t := range teams {
		resp.Teams = append(resp.Teams, teamResponse{
			ID:         t.ID,
			Name:       t.Name,
			LeaderName: t.LeaderName,
			Contact:    t.Contact,
			IsActive:   t.IsActive,
			Station:    stationRef{Name: t.StationName, Code: t.StationCode},
		})
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListCleaningRecords(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, err := parseLimit(query.Get("limit"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	coachID := strings.TrimSpace(query.Get("coachId"))
	if hasNUL(coachID) {
		s.respondError(w, http.StatusBadRequest, "Invalid coach ID")
		return
	}

	records, err := s.deps.Records.ListRecords(r.Context(), coachID, limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("list cleaning records failed")
		s.respondError(w, http.StatusInternalServerError, "Failed to fetch cleaning records")
		return
	}
	resp := recordListResponse{Records: make([]recordResponse, 0, len(records))}
	for _, rec := range records {
		resp.Records = append(resp.Records, toRecordResponse(rec))
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func parseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultRecordLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, errors.New("invalid limit value")
	}
	if limit > maxRecordLimit {
		limit = maxRecordLimit
	}
	return limit, nil
}

func (s *Server) handleCreateCleaningRecord(w http.ResponseWriter, r *http.Request) {
	var req recordCreateRequest
	if err := decodeJSONBody(w, r, &req, true); err != nil {
		s.respondError(w, http.StatusBadRequest, decodeErrorMessage(err))
		return
	}
	if err := validate.Struct(req); err != nil {
		s.respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	status := domain.CleaningStatus(req.Status)
	if status == "" {
		status = domain.CleaningPending
	}
	rec := domain.CleaningRecord{
		CoachID:        strings.TrimSpace(req.CoachID),
		TeamID:         strings.TrimSpace(req.TeamID),
		Status:         status,
		BeforePhotoURL: normalizeStringPtr(req.BeforePhotoURL),
		AfterPhotoURL:  normalizeStringPtr(req.AfterPhotoURL),
		Notes:          normalizeStringPtr(req.Notes),
	}
	if status == domain.CleaningVerified {
		now := time.Now().UTC()
		rec.VerifiedAt = &now
	}

	stored, err := s.deps.Records.CreateRecord(r.Context(), rec)
	if err != nil {
		if domain.IsValidation(err) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error().Err(err).Msg("create cleaning record failed")
		s.respondError(w, http.StatusInternalServerError, "Failed to create cleaning record")
		return
	}
	s.respondJSON(w, http.StatusCreated, toRecordResponse(stored))
}

func (s *Server) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	if s.deps.Photos == nil {
		s.respondError(w, http.StatusNotImplemented, "Photo storage is not configured")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.PhotoMaxBytes+maxRequestBody)
	if err := r.ParseMultipartForm(maxRequestBody); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusRequestEntityTooLarge, "Photo exceeds size limit")
			return
		}
		s.respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("photo")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "photo is required")
		return
	}
	defer file.Close()

	kind := photos.Kind(strings.TrimSpace(r.FormValue("kind")))
	coachID := strings.TrimSpace(r.FormValue("coachId"))
	url, err := s.deps.Photos.Save(r.Context(), kind, coachID, file)
	if err != nil {
		switch {
		case domain.IsValidation(err):
			s.respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, photos.ErrTooLarge):
			s.respondError(w, http.StatusRequestEntityTooLarge, "Photo exceeds size limit")
		default:
			s.logger.Error().Err(err).Msg("save photo failed")
			s.respondError(w, http.StatusInternalServerError, "Failed to store photo")
		}
		return
	}
	s.respondJSON(w, http.StatusCreated, photoResponse{URL: url})
}

func toRecordResponse(rec domain.CleaningRecordDetail) recordResponse {
	return recordResponse{
		ID:      rec.ID,
		CoachID: rec.CoachID,
		TeamID:  rec.TeamID,
		Coach: recordCoachRef{
			CoachNumber: rec.CoachNumber,
			Train:       trainRef{TrainNumber: rec.TrainNumber, TrainName: rec.TrainName},
		},
		Team:           recordTeamRef{Name: rec.TeamName, LeaderName: rec.TeamLeaderName},
		Status:         string(rec.Status),
		BeforePhotoURL: rec.BeforePhotoURL,
		AfterPhotoURL:  rec.AfterPhotoURL,
		Notes:          rec.Notes,
		CleanedAt:      rec.CleanedAt,
		VerifiedAt:     rec.VerifiedAt,
	}
}
